package dice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollDieBounds(t *testing.T) {
	src := NewSource(42)
	for i := 0; i < 500; i++ {
		r := RollDie(src, D20)
		require.GreaterOrEqual(t, r.Value, 1)
		require.LessOrEqual(t, r.Value, 20)
		lo, hi := r.Range()
		assert.Equal(t, 1, lo)
		assert.Equal(t, 20, hi)
	}
}

func TestRollDieUnknown(t *testing.T) {
	r := RollDie(NewQueue(5), DieType("coin"))
	assert.Equal(t, 0, r.Value)
	assert.Equal(t, 0, r.Max)
}

func TestSeededSourceReplays(t *testing.T) {
	a, b := NewSource(7), NewSource(7)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.IntN(100), b.IntN(100))
	}
}

func TestQueueSource(t *testing.T) {
	q := NewQueue(19, 0).WithFloats(0.25)
	assert.Equal(t, 20, RollDie(q, D20).Value)
	assert.Equal(t, 1, RollDie(q, D20).Value)
	assert.True(t, Chance(q, 0.3))
	// exhausted queue answers zero
	assert.Equal(t, 0, q.IntN(6))
	assert.Equal(t, 0.0, q.Float64())
}

func TestRollRange(t *testing.T) {
	assert.Equal(t, 3, RollRange(NewQueue(), 3, 3))
	assert.Equal(t, 4, RollRange(NewQueue(2), 2, 5))
	assert.Equal(t, 2, RollRange(NewQueue(0), 5, 2))
}

func TestSuccessLevelBandsD20(t *testing.T) {
	table := DefaultTable()
	cases := []struct {
		value int
		want  SuccessLevel
	}{
		{1, CriticalFailure},
		{2, Failure},
		{9, Failure},
		{10, Success},
		{15, Success},
		{16, GreatSuccess},
		{19, GreatSuccess},
		{20, CriticalSuccess},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, table.SuccessLevel(tc.value, D20), "value %d", tc.value)
	}
}

func TestSuccessLevelIsPureAndMonotonic(t *testing.T) {
	table := DefaultTable()
	for die := range table {
		prev := CriticalFailure
		for v := 1; v <= die.Sides(); v++ {
			level := table.SuccessLevel(v, die)
			assert.Equal(t, level, table.SuccessLevel(v, die), "%s value %d not stable", die, v)
			assert.GreaterOrEqual(t, level, prev, "%s band index decreased at %d", die, v)
			assert.GreaterOrEqual(t, Multiplier(level), Multiplier(prev), "%s multiplier decreased at %d", die, v)
			prev = level
		}
		assert.Equal(t, CriticalSuccess, prev, "%s has no critical face", die)
	}
}

func TestUnknownDieFallsBackToFailure(t *testing.T) {
	table := DefaultTable()
	assert.Equal(t, Failure, table.SuccessLevel(20, DieType("d7")))
	_, level := table.Resolve(NewQueue(3), DieType("bogus"))
	assert.Equal(t, Failure, level)
}

func TestMultiplierTable(t *testing.T) {
	assert.Equal(t, 0.0, Multiplier(CriticalFailure))
	assert.Equal(t, 0.0, Multiplier(Failure))
	assert.Equal(t, 1.0, Multiplier(Success))
	assert.Equal(t, 1.5, Multiplier(GreatSuccess))
	assert.Equal(t, 2.0, Multiplier(CriticalSuccess))
}

func TestApplyMultiplier(t *testing.T) {
	assert.Equal(t, 15, ApplyMultiplier(10, 1.5))
	assert.Equal(t, 0, ApplyMultiplier(10, 0))
	assert.Equal(t, 3, ApplyMultiplier(5, 0.5)) // 2.5 rounds away from zero
	for base := 0; base <= 40; base++ {
		for _, m := range []float64{0, 0.72, 1, 1.5, 2} {
			got := ApplyMultiplier(base, m)
			exact := float64(base) * m
			assert.InDelta(t, exact, float64(got), 0.5)
		}
	}
}

func TestParseTableRejectsOverlap(t *testing.T) {
	_, err := ParseTable([]byte("d6:\n  critical_failure: 2\n  failure: 2\n  success: 4\n  great_success: 5\n"))
	assert.Error(t, err)

	_, err = ParseTable([]byte("d6:\n  critical_failure: 1\n  failure: 2\n  success: 4\n  great_success: 6\n"))
	assert.Error(t, err)
}

func TestSuccessLevelText(t *testing.T) {
	b, err := GreatSuccess.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "great_success", string(b))

	var l SuccessLevel
	require.NoError(t, l.UnmarshalText([]byte("critical_failure")))
	assert.Equal(t, CriticalFailure, l)
	assert.Error(t, l.UnmarshalText([]byte("meh")))
}
