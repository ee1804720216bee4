package quest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/engine"
)

func quests() []data.Quest {
	return []data.Quest{
		{ID: "first_blood", Name: "First Blood", Condition: "counters.kills >= 1"},
		{ID: "forager", Name: "Forager", Condition: "holds(player, 'berry') && counters.harvests >= 2"},
		{ID: "survivor", Name: "Survivor", Condition: "clock.day >= 3"},
	}
}

func TestCompletedAgainstState(t *testing.T) {
	ev, err := NewEvaluator(quests())
	require.NoError(t, err)

	s := engine.NewGameState(nil)
	done, err := ev.Completed(s)
	require.NoError(t, err)
	assert.Empty(t, done)

	s.Counters["kills"] = 1
	s.Counters["harvests"] = 2
	s.Player.Inventory["berry"] = 3
	done, err = ev.Completed(s)
	require.NoError(t, err)
	require.Len(t, done, 2)
	assert.Equal(t, "first_blood", done[0].ID)
	assert.Equal(t, "forager", done[1].ID)

	s.CompletedQuests["first_blood"] = true
	done, err = ev.Completed(s)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "forager", done[0].ID)
	assert.Len(t, ev.Pending(s), 2)
}

func TestInvalidConditionFailsCatalog(t *testing.T) {
	_, err := NewEvaluator([]data.Quest{{ID: "bad", Condition: "counters.kills >"}})
	assert.Error(t, err)

	_, err = NewEvaluator([]data.Quest{{ID: "int", Condition: "counters.kills + 1"}})
	assert.Error(t, err)
}

func TestEvalAdHoc(t *testing.T) {
	ev, err := NewEvaluator(nil)
	require.NoError(t, err)
	s := engine.NewGameState(nil)
	s.Player.HP = 7

	out, err := ev.Eval("player.hp + 1", s)
	require.NoError(t, err)
	assert.Equal(t, int64(8), out)

	out, err = ev.Eval("weather.kind == 'clear'", s)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}
