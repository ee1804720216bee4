package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(ms int) time.Time {
	return time.UnixMilli(int64(ms))
}

func TestCanonicalHoldScenario(t *testing.T) {
	th := New(300 * time.Millisecond)
	polls := []int{0, 100, 300, 600, 900, 1000}
	want := []int{1, 1, 2, 3, 4, 4}

	for i, p := range polls {
		th.Offer(at(p), East)
		assert.Equal(t, want[i], th.Emitted(), "poll at %dms", p)
	}
}

func TestHoldYieldsFloorPlusOne(t *testing.T) {
	for _, tc := range []struct{ duration, window int }{{1000, 300}, {900, 300}, {250, 100}, {0, 50}} {
		th := New(time.Duration(tc.window) * time.Millisecond)
		for ms := 0; ms <= tc.duration; ms++ {
			th.Offer(at(ms), North)
		}
		assert.Equal(t, tc.duration/tc.window+1, th.Emitted(), "D=%d W=%d", tc.duration, tc.window)
	}
}

func TestDirectionChangeDoesNotResetWindow(t *testing.T) {
	th := New(300 * time.Millisecond)
	assert.True(t, th.Offer(at(0), North))
	assert.False(t, th.Offer(at(150), South))
	assert.False(t, th.Offer(at(299), West))
	assert.True(t, th.Offer(at(300), West))
}

func TestStateMachine(t *testing.T) {
	th := New(300 * time.Millisecond)
	assert.Equal(t, Idle, th.State(at(0)))
	assert.True(t, th.CanEmit(at(0)))
	th.Offer(at(0), North)
	assert.Equal(t, Emitted, th.State(at(10)))
	assert.False(t, th.CanEmit(at(10)))
	assert.Equal(t, Idle, th.State(at(300)))
}

func TestLockedAndAnimatingDrop(t *testing.T) {
	th := New(10 * time.Millisecond)
	th.SetLocked(true)
	assert.False(t, th.Offer(at(0), North))
	th.SetLocked(false)
	th.SetAnimating(true)
	assert.False(t, th.Offer(at(1000), North))
	assert.Equal(t, 0, th.Emitted())
	th.SetAnimating(false)
	assert.True(t, th.Offer(at(2000), North))
	assert.False(t, th.Offer(at(3000), None))
}

func TestKeymap(t *testing.T) {
	assert.Equal(t, North, KeyDirection("up"))
	assert.Equal(t, North, KeyDirection("W"))
	assert.Equal(t, North, KeyDirection("k"))
	assert.Equal(t, SouthEast, KeyDirection("n"))
	assert.Equal(t, None, KeyDirection("q"))

	dx, dy := NorthWest.Offset()
	assert.Equal(t, -1, dx)
	assert.Equal(t, -1, dy)
	assert.Equal(t, SouthWest, ParseDirection("sw"))
	assert.Equal(t, East, ParseDirection("East"))
	assert.Equal(t, None, ParseDirection("up"))
}
