package dedup

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaimOncePerTurn(t *testing.T) {
	g := New(3)
	tok := Token{Kind: "attack", Actor: "player", Target: "wolf-1", Turn: 3}

	assert.Equal(t, Unseen, g.State(tok))
	assert.True(t, g.Claim(tok))
	assert.False(t, g.Claim(tok))
	assert.Equal(t, Claimed, g.State(tok))

	other := tok
	other.Target = "wolf-2"
	assert.True(t, g.Claim(other))
	assert.Equal(t, 2, g.Len())
}

func TestResetExpiresOldTokens(t *testing.T) {
	g := New(1)
	tok := Token{Kind: "harvest", Actor: "player", Target: "bush", Turn: 1}
	assert.True(t, g.Claim(tok))

	g.Reset(2)
	assert.Equal(t, 0, g.Len())
	assert.Equal(t, 2, g.Turn())
	assert.Equal(t, Expired, g.State(tok))
	assert.False(t, g.Claim(tok), "a token from a past turn must not re-apply")

	tok.Turn = 2
	assert.True(t, g.Claim(tok))
}

func TestSequenceIsMonotonic(t *testing.T) {
	g := New(0)
	a, ok := g.ClaimSeq(Token{Kind: "move", Actor: "p", Turn: 0})
	assert.True(t, ok)
	g.Reset(1)
	b, ok := g.ClaimSeq(Token{Kind: "move", Actor: "p", Turn: 1})
	assert.True(t, ok)
	assert.Greater(t, b, a)
}

func TestConcurrentDoubleFire(t *testing.T) {
	g := New(5)
	tok := Token{Kind: "attack", Actor: "player", Target: "wolf-1", Turn: 5}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Claim(tok) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
