// Package dedup stamps action signatures so a second identical trigger in
// the same logical turn becomes a no-op instead of applying twice.
package dedup

import (
	"fmt"
	"sync"
)

// Token identifies one logical action within a turn.
type Token struct {
	Kind   string `json:"kind"`
	Actor  string `json:"actor"`
	Target string `json:"target,omitempty"`
	Turn   int    `json:"turn"`
}

func (t Token) String() string {
	return fmt.Sprintf("%s:%s:%s@%d", t.Kind, t.Actor, t.Target, t.Turn)
}

// State is the lifecycle position of a token.
type State int

const (
	Unseen State = iota
	Claimed
	Expired
)

func (s State) String() string {
	switch s {
	case Claimed:
		return "claimed"
	case Expired:
		return "expired"
	default:
		return "unseen"
	}
}

// Guard holds the claims of the current turn. Entries are dropped wholesale
// by Reset at the turn boundary, never by wall-clock expiry.
type Guard struct {
	mu      sync.Mutex
	turn    int
	seq     uint64
	claimed map[Token]uint64
}

// New returns a guard for the given turn.
func New(turn int) *Guard {
	return &Guard{turn: turn, claimed: make(map[Token]uint64)}
}

// Claim returns true only for the first claim of tok within the current
// turn. Tokens stamped with another turn are expired and always refused.
func (g *Guard) Claim(tok Token) bool {
	_, ok := g.ClaimSeq(tok)
	return ok
}

// ClaimSeq is Claim that also returns the monotonic sequence number the
// buffer assigned to the entry.
func (g *Guard) ClaimSeq(tok Token) (uint64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if tok.Turn != g.turn {
		return 0, false
	}
	if _, dup := g.claimed[tok]; dup {
		return 0, false
	}
	g.seq++
	g.claimed[tok] = g.seq
	return g.seq, true
}

// State reports where tok sits in its lifecycle.
func (g *Guard) State(tok Token) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if tok.Turn < g.turn {
		return Expired
	}
	if _, ok := g.claimed[tok]; ok {
		return Claimed
	}
	return Unseen
}

// Reset clears every claim and moves the guard to turn.
func (g *Guard) Reset(turn int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.turn = turn
	clear(g.claimed)
}

// Turn returns the turn the guard is currently accepting.
func (g *Guard) Turn() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turn
}

// Len returns the number of live claims.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.claimed)
}
