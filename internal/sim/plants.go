package sim

import (
	"context"
	"fmt"

	"github.com/suderio/dreamland/internal/engine"
	"github.com/suderio/dreamland/internal/turn"
)

// Plants removes part-based targets once every part is exhausted and
// regrows parts on a fixed schedule.
type Plants struct {
	// RegrowTurns is how many passes a stripped part takes to grow back one
	// unit. Zero disables regrowth.
	RegrowTurns int

	stripped map[string]int
}

// NewPlants returns a plant simulator.
func NewPlants(regrow int) *Plants {
	return &Plants{RegrowTurns: regrow, stripped: make(map[string]int)}
}

// Step plans removals and regrowth.
func (p *Plants) Step(_ context.Context, state *engine.GameState) ([]turn.Update, []string) {
	var updates []turn.Update
	var msgs []string
	for _, id := range state.CreatureIDs() {
		a := state.Creatures[id]
		if len(a.Parts) == 0 {
			continue
		}
		if a.PartsExhausted() {
			updates = append(updates, turn.Update{
				Delta:   engine.Delta{ActorID: id, Remove: true},
				Message: fmt.Sprintf("The stripped %s withers away.", a.Name),
			})
			delete(p.stripped, id)
			continue
		}
		if p.RegrowTurns <= 0 {
			continue
		}
		if !partial(a) {
			delete(p.stripped, id)
			continue
		}
		p.stripped[id]++
		if p.stripped[id] < p.RegrowTurns {
			continue
		}
		p.stripped[id] = 0
		parts := make(map[string]int)
		for _, part := range a.Parts {
			if part.Remaining == 0 {
				parts[part.Name] = 1
			}
		}
		if len(parts) > 0 {
			updates = append(updates, turn.Update{Delta: engine.Delta{ActorID: id, Parts: parts}})
			if state.Player.Position.Distance(a.Position) <= 1 {
				msgs = append(msgs, fmt.Sprintf("The %s is growing back.", a.Name))
			}
		}
	}
	return updates, msgs
}

// partial reports whether some, but not all, parts are stripped.
func partial(a *engine.ActorState) bool {
	for _, part := range a.Parts {
		if part.Remaining == 0 {
			return true
		}
	}
	return false
}

// Reset forgets regrowth progress.
func (p *Plants) Reset() {
	clear(p.stripped)
}
