package sim

import (
	"context"
	"fmt"

	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/engine"
	"github.com/suderio/dreamland/internal/turn"
)

// Creatures moves and attacks on behalf of world inhabitants. Aggressive
// creatures hunt the player within Sight; territorial ones only strike when
// adjacent; passive ones wander.
type Creatures struct {
	src    dice.Source
	Sight  int
	Wander float64
}

// NewCreatures returns a creature simulator.
func NewCreatures(src dice.Source) *Creatures {
	return &Creatures{src: src, Sight: 5, Wander: 0.3}
}

// Step plans one move per creature.
func (c *Creatures) Step(_ context.Context, state *engine.GameState) ([]turn.Update, []string) {
	if state.Over() {
		return nil, nil
	}
	player := state.Player
	occupied := make(map[engine.Position]bool)
	for _, cr := range state.Creatures {
		occupied[cr.Position] = true
	}

	var updates []turn.Update
	var msgs []string
	for _, id := range state.CreatureIDs() {
		cr := state.Creatures[id]
		if cr.Kind != engine.KindCreature || !cr.Alive() {
			continue
		}
		dist := cr.Position.Distance(player.Position)

		switch {
		case dist <= 1 && cr.Behavior != engine.BehaviorPassive && cr.Damage > 0:
			updates = append(updates, turn.Update{
				Delta:   engine.Delta{ActorID: player.ID, HP: -cr.Damage},
				Message: fmt.Sprintf("The %s attacks you for %d damage.", cr.Name, cr.Damage),
			})
		case cr.Behavior == engine.BehaviorAggressive && dist <= c.Sight:
			next := cr.Position.Add(sign(player.Position.X-cr.Position.X), sign(player.Position.Y-cr.Position.Y))
			if next == player.Position || occupied[next] {
				continue
			}
			occupied[next] = true
			updates = append(updates, turn.Update{Delta: engine.Delta{ActorID: cr.ID, Move: &next}})
			if dist > 2 {
				msgs = append(msgs, fmt.Sprintf("You hear the %s drawing closer.", cr.Name))
			}
		case cr.Behavior == engine.BehaviorPassive && dice.Chance(c.src, c.Wander):
			next := cr.Position.Add(c.src.IntN(3)-1, c.src.IntN(3)-1)
			if next == cr.Position || next == player.Position || occupied[next] {
				continue
			}
			occupied[next] = true
			updates = append(updates, turn.Update{Delta: engine.Delta{ActorID: cr.ID, Move: &next}})
		}
	}
	return updates, msgs
}

// Reset has nothing to clear; the simulator keeps no per-session state.
func (c *Creatures) Reset() {}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
