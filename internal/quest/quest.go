// Package quest evaluates achievement conditions, written in CEL, against a
// committed game state.
package quest

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"

	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/engine"
)

// Counter names every state exposes, so conditions never hit a missing key.
var Counters = []string{"kills", "harvests", "crafts", "builds", "casts", "items_used", "steps", "rests"}

// Evaluator compiles quest conditions once and checks them against states.
type Evaluator struct {
	env    *cel.Env
	quests []compiled
}

type compiled struct {
	quest data.Quest
	prg   cel.Program
}

// NewEvaluator compiles every quest condition. A quest with an invalid
// condition fails the whole catalog.
func NewEvaluator(quests []data.Quest) (*Evaluator, error) {
	env, err := cel.NewEnv(
		ext.Strings(),
		cel.Variable("player", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("counters", cel.MapType(cel.StringType, cel.IntType)),
		cel.Variable("clock", cel.MapType(cel.StringType, cel.IntType)),
		cel.Variable("weather", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("quests", cel.ListType(cel.StringType)),
		cel.Variable("creatures", cel.IntType),

		// holds(player, item) is true when the inventory has at least one.
		cel.Function("holds",
			cel.Overload("holds_map_string",
				[]*cel.Type{cel.MapType(cel.StringType, cel.DynType), cel.StringType},
				cel.BoolType,
				cel.BinaryBinding(func(p, item ref.Val) ref.Val {
					m, ok := p.(traits.Mapper)
					if !ok {
						return types.False
					}
					inv, found := m.Find(types.String("inventory"))
					if !found {
						return types.False
					}
					im, ok := inv.(traits.Mapper)
					if !ok {
						return types.False
					}
					n, found := im.Find(item)
					if !found {
						return types.False
					}
					qty, _ := n.Value().(int64)
					return types.Bool(qty > 0)
				}),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ev := &Evaluator{env: env}
	for _, q := range quests {
		ast, iss := env.Compile(q.Condition)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("quest %s: CEL compile error: %w", q.ID, iss.Err())
		}
		if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
			return nil, fmt.Errorf("quest %s: condition must be boolean, got %s", q.ID, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("quest %s: CEL program error: %w", q.ID, err)
		}
		ev.quests = append(ev.quests, compiled{quest: q, prg: prg})
	}
	return ev, nil
}

// Completed returns the quests whose condition now holds and that the
// state has not already recorded as completed. Evaluation errors are
// collected and the failing quest is treated as not satisfied.
func (e *Evaluator) Completed(state *engine.GameState) ([]data.Quest, error) {
	ctx := Context(state)
	var done []data.Quest
	var errs []error
	for _, c := range e.quests {
		if state.CompletedQuests[c.quest.ID] {
			continue
		}
		out, _, err := c.prg.Eval(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("quest %s: CEL eval error: %w", c.quest.ID, err))
			continue
		}
		if ok, _ := out.Value().(bool); ok {
			done = append(done, c.quest)
		}
	}
	return done, errors.Join(errs...)
}

// Pending lists quests not yet completed, in catalog order.
func (e *Evaluator) Pending(state *engine.GameState) []data.Quest {
	var out []data.Quest
	for _, c := range e.quests {
		if !state.CompletedQuests[c.quest.ID] {
			out = append(out, c.quest)
		}
	}
	return out
}

// Eval compiles and evaluates an ad-hoc expression against state.
func (e *Evaluator) Eval(expr string, state *engine.GameState) (any, error) {
	ast, iss := e.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("CEL compile error: %w", iss.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program error: %w", err)
	}
	out, _, err := prg.Eval(Context(state))
	if err != nil {
		return nil, fmt.Errorf("CEL eval error: %w", err)
	}
	return out.Value(), nil
}

// Context builds the CEL activation for a state.
func Context(state *engine.GameState) map[string]any {
	counters := make(map[string]int64, len(Counters)+len(state.Counters))
	for _, k := range Counters {
		counters[k] = 0
	}
	for k, v := range state.Counters {
		counters[k] = int64(v)
	}
	quests := make([]string, 0, len(state.CompletedQuests))
	for q, ok := range state.CompletedQuests {
		if ok {
			quests = append(quests, q)
		}
	}
	return map[string]any{
		"player":   actorToMap(state.Player),
		"counters": counters,
		"clock": map[string]int64{
			"minutes": int64(state.Clock.Minutes),
			"day":     int64(state.Clock.Day),
			"turn":    int64(state.Clock.Turn),
		},
		"weather": map[string]any{
			"kind":     state.Weather.Kind,
			"light":    state.Weather.Light,
			"moisture": state.Weather.Moisture,
		},
		"quests":    quests,
		"creatures": int64(len(state.Creatures)),
	}
}

// actorToMap flattens an actor so conditions can read player.hp,
// player.inventory.berry and so on.
func actorToMap(a *engine.ActorState) map[string]any {
	if a == nil {
		return map[string]any{}
	}
	statuses := make([]string, 0, len(a.Statuses))
	for _, s := range a.Statuses {
		statuses = append(statuses, s.ID)
	}
	equipment := make(map[string]any, len(a.Equipment))
	for k, v := range a.Equipment {
		equipment[k] = v
	}
	return map[string]any{
		"id":        a.ID,
		"name":      a.Name,
		"hp":        int64(a.HP),
		"max_hp":    int64(a.MaxHP),
		"stamina":   int64(a.Stamina),
		"mana":      int64(a.Mana),
		"hunger":    int64(a.Hunger),
		"attack":    int64(a.AttackPower),
		"x":         int64(a.Position.X),
		"y":         int64(a.Position.Y),
		"statuses":  statuses,
		"equipment": equipment,
		"inventory": intMapToAny(a.Inventory),
	}
}

func intMapToAny(m map[string]int) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = int64(v)
	}
	return result
}
