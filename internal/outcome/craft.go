package outcome

import (
	"maps"
	"sort"

	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/engine"
)

// CraftOutcome is the result of working a recipe.
type CraftOutcome struct {
	Base
	RecipeID    string         `json:"recipe_id"`
	RecipeName  string         `json:"recipe_name"`
	Consumed    map[string]int `json:"consumed,omitempty"`
	Produced    []Drop         `json:"produced,omitempty"`
	Lost        bool           `json:"lost"`
	StaminaCost int            `json:"stamina_cost"`
}

// BuildOutcome is the result of raising a structure. Building never rolls.
type BuildOutcome struct {
	Base
	StructureID   string          `json:"structure_id"`
	StructureName string          `json:"structure_name"`
	Consumed      map[string]int  `json:"consumed"`
	Position      engine.Position `json:"position"`
	StaminaCost   int             `json:"stamina_cost"`
}

func missing(actor *engine.ActorState, need map[string]int) string {
	keys := make([]string, 0, len(need))
	for k := range need {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !actor.HasItem(k, need[k]) {
			return k
		}
	}
	return ""
}

// CheckCraft validates a recipe before anything is rolled.
func (c *Calculator) CheckCraft(actor *engine.ActorState, r data.Recipe) error {
	switch {
	case actor == nil || !actor.Alive():
		return Reject(ActionCraft, "you are in no state to craft")
	case r.ID == "":
		return Reject(ActionCraft, "you do not know that recipe")
	case !actor.HasTool(r.Tool):
		return Reject(ActionCraft, "you need a %s to make %s", r.Tool, r.Name)
	case actor.Stamina < r.StaminaCost:
		return Reject(ActionCraft, "you are too exhausted to make %s", r.Name)
	}
	if m := missing(actor, r.Ingredients); m != "" {
		return Reject(ActionCraft, "not enough %s for %s", m, r.Name)
	}
	return nil
}

// Craft resolves a recipe. A plain failure keeps the ingredients; a
// critical failure loses them with nothing to show; a critical success
// doubles the output.
func (c *Calculator) Craft(actor *engine.ActorState, r data.Recipe, roll dice.Roll, level dice.SuccessLevel) (CraftOutcome, error) {
	if err := c.CheckCraft(actor, r); err != nil {
		return CraftOutcome{}, err
	}
	out := CraftOutcome{
		Base: Base{
			Action:  ActionCraft,
			Actor:   actor.ID,
			Roll:    roll,
			Success: level,
		},
		RecipeID:    r.ID,
		RecipeName:  r.Name,
		StaminaCost: r.StaminaCost,
	}
	switch {
	case level == dice.CriticalFailure:
		out.Consumed = maps.Clone(r.Ingredients)
		out.Lost = true
	case level.Succeeded():
		out.Consumed = maps.Clone(r.Ingredients)
		qty := max(r.Quantity, 1)
		if level == dice.CriticalSuccess {
			qty *= 2
		}
		out.Produced = []Drop{{Item: r.Output, Quantity: qty}}
	}
	return out, nil
}

// CheckBuild validates a structure.
func (c *Calculator) CheckBuild(actor *engine.ActorState, s data.Structure) error {
	switch {
	case actor == nil || !actor.Alive():
		return Reject(ActionBuild, "you are in no state to build")
	case s.ID == "":
		return Reject(ActionBuild, "you do not know how to build that")
	case !actor.HasTool(s.Tool):
		return Reject(ActionBuild, "you need a %s to build %s", s.Tool, s.Name)
	case actor.Stamina < s.StaminaCost:
		return Reject(ActionBuild, "you are too exhausted to build %s", s.Name)
	}
	if m := missing(actor, s.Materials); m != "" {
		return Reject(ActionBuild, "not enough %s for %s", m, s.Name)
	}
	return nil
}

// Build places a structure on the actor's cell.
func (c *Calculator) Build(actor *engine.ActorState, s data.Structure) (BuildOutcome, error) {
	if err := c.CheckBuild(actor, s); err != nil {
		return BuildOutcome{}, err
	}
	return BuildOutcome{
		Base:          Base{Action: ActionBuild, Actor: actor.ID, Success: dice.Success},
		StructureID:   s.ID,
		StructureName: s.Name,
		Consumed:      maps.Clone(s.Materials),
		Position:      actor.Position,
		StaminaCost:   s.StaminaCost,
	}, nil
}
