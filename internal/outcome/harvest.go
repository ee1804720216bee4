package outcome

import (
	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/engine"
)

// HarvestOutcome is the result of harvesting a target, either whole or one
// named part at a time.
type HarvestOutcome struct {
	Base
	TargetName string `json:"target_name"`

	// Part is empty for a whole-target harvest.
	Part            string `json:"part,omitempty"`
	RemainingBefore int    `json:"remaining_before"`
	RemainingAfter  int    `json:"remaining_after"`

	// TargetRemoved is only ever set by whole-target harvests. Part
	// harvests report AllPartsExhausted and leave removal to the plant
	// simulator.
	TargetRemoved     bool `json:"target_removed"`
	AllPartsExhausted bool `json:"all_parts_exhausted"`

	StaminaCost int    `json:"stamina_cost"`
	Loot        []Drop `json:"loot,omitempty"`
}

// choosePart picks the requested part, or the first one with anything left
// when no name is given.
func choosePart(target *engine.ActorState, name string) (engine.HarvestPart, bool) {
	if name != "" {
		return target.Part(name)
	}
	for _, p := range target.Parts {
		if p.Remaining > 0 {
			return p, true
		}
	}
	if len(target.Parts) > 0 {
		return target.Parts[0], true
	}
	return engine.HarvestPart{}, false
}

// CheckHarvest validates a harvest before anything is rolled.
func (c *Calculator) CheckHarvest(actor, target *engine.ActorState, part string) error {
	switch {
	case actor == nil || !actor.Alive():
		return Reject(ActionHarvest, "you are in no state to harvest")
	case target == nil:
		return Reject(ActionHarvest, "there is nothing here to harvest")
	case actor.Position.Distance(target.Position) > 1:
		return Reject(ActionHarvest, "%s is out of reach", target.Name)
	}

	if len(target.Parts) == 0 {
		if target.Kind != engine.KindPlant && target.Alive() {
			return Reject(ActionHarvest, "%s is still alive", target.Name)
		}
		if len(target.Loot) == 0 {
			return Reject(ActionHarvest, "%s has nothing to harvest", target.Name)
		}
		if !actor.HasTool(target.HarvestTool) {
			return Reject(ActionHarvest, "you need a %s to harvest %s", target.HarvestTool, target.Name)
		}
		if actor.Stamina < target.HarvestStamina {
			return Reject(ActionHarvest, "you are too exhausted to harvest %s", target.Name)
		}
		return nil
	}

	p, ok := choosePart(target, part)
	switch {
	case !ok:
		return Reject(ActionHarvest, "%s has no part called %q", target.Name, part)
	case p.Remaining <= 0:
		return Reject(ActionHarvest, "the %s of %s is already stripped", p.Name, target.Name)
	case !actor.HasTool(p.Tool):
		return Reject(ActionHarvest, "you need a %s to harvest the %s", p.Tool, p.Name)
	case actor.Stamina < p.StaminaCost:
		return Reject(ActionHarvest, "you are too exhausted to harvest the %s", p.Name)
	}
	return nil
}

// Harvest resolves a harvest of target. part selects a harvest part on
// part-based targets and is ignored otherwise.
func (c *Calculator) Harvest(actor, target *engine.ActorState, part string, roll dice.Roll, level dice.SuccessLevel, src dice.Source) (HarvestOutcome, error) {
	if err := c.CheckHarvest(actor, target, part); err != nil {
		return HarvestOutcome{}, err
	}
	out := HarvestOutcome{
		Base: Base{
			Action:  ActionHarvest,
			Actor:   actor.ID,
			Target:  target.ID,
			Roll:    roll,
			Success: level,
		},
		TargetName: target.Name,
	}
	mult := dice.Multiplier(level)

	if len(target.Parts) == 0 {
		out.TargetRemoved = true
		out.StaminaCost = target.HarvestStamina
		if mult > 0 {
			out.Loot = RollLoot(src, target.Loot, mult)
		}
		return out, nil
	}

	p, _ := choosePart(target, part)
	out.Part = p.Name
	out.RemainingBefore = p.Remaining
	out.RemainingAfter = p.Remaining - 1
	out.StaminaCost = p.StaminaCost
	if mult > 0 {
		out.Loot = RollLoot(src, p.Loot, mult)
	}

	exhausted := true
	for _, q := range target.Parts {
		remaining := q.Remaining
		if q.Name == p.Name {
			remaining = out.RemainingAfter
		}
		if remaining > 0 {
			exhausted = false
			break
		}
	}
	out.AllPartsExhausted = exhausted
	return out, nil
}
