package outcome

import (
	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/engine"
)

// MoveOutcome is one step on the grid.
type MoveOutcome struct {
	Base
	From        engine.Position `json:"from"`
	To          engine.Position `json:"to"`
	Terrain     string          `json:"terrain,omitempty"`
	StaminaCost int             `json:"stamina_cost"`
}

// Move steps actor by (dx, dy) onto a cell of the given terrain.
func (c *Calculator) Move(actor *engine.ActorState, dx, dy int, terrain string, walkable bool) (MoveOutcome, error) {
	switch {
	case actor == nil || !actor.Alive():
		return MoveOutcome{}, Reject(ActionMove, "you cannot move")
	case dx == 0 && dy == 0:
		return MoveOutcome{}, Reject(ActionMove, "no direction given")
	case dx < -1 || dx > 1 || dy < -1 || dy > 1:
		return MoveOutcome{}, Reject(ActionMove, "you can only move one cell at a time")
	case !walkable:
		return MoveOutcome{}, Reject(ActionMove, "the %s blocks your way", terrainName(terrain))
	case actor.Stamina < c.Tuning.MoveStamina:
		return MoveOutcome{}, Reject(ActionMove, "you are too exhausted to move; rest first")
	}
	return MoveOutcome{
		Base:        Base{Action: ActionMove, Actor: actor.ID, Success: dice.Success},
		From:        actor.Position,
		To:          actor.Position.Add(dx, dy),
		Terrain:     terrain,
		StaminaCost: c.Tuning.MoveStamina,
	}, nil
}

func terrainName(t string) string {
	if t == "" {
		return "terrain"
	}
	return t
}

// RestOutcome recovers stamina and a little health.
type RestOutcome struct {
	Base
	StaminaRestored int `json:"stamina_restored"`
	HPRestored      int `json:"hp_restored"`
}

// Rest recovers the actor. Resting next to a hostile creature is refused.
func (c *Calculator) Rest(actor *engine.ActorState, nearby []*engine.ActorState) (RestOutcome, error) {
	if actor == nil || !actor.Alive() {
		return RestOutcome{}, Reject(ActionRest, "you cannot rest now")
	}
	for _, n := range nearby {
		if n.Alive() && n.Behavior == engine.BehaviorAggressive && n.Position.Distance(actor.Position) <= 1 {
			return RestOutcome{}, Reject(ActionRest, "you cannot rest with %s nearby", n.Name)
		}
	}
	return RestOutcome{
		Base:            Base{Action: ActionRest, Actor: actor.ID, Success: dice.Success},
		StaminaRestored: min(c.Tuning.RestStamina, actor.MaxStamina-actor.Stamina),
		HPRestored:      min(c.Tuning.RestHP, actor.MaxHP-actor.HP),
	}, nil
}

// WaitOutcome lets the clock pass.
type WaitOutcome struct {
	Base
}

// Wait always succeeds for a living actor.
func (c *Calculator) Wait(actor *engine.ActorState) (WaitOutcome, error) {
	if actor == nil || !actor.Alive() {
		return WaitOutcome{}, Reject(ActionWait, "you cannot wait now")
	}
	return WaitOutcome{Base: Base{Action: ActionWait, Actor: actor.ID, Success: dice.Success}}, nil
}

// EquipOutcome covers both equip and unequip.
type EquipOutcome struct {
	Base
	Slot     string `json:"slot"`
	Item     string `json:"item"`
	ItemName string `json:"item_name"`
	Previous string `json:"previous,omitempty"`
}

// Equip moves an item from the inventory into its slot, returning any
// previously equipped item to the inventory.
func (c *Calculator) Equip(actor *engine.ActorState, item data.Item) (EquipOutcome, error) {
	switch {
	case actor == nil || !actor.Alive():
		return EquipOutcome{}, Reject(ActionEquip, "you cannot equip anything now")
	case !actor.HasItem(item.ID, 1):
		return EquipOutcome{}, Reject(ActionEquip, "you have no %s", item.Name)
	case item.Slot == "":
		return EquipOutcome{}, Reject(ActionEquip, "%s cannot be equipped", item.Name)
	}
	return EquipOutcome{
		Base:     Base{Action: ActionEquip, Actor: actor.ID, Success: dice.Success},
		Slot:     item.Slot,
		Item:     item.ID,
		ItemName: item.Name,
		Previous: actor.Equipment[item.Slot],
	}, nil
}

// Unequip empties a slot back into the inventory.
func (c *Calculator) Unequip(actor *engine.ActorState, slot string) (EquipOutcome, error) {
	if actor == nil || !actor.Alive() {
		return EquipOutcome{}, Reject(ActionUnequip, "you cannot unequip anything now")
	}
	item := actor.Equipment[slot]
	if item == "" {
		return EquipOutcome{}, Reject(ActionUnequip, "nothing is equipped in %s", slot)
	}
	it, _ := c.Catalog.Item(item)
	return EquipOutcome{
		Base:     Base{Action: ActionUnequip, Actor: actor.ID, Success: dice.Success},
		Slot:     slot,
		Item:     item,
		ItemName: it.Name,
	}, nil
}

// DropOutcome discards items onto the ground.
type DropOutcome struct {
	Base
	Item     string          `json:"item"`
	ItemName string          `json:"item_name"`
	Quantity int             `json:"quantity"`
	Position engine.Position `json:"position"`
}

// Drop removes qty of an item from the inventory.
func (c *Calculator) Drop(actor *engine.ActorState, item data.Item, qty int) (DropOutcome, error) {
	if qty <= 0 {
		qty = 1
	}
	switch {
	case actor == nil || !actor.Alive():
		return DropOutcome{}, Reject(ActionDrop, "you cannot drop anything now")
	case !actor.HasItem(item.ID, qty):
		return DropOutcome{}, Reject(ActionDrop, "you do not have %d %s", qty, item.Name)
	}
	return DropOutcome{
		Base:     Base{Action: ActionDrop, Actor: actor.ID, Success: dice.Success},
		Item:     item.ID,
		ItemName: item.Name,
		Quantity: qty,
		Position: actor.Position,
	}, nil
}

// FuseOutcome is the result of fusing inventory items into a new one. The
// resulting item definition comes from the fusion service or its offline
// fallback.
type FuseOutcome struct {
	Base
	Inputs    []string  `json:"inputs"`
	Result    data.Item `json:"result"`
	Narrative string    `json:"narrative"`
}

// CheckFuse validates a fusion before the remote call is made.
func (c *Calculator) CheckFuse(actor *engine.ActorState, inputs []string) error {
	if actor == nil || !actor.Alive() {
		return Reject(ActionFuse, "you cannot fuse anything now")
	}
	if len(inputs) < 2 {
		return Reject(ActionFuse, "fusion needs at least two items")
	}
	need := make(map[string]int)
	for _, in := range inputs {
		need[in]++
	}
	if m := missing(actor, need); m != "" {
		return Reject(ActionFuse, "you do not have enough %s", m)
	}
	return nil
}

// Fuse records a completed fusion.
func (c *Calculator) Fuse(actor *engine.ActorState, inputs []string, result data.Item, narrative string) (FuseOutcome, error) {
	if err := c.CheckFuse(actor, inputs); err != nil {
		return FuseOutcome{}, err
	}
	return FuseOutcome{
		Base:      Base{Action: ActionFuse, Actor: actor.ID, Success: dice.Success},
		Inputs:    append([]string(nil), inputs...),
		Result:    result,
		Narrative: narrative,
	}, nil
}
