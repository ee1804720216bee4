package outcome

import (
	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/engine"
)

// ItemOutcome is the result of using an inventory item.
type ItemOutcome struct {
	Base
	ItemID   string   `json:"item_id"`
	ItemName string   `json:"item_name"`
	Consumed bool     `json:"consumed"`
	Changes  []Change `json:"changes"`
	Gamble   *Gamble  `json:"gamble,omitempty"`
	Audio    string   `json:"audio,omitempty"`

	ActorHPBefore int `json:"actor_hp_before"`
	ActorHPAfter  int `json:"actor_hp_after"`
}

// CheckItem validates item use before anything is rolled.
func (c *Calculator) CheckItem(actor *engine.ActorState, item data.Item) error {
	switch {
	case actor == nil || !actor.Alive():
		return Reject(ActionUseItem, "you are in no state to use anything")
	case !actor.HasItem(item.ID, 1):
		return Reject(ActionUseItem, "you have no %s", item.Name)
	case len(item.Effects) == 0:
		return Reject(ActionUseItem, "%s cannot be used", item.Name)
	}
	return nil
}

// UseItem resolves item use. Consumables are used up whatever the roll.
func (c *Calculator) UseItem(actor, target *engine.ActorState, item data.Item, roll dice.Roll, level dice.SuccessLevel, src dice.Source) (ItemOutcome, error) {
	if err := c.CheckItem(actor, item); err != nil {
		return ItemOutcome{}, err
	}
	out := ItemOutcome{
		Base: Base{
			Action:  ActionUseItem,
			Actor:   actor.ID,
			Roll:    roll,
			Success: level,
		},
		ItemID:        item.ID,
		ItemName:      item.Name,
		Consumed:      item.Consumable,
		Audio:         item.Audio,
		ActorHPBefore: actor.HP,
	}
	if target != nil {
		out.Target = target.ID
	}

	self := Change{ActorID: actor.ID}
	if level.Succeeded() {
		mult := dice.Multiplier(level)
		snapshot := actor
		for _, def := range item.Effects {
			res := c.applyEffect(def, mult, snapshot, target, src)
			self = merge(self, res.self)
			snapshot = projected(actor, self)
			if res.gamble != nil {
				out.Gamble = res.gamble
			}
			if res.target != nil {
				out.Changes = append(out.Changes, *res.target)
			}
		}
	}
	out.Changes = append([]Change{self}, out.Changes...)
	out.ActorHPAfter = clampHP(actor, actor.HP+self.HP)
	return out, nil
}
