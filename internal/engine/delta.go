package engine

import (
	"fmt"
	"slices"
)

// Delta is a committed change to one actor and/or the global counters.
// Numeric fields are relative; Statuses replaces the whole list when
// ReplaceStatuses is set.
type Delta struct {
	ActorID string `json:"actor_id,omitempty"`

	HP      int `json:"hp,omitempty"`
	Stamina int `json:"stamina,omitempty"`
	Mana    int `json:"mana,omitempty"`
	Hunger  int `json:"hunger,omitempty"`

	Items map[string]int `json:"items,omitempty"`

	AddStatuses     []StatusEffect `json:"add_statuses,omitempty"`
	RemoveStatuses  []string       `json:"remove_statuses,omitempty"`
	Statuses        []StatusEffect `json:"statuses,omitempty"`
	ReplaceStatuses bool           `json:"replace_statuses,omitempty"`

	// Parts sets the remaining count of named harvest parts.
	Parts map[string]int `json:"parts,omitempty"`
	// Equip maps slot to item; an empty item clears the slot.
	Equip map[string]string `json:"equip,omitempty"`
	Move  *Position         `json:"move,omitempty"`
	// Remove takes a creature out of the world.
	Remove bool `json:"remove,omitempty"`

	Counters map[string]int `json:"counters,omitempty"`
	Quests   []string       `json:"quests,omitempty"`
}

// Empty reports whether applying the delta would change nothing.
func (d Delta) Empty() bool {
	return d.HP == 0 && d.Stamina == 0 && d.Mana == 0 && d.Hunger == 0 &&
		len(d.Items) == 0 && len(d.AddStatuses) == 0 && len(d.RemoveStatuses) == 0 &&
		!d.ReplaceStatuses && len(d.Parts) == 0 && len(d.Equip) == 0 && d.Move == nil &&
		!d.Remove && len(d.Counters) == 0 && len(d.Quests) == 0
}

// Apply commits d to the state. Values are clamped to their ranges and
// inventory entries that reach zero are dropped.
func (s *GameState) Apply(d Delta) error {
	for k, v := range d.Counters {
		s.Counters[k] += v
	}
	for _, q := range d.Quests {
		s.CompletedQuests[q] = true
	}
	if d.ActorID == "" {
		return nil
	}

	a, ok := s.Actor(d.ActorID)
	if !ok {
		return fmt.Errorf("apply delta to %s: %w", d.ActorID, ErrUnknownActor)
	}

	if d.Remove {
		if a.Kind == KindPlayer {
			return fmt.Errorf("apply delta: the player cannot be removed")
		}
		delete(s.Creatures, a.ID)
		return nil
	}

	a.HP = clamp(a.HP+d.HP, 0, a.MaxHP)
	a.Stamina = clamp(a.Stamina+d.Stamina, 0, a.MaxStamina)
	a.Mana = clamp(a.Mana+d.Mana, 0, a.MaxMana)
	a.Hunger = clamp(a.Hunger+d.Hunger, 0, a.MaxHunger)

	for item, qty := range d.Items {
		n := a.Inventory[item] + qty
		if n <= 0 {
			delete(a.Inventory, item)
			continue
		}
		a.Inventory[item] = n
	}

	if d.ReplaceStatuses {
		a.Statuses = slices.Clone(d.Statuses)
		if a.Statuses == nil {
			a.Statuses = make([]StatusEffect, 0)
		}
	}
	for _, id := range d.RemoveStatuses {
		a.Statuses = slices.DeleteFunc(a.Statuses, func(s StatusEffect) bool { return s.ID == id })
	}
	for _, st := range d.AddStatuses {
		// re-applying a status refreshes it instead of stacking
		a.Statuses = slices.DeleteFunc(a.Statuses, func(s StatusEffect) bool { return s.ID == st.ID })
		a.Statuses = append(a.Statuses, st)
	}

	for name, remaining := range d.Parts {
		for i := range a.Parts {
			if a.Parts[i].Name == name {
				a.Parts[i].Remaining = max(remaining, 0)
			}
		}
	}

	for slot, item := range d.Equip {
		if item == "" {
			delete(a.Equipment, slot)
			continue
		}
		a.Equipment[slot] = item
	}

	if d.Move != nil {
		a.Position = *d.Move
	}

	if a.Kind == KindPlayer && a.HP <= 0 {
		s.Phase = PhaseOver
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return min(max(v, lo), hi)
}
