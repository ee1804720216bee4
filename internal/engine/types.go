// Package engine holds the long-lived game model: actors, the clock and the
// GameState the turn advancer commits deltas into.
package engine

import (
	"fmt"
	"maps"
	"slices"
)

// ActorKind distinguishes the player from world inhabitants.
type ActorKind string

const (
	KindPlayer   ActorKind = "player"
	KindCreature ActorKind = "creature"
	KindPlant    ActorKind = "plant"
)

// Size is used by the flee rule on critical hits.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Behavior drives creature AI and the passive-flee rule.
type Behavior string

const (
	BehaviorAggressive  Behavior = "aggressive"
	BehaviorPassive     Behavior = "passive"
	BehaviorTerritorial Behavior = "territorial"
)

// PlayerID is the fixed id of the single player actor.
const PlayerID = "player"

// Position is a cell coordinate on the world grid.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Key is the chunk key used by the world store.
func (p Position) Key() string { return fmt.Sprintf("%d,%d", p.X, p.Y) }

// Add offsets the position.
func (p Position) Add(dx, dy int) Position { return Position{X: p.X + dx, Y: p.Y + dy} }

// Distance is the Chebyshev distance, matching eight-way movement.
func (p Position) Distance(o Position) int {
	return max(abs(p.X-o.X), abs(p.Y-o.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// StatusEffect is a timed modifier ticked once per turn.
type StatusEffect struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Turns          int    `json:"turns" yaml:"turns"`
	HPPerTurn      int    `json:"hp_per_turn" yaml:"hp_per_turn"`
	StaminaPerTurn int    `json:"stamina_per_turn" yaml:"stamina_per_turn"`
	AttackModifier int    `json:"attack_modifier" yaml:"attack_modifier"`
}

// Harmful reports whether the effect hurts its bearer.
func (s StatusEffect) Harmful() bool {
	return s.HPPerTurn < 0 || s.StaminaPerTurn < 0 || s.AttackModifier < 0
}

// LootEntry is one independent Bernoulli trial on a loot table.
type LootEntry struct {
	Item   string  `json:"item" yaml:"item"`
	Chance float64 `json:"chance" yaml:"chance"`
	Min    int     `json:"min" yaml:"min"`
	Max    int     `json:"max" yaml:"max"`
}

// HarvestPart is a named, separately depletable sub-part of a target.
type HarvestPart struct {
	Name        string      `json:"name" yaml:"name"`
	Remaining   int         `json:"remaining" yaml:"remaining"`
	Loot        []LootEntry `json:"loot" yaml:"loot"`
	StaminaCost int         `json:"stamina_cost" yaml:"stamina_cost"`
	Tool        string      `json:"tool,omitempty" yaml:"tool"`
}

// ActorState is the player or a world inhabitant. Calculators only receive
// clones; the turn advancer owns the originals.
type ActorState struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Kind     ActorKind `json:"kind" yaml:"kind"`
	Template string    `json:"template,omitempty" yaml:"template"`

	HP         int `json:"hp" yaml:"hp"`
	MaxHP      int `json:"max_hp" yaml:"max_hp"`
	Stamina    int `json:"stamina" yaml:"stamina"`
	MaxStamina int `json:"max_stamina" yaml:"max_stamina"`
	Mana       int `json:"mana" yaml:"mana"`
	MaxMana    int `json:"max_mana" yaml:"max_mana"`
	Hunger     int `json:"hunger" yaml:"hunger"`
	MaxHunger  int `json:"max_hunger" yaml:"max_hunger"`

	AttackPower int `json:"attack_power" yaml:"attack_power"`
	Defense     int `json:"defense" yaml:"defense"`
	// Damage is the flat retaliation damage of a creature.
	Damage int `json:"damage" yaml:"damage"`

	Size     Size     `json:"size" yaml:"size"`
	Behavior Behavior `json:"behavior" yaml:"behavior"`
	Position Position `json:"position" yaml:"position"`

	Statuses  []StatusEffect    `json:"statuses" yaml:"statuses"`
	Inventory map[string]int    `json:"inventory" yaml:"inventory"`
	Equipment map[string]string `json:"equipment" yaml:"equipment"`

	Loot           []LootEntry   `json:"loot,omitempty" yaml:"loot"`
	Parts          []HarvestPart `json:"parts,omitempty" yaml:"parts"`
	HarvestTool    string        `json:"harvest_tool,omitempty" yaml:"harvest_tool"`
	HarvestStamina int           `json:"harvest_stamina,omitempty" yaml:"harvest_stamina"`
}

// NewActor creates an actor with all maps initialized to avoid nil-map panics.
func NewActor(id, name string, kind ActorKind) *ActorState {
	return &ActorState{
		ID:        id,
		Name:      name,
		Kind:      kind,
		Size:      SizeMedium,
		Behavior:  BehaviorPassive,
		Statuses:  make([]StatusEffect, 0),
		Inventory: make(map[string]int),
		Equipment: make(map[string]string),
	}
}

// Normalize initializes nil collections, e.g. after decoding from YAML.
func (a *ActorState) Normalize() {
	if a.Statuses == nil {
		a.Statuses = make([]StatusEffect, 0)
	}
	if a.Inventory == nil {
		a.Inventory = make(map[string]int)
	}
	if a.Equipment == nil {
		a.Equipment = make(map[string]string)
	}
	if a.Size == "" {
		a.Size = SizeMedium
	}
	if a.Behavior == "" {
		a.Behavior = BehaviorPassive
	}
}

// Clone returns a deep copy.
func (a *ActorState) Clone() *ActorState {
	if a == nil {
		return nil
	}
	c := *a
	c.Statuses = slices.Clone(a.Statuses)
	c.Inventory = maps.Clone(a.Inventory)
	c.Equipment = maps.Clone(a.Equipment)
	c.Loot = slices.Clone(a.Loot)
	c.Parts = make([]HarvestPart, len(a.Parts))
	for i, p := range a.Parts {
		p.Loot = slices.Clone(p.Loot)
		c.Parts[i] = p
	}
	if a.Parts == nil {
		c.Parts = nil
	}
	c.Normalize()
	return &c
}

// Alive reports hp > 0.
func (a *ActorState) Alive() bool { return a.HP > 0 }

// HasItem reports whether the inventory holds at least qty of item.
func (a *ActorState) HasItem(item string, qty int) bool {
	return a.Inventory[item] >= qty
}

// HasTool reports whether the tool is carried or equipped. An empty tool
// is always satisfied.
func (a *ActorState) HasTool(tool string) bool {
	if tool == "" {
		return true
	}
	if a.Inventory[tool] > 0 {
		return true
	}
	for _, item := range a.Equipment {
		if item == tool {
			return true
		}
	}
	return false
}

// AttackModifier sums the attack modifiers of active statuses.
func (a *ActorState) AttackModifier() int {
	total := 0
	for _, s := range a.Statuses {
		total += s.AttackModifier
	}
	return total
}

// HasStatus reports whether a status with the id is active.
func (a *ActorState) HasStatus(id string) bool {
	return slices.ContainsFunc(a.Statuses, func(s StatusEffect) bool { return s.ID == id })
}

// Part looks up a harvest part by name.
func (a *ActorState) Part(name string) (HarvestPart, bool) {
	for _, p := range a.Parts {
		if p.Name == name {
			return p, true
		}
	}
	return HarvestPart{}, false
}

// PartsExhausted reports whether a part-based target has nothing left.
// Targets without parts are never exhausted by this rule.
func (a *ActorState) PartsExhausted() bool {
	if len(a.Parts) == 0 {
		return false
	}
	for _, p := range a.Parts {
		if p.Remaining > 0 {
			return false
		}
	}
	return true
}
