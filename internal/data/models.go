package data

import (
	"github.com/suderio/dreamland/internal/engine"
)

// EffectType is an open tagged set of skill/item effect kinds.
type EffectType string

const (
	EffectHeal           EffectType = "HEAL"
	EffectDamage         EffectType = "DAMAGE"
	EffectRestoreStamina EffectType = "RESTORE_STAMINA"
	EffectRestoreMana    EffectType = "RESTORE_MANA"
	EffectRestoreHunger  EffectType = "RESTORE_HUNGER"
	EffectApplyStatus    EffectType = "APPLY_STATUS_EFFECT"
	EffectGamble         EffectType = "GAMBLE_EFFECT"
)

// EffectDef describes what a skill or item does on success.
type EffectDef struct {
	Type   EffectType           `json:"type,omitempty" yaml:"type"`
	Amount int                  `json:"amount,omitempty" yaml:"amount"`
	Status *engine.StatusEffect `json:"status,omitempty" yaml:"status"`
	// Target is "self" (default) or "target".
	Target string `json:"target,omitempty" yaml:"target"`
}

// OnTarget reports whether the effect lands on the action's target.
func (e EffectDef) OnTarget() bool {
	return e.Target == "target" || e.Type == EffectDamage
}

// Skill is a castable ability.
type Skill struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	ManaCost    int       `yaml:"mana_cost"`
	StaminaCost int       `yaml:"stamina_cost"`
	Effect      EffectDef `yaml:"effect"`
	Audio       string    `yaml:"audio"`
}

// Item is an inventory entry. Equippable items name a Slot.
type Item struct {
	ID          string      `json:"id,omitempty" yaml:"id"`
	Name        string      `json:"name,omitempty" yaml:"name"`
	Consumable  bool        `json:"consumable,omitempty" yaml:"consumable"`
	Effects     []EffectDef `json:"effects,omitempty" yaml:"effects"`
	Slot        string      `json:"slot,omitempty" yaml:"slot"`
	AttackBonus int         `json:"attack_bonus,omitempty" yaml:"attack_bonus"`
	Audio       string      `json:"audio,omitempty" yaml:"audio"`
}

// Recipe turns ingredients into an item.
type Recipe struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Ingredients map[string]int `yaml:"ingredients"`
	Tool        string         `yaml:"tool"`
	Output      string         `yaml:"output"`
	Quantity    int            `yaml:"quantity"`
	StaminaCost int            `yaml:"stamina_cost"`
}

// Structure is something the player can build on the current cell.
type Structure struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Materials   map[string]int `yaml:"materials"`
	Tool        string         `yaml:"tool"`
	StaminaCost int            `yaml:"stamina_cost"`
}

// Quest is an achievement whose Condition is a CEL expression evaluated
// against the post-effect state.
type Quest struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Condition   string         `yaml:"condition"`
	Reward      map[string]int `yaml:"reward"`
	Hint        string         `yaml:"hint"`
}

// Catalog bundles every content table the calculators consult.
type Catalog struct {
	Player     engine.ActorState            `yaml:"player"`
	Creatures  map[string]engine.ActorState `yaml:"creatures"`
	Skills     map[string]Skill             `yaml:"skills"`
	Items      map[string]Item              `yaml:"items"`
	Recipes    map[string]Recipe            `yaml:"recipes"`
	Structures map[string]Structure         `yaml:"structures"`
	Quests     []Quest                      `yaml:"quests"`
	Spawns     []SpawnPoint                 `yaml:"spawns"`
}

// SpawnPoint places one creature template in a new world.
type SpawnPoint struct {
	Template string          `yaml:"template"`
	ID       string          `yaml:"id"`
	Position engine.Position `yaml:"position"`
}

// Item looks up an item definition, falling back to a bare record so
// unknown loot still has a display name.
func (c *Catalog) Item(id string) (Item, bool) {
	if it, ok := c.Items[id]; ok {
		if it.ID == "" {
			it.ID = id
		}
		return it, true
	}
	return Item{ID: id, Name: id}, false
}

// Skill looks up a skill definition.
func (c *Catalog) Skill(id string) (Skill, bool) {
	s, ok := c.Skills[id]
	if ok && s.ID == "" {
		s.ID = id
	}
	return s, ok
}

// Recipe looks up a recipe definition.
func (c *Catalog) Recipe(id string) (Recipe, bool) {
	r, ok := c.Recipes[id]
	if ok && r.ID == "" {
		r.ID = id
	}
	return r, ok
}

// Structure looks up a structure definition.
func (c *Catalog) Structure(id string) (Structure, bool) {
	s, ok := c.Structures[id]
	if ok && s.ID == "" {
		s.ID = id
	}
	return s, ok
}

// Spawn instantiates a creature template under the given id.
func (c *Catalog) Spawn(template, id string, pos engine.Position) (*engine.ActorState, bool) {
	tpl, ok := c.Creatures[template]
	if !ok {
		return nil, false
	}
	a := tpl.Clone()
	a.ID = id
	a.Template = template
	if a.Kind == "" {
		a.Kind = engine.KindCreature
	}
	if a.Name == "" {
		a.Name = template
	}
	if a.HP == 0 {
		a.HP = a.MaxHP
	}
	a.Position = pos
	return a, true
}

// NewPlayer instantiates the player template.
func (c *Catalog) NewPlayer() *engine.ActorState {
	p := c.Player.Clone()
	p.ID = engine.PlayerID
	p.Kind = engine.KindPlayer
	if p.Name == "" {
		p.Name = "Wanderer"
	}
	if p.HP == 0 {
		p.HP = p.MaxHP
	}
	if p.Stamina == 0 {
		p.Stamina = p.MaxStamina
	}
	if p.Mana == 0 {
		p.Mana = p.MaxMana
	}
	if p.Hunger == 0 {
		p.Hunger = p.MaxHunger
	}
	return p
}
