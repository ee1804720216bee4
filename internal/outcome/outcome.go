// Package outcome turns actor snapshots and a success level into immutable
// Outcome records. Calculators never mutate their inputs and never touch the
// world; the effect generator is the only consumer of what they return.
package outcome

import (
	"errors"
	"fmt"

	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/engine"
)

// ActionKind names a player-triggered action.
type ActionKind string

const (
	ActionMove    ActionKind = "move"
	ActionAttack  ActionKind = "attack"
	ActionUseItem ActionKind = "use_item"
	ActionSkill   ActionKind = "use_skill"
	ActionHarvest ActionKind = "harvest"
	ActionCraft   ActionKind = "craft"
	ActionBuild   ActionKind = "build"
	ActionRest    ActionKind = "rest"
	ActionWait    ActionKind = "wait"
	ActionEquip   ActionKind = "equip"
	ActionUnequip ActionKind = "unequip"
	ActionDrop    ActionKind = "drop"
	ActionFuse    ActionKind = "fuse"
)

// Outcome is the read-only view every action record offers.
type Outcome interface {
	Kind() ActionKind
	ActorID() string
	TargetID() string
	Level() dice.SuccessLevel
	Dice() dice.Roll
}

// Base carries the fields every outcome shares.
type Base struct {
	Action  ActionKind        `json:"action"`
	Actor   string            `json:"actor"`
	Target  string            `json:"target,omitempty"`
	Roll    dice.Roll         `json:"roll"`
	Success dice.SuccessLevel `json:"success"`
}

func (b Base) Kind() ActionKind         { return b.Action }
func (b Base) ActorID() string          { return b.Actor }
func (b Base) TargetID() string         { return b.Target }
func (b Base) Level() dice.SuccessLevel { return b.Success }
func (b Base) Dice() dice.Roll          { return b.Roll }

// Drop is one rolled loot line.
type Drop struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// Change is the resulting stat movement on one actor. Amounts are relative.
type Change struct {
	ActorID   string               `json:"actor_id"`
	HP        int                  `json:"hp,omitempty"`
	Stamina   int                  `json:"stamina,omitempty"`
	Mana      int                  `json:"mana,omitempty"`
	Hunger    int                  `json:"hunger,omitempty"`
	Status    *engine.StatusEffect `json:"status,omitempty"`
	Defeated  bool                 `json:"defeated,omitempty"`
	Backfired bool                 `json:"backfired,omitempty"`
}

// Rejection is a precondition failure. It is returned before any roll and
// carries the message shown to the player.
type Rejection struct {
	Action ActionKind
	Reason string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s rejected: %s", r.Action, r.Reason)
}

// Reject builds a *Rejection.
func Reject(action ActionKind, format string, args ...any) error {
	return &Rejection{Action: action, Reason: fmt.Sprintf(format, args...)}
}

// IsRejection unwraps a *Rejection from err.
func IsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// Tuning holds the numeric knobs the calculators read.
type Tuning struct {
	DarknessThreshold float64 `mapstructure:"darkness_threshold" yaml:"darkness_threshold"`
	DarknessPenalty   float64 `mapstructure:"darkness_penalty" yaml:"darkness_penalty"`
	DampnessThreshold float64 `mapstructure:"dampness_threshold" yaml:"dampness_threshold"`
	DampnessPenalty   float64 `mapstructure:"dampness_penalty" yaml:"dampness_penalty"`
	AttackStamina     int     `mapstructure:"attack_stamina" yaml:"attack_stamina"`
	MoveStamina       int     `mapstructure:"move_stamina" yaml:"move_stamina"`
	RestStamina       int     `mapstructure:"rest_stamina" yaml:"rest_stamina"`
	RestHP            int     `mapstructure:"rest_hp" yaml:"rest_hp"`
	GambleCurseTurns  int     `mapstructure:"gamble_curse_turns" yaml:"gamble_curse_turns"`
}

// DefaultTuning returns the stock balance values.
func DefaultTuning() Tuning {
	return Tuning{
		DarknessThreshold: 3,
		DarknessPenalty:   0.8,
		DampnessThreshold: 8,
		DampnessPenalty:   0.9,
		AttackStamina:     1,
		MoveStamina:       1,
		RestStamina:       5,
		RestHP:            2,
		GambleCurseTurns:  3,
	}
}

// Calculator bundles the tuning and catalog the pure calculators consult.
// It holds no mutable state.
type Calculator struct {
	Tuning  Tuning
	Catalog *data.Catalog
}

// New returns a calculator. A nil catalog is replaced by an empty one.
func New(t Tuning, c *data.Catalog) *Calculator {
	if c == nil {
		c = &data.Catalog{}
	}
	return &Calculator{Tuning: t, Catalog: c}
}

// RollLoot runs one Bernoulli trial per entry and scales quantities by mult.
// Entries that end up with zero quantity are omitted.
func RollLoot(src dice.Source, entries []engine.LootEntry, mult float64) []Drop {
	var out []Drop
	for _, e := range entries {
		if !dice.Chance(src, e.Chance) {
			continue
		}
		lo, hi := e.Min, e.Max
		if lo == 0 && hi == 0 {
			lo, hi = 1, 1
		}
		qty := dice.ApplyMultiplier(dice.RollRange(src, lo, hi), mult)
		if qty <= 0 {
			continue
		}
		out = append(out, Drop{Item: e.Item, Quantity: qty})
	}
	return out
}
