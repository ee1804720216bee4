package outcome

import (
	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/engine"
)

// Penalty is one environmental damage multiplier that was in force.
type Penalty struct {
	Name   string  `json:"name"`
	Factor float64 `json:"factor"`
}

// CombatOutcome is the result of one attack exchange.
type CombatOutcome struct {
	Base
	AttackerName string `json:"attacker_name"`
	TargetName   string `json:"target_name"`

	BaseDamage            int       `json:"base_damage"`
	Penalties             []Penalty `json:"penalties,omitempty"`
	EnvironmentMultiplier float64   `json:"environment_multiplier"`
	SuccessMultiplier     float64   `json:"success_multiplier"`
	FinalDamage           int       `json:"final_damage"`
	StaminaCost           int       `json:"stamina_cost"`

	PlayerHPBefore int `json:"player_hp_before"`
	PlayerHPAfter  int `json:"player_hp_after"`
	EnemyHPBefore  int `json:"enemy_hp_before"`
	EnemyHPAfter   int `json:"enemy_hp_after"`

	Defeated    bool   `json:"defeated"`
	Fled        bool   `json:"fled"`
	Retaliation int    `json:"retaliation"`
	Loot        []Drop `json:"loot,omitempty"`
}

// EnvironmentMultiplier composes the independent penalties in force. The
// product is order independent.
func (c *Calculator) EnvironmentMultiplier(env engine.Environment) (float64, []Penalty) {
	m := 1.0
	var ps []Penalty
	if env.Light < c.Tuning.DarknessThreshold {
		ps = append(ps, Penalty{Name: "darkness", Factor: c.Tuning.DarknessPenalty})
	}
	if env.Moisture > c.Tuning.DampnessThreshold {
		ps = append(ps, Penalty{Name: "dampness", Factor: c.Tuning.DampnessPenalty})
	}
	for _, p := range ps {
		m *= p.Factor
	}
	return m, ps
}

// BaseDamage is attack power plus the equipped weapon bonus and active
// status modifiers, floored at zero.
func (c *Calculator) BaseDamage(a *engine.ActorState) int {
	dmg := a.AttackPower + a.AttackModifier()
	if weapon := a.Equipment["weapon"]; weapon != "" {
		if it, ok := c.Catalog.Item(weapon); ok {
			dmg += it.AttackBonus
		}
	}
	return max(dmg, 0)
}

// CheckCombat validates an attack before anything is rolled.
func (c *Calculator) CheckCombat(attacker, target *engine.ActorState) error {
	switch {
	case attacker == nil || !attacker.Alive():
		return Reject(ActionAttack, "you are in no state to fight")
	case target == nil:
		return Reject(ActionAttack, "there is nothing here to attack")
	case target.Kind == engine.KindPlant:
		return Reject(ActionAttack, "%s is not something you can fight", target.Name)
	case !target.Alive():
		return Reject(ActionAttack, "%s is already defeated", target.Name)
	case attacker.Position.Distance(target.Position) > 1:
		return Reject(ActionAttack, "%s is out of reach", target.Name)
	case attacker.Stamina < c.Tuning.AttackStamina:
		return Reject(ActionAttack, "you are too exhausted to attack")
	}
	return nil
}

// Combat resolves an attack of attacker on target at the given level.
func (c *Calculator) Combat(attacker, target *engine.ActorState, roll dice.Roll, level dice.SuccessLevel, env engine.Environment, src dice.Source) (CombatOutcome, error) {
	if err := c.CheckCombat(attacker, target); err != nil {
		return CombatOutcome{}, err
	}

	envMult, penalties := c.EnvironmentMultiplier(env)
	succMult := dice.Multiplier(level)
	base := c.BaseDamage(attacker)
	final := dice.ApplyMultiplier(base, envMult*succMult)

	out := CombatOutcome{
		Base: Base{
			Action:  ActionAttack,
			Actor:   attacker.ID,
			Target:  target.ID,
			Roll:    roll,
			Success: level,
		},
		AttackerName:          attacker.Name,
		TargetName:            target.Name,
		BaseDamage:            base,
		Penalties:             penalties,
		EnvironmentMultiplier: envMult,
		SuccessMultiplier:     succMult,
		FinalDamage:           final,
		StaminaCost:           c.Tuning.AttackStamina,
		PlayerHPBefore:        attacker.HP,
		PlayerHPAfter:         attacker.HP,
		EnemyHPBefore:         target.HP,
		EnemyHPAfter:          max(target.HP-final, 0),
	}

	if target.HP-final <= 0 {
		out.Defeated = true
		out.Loot = RollLoot(src, target.Loot, 1)
		return out, nil
	}

	if target.Behavior == engine.BehaviorPassive ||
		(level == dice.CriticalSuccess && target.Size == engine.SizeSmall) {
		out.Fled = true
		return out, nil
	}

	out.Retaliation = target.Damage
	out.PlayerHPAfter = max(attacker.HP-target.Damage, 0)
	return out, nil
}
