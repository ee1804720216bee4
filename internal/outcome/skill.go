package outcome

import (
	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/engine"
)

// Gamble records the independent coin flip of a GAMBLE_EFFECT.
type Gamble struct {
	Won bool `json:"won"`
}

// SkillOutcome is the result of casting a skill.
type SkillOutcome struct {
	Base
	SkillID     string          `json:"skill_id"`
	SkillName   string          `json:"skill_name"`
	Effect      data.EffectType `json:"effect"`
	ManaCost    int             `json:"mana_cost"`
	StaminaCost int             `json:"stamina_cost"`
	Nominal     int             `json:"nominal"`
	Amount      int             `json:"amount"`

	Backfired      bool    `json:"backfired"`
	BackfireDamage int     `json:"backfire_damage"`
	Gamble         *Gamble `json:"gamble,omitempty"`

	ActorHPBefore   int `json:"actor_hp_before"`
	ActorHPAfter    int `json:"actor_hp_after"`
	ActorManaBefore int `json:"actor_mana_before"`
	ActorManaAfter  int `json:"actor_mana_after"`
	TargetHPBefore  int `json:"target_hp_before"`
	TargetHPAfter   int `json:"target_hp_after"`

	TargetDefeated bool     `json:"target_defeated"`
	Changes        []Change `json:"changes"`
	Audio          string   `json:"audio,omitempty"`
}

// CheckSkill validates a cast before anything is rolled.
func (c *Calculator) CheckSkill(actor, target *engine.ActorState, skill data.Skill) error {
	switch {
	case actor == nil || !actor.Alive():
		return Reject(ActionSkill, "you are in no state to cast")
	case skill.ID == "":
		return Reject(ActionSkill, "you do not know that skill")
	case actor.Mana < skill.ManaCost:
		return Reject(ActionSkill, "not enough mana for %s (%d/%d)", skill.Name, actor.Mana, skill.ManaCost)
	case actor.Stamina < skill.StaminaCost:
		return Reject(ActionSkill, "not enough stamina for %s", skill.Name)
	case skill.Effect.OnTarget() && (target == nil || !target.Alive()):
		return Reject(ActionSkill, "%s needs a living target", skill.Name)
	}
	return nil
}

// Skill resolves a cast. The mana and stamina costs are paid on every
// resolved cast, including failures.
func (c *Calculator) Skill(actor, target *engine.ActorState, skill data.Skill, roll dice.Roll, level dice.SuccessLevel, src dice.Source) (SkillOutcome, error) {
	if err := c.CheckSkill(actor, target, skill); err != nil {
		return SkillOutcome{}, err
	}
	out := SkillOutcome{
		Base: Base{
			Action:  ActionSkill,
			Actor:   actor.ID,
			Roll:    roll,
			Success: level,
		},
		SkillID:         skill.ID,
		SkillName:       skill.Name,
		Effect:          skill.Effect.Type,
		ManaCost:        skill.ManaCost,
		StaminaCost:     skill.StaminaCost,
		Nominal:         skill.Effect.Amount,
		ActorHPBefore:   actor.HP,
		ActorManaBefore: actor.Mana,
		Audio:           skill.Audio,
	}
	if target != nil {
		out.Target = target.ID
		out.TargetHPBefore = target.HP
		out.TargetHPAfter = target.HP
	}

	cost := Change{ActorID: actor.ID, Mana: -skill.ManaCost, Stamina: -skill.StaminaCost}
	self := projected(actor, cost)

	switch {
	case level == dice.CriticalFailure:
		out.Backfired = true
		out.BackfireDamage = skill.Effect.Amount / 2
		cost.HP -= out.BackfireDamage
		cost.Backfired = true
	case level.Succeeded():
		res := c.applyEffect(skill.Effect, dice.Multiplier(level), self, target, src)
		out.Amount = res.amount
		out.Gamble = res.gamble
		cost = merge(cost, res.self)
		if res.target != nil {
			out.Changes = append(out.Changes, *res.target)
			out.TargetHPAfter = clampHP(target, target.HP+res.target.HP)
			out.TargetDefeated = res.target.Defeated
		}
	}

	out.Changes = append([]Change{cost}, out.Changes...)
	out.ActorHPAfter = clampHP(actor, actor.HP+cost.HP)
	out.ActorManaAfter = min(max(actor.Mana+cost.Mana, 0), actor.MaxMana)
	return out, nil
}

type effectResult struct {
	amount int
	self   Change
	target *Change
	gamble *Gamble
}

// applyEffect computes one effect definition against snapshot self (already
// charged for costs) and an optional target.
func (c *Calculator) applyEffect(def data.EffectDef, mult float64, self, target *engine.ActorState, src dice.Source) effectResult {
	amount := dice.ApplyMultiplier(def.Amount, mult)
	res := effectResult{amount: amount, self: Change{ActorID: self.ID}}

	recipient := self
	if def.OnTarget() && target != nil {
		recipient = target
	}
	ch := Change{ActorID: recipient.ID}

	switch def.Type {
	case data.EffectHeal:
		ch.HP = min(amount, recipient.MaxHP-recipient.HP)
	case data.EffectDamage:
		ch.HP = -amount
		ch.Defeated = recipient.HP-amount <= 0
	case data.EffectRestoreStamina:
		ch.Stamina = min(amount, recipient.MaxStamina-recipient.Stamina)
	case data.EffectRestoreMana:
		ch.Mana = min(amount, recipient.MaxMana-recipient.Mana)
	case data.EffectRestoreHunger:
		ch.Hunger = min(amount, recipient.MaxHunger-recipient.Hunger)
	case data.EffectApplyStatus:
		if def.Status != nil {
			st := *def.Status
			ch.Status = &st
			res.amount = st.Turns
		}
	case data.EffectGamble:
		g := &Gamble{Won: dice.Chance(src, 0.5)}
		res.gamble = g
		if g.Won {
			ch.HP = recipient.MaxHP - recipient.HP
			ch.Mana = recipient.MaxMana - recipient.Mana
		} else {
			ch.Status = c.curse(def)
		}
	}

	if recipient == self {
		res.self = merge(res.self, ch)
	} else {
		res.target = &ch
	}
	return res
}

func (c *Calculator) curse(def data.EffectDef) *engine.StatusEffect {
	if def.Status != nil {
		st := *def.Status
		return &st
	}
	return &engine.StatusEffect{
		ID:             "cursed",
		Name:           "Cursed",
		Turns:          c.Tuning.GambleCurseTurns,
		HPPerTurn:      -1,
		AttackModifier: -2,
	}
}

// projected returns a clone of a with ch applied, clamped.
func projected(a *engine.ActorState, ch Change) *engine.ActorState {
	p := a.Clone()
	p.HP = clampHP(a, a.HP+ch.HP)
	p.Stamina = min(max(a.Stamina+ch.Stamina, 0), a.MaxStamina)
	p.Mana = min(max(a.Mana+ch.Mana, 0), a.MaxMana)
	p.Hunger = min(max(a.Hunger+ch.Hunger, 0), a.MaxHunger)
	return p
}

func merge(a, b Change) Change {
	a.HP += b.HP
	a.Stamina += b.Stamina
	a.Mana += b.Mana
	a.Hunger += b.Hunger
	if b.Status != nil {
		a.Status = b.Status
	}
	a.Defeated = a.Defeated || b.Defeated
	a.Backfired = a.Backfired || b.Backfired
	return a
}

func clampHP(a *engine.ActorState, hp int) int {
	return min(max(hp, 0), a.MaxHP)
}
