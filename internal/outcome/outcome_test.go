package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/engine"
)

var (
	daylight = engine.Environment{Light: 10, Moisture: 2, Weather: "clear"}
	darkness = engine.Environment{Light: 1, Moisture: 2, Weather: "clear"}
)

func newCalc() *Calculator {
	return New(DefaultTuning(), &data.Catalog{
		Items: map[string]data.Item{
			"sword":  {ID: "sword", Name: "Sword", Slot: "weapon", AttackBonus: 4},
			"potion": {ID: "potion", Name: "Potion", Consumable: true, Effects: []data.EffectDef{{Type: data.EffectHeal, Amount: 10}}},
			"rock":   {ID: "rock", Name: "Rock"},
		},
	})
}

func hero() *engine.ActorState {
	a := engine.NewActor(engine.PlayerID, "Hero", engine.KindPlayer)
	a.HP, a.MaxHP = 30, 30
	a.Stamina, a.MaxStamina = 10, 10
	a.Mana, a.MaxMana = 10, 20
	a.Hunger, a.MaxHunger = 50, 100
	a.AttackPower = 10
	return a
}

func wolf(hp int) *engine.ActorState {
	w := engine.NewActor("wolf-1", "Wolf", engine.KindCreature)
	w.HP, w.MaxHP = hp, 20
	w.Damage = 3
	w.Behavior = engine.BehaviorAggressive
	w.Position = engine.Position{X: 1, Y: 0}
	w.Loot = []engine.LootEntry{{Item: "pelt", Chance: 0.5, Min: 1, Max: 3}}
	return w
}

func TestCombatGreatSuccessNoPenalty(t *testing.T) {
	c := newCalc()
	out, err := c.Combat(hero(), wolf(20), dice.Roll{}, dice.GreatSuccess, daylight, dice.NewQueue())
	require.NoError(t, err)

	assert.Equal(t, 15, out.FinalDamage)
	assert.Equal(t, 5, out.EnemyHPAfter)
	assert.False(t, out.Defeated)
	assert.Empty(t, out.Loot)
	assert.Equal(t, 1.0, out.EnvironmentMultiplier)
	assert.Equal(t, 3, out.Retaliation)
	assert.Equal(t, 27, out.PlayerHPAfter)
}

func TestCombatCriticalInDarkness(t *testing.T) {
	c := newCalc()

	out, err := c.Combat(hero(), wolf(20), dice.Roll{}, dice.CriticalSuccess, darkness, dice.NewQueue())
	require.NoError(t, err)
	assert.Equal(t, 16, out.FinalDamage)
	assert.Equal(t, 4, out.EnemyHPAfter)
	require.Len(t, out.Penalties, 1)
	assert.Equal(t, "darkness", out.Penalties[0].Name)

	// loot: chance roll 0.1 < 0.5 passes, quantity index 1 -> 2
	src := dice.NewQueue(1).WithFloats(0.1)
	out, err = c.Combat(hero(), wolf(16), dice.Roll{}, dice.CriticalSuccess, darkness, src)
	require.NoError(t, err)
	assert.Equal(t, 16, out.FinalDamage)
	assert.True(t, out.Defeated)
	assert.Equal(t, 0, out.EnemyHPAfter)
	assert.Equal(t, []Drop{{Item: "pelt", Quantity: 2}}, out.Loot)
	assert.Equal(t, 0, out.Retaliation)
}

func TestEnvironmentPenaltiesCompose(t *testing.T) {
	c := newCalc()
	m, ps := c.EnvironmentMultiplier(engine.Environment{Light: 0, Moisture: 9})
	assert.InDelta(t, 0.72, m, 1e-9)
	assert.Len(t, ps, 2)

	m, ps = c.EnvironmentMultiplier(engine.Environment{Light: 3, Moisture: 8})
	assert.Equal(t, 1.0, m)
	assert.Empty(t, ps)
}

func TestCombatWeaponAndStatusBonus(t *testing.T) {
	c := newCalc()
	h := hero()
	h.Equipment["weapon"] = "sword"
	h.Statuses = append(h.Statuses, engine.StatusEffect{ID: "weak", AttackModifier: -2})
	assert.Equal(t, 12, c.BaseDamage(h))
}

func TestCombatFleeRules(t *testing.T) {
	c := newCalc()

	rabbit := wolf(20)
	rabbit.Behavior = engine.BehaviorPassive
	out, err := c.Combat(hero(), rabbit, dice.Roll{}, dice.Success, daylight, dice.NewQueue())
	require.NoError(t, err)
	assert.True(t, out.Fled)
	assert.Equal(t, 0, out.Retaliation)

	small := wolf(40)
	small.MaxHP = 40
	small.Size = engine.SizeSmall
	out, err = c.Combat(hero(), small, dice.Roll{}, dice.CriticalSuccess, daylight, dice.NewQueue())
	require.NoError(t, err)
	assert.True(t, out.Fled)

	out, err = c.Combat(hero(), small, dice.Roll{}, dice.GreatSuccess, daylight, dice.NewQueue())
	require.NoError(t, err)
	assert.False(t, out.Fled)
	assert.Equal(t, 3, out.Retaliation)
}

func TestCombatRejections(t *testing.T) {
	c := newCalc()

	_, err := c.Combat(hero(), nil, dice.Roll{}, dice.Success, daylight, dice.NewQueue())
	r, ok := IsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ActionAttack, r.Action)

	far := wolf(20)
	far.Position = engine.Position{X: 5, Y: 5}
	_, err = c.Combat(hero(), far, dice.Roll{}, dice.Success, daylight, dice.NewQueue())
	_, ok = IsRejection(err)
	assert.True(t, ok)

	tired := hero()
	tired.Stamina = 0
	_, err = c.Combat(tired, wolf(20), dice.Roll{}, dice.Success, daylight, dice.NewQueue())
	_, ok = IsRejection(err)
	assert.True(t, ok)
}

func TestRejectionDoesNotTouchInputs(t *testing.T) {
	c := newCalc()
	h := hero()
	h.Mana = 1
	before := h.Clone()
	skill := data.Skill{ID: "bolt", Name: "Bolt", ManaCost: 5, Effect: data.EffectDef{Type: data.EffectDamage, Amount: 8}}

	_, err := c.Skill(h, wolf(20), skill, dice.Roll{}, dice.Success, dice.NewQueue())
	_, ok := IsRejection(err)
	require.True(t, ok)
	assert.Equal(t, before, h)
}

func TestSkillHealScaledAndCapped(t *testing.T) {
	c := newCalc()
	h := hero()
	h.HP = 10
	skill := data.Skill{ID: "mend", Name: "Mend", ManaCost: 4, Effect: data.EffectDef{Type: data.EffectHeal, Amount: 10}}

	out, err := c.Skill(h, nil, skill, dice.Roll{}, dice.GreatSuccess, dice.NewQueue())
	require.NoError(t, err)
	assert.Equal(t, 15, out.Amount)
	assert.Equal(t, 25, out.ActorHPAfter)
	assert.Equal(t, 6, out.ActorManaAfter)
	require.Len(t, out.Changes, 1)
	assert.Equal(t, Change{ActorID: engine.PlayerID, HP: 15, Mana: -4}, out.Changes[0])

	h.HP = 28
	out, err = c.Skill(h, nil, skill, dice.Roll{}, dice.CriticalSuccess, dice.NewQueue())
	require.NoError(t, err)
	assert.Equal(t, 30, out.ActorHPAfter)
	assert.Equal(t, 2, out.Changes[0].HP)
	assert.Equal(t, 10, h.Mana, "input snapshot untouched")
}

func TestSkillBackfire(t *testing.T) {
	c := newCalc()
	skill := data.Skill{ID: "bolt", Name: "Bolt", ManaCost: 3, Effect: data.EffectDef{Type: data.EffectDamage, Amount: 9}}

	out, err := c.Skill(hero(), wolf(20), skill, dice.Roll{}, dice.CriticalFailure, dice.NewQueue())
	require.NoError(t, err)
	assert.True(t, out.Backfired)
	assert.Equal(t, 4, out.BackfireDamage)
	assert.Equal(t, 26, out.ActorHPAfter)
	assert.Equal(t, 20, out.TargetHPAfter)
	require.Len(t, out.Changes, 1)
	assert.True(t, out.Changes[0].Backfired)
}

func TestSkillFailureOnlyPaysCost(t *testing.T) {
	c := newCalc()
	skill := data.Skill{ID: "bolt", Name: "Bolt", ManaCost: 3, Effect: data.EffectDef{Type: data.EffectDamage, Amount: 9}}
	out, err := c.Skill(hero(), wolf(20), skill, dice.Roll{}, dice.Failure, dice.NewQueue())
	require.NoError(t, err)
	assert.False(t, out.Backfired)
	assert.Equal(t, 7, out.ActorManaAfter)
	assert.Equal(t, 20, out.TargetHPAfter)
}

func TestSkillDamageDefeats(t *testing.T) {
	c := newCalc()
	skill := data.Skill{ID: "bolt", Name: "Bolt", ManaCost: 3, Effect: data.EffectDef{Type: data.EffectDamage, Amount: 9}}
	out, err := c.Skill(hero(), wolf(15), skill, dice.Roll{}, dice.GreatSuccess, dice.NewQueue())
	require.NoError(t, err)
	assert.Equal(t, 14, out.Amount)
	assert.Equal(t, 1, out.TargetHPAfter)
	assert.False(t, out.TargetDefeated)

	out, err = c.Skill(hero(), wolf(14), skill, dice.Roll{}, dice.GreatSuccess, dice.NewQueue())
	require.NoError(t, err)
	assert.True(t, out.TargetDefeated)
	require.Len(t, out.Changes, 2)
	assert.Equal(t, "wolf-1", out.Changes[1].ActorID)
}

func TestGambleIsIndependentOfSuccessRoll(t *testing.T) {
	c := newCalc()
	skill := data.Skill{ID: "luck", Name: "Luck", ManaCost: 2, Effect: data.EffectDef{Type: data.EffectGamble}}
	h := hero()
	h.HP = 5

	won, err := c.Skill(h, nil, skill, dice.Roll{}, dice.Success, dice.NewQueue().WithFloats(0.2))
	require.NoError(t, err)
	require.NotNil(t, won.Gamble)
	assert.True(t, won.Gamble.Won)
	assert.Equal(t, 30, won.ActorHPAfter)
	assert.Equal(t, 20, won.ActorManaAfter)

	lost, err := c.Skill(h, nil, skill, dice.Roll{}, dice.CriticalSuccess, dice.NewQueue().WithFloats(0.7))
	require.NoError(t, err)
	assert.False(t, lost.Gamble.Won)
	require.NotNil(t, lost.Changes[0].Status)
	assert.Equal(t, "cursed", lost.Changes[0].Status.ID)
	assert.True(t, lost.Changes[0].Status.Harmful())
	assert.Equal(t, 5, lost.ActorHPAfter)
}

func TestUseItemConsumedEvenOnFailure(t *testing.T) {
	c := newCalc()
	h := hero()
	h.HP = 10
	h.Inventory["potion"] = 1
	potion, _ := c.Catalog.Item("potion")

	out, err := c.UseItem(h, nil, potion, dice.Roll{}, dice.Failure, dice.NewQueue())
	require.NoError(t, err)
	assert.True(t, out.Consumed)
	assert.Equal(t, 10, out.ActorHPAfter)

	out, err = c.UseItem(h, nil, potion, dice.Roll{}, dice.Success, dice.NewQueue())
	require.NoError(t, err)
	assert.Equal(t, 20, out.ActorHPAfter)

	rock, _ := c.Catalog.Item("rock")
	h.Inventory["rock"] = 1
	_, err = c.UseItem(h, nil, rock, dice.Roll{}, dice.Success, dice.NewQueue())
	_, ok := IsRejection(err)
	assert.True(t, ok)

	delete(h.Inventory, "potion")
	_, err = c.UseItem(h, nil, potion, dice.Roll{}, dice.Success, dice.NewQueue())
	_, ok = IsRejection(err)
	assert.True(t, ok)
}

func berryBush() *engine.ActorState {
	b := engine.NewActor("bush-1", "Berry Bush", engine.KindPlant)
	b.HP, b.MaxHP = 1, 1
	b.Parts = []engine.HarvestPart{
		{Name: "berries", Remaining: 1, StaminaCost: 2, Loot: []engine.LootEntry{{Item: "berry", Chance: 1, Min: 2, Max: 2}}},
		{Name: "leaves", Remaining: 2, StaminaCost: 1, Loot: []engine.LootEntry{{Item: "leaf", Chance: 1, Min: 1, Max: 1}}},
	}
	return b
}

func TestHarvestPartDecrementsAndReports(t *testing.T) {
	c := newCalc()
	bush := berryBush()

	out, err := c.Harvest(hero(), bush, "berries", dice.Roll{}, dice.GreatSuccess, dice.NewQueue().WithFloats(0))
	require.NoError(t, err)
	assert.Equal(t, "berries", out.Part)
	assert.Equal(t, 0, out.RemainingAfter)
	assert.Equal(t, 2, out.StaminaCost)
	assert.Equal(t, []Drop{{Item: "berry", Quantity: 3}}, out.Loot)
	assert.False(t, out.AllPartsExhausted)
	assert.False(t, out.TargetRemoved)
	assert.Equal(t, 1, bush.Parts[0].Remaining, "calculator must not mutate")

	bush.Parts[0].Remaining = 0
	bush.Parts[1].Remaining = 1
	out, err = c.Harvest(hero(), bush, "", dice.Roll{}, dice.Failure, dice.NewQueue())
	require.NoError(t, err)
	assert.Equal(t, "leaves", out.Part)
	assert.Empty(t, out.Loot)
	assert.True(t, out.AllPartsExhausted)
	assert.False(t, out.TargetRemoved)

	_, err = c.Harvest(hero(), bush, "berries", dice.Roll{}, dice.Success, dice.NewQueue())
	_, ok := IsRejection(err)
	assert.True(t, ok)
}

func TestHarvestWholeTarget(t *testing.T) {
	c := newCalc()
	carcass := wolf(0)
	carcass.HarvestTool = "knife"

	_, err := c.Harvest(hero(), carcass, "", dice.Roll{}, dice.Success, dice.NewQueue())
	r, ok := IsRejection(err)
	require.True(t, ok)
	assert.Contains(t, r.Reason, "knife")

	h := hero()
	h.Inventory["knife"] = 1
	out, err := c.Harvest(h, carcass, "", dice.Roll{}, dice.Success, dice.NewQueue(2).WithFloats(0.1))
	require.NoError(t, err)
	assert.True(t, out.TargetRemoved)
	assert.Equal(t, []Drop{{Item: "pelt", Quantity: 3}}, out.Loot)

	_, err = c.Harvest(h, wolf(20), "", dice.Roll{}, dice.Success, dice.NewQueue())
	_, ok = IsRejection(err)
	assert.True(t, ok, "living creatures cannot be harvested whole")
}

func TestCraftLevels(t *testing.T) {
	c := newCalc()
	r := data.Recipe{ID: "rope", Name: "Rope", Ingredients: map[string]int{"fiber": 3}, Output: "rope", Quantity: 1}
	h := hero()
	h.Inventory["fiber"] = 3

	out, err := c.Craft(h, r, dice.Roll{}, dice.CriticalSuccess)
	require.NoError(t, err)
	assert.Equal(t, []Drop{{Item: "rope", Quantity: 2}}, out.Produced)
	assert.Equal(t, map[string]int{"fiber": 3}, out.Consumed)

	out, err = c.Craft(h, r, dice.Roll{}, dice.Failure)
	require.NoError(t, err)
	assert.Empty(t, out.Produced)
	assert.Empty(t, out.Consumed)

	out, err = c.Craft(h, r, dice.Roll{}, dice.CriticalFailure)
	require.NoError(t, err)
	assert.True(t, out.Lost)
	assert.Empty(t, out.Produced)
	assert.Equal(t, 3, out.Consumed["fiber"])

	h.Inventory["fiber"] = 2
	_, err = c.Craft(h, r, dice.Roll{}, dice.Success)
	rej, ok := IsRejection(err)
	require.True(t, ok)
	assert.Contains(t, rej.Reason, "fiber")
}

func TestBuildAndSimpleActions(t *testing.T) {
	c := newCalc()
	h := hero()
	h.Inventory["log"] = 4

	b, err := c.Build(h, data.Structure{ID: "hut", Name: "Hut", Materials: map[string]int{"log": 4}})
	require.NoError(t, err)
	assert.Equal(t, h.Position, b.Position)

	_, err = c.Move(h, 1, 0, "water", false)
	_, ok := IsRejection(err)
	assert.True(t, ok)

	mv, err := c.Move(h, 1, 1, "grass", true)
	require.NoError(t, err)
	assert.Equal(t, engine.Position{X: 1, Y: 1}, mv.To)

	_, err = c.Rest(h, []*engine.ActorState{wolf(20)})
	_, ok = IsRejection(err)
	assert.True(t, ok)

	h.Stamina = 8
	rest, err := c.Rest(h, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, rest.StaminaRestored)
	assert.Equal(t, 0, rest.HPRestored)

	h.Inventory["sword"] = 1
	sword, _ := c.Catalog.Item("sword")
	eq, err := c.Equip(h, sword)
	require.NoError(t, err)
	assert.Equal(t, "weapon", eq.Slot)

	_, err = c.Unequip(h, "weapon")
	_, ok = IsRejection(err)
	assert.True(t, ok)

	_, err = c.Drop(h, sword, 2)
	_, ok = IsRejection(err)
	assert.True(t, ok)

	err = c.CheckFuse(h, []string{"sword"})
	_, ok = IsRejection(err)
	assert.True(t, ok)
}

func TestRollLootChanceAndScaling(t *testing.T) {
	entries := []engine.LootEntry{
		{Item: "a", Chance: 0.5, Min: 2, Max: 2},
		{Item: "b", Chance: 0.5, Min: 1, Max: 1},
	}
	got := RollLoot(dice.NewQueue().WithFloats(0.49, 0.5), entries, 1.5)
	assert.Equal(t, []Drop{{Item: "a", Quantity: 3}}, got)
	assert.Empty(t, RollLoot(dice.NewQueue().WithFloats(0, 0), entries, 0))
}
