package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suderio/dreamland/internal/dedup"
	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/engine"
	"github.com/suderio/dreamland/internal/narrative"
	"github.com/suderio/dreamland/internal/turn"
)

func world() *engine.GameState {
	p := engine.NewActor(engine.PlayerID, "Hero", engine.KindPlayer)
	p.HP, p.MaxHP = 20, 20
	return engine.NewGameState(p)
}

func creature(id string, b engine.Behavior, x, y int) *engine.ActorState {
	c := engine.NewActor(id, id, engine.KindCreature)
	c.HP, c.MaxHP = 5, 5
	c.Damage = 2
	c.Behavior = b
	c.Position = engine.Position{X: x, Y: y}
	return c
}

func TestWeatherChangesOnChance(t *testing.T) {
	s := world()
	w := NewWeather(dice.NewQueue(1).WithFloats(0.9, 0.1), 0.5, nil)

	got, msgs := w.Step(context.Background(), s)
	assert.Equal(t, s.Weather, got)
	assert.Empty(t, msgs)

	got, msgs = w.Step(context.Background(), s)
	assert.Equal(t, "cloudy", got.Kind)
	assert.Equal(t, []string{"Clouds roll in."}, msgs)
}

func TestWeatherBouncesAtEdges(t *testing.T) {
	s := world()
	w := NewWeather(dice.NewQueue(0).WithFloats(0), 1, nil)
	got, _ := w.Step(context.Background(), s)
	assert.Equal(t, "cloudy", got.Kind, "cannot drift below the first sky")
}

func TestAggressiveCreatureAttacksWhenAdjacent(t *testing.T) {
	s := world()
	s.AddCreature(creature("wolf", engine.BehaviorAggressive, 1, 1))
	c := NewCreatures(dice.NewQueue())

	updates, _ := c.Step(context.Background(), s)
	require.Len(t, updates, 1)
	assert.Equal(t, engine.PlayerID, updates[0].Delta.ActorID)
	assert.Equal(t, -2, updates[0].Delta.HP)
	assert.Equal(t, 20, s.Player.HP, "simulators only plan")
}

func TestAggressiveCreatureApproaches(t *testing.T) {
	s := world()
	s.AddCreature(creature("wolf", engine.BehaviorAggressive, 4, 0))
	s.AddCreature(creature("far", engine.BehaviorAggressive, 20, 20))
	c := NewCreatures(dice.NewQueue())

	updates, msgs := c.Step(context.Background(), s)
	require.Len(t, updates, 1)
	assert.Equal(t, &engine.Position{X: 3, Y: 0}, updates[0].Delta.Move)
	assert.Len(t, msgs, 1)
}

func TestPassiveCreatureWanders(t *testing.T) {
	s := world()
	s.AddCreature(creature("deer", engine.BehaviorPassive, 5, 5))
	c := NewCreatures(dice.NewQueue(2, 1).WithFloats(0.1))

	updates, _ := c.Step(context.Background(), s)
	require.Len(t, updates, 1)
	assert.Equal(t, &engine.Position{X: 6, Y: 5}, updates[0].Delta.Move)
}

func bush() *engine.ActorState {
	b := engine.NewActor("bush", "Bush", engine.KindPlant)
	b.HP, b.MaxHP = 1, 1
	b.Parts = []engine.HarvestPart{{Name: "berries", Remaining: 0}, {Name: "leaves", Remaining: 1}}
	return b
}

func TestPlantsRegrowAndWither(t *testing.T) {
	s := world()
	s.AddCreature(bush())
	p := NewPlants(2)

	updates, _ := p.Step(context.Background(), s)
	assert.Empty(t, updates)
	updates, msgs := p.Step(context.Background(), s)
	require.Len(t, updates, 1)
	assert.Equal(t, map[string]int{"berries": 1}, updates[0].Delta.Parts)
	assert.Len(t, msgs, 1)

	s.Creatures["bush"].Parts[1].Remaining = 0
	updates, _ = p.Step(context.Background(), s)
	require.Len(t, updates, 1)
	assert.True(t, updates[0].Delta.Remove)
}

func TestExhaustedPlantRemovedOnLaterTick(t *testing.T) {
	s := world()
	b := bush()
	b.Parts[1].Remaining = 0
	s.AddCreature(b)

	q := narrative.NewQueue()
	log := narrative.NewLog(50)
	cfg := turn.DefaultConfig()
	adv := turn.New(cfg, s, q, log, dedup.New(0), turn.WithSimulators(NewPlants(0)))

	adv.Advance(context.Background())
	assert.Contains(t, s.Creatures, "bush", "removal lags one pass")
	adv.Advance(context.Background())
	assert.NotContains(t, s.Creatures, "bush")
	assert.Contains(t, narrative.Texts(log.Entries()), "The stripped Bush withers away.")
}

func TestDefaults(t *testing.T) {
	w, sims := Defaults(dice.NewQueue(), 0.2, 4, 7)
	require.Len(t, sims, 2)
	assert.Equal(t, 0.2, w.(*Weather).change)
	assert.Equal(t, 7, sims[0].(*Creatures).Sight)
	assert.Equal(t, 4, sims[1].(*Plants).RegrowTurns)

	_, sims = Defaults(dice.NewQueue(), 0, 0, 0)
	assert.Equal(t, 5, sims[0].(*Creatures).Sight)
}
