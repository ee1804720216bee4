package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState() *GameState {
	p := NewActor(PlayerID, "Wanderer", KindPlayer)
	p.HP, p.MaxHP = 20, 30
	p.Stamina, p.MaxStamina = 10, 10
	p.Hunger, p.MaxHunger = 5, 10
	s := NewGameState(p)

	g := NewActor("goblin1", "Goblin", KindCreature)
	g.HP, g.MaxHP = 15, 15
	g.Parts = []HarvestPart{{Name: "ear", Remaining: 2}}
	s.AddCreature(g)
	return s
}

func TestClockAdvanceWrapsDay(t *testing.T) {
	c := GameClock{Minutes: 1430, Day: 1, Turn: 4}
	next := c.Advance(15)
	assert.Equal(t, 5, next.Minutes)
	assert.Equal(t, 2, next.Day)
	assert.Equal(t, 5, next.Turn)

	same := c.Advance(0)
	assert.Equal(t, c.Minutes, same.Minutes)
	assert.Equal(t, 5, same.Turn, "turn increments unconditionally")
}

func TestApplyClampsAndDropsEmptyItems(t *testing.T) {
	s := testState()
	s.Player.Inventory["berry"] = 2

	require.NoError(t, s.Apply(Delta{
		ActorID: PlayerID,
		HP:      50,
		Stamina: -20,
		Items:   map[string]int{"berry": -2, "stick": 3},
	}))

	assert.Equal(t, 30, s.Player.HP)
	assert.Equal(t, 0, s.Player.Stamina)
	_, hasBerry := s.Player.Inventory["berry"]
	assert.False(t, hasBerry)
	assert.Equal(t, 3, s.Player.Inventory["stick"])
}

func TestApplyPlayerDeathEndsGame(t *testing.T) {
	s := testState()
	require.NoError(t, s.Apply(Delta{ActorID: PlayerID, HP: -100}))
	assert.True(t, s.Over())
}

func TestApplyStatusesRefreshInsteadOfStacking(t *testing.T) {
	s := testState()
	poison := StatusEffect{ID: "poison", Turns: 3, HPPerTurn: -1}
	require.NoError(t, s.Apply(Delta{ActorID: PlayerID, AddStatuses: []StatusEffect{poison}}))
	poison.Turns = 5
	require.NoError(t, s.Apply(Delta{ActorID: PlayerID, AddStatuses: []StatusEffect{poison}}))

	require.Len(t, s.Player.Statuses, 1)
	assert.Equal(t, 5, s.Player.Statuses[0].Turns)

	require.NoError(t, s.Apply(Delta{ActorID: PlayerID, RemoveStatuses: []string{"poison"}}))
	assert.Empty(t, s.Player.Statuses)
}

func TestApplyPartsAndRemoval(t *testing.T) {
	s := testState()
	require.NoError(t, s.Apply(Delta{ActorID: "goblin1", Parts: map[string]int{"ear": 0}}))
	assert.True(t, s.Creatures["goblin1"].PartsExhausted())

	require.NoError(t, s.Apply(Delta{ActorID: "goblin1", Remove: true}))
	_, ok := s.Actor("goblin1")
	assert.False(t, ok)
}

func TestApplyUnknownActor(t *testing.T) {
	s := testState()
	err := s.Apply(Delta{ActorID: "ghost", HP: -1})
	assert.ErrorIs(t, err, ErrUnknownActor)
}

func TestApplyCountersWithoutActor(t *testing.T) {
	s := testState()
	require.NoError(t, s.Apply(Delta{Counters: map[string]int{"kills.goblin": 1}, Quests: []string{"first_blood"}}))
	assert.Equal(t, 1, s.Counters["kills.goblin"])
	assert.True(t, s.CompletedQuests["first_blood"])
}

func TestCloneIsDeep(t *testing.T) {
	s := testState()
	c := s.Clone()
	c.Player.Inventory["gem"] = 1
	c.Creatures["goblin1"].Parts[0].Remaining = 0
	c.Counters["steps"] = 9

	assert.NotContains(t, s.Player.Inventory, "gem")
	assert.Equal(t, 2, s.Creatures["goblin1"].Parts[0].Remaining)
	assert.Zero(t, s.Counters["steps"])
}

func TestEnvironmentDarkensAtNight(t *testing.T) {
	s := testState()
	s.Weather = Weather{Kind: "clear", Light: 10, Moisture: 2}
	s.Clock.Minutes = 12 * 60
	assert.Equal(t, 10.0, s.Environment().Light)
	s.Clock.Minutes = 23 * 60
	assert.InDelta(t, 2.0, s.Environment().Light, 1e-9)
}

func TestPositionHelpers(t *testing.T) {
	p := Position{X: 1, Y: -2}
	assert.Equal(t, "1,-2", p.Key())
	assert.Equal(t, 3, p.Distance(Position{X: 4, Y: 0}))
	assert.Equal(t, Position{X: 2, Y: -1}, p.Add(1, 1))
}
