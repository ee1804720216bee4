package effect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/dedup"
	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/engine"
	"github.com/suderio/dreamland/internal/narrative"
	"github.com/suderio/dreamland/internal/outcome"
	"github.com/suderio/dreamland/internal/quest"
)

type countingTelemetry struct {
	names []string
	err   error
}

func (c *countingTelemetry) Record(_ context.Context, name string, _ map[string]any) error {
	c.names = append(c.names, name)
	return c.err
}

type panickyAudio struct{}

func (panickyAudio) Play(context.Context, string) error { panic("speaker on fire") }

func newState() *engine.GameState {
	p := engine.NewActor(engine.PlayerID, "Hero", engine.KindPlayer)
	p.HP, p.MaxHP = 30, 30
	p.Stamina, p.MaxStamina = 10, 10
	s := engine.NewGameState(p)
	w := engine.NewActor("wolf-1", "Wolf", engine.KindCreature)
	w.HP, w.MaxHP = 20, 20
	s.AddCreature(w)
	return s
}

func hitOutcome() outcome.CombatOutcome {
	return outcome.CombatOutcome{
		Base:         outcome.Base{Action: outcome.ActionAttack, Actor: engine.PlayerID, Target: "wolf-1", Success: dice.GreatSuccess},
		TargetName:   "Wolf",
		FinalDamage:  15,
		StaminaCost:  1,
		EnemyHPAfter: 5,
		Retaliation:  3,
	}
}

func killOutcome() outcome.CombatOutcome {
	o := hitOutcome()
	o.FinalDamage = 20
	o.EnemyHPAfter = 0
	o.Retaliation = 0
	o.Defeated = true
	o.Loot = []outcome.Drop{{Item: "pelt", Quantity: 2}}
	return o
}

func rankOf(k Kind) int {
	return map[Kind]int{KindStatDelta: 0, KindNarrative: 1, KindAudio: 2, KindTelemetry: 3, KindQuestTrigger: 4}[k]
}

func TestGenerateOrder(t *testing.T) {
	g := NewGenerator(nil)
	effects := g.Generate(killOutcome())
	require.NotEmpty(t, effects)
	for i := 1; i < len(effects); i++ {
		assert.LessOrEqual(t, rankOf(effects[i-1].Kind()), rankOf(effects[i].Kind()), "effect %d out of order", i)
	}
	assert.Equal(t, KindQuestTrigger, effects[len(effects)-1].Kind())

	first := effects[0].(StatDelta).Delta
	assert.Equal(t, map[string]int{"pelt": 2}, first.Items)
	assert.Equal(t, 1, first.Counters["kills"])
	assert.True(t, effects[1].(StatDelta).Delta.Remove)
}

func TestGenerateIsPure(t *testing.T) {
	g := NewGenerator(nil)
	assert.Equal(t, g.Generate(hitOutcome()), g.Generate(hitOutcome()))
}

func TestDuplicateTriggerAppliesOnce(t *testing.T) {
	s := newState()
	tele := &countingTelemetry{}
	x := NewExecutor(narrative.NewQueue(), nil)
	x.Telemetry = tele
	b := &Bridge{Guard: dedup.New(s.Clock.Turn), Generator: NewGenerator(nil), Executor: x}
	tok := dedup.Token{Kind: "attack", Actor: engine.PlayerID, Target: "wolf-1", Turn: s.Clock.Turn}

	_, err := b.Apply(context.Background(), s, tok, hitOutcome())
	require.NoError(t, err)
	_, err = b.Apply(context.Background(), s, tok, hitOutcome())
	assert.ErrorIs(t, err, ErrDuplicate)

	assert.Equal(t, 5, s.Creatures["wolf-1"].HP)
	assert.Equal(t, 27, s.Player.HP)
	assert.Equal(t, []string{"combat", "attack_resolved"}, tele.names)
}

func TestFailuresAreIsolated(t *testing.T) {
	s := newState()
	q := narrative.NewQueue()
	x := NewExecutor(q, nil)
	x.Audio = panickyAudio{}
	x.Telemetry = &countingTelemetry{err: errors.New("sink down")}

	effects := []Effect{
		AudioCue{Name: "hit"},
		StatDelta{Delta: engine.Delta{ActorID: "ghost", HP: -1}},
		TelemetryEvent{Name: "combat"},
		NarrativeLine{Text: "still told", Style: narrative.KindAction},
		StatDelta{Delta: engine.Delta{ActorID: engine.PlayerID, HP: -4}},
	}
	r := x.Execute(context.Background(), s, effects)

	assert.Equal(t, 2, r.Applied)
	require.Len(t, r.Failures, 3)
	assert.Equal(t, KindAudio, r.Failures[0].Effect)
	assert.ErrorIs(t, r.Failures[1].Err, engine.ErrUnknownActor)
	assert.Equal(t, 26, s.Player.HP)
	assert.Equal(t, 1, q.Len())
	assert.Len(t, r.NarrativeIDs, 1)
}

func TestNarrativeLineKeepsItsStyle(t *testing.T) {
	s := newState()
	q := narrative.NewQueue()
	x := NewExecutor(q, nil)

	r := x.Execute(context.Background(), s, []Effect{
		NarrativeLine{ID: "n1", Text: "The wind turns.", Style: narrative.KindSystem},
	})
	require.Len(t, r.NarrativeIDs, 1)
	assert.Equal(t, KindNarrative, NarrativeLine{}.Kind())

	log := narrative.NewLog(0)
	q.Flush(log)
	entry, ok := log.Get("n1")
	require.True(t, ok)
	assert.Equal(t, narrative.KindSystem, entry.Kind)
	assert.Equal(t, "The wind turns.", entry.Text)
}

func TestQuestPassSeesPostEffectState(t *testing.T) {
	s := newState()
	ev, err := quest.NewEvaluator([]data.Quest{
		{ID: "first_blood", Name: "First Blood", Condition: "counters.kills >= 1", Reward: map[string]int{"trophy": 1}},
	})
	require.NoError(t, err)

	q := narrative.NewQueue()
	x := NewExecutor(q, nil)
	x.Quests = ev
	g := NewGenerator(nil)

	r := x.Execute(context.Background(), s, g.Generate(hitOutcome()))
	assert.Empty(t, r.Quests)

	r = x.Execute(context.Background(), s, g.Generate(killOutcome()))
	assert.Equal(t, []string{"first_blood"}, r.Quests)
	assert.True(t, s.CompletedQuests["first_blood"])
	assert.Equal(t, 1, s.Player.Inventory["trophy"])
	assert.Contains(t, r.Cues, "quest_complete")

	log := narrative.NewLog(0)
	q.Flush(log)
	texts := narrative.Texts(log.Entries())
	assert.Equal(t, "Quest complete: First Blood.", texts[len(texts)-1])

	r = x.Execute(context.Background(), s, g.Generate(outcome.WaitOutcome{Base: outcome.Base{Action: outcome.ActionWait, Actor: engine.PlayerID}}))
	assert.Empty(t, r.Quests, "completed quests do not fire twice")
}

func TestGenerateHarvestPart(t *testing.T) {
	g := NewGenerator(nil)
	effects := g.Generate(outcome.HarvestOutcome{
		Base:              outcome.Base{Action: outcome.ActionHarvest, Actor: engine.PlayerID, Target: "bush-1", Success: dice.Success},
		TargetName:        "Bush",
		Part:              "berries",
		RemainingAfter:    0,
		AllPartsExhausted: true,
		StaminaCost:       2,
	})
	var removes, parts int
	for _, e := range effects {
		if d, ok := e.(StatDelta); ok {
			if d.Delta.Remove {
				removes++
			}
			if _, ok := d.Delta.Parts["berries"]; ok {
				parts++
			}
		}
	}
	assert.Equal(t, 0, removes, "part harvest never removes the target")
	assert.Equal(t, 1, parts)
}
