package effect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"

	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/dedup"
	"github.com/suderio/dreamland/internal/engine"
	"github.com/suderio/dreamland/internal/narrative"
	"github.com/suderio/dreamland/internal/outcome"
)

// ErrDuplicate is returned by Bridge.Apply when the token was already
// claimed this turn. Callers treat it as a silent no-op.
var ErrDuplicate = errors.New("duplicate action in this turn")

// NarrativeSink receives story lines; *narrative.Queue satisfies it.
type NarrativeSink interface {
	Push(narrative.Entry) string
}

// AudioSink records a decision to play a cue.
type AudioSink interface {
	Play(ctx context.Context, cue string) error
}

// TelemetrySink records statistics events.
type TelemetrySink interface {
	Record(ctx context.Context, name string, fields map[string]any) error
}

// QuestChecker finds quests newly satisfied by a state.
type QuestChecker interface {
	Completed(state *engine.GameState) ([]data.Quest, error)
}

// Failure describes one effect that could not be applied.
type Failure struct {
	Index  int
	Effect Kind
	Err    error
}

// Report summarises an execution. Failures are informational only.
type Report struct {
	Applied      int
	Failures     []Failure
	NarrativeIDs []string
	Cues         []string
	Quests       []string
}

// Executor applies effects in order, isolating each one.
type Executor struct {
	Narrative NarrativeSink
	Audio     AudioSink
	Telemetry TelemetrySink
	Quests    QuestChecker
	Logger    *slog.Logger
}

// NewExecutor returns an executor with no-op side channels; set the fields
// to wire real sinks.
func NewExecutor(q NarrativeSink, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Executor{Narrative: q, Logger: logger}
}

// Execute applies effects against state. When the batch carries a quest
// trigger, the quest pass runs once after every gameplay effect has landed
// and its follow-on batch is executed the same way.
func (x *Executor) Execute(ctx context.Context, state *engine.GameState, effects []Effect) Report {
	var r Report
	trigger := x.run(ctx, state, effects, &r)
	if trigger && x.Quests != nil {
		follow, ids := x.questPass(state)
		r.Quests = ids
		x.run(ctx, state, follow, &r)
	}
	return r
}

func (x *Executor) run(ctx context.Context, state *engine.GameState, effects []Effect, r *Report) bool {
	trigger := false
	for i, e := range effects {
		if _, ok := e.(QuestTrigger); ok {
			trigger = true
			continue
		}
		if err := x.apply(ctx, state, e, r); err != nil {
			r.Failures = append(r.Failures, Failure{Index: i, Effect: e.Kind(), Err: err})
			x.Logger.Warn("effect failed", "kind", e.Kind(), "index", i, "error", err)
			continue
		}
		r.Applied++
	}
	return trigger
}

func (x *Executor) apply(ctx context.Context, state *engine.GameState, e Effect, r *Report) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("effect %s panicked: %v", e.Kind(), p)
		}
	}()

	switch v := e.(type) {
	case StatDelta:
		return state.Apply(v.Delta)
	case NarrativeLine:
		if x.Narrative == nil {
			return errors.New("no narrative sink")
		}
		id := x.Narrative.Push(narrative.Entry{ID: v.ID, Text: v.Text, Kind: v.Style})
		r.NarrativeIDs = append(r.NarrativeIDs, id)
		return nil
	case AudioCue:
		r.Cues = append(r.Cues, v.Name)
		if x.Audio == nil {
			return nil
		}
		return x.Audio.Play(ctx, v.Name)
	case TelemetryEvent:
		if x.Telemetry == nil {
			return nil
		}
		return x.Telemetry.Record(ctx, v.Name, v.Fields)
	default:
		return fmt.Errorf("unknown effect %T", e)
	}
}

// questPass evaluates quests against the post-effect state and builds the
// follow-on notification batch.
func (x *Executor) questPass(state *engine.GameState) ([]Effect, []string) {
	done, err := x.Quests.Completed(state)
	if err != nil {
		x.Logger.Warn("quest evaluation failed", "error", err)
	}
	var b batch
	var ids []string
	for _, q := range done {
		ids = append(ids, q.ID)
		d := engine.Delta{Quests: []string{q.ID}}
		if len(q.Reward) > 0 {
			d.ActorID = engine.PlayerID
			d.Items = maps.Clone(q.Reward)
		}
		b.delta(d)
		b.say(narrative.KindSystem, "Quest complete: %s.", q.Name)
		b.cue("quest_complete")
		b.telemetry("quest_completed", map[string]any{"quest": q.ID})
	}
	return b.effects(), ids
}

// Bridge is the deduplicated path from an outcome to committed effects.
type Bridge struct {
	Guard     *dedup.Guard
	Generator *Generator
	Executor  *Executor
}

// Apply claims tok, generates the effects of o and executes them. A token
// already claimed this turn yields ErrDuplicate and nothing is applied.
func (b *Bridge) Apply(ctx context.Context, state *engine.GameState, tok dedup.Token, o outcome.Outcome) (Report, error) {
	if !b.Guard.Claim(tok) {
		return Report{}, fmt.Errorf("%s: %w", tok, ErrDuplicate)
	}
	return b.Executor.Execute(ctx, state, b.Generator.Generate(o)), nil
}
