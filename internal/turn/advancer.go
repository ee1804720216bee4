// Package turn runs the per-action tick: carried-over creature updates,
// clock, status and hunger ticks, weather and creature simulation, then one
// narrative flush.
package turn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/suderio/dreamland/internal/dedup"
	"github.com/suderio/dreamland/internal/engine"
	"github.com/suderio/dreamland/internal/narrative"
)

// Update is a simulation result committed on the following pass.
type Update struct {
	Delta   engine.Delta `json:"delta"`
	Message string       `json:"message,omitempty"`
}

// WeatherSim decides the next sky. It must not mutate state.
type WeatherSim interface {
	Step(ctx context.Context, state *engine.GameState) (engine.Weather, []string)
	Reset()
}

// Simulator computes creature or plant behaviour. The returned updates land
// on the next pass; the messages are narrated in this one.
type Simulator interface {
	Step(ctx context.Context, state *engine.GameState) ([]Update, []string)
	Reset()
}

// Config holds tick tuning.
type Config struct {
	TickMinutes      int `mapstructure:"tick_minutes"`
	HungerPerTick    int `mapstructure:"hunger_per_tick"`
	StarvationDamage int `mapstructure:"starvation_damage"`
}

// DefaultConfig returns stock tick values.
func DefaultConfig() Config {
	return Config{TickMinutes: 10, HungerPerTick: 1, StarvationDamage: 1}
}

// Result describes one pass.
type Result struct {
	Turn     int
	Clock    engine.GameClock
	Flushed  int
	Pending  int
	GameOver bool
}

// Advancer owns the commit step between actions.
type Advancer struct {
	cfg     Config
	state   *engine.GameState
	queue   *narrative.Queue
	log     *narrative.Log
	guard   *dedup.Guard
	weather WeatherSim
	sims    []Simulator
	pending []Update
	logger  *slog.Logger
}

// Option configures an Advancer.
type Option func(*Advancer)

// WithWeather injects the weather simulator.
func WithWeather(w WeatherSim) Option { return func(a *Advancer) { a.weather = w } }

// WithSimulators injects creature/plant simulators, run in order.
func WithSimulators(s ...Simulator) Option { return func(a *Advancer) { a.sims = append(a.sims, s...) } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(a *Advancer) { a.logger = l } }

// New wires an advancer around the session's state, queue, log and guard.
func New(cfg Config, state *engine.GameState, q *narrative.Queue, log *narrative.Log, guard *dedup.Guard, opts ...Option) *Advancer {
	a := &Advancer{cfg: cfg, state: state, queue: q, log: log, guard: guard}
	for _, o := range opts {
		o(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a
}

// Advance runs one pass in the fixed order and returns what happened.
func (a *Advancer) Advance(ctx context.Context) Result {
	wasOver := a.state.Over()

	// 1. updates computed on the previous pass
	carried := a.pending
	a.pending = nil
	for _, u := range carried {
		if err := a.state.Apply(u.Delta); err != nil {
			// the creature may have died or left since the update was planned
			if !errors.Is(err, engine.ErrUnknownActor) {
				a.logger.Warn("pending update failed", "actor", u.Delta.ActorID, "error", err)
			}
			continue
		}
		if u.Message != "" {
			a.queue.Enqueue(u.Message, narrative.KindNarrative)
		}
	}

	// 2. clock
	a.state.Clock = a.state.Clock.Advance(a.cfg.TickMinutes)

	// 3. status and hunger, one delta per actor
	for _, id := range a.actorIDs() {
		actor, _ := a.state.Actor(id)
		d, msgs := a.tick(actor)
		if err := a.state.Apply(d); err != nil {
			a.logger.Warn("status tick failed", "actor", id, "error", err)
			continue
		}
		for _, m := range msgs {
			a.queue.Enqueue(m, narrative.KindSystem)
		}
	}

	// 4. weather
	if a.weather != nil {
		w, msgs := a.weather.Step(ctx, a.state.Clone())
		a.state.Weather = w
		for _, m := range msgs {
			a.queue.Enqueue(m, narrative.KindNarrative)
		}
	}

	// 5. creatures and plants; their updates land next pass
	snapshot := a.state.Clone()
	for _, s := range a.sims {
		updates, msgs := s.Step(ctx, snapshot)
		a.pending = append(a.pending, updates...)
		for _, m := range msgs {
			a.queue.Enqueue(m, narrative.KindNarrative)
		}
	}

	// 6. game over
	if a.state.Player.HP <= 0 {
		a.state.Phase = engine.PhaseOver
	}
	if a.state.Over() && !wasOver {
		a.queue.Enqueue("You have fallen. Your journey ends here.", narrative.KindSystem)
		a.pending = nil
	}

	// 7. single flush
	flushed := a.queue.Flush(a.log)

	// 8. turn boundary
	a.guard.Reset(a.state.Clock.Turn)

	return Result{
		Turn:     a.state.Clock.Turn,
		Clock:    a.state.Clock,
		Flushed:  flushed,
		Pending:  len(a.pending),
		GameOver: a.state.Over(),
	}
}

func (a *Advancer) actorIDs() []string {
	return append([]string{a.state.Player.ID}, a.state.CreatureIDs()...)
}

// tick folds every per-turn status effect and hunger drain of actor into a
// single delta.
func (a *Advancer) tick(actor *engine.ActorState) (engine.Delta, []string) {
	d := engine.Delta{ActorID: actor.ID}
	var msgs []string
	player := actor.Kind == engine.KindPlayer

	if len(actor.Statuses) > 0 {
		kept := make([]engine.StatusEffect, 0, len(actor.Statuses))
		for _, st := range actor.Statuses {
			d.HP += st.HPPerTurn
			d.Stamina += st.StaminaPerTurn
			if player && st.HPPerTurn < 0 {
				msgs = append(msgs, fmt.Sprintf("%s hurts you for %d.", st.Name, -st.HPPerTurn))
			}
			st.Turns--
			if st.Turns > 0 {
				kept = append(kept, st)
			} else if player {
				msgs = append(msgs, st.Name+" wears off.")
			}
		}
		d.Statuses = kept
		d.ReplaceStatuses = true
	}

	if player && a.cfg.HungerPerTick > 0 {
		if actor.Hunger > 0 {
			d.Hunger = -a.cfg.HungerPerTick
			if actor.Hunger-a.cfg.HungerPerTick <= 0 {
				msgs = append(msgs, "Your stomach is empty.")
			}
		} else if actor.MaxHunger > 0 {
			d.HP -= a.cfg.StarvationDamage
			msgs = append(msgs, "You are starving.")
		}
	}
	return d, msgs
}

// Pending returns the updates waiting for the next pass.
func (a *Advancer) Pending() []Update {
	return append([]Update(nil), a.pending...)
}

// Reset is the session boundary: pending work is dropped and every
// simulator is reset.
func (a *Advancer) Reset() {
	a.pending = nil
	if a.weather != nil {
		a.weather.Reset()
	}
	for _, s := range a.sims {
		s.Reset()
	}
}

// State exposes the committed state for read-only callers.
func (a *Advancer) State() *engine.GameState { return a.state }

// Rebind points the advancer at a fresh state, e.g. after a new game.
func (a *Advancer) Rebind(state *engine.GameState) {
	a.state = state
	a.Reset()
	a.guard.Reset(state.Clock.Turn)
}
