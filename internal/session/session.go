// Package session is the handler surface front ends drive. Every handler and
// every storyteller completion runs under one lock, so the game state has a
// single writer.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/dedup"
	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/effect"
	"github.com/suderio/dreamland/internal/engine"
	"github.com/suderio/dreamland/internal/logging"
	"github.com/suderio/dreamland/internal/narrative"
	"github.com/suderio/dreamland/internal/outcome"
	"github.com/suderio/dreamland/internal/quest"
	"github.com/suderio/dreamland/internal/storyteller"
	"github.com/suderio/dreamland/internal/throttle"
	"github.com/suderio/dreamland/internal/turn"
	"github.com/suderio/dreamland/internal/world"
)

var (
	// ErrNotReady is returned while no game is being played.
	ErrNotReady = errors.New("no game in progress")
	// ErrGameOver is returned by every action once the player has fallen.
	ErrGameOver = errors.New("the game is over")
	// ErrBusy is returned while a storyteller call is pending.
	ErrBusy = errors.New("the storyteller is still speaking")
	// ErrThrottled is returned for a move inside the throttle window.
	ErrThrottled = errors.New("moving too fast")
	// ErrDuplicate marks a repeated action. Handlers swallow it and return a
	// nil result.
	ErrDuplicate = effect.ErrDuplicate
)

// StalePolicy decides what happens to a storyteller state change that
// arrives after the turn it was requested in has passed.
type StalePolicy string

const (
	StaleReject StalePolicy = "reject"
	StaleApply  StalePolicy = "apply"
)

// ParseStalePolicy validates a configured policy name.
func ParseStalePolicy(s string) (StalePolicy, error) {
	switch p := StalePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return StaleReject, nil
	case StaleReject, StaleApply:
		return p, nil
	}
	return "", fmt.Errorf("unknown stale policy %q", s)
}

// Options wires a session. Zero values are replaced by stock defaults.
type Options struct {
	Tuning         outcome.Tuning
	Turn           turn.Config
	Table          dice.Table
	Die            dice.DieType
	Source         dice.Source
	LogCap         int
	ThrottleWindow time.Duration
	StalePolicy    StalePolicy
	// MoveWhileBusy lets the player keep walking while narration is pending.
	MoveWhileBusy bool

	Style   string
	Length  string
	Context int

	Storyteller storyteller.Service
	World       world.ChunkStore
	Telemetry   effect.TelemetrySink
	Audio       effect.AudioSink
	Weather     turn.WeatherSim
	Simulators  []turn.Simulator
	Logger      *slog.Logger
	Now         func() time.Time
}

// DefaultOptions returns the stock tuning with no remote services.
func DefaultOptions() Options {
	return Options{
		Tuning:         outcome.DefaultTuning(),
		Turn:           turn.DefaultConfig(),
		Table:          dice.DefaultTable(),
		Die:            dice.D20,
		LogCap:         200,
		ThrottleWindow: 150 * time.Millisecond,
		StalePolicy:    StaleReject,
		Style:          "dreamlike",
		Length:         "short",
		Context:        8,
	}
}

// Request carries the arguments of one action. Turn stamps the turn the
// caller saw; nil means the current one.
type Request struct {
	Turn      *int     `json:"turn,omitempty"`
	Target    string   `json:"target,omitempty"`
	Item      string   `json:"item,omitempty"`
	Skill     string   `json:"skill,omitempty"`
	Part      string   `json:"part,omitempty"`
	Recipe    string   `json:"recipe,omitempty"`
	Structure string   `json:"structure,omitempty"`
	Slot      string   `json:"slot,omitempty"`
	Quantity  int      `json:"quantity,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Inputs    []string `json:"inputs,omitempty"`
}

func (r Request) turn(current int) int {
	if r.Turn == nil {
		return current
	}
	return *r.Turn
}

// Result is what a committed action produced.
type Result struct {
	Outcome   outcome.Outcome `json:"outcome,omitempty"`
	Report    effect.Report   `json:"report"`
	Tick      turn.Result     `json:"tick"`
	Narrating bool            `json:"narrating"`
}

// Snapshot is a read-only copy of the session for rendering.
type Snapshot struct {
	State       *engine.GameState  `json:"state"`
	Environment engine.Environment `json:"environment"`
	Busy        bool               `json:"busy"`
}

// Session owns the game state and the pipeline every action runs through:
// calculator, dedup guard, effect executor, turn advancer.
type Session struct {
	mu sync.Mutex

	opts     Options
	catalog  *data.Catalog
	calc     *outcome.Calculator
	quests   *quest.Evaluator
	queue    *narrative.Queue
	log      *narrative.Log
	guard    *dedup.Guard
	executor *effect.Executor
	bridge   *effect.Bridge
	advancer *turn.Advancer
	throttle *throttle.Throttle
	world    *world.Map
	logger   *slog.Logger

	state *engine.GameState
	busy  bool
	done  chan struct{}
	// game is bumped whenever the running game is abandoned so late
	// completions can tell they belong to an earlier one.
	game int
}

// New builds a session around catalog. No game is running until NewGame.
func New(catalog *data.Catalog, opts Options) (*Session, error) {
	if catalog == nil {
		return nil, errors.New("session: nil catalog")
	}
	def := DefaultOptions()
	if opts.Table == nil {
		opts.Table = def.Table
	}
	if opts.Die == "" {
		opts.Die = def.Die
	}
	if opts.Source == nil {
		opts.Source = dice.NewSource(uint64(time.Now().UnixNano()))
	}
	if opts.StalePolicy == "" {
		opts.StalePolicy = def.StalePolicy
	}
	if opts.Context <= 0 {
		opts.Context = def.Context
	}
	if opts.World == nil {
		opts.World = world.NewMemoryStore()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := logging.OrDiscard(opts.Logger)

	quests, err := quest.NewEvaluator(catalog.Quests)
	if err != nil {
		return nil, fmt.Errorf("compiling quests: %w", err)
	}

	queue := narrative.NewQueue()
	exec := effect.NewExecutor(queue, logger)
	exec.Audio = opts.Audio
	exec.Telemetry = opts.Telemetry
	exec.Quests = quests
	guard := dedup.New(0)

	s := &Session{
		opts:     opts,
		catalog:  catalog,
		calc:     outcome.New(opts.Tuning, catalog),
		quests:   quests,
		queue:    queue,
		log:      narrative.NewLog(opts.LogCap),
		guard:    guard,
		executor: exec,
		bridge:   &effect.Bridge{Guard: guard, Generator: effect.NewGenerator(catalog), Executor: exec},
		throttle: throttle.New(opts.ThrottleWindow),
		world:    world.NewMap(opts.World),
		logger:   logger,
	}
	s.throttle.SetLocked(true)
	return s, nil
}

// NewGame starts a fresh game from the catalog's player template and spawn
// points, abandoning any game in progress.
func (s *Session) NewGame(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := engine.NewGameState(s.catalog.NewPlayer())
	for _, sp := range s.catalog.Spawns {
		a, ok := s.catalog.Spawn(sp.Template, sp.ID, sp.Position)
		if !ok {
			return fmt.Errorf("spawn %s: unknown template %q", sp.ID, sp.Template)
		}
		state.AddCreature(a)
	}

	s.game++
	s.busy, s.done = false, nil
	s.state = state
	if s.advancer == nil {
		s.advancer = turn.New(s.opts.Turn, state, s.queue, s.log, s.guard,
			turn.WithWeather(s.opts.Weather),
			turn.WithSimulators(s.opts.Simulators...),
			turn.WithLogger(s.logger))
	} else {
		s.advancer.Rebind(state)
	}
	s.throttle.Reset()
	s.throttle.SetLocked(false)

	s.queue.Enqueue(fmt.Sprintf("You wake in the dreamland, %s. The grass is cold with dew.", state.Player.Name), narrative.KindNarrative)
	s.queue.Flush(s.log)
	s.logger.InfoContext(ctx, "new game", "creatures", len(state.Creatures))
	return nil
}

// ReturnToMenu abandons the running game. Pending storyteller answers are
// discarded when they arrive.
func (s *Session) ReturnToMenu(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return ErrNotReady
	}
	s.state.Phase = engine.PhaseMenu
	s.advancer.Reset()
	s.throttle.SetLocked(true)
	s.game++
	s.busy, s.done = false, nil
	s.logger.InfoContext(ctx, "returned to menu", "turn", s.state.Clock.Turn)
	return nil
}

// ready guards every action handler.
func (s *Session) ready(action outcome.ActionKind) error {
	switch {
	case s.state == nil || s.state.Phase == engine.PhaseMenu:
		return ErrNotReady
	case s.state.Over():
		return ErrGameOver
	case s.busy && !(action == outcome.ActionMove && s.opts.MoveWhileBusy):
		return ErrBusy
	}
	return nil
}

func (s *Session) roll() (dice.Roll, dice.SuccessLevel) {
	return s.opts.Table.Resolve(s.opts.Source, s.opts.Die)
}

func (s *Session) token(o outcome.Outcome, req Request) dedup.Token {
	return dedup.Token{
		Kind:   string(o.Kind()),
		Actor:  o.ActorID(),
		Target: o.TargetID(),
		Turn:   req.turn(s.state.Clock.Turn),
	}
}

// narrated lists the actions whose plain text is refined by the storyteller.
var narrated = map[outcome.ActionKind]bool{
	outcome.ActionAttack:  true,
	outcome.ActionSkill:   true,
	outcome.ActionUseItem: true,
	outcome.ActionHarvest: true,
	outcome.ActionCraft:   true,
}

// commit is the shared tail of every action: deduplicated effects, world
// writes, one tick, then narration.
func (s *Session) commit(ctx context.Context, tok dedup.Token, o outcome.Outcome, target *engine.ActorState) (*Result, error) {
	rep, err := s.bridge.Apply(ctx, s.state, tok, o)
	if errors.Is(err, effect.ErrDuplicate) {
		s.logger.DebugContext(ctx, "duplicate action ignored", "token", tok.String())
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.place(ctx, o)

	tick := s.advancer.Advance(ctx)
	if tick.GameOver {
		s.throttle.SetLocked(true)
	}
	res := &Result{Outcome: o, Report: rep, Tick: tick}
	if s.opts.Storyteller != nil && narrated[o.Kind()] && len(rep.NarrativeIDs) > 0 && !tick.GameOver {
		s.narrate(ctx, tick.Turn, o, rep.NarrativeIDs[0], target)
		res.Narrating = true
	}
	return res, nil
}

// place mirrors builds and drops onto the world map.
func (s *Session) place(ctx context.Context, o outcome.Outcome) {
	var err error
	switch v := o.(type) {
	case outcome.BuildOutcome:
		err = s.world.AddStructure(ctx, v.Position, v.StructureID)
	case outcome.DropOutcome:
		err = s.world.AddItems(ctx, v.Position, v.Item, v.Quantity)
	default:
		return
	}
	if err != nil {
		s.logger.WarnContext(ctx, "world write failed", "action", o.Kind(), "error", err)
	}
}

// async marks the session busy and runs call without the lock. The
// function call returns is then run under the lock.
func (s *Session) async(ctx context.Context, call func(context.Context) func()) {
	done := make(chan struct{})
	s.busy, s.done = true, done
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		complete := call(ctx)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.done == done {
			s.busy, s.done = false, nil
		}
		complete()
	}()
}

// Settle waits for the pending storyteller call, if any.
func (s *Session) Settle(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) request(action string) storyteller.Request {
	return storyteller.Request{
		Action:          action,
		Actor:           s.state.Player.Name,
		RecentNarrative: narrative.Texts(s.log.Tail(s.opts.Context)),
		Style:           s.opts.Style,
		Length:          s.opts.Length,
	}
}

// narrate asks the storyteller to refine line id. The target snapshot is
// the live one when the target is still around, else the one taken before
// the action.
func (s *Session) narrate(ctx context.Context, at int, o outcome.Outcome, id string, target *engine.ActorState) {
	entry, _ := s.log.Get(id)
	req := s.request(string(o.Kind()))
	req.ActorState = s.state.Player.Clone()
	if target != nil {
		req.Target = target.Name
		req.TargetState = target
		if cur, ok := s.state.Actor(target.ID); ok {
			req.TargetState = cur.Clone()
		}
	}
	req.Roll = o.Dice().Value
	req.SuccessLevel = o.Level().String()
	req.Summary = entry.Text

	svc, game := s.opts.Storyteller, s.game
	s.async(ctx, func(ctx context.Context) func() {
		resp, err := svc.Narrate(ctx, req)
		return func() { s.refine(ctx, id, at, game, resp, err) }
	})
}

// stale reports whether a change requested at turn at must be dropped.
func (s *Session) stale(at int) bool {
	return s.opts.StalePolicy != StaleApply && at < s.state.Clock.Turn
}

// refine replaces the plain action line with the storyteller's text and
// applies any state change it proposes.
func (s *Session) refine(ctx context.Context, id string, at, game int, resp storyteller.Response, err error) {
	if game != s.game {
		return
	}
	if err != nil {
		s.logger.WarnContext(ctx, "narration failed", "error", err)
		s.queue.Enqueue(storyteller.UnavailableMessage, narrative.KindSystem)
		s.queue.Flush(s.log)
		return
	}
	if resp.Narrative != "" {
		s.queue.Push(narrative.Entry{ID: id, Text: resp.Narrative, Kind: narrative.KindNarrative})
	}
	if resp.SystemMessage != "" {
		s.queue.Enqueue(resp.SystemMessage, narrative.KindSystem)
	}
	switch {
	case resp.StateDelta.Empty():
	case s.stale(at):
		s.logger.DebugContext(ctx, "stale storyteller change dropped", "requested", at, "turn", s.state.Clock.Turn)
	case s.state.Over():
	default:
		s.executor.Execute(ctx, s.state, []effect.Effect{effect.StatDelta{Delta: toDelta(resp.StateDelta)}})
		s.checkFallen()
	}
	s.queue.Flush(s.log)
}

func (s *Session) checkFallen() {
	if s.state.Player.HP > 0 || s.state.Over() {
		return
	}
	s.state.Phase = engine.PhaseOver
	s.throttle.SetLocked(true)
	s.queue.Enqueue("You have fallen. Your journey ends here.", narrative.KindSystem)
}

func toDelta(d *storyteller.StateDelta) engine.Delta {
	return engine.Delta{
		ActorID: engine.PlayerID,
		HP:      d.HP,
		Stamina: d.Stamina,
		Mana:    d.Mana,
		Hunger:  d.Hunger,
		Items:   maps.Clone(d.Items),
	}
}

// Snapshot returns a deep copy of the current game. State is nil before the
// first game.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return Snapshot{Busy: s.busy}
	}
	return Snapshot{State: s.state.Clone(), Environment: s.state.Environment(), Busy: s.busy}
}

// Log returns the last n story entries; n <= 0 returns all of them.
func (s *Session) Log(n int) []narrative.Entry { return s.log.Tail(n) }

// MarkSeen clears the new flags after a render.
func (s *Session) MarkSeen() { s.log.MarkSeen() }

// CanEmitMove reports whether a move would pass the throttle window now.
func (s *Session) CanEmitMove() bool { return s.throttle.CanEmit(s.opts.Now()) }

// SetAnimating blocks moves while the front end animates one.
func (s *Session) SetAnimating(v bool) { s.throttle.SetAnimating(v) }

// Catalog returns the content tables. Fused items are added at runtime.
func (s *Session) Catalog() *data.Catalog { return s.catalog }

// Chunk reads the world cell at pos.
func (s *Session) Chunk(ctx context.Context, pos engine.Position) (world.Chunk, error) {
	return s.world.At(ctx, pos)
}
