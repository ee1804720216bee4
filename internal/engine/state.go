package engine

import (
	"errors"
	"fmt"
	"maps"
	"sort"
)

// ErrUnknownActor is returned when a delta names an actor not in the state.
var ErrUnknownActor = errors.New("unknown actor")

// MinutesPerDay is the clock wraparound.
const MinutesPerDay = 24 * 60

// GameClock is monotonic and only advanced by the turn advancer.
type GameClock struct {
	Minutes int `json:"minutes"` // minutes within the day, 0..1439
	Day     int `json:"day"`
	Turn    int `json:"turn"`
}

// Advance returns the clock moved forward by minutes, wrapping into the next
// day, with the turn counter incremented once.
func (c GameClock) Advance(minutes int) GameClock {
	total := c.Minutes + max(minutes, 0)
	return GameClock{
		Minutes: total % MinutesPerDay,
		Day:     c.Day + total/MinutesPerDay,
		Turn:    c.Turn + 1,
	}
}

// IsNight reports whether the clock sits between 20:00 and 05:59.
func (c GameClock) IsNight() bool {
	h := c.Minutes / 60
	return h >= 20 || h < 6
}

func (c GameClock) String() string {
	return fmt.Sprintf("day %d %02d:%02d (turn %d)", c.Day, c.Minutes/60, c.Minutes%60, c.Turn)
}

// Weather is the current sky as decided by the weather simulator.
type Weather struct {
	Kind     string  `json:"kind"`
	Light    float64 `json:"light"`    // 0 (pitch black) .. 10 (full sun)
	Moisture float64 `json:"moisture"` // 0 (arid) .. 10 (soaked)
}

// Environment is the read-only view combat and skills see.
type Environment struct {
	Light    float64 `json:"light"`
	Moisture float64 `json:"moisture"`
	Weather  string  `json:"weather"`
}

// Phase is the coarse session state.
type Phase string

const (
	PhaseMenu    Phase = "menu"
	PhasePlaying Phase = "playing"
	PhaseOver    Phase = "over"
)

// GameState is the committed world the UI renders.
type GameState struct {
	Player          *ActorState            `json:"player"`
	Creatures       map[string]*ActorState `json:"creatures"`
	Clock           GameClock              `json:"clock"`
	Weather         Weather                `json:"weather"`
	Counters        map[string]int         `json:"counters"`
	CompletedQuests map[string]bool        `json:"completed_quests"`
	Phase           Phase                  `json:"phase"`
}

// NewGameState creates a playing state around the given player.
func NewGameState(player *ActorState) *GameState {
	if player == nil {
		player = NewActor(PlayerID, "Wanderer", KindPlayer)
	}
	player.Normalize()
	return &GameState{
		Player:          player,
		Creatures:       make(map[string]*ActorState),
		Clock:           GameClock{Minutes: 8 * 60, Day: 1},
		Weather:         Weather{Kind: "clear", Light: 10, Moisture: 2},
		Counters:        make(map[string]int),
		CompletedQuests: make(map[string]bool),
		Phase:           PhasePlaying,
	}
}

// Over reports the terminal game-over state.
func (s *GameState) Over() bool { return s.Phase == PhaseOver }

// AddCreature places an actor into the world.
func (s *GameState) AddCreature(a *ActorState) {
	a.Normalize()
	s.Creatures[a.ID] = a
}

// Actor resolves the player or a creature by id.
func (s *GameState) Actor(id string) (*ActorState, bool) {
	if s.Player != nil && id == s.Player.ID {
		return s.Player, true
	}
	a, ok := s.Creatures[id]
	return a, ok
}

// CreatureIDs returns creature ids in a stable order.
func (s *GameState) CreatureIDs() []string {
	ids := make([]string, 0, len(s.Creatures))
	for id := range s.Creatures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CreaturesAt lists creatures standing on pos, sorted by id.
func (s *GameState) CreaturesAt(pos Position) []*ActorState {
	var out []*ActorState
	for _, id := range s.CreatureIDs() {
		if c := s.Creatures[id]; c.Position == pos {
			out = append(out, c)
		}
	}
	return out
}

// Environment derives the combat environment from weather and time of day.
func (s *GameState) Environment() Environment {
	light := s.Weather.Light
	if s.Clock.IsNight() {
		light *= 0.2
	}
	return Environment{Light: light, Moisture: s.Weather.Moisture, Weather: s.Weather.Kind}
}

// Clone returns a deep snapshot safe to hand to other components.
func (s *GameState) Clone() *GameState {
	c := &GameState{
		Player:          s.Player.Clone(),
		Creatures:       make(map[string]*ActorState, len(s.Creatures)),
		Clock:           s.Clock,
		Weather:         s.Weather,
		Counters:        maps.Clone(s.Counters),
		CompletedQuests: maps.Clone(s.CompletedQuests),
		Phase:           s.Phase,
	}
	for id, a := range s.Creatures {
		c.Creatures[id] = a.Clone()
	}
	if c.Counters == nil {
		c.Counters = make(map[string]int)
	}
	if c.CompletedQuests == nil {
		c.CompletedQuests = make(map[string]bool)
	}
	return c
}
