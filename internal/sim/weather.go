// Package sim holds the default weather, creature and plant simulators the
// turn advancer runs each pass.
package sim

import (
	"context"
	"sync"

	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/engine"
	"github.com/suderio/dreamland/internal/turn"
)

// Sky is one weather kind with its light and moisture levels.
type Sky struct {
	Kind     string  `yaml:"kind"`
	Light    float64 `yaml:"light"`
	Moisture float64 `yaml:"moisture"`
	Message  string  `yaml:"message"`
}

// DefaultSkies is the stock weather cycle.
var DefaultSkies = []Sky{
	{Kind: "clear", Light: 10, Moisture: 2, Message: "The sky clears."},
	{Kind: "cloudy", Light: 6, Moisture: 4, Message: "Clouds roll in."},
	{Kind: "fog", Light: 3, Moisture: 7, Message: "A thick fog settles over the land."},
	{Kind: "rain", Light: 4, Moisture: 9, Message: "Rain begins to fall."},
	{Kind: "storm", Light: 2, Moisture: 10, Message: "Thunder rolls as a storm breaks."},
}

// Weather changes the sky with a fixed chance per turn, drifting to a
// neighbouring kind in the cycle.
type Weather struct {
	mu     sync.Mutex
	src    dice.Source
	skies  []Sky
	change float64
	index  int
}

// NewWeather returns a weather simulator starting on the first sky.
func NewWeather(src dice.Source, change float64, skies []Sky) *Weather {
	if len(skies) == 0 {
		skies = DefaultSkies
	}
	return &Weather{src: src, skies: skies, change: change}
}

// Step decides the next sky.
func (w *Weather) Step(_ context.Context, state *engine.GameState) (engine.Weather, []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if state.Weather.Kind != w.skies[w.index].Kind {
		for i, s := range w.skies {
			if s.Kind == state.Weather.Kind {
				w.index = i
			}
		}
	}
	if !dice.Chance(w.src, w.change) {
		return state.Weather, nil
	}

	step := 1
	if w.src.IntN(2) == 0 {
		step = -1
	}
	next := w.index + step
	if next < 0 || next >= len(w.skies) {
		next = w.index - step
	}
	w.index = next
	s := w.skies[w.index]
	return engine.Weather{Kind: s.Kind, Light: s.Light, Moisture: s.Moisture}, []string{s.Message}
}

// Reset returns to the first sky.
func (w *Weather) Reset() {
	w.mu.Lock()
	w.index = 0
	w.mu.Unlock()
}

// Defaults returns the stock weather simulator and the creature and plant
// simulators, all drawing from src. A non-positive sight keeps the
// creature default.
func Defaults(src dice.Source, change float64, regrow, sight int) (turn.WeatherSim, []turn.Simulator) {
	creatures := NewCreatures(src)
	if sight > 0 {
		creatures.Sight = sight
	}
	return NewWeather(src, change, nil), []turn.Simulator{creatures, NewPlants(regrow)}
}
