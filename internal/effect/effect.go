// Package effect converts outcomes into plain-data effects and executes them
// with per-effect failure isolation.
package effect

import (
	"github.com/suderio/dreamland/internal/engine"
	"github.com/suderio/dreamland/internal/narrative"
)

// Kind tags an effect variant.
type Kind string

const (
	KindStatDelta    Kind = "stat_delta"
	KindNarrative    Kind = "narrative"
	KindAudio        Kind = "audio"
	KindTelemetry    Kind = "telemetry"
	KindQuestTrigger Kind = "quest_trigger"
)

// Effect is data that carries everything needed to apply itself.
type Effect interface {
	Kind() Kind
}

// StatDelta commits a change to the game state.
type StatDelta struct {
	Delta engine.Delta `json:"delta"`
}

// NarrativeLine queues story text. An empty ID gets a fresh one on execute.
type NarrativeLine struct {
	ID    string         `json:"id,omitempty"`
	Text  string         `json:"text"`
	Style narrative.Kind `json:"kind"`
}

// AudioCue names a sound to play. Only the decision is recorded here.
type AudioCue struct {
	Name string `json:"name"`
}

// TelemetryEvent is a statistics record.
type TelemetryEvent struct {
	Name   string         `json:"name"`
	Fields map[string]any `json:"fields,omitempty"`
}

// QuestTrigger asks the executor to run the quest pass after the batch.
type QuestTrigger struct {
	Reason string `json:"reason"`
}

func (StatDelta) Kind() Kind      { return KindStatDelta }
func (NarrativeLine) Kind() Kind  { return KindNarrative }
func (AudioCue) Kind() Kind       { return KindAudio }
func (TelemetryEvent) Kind() Kind { return KindTelemetry }
func (QuestTrigger) Kind() Kind   { return KindQuestTrigger }
