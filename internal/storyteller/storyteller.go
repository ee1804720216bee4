// Package storyteller talks to the narrative service that turns resolved
// actions into prose, suggests quest hints and invents fused items.
package storyteller

import (
	"context"
	"log/slog"

	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/engine"
	"github.com/suderio/dreamland/internal/logging"
)

// Request describes one resolved action for the narrator.
type Request struct {
	Action          string   `json:"action"`
	Actor           string   `json:"actor"`
	Target          string   `json:"target,omitempty"`
	RecentNarrative []string `json:"recentNarrative"`
	Roll            int      `json:"roll"`
	SuccessLevel    string   `json:"successLevel"`
	Style           string   `json:"style,omitempty"`
	Length          string   `json:"length,omitempty"`
	// Summary is the plain mechanical account of what happened.
	Summary string     `json:"summary,omitempty"`
	Inputs  []string   `json:"inputs,omitempty"`
	Quest   *QuestInfo `json:"quest,omitempty"`

	ActorState  *engine.ActorState `json:"actorState,omitempty"`
	TargetState *engine.ActorState `json:"targetState,omitempty"`
}

// QuestInfo names the quest a hint is requested for.
type QuestInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Hint        string `json:"hint,omitempty"`
}

// StateDelta is an optional adjustment proposed by the narrator.
type StateDelta struct {
	HP      int            `json:"hp,omitempty" yaml:"hp"`
	Stamina int            `json:"stamina,omitempty" yaml:"stamina"`
	Mana    int            `json:"mana,omitempty" yaml:"mana"`
	Hunger  int            `json:"hunger,omitempty" yaml:"hunger"`
	Items   map[string]int `json:"items,omitempty" yaml:"items"`
}

// Empty reports whether the delta changes nothing.
func (d *StateDelta) Empty() bool {
	return d == nil || (d.HP == 0 && d.Stamina == 0 && d.Mana == 0 && d.Hunger == 0 && len(d.Items) == 0)
}

// Response is the narrator's answer.
type Response struct {
	Narrative     string      `json:"narrative" yaml:"narrative"`
	SystemMessage string      `json:"systemMessage,omitempty" yaml:"system_message"`
	StateDelta    *StateDelta `json:"stateDelta,omitempty" yaml:"state_delta"`
	NewItem       *data.Item  `json:"newItem,omitempty" yaml:"new_item"`
	// Offline is set when the answer came from the local fallback.
	Offline bool `json:"-" yaml:"-"`
}

// Service is a narrative backend.
type Service interface {
	Narrate(ctx context.Context, req Request) (Response, error)
	QuestHint(ctx context.Context, req Request) (Response, error)
	Fuse(ctx context.Context, req Request) (Response, error)
}

// UnavailableMessage is shown when the remote narrator failed and the
// offline text was used instead.
const UnavailableMessage = "The storyteller is silent for now; the dream goes on."

// Fallback answers from Primary and falls back to Secondary when it fails.
// The fallback response carries UnavailableMessage so the UI can notify the
// player.
type Fallback struct {
	Primary   Service
	Secondary Service
	Logger    *slog.Logger
}

// WithFallback wraps primary with the offline narrator.
func WithFallback(primary Service, logger *slog.Logger) *Fallback {
	return &Fallback{Primary: primary, Secondary: Offline{}, Logger: logging.OrDiscard(logger)}
}

func (f *Fallback) Narrate(ctx context.Context, req Request) (Response, error) {
	return f.do(ctx, "narrate", req, Service.Narrate)
}

func (f *Fallback) QuestHint(ctx context.Context, req Request) (Response, error) {
	return f.do(ctx, "quest-hint", req, Service.QuestHint)
}

func (f *Fallback) Fuse(ctx context.Context, req Request) (Response, error) {
	return f.do(ctx, "fuse", req, Service.Fuse)
}

func (f *Fallback) do(ctx context.Context, op string, req Request, call func(Service, context.Context, Request) (Response, error)) (Response, error) {
	resp, err := call(f.Primary, ctx, req)
	if err == nil {
		return resp, nil
	}
	f.Logger.WarnContext(ctx, "storyteller unavailable, using offline text", "op", op, "action", req.Action, "error", err)
	resp, ferr := call(f.Secondary, ctx, req)
	if ferr != nil {
		return Response{}, ferr
	}
	resp.Offline = true
	if resp.SystemMessage == "" {
		resp.SystemMessage = UnavailableMessage
	}
	return resp, nil
}
