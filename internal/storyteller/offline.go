package storyteller

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/suderio/dreamland/internal/data"
)

var flourish = map[string]string{
	"critical_failure": "The dream twists against you.",
	"failure":          "It does not go your way.",
	"success":          "",
	"great_success":    "It goes better than you hoped.",
	"critical_success": "For a moment the dream bends to your will.",
}

// Offline is the deterministic local narrator. It never fails and never
// proposes state changes.
type Offline struct{}

func (Offline) Narrate(_ context.Context, req Request) (Response, error) {
	text := req.Summary
	if text == "" {
		text = fmt.Sprintf("You %s.", strings.ReplaceAll(req.Action, "_", " "))
	}
	if f := flourish[req.SuccessLevel]; f != "" {
		text += " " + f
	}
	return Response{Narrative: text, Offline: true}, nil
}

func (Offline) QuestHint(_ context.Context, req Request) (Response, error) {
	if req.Quest == nil {
		return Response{Narrative: "There is nothing left to chase. Rest a while.", Offline: true}, nil
	}
	hint := req.Quest.Hint
	if hint == "" {
		hint = req.Quest.Description
	}
	if hint == "" {
		hint = "Keep exploring."
	}
	return Response{Narrative: fmt.Sprintf("%s: %s", req.Quest.Name, hint), Offline: true}, nil
}

// Fuse melds the inputs into a modest restorative item whose id is derived
// from the sorted inputs, so the same inputs always fuse the same way.
func (Offline) Fuse(_ context.Context, req Request) (Response, error) {
	inputs := slices.Clone(req.Inputs)
	slices.Sort(inputs)
	item := data.Item{
		ID:         "fused_" + strings.Join(inputs, "_"),
		Name:       "Fused " + strings.Join(titles(inputs), "-"),
		Consumable: true,
		Effects: []data.EffectDef{
			{Type: data.EffectHeal, Amount: 2 * len(inputs)},
		},
	}
	return Response{
		Narrative: fmt.Sprintf("The %s melt together into a %s.", strings.Join(req.Inputs, " and "), item.Name),
		NewItem:   &item,
		Offline:   true,
	}, nil
}

func titles(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		words := strings.Split(id, "_")
		for j, w := range words {
			if w != "" {
				words[j] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
		out[i] = strings.Join(words, " ")
	}
	return out
}
