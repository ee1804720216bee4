package storyteller

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"github.com/samber/oops"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/narrate.txt
var narratePrompt string

//go:embed prompts/quest_hint.txt
var questHintPrompt string

//go:embed prompts/fuse.txt
var fusePrompt string

var (
	narrateTmpl   = template.Must(template.New("narrate").Parse(narratePrompt))
	questHintTmpl = template.Must(template.New("quest_hint").Parse(questHintPrompt))
	fuseTmpl      = template.Must(template.New("fuse").Parse(fusePrompt))
)

// Gemini narrates with a Google Gemini model.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini opens a Gemini client for the named model.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, oops.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, oops.Wrapf(err, "create gemini client")
	}
	return &Gemini{client: client, model: client.GenerativeModel(model)}, nil
}

// Close releases the client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) Narrate(ctx context.Context, req Request) (Response, error) {
	return g.generate(ctx, narrateTmpl, req)
}

func (g *Gemini) QuestHint(ctx context.Context, req Request) (Response, error) {
	return g.generate(ctx, questHintTmpl, req)
}

func (g *Gemini) Fuse(ctx context.Context, req Request) (Response, error) {
	resp, err := g.generate(ctx, fuseTmpl, req)
	if err != nil {
		return Response{}, err
	}
	if resp.NewItem == nil || resp.NewItem.ID == "" {
		return Response{}, oops.Errorf("gemini fusion returned no item")
	}
	return resp, nil
}

func (g *Gemini) generate(ctx context.Context, tmpl *template.Template, req Request) (Response, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, req); err != nil {
		return Response{}, oops.Wrapf(err, "render %s prompt", tmpl.Name())
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(buf.String()))
	if err != nil {
		return Response{}, oops.Wrapf(err, "gemini %s", tmpl.Name())
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Response{}, oops.Errorf("no content returned from gemini")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return Response{}, oops.Errorf("unexpected response type from gemini")
	}
	return parseReply(string(text))
}

// parseReply decodes a YAML reply, tolerating a fenced code block.
func parseReply(text string) (Response, error) {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```yaml")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")

	var out Response
	if err := yaml.Unmarshal([]byte(clean), &out); err != nil {
		return Response{}, oops.With("output", clean).Wrapf(err, "parse gemini reply")
	}
	if out.Narrative == "" {
		return Response{}, oops.Errorf("gemini reply has no narrative")
	}
	return out, nil
}
