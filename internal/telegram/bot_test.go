package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suderio/dreamland/internal/narrative"
	"github.com/suderio/dreamland/internal/session"
)

type fakePlayer struct {
	lines []string
	log   []narrative.Entry
	err   error
}

func (p *fakePlayer) NewGame(context.Context) error {
	p.log = append(p.log, narrative.Entry{ID: "welcome", Text: "You wake."})
	return nil
}

func (p *fakePlayer) Execute(_ context.Context, line string) (session.Reply, error) {
	p.lines = append(p.lines, line)
	if p.err != nil {
		return session.Reply{}, p.err
	}
	if line == "help" {
		return session.Reply{Verb: line, Lines: []string{"usage"}}, nil
	}
	p.log = append(p.log, narrative.Entry{ID: line, Text: "did " + line})
	return session.Reply{Verb: line}, nil
}

func (p *fakePlayer) Settle(context.Context) error { return nil }
func (p *fakePlayer) Log(int) []narrative.Entry    { return p.log }

type fakeAPI struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeAPI) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			f.mu.Lock()
			f.sent = append(f.sent, body["text"].(string))
			f.mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"chat":{"id":42},"text":"/wait"}}]}`))
		default:
			_, _ = w.Write([]byte(`{"ok":false,"description":"Not Found"}`))
		}
	}))
}

func (f *fakeAPI) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func newBot(t *testing.T, p Player) (*Bot, *fakeAPI) {
	api := &fakeAPI{}
	srv := api.server()
	t.Cleanup(srv.Close)
	c := NewClient("TOKEN")
	c.APIBase = srv.URL
	return NewBot(c, 42, p, time.Second, 0, nil), api
}

func TestCommand(t *testing.T) {
	tests := map[string]string{
		"/wait":                   "wait",
		"/attack@dreambot rabbit": "attack rabbit",
		"  eat bread ":            "eat bread",
		"/":                       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, command(in), in)
	}
}

func TestHandle_PostsNewEntriesOnce(t *testing.T) {
	p := &fakePlayer{}
	b, api := newBot(t, p)
	ctx := context.Background()

	b.handle(ctx, &Message{Chat: Chat{ID: 42}, Text: "/start"})
	b.handle(ctx, &Message{Chat: Chat{ID: 42}, Text: "/wait"})
	b.handle(ctx, &Message{Chat: Chat{ID: 42}, Text: "/help"})

	assert.Equal(t, []string{"You wake.", "did wait", "usage"}, api.messages())
}

func TestHandle_IgnoresOtherChats(t *testing.T) {
	p := &fakePlayer{}
	b, api := newBot(t, p)

	b.handle(context.Background(), &Message{Chat: Chat{ID: 7}, Text: "/wait"})
	assert.Empty(t, p.lines)
	assert.Empty(t, api.messages())
}

func TestHandle_ReportsErrors(t *testing.T) {
	p := &fakePlayer{err: errors.New("Nothing called ghost is here.")}
	b, api := newBot(t, p)

	b.handle(context.Background(), &Message{Chat: Chat{ID: 42}, Text: "attack ghost"})
	assert.Equal(t, []string{"Nothing called ghost is here."}, api.messages())
}

func TestRun_AdvancesOffset(t *testing.T) {
	p := &fakePlayer{}
	b, _ := newBot(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	var seen []int
	b.OnOffset = func(id int) {
		seen = append(seen, id)
		cancel()
	}
	require.NoError(t, b.Run(ctx))
	assert.Equal(t, []int{7}, seen)
	assert.Equal(t, []string{"wait"}, p.lines)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN")
	c.APIBase = srv.URL
	err := c.SendMessage(context.Background(), 1, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
	assert.NotContains(t, err.Error(), "TOKEN")
}
