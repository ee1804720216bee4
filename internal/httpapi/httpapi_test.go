package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/narrative"
	"github.com/suderio/dreamland/internal/session"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	catalog, err := data.Default()
	require.NoError(t, err)
	opts := session.DefaultOptions()
	opts.Source = dice.NewQueue()
	s, err := session.New(catalog, opts)
	require.NoError(t, err)
	srv := httptest.NewServer(New(s, nil).Router())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestActionsNeedAGame(t *testing.T) {
	srv := newServer(t)
	resp := post(t, srv.URL+"/actions/wait", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestWaitAdvancesTheTurn(t *testing.T) {
	srv := newServer(t)
	resp := post(t, srv.URL+"/game", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post(t, srv.URL+"/actions/wait", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res struct {
		Tick struct{ Turn int } `json:"tick"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, 1, res.Tick.Turn)

	state, err := http.Get(srv.URL + "/state")
	require.NoError(t, err)
	defer state.Body.Close()
	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(state.Body).Decode(&snap))
	require.NotNil(t, snap.State)
	assert.Equal(t, 1, snap.State.Clock.Turn)
}

func TestStaleTurnIsIgnored(t *testing.T) {
	srv := newServer(t)
	post(t, srv.URL+"/game", "")
	post(t, srv.URL+"/actions/wait", `{"turn": 0}`)

	resp := post(t, srv.URL+"/actions/wait", `{"turn": 0}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestErrorsMapToStatus(t *testing.T) {
	srv := newServer(t)
	post(t, srv.URL+"/game", "")

	resp := post(t, srv.URL+"/actions/attack", `{"target": "ghost"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = post(t, srv.URL+"/actions/dance", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = post(t, srv.URL+"/actions/wait", "{")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/command", `{"line": "attack"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOversizedBodyIsRefused(t *testing.T) {
	srv := newServer(t)
	post(t, srv.URL+"/game", "")

	huge := `{"line": "` + strings.Repeat("a", maxBody) + `"}`
	resp := post(t, srv.URL+"/command", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp = post(t, srv.URL+"/actions/wait", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp = post(t, srv.URL+"/actions/wait", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCommandAndNarrative(t *testing.T) {
	srv := newServer(t)
	post(t, srv.URL+"/game", "")

	resp := post(t, srv.URL+"/command", `{"line": "rest"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	log, err := http.Get(srv.URL + "/narrative?n=2")
	require.NoError(t, err)
	defer log.Body.Close()
	var entries []narrative.Entry
	require.NoError(t, json.NewDecoder(log.Body).Decode(&entries))
	assert.Len(t, entries, 2)

	bad, err := http.Get(srv.URL + "/narrative?n=x")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestReturnToMenu(t *testing.T) {
	srv := newServer(t)
	post(t, srv.URL+"/game", "")

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/game", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = post(t, srv.URL+"/actions/wait", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
