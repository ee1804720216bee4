// Package httpapi exposes a session over HTTP so other front ends can drive
// the same turn core.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/suderio/dreamland/internal/logging"
	"github.com/suderio/dreamland/internal/outcome"
	"github.com/suderio/dreamland/internal/session"
)

// maxBody caps request bodies.
const maxBody = 64 << 10

type action func(context.Context, session.Request) (*session.Result, error)

// Server routes requests to one session.
type Server struct {
	session *session.Session
	logger  *slog.Logger
	actions map[string]action
}

// New wraps s.
func New(s *session.Session, logger *slog.Logger) *Server {
	srv := &Server{session: s, logger: logging.OrDiscard(logger)}
	srv.actions = map[string]action{
		string(outcome.ActionMove):    s.Move,
		string(outcome.ActionAttack):  s.Attack,
		string(outcome.ActionUseItem): s.UseItem,
		string(outcome.ActionSkill):   s.UseSkill,
		string(outcome.ActionHarvest): s.Harvest,
		string(outcome.ActionCraft):   s.Craft,
		string(outcome.ActionBuild):   s.Build,
		string(outcome.ActionRest):    s.Rest,
		string(outcome.ActionWait):    s.Wait,
		string(outcome.ActionEquip):   s.Equip,
		string(outcome.ActionUnequip): s.Unequip,
		string(outcome.ActionDrop):    s.Drop,
		string(outcome.ActionFuse):    s.Fuse,
		"hint": func(ctx context.Context, _ session.Request) (*session.Result, error) {
			return s.QuestHint(ctx)
		},
	}
	return srv
}

// Router returns the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/game", s.HandleNewGame).Methods("POST")
	r.HandleFunc("/game", s.HandleMenu).Methods("DELETE")
	r.HandleFunc("/actions/{kind}", s.HandleAction).Methods("POST")
	r.HandleFunc("/command", s.HandleCommand).Methods("POST")
	r.HandleFunc("/state", s.HandleState).Methods("GET")
	r.HandleFunc("/narrative", s.HandleNarrative).Methods("GET")
	return r
}

// HandleNewGame starts a new game.
func (s *Server) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	if err := s.session.NewGame(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.session.Snapshot())
}

// HandleMenu abandons the running game.
func (s *Server) HandleMenu(w http.ResponseWriter, r *http.Request) {
	if err := s.session.ReturnToMenu(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAction runs one action. An empty body is an empty request.
func (s *Server) HandleAction(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	run, ok := s.actions[kind]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown action "+kind)
		return
	}
	var req session.Request
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	res, err := run(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res == nil {
		// a repeated action; nothing was applied
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type commandBody struct {
	Line string `json:"line"`
}

type commandReply struct {
	Verb   string          `json:"verb"`
	Result *session.Result `json:"result,omitempty"`
	Lines  []string        `json:"lines,omitempty"`
}

// HandleCommand parses and runs a typed command line.
func (s *Server) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var body commandBody
	if !decode(w, r, &body) {
		return
	}
	reply, err := s.session.Execute(r.Context(), body.Line)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commandReply{Verb: reply.Verb, Result: reply.Result, Lines: reply.Lines})
}

// HandleState returns a snapshot of the game.
func (s *Server) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// HandleNarrative returns the tail of the story log; ?n limits it.
func (s *Server) HandleNarrative(w http.ResponseWriter, r *http.Request) {
	n := 0
	if v := r.URL.Query().Get("n"); v != "" {
		var err error
		if n, err = strconv.Atoi(v); err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "n must be a non-negative integer")
			return
		}
	}
	writeJSON(w, http.StatusOK, s.session.Log(n))
}

// fail maps session errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if rej, ok := outcome.IsRejection(err); ok {
		writeError(w, http.StatusUnprocessableEntity, rej.Reason)
		return
	}
	var syn *session.SyntaxError
	if errors.As(err, &syn) {
		writeError(w, http.StatusBadRequest, syn.Error())
		return
	}
	switch {
	case errors.Is(err, session.ErrThrottled):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, session.ErrNotReady),
		errors.Is(err, session.ErrGameOver),
		errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decode reads a JSON body of at most maxBody bytes into v, writing the
// error response itself when it cannot.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v)
	if err == nil {
		return true
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid JSON")
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
