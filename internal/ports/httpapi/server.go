// Package httpapi serves the transition engine as a JSON HTTP API.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"avgrunnen/internal/app"
	"avgrunnen/internal/domain"
	"avgrunnen/internal/ports"
)

// AdminKeyHeader carries the facilitator key on admin routes.
const AdminKeyHeader = "X-Admin-Key"

const maxBodyBytes = 1 << 16

// Server routes HTTP requests to the engine.
type Server struct {
	engine   *app.Engine
	tokens   *app.TokenService
	adminKey string
	ws       http.HandlerFunc
}

// Option configures a Server.
type Option func(*Server)

// WithAdminKey enables the admin routes. Without a key they answer 403.
func WithAdminKey(key string) Option {
	return func(s *Server) { s.adminKey = key }
}

// WithWebSocket mounts h on GET /games/{id}/ws.
func WithWebSocket(h http.HandlerFunc) Option {
	return func(s *Server) { s.ws = h }
}

// New creates a Server.
func New(engine *app.Engine, tokens *app.TokenService, opts ...Option) *Server {
	s := &Server{engine: engine, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /games/{id}/join", s.handleJoin)
	mux.HandleFunc("GET /games/{id}", s.handleState)
	mux.HandleFunc("GET /games/{id}/roles", s.handleRoles)
	mux.HandleFunc("GET /games/{id}/turns", s.handleTurns)
	mux.HandleFunc("GET /games/{id}/guidance", s.handleGuidance)

	mux.HandleFunc("POST /games/{id}/leave", s.player(s.handleLeave))
	mux.HandleFunc("POST /games/{id}/start", s.player(s.handleStart))
	mux.HandleFunc("POST /games/{id}/advance", s.player(s.handleAdvance))
	mux.HandleFunc("POST /games/{id}/hands/{pool}/fill", s.player(s.handleFill))
	mux.HandleFunc("POST /games/{id}/cards/{pool}/{card}/play", s.player(s.handlePlay))
	mux.HandleFunc("POST /games/{id}/cards/{pool}/{card}/discard", s.player(s.handleDiscard))
	mux.HandleFunc("GET /games/{id}/status/{pool}", s.player(s.handleStatus))

	mux.HandleFunc("POST /games/{id}/admin/act", s.admin(s.handleSetAct))
	mux.HandleFunc("POST /games/{id}/admin/reset-scenes", s.admin(s.handleReset(domain.PoolScene)))
	mux.HandleFunc("POST /games/{id}/admin/reset-events", s.admin(s.handleReset(domain.PoolEvent)))
	mux.HandleFunc("POST /games/{id}/admin/cleanup", s.admin(s.handleCleanup))

	if s.ws != nil {
		mux.HandleFunc("GET /games/{id}/ws", s.ws)
	}
	return mux
}

type playerKey struct{}

// player requires a bearer session token for the game in the path.
func (s *Server) player(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			writeError(w, app.ErrInvalidToken)
			return
		}
		claims, err := s.tokens.Verify(strings.TrimSpace(token))
		if err != nil || claims.GameID != r.PathValue("id") {
			writeError(w, app.ErrInvalidToken)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), playerKey{}, claims.PlayerID)))
	}
}

func playerID(r *http.Request) string {
	id, _ := r.Context().Value(playerKey{}).(string)
	return id
}

var errForbidden = errors.New("admin access required")

// admin requires the configured admin key.
func (s *Server) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(AdminKeyHeader)
		if s.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) != 1 {
			writeError(w, errForbidden)
			return
		}
		next(w, r)
	}
}

// JoinRequest is the body of POST /games/{id}/join.
type JoinRequest struct {
	Name      string `json:"name"`
	Character string `json:"character"`
}

// JoinResponse carries the player, its session token and the document.
type JoinResponse struct {
	Player domain.Player     `json:"player"`
	Token  string            `json:"token"`
	State  *domain.GameState `json:"state"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if !decodeBody(w, r, &req) {
		return
	}
	gameID := r.PathValue("id")
	p, res, err := s.engine.Join(r.Context(), gameID, "", req.Name, req.Character)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := s.tokens.Issue(gameID, p.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, JoinResponse{Player: p, Token: token, State: res.State})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	g, err := s.engine.State(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.engine.Roles(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (s *Server) handleTurns(w http.ResponseWriter, r *http.Request) {
	turns, err := s.engine.TurnLog(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turns)
}

// handleGuidance answers GET /games/{id}/guidance?type=goal&act=2. Without
// an act the current act of the game is used.
func (s *Server) handleGuidance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	act, err := strconv.Atoi(q.Get("act"))
	if err != nil {
		g, err := s.engine.State(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		act = g.SceneCards.CurrentAct
	}
	prompts := s.engine.Service().Prompts(q.Get("type"), act)
	if prompts == nil {
		prompts = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"type": q.Get("type"), "act": act, "prompts": prompts})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Leave(r.Context(), r.PathValue("id"), playerID(r))
	writeResult(w, r, res, err)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.StartGame(r.Context(), r.PathValue("id"))
	writeResult(w, r, res, err)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.AdvanceAct(r.Context(), r.PathValue("id"))
	writeResult(w, r, res, err)
}

func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.FillHand(r.Context(), r.PathValue("id"), playerID(r), domain.Pool(r.PathValue("pool")))
	writeResult(w, r, res, err)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.PlayCard(r.Context(), r.PathValue("id"), playerID(r), domain.Pool(r.PathValue("pool")), r.PathValue("card"))
	writeResult(w, r, res, err)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.DiscardCard(r.Context(), r.PathValue("id"), playerID(r), domain.Pool(r.PathValue("pool")), r.PathValue("card"))
	writeResult(w, r, res, err)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.DeckStatus(r.Context(), r.PathValue("id"), playerID(r), domain.Pool(r.PathValue("pool")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SetActRequest is the body of POST /games/{id}/admin/act.
type SetActRequest struct {
	Act int `json:"act"`
}

func (s *Server) handleSetAct(w http.ResponseWriter, r *http.Request) {
	var req SetActRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.engine.SetAct(r.Context(), r.PathValue("id"), req.Act)
	writeResult(w, r, res, err)
}

func (s *Server) handleReset(pool domain.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.engine.ResetPool(r.Context(), r.PathValue("id"), pool)
		writeResult(w, r, res, err)
	}
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Cleanup(r.Context(), r.PathValue("id"))
	writeResult(w, r, res, err)
}

// EventView is an event as the API shows it.
type EventView struct {
	Kind    app.EventKind `json:"kind"`
	Payload any           `json:"payload,omitempty"`
}

// ResultView is the response of every state-changing route.
type ResultView struct {
	State  *domain.GameState `json:"state"`
	Events []EventView       `json:"events"`
}

// visibleEvents drops events addressed to other players.
func visibleEvents(events []app.Event, playerID string) []EventView {
	out := make([]EventView, 0, len(events))
	for _, ev := range events {
		if len(ev.Recipients) > 0 && (playerID == "" || !slices.Contains(ev.Recipients, playerID)) {
			continue
		}
		out = append(out, EventView{Kind: ev.Kind, Payload: ev.Payload})
	}
	return out
}

func writeResult(w http.ResponseWriter, r *http.Request, res app.Result, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultView{State: res.State, Events: visibleEvents(res.Events, playerID(r))})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request body."})
		return false
	}
	return true
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, errForbidden), errors.Is(err, app.ErrNotDirector):
		return http.StatusForbidden
	case errors.Is(err, ports.ErrGameNotFound), errors.Is(err, app.ErrUnknownPlayer):
		return http.StatusNotFound
	case errors.Is(err, app.ErrInvalidGameID), errors.Is(err, app.ErrInvalidName),
		errors.Is(err, app.ErrInvalidAct), errors.Is(err, app.ErrUnknownPool),
		errors.Is(err, app.ErrPoolNotDiscardable):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrGameNotStarted), errors.Is(err, app.ErrGameStarted),
		errors.Is(err, app.ErrNoDirector), errors.Is(err, app.ErrNoPlayers),
		errors.Is(err, app.ErrNameTaken), errors.Is(err, app.ErrNoActiveCards),
		errors.Is(err, app.ErrCardNotActive), errors.Is(err, ports.ErrTooManyRetries):
		return http.StatusConflict
	case errors.Is(err, app.ErrCatalogUnavailable), errors.Is(err, app.ErrEmptyPool):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("httpapi: %v", err)
	}
	msg := app.UserMessage(err)
	if errors.Is(err, errForbidden) {
		msg = "Admin access required."
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encode response: %v", err)
	}
}
