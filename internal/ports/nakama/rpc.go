package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"avgrunnen/internal/app"
	"avgrunnen/internal/domain"
	"avgrunnen/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// gRPC status codes used by runtime.NewError.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codePermissionDenied   = 7
	codeFailedPrecondition = 9
	codeAborted            = 10
	codeInternal           = 13
	codeUnavailable        = 14
	codeUnauthenticated    = 16
)

// errorCode maps an engine error to the status code reported to clients.
func errorCode(err error) int {
	switch {
	case errors.Is(err, ports.ErrGameNotFound), errors.Is(err, app.ErrUnknownPlayer):
		return codeNotFound
	case errors.Is(err, app.ErrNotDirector):
		return codePermissionDenied
	case errors.Is(err, app.ErrInvalidGameID), errors.Is(err, app.ErrInvalidName),
		errors.Is(err, app.ErrInvalidAct), errors.Is(err, app.ErrUnknownPool),
		errors.Is(err, app.ErrPoolNotDiscardable), errors.Is(err, errBadPayload):
		return codeInvalidArgument
	case errors.Is(err, app.ErrGameNotStarted), errors.Is(err, app.ErrGameStarted),
		errors.Is(err, app.ErrNoDirector), errors.Is(err, app.ErrNoPlayers),
		errors.Is(err, app.ErrNameTaken), errors.Is(err, app.ErrNoActiveCards),
		errors.Is(err, app.ErrCardNotActive):
		return codeFailedPrecondition
	case errors.Is(err, ports.ErrTooManyRetries), errors.Is(err, context.DeadlineExceeded):
		return codeAborted
	case errors.Is(err, app.ErrCatalogUnavailable), errors.Is(err, app.ErrEmptyPool):
		return codeUnavailable
	default:
		return codeInternal
	}
}

var errBadPayload = errors.New("invalid payload")

func userMessage(err error) string {
	if errors.Is(err, errBadPayload) {
		return "Invalid request."
	}
	return app.UserMessage(err)
}

func rpcError(err error) error {
	return runtime.NewError(userMessage(err), errorCode(err))
}

// matchRegistry is the part of runtime.NakamaModule used to find session matches.
type matchRegistry interface {
	MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error)
	MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error)
}

// module carries the dependencies of the RPC handlers.
type module struct {
	engine   *app.Engine
	matches  matchRegistry
	accounts ports.AccountPort
	admins   []string // user ids allowed to call RpcAdmin; server-to-server calls are always allowed
}

// JoinRequest is the RpcJoin payload.
type JoinRequest struct {
	GameID    string `json:"gameId"`
	Name      string `json:"name"`
	Character string `json:"character"`
}

// JoinResponse is returned by RpcJoin.
type JoinResponse struct {
	Player  domain.Player     `json:"player"`
	MatchID string            `json:"matchId"`
	State   *domain.GameState `json:"state"`
}

// rpcJoin registers the caller in a session and returns the session match.
// The Nakama user id is the player id; the display name is used when no name
// is given.
func (m *module) rpcJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userId, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userId == "" {
		return "", runtime.NewError("Authentication required", codeUnauthenticated)
	}

	var req JoinRequest
	if err := decodeRequest([]byte(payload), &req); err != nil {
		return "", rpcError(err)
	}

	name := req.Name
	if name == "" && m.accounts != nil {
		displayName, err := m.accounts.DisplayName(ctx, userId)
		if err != nil {
			logger.Warn("RpcJoin [User:%s]: Failed to read display name: %v", userId, err)
		}
		name = displayName
	}

	player, res, err := m.engine.Join(ctx, req.GameID, userId, name, req.Character)
	if err != nil {
		logger.Warn("RpcJoin [User:%s]: Failed to join game %s: %v", userId, req.GameID, err)
		return "", rpcError(err)
	}
	if req.Name != "" && m.accounts != nil {
		if err := m.accounts.UpdateProfile(ctx, userId, "", req.Name); err != nil {
			logger.Warn("RpcJoin [User:%s]: Failed to update display name: %v", userId, err)
		}
	}

	matchId, err := m.findOrCreateMatch(ctx, logger, userId, req.GameID)
	if err != nil {
		return "", runtime.NewError("Could not open the game session", codeInternal)
	}

	return marshalResponse(JoinResponse{Player: player, MatchID: matchId, State: res.State})
}

// findOrCreateMatch returns the match relaying gameID, creating it if needed.
func (m *module) findOrCreateMatch(ctx context.Context, logger runtime.Logger, userId, gameID string) (string, error) {
	// +label.gameId:<id> filters on the "gameId" key in the JSON label.
	limit := 1
	authoritative := true
	labelQuery := fmt.Sprintf("+label.%s:%s", MatchLabelKeyGameID, gameID)
	minSize := 0
	maxSize := 1024

	matches, err := m.matches.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, labelQuery)
	if err != nil {
		logger.Error("RpcJoin [User:%s]: Failed to list matches: %v", userId, err)
		return "", err
	}
	if len(matches) > 0 {
		matchId := matches[0].MatchId
		logger.Info("RpcJoin [User:%s]: Found existing match %s for game %s", userId, matchId, gameID)
		return matchId, nil
	}

	matchId, err := m.matches.MatchCreate(ctx, MatchNameSession, map[string]interface{}{MatchLabelKeyGameID: gameID})
	if err != nil {
		logger.Error("RpcJoin [User:%s]: Failed to create match: %v", userId, err)
		return "", err
	}
	logger.Info("RpcJoin [User:%s]: Created new match %s for game %s", userId, matchId, gameID)
	return matchId, nil
}

// StateRequest is the RpcState payload.
type StateRequest struct {
	GameID string `json:"gameId"`
}

// StateResponse is returned by RpcState.
type StateResponse struct {
	State      *domain.GameState              `json:"state"`
	Roles      []app.Role                     `json:"roles"`
	DeckStatus map[domain.Pool]app.DeckStatus `json:"deckStatus,omitempty"`
}

// rpcState returns the session document, the role overview and, for players
// in the roster, their deck counters.
func (m *module) rpcState(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userId, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	var req StateRequest
	if err := decodeRequest([]byte(payload), &req); err != nil {
		return "", rpcError(err)
	}

	g, err := m.engine.State(ctx, req.GameID)
	if err != nil {
		return "", rpcError(err)
	}
	svc := m.engine.Service()
	resp := StateResponse{State: g, Roles: svc.Roles(g)}
	if _, ok := g.PlayerByID(userId); ok {
		resp.DeckStatus = make(map[domain.Pool]app.DeckStatus, 2)
		for _, pool := range []domain.Pool{domain.PoolEvent, domain.PoolScene} {
			status, err := svc.DeckStatus(g, userId, pool)
			if err != nil {
				logger.Warn("RpcState [User:%s]: Failed deck status for %s: %v", userId, pool, err)
				continue
			}
			resp.DeckStatus[pool] = status
		}
	}
	return marshalResponse(resp)
}

// Admin actions accepted by RpcAdmin.
const (
	AdminSetAct      = "set_act"
	AdminAdvanceAct  = "advance_act"
	AdminResetScenes = "reset_scenes"
	AdminResetEvents = "reset_events"
	AdminCleanup     = "cleanup"
)

// AdminRequest is the RpcAdmin payload.
type AdminRequest struct {
	GameID string `json:"gameId"`
	Action string `json:"action"`
	Act    int    `json:"act,omitempty"`
}

// rpcAdmin runs facilitator operations. Callers are either server-to-server
// (no user in context) or listed in avgrunnen_admins.
func (m *module) rpcAdmin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userId, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userId != "" && !slices.Contains(m.admins, userId) {
		logger.Warn("RpcAdmin [User:%s]: Rejected non-admin caller.", userId)
		return "", runtime.NewError("Admin access required", codePermissionDenied)
	}

	var req AdminRequest
	if err := decodeRequest([]byte(payload), &req); err != nil {
		return "", rpcError(err)
	}

	var (
		res app.Result
		err error
	)
	switch req.Action {
	case AdminSetAct:
		res, err = m.engine.SetAct(ctx, req.GameID, req.Act)
	case AdminAdvanceAct:
		res, err = m.engine.AdvanceAct(ctx, req.GameID)
	case AdminResetScenes:
		res, err = m.engine.ResetPool(ctx, req.GameID, domain.PoolScene)
	case AdminResetEvents:
		res, err = m.engine.ResetPool(ctx, req.GameID, domain.PoolEvent)
	case AdminCleanup:
		res, err = m.engine.Cleanup(ctx, req.GameID)
	default:
		return "", runtime.NewError(fmt.Sprintf("Unknown admin action %q", req.Action), codeInvalidArgument)
	}
	if err != nil {
		logger.Warn("RpcAdmin [User:%s]: %s on game %s failed: %v", userId, req.Action, req.GameID, err)
		return "", rpcError(err)
	}
	logger.Info("RpcAdmin [User:%s]: %s on game %s committed %d events.", userId, req.Action, req.GameID, len(res.Events))
	return marshalResponse(res.State)
}

func marshalResponse(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", runtime.NewError("Internal error", codeInternal)
	}
	return string(b), nil
}
