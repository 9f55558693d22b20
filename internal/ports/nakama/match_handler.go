package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"avgrunnen/internal/app"
	"avgrunnen/internal/domain"
	"avgrunnen/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	tickRate = 1 // ticks per second

	// updateBuffer holds committed documents between ticks; older ones are dropped.
	updateBuffer = 1
)

// MatchState holds the runtime state of one session match. The game document
// itself lives in storage; the match only relays it.
type MatchState struct {
	GameID      string                      `json:"game_id"`
	Tick        int64                       `json:"tick"`       // Current tick of the match
	IdleTicks   int64                       `json:"idle_ticks"` // Ticks without any connected presence
	Presences   map[string]runtime.Presence `json:"-"`          // Map UserId -> Presence for targeted messaging
	Latest      *domain.GameState           `json:"-"`          // Last committed document seen by the match
	Updates     chan *domain.GameState      `json:"-"`          // Committed documents pushed by the store
	Unsubscribe func()                      `json:"-"`
}

type matchHandler struct {
	engine      *app.Engine
	idleSeconds int
}

func newMatchHandler(engine *app.Engine, idleSeconds int) *matchHandler {
	return &matchHandler{engine: engine, idleSeconds: idleSeconds}
}

// offerLatest queues g, replacing any document the loop has not consumed yet.
func offerLatest(ch chan *domain.GameState, g *domain.GameState) {
	for {
		select {
		case ch <- g:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	gameID, _ := params[MatchLabelKeyGameID].(string)
	if !domain.ValidGameID(gameID) {
		logger.Error("MatchInit: Invalid game id %q", gameID)
		return nil, 0, ""
	}

	state := &MatchState{
		GameID:    gameID,
		Presences: make(map[string]runtime.Presence),
		Updates:   make(chan *domain.GameState, updateBuffer),
	}
	updates := state.Updates
	state.Unsubscribe = mh.engine.Subscribe(gameID, func(g *domain.GameState) {
		offerLatest(updates, g)
	})

	latest, err := mh.engine.State(ctx, gameID)
	if err != nil && !errors.Is(err, ports.ErrGameNotFound) {
		logger.Warn("MatchInit [Game:%s]: Could not read game: %v", gameID, err)
	}
	state.Latest = latest

	label, err := encodeLabel(labelFor(gameID, latest))
	if err != nil {
		logger.Error("MatchInit: %v", err)
		state.Unsubscribe()
		return nil, 0, ""
	}

	logger.Debug("MatchInit [Game:%s]: Session match initialized.", gameID)
	return state, tickRate, label
}

// MatchJoinAttempt only admits players that joined the game through RpcJoin.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	g, err := mh.engine.State(ctx, matchState.GameID)
	if err != nil {
		logger.Warn("MatchJoinAttempt [Game:%s]: Could not read game: %v", matchState.GameID, err)
		return matchState, false, app.UserMessage(err)
	}
	if _, ok := g.PlayerByID(presence.GetUserId()); !ok {
		return matchState, false, "Join the game before entering the session."
	}
	return matchState, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p
		logger.Debug("MatchJoin [Game:%s]: User %s connected.", matchState.GameID, p.GetUserId())
	}
	matchState.IdleTicks = 0

	g, err := mh.engine.State(ctx, matchState.GameID)
	if err != nil {
		logger.Warn("MatchJoin [Game:%s]: Could not read game: %v", matchState.GameID, err)
		return matchState
	}
	matchState.Latest = g
	mh.sendSnapshot(matchState, dispatcher, logger, presences)
	mh.updateLabel(matchState, dispatcher, logger)

	return matchState
}

// MatchLeave is called when one or more players disconnect. They stay in the
// game roster and may reconnect.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		logger.Debug("MatchLeave [Game:%s]: User %s disconnected.", matchState.GameID, p.GetUserId())
	}
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		mh.handleOp(ctx, matchState, dispatcher, logger, msg.GetUserId(), msg.GetOpCode(), msg.GetData())
	}

	mh.relayUpdates(matchState, dispatcher, logger)

	if len(matchState.Presences) > 0 {
		matchState.IdleTicks = 0
		return matchState
	}
	matchState.IdleTicks++
	if mh.idleSeconds > 0 && matchState.IdleTicks >= int64(mh.idleSeconds*tickRate) {
		logger.Info("MatchLoop [Game:%s]: Terminating idle session match.", matchState.GameID)
		matchState.Unsubscribe()
		return nil
	}
	return matchState
}

// relayUpdates broadcasts the newest committed document, if any.
func (mh *matchHandler) relayUpdates(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	var latest *domain.GameState
drain:
	for {
		select {
		case g := <-state.Updates:
			latest = g
		default:
			break drain
		}
	}
	if latest == nil {
		return
	}
	state.Latest = latest
	mh.sendSnapshot(state, dispatcher, logger, nil)
	mh.updateLabel(state, dispatcher, logger)
}

// handleOp runs one client message against the engine. userID is the acting player.
func (mh *matchHandler) handleOp(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, opCode int64, data []byte) {
	var (
		res app.Result
		err error
	)
	switch opCode {
	case OpStartGame:
		res, err = mh.engine.StartGame(ctx, state.GameID)
	case OpFillHand:
		var req fillHandRequest
		if err = decodeRequest(data, &req); err == nil {
			res, err = mh.engine.FillHand(ctx, state.GameID, userID, req.Pool)
		}
	case OpPlayCard:
		var req playCardRequest
		if err = decodeRequest(data, &req); err == nil {
			res, err = mh.engine.PlayCard(ctx, state.GameID, userID, req.Pool, req.CardID)
		}
	case OpDiscardCard:
		var req discardCardRequest
		if err = decodeRequest(data, &req); err == nil {
			res, err = mh.engine.DiscardCard(ctx, state.GameID, userID, domain.PoolEvent, req.CardID)
		}
	case OpAdvanceAct:
		res, err = mh.engine.AdvanceAct(ctx, state.GameID)
	default:
		logger.Warn("MatchLoop [Game:%s]: Unknown opcode received: %d", state.GameID, opCode)
		return
	}

	if err != nil {
		logger.Warn("MatchLoop [Game:%s]: User %s failed op %d: %v", state.GameID, userID, opCode, err)
		mh.sendError(state, dispatcher, logger, userID, err)
		return
	}
	for _, ev := range res.Events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

// broadcastEvent relays an app event to its recipients, or to everyone.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	bytes, err := json.Marshal(gameEventPayload{Kind: ev.Kind, Payload: ev.Payload})
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// Intended recipients that are not connected MUST NOT turn into a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(OpGameEvent, bytes, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast event %v: %v", ev.Kind, err)
	}
}

// sendSnapshot sends the latest document to presences, or to everyone when nil.
func (mh *matchHandler) sendSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, presences []runtime.Presence) {
	if state.Latest == nil {
		return
	}
	bytes, err := json.Marshal(state.Latest)
	if err != nil {
		logger.Error("Failed to marshal snapshot: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpStateSnapshot, bytes, presences, nil, true); err != nil {
		logger.Error("Failed to broadcast snapshot: %v", err)
	}
}

// sendError sends a gameErrorPayload to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	bytes, err := json.Marshal(gameErrorPayload{Code: errorCode(cause), Message: userMessage(cause)})
	if err != nil {
		logger.Error("Failed to marshal game error: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	if err := dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send game error: %v", err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := encodeLabel(labelFor(state.GameID, state.Latest))
	if err != nil {
		logger.Error("UpdateLabel: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	if matchState, ok := state.(*MatchState); ok && matchState.Unsubscribe != nil {
		matchState.Unsubscribe()
	}
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
