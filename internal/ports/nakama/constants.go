package nakama

const (
	// RpcJoin registers the caller in a game session and returns its match id.
	RpcJoin = "avgrunnen_join"
	// RpcState returns the current session document.
	RpcState = "avgrunnen_state"
	// RpcAdmin runs facilitator operations (set act, reset pools, cleanup).
	RpcAdmin = "avgrunnen_admin"

	// MatchNameSession is the authoritative match handler name registered with Nakama.
	MatchNameSession = "avgrunnen_session"

	// GameCollection is the storage collection holding session documents.
	GameCollection = "avgrunnen_games"

	// MatchLabelKeyGameID is the label field used to find a session's match.
	MatchLabelKeyGameID = "gameId"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame   int64 = 1
	OpFillHand    int64 = 2
	OpPlayCard    int64 = 3
	OpDiscardCard int64 = 4
	OpAdvanceAct  int64 = 5

	// Server -> Client events
	OpStateSnapshot int64 = 100
	OpGameError     int64 = 101
	OpGameEvent     int64 = 102 // may be sent privately
)
