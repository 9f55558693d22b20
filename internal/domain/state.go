package domain

import "time"

// Card is an event or scene card. Cards never change after they are loaded;
// only their location (pool, hand, played, discarded) does.
type Card struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Type  string `json:"type,omitempty"`
	Image string `json:"image,omitempty"`
	// PlayerID is the owner tag from the catalog. Empty means unowned.
	PlayerID string `json:"playerId,omitempty"`
	// Acts lists the acts a scene card is eligible in.
	Acts []int `json:"acts,omitempty"`
}

// CardRecord is an append-only played or discarded entry.
type CardRecord struct {
	Card      Card      `json:"card"`
	PlayerID  string    `json:"playerId"`
	Timestamp time.Time `json:"timestamp"`
	Turn      int       `json:"turn,omitempty"`
}

// Player is a roster entry. ID is stable for the session; Name is the
// display name and the token owner tags are compared against.
type Player struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Character   string    `json:"character,omitempty"`
	JoinedAt    time.Time `json:"joinedAt"`
	Initialized bool      `json:"initialized"`
}

// EventDeck holds the dramatic event card subsystem.
type EventDeck struct {
	Cards     []Card            `json:"cards"`
	Hands     map[string][]Card `json:"hands"` // player id -> hand
	Played    []CardRecord      `json:"played"`
	Discarded []CardRecord      `json:"discarded"`
}

// SceneDeck holds the scene card subsystem and the act it is currently in.
type SceneDeck struct {
	Cards       []Card            `json:"cards"`
	ActiveCards []string          `json:"activeCards"`
	Hands       map[string][]Card `json:"hands"` // player id -> hand
	Played      []CardRecord      `json:"played"`
	CurrentAct  int               `json:"currentAct"`
}

// TurnKind distinguishes entries in the turn log.
type TurnKind string

const (
	TurnKindTurn           TurnKind = "turn"
	TurnKindActProgression TurnKind = "act_progression"
)

// SceneCardSummary is the scene card reference stored in a turn entry.
type SceneCardSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type,omitempty"`
	PlayedBy string `json:"playedBy"`
}

// TurnEventCards collects event cards played or discarded during a turn.
type TurnEventCards struct {
	Played    []CardRecord `json:"played"`
	Discarded []CardRecord `json:"discarded"`
}

// TurnEntry is one line of the turn log. Turn entries carry the scene card
// and the new director; act progression entries carry the act change.
type TurnEntry struct {
	Kind      TurnKind  `json:"type"`
	Turn      int       `json:"turn"`
	Timestamp time.Time `json:"timestamp"`

	Act        int               `json:"act,omitempty"`
	SceneCard  *SceneCardSummary `json:"sceneCard,omitempty"`
	Director   string            `json:"director,omitempty"`
	EventCards *TurnEventCards   `json:"eventCards,omitempty"`

	PreviousAct int `json:"previousAct,omitempty"`
	NewAct      int `json:"newAct,omitempty"`
	ActiveCards int `json:"activeCards,omitempty"`
}

// GameState is the shared document for one session.
type GameState struct {
	SchemaVersion int    `json:"schemaVersion"`
	GameID        string `json:"gameId"`

	EventCards EventDeck `json:"eventCards"`
	SceneCards SceneDeck `json:"sceneCards"`

	// Players is kept in join order.
	Players []Player `json:"players"`

	DirectorOrder   []string    `json:"directorOrder"`
	CurrentDirector string      `json:"currentDirector,omitempty"`
	CurrentTurn     int         `json:"currentTurn"`
	TurnHistory     []TurnEntry `json:"turnHistory"`
	GameStarted     bool        `json:"gameStarted"`
}
