package app

import "avgrunnen/internal/domain"

// EventKind identifies emitted domain events for surface dispatch.
type EventKind string

const (
	EventPlayerJoined    EventKind = "player_joined"
	EventPlayerLeft      EventKind = "player_left"
	EventGameStarted     EventKind = "game_started"
	EventHandFilled      EventKind = "hand_filled"
	EventCardPlayed      EventKind = "card_played"
	EventCardDiscarded   EventKind = "card_discarded"
	EventDirectorChanged EventKind = "director_changed"
	EventActAdvanced     EventKind = "act_advanced"
	EventActSet          EventKind = "act_set"
	EventPoolLoaded      EventKind = "pool_loaded"
	EventGameCleaned     EventKind = "game_cleaned"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // player IDs; empty means broadcast
}

type PlayerJoinedPayload struct {
	Player domain.Player `json:"player"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
}

type GameStartedPayload struct {
	DirectorOrder []string `json:"directorOrder"`
	Director      string   `json:"director"`
}

type HandFilledPayload struct {
	PlayerID string        `json:"playerId"`
	Pool     domain.Pool   `json:"pool"`
	Drawn    []domain.Card `json:"drawn"`
}

type CardPlayedPayload struct {
	PlayerID string      `json:"playerId"`
	Pool     domain.Pool `json:"pool"`
	Card     domain.Card `json:"card"`
	Turn     int         `json:"turn"`
	// Prompts are guidance lines offered to the director for scene cards.
	Prompts []string `json:"prompts"`
}

type CardDiscardedPayload struct {
	PlayerID string      `json:"playerId"`
	Card     domain.Card `json:"card"`
}

type DirectorChangedPayload struct {
	Previous string `json:"previous"`
	Director string `json:"director"`
	Turn     int    `json:"turn"`
}

type ActAdvancedPayload struct {
	PreviousAct int `json:"previousAct"`
	NewAct      int `json:"newAct"`
	ActiveCards int `json:"activeCards"`
}

type ActSetPayload struct {
	Act         int `json:"act"`
	ActiveCards int `json:"activeCards"`
}

type PoolLoadedPayload struct {
	Pool  domain.Pool `json:"pool"`
	Count int         `json:"count"`
}
