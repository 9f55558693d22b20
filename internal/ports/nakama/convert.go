package nakama

import (
	"encoding/json"
	"fmt"

	"avgrunnen/internal/app"
	"avgrunnen/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// matchLabel is the searchable match label of a session.
type matchLabel struct {
	GameID  string
	Started bool
	Players int
}

func encodeLabel(l matchLabel) (string, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"game":              "avgrunnen",
		MatchLabelKeyGameID: l.GameID,
		"started":           l.Started,
		"players":           l.Players,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build label: %w", err)
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal label: %w", err)
	}
	return string(b), nil
}

func labelFor(gameID string, g *domain.GameState) matchLabel {
	l := matchLabel{GameID: gameID}
	if g != nil {
		l.Started = g.GameStarted
		l.Players = len(g.Players)
	}
	return l
}

// gameErrorPayload is sent to a single presence with OpGameError.
type gameErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// gameEventPayload is sent with OpGameEvent.
type gameEventPayload struct {
	Kind    app.EventKind `json:"kind"`
	Payload any           `json:"payload,omitempty"`
}

// Client request payloads.
type (
	fillHandRequest struct {
		Pool domain.Pool `json:"pool"`
	}
	playCardRequest struct {
		Pool   domain.Pool `json:"pool"`
		CardID string      `json:"cardId"`
	}
	discardCardRequest struct {
		CardID string `json:"cardId"`
	}
)

func decodeRequest(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty", errBadPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return nil
}
