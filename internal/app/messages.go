package app

import (
	"context"
	"errors"

	"avgrunnen/internal/ports"
)

// UserMessage turns an operation error into the text shown to players.
// Unexpected errors get a generic retry message.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ports.ErrGameNotFound):
		return "That game does not exist."
	case errors.Is(err, ErrInvalidGameID):
		return "That game id is not valid."
	case errors.Is(err, ErrInvalidToken):
		return "Your session has expired. Join again."
	case errors.Is(err, ErrGameNotStarted):
		return "The game has not started yet."
	case errors.Is(err, ErrGameStarted):
		return "The game has already started."
	case errors.Is(err, ErrNotDirector):
		return "Only the director can play scene cards."
	case errors.Is(err, ErrNoDirector):
		return "There is no director. Ask the game master to restart the game."
	case errors.Is(err, ErrNoPlayers):
		return "At least one player must join before the game can start."
	case errors.Is(err, ErrUnknownPlayer):
		return "You are not part of this game. Join again."
	case errors.Is(err, ErrInvalidName):
		return "Enter a name to join."
	case errors.Is(err, ErrNameTaken):
		return "That name is already taken."
	case errors.Is(err, ErrInvalidAct):
		return "Choose act 1, 2 or 3."
	case errors.Is(err, ErrNoActiveCards):
		return "No scene cards belong to that act."
	case errors.Is(err, ErrUnknownPool):
		return "Unknown card type."
	case errors.Is(err, ErrPoolNotDiscardable):
		return "Only event cards can be discarded."
	case errors.Is(err, ErrCardNotActive):
		return "That scene card is not part of this act."
	case errors.Is(err, ErrEmptyPool), errors.Is(err, ErrCatalogUnavailable):
		return "Could not load the cards. Try again."
	case errors.Is(err, ports.ErrTooManyRetries), errors.Is(err, context.DeadlineExceeded):
		return "The game is busy. Try again."
	default:
		return "Something went wrong. Try again."
	}
}
