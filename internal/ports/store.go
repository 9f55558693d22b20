package ports

import (
	"context"
	"errors"

	"avgrunnen/internal/domain"
)

var (
	// ErrGameNotFound is returned by Read for a session that was never written.
	ErrGameNotFound = errors.New("game not found")
	// ErrVersionConflict reports a lost compare-and-swap against a concurrent writer.
	ErrVersionConflict = errors.New("document version conflict")
	// ErrTooManyRetries is returned when Update could not commit within its attempt budget.
	ErrTooManyRetries = errors.New("transaction retries exhausted")
	// ErrNoChange may be returned by an UpdateFunc to finish without writing.
	ErrNoChange = errors.New("no change")
)

// UpdateFunc is a transaction body. It receives a private copy of the latest
// document, may be called several times, and must not have side effects
// outside the state it is given.
type UpdateFunc func(state *domain.GameState) error

// DocumentStore is the shared game document store.
type DocumentStore interface {
	// Read returns the current document or ErrGameNotFound.
	Read(ctx context.Context, gameID string) (*domain.GameState, error)
	// Update runs fn against the latest document, creating an empty one if
	// needed, and commits atomically, re-running fn on version conflicts.
	// It returns the committed document.
	Update(ctx context.Context, gameID string, fn UpdateFunc) (*domain.GameState, error)
	// Write replaces the document unconditionally.
	Write(ctx context.Context, gameID string, state *domain.GameState) error
	// Subscribe calls fn with every committed document of gameID until the
	// returned cancel func is called.
	Subscribe(gameID string, fn func(*domain.GameState)) (cancel func())
}
