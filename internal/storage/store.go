// Package storage implements ports.DocumentStore over any versioned
// key-value backend.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"avgrunnen/internal/domain"
	"avgrunnen/internal/ports"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxAttempts bounds the optimistic retry loop of Update.
const DefaultMaxAttempts = 25

// Record is a stored document and its opaque version.
type Record struct {
	Data    []byte
	Version string
}

// Backend is a versioned key-value store.
type Backend interface {
	// Get returns the record under key; found is false when it does not exist.
	Get(ctx context.Context, key string) (rec Record, found bool, err error)
	// Put stores data if the current version equals expected. An empty
	// expected version means the key must not exist yet. It returns the new
	// version, or ports.ErrVersionConflict.
	Put(ctx context.Context, key string, data []byte, expected string) (string, error)
	// Overwrite stores data regardless of the current version.
	Overwrite(ctx context.Context, key string, data []byte) (string, error)
}

// Store is a ports.DocumentStore. Subscribers only see writes made through
// the same Store.
type Store struct {
	backend     Backend
	maxAttempts int
	tracer      trace.Tracer

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func(*domain.GameState)
}

// Option configures a Store.
type Option func(*Store)

// WithMaxAttempts sets the transaction attempt budget. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// New wraps backend in a Store.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:     backend,
		maxAttempts: DefaultMaxAttempts,
		tracer:      otel.Tracer("avgrunnen/internal/storage"),
		subs:        make(map[string]map[int]func(*domain.GameState)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns the current document of gameID.
func (s *Store) Read(ctx context.Context, gameID string) (*domain.GameState, error) {
	rec, found, err := s.backend.Get(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("read game %s: %w", gameID, err)
	}
	if !found {
		return nil, ports.ErrGameNotFound
	}
	return decode(gameID, rec.Data)
}

// Update runs fn in an optimistic read-modify-write loop.
func (s *Store) Update(ctx context.Context, gameID string, fn ports.UpdateFunc) (*domain.GameState, error) {
	ctx, span := s.tracer.Start(ctx, "store.Update", trace.WithAttributes(attribute.String("game.id", gameID)))
	defer span.End()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, found, err := s.backend.Get(ctx, gameID)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("read game %s: %w", gameID, err)
		}
		state := domain.NewGameState(gameID)
		expected := ""
		if found {
			if state, err = decode(gameID, rec.Data); err != nil {
				span.RecordError(err)
				return nil, err
			}
			expected = rec.Version
		}

		if err := fn(state); err != nil {
			if errors.Is(err, ports.ErrNoChange) {
				span.SetAttributes(attribute.Int("store.attempts", attempt))
				return state, nil
			}
			return nil, err
		}

		data, err := encode(gameID, state)
		if err != nil {
			return nil, err
		}
		if _, err := s.backend.Put(ctx, gameID, data, expected); err != nil {
			if errors.Is(err, ports.ErrVersionConflict) {
				span.AddEvent("version conflict", trace.WithAttributes(attribute.Int("store.attempt", attempt)))
				continue
			}
			span.RecordError(err)
			return nil, fmt.Errorf("write game %s: %w", gameID, err)
		}
		span.SetAttributes(attribute.Int("store.attempts", attempt))
		s.publish(gameID, state)
		return state, nil
	}

	span.SetStatus(codes.Error, ports.ErrTooManyRetries.Error())
	return nil, ports.ErrTooManyRetries
}

// Write replaces the document of gameID.
func (s *Store) Write(ctx context.Context, gameID string, state *domain.GameState) error {
	data, err := encode(gameID, state)
	if err != nil {
		return err
	}
	if _, err := s.backend.Overwrite(ctx, gameID, data); err != nil {
		return fmt.Errorf("write game %s: %w", gameID, err)
	}
	s.publish(gameID, state)
	return nil
}

// Subscribe registers fn for committed documents of gameID. fn runs on the
// committing goroutine and receives its own copy; it must not block.
func (s *Store) Subscribe(gameID string, fn func(*domain.GameState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	if s.subs[gameID] == nil {
		s.subs[gameID] = make(map[int]func(*domain.GameState))
	}
	s.subs[gameID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[gameID], id)
			if len(s.subs[gameID]) == 0 {
				delete(s.subs, gameID)
			}
		})
	}
}

func (s *Store) publish(gameID string, state *domain.GameState) {
	s.mu.Lock()
	fns := make([]func(*domain.GameState), 0, len(s.subs[gameID]))
	for _, fn := range s.subs[gameID] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(state.Clone())
	}
}

func encode(gameID string, state *domain.GameState) ([]byte, error) {
	state.GameID = gameID
	state.SchemaVersion = domain.SchemaVersion
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode game %s: %w", gameID, err)
	}
	return data, nil
}

func decode(gameID string, data []byte) (*domain.GameState, error) {
	var state domain.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", gameID, err)
	}
	domain.Migrate(&state)
	if state.GameID == "" {
		state.GameID = gameID
	}
	return &state, nil
}

var _ ports.DocumentStore = (*Store)(nil)
