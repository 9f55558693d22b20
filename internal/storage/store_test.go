package storage_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"avgrunnen/internal/domain"
	"avgrunnen/internal/ports"
	"avgrunnen/internal/storage"
	"avgrunnen/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// conflictingBackend rejects the first n conditional writes.
type conflictingBackend struct {
	*memory.Backend
	mu        sync.Mutex
	conflicts int
	puts      int
}

func (b *conflictingBackend) Put(ctx context.Context, key string, data []byte, expected string) (string, error) {
	b.mu.Lock()
	b.puts++
	if b.conflicts > 0 {
		b.conflicts--
		b.mu.Unlock()
		return "", ports.ErrVersionConflict
	}
	b.mu.Unlock()
	return b.Backend.Put(ctx, key, data, expected)
}

func TestReadMissingGame(t *testing.T) {
	s := storage.New(memory.New())
	_, err := s.Read(context.Background(), "nope")
	require.ErrorIs(t, err, ports.ErrGameNotFound)
}

func TestUpdateCreatesAndMigrates(t *testing.T) {
	s := storage.New(memory.New())
	ctx := context.Background()

	got, err := s.Update(ctx, "g1", func(g *domain.GameState) error {
		assert.Equal(t, "g1", g.GameID)
		assert.NotNil(t, g.EventCards.Hands)
		g.Players = append(g.Players, domain.Player{ID: "p1", Name: "Astrid"})
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, got.Players, 1)

	read, err := s.Read(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, domain.SchemaVersion, read.SchemaVersion)
	assert.Equal(t, "Astrid", read.Players[0].Name)
}

func TestUpdateRetriesOnConflict(t *testing.T) {
	backend := &conflictingBackend{Backend: memory.New(), conflicts: 3}
	s := storage.New(backend)

	calls := 0
	_, err := s.Update(context.Background(), "g1", func(g *domain.GameState) error {
		calls++
		g.CurrentTurn++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, calls)

	read, err := s.Read(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, read.CurrentTurn, "only the committed attempt is visible")
}

func TestUpdateGivesUpAfterMaxAttempts(t *testing.T) {
	backend := &conflictingBackend{Backend: memory.New(), conflicts: 100}
	s := storage.New(backend, storage.WithMaxAttempts(5))

	_, err := s.Update(context.Background(), "g1", func(*domain.GameState) error { return nil })
	require.ErrorIs(t, err, ports.ErrTooManyRetries)
	assert.Equal(t, 5, backend.puts)
}

func TestUpdateAbortsWithoutWriting(t *testing.T) {
	s := storage.New(memory.New())
	boom := errors.New("boom")

	_, err := s.Update(context.Background(), "g1", func(g *domain.GameState) error {
		g.GameStarted = true
		return boom
	})
	require.ErrorIs(t, err, boom)
	_, err = s.Read(context.Background(), "g1")
	require.ErrorIs(t, err, ports.ErrGameNotFound)

	_, err = s.Update(context.Background(), "g1", func(*domain.GameState) error { return ports.ErrNoChange })
	require.NoError(t, err)
	_, err = s.Read(context.Background(), "g1")
	require.ErrorIs(t, err, ports.ErrGameNotFound)
}

func TestConcurrentUpdatesAllCommit(t *testing.T) {
	s := storage.New(memory.New())
	ctx := context.Background()
	const writers = 20

	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "g1", func(g *domain.GameState) error {
				g.CurrentTurn++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	read, err := s.Read(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, writers, read.CurrentTurn)
}

func TestSubscribeReceivesCommits(t *testing.T) {
	s := storage.New(memory.New())
	ctx := context.Background()

	var seen []int
	cancel := s.Subscribe("g1", func(g *domain.GameState) { seen = append(seen, g.CurrentTurn) })
	other := s.Subscribe("g2", func(*domain.GameState) { t.Fatal("unexpected notification for g2") })
	defer other()

	_, err := s.Update(ctx, "g1", func(g *domain.GameState) error { g.CurrentTurn = 1; return nil })
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, "g1", &domain.GameState{CurrentTurn: 2}))

	cancel()
	cancel()
	_, err = s.Update(ctx, "g1", func(g *domain.GameState) error { g.CurrentTurn = 3; return nil })
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, seen)
}
