// Package memory provides an in-process storage backend for tests and
// single-node play.
package memory

import (
	"context"
	"strconv"
	"sync"

	"avgrunnen/internal/ports"
	"avgrunnen/internal/storage"
)

// Backend keeps records in a map guarded by a mutex.
type Backend struct {
	mu      sync.Mutex
	seq     int64
	records map[string]storage.Record
}

// New returns an empty backend.
func New() *Backend {
	return &Backend{records: make(map[string]storage.Record)}
}

// Get implements storage.Backend.
func (b *Backend) Get(ctx context.Context, key string) (storage.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return storage.Record{}, false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[key]
	if !ok {
		return storage.Record{}, false, nil
	}
	return storage.Record{Data: append([]byte(nil), rec.Data...), Version: rec.Version}, true, nil
}

// Put implements storage.Backend.
func (b *Backend) Put(ctx context.Context, key string, data []byte, expected string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.records[key]
	if (!ok && expected != "") || (ok && cur.Version != expected) {
		return "", ports.ErrVersionConflict
	}
	return b.store(key, data), nil
}

// Overwrite implements storage.Backend.
func (b *Backend) Overwrite(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store(key, data), nil
}

func (b *Backend) store(key string, data []byte) string {
	b.seq++
	v := strconv.FormatInt(b.seq, 10)
	b.records[key] = storage.Record{Data: append([]byte(nil), data...), Version: v}
	return v
}

var _ storage.Backend = (*Backend)(nil)
