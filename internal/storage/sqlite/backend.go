// Package sqlite provides a SQLite-backed game document backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"avgrunnen/internal/ports"
	"avgrunnen/internal/storage"
	"avgrunnen/internal/storage/sqlite/migrations"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Backend persists game documents in a single SQLite table with an integer
// version column used for compare-and-swap.
type Backend struct {
	sqlDB *sql.DB
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Backend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Backend{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (b *Backend) Close() error {
	if b == nil || b.sqlDB == nil {
		return nil
	}
	return b.sqlDB.Close()
}

// Get implements storage.Backend.
func (b *Backend) Get(ctx context.Context, key string) (storage.Record, bool, error) {
	var (
		data    []byte
		version int64
	)
	err := b.sqlDB.QueryRowContext(ctx, `SELECT data, version FROM games WHERE id = ?`, key).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Record{}, false, nil
	}
	if err != nil {
		return storage.Record{}, false, fmt.Errorf("get game: %w", err)
	}
	return storage.Record{Data: data, Version: strconv.FormatInt(version, 10)}, true, nil
}

// Put implements storage.Backend.
func (b *Backend) Put(ctx context.Context, key string, data []byte, expected string) (string, error) {
	now := time.Now().UTC().UnixMilli()
	if expected == "" {
		_, err := b.sqlDB.ExecContext(ctx,
			`INSERT INTO games (id, version, data, updated_at) VALUES (?, 1, ?, ?)`,
			key, data, now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return "", ports.ErrVersionConflict
			}
			return "", fmt.Errorf("insert game: %w", err)
		}
		return "1", nil
	}

	current, err := strconv.ParseInt(expected, 10, 64)
	if err != nil {
		return "", fmt.Errorf("parse version %q: %w", expected, err)
	}
	res, err := b.sqlDB.ExecContext(ctx,
		`UPDATE games SET data = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		data, now, key, current,
	)
	if err != nil {
		return "", fmt.Errorf("update game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("update game: %w", err)
	}
	if n == 0 {
		return "", ports.ErrVersionConflict
	}
	return strconv.FormatInt(current+1, 10), nil
}

// Overwrite implements storage.Backend.
func (b *Backend) Overwrite(ctx context.Context, key string, data []byte) (string, error) {
	var version int64
	err := b.sqlDB.QueryRowContext(ctx,
		`INSERT INTO games (id, version, data, updated_at) VALUES (?, 1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, version = games.version + 1, updated_at = excluded.updated_at
		 RETURNING version`,
		key, data, time.Now().UTC().UnixMilli(),
	).Scan(&version)
	if err != nil {
		return "", fmt.Errorf("overwrite game: %w", err)
	}
	return strconv.FormatInt(version, 10), nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Backend = (*Backend)(nil)
