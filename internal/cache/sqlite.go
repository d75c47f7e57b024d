package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/anditianred/ao3-api/internal/query"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteIndex is an Index backed by a single SQLite table.
type SQLiteIndex struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLiteIndex opens or creates a SQLite index at path.
func OpenSQLiteIndex(path string, logger *slog.Logger) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	logger.Debug("cache index opened", "backend", "sqlite", "path", path)
	return &SQLiteIndex{db: db, logger: logger}, nil
}

// Get implements Index.
func (s *SQLiteIndex) Get(ctx context.Context, key query.Key) (time.Time, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT stored_at FROM search_index WHERE key = ?`, string(key),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get index record: %w", err)
	}

	storedAt, err := parseStoredAt(raw)
	if err != nil {
		return time.Time{}, true, err
	}
	return storedAt, true, nil
}

// Put implements Index.
func (s *SQLiteIndex) Put(ctx context.Context, key query.Key, storedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_index (key, stored_at) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET stored_at = excluded.stored_at`,
		string(key), formatStoredAt(storedAt),
	)
	if err != nil {
		return fmt.Errorf("put index record: %w", err)
	}
	return nil
}

// Delete implements Index.
func (s *SQLiteIndex) Delete(ctx context.Context, key query.Key) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM search_index WHERE key = ?`, string(key)); err != nil {
		return fmt.Errorf("delete index record: %w", err)
	}
	return nil
}

// Keys implements Index.
func (s *SQLiteIndex) Keys(ctx context.Context) ([]query.Key, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM search_index ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list index keys: %w", err)
	}
	defer rows.Close()

	var keys []query.Key
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan index key: %w", err)
		}
		keys = append(keys, query.Key(k))
	}
	return keys, rows.Err()
}

// Close implements Index.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
