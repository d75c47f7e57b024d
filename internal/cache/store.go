package cache

import (
	"context"
	"errors"
	"time"

	"github.com/anditianred/ao3-api/internal/query"
)

// TimeLayout is the on-disk format of index timestamps (MM/DD/YYYY HH:MM:SS, UTC).
const TimeLayout = "01/02/2006 15:04:05"

var (
	// ErrNotFound is returned by a ContentStore for keys it does not hold.
	ErrNotFound = errors.New("cache entry not found")

	// ErrCorrupt marks an index record whose timestamp cannot be read.
	ErrCorrupt = errors.New("corrupt index record")

	// ErrInvalidKey is returned for keys that are not fingerprints.
	ErrInvalidKey = errors.New("invalid cache key")
)

// Index maps keys to the time their content was stored.
type Index interface {
	// Get returns the stored time of key. found is false when key is absent.
	Get(ctx context.Context, key query.Key) (storedAt time.Time, found bool, err error)
	Put(ctx context.Context, key query.Key, storedAt time.Time) error
	Delete(ctx context.Context, key query.Key) error
	Keys(ctx context.Context) ([]query.Key, error)
	Close() error
}

// ContentStore holds the raw page for each key.
type ContentStore interface {
	// Read returns ErrNotFound when key has no content.
	Read(ctx context.Context, key query.Key) ([]byte, error)
	Write(ctx context.Context, key query.Key, content []byte) error
	Delete(ctx context.Context, key query.Key) error
}

func formatStoredAt(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseStoredAt(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, errors.Join(ErrCorrupt, err)
	}
	return t, nil
}
