// Package cache stores fetched search pages keyed by query fingerprint.
//
// A cache is two stores kept side by side: an index recording when each key
// was stored, and a content store holding the page itself. Content is always
// written before its index record and removed after it, so an index record
// never points at a page that was not fully written. Any disagreement between
// the two (a record without a page, a page without a record, an unreadable
// timestamp) reads as a miss.
package cache

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/anditianred/ao3-api/internal/query"
)

// Backend selects the index implementation.
type Backend string

// Index backends. SQLite is the default: several processes can share one
// cache directory. Badger locks its directory to a single process.
const (
	BackendBadger Backend = "badger"
	BackendSQLite Backend = "sqlite"
)

// Options configures Open.
type Options struct {
	// Dir is the cache root. Pages live in Dir/pages, the index in
	// Dir/index (badger) or Dir/index.db (sqlite).
	Dir     string
	Backend Backend
	// MaxAge expires pages older than it; zero keeps pages forever.
	MaxAge time.Duration
	Logger *slog.Logger
}

// Entry describes one indexed key.
type Entry struct {
	Key      query.Key `json:"key"`
	StoredAt time.Time `json:"stored_at"`
	Stale    bool      `json:"stale"`
	Corrupt  bool      `json:"corrupt"`
}

// Cache is a persistent page cache.
type Cache struct {
	index   Index
	content ContentStore
	policy  Policy
	locks   *keyLock[query.Key]
	logger  *slog.Logger
	now     func() time.Time
}

// Open creates the cache directory layout if needed and opens both stores.
// Opening an existing cache is a no-op for its contents.
func Open(opts Options) (*Cache, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	content, err := NewDirStore(filepath.Join(opts.Dir, "pages"))
	if err != nil {
		return nil, err
	}

	var index Index
	switch opts.Backend {
	case BackendSQLite, "":
		index, err = OpenSQLiteIndex(filepath.Join(opts.Dir, "index.db"), logger)
	case BackendBadger:
		index, err = OpenBadgerIndex(filepath.Join(opts.Dir, "index"), logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("cache opened",
		"dir", opts.Dir,
		"backend", opts.Backend,
		"max_age", opts.MaxAge,
	)

	return New(index, content, PolicyFor(opts.MaxAge), logger), nil
}

// New assembles a cache from its parts.
func New(index Index, content ContentStore, policy Policy, logger *slog.Logger) *Cache {
	if policy == nil {
		policy = NeverStale{}
	}
	return &Cache{
		index:   index,
		content: content,
		policy:  policy,
		locks:   newKeyLock[query.Key](),
		logger:  logger,
		now:     time.Now,
	}
}

// Lookup returns the stored page for key.
// Failures of either store are logged and reported as a miss.
func (c *Cache) Lookup(ctx context.Context, key query.Key) ([]byte, bool) {
	storedAt, found, err := c.index.Get(ctx, key)
	switch {
	case errors.Is(err, ErrCorrupt):
		c.logger.Debug("cache index record unreadable", "key", key, "error", err)
		return nil, false
	case err != nil:
		c.logger.Warn("cache index lookup failed", "key", key, "error", err)
		return nil, false
	case !found:
		return nil, false
	}

	if c.policy.IsStale(storedAt, c.now()) {
		c.logger.Debug("cache entry stale", "key", key, "stored_at", storedAt)
		return nil, false
	}

	content, err := c.content.Read(ctx, key)
	if errors.Is(err, ErrNotFound) {
		c.logger.Debug("cache index record without content", "key", key)
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache content read failed", "key", key, "error", err)
		return nil, false
	}

	return content, true
}

// Store saves content for key, stamped with now.
func (c *Cache) Store(ctx context.Context, key query.Key, content []byte, now time.Time) error {
	unlock := c.locks.Lock(key)
	defer unlock()

	if err := c.content.Write(ctx, key, content); err != nil {
		return fmt.Errorf("store content: %w", err)
	}
	if err := c.index.Put(ctx, key, now); err != nil {
		return fmt.Errorf("store index record: %w", err)
	}

	c.logger.Debug("cache entry stored", "key", key, "bytes", len(content))
	return nil
}

// Remove deletes key from the cache. Removing an absent key is not an error.
func (c *Cache) Remove(ctx context.Context, key query.Key) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	unlock := c.locks.Lock(key)
	defer unlock()

	if err := c.index.Delete(ctx, key); err != nil {
		return fmt.Errorf("remove index record: %w", err)
	}
	if err := c.content.Delete(ctx, key); err != nil {
		return fmt.Errorf("remove content: %w", err)
	}
	return nil
}

// Entries lists every indexed key, oldest first.
func (c *Cache) Entries(ctx context.Context) ([]Entry, error) {
	keys, err := c.index.Keys(ctx)
	if err != nil {
		return nil, err
	}

	now := c.now()
	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		storedAt, found, err := c.index.Get(ctx, key)
		switch {
		case errors.Is(err, ErrCorrupt):
			entries = append(entries, Entry{Key: key, Corrupt: true})
			continue
		case err != nil:
			return nil, err
		case !found:
			continue
		}
		entries = append(entries, Entry{
			Key:      key,
			StoredAt: storedAt,
			Stale:    c.policy.IsStale(storedAt, now),
		})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		if n := a.StoredAt.Compare(b.StoredAt); n != 0 {
			return n
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return entries, nil
}

// Ping reports whether the index is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	_, _, err := c.index.Get(ctx, query.Key(""))
	if errors.Is(err, ErrCorrupt) {
		return nil
	}
	return err
}

// Close closes the index.
func (c *Cache) Close() error {
	return c.index.Close()
}
