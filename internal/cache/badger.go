package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/anditianred/ao3-api/internal/query"
)

const indexPrefix = "search:index:"

// badgerLogger adapts slog.Logger to badger.Logger.
// Badger's own info chatter is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, items ...any) {
	l.logger.Error(fmt.Sprintf(msg, items...))
}

func (l *badgerLogger) Warningf(msg string, items ...any) {
	l.logger.Warn(fmt.Sprintf(msg, items...))
}

func (l *badgerLogger) Infof(msg string, items ...any) {
	l.logger.Debug(fmt.Sprintf(msg, items...))
}

func (l *badgerLogger) Debugf(msg string, items ...any) {
	l.logger.Debug(fmt.Sprintf(msg, items...))
}

// BadgerIndex is an Index backed by a Badger database.
type BadgerIndex struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadgerIndex opens or creates a Badger index at path.
// An empty path opens an in-memory index.
func OpenBadgerIndex(path string, logger *slog.Logger) (*BadgerIndex, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger.With("component", "badger")}
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger index: %w", err)
	}

	logger.Debug("cache index opened", "backend", "badger", "path", path)
	return &BadgerIndex{db: db, logger: logger}, nil
}

func indexKey(key query.Key) []byte {
	return []byte(indexPrefix + string(key))
}

// Get implements Index.
func (b *BadgerIndex) Get(ctx context.Context, key query.Key) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}

	var raw []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get index record: %w", err)
	}

	storedAt, err := parseStoredAt(string(raw))
	if err != nil {
		return time.Time{}, true, err
	}
	return storedAt, true, nil
}

// Put implements Index.
func (b *BadgerIndex) Put(ctx context.Context, key query.Key, storedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(indexKey(key), []byte(formatStoredAt(storedAt)))
	})
}

// Delete implements Index. Deleting an absent key is not an error.
func (b *BadgerIndex) Delete(ctx context.Context, key query.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(indexKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Keys implements Index.
func (b *BadgerIndex) Keys(ctx context.Context) ([]query.Key, error) {
	var keys []query.Key
	prefix := []byte(indexPrefix)

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			k := it.Item().KeyCopy(nil)
			keys = append(keys, query.Key(k[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list index keys: %w", err)
	}
	return keys, nil
}

// Close implements Index.
func (b *BadgerIndex) Close() error {
	return b.db.Close()
}
