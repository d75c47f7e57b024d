package tagindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/anditianred/ao3-api/internal/extract"
)

// ErrUnavailable is returned after a failed Rebuild left no usable index.
// A later successful Rebuild recovers.
var ErrUnavailable = errors.New("tag index unavailable")

// Index wraps a Bleve index of work documents.
// All methods are safe for concurrent use; Rebuild excludes everything else.
type Index struct {
	index  bleve.Index // nil after a failed Rebuild
	path   string
	logger *slog.Logger
	mu     sync.RWMutex

	create func(path string) (bleve.Index, error)
}

func createIndex(path string) (bleve.Index, error) {
	return bleve.New(path, buildIndexMapping())
}

// Options configures the index.
type Options struct {
	DataPath string // Directory holding tags.bleve
	Logger   *slog.Logger
}

// mappingVersion changes whenever buildIndexMapping does; a mismatch on open
// drops and recreates the index.
const mappingVersion = "1"

const batchSize = 500

// Open opens the index under opts.DataPath, creating it when absent and
// recreating it when it is unreadable or was built with another mapping.
func Open(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	indexPath := filepath.Join(opts.DataPath, "tags.bleve")
	versionPath := filepath.Join(opts.DataPath, "tags.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	_, statErr := os.Stat(indexPath)
	indexExists := statErr == nil

	if indexExists {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("tag index has no version file, rebuilding", "version", mappingVersion)
			needsRebuild = true
		case string(existing) != mappingVersion:
			logger.Info("tag index mapping changed, rebuilding",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if indexExists && !needsRebuild {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("tag index unreadable, recreating", "path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write tag index version file", "error", err)
		}
		logger.Info("created tag index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened tag index", "path", indexPath)
	}

	return &Index{
		index:  index,
		path:   indexPath,
		logger: logger,
		create: createIndex,
	}, nil
}

// Close closes the index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.index == nil {
		return nil
	}
	return x.index.Close()
}

// IndexWorks adds or replaces the documents of works. Works without an id
// are skipped.
func (x *Index) IndexWorks(ctx context.Context, works []extract.Work) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.index == nil {
		return ErrUnavailable
	}

	docs := make([]*WorkDocument, 0, len(works))
	for _, w := range works {
		if doc := NewWorkDocument(w); doc != nil {
			docs = append(docs, doc)
		}
	}

	for i := 0; i < len(docs); i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(i+batchSize, len(docs))
		batch := x.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := x.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	x.logger.Debug("indexed works", "count", len(docs), "skipped", len(works)-len(docs))
	return nil
}

// DeleteWork removes one work from the index.
func (x *Index) DeleteWork(workID int) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.index == nil {
		return ErrUnavailable
	}
	return x.index.Delete(DocID(workID))
}

// DocumentCount returns the number of indexed works.
func (x *Index) DocumentCount() (uint64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.index == nil {
		return 0, ErrUnavailable
	}
	return x.index.DocCount()
}

// Rebuild drops every document by recreating the index in place. When
// recreation fails the index stays unavailable until a Rebuild succeeds.
func (x *Index) Rebuild() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.index != nil {
		old := x.index
		x.index = nil
		if err := old.Close(); err != nil {
			return fmt.Errorf("close index: %w", err)
		}
	}
	if err := os.RemoveAll(x.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := x.create(x.path)
	if err != nil {
		x.logger.Error("tag index rebuild failed", "path", x.path, "error", err)
		return fmt.Errorf("create index: %w", err)
	}

	x.index = index
	x.logger.Info("rebuilt tag index", "path", x.path)
	return nil
}
