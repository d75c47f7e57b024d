package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/anditianred/ao3-api/internal/query"
)

// pageExt is the suffix of stored pages.
const pageExt = ".html"

// DirStore is a ContentStore keeping one file per key in a directory.
// Writes go through a temp file and rename, so readers see either the old
// page or the new one.
type DirStore struct {
	dir string
}

// NewDirStore creates dir if needed and returns a store rooted there.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create page directory: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

func (d *DirStore) path(key query.Key) (string, error) {
	if !key.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(d.dir, string(key)+pageExt), nil
}

// Read implements ContentStore.
func (d *DirStore) Read(ctx context.Context, key query.Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := d.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return data, nil
}

// Write implements ContentStore.
func (d *DirStore) Write(ctx context.Context, key query.Key, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := d.path(key)
	if err != nil {
		return err
	}

	if err := atomic.WriteFile(p, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	return nil
}

// Delete implements ContentStore. Deleting an absent page is not an error.
func (d *DirStore) Delete(ctx context.Context, key query.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := d.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}
