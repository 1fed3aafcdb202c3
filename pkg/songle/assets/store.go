// Package assets loads cover images for the catalog.
package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("asset not found")

// Store fetches a cover by id. Implementations return ErrNotFound for a
// missing cover.
type Store interface {
	Get(ctx context.Context, coverID string) ([]byte, error)
}

const DefaultCoverExt = ".webp"

// LocalStore reads covers from <Root>/<id><Ext>.
type LocalStore struct {
	Root string
	Ext  string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{Root: root, Ext: DefaultCoverExt}
}

func (l *LocalStore) Get(_ context.Context, coverID string) ([]byte, error) {
	if !validID(coverID) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, coverID)
	}
	ext := l.Ext
	if ext == "" {
		ext = DefaultCoverExt
	}
	data, err := os.ReadFile(filepath.Join(l.Root, coverID+ext))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, coverID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading cover %s: %w", coverID, err)
	}
	return data, nil
}

// validID rejects ids that would escape the cover root.
func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}
