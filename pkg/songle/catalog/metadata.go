package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/himanishpuri/Songle/pkg/models"
	"github.com/himanishpuri/Songle/pkg/utils"
)

// MetadataSource provides display metadata keyed by song id.
type MetadataSource interface {
	Load(ctx context.Context) (map[string]models.SongMetadata, error)
}

// FileMetadataSource reads a JSON object mapping song id to metadata.
// The file is re-read on every Load.
type FileMetadataSource struct {
	Path string

	mu sync.Mutex
}

func NewFileMetadataSource(path string) *FileMetadataSource {
	return &FileMetadataSource{Path: path}
}

func (f *FileMetadataSource) Load(_ context.Context) (map[string]models.SongMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileMetadataSource) read() (map[string]models.SongMetadata, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata %s: %w", f.Path, err)
	}
	meta := make(map[string]models.SongMetadata)
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing metadata %s: %w", f.Path, err)
	}
	return meta, nil
}

// Put adds or replaces one entry and rewrites the file atomically. A missing
// file is created.
func (f *FileMetadataSource) Put(id string, m models.SongMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	meta, err := f.read()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		meta = make(map[string]models.SongMetadata)
	}
	meta[id] = m

	data, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	return utils.WriteFileAtomic(f.Path, data)
}

// StaticMetadata is an in-memory MetadataSource.
type StaticMetadata map[string]models.SongMetadata

func (s StaticMetadata) Load(context.Context) (map[string]models.SongMetadata, error) {
	out := make(map[string]models.SongMetadata, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}
