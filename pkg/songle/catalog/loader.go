package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/himanishpuri/Songle/pkg/logger"
	"github.com/himanishpuri/Songle/pkg/models"
	"github.com/himanishpuri/Songle/pkg/songle/assets"
	"github.com/himanishpuri/Songle/pkg/songle/audio"
	"github.com/himanishpuri/Songle/pkg/songle/metrics"
)

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Loader assembles a Catalog from metadata, cover assets and audio.
type Loader struct {
	Metadata    MetadataSource
	Covers      assets.Store
	Audio       audio.Source
	Concurrency int
	Log         Logger
}

// Load reads the metadata, loads every cover into memory and probes every
// song duration. A song whose audio cannot be probed is dropped with a
// warning. A missing cover fails the load.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	log := l.Log
	if log == nil {
		log = logger.GetLogger().With("catalog")
	}

	meta, err := l.Metadata.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading metadata: %w", err)
	}
	if len(meta) < MinSongs {
		return nil, fmt.Errorf("%w: metadata has %d entries, need %d", ErrNotEnoughSongs, len(meta), MinSongs)
	}

	ids := make([]string, 0, len(meta))
	for id := range meta {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	covers := make(map[string][]byte)
	if l.Covers != nil {
		for _, id := range ids {
			cover := meta[id].Cover
			if cover == "" {
				continue
			}
			if _, ok := covers[cover]; ok {
				continue
			}
			data, err := l.Covers.Get(ctx, cover)
			if err != nil {
				return nil, fmt.Errorf("loading cover %q for %s: %w", cover, id, err)
			}
			covers[cover] = data
		}
	}

	probe := audio.ProbeAll(ctx, l.Audio, ids, l.Concurrency)
	songs := make([]models.Song, 0, len(ids))
	for _, id := range ids {
		if err, failed := probe.Failures[id]; failed {
			log.Warnf("Skipping %s: %v", id, err)
			continue
		}
		songs = append(songs, models.Song{ID: id, Duration: probe.Durations[id], SongMetadata: meta[id]})
	}
	if len(songs) < MinSongs {
		return nil, fmt.Errorf("%w: %d of %d songs have playable audio", ErrNotEnoughSongs, len(songs), len(ids))
	}

	log.Infof("Loaded catalog: %d songs, %d covers", len(songs), len(covers))
	return New(songs, covers), nil
}

// Holder publishes the current catalog. Readers always see a complete
// snapshot.
type Holder struct {
	ptr    atomic.Pointer[Catalog]
	loader *Loader
}

func NewHolder(loader *Loader, initial *Catalog) *Holder {
	h := &Holder{loader: loader}
	if initial != nil {
		h.publish(initial)
	}
	return h
}

func (h *Holder) Current() *Catalog {
	return h.ptr.Load()
}

func (h *Holder) Swap(c *Catalog) *Catalog {
	metrics.CatalogSongs.Set(float64(c.Len()))
	return h.ptr.Swap(c)
}

func (h *Holder) publish(c *Catalog) {
	h.ptr.Store(c)
	metrics.CatalogSongs.Set(float64(c.Len()))
}

// Reload loads a fresh catalog and swaps it in. On error the current
// snapshot stays published.
func (h *Holder) Reload(ctx context.Context) (*Catalog, error) {
	if h.loader == nil {
		return nil, fmt.Errorf("catalog holder has no loader")
	}
	c, err := h.loader.Load(ctx)
	if err != nil {
		metrics.CatalogRefreshes.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}
	h.publish(c)
	metrics.CatalogRefreshes.WithLabelValues("ok").Inc()
	return c, nil
}
