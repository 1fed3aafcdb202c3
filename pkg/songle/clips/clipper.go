// Package clips extracts the audio clues of a day and caches them.
package clips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/himanishpuri/Songle/pkg/logger"
	"github.com/himanishpuri/Songle/pkg/models"
	"github.com/himanishpuri/Songle/pkg/songle/audio"
	"github.com/himanishpuri/Songle/pkg/songle/metrics"
	"github.com/himanishpuri/Songle/pkg/utils"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotFound covers unknown clues and songs outside the day's assignment.
	ErrNotFound         = errors.New("clip not found")
	ErrExtractionFailed = errors.New("clip extraction failed")
)

// Resolver returns the assignment of a date.
type Resolver interface {
	Resolve(ctx context.Context, dateKey int64) (*models.DailyAssignment, error)
}

// Logger is the subset of pkg/logger the clipper uses.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Config wires a Clipper. Cache, Clock and Log have defaults.
type Config struct {
	Cache    *Cache
	Resolver Resolver
	Source   audio.Source
	Clock    utils.Clock
	Log      Logger
}

// Clipper serves the clue clips of a day through the cache.
type Clipper struct {
	cache    *Cache
	resolver Resolver
	source   audio.Source
	clock    utils.Clock
	log      Logger
	group    singleflight.Group
}

// NewClipper creates a Clipper, filling in a 24h cache and the real clock when unset.
func NewClipper(cfg Config) *Clipper {
	if cfg.Cache == nil {
		cfg.Cache = NewCache(DefaultTTL)
	}
	if cfg.Clock == nil {
		cfg.Clock = utils.RealClock{}
	}
	if cfg.Log == nil {
		cfg.Log = logger.GetLogger().With("clips")
	}
	return &Clipper{
		cache:    cfg.Cache,
		resolver: cfg.Resolver,
		source:   cfg.Source,
		clock:    cfg.Clock,
		log:      cfg.Log,
	}
}

// Cache exposes the clip cache for sweeping.
func (c *Clipper) Cache() *Cache { return c.cache }

// ContentType is the MIME type of the clips returned by GetClip.
func (c *Clipper) ContentType() string { return c.source.ContentType() }

// GetClip returns the audio for one clue of a song on dateKey. Only songs of
// that day's assignment can be clipped.
func (c *Clipper) GetClip(ctx context.Context, songID string, clue models.ClueIndex, dateKey int64) ([]byte, error) {
	if !clue.Valid() {
		return nil, fmt.Errorf("%w: clue %d", ErrNotFound, clue)
	}
	key := Key{SongID: songID, Clue: clue, DateKey: dateKey}
	if data, ok := c.cache.Get(key); ok {
		metrics.ClipRequests.WithLabelValues(metrics.ResultHit).Inc()
		return data, nil
	}

	a, err := c.resolver.Resolve(ctx, dateKey)
	if err != nil {
		return nil, err
	}
	pick, ok := a.Pick(songID)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a song of %d", ErrNotFound, songID, dateKey)
	}
	start, end, _ := pick.Window(clue)

	// Extraction runs detached from the caller that started it; waiters give
	// up on their own ctx only.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fmt.Sprintf("%d/%s/%d", dateKey, songID, clue), func() (any, error) {
		if data, ok := c.cache.Get(key); ok {
			return data, nil
		}
		return c.extract(shared, key, start, end)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Clipper) extract(ctx context.Context, key Key, start, end float64) ([]byte, error) {
	metrics.ClipRequests.WithLabelValues(metrics.ResultMiss).Inc()

	began := time.Now()
	data, err := c.source.Extract(ctx, key.SongID, start, end)
	metrics.ExtractionDuration.Observe(time.Since(began).Seconds())
	if err != nil {
		metrics.ClipRequests.WithLabelValues(metrics.ResultError).Inc()
		c.log.Errorf("Extracting %s clue %d [%.1f, %.1f): %v", key.SongID, key.Clue, start, end, err)
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	c.cache.Put(key, data, c.clock.Now())
	c.log.Debugf("Cached %s clue %d for %d (%d bytes)", key.SongID, key.Clue, key.DateKey, len(data))
	return data, nil
}
