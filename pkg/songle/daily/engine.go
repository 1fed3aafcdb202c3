// Package daily decides which songs and clip offsets make up a day.
//
// Selection is a pure function of the date key and the catalog, and the
// first result for a date is persisted and served forever after, so a
// catalog change never rewrites a day that was already played.
package daily

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/himanishpuri/Songle/pkg/logger"
	"github.com/himanishpuri/Songle/pkg/models"
	"github.com/himanishpuri/Songle/pkg/songle/catalog"
	"github.com/himanishpuri/Songle/pkg/songle/metrics"
	"github.com/himanishpuri/Songle/pkg/songle/random"
	"github.com/himanishpuri/Songle/pkg/utils"
	"golang.org/x/sync/singleflight"
)

// PicksPerDay is the number of songs in every assignment.
const PicksPerDay = 5

// ErrNoCatalog is returned when a day must be generated before any catalog is published.
var ErrNoCatalog = errors.New("no catalog loaded")

// Store persists assignment blobs keyed by date.
type Store interface {
	InsertHistory(dateKey int64, data []byte) (inserted bool, err error)
	GetHistory(dateKey int64) (data []byte, found bool, err error)
}

// CatalogSource returns the catalog new assignments are drawn from.
type CatalogSource interface {
	Current() *catalog.Catalog
}

// Gate blocks until pending catalog work is finished.
type Gate interface {
	Await(ctx context.Context) error
}

// Logger is the subset of pkg/logger the engine uses.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Config wires an Engine.
type Config struct {
	Store   Store
	Catalog CatalogSource
	// Gate is optional. It is awaited before generating, never before reading.
	Gate Gate
	Log  Logger
}

// Engine resolves and persists daily assignments.
type Engine struct {
	store    Store
	catalogs CatalogSource
	gate     Gate
	log      Logger
	group    singleflight.Group
}

// NewEngine creates an Engine. A nil Log falls back to the process logger.
func NewEngine(cfg Config) *Engine {
	if cfg.Log == nil {
		cfg.Log = logger.GetLogger().With("daily")
	}
	return &Engine{store: cfg.Store, catalogs: cfg.Catalog, gate: cfg.Gate, log: cfg.Log}
}

// Resolve returns the assignment for dateKey, generating and persisting it
// on first access. Every caller, in this process or another one sharing
// the store, observes the same stored assignment.
func (e *Engine) Resolve(ctx context.Context, dateKey int64) (*models.DailyAssignment, error) {
	if a, ok, err := e.lookup(dateKey); err != nil || ok {
		return a, err
	}

	// The shared generation outlives any single caller; each caller only
	// stops waiting when its own ctx ends.
	shared := context.WithoutCancel(ctx)
	ch := e.group.DoChan(utils.KeyString(dateKey), func() (any, error) {
		if a, ok, err := e.lookup(dateKey); err != nil || ok {
			return a, err
		}
		return e.create(shared, dateKey)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return clone(res.Val.(*models.DailyAssignment)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Engine) create(ctx context.Context, dateKey int64) (*models.DailyAssignment, error) {
	if e.gate != nil {
		if err := e.gate.Await(ctx); err != nil {
			return nil, err
		}
	}

	cat := e.catalogs.Current()
	if cat == nil {
		return nil, ErrNoCatalog
	}

	a, err := Generate(dateKey, cat.Songs(), PicksPerDay)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encoding assignment: %w", err)
	}

	inserted, err := e.store.InsertHistory(dateKey, data)
	if err != nil {
		return nil, fmt.Errorf("persisting assignment %d: %w", dateKey, err)
	}
	if inserted {
		metrics.AssignmentsGenerated.Inc()
		e.log.Infof("Generated assignment for %d: %v", dateKey, a.SongIDs())
	} else {
		e.log.Debugf("Assignment for %d already persisted by another writer", dateKey)
	}

	stored, ok, err := e.lookup(dateKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("assignment %d missing after insert", dateKey)
	}
	return stored, nil
}

func (e *Engine) lookup(dateKey int64) (*models.DailyAssignment, bool, error) {
	data, found, err := e.store.GetHistory(dateKey)
	if err != nil {
		return nil, false, fmt.Errorf("reading assignment %d: %w", dateKey, err)
	}
	if !found {
		return nil, false, nil
	}
	var a models.DailyAssignment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, false, fmt.Errorf("decoding assignment %d: %w", dateKey, err)
	}
	a.DateKey = dateKey
	return &a, true, nil
}

// Generate draws count songs without replacement from songs and derives
// their clip offsets. songs may be in any order; the draw always indexes
// the canonical duration-ascending order.
func Generate(dateKey int64, songs []models.Song, count int) (*models.DailyAssignment, error) {
	pool := catalog.New(songs, nil).Songs()
	if len(pool) < count {
		return nil, fmt.Errorf("%w: have %d, need %d", catalog.ErrNotEnoughSongs, len(pool), count)
	}

	key := utils.KeyString(dateKey)
	rng := random.Seed(key)
	picks := make([]models.SongPick, 0, count)
	for i := 0; i < count; i++ {
		idx := int(math.Floor(rng.Float64() * float64(len(pool))))
		song := pool[idx]
		pool = append(pool[:idx], pool[idx+1:]...)

		picks = append(picks, models.SongPick{
			SongID:     song.ID,
			Clue1Start: offset(key, song.ID, "1", song.Duration-models.Clue1Length),
			Clue2Start: offset(key, song.ID, "2", song.Duration-models.Clue2Length),
		})
	}
	return &models.DailyAssignment{DateKey: dateKey, Songs: picks}, nil
}

// offset picks a whole-second start in [0, span]. Songs shorter than the
// clip get 0.
func offset(key, songID, clue string, span float64) float64 {
	s := random.Seed(key + songID + clue)
	return math.Max(0, math.Floor(s.Float64()*span))
}

func clone(a *models.DailyAssignment) *models.DailyAssignment {
	out := &models.DailyAssignment{DateKey: a.DateKey, Songs: make([]models.SongPick, len(a.Songs))}
	copy(out.Songs, a.Songs)
	return out
}
