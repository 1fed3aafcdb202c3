package songle

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/himanishpuri/Songle/pkg/logger"
	"github.com/himanishpuri/Songle/pkg/models"
	"github.com/himanishpuri/Songle/pkg/songle/assets"
	"github.com/himanishpuri/Songle/pkg/songle/audio"
	"github.com/himanishpuri/Songle/pkg/songle/catalog"
	"github.com/himanishpuri/Songle/pkg/songle/clips"
	"github.com/himanishpuri/Songle/pkg/songle/daily"
	"github.com/himanishpuri/Songle/pkg/songle/rollover"
	"github.com/himanishpuri/Songle/pkg/songle/stats"
	"github.com/himanishpuri/Songle/pkg/utils"
)

// songleService is the default implementation of the Service interface.
type songleService struct {
	storage  Storage
	log      Logger
	config   *Config
	clock    utils.Clock
	loc      *time.Location
	startKey int64

	catalogs *catalog.Holder
	engine   *daily.Engine
	clipper  *clips.Clipper
	rollover *rollover.Controller
	stats    *stats.Recorder
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	// Set default logger if none provided
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Clock == nil {
		cfg.Clock = utils.RealClock{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	startKey := utils.MidnightKey(cfg.Clock.Now().In(cfg.Location))
	if cfg.StartingDate != "" {
		key, err := utils.ParseDay(cfg.StartingDate, cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("invalid starting date %q: %w", cfg.StartingDate, err)
		}
		startKey = key
	}

	src := cfg.AudioSource
	if src == nil {
		src = newAudioSource(cfg)
	}
	covers := cfg.CoverStore
	if covers == nil {
		covers = assets.NewLocalStore(cfg.CoversDir)
	}

	loader := &catalog.Loader{
		Metadata:    catalog.NewFileMetadataSource(cfg.MetadataPath),
		Covers:      covers,
		Audio:       src,
		Concurrency: cfg.ProbeConcurrency,
		Log:         cfg.Logger,
	}
	cat, err := loader.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	// Create or use provided storage
	stor := cfg.Storage
	if stor == nil {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	holder := catalog.NewHolder(loader, cat)
	cache := clips.NewCache(cfg.CacheTTL)
	ctrl := rollover.New(rollover.Config{
		Clock:    cfg.Clock,
		Location: cfg.Location,
		Interval: cfg.TickInterval,
		Catalog:  holder,
		Cache:    cache,
		Log:      cfg.Logger,
	})
	engine := daily.NewEngine(daily.Config{
		Store:   stor,
		Catalog: holder,
		Gate:    ctrl,
		Log:     cfg.Logger,
	})
	clipper := clips.NewClipper(clips.Config{
		Cache:    cache,
		Resolver: engine,
		Source:   src,
		Clock:    cfg.Clock,
		Log:      cfg.Logger,
	})

	return &songleService{
		storage:  stor,
		log:      cfg.Logger,
		config:   cfg,
		clock:    cfg.Clock,
		loc:      cfg.Location,
		startKey: startKey,
		catalogs: holder,
		engine:   engine,
		clipper:  clipper,
		rollover: ctrl,
		stats:    stats.NewRecorder(stor, cfg.Clock),
	}, nil
}

func newAudioSource(cfg *Config) audio.Source {
	if cfg.AudioFormat == "wav" {
		return audio.NewWavSource(cfg.SongsDir, cfg.TempDir)
	}
	src := audio.NewFFmpegSource(cfg.SongsDir, "."+cfg.AudioFormat, audio.ClipConfig{
		FFmpegPath: cfg.FFmpegPath,
		Format:     cfg.AudioFormat,
	})
	src.FFprobePath = cfg.FFprobePath
	return src
}

// ResolveDaily returns the stored assignment for dateKey, creating it on first access.
func (s *songleService) ResolveDaily(ctx context.Context, dateKey int64) (*models.DailyAssignment, error) {
	return s.engine.Resolve(ctx, dateKey)
}

// GetClip returns one clue of a song on a given day.
func (s *songleService) GetClip(ctx context.Context, songID string, clue models.ClueIndex, dateKey int64) ([]byte, error) {
	return s.clipper.GetClip(ctx, songID, clue, dateKey)
}

func (s *songleService) ClipContentType() string {
	return s.clipper.ContentType()
}

// Catalog returns the currently published snapshot.
func (s *songleService) Catalog() *catalog.Catalog {
	return s.catalogs.Current()
}

func (s *songleService) CurrentDate() int64 {
	return s.rollover.CurrentDate()
}

// NormalizeDate accepts days from the day before the start up to today.
func (s *songleService) NormalizeDate(unixMs int64) (int64, error) {
	key := utils.NormalizeKey(unixMs, s.loc)
	if today := s.CurrentDate(); key > today {
		return 0, fmt.Errorf("%w: %s is in the future", ErrInvalidDate, utils.FormatDay(key, s.loc))
	}
	earliest := utils.MidnightKey(utils.KeyToTime(s.startKey, s.loc).AddDate(0, 0, -1))
	if key < earliest {
		return 0, fmt.Errorf("%w: %s is before the first day", ErrInvalidDate, utils.FormatDay(key, s.loc))
	}
	return key, nil
}

func (s *songleService) StartInfo() StartInfo {
	today := s.CurrentDate()
	// Rounding keeps the count right across DST changes.
	days := int(math.Round(float64(today-s.startKey)/float64(utils.DayMillis))) + 1
	_, offset := s.clock.Now().In(s.loc).Zone()
	return StartInfo{
		Start:           s.startKey,
		Today:           today,
		Days:            days,
		TZOffsetMinutes: offset / 60,
	}
}

func (s *songleService) Stats() *stats.Recorder {
	return s.stats
}

// Reload re-reads metadata, covers and durations now instead of at the next rollover.
func (s *songleService) Reload(ctx context.Context) error {
	return s.rollover.Refresh(ctx)
}

func (s *songleService) Run(ctx context.Context) error {
	s.log.Infof("Watching for day rollover every %s", s.config.TickInterval)
	s.rollover.Start(ctx)
	<-ctx.Done()
	s.rollover.Stop()
	return nil
}

// Close releases all resources held by the service.
func (s *songleService) Close() error {
	s.rollover.Stop()
	return s.storage.Close()
}
