package songle

import (
	"time"

	"github.com/himanishpuri/Songle/pkg/songle/assets"
	"github.com/himanishpuri/Songle/pkg/songle/audio"
	"github.com/himanishpuri/Songle/pkg/utils"
)

type Config struct {
	DBPath       string
	SongsDir     string
	AudioFormat  string // file extension of the songs without the dot: "mp3", "wav", ...
	MetadataPath string
	CoversDir    string
	TempDir      string
	FFmpegPath   string
	FFprobePath  string

	// StartingDate is the first day of the game, YYYY-MM-DD in Location.
	StartingDate string
	Location     *time.Location

	TickInterval     time.Duration
	CacheTTL         time.Duration
	ProbeConcurrency int

	CoverStore  assets.Store
	AudioSource audio.Source
	Storage     Storage
	Logger      Logger
	Clock       utils.Clock
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithSongsDir(dir string) Option {
	return func(c *Config) {
		c.SongsDir = dir
	}
}

func WithAudioFormat(format string) Option {
	return func(c *Config) {
		c.AudioFormat = format
	}
}

func WithMetadataPath(path string) Option {
	return func(c *Config) {
		c.MetadataPath = path
	}
}

func WithCoversDir(dir string) Option {
	return func(c *Config) {
		c.CoversDir = dir
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

// WithFFmpeg overrides the ffmpeg and ffprobe binaries. Empty values keep the
// ones found on PATH.
func WithFFmpeg(ffmpegPath, ffprobePath string) Option {
	return func(c *Config) {
		c.FFmpegPath = ffmpegPath
		c.FFprobePath = ffprobePath
	}
}

func WithStartingDate(day string) Option {
	return func(c *Config) {
		c.StartingDate = day
	}
}

func WithLocation(loc *time.Location) Option {
	return func(c *Config) {
		c.Location = loc
	}
}

func WithTickInterval(d time.Duration) Option {
	return func(c *Config) {
		c.TickInterval = d
	}
}

func WithCacheTTL(d time.Duration) Option {
	return func(c *Config) {
		c.CacheTTL = d
	}
}

func WithProbeConcurrency(n int) Option {
	return func(c *Config) {
		c.ProbeConcurrency = n
	}
}

// WithCoverStore replaces the local covers directory, e.g. with an S3 bucket.
func WithCoverStore(store assets.Store) Option {
	return func(c *Config) {
		c.CoverStore = store
	}
}

// WithAudioSource replaces the songs directory source.
func WithAudioSource(src audio.Source) Option {
	return func(c *Config) {
		c.AudioSource = src
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithClock(clock utils.Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:           "config/history.sqlite3",
		SongsDir:         "songs",
		AudioFormat:      "mp3",
		MetadataPath:     "config/song_metadata.json",
		CoversDir:        "covers",
		TempDir:          "/tmp",
		TickInterval:     time.Minute,
		CacheTTL:         24 * time.Hour,
		ProbeConcurrency: 8,
	}
}
