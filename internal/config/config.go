// Package config loads the settings of the songle binaries from config.yaml,
// a .env file and SONGLE_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/himanishpuri/Songle/pkg/songle"
	"github.com/himanishpuri/Songle/pkg/songle/assets"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port       int    `mapstructure:"port"`
		PrivateKey string `mapstructure:"private_key"`
		Metrics    bool   `mapstructure:"metrics"`
	} `mapstructure:"server"`
	Game struct {
		StartingDate     string        `mapstructure:"starting_date"`
		Timezone         string        `mapstructure:"timezone"`
		TickInterval     time.Duration `mapstructure:"tick_interval"`
		CacheTTL         time.Duration `mapstructure:"cache_ttl"`
		ProbeConcurrency int           `mapstructure:"probe_concurrency"`
	} `mapstructure:"game"`
	Paths struct {
		DB       string `mapstructure:"db"`
		Songs    string `mapstructure:"songs"`
		Metadata string `mapstructure:"metadata"`
		Covers   string `mapstructure:"covers"`
		Temp     string `mapstructure:"temp"`
	} `mapstructure:"paths"`
	Audio struct {
		Format  string `mapstructure:"format"`
		FFmpeg  string `mapstructure:"ffmpeg"`
		FFprobe string `mapstructure:"ffprobe"`
	} `mapstructure:"audio"`
	Assets struct {
		Provider string `mapstructure:"provider"`
		S3       struct {
			Bucket   string `mapstructure:"bucket"`
			Prefix   string `mapstructure:"prefix"`
			Region   string `mapstructure:"region"`
			Endpoint string `mapstructure:"endpoint"`
			KeyID    string `mapstructure:"key_id"`
			Secret   string `mapstructure:"secret"`
		} `mapstructure:"s3"`
	} `mapstructure:"assets"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

var keys = []string{
	"server.port", "server.private_key", "server.metrics",
	"game.starting_date", "game.timezone", "game.tick_interval", "game.cache_ttl", "game.probe_concurrency",
	"paths.db", "paths.songs", "paths.metadata", "paths.covers", "paths.temp",
	"audio.format", "audio.ffmpeg", "audio.ffprobe",
	"assets.provider", "assets.s3.bucket", "assets.s3.prefix", "assets.s3.region",
	"assets.s3.endpoint", "assets.s3.key_id", "assets.s3.secret",
	"log.level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 7713)
	v.SetDefault("server.metrics", true)
	v.SetDefault("game.timezone", "Local")
	v.SetDefault("game.tick_interval", time.Minute)
	v.SetDefault("game.cache_ttl", 24*time.Hour)
	v.SetDefault("game.probe_concurrency", 8)
	v.SetDefault("paths.db", "config/history.sqlite3")
	v.SetDefault("paths.songs", "songs")
	v.SetDefault("paths.metadata", "config/song_metadata.json")
	v.SetDefault("paths.covers", "covers")
	v.SetDefault("paths.temp", "/tmp")
	v.SetDefault("audio.format", "mp3")
	v.SetDefault("assets.provider", "local")
	v.SetDefault("log.level", "info")
}

// Load reads the configuration. file may name a config file explicitly;
// otherwise config.yaml is looked up in . and ./config and may be absent.
func Load(file string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SONGLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("binding %s: %w", k, err)
		}
	}
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Assets.Provider {
	case "local":
	case "s3":
		if c.Assets.S3.Bucket == "" {
			return errors.New("assets.s3.bucket is required when assets.provider is s3 (SONGLE_ASSETS_S3_BUCKET)")
		}
	default:
		return fmt.Errorf("unknown assets.provider %q", c.Assets.Provider)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Game.StartingDate != "" {
		if _, err := time.Parse("2006-01-02", c.Game.StartingDate); err != nil {
			return fmt.Errorf("game.starting_date must be YYYY-MM-DD: %w", err)
		}
	}
	return nil
}

// Location resolves game.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Game.Timezone == "" || c.Game.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Game.Timezone)
}

// CoverStore builds the configured cover backend.
func (c *Config) CoverStore() (assets.Store, error) {
	if c.Assets.Provider == "s3" {
		s3 := c.Assets.S3
		return assets.NewS3Store(assets.S3Config{
			Bucket:   s3.Bucket,
			Prefix:   s3.Prefix,
			Region:   s3.Region,
			Endpoint: s3.Endpoint,
			KeyID:    s3.KeyID,
			Secret:   s3.Secret,
		})
	}
	return assets.NewLocalStore(c.Paths.Covers), nil
}

// ServiceOptions translates the configuration into service options.
func (c *Config) ServiceOptions() ([]songle.Option, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, fmt.Errorf("loading timezone: %w", err)
	}
	covers, err := c.CoverStore()
	if err != nil {
		return nil, err
	}
	return []songle.Option{
		songle.WithDBPath(c.Paths.DB),
		songle.WithSongsDir(c.Paths.Songs),
		songle.WithMetadataPath(c.Paths.Metadata),
		songle.WithCoverStore(covers),
		songle.WithTempDir(c.Paths.Temp),
		songle.WithAudioFormat(c.Audio.Format),
		songle.WithFFmpeg(c.Audio.FFmpeg, c.Audio.FFprobe),
		songle.WithStartingDate(c.Game.StartingDate),
		songle.WithLocation(loc),
		songle.WithTickInterval(c.Game.TickInterval),
		songle.WithCacheTTL(c.Game.CacheTTL),
		songle.WithProbeConcurrency(c.Game.ProbeConcurrency),
	}, nil
}
