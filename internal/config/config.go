// Package config loads MoodMate settings from defaults, an optional YAML file
// and MOODMATE_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/justestif/moodmate/internal/dataset"
	"github.com/justestif/moodmate/internal/emotion"
	"github.com/justestif/moodmate/internal/enrich"
	"github.com/justestif/moodmate/internal/lastfm"
	"github.com/justestif/moodmate/internal/logging"
	"github.com/justestif/moodmate/internal/mood"
	"github.com/justestif/moodmate/internal/spotify"
	"github.com/justestif/moodmate/internal/validation"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Dataset   DatasetConfig   `koanf:"dataset"`
	Recommend RecommendConfig `koanf:"recommend"`
	Detect    DetectConfig    `koanf:"detect"`
	Logging   LoggingConfig   `koanf:"logging"`
	Lastfm    LastfmConfig    `koanf:"lastfm"`
	Spotify   SpotifyConfig   `koanf:"spotify"`
	Enrich    EnrichConfig    `koanf:"enrich"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr              string        `koanf:"addr" validate:"required"`
	ReadTimeout       time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout      time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout       time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	MaxUploadBytes    int64         `koanf:"max_upload_bytes" validate:"gt=0"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gte=0"`
}

// DatasetConfig selects where tracks are read from.
type DatasetConfig struct {
	Source      string `koanf:"source" validate:"oneof=csv postgres duckdb"`
	Path        string `koanf:"path" validate:"required_unless=Source postgres"`
	PostgresURL string `koanf:"postgres_url" validate:"required_if=Source postgres"`
	Table       string `koanf:"table" validate:"required_if=Source postgres"`
}

// RecommendConfig bounds recommendation counts.
type RecommendConfig struct {
	DefaultCount int `koanf:"default_count" validate:"gt=0,ltefield=MaxCount"`
	MaxCount     int `koanf:"max_count" validate:"gt=0"`
}

// DetectConfig controls emotion detection.
type DetectConfig struct {
	ImageMode string `koanf:"image_mode" validate:"oneof=random heuristic"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// LastfmConfig enables genre enrichment.
type LastfmConfig struct {
	Enabled bool          `koanf:"enabled"`
	APIKey  string        `koanf:"api_key" validate:"required_if=Enabled true"`
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

// SpotifyConfig enables Spotify link enrichment.
type SpotifyConfig struct {
	Enabled      bool          `koanf:"enabled"`
	ClientID     string        `koanf:"client_id" validate:"required_if=Enabled true"`
	ClientSecret string        `koanf:"client_secret" validate:"required_if=Enabled true"`
	Timeout      time.Duration `koanf:"timeout" validate:"gte=0"`
}

// EnrichConfig bounds the enrichment worker pool.
type EnrichConfig struct {
	Concurrency int           `koanf:"concurrency" validate:"gt=0"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              "127.0.0.1:5000",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			MaxUploadBytes:    10 << 20,
			CORSOrigins:       []string{},
			RateLimitRequests: 60,
			RateLimitWindow:   time.Minute,
		},
		Dataset: DatasetConfig{
			Source: dataset.KindCSV,
			Path:   "data/muse_v3.csv",
			Table:  "muse_tracks",
		},
		Recommend: RecommendConfig{
			DefaultCount: mood.DefaultCount,
			MaxCount:     mood.DefaultMaxCount,
		},
		Detect: DetectConfig{
			ImageMode: string(emotion.ImageRandom),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Lastfm: LastfmConfig{
			Timeout: 10 * time.Second,
		},
		Spotify: SpotifyConfig{
			Timeout: 10 * time.Second,
		},
		Enrich: EnrichConfig{
			Concurrency: enrich.DefaultConcurrency,
			Timeout:     enrich.DefaultTimeout,
		},
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// LoggingOptions returns the settings for logging.Init.
func (c *Config) LoggingOptions() logging.Config {
	return logging.Config{Level: c.Logging.Level, Format: c.Logging.Format}
}

// DatasetSource returns the settings for dataset.NewSource.
func (c *Config) DatasetSource() dataset.SourceConfig {
	return dataset.SourceConfig{
		Kind:        c.Dataset.Source,
		Path:        c.Dataset.Path,
		PostgresURL: c.Dataset.PostgresURL,
		Table:       c.Dataset.Table,
	}
}

// LastfmClient returns the settings for lastfm.NewClient.
func (c *Config) LastfmClient() lastfm.Config {
	return lastfm.Config{APIKey: c.Lastfm.APIKey, Timeout: c.Lastfm.Timeout}
}

// SpotifyClient returns the settings for spotify.NewWithCredentials.
func (c *Config) SpotifyClient() spotify.Config {
	return spotify.Config{
		ClientID:     c.Spotify.ClientID,
		ClientSecret: c.Spotify.ClientSecret,
		Timeout:      c.Spotify.Timeout,
	}
}
