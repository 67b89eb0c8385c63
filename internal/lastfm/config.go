// Package lastfm provides Last.fm API integration for fetching track tags.
package lastfm

import (
	"errors"
	"time"
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("missing Last.fm API key")

// Config holds Last.fm API configuration.
type Config struct {
	APIKey  string
	Timeout time.Duration // per HTTP request (default: 10s)
}

// Validate reports whether the configuration can be used.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
