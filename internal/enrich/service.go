// Package enrich decorates recommended tracks with a genre from Last.fm and a
// Spotify link. Enrichment is best effort: lookups that fail leave the field
// empty and never fail the batch.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/justestif/moodmate/internal/logging"
	"github.com/justestif/moodmate/internal/metrics"
)

// Defaults for batch processing.
const (
	DefaultConcurrency = 4
	DefaultTimeout     = 3 * time.Second
)

// Provider names used in metrics and logs.
const (
	ProviderLastfm  = "lastfm"
	ProviderSpotify = "spotify"
)

// Track is the minimal track info needed for lookups.
type Track struct {
	Name   string
	Artist string
}

// Result holds what was found for one track.
type Result struct {
	Genre      string
	SpotifyURL string
	Err        error // joined lookup errors, nil if all succeeded
}

// GenreFetcher abstracts the Last.fm client for testing.
type GenreFetcher interface {
	TopTag(ctx context.Context, artist, track string) (string, error)
}

// LinkFetcher abstracts the Spotify client for testing.
type LinkFetcher interface {
	TrackURL(ctx context.Context, artist, track string) (string, error)
}

// Service runs lookups for a batch of tracks on a bounded worker pool.
type Service struct {
	genres      GenreFetcher
	links       LinkFetcher
	concurrency int
	timeout     time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithGenres enables genre lookup.
func WithGenres(f GenreFetcher) Option {
	return func(s *Service) {
		s.genres = f
	}
}

// WithLinks enables Spotify link lookup.
func WithLinks(f LinkFetcher) Option {
	return func(s *Service) {
		s.links = f
	}
}

// WithConcurrency sets the number of concurrent lookups.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithTimeout bounds the whole batch.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService creates an enrichment service. With no fetchers it is a no-op.
func NewService(opts ...Option) *Service {
	s := &Service{
		concurrency: DefaultConcurrency,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether any provider is configured.
func (s *Service) Enabled() bool {
	return s != nil && (s.genres != nil || s.links != nil)
}

// Providers lists the configured provider names.
func (s *Service) Providers() []string {
	var out []string
	if s == nil {
		return out
	}
	if s.genres != nil {
		out = append(out, ProviderLastfm)
	}
	if s.links != nil {
		out = append(out, ProviderSpotify)
	}
	return out
}

// Enrich looks up every track concurrently. Results are returned in the same
// order as tracks. Tracks not reached before the timeout carry the context
// error in Result.Err.
func (s *Service) Enrich(ctx context.Context, tracks []Track) []Result {
	results := make([]Result, len(tracks))
	if !s.Enabled() || len(tracks) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type workItem struct {
		index int
		track Track
	}
	workCh := make(chan workItem, len(tracks))
	for i, t := range tracks {
		workCh <- workItem{index: i, track: t}
	}
	close(workCh)

	var wg sync.WaitGroup
	for range min(s.concurrency, len(tracks)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				if err := ctx.Err(); err != nil {
					results[work.index] = Result{Err: err}
					continue
				}
				results[work.index] = s.lookup(ctx, work.track)
			}
		}()
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		logging.Ctx(ctx).Warn().
			Int("tracks", len(tracks)).
			Int("failed", failed).
			Msg("Enrichment incomplete")
	}

	return results
}

func (s *Service) lookup(ctx context.Context, t Track) Result {
	var r Result
	var errs []error

	if s.genres != nil {
		genre, err := s.genres.TopTag(ctx, t.Artist, t.Name)
		record(ProviderLastfm, genre, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ProviderLastfm, err))
		}
		r.Genre = genre
	}

	if s.links != nil {
		url, err := s.links.TrackURL(ctx, t.Artist, t.Name)
		record(ProviderSpotify, url, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ProviderSpotify, err))
		}
		r.SpotifyURL = url
	}

	r.Err = errors.Join(errs...)
	return r
}

func record(provider, value string, err error) {
	switch {
	case err != nil:
		metrics.RecordEnrichment(provider, "error")
	case value == "":
		metrics.RecordEnrichment(provider, "miss")
	default:
		metrics.RecordEnrichment(provider, "hit")
	}
}
