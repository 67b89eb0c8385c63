// Command moodmate runs the MoodMate web application.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/justestif/moodmate/internal/config"
	"github.com/justestif/moodmate/internal/dataset"
	"github.com/justestif/moodmate/internal/emotion"
	"github.com/justestif/moodmate/internal/enrich"
	"github.com/justestif/moodmate/internal/lastfm"
	"github.com/justestif/moodmate/internal/logging"
	"github.com/justestif/moodmate/internal/metrics"
	"github.com/justestif/moodmate/internal/mood"
	"github.com/justestif/moodmate/internal/recommend"
	"github.com/justestif/moodmate/internal/spotify"
	"github.com/justestif/moodmate/internal/web"
	webfs "github.com/justestif/moodmate/web"
)

// datasetLoadTimeout bounds reading the dataset at startup.
const datasetLoadTimeout = 2 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(cfg.LoggingOptions())

	ds, err := loadDataset(cfg)
	if err != nil {
		return err
	}

	table := recommend.NewTable(ds.Len())
	for _, e := range table.Entries() {
		ev := logging.Debug().
			Str("emotion", e.Label.String()).
			Int("start", e.Band.Start).
			Int("end", e.Band.End)
		if e.AliasOf != "" {
			ev = ev.Str("alias_of", e.AliasOf.String())
		}
		ev.Msg("Partition band")
	}

	enricher, err := newEnricher(cfg)
	if err != nil {
		return err
	}

	opts := []mood.Option{
		mood.WithImageMode(emotion.ImageMode(cfg.Detect.ImageMode)),
		mood.WithCounts(cfg.Recommend.DefaultCount, cfg.Recommend.MaxCount),
	}
	if enricher.Enabled() {
		opts = append(opts, mood.WithEnricher(enricher))
	}
	svc := mood.NewService(recommend.NewSelector(ds, table), opts...)

	// Create sub-filesystems for templates and static files
	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:              cfg.Server.Addr,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		MaxUploadBytes:    cfg.Server.MaxUploadBytes,
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
		TemplatesFS:       templates,
		StaticFS:          static,
		Mood:              svc,
		Dataset:           ds,
		Table:             table,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logging.Info().
		Str("image_mode", cfg.Detect.ImageMode).
		Int("default_count", cfg.Recommend.DefaultCount).
		Strs("enrichers", enricher.Providers()).
		Msg("MoodMate ready")

	return server.Run()
}

func loadDataset(cfg *config.Config) (*dataset.Dataset, error) {
	src, err := dataset.NewSource(cfg.DatasetSource())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), datasetLoadTimeout)
	defer cancel()

	start := time.Now()
	ds, err := dataset.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("loading dataset from %s: %w", src.Name(), err)
	}
	metrics.DatasetTracks.Set(float64(ds.Len()))

	logging.Info().
		Str("source", src.Name()).
		Int("tracks", ds.Len()).
		Dur("took", time.Since(start)).
		Msg("Dataset loaded")

	return ds, nil
}

// newEnricher wires the optional Last.fm and Spotify lookups. With neither
// enabled the returned service is a no-op.
func newEnricher(cfg *config.Config) (*enrich.Service, error) {
	opts := []enrich.Option{
		enrich.WithConcurrency(cfg.Enrich.Concurrency),
		enrich.WithTimeout(cfg.Enrich.Timeout),
	}

	if cfg.Lastfm.Enabled {
		lfCfg := cfg.LastfmClient()
		if err := lfCfg.Validate(); err != nil {
			return nil, fmt.Errorf("last.fm: %w", err)
		}
		opts = append(opts, enrich.WithGenres(lastfm.NewClient(lfCfg)))
	}

	if cfg.Spotify.Enabled {
		client, err := spotify.NewWithCredentials(cfg.SpotifyClient())
		if err != nil {
			return nil, fmt.Errorf("spotify: %w", err)
		}
		opts = append(opts, enrich.WithLinks(client))
	}

	return enrich.NewService(opts...), nil
}
