//go:build integration

package dataset

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

// startPostgres runs a throwaway PostgreSQL container and returns its URL.
func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	skipIfNoDocker(t)

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "moodmate",
			"POSTGRES_PASSWORD": "moodmate",
			"POSTGRES_DB":       "moodmate",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	return fmt.Sprintf("postgres://moodmate:moodmate@%s:%s/moodmate?sslmode=disable", host, port.Port())
}

func seed(t *testing.T, ctx context.Context, url string, stmts ...string) {
	t.Helper()

	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer conn.Close(ctx)

	for _, stmt := range stmts {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

func TestPostgresSourceIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	url := startPostgres(t, ctx)
	seed(t, ctx, url,
		`CREATE TABLE muse_tracks (
			lastfm_url text,
			track text,
			artist text,
			number_of_emotion_tags integer,
			valence_tags numeric
		)`,
		`INSERT INTO muse_tracks VALUES
			('https://last.fm/a', 'Song A', 'Artist A', 5, 0.8),
			('https://last.fm/b', 'Song B', 'Artist B', 1, 0.2),
			('https://last.fm/c', 'Song C', NULL, 3, 4.5)`,
		`CREATE TABLE broken (track text, artist text)`,
		`CREATE TABLE nulls (track text, artist text, lastfm_url text, number_of_emotion_tags int, valence_tags float8)`,
		`INSERT INTO nulls VALUES ('x', 'y', 'z', NULL, 1)`,
	)

	t.Run("loads and sorts", func(t *testing.T) {
		ds, err := Load(ctx, NewPostgresSource(url, "muse_tracks"))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		want := []string{"Song B", "Song C", "Song A"}
		for i, name := range want {
			if got := ds.At(i).Name; got != name {
				t.Errorf("At(%d).Name = %q, want %q", i, got, name)
			}
		}
		if got := ds.At(1).Artist; got != "" {
			t.Errorf("NULL artist = %q, want empty", got)
		}
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := Load(ctx, NewPostgresSource(url, "broken"))
		if !errors.Is(err, ErrMissingColumn) {
			t.Errorf("Load() error = %v, want ErrMissingColumn", err)
		}
	})

	t.Run("null numeric", func(t *testing.T) {
		_, err := Load(ctx, NewPostgresSource(url, "nulls"))
		if !errors.Is(err, ErrMalformedRow) {
			t.Errorf("Load() error = %v, want ErrMalformedRow", err)
		}
	})
}
