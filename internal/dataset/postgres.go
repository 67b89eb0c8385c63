package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUndefinedColumn is the SQLSTATE for a reference to a missing column.
const pgUndefinedColumn = "42703"

// PostgresSource reads tracks from a PostgreSQL table.
type PostgresSource struct {
	URL   string
	Table string
}

// NewPostgresSource creates a source reading table from the database at url.
func NewPostgresSource(url, table string) *PostgresSource {
	return &PostgresSource{URL: url, Table: table}
}

// Name implements Source.
func (s *PostgresSource) Name() string {
	return "postgres:" + s.Table
}

// Tracks implements Source. Rows come back in the table's physical order.
func (s *PostgresSource) Tracks(ctx context.Context) ([]Track, error) {
	config, err := pgxpool.ParseConfig(s.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return queryTracks(ctx, pool, s.Table)
}

// querier is the subset of pgxpool.Pool used by queryTracks.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryTracks(ctx context.Context, q querier, table string) ([]Track, error) {
	query := fmt.Sprintf(`
		SELECT
			COALESCE(%s::text, ''),
			COALESCE(%s::text, ''),
			COALESCE(%s::text, ''),
			%s::float8,
			%s::float8
		FROM %s
	`,
		pgx.Identifier{ColumnTrack}.Sanitize(),
		pgx.Identifier{ColumnArtist}.Sanitize(),
		pgx.Identifier{ColumnLink}.Sanitize(),
		pgx.Identifier{ColumnEmotional}.Sanitize(),
		pgx.Identifier{ColumnPleasant}.Sanitize(),
		pgx.Identifier{table}.Sanitize(),
	)

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, wrapPgError(err)
	}
	defer rows.Close()

	var tracks []Track
	row := 0
	for rows.Next() {
		row++
		var t Track
		var emotional, pleasant *float64
		if err := rows.Scan(&t.Name, &t.Artist, &t.Link, &emotional, &pleasant); err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		if emotional == nil {
			return nil, &RowError{Line: row, Column: ColumnEmotional, Value: "NULL"}
		}
		if pleasant == nil {
			return nil, &RowError{Line: row, Column: ColumnPleasant, Value: "NULL"}
		}
		t.Emotional, t.Pleasant = *emotional, *pleasant
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError(err)
	}
	return tracks, nil
}

// wrapPgError turns an undefined-column failure into ErrMissingColumn.
func wrapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedColumn {
		return fmt.Errorf("%w: %s", ErrMissingColumn, pgErr.Message)
	}
	return fmt.Errorf("querying tracks: %w", err)
}
