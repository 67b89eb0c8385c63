package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
)

// DuckDBSource reads a CSV (or Parquet) file through DuckDB's file readers.
// It accepts the same files as CSVSource and additionally handles
// compressed CSV and Parquet.
type DuckDBSource struct {
	Path string
}

// NewDuckDBSource creates a DuckDB-backed source for the file at path.
func NewDuckDBSource(path string) *DuckDBSource {
	return &DuckDBSource{Path: path}
}

// Name implements Source.
func (s *DuckDBSource) Name() string {
	return "duckdb:" + s.Path
}

// Tracks implements Source.
func (s *DuckDBSource) Tracks(ctx context.Context) ([]Track, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	defer db.Close()

	from := s.fromClause()

	columns, err := describeColumns(ctx, db, from)
	if err != nil {
		return nil, err
	}
	for _, col := range RequiredColumns {
		if !columns[col] {
			return nil, &ColumnError{Column: col}
		}
	}

	query := fmt.Sprintf(`
		SELECT
			COALESCE(CAST(%s AS VARCHAR), ''),
			COALESCE(CAST(%s AS VARCHAR), ''),
			COALESCE(CAST(%s AS VARCHAR), ''),
			TRY_CAST(%s AS DOUBLE),
			TRY_CAST(%s AS DOUBLE)
		FROM %s
	`,
		quoteIdent(ColumnTrack),
		quoteIdent(ColumnArtist),
		quoteIdent(ColumnLink),
		quoteIdent(ColumnEmotional),
		quoteIdent(ColumnPleasant),
		from,
	)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	row := 0
	for rows.Next() {
		row++
		var t Track
		var emotional, pleasant sql.NullFloat64
		if err := rows.Scan(&t.Name, &t.Artist, &t.Link, &emotional, &pleasant); err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		if !emotional.Valid {
			return nil, &RowError{Line: row, Column: ColumnEmotional, Value: "NULL"}
		}
		if !pleasant.Valid {
			return nil, &RowError{Line: row, Column: ColumnPleasant, Value: "NULL"}
		}
		t.Emotional, t.Pleasant = emotional.Float64, pleasant.Float64
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tracks: %w", err)
	}
	return tracks, nil
}

// fromClause picks the DuckDB reader for the file extension.
func (s *DuckDBSource) fromClause() string {
	if strings.HasSuffix(strings.ToLower(s.Path), ".parquet") {
		return fmt.Sprintf("read_parquet(%s)", quoteLiteral(s.Path))
	}
	return fmt.Sprintf("read_csv_auto(%s, header = true)", quoteLiteral(s.Path))
}

func describeColumns(ctx context.Context, db *sql.DB, from string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT column_name FROM (DESCRIBE SELECT * FROM %s)", from))
	if err != nil {
		return nil, fmt.Errorf("describing dataset: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column name: %w", err)
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
