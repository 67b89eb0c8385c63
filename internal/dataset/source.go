package dataset

import "fmt"

// Source kinds accepted by NewSource.
const (
	KindCSV      = "csv"
	KindPostgres = "postgres"
	KindDuckDB   = "duckdb"
)

// SourceConfig selects and configures a Source.
type SourceConfig struct {
	Kind        string
	Path        string // csv, duckdb
	PostgresURL string // postgres
	Table       string // postgres
}

// NewSource builds the Source described by cfg.
func NewSource(cfg SourceConfig) (Source, error) {
	switch cfg.Kind {
	case KindCSV, "":
		return NewCSVSource(cfg.Path), nil
	case KindDuckDB:
		return NewDuckDBSource(cfg.Path), nil
	case KindPostgres:
		return NewPostgresSource(cfg.PostgresURL, cfg.Table), nil
	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.Kind)
	}
}
