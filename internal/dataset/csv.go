package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CSVSource reads tracks from a CSV file with a header row.
type CSVSource struct {
	Path string
}

// NewCSVSource creates a source for the CSV file at path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

// Name implements Source.
func (s *CSVSource) Name() string {
	return "csv:" + s.Path
}

// Tracks implements Source.
func (s *CSVSource) Tracks(_ context.Context) ([]Track, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses CSV data whose header contains the required columns.
// Extra columns are ignored.
func ReadCSV(r io.Reader) ([]Track, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var tracks []Track
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		t, err := parseRecord(record, index, line)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}

	return tracks, nil
}

// columnIndex maps each required column to its position in header.
func columnIndex(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}

	index := make(map[string]int, len(RequiredColumns))
	for _, col := range RequiredColumns {
		pos, ok := positions[col]
		if !ok {
			return nil, &ColumnError{Column: col}
		}
		index[col] = pos
	}
	return index, nil
}

func parseRecord(record []string, index map[string]int, line int) (Track, error) {
	field := func(col string) (string, error) {
		pos := index[col]
		if pos >= len(record) {
			return "", &RowError{Line: line, Column: col}
		}
		return record[pos], nil
	}
	number := func(col string) (float64, error) {
		raw, err := field(col)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return 0, &RowError{Line: line, Column: col, Value: raw}
		}
		return v, nil
	}

	var t Track
	var err error
	if t.Name, err = field(ColumnTrack); err != nil {
		return Track{}, err
	}
	if t.Artist, err = field(ColumnArtist); err != nil {
		return Track{}, err
	}
	if t.Link, err = field(ColumnLink); err != nil {
		return Track{}, err
	}
	if t.Emotional, err = number(ColumnEmotional); err != nil {
		return Track{}, err
	}
	if t.Pleasant, err = number(ColumnPleasant); err != nil {
		return Track{}, err
	}
	return t, nil
}
