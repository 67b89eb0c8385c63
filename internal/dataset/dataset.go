// Package dataset loads the music table recommendations are drawn from.
package dataset

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
)

// Source column names. Every source must provide all of them.
const (
	ColumnTrack     = "track"
	ColumnArtist    = "artist"
	ColumnLink      = "lastfm_url"
	ColumnEmotional = "number_of_emotion_tags"
	ColumnPleasant  = "valence_tags"
)

// RequiredColumns lists the columns a source must expose.
var RequiredColumns = []string{ColumnTrack, ColumnArtist, ColumnLink, ColumnEmotional, ColumnPleasant}

// Sentinel errors.
var (
	// ErrMissingColumn is returned when a source lacks a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrMalformedRow is returned when a row cannot be converted to a Track.
	ErrMalformedRow = errors.New("malformed row")

	// ErrEmptyDataset is returned when a source yields no rows.
	ErrEmptyDataset = errors.New("dataset is empty")
)

// ColumnError names the required column a source is missing.
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMissingColumn, e.Column)
}

func (e *ColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// RowError describes a value that could not be parsed.
type RowError struct {
	Line   int // 1-based line or row number in the source
	Column string
	Value  string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: line %d column %q value %q", ErrMalformedRow, e.Line, e.Column, e.Value)
}

func (e *RowError) Is(target error) bool {
	return target == ErrMalformedRow
}

// Track is one row of the music table.
type Track struct {
	Name      string  `json:"name"`
	Artist    string  `json:"artist"`
	Emotional float64 `json:"emotional"` // number of emotion tags
	Pleasant  float64 `json:"pleasant"`  // valence score
	Link      string  `json:"link"`
}

// Source produces tracks in their original order.
type Source interface {
	// Name identifies the source in logs.
	Name() string
	// Tracks reads every row. Implementations must preserve source order.
	Tracks(ctx context.Context) ([]Track, error)
}

// Dataset is the loaded, sorted track list. It is read-only after Load and
// safe for concurrent use.
type Dataset struct {
	tracks []Track
}

// Load reads src and sorts the rows ascending by Emotional, then Pleasant.
// Ties keep source order.
func Load(ctx context.Context, src Source) (*Dataset, error) {
	tracks, err := src.Tracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src.Name(), err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("reading %s: %w", src.Name(), ErrEmptyDataset)
	}

	for i, t := range tracks {
		if math.IsNaN(t.Emotional) {
			return nil, &RowError{Line: i + 1, Column: ColumnEmotional, Value: "NaN"}
		}
		if math.IsNaN(t.Pleasant) {
			return nil, &RowError{Line: i + 1, Column: ColumnPleasant, Value: "NaN"}
		}
	}

	return New(tracks), nil
}

// New builds a Dataset from tracks, sorting a private copy.
func New(tracks []Track) *Dataset {
	sorted := slices.Clone(tracks)
	slices.SortStableFunc(sorted, func(a, b Track) int {
		if c := cmp.Compare(a.Emotional, b.Emotional); c != 0 {
			return c
		}
		return cmp.Compare(a.Pleasant, b.Pleasant)
	})
	return &Dataset{tracks: sorted}
}

// Len returns the number of tracks.
func (d *Dataset) Len() int {
	return len(d.tracks)
}

// At returns the track at sorted position i.
func (d *Dataset) At(i int) Track {
	return d.tracks[i]
}

// Range returns a copy of the tracks in [start, end).
func (d *Dataset) Range(start, end int) []Track {
	return slices.Clone(d.tracks[start:end])
}
