package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDuckDBSourceLoad(t *testing.T) {
	path := writeTemp(t, "muse.csv", sampleCSV)

	ds, err := Load(context.Background(), NewDuckDBSource(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ds.Len())
	}

	want := []string{"Song B", "Song, C", "Song A"}
	for i, name := range want {
		if got := ds.At(i).Name; got != name {
			t.Errorf("At(%d).Name = %q, want %q", i, got, name)
		}
	}
}

func TestDuckDBSourceMissingColumn(t *testing.T) {
	path := writeTemp(t, "muse.csv", "track,artist,valence_tags\nx,y,1\n")

	_, err := Load(context.Background(), NewDuckDBSource(path))
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("Load() error = %v, want ErrMissingColumn", err)
	}
}

func TestDuckDBSourceBadNumber(t *testing.T) {
	path := writeTemp(t, "muse.csv",
		"track,artist,lastfm_url,number_of_emotion_tags,valence_tags\nx,y,z,1,2\na,b,c,lots,3\n")

	_, err := Load(context.Background(), NewDuckDBSource(path))
	if !errors.Is(err, ErrMalformedRow) {
		t.Errorf("Load() error = %v, want ErrMalformedRow", err)
	}
}

func TestQuoting(t *testing.T) {
	if got := quoteIdent(`a"b`); got != `"a""b"` {
		t.Errorf("quoteIdent() = %s", got)
	}
	if got := quoteLiteral("it's"); got != "'it''s'" {
		t.Errorf("quoteLiteral() = %s", got)
	}
}
