package recommend

import (
	"testing"

	"github.com/justestif/moodmate/internal/emotion"
)

func TestNewTable(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want map[emotion.Label]Band
	}{
		{
			name: "even split",
			n:    100,
			want: map[emotion.Label]Band{
				emotion.Sad:       {0, 20},
				emotion.Fearful:   {20, 40},
				emotion.Angry:     {40, 60},
				emotion.Neutral:   {60, 80},
				emotion.Happy:     {80, 100},
				emotion.Surprised: {80, 100},
				emotion.Disgusted: {40, 60},
			},
		},
		{
			name: "last band absorbs remainder",
			n:    23,
			want: map[emotion.Label]Band{
				emotion.Sad:     {0, 4},
				emotion.Fearful: {4, 8},
				emotion.Angry:   {8, 12},
				emotion.Neutral: {12, 16},
				emotion.Happy:   {16, 23},
			},
		},
		{
			name: "fewer rows than bands",
			n:    3,
			want: map[emotion.Label]Band{
				emotion.Sad:   {0, 0},
				emotion.Angry: {0, 0},
				emotion.Happy: {0, 3},
			},
		},
		{
			name: "empty",
			n:    0,
			want: map[emotion.Label]Band{
				emotion.Happy: {0, 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewTable(tt.n)
			for label, want := range tt.want {
				got, ok := table.Band(label)
				if !ok {
					t.Fatalf("Band(%s) missing", label)
				}
				if got != want {
					t.Errorf("Band(%s) = %+v, want %+v", label, got, want)
				}
			}
		})
	}
}

func TestTableCoversEveryLabel(t *testing.T) {
	table := NewTable(50)
	for _, label := range emotion.All() {
		if _, ok := table.Band(label); !ok {
			t.Errorf("Band(%s) missing", label)
		}
	}
	if _, ok := table.Band("Bored"); ok {
		t.Error("Band(Bored) should be missing")
	}
}

func TestTableBoundariesMonotonic(t *testing.T) {
	for _, n := range []int{0, 1, 4, 5, 6, 99, 1000, 90001} {
		table := NewTable(n)
		prev := 0
		for _, label := range BandLabels() {
			b, _ := table.Band(label)
			if b.Start != prev {
				t.Errorf("n=%d: %s starts at %d, want %d", n, label, b.Start, prev)
			}
			if b.End < b.Start {
				t.Errorf("n=%d: %s ends before it starts: %+v", n, label, b)
			}
			prev = b.End
		}
		if prev != n {
			t.Errorf("n=%d: bands end at %d", n, prev)
		}
	}
}

func TestTableDeterministic(t *testing.T) {
	a, b := NewTable(777), NewTable(777)
	for _, label := range emotion.All() {
		ba, _ := a.Band(label)
		bb, _ := b.Band(label)
		if ba != bb {
			t.Errorf("%s: %+v != %+v", label, ba, bb)
		}
	}
}

func TestEntries(t *testing.T) {
	entries := NewTable(10).Entries()
	if len(entries) != len(emotion.All()) {
		t.Fatalf("got %d entries, want %d", len(entries), len(emotion.All()))
	}

	aliasOf := make(map[emotion.Label]emotion.Label)
	for _, e := range entries {
		aliasOf[e.Label] = e.AliasOf
	}
	if aliasOf[emotion.Surprised] != emotion.Happy {
		t.Errorf("Surprised alias = %q, want Happy", aliasOf[emotion.Surprised])
	}
	if aliasOf[emotion.Disgusted] != emotion.Angry {
		t.Errorf("Disgusted alias = %q, want Angry", aliasOf[emotion.Disgusted])
	}
	if aliasOf[emotion.Sad] != "" {
		t.Errorf("Sad alias = %q, want none", aliasOf[emotion.Sad])
	}
}
