// Package recommend partitions the sorted track list into emotion bands and
// draws proportional random samples from them.
package recommend

import "github.com/justestif/moodmate/internal/emotion"

// Band is a half-open index range [Start, End) into the sorted dataset.
type Band struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of tracks in the band.
func (b Band) Len() int {
	return b.End - b.Start
}

// bandOrder assigns labels to bands in ascending sort order: the fewest
// emotion tags and lowest valence land in Sad.
var bandOrder = []emotion.Label{
	emotion.Sad,
	emotion.Fearful,
	emotion.Angry,
	emotion.Neutral,
	emotion.Happy,
}

// aliases share another label's band.
var aliases = map[emotion.Label]emotion.Label{
	emotion.Surprised: emotion.Happy,
	emotion.Disgusted: emotion.Angry,
}

// Table maps every emotion label to its band. It is immutable once built.
type Table struct {
	size  int
	bands map[emotion.Label]Band
}

// NewTable splits n sorted rows into five bands of n/5 rows. The last band
// absorbs the remainder.
func NewTable(n int) Table {
	if n < 0 {
		n = 0
	}

	width := n / len(bandOrder)
	bands := make(map[emotion.Label]Band, len(bandOrder)+len(aliases))
	for i, label := range bandOrder {
		b := Band{Start: i * width, End: (i + 1) * width}
		if i == len(bandOrder)-1 {
			b.End = n
		}
		bands[label] = b
	}
	for alias, target := range aliases {
		bands[alias] = bands[target]
	}

	return Table{size: n, bands: bands}
}

// Size returns the row count the table was built for.
func (t Table) Size() int {
	return t.size
}

// Band returns the band for label, following aliases.
func (t Table) Band(label emotion.Label) (Band, bool) {
	b, ok := t.bands[label]
	return b, ok
}

// Entry describes one label's band for display.
type Entry struct {
	Label   emotion.Label `json:"label"`
	Band    Band          `json:"band"`
	AliasOf emotion.Label `json:"alias_of,omitempty"`
}

// Entries lists every label in emotion.All order.
func (t Table) Entries() []Entry {
	labels := emotion.All()
	entries := make([]Entry, 0, len(labels))
	for _, label := range labels {
		entries = append(entries, Entry{
			Label:   label,
			Band:    t.bands[label],
			AliasOf: aliases[label],
		})
	}
	return entries
}

// BandLabels returns the labels that own a band, in sort order.
func BandLabels() []emotion.Label {
	out := make([]emotion.Label, len(bandOrder))
	copy(out, bandOrder)
	return out
}
