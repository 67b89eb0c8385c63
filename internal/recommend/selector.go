package recommend

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/justestif/moodmate/internal/dataset"
	"github.com/justestif/moodmate/internal/emotion"
)

// Sentinel errors.
var (
	// ErrInsufficientTracks is returned when a band holds fewer tracks than
	// the quota drawn from it.
	ErrInsufficientTracks = errors.New("insufficient tracks in partition")

	// ErrUnknownEmotion is returned for a label with no band.
	ErrUnknownEmotion = errors.New("unknown emotion")

	// ErrNegativeCount is returned when the requested total is below zero.
	ErrNegativeCount = errors.New("count must not be negative")
)

// InsufficientTracksError reports which band ran short.
type InsufficientTracksError struct {
	Emotion   emotion.Label
	Requested int
	Available int
}

func (e *InsufficientTracksError) Error() string {
	return fmt.Sprintf("%s: %s needs %d, band has %d",
		ErrInsufficientTracks, e.Emotion, e.Requested, e.Available)
}

func (e *InsufficientTracksError) Is(target error) bool {
	return target == ErrInsufficientTracks
}

// Pick is a recommended track and the emotion it was drawn for.
type Pick struct {
	Track   dataset.Track
	Emotion emotion.Label
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand sets the generator factory. It is called once per Recommend call,
// so a factory returning a shared generator makes the Selector unsafe for
// concurrent use.
func WithRand(newRand func() *rand.Rand) Option {
	return func(s *Selector) {
		s.newRand = newRand
	}
}

// Selector draws recommendations from a dataset. It is safe for concurrent
// use with the default generator.
type Selector struct {
	ds      *dataset.Dataset
	table   Table
	newRand func() *rand.Rand
}

// NewSelector creates a Selector over ds partitioned by table.
func NewSelector(ds *dataset.Dataset, table Table, opts ...Option) *Selector {
	s := &Selector{
		ds:      ds,
		table:   table,
		newRand: seededRand,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func seededRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Table returns the partition table.
func (s *Selector) Table() Table {
	return s.table
}

// Dataset returns the underlying dataset.
func (s *Selector) Dataset() *dataset.Dataset {
	return s.ds
}

// Recommend returns total tracks split across emotions by Quotas. Each
// emotion's share is drawn without replacement from its band, and the
// combined result is shuffled. An empty emotions list yields an empty result.
func (s *Selector) Recommend(emotions []emotion.Label, total int) ([]Pick, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeCount, total)
	}
	if len(emotions) == 0 {
		return []Pick{}, nil
	}

	quotas := Quotas(len(emotions), total)

	// Validate everything before consuming entropy.
	bands := make([]Band, len(emotions))
	for i, label := range emotions {
		band, ok := s.table.Band(label)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEmotion, label)
		}
		if quotas[i] > band.Len() {
			return nil, &InsufficientTracksError{
				Emotion:   label,
				Requested: quotas[i],
				Available: band.Len(),
			}
		}
		bands[i] = band
	}

	rng := s.newRand()
	picks := make([]Pick, 0, total)
	for i, label := range emotions {
		for _, offset := range sample(rng, bands[i].Len(), quotas[i]) {
			picks = append(picks, Pick{
				Track:   s.ds.At(bands[i].Start + offset),
				Emotion: label,
			})
		}
	}

	rng.Shuffle(len(picks), func(i, j int) {
		picks[i], picks[j] = picks[j], picks[i]
	})
	return picks, nil
}

// Quotas splits total across n emotions. Each gets total/n and the first
// total%n in input order get one more.
func Quotas(n, total int) []int {
	if n <= 0 {
		return nil
	}
	base, extra := total/n, total%n
	quotas := make([]int, n)
	for i := range quotas {
		quotas[i] = base
		if i < extra {
			quotas[i]++
		}
	}
	return quotas
}

// sample returns k distinct offsets in [0, n) chosen uniformly (Floyd's
// algorithm). k must not exceed n.
func sample(rng *rand.Rand, n, k int) []int {
	chosen := make(map[int]struct{}, k)
	out := make([]int, 0, k)
	for j := n - k; j < n; j++ {
		t := rng.IntN(j + 1)
		if _, dup := chosen[t]; dup {
			t = j
		}
		chosen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
