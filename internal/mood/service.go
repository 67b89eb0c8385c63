// Package mood turns user input (text, an image or a webcam capture) into a
// detected emotion and a list of track recommendations.
package mood

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/justestif/moodmate/internal/emotion"
	"github.com/justestif/moodmate/internal/enrich"
	"github.com/justestif/moodmate/internal/logging"
	"github.com/justestif/moodmate/internal/metrics"
	"github.com/justestif/moodmate/internal/recommend"
)

// Defaults for recommendation counts.
const (
	DefaultCount    = 8
	DefaultMaxCount = 100
)

// Detection sources, used in metrics and responses.
const (
	SourceText   = "text"
	SourceImage  = "image"
	SourceWebcam = "webcam"
)

// Sentinel errors.
var (
	// ErrNoInput is matched by every InputError.
	ErrNoInput = errors.New("no input provided")

	// ErrInvalidCount is returned when a count is outside [0, max].
	ErrInvalidCount = errors.New("invalid recommendation count")
)

// InputError is a user-facing message about missing input.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

func (e *InputError) Is(target error) bool {
	return target == ErrNoInput
}

// Input errors reported to users verbatim.
var (
	ErrNoFile    = &InputError{Message: "No file selected"}
	ErrNoText    = &InputError{Message: "No text provided"}
	ErrNoPayload = &InputError{Message: "Please provide image or text"}
)

// Recommender draws tracks for emotions. *recommend.Selector implements it.
type Recommender interface {
	Recommend(emotions []emotion.Label, total int) ([]recommend.Pick, error)
}

// Enricher decorates tracks. *enrich.Service implements it.
type Enricher interface {
	Enrich(ctx context.Context, tracks []enrich.Track) []enrich.Result
}

// Recommendation is one track in a response.
type Recommendation struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Mood       string `json:"mood"`
	Link       string `json:"link,omitempty"`
	Genre      string `json:"genre,omitempty"`
	SpotifyURL string `json:"spotify_url,omitempty"`
}

// Detection is a detected emotion and the tracks recommended for it.
type Detection struct {
	Emotion         emotion.Label
	Source          string
	Recommendations []Recommendation
	// Confidence is set only by the image heuristic.
	Confidence map[emotion.Label]int
}

// Service coordinates detection, selection and enrichment.
type Service struct {
	selector     Recommender
	enricher     Enricher
	imageMode    emotion.ImageMode
	defaultCount int
	maxCount     int
	newRand      func() *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithEnricher enables enrichment of recommendations.
func WithEnricher(e Enricher) Option {
	return func(s *Service) {
		s.enricher = e
	}
}

// WithImageMode selects how uploaded images are classified.
func WithImageMode(m emotion.ImageMode) Option {
	return func(s *Service) {
		s.imageMode = m
	}
}

// WithCounts sets the default and maximum recommendation counts.
func WithCounts(defaultCount, maxCount int) Option {
	return func(s *Service) {
		if defaultCount > 0 {
			s.defaultCount = defaultCount
		}
		if maxCount > 0 {
			s.maxCount = maxCount
		}
	}
}

// WithRand sets the generator factory used for random detection.
func WithRand(newRand func() *rand.Rand) Option {
	return func(s *Service) {
		s.newRand = newRand
	}
}

// NewService creates a mood service drawing from selector.
func NewService(selector Recommender, opts ...Option) *Service {
	s := &Service{
		selector:     selector,
		imageMode:    emotion.ImageRandom,
		defaultCount: DefaultCount,
		maxCount:     DefaultMaxCount,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultCount is the number of tracks returned with a detection.
func (s *Service) DefaultCount() int {
	return s.defaultCount
}

// MaxCount is the largest count Recommend accepts.
func (s *Service) MaxCount() int {
	return s.maxCount
}

// DetectText classifies text by keywords and recommends tracks for it.
func (s *Service) DetectText(ctx context.Context, text string) (*Detection, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}
	return s.detected(ctx, SourceText, emotion.ClassifyText(text), nil)
}

// DetectImage classifies an uploaded image. An empty filename means the
// form carried an image field with no file chosen.
func (s *Service) DetectImage(ctx context.Context, filename string, data []byte) (*Detection, error) {
	if filename == "" {
		return nil, ErrNoFile
	}

	if s.imageMode != emotion.ImageHeuristic {
		return s.detected(ctx, SourceImage, emotion.Random(s.newRand(), emotion.All()), nil)
	}

	result, err := emotion.ClassifyImage(data)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Debug().
		Str("file", filename).
		Float64("brightness", result.Brightness).
		Float64("contrast", result.Contrast).
		Str("emotion", result.Label.String()).
		Msg("Image classified")

	return s.detected(ctx, SourceImage, result.Label, result.Confidence)
}

// Webcam stands in for a live capture with a random emotion.
func (s *Service) Webcam(ctx context.Context) (*Detection, error) {
	return s.detected(ctx, SourceWebcam, emotion.Random(s.newRand(), emotion.WebcamLabels), nil)
}

func (s *Service) detected(ctx context.Context, source string, label emotion.Label, confidence map[emotion.Label]int) (*Detection, error) {
	metrics.RecordDetection(source, label.String())

	recs, err := s.Recommend(ctx, []emotion.Label{label}, s.defaultCount)
	if err != nil {
		return nil, err
	}

	return &Detection{
		Emotion:         label,
		Source:          source,
		Recommendations: recs,
		Confidence:      confidence,
	}, nil
}

// Recommend draws count tracks across emotions and enriches them when an
// enricher is configured. Each item's Mood is the emotion it was drawn for.
func (s *Service) Recommend(ctx context.Context, emotions []emotion.Label, count int) ([]Recommendation, error) {
	if count < 0 || count > s.maxCount {
		metrics.RecordRecommendation("invalid", 0)
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidCount, count, s.maxCount)
	}

	picks, err := s.selector.Recommend(emotions, count)
	if err != nil {
		metrics.RecordRecommendation(outcome(err), 0)
		return nil, fmt.Errorf("selecting tracks: %w", err)
	}

	recs := make([]Recommendation, len(picks))
	for i, p := range picks {
		recs[i] = Recommendation{
			Title:  p.Track.Name,
			Artist: p.Track.Artist,
			Mood:   p.Emotion.String(),
			Link:   p.Track.Link,
		}
	}

	if s.enricher != nil && len(picks) > 0 {
		tracks := make([]enrich.Track, len(picks))
		for i, p := range picks {
			tracks[i] = enrich.Track{Name: p.Track.Name, Artist: p.Track.Artist}
		}
		for i, r := range s.enricher.Enrich(ctx, tracks) {
			recs[i].Genre = r.Genre
			recs[i].SpotifyURL = r.SpotifyURL
		}
	}

	metrics.RecordRecommendation("ok", len(recs))
	return recs, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, recommend.ErrInsufficientTracks):
		return "insufficient"
	case errors.Is(err, recommend.ErrUnknownEmotion), errors.Is(err, recommend.ErrNegativeCount):
		return "invalid"
	default:
		return "error"
	}
}
