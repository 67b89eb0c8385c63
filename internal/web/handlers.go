package web

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/justestif/moodmate/internal/clustering"
	"github.com/justestif/moodmate/internal/dataset"
	"github.com/justestif/moodmate/internal/emotion"
	"github.com/justestif/moodmate/internal/logging"
	"github.com/justestif/moodmate/internal/mood"
	"github.com/justestif/moodmate/internal/recommend"
	"github.com/justestif/moodmate/internal/validation"
)

// MoodService is the application service behind the handlers.
// *mood.Service implements it.
type MoodService interface {
	DetectText(ctx context.Context, text string) (*mood.Detection, error)
	DetectImage(ctx context.Context, filename string, data []byte) (*mood.Detection, error)
	Webcam(ctx context.Context) (*mood.Detection, error)
	Recommend(ctx context.Context, emotions []emotion.Label, count int) ([]mood.Recommendation, error)
	DefaultCount() int
	MaxCount() int
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	mood           MoodService
	dataset        *dataset.Dataset
	table          recommend.Table
	templates      *Templates
	maxUploadBytes int64

	// bands is computed on first request; the dataset never changes.
	bandsOnce sync.Once
	bands     bandsResponse
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc MoodService, ds *dataset.Dataset, table recommend.Table, templates *Templates, maxUploadBytes int64) *Handlers {
	return &Handlers{
		mood:           svc,
		dataset:        ds,
		table:          table,
		templates:      templates,
		maxUploadBytes: maxUploadBytes,
	}
}

// detectionResponse is the success body for /detect_emotion and /webcam.
type detectionResponse struct {
	Success         bool                  `json:"success"`
	Emotion         emotion.Label         `json:"emotion"`
	Source          string                `json:"source"`
	Recommendations []mood.Recommendation `json:"recommendations"`
	Confidence      map[emotion.Label]int `json:"confidence,omitempty"`
}

// recommendRequest is the body of POST /api/recommendations.
type recommendRequest struct {
	Emotions []string `json:"emotions" validate:"max=20,dive,emotion"`
	Count    *int     `json:"count,omitempty" validate:"omitempty,gte=0"`
}

type recommendResponse struct {
	Success         bool                  `json:"success"`
	Emotions        []emotion.Label       `json:"emotions"`
	Count           int                   `json:"count"`
	Recommendations []mood.Recommendation `json:"recommendations"`
}

type emotionsResponse struct {
	Success   bool              `json:"success"`
	Total     int               `json:"total_tracks"`
	Emotions  []recommend.Entry `json:"emotions"`
	BandOrder []emotion.Label   `json:"band_order"`
}

type bandsResponse struct {
	Success    bool                     `json:"success"`
	Bands      []clustering.BandSummary `json:"bands"`
	CrossCheck *clustering.CrossCheck   `json:"cross_check,omitempty"`
	Note       string                   `json:"note,omitempty"`
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	data := HomePageData{
		PageData: PageData{
			Title:       "MoodMate",
			CurrentPath: r.URL.Path,
		},
		Emotions:     emotion.All(),
		DefaultCount: h.mood.DefaultCount(),
		MaxCount:     h.mood.MaxCount(),
		MaxUploadMB:  h.maxUploadBytes >> 20,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "home", data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to render template")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
}

// Health reports liveness and the loaded dataset size (GET /health).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status": "ok",
		"tracks": h.dataset.Len(),
	})
}

// DetectEmotion classifies an uploaded image or free text (POST /detect_emotion).
// An image field wins over text, even when no file was chosen.
func (h *Handlers) DetectEmotion(w http.ResponseWriter, r *http.Request) {
	det, err := h.detect(w, r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondDetection(w, r, det)
}

func (h *Handlers) detect(w http.ResponseWriter, r *http.Request) (*mood.Detection, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			return nil, formError(err)
		}
		defer r.MultipartForm.RemoveAll()

		if files := r.MultipartForm.File["image"]; len(files) > 0 {
			fh := files[0]
			if fh.Filename == "" {
				return nil, mood.ErrNoFile
			}
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			defer f.Close()
			data, err := io.ReadAll(f)
			if err != nil {
				return nil, err
			}
			return h.mood.DetectImage(r.Context(), fh.Filename, data)
		}
		// A file input left empty arrives as a plain value.
		if _, ok := r.MultipartForm.Value["image"]; ok {
			return nil, mood.ErrNoFile
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, formError(err)
	}

	if texts, ok := r.PostForm["text"]; ok {
		text := ""
		if len(texts) > 0 {
			text = texts[0]
		}
		return h.mood.DetectText(r.Context(), text)
	}

	return nil, mood.ErrNoPayload
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return tooLarge
	}
	return &badRequest{msg: "Invalid form data", err: err}
}

// Webcam stands in for a webcam capture (POST /webcam).
func (h *Handlers) Webcam(w http.ResponseWriter, r *http.Request) {
	det, err := h.mood.Webcam(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondDetection(w, r, det)
}

// Recommendations draws tracks for explicit emotions (POST /api/recommendations).
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, &badRequest{msg: "Invalid JSON body", err: err})
		return
	}
	if err := validation.Struct(&req); err != nil {
		writeError(w, r, err)
		return
	}

	labels, err := emotion.ParseAll(req.Emotions)
	if err != nil {
		writeError(w, r, err)
		return
	}

	count := h.mood.DefaultCount()
	if req.Count != nil {
		count = *req.Count
	}

	recs, err := h.mood.Recommend(r.Context(), labels, count)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, recommendResponse{
		Success:         true,
		Emotions:        labels,
		Count:           len(recs),
		Recommendations: recs,
	})
}

// Emotions lists every label with its band (GET /api/emotions).
func (h *Handlers) Emotions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, emotionsResponse{
		Success:   true,
		Total:     h.table.Size(),
		Emotions:  h.table.Entries(),
		BandOrder: recommend.BandLabels(),
	})
}

// Bands reports per-band statistics and the k-means cross-check (GET /api/bands).
func (h *Handlers) Bands(w http.ResponseWriter, r *http.Request) {
	h.bandsOnce.Do(func() {
		h.bands = bandsResponse{
			Success: true,
			Bands:   clustering.SummarizeBands(h.dataset, h.table),
		}
		check, err := clustering.CrossCheckBands(h.dataset, h.table, clustering.DefaultCrossCheckConfig())
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Skipping k-means cross-check")
			h.bands.Note = err.Error()
			return
		}
		h.bands.CrossCheck = check
	})
	writeJSON(w, r, http.StatusOK, h.bands)
}

// isHTMX reports whether the request came from an HTMX swap.
func isHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}

func (h *Handlers) respondDetection(w http.ResponseWriter, r *http.Request, det *mood.Detection) {
	if isHTMX(r) {
		h.renderResults(w, r, http.StatusOK, ResultsData{
			Emotion:         det.Emotion.String(),
			Source:          det.Source,
			Recommendations: det.Recommendations,
			Confidence:      det.Confidence,
		})
		return
	}

	writeJSON(w, r, http.StatusOK, detectionResponse{
		Success:         true,
		Emotion:         det.Emotion,
		Source:          det.Source,
		Recommendations: det.Recommendations,
		Confidence:      det.Confidence,
	})
}

func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if !isHTMX(r) {
		writeError(w, r, err)
		return
	}
	status, msg := errorResponse(err)
	logError(r, status, err)
	h.renderResults(w, r, status, ResultsData{Error: msg})
}

func (h *Handlers) renderResults(w http.ResponseWriter, r *http.Request, status int, data ResultsData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.RenderPartial(w, "recommendations", data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to render partial")
	}
}
