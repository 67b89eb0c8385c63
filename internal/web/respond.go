package web

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/justestif/moodmate/internal/emotion"
	"github.com/justestif/moodmate/internal/logging"
	"github.com/justestif/moodmate/internal/mood"
	"github.com/justestif/moodmate/internal/recommend"
	"github.com/justestif/moodmate/internal/validation"
)

// genericError is shown for anything not caused by the request.
const genericError = "An error occurred while processing your request"

// errBadRequest marks malformed bodies and forms.
var errBadRequest = errors.New("bad request")

// badRequest wraps err so errorResponse reports msg with a 400.
type badRequest struct {
	msg string
	err error
}

func (e *badRequest) Error() string { return e.msg }
func (e *badRequest) Unwrap() error { return e.err }
func (e *badRequest) Is(target error) bool {
	return target == errBadRequest
}

// errorBody is the JSON shape of every failure.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps err to a status and writes the failure body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorResponse(err)
	logError(r, status, err)
	writeJSON(w, r, status, errorBody{Success: false, Error: msg})
}

func logError(r *http.Request, status int, err error) {
	event := logging.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = logging.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("Request failed")
}

// errorResponse returns the status code and user-facing message for err.
// Only errors caused by the request expose their text.
func errorResponse(err error) (int, string) {
	var (
		inputErr      *mood.InputError
		validationErr *validation.RequestValidationError
		insufficient  *recommend.InsufficientTracksError
		tooLarge      *http.MaxBytesError
	)

	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, inputErr.Message
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Error()
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "Upload too large"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, emotion.ErrInvalidImage):
		return http.StatusBadRequest, "Invalid image"
	case errors.Is(err, emotion.ErrUnknownLabel), errors.Is(err, recommend.ErrUnknownEmotion):
		return http.StatusBadRequest, "Unknown emotion"
	case errors.Is(err, mood.ErrInvalidCount):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity, insufficient.Error()
	default:
		return http.StatusInternalServerError, genericError
	}
}
