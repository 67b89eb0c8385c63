package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/justestif/moodmate/internal/emotion"
	"github.com/justestif/moodmate/internal/mood"
	"github.com/justestif/moodmate/internal/recommend"
	"github.com/justestif/moodmate/internal/validation"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"no text", mood.ErrNoText, http.StatusBadRequest, "No text provided"},
		{"wrapped input", fmt.Errorf("detecting: %w", mood.ErrNoFile), http.StatusBadRequest, "No file selected"},
		{"validation", &validation.RequestValidationError{Fields: []validation.FieldError{{Message: "count is required"}}}, http.StatusBadRequest, "count is required"},
		{"invalid image", fmt.Errorf("%w: bad header", emotion.ErrInvalidImage), http.StatusBadRequest, "Invalid image"},
		{"unknown label", emotion.ErrUnknownLabel, http.StatusBadRequest, "Unknown emotion"},
		{"unknown emotion", recommend.ErrUnknownEmotion, http.StatusBadRequest, "Unknown emotion"},
		{"too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, "Upload too large"},
		{"bad request", &badRequest{msg: "Invalid JSON body"}, http.StatusBadRequest, "Invalid JSON body"},
		{
			"insufficient",
			fmt.Errorf("selecting tracks: %w", &recommend.InsufficientTracksError{Emotion: emotion.Sad, Requested: 30, Available: 20}),
			http.StatusUnprocessableEntity,
			"insufficient tracks in partition: Sad needs 30, band has 20",
		},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, genericError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := errorResponse(tt.err)
			if status != tt.wantStatus || msg != tt.wantMsg {
				t.Errorf("errorResponse() = %d %q, want %d %q", status, msg, tt.wantStatus, tt.wantMsg)
			}
		})
	}
}

func TestTemplates(t *testing.T) {
	fsys := fstest.MapFS{
		"layouts/base.html":    {Data: []byte(`{{define "base"}}<main>{{template "content" .}}</main>{{end}}`)},
		"pages/home.html":      {Data: []byte(`{{define "content"}}{{.Title}} {{template "chip" .}}{{end}}`)},
		"partials/chip.html":   {Data: []byte(`{{define "chip"}}<b style="color: {{moodColor "Sad"}}">{{add 1 2}}</b>{{end}}`)},
		"partials/status.html": {Data: []byte(`{{define "status"}}ok {{.}}{{end}}`)},
	}

	tmpl, err := NewTemplates(fsys)
	if err != nil {
		t.Fatalf("NewTemplates() error = %v", err)
	}

	var page strings.Builder
	if err := tmpl.Render(&page, "home", PageData{Title: "MoodMate"}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := `<main>MoodMate <b style="color: hsl(222, 45%, 42%)">3</b></main>`
	if page.String() != want {
		t.Errorf("Render() = %q, want %q", page.String(), want)
	}

	var partial strings.Builder
	if err := tmpl.RenderPartial(&partial, "status", 7); err != nil || partial.String() != "ok 7" {
		t.Errorf("RenderPartial() = %q, %v", partial.String(), err)
	}

	if err := tmpl.Render(&page, "missing", nil); err == nil {
		t.Error("Render(missing) error = nil")
	}
	if err := tmpl.RenderPartial(&partial, "missing", nil); err == nil {
		t.Error("RenderPartial(missing) error = nil")
	}
}
