package lastfm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func topTags(tags ...Tag) topTagsResponse {
	var resp topTagsResponse
	resp.TopTags.Tag = tags
	return resp
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(Config{APIKey: "test-api-key"},
		WithBaseURL(server.URL+"/"),
		WithHTTPClient(server.Client()),
		WithRetryDelays(time.Millisecond, time.Millisecond, time.Millisecond),
	)
}

func TestGetTags(t *testing.T) {
	tests := []struct {
		name           string
		trackResponse  any
		artistResponse any
		wantTags       []string
		wantErr        error
	}{
		{
			name: "track has tags",
			trackResponse: topTags(
				Tag{Name: "alternative", Count: 100},
				Tag{Name: "rock", Count: 80},
			),
			wantTags: []string{"alternative", "rock"},
		},
		{
			name:           "track empty falls back to artist",
			trackResponse:  topTags(),
			artistResponse: topTags(Tag{Name: "pop"}, Tag{Name: "dance"}),
			wantTags:       []string{"pop", "dance"},
		},
		{
			name:           "both empty returns empty slice",
			trackResponse:  topTags(),
			artistResponse: topTags(),
			wantTags:       []string{},
		},
		{
			name:          "invalid API key",
			trackResponse: errorResponse{Code: 10, Message: "Invalid API key"},
			wantErr:       ErrInvalidAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch method := r.URL.Query().Get("method"); method {
				case "track.getTopTags":
					writeJSON(w, tt.trackResponse)
				case "artist.getTopTags":
					writeJSON(w, tt.artistResponse)
				default:
					t.Errorf("unexpected method: %s", method)
				}
			}))
			defer server.Close()

			tags, err := newTestClient(server).GetTags(context.Background(), "Artist", "Track")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetTags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			if tags == nil {
				t.Fatal("GetTags() returned nil slice")
			}
			if len(tags) != len(tt.wantTags) {
				t.Fatalf("GetTags() got %d tags, want %d", len(tags), len(tt.wantTags))
			}
			for i, tag := range tags {
				if tag.Name != tt.wantTags[i] {
					t.Errorf("tag[%d].Name = %s, want %s", i, tag.Name, tt.wantTags[i])
				}
			}
		})
	}
}

func TestTopTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("track") == "Tagged" {
			writeJSON(w, topTags(Tag{Name: "seen live"}, Tag{Name: "Artist"}, Tag{Name: "Indie Pop"}, Tag{Name: "rock"}))
			return
		}
		writeJSON(w, topTags())
	}))
	defer server.Close()

	client := newTestClient(server)

	got, err := client.TopTag(context.Background(), "Artist", "Tagged")
	if err != nil {
		t.Fatalf("TopTag() error = %v", err)
	}
	if got != "indie pop" {
		t.Errorf("TopTag() = %q, want indie pop", got)
	}

	got, err = client.TopTag(context.Background(), "Artist", "Untagged")
	if err != nil {
		t.Fatalf("TopTag() error = %v", err)
	}
	if got != "" {
		t.Errorf("TopTag() = %q, want empty", got)
	}
}

func TestGetTags_Caching(t *testing.T) {
	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		writeJSON(w, topTags(Tag{Name: "rock", Count: 100}))
	}))
	defer server.Close()

	client := newTestClient(server)

	for i := range 2 {
		tags, err := client.GetTags(context.Background(), "Artist", "Track")
		if err != nil {
			t.Fatalf("call %d: GetTags() error = %v", i, err)
		}
		if len(tags) != 1 {
			t.Fatalf("call %d: got %d tags, want 1", i, len(tags))
		}
	}

	if count := requestCount.Load(); count != 1 {
		t.Errorf("Expected 1 request, got %d", count)
	}
}

func TestGetTags_RateLimitRetry(t *testing.T) {
	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Fail first 2 requests with rate limit, succeed on 3rd
		if requestCount.Add(1) < 3 {
			writeJSON(w, errorResponse{Code: 29, Message: "Rate limit exceeded"})
			return
		}
		writeJSON(w, topTags(Tag{Name: "rock", Count: 100}))
	}))
	defer server.Close()

	tags, err := newTestClient(server).GetTags(context.Background(), "Artist", "Track")
	if err != nil {
		t.Fatalf("GetTags() error = %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "rock" {
		t.Errorf("GetTags() got unexpected tags: %v", tags)
	}
	if count := requestCount.Load(); count != 3 {
		t.Errorf("Expected 3 requests, got %d", count)
	}
}

func TestGetTags_RateLimitExhausted(t *testing.T) {
	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		writeJSON(w, errorResponse{Code: 29, Message: "Rate limit exceeded"})
	}))
	defer server.Close()

	_, err := newTestClient(server).GetTags(context.Background(), "Artist", "Track")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("GetTags() error = %v, want ErrRateLimited", err)
	}

	// 1 initial + 3 retries
	if count := requestCount.Load(); count != 4 {
		t.Errorf("Expected 4 requests, got %d", count)
	}
}

func TestCircuitBreakerOpens(t *testing.T) {
	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server)

	for i := range breakerTripAfter {
		_, err := client.GetTags(context.Background(), "Artist", string(rune('a'+i)))
		if err == nil || errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: error = %v, want upstream failure", i, err)
		}
	}

	_, err := client.GetTags(context.Background(), "Artist", "z")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("GetTags() error = %v, want ErrUnavailable", err)
	}
	if count := requestCount.Load(); count != breakerTripAfter {
		t.Errorf("Expected %d requests, got %d", breakerTripAfter, count)
	}
}

func TestCanceledContextDoesNotTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, topTags(Tag{Name: "rock"}))
	}))
	defer server.Close()

	client := newTestClient(server)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for range breakerTripAfter + 1 {
		if _, err := client.GetTags(ctx, "Artist", "Track"); errors.Is(err, ErrUnavailable) {
			t.Fatal("breaker opened on canceled requests")
		}
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{APIKey: "test-key"})

	if client.apiKey != "test-key" {
		t.Errorf("NewClient() apiKey = %s, want test-key", client.apiKey)
	}
	if client.httpClient == nil || client.httpClient.Timeout != 10*time.Second {
		t.Error("NewClient() httpClient not configured with default timeout")
	}
	if client.cache == nil {
		t.Error("NewClient() cache is nil")
	}
	if client.baseURL != baseURL {
		t.Errorf("NewClient() baseURL = %s, want %s", client.baseURL, baseURL)
	}
	if len(client.retryDelays) != 3 {
		t.Errorf("NewClient() retryDelays = %v", client.retryDelays)
	}
}

func TestGenre(t *testing.T) {
	tests := []struct {
		name   string
		tags   []Tag
		artist string
		want   string
	}{
		{"first tag", []Tag{{Name: "Trip-Hop"}, {Name: "electronic"}}, "Massive Attack", "trip-hop"},
		{"skips noise", []Tag{{Name: "Seen Live"}, {Name: "favorites"}, {Name: "shoegaze"}}, "Slowdive", "shoegaze"},
		{"skips artist name", []Tag{{Name: "radiohead"}, {Name: "alternative"}}, "Radiohead", "alternative"},
		{"only noise", []Tag{{Name: "love"}, {Name: " "}}, "X", ""},
		{"none", nil, "X", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Genre(tt.tags, tt.artist); got != tt.want {
				t.Errorf("Genre() = %q, want %q", got, tt.want)
			}
		})
	}
}
