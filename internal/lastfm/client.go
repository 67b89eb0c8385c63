package lastfm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	baseURL   = "https://ws.audioscrobbler.com/2.0/"
	userAgent = "moodmate/1.0"
)

// Last.fm API error codes.
const (
	errCodeInvalidAPIKey = 10
	errCodeRateLimited   = 29
)

// Sentinel errors.
var (
	// ErrRateLimited is returned when the API rate limit is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidAPIKey is returned when the API key is invalid.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("last.fm temporarily unavailable")
)

var defaultRetryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// Client is a Last.fm API client with caching, retry on rate limit and a
// circuit breaker. It is safe for concurrent use.
type Client struct {
	apiKey      string
	httpClient  *http.Client
	baseURL     string
	retryDelays []time.Duration
	breaker     *gobreaker.CircuitBreaker[[]byte]

	// key = "track:{artist}:{track}" or "artist:{artist}"
	cache   map[string][]Tag
	cacheMu sync.RWMutex
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryDelays sets the waits between rate-limited attempts.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(c *Client) {
		c.retryDelays = delays
	}
}

// NewClient creates a new Last.fm API client from the provided configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		apiKey:      cfg.APIKey,
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		retryDelays: defaultRetryDelays,
		breaker:     newBreaker(breakerName),
		cache:       make(map[string][]Tag),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TopTag returns the most popular genre-like tag for a track (or its artist),
// or "" when Last.fm has none.
func (c *Client) TopTag(ctx context.Context, artist, track string) (string, error) {
	tags, err := c.GetTags(ctx, artist, track)
	if err != nil {
		return "", err
	}
	return Genre(tags, artist), nil
}

// GetTags fetches tags for a track, falling back to artist tags if track has none.
// Results are cached in memory. Returns an empty slice (not nil) if no tags are found.
func (c *Client) GetTags(ctx context.Context, artist, track string) ([]Tag, error) {
	tags, err := c.getTrackTags(ctx, artist, track)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		return tags, nil
	}
	return c.getArtistTags(ctx, artist)
}

func (c *Client) getTrackTags(ctx context.Context, artist, track string) ([]Tag, error) {
	params := url.Values{
		"method":      {"track.getTopTags"},
		"artist":      {artist},
		"track":       {track},
		"autocorrect": {"1"},
		"format":      {"json"},
		"api_key":     {c.apiKey},
	}

	return c.cachedTags(ctx, fmt.Sprintf("track:%s:%s", artist, track), params, func(body []byte) ([]Tag, error) {
		var resp topTagsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("parsing track tags response: %w", err)
		}
		return resp.TopTags.Tag, nil
	})
}

func (c *Client) getArtistTags(ctx context.Context, artist string) ([]Tag, error) {
	params := url.Values{
		"method":      {"artist.getTopTags"},
		"artist":      {artist},
		"autocorrect": {"1"},
		"format":      {"json"},
		"api_key":     {c.apiKey},
	}

	return c.cachedTags(ctx, "artist:"+artist, params, func(body []byte) ([]Tag, error) {
		var resp topTagsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("parsing artist tags response: %w", err)
		}
		return resp.TopTags.Tag, nil
	})
}

// cachedTags serves key from the cache or fetches and parses it.
func (c *Client) cachedTags(ctx context.Context, key string, params url.Values, parse func([]byte) ([]Tag, error)) ([]Tag, error) {
	c.cacheMu.RLock()
	if cached, ok := c.cache[key]; ok {
		c.cacheMu.RUnlock()
		return cached, nil
	}
	c.cacheMu.RUnlock()

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", params.Get("method"), err)
	}

	tags, err := parse(body)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []Tag{}
	}

	c.cacheMu.Lock()
	c.cache[key] = tags
	c.cacheMu.Unlock()

	return tags, nil
}

// doRequest performs a GET through the circuit breaker, retrying on rate
// limit after each of the configured delays.
func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	return c.execute(func() ([]byte, error) {
		var lastErr error
		for attempt := 0; attempt <= len(c.retryDelays); attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(c.retryDelays[attempt-1]):
				}
			}

			body, err := c.doSingleRequest(ctx, reqURL)
			if err == nil {
				return body, nil
			}
			if errors.Is(err, ErrRateLimited) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return nil, lastErr
	})
}

func (c *Client) doSingleRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
		switch apiErr.Code {
		case errCodeRateLimited:
			return nil, ErrRateLimited
		case errCodeInvalidAPIKey:
			return nil, ErrInvalidAPIKey
		default:
			return nil, fmt.Errorf("API error %d: %s", apiErr.Code, apiErr.Message)
		}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}
