package spotify

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrMissingCredentials is returned when the client ID or secret is empty.
var ErrMissingCredentials = errors.New("missing Spotify client ID or secret")

// Config holds Spotify application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	Timeout      time.Duration // per HTTP request (default: 10s)
}

// Validate reports whether the configuration can be used.
func (c Config) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

// NewWithCredentials creates a client authenticated with the client
// credentials flow. Catalogue search needs no user authorization. Tokens are
// fetched lazily and refreshed automatically.
func NewWithCredentials(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	// The token source outlives any single request, so it gets its own
	// context carrying the HTTP client used for token fetches.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	httpClient := creds.Client(ctx)
	httpClient.Timeout = timeout

	return New(spotify.New(httpClient)), nil
}
