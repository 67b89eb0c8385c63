// Package spotify looks up catalogue links for recommended tracks through the
// Spotify Web API.
package spotify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/zmb3/spotify/v2"
)

// Client wraps the Spotify API client with a track link lookup.
type Client struct {
	api *spotify.Client

	// key = "{artist}\x00{track}", value = URL or "" for no match
	cache   map[string]string
	cacheMu sync.RWMutex
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client) *Client {
	return &Client{
		api:   api,
		cache: make(map[string]string),
	}
}

// TrackURL returns the open.spotify.com URL of the best catalogue match for
// the track, or "" when nothing matches. Results, including misses, are cached.
func (c *Client) TrackURL(ctx context.Context, artist, track string) (string, error) {
	key := artist + "\x00" + track

	c.cacheMu.RLock()
	if cached, ok := c.cache[key]; ok {
		c.cacheMu.RUnlock()
		return cached, nil
	}
	c.cacheMu.RUnlock()

	result, err := c.api.Search(ctx, searchQuery(artist, track), spotify.SearchTypeTrack, spotify.Limit(5))
	if err != nil {
		return "", fmt.Errorf("searching track: %w", err)
	}

	var url string
	if result.Tracks != nil {
		url = pickURL(result.Tracks.Tracks, artist)
	}

	c.cacheMu.Lock()
	c.cache[key] = url
	c.cacheMu.Unlock()

	return url, nil
}

// searchQuery builds a field-filtered search query. Quotes in names are
// dropped because the search syntax has no escape for them.
func searchQuery(artist, track string) string {
	clean := func(s string) string {
		return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
	}

	q := fmt.Sprintf(`track:"%s"`, clean(track))
	if a := clean(artist); a != "" {
		q += fmt.Sprintf(` artist:"%s"`, a)
	}
	return q
}

// pickURL prefers the first result credited to artist, falling back to the
// first result with a link.
func pickURL(tracks []spotify.FullTrack, artist string) string {
	var fallback string
	for _, t := range tracks {
		url := t.ExternalURLs["spotify"]
		if url == "" {
			continue
		}
		for _, a := range t.Artists {
			if strings.EqualFold(a.Name, artist) {
				return url
			}
		}
		if fallback == "" {
			fallback = url
		}
	}
	return fallback
}
