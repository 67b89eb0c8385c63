package lastfm

import "strings"

// Tag is a Last.fm tag. Count is only sent by track.getTopTags.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
	URL   string `json:"url"`
}

// topTagsResponse covers both track.getTopTags and artist.getTopTags; the
// "@attr" block differs between them and is not needed.
type topTagsResponse struct {
	TopTags struct {
		Tag []Tag `json:"tag"`
	} `json:"toptags"`
}

// errorResponse is the body Last.fm sends with a non-zero error code.
type errorResponse struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// noiseTags are popular tags that say nothing about genre.
var noiseTags = map[string]bool{
	"seen live":            true,
	"favorites":            true,
	"favourites":           true,
	"favorite":             true,
	"my music":             true,
	"love":                 true,
	"loved":                true,
	"awesome":              true,
	"beautiful":            true,
	"spotify":              true,
	"albums i own":         true,
	"under 2000 listeners": true,
}

// Genre returns the first tag, lowercased, that is neither a bookkeeping tag
// nor the artist's own name.
func Genre(tags []Tag, artist string) string {
	artist = strings.ToLower(strings.TrimSpace(artist))
	for _, t := range tags {
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" || noiseTags[name] || name == artist {
			continue
		}
		return name
	}
	return ""
}
