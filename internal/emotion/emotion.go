// Package emotion defines the closed set of emotion labels and the simple
// detectors that map text, images, and webcam captures onto them.
package emotion

import (
	"errors"
	"fmt"
	"strings"
)

// Label is one of the seven emotions used across detection, partitioning and
// API responses.
type Label string

// The closed label set.
const (
	Happy     Label = "Happy"
	Sad       Label = "Sad"
	Angry     Label = "Angry"
	Neutral   Label = "Neutral"
	Fearful   Label = "Fearful"
	Surprised Label = "Surprised"
	Disgusted Label = "Disgusted"
)

// ErrUnknownLabel is returned when a string does not name a known emotion.
var ErrUnknownLabel = errors.New("unknown emotion")

// all lists the labels in the order the image detector reports them.
var all = []Label{Happy, Sad, Angry, Neutral, Surprised, Fearful, Disgusted}

// fineGrained maps the fine-grained emotion names produced by text emotion
// models onto the seven labels.
var fineGrained = map[string]Label{
	"joy":          Happy,
	"love":         Happy,
	"excitement":   Happy,
	"amusement":    Happy,
	"interest":     Neutral,
	"satisfaction": Neutral,
	"calmness":     Neutral,
	"sadness":      Sad,
	"anger":        Angry,
	"fear":         Fearful,
	"disgust":      Disgusted,
	"surprise":     Surprised,
}

// All returns every label. The returned slice is a copy.
func All() []Label {
	out := make([]Label, len(all))
	copy(out, all)
	return out
}

// Valid reports whether l is one of the seven labels.
func (l Label) Valid() bool {
	for _, known := range all {
		if l == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (l Label) String() string {
	return string(l)
}

// Parse resolves s to a label. Canonical names match case-insensitively;
// fine-grained names such as "joy" or "calmness" resolve to their mapped label.
func Parse(s string) (Label, error) {
	name := strings.TrimSpace(s)
	for _, l := range all {
		if strings.EqualFold(name, string(l)) {
			return l, nil
		}
	}
	if l, ok := fineGrained[strings.ToLower(name)]; ok {
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLabel, s)
}

// ParseAll resolves every element of names, stopping at the first failure.
func ParseAll(names []string) ([]Label, error) {
	labels := make([]Label, 0, len(names))
	for _, n := range names {
		l, err := Parse(n)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, nil
}
