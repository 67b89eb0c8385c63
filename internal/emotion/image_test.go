package emotion

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"testing"
)

// encodeGray renders a w×h grayscale PNG whose pixels come from fill.
func encodeGray(t *testing.T, w, h int, fill func(x, y int) uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: fill(x, y)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func uniform(v uint8) func(x, y int) uint8 {
	return func(int, int) uint8 { return v }
}

func checker(a, b uint8) func(x, y int) uint8 {
	return func(x, y int) uint8 {
		if (x+y)%2 == 0 {
			return a
		}
		return b
	}
}

func TestClassifyImage(t *testing.T) {
	tests := []struct {
		name string
		fill func(x, y int) uint8
		want Label
	}{
		{"bright flat", uniform(220), Surprised},
		{"bright contrasty", checker(255, 130), Happy},
		{"dark", uniform(20), Sad},
		{"full contrast", checker(0, 255), Angry},
		{"dim flat", uniform(80), Fearful},
		{"mid grey", uniform(128), Neutral},
		{"mid contrast", checker(70, 190), Disgusted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeGray(t, 16, 16, tt.fill)
			got, err := ClassifyImage(data)
			if err != nil {
				t.Fatalf("ClassifyImage() error = %v", err)
			}
			if got.Label != tt.want {
				t.Errorf("Label = %s (brightness %.1f, contrast %.1f), want %s",
					got.Label, got.Brightness, got.Contrast, tt.want)
			}

			sum := 0
			for _, l := range All() {
				v, ok := got.Confidence[l]
				if !ok {
					t.Errorf("missing confidence for %s", l)
				}
				sum += v
			}
			if sum != 100 {
				t.Errorf("confidence sums to %d, want 100", sum)
			}
			for l, v := range got.Confidence {
				if l != got.Label && v >= got.Confidence[got.Label] {
					t.Errorf("%s confidence %d not below chosen label's %d", l, v, got.Confidence[got.Label])
				}
			}
		})
	}
}

func TestClassifyImageInvalid(t *testing.T) {
	_, err := ClassifyImage([]byte("definitely not an image"))
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("ClassifyImage() error = %v, want ErrInvalidImage", err)
	}
}

func TestConfidenceSumsTo100(t *testing.T) {
	for _, contrast := range []float64{0, 13, 59.9, 120, 500} {
		for _, l := range All() {
			sum := 0
			for _, v := range confidence(l, contrast) {
				sum += v
			}
			if sum != 100 {
				t.Errorf("confidence(%s, %v) sums to %d", l, contrast, sum)
			}
		}
	}
}

func TestRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	seen := make(map[Label]bool)
	for i := 0; i < 200; i++ {
		l := Random(rng, WebcamLabels)
		seen[l] = true
		if l == Fearful || l == Disgusted {
			t.Fatalf("Random() returned %s outside the webcam set", l)
		}
	}
	if len(seen) != len(WebcamLabels) {
		t.Errorf("saw %d distinct labels in 200 draws, want %d", len(seen), len(WebcamLabels))
	}
}
