package emotion

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders for image.Decode
	_ "image/jpeg"
	_ "image/png"
	"math"
	"math/rand/v2"
)

// ErrInvalidImage is returned when image bytes cannot be decoded.
var ErrInvalidImage = errors.New("invalid image")

// ImageMode selects how uploaded images are turned into a label.
type ImageMode string

const (
	// ImageRandom picks a uniformly random label and ignores the pixels.
	ImageRandom ImageMode = "random"
	// ImageHeuristic derives a label from brightness and contrast.
	ImageHeuristic ImageMode = "heuristic"
)

// WebcamLabels is the reduced set the webcam capture picks from.
var WebcamLabels = []Label{Happy, Sad, Angry, Neutral, Surprised}

// maxSamples caps how many pixels are inspected per image.
const maxSamples = 256 * 256

// ImageResult is the outcome of the brightness heuristic.
type ImageResult struct {
	Label      Label
	Brightness float64 // mean luminance, 0-255
	Contrast   float64 // luminance standard deviation
	// Confidence holds an integer percentage for every label; values sum to 100.
	Confidence map[Label]int
}

// Random returns a uniformly random element of labels.
// It panics if labels is empty.
func Random(rng *rand.Rand, labels []Label) Label {
	return labels[rng.IntN(len(labels))]
}

// ClassifyImage decodes data (JPEG, PNG or GIF) and maps its luminance
// statistics onto a label. This is not facial expression recognition.
func ClassifyImage(data []byte) (ImageResult, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ImageResult{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	brightness, contrast := luminanceStats(img)
	label := labelForLuminance(brightness, contrast)

	return ImageResult{
		Label:      label,
		Brightness: brightness,
		Contrast:   contrast,
		Confidence: confidence(label, contrast),
	}, nil
}

// luminanceStats returns the mean and standard deviation of Rec. 601 luma,
// sampling on a grid when the image is large.
func luminanceStats(img image.Image) (mean, stddev float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0, 0
	}

	step := 1
	for (w/step)*(h/step) > maxSamples {
		step++
	}

	var sum, sumSq float64
	var n int
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, _ := img.At(x, y).RGBA()
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
			sum += lum
			sumSq += lum * lum
			n++
		}
	}

	mean = sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// labelForLuminance applies fixed thresholds, first match wins.
func labelForLuminance(brightness, contrast float64) Label {
	switch {
	case brightness >= 170 && contrast >= 60:
		return Happy
	case brightness >= 170:
		return Surprised
	case brightness < 60:
		return Sad
	case contrast >= 75:
		return Angry
	case brightness < 100:
		return Fearful
	case contrast >= 55:
		return Disgusted
	default:
		return Neutral
	}
}

// confidence builds a synthetic distribution: the chosen label gets 40-70
// depending on contrast, the rest is split evenly with the remainder going to
// the earliest labels in All order.
func confidence(chosen Label, contrast float64) map[Label]int {
	primary := 40 + int(math.Min(contrast, 120)/4)

	out := make(map[Label]int, len(all))
	out[chosen] = primary

	rest := 100 - primary
	others := len(all) - 1
	base, extra := rest/others, rest%others
	for _, l := range all {
		if l == chosen {
			continue
		}
		out[l] = base
		if extra > 0 {
			out[l]++
			extra--
		}
	}
	return out
}
