package sampling

import (
	"image"

	"github.com/ironsheep/color-probe-mcp/internal/calibration"
	"github.com/ironsheep/color-probe-mcp/internal/colorspace"
)

// PointSampler measures a square window around a pixel.
type PointSampler struct {
	Policy Policy
}

// NewPointSampler returns a sampler using DefaultPointPolicy.
func NewPointSampler() *PointSampler {
	return &PointSampler{Policy: DefaultPointPolicy()}
}

// MeasureAt measures the window of side windowSize centered on (x, y) with
// the default point policy.
func MeasureAt(src PixelSource, x, y, windowSize int, cal calibration.Snapshot) (Result, error) {
	return NewPointSampler().MeasureAt(src, x, y, windowSize, cal)
}

// MeasureAt measures the window of side windowSize centered on (x, y).
//
// The center is clamped into the image and the window is clipped to the
// image bounds; windowSize values below 1 are treated as 1. When every
// sample is weighted away the center pixel's color is returned with note
// "fallback". An error is returned only if src is empty or fails to read.
func (s *PointSampler) MeasureAt(src PixelSource, x, y, windowSize int, cal calibration.Snapshot) (Result, error) {
	width, height := src.Size()
	if width <= 0 || height <= 0 {
		return Result{}, ErrEmptySource
	}

	windowSize = max(windowSize, 1)
	x = clampInt(x, 0, width-1)
	y = clampInt(y, 0, height-1)

	half := windowSize / 2
	window := image.Rect(x-half, y-half, x-half+windowSize, y-half+windowSize).
		Intersect(image.Rect(0, 0, width, height))

	pix, err := readPixels(src, window)
	if err != nil {
		return Result{}, err
	}

	samples := make([]sample, 0, window.Dx()*window.Dy())
	clipped := 0
	for i := 0; i+2 < len(pix); i += 3 {
		r, g, b := pix[i], pix[i+1], pix[i+2]
		if isClipped(r, g, b) {
			clipped++
		}
		samples = append(samples, sample{c: colorspace.Decode(colorspace.RGB8{R: r, G: g, B: b}), w: 1})
	}
	center := samples[(y-window.Min.Y)*window.Dx()+(x-window.Min.X)].c

	out := s.Policy.aggregate(samples, clipped, center)
	color := out.mean
	if out.degenerate {
		color = center
	}
	quality, _, note := s.Policy.score(out.kept, color, out.clipped)
	if out.degenerate {
		note = NoteFallback
	}
	return finalize(color, cal, quality, note), nil
}
