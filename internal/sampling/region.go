package sampling

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/ironsheep/color-probe-mcp/internal/calibration"
	"github.com/ironsheep/color-probe-mcp/internal/colorspace"
)

const (
	// minCoverage is the 8-bit coverage below which a pixel is excluded.
	minCoverage = 8
	// minRegionPixels is the fewest included pixels a region may have.
	minRegionPixels = 32
)

// Point is a polygon vertex in continuous image coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RegionSampler measures the pixels inside a polygon.
type RegionSampler struct {
	Policy Policy
}

// NewRegionSampler returns a sampler using DefaultRegionPolicy.
func NewRegionSampler() *RegionSampler {
	return &RegionSampler{Policy: DefaultRegionPolicy()}
}

// MeasureInRegion measures the polygon with the default region policy.
func MeasureInRegion(src PixelSource, polygon []Point, cal calibration.Snapshot) (Result, error) {
	return NewRegionSampler().MeasureInRegion(src, polygon, cal)
}

// MeasureInRegion measures the pixels covered by polygon, a simple closed
// polygon (the last vertex connects back to the first).
//
// The polygon is rasterized with antialiasing; each pixel's coverage is its
// starting weight and pixels below about 3% coverage are ignored.
//
// Errors:
//   - ErrRegionTooSmall: fewer than 3 vertices, no overlap with the image,
//     or fewer than 32 covered pixels.
//   - ErrDegenerateAggregate: all covered pixels were weighted away.
func (s *RegionSampler) MeasureInRegion(src PixelSource, polygon []Point, cal calibration.Snapshot) (Result, error) {
	if len(polygon) < 3 {
		return Result{}, fmt.Errorf("%w: need at least 3 vertices, got %d", ErrRegionTooSmall, len(polygon))
	}
	for i, p := range polygon {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return Result{}, fmt.Errorf("%w: vertex %d is not finite", ErrRegionTooSmall, i)
		}
	}

	width, height := src.Size()
	box := polygonBounds(polygon, width, height)
	if box.Empty() {
		return Result{}, fmt.Errorf("%w: region lies outside the image", ErrRegionTooSmall)
	}

	mask := rasterize(polygon, box)
	pix, err := readPixels(src, box)
	if err != nil {
		return Result{}, err
	}

	samples := make([]sample, 0, box.Dx()*box.Dy())
	clipped := 0
	for y := 0; y < box.Dy(); y++ {
		for x := 0; x < box.Dx(); x++ {
			cov := mask.AlphaAt(x, y).A
			if cov < minCoverage {
				continue
			}
			i := (y*box.Dx() + x) * 3
			r, g, b := pix[i], pix[i+1], pix[i+2]
			if isClipped(r, g, b) {
				clipped++
			}
			samples = append(samples, sample{
				c: colorspace.Decode(colorspace.RGB8{R: r, G: g, B: b}),
				w: float64(cov) / 255.0,
			})
		}
	}
	if len(samples) < minRegionPixels {
		return Result{}, fmt.Errorf("%w: %d covered pixels, need %d", ErrRegionTooSmall, len(samples), minRegionPixels)
	}

	out := s.Policy.aggregate(samples, clipped, colorspace.Linear{})
	if out.degenerate {
		return Result{}, ErrDegenerateAggregate
	}
	quality, _, note := s.Policy.score(out.kept, out.mean, out.clipped)
	return finalize(out.mean, cal, quality, note), nil
}

// polygonBounds returns the pixel-aligned bounding box of polygon, clipped
// to a width×height image.
func polygonBounds(polygon []Point, width, height int) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range polygon {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	w, h := float64(width), float64(height)
	return image.Rect(
		int(clampRange(math.Floor(minX), 0, w)),
		int(clampRange(math.Floor(minY), 0, h)),
		int(clampRange(math.Ceil(maxX), 0, w)),
		int(clampRange(math.Ceil(maxY), 0, h)),
	)
}

// rasterize returns the 8-bit coverage of polygon over box. The mask's
// origin is box.Min.
//
// The polygon is first clipped to box plus a one pixel margin so that far
// away vertices never reach the rasterizer's float32 coordinates.
func rasterize(polygon []Point, box image.Rectangle) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, box.Dx(), box.Dy()))

	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	polygon = clipPolygon(polygon, ox-1, oy-1, float64(box.Max.X)+1, float64(box.Max.Y)+1)
	if len(polygon) < 3 {
		return mask
	}

	r := vector.NewRasterizer(box.Dx(), box.Dy())
	r.DrawOp = draw.Src
	r.MoveTo(float32(polygon[0].X-ox), float32(polygon[0].Y-oy))
	for _, p := range polygon[1:] {
		r.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	r.ClosePath()

	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// clipPolygon clips polygon to the rectangle [minX,maxX]×[minY,maxY] one
// edge at a time (Sutherland-Hodgman). The result covers the same area
// inside the rectangle and may be empty.
func clipPolygon(polygon []Point, minX, minY, maxX, maxY float64) []Point {
	edges := []struct {
		inside    func(Point) bool
		intersect func(a, b Point) Point
	}{
		{
			func(p Point) bool { return p.X >= minX },
			func(a, b Point) Point { return Point{minX, a.Y + (b.Y-a.Y)*(minX-a.X)/(b.X-a.X)} },
		},
		{
			func(p Point) bool { return p.X <= maxX },
			func(a, b Point) Point { return Point{maxX, a.Y + (b.Y-a.Y)*(maxX-a.X)/(b.X-a.X)} },
		},
		{
			func(p Point) bool { return p.Y >= minY },
			func(a, b Point) Point { return Point{a.X + (b.X-a.X)*(minY-a.Y)/(b.Y-a.Y), minY} },
		},
		{
			func(p Point) bool { return p.Y <= maxY },
			func(a, b Point) Point { return Point{a.X + (b.X-a.X)*(maxY-a.Y)/(b.Y-a.Y), maxY} },
		},
	}

	out := polygon
	for _, e := range edges {
		if len(out) == 0 {
			break
		}
		in := out
		out = make([]Point, 0, len(in)+4)
		prev := in[len(in)-1]
		for _, cur := range in {
			// the intersect calls only run when the segment crosses the
			// edge, so their denominators are never zero
			switch {
			case e.inside(cur):
				if !e.inside(prev) {
					out = append(out, e.intersect(prev, cur))
				}
				out = append(out, cur)
			case e.inside(prev):
				out = append(out, e.intersect(prev, cur))
			}
			prev = cur
		}
	}
	return out
}
