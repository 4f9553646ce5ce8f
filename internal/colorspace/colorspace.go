package colorspace

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/mat"
)

// Linear is an RGB triple in linear light (gamma-expanded sRGB primaries).
// Channels are nominally in [0,1].
type Linear struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// RGB8 is a display-referred 8-bit sRGB color.
type RGB8 struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// Lab is a CIE L*a*b* color referenced to the D50 white point.
type Lab struct {
	L float64 `json:"l"` // Lightness: 0 (black) to 100 (reference white)
	A float64 `json:"a"` // Green (-) to red (+)
	B float64 `json:"b"` // Blue (-) to yellow (+)
}

// Clamped returns c with every channel limited to [0,1].
func (c Linear) Clamped() Linear {
	return Linear{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B)}
}

// Luma returns the Rec. 709 luminance of c, using linear-light weights.
func (c Linear) Luma() float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// Chroma returns the max-min spread of the channels, a cheap saturation proxy.
func (c Linear) Chroma() float64 {
	return max(c.R, c.G, c.B) - min(c.R, c.G, c.B)
}

// Decode converts an 8-bit sRGB color to linear light.
func Decode(c RGB8) Linear {
	r, g, b := colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}.LinearRgb()
	return Linear{R: r, G: g, B: b}
}

// Encode converts a linear color to 8-bit sRGB. Channels are clamped to
// [0,1] first and rounded half up after scaling.
func Encode(c Linear) RGB8 {
	c = c.Clamped()
	r, g, b := colorful.LinearRgb(c.R, c.G, c.B).Clamped().RGB255()
	return RGB8{R: r, G: g, B: b}
}

// Hex formats c as "#RRGGBB" with uppercase digits.
func Hex(c RGB8) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseHex parses "#RRGGBB" (either case) into an RGB8.
func ParseHex(s string) (RGB8, error) {
	if len(s) != 7 || s[0] != '#' {
		return RGB8{}, fmt.Errorf("invalid hex color %q: want #RRGGBB", s)
	}
	col, err := colorful.Hex(s)
	if err != nil {
		return RGB8{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := col.RGB255()
	return RGB8{R: r, G: g, B: b}, nil
}

// Reference whites, Y normalized to 1.
var (
	whiteD65 = colorful.D65
	whiteD50 = colorful.D50
)

// bradford maps XYZ into the Bradford cone-response space.
var bradford = mat.NewDense(3, 3, []float64{
	0.8951, 0.2664, -0.1614,
	-0.7502, 1.7135, 0.0367,
	0.0389, -0.0685, 1.0296,
})

// adaptD65ToD50 is M⁻¹·diag(ρ50/ρ65)·M for the Bradford matrix M.
var adaptD65ToD50 = mustBradfordAdaptation(whiteD65, whiteD50)

// bradfordAdaptation builds the matrix adapting XYZ values from the src
// white point to the dst white point.
func bradfordAdaptation(src, dst [3]float64) (*mat.Dense, error) {
	var srcCone, dstCone mat.VecDense
	srcCone.MulVec(bradford, mat.NewVecDense(3, src[:]))
	dstCone.MulVec(bradford, mat.NewVecDense(3, dst[:]))

	scale := mat.NewDiagDense(3, []float64{
		dstCone.AtVec(0) / srcCone.AtVec(0),
		dstCone.AtVec(1) / srcCone.AtVec(1),
		dstCone.AtVec(2) / srcCone.AtVec(2),
	})

	var inv mat.Dense
	if err := inv.Inverse(bradford); err != nil {
		return nil, fmt.Errorf("invert bradford matrix: %w", err)
	}

	var adapt mat.Dense
	adapt.Product(&inv, scale, bradford)
	return &adapt, nil
}

func mustBradfordAdaptation(src, dst [3]float64) *mat.Dense {
	m, err := bradfordAdaptation(src, dst)
	if err != nil {
		panic(err)
	}
	return m
}

// ToLabD50 converts a linear sRGB color to CIE Lab under D50.
//
// The color is taken to XYZ under the sRGB (D65) primaries, chromatically
// adapted to D50 with the Bradford transform, then mapped to Lab against the
// D50 reference white (0.96422, 1.0, 0.82521).
func ToLabD50(c Linear) Lab {
	c = c.Clamped()
	x, y, z := colorful.LinearRgbToXyz(c.R, c.G, c.B)

	var d50 mat.VecDense
	d50.MulVec(adaptD65ToD50, mat.NewVecDense(3, []float64{x, y, z}))

	l, a, b := colorful.XyzToLabWhiteRef(d50.AtVec(0), d50.AtVec(1), d50.AtVec(2), whiteD50)
	return Lab{L: l * 100, A: a * 100, B: b * 100}
}

// DeltaE2000 returns the CIEDE2000 difference between two display colors.
func DeltaE2000(a, b RGB8) float64 {
	ca := colorful.Color{R: float64(a.R) / 255.0, G: float64(a.G) / 255.0, B: float64(a.B) / 255.0}
	cb := colorful.Color{R: float64(b.R) / 255.0, G: float64(b.G) / 255.0, B: float64(b.B) / 255.0}
	return ca.DistanceCIEDE2000(cb) * 100
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
