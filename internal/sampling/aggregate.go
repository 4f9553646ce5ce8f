package sampling

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/color-probe-mcp/internal/colorspace"
)

// Diagnostic notes attached to a Result.
const (
	NoteOK         = "ok"
	NoteHighlights = "highlights"
	NoteMixedArea  = "mixed area"
	NoteTextured   = "textured"
	NoteFallback   = "fallback"
)

// Reference selects the color samples are ranked against for outlier
// rejection.
type Reference int

const (
	// CenterPixel ranks against the pixel at the tapped coordinate.
	CenterPixel Reference = iota
	// ChannelMedian ranks against the per-channel median of all samples.
	ChannelMedian
)

// minWeight is the total weight below which an aggregate is degenerate.
const minWeight = 1e-9

// clipLevel is the 8-bit value at or above which a channel counts as clipped.
const clipLevel = 254

// Policy holds the weighting and rejection constants of the aggregator.
//
// Each photometric rule multiplies a sample's weight by Factor when its luma
// exceeds (highlights) or falls below (shadows) the threshold. A factor of 1
// disables the rule.
type Policy struct {
	HighlightLuma   float64 // near-neutral highlight: luma above...
	HighlightChroma float64 // ...and chroma below
	HighlightFactor float64

	SpecularLuma   float64
	SpecularChroma float64
	SpecularFactor float64

	ShadowLuma   float64
	ShadowFactor float64

	DeepShadowLuma   float64
	DeepShadowFactor float64

	// KeepFraction of the samples nearest the reference survive rejection,
	// but never fewer than MinKeep (or all of them, if there are fewer).
	KeepFraction float64
	MinKeep      int

	// SpreadSamples caps how many kept samples feed the spread estimate.
	SpreadSamples int

	Reference Reference

	// Notes: "highlights" when the clipped fraction exceeds ClippedNoteAbove,
	// otherwise SpreadNote when the spread exceeds SpreadNoteAbove.
	ClippedNoteAbove float64
	SpreadNoteAbove  float64
	SpreadNote       string
}

// DefaultPointPolicy returns the policy used for window sampling.
func DefaultPointPolicy() Policy {
	return Policy{
		HighlightLuma:    0.80,
		HighlightChroma:  0.08,
		HighlightFactor:  0.20,
		SpecularLuma:     0.92,
		SpecularChroma:   0.05,
		SpecularFactor:   0.10,
		ShadowLuma:       0.06,
		ShadowFactor:     0.60,
		DeepShadowLuma:   0.03,
		DeepShadowFactor: 0.35,
		KeepFraction:     0.55,
		MinKeep:          16,
		SpreadSamples:    32,
		Reference:        CenterPixel,
		ClippedNoteAbove: 0.2,
		SpreadNoteAbove:  0.18,
		SpreadNote:       NoteMixedArea,
	}
}

// DefaultRegionPolicy returns the policy used for polygon sampling. Shadows
// are treated more gently than in a window and there is no specular rule.
func DefaultRegionPolicy() Policy {
	return Policy{
		HighlightLuma:    0.80,
		HighlightChroma:  0.08,
		HighlightFactor:  0.20,
		SpecularFactor:   1,
		ShadowLuma:       0.06,
		ShadowFactor:     0.70,
		DeepShadowFactor: 1,
		KeepFraction:     0.65,
		MinKeep:          64,
		SpreadSamples:    128,
		Reference:        ChannelMedian,
		ClippedNoteAbove: math.Inf(1),
		SpreadNoteAbove:  0.20,
		SpreadNote:       NoteTextured,
	}
}

// sample is one decoded pixel during a single aggregation.
type sample struct {
	c colorspace.Linear
	w float64
	d float64 // squared distance to the reference
}

// outcome is the result of one aggregation pass.
type outcome struct {
	mean       colorspace.Linear
	kept       []sample
	clipped    float64
	degenerate bool
}

// factor returns the photometric weight multiplier for c.
func (p Policy) factor(c colorspace.Linear) float64 {
	luma, chroma := c.Luma(), c.Chroma()
	f := 1.0
	if luma > p.HighlightLuma && chroma < p.HighlightChroma {
		f *= p.HighlightFactor
	}
	if luma > p.SpecularLuma && chroma < p.SpecularChroma {
		f *= p.SpecularFactor
	}
	if luma < p.ShadowLuma {
		f *= p.ShadowFactor
	}
	if luma < p.DeepShadowLuma {
		f *= p.DeepShadowFactor
	}
	return f
}

// keepCount returns how many of n ranked samples survive rejection.
func (p Policy) keepCount(n int) int {
	k := int(math.Round(p.KeepFraction * float64(n)))
	if k < p.MinKeep {
		k = p.MinKeep
	}
	if k > n {
		k = n
	}
	return k
}

// aggregate weighs, ranks, trims and averages samples. clipped is the number
// of clipped pixels among them; center is the reference for CenterPixel.
// samples is reordered in place.
func (p Policy) aggregate(samples []sample, clipped int, center colorspace.Linear) outcome {
	out := outcome{}
	if len(samples) == 0 {
		out.degenerate = true
		return out
	}
	out.clipped = float64(clipped) / float64(len(samples))

	for i := range samples {
		samples[i].w *= p.factor(samples[i].c)
	}

	ref := center
	if p.Reference == ChannelMedian {
		ref = channelMedian(samples)
	}
	for i := range samples {
		samples[i].d = distSq(samples[i].c, ref)
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].d < samples[j].d })

	out.kept = samples[:p.keepCount(len(samples))]
	mean, ok := weightedMean(out.kept)
	if !ok {
		out.degenerate = true
		return out
	}
	out.mean = mean
	return out
}

// score computes the quality, spread and note for a final color.
//
// Spread is measured over the first SpreadSamples entries of kept, which
// are ordered by distance to the reference used during trimming, not
// re-ranked against color.
func (p Policy) score(kept []sample, color colorspace.Linear, clipped float64) (quality, spread float64, note string) {
	n := min(len(kept), p.SpreadSamples)
	if n > 0 {
		d := make([]float64, n)
		for i := range d {
			d[i] = distSq(kept[i].c, color)
		}
		spread = math.Sqrt(stat.Mean(d, nil))
	}

	quality = clampRange(1-spread/0.25, 0, 1) * clampRange(1-clipped, 0.4, 1)

	switch {
	case clipped > p.ClippedNoteAbove:
		note = NoteHighlights
	case spread > p.SpreadNoteAbove:
		note = p.SpreadNote
	default:
		note = NoteOK
	}
	return quality, spread, note
}

// weightedMean returns Σ(w·c)/Σw, or false when Σw is below minWeight.
func weightedMean(samples []sample) (colorspace.Linear, bool) {
	r := make([]float64, len(samples))
	g := make([]float64, len(samples))
	b := make([]float64, len(samples))
	w := make([]float64, len(samples))
	for i, s := range samples {
		r[i], g[i], b[i], w[i] = s.c.R, s.c.G, s.c.B, s.w
	}
	if floats.Sum(w) < minWeight {
		return colorspace.Linear{}, false
	}
	return colorspace.Linear{
		R: stat.Mean(r, w),
		G: stat.Mean(g, w),
		B: stat.Mean(b, w),
	}, true
}

// channelMedian returns the per-channel median of the sample colors.
func channelMedian(samples []sample) colorspace.Linear {
	ch := make([]float64, len(samples))
	median := func(get func(colorspace.Linear) float64) float64 {
		for i, s := range samples {
			ch[i] = get(s.c)
		}
		sort.Float64s(ch)
		return stat.Quantile(0.5, stat.Empirical, ch, nil)
	}
	return colorspace.Linear{
		R: median(func(c colorspace.Linear) float64 { return c.R }),
		G: median(func(c colorspace.Linear) float64 { return c.G }),
		B: median(func(c colorspace.Linear) float64 { return c.B }),
	}
}

// isClipped reports whether all three 8-bit channels are saturated.
func isClipped(r, g, b uint8) bool {
	return r >= clipLevel && g >= clipLevel && b >= clipLevel
}

func distSq(a, b colorspace.Linear) float64 {
	dr, dg, db := a.R-b.R, a.G-b.G, a.B-b.B
	return dr*dr + dg*dg + db*db
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
