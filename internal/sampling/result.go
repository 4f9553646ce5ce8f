package sampling

import (
	"github.com/ironsheep/color-probe-mcp/internal/calibration"
	"github.com/ironsheep/color-probe-mcp/internal/colorspace"
)

// Result is one color measurement.
//
// RGB is always the 8-bit encoding of Linear and Hex is always RGB formatted
// as "#RRGGBB".
type Result struct {
	Linear     colorspace.Linear `json:"linear_rgb"`
	RGB        colorspace.RGB8   `json:"rgb"`
	Hex        string            `json:"hex"`
	Lab        colorspace.Lab    `json:"lab_d50"`
	Quality    float64           `json:"quality"` // 0 (unreliable) to 1 (clean, uniform patch)
	Note       string            `json:"note"`
	Calibrated bool              `json:"calibrated"`
}

// finalize applies calibration and produces the encoded representations.
func finalize(c colorspace.Linear, cal calibration.Snapshot, quality float64, note string) Result {
	c = c.Clamped()
	ready := cal.Ready()
	if ready {
		c = cal.Apply(c).Clamped()
	}
	rgb := colorspace.Encode(c)
	return Result{
		Linear:     c,
		RGB:        rgb,
		Hex:        colorspace.Hex(rgb),
		Lab:        colorspace.ToLabD50(c),
		Quality:    quality,
		Note:       note,
		Calibrated: ready,
	}
}
