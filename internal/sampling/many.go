package sampling

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/color-probe-mcp/internal/calibration"
)

// Target is a labelled pixel coordinate to measure.
type Target struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label,omitempty"`
}

// LabeledResult pairs a measurement with the target it came from.
type LabeledResult struct {
	Label  string `json:"label,omitempty"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Result Result `json:"result"`
}

// MeasureMany measures every target concurrently, running at most
// parallelism measurements at a time (unbounded if parallelism < 1).
//
// Results are returned in the same order as targets. All targets share the
// same calibration snapshot. On error no partial results are returned.
func (s *PointSampler) MeasureMany(ctx context.Context, src PixelSource, targets []Target, windowSize int, cal calibration.Snapshot, parallelism int) ([]LabeledResult, error) {
	results := make([]LabeledResult, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := s.MeasureAt(src, t.X, t.Y, windowSize, cal)
			if err != nil {
				return fmt.Errorf("failed to measure point (%d,%d): %w", t.X, t.Y, err)
			}
			results[i] = LabeledResult{Label: t.Label, X: t.X, Y: t.Y, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
