// Package sampling measures the color of a surface from a noisy photographed
// region.
//
// Two strategies share one robust aggregator:
//   - PointSampler aggregates a square window around a tapped pixel.
//   - RegionSampler aggregates an arbitrary simple polygon (a freehand lasso),
//     using antialiased coverage as a soft mask.
//
// # Algorithm
//
// Every pixel is decoded to linear light and given a weight: 1.0 for window
// pixels, the coverage fraction for region pixels. The weight is then reduced
// for near-neutral highlights, speculars and shadows according to a Policy.
// Samples are ranked by squared linear-RGB distance to a reference color (the
// tapped pixel, or the per-channel median of the region) and only the nearest
// fraction is kept. The weighted mean of the kept samples is the measurement.
//
// A quality score in [0,1] combines the spread of the kept samples around the
// result with the fraction of clipped white pixels, and a short note names
// the dominant problem ("highlights", "mixed area", "textured") or "ok".
//
// # Calibration
//
// Samplers take a calibration.Snapshot by value. When it is ready the
// aggregated linear color is remapped before encoding; otherwise the snapshot
// is ignored.
//
// # Coordinates
//
// Coordinates are image-space pixels with (0,0) at the top-left corner.
// Point coordinates and window sizes outside the image are clamped, never
// rejected. Polygon vertices are continuous: pixel (x,y) spans [x,x+1)×[y,y+1).
//
// # Errors
//
// Region measurement fails with ErrRegionTooSmall or ErrDegenerateAggregate;
// test with errors.Is. Point measurement only fails when the PixelSource does.
package sampling
