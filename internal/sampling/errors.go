package sampling

import "errors"

var (
	// ErrRegionTooSmall means the selection covers fewer than the minimum
	// number of pixels, or its bounding box has no area inside the image.
	ErrRegionTooSmall = errors.New("selection too small")

	// ErrDegenerateAggregate means every sample was weighted down to nothing.
	ErrDegenerateAggregate = errors.New("no usable pixels in selection")

	// ErrEmptySource is returned for a pixel source with no pixels.
	ErrEmptySource = errors.New("pixel source is empty")
)
