// Package imaging loads photos and exposes them to the measurement core.
//
// It owns everything between a file on disk and the sampling.PixelSource
// contract: format decoding, EXIF orientation, in-memory caching and
// rectangle reads. The measurement packages never see files or image types.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner of the
// oriented image. Rectangles are half-open: Min is inclusive, Max exclusive.
//
// # Thread Safety
//
// ImageCache and ImageSource are safe for concurrent use. Cached images are
// treated as read-only.
//
// # Memory
//
// Each cached photo is held twice: the decoded image and the normalized 8-bit
// buffer behind its ImageSource. Long-running servers should Evict photos
// they no longer need.
package imaging
