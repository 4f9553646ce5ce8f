// Package calibration corrects measured linear colors against user-named
// reference patches.
//
// A user photographs a white, mid-gray or black reference under the same light
// as the surface of interest and records its measured linear color as a Point.
// With at least two distinct kinds stored, Apply maps every channel through a
// piecewise-linear curve that sends each measured reference onto its target
// reflectance (white 1.0, gray 0.18, black 0.0).
//
// # Concurrency
//
// Calibration is the only mutable state in the measurement pipeline. It is
// guarded by a read-write mutex; sampling code should take a Snapshot once per
// call and use that immutable value, so a concurrent Add or Clear never yields
// a half-updated model.
//
// # Limitations
//
// References are accepted as measured. A "white" patch measured darker than
// the "gray" patch produces a non-monotone curve; nothing is rejected or
// reordered.
package calibration
