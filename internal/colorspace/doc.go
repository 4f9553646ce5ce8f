// Package colorspace converts between display-referred sRGB, linear light and
// CIE Lab under the D50 illuminant.
//
// # Pipeline
//
// Colors move through three representations:
//   - RGB8: 8-bit sRGB as stored in images (0-255 per channel)
//   - Linear: gamma-expanded sRGB, proportional to light intensity (0-1)
//   - Lab: perceptually uniform CIE L*a*b*, referenced to D50
//
// The Lab conversion adapts from the sRGB working illuminant (D65) to D50 with
// the Bradford cone-response transform before applying the CIE nonlinearity.
//
// All functions are pure and safe for concurrent use. Inputs outside [0,1]
// are clamped rather than rejected.
package colorspace
