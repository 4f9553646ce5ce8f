package sampling

import (
	"fmt"
	"image"
)

// PixelSource is random-access, read-only 8-bit RGB pixel data.
//
// ReadRGB returns the pixels of r (which lies within the source bounds) in
// row-major order, three bytes per pixel, no alpha. Samplers never retain a
// source after a call returns. MeasureMany calls ReadRGB from several
// goroutines at once.
type PixelSource interface {
	Size() (width, height int)
	ReadRGB(r image.Rectangle) ([]uint8, error)
}

// RGBBuffer is an in-memory PixelSource over packed RGB bytes.
type RGBBuffer struct {
	Width  int
	Height int
	Pix    []uint8 // len = Width*Height*3
}

// NewRGBBuffer wraps pix as a width×height RGB image.
func NewRGBBuffer(width, height int, pix []uint8) (*RGBBuffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if len(pix) != width*height*3 {
		return nil, fmt.Errorf("pixel buffer has %d bytes, want %d for %dx%d RGB", len(pix), width*height*3, width, height)
	}
	return &RGBBuffer{Width: width, Height: height, Pix: pix}, nil
}

// Size implements PixelSource.
func (b *RGBBuffer) Size() (int, int) {
	return b.Width, b.Height
}

// ReadRGB implements PixelSource.
func (b *RGBBuffer) ReadRGB(r image.Rectangle) ([]uint8, error) {
	if !r.In(image.Rect(0, 0, b.Width, b.Height)) {
		return nil, fmt.Errorf("rectangle %v outside buffer bounds %dx%d", r, b.Width, b.Height)
	}
	out := make([]uint8, 0, r.Dx()*r.Dy()*3)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		start := (y*b.Width + r.Min.X) * 3
		out = append(out, b.Pix[start:start+r.Dx()*3]...)
	}
	return out, nil
}

// readPixels fetches r from src and checks the returned length.
func readPixels(src PixelSource, r image.Rectangle) ([]uint8, error) {
	pix, err := src.ReadRGB(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read pixels %v: %w", r, err)
	}
	if want := r.Dx() * r.Dy() * 3; len(pix) != want {
		return nil, fmt.Errorf("pixel source returned %d bytes for %v, want %d", len(pix), r, want)
	}
	return pix, nil
}
