package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/color-probe-mcp/internal/sampling"
)

// ImageSource serves rectangles of a decoded image as packed 8-bit RGB. It
// satisfies sampling.PixelSource.
//
// The image is converted once, when the source is built, to straight
// (non-premultiplied) 8-bit color with alpha dropped. A translucent pixel
// therefore reads back as its own color, not as that color darkened by its
// alpha. Reads never touch the original image and are safe for concurrent use.
type ImageSource struct {
	buf *sampling.RGBBuffer
}

// NewImageSource copies img into a new pixel source.
func NewImageSource(img image.Image) *ImageSource {
	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()

	pix := make([]uint8, w*h*3)
	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
			dst := pix[y*w*3 : (y+1)*w*3]
			for x := 0; x < w; x++ {
				dst[x*3] = src[x*4]
				dst[x*3+1] = src[x*4+1]
				dst[x*3+2] = src[x*4+2]
			}
		}
	})

	return &ImageSource{buf: &sampling.RGBBuffer{Width: w, Height: h, Pix: pix}}
}

// Size returns the image width and height in pixels.
func (s *ImageSource) Size() (int, int) {
	return s.buf.Size()
}

// ReadRGB returns the pixels of r, given in 0-based image coordinates, in
// row-major order with three bytes per pixel.
func (s *ImageSource) ReadRGB(r image.Rectangle) ([]uint8, error) {
	return s.buf.ReadRGB(r)
}
