package binarizer

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ericlevine/matrixscan/bitutil"
)

// Luminance is an 8-bit greyscale copy of an image, row-major, origin at
// the top-left.
type Luminance struct {
	pix    []byte
	width  int
	height int
}

// NewLuminance converts img with the integer weights
// (306R + 601G + 117B + 0x200) >> 10. Fully transparent pixels count as
// white.
func NewLuminance(img image.Image) *Luminance {
	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+4*w]
		for x := 0; x < w; x++ {
			r, g, b, a := uint32(row[4*x]), uint32(row[4*x+1]), uint32(row[4*x+2]), row[4*x+3]
			if a == 0 {
				pix[y*w+x] = 0xFF
				continue
			}
			pix[y*w+x] = byte((306*r + 601*g + 117*b + 0x200) >> 10)
		}
	}
	return &Luminance{pix: pix, width: w, height: h}
}

// NewLuminanceFromGray copies the pixels of a greyscale image unchanged.
func NewLuminanceFromGray(img *image.Gray) *Luminance {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pix[y*w:], img.Pix[off:off+w])
	}
	return &Luminance{pix: pix, width: w, height: h}
}

// Row copies row y into row, allocating when row is too short.
func (l *Luminance) Row(y int, row []byte) []byte {
	if y < 0 || y >= l.height {
		return nil
	}
	if len(row) < l.width {
		row = make([]byte, l.width)
	}
	copy(row, l.pix[y*l.width:(y+1)*l.width])
	return row
}

// Matrix returns all pixels. The slice is shared and must not be
// modified.
func (l *Luminance) Matrix() []byte { return l.pix }

func (l *Luminance) Width() int  { return l.width }
func (l *Luminance) Height() int { return l.height }

// Fit scales img down with Lanczos resampling so that neither side exceeds
// maxSide. Smaller images, and any image when maxSide < 1, are returned
// unchanged.
func Fit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	if maxSide < 1 || (b.Dx() <= maxSide && b.Dy() <= maxSide) {
		return img
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
}

// Image renders a grid as black on white, scale pixels per cell.
func Image(grid bitutil.Grid, scale int) *image.Gray {
	scale = max(scale, 1)
	w, h := grid.Width(), grid.Height()
	img := image.NewGray(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h*scale; y++ {
		for x := 0; x < w*scale; x++ {
			c := color.Gray{Y: 0xFF}
			if grid.Get(x/scale, y/scale) {
				c.Y = 0
			}
			img.SetGray(x, y, c)
		}
	}
	return img
}
