package datamatrix

import (
	"fmt"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
)

// ExtractPure reads a symbol that is the only thing in the image, unrotated
// with a quiet zone around it. The top-left module is dark and the top row
// alternates, so the first run along it is one module wide.
func (*Symbology) ExtractPure(s *matrixscan.Session) (*matrixscan.DetectorResult, error) {
	bits, err := extractPureBits(s.Image)
	if err != nil {
		return nil, err
	}
	return &matrixscan.DetectorResult{Bits: bits}, nil
}

func extractPureBits(image *bitutil.BitMatrix) (*bitutil.BitMatrix, error) {
	left, top := image.TopLeftOnBit()
	right, bottom := image.BottomRightOnBit()
	if top < 0 || bottom < 0 {
		return nil, fmt.Errorf("%w: empty image", matrixscan.ErrNotFound)
	}

	moduleSize := 0
	for x := left; x < image.Width() && image.Get(x, top); x++ {
		moduleSize++
	}
	if moduleSize == 0 || left+moduleSize >= image.Width() {
		return nil, fmt.Errorf("%w: no top clock track", matrixscan.ErrNotFound)
	}

	width := (right - left + 1) / moduleSize
	height := (bottom - top + 1) / moduleSize
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d modules", matrixscan.ErrNotFound, width, height)
	}

	nudge := moduleSize / 2
	top += nudge
	left += nudge
	bits := bitutil.NewBitMatrixWithSize(width, height)
	for y := 0; y < height; y++ {
		iy := top + y*moduleSize
		for x := 0; x < width; x++ {
			if image.Get(left+x*moduleSize, iy) {
				bits.Set(x, y)
			}
		}
	}
	return bits, nil
}
