package qrcode

import (
	"fmt"
	"math"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
)

// ExtractPure reads a symbol that is the only thing in the image, unrotated
// and unskewed, with a quiet zone around it. It measures the module size
// along the top-left finder's diagonal and samples module centres directly.
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

	moduleSize, err := moduleSizePure(image, left, top)
	if err != nil {
		return nil, err
	}
	if left >= right || top >= bottom {
		return nil, fmt.Errorf("%w: symbol bounds (%d,%d)-(%d,%d)", matrixscan.ErrNotFound, left, top, right, bottom)
	}
	// the bottom-right module may be light; trust the height
	if bottom-top != right-left {
		right = left + (bottom - top)
		if right >= image.Width() {
			return nil, fmt.Errorf("%w: symbol is not square", matrixscan.ErrNotFound)
		}
	}

	width := int(math.Round(float64(right-left+1) / moduleSize))
	height := int(math.Round(float64(bottom-top+1) / moduleSize))
	if width <= 0 || height <= 0 || width != height {
		return nil, fmt.Errorf("%w: %dx%d modules", matrixscan.ErrNotFound, width, height)
	}

	// sample module centres
	nudge := int(moduleSize / 2)
	top += nudge
	left += nudge
	if over := left + int(float64(width-1)*moduleSize) - right; over > 0 {
		if over > nudge {
			return nil, fmt.Errorf("%w: symbol runs past its right edge", matrixscan.ErrNotFound)
		}
		left -= over
	}
	if over := top + int(float64(height-1)*moduleSize) - bottom; over > 0 {
		if over > nudge {
			return nil, fmt.Errorf("%w: symbol runs past its bottom edge", matrixscan.ErrNotFound)
		}
		top -= over
	}

	bits := bitutil.NewBitMatrix(width)
	for y := 0; y < height; y++ {
		iy := top + int(float64(y)*moduleSize)
		for x := 0; x < width; x++ {
			if image.Get(left+int(float64(x)*moduleSize), iy) {
				bits.Set(x, y)
			}
		}
	}
	return bits, nil
}

// moduleSizePure walks the diagonal from the top-left dark pixel across the
// finder pattern's five runs; they span seven modules.
func moduleSizePure(image *bitutil.BitMatrix, left, top int) (float64, error) {
	w, h := image.Width(), image.Height()
	x, y := left, top
	inBlack := true
	transitions := 0
	for x < w && y < h {
		if inBlack != image.Get(x, y) {
			transitions++
			if transitions == 5 {
				break
			}
			inBlack = !inBlack
		}
		x++
		y++
	}
	if x == w || y == h {
		return 0, fmt.Errorf("%w: finder diagonal leaves the image", matrixscan.ErrNotFound)
	}
	return float64(x-left) / 7, nil
}
