package transform

import (
	"errors"
	"fmt"
	"math"

	"github.com/ericlevine/matrixscan/bitutil"
)

// ErrOutOfBounds is returned when a module centre maps outside the image.
var ErrOutOfBounds = errors.New("transform: sample outside image")

// SampleGrid builds a dimX x dimY module grid by mapping the centre of each
// module (x+0.5, y+0.5) through t into image and reading the pixel there.
func SampleGrid(image *bitutil.BitMatrix, dimX, dimY int, t *PerspectiveTransform) (*bitutil.BitMatrix, error) {
	if dimX <= 0 || dimY <= 0 {
		return nil, fmt.Errorf("%w: dimension %dx%d", ErrOutOfBounds, dimX, dimY)
	}
	out := bitutil.NewBitMatrixWithSize(dimX, dimY)
	row := make([]float64, 2*dimX)
	for y := 0; y < dimY; y++ {
		cy := float64(y) + 0.5
		for x := 0; x < dimX; x++ {
			row[2*x] = float64(x) + 0.5
			row[2*x+1] = cy
		}
		t.TransformPoints(row)
		if err := CheckAndNudgePoints(image, row); err != nil {
			return nil, err
		}
		for x := 0; x < dimX; x++ {
			px, py := int(row[2*x]), int(row[2*x+1])
			if px < 0 || py < 0 || px >= image.Width() || py >= image.Height() {
				return nil, fmt.Errorf("%w: module (%d,%d) at (%d,%d)", ErrOutOfBounds, x, y, px, py)
			}
			if image.Get(px, py) {
				out.Set(x, y)
			}
		}
	}
	return out, nil
}

// CheckAndNudgePoints validates interleaved points against the image bounds.
// Points up to one pixel outside are pulled onto the border, scanning from
// each end of the row while nudges keep happening; anything further out or
// not a number fails.
func CheckAndNudgePoints(image *bitutil.BitMatrix, points []float64) error {
	w, h := image.Width(), image.Height()
	for i := 0; i+1 < len(points); i += 2 {
		if !finite(points[i]) || !finite(points[i+1]) {
			return fmt.Errorf("%w: point %d is not finite", ErrOutOfBounds, i/2)
		}
	}
	nudge := func(i int) (bool, error) {
		x, y := int(points[i]), int(points[i+1])
		if x < -1 || x > w || y < -1 || y > h {
			return false, fmt.Errorf("%w: (%d,%d) in %dx%d image", ErrOutOfBounds, x, y, w, h)
		}
		moved := false
		switch x {
		case -1:
			points[i], moved = 0, true
		case w:
			points[i], moved = float64(w-1), true
		}
		switch y {
		case -1:
			points[i+1], moved = 0, true
		case h:
			points[i+1], moved = float64(h-1), true
		}
		return moved, nil
	}
	for i, moved := 0, true; i+1 < len(points) && moved; i += 2 {
		var err error
		if moved, err = nudge(i); err != nil {
			return err
		}
	}
	for i, moved := len(points)-2, true; i >= 0 && moved; i -= 2 {
		var err error
		if moved, err = nudge(i); err != nil {
			return err
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
