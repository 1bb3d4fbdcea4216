package detector

import (
	"fmt"
	"math"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
)

// initSize is the side of the box the white rectangle search starts from.
const initSize = 10

// whiteRectangle grows a box from a starting point until every side lies on
// white, then finds the dark pixel nearest each corner of the box.
type whiteRectangle struct {
	image                 *bitutil.BitMatrix
	left, right, up, down int
}

func newWhiteRectangle(image *bitutil.BitMatrix, x, y int) (*whiteRectangle, error) {
	half := initSize / 2
	r := &whiteRectangle{image: image, left: x - half, right: x + half, up: y - half, down: y + half}
	if r.up < 0 || r.left < 0 || r.down >= image.Height() || r.right >= image.Width() {
		return nil, fmt.Errorf("%w: image too small for the rectangle search", matrixscan.ErrNotFound)
	}
	return r, nil
}

// corners returns the four corner points in the order top, left, right,
// bottom of the grown box, pulled one pixel toward its centre.
func (r *whiteRectangle) corners() ([4]matrixscan.ResultPoint, error) {
	w, h := r.image.Width(), r.image.Height()
	var seenRight, seenBottom, seenLeft, seenTop bool

	// push each side out while it still crosses dark pixels; a side that
	// has never touched the symbol keeps moving until it does
	for grew := true; grew; {
		grew = false

		for dark := true; (dark || !seenRight) && r.right < w; {
			dark = r.columnHasDark(r.right, r.up, r.down)
			if dark {
				grew, seenRight = true, true
			}
			if dark || !seenRight {
				r.right++
			}
		}
		if r.right >= w {
			return [4]matrixscan.ResultPoint{}, fmt.Errorf("%w: symbol touches the right edge", matrixscan.ErrNotFound)
		}

		for dark := true; (dark || !seenBottom) && r.down < h; {
			dark = r.rowHasDark(r.down, r.left, r.right)
			if dark {
				grew, seenBottom = true, true
			}
			if dark || !seenBottom {
				r.down++
			}
		}
		if r.down >= h {
			return [4]matrixscan.ResultPoint{}, fmt.Errorf("%w: symbol touches the bottom edge", matrixscan.ErrNotFound)
		}

		for dark := true; (dark || !seenLeft) && r.left >= 0; {
			dark = r.columnHasDark(r.left, r.up, r.down)
			if dark {
				grew, seenLeft = true, true
			}
			if dark || !seenLeft {
				r.left--
			}
		}
		if r.left < 0 {
			return [4]matrixscan.ResultPoint{}, fmt.Errorf("%w: symbol touches the left edge", matrixscan.ErrNotFound)
		}

		for dark := true; (dark || !seenTop) && r.up >= 0; {
			dark = r.rowHasDark(r.up, r.left, r.right)
			if dark {
				grew, seenTop = true, true
			}
			if dark || !seenTop {
				r.up--
			}
		}
		if r.up < 0 {
			return [4]matrixscan.ResultPoint{}, fmt.Errorf("%w: symbol touches the top edge", matrixscan.ErrNotFound)
		}
	}

	size := r.right - r.left
	// walk ever longer diagonals in from each corner of the box
	z, ok := r.nearestDark(size, func(i int) (float64, float64, float64, float64) {
		return float64(r.left), float64(r.down - i), float64(r.left + i), float64(r.down)
	})
	if !ok {
		return [4]matrixscan.ResultPoint{}, fmt.Errorf("%w: no bottom-left corner", matrixscan.ErrNotFound)
	}
	t, ok := r.nearestDark(size, func(i int) (float64, float64, float64, float64) {
		return float64(r.left), float64(r.up + i), float64(r.left + i), float64(r.up)
	})
	if !ok {
		return [4]matrixscan.ResultPoint{}, fmt.Errorf("%w: no top-left corner", matrixscan.ErrNotFound)
	}
	x, ok := r.nearestDark(size, func(i int) (float64, float64, float64, float64) {
		return float64(r.right), float64(r.up + i), float64(r.right - i), float64(r.up)
	})
	if !ok {
		return [4]matrixscan.ResultPoint{}, fmt.Errorf("%w: no top-right corner", matrixscan.ErrNotFound)
	}
	y, ok := r.nearestDark(size, func(i int) (float64, float64, float64, float64) {
		return float64(r.right), float64(r.down - i), float64(r.right - i), float64(r.down)
	})
	if !ok {
		return [4]matrixscan.ResultPoint{}, fmt.Errorf("%w: no bottom-right corner", matrixscan.ErrNotFound)
	}
	return r.centerEdges(y, z, x, t), nil
}

func (r *whiteRectangle) nearestDark(size int, segment func(i int) (ax, ay, bx, by float64)) (matrixscan.ResultPoint, bool) {
	for i := 1; i < size; i++ {
		if p, ok := r.darkOnSegment(segment(i)); ok {
			return p, true
		}
	}
	return matrixscan.ResultPoint{}, false
}

// centerEdges moves each extreme point one pixel in so later transition
// counts start inside the symbol. The result is ordered t, z, x, y.
func (r *whiteRectangle) centerEdges(y, z, x, t matrixscan.ResultPoint) [4]matrixscan.ResultPoint {
	const corr = 1
	if y.X < float64(r.image.Width())/2 {
		return [4]matrixscan.ResultPoint{
			{X: t.X - corr, Y: t.Y + corr},
			{X: z.X + corr, Y: z.Y + corr},
			{X: x.X - corr, Y: x.Y - corr},
			{X: y.X + corr, Y: y.Y - corr},
		}
	}
	return [4]matrixscan.ResultPoint{
		{X: t.X + corr, Y: t.Y + corr},
		{X: z.X + corr, Y: z.Y - corr},
		{X: x.X - corr, Y: x.Y + corr},
		{X: y.X - corr, Y: y.Y - corr},
	}
}

// darkOnSegment steps from a toward b one pixel at a time and returns the
// first dark pixel.
func (r *whiteRectangle) darkOnSegment(ax, ay, bx, by float64) (matrixscan.ResultPoint, bool) {
	dist := round(math.Hypot(bx-ax, by-ay))
	if dist < 1 {
		return matrixscan.ResultPoint{}, false
	}
	dx := (bx - ax) / float64(dist)
	dy := (by - ay) / float64(dist)
	for i := 0; i < dist; i++ {
		x := round(ax + float64(i)*dx)
		y := round(ay + float64(i)*dy)
		if r.image.Get(x, y) {
			return matrixscan.ResultPoint{X: float64(x), Y: float64(y)}, true
		}
	}
	return matrixscan.ResultPoint{}, false
}

func (r *whiteRectangle) columnHasDark(x, top, bottom int) bool {
	for y := top; y <= bottom; y++ {
		if r.image.Get(x, y) {
			return true
		}
	}
	return false
}

func (r *whiteRectangle) rowHasDark(y, left, right int) bool {
	for x := left; x <= right; x++ {
		if r.image.Get(x, y) {
			return true
		}
	}
	return false
}

// round rounds half away from zero.
func round(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}
