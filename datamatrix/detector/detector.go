// Package detector locates Data Matrix symbols. The symbol's finder is an L
// of two solid edges; the opposite two edges are clock tracks of
// alternating modules, and counting their transitions gives the grid size.
package detector

import (
	"errors"
	"fmt"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
	"github.com/ericlevine/matrixscan/transform"
)

// Detector locates one Data Matrix symbol in a bit image and samples it
// onto its module grid.
type Detector struct {
	image    *bitutil.BitMatrix
	callback func(matrixscan.ResultPoint)
}

// New returns a detector over image. callback may be nil.
func New(image *bitutil.BitMatrix, callback func(matrixscan.ResultPoint)) *Detector {
	return &Detector{image: image, callback: callback}
}

// Detect grows a white rectangle out from the image centre, resolves which
// corners carry the solid L, and samples the grid. Points are returned as
// top-left, bottom-left, bottom-right and top-right, each at the centre of
// its corner module.
func (d *Detector) Detect() (*matrixscan.DetectorResult, error) {
	rect, err := newWhiteRectangle(d.image, d.image.Width()/2, d.image.Height()/2)
	if err != nil {
		return nil, err
	}
	corners, err := rect.corners()
	if err != nil {
		return nil, err
	}

	points := d.detectSolid1(corners)
	points = d.detectSolid2(points)
	tr, ok := d.correctTopRight(points)
	if !ok {
		return nil, fmt.Errorf("%w: top-right corner falls outside the image", matrixscan.ErrNotFound)
	}
	points[3] = tr
	points = d.shiftToModuleCenter(points)
	tl, bl, br, tr := points[0], points[1], points[2], points[3]

	dimTop := even(d.transitionsBetween(tl, tr) + 1)
	dimRight := even(d.transitionsBetween(br, tr) + 1)
	// within 3:2 of each other means a square symbol
	if 4*dimTop < 6*dimRight && 4*dimRight < 6*dimTop {
		dimTop = max(dimTop, dimRight)
		dimRight = dimTop
	}

	fx, fy := float64(dimTop), float64(dimRight)
	t, err := transform.QuadrilateralToQuadrilateral(
		transform.Quad{0.5, 0.5, fx - 0.5, 0.5, fx - 0.5, fy - 0.5, 0.5, fy - 0.5},
		transform.Quad{tl.X, tl.Y, tr.X, tr.Y, br.X, br.Y, bl.X, bl.Y},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", matrixscan.ErrFormat, err)
	}
	bits, err := transform.SampleGrid(d.image, dimTop, dimRight, t)
	if err != nil {
		if errors.Is(err, transform.ErrOutOfBounds) {
			return nil, fmt.Errorf("%w: %w", matrixscan.ErrNotFound, err)
		}
		return nil, err
	}

	found := []matrixscan.ResultPoint{tl, bl, br, tr}
	if d.callback != nil {
		for _, p := range found {
			d.callback(p)
		}
	}
	return &matrixscan.DetectorResult{Bits: bits, Points: found}, nil
}

func even(n int) int {
	if n&1 == 1 {
		return n + 1
	}
	return n
}

// detectSolid1 rotates the corners so the side with the fewest transitions
// runs from points[1] to points[2].
func (d *Detector) detectSolid1(c [4]matrixscan.ResultPoint) [4]matrixscan.ResultPoint {
	// 0  2
	// 1  3
	a, b, cc, dd := c[0], c[1], c[3], c[2]

	best := d.transitionsBetween(a, b)
	points := [4]matrixscan.ResultPoint{dd, a, b, cc}
	if tr := d.transitionsBetween(b, cc); tr < best {
		best = tr
		points = [4]matrixscan.ResultPoint{a, b, cc, dd}
	}
	if tr := d.transitionsBetween(cc, dd); tr < best {
		best = tr
		points = [4]matrixscan.ResultPoint{b, cc, dd, a}
	}
	if tr := d.transitionsBetween(dd, a); tr < best {
		points = [4]matrixscan.ResultPoint{cc, dd, a, b}
	}
	return points
}

// detectSolid2 picks the second solid side, one of the two next to the
// first, and rotates the corners so the L is points[0]-points[1]-points[2].
func (d *Detector) detectSolid2(p [4]matrixscan.ResultPoint) [4]matrixscan.ResultPoint {
	// A..D
	// :  :
	// B--C
	a, b, c, dd := p[0], p[1], p[2], p[3]

	// transitions right on the edge are unstable; count a little inside
	tr := d.transitionsBetween(a, dd)
	bs := shift(b, c, (tr+1)*4)
	cs := shift(c, b, (tr+1)*4)
	if d.transitionsBetween(bs, a) < d.transitionsBetween(cs, dd) {
		return [4]matrixscan.ResultPoint{a, b, c, dd}
	}
	return [4]matrixscan.ResultPoint{b, c, dd, a}
}

// correctTopRight places the top-right corner, which sits on a light module
// and so is not found by the rectangle search. It extends each clock track
// by one module and keeps the candidate whose tracks show more transitions.
func (d *Detector) correctTopRight(p [4]matrixscan.ResultPoint) (matrixscan.ResultPoint, bool) {
	a, b, c, dd := p[0], p[1], p[2], p[3]

	trTop := d.transitionsBetween(a, dd)
	trRight := d.transitionsBetween(b, dd)
	as := shift(a, b, (trRight+1)*4)
	cs := shift(c, b, (trTop+1)*4)
	trTop = d.transitionsBetween(as, dd)
	trRight = d.transitionsBetween(cs, dd)

	c1 := matrixscan.ResultPoint{
		X: dd.X + (c.X-b.X)/float64(trTop+1),
		Y: dd.Y + (c.Y-b.Y)/float64(trTop+1),
	}
	c2 := matrixscan.ResultPoint{
		X: dd.X + (a.X-b.X)/float64(trRight+1),
		Y: dd.Y + (a.Y-b.Y)/float64(trRight+1),
	}

	ok1, ok2 := d.inside(c1), d.inside(c2)
	switch {
	case !ok1 && !ok2:
		return matrixscan.ResultPoint{}, false
	case !ok1:
		return c2, true
	case !ok2:
		return c1, true
	}
	sum1 := d.transitionsBetween(as, c1) + d.transitionsBetween(cs, c1)
	sum2 := d.transitionsBetween(as, c2) + d.transitionsBetween(cs, c2)
	if sum1 > sum2 {
		return c1, true
	}
	return c2, true
}

// shiftToModuleCenter moves the corners, which lie on the inside of the
// symbol's outer edge, to the centres of the corner modules.
func (d *Detector) shiftToModuleCenter(p [4]matrixscan.ResultPoint) [4]matrixscan.ResultPoint {
	// A..D
	// |  :
	// B--C
	a, b, c, dd := p[0], p[1], p[2], p[3]

	dimH := d.transitionsBetween(a, dd) + 1
	dimV := d.transitionsBetween(c, dd) + 1
	as := shift(a, b, dimV*4)
	cs := shift(c, b, dimH*4)
	dimH = even(d.transitionsBetween(as, dd) + 1)
	dimV = even(d.transitionsBetween(cs, dd) + 1)

	cx := (a.X + b.X + c.X + dd.X) / 4
	cy := (a.Y + b.Y + c.Y + dd.Y) / 4
	a = moveAway(a, cx, cy)
	b = moveAway(b, cx, cy)
	c = moveAway(c, cx, cy)
	dd = moveAway(dd, cx, cy)

	as = shift(shift(a, b, dimV*4), dd, dimH*4)
	bs := shift(shift(b, a, dimV*4), c, dimH*4)
	cs = shift(shift(c, dd, dimV*4), b, dimH*4)
	ds := shift(shift(dd, c, dimV*4), a, dimH*4)
	return [4]matrixscan.ResultPoint{as, bs, cs, ds}
}

// inside reports whether p lies on the image. Row zero is excluded.
func (d *Detector) inside(p matrixscan.ResultPoint) bool {
	return p.X >= 0 && p.X <= float64(d.image.Width()-1) &&
		p.Y > 0 && p.Y <= float64(d.image.Height()-1)
}

// shift moves p toward to by 1/(div+1) of the distance between them.
func shift(p, to matrixscan.ResultPoint, div int) matrixscan.ResultPoint {
	return matrixscan.ResultPoint{
		X: p.X + (to.X-p.X)/float64(div+1),
		Y: p.Y + (to.Y-p.Y)/float64(div+1),
	}
}

// moveAway pushes p one pixel further from (cx, cy) on each axis.
func moveAway(p matrixscan.ResultPoint, cx, cy float64) matrixscan.ResultPoint {
	if p.X < cx {
		p.X--
	} else {
		p.X++
	}
	if p.Y < cy {
		p.Y--
	} else {
		p.Y++
	}
	return p
}

// transitionsBetween counts colour changes along the Bresenham line from
// from to to. The end row is clamped to the image.
func (d *Detector) transitionsBetween(from, to matrixscan.ResultPoint) int {
	fromX, fromY := int(from.X), int(from.Y)
	toX, toY := int(to.X), min(int(to.Y), d.image.Height()-1)

	steep := abs(toY-fromY) > abs(toX-fromX)
	if steep {
		fromX, fromY = fromY, fromX
		toX, toY = toY, toX
	}
	get := func(x, y int) bool {
		if steep {
			return d.image.Get(y, x)
		}
		return d.image.Get(x, y)
	}

	dx, dy := abs(toX-fromX), abs(toY-fromY)
	e := -dx / 2
	xstep, ystep := 1, 1
	if fromX > toX {
		xstep = -1
	}
	if fromY > toY {
		ystep = -1
	}

	transitions := 0
	inBlack := get(fromX, fromY)
	for x, y := fromX, fromY; x != toX; x += xstep {
		if black := get(x, y); black != inBlack {
			transitions++
			inBlack = black
		}
		e += dy
		if e > 0 {
			if y == toY {
				break
			}
			y += ystep
			e -= dx
		}
	}
	return transitions
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
