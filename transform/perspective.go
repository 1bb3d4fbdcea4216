// Package transform maps points between a symbol's ideal module grid and
// image space.
package transform

import (
	"errors"
	"math"
)

// ErrDegenerate is returned when a quadrilateral is collapsed (three or more
// corners collinear, repeated corners, or non-finite coordinates) so no
// invertible transform exists.
var ErrDegenerate = errors.New("transform: degenerate quadrilateral")

// degenerateEpsilon is relative to the magnitude of the terms being
// cancelled.
const degenerateEpsilon = 1e-9

// Quad holds four corners as x0, y0, x1, y1, x2, y2, x3, y3, in order around
// the shape.
type Quad [8]float64

// PerspectiveTransform is a 3x3 homography acting on row vectors
// [x y 1]. m[r][c] is row r, column c.
type PerspectiveTransform struct {
	m [3][3]float64
}

// Identity returns the identity transform.
func Identity() *PerspectiveTransform {
	return &PerspectiveTransform{m: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

// QuadrilateralToQuadrilateral returns the transform taking corner i of from
// onto corner i of to.
func QuadrilateralToQuadrilateral(from, to Quad) (*PerspectiveTransform, error) {
	toSquare, err := QuadrilateralToSquare(from)
	if err != nil {
		return nil, err
	}
	fromSquare, err := SquareToQuadrilateral(to)
	if err != nil {
		return nil, err
	}
	return toSquare.Times(fromSquare), nil
}

// SquareToQuadrilateral returns the transform taking the unit square corners
// (0,0), (1,0), (1,1), (0,1) onto q.
func SquareToQuadrilateral(q Quad) (*PerspectiveTransform, error) {
	for _, v := range q {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrDegenerate
		}
	}
	x0, y0, x1, y1, x2, y2, x3, y3 := q[0], q[1], q[2], q[3], q[4], q[5], q[6], q[7]
	dx3 := x0 - x1 + x2 - x3
	dy3 := y0 - y1 + y2 - y3
	if dx3 == 0 && dy3 == 0 {
		// parallelogram: affine
		a, b := (x1-x0)*(y2-y1), (y1-y0)*(x2-x1)
		if nearZero(a-b, math.Abs(a)+math.Abs(b)) {
			return nil, ErrDegenerate
		}
		return &PerspectiveTransform{m: [3][3]float64{
			{x1 - x0, y1 - y0, 0},
			{x2 - x1, y2 - y1, 0},
			{x0, y0, 1},
		}}, nil
	}
	dx1, dx2 := x1-x2, x3-x2
	dy1, dy2 := y1-y2, y3-y2
	a, b := dx1*dy2, dx2*dy1
	den := a - b
	if nearZero(den, math.Abs(a)+math.Abs(b)) {
		return nil, ErrDegenerate
	}
	g := (dx3*dy2 - dx2*dy3) / den
	h := (dx1*dy3 - dx3*dy1) / den
	t := &PerspectiveTransform{m: [3][3]float64{
		{x1 - x0 + g*x1, y1 - y0 + g*y1, g},
		{x3 - x0 + h*x3, y3 - y0 + h*y3, h},
		{x0, y0, 1},
	}}
	if t.singular() {
		return nil, ErrDegenerate
	}
	return t, nil
}

// QuadrilateralToSquare is the inverse of SquareToQuadrilateral, up to scale.
func QuadrilateralToSquare(q Quad) (*PerspectiveTransform, error) {
	t, err := SquareToQuadrilateral(q)
	if err != nil {
		return nil, err
	}
	return t.BuildAdjoint(), nil
}

// TransformPoints maps interleaved x, y pairs in place.
func (t *PerspectiveTransform) TransformPoints(points []float64) {
	for i := 0; i+1 < len(points); i += 2 {
		points[i], points[i+1] = t.apply(points[i], points[i+1])
	}
}

// TransformPointsSeparate maps parallel x and y slices in place.
func (t *PerspectiveTransform) TransformPointsSeparate(xs, ys []float64) {
	for i := range xs {
		xs[i], ys[i] = t.apply(xs[i], ys[i])
	}
}

// Apply maps a single point.
func (t *PerspectiveTransform) Apply(x, y float64) (float64, float64) {
	return t.apply(x, y)
}

func (t *PerspectiveTransform) apply(x, y float64) (float64, float64) {
	m := &t.m
	w := m[0][2]*x + m[1][2]*y + m[2][2]
	return (m[0][0]*x + m[1][0]*y + m[2][0]) / w,
		(m[0][1]*x + m[1][1]*y + m[2][1]) / w
}

// BuildAdjoint returns the adjugate. For an invertible transform it is the
// inverse scaled by the determinant, which a homography ignores.
func (t *PerspectiveTransform) BuildAdjoint() *PerspectiveTransform {
	m := &t.m
	var a [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			// cofactor of m[c][r]
			r1, r2 := skip(c)
			c1, c2 := skip(r)
			a[r][c] = m[r1][c1]*m[r2][c2] - m[r1][c2]*m[r2][c1]
			if (r+c)%2 == 1 {
				a[r][c] = -a[r][c]
			}
		}
	}
	return &PerspectiveTransform{m: a}
}

// skip returns the two indices in 0..2 other than i, in order.
func skip(i int) (int, int) {
	switch i {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	}
	return 0, 1
}

// Times returns the transform that applies t first and then other.
func (t *PerspectiveTransform) Times(other *PerspectiveTransform) *PerspectiveTransform {
	var p [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			for k := 0; k < 3; k++ {
				p[r][c] += t.m[r][k] * other.m[k][c]
			}
		}
	}
	return &PerspectiveTransform{m: p}
}

// Determinant returns the determinant of the underlying matrix.
func (t *PerspectiveTransform) Determinant() float64 {
	m := &t.m
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

func (t *PerspectiveTransform) singular() bool {
	scale := 0.0
	for _, row := range t.m {
		for _, v := range row {
			scale = max(scale, math.Abs(v))
		}
	}
	return nearZero(t.Determinant(), scale*scale*scale)
}

func nearZero(v, scale float64) bool {
	if math.IsNaN(v) {
		return true
	}
	return math.Abs(v) <= degenerateEpsilon*scale
}
