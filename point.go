package matrixscan

import (
	"fmt"
	"math"
)

// ResultPoint is a point of interest in image coordinates, such as the
// centre of a finder pattern. Points are plain values; == compares them.
type ResultPoint struct {
	X, Y float64
}

func (p ResultPoint) String() string {
	return fmt.Sprintf("(%.1f,%.1f)", p.X, p.Y)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b ResultPoint) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// CrossProductZ returns the z component of (b - a) x (c - a).
func CrossProductZ(a, b, c ResultPoint) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// PatternOrder names the three finder pattern roles of a square symbol.
type PatternOrder struct {
	TopLeft, TopRight, BottomLeft ResultPoint
}

// OrderBestPatterns assigns roles to three finder centres. The point
// opposite the longest side is the top-left; the sign of the cross product
// separates top-right from bottom-left.
func OrderBestPatterns(a, b, c ResultPoint) PatternOrder {
	ab, bc, ac := Distance(a, b), Distance(b, c), Distance(a, c)

	var corner, p, q ResultPoint
	switch {
	case bc >= ab && bc >= ac:
		corner, p, q = a, b, c
	case ac >= ab && ac >= bc:
		corner, p, q = b, a, c
	default:
		corner, p, q = c, a, b
	}
	// with y pointing down, (bottomLeft - topLeft) x (topRight - topLeft) < 0
	if CrossProductZ(corner, p, q) > 0 {
		p, q = q, p
	}
	return PatternOrder{TopLeft: corner, TopRight: q, BottomLeft: p}
}

// Points returns bottom-left, top-left, top-right, the order detectors
// report them in.
func (o PatternOrder) Points() []ResultPoint {
	return []ResultPoint{o.BottomLeft, o.TopLeft, o.TopRight}
}
