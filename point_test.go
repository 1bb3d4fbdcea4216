package matrixscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceAndCrossProduct(t *testing.T) {
	a, b, c := ResultPoint{0, 0}, ResultPoint{3, 0}, ResultPoint{0, 4}
	assert.Equal(t, 5.0, Distance(b, c))
	assert.Equal(t, 12.0, CrossProductZ(a, b, c))
	assert.Equal(t, -12.0, CrossProductZ(a, c, b))
	assert.Equal(t, "(3.0,0.0)", b.String())
}

func TestOrderBestPatterns(t *testing.T) {
	tl, tr, bl := ResultPoint{10, 10}, ResultPoint{60, 10}, ResultPoint{10, 60}
	permutations := func(a, b, c ResultPoint) [][3]ResultPoint {
		return [][3]ResultPoint{{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a}}
	}
	// quarter turns about the origin keep coordinates exact
	turn := func(p ResultPoint) ResultPoint { return ResultPoint{-p.Y, p.X} }
	mirror := func(p ResultPoint) ResultPoint { return ResultPoint{-p.X, p.Y} }

	for quarter := 0; quarter < 4; quarter++ {
		for _, perm := range permutations(tl, tr, bl) {
			got := OrderBestPatterns(perm[0], perm[1], perm[2])
			assert.Equal(t, PatternOrder{TopLeft: tl, TopRight: tr, BottomLeft: bl}, got, "quarter %d", quarter)
		}
		for _, perm := range permutations(mirror(tl), mirror(tr), mirror(bl)) {
			got := OrderBestPatterns(perm[0], perm[1], perm[2])
			// a reflection swaps which arm is clockwise
			assert.Equal(t, PatternOrder{TopLeft: mirror(tl), TopRight: mirror(bl), BottomLeft: mirror(tr)}, got)
		}
		tl, tr, bl = turn(tl), turn(tr), turn(bl)
	}
}

func TestPatternOrderPoints(t *testing.T) {
	o := PatternOrder{TopLeft: ResultPoint{1, 1}, TopRight: ResultPoint{2, 1}, BottomLeft: ResultPoint{1, 2}}
	assert.Equal(t, []ResultPoint{{1, 2}, {1, 1}, {2, 1}}, o.Points())
}
