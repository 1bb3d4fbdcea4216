package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ericlevine/matrixscan/bitutil"
)

const eps = 1e-4

func assertPoint(t *testing.T, tr *PerspectiveTransform, x, y, wantX, wantY float64) {
	t.Helper()
	gx, gy := tr.Apply(x, y)
	assert.InDelta(t, wantX, gx, eps, "x of (%v,%v)", x, y)
	assert.InDelta(t, wantY, gy, eps, "y of (%v,%v)", x, y)
}

func TestSquareToQuadrilateral(t *testing.T) {
	tr, err := SquareToQuadrilateral(Quad{2, 3, 10, 4, 16, 15, 4, 9})
	require.NoError(t, err)
	assertPoint(t, tr, 0, 0, 2, 3)
	assertPoint(t, tr, 1, 0, 10, 4)
	assertPoint(t, tr, 1, 1, 16, 15)
	assertPoint(t, tr, 0, 1, 4, 9)

	tr, err = QuadrilateralToSquare(Quad{2, 3, 10, 4, 16, 15, 4, 9})
	require.NoError(t, err)
	assertPoint(t, tr, 16, 15, 1, 1)
}

func TestQuadrilateralToQuadrilateral(t *testing.T) {
	tr, err := QuadrilateralToQuadrilateral(
		Quad{2, 3, 10, 4, 16, 15, 4, 9},
		Quad{103, 110, 300, 120, 290, 270, 150, 280},
	)
	require.NoError(t, err)
	assertPoint(t, tr, 2, 3, 103, 110)
	assertPoint(t, tr, 10, 4, 300, 120)
	assertPoint(t, tr, 16, 15, 290, 270)
	assertPoint(t, tr, 4, 9, 150, 280)
}

func TestAffineCase(t *testing.T) {
	tr, err := SquareToQuadrilateral(Quad{0, 0, 10, 0, 10, 10, 0, 10})
	require.NoError(t, err)
	assertPoint(t, tr, 0.5, 0.5, 5, 5)
	assert.InDelta(t, 100, tr.Determinant(), eps)
}

func TestDegenerateQuads(t *testing.T) {
	for name, q := range map[string]Quad{
		"collapsed":  {1, 1, 1, 1, 1, 1, 1, 1},
		"collinear":  {0, 0, 1, 1, 2, 2, 3, 3},
		"not finite": {0, 0, math.NaN(), 0, 1, 1, 0, 1},
		"infinite":   {0, 0, math.Inf(1), 0, 1, 1, 0, 1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := SquareToQuadrilateral(q)
			assert.ErrorIs(t, err, ErrDegenerate)
			_, err = QuadrilateralToQuadrilateral(q, Quad{0, 0, 1, 0, 1, 1, 0, 1})
			assert.ErrorIs(t, err, ErrDegenerate)
		})
	}
}

func TestTransformPointsForms(t *testing.T) {
	tr, err := SquareToQuadrilateral(Quad{2, 3, 10, 4, 16, 15, 4, 9})
	require.NoError(t, err)
	pts := []float64{0, 0, 1, 1}
	tr.TransformPoints(pts)
	xs, ys := []float64{0, 1}, []float64{0, 1}
	tr.TransformPointsSeparate(xs, ys)
	assert.InDeltaSlice(t, []float64{pts[0], pts[2]}, xs, eps)
	assert.InDeltaSlice(t, []float64{pts[1], pts[3]}, ys, eps)
}

func TestAdjointTimesIsScaledIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		q := randomConvexQuad(t)
		tr, err := SquareToQuadrilateral(q)
		if err != nil {
			t.Skip("degenerate draw")
		}
		p := tr.Times(tr.BuildAdjoint())
		det := tr.Determinant()
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				want := 0.0
				if r == c {
					want = det
				}
				if math.Abs(p.m[r][c]-want) > 1e-6*math.Max(1, math.Abs(det)) {
					t.Fatalf("m[%d][%d] = %v, want %v", r, c, p.m[r][c], want)
				}
			}
		}
	})
}

func TestRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		from, to := randomConvexQuad(t), randomConvexQuad(t)
		fwd, err := QuadrilateralToQuadrilateral(from, to)
		if err != nil {
			t.Skip("degenerate draw")
		}
		back, err := QuadrilateralToQuadrilateral(to, from)
		if err != nil {
			t.Skip("degenerate draw")
		}
		u := rapid.Float64Range(0.1, 0.9).Draw(t, "u")
		v := rapid.Float64Range(0.1, 0.9).Draw(t, "v")
		sq, _ := SquareToQuadrilateral(from)
		x, y := sq.Apply(u, v)

		fx, fy := fwd.Apply(x, y)
		bx, by := back.Apply(fx, fy)
		if math.Abs(bx-x) > 1e-6*(1+math.Abs(x)) || math.Abs(by-y) > 1e-6*(1+math.Abs(y)) {
			t.Fatalf("round trip (%v,%v) -> (%v,%v) -> (%v,%v)", x, y, fx, fy, bx, by)
		}
	})
}

// randomConvexQuad jitters the corners of a large square enough to produce
// real perspective without folding the shape.
func randomConvexQuad(t *rapid.T) Quad {
	j := func(label string) float64 { return rapid.Float64Range(-30, 30).Draw(t, label) }
	ox := rapid.Float64Range(0, 500).Draw(t, "ox")
	oy := rapid.Float64Range(0, 500).Draw(t, "oy")
	return Quad{
		ox + j("x0"), oy + j("y0"),
		ox + 200 + j("x1"), oy + j("y1"),
		ox + 200 + j("x2"), oy + 200 + j("y2"),
		ox + j("x3"), oy + 200 + j("y3"),
	}
}

func TestSampleGridIdentity(t *testing.T) {
	img := bitutil.NewBitMatrix(12)
	img.SetRegion(0, 0, 6, 6)
	img.SetRegion(6, 6, 6, 6)
	tr, err := QuadrilateralToQuadrilateral(Quad{0, 0, 4, 0, 4, 4, 0, 4}, Quad{0, 0, 12, 0, 12, 12, 0, 12})
	require.NoError(t, err)
	bits, err := SampleGrid(img, 4, 4, tr)
	require.NoError(t, err)
	assert.Equal(t, "X X     \nX X     \n    X X \n    X X \n", bits.String())
}

func TestSampleGridOutOfBounds(t *testing.T) {
	img := bitutil.NewBitMatrix(10)
	tr, err := QuadrilateralToQuadrilateral(Quad{0, 0, 4, 0, 4, 4, 0, 4}, Quad{0, 0, 40, 0, 40, 40, 0, 40})
	require.NoError(t, err)
	_, err = SampleGrid(img, 4, 4, tr)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = SampleGrid(img, 0, 4, tr)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestCheckAndNudgePoints(t *testing.T) {
	img := bitutil.NewBitMatrix(10)
	pts := []float64{10.2, 10.5, -0.9, 3, 5, 5}
	require.NoError(t, CheckAndNudgePoints(img, pts))
	assert.Equal(t, 9.0, pts[0])
	assert.Equal(t, 9.0, pts[1])
	assert.Equal(t, -0.9, pts[2], "truncates to column 0")

	assert.ErrorIs(t, CheckAndNudgePoints(img, []float64{-3, 0}), ErrOutOfBounds)
	assert.ErrorIs(t, CheckAndNudgePoints(img, []float64{math.NaN(), 0}), ErrOutOfBounds)
}
