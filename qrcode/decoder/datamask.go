package decoder

import "github.com/ericlevine/matrixscan/bitutil"

// dataMasks are the eight mask conditions, by row i and column j. A module
// is inverted where its condition holds.
var dataMasks = [8]func(i, j int) bool{
	func(i, j int) bool { return (i+j)&1 == 0 },
	func(i, j int) bool { return i&1 == 0 },
	func(i, j int) bool { return j%3 == 0 },
	func(i, j int) bool { return (i+j)%3 == 0 },
	func(i, j int) bool { return (i/2+j/3)&1 == 0 },
	func(i, j int) bool { return i*j%6 == 0 },
	func(i, j int) bool { return i*j%6 < 3 },
	func(i, j int) bool { return (i+j+i*j%3)&1 == 0 },
}

// unmask flips every module of a dim x dim grid selected by mask. Applying
// it twice restores the grid.
func unmask(bm *bitutil.BitMatrix, dim, mask int) {
	cond := dataMasks[mask]
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			if cond(i, j) {
				bm.Flip(j, i)
			}
		}
	}
}
