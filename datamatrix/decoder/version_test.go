package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/matrixscan"
)

func TestVersionTableConsistent(t *testing.T) {
	for n := 1; n <= 48; n++ {
		v, err := VersionForNumber(n)
		require.NoError(t, err)
		assert.Equal(t, n, v.Number())

		rr, rc := v.RegionRows(), v.RegionColumns()
		require.Zero(t, v.Rows()%(rr+2), "%v", v)
		require.Zero(t, v.Columns()%(rc+2), "%v", v)
		modules := v.Rows() / (rr + 2) * rr * (v.Columns() / (rc + 2) * rc)
		// four modules are left over in some sizes
		assert.Equal(t, modules/8, v.TotalCodewords(), "%v", v)

		ec := v.ECBlocks()
		assert.Equal(t, v.TotalCodewords()-v.DataCodewords(), ec.NumBlocks()*ec.ECCodewordsPerBlock, "%v", v)

		same, err := VersionForDimensions(v.Rows(), v.Columns())
		require.NoError(t, err)
		assert.Same(t, v, same)
	}
}

func TestVersionLookups(t *testing.T) {
	for _, tc := range []struct {
		rows, cols, number int
		name               string
	}{
		{10, 10, 1, "10x10"},
		{144, 144, 24, "144x144"},
		{8, 18, 25, "8x18"},
		{16, 48, 30, "16x48"},
		{26, 64, 48, "26x64"},
	} {
		v, err := VersionForDimensions(tc.rows, tc.cols)
		require.NoError(t, err)
		assert.Equal(t, tc.number, v.Number())
		assert.Equal(t, tc.name, v.String())
	}

	for _, dim := range [][2]int{{11, 11}, {10, 12}, {18, 8}} {
		_, err := VersionForDimensions(dim[0], dim[1])
		assert.ErrorIs(t, err, matrixscan.ErrFormat, "%v", dim)
	}
	for _, n := range []int{0, 49} {
		_, err := VersionForNumber(n)
		assert.ErrorIs(t, err, matrixscan.ErrFormat, "%d", n)
	}
}
