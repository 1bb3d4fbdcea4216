package decoder

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/matrixscan"
)

func TestAlignmentCenters(t *testing.T) {
	for n, want := range map[int][]int{
		1:  nil,
		2:  {6, 18},
		6:  {6, 34},
		7:  {6, 22, 38},
		14: {6, 26, 46, 66},
		15: {6, 26, 48, 70},
		16: {6, 26, 50, 74},
		22: {6, 26, 50, 74, 98},
		32: {6, 34, 60, 86, 112, 138},
		36: {6, 24, 50, 76, 102, 128, 154},
		39: {6, 26, 54, 82, 110, 138, 166},
		40: {6, 30, 58, 86, 114, 142, 170},
	} {
		v, err := VersionForNumber(n)
		require.NoError(t, err)
		assert.Equal(t, want, v.AlignmentCenters(), "version %d", n)
	}
}

func TestVersionInfoCodewords(t *testing.T) {
	assert.Equal(t, 0x07C94, versionInfo[0])
	assert.Equal(t, 0x0C762, versionInfo[5])
	assert.Equal(t, 0x1F250, versionInfo[24])
	assert.Equal(t, 0x28C69, versionInfo[33])
}

func TestFormatInfoCodewords(t *testing.T) {
	assert.Equal(t, 0x5412, formatInfo[0x00])
	assert.Equal(t, 0x5125, formatInfo[0x01])
	assert.Equal(t, 0x77C4, formatInfo[0x08])
	assert.Equal(t, 0x1689, formatInfo[0x10])
	assert.Equal(t, 0x2BED, formatInfo[0x1F])
}

// remainderBits is the number of data modules left over after the last
// whole codeword.
func remainderBits(n int) int {
	switch {
	case n == 1:
		return 0
	case n <= 6:
		return 7
	case n <= 13:
		return 0
	case n <= 20:
		return 3
	case n <= 27:
		return 4
	case n <= 34:
		return 3
	}
	return 0
}

func TestFunctionPatternLeavesRoomForCodewords(t *testing.T) {
	for n := 1; n <= 40; n++ {
		v, err := VersionForNumber(n)
		require.NoError(t, err)
		fp := v.FunctionPattern()
		dim := v.Dimension()
		free := 0
		for y := 0; y < dim; y++ {
			for x := 0; x < dim; x++ {
				if !fp.Get(x, y) {
					free++
				}
			}
		}
		assert.Equal(t, v.TotalCodewords()*8+remainderBits(n), free, "version %d", n)
	}
}

func TestVersionTables(t *testing.T) {
	v1, _ := VersionForNumber(1)
	assert.Equal(t, 21, v1.Dimension())
	assert.Equal(t, 26, v1.TotalCodewords())
	assert.Equal(t, 19, v1.DataCodewords(ECLevelL))
	assert.Equal(t, 9, v1.DataCodewords(ECLevelH))

	v40, _ := VersionForNumber(40)
	assert.Equal(t, 177, v40.Dimension())
	assert.Equal(t, 3706, v40.TotalCodewords())
	assert.Equal(t, 1276, v40.DataCodewords(ECLevelH))
	assert.Equal(t, 81, v40.ECBlocks(ECLevelH).NumBlocks())

	// every level of a version must add up to the same total
	for n := 1; n <= 40; n++ {
		v, _ := VersionForNumber(n)
		for level := ECLevelL; level <= ECLevelH; level++ {
			e := v.ECBlocks(level)
			total := 0
			for _, g := range e.Groups {
				total += g.Count * (g.DataCodewords + e.ECCodewordsPerBlock)
			}
			assert.Equal(t, v.TotalCodewords(), total, "version %d level %v", n, level)
		}
	}
}

func TestVersionLookupErrors(t *testing.T) {
	_, err := VersionForNumber(0)
	assert.ErrorIs(t, err, matrixscan.ErrFormat)
	_, err = VersionForNumber(41)
	assert.ErrorIs(t, err, matrixscan.ErrFormat)

	v, err := ProvisionalVersionForDimension(45)
	require.NoError(t, err)
	assert.Equal(t, 7, v.Number())
	_, err = ProvisionalVersionForDimension(23)
	assert.ErrorIs(t, err, matrixscan.ErrFormat)
	_, err = ProvisionalVersionForDimension(185)
	assert.ErrorIs(t, err, matrixscan.ErrFormat)
}

func TestDecodeVersionInformation(t *testing.T) {
	v, ok := DecodeVersionInformation(0x07C94, 0x07C94)
	require.True(t, ok)
	assert.Equal(t, 7, v.Number())

	// three flipped bits are still closest to version 7
	v, ok = DecodeVersionInformation(0x07C94^0x10101, 0x07C94^0x10101)
	require.True(t, ok)
	assert.Equal(t, 7, v.Number())

	// one good copy is enough
	v, ok = DecodeVersionInformation(0x3FFFF, 0x28C69)
	require.True(t, ok)
	assert.Equal(t, 40, v.Number())

	_, ok = DecodeVersionInformation(0, 0)
	assert.False(t, ok)
}

func TestDecodeFormatInformation(t *testing.T) {
	want := &FormatInformation{ECLevel: ECLevelH, DataMask: 7}
	masked := formatInfo[0x17]

	fi, ok := DecodeFormatInformation(masked, masked)
	require.True(t, ok)
	assert.Equal(t, want, fi)

	fi, ok = DecodeFormatInformation(masked^0x0301, 0)
	require.True(t, ok)
	assert.Equal(t, want, fi)

	unmasked := masked ^ formatInfoMask
	fi, ok = DecodeFormatInformation(unmasked, unmasked)
	require.True(t, ok)
	assert.Equal(t, want, fi)
}

func TestFormatCodewordsAreFarApart(t *testing.T) {
	for i := range formatInfo {
		for j := i + 1; j < len(formatInfo); j++ {
			assert.GreaterOrEqual(t, bits.OnesCount32(uint32(formatInfo[i]^formatInfo[j])), 7)
		}
	}
}

func TestECLevelBits(t *testing.T) {
	for level := ECLevelL; level <= ECLevelH; level++ {
		got, err := ECLevelForBits(level.Bits())
		require.NoError(t, err)
		assert.Equal(t, level, got)
	}
	_, err := ECLevelForBits(4)
	assert.ErrorIs(t, err, matrixscan.ErrFormat)
}
