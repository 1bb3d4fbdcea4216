package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
)

// "123456" in the 10x10 and 8x18 sizes, and "DMRE 8x48" in the two-region
// 8x48 rectangle.
const (
	square10 = `
X.X.X.X.X.
XX..X.XX.X
XX.....X..
XX...XXX.X
XX....X...
X.....XXXX
XXX.XX....
XXXX.XX..X
X..XXX.X..
XXXXXXXXXX
`
	rect8x18 = `
X.X.X.X.X.X.X.X.X.
XX..X.....XX.....X
XX...X..XX.XXXX.X.
XX..XX...X...XXX.X
XXXX.XX..XXX..X...
X.XXXX...X...X.XXX
X....XXXX.XX.XX.X.
XXXXXXXXXXXXXXXXXX
`
	rect8x48 = `
X.X.X.X.X.X.X.X.X.X.X.X.X.X.X.X.X.X.X.X.X.X.X.X.
X.X.XX...X...XX..XXXXXXXX.XXX.X...XX...XXX..X..X
X..X..XX.XX.XXX.X...X.X.X.X.X...X..XX..X..XXX.X.
XXX.X...X.X.XXX........XXXXXXX..X.XX.XX.XX..XX.X
X.....XXXXX..XXX.X..X.X.XX..XX.XXX.......X....X.
XXXXX.X..X.X.X..X..XX.XXX......XX.X..X.XX.XX..XX
X...X.X..X.XX....XX...X.X.XXX.XX.X.X.X..X.XX..X.
XXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX
`
)

func grid(repr string) *bitutil.BitMatrix {
	return bitutil.ParseStringMatrix(repr, "X", ".")
}

func TestReadCodewords(t *testing.T) {
	for _, tc := range []struct {
		name    string
		repr    string
		version int
		want    []byte
	}{
		{"10x10", square10, 1, []byte{142, 164, 186, 114, 25, 5, 88, 102}},
		{"8x18", rect8x18, 25, []byte{142, 164, 186, 129, 115, 248, 69, 9, 108, 180, 217, 198}},
		{"8x48", rect8x48, 31, []byte{
			69, 78, 83, 70, 33, 57, 121, 178, 129, 101, 251, 147, 42, 192, 87, 237, 133, 28,
			224, 215, 234, 76, 11, 197, 98, 181, 209, 241, 104, 18, 163, 115, 9,
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewBitMatrixParser(grid(tc.repr))
			require.NoError(t, err)
			assert.Equal(t, tc.version, p.Version().Number())
			got, err := p.ReadCodewords()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewBitMatrixParserRejectsSizes(t *testing.T) {
	for _, dim := range [][2]int{{6, 6}, {11, 11}, {10, 12}, {146, 146}} {
		_, err := NewBitMatrixParser(bitutil.NewBitMatrixWithSize(dim[0], dim[1]))
		assert.ErrorIs(t, err, matrixscan.ErrFormat, "%dx%d", dim[0], dim[1])
	}
}

func TestDecode(t *testing.T) {
	cw, err := NewDecoder().Decode(grid(rect8x48))
	require.NoError(t, err)
	assert.Equal(t, 31, cw.Version)
	assert.Equal(t, 0, cw.ErrorsCorrected)
	require.Len(t, cw.Data, 18)
	assert.Equal(t, 18*8, cw.NumBits)

	res, err := DecodeBitStream(cw.Data, "")
	require.NoError(t, err)
	assert.Equal(t, "DMRE 8x48", res.Text)
}

func TestDecodeCorrectsModules(t *testing.T) {
	bits := grid(square10)
	// one data module; a module belongs to exactly one codeword
	bits.Flip(4, 4)
	cw, err := NewDecoder().Decode(bits)
	require.NoError(t, err)
	assert.Equal(t, []byte{142, 164, 186}, cw.Data)
	assert.Equal(t, 1, cw.ErrorsCorrected)
}

func TestDecodeUnreadable(t *testing.T) {
	bits := grid(square10)
	// every codeword 0xFF; all zero would be a valid block
	for y := 1; y <= 8; y++ {
		for x := 1; x <= 8; x++ {
			bits.Set(x, y)
		}
	}
	_, err := NewDecoder().Decode(bits)
	assert.ErrorIs(t, err, matrixscan.ErrChecksum)
}
