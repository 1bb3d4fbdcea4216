package bitutil

import (
	"math/bits"
	"strings"
)

// Grid is the read-only view of a two-dimensional bit image.
// true means dark.
type Grid interface {
	Width() int
	Height() int
	Get(x, y int) bool
}

// BitMatrix is a packed, mutable bit grid. x is the column and y the row;
// the origin is the top-left corner. Out-of-range reads report false.
type BitMatrix struct {
	width  int
	height int
	stride int // words per row
	words  []uint64
}

// NewBitMatrix creates a square matrix with all bits cleared.
func NewBitMatrix(dimension int) *BitMatrix {
	return NewBitMatrixWithSize(dimension, dimension)
}

// NewBitMatrixWithSize creates a width x height matrix with all bits cleared.
func NewBitMatrixWithSize(width, height int) *BitMatrix {
	if width < 1 || height < 1 {
		panic("bitmatrix: dimensions must be greater than 0")
	}
	stride := (width + 63) >> 6
	return &BitMatrix{
		width:  width,
		height: height,
		stride: stride,
		words:  make([]uint64, stride*height),
	}
}

// FromGrid copies any Grid into a BitMatrix. A *BitMatrix is returned as is.
func FromGrid(g Grid) *BitMatrix {
	if bm, ok := g.(*BitMatrix); ok {
		return bm
	}
	bm := NewBitMatrixWithSize(g.Width(), g.Height())
	for y := 0; y < bm.height; y++ {
		for x := 0; x < bm.width; x++ {
			if g.Get(x, y) {
				bm.Set(x, y)
			}
		}
	}
	return bm
}

// ParseStringMatrix builds a matrix from rows of set/unset tokens separated
// by newlines. It panics on ragged rows or unknown characters; it is meant
// for fixtures.
func ParseStringMatrix(repr, setStr, unsetStr string) *BitMatrix {
	var rows [][]bool
	for _, line := range strings.FieldsFunc(repr, func(r rune) bool { return r == '\n' || r == '\r' }) {
		var row []bool
		for len(line) > 0 {
			switch {
			case strings.HasPrefix(line, setStr):
				row = append(row, true)
				line = line[len(setStr):]
			case strings.HasPrefix(line, unsetStr):
				row = append(row, false)
				line = line[len(unsetStr):]
			default:
				panic("bitmatrix: illegal character encountered")
			}
		}
		if len(row) == 0 {
			continue
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			panic("bitmatrix: row lengths do not match")
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		panic("bitmatrix: empty matrix")
	}
	bm := NewBitMatrixWithSize(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, on := range row {
			if on {
				bm.Set(x, y)
			}
		}
	}
	return bm
}

func (bm *BitMatrix) index(x, y int) (int, uint64) {
	return y*bm.stride + x>>6, 1 << uint(x&63)
}

// Get reports whether the bit at (x, y) is set.
func (bm *BitMatrix) Get(x, y int) bool {
	if x < 0 || y < 0 || x >= bm.width || y >= bm.height {
		return false
	}
	i, m := bm.index(x, y)
	return bm.words[i]&m != 0
}

// Set sets the bit at (x, y).
func (bm *BitMatrix) Set(x, y int) {
	i, m := bm.index(x, y)
	bm.words[i] |= m
}

// Unset clears the bit at (x, y).
func (bm *BitMatrix) Unset(x, y int) {
	i, m := bm.index(x, y)
	bm.words[i] &^= m
}

// Flip inverts the bit at (x, y).
func (bm *BitMatrix) Flip(x, y int) {
	i, m := bm.index(x, y)
	bm.words[i] ^= m
}

// Clear clears all bits.
func (bm *BitMatrix) Clear() {
	clear(bm.words)
}

// SetRegion sets every bit of the rectangle with the given top-left corner
// and size.
func (bm *BitMatrix) SetRegion(left, top, width, height int) {
	if top < 0 || left < 0 {
		panic("bitmatrix: left and top must be nonnegative")
	}
	if height < 1 || width < 1 {
		panic("bitmatrix: height and width must be at least 1")
	}
	if top+height > bm.height || left+width > bm.width {
		panic("bitmatrix: region must fit inside the matrix")
	}
	for y := top; y < top+height; y++ {
		for x := left; x < left+width; x++ {
			bm.Set(x, y)
		}
	}
}

// Transpose mirrors the matrix across its main diagonal, so (x, y) becomes
// (y, x).
func (bm *BitMatrix) Transpose() {
	bm.remap(bm.height, bm.width, func(x, y int) (int, int) { return y, x })
}

// Rotate90 rotates the matrix 90 degrees counterclockwise.
func (bm *BitMatrix) Rotate90() {
	w := bm.width
	bm.remap(bm.height, bm.width, func(x, y int) (int, int) { return y, w - 1 - x })
}

// Rotate180 rotates the matrix 180 degrees.
func (bm *BitMatrix) Rotate180() {
	w, h := bm.width, bm.height
	bm.remap(w, h, func(x, y int) (int, int) { return w - 1 - x, h - 1 - y })
}

// Rotate rotates counterclockwise by a multiple of 90 degrees.
func (bm *BitMatrix) Rotate(degrees int) {
	switch ((degrees % 360) + 360) % 360 {
	case 0:
	case 90:
		bm.Rotate90()
	case 180:
		bm.Rotate180()
	case 270:
		bm.Rotate180()
		bm.Rotate90()
	default:
		panic("bitmatrix: degrees must be a multiple of 90")
	}
}

// remap moves every set bit (x, y) to to(x, y) in a newWidth x newHeight
// matrix and replaces the receiver's storage with it.
func (bm *BitMatrix) remap(newWidth, newHeight int, to func(x, y int) (int, int)) {
	out := NewBitMatrixWithSize(newWidth, newHeight)
	for y := 0; y < bm.height; y++ {
		row := bm.words[y*bm.stride : (y+1)*bm.stride]
		for wi, word := range row {
			for word != 0 {
				b := bits.TrailingZeros64(word)
				word &= word - 1
				out.Set(to(wi<<6+b, y))
			}
		}
	}
	*bm = *out
}

// EnclosingRectangle returns left, top, width and height of the smallest
// rectangle holding every set bit. ok is false for an empty matrix.
func (bm *BitMatrix) EnclosingRectangle() (left, top, width, height int, ok bool) {
	if _, y := bm.TopLeftOnBit(); y < 0 {
		return 0, 0, 0, 0, false
	}
	left, top = bm.width, bm.height
	right, bottom := -1, -1
	for y := 0; y < bm.height; y++ {
		row := bm.words[y*bm.stride : (y+1)*bm.stride]
		for wi, word := range row {
			if word == 0 {
				continue
			}
			top = min(top, y)
			bottom = max(bottom, y)
			left = min(left, wi<<6+bits.TrailingZeros64(word))
			right = max(right, wi<<6+63-bits.LeadingZeros64(word))
		}
	}
	return left, top, right - left + 1, bottom - top + 1, true
}

// TopLeftOnBit returns the first set bit in row-major order, or (-1, -1).
func (bm *BitMatrix) TopLeftOnBit() (x, y int) {
	for i, word := range bm.words {
		if word != 0 {
			return (i%bm.stride)<<6 + bits.TrailingZeros64(word), i / bm.stride
		}
	}
	return -1, -1
}

// BottomRightOnBit returns the last set bit in row-major order, or (-1, -1).
func (bm *BitMatrix) BottomRightOnBit() (x, y int) {
	for i := len(bm.words) - 1; i >= 0; i-- {
		if word := bm.words[i]; word != 0 {
			return (i%bm.stride)<<6 + 63 - bits.LeadingZeros64(word), i / bm.stride
		}
	}
	return -1, -1
}

// Width returns the number of columns.
func (bm *BitMatrix) Width() int { return bm.width }

// Height returns the number of rows.
func (bm *BitMatrix) Height() int { return bm.height }

// Clone returns a deep copy.
func (bm *BitMatrix) Clone() *BitMatrix {
	c := *bm
	c.words = append([]uint64(nil), bm.words...)
	return &c
}

// Equals reports whether both matrices have the same size and bits.
func (bm *BitMatrix) Equals(other *BitMatrix) bool {
	if other == nil || bm.width != other.width || bm.height != other.height {
		return false
	}
	for i := range bm.words {
		if bm.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// String renders the matrix with "X " for set and "  " for unset bits.
func (bm *BitMatrix) String() string {
	return bm.StringWithChars("X ", "  ")
}

// StringWithChars renders the matrix one row per line.
func (bm *BitMatrix) StringWithChars(setString, unsetString string) string {
	var sb strings.Builder
	sb.Grow(bm.height * (bm.width*len(setString) + 1))
	for y := 0; y < bm.height; y++ {
		for x := 0; x < bm.width; x++ {
			if bm.Get(x, y) {
				sb.WriteString(setString)
			} else {
				sb.WriteString(unsetString)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
