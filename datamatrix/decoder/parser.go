package decoder

import (
	"fmt"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
)

// BitMatrixParser reads the codewords of a sampled symbol.
type BitMatrixParser struct {
	version *Version
	mapping *bitutil.BitMatrix
	read    *bitutil.BitMatrix
}

// NewBitMatrixParser looks up the symbol size of bits and strips its finder
// and clock tracks, leaving the data regions joined into one mapping
// matrix.
func NewBitMatrixParser(bits *bitutil.BitMatrix) (*BitMatrixParser, error) {
	h := bits.Height()
	if h < 8 || h > 144 || h&1 != 0 {
		return nil, fmt.Errorf("%w: %d rows", matrixscan.ErrFormat, h)
	}
	v, err := VersionForDimensions(h, bits.Width())
	if err != nil {
		return nil, err
	}
	mapping := extractDataRegions(bits, v)
	return &BitMatrixParser{
		version: v,
		mapping: mapping,
		read:    bitutil.NewBitMatrixWithSize(mapping.Width(), mapping.Height()),
	}, nil
}

// Version returns the symbol size.
func (p *BitMatrixParser) Version() *Version { return p.version }

func extractDataRegions(bits *bitutil.BitMatrix, v *Version) *bitutil.BitMatrix {
	rr, rc := v.regionRows, v.regionColumns
	regionsDown := v.rows / (rr + 2)
	regionsAcross := v.columns / (rc + 2)
	out := bitutil.NewBitMatrixWithSize(regionsAcross*rc, regionsDown*rr)
	for r := 0; r < regionsDown; r++ {
		for c := 0; c < regionsAcross; c++ {
			for i := 0; i < rr; i++ {
				srcY := r*(rr+2) + 1 + i
				for j := 0; j < rc; j++ {
					if bits.Get(c*(rc+2)+1+j, srcY) {
						out.Set(c*rc+j, r*rr+i)
					}
				}
			}
		}
	}
	return out
}

// ReadCodewords walks the mapping matrix in the ECC 200 diagonal order and
// returns the interleaved codewords.
func (p *BitMatrixParser) ReadCodewords() ([]byte, error) {
	rows, cols := p.mapping.Height(), p.mapping.Width()
	total := p.version.TotalCodewords()
	out := make([]byte, 0, total)
	emit := func(cells [8][2]int) {
		if len(out) < total {
			out = append(out, p.readCodeword(cells))
		}
	}

	row, col := 4, 0
	for {
		// the four corner shapes each start a sweep from the lower left
		switch {
		case row == rows && col == 0:
			emit(corner1(rows, cols))
			row, col = row-2, col+2
		case row == rows-2 && col == 0 && cols%4 != 0:
			emit(corner2(rows, cols))
			row, col = row-2, col+2
		case row == rows+4 && col == 2 && cols%8 == 0:
			emit(corner4(rows, cols))
			row, col = row-2, col+2
		case row == rows-2 && col == 0 && cols%8 == 4:
			emit(corner3(rows, cols))
			row, col = row-2, col+2
		}

		// up and to the right
		for {
			if row >= 0 && row < rows && col >= 0 && col < cols && !p.read.Get(col, row) {
				emit(utah(row, col))
			}
			row, col = row-2, col+2
			if row < 0 || col >= cols {
				break
			}
		}
		row, col = row+1, col+3

		// down and to the left
		for {
			if row >= 0 && row < rows && col >= 0 && col < cols && !p.read.Get(col, row) {
				emit(utah(row, col))
			}
			row, col = row+2, col-2
			if row >= rows || col < 0 {
				break
			}
		}
		row, col = row+3, col+1

		if row >= rows && col >= cols {
			break
		}
	}
	if len(out) != total {
		return nil, fmt.Errorf("%w: read %d of %d codewords", matrixscan.ErrFormat, len(out), total)
	}
	return out, nil
}

// readCodeword assembles eight modules, most significant bit first.
func (p *BitMatrixParser) readCodeword(cells [8][2]int) byte {
	var b byte
	for _, cell := range cells {
		b <<= 1
		if p.module(cell[0], cell[1]) {
			b |= 1
		}
	}
	return b
}

// module reads one module, wrapping coordinates that fall off the top or
// left edge onto the opposite side as the placement rules require.
func (p *BitMatrixParser) module(row, col int) bool {
	rows, cols := p.mapping.Height(), p.mapping.Width()
	if row < 0 {
		row += rows
		col += 4 - (rows+4)%8
	}
	if col < 0 {
		col += cols
		row += 4 - (cols+4)%8
	}
	if row >= rows {
		row -= rows
	}
	if col >= cols {
		col -= cols
	}
	p.read.Set(col, row)
	return p.mapping.Get(col, row)
}

// Module positions as (row, column), most significant bit first.

func utah(row, col int) [8][2]int {
	return [8][2]int{
		{row - 2, col - 2}, {row - 2, col - 1},
		{row - 1, col - 2}, {row - 1, col - 1}, {row - 1, col},
		{row, col - 2}, {row, col - 1}, {row, col},
	}
}

func corner1(rows, cols int) [8][2]int {
	return [8][2]int{
		{rows - 1, 0}, {rows - 1, 1}, {rows - 1, 2},
		{0, cols - 2}, {0, cols - 1},
		{1, cols - 1}, {2, cols - 1}, {3, cols - 1},
	}
}

func corner2(rows, cols int) [8][2]int {
	return [8][2]int{
		{rows - 3, 0}, {rows - 2, 0}, {rows - 1, 0},
		{0, cols - 4}, {0, cols - 3}, {0, cols - 2}, {0, cols - 1},
		{1, cols - 1},
	}
}

func corner3(rows, cols int) [8][2]int {
	return [8][2]int{
		{rows - 3, 0}, {rows - 2, 0}, {rows - 1, 0},
		{0, cols - 2}, {0, cols - 1},
		{1, cols - 1}, {2, cols - 1}, {3, cols - 1},
	}
}

func corner4(rows, cols int) [8][2]int {
	return [8][2]int{
		{rows - 1, 0}, {rows - 1, cols - 1},
		{0, cols - 3}, {0, cols - 2}, {0, cols - 1},
		{1, cols - 3}, {1, cols - 2}, {1, cols - 1},
	}
}
