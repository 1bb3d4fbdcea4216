package decoder

import (
	"fmt"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
)

// BitMatrixParser reads the function fields and codewords of a sampled
// module grid. ReadCodewords unmasks the grid in place, so the parser must
// own it.
type BitMatrixParser struct {
	bits    *bitutil.BitMatrix
	dim     int
	version *Version
	format  *FormatInformation
}

// NewBitMatrixParser checks that bits has a legal QR dimension.
func NewBitMatrixParser(bits *bitutil.BitMatrix) (*BitMatrixParser, error) {
	dim := bits.Height()
	if bits.Width() != dim || dim < 21 || dim&0x03 != 1 {
		return nil, fmt.Errorf("%w: %dx%d is not a symbol size", matrixscan.ErrFormat, bits.Width(), dim)
	}
	return &BitMatrixParser{bits: bits, dim: dim}, nil
}

// ReadFormatInformation reads both copies of the format field.
func (p *BitMatrixParser) ReadFormatInformation() (*FormatInformation, error) {
	if p.format != nil {
		return p.format, nil
	}

	// around the top-left finder
	read1 := 0
	for x := 0; x < 6; x++ {
		read1 = p.copyBit(x, 8, read1)
	}
	read1 = p.copyBit(7, 8, read1)
	read1 = p.copyBit(8, 8, read1)
	read1 = p.copyBit(8, 7, read1)
	for y := 5; y >= 0; y-- {
		read1 = p.copyBit(8, y, read1)
	}

	// split between the top-right and bottom-left finders
	read2 := 0
	for y := p.dim - 1; y >= p.dim-7; y-- {
		read2 = p.copyBit(8, y, read2)
	}
	for x := p.dim - 8; x < p.dim; x++ {
		read2 = p.copyBit(x, 8, read2)
	}

	fi, ok := DecodeFormatInformation(read1, read2)
	if !ok {
		return nil, fmt.Errorf("%w: unreadable format information", matrixscan.ErrFormat)
	}
	p.format = fi
	return fi, nil
}

// ReadVersion derives the version from the dimension, and for version 7 and
// up confirms it against the version fields.
func (p *BitMatrixParser) ReadVersion() (*Version, error) {
	if p.version != nil {
		return p.version, nil
	}
	provisional := (p.dim - 17) / 4
	if provisional <= 6 {
		v, err := VersionForNumber(provisional)
		if err != nil {
			return nil, err
		}
		p.version = v
		return v, nil
	}

	// top-right block, 3 wide and 6 tall
	read := 0
	for y := 5; y >= 0; y-- {
		for x := p.dim - 9; x >= p.dim-11; x-- {
			read = p.copyBit(x, y, read)
		}
	}
	if v, ok := DecodeVersionInformation(read, read); ok && v.Dimension() == p.dim {
		p.version = v
		return v, nil
	}

	// bottom-left block, 6 wide and 3 tall
	read = 0
	for x := 5; x >= 0; x-- {
		for y := p.dim - 9; y >= p.dim-11; y-- {
			read = p.copyBit(x, y, read)
		}
	}
	if v, ok := DecodeVersionInformation(read, read); ok && v.Dimension() == p.dim {
		p.version = v
		return v, nil
	}
	return nil, fmt.Errorf("%w: unreadable version information", matrixscan.ErrFormat)
}

func (p *BitMatrixParser) copyBit(x, y, acc int) int {
	acc <<= 1
	if p.bits.Get(x, y) {
		acc |= 1
	}
	return acc
}

// ReadCodewords unmasks the grid and collects the codewords in placement
// order: two-module columns from the right edge, alternately upward and
// downward, skipping the vertical timing column and every function module.
func (p *BitMatrixParser) ReadCodewords() ([]byte, error) {
	fi, err := p.ReadFormatInformation()
	if err != nil {
		return nil, err
	}
	v, err := p.ReadVersion()
	if err != nil {
		return nil, err
	}

	unmask(p.bits, p.dim, fi.DataMask)
	function := v.FunctionPattern()

	out := make([]byte, 0, v.TotalCodewords())
	cur, n := 0, 0
	up := true
	for x := p.dim - 1; x > 0; x -= 2 {
		if x == 6 {
			x--
		}
		for k := 0; k < p.dim; k++ {
			y := k
			if up {
				y = p.dim - 1 - k
			}
			for dx := 0; dx < 2; dx++ {
				if function.Get(x-dx, y) {
					continue
				}
				cur <<= 1
				if p.bits.Get(x-dx, y) {
					cur |= 1
				}
				if n++; n == 8 {
					if len(out) == cap(out) {
						return nil, fmt.Errorf("%w: too many codewords", matrixscan.ErrFormat)
					}
					out = append(out, byte(cur))
					cur, n = 0, 0
				}
			}
		}
		up = !up
	}
	if len(out) != v.TotalCodewords() {
		return nil, fmt.Errorf("%w: read %d codewords, want %d", matrixscan.ErrFormat, len(out), v.TotalCodewords())
	}
	return out, nil
}
