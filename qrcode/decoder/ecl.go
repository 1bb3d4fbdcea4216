// Package decoder reads the module grid of a QR symbol: version and format
// information, data masking, codeword placement, error correction and the
// segmented bitstream.
package decoder

import (
	"fmt"

	"github.com/ericlevine/matrixscan"
)

// ECLevel is one of the four error-correction levels. Its value doubles as
// the index into per-version tables.
type ECLevel int

const (
	ECLevelL ECLevel = iota // ~7% correction
	ECLevelM                // ~15% correction
	ECLevelQ                // ~25% correction
	ECLevelH                // ~30% correction
)

// levelForBits is indexed by the two level bits of the format information.
var levelForBits = [4]ECLevel{ECLevelM, ECLevelL, ECLevelH, ECLevelQ}

// Bits returns the two-bit encoding used in format information.
func (l ECLevel) Bits() int {
	switch l {
	case ECLevelL:
		return 1
	case ECLevelM:
		return 0
	case ECLevelQ:
		return 3
	case ECLevelH:
		return 2
	}
	return -1
}

func (l ECLevel) String() string {
	switch l {
	case ECLevelL:
		return "L"
	case ECLevelM:
		return "M"
	case ECLevelQ:
		return "Q"
	case ECLevelH:
		return "H"
	}
	return "?"
}

// ECLevelForBits decodes the two level bits.
func ECLevelForBits(b int) (ECLevel, error) {
	if b < 0 || b >= len(levelForBits) {
		return 0, fmt.Errorf("%w: error correction bits %d", matrixscan.ErrFormat, b)
	}
	return levelForBits[b], nil
}

// ParseECLevel accepts the String form of a level.
func ParseECLevel(s string) (ECLevel, error) {
	for l := ECLevelL; l <= ECLevelH; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: error correction level %q", matrixscan.ErrFormat, s)
}
