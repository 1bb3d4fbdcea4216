package decoder

import (
	"fmt"

	"github.com/ericlevine/matrixscan"
)

// Mode is a segment type, identified by its 4-bit indicator.
type Mode int

const (
	ModeTerminator         Mode = 0x0
	ModeNumeric            Mode = 0x1
	ModeAlphanumeric       Mode = 0x2
	ModeStructuredAppend   Mode = 0x3
	ModeByte               Mode = 0x4
	ModeFNC1FirstPosition  Mode = 0x5
	ModeECI                Mode = 0x7
	ModeKanji              Mode = 0x8
	ModeFNC1SecondPosition Mode = 0x9
	ModeHanzi              Mode = 0xD
)

// characterCountBits holds the count field width for versions 1-9, 10-26
// and 27-40. Modes without a count field are absent.
var characterCountBits = map[Mode][3]int{
	ModeNumeric:      {10, 12, 14},
	ModeAlphanumeric: {9, 11, 13},
	ModeByte:         {8, 16, 16},
	ModeKanji:        {8, 10, 12},
	ModeHanzi:        {8, 10, 12},
}

// ModeForBits decodes a mode indicator.
func ModeForBits(b int) (Mode, error) {
	switch m := Mode(b); m {
	case ModeTerminator, ModeNumeric, ModeAlphanumeric, ModeStructuredAppend,
		ModeByte, ModeFNC1FirstPosition, ModeECI, ModeKanji,
		ModeFNC1SecondPosition, ModeHanzi:
		return m, nil
	}
	return 0, fmt.Errorf("%w: mode indicator %#x", matrixscan.ErrFormat, b)
}

// CharacterCountBits returns the width of m's count field in v, or 0 when
// m has none.
func (m Mode) CharacterCountBits(v *Version) int {
	widths, ok := characterCountBits[m]
	if !ok {
		return 0
	}
	switch n := v.Number(); {
	case n <= 9:
		return widths[0]
	case n <= 26:
		return widths[1]
	}
	return widths[2]
}

func (m Mode) String() string {
	switch m {
	case ModeTerminator:
		return "terminator"
	case ModeNumeric:
		return "numeric"
	case ModeAlphanumeric:
		return "alphanumeric"
	case ModeStructuredAppend:
		return "structured-append"
	case ModeByte:
		return "byte"
	case ModeFNC1FirstPosition:
		return "fnc1-first"
	case ModeECI:
		return "eci"
	case ModeKanji:
		return "kanji"
	case ModeFNC1SecondPosition:
		return "fnc1-second"
	case ModeHanzi:
		return "hanzi"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}
