package matrixscan

import (
	"time"

	"github.com/ericlevine/matrixscan/bitutil"
)

// BitGrid is the caller's binarized image: true means a dark pixel. The
// decoder only reads it.
type BitGrid = bitutil.Grid

// Orientation records how a sampled grid had to be turned before its
// codewords could be read.
type Orientation int

const (
	OrientationNormal Orientation = iota
	OrientationMirrored
	OrientationRotated90
	OrientationRotated180
	OrientationRotated270
)

func (o Orientation) String() string {
	switch o {
	case OrientationNormal:
		return "normal"
	case OrientationMirrored:
		return "mirrored"
	case OrientationRotated90:
		return "rotated90"
	case OrientationRotated180:
		return "rotated180"
	case OrientationRotated270:
		return "rotated270"
	}
	return "unknown"
}

// DetectorResult is a symbol located and resampled onto its module grid,
// together with the image points that anchored the sampling.
type DetectorResult struct {
	Bits   *bitutil.BitMatrix
	Points []ResultPoint
}

// Codewords are the error-corrected data codewords of one symbol, ready for
// bitstream decoding.
type Codewords struct {
	Data            []byte
	NumBits         int
	Version         int
	ECLevel         string
	ErrorsCorrected int
	Orientation     Orientation
}

// StructuredAppend places a symbol within a sequence of up to 16 symbols
// that together carry one message.
type StructuredAppend struct {
	Sequence int // high nibble: index, low nibble: total - 1
	Parity   int
}

// Index returns the zero-based position of this symbol in its sequence.
func (s StructuredAppend) Index() int { return s.Sequence >> 4 }

// Total returns the number of symbols in the sequence.
func (s StructuredAppend) Total() int { return s.Sequence&0x0f + 1 }

// Result is a successfully decoded symbol.
type Result struct {
	Text            string
	RawBytes        []byte
	NumBits         int
	ByteSegments    [][]byte
	Points          []ResultPoint
	Format          Format
	Version         int
	ECLevel         string
	ErrorsCorrected int
	Orientation     Orientation

	// StructuredAppend is nil unless the symbol is part of a sequence.
	StructuredAppend *StructuredAppend

	// ECI is the last Extended Channel Interpretation designator seen, or
	// nil when the bitstream had none.
	ECI *int

	// SymbologyIdentifier is the AIM identifier, e.g. "]Q1".
	SymbologyIdentifier string

	Timestamp time.Time
}
