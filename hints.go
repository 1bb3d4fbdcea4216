package matrixscan

import "slices"

// Hints tune a decode. The zero value, like a nil *Hints, asks for the
// default behaviour.
type Hints struct {
	// PossibleFormats limits which symbologies are tried. Empty means all
	// registered ones.
	PossibleFormats []Format

	// TryHarder spends more time on the finder search: every third row is
	// scanned and rejected candidates get a second, looser cross-check.
	TryHarder bool

	// PureBarcode declares that the grid holds one unrotated symbol with
	// only a quiet zone around it, so detection can be skipped.
	PureBarcode bool

	// CharacterSet names the encoding for byte segments that carry no ECI
	// designator. Empty means guess.
	CharacterSet string

	// AllowedLengths, when non-empty, rejects results whose text length in
	// characters is not listed.
	AllowedLengths []int

	// AssumeCheckDigit is accepted for parity with linear symbologies.
	// Matrix decoders ignore it.
	AssumeCheckDigit bool

	// ResultPointCallback is called with each candidate point as the
	// detector finds it. It runs on the decoding goroutine.
	ResultPointCallback func(ResultPoint)
}

func (h *Hints) orDefault() *Hints {
	if h == nil {
		return &Hints{}
	}
	return h
}

// allows reports whether f may be tried.
func (h *Hints) allows(f Format) bool {
	return len(h.PossibleFormats) == 0 || slices.Contains(h.PossibleFormats, f)
}

func (h *Hints) lengthAllowed(n int) bool {
	return len(h.AllowedLengths) == 0 || slices.Contains(h.AllowedLengths, n)
}
