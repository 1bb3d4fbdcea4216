package matrixscan

import (
	"slices"
	"sync"

	"github.com/ericlevine/matrixscan/bitutil"
)

// Symbology is one matrix barcode family. The three stages run in order on
// a single Session; parameter tables belong to the implementation.
type Symbology interface {
	Format() Format

	// Detect locates a symbol in s.Image and resamples it onto its module
	// grid.
	Detect(s *Session) (*DetectorResult, error)

	// Sample reads and error-corrects the codewords of a module grid.
	Sample(s *Session, bits *bitutil.BitMatrix) (*Codewords, error)

	// DecodeBitstream turns corrected codewords into a Result.
	DecodeBitstream(s *Session, cw *Codewords) (*Result, error)
}

// PureExtractor is implemented by symbologies that can lift an unrotated,
// axis-aligned symbol straight out of the image when Hints.PureBarcode is
// set.
type PureExtractor interface {
	ExtractPure(s *Session) (*DetectorResult, error)
}

// SymbologyFactory returns a fresh Symbology. It is called once per decode.
type SymbologyFactory func() Symbology

var (
	registryMu sync.RWMutex
	registry   = map[Format]SymbologyFactory{}
)

// RegisterSymbology makes a symbology available to every Scanner. It is
// meant to be called from an init function; a later registration for the
// same format replaces the earlier one.
func RegisterSymbology(format Format, factory SymbologyFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[format] = factory
}

// RegisteredFormats lists the registered formats in ascending order.
func RegisteredFormats() []Format {
	registryMu.RLock()
	defer registryMu.RUnlock()
	formats := make([]Format, 0, len(registry))
	for f := range registry {
		formats = append(formats, f)
	}
	slices.Sort(formats)
	return formats
}

func lookupSymbology(format Format) (SymbologyFactory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[format]
	return f, ok
}
