package matrixscan

import "errors"

var (
	// ErrNotFound is returned when no symbol could be located in the grid.
	ErrNotFound = errors.New("symbol not found")

	// ErrChecksum is returned when error correction could not repair the
	// codewords.
	ErrChecksum = errors.New("checksum error")

	// ErrFormat is returned when a located symbol is structurally invalid:
	// bad version or format information, impossible dimension, or a
	// malformed bitstream.
	ErrFormat = errors.New("format error")
)

// errorRank orders failures from least to most specific. A decode that got
// as far as error correction says more than one that never found a symbol.
func errorRank(err error) int {
	switch {
	case err == nil:
		return -1
	case errors.Is(err, ErrChecksum):
		return 3
	case errors.Is(err, ErrFormat):
		return 2
	case errors.Is(err, ErrNotFound):
		return 1
	}
	return 0
}
