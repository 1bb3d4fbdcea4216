package matrixscan

import "time"

// Outcome labels how a decode attempt ended.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFormat   Outcome = "format_error"
	OutcomeChecksum Outcome = "checksum_error"
	OutcomeError    Outcome = "error"
)

// OutcomeOf classifies err.
func OutcomeOf(err error) Outcome {
	switch errorRank(err) {
	case -1:
		return OutcomeSuccess
	case 1:
		return OutcomeNotFound
	case 2:
		return OutcomeFormat
	case 3:
		return OutcomeChecksum
	}
	return OutcomeError
}

// Observer receives one call per symbology attempt. Implementations must be
// safe for concurrent use when batch decoding.
type Observer interface {
	ObserveDecode(format Format, outcome Outcome, elapsed time.Duration, errorsCorrected int)
}

type nopObserver struct{}

func (nopObserver) ObserveDecode(Format, Outcome, time.Duration, int) {}
