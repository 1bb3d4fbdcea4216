package matrixscan

import (
	"log/slog"

	"github.com/ericlevine/matrixscan/bitutil"
)

// Session is the state of one decode attempt of one symbology. It is not
// shared between goroutines and is discarded when the attempt ends.
type Session struct {
	// Image is the grid being decoded. Stages must not modify it.
	Image *bitutil.BitMatrix
	Hints *Hints
	// Logger is scoped to the attempt's format.
	Logger *slog.Logger
	// Detection is set once the detect stage has succeeded.
	Detection *DetectorResult

	points []ResultPoint
}

// NewSession prepares a decode of grid. A nil hints or logger gets the
// defaults.
func NewSession(grid BitGrid, hints *Hints, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		Image:  bitutil.FromGrid(grid),
		Hints:  hints.orDefault(),
		Logger: logger,
	}
}

// FoundPoint records a candidate point and forwards it to the caller's
// callback, if any.
func (s *Session) FoundPoint(p ResultPoint) {
	s.points = append(s.points, p)
	if cb := s.Hints.ResultPointCallback; cb != nil {
		cb(p)
	}
}

// FoundPoints returns every point reported so far.
func (s *Session) FoundPoints() []ResultPoint {
	return s.points
}
