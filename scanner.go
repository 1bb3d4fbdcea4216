// Package matrixscan decodes two-dimensional matrix barcodes from binarized
// images. Symbologies register themselves from their own packages; import
// github.com/ericlevine/matrixscan/qrcode for QR Code.
package matrixscan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/ericlevine/matrixscan/bitutil"
)

// Scanner runs registered symbologies over bit grids. A Scanner holds no
// per-decode state and is safe for concurrent use.
type Scanner struct {
	logger      *slog.Logger
	observer    Observer
	concurrency int
	now         func() time.Time
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger for stage diagnostics. Stages log at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithObserver reports every attempt to o.
func WithObserver(o Observer) Option {
	return func(s *Scanner) { s.observer = o }
}

// WithConcurrency bounds the number of grids DecodeBatch decodes at once.
// Values below 1 mean GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(s *Scanner) { s.concurrency = n }
}

// NewScanner returns a Scanner with the given options applied.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		logger:   slog.Default(),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.concurrency < 1 {
		s.concurrency = runtime.GOMAXPROCS(0)
	}
	return s
}

var defaultScanner = NewScanner()

// Decode decodes one symbol from grid with a default Scanner.
func Decode(grid BitGrid, hints *Hints) (*Result, error) {
	return defaultScanner.Decode(grid, hints)
}

// Decode tries each allowed symbology in format order and returns the first
// result. If all fail, the most specific failure is returned: a checksum
// error beats a format error, which beats not found.
func (sc *Scanner) Decode(grid BitGrid, hints *Hints) (*Result, error) {
	hints = hints.orDefault()
	image := bitutil.FromGrid(grid)

	var best error
	tried := 0
	for _, format := range RegisteredFormats() {
		if !hints.allows(format) {
			continue
		}
		factory, ok := lookupSymbology(format)
		if !ok {
			continue
		}
		tried++
		res, err := sc.attempt(factory(), image, hints)
		if err == nil {
			return res, nil
		}
		if errorRank(err) > errorRank(best) {
			best = err
		}
	}
	if tried == 0 {
		return nil, fmt.Errorf("%w: no symbology registered for %v", ErrNotFound, hints.PossibleFormats)
	}
	return nil, best
}

func (sc *Scanner) attempt(sym Symbology, image *bitutil.BitMatrix, hints *Hints) (res *Result, err error) {
	format := sym.Format()
	s := NewSession(image, hints, sc.logger.With("format", format.String()))
	start := sc.now()
	defer func() {
		corrected := 0
		if res != nil {
			corrected = res.ErrorsCorrected
		}
		sc.observer.ObserveDecode(format, OutcomeOf(err), sc.now().Sub(start), corrected)
		if err != nil {
			s.Logger.Debug("decode failed", "err", err, "candidates", len(s.points))
		}
	}()

	var det *DetectorResult
	if pe, ok := sym.(PureExtractor); ok && hints.PureBarcode {
		det, err = pe.ExtractPure(s)
	} else {
		det, err = sym.Detect(s)
	}
	if err != nil {
		return nil, err
	}
	s.Detection = det
	s.Logger.Debug("symbol located", "stage", "detect", "dimension", det.Bits.Width(), "points", len(det.Points))

	cw, err := sym.Sample(s, det.Bits)
	if err != nil {
		return nil, err
	}
	s.Logger.Debug("codewords corrected", "stage", "sample", "version", cw.Version,
		"ec_level", cw.ECLevel, "errors_corrected", cw.ErrorsCorrected, "orientation", cw.Orientation.String())

	res, err = sym.DecodeBitstream(s, cw)
	if err != nil {
		return nil, err
	}
	if n := utf8.RuneCountInString(res.Text); !hints.lengthAllowed(n) {
		return nil, fmt.Errorf("%w: length %d not in %v", ErrFormat, n, hints.AllowedLengths)
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = sc.now()
	}
	return res, nil
}

// BatchResult pairs each input grid with its outcome.
type BatchResult struct {
	Result *Result
	Err    error
}

// DecodeBatch decodes grids concurrently, each with its own sessions, and
// returns outcomes in input order. Cancelling ctx stops new grids from
// starting; grids not started carry ctx's error. The returned error is
// ctx's error, if any.
func (sc *Scanner) DecodeBatch(ctx context.Context, grids []BitGrid, hints *Hints) ([]BatchResult, error) {
	out := make([]BatchResult, len(grids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sc.concurrency)

	next := 0
	for ; next < len(grids); next++ {
		if gctx.Err() != nil {
			break
		}
		i := next
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			res, err := sc.Decode(grids[i], hints)
			out[i] = BatchResult{Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		for i := next; i < len(grids); i++ {
			out[i].Err = err
		}
		sc.logger.Debug("batch cancelled", "started", next, "total", len(grids))
		return out, err
	}
	return out, nil
}

// FirstError returns the first per-grid error in a batch, annotated with its
// index, or nil.
func FirstError(results []BatchResult) error {
	for i, r := range results {
		if r.Err != nil {
			return fmt.Errorf("grid %d: %w", i, r.Err)
		}
	}
	return nil
}

// IsNotFound reports whether err means no symbol was present.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
