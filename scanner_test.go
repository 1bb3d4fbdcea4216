package matrixscan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ericlevine/matrixscan/bitutil"
)

// fakeSymbology fails at the first stage with a non-nil error, or decodes
// to text.
type fakeSymbology struct {
	format       Format
	detectErr    error
	sampleErr    error
	bitstreamErr error
	text         string
	points       []ResultPoint

	mu          sync.Mutex
	pureCalls   int
	detectCalls int
}

func (f *fakeSymbology) Format() Format { return f.format }

func (f *fakeSymbology) Detect(s *Session) (*DetectorResult, error) {
	f.mu.Lock()
	f.detectCalls++
	f.mu.Unlock()
	for _, p := range f.points {
		s.FoundPoint(p)
	}
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	return &DetectorResult{Bits: bitutil.NewBitMatrix(21), Points: f.points}, nil
}

func (f *fakeSymbology) Sample(s *Session, bits *bitutil.BitMatrix) (*Codewords, error) {
	if f.sampleErr != nil {
		return nil, f.sampleErr
	}
	return &Codewords{Data: []byte(f.text), Version: 1, ECLevel: "M", ErrorsCorrected: 2}, nil
}

func (f *fakeSymbology) DecodeBitstream(s *Session, cw *Codewords) (*Result, error) {
	if f.bitstreamErr != nil {
		return nil, f.bitstreamErr
	}
	return &Result{Text: string(cw.Data), Format: f.format, ErrorsCorrected: cw.ErrorsCorrected, Points: s.Detection.Points}, nil
}

type pureFake struct{ *fakeSymbology }

func (p pureFake) ExtractPure(s *Session) (*DetectorResult, error) {
	p.mu.Lock()
	p.pureCalls++
	p.mu.Unlock()
	return &DetectorResult{Bits: bitutil.NewBitMatrix(21)}, nil
}

// useSymbologies replaces the registry for the duration of the test.
func useSymbologies(t *testing.T, syms ...Symbology) {
	t.Helper()
	registryMu.Lock()
	saved := registry
	registry = map[Format]SymbologyFactory{}
	registryMu.Unlock()
	for _, s := range syms {
		RegisterSymbology(s.Format(), func() Symbology { return s })
	}
	t.Cleanup(func() {
		registryMu.Lock()
		registry = saved
		registryMu.Unlock()
	})
}

var grid = bitutil.NewBitMatrix(30)

func TestDecodeMostSpecificErrorWins(t *testing.T) {
	useSymbologies(t,
		&fakeSymbology{format: FormatQRCode, detectErr: fmt.Errorf("%w: qr", ErrNotFound)},
		&fakeSymbology{format: FormatDataMatrix, sampleErr: fmt.Errorf("%w: dm", ErrChecksum)},
	)
	_, err := NewScanner().Decode(grid, nil)
	assert.ErrorIs(t, err, ErrChecksum)

	_, err = NewScanner().Decode(grid, &Hints{PossibleFormats: []Format{FormatQRCode}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecodeFirstSuccessInFormatOrder(t *testing.T) {
	useSymbologies(t,
		&fakeSymbology{format: FormatQRCode, bitstreamErr: fmt.Errorf("%w: qr", ErrFormat)},
		&fakeSymbology{format: FormatDataMatrix, text: "datamatrix"},
	)
	res, err := NewScanner().Decode(grid, nil)
	require.NoError(t, err)
	assert.Equal(t, "datamatrix", res.Text)
	assert.Equal(t, FormatDataMatrix, res.Format)
}

func TestDecodeUnknownErrorRanksLowest(t *testing.T) {
	useSymbologies(t,
		&fakeSymbology{format: FormatQRCode, detectErr: errors.New("boom")},
		&fakeSymbology{format: FormatDataMatrix, detectErr: ErrNotFound},
	)
	_, err := NewScanner().Decode(grid, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecodeNoSymbologyForFormats(t *testing.T) {
	useSymbologies(t, &fakeSymbology{format: FormatQRCode, text: "x"})
	_, err := NewScanner().Decode(grid, &Hints{PossibleFormats: []Format{FormatDataMatrix}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecodeAllowedLengthsCountRunes(t *testing.T) {
	useSymbologies(t, &fakeSymbology{format: FormatQRCode, text: "héllo"})
	_, err := NewScanner().Decode(grid, &Hints{AllowedLengths: []int{5}})
	require.NoError(t, err)
	_, err = NewScanner().Decode(grid, &Hints{AllowedLengths: []int{6}})
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDecodeForwardsPoints(t *testing.T) {
	points := []ResultPoint{{1, 2}, {3, 4}, {5, 6}}
	useSymbologies(t, &fakeSymbology{format: FormatQRCode, text: "x", points: points})
	var seen []ResultPoint
	res, err := NewScanner().Decode(grid, &Hints{ResultPointCallback: func(p ResultPoint) { seen = append(seen, p) }})
	require.NoError(t, err)
	assert.Equal(t, points, seen)
	assert.Equal(t, points, res.Points)
}

func TestDecodePureBarcodeUsesExtractor(t *testing.T) {
	fake := pureFake{&fakeSymbology{format: FormatQRCode, text: "pure"}}
	useSymbologies(t, fake)

	_, err := NewScanner().Decode(grid, &Hints{PureBarcode: true})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.pureCalls)
	assert.Equal(t, 0, fake.detectCalls)

	_, err = NewScanner().Decode(grid, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.pureCalls)
	assert.Equal(t, 1, fake.detectCalls)
}

func TestDecodeStampsResult(t *testing.T) {
	useSymbologies(t, &fakeSymbology{format: FormatQRCode, text: "x"})
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sc := NewScanner()
	sc.now = func() time.Time { return at }
	res, err := sc.Decode(grid, nil)
	require.NoError(t, err)
	assert.Equal(t, at, res.Timestamp)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[Format][]Outcome
	fixed    int
}

func (r *recordingObserver) ObserveDecode(f Format, o Outcome, _ time.Duration, corrected int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[Format][]Outcome{}
	}
	r.outcomes[f] = append(r.outcomes[f], o)
	r.fixed += corrected
}

func TestObserverSeesEveryAttempt(t *testing.T) {
	useSymbologies(t,
		&fakeSymbology{format: FormatQRCode, detectErr: ErrNotFound},
		&fakeSymbology{format: FormatDataMatrix, text: "ok"},
	)
	obs := &recordingObserver{}
	_, err := NewScanner(WithObserver(obs)).Decode(grid, nil)
	require.NoError(t, err)
	assert.Equal(t, map[Format][]Outcome{
		FormatQRCode:     {OutcomeNotFound},
		FormatDataMatrix: {OutcomeSuccess},
	}, obs.outcomes)
	assert.Equal(t, 2, obs.fixed)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, OutcomeOf(nil))
	assert.Equal(t, OutcomeNotFound, OutcomeOf(fmt.Errorf("wrapped: %w", ErrNotFound)))
	assert.Equal(t, OutcomeFormat, OutcomeOf(ErrFormat))
	assert.Equal(t, OutcomeChecksum, OutcomeOf(fmt.Errorf("%w: %w", ErrChecksum, errors.New("rs"))))
	assert.Equal(t, OutcomeError, OutcomeOf(errors.New("other")))
	assert.True(t, IsNotFound(fmt.Errorf("x: %w", ErrNotFound)))
}

func TestDecodeBatchKeepsOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	useSymbologies(t, &fakeSymbology{format: FormatQRCode, text: "same"})

	grids := make([]BitGrid, 20)
	for i := range grids {
		grids[i] = grid
	}
	grids[7] = bitutil.NewBitMatrix(5)

	out, err := NewScanner(WithConcurrency(3)).DecodeBatch(context.Background(), grids, nil)
	require.NoError(t, err)
	require.Len(t, out, len(grids))
	for i, r := range out {
		require.NoError(t, r.Err, "grid %d", i)
		assert.Equal(t, "same", r.Result.Text)
	}
	assert.NoError(t, FirstError(out))
}

func TestDecodeBatchPerItemErrors(t *testing.T) {
	defer goleak.VerifyNone(t)
	useSymbologies(t, &fakeSymbology{format: FormatQRCode, detectErr: ErrNotFound})

	out, err := NewScanner().DecodeBatch(context.Background(), []BitGrid{grid, grid}, nil)
	require.NoError(t, err)
	for _, r := range out {
		assert.ErrorIs(t, r.Err, ErrNotFound)
		assert.Nil(t, r.Result)
	}
	assert.ErrorContains(t, FirstError(out), "grid 0")
}

func TestDecodeBatchCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)
	useSymbologies(t, &fakeSymbology{format: FormatQRCode, text: "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := NewScanner().DecodeBatch(ctx, []BitGrid{grid, grid, grid}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, out, 3)
	for _, r := range out {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestSessionDefaults(t *testing.T) {
	s := NewSession(grid, nil, nil)
	require.NotNil(t, s.Hints)
	require.NotNil(t, s.Logger)
	assert.Same(t, grid, s.Image)
	s.FoundPoint(ResultPoint{1, 1})
	assert.Equal(t, []ResultPoint{{1, 1}}, s.FoundPoints())
}
