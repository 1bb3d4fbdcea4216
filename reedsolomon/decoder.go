package reedsolomon

import (
	"errors"
	"fmt"
)

// ErrUncorrectable is returned when a block holds more errors than its
// check symbols can locate.
var ErrUncorrectable = errors.New("reedsolomon: uncorrectable block")

// Decoder corrects symbol errors in a received Reed-Solomon block.
//
// A correction is accepted as soon as the number of locator roots equals the
// locator degree. The corrected block is not re-checked against the code's
// minimum distance, so corruption well beyond capacity can occasionally be
// "corrected" into a different valid codeword.
type Decoder struct {
	field *Field
}

// NewDecoder returns a Decoder over field.
func NewDecoder(field *Field) *Decoder {
	return &Decoder{field: field}
}

// Decode corrects received in place. The last twoS symbols are check
// symbols. It returns how many symbols were changed.
func (d *Decoder) Decode(received []int, twoS int) (int, error) {
	if twoS <= 0 || twoS >= len(received) {
		return 0, fmt.Errorf("%w: %d check symbols for a %d symbol block", ErrUncorrectable, twoS, len(received))
	}
	poly := d.field.NewPoly(received)
	syndromes := make([]int, twoS)
	clean := true
	for i := 0; i < twoS; i++ {
		s := poly.EvaluateAt(d.field.Exp(i + d.field.generatorBase))
		syndromes[twoS-1-i] = s
		if s != 0 {
			clean = false
		}
	}
	if clean {
		return 0, nil
	}

	sigma, omega, err := d.euclid(d.field.Monomial(twoS, 1), d.field.NewPoly(syndromes), twoS)
	if err != nil {
		return 0, err
	}
	locations, err := d.errorLocations(sigma)
	if err != nil {
		return 0, err
	}
	magnitudes, err := d.errorMagnitudes(omega, locations)
	if err != nil {
		return 0, err
	}
	for i, loc := range locations {
		l, err := d.field.Log(loc)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUncorrectable, err)
		}
		pos := len(received) - 1 - l
		if pos < 0 {
			return 0, fmt.Errorf("%w: error location %d outside block", ErrUncorrectable, pos)
		}
		received[pos] ^= magnitudes[i]
	}
	return len(locations), nil
}

// euclid runs the extended Euclidean algorithm on (a, b) until the
// remainder's degree drops below R/2 and returns the normalised error
// locator and evaluator.
func (d *Decoder) euclid(a, b *Poly, R int) (sigma, omega *Poly, err error) {
	if a.Degree() < b.Degree() {
		a, b = b, a
	}
	rLast, r := a, b
	tLast, t := d.field.zero, d.field.one

	for r.Degree() >= R/2 {
		rLastLast, tLastLast := rLast, tLast
		rLast, tLast = r, t
		if rLast.IsZero() {
			return nil, nil, fmt.Errorf("%w: remainder vanished early", ErrUncorrectable)
		}
		q, rem, err := rLastLast.Divide(rLast)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrUncorrectable, err)
		}
		r = rem
		t = q.Multiply(tLast).Add(tLastLast)
		if r.Degree() >= rLast.Degree() {
			return nil, nil, fmt.Errorf("%w: division failed to reduce degree", ErrUncorrectable)
		}
	}

	inv, err := d.field.Inverse(t.Coefficient(0))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sigma(0) is zero", ErrUncorrectable)
	}
	return t.MultiplyScalar(inv), r.MultiplyScalar(inv), nil
}

// errorLocations finds the reciprocals of the locator's roots by trying
// every non-zero field element.
func (d *Decoder) errorLocations(locator *Poly) ([]int, error) {
	n := locator.Degree()
	switch n {
	case 0:
		return nil, fmt.Errorf("%w: non-zero syndromes with a constant locator", ErrUncorrectable)
	case 1:
		return []int{locator.Coefficient(1)}, nil
	}
	found := make([]int, 0, n)
	for i := 1; i < d.field.size && len(found) < n; i++ {
		if locator.EvaluateAt(i) == 0 {
			inv, _ := d.field.Inverse(i)
			found = append(found, inv)
		}
	}
	if len(found) != n {
		return nil, fmt.Errorf("%w: locator degree %d but %d roots", ErrUncorrectable, n, len(found))
	}
	return found, nil
}

// errorMagnitudes applies Forney's formula.
func (d *Decoder) errorMagnitudes(evaluator *Poly, locations []int) ([]int, error) {
	out := make([]int, len(locations))
	for i, xi := range locations {
		xiInv, err := d.field.Inverse(xi)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUncorrectable, err)
		}
		denominator := 1
		for j, xj := range locations {
			if i != j {
				// 1 + xj/xi, with addition being xor
				denominator = d.field.Multiply(denominator, 1^d.field.Multiply(xj, xiInv))
			}
		}
		m, err := d.field.Divide(evaluator.EvaluateAt(xiInv), denominator)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUncorrectable, err)
		}
		if d.field.generatorBase != 0 {
			m = d.field.Multiply(m, xiInv)
		}
		out[i] = m
	}
	return out, nil
}
