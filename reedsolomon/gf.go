// Package reedsolomon implements arithmetic over GF(2^n) and Reed-Solomon
// error correction on top of it.
package reedsolomon

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNoInverse is returned when inverting the zero element.
	ErrNoInverse = errors.New("reedsolomon: zero has no inverse")
	// ErrLogZero is returned when taking the logarithm of zero.
	ErrLogZero = errors.New("reedsolomon: log(0) is undefined")
	// ErrDivideByZero is returned when dividing by zero or by the zero polynomial.
	ErrDivideByZero = errors.New("reedsolomon: divide by zero")
)

// Field is GF(size) generated by a primitive polynomial. Its tables are
// built once and never change, so a Field is safe for concurrent use.
type Field struct {
	exp           []int
	log           []int
	size          int
	primitive     int
	generatorBase int
	zero          *Poly
	one           *Poly

	mu         sync.Mutex
	generators []*Poly // generators[d] has degree d
}

// Predefined fields.
var (
	QRCodeField256     = NewField(0x011D, 256, 0) // x^8 + x^4 + x^3 + x^2 + 1
	DataMatrixField256 = NewField(0x012D, 256, 1) // x^8 + x^5 + x^3 + x^2 + 1
)

// NewField builds GF(size) from primitive. generatorBase is the exponent of
// the first root of generator polynomials: 0 for QR Code, 1 for most others.
func NewField(primitive, size, generatorBase int) *Field {
	f := &Field{
		exp:           make([]int, size),
		log:           make([]int, size),
		size:          size,
		primitive:     primitive,
		generatorBase: generatorBase,
	}
	x := 1
	for i := range f.exp {
		f.exp[i] = x
		x <<= 1
		if x >= size {
			x = (x ^ primitive) & (size - 1)
		}
	}
	for i := 0; i < size-1; i++ {
		f.log[f.exp[i]] = i
	}
	f.zero = &Poly{field: f, coef: []int{0}}
	f.one = &Poly{field: f, coef: []int{1}}
	f.generators = []*Poly{f.one}
	return f
}

// Add returns a + b, which equals a - b in characteristic 2.
func Add(a, b int) int { return a ^ b }

// Exp returns alpha^a.
func (f *Field) Exp(a int) int {
	return f.exp[a%(f.size-1)]
}

// Log returns the discrete logarithm of a.
func (f *Field) Log(a int) (int, error) {
	if a == 0 {
		return 0, ErrLogZero
	}
	return f.log[a], nil
}

// Inverse returns the multiplicative inverse of a.
func (f *Field) Inverse(a int) (int, error) {
	if a == 0 {
		return 0, ErrNoInverse
	}
	return f.exp[f.size-1-f.log[a]], nil
}

// Multiply returns a * b.
func (f *Field) Multiply(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return f.exp[(f.log[a]+f.log[b])%(f.size-1)]
}

// Divide returns a / b.
func (f *Field) Divide(a, b int) (int, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	if a == 0 {
		return 0, nil
	}
	return f.exp[(f.log[a]-f.log[b]+f.size-1)%(f.size-1)], nil
}

// Size returns the number of elements.
func (f *Field) Size() int { return f.size }

// GeneratorBase returns the exponent of the generator's first root.
func (f *Field) GeneratorBase() int { return f.generatorBase }

// Zero returns the zero polynomial.
func (f *Field) Zero() *Poly { return f.zero }

// One returns the constant polynomial 1.
func (f *Field) One() *Poly { return f.one }

// Monomial returns coefficient * x^degree. It panics on a negative degree.
func (f *Field) Monomial(degree, coefficient int) *Poly {
	if degree < 0 {
		panic("reedsolomon: negative degree")
	}
	if coefficient == 0 {
		return f.zero
	}
	coef := make([]int, degree+1)
	coef[0] = coefficient
	return &Poly{field: f, coef: coef}
}

// Generator returns the Reed-Solomon generator polynomial of the given
// degree, the product of (x - alpha^(i+base)) for i in [0, degree).
// Results are memoised on the field.
func (f *Field) Generator(degree int) *Poly {
	f.mu.Lock()
	defer f.mu.Unlock()
	for d := len(f.generators); d <= degree; d++ {
		root := f.NewPoly([]int{1, f.Exp(d - 1 + f.generatorBase)})
		f.generators = append(f.generators, f.generators[d-1].Multiply(root))
	}
	return f.generators[degree]
}

func (f *Field) String() string {
	return fmt.Sprintf("GF(0x%x,%d)", f.primitive, f.size)
}
