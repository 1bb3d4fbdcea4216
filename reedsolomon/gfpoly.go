package reedsolomon

import "slices"

// Poly is an immutable polynomial over a Field. Coefficients are stored
// highest degree first with no leading zeros; the zero polynomial is [0].
type Poly struct {
	field *Field
	coef  []int
}

// NewPoly builds a polynomial from coefficients ordered highest degree first.
// Leading zeros are dropped and the slice is copied.
func (f *Field) NewPoly(coefficients []int) *Poly {
	i := 0
	for i < len(coefficients) && coefficients[i] == 0 {
		i++
	}
	if i == len(coefficients) {
		return f.zero
	}
	return &Poly{field: f, coef: slices.Clone(coefficients[i:])}
}

// Coefficients returns a copy of the coefficients, highest degree first.
func (p *Poly) Coefficients() []int { return slices.Clone(p.coef) }

// Degree returns the degree. The zero polynomial has degree 0.
func (p *Poly) Degree() int { return len(p.coef) - 1 }

// IsZero reports whether p is the zero polynomial.
func (p *Poly) IsZero() bool { return p.coef[0] == 0 }

// Coefficient returns the coefficient of x^degree.
func (p *Poly) Coefficient(degree int) int {
	if degree < 0 || degree > p.Degree() {
		return 0
	}
	return p.coef[len(p.coef)-1-degree]
}

// EvaluateAt returns p(a) using Horner's rule.
func (p *Poly) EvaluateAt(a int) int {
	switch a {
	case 0:
		return p.Coefficient(0)
	case 1:
		sum := 0
		for _, c := range p.coef {
			sum ^= c
		}
		return sum
	}
	result := 0
	for _, c := range p.coef {
		result = p.field.Multiply(a, result) ^ c
	}
	return result
}

// Add returns p + other (equivalently p - other).
func (p *Poly) Add(other *Poly) *Poly {
	if p.IsZero() {
		return other
	}
	if other.IsZero() {
		return p
	}
	small, large := p.coef, other.coef
	if len(small) > len(large) {
		small, large = large, small
	}
	sum := slices.Clone(large)
	off := len(large) - len(small)
	for i, c := range small {
		sum[off+i] ^= c
	}
	return p.field.NewPoly(sum)
}

// Multiply returns p * other.
func (p *Poly) Multiply(other *Poly) *Poly {
	if p.IsZero() || other.IsZero() {
		return p.field.zero
	}
	product := make([]int, len(p.coef)+len(other.coef)-1)
	for i, a := range p.coef {
		for j, b := range other.coef {
			product[i+j] ^= p.field.Multiply(a, b)
		}
	}
	return p.field.NewPoly(product)
}

// MultiplyScalar returns scalar * p.
func (p *Poly) MultiplyScalar(scalar int) *Poly {
	switch scalar {
	case 0:
		return p.field.zero
	case 1:
		return p
	}
	product := make([]int, len(p.coef))
	for i, c := range p.coef {
		product[i] = p.field.Multiply(c, scalar)
	}
	return p.field.NewPoly(product)
}

// MultiplyByMonomial returns p * coefficient * x^degree. It panics on a
// negative degree.
func (p *Poly) MultiplyByMonomial(degree, coefficient int) *Poly {
	if degree < 0 {
		panic("reedsolomon: negative degree")
	}
	if coefficient == 0 || p.IsZero() {
		return p.field.zero
	}
	product := make([]int, len(p.coef)+degree)
	for i, c := range p.coef {
		product[i] = p.field.Multiply(c, coefficient)
	}
	return p.field.NewPoly(product)
}

// Divide returns quotient and remainder such that
// quotient*other + remainder == p and deg(remainder) < deg(other), or
// remainder is zero.
func (p *Poly) Divide(other *Poly) (quotient, remainder *Poly, err error) {
	if other.IsZero() {
		return nil, nil, ErrDivideByZero
	}
	inv, err := p.field.Inverse(other.Coefficient(other.Degree()))
	if err != nil {
		return nil, nil, err
	}
	quotient, remainder = p.field.zero, p
	for !remainder.IsZero() && remainder.Degree() >= other.Degree() {
		shift := remainder.Degree() - other.Degree()
		scale := p.field.Multiply(remainder.Coefficient(remainder.Degree()), inv)
		quotient = quotient.Add(p.field.Monomial(shift, scale))
		remainder = remainder.Add(other.MultiplyByMonomial(shift, scale))
	}
	return quotient, remainder, nil
}

// Equal reports whether both polynomials have identical coefficients.
func (p *Poly) Equal(other *Poly) bool {
	return slices.Equal(p.coef, other.coef)
}
