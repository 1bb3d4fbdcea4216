package reedsolomon

import (
	"errors"
	"fmt"
)

// ErrEncode is returned for a block that cannot be encoded.
var ErrEncode = errors.New("reedsolomon: invalid block")

// Encoder computes Reed-Solomon check symbols. It shares the field's
// generator cache and is safe for concurrent use.
type Encoder struct {
	field *Field
}

// NewEncoder returns an Encoder over field.
func NewEncoder(field *Field) *Encoder {
	return &Encoder{field: field}
}

// Encode fills the last ecSymbols entries of block with check symbols
// computed over the leading data symbols.
func (e *Encoder) Encode(block []int, ecSymbols int) error {
	data := len(block) - ecSymbols
	if ecSymbols <= 0 || data <= 0 {
		return fmt.Errorf("%w: %d data and %d check symbols", ErrEncode, data, ecSymbols)
	}
	info := e.field.NewPoly(block[:data]).MultiplyByMonomial(ecSymbols, 1)
	_, rem, err := info.Divide(e.field.Generator(ecSymbols))
	if err != nil {
		return err
	}
	coef := rem.coef
	if rem.IsZero() {
		coef = nil
	}
	pad := ecSymbols - len(coef)
	clear(block[data : data+pad])
	copy(block[data+pad:], coef)
	return nil
}
