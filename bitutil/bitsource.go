package bitutil

import (
	"errors"
	"fmt"
)

// ErrBitCount is returned by ReadBits for a request outside 1..32 bits or
// beyond the end of the stream.
var ErrBitCount = errors.New("bitsource: invalid number of bits")

// BitSource reads big-endian bit fields from a byte slice. Bits are consumed
// from the most significant bit of the first byte onwards.
type BitSource struct {
	data []byte
	pos  int // absolute bit position
}

// NewBitSource wraps data without copying it.
func NewBitSource(data []byte) *BitSource {
	return &BitSource{data: data}
}

// ByteOffset returns the index of the byte holding the next unread bit.
func (bs *BitSource) ByteOffset() int { return bs.pos >> 3 }

// BitOffset returns the index of the next unread bit within its byte.
func (bs *BitSource) BitOffset() int { return bs.pos & 7 }

// Available returns the number of unread bits.
func (bs *BitSource) Available() int {
	return 8*len(bs.data) - bs.pos
}

// ReadBits consumes n bits and returns them as the low bits of the result.
func (bs *BitSource) ReadBits(n int) (int, error) {
	if n < 1 || n > 32 || n > bs.Available() {
		return 0, fmt.Errorf("%w: want %d, have %d", ErrBitCount, n, bs.Available())
	}
	result := 0
	for n > 0 {
		shift := bs.pos & 7
		take := min(8-shift, n)
		b := int(bs.data[bs.pos>>3])
		// bits [shift, shift+take) of this byte, counted from the MSB
		chunk := (b >> (8 - shift - take)) & (1<<take - 1)
		result = result<<take | chunk
		bs.pos += take
		n -= take
	}
	return result, nil
}
