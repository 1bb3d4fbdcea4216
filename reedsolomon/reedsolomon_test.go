package reedsolomon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rsc.io/qr/gf256"
)

func encoded(t *testing.T, field *Field, data []int, ec int) []int {
	t.Helper()
	block := make([]int, len(data)+ec)
	copy(block, data)
	require.NoError(t, NewEncoder(field).Encode(block, ec))
	return block
}

func TestDecodeCorrectsErrors(t *testing.T) {
	data := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	block := encoded(t, QRCodeField256, data, 7)
	assert.Equal(t, data, block[:10])

	received := append([]int(nil), block...)
	received[0] = 0
	received[3] = 200
	received[6] = 100

	n, err := NewDecoder(QRCodeField256).Decode(received, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, block, received)
}

func TestDecodeCleanBlock(t *testing.T) {
	block := encoded(t, QRCodeField256, []int{10, 20, 30, 40, 50}, 4)
	n, err := NewDecoder(QRCodeField256).Decode(block, 4)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDecodeErrorInCheckSymbols(t *testing.T) {
	block := encoded(t, QRCodeField256, []int{0x40, 0x14, 0x10, 0xec}, 6)
	received := append([]int(nil), block...)
	received[len(received)-1] ^= 0x5a
	n, err := NewDecoder(QRCodeField256).Decode(received, 6)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, block, received)
}

func TestDecodeTooManyErrors(t *testing.T) {
	block := encoded(t, QRCodeField256, []int{10, 20, 30, 40, 50}, 4)
	received := append([]int(nil), block...)
	for i := 0; i < 5; i++ {
		received[i] ^= 0xff
	}
	_, err := NewDecoder(QRCodeField256).Decode(received, 4)
	if err == nil {
		// accepted miscorrection must still be a valid codeword
		assert.NotEqual(t, block, received)
		return
	}
	assert.ErrorIs(t, err, ErrUncorrectable)
}

func TestDecodeDataMatrixField(t *testing.T) {
	block := encoded(t, DataMatrixField256, []int{142, 164, 186}, 5)
	received := append([]int(nil), block...)
	received[1] = 0
	received[4] ^= 1
	n, err := NewDecoder(DataMatrixField256).Decode(received, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, block, received)
}

// "123456" in a 10x10 Data Matrix symbol.
func TestDataMatrixKnownCheckSymbols(t *testing.T) {
	block := encoded(t, DataMatrixField256, []int{142, 164, 186}, 5)
	assert.Equal(t, []int{114, 25, 5, 88, 102}, block[3:])
}

func TestDecodeOddCheckSymbolCounts(t *testing.T) {
	data := []int{17, 34, 51, 68, 85, 102}
	for _, tc := range []struct {
		ec        int
		positions []int
	}{
		{3, []int{2}},
		{3, []int{7}},
		{5, []int{0, 8}},
		{7, []int{1, 5, 11}},
	} {
		block := encoded(t, QRCodeField256, data, tc.ec)
		received := append([]int(nil), block...)
		for _, p := range tc.positions {
			received[p] ^= 0x33
		}
		n, err := NewDecoder(QRCodeField256).Decode(received, tc.ec)
		require.NoError(t, err, "ec=%d errors at %v", tc.ec, tc.positions)
		assert.Equal(t, len(tc.positions), n)
		assert.Equal(t, block, received)
	}
}

func TestDecodeRejectsBadShape(t *testing.T) {
	_, err := NewDecoder(QRCodeField256).Decode([]int{1, 2}, 2)
	assert.ErrorIs(t, err, ErrUncorrectable)
	err = NewEncoder(QRCodeField256).Encode([]int{1, 2}, 0)
	assert.ErrorIs(t, err, ErrEncode)
}

// Check symbols must agree with an independent GF(256) implementation.
func TestEncoderMatchesReference(t *testing.T) {
	ref := gf256.NewField(0x11d, 2)
	for _, ec := range []int{7, 10, 13, 17, 30} {
		data := make([]byte, 19)
		for i := range data {
			data[i] = byte(i*37 + ec)
		}
		want := make([]byte, ec)
		gf256.NewRSEncoder(ref, ec).ECC(data, want)

		ints := make([]int, len(data))
		for i, b := range data {
			ints[i] = int(b)
		}
		block := encoded(t, QRCodeField256, ints, ec)
		got := make([]byte, ec)
		for i, v := range block[len(data):] {
			got[i] = byte(v)
		}
		assert.Equal(t, want, got, "ec=%d", ec)
	}
}

func TestFieldTablesMatchReference(t *testing.T) {
	ref := gf256.NewField(0x11d, 2)
	for i := 0; i < 255; i++ {
		assert.Equal(t, int(ref.Exp(i)), QRCodeField256.Exp(i))
	}
	for a := 1; a < 256; a++ {
		inv, err := QRCodeField256.Inverse(a)
		require.NoError(t, err)
		assert.Equal(t, int(ref.Inv(byte(a))), inv)
	}
}

func TestFieldZeroErrors(t *testing.T) {
	_, err := QRCodeField256.Inverse(0)
	assert.ErrorIs(t, err, ErrNoInverse)
	_, err = QRCodeField256.Log(0)
	assert.ErrorIs(t, err, ErrLogZero)
	_, err = QRCodeField256.Divide(3, 0)
	assert.ErrorIs(t, err, ErrDivideByZero)
	_, _, err = QRCodeField256.NewPoly([]int{1, 2}).Divide(QRCodeField256.Zero())
	assert.ErrorIs(t, err, ErrDivideByZero)
	assert.Panics(t, func() { QRCodeField256.Monomial(-1, 1) })
}

func TestGeneratorCache(t *testing.T) {
	g := QRCodeField256.Generator(10)
	assert.Equal(t, 10, g.Degree())
	assert.Same(t, g, QRCodeField256.Generator(10))
	for i := 0; i < 10; i++ {
		assert.Zero(t, g.EvaluateAt(QRCodeField256.Exp(i)), "alpha^%d is a root", i)
	}
}

func TestPolyBasics(t *testing.T) {
	f := QRCodeField256
	p := f.NewPoly([]int{0, 0, 3, 0, 1})
	assert.Equal(t, 2, p.Degree())
	assert.Equal(t, []int{3, 0, 1}, p.Coefficients())
	assert.Equal(t, 3, p.Coefficient(2))
	assert.Equal(t, 0, p.Coefficient(7))
	assert.True(t, f.NewPoly([]int{0, 0}).IsZero())
	assert.Equal(t, 1, p.EvaluateAt(0))
	assert.Equal(t, 2, p.EvaluateAt(1))
	assert.True(t, p.Add(p).IsZero())
	assert.Same(t, p, p.MultiplyScalar(1))
	assert.True(t, p.MultiplyByMonomial(3, 0).IsZero())
	assert.Equal(t, []int{6, 0, 2, 0, 0}, p.MultiplyByMonomial(2, 2).Coefficients())
}
