package decoder

import (
	"fmt"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
	"github.com/ericlevine/matrixscan/reedsolomon"
)

// Decoder turns a sampled Data Matrix grid into corrected data codewords.
type Decoder struct {
	rs *reedsolomon.Decoder
}

// NewDecoder returns a Decoder over the Data Matrix field.
func NewDecoder() *Decoder {
	return &Decoder{rs: reedsolomon.NewDecoder(reedsolomon.DataMatrixField256)}
}

// Decode reads, de-interleaves and corrects the codewords of bits. The
// finder pattern fixes the orientation, so only the upright reading is
// tried.
func (d *Decoder) Decode(bits *bitutil.BitMatrix) (*matrixscan.Codewords, error) {
	p, err := NewBitMatrixParser(bits)
	if err != nil {
		return nil, err
	}
	raw, err := p.ReadCodewords()
	if err != nil {
		return nil, err
	}
	v := p.Version()
	blocks, err := DataBlocks(raw, v)
	if err != nil {
		return nil, err
	}

	data := make([]byte, v.DataCodewords())
	corrected := 0
	for j, b := range blocks {
		n, err := d.correctErrors(b.Codewords, b.NumDataCodewords)
		if err != nil {
			return nil, err
		}
		corrected += n
		for i := 0; i < b.NumDataCodewords; i++ {
			data[i*len(blocks)+j] = b.Codewords[i]
		}
	}
	return &matrixscan.Codewords{
		Data:            data,
		NumBits:         len(data) * 8,
		Version:         v.Number(),
		ErrorsCorrected: corrected,
	}, nil
}

func (d *Decoder) correctErrors(block []byte, numData int) (int, error) {
	ints := make([]int, len(block))
	for i, b := range block {
		ints[i] = int(b)
	}
	n, err := d.rs.Decode(ints, len(block)-numData)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", matrixscan.ErrChecksum, err)
	}
	for i := 0; i < numData; i++ {
		block[i] = byte(ints[i])
	}
	return n, nil
}
