package decoder

import (
	"fmt"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
	"github.com/ericlevine/matrixscan/reedsolomon"
)

// Decoder turns a sampled module grid into corrected data codewords.
type Decoder struct {
	rs *reedsolomon.Decoder
}

// NewDecoder returns a Decoder over the QR Code field.
func NewDecoder() *Decoder {
	return &Decoder{rs: reedsolomon.NewDecoder(reedsolomon.QRCodeField256)}
}

var orientations = []struct {
	o     matrixscan.Orientation
	apply func(*bitutil.BitMatrix)
}{
	{matrixscan.OrientationNormal, func(*bitutil.BitMatrix) {}},
	{matrixscan.OrientationMirrored, (*bitutil.BitMatrix).Transpose},
	{matrixscan.OrientationRotated90, (*bitutil.BitMatrix).Rotate90},
	{matrixscan.OrientationRotated180, (*bitutil.BitMatrix).Rotate180},
	{matrixscan.OrientationRotated270, func(bm *bitutil.BitMatrix) { bm.Rotate(270) }},
}

// Decode reads bits as it is, then mirrored, then turned by each quarter,
// each time from a fresh copy; bits itself is left alone. When every
// reading fails the error of the first one is returned.
func (d *Decoder) Decode(bits *bitutil.BitMatrix) (*matrixscan.Codewords, error) {
	var first error
	for i, o := range orientations {
		bm := bits.Clone()
		o.apply(bm)
		cw, err := d.decodeGrid(bm)
		if err == nil {
			cw.Orientation = o.o
			return cw, nil
		}
		if i == 0 {
			first = err
		}
	}
	return nil, first
}

func (d *Decoder) decodeGrid(bits *bitutil.BitMatrix) (*matrixscan.Codewords, error) {
	p, err := NewBitMatrixParser(bits)
	if err != nil {
		return nil, err
	}
	v, err := p.ReadVersion()
	if err != nil {
		return nil, err
	}
	fi, err := p.ReadFormatInformation()
	if err != nil {
		return nil, err
	}
	raw, err := p.ReadCodewords()
	if err != nil {
		return nil, err
	}
	blocks, err := DataBlocks(raw, v, fi.ECLevel)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, v.DataCodewords(fi.ECLevel))
	corrected := 0
	for _, b := range blocks {
		n, err := d.correctErrors(b.Codewords, b.NumDataCodewords)
		if err != nil {
			return nil, err
		}
		corrected += n
		data = append(data, b.Codewords[:b.NumDataCodewords]...)
	}
	return &matrixscan.Codewords{
		Data:            data,
		NumBits:         len(data) * 8,
		Version:         v.Number(),
		ECLevel:         fi.ECLevel.String(),
		ErrorsCorrected: corrected,
	}, nil
}

// correctErrors repairs one block in place and returns the number of
// codewords changed.
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
