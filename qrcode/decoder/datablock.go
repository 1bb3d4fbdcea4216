package decoder

import (
	"fmt"

	"github.com/ericlevine/matrixscan"
)

// DataBlock is one error-correction block: its data codewords followed by
// its EC codewords.
type DataBlock struct {
	NumDataCodewords int
	Codewords        []byte
}

// DataBlocks undoes the interleaving of raw codewords. Data codewords are
// dealt to the blocks round-robin, the longer blocks of the second group
// take one extra data codeword at the end, and the EC codewords follow in
// the same round-robin order.
func DataBlocks(raw []byte, v *Version, level ECLevel) ([]DataBlock, error) {
	if len(raw) != v.TotalCodewords() {
		return nil, fmt.Errorf("%w: %d codewords for version %d", matrixscan.ErrFormat, len(raw), v.Number())
	}
	ecb := v.ECBlocks(level)
	blocks := make([]DataBlock, 0, ecb.NumBlocks())
	for _, g := range ecb.Groups {
		for range g.Count {
			blocks = append(blocks, DataBlock{
				NumDataCodewords: g.DataCodewords,
				Codewords:        make([]byte, g.DataCodewords+ecb.ECCodewordsPerBlock),
			})
		}
	}

	shortLen := len(blocks[0].Codewords)
	longFrom := len(blocks)
	for longFrom > 0 && len(blocks[longFrom-1].Codewords) != shortLen {
		longFrom--
	}
	shortData := shortLen - ecb.ECCodewordsPerBlock

	off := 0
	for i := 0; i < shortData; i++ {
		for j := range blocks {
			blocks[j].Codewords[i] = raw[off]
			off++
		}
	}
	for j := longFrom; j < len(blocks); j++ {
		blocks[j].Codewords[shortData] = raw[off]
		off++
	}
	for i := shortData; i < shortLen; i++ {
		for j := range blocks {
			k := i
			if j >= longFrom {
				k++
			}
			blocks[j].Codewords[k] = raw[off]
			off++
		}
	}
	return blocks, nil
}
