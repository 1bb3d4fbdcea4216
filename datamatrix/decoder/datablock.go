package decoder

import (
	"fmt"

	"github.com/ericlevine/matrixscan"
)

// DataBlock is one error-correction block: data codewords followed by its
// EC codewords.
type DataBlock struct {
	NumDataCodewords int
	Codewords        []byte
}

// DataBlocks undoes the interleaving of raw. Data codewords are dealt to
// the blocks in turn, then the EC codewords the same way.
//
// The 144x144 symbol is the one size with blocks of two lengths: its last
// two blocks hold one data codeword less, and their EC codewords are dealt
// starting from block 8.
func DataBlocks(raw []byte, v *Version) ([]DataBlock, error) {
	if len(raw) != v.TotalCodewords() {
		return nil, fmt.Errorf("%w: %d codewords for a %v symbol", matrixscan.ErrFormat, len(raw), v)
	}
	ec := v.blocks.ECCodewordsPerBlock
	var blocks []DataBlock
	for _, g := range v.blocks.Groups {
		for range g.Count {
			blocks = append(blocks, DataBlock{
				NumDataCodewords: g.DataCodewords,
				Codewords:        make([]byte, g.DataCodewords+ec),
			})
		}
	}
	n := len(blocks)

	longData := len(blocks[0].Codewords) - ec
	offset := 0
	for i := 0; i < longData-1; i++ {
		for j := range blocks {
			blocks[j].Codewords[i] = raw[offset]
			offset++
		}
	}

	special := v.number == 24
	longBlocks := n
	if special {
		longBlocks = 8
	}
	for j := 0; j < longBlocks; j++ {
		blocks[j].Codewords[longData-1] = raw[offset]
		offset++
	}

	for i := longData; i < len(blocks[0].Codewords); i++ {
		for j := range blocks {
			bj, bi := j, i
			if special {
				bj = (j + 8) % n
				if bj > 7 {
					bi--
				}
			}
			blocks[bj].Codewords[bi] = raw[offset]
			offset++
		}
	}
	if offset != len(raw) {
		return nil, fmt.Errorf("%w: used %d of %d codewords", matrixscan.ErrFormat, offset, len(raw))
	}
	return blocks, nil
}
