package decoder

import "math/bits"

const formatInfoMask = 0x5412

// FormatInformation is the decoded 15-bit format field.
type FormatInformation struct {
	ECLevel  ECLevel
	DataMask int
}

// formatInfo holds the masked codeword for each of the 32 possible 5-bit
// payloads.
var formatInfo [32]int

func init() {
	for data := range formatInfo {
		formatInfo[data] = bch(data, 0x537) ^ formatInfoMask
	}
}

func newFormatInformation(data int) *FormatInformation {
	return &FormatInformation{
		ECLevel:  levelForBits[data>>3&0x03],
		DataMask: data & 0x07,
	}
}

// DecodeFormatInformation maps the two read copies of the format field to
// the nearest valid codeword. Up to three bit errors are accepted. Some
// encoders forget the mask, so the unmasked readings are tried as well.
func DecodeFormatInformation(masked1, masked2 int) (*FormatInformation, bool) {
	if fi, ok := decodeFormatInformation(masked1, masked2); ok {
		return fi, true
	}
	return decodeFormatInformation(masked1^formatInfoMask, masked2^formatInfoMask)
}

func decodeFormatInformation(read1, read2 int) (*FormatInformation, bool) {
	best, bestDiff := 0, 32
	for data, target := range formatInfo {
		if target == read1 || target == read2 {
			return newFormatInformation(data), true
		}
		if d := bits.OnesCount32(uint32(read1 ^ target)); d < bestDiff {
			best, bestDiff = data, d
		}
		if read1 != read2 {
			if d := bits.OnesCount32(uint32(read2 ^ target)); d < bestDiff {
				best, bestDiff = data, d
			}
		}
	}
	if bestDiff <= 3 {
		return newFormatInformation(best), true
	}
	return nil, false
}
