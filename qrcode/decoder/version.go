package decoder

import (
	"fmt"
	"math/bits"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
)

// BlockGroup is a run of error-correction blocks sharing one data length.
type BlockGroup struct {
	Count         int
	DataCodewords int
}

// ECBlocks describes how one version splits its codewords into blocks at one
// error-correction level. Every block carries the same number of EC
// codewords.
type ECBlocks struct {
	ECCodewordsPerBlock int
	Groups              []BlockGroup
}

// NumBlocks returns the total number of blocks.
func (e ECBlocks) NumBlocks() int {
	n := 0
	for _, g := range e.Groups {
		n += g.Count
	}
	return n
}

// TotalECCodewords returns the number of EC codewords over all blocks.
func (e ECBlocks) TotalECCodewords() int {
	return e.ECCodewordsPerBlock * e.NumBlocks()
}

// Version is one of the 40 QR symbol sizes.
type Version struct {
	number    int
	alignment []int
	levels    [4]ECBlocks
	total     int
}

// Number returns the version number, 1 through 40.
func (v *Version) Number() int { return v.number }

// Dimension returns the side of the symbol in modules.
func (v *Version) Dimension() int { return 17 + 4*v.number }

// AlignmentCenters returns the row/column coordinates of the alignment
// pattern centres. Version 1 has none.
func (v *Version) AlignmentCenters() []int { return v.alignment }

// TotalCodewords returns the number of data plus EC codewords.
func (v *Version) TotalCodewords() int { return v.total }

// ECBlocks returns the block layout for level.
func (v *Version) ECBlocks(level ECLevel) ECBlocks { return v.levels[level] }

// DataCodewords returns the number of data codewords at level.
func (v *Version) DataCodewords(level ECLevel) int {
	return v.total - v.levels[level].TotalECCodewords()
}

func (v *Version) String() string { return fmt.Sprint(v.number) }

// FunctionPattern marks every module that does not carry data: finder
// patterns with their separators and format information, timing patterns,
// alignment patterns and, from version 7, version information.
func (v *Version) FunctionPattern() *bitutil.BitMatrix {
	dim := v.Dimension()
	bm := bitutil.NewBitMatrix(dim)

	bm.SetRegion(0, 0, 9, 9)
	bm.SetRegion(dim-8, 0, 8, 9)
	bm.SetRegion(0, dim-8, 9, 8)

	n := len(v.alignment)
	for i, cy := range v.alignment {
		for j, cx := range v.alignment {
			// the three corners taken by finder patterns
			if i == 0 && (j == 0 || j == n-1) || i == n-1 && j == 0 {
				continue
			}
			bm.SetRegion(cx-2, cy-2, 5, 5)
		}
	}

	bm.SetRegion(6, 9, 1, dim-17)
	bm.SetRegion(9, 6, dim-17, 1)

	if v.number > 6 {
		bm.SetRegion(dim-11, 0, 3, 6)
		bm.SetRegion(0, dim-11, 6, 3)
	}
	return bm
}

// VersionForNumber returns version n.
func VersionForNumber(n int) (*Version, error) {
	if n < 1 || n > len(versions) {
		return nil, fmt.Errorf("%w: no version %d", matrixscan.ErrFormat, n)
	}
	return &versions[n-1], nil
}

// ProvisionalVersionForDimension returns the version whose symbols are dim
// modules wide.
func ProvisionalVersionForDimension(dim int) (*Version, error) {
	if dim%4 != 1 {
		return nil, fmt.Errorf("%w: dimension %d", matrixscan.ErrFormat, dim)
	}
	return VersionForNumber((dim - 17) / 4)
}

// DecodeVersionInformation maps 18 read version bits to the nearest valid
// codeword, accepting up to three bit errors. Either copy may be passed
// twice.
func DecodeVersionInformation(bits1, bits2 int) (*Version, bool) {
	best, bestDiff := 0, 32
	for i, target := range versionInfo {
		if target == bits1 || target == bits2 {
			return &versions[i+6], true
		}
		for _, read := range [2]int{bits1, bits2} {
			if d := bits.OnesCount32(uint32(read ^ target)); d < bestDiff {
				best, bestDiff = i+7, d
			}
		}
	}
	if bestDiff <= 3 {
		return &versions[best-1], true
	}
	return nil, false
}

// bch returns value with its BCH remainder under gen appended.
func bch(value, gen int) int {
	genBits := bits.Len(uint(gen))
	rem := value << (genBits - 1)
	for bits.Len(uint(rem)) >= genBits {
		rem ^= gen << (bits.Len(uint(rem)) - genBits)
	}
	return value<<(genBits-1) | rem
}

// alignmentCenters follows the spacing rule of ISO/IEC 18004 annex E: the
// first centre is 6, the last is 4 modules in from the far edge and the
// rest are evenly spaced by an even step, with version 32 as the one
// exception.
func alignmentCenters(version int) []int {
	if version == 1 {
		return nil
	}
	n := version/7 + 2
	step := 26
	if version != 32 {
		step = (version*4 + n*2 + 1) / (n*2 - 2) * 2
	}
	centers := make([]int, n)
	centers[0] = 6
	last := version*4 + 10
	for i := n - 1; i > 0; i-- {
		centers[i] = last
		last -= step
	}
	return centers
}

// versionInfo holds the 18-bit version information codewords for versions
// 7 through 40.
var versionInfo [34]int

var versions [40]Version

// ecTable lists, per version, {ec codewords per block, count1, data1,
// count2, data2} for L, M, Q and H.
var ecTable = [40][4][5]int{
	{{7, 1, 19, 0, 0}, {10, 1, 16, 0, 0}, {13, 1, 13, 0, 0}, {17, 1, 9, 0, 0}}, // 1
	{{10, 1, 34, 0, 0}, {16, 1, 28, 0, 0}, {22, 1, 22, 0, 0}, {28, 1, 16, 0, 0}}, // 2
	{{15, 1, 55, 0, 0}, {26, 1, 44, 0, 0}, {18, 2, 17, 0, 0}, {22, 2, 13, 0, 0}}, // 3
	{{20, 1, 80, 0, 0}, {18, 2, 32, 0, 0}, {26, 2, 24, 0, 0}, {16, 4, 9, 0, 0}}, // 4
	{{26, 1, 108, 0, 0}, {24, 2, 43, 0, 0}, {18, 2, 15, 2, 16}, {22, 2, 11, 2, 12}}, // 5
	{{18, 2, 68, 0, 0}, {16, 4, 27, 0, 0}, {24, 4, 19, 0, 0}, {28, 4, 15, 0, 0}}, // 6
	{{20, 2, 78, 0, 0}, {18, 4, 31, 0, 0}, {18, 2, 14, 4, 15}, {26, 4, 13, 1, 14}}, // 7
	{{24, 2, 97, 0, 0}, {22, 2, 38, 2, 39}, {22, 4, 18, 2, 19}, {26, 4, 14, 2, 15}}, // 8
	{{30, 2, 116, 0, 0}, {22, 3, 36, 2, 37}, {20, 4, 16, 4, 17}, {24, 4, 12, 4, 13}}, // 9
	{{18, 2, 68, 2, 69}, {26, 4, 43, 1, 44}, {24, 6, 19, 2, 20}, {28, 6, 15, 2, 16}}, // 10
	{{20, 4, 81, 0, 0}, {30, 1, 50, 4, 51}, {28, 4, 22, 4, 23}, {24, 3, 12, 8, 13}}, // 11
	{{24, 2, 92, 2, 93}, {22, 6, 36, 2, 37}, {26, 4, 20, 6, 21}, {28, 7, 14, 4, 15}}, // 12
	{{26, 4, 107, 0, 0}, {22, 8, 37, 1, 38}, {24, 8, 20, 4, 21}, {22, 12, 11, 4, 12}}, // 13
	{{30, 3, 115, 1, 116}, {24, 4, 40, 5, 41}, {20, 11, 16, 5, 17}, {24, 11, 12, 5, 13}}, // 14
	{{22, 5, 87, 1, 88}, {24, 5, 41, 5, 42}, {30, 5, 24, 7, 25}, {24, 11, 12, 7, 13}}, // 15
	{{24, 5, 98, 1, 99}, {28, 7, 45, 3, 46}, {24, 15, 19, 2, 20}, {30, 3, 15, 13, 16}}, // 16
	{{28, 1, 107, 5, 108}, {28, 10, 46, 1, 47}, {28, 1, 22, 15, 23}, {28, 2, 14, 17, 15}}, // 17
	{{30, 5, 120, 1, 121}, {26, 9, 43, 4, 44}, {28, 17, 22, 1, 23}, {28, 2, 14, 19, 15}}, // 18
	{{28, 3, 113, 4, 114}, {26, 3, 44, 11, 45}, {26, 17, 21, 4, 22}, {26, 9, 13, 16, 14}}, // 19
	{{28, 3, 107, 5, 108}, {26, 3, 41, 13, 42}, {30, 15, 24, 5, 25}, {28, 15, 15, 10, 16}}, // 20
	{{28, 4, 116, 4, 117}, {26, 17, 42, 0, 0}, {28, 17, 22, 6, 23}, {30, 19, 16, 6, 17}}, // 21
	{{28, 2, 111, 7, 112}, {28, 17, 46, 0, 0}, {30, 7, 24, 16, 25}, {24, 34, 13, 0, 0}}, // 22
	{{30, 4, 121, 5, 122}, {28, 4, 47, 14, 48}, {30, 11, 24, 14, 25}, {30, 16, 15, 14, 16}}, // 23
	{{30, 6, 117, 4, 118}, {28, 6, 45, 14, 46}, {30, 11, 24, 16, 25}, {30, 30, 16, 2, 17}}, // 24
	{{26, 8, 106, 4, 107}, {28, 8, 47, 13, 48}, {30, 7, 24, 22, 25}, {30, 22, 15, 13, 16}}, // 25
	{{28, 10, 114, 2, 115}, {28, 19, 46, 4, 47}, {28, 28, 22, 6, 23}, {30, 33, 16, 4, 17}}, // 26
	{{30, 8, 122, 4, 123}, {28, 22, 45, 3, 46}, {30, 8, 23, 26, 24}, {30, 12, 15, 28, 16}}, // 27
	{{30, 3, 117, 10, 118}, {28, 3, 45, 23, 46}, {30, 4, 24, 31, 25}, {30, 11, 15, 31, 16}}, // 28
	{{30, 7, 116, 7, 117}, {28, 21, 45, 7, 46}, {30, 1, 23, 37, 24}, {30, 19, 15, 26, 16}}, // 29
	{{30, 5, 115, 10, 116}, {28, 19, 47, 10, 48}, {30, 15, 24, 25, 25}, {30, 23, 15, 25, 16}}, // 30
	{{30, 13, 115, 3, 116}, {28, 2, 46, 29, 47}, {30, 42, 24, 1, 25}, {30, 23, 15, 28, 16}}, // 31
	{{30, 17, 115, 0, 0}, {28, 10, 46, 23, 47}, {30, 10, 24, 35, 25}, {30, 19, 15, 35, 16}}, // 32
	{{30, 17, 115, 1, 116}, {28, 14, 46, 21, 47}, {30, 29, 24, 19, 25}, {30, 11, 15, 46, 16}}, // 33
	{{30, 13, 115, 6, 116}, {28, 14, 46, 23, 47}, {30, 44, 24, 7, 25}, {30, 59, 16, 1, 17}}, // 34
	{{30, 12, 121, 7, 122}, {28, 12, 47, 26, 48}, {30, 39, 24, 14, 25}, {30, 22, 15, 41, 16}}, // 35
	{{30, 6, 121, 14, 122}, {28, 6, 47, 34, 48}, {30, 46, 24, 10, 25}, {30, 2, 15, 64, 16}}, // 36
	{{30, 17, 122, 4, 123}, {28, 29, 46, 14, 47}, {30, 49, 24, 10, 25}, {30, 24, 15, 46, 16}}, // 37
	{{30, 4, 122, 18, 123}, {28, 13, 46, 32, 47}, {30, 48, 24, 14, 25}, {30, 42, 15, 32, 16}}, // 38
	{{30, 20, 117, 4, 118}, {28, 40, 47, 7, 48}, {30, 43, 24, 22, 25}, {30, 10, 15, 67, 16}}, // 39
	{{30, 19, 118, 6, 119}, {28, 18, 47, 31, 48}, {30, 34, 24, 34, 25}, {30, 20, 15, 61, 16}}, // 40
}

func init() {
	for i := range versionInfo {
		versionInfo[i] = bch(i+7, 0x1F25)
	}
	for i := range versions {
		v := &versions[i]
		v.number = i + 1
		v.alignment = alignmentCenters(v.number)
		for level, row := range ecTable[i] {
			e := ECBlocks{ECCodewordsPerBlock: row[0], Groups: []BlockGroup{{row[1], row[2]}}}
			if row[3] > 0 {
				e.Groups = append(e.Groups, BlockGroup{row[3], row[4]})
			}
			v.levels[level] = e
		}
		for _, g := range v.levels[0].Groups {
			v.total += g.Count * (g.DataCodewords + v.levels[0].ECCodewordsPerBlock)
		}
	}
}
