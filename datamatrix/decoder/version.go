// Package decoder reads ECC 200 Data Matrix module grids: symbol sizes,
// module placement, block interleaving, error correction and the
// encodation schemes of the data codewords.
package decoder

import (
	"fmt"

	"github.com/ericlevine/matrixscan"
)

// BlockGroup is a run of blocks sharing one data length.
type BlockGroup struct {
	Count         int
	DataCodewords int
}

// ECBlocks is the block layout of a symbol size. Every block carries the
// same number of EC codewords.
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

// Version is one ECC 200 symbol size, square, rectangular or DMRE.
type Version struct {
	number           int
	rows, columns    int
	regionRows       int
	regionColumns    int
	blocks           ECBlocks
	total            int
	dataCodewordsSum int
}

// Number returns the position of the size in the symbol table, 1 through 48.
func (v *Version) Number() int { return v.number }

// Rows returns the symbol height in modules, finder and clock tracks included.
func (v *Version) Rows() int { return v.rows }

// Columns returns the symbol width in modules.
func (v *Version) Columns() int { return v.columns }

// RegionRows returns the height of one data region.
func (v *Version) RegionRows() int { return v.regionRows }

// RegionColumns returns the width of one data region.
func (v *Version) RegionColumns() int { return v.regionColumns }

// ECBlocks returns the block layout.
func (v *Version) ECBlocks() ECBlocks { return v.blocks }

// TotalCodewords returns the number of data plus EC codewords.
func (v *Version) TotalCodewords() int { return v.total }

// DataCodewords returns the number of data codewords over all blocks.
func (v *Version) DataCodewords() int { return v.dataCodewordsSum }

func (v *Version) String() string {
	return fmt.Sprintf("%dx%d", v.rows, v.columns)
}

func newVersion(number, rows, columns, regionRows, regionColumns, ecPerBlock int, groups ...BlockGroup) Version {
	v := Version{
		number:        number,
		rows:          rows,
		columns:       columns,
		regionRows:    regionRows,
		regionColumns: regionColumns,
		blocks:        ECBlocks{ECCodewordsPerBlock: ecPerBlock, Groups: groups},
	}
	for _, g := range groups {
		v.total += g.Count * (g.DataCodewords + ecPerBlock)
		v.dataCodewordsSum += g.Count * g.DataCodewords
	}
	return v
}

// VersionForDimensions returns the size with the given module counts.
func VersionForDimensions(rows, columns int) (*Version, error) {
	if rows&1 != 0 || columns&1 != 0 {
		return nil, fmt.Errorf("%w: odd dimension %dx%d", matrixscan.ErrFormat, rows, columns)
	}
	for i := range versions {
		if versions[i].rows == rows && versions[i].columns == columns {
			return &versions[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no symbol size %dx%d", matrixscan.ErrFormat, rows, columns)
}

// VersionForNumber returns size number n.
func VersionForNumber(n int) (*Version, error) {
	if n < 1 || n > len(versions) {
		return nil, fmt.Errorf("%w: symbol size number %d", matrixscan.ErrFormat, n)
	}
	return &versions[n-1], nil
}

// ISO/IEC 16022 table 7 and, from 31 on, the ISO/IEC 21471 DMRE sizes.
var versions = [...]Version{
	newVersion(1, 10, 10, 8, 8, 5, BlockGroup{1, 3}),
	newVersion(2, 12, 12, 10, 10, 7, BlockGroup{1, 5}),
	newVersion(3, 14, 14, 12, 12, 10, BlockGroup{1, 8}),
	newVersion(4, 16, 16, 14, 14, 12, BlockGroup{1, 12}),
	newVersion(5, 18, 18, 16, 16, 14, BlockGroup{1, 18}),
	newVersion(6, 20, 20, 18, 18, 18, BlockGroup{1, 22}),
	newVersion(7, 22, 22, 20, 20, 20, BlockGroup{1, 30}),
	newVersion(8, 24, 24, 22, 22, 24, BlockGroup{1, 36}),
	newVersion(9, 26, 26, 24, 24, 28, BlockGroup{1, 44}),
	newVersion(10, 32, 32, 14, 14, 36, BlockGroup{1, 62}),
	newVersion(11, 36, 36, 16, 16, 42, BlockGroup{1, 86}),
	newVersion(12, 40, 40, 18, 18, 48, BlockGroup{1, 114}),
	newVersion(13, 44, 44, 20, 20, 56, BlockGroup{1, 144}),
	newVersion(14, 48, 48, 22, 22, 68, BlockGroup{1, 174}),
	newVersion(15, 52, 52, 24, 24, 42, BlockGroup{2, 102}),
	newVersion(16, 64, 64, 14, 14, 56, BlockGroup{2, 140}),
	newVersion(17, 72, 72, 16, 16, 36, BlockGroup{4, 92}),
	newVersion(18, 80, 80, 18, 18, 48, BlockGroup{4, 114}),
	newVersion(19, 88, 88, 20, 20, 56, BlockGroup{4, 144}),
	newVersion(20, 96, 96, 22, 22, 68, BlockGroup{4, 174}),
	newVersion(21, 104, 104, 24, 24, 56, BlockGroup{6, 136}),
	newVersion(22, 120, 120, 18, 18, 68, BlockGroup{6, 175}),
	newVersion(23, 132, 132, 20, 20, 62, BlockGroup{8, 163}),
	newVersion(24, 144, 144, 22, 22, 62, BlockGroup{8, 156}, BlockGroup{2, 155}),

	newVersion(25, 8, 18, 6, 16, 7, BlockGroup{1, 5}),
	newVersion(26, 8, 32, 6, 14, 11, BlockGroup{1, 10}),
	newVersion(27, 12, 26, 10, 24, 14, BlockGroup{1, 16}),
	newVersion(28, 12, 36, 10, 16, 18, BlockGroup{1, 22}),
	newVersion(29, 16, 36, 14, 16, 24, BlockGroup{1, 32}),
	newVersion(30, 16, 48, 14, 22, 28, BlockGroup{1, 49}),

	newVersion(31, 8, 48, 6, 22, 15, BlockGroup{1, 18}),
	newVersion(32, 8, 64, 6, 14, 18, BlockGroup{1, 24}),
	newVersion(33, 8, 80, 6, 18, 22, BlockGroup{1, 32}),
	newVersion(34, 8, 96, 6, 22, 28, BlockGroup{1, 38}),
	newVersion(35, 8, 120, 6, 18, 32, BlockGroup{1, 49}),
	newVersion(36, 8, 144, 6, 22, 36, BlockGroup{1, 63}),
	newVersion(37, 12, 64, 10, 14, 27, BlockGroup{1, 43}),
	newVersion(38, 12, 88, 10, 20, 36, BlockGroup{1, 64}),
	newVersion(39, 16, 64, 14, 14, 36, BlockGroup{1, 62}),
	newVersion(40, 20, 36, 18, 16, 28, BlockGroup{1, 44}),
	newVersion(41, 20, 44, 18, 20, 34, BlockGroup{1, 56}),
	newVersion(42, 20, 64, 18, 14, 42, BlockGroup{1, 84}),
	newVersion(43, 22, 48, 20, 22, 38, BlockGroup{1, 72}),
	newVersion(44, 24, 48, 22, 22, 41, BlockGroup{1, 80}),
	newVersion(45, 24, 64, 22, 14, 46, BlockGroup{1, 108}),
	newVersion(46, 26, 40, 24, 18, 38, BlockGroup{1, 70}),
	newVersion(47, 26, 48, 24, 22, 42, BlockGroup{1, 90}),
	newVersion(48, 26, 64, 24, 14, 50, BlockGroup{1, 118}),
}
