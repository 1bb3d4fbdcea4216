package binarizer

import "github.com/ericlevine/matrixscan/bitutil"

const (
	blockSizePower   = 3
	blockSize        = 1 << blockSizePower
	blockSizeMask    = blockSize - 1
	minimumDimension = blockSize * 5
	minDynamicRange  = 24
)

// Hybrid thresholds each 8x8 block against the average black point of the
// surrounding 5x5 blocks, which copes with shadows and gradients. Images
// smaller than 40 pixels on a side fall back to GlobalHistogram.
type Hybrid struct {
	src    *Luminance
	matrix *bitutil.BitMatrix
}

func NewHybrid(src *Luminance) *Hybrid {
	return &Hybrid{src: src}
}

// BlackMatrix computes the grid once and returns the same matrix on later
// calls.
func (h *Hybrid) BlackMatrix() (*bitutil.BitMatrix, error) {
	if h.matrix != nil {
		return h.matrix, nil
	}
	width, height := h.src.Width(), h.src.Height()
	if width < minimumDimension || height < minimumDimension {
		m, err := NewGlobalHistogram(h.src).BlackMatrix()
		if err != nil {
			return nil, err
		}
		h.matrix = m
		return m, nil
	}

	pix := h.src.Matrix()
	subWidth := width >> blockSizePower
	if width&blockSizeMask != 0 {
		subWidth++
	}
	subHeight := height >> blockSizePower
	if height&blockSizeMask != 0 {
		subHeight++
	}
	blackPoints := calculateBlackPoints(pix, subWidth, subHeight, width, height)
	m := bitutil.NewBitMatrixWithSize(width, height)
	thresholdBlocks(pix, subWidth, subHeight, width, height, blackPoints, m)
	h.matrix = m
	return m, nil
}

func thresholdBlocks(pix []byte, subWidth, subHeight, width, height int, blackPoints [][]int, m *bitutil.BitMatrix) {
	maxYOffset := height - blockSize
	maxXOffset := width - blockSize
	for y := 0; y < subHeight; y++ {
		yoffset := min(y<<blockSizePower, maxYOffset)
		top := clampBlock(y, subHeight-3)
		for x := 0; x < subWidth; x++ {
			xoffset := min(x<<blockSizePower, maxXOffset)
			left := clampBlock(x, subWidth-3)
			sum := 0
			for z := -2; z <= 2; z++ {
				r := blackPoints[top+z]
				sum += r[left-2] + r[left-1] + r[left] + r[left+1] + r[left+2]
			}
			thresholdBlock(pix, xoffset, yoffset, sum/25, width, m)
		}
	}
}

// clampBlock keeps a 5x5 neighbourhood centred on v inside the block grid.
func clampBlock(v, hi int) int {
	if v < 2 {
		return 2
	}
	return min(v, hi)
}

func thresholdBlock(pix []byte, xoffset, yoffset, threshold, stride int, m *bitutil.BitMatrix) {
	for y, offset := 0, yoffset*stride+xoffset; y < blockSize; y, offset = y+1, offset+stride {
		for x := 0; x < blockSize; x++ {
			if int(pix[offset+x]) <= threshold {
				m.Set(xoffset+x, yoffset+y)
			}
		}
	}
}

// calculateBlackPoints returns one black point per block. Flat blocks take
// half their minimum, or their neighbours' estimate when that is darker
// than the block, so a light area inside a symbol is not read as dark.
func calculateBlackPoints(pix []byte, subWidth, subHeight, width, height int) [][]int {
	maxYOffset := height - blockSize
	maxXOffset := width - blockSize
	blackPoints := make([][]int, subHeight)
	for i := range blackPoints {
		blackPoints[i] = make([]int, subWidth)
	}

	for y := 0; y < subHeight; y++ {
		yoffset := min(y<<blockSizePower, maxYOffset)
		for x := 0; x < subWidth; x++ {
			xoffset := min(x<<blockSizePower, maxXOffset)
			sum, lo, hi := 0, 0xFF, 0
			for yy, offset := 0, yoffset*width+xoffset; yy < blockSize; yy, offset = yy+1, offset+width {
				for xx := 0; xx < blockSize; xx++ {
					p := int(pix[offset+xx])
					sum += p
					lo = min(lo, p)
					hi = max(hi, p)
				}
				// once the range is known to be wide, just finish the sum
				if hi-lo > minDynamicRange {
					for yy, offset = yy+1, offset+width; yy < blockSize; yy, offset = yy+1, offset+width {
						for xx := 0; xx < blockSize; xx++ {
							sum += int(pix[offset+xx])
						}
					}
				}
			}

			average := sum >> (blockSizePower * 2)
			if hi-lo <= minDynamicRange {
				average = lo / 2
				if y > 0 && x > 0 {
					neighbours := (blackPoints[y-1][x] + 2*blackPoints[y][x-1] + blackPoints[y-1][x-1]) / 4
					if lo < neighbours {
						average = neighbours
					}
				}
			}
			blackPoints[y][x] = average
		}
	}
	return blackPoints
}
