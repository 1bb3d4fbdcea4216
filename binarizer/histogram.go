// Package binarizer turns greyscale images into the bit grids the decoder
// reads. It sits outside the decode core; callers with their own
// thresholding can build a bitutil.BitMatrix directly.
package binarizer

import (
	"fmt"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
)

const (
	luminanceBits    = 5
	luminanceShift   = 8 - luminanceBits
	luminanceBuckets = 1 << luminanceBits
)

// Binarizer produces a bit grid, true meaning dark.
type Binarizer interface {
	BlackMatrix() (*bitutil.BitMatrix, error)
}

// New returns the binarizer called name ("global" or "hybrid") over src.
func New(name string, src *Luminance) (Binarizer, error) {
	switch name {
	case "", "hybrid":
		return NewHybrid(src), nil
	case "global":
		return NewGlobalHistogram(src), nil
	}
	return nil, fmt.Errorf("unknown binarizer %q", name)
}

// GlobalHistogram picks one black point for the whole image from a
// histogram of its central band. It suits evenly lit, high-contrast
// images.
type GlobalHistogram struct {
	src     *Luminance
	buckets [luminanceBuckets]int
}

func NewGlobalHistogram(src *Luminance) *GlobalHistogram {
	return &GlobalHistogram{src: src}
}

// BlackMatrix thresholds every pixel against the estimated black point.
func (g *GlobalHistogram) BlackMatrix() (*bitutil.BitMatrix, error) {
	width, height := g.src.Width(), g.src.Height()
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: empty image", matrixscan.ErrNotFound)
	}

	// sample four rows across the middle three fifths
	g.buckets = [luminanceBuckets]int{}
	row := make([]byte, width)
	for y := 1; y < 5; y++ {
		row = g.src.Row(height*y/5, row)
		for x := width / 5; x < width*4/5; x++ {
			g.buckets[row[x]>>luminanceShift]++
		}
	}
	blackPoint, err := estimateBlackPoint(g.buckets[:])
	if err != nil {
		return nil, err
	}

	matrix := bitutil.NewBitMatrixWithSize(width, height)
	pix := g.src.Matrix()
	for y := 0; y < height; y++ {
		offset := y * width
		for x := 0; x < width; x++ {
			if int(pix[offset+x]) < blackPoint {
				matrix.Set(x, y)
			}
		}
	}
	return matrix, nil
}

// estimateBlackPoint finds the two tallest well-separated peaks of the
// histogram and returns the deepest valley between them, favouring the
// lighter side.
func estimateBlackPoint(buckets []int) (int, error) {
	numBuckets := len(buckets)
	maxBucketCount, firstPeak, firstPeakSize := 0, 0, 0
	for x, n := range buckets {
		if n > firstPeakSize {
			firstPeak, firstPeakSize = x, n
		}
		maxBucketCount = max(maxBucketCount, n)
	}

	// distance matters as much as height for the second peak
	secondPeak, secondPeakScore := 0, 0
	for x, n := range buckets {
		dist := x - firstPeak
		if score := n * dist * dist; score > secondPeakScore {
			secondPeak, secondPeakScore = x, score
		}
	}
	if firstPeak > secondPeak {
		firstPeak, secondPeak = secondPeak, firstPeak
	}
	if secondPeak-firstPeak <= numBuckets/16 {
		return 0, fmt.Errorf("%w: histogram has a single peak", matrixscan.ErrNotFound)
	}

	bestValley, bestValleyScore := secondPeak-1, -1
	for x := secondPeak - 1; x > firstPeak; x-- {
		fromFirst := x - firstPeak
		score := fromFirst * fromFirst * (secondPeak - x) * (maxBucketCount - buckets[x])
		if score > bestValleyScore {
			bestValley, bestValleyScore = x, score
		}
	}
	return bestValley << luminanceShift, nil
}
