package detector

import (
	"fmt"
	"math"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
)

// alignmentFinder searches one rectangle of the image for the 1:1:1
// black/white/black cross-section of an alignment pattern. Only the centre
// three runs are checked; the outer white ring is often merged with data.
type alignmentFinder struct {
	image      *bitutil.BitMatrix
	startX     int
	startY     int
	width      int
	height     int
	moduleSize float64
	callback   func(matrixscan.ResultPoint)
	candidates []*AlignmentPattern
}

// findAlignmentInRegion looks for an alignment pattern centred near
// (estX, estY), allowing allowance modules in every direction.
func findAlignmentInRegion(image *bitutil.BitMatrix, moduleSize float64, estX, estY int, allowance float64,
	callback func(matrixscan.ResultPoint)) (*AlignmentPattern, error) {
	reach := int(allowance * moduleSize)
	left := max(0, estX-reach)
	right := min(image.Width()-1, estX+reach)
	if float64(right-left) < moduleSize*3 {
		return nil, fmt.Errorf("%w: alignment region too narrow", matrixscan.ErrNotFound)
	}
	top := max(0, estY-reach)
	bottom := min(image.Height()-1, estY+reach)
	if float64(bottom-top) < moduleSize*3 {
		return nil, fmt.Errorf("%w: alignment region too short", matrixscan.ErrNotFound)
	}
	f := &alignmentFinder{
		image:      image,
		startX:     left,
		startY:     top,
		width:      right - left,
		height:     bottom - top,
		moduleSize: moduleSize,
		callback:   callback,
	}
	return f.find()
}

// find scans rows from the middle of the region outwards, returning the
// first centre seen twice, or failing that the first one seen at all.
func (f *alignmentFinder) find() (*AlignmentPattern, error) {
	maxJ := f.startX + f.width
	middleI := f.startY + f.height/2
	for iGen := 0; iGen < f.height; iGen++ {
		// middle, middle+1, middle-1, middle+2, ...
		i := middleI
		if iGen&1 == 0 {
			i += (iGen + 1) / 2
		} else {
			i -= (iGen + 1) / 2
		}
		var counts [3]int
		j := f.startX
		// burn off leading white so the first run counted is black
		for j < maxJ && !f.image.Get(j, i) {
			j++
		}
		state := 0
		for ; j < maxJ; j++ {
			if f.image.Get(j, i) {
				switch state {
				case 1:
					counts[1]++
				case 2:
					if f.foundPatternCross(counts) {
						if p := f.handlePossibleCenter(counts, i, j); p != nil {
							return p, nil
						}
					}
					counts = [3]int{counts[2], 1, 0}
					state = 1
				default:
					state++
					counts[state]++
				}
				continue
			}
			if state == 1 {
				state++
			}
			counts[state]++
		}
		if f.foundPatternCross(counts) {
			if p := f.handlePossibleCenter(counts, i, maxJ); p != nil {
				return p, nil
			}
		}
	}
	if len(f.candidates) > 0 {
		return f.candidates[0], nil
	}
	return nil, fmt.Errorf("%w: no alignment pattern", matrixscan.ErrNotFound)
}

func (f *alignmentFinder) foundPatternCross(counts [3]int) bool {
	maxVariance := f.moduleSize / 2
	for _, c := range counts {
		if math.Abs(f.moduleSize-float64(c)) >= maxVariance {
			return false
		}
	}
	return true
}

func alignmentCenterFromEnd(counts [3]int, end int) float64 {
	return float64(end-counts[2]) - float64(counts[1])/2
}

// crossCheckVertical counts the white/black/white runs down column x and
// returns the vertical centre, or NaN.
func (f *alignmentFinder) crossCheckVertical(startI, centerJ, maxCount, originalTotal int) float64 {
	img := f.image
	maxI := img.Height()
	var counts [3]int

	i := startI
	for i >= 0 && img.Get(centerJ, i) && counts[1] <= maxCount {
		counts[1]++
		i--
	}
	if i < 0 || counts[1] > maxCount {
		return math.NaN()
	}
	for i >= 0 && !img.Get(centerJ, i) && counts[0] <= maxCount {
		counts[0]++
		i--
	}
	if counts[0] > maxCount {
		return math.NaN()
	}

	i = startI + 1
	for i < maxI && img.Get(centerJ, i) && counts[1] <= maxCount {
		counts[1]++
		i++
	}
	if i == maxI || counts[1] > maxCount {
		return math.NaN()
	}
	for i < maxI && !img.Get(centerJ, i) && counts[2] <= maxCount {
		counts[2]++
		i++
	}
	if counts[2] > maxCount {
		return math.NaN()
	}

	total := counts[0] + counts[1] + counts[2]
	if 5*abs(total-originalTotal) >= 2*originalTotal {
		return math.NaN()
	}
	if !f.foundPatternCross(counts) {
		return math.NaN()
	}
	return alignmentCenterFromEnd(counts, i)
}

// handlePossibleCenter returns a pattern once the same centre has been
// sighted twice; a first sighting is only recorded.
func (f *alignmentFinder) handlePossibleCenter(counts [3]int, i, j int) *AlignmentPattern {
	total := counts[0] + counts[1] + counts[2]
	centerJ := alignmentCenterFromEnd(counts, j)
	centerI := f.crossCheckVertical(i, int(centerJ), 2*counts[1], total)
	if math.IsNaN(centerI) {
		return nil
	}
	moduleSize := float64(total) / 3
	for _, c := range f.candidates {
		if c.aboutEquals(moduleSize, centerJ, centerI) {
			return c.combineEstimate(centerJ, centerI, moduleSize)
		}
	}
	p := &AlignmentPattern{
		ResultPoint:         matrixscan.ResultPoint{X: centerJ, Y: centerI},
		EstimatedModuleSize: moduleSize,
	}
	f.candidates = append(f.candidates, p)
	if f.callback != nil {
		f.callback(p.ResultPoint)
	}
	return nil
}
