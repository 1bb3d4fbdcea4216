// Package detector locates QR symbols in a bit image: the three finder
// patterns, the bottom-right alignment pattern, and the perspective
// transform that resamples the symbol onto its module grid.
package detector

import (
	"math"

	"github.com/ericlevine/matrixscan"
)

// FinderPattern is one of the three 7x7 corner squares, as estimated from
// Count independent sightings.
type FinderPattern struct {
	matrixscan.ResultPoint
	EstimatedModuleSize float64
	Count               int
}

// aboutEquals reports whether a sighting at (x, y) with the given module
// size is the same pattern.
func (f *FinderPattern) aboutEquals(moduleSize, x, y float64) bool {
	return aboutEquals(f.ResultPoint, f.EstimatedModuleSize, moduleSize, x, y)
}

// combineEstimate folds a new sighting into the count-weighted averages.
func (f *FinderPattern) combineEstimate(x, y, moduleSize float64) *FinderPattern {
	n := float64(f.Count)
	c := n + 1
	return &FinderPattern{
		ResultPoint:         matrixscan.ResultPoint{X: (n*f.X + x) / c, Y: (n*f.Y + y) / c},
		EstimatedModuleSize: (n*f.EstimatedModuleSize + moduleSize) / c,
		Count:               f.Count + 1,
	}
}

// FinderPatternInfo holds the three finder patterns by role.
type FinderPatternInfo struct {
	BottomLeft, TopLeft, TopRight *FinderPattern
}

// AlignmentPattern is the smaller 5x5 square nearest the bottom-right
// corner.
type AlignmentPattern struct {
	matrixscan.ResultPoint
	EstimatedModuleSize float64
}

func (a *AlignmentPattern) aboutEquals(moduleSize, x, y float64) bool {
	return aboutEquals(a.ResultPoint, a.EstimatedModuleSize, moduleSize, x, y)
}

func (a *AlignmentPattern) combineEstimate(x, y, moduleSize float64) *AlignmentPattern {
	return &AlignmentPattern{
		ResultPoint:         matrixscan.ResultPoint{X: (a.X + x) / 2, Y: (a.Y + y) / 2},
		EstimatedModuleSize: (a.EstimatedModuleSize + moduleSize) / 2,
	}
}

func aboutEquals(p matrixscan.ResultPoint, estimate, moduleSize, x, y float64) bool {
	if math.Abs(y-p.Y) > moduleSize || math.Abs(x-p.X) > moduleSize {
		return false
	}
	diff := math.Abs(moduleSize - estimate)
	return diff <= 1 || diff <= estimate
}
