package detector

import (
	"errors"
	"fmt"
	"math"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
	"github.com/ericlevine/matrixscan/qrcode/decoder"
	"github.com/ericlevine/matrixscan/transform"
)

// maxRefinements bounds how often the dimension is re-estimated from a
// located alignment pattern.
const maxRefinements = 3

// Detector locates one QR symbol in a bit image and samples it onto its
// module grid.
type Detector struct {
	image    *bitutil.BitMatrix
	hints    *matrixscan.Hints
	callback func(matrixscan.ResultPoint)
}

// New returns a detector over image. callback may be nil.
func New(image *bitutil.BitMatrix, hints *matrixscan.Hints, callback func(matrixscan.ResultPoint)) *Detector {
	if hints == nil {
		hints = &matrixscan.Hints{}
	}
	return &Detector{image: image, hints: hints, callback: callback}
}

// Detect finds the finder patterns and returns the sampled grid with the
// points it was anchored on: bottom-left, top-left, top-right and, when
// found, the alignment pattern.
func (d *Detector) Detect() (*matrixscan.DetectorResult, error) {
	info, err := NewFinderPatternFinder(d.image, d.callback).Find(d.hints)
	if err != nil {
		return nil, err
	}
	return d.ProcessFinderPatternInfo(info)
}

// ProcessFinderPatternInfo estimates the symbol size from three ordered
// finder patterns, refines it against the alignment pattern, and samples
// the grid.
func (d *Detector) ProcessFinderPatternInfo(info *FinderPatternInfo) (*matrixscan.DetectorResult, error) {
	tl, tr, bl := info.TopLeft.ResultPoint, info.TopRight.ResultPoint, info.BottomLeft.ResultPoint

	moduleSize := d.calculateModuleSize(tl, tr, bl)
	if !(moduleSize >= 1) {
		return nil, fmt.Errorf("%w: module size %.2f", matrixscan.ErrNotFound, moduleSize)
	}
	dimension, err := computeDimension(tl, tr, bl, moduleSize)
	if err != nil {
		return nil, err
	}

	var align *AlignmentPattern
	for round := 0; round < maxRefinements; round++ {
		version, err := decoder.ProvisionalVersionForDimension(dimension)
		if err != nil {
			return nil, err
		}
		align = d.findAlignment(tl, tr, bl, version, moduleSize)
		if align == nil {
			break
		}
		// centre distances span dimension-7 modules; the alignment pattern
		// measures the module size locally, where skew is worst
		between := (matrixscan.Distance(tl, tr) + matrixscan.Distance(tl, bl)) / 2
		refined := (between/float64(dimension-7) + align.EstimatedModuleSize) / 2
		next, err := computeDimension(tl, tr, bl, refined)
		if err != nil || next == dimension {
			break
		}
		if _, err := decoder.ProvisionalVersionForDimension(next); err != nil {
			break
		}
		dimension, moduleSize = next, refined
	}

	t, err := createTransform(tl, tr, bl, align, dimension)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", matrixscan.ErrFormat, err)
	}
	bits, err := transform.SampleGrid(d.image, dimension, dimension, t)
	if err != nil {
		if errors.Is(err, transform.ErrOutOfBounds) {
			return nil, fmt.Errorf("%w: %w", matrixscan.ErrNotFound, err)
		}
		return nil, err
	}

	points := []matrixscan.ResultPoint{bl, tl, tr}
	if align != nil {
		points = append(points, align.ResultPoint)
	}
	return &matrixscan.DetectorResult{Bits: bits, Points: points}, nil
}

// findAlignment searches ever wider regions around the expected position
// of the bottom-right alignment pattern. It returns nil for version 1 or
// when nothing is found.
func (d *Detector) findAlignment(tl, tr, bl matrixscan.ResultPoint, version *decoder.Version, moduleSize float64) *AlignmentPattern {
	if len(version.AlignmentCenters()) == 0 {
		return nil
	}
	brX := tr.X - tl.X + bl.X
	brY := tr.Y - tl.Y + bl.Y
	// the alignment centre sits 3 modules in from the bottom-right corner
	// of the finder centres' parallelogram
	correction := 1 - 3/float64(version.Dimension()-7)
	estX := int(tl.X + correction*(brX-tl.X))
	estY := int(tl.Y + correction*(brY-tl.Y))
	for allowance := 4.0; allowance <= 16; allowance *= 2 {
		if p, err := findAlignmentInRegion(d.image, moduleSize, estX, estY, allowance, d.callback); err == nil {
			return p
		}
	}
	return nil
}

func createTransform(tl, tr, bl matrixscan.ResultPoint, align *AlignmentPattern, dimension int) (*transform.PerspectiveTransform, error) {
	far := float64(dimension) - 3.5
	var brX, brY, srcBR float64
	if align != nil {
		brX, brY = align.X, align.Y
		srcBR = far - 3
	} else {
		brX = tr.X - tl.X + bl.X
		brY = tr.Y - tl.Y + bl.Y
		srcBR = far
	}
	return transform.QuadrilateralToQuadrilateral(
		transform.Quad{3.5, 3.5, far, 3.5, srcBR, srcBR, 3.5, far},
		transform.Quad{tl.X, tl.Y, tr.X, tr.Y, brX, brY, bl.X, bl.Y},
	)
}

// computeDimension rounds the centre distances to whole modules and
// snaps the result to a legal size.
func computeDimension(tl, tr, bl matrixscan.ResultPoint, moduleSize float64) (int, error) {
	across := int(math.Round(matrixscan.Distance(tl, tr) / moduleSize))
	down := int(math.Round(matrixscan.Distance(tl, bl) / moduleSize))
	dimension := (across+down)/2 + 7
	switch dimension & 3 {
	case 0:
		dimension++
	case 2:
		dimension--
	case 3:
		return 0, fmt.Errorf("%w: dimension %d", matrixscan.ErrNotFound, dimension)
	}
	return dimension, nil
}

// calculateModuleSize averages the module size measured from the top-left
// pattern towards each of the other two.
func (d *Detector) calculateModuleSize(tl, tr, bl matrixscan.ResultPoint) float64 {
	return (d.moduleSizeOneWay(tl, tr) + d.moduleSizeOneWay(tl, bl)) / 2
}

func (d *Detector) moduleSizeOneWay(p, other matrixscan.ResultPoint) float64 {
	a := d.runBothWays(int(p.X), int(p.Y), int(other.X), int(other.Y))
	b := d.runBothWays(int(other.X), int(other.Y), int(p.X), int(p.Y))
	switch {
	case math.IsNaN(a):
		return b / 7
	case math.IsNaN(b):
		return a / 7
	}
	// each run covers the 7 modules of one pattern, two runs
	return (a + b) / 14
}

// runBothWays measures the black-white-black run through a pattern centre
// towards (toX, toY) and in the opposite direction, clipped to the image.
func (d *Detector) runBothWays(fromX, fromY, toX, toY int) float64 {
	result := d.blackWhiteBlackRun(fromX, fromY, toX, toY)

	w, h := d.image.Width(), d.image.Height()
	scale := 1.0
	otherX := fromX - (toX - fromX)
	if otherX < 0 {
		scale = float64(fromX) / float64(fromX-otherX)
		otherX = 0
	} else if otherX >= w {
		scale = float64(w-1-fromX) / float64(otherX-fromX)
		otherX = w - 1
	}
	otherY := int(float64(fromY) - float64(toY-fromY)*scale)

	scale = 1.0
	if otherY < 0 {
		scale = float64(fromY) / float64(fromY-otherY)
		otherY = 0
	} else if otherY >= h {
		scale = float64(h-1-fromY) / float64(otherY-fromY)
		otherY = h - 1
	}
	otherX = int(float64(fromX) + float64(otherX-fromX)*scale)

	result += d.blackWhiteBlackRun(fromX, fromY, otherX, otherY)
	// the centre pixel was counted by both walks
	return result - 1
}

// blackWhiteBlackRun walks a Bresenham line from a pattern centre and
// returns the distance to the start of the second black run, or NaN when
// the line ends first.
func (d *Detector) blackWhiteBlackRun(fromX, fromY, toX, toY int) float64 {
	steep := abs(toY-fromY) > abs(toX-fromX)
	if steep {
		fromX, fromY = fromY, fromX
		toX, toY = toY, toX
	}
	dx, dy := abs(toX-fromX), abs(toY-fromY)
	errAcc := -dx / 2
	xstep, ystep := 1, 1
	if fromX > toX {
		xstep = -1
	}
	if fromY > toY {
		ystep = -1
	}

	// 0: in the first black run, 1: white, 2: second black
	state := 0
	xLimit := toX + xstep
	x, y := fromX, fromY
	for ; x != xLimit; x += xstep {
		realX, realY := x, y
		if steep {
			realX, realY = y, x
		}
		if (state == 1) == d.image.Get(realX, realY) {
			if state == 2 {
				return math.Hypot(float64(x-fromX), float64(y-fromY))
			}
			state++
		}
		errAcc += dy
		if errAcc > 0 {
			if y == toY {
				break
			}
			y += ystep
			errAcc -= dx
		}
	}
	if state == 2 {
		return math.Hypot(float64(toX+xstep-fromX), float64(toY-fromY))
	}
	return math.NaN()
}
