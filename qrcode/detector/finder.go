package detector

import (
	"fmt"
	"math"
	"slices"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
)

const (
	centerQuorum = 2
	minSkip      = 3
	maxModules   = 97 // version 20; larger symbols need TryHarder
)

// crossCheck judges a five-run black/white/black/white/black count.
type crossCheck func(counts [5]int) bool

// FinderPatternFinder scans an image for finder patterns. It keeps its
// candidates between calls and must not be shared.
type FinderPatternFinder struct {
	image      *bitutil.BitMatrix
	callback   func(matrixscan.ResultPoint)
	candidates []*FinderPattern
	hasSkipped bool
	tryHarder  bool
}

// NewFinderPatternFinder returns a finder over image. callback, if not nil,
// sees every new candidate centre.
func NewFinderPatternFinder(image *bitutil.BitMatrix, callback func(matrixscan.ResultPoint)) *FinderPatternFinder {
	return &FinderPatternFinder{image: image, callback: callback}
}

// Candidates returns the candidate centres found so far.
func (f *FinderPatternFinder) Candidates() []*FinderPattern {
	return f.candidates
}

// Find scans rows for the 1:1:3:1:1 signature of a finder pattern and
// returns the best-shaped triple.
func (f *FinderPatternFinder) Find(hints *matrixscan.Hints) (*FinderPatternInfo, error) {
	if hints == nil {
		hints = &matrixscan.Hints{}
	}
	f.tryHarder = hints.TryHarder
	maxY, maxX := f.image.Height(), f.image.Width()

	// a symbol of maxModules modules filling three quarters of the image
	// still has a module every skip rows
	skip := 3 * maxY / (4 * maxModules)
	if skip < minSkip || hints.TryHarder {
		skip = minSkip
	}
	if hints.PureBarcode {
		skip = 1
	}

	done := false
	var counts [5]int
	for y := skip - 1; y < maxY && !done; y += skip {
		counts = [5]int{}
		state := 0
		for x := 0; x < maxX; x++ {
			if f.image.Get(x, y) {
				if state&1 == 1 {
					state++
				}
				counts[state]++
				continue
			}
			if state&1 == 1 {
				counts[state]++
				continue
			}
			if state != 4 {
				state++
				counts[state]++
				continue
			}
			if !foundPatternCross(counts) {
				counts = shiftCounts(counts)
				state = 3
				continue
			}
			if !f.handlePossibleCenter(counts, y, x) {
				counts = shiftCounts(counts)
				state = 3
				continue
			}
			// confirmed: rows close by cannot hold a new pattern
			skip = 2
			if f.hasSkipped {
				done = f.haveMultiplyConfirmedCenters()
			} else if rowSkip := f.findRowSkip(); rowSkip > counts[2] {
				// jump down to roughly where the third pattern should be
				y += rowSkip - counts[2] - skip
				x = maxX - 1
			}
			state = 0
			counts = [5]int{}
		}
		if foundPatternCross(counts) && f.handlePossibleCenter(counts, y, maxX) {
			skip = counts[0]
			if f.hasSkipped {
				done = f.haveMultiplyConfirmedCenters()
			}
		}
	}

	best, err := f.selectBestPatterns()
	if err != nil {
		return nil, err
	}
	order := matrixscan.OrderBestPatterns(best[0].ResultPoint, best[1].ResultPoint, best[2].ResultPoint)
	byPoint := func(p matrixscan.ResultPoint) *FinderPattern {
		for _, b := range best {
			if b.ResultPoint == p {
				return b
			}
		}
		return nil
	}
	return &FinderPatternInfo{
		BottomLeft: byPoint(order.BottomLeft),
		TopLeft:    byPoint(order.TopLeft),
		TopRight:   byPoint(order.TopRight),
	}, nil
}

func shiftCounts(c [5]int) [5]int {
	return [5]int{c[2], c[3], c[4], 1, 0}
}

func centerFromEnd(counts [5]int, end int) float64 {
	return float64(end-counts[4]-counts[3]) - float64(counts[2])/2
}

func patternRatio(counts [5]int, tolerance float64) bool {
	total := 0
	for _, c := range counts {
		if c == 0 {
			return false
		}
		total += c
	}
	if total < 7 {
		return false
	}
	moduleSize := float64(total) / 7
	maxVariance := moduleSize / tolerance
	return math.Abs(moduleSize-float64(counts[0])) < maxVariance &&
		math.Abs(moduleSize-float64(counts[1])) < maxVariance &&
		math.Abs(3*moduleSize-float64(counts[2])) < 3*maxVariance &&
		math.Abs(moduleSize-float64(counts[3])) < maxVariance &&
		math.Abs(moduleSize-float64(counts[4])) < maxVariance
}

// foundPatternCross allows each run half a module of error.
func foundPatternCross(counts [5]int) bool { return patternRatio(counts, 2) }

// foundPatternDiagonal is the looser test used along the diagonal.
func foundPatternDiagonal(counts [5]int) bool { return patternRatio(counts, 1.333) }

// handlePossibleCenter confirms a horizontal sighting ending at column
// endX by cross-checking vertically, horizontally and diagonally, then
// records it.
func (f *FinderPatternFinder) handlePossibleCenter(counts [5]int, y, endX int) bool {
	total := counts[0] + counts[1] + counts[2] + counts[3] + counts[4]
	startX := int(centerFromEnd(counts, endX))

	centerY := f.crossCheckVertical(y, startX, counts[2], total, foundPatternCross)
	if math.IsNaN(centerY) && f.tryHarder {
		centerY = f.crossCheckVertical(y, startX, counts[2], total, foundPatternDiagonal)
	}
	if math.IsNaN(centerY) {
		return false
	}
	startY := int(centerY)
	centerX := f.crossCheckHorizontal(startX, startY, counts[2], total, foundPatternCross)
	if math.IsNaN(centerX) && f.tryHarder {
		centerX = f.crossCheckHorizontal(startX, startY, counts[2], total, foundPatternDiagonal)
	}
	if math.IsNaN(centerX) || !f.crossCheckDiagonal(int(centerY), int(centerX)) {
		return false
	}

	moduleSize := float64(total) / 7
	for i, c := range f.candidates {
		if c.aboutEquals(moduleSize, centerX, centerY) {
			f.candidates[i] = c.combineEstimate(centerX, centerY, moduleSize)
			return true
		}
	}
	p := &FinderPattern{
		ResultPoint:         matrixscan.ResultPoint{X: centerX, Y: centerY},
		EstimatedModuleSize: moduleSize,
		Count:               1,
	}
	f.candidates = append(f.candidates, p)
	if f.callback != nil {
		f.callback(p.ResultPoint)
	}
	return true
}

// crossCheckVertical counts the five runs through column x around startY
// and returns the vertical centre, or NaN.
func (f *FinderPatternFinder) crossCheckVertical(startY, x, maxCount, originalTotal int, check crossCheck) float64 {
	img := f.image
	maxY := img.Height()
	var counts [5]int

	y := startY
	for y >= 0 && img.Get(x, y) {
		counts[2]++
		y--
	}
	if y < 0 {
		return math.NaN()
	}
	for y >= 0 && !img.Get(x, y) && counts[1] <= maxCount {
		counts[1]++
		y--
	}
	if y < 0 || counts[1] > maxCount {
		return math.NaN()
	}
	for y >= 0 && img.Get(x, y) && counts[0] <= maxCount {
		counts[0]++
		y--
	}
	if counts[0] > maxCount {
		return math.NaN()
	}

	y = startY + 1
	for y < maxY && img.Get(x, y) {
		counts[2]++
		y++
	}
	if y == maxY {
		return math.NaN()
	}
	for y < maxY && !img.Get(x, y) && counts[3] < maxCount {
		counts[3]++
		y++
	}
	if y == maxY || counts[3] >= maxCount {
		return math.NaN()
	}
	for y < maxY && img.Get(x, y) && counts[4] < maxCount {
		counts[4]++
		y++
	}
	if counts[4] >= maxCount {
		return math.NaN()
	}

	// a vertical total far from the horizontal one means this is not a
	// square pattern
	total := counts[0] + counts[1] + counts[2] + counts[3] + counts[4]
	if 5*abs(total-originalTotal) >= 2*originalTotal {
		return math.NaN()
	}
	if !check(counts) {
		return math.NaN()
	}
	return centerFromEnd(counts, y)
}

// crossCheckHorizontal is crossCheckVertical along row y, with a tighter
// total check.
func (f *FinderPatternFinder) crossCheckHorizontal(startX, y, maxCount, originalTotal int, check crossCheck) float64 {
	img := f.image
	maxX := img.Width()
	var counts [5]int

	x := startX
	for x >= 0 && img.Get(x, y) {
		counts[2]++
		x--
	}
	if x < 0 {
		return math.NaN()
	}
	for x >= 0 && !img.Get(x, y) && counts[1] <= maxCount {
		counts[1]++
		x--
	}
	if x < 0 || counts[1] > maxCount {
		return math.NaN()
	}
	for x >= 0 && img.Get(x, y) && counts[0] <= maxCount {
		counts[0]++
		x--
	}
	if counts[0] > maxCount {
		return math.NaN()
	}

	x = startX + 1
	for x < maxX && img.Get(x, y) {
		counts[2]++
		x++
	}
	if x == maxX {
		return math.NaN()
	}
	for x < maxX && !img.Get(x, y) && counts[3] < maxCount {
		counts[3]++
		x++
	}
	if x == maxX || counts[3] >= maxCount {
		return math.NaN()
	}
	for x < maxX && img.Get(x, y) && counts[4] < maxCount {
		counts[4]++
		x++
	}
	if counts[4] >= maxCount {
		return math.NaN()
	}

	total := counts[0] + counts[1] + counts[2] + counts[3] + counts[4]
	if 5*abs(total-originalTotal) >= originalTotal {
		return math.NaN()
	}
	if !check(counts) {
		return math.NaN()
	}
	return centerFromEnd(counts, x)
}

// crossCheckDiagonal walks the top-left to bottom-right diagonal through
// the centre.
func (f *FinderPatternFinder) crossCheckDiagonal(centerY, centerX int) bool {
	img := f.image
	var counts [5]int

	i := 0
	for centerY >= i && centerX >= i && img.Get(centerX-i, centerY-i) {
		counts[2]++
		i++
	}
	if counts[2] == 0 {
		return false
	}
	for centerY >= i && centerX >= i && !img.Get(centerX-i, centerY-i) {
		counts[1]++
		i++
	}
	if counts[1] == 0 {
		return false
	}
	for centerY >= i && centerX >= i && img.Get(centerX-i, centerY-i) {
		counts[0]++
		i++
	}
	if counts[0] == 0 {
		return false
	}

	maxY, maxX := img.Height(), img.Width()
	i = 1
	for centerY+i < maxY && centerX+i < maxX && img.Get(centerX+i, centerY+i) {
		counts[2]++
		i++
	}
	for centerY+i < maxY && centerX+i < maxX && !img.Get(centerX+i, centerY+i) {
		counts[3]++
		i++
	}
	if counts[3] == 0 {
		return false
	}
	for centerY+i < maxY && centerX+i < maxX && img.Get(centerX+i, centerY+i) {
		counts[4]++
		i++
	}
	if counts[4] == 0 {
		return false
	}
	return foundPatternDiagonal(counts)
}

// findRowSkip guesses how many rows can be skipped once two patterns are
// confirmed: the third one is at least about as far down as the two are
// apart.
func (f *FinderPatternFinder) findRowSkip() int {
	if len(f.candidates) <= 1 {
		return 0
	}
	var first *FinderPattern
	for _, c := range f.candidates {
		if c.Count < centerQuorum {
			continue
		}
		if first == nil {
			first = c
			continue
		}
		f.hasSkipped = true
		return int(math.Abs(first.X-c.X)-math.Abs(first.Y-c.Y)) / 2
	}
	return 0
}

// haveMultiplyConfirmedCenters reports whether at least three candidates
// are confirmed and their module sizes agree to within 5% in total.
func (f *FinderPatternFinder) haveMultiplyConfirmedCenters() bool {
	confirmed := 0
	total := 0.0
	for _, c := range f.candidates {
		if c.Count >= centerQuorum {
			confirmed++
			total += c.EstimatedModuleSize
		}
	}
	if confirmed < 3 {
		return false
	}
	average := total / float64(len(f.candidates))
	deviation := 0.0
	for _, c := range f.candidates {
		deviation += math.Abs(c.EstimatedModuleSize - average)
	}
	return deviation <= 0.05*total
}

// selectBestPatterns picks the triple of similar module size that is
// closest to an isosceles right triangle.
func (f *FinderPatternFinder) selectBestPatterns() ([3]*FinderPattern, error) {
	var best [3]*FinderPattern
	n := len(f.candidates)
	if n < 3 {
		return best, fmt.Errorf("%w: %d finder pattern candidates", matrixscan.ErrNotFound, n)
	}
	candidates := slices.Clone(f.candidates)
	slices.SortStableFunc(candidates, func(a, b *FinderPattern) int {
		switch {
		case a.EstimatedModuleSize < b.EstimatedModuleSize:
			return -1
		case a.EstimatedModuleSize > b.EstimatedModuleSize:
			return 1
		}
		return 0
	})

	distortion := math.MaxFloat64
	for i := 0; i < n-2; i++ {
		fi := candidates[i]
		for j := i + 1; j < n-1; j++ {
			fj := candidates[j]
			ij := squaredDistance(fi, fj)
			for k := j + 1; k < n; k++ {
				fk := candidates[k]
				if fk.EstimatedModuleSize > fi.EstimatedModuleSize*1.4 {
					continue
				}
				sides := []float64{ij, squaredDistance(fj, fk), squaredDistance(fi, fk)}
				slices.Sort(sides)
				a, b, c := sides[0], sides[1], sides[2]
				// a = b and a + b = c for a right isosceles triangle
				if d := math.Abs(c-2*b) + math.Abs(c-2*a); d < distortion {
					distortion = d
					best = [3]*FinderPattern{fi, fj, fk}
				}
			}
		}
	}
	if distortion == math.MaxFloat64 {
		return best, fmt.Errorf("%w: no finder triple of consistent size", matrixscan.ErrNotFound)
	}
	return best, nil
}

func squaredDistance(a, b *FinderPattern) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
