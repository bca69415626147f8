package engine

// maxBasePages bounds how many base pages a single page range holds per
// column; once full, inserts spill into a fresh range.
const maxBasePages = 16

// mergeThresholdPages is the tail-page count at which a page range is
// scheduled for merge.
const mergeThresholdPages = 10

// pageRange groups the base and tail page-id lists for all K+5 columns of
// one page range. All columns step in lockstep: base_pages[c] and
// tail_pages[c] have the same length for every c.
type pageRange struct {
	numCols   int
	basePages [][]int // basePages[col] = ordered list of base page ids
	tailPages [][]int // tailPages[col] = ordered list of tail page ids
}

// newPageRange builds an empty page range. Base-page lists start empty;
// each column's tail-page list starts pre-seeded with id 0, so the first
// tail write never needs a special "no tail page yet" branch.
func newPageRange(numCols int) *pageRange {
	pr := &pageRange{
		numCols:   numCols,
		basePages: make([][]int, numCols),
		tailPages: make([][]int, numCols),
	}
	for col := 0; col < numCols; col++ {
		pr.tailPages[col] = []int{0}
	}
	return pr
}

// baseHasCapacity reports whether another base page can be allocated.
func (pr *pageRange) baseHasCapacity() bool {
	return len(pr.basePages[0]) < maxBasePages
}

// addBasePage extends every column's base-page list with a fresh id equal
// to the new length-1 (so ids within a column are dense and zero-based).
func (pr *pageRange) addBasePage() {
	for col := 0; col < pr.numCols; col++ {
		newID := len(pr.basePages[col])
		pr.basePages[col] = append(pr.basePages[col], newID)
	}
}

// addTailPage extends every column's tail-page list with a fresh id.
func (pr *pageRange) addTailPage() {
	for col := 0; col < pr.numCols; col++ {
		newID := len(pr.tailPages[col])
		pr.tailPages[col] = append(pr.tailPages[col], newID)
	}
}
