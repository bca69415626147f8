// Package engine implements the column-oriented table storage engine: page
// ranges of base and tail columnar pages, record directories, versioned
// reads, in-place-free updates, deletes, and the background merge that
// folds tail deltas back into base pages.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/mlaurent/colbase/internal/bufferpool"
	"github.com/mlaurent/colbase/internal/colindex"
	"github.com/mlaurent/colbase/internal/enginerr"
	"github.com/mlaurent/colbase/internal/page"
)

// Table is one fixed-schema column store: numColumns user columns plus the
// five metadata columns, laid out across page ranges of base and tail
// pages. The foreground API (Insert/Read/ReadVersion/Update/Delete) is not
// safe for concurrent callers beyond the background merge worker, matching
// the single-writer model in the engine's design.
type Table struct {
	mu sync.Mutex

	Name       string
	numColumns int
	key        int
	root       string
	cfg        Config
	readOnly   bool

	pool *bufferpool.Pool
	lock *tableLock
	gc   *gcLog

	ridCounter int64
	ranges     []*pageRange
	baseDir    *directory
	tailDir    *directory
	index      *colindex.Manager

	mergeMu        sync.Mutex
	mergeScheduled map[int]bool
	mergeCh        chan int
	mergeDone      chan struct{}
	mergeWG        sync.WaitGroup
}

// totalColumns returns numColumns user columns plus the five metadata
// columns every base/tail row carries.
func (t *Table) totalColumns() int {
	return t.numColumns + numMetaColumns
}

// newTable constructs a Table in memory, not yet bound to disk. callers use
// CreateTable/Open, which additionally wire up persistence and the merge
// worker.
func newTable(root, name string, numColumns, key int, pool *bufferpool.Pool, cfg Config) *Table {
	t := &Table{
		Name:           name,
		numColumns:     numColumns,
		key:            key,
		root:           root,
		cfg:            cfg.withDefaults(),
		pool:           pool,
		ridCounter:     1, // rid 0 marks a tombstoned or empty slot
		baseDir:        newDirectory(),
		tailDir:        newDirectory(),
		index:          colindex.NewManager(numColumns, key),
		mergeScheduled: make(map[int]bool),
		mergeCh:        make(chan int, 64),
		mergeDone:      make(chan struct{}),
	}
	return t
}

// startMergeWorker launches the single background goroutine that drains
// mergeCh. Close stops it by closing mergeCh and waiting for drain.
func (t *Table) startMergeWorker() {
	t.mergeWG.Add(1)
	go t.mergeWorkerLoop()
}

func (t *Table) basePath(rangeIdx, col, pageID int) string {
	return pagePath(t.root, t.Name, "base", rangeIdx, col, pageID)
}

func (t *Table) tailPath(rangeIdx, col, pageID int) string {
	return pagePath(t.root, t.Name, "tail", rangeIdx, col, pageID)
}

// Insert appends a new base record and returns its rid. record must have
// exactly numColumns values.
func (t *Table) Insert(record []int64) (int64, error) {
	if len(record) != t.numColumns {
		return 0, enginerr.ErrColumnCount
	}
	if t.readOnly {
		return 0, enginerr.ErrReadOnly
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rid := t.ridCounter
	t.ridCounter++

	row := make([]int64, t.totalColumns())
	row[colIndirection] = 0
	row[colRID] = rid
	row[colTimestamp] = time.Now().Unix()
	row[colSchema] = 0
	row[colBaseRID] = rid
	copy(row[numMetaColumns:], record)

	if len(t.ranges) == 0 || !t.ranges[len(t.ranges)-1].baseHasCapacity() {
		t.ranges = append(t.ranges, newPageRange(t.totalColumns()))
	}
	rangeIdx := len(t.ranges) - 1
	pr := t.ranges[rangeIdx]

	if len(pr.basePages[0]) == 0 {
		pr.addBasePage()
	}

	pageID0 := pr.basePages[0][len(pr.basePages[0])-1]
	path0 := t.basePath(rangeIdx, 0, pageID0)
	page0, err := t.pool.GetPage(path0)
	if err != nil {
		return 0, err
	}
	if !page0.HasCapacity() {
		t.pool.Unpin(path0)
		pr.addBasePage()
		pageID0 = pr.basePages[0][len(pr.basePages[0])-1]
		path0 = t.basePath(rangeIdx, 0, pageID0)
		page0, err = t.pool.GetPage(path0)
		if err != nil {
			return 0, err
		}
	}
	t.pool.Unpin(path0)

	offset := -1
	for col, val := range row {
		pageID := pr.basePages[col][len(pr.basePages[col])-1]
		path := t.basePath(rangeIdx, col, pageID)
		pg, err := t.pool.GetPage(path)
		if err != nil {
			return 0, err
		}
		if !pg.Write(val) {
			t.pool.Unpin(path)
			return 0, fmt.Errorf("engine: insert into %s: %w", path, enginerr.ErrPageFull)
		}
		t.pool.MarkDirty(path)
		if col == 0 {
			offset = pg.Count() - 1
		}
		t.pool.Unpin(path)
	}

	pageIdx := len(pr.basePages[0]) - 1
	t.baseDir.set(rid, location{rangeIdx: rangeIdx, pageIdx: pageIdx, slot: offset})

	for col := 0; col < t.numColumns; col++ {
		if t.index.IsIndexed(col) {
			t.index.Add(col, record[col], colindex.RID(rid))
		}
	}

	return rid, nil
}

// Read returns the latest value of user column col for rid. Equivalent to
// ReadVersion(rid, col, 0).
func (t *Table) Read(rid int64, col int) (int64, error) {
	return t.ReadVersion(rid, col, 0)
}

// ReadVersion returns the value of user column col for rid at relative
// version rv. rv == 0 means "latest", walking the tail chain; any non-zero
// rv returns the base value as inserted, since the tail walk only runs for
// rv == 0 (this engine does not implement deeper version traversal).
func (t *Table) ReadVersion(rid int64, col int, rv int) (int64, error) {
	if col < 0 || col >= t.numColumns {
		return 0, enginerr.ErrColumnRange
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	loc, ok := t.baseDir.get(rid)
	if !ok {
		return 0, enginerr.ErrNotFound
	}
	pr := t.ranges[loc.rangeIdx]

	baseIndirID := pr.basePages[colIndirection][loc.pageIdx]
	baseIndirPath := t.basePath(loc.rangeIdx, colIndirection, baseIndirID)
	baseIndirPage, err := t.pool.GetPage(baseIndirPath)
	if err != nil {
		return 0, err
	}
	tailRID := baseIndirPage.Read(loc.slot)
	t.pool.Unpin(baseIndirPath)

	if rv == 0 && tailRID != 0 {
		for tailRID != 0 {
			tloc, ok := t.tailDir.get(tailRID)
			if !ok {
				break
			}
			tpr := t.ranges[tloc.rangeIdx]

			schemaPageID := tpr.tailPages[colSchema][tloc.pageIdx]
			schemaPath := t.tailPath(tloc.rangeIdx, colSchema, schemaPageID)
			schemaPage, err := t.pool.GetPage(schemaPath)
			if err != nil {
				return 0, err
			}
			schema := schemaPage.Read(tloc.slot)

			if (schema>>uint(col))&1 == 1 {
				dataPageID := tpr.tailPages[numMetaColumns+col][tloc.pageIdx]
				dataPath := t.tailPath(tloc.rangeIdx, numMetaColumns+col, dataPageID)
				dataPage, err := t.pool.GetPage(dataPath)
				if err != nil {
					t.pool.Unpin(schemaPath)
					return 0, err
				}
				val := dataPage.Read(tloc.slot)
				t.pool.Unpin(dataPath)
				t.pool.Unpin(schemaPath)
				return val, nil
			}

			indirPageID := tpr.tailPages[colIndirection][tloc.pageIdx]
			indirPath := t.tailPath(tloc.rangeIdx, colIndirection, indirPageID)
			indirPage, err := t.pool.GetPage(indirPath)
			if err != nil {
				t.pool.Unpin(schemaPath)
				return 0, err
			}
			nextTailRID := indirPage.Read(tloc.slot)
			t.pool.Unpin(indirPath)
			t.pool.Unpin(schemaPath)
			tailRID = nextTailRID
		}
	}

	baseDataID := pr.basePages[numMetaColumns+col][loc.pageIdx]
	baseDataPath := t.basePath(loc.rangeIdx, numMetaColumns+col, baseDataID)
	baseDataPage, err := t.pool.GetPage(baseDataPath)
	if err != nil {
		return 0, err
	}
	val := baseDataPage.Read(loc.slot)
	t.pool.Unpin(baseDataPath)
	return val, nil
}

// readVersionLocked is ReadVersion's body without acquiring t.mu, used by
// Update which already holds the lock while reading the pre-update value
// for index maintenance.
func (t *Table) readVersionLocked(rid int64, col int) (int64, error) {
	loc, ok := t.baseDir.get(rid)
	if !ok {
		return 0, enginerr.ErrNotFound
	}
	pr := t.ranges[loc.rangeIdx]

	baseIndirID := pr.basePages[colIndirection][loc.pageIdx]
	baseIndirPath := t.basePath(loc.rangeIdx, colIndirection, baseIndirID)
	baseIndirPage, err := t.pool.GetPage(baseIndirPath)
	if err != nil {
		return 0, err
	}
	tailRID := baseIndirPage.Read(loc.slot)
	t.pool.Unpin(baseIndirPath)

	for tailRID != 0 {
		tloc, ok := t.tailDir.get(tailRID)
		if !ok {
			break
		}
		tpr := t.ranges[tloc.rangeIdx]

		schemaPageID := tpr.tailPages[colSchema][tloc.pageIdx]
		schemaPath := t.tailPath(tloc.rangeIdx, colSchema, schemaPageID)
		schemaPage, err := t.pool.GetPage(schemaPath)
		if err != nil {
			return 0, err
		}
		schema := schemaPage.Read(tloc.slot)

		if (schema>>uint(col))&1 == 1 {
			dataPageID := tpr.tailPages[numMetaColumns+col][tloc.pageIdx]
			dataPath := t.tailPath(tloc.rangeIdx, numMetaColumns+col, dataPageID)
			dataPage, err := t.pool.GetPage(dataPath)
			if err != nil {
				t.pool.Unpin(schemaPath)
				return 0, err
			}
			val := dataPage.Read(tloc.slot)
			t.pool.Unpin(dataPath)
			t.pool.Unpin(schemaPath)
			return val, nil
		}

		indirPageID := tpr.tailPages[colIndirection][tloc.pageIdx]
		indirPath := t.tailPath(tloc.rangeIdx, colIndirection, indirPageID)
		indirPage, err := t.pool.GetPage(indirPath)
		if err != nil {
			t.pool.Unpin(schemaPath)
			return 0, err
		}
		nextTailRID := indirPage.Read(tloc.slot)
		t.pool.Unpin(indirPath)
		t.pool.Unpin(schemaPath)
		tailRID = nextTailRID
	}

	baseDataID := pr.basePages[numMetaColumns+col][loc.pageIdx]
	baseDataPath := t.basePath(loc.rangeIdx, numMetaColumns+col, baseDataID)
	baseDataPage, err := t.pool.GetPage(baseDataPath)
	if err != nil {
		return 0, err
	}
	val := baseDataPage.Read(loc.slot)
	t.pool.Unpin(baseDataPath)
	return val, nil
}

// Update applies a sparse set of new values to rid: vals[c] == nil leaves
// column c unchanged, any other value overwrites it. vals must have
// exactly numColumns entries; a non-nil value in the key column is
// rejected.
func (t *Table) Update(rid int64, vals []*int64) error {
	if len(vals) != t.numColumns {
		return enginerr.ErrColumnCount
	}
	if t.readOnly {
		return enginerr.ErrReadOnly
	}
	if vals[t.key] != nil {
		return enginerr.ErrKeyUpdate
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	loc, ok := t.baseDir.get(rid)
	if !ok {
		return enginerr.ErrNotFound
	}
	pr := t.ranges[loc.rangeIdx]

	baseIndirID := pr.basePages[colIndirection][loc.pageIdx]
	baseIndirPath := t.basePath(loc.rangeIdx, colIndirection, baseIndirID)
	baseIndirPage, err := t.pool.GetPage(baseIndirPath)
	if err != nil {
		return err
	}
	prevTail := baseIndirPage.Read(loc.slot)

	newTailRID := t.ridCounter
	t.ridCounter++

	tailRow := make([]int64, t.totalColumns())
	tailRow[colIndirection] = prevTail
	tailRow[colRID] = newTailRID
	tailRow[colTimestamp] = time.Now().Unix()
	tailRow[colBaseRID] = rid

	var schema int64
	for c, v := range vals {
		if v != nil {
			schema |= 1 << uint(c)
			tailRow[numMetaColumns+c] = *v
		}
	}
	tailRow[colSchema] = schema

	pageID0 := pr.tailPages[0][len(pr.tailPages[0])-1]
	path0 := t.tailPath(loc.rangeIdx, 0, pageID0)
	page0, err := t.pool.GetPage(path0)
	if err != nil {
		t.pool.Unpin(baseIndirPath)
		return err
	}
	if !page0.HasCapacity() {
		t.pool.Unpin(path0)
		pr.addTailPage()
		pageID0 = pr.tailPages[0][len(pr.tailPages[0])-1]
		path0 = t.tailPath(loc.rangeIdx, 0, pageID0)
		page0, err = t.pool.GetPage(path0)
		if err != nil {
			t.pool.Unpin(baseIndirPath)
			return err
		}
	}
	tailOffset := page0.Count()
	t.pool.Unpin(path0)
	tailPageIdx := len(pr.tailPages[0]) - 1

	for c, v := range vals {
		if v != nil && t.index.IsIndexed(c) {
			oldVal, err := t.readVersionLocked(rid, c)
			if err != nil {
				t.pool.Unpin(baseIndirPath)
				return err
			}
			t.index.Remove(c, oldVal, colindex.RID(rid))
			t.index.Add(c, *v, colindex.RID(rid))
		}
	}

	for colID, val := range tailRow {
		pageID := pr.tailPages[colID][len(pr.tailPages[colID])-1]
		path := t.tailPath(loc.rangeIdx, colID, pageID)
		pg, err := t.pool.GetPage(path)
		if err != nil {
			t.pool.Unpin(baseIndirPath)
			return err
		}
		if !pg.Write(val) {
			t.pool.Unpin(path)
			t.pool.Unpin(baseIndirPath)
			return fmt.Errorf("engine: update tail write to %s: %w", path, enginerr.ErrPageFull)
		}
		t.pool.MarkDirty(path)
		t.pool.Unpin(path)
	}

	baseIndirPage.Update(loc.slot, newTailRID)
	t.pool.MarkDirty(baseIndirPath)
	t.pool.Unpin(baseIndirPath)

	t.tailDir.set(newTailRID, location{rangeIdx: loc.rangeIdx, pageIdx: tailPageIdx, slot: tailOffset})

	if len(pr.tailPages[0]) >= t.cfg.MergeThresholdPages {
		t.scheduleMerge(loc.rangeIdx)
	}

	return nil
}

// Delete tombstones rid: its RID and indirection slots are zeroed and its
// base-directory entry removed. Callers are responsible for removing rid
// from any column index beforehand (it must read current values first).
func (t *Table) Delete(rid int64) error {
	if t.readOnly {
		return enginerr.ErrReadOnly
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	loc, ok := t.baseDir.get(rid)
	if !ok {
		return enginerr.ErrNotFound
	}
	pr := t.ranges[loc.rangeIdx]

	ridPageID := pr.basePages[colRID][loc.pageIdx]
	ridPath := t.basePath(loc.rangeIdx, colRID, ridPageID)
	ridPage, err := t.pool.GetPage(ridPath)
	if err != nil {
		return err
	}
	ridPage.Update(loc.slot, 0)
	t.pool.MarkDirty(ridPath)
	t.pool.Unpin(ridPath)

	indirPageID := pr.basePages[colIndirection][loc.pageIdx]
	indirPath := t.basePath(loc.rangeIdx, colIndirection, indirPageID)
	indirPage, err := t.pool.GetPage(indirPath)
	if err != nil {
		return err
	}
	indirPage.Update(loc.slot, 0)
	t.pool.MarkDirty(indirPath)
	t.pool.Unpin(indirPath)

	t.baseDir.delete(rid)
	return nil
}

// Index exposes the table's column-index manager for locate/locate_range
// and create/drop-index calls from the query façade.
func (t *Table) Index() *colindex.Manager {
	return t.index
}

// AllRIDs implements colindex.Source: every live (non-deleted) rid.
func (t *Table) AllRIDs() []colindex.RID {
	t.mu.Lock()
	defer t.mu.Unlock()
	rids := t.baseDir.rids()
	out := make([]colindex.RID, len(rids))
	for i, r := range rids {
		out[i] = colindex.RID(r)
	}
	return out
}

// ColumnValue implements colindex.Source: the latest value of column for
// rid, used to backfill a newly created index.
func (t *Table) ColumnValue(rid colindex.RID, column int) (int64, error) {
	return t.Read(int64(rid), column)
}

// CreateIndex builds an index over a user column, backfilling from current
// data.
func (t *Table) CreateIndex(column int) error {
	return t.index.CreateIndex(column, t)
}

// DropIndex removes the index over a user column, if any.
func (t *Table) DropIndex(column int) {
	t.index.DropIndex(column)
}
