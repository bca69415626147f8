package engine

import (
	"github.com/mlaurent/colbase/internal/bufferpool"
	"github.com/mlaurent/colbase/internal/page"
)

// scheduleMerge enqueues rangeIdx for background merge unless it is
// already scheduled.
func (t *Table) scheduleMerge(rangeIdx int) {
	t.mergeMu.Lock()
	defer t.mergeMu.Unlock()
	if t.mergeScheduled[rangeIdx] {
		return
	}
	t.mergeScheduled[rangeIdx] = true
	t.mergeCh <- rangeIdx
}

// mergeWorkerLoop is the single background goroutine per table. It drains
// mergeCh until closed, merging one page range per job and clearing its
// scheduled flag whether or not the merge succeeded.
func (t *Table) mergeWorkerLoop() {
	defer t.mergeWG.Done()
	for rangeIdx := range t.mergeCh {
		t.mergePageRange(rangeIdx)
		t.mergeMu.Lock()
		delete(t.mergeScheduled, rangeIdx)
		t.mergeMu.Unlock()
	}
	close(t.mergeDone)
}

type consKey struct {
	col     int
	pageIdx int
}

// mergePageRange folds the latest committed tail updates for rangeIdx into
// a fresh generation of base pages, without pruning the tail chain and
// without reassigning directory slot coordinates. It first flushes the
// shared buffer pool, then reads and writes base and tail pages directly on
// disk; the one exception is the indirection column, whose live pooled page
// is copied into the new generation.
func (t *Table) mergePageRange(rangeIdx int) {
	t.mu.Lock()
	if rangeIdx < 0 || rangeIdx >= len(t.ranges) {
		t.mu.Unlock()
		return
	}
	pr := t.ranges[rangeIdx]
	totalCols := t.totalColumns()
	numColumns := t.numColumns

	basePageCount := 0
	if len(pr.basePages[0]) > 0 {
		basePageCount = len(pr.basePages[0])
	}
	if basePageCount == 0 {
		t.mu.Unlock()
		return
	}

	oldBaseIDs := make([][]int, totalCols)
	for col := 0; col < totalCols; col++ {
		oldBaseIDs[col] = append([]int(nil), pr.basePages[col][:basePageCount]...)
	}
	tailRIDPageIDs := append([]int(nil), pr.tailPages[colRID]...)
	tailBaseRIDPageIDs := append([]int(nil), pr.tailPages[colBaseRID]...)
	tailSchemaPageIDs := append([]int(nil), pr.tailPages[colSchema]...)
	tailUserPageIDs := make([][]int, numColumns)
	for c := 0; c < numColumns; c++ {
		tailUserPageIDs[c] = append([]int(nil), pr.tailPages[numMetaColumns+c]...)
	}

	// The direct reads below bypass the buffer pool and go straight to disk,
	// but a page that was written through MarkDirty is only materialized to
	// disk on eviction or an explicit flush. Flush while still holding t.mu
	// so every page touched by any Insert/Update that happened-before this
	// merge is on disk before it is read directly; otherwise a hot page
	// (the indirection column above all, since every Update rewrites it and
	// keeps it MRU) can be read back empty or stale.
	if err := t.pool.FlushAll(); err != nil {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	newBaseIDs := make([][]int, totalCols)
	consPages := make(map[consKey]*page.Page)

	for col := 0; col < totalCols; col++ {
		newBaseIDs[col] = make([]int, basePageCount)
		for pageIdx := 0; pageIdx < basePageCount; pageIdx++ {
			oldID := oldBaseIDs[col][pageIdx]
			oldPath := t.basePath(rangeIdx, col, oldID)
			draft, err := bufferpool.ReadPageDirect(oldPath)
			if err != nil {
				return
			}
			newBaseIDs[col][pageIdx] = len(oldBaseIDs[col]) + pageIdx
			consPages[consKey{col, pageIdx}] = draft
		}
	}

	type baseInfo struct {
		pageIdx int
		offset  int
	}
	baseLookup := make(map[int64]baseInfo)
	for pageIdx, ridPageID := range oldBaseIDs[colRID] {
		ridPath := t.basePath(rangeIdx, colRID, ridPageID)
		ridPage, err := bufferpool.ReadPageDirect(ridPath)
		if err != nil {
			return
		}
		for offset := 0; offset < ridPage.Count(); offset++ {
			rid := ridPage.Read(offset)
			if rid == 0 {
				continue
			}
			baseLookup[rid] = baseInfo{pageIdx: pageIdx, offset: offset}
		}
	}

	seen := make(map[int64]bool)

outer:
	for tailPageIdx := len(tailRIDPageIDs) - 1; tailPageIdx >= 0; tailPageIdx-- {
		ridPage, err := bufferpool.ReadPageDirect(t.tailPath(rangeIdx, colRID, tailRIDPageIDs[tailPageIdx]))
		if err != nil {
			return
		}
		baseRidPage, err := bufferpool.ReadPageDirect(t.tailPath(rangeIdx, colBaseRID, tailBaseRIDPageIDs[tailPageIdx]))
		if err != nil {
			return
		}

		for tailOffset := ridPage.Count() - 1; tailOffset >= 0; tailOffset-- {
			if tailOffset >= baseRidPage.Count() {
				continue
			}
			baseRid := baseRidPage.Read(tailOffset)
			info, ok := baseLookup[baseRid]
			if !ok {
				continue
			}

			schemaPage, err := bufferpool.ReadPageDirect(t.tailPath(rangeIdx, colSchema, tailSchemaPageIDs[tailPageIdx]))
			if err != nil {
				return
			}
			schema := schemaPage.Read(tailOffset)

			for userCol := 0; userCol < numColumns; userCol++ {
				if (schema>>uint(userCol))&1 == 0 {
					continue
				}
				tailColPage, err := bufferpool.ReadPageDirect(t.tailPath(rangeIdx, numMetaColumns+userCol, tailUserPageIDs[userCol][tailPageIdx]))
				if err != nil {
					return
				}
				if tailOffset >= tailColPage.Count() {
					continue
				}
				newVal := tailColPage.Read(tailOffset)
				consPages[consKey{numMetaColumns + userCol, info.pageIdx}].Update(info.offset, newVal)
			}

			// Marks base_rid fully processed as soon as its newest tail row
			// has been considered, regardless of which columns that row's
			// schema bitmap actually touched. An earlier tail row updating a
			// column the newest row left alone will not be propagated here,
			// even though a live read would still surface it via the tail
			// chain walk. Preserved intentionally; see DESIGN.md.
			seen[baseRid] = true
			if len(seen) == len(baseLookup) {
				break outer
			}
		}
	}

	for i := 0; i < totalCols; i++ {
		// Visit columns 1..totalCols-1 first and the indirection column
		// (index 0) last.
		col := (colIndirection + 1 + i) % totalCols
		for pageIdx := 0; pageIdx < basePageCount; pageIdx++ {
			newPath := t.basePath(rangeIdx, col, newBaseIDs[col][pageIdx])
			if col == colIndirection {
				// Copied last, and from the live pooled page rather than the
				// draft or a direct disk read: a concurrent Update between
				// the snapshot above and this publish step only ever touches
				// the indirection column in place (table.go's
				// baseIndirPage.Update), so the pool's resident copy is the
				// one instance guaranteed to reflect it.
				oldPath := t.basePath(rangeIdx, col, oldBaseIDs[col][pageIdx])
				latestIndir, err := t.pool.GetPage(oldPath)
				if err != nil {
					return
				}
				err = bufferpool.WritePageDirect(newPath, latestIndir)
				t.pool.Unpin(oldPath)
				if err != nil {
					return
				}
				continue
			}
			if err := bufferpool.WritePageDirect(newPath, consPages[consKey{col, pageIdx}]); err != nil {
				return
			}
		}
	}

	t.mu.Lock()
	if rangeIdx < len(t.ranges) && t.ranges[rangeIdx] == pr {
		for col := 0; col < totalCols; col++ {
			for pageIdx := 0; pageIdx < basePageCount; pageIdx++ {
				pr.basePages[col][pageIdx] = newBaseIDs[col][pageIdx]
			}
		}
	}
	t.mu.Unlock()

	if t.gc == nil {
		return
	}
	for col := 0; col < totalCols; col++ {
		for pageIdx := 0; pageIdx < basePageCount; pageIdx++ {
			path := t.basePath(rangeIdx, col, oldBaseIDs[col][pageIdx])
			_ = t.gc.Append(path)
		}
	}
}
