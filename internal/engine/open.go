package engine

import (
	"fmt"
	"os"

	"github.com/mlaurent/colbase/internal/bufferpool"
	"github.com/mlaurent/colbase/internal/enginerr"
)

// CreateTable creates a brand-new table directory under root and returns a
// Table ready to accept inserts. It fails if a table by this name already
// exists on disk.
func CreateTable(root, name string, numColumns, key int, pool *bufferpool.Pool, cfg Config) (*Table, error) {
	if key < 0 || key >= numColumns {
		return nil, enginerr.ErrColumnRange
	}
	dir := tableDir(root, name)
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("engine: table %q already exists", name)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("engine: create table dir: %w", err)
	}

	lock, err := lockTableDir(dir)
	if err != nil {
		return nil, err
	}

	gc, err := openGCLog(gcLogPath(root, name))
	if err != nil {
		lock.unlock()
		return nil, err
	}

	t := newTable(root, name, numColumns, key, pool, cfg)
	t.lock = lock
	t.gc = gc
	if err := t.flushLocked(); err != nil {
		gc.Close()
		lock.unlock()
		return nil, err
	}
	t.startMergeWorker()
	return t, nil
}

// Open loads an existing table from disk for read-write access.
func Open(root, name string, pool *bufferpool.Pool, cfg Config) (*Table, error) {
	return open(root, name, pool, cfg, false)
}

// OpenReadOnly loads an existing table for read-only access: every
// mutating operation returns ErrReadOnly, and no merge worker is started
// since there is nothing for it to consolidate.
func OpenReadOnly(root, name string, pool *bufferpool.Pool, cfg Config) (*Table, error) {
	return open(root, name, pool, cfg, true)
}

func open(root, name string, pool *bufferpool.Pool, cfg Config, readOnly bool) (*Table, error) {
	dir := tableDir(root, name)
	lock, err := lockTableDir(dir)
	if err != nil {
		return nil, err
	}

	meta, err := loadMeta(root, name)
	if err != nil {
		lock.unlock()
		return nil, err
	}

	var gc *gcLog
	if !readOnly {
		gc, err = openGCLog(gcLogPath(root, name))
		if err != nil {
			lock.unlock()
			return nil, err
		}
	}

	t := newTable(root, name, meta.NumColumns, meta.Key, pool, cfg)
	t.lock = lock
	t.gc = gc
	t.readOnly = readOnly
	t.ridCounter = meta.RIDCounter

	t.ranges = make([]*pageRange, meta.NumPageRanges)
	for i := 0; i < meta.NumPageRanges; i++ {
		pr := newPageRange(t.totalColumns())
		pr.basePages = meta.BasePages[i]
		pr.tailPages = meta.TailPages[i]
		t.ranges[i] = pr
	}

	if err := t.rebuildFromPages(); err != nil {
		lock.unlock()
		return nil, err
	}

	if !readOnly {
		t.startMergeWorker()
	}
	return t, nil
}

// Close stops the background merge worker (draining any job already in
// flight), best-effort sweeps the deallocation log, flushes metadata and
// every dirty page, and releases the table-directory lock.
func (t *Table) Close() error {
	if !t.readOnly {
		close(t.mergeCh)
		t.mergeWG.Wait()
	}

	var flushErr error
	if t.gc != nil {
		if paths, err := t.gc.Drain(); err == nil {
			for _, p := range paths {
				_ = os.Remove(p)
			}
		} else if flushErr == nil {
			flushErr = err
		}
		if err := t.gc.Close(); err != nil && flushErr == nil {
			flushErr = err
		}
	}

	if !t.readOnly {
		if err := t.Flush(); err != nil && flushErr == nil {
			flushErr = err
		}
	}
	if err := t.pool.FlushAll(); err != nil && flushErr == nil {
		flushErr = err
	}

	if t.lock != nil {
		if err := t.lock.unlock(); err != nil && flushErr == nil {
			flushErr = err
		}
	}
	return flushErr
}
