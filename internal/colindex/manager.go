package colindex

import (
	"fmt"
	"sync"
)

// Source supplies the current value of a column for a record, so CreateIndex
// can backfill an index over data that already exists. The engine's table
// satisfies this by resolving each RID's latest version.
type Source interface {
	AllRIDs() []RID
	ColumnValue(rid RID, column int) (int64, error)
}

// Manager owns one Index per indexed column of a table. The key column is
// indexed unconditionally from construction; other columns are indexed only
// once CreateIndex is called for them, mirroring a table that indexes its
// primary key by default and leaves the rest opt-in.
type Manager struct {
	mu         sync.RWMutex
	numColumns int
	key        int
	indices    []*Index // nil entry means "not indexed"
}

// NewManager builds a Manager for a table with numColumns columns whose key
// column is keyColumn. The key column's index starts out empty; callers
// backfill it themselves with Add (CreateIndex rejects the key column,
// since it is already indexed).
func NewManager(numColumns, keyColumn int) *Manager {
	m := &Manager{
		numColumns: numColumns,
		key:        keyColumn,
		indices:    make([]*Index, numColumns),
	}
	m.indices[keyColumn] = newIndex()
	return m
}

func (m *Manager) validColumn(column int) bool {
	return column >= 0 && column < m.numColumns
}

// Locate returns the RIDs whose value in column equals value. Returns nil
// if column is out of range or not indexed.
func (m *Manager) Locate(column int, value int64) []RID {
	m.mu.RLock()
	idx := m.indexFor(column)
	m.mu.RUnlock()
	if idx == nil {
		return nil
	}
	return idx.Locate(value)
}

// LocateRange returns the RIDs whose value in column falls within
// [begin, end]. Returns nil if column is out of range or not indexed.
func (m *Manager) LocateRange(column int, begin, end int64) []RID {
	m.mu.RLock()
	idx := m.indexFor(column)
	m.mu.RUnlock()
	if idx == nil {
		return nil
	}
	return idx.LocateRange(begin, end)
}

func (m *Manager) indexFor(column int) *Index {
	if !m.validColumn(column) {
		return nil
	}
	return m.indices[column]
}

// Add records that rid now holds value in column. A no-op if column is not
// indexed.
func (m *Manager) Add(column int, value int64, rid RID) {
	m.mu.RLock()
	idx := m.indexFor(column)
	m.mu.RUnlock()
	if idx != nil {
		idx.Add(value, rid)
	}
}

// Remove records that rid no longer holds value in column. A no-op if
// column is not indexed.
func (m *Manager) Remove(column int, value int64, rid RID) {
	m.mu.RLock()
	idx := m.indexFor(column)
	m.mu.RUnlock()
	if idx != nil {
		idx.Remove(value, rid)
	}
}

// CreateIndex builds a fresh index over column, backfilling it from src's
// current state. Returns an error if column is out of range or already
// indexed.
func (m *Manager) CreateIndex(column int, src Source) error {
	if !m.validColumn(column) {
		return fmt.Errorf("colindex: column %d out of range", column)
	}

	m.mu.Lock()
	if m.indices[column] != nil {
		m.mu.Unlock()
		return fmt.Errorf("colindex: column %d already indexed", column)
	}
	idx := newIndex()
	m.indices[column] = idx
	m.mu.Unlock()

	for _, rid := range src.AllRIDs() {
		value, err := src.ColumnValue(rid, column)
		if err != nil {
			continue
		}
		idx.Add(value, rid)
	}
	return nil
}

// DropIndex removes the index on column, if any. Dropping the key column's
// index is allowed; it simply stops future lookups on it from resolving.
func (m *Manager) DropIndex(column int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.validColumn(column) {
		m.indices[column] = nil
	}
}

// IsIndexed reports whether column currently has an index.
func (m *Manager) IsIndexed(column int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.indexFor(column) != nil
}

// Entries returns a snapshot of column's index buckets, for debugging and
// tests. Returns nil if column is not indexed.
func (m *Manager) Entries(column int) map[int64][]RID {
	m.mu.RLock()
	idx := m.indexFor(column)
	m.mu.RUnlock()
	if idx == nil {
		return nil
	}
	return idx.Entries()
}
