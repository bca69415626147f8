// Package colindex provides a value-to-RID lookup structure over a table's
// columns. The key column is indexed from the start; other columns can be
// indexed on demand. Despite the name, this is a flat hash bucket per
// column with a linear scan for range queries, not a tree: exact-match
// lookups are O(1), range lookups are O(distinct values in the column).
package colindex

import "sync"

// RID is the opaque record identifier values are indexed under.
type RID int64

// Index tracks, for one column, which RIDs currently hold each value.
type Index struct {
	mu      sync.RWMutex
	buckets map[int64][]RID
}

func newIndex() *Index {
	return &Index{buckets: make(map[int64][]RID)}
}

// Locate returns the RIDs of every record whose value in this column equals
// value. The returned slice is a copy; callers may not mutate the index by
// mutating it.
func (idx *Index) Locate(value int64) []RID {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	bucket := idx.buckets[value]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]RID, len(bucket))
	copy(out, bucket)
	return out
}

// LocateRange returns the RIDs of every record whose value in this column
// falls within [begin, end], inclusive. This scans every distinct value
// currently indexed; it is not a tree-ordered range query.
func (idx *Index) LocateRange(begin, end int64) []RID {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []RID
	for value, rids := range idx.buckets {
		if value >= begin && value <= end {
			out = append(out, rids...)
		}
	}
	return out
}

// Add records that rid now holds value in this column. Adding the same
// (value, rid) pair twice is a no-op.
func (idx *Index) Add(value int64, rid RID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	bucket := idx.buckets[value]
	for _, existing := range bucket {
		if existing == rid {
			return
		}
	}
	idx.buckets[value] = append(bucket, rid)
}

// Remove records that rid no longer holds value in this column. Removing an
// absent pair is a no-op. The bucket is deleted once it holds no RIDs, so
// Entries does not accumulate empty buckets.
func (idx *Index) Remove(value int64, rid RID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	bucket := idx.buckets[value]
	for i, existing := range bucket {
		if existing == rid {
			bucket = append(bucket[:i], bucket[i+1:]...)
			if len(bucket) == 0 {
				delete(idx.buckets, value)
			} else {
				idx.buckets[value] = bucket
			}
			return
		}
	}
}

// Entries returns a snapshot of every value-to-RIDs bucket currently held,
// for debugging and tests.
func (idx *Index) Entries() map[int64][]RID {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[int64][]RID, len(idx.buckets))
	for value, rids := range idx.buckets {
		cp := make([]RID, len(rids))
		copy(cp, rids)
		out[value] = cp
	}
	return out
}
