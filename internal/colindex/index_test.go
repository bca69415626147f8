package colindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexAddLocate(t *testing.T) {
	idx := newIndex()
	idx.Add(10, RID(1))
	idx.Add(10, RID(2))
	idx.Add(20, RID(3))

	assert.ElementsMatch(t, []RID{1, 2}, idx.Locate(10))
	assert.ElementsMatch(t, []RID{3}, idx.Locate(20))
	assert.Nil(t, idx.Locate(30))
}

func TestIndexAddIsIdempotent(t *testing.T) {
	idx := newIndex()
	idx.Add(5, RID(1))
	idx.Add(5, RID(1))
	assert.Equal(t, []RID{1}, idx.Locate(5))
}

func TestIndexRemove(t *testing.T) {
	idx := newIndex()
	idx.Add(5, RID(1))
	idx.Add(5, RID(2))
	idx.Remove(5, RID(1))
	assert.Equal(t, []RID{2}, idx.Locate(5))

	idx.Remove(5, RID(2))
	assert.Nil(t, idx.Locate(5))
	_, ok := idx.Entries()[5]
	assert.False(t, ok)
}

func TestIndexRemoveAbsentIsNoOp(t *testing.T) {
	idx := newIndex()
	idx.Remove(5, RID(1))
	assert.Nil(t, idx.Locate(5))
}

func TestIndexLocateRange(t *testing.T) {
	idx := newIndex()
	idx.Add(1, RID(1))
	idx.Add(5, RID(2))
	idx.Add(10, RID(3))
	idx.Add(15, RID(4))

	got := idx.LocateRange(5, 10)
	assert.ElementsMatch(t, []RID{2, 3}, got)
}

func TestIndexEntriesIsSnapshot(t *testing.T) {
	idx := newIndex()
	idx.Add(1, RID(1))
	snap := idx.Entries()
	idx.Add(1, RID(2))
	assert.Len(t, snap[1], 1)
	assert.Len(t, idx.Locate(1), 2)
}
