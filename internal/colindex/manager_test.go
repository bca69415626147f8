package colindex

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	rids   []RID
	values map[RID]int64
}

func (f *fakeSource) AllRIDs() []RID { return f.rids }

func (f *fakeSource) ColumnValue(rid RID, column int) (int64, error) {
	v, ok := f.values[rid]
	if !ok {
		return 0, fmt.Errorf("no value for rid %d", rid)
	}
	return v, nil
}

func TestManagerKeyColumnIndexedByDefault(t *testing.T) {
	m := NewManager(3, 0)
	assert.True(t, m.IsIndexed(0))
	assert.False(t, m.IsIndexed(1))
}

func TestManagerAddLocateOnIndexedColumn(t *testing.T) {
	m := NewManager(3, 0)
	m.Add(0, 100, RID(1))
	assert.Equal(t, []RID{1}, m.Locate(0, 100))
}

func TestManagerAddOnUnindexedColumnIsNoOp(t *testing.T) {
	m := NewManager(3, 0)
	m.Add(1, 100, RID(1))
	assert.Nil(t, m.Locate(1, 100))
}

func TestManagerCreateIndexBackfills(t *testing.T) {
	m := NewManager(3, 0)
	src := &fakeSource{
		rids:   []RID{1, 2, 3},
		values: map[RID]int64{1: 50, 2: 50, 3: 60},
	}

	require.NoError(t, m.CreateIndex(1, src))
	assert.True(t, m.IsIndexed(1))
	assert.ElementsMatch(t, []RID{1, 2}, m.Locate(1, 50))
	assert.ElementsMatch(t, []RID{3}, m.Locate(1, 60))
}

func TestManagerCreateIndexRejectsDuplicateOrOutOfRange(t *testing.T) {
	m := NewManager(3, 0)
	src := &fakeSource{}

	err := m.CreateIndex(0, src)
	assert.Error(t, err)

	err = m.CreateIndex(5, src)
	assert.Error(t, err)
}

func TestManagerDropIndex(t *testing.T) {
	m := NewManager(3, 0)
	m.Add(0, 1, RID(1))
	m.DropIndex(0)
	assert.False(t, m.IsIndexed(0))
	assert.Nil(t, m.Locate(0, 1))
}

func TestManagerLocateRange(t *testing.T) {
	m := NewManager(3, 0)
	m.Add(0, 10, RID(1))
	m.Add(0, 20, RID(2))
	m.Add(0, 30, RID(3))

	got := m.LocateRange(0, 15, 25)
	assert.Equal(t, []RID{2}, got)
}

func TestManagerEntries(t *testing.T) {
	m := NewManager(2, 0)
	m.Add(0, 7, RID(1))
	entries := m.Entries(0)
	assert.Equal(t, []RID{1}, entries[7])
	assert.Nil(t, m.Entries(1))
}
