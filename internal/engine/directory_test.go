package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectorySetGetDelete(t *testing.T) {
	d := newDirectory()

	_, ok := d.get(1)
	assert.False(t, ok)

	d.set(1, location{rangeIdx: 0, pageIdx: 2, slot: 3})
	loc, ok := d.get(1)
	assert.True(t, ok)
	assert.Equal(t, location{rangeIdx: 0, pageIdx: 2, slot: 3}, loc)

	d.delete(1)
	_, ok = d.get(1)
	assert.False(t, ok)
}

func TestDirectoryRIDsListsAllEntries(t *testing.T) {
	d := newDirectory()
	d.set(1, location{})
	d.set(2, location{})
	d.set(3, location{})
	d.delete(2)

	assert.ElementsMatch(t, []int64{1, 3}, d.rids())
}
