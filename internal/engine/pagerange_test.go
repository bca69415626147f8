package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageRangeSeedsTailPagesNotBasePages(t *testing.T) {
	pr := newPageRange(7)
	for col := 0; col < 7; col++ {
		assert.Empty(t, pr.basePages[col])
		assert.Equal(t, []int{0}, pr.tailPages[col])
	}
}

func TestAddBasePageKeepsColumnsInLockstep(t *testing.T) {
	pr := newPageRange(3)
	pr.addBasePage()
	pr.addBasePage()
	for col := 0; col < 3; col++ {
		assert.Equal(t, []int{0, 1}, pr.basePages[col])
	}
}

func TestBaseHasCapacityRespectsMaxBasePages(t *testing.T) {
	pr := newPageRange(2)
	for i := 0; i < maxBasePages; i++ {
		assert.True(t, pr.baseHasCapacity())
		pr.addBasePage()
	}
	assert.False(t, pr.baseHasCapacity())
}

func TestAddTailPageExtendsFromSeed(t *testing.T) {
	pr := newPageRange(2)
	pr.addTailPage()
	for col := 0; col < 2; col++ {
		assert.Equal(t, []int{0, 1}, pr.tailPages[col])
	}
}
