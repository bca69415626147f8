package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	p := New()
	assert.True(t, p.HasCapacity())

	for i := int64(0); i < 10; i++ {
		require.True(t, p.Write(i*7))
	}
	assert.Equal(t, 10, p.Count())
	for i := 0; i < 10; i++ {
		assert.Equal(t, int64(i)*7, p.Read(i))
	}
}

func TestWriteFailsWhenFull(t *testing.T) {
	p := New()
	for i := 0; i < Capacity; i++ {
		require.True(t, p.Write(int64(i)))
	}
	assert.False(t, p.HasCapacity())
	assert.False(t, p.Write(999))
	assert.Equal(t, Capacity, p.Count())
}

func TestUpdateInPlace(t *testing.T) {
	p := New()
	require.True(t, p.Write(1))
	require.True(t, p.Write(2))

	assert.True(t, p.Update(0, -42))
	assert.Equal(t, int64(-42), p.Read(0))
	assert.Equal(t, int64(2), p.Read(1))

	// cannot extend via update
	assert.False(t, p.Update(2, 5))
}

func TestToFromBytesRoundTrip(t *testing.T) {
	p := New()
	for i := int64(0); i < 5; i++ {
		require.True(t, p.Write(i))
	}
	require.True(t, p.Update(2, -7))

	raw := p.ToBytes()
	assert.Len(t, raw, FileSize)

	restored, err := FromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, p.Count(), restored.Count())
	for i := 0; i < p.Count(); i++ {
		assert.Equal(t, p.Read(i), restored.Read(i))
	}
}

func TestFromBytesRejectsWrongSize(t *testing.T) {
	_, err := FromBytes(make([]byte, FileSize-1))
	assert.Error(t, err)
	_, err = FromBytes(make([]byte, FileSize+1))
	assert.Error(t, err)
}

func TestEmptyPageRoundTrip(t *testing.T) {
	p := New()
	raw := p.ToBytes()
	restored, err := FromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, 0, restored.Count())
	assert.True(t, restored.HasCapacity())
}
