package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGCLogAppendThenDrainReturnsPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gc.log")
	g, err := openGCLog(path)
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Append("a/base/col_0_page_0.bin"))
	require.NoError(t, g.Append("a/base/col_1_page_0.bin"))

	paths, err := g.Drain()
	require.NoError(t, err)
	assert.Equal(t, []string{"a/base/col_0_page_0.bin", "a/base/col_1_page_0.bin"}, paths)
}

func TestGCLogDrainTruncatesBackToHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gc.log")
	g, err := openGCLog(path)
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Append("x.bin"))
	_, err = g.Drain()
	require.NoError(t, err)

	paths, err := g.Drain()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestGCLogReopenAfterAppendWithoutDrainStillHasHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gc.log")
	g, err := openGCLog(path)
	require.NoError(t, err)
	require.NoError(t, g.Append("x.bin"))
	require.NoError(t, g.Close())

	g2, err := openGCLog(path)
	require.NoError(t, err)
	defer g2.Close()

	paths, err := g2.Drain()
	require.NoError(t, err)
	assert.Equal(t, []string{"x.bin"}, paths)
}
