package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
}

func TestIndexReturnsExistingFilesInClassThenIndexOrder(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "soybean_2.npy")
	touch(t, dir, "soybean_7.npy")
	touch(t, dir, "canola_1.npy")
	touch(t, dir, "redroot_pigweed_20.npy")
	// Decoys that must never be indexed.
	touch(t, dir, "soybean_21.npy")
	touch(t, dir, "soybean_0.npy")
	touch(t, dir, "canola_1.txt")
	touch(t, dir, "notes.npy")

	entries, err := Index(dir)
	require.NoError(t, err)

	want := []Entry{
		{Path: filepath.Join(dir, "canola_1.npy"), Label: 0},
		{Path: filepath.Join(dir, "soybean_2.npy"), Label: 1},
		{Path: filepath.Join(dir, "soybean_7.npy"), Label: 1},
		{Path: filepath.Join(dir, "redroot_pigweed_20.npy"), Label: 6},
	}
	assert.Equal(t, want, entries)
}

func TestIndexFullGrid(t *testing.T) {
	dir := t.TempDir()
	for _, name := range ClassNames {
		for i := 1; i <= maxSampleIndex; i++ {
			touch(t, dir, fmt.Sprintf("%s_%d.npy", name, i))
		}
	}

	entries, err := Index(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(ClassNames)*maxSampleIndex)

	// Labels must be non-decreasing in class order.
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1].Label, entries[i].Label)
	}
}

func TestIndexEmptyDirectoryIsConfigurationError(t *testing.T) {
	entries, err := Index(t.TempDir())
	require.Error(t, err, "an empty dataset must never be returned silently")
	assert.Nil(t, entries)
	assert.Contains(t, err.Error(), "no sample files found")
}

func TestIndexMissingDirectoryIsConfigurationError(t *testing.T) {
	_, err := Index(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check that the directory exists")
}
