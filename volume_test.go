package nla

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumeFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		index, count int
		want         string
	}{
		{0, 1, "data.nla"},
		{0, 3, "data.root.nla"},
		{1, 3, "data.1.nla"},
		{2, 3, "data.2.nla"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VolumeFileName("data", tt.index, tt.count))
	}
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
}

func TestCompanionPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "data.root.nla", "data.2.nla", "data.1.nla", "data.10.nla",
		"data.3.nla", "data.4.nla", "data.5.nla", "data.6.nla", "data.7.nla",
		"data.8.nla", "data.9.nla",
		"data.01.nla", "data.x.nla", "other.1.nla", "data.1.nla.bak")

	paths, err := CompanionPaths(filepath.Join(dir, "data.root.nla"))
	require.NoError(t, err)
	require.Len(t, paths, 10)
	for i, p := range paths {
		assert.Equal(t, filepath.Join(dir, VolumeFileName("data", i+1, 11)), p)
	}

	single, err := CompanionPaths(filepath.Join(dir, "data.nla"))
	require.NoError(t, err)
	assert.Empty(t, single)
}

func TestCompanionPathsGap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "data.root.nla", "data.1.nla", "data.3.nla")

	_, err := CompanionPaths(filepath.Join(dir, "data.root.nla"))
	require.ErrorIs(t, err, ErrMissingVolume)
}

func TestExistingVolumes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "data.root.nla", "data.2.nla", "data.1.nla", "database.nla")

	paths, err := existingVolumes(dir, "data")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "data.root.nla"),
		filepath.Join(dir, "data.1.nla"),
		filepath.Join(dir, "data.2.nla"),
	}, paths)

	none, err := existingVolumes(filepath.Join(dir, "missing"), "data")
	require.NoError(t, err)
	assert.Empty(t, none)
}
