package nla

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/nla/codec"
	"github.com/meigma/nla/internal/testutil"
)

func readTree(t *testing.T, dir string) map[string][]byte {
	t.Helper()
	out := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = data
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestExtract(t *testing.T) {
	t.Parallel()

	files := testutil.TextFiles(25)
	files["root.bin"] = testutil.RandomBytes(3, 4096)
	a := openArchive(t, buildArchive(t, files,
		CreateWithCodec(newCodec(t, codec.TagZstd)),
		CreateWithMaxVolumeSize(2048)))

	dest := filepath.Join(t.TempDir(), "out")
	var events int
	stats, err := a.Extract(context.Background(), dest, ExtractWithWorkers(1), ExtractWithProgress(func(ev ProgressEvent) {
		assert.Equal(t, StageExtracting, ev.Stage)
		events++
	}))
	require.NoError(t, err)
	assert.Equal(t, len(files), stats.FileCount)
	assert.Zero(t, stats.Skipped)
	assert.Equal(t, len(files), events)

	var total uint64
	for _, data := range files {
		total += uint64(len(data))
	}
	assert.Equal(t, total, stats.TotalBytes)
	assert.Equal(t, files, readTree(t, dest))
}

func TestExtractExisting(t *testing.T) {
	t.Parallel()

	files := map[string][]byte{
		"a.txt":      []byte("hello"),
		"sub/b.json": []byte("{}"),
	}
	a := openArchive(t, buildArchive(t, files))
	ctx := context.Background()

	dest := t.TempDir()
	testutil.WriteTree(t, dest, map[string][]byte{"a.txt": []byte("local")})

	_, err := a.Extract(ctx, dest, ExtractWithWorkers(1))
	require.ErrorIs(t, err, fs.ErrExist)

	stats, err := a.Extract(ctx, dest, ExtractWithSkipExisting(true))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	got := readTree(t, dest)
	assert.Equal(t, []byte("local"), got["a.txt"])
	assert.Equal(t, []byte("{}"), got["sub/b.json"])

	stats, err = a.Extract(ctx, dest, ExtractWithOverwrite(true))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FileCount)
	assert.Equal(t, files, readTree(t, dest))
}

func TestExtractPrefix(t *testing.T) {
	t.Parallel()

	a := openArchive(t, buildArchive(t, map[string][]byte{
		"a.txt":         []byte("hello"),
		"sub/b.json":    []byte("{}"),
		"sub/deep/c.md": []byte("# c"),
		"subway/d.txt":  []byte("d"),
	}))

	dest := t.TempDir()
	stats, err := a.Extract(context.Background(), dest, ExtractWithPrefix("/sub/"))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FileCount)
	assert.Equal(t, map[string][]byte{
		"sub/b.json":    []byte("{}"),
		"sub/deep/c.md": []byte("# c"),
	}, readTree(t, dest))

	_, err = a.Extract(context.Background(), dest, ExtractWithPrefix("../x"))
	require.ErrorIs(t, err, fs.ErrInvalid)
}

func TestExtractCancelled(t *testing.T) {
	t.Parallel()

	a := openArchive(t, buildArchive(t, testutil.TextFiles(5)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := a.Extract(ctx, t.TempDir())
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.FileCount)
}
