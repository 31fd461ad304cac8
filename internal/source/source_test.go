package source

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/nla/internal/testutil"
)

func openRoot(t *testing.T, dir string) *os.Root {
	t.Helper()
	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { root.Close() })
	return root
}

func TestScan(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{
		"b.txt":        []byte("bb"),
		"a/z.json":     []byte("{}"),
		"a/deep/c.bin": {1, 2, 3},
		"empty/.keep":  nil,
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "hollow"), 0o755))

	files, err := Scan(context.Background(), openRoot(t, dir), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []File{
		{Path: "a/deep/c.bin", Size: 3},
		{Path: "a/z.json", Size: 2},
		{Path: "b.txt", Size: 2},
		{Path: "empty/.keep", Size: 0},
	}, files)
}

func TestScanSkipsSymlinks(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	dir := t.TempDir()
	outside := t.TempDir()
	testutil.WriteTree(t, dir, map[string][]byte{"real.txt": []byte("real")})
	testutil.WriteTree(t, outside, map[string][]byte{"secret.txt": []byte("secret")})
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(dir, "link.txt")))
	require.NoError(t, os.Symlink(outside, filepath.Join(dir, "linkdir")))

	var skipped []string
	root := openRoot(t, dir)
	files, err := Scan(context.Background(), root, 0, func(p string) { skipped = append(skipped, p) })
	require.NoError(t, err)
	assert.Equal(t, []File{{Path: "real.txt", Size: 4}}, files)
	assert.ElementsMatch(t, []string{"link.txt", "linkdir"}, skipped)

	_, err = ReadFile(root, "link.txt")
	require.ErrorIs(t, err, ErrNotRegular)
}

func TestScanMaxFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, testutil.TextFiles(5))

	_, err := Scan(context.Background(), openRoot(t, dir), 4, nil)
	require.ErrorIs(t, err, ErrTooManyFiles)

	files, err := Scan(context.Background(), openRoot(t, dir), 5, nil)
	require.NoError(t, err)
	assert.Len(t, files, 5)
}

func TestScanCanceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, testutil.TextFiles(3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scan(ctx, openRoot(t, dir), 0, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	payload := testutil.RandomBytes(3, 100_000)
	testutil.WriteTree(t, dir, map[string][]byte{"sub/data.bin": payload})
	root := openRoot(t, dir)

	got, err := ReadFile(root, "sub/data.bin")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = ReadFile(root, "missing.bin")
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = ReadFile(root, "../escape")
	require.Error(t, err)
}
