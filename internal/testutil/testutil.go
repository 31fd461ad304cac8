// Package testutil holds helpers shared by package tests.
package testutil

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTree creates files under dir. Keys are slash-separated relative
// paths; parent directories are created as needed.
func WriteTree(t testing.TB, dir string, files map[string][]byte) {
	t.Helper()
	for rel, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
}

// RandomBytes returns n deterministic pseudo-random bytes.
func RandomBytes(seed uint64, n int) []byte {
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(rng.UintN(256))
	}
	return out
}

// TextFiles returns n small, similar text files keyed by path, spread
// over a few directories.
func TextFiles(n int) map[string][]byte {
	files := make(map[string][]byte, n)
	for i := range n {
		path := fmt.Sprintf("dir%d/file%03d.txt", i%4, i)
		files[path] = fmt.Appendf(nil, "record %d\nstatus=ok\nowner=team-%d\npayload=%s\n",
			i, i%7, bytes.Repeat([]byte{'a' + byte(i%26)}, 20+i%50))
	}
	return files
}

// MockVolume is an in-memory io.ReadSeekCloser that records Close.
type MockVolume struct {
	*bytes.Reader
	closed atomic.Int32
}

// NewMockVolume returns a volume backed by data.
func NewMockVolume(data []byte) *MockVolume {
	return &MockVolume{Reader: bytes.NewReader(data)}
}

// Close implements io.Closer.
func (m *MockVolume) Close() error {
	m.closed.Add(1)
	return nil
}

// Closed reports how many times Close was called.
func (m *MockVolume) Closed() int {
	return int(m.closed.Load())
}
