package format

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T, paths ...string) (*Tree, map[Path]Entry) {
	t.Helper()

	tree := NewTree()
	want := make(map[Path]Entry, len(paths))
	for i, s := range paths {
		p := ParsePath(s)
		e := Entry{
			Digest: ComputeDigest([]byte(s)),
			Volume: uint16(i % 3),
			Offset: uint64(i) * 100,
			Size:   uint64(len(s)),
		}
		require.NoError(t, tree.Add(p, e))
		want[p] = e
	}
	return tree, want
}

func TestIndexRoundTrip(t *testing.T) {
	t.Parallel()

	tree, want := buildTree(t,
		"a.txt",
		"sub/b.json",
		"sub/c.json",
		"deep/nested/dir/d.txt",
		"Makefile",
		"scripts/.envrc",
		"e.tar.gz",
	)
	require.Equal(t, len(want), tree.Len())

	var buf bytes.Buffer
	n, err := tree.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	got, err := ReadIndex(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestIndexEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewTree().WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := ReadIndex(buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndexLayout(t *testing.T) {
	t.Parallel()

	tree, _ := buildTree(t, "a.txt")
	var buf bytes.Buffer
	_, err := tree.WriteTo(&buf)
	require.NoError(t, err)

	prefix := []byte(".txt\x00__ROOT__\x00a\x00")
	require.True(t, bytes.HasPrefix(buf.Bytes(), prefix))
	assert.Len(t, buf.Bytes(), len(prefix)+EntrySize+3)
	assert.Equal(t, []byte{0, 0, 0}, buf.Bytes()[buf.Len()-3:])
}

func TestIndexWalkOrderAndMutation(t *testing.T) {
	t.Parallel()

	tree, _ := buildTree(t, "z/b.txt", "a.txt", "y/a.json")

	var order []string
	require.NoError(t, tree.Walk(func(p Path, e *Entry) error {
		order = append(order, p.String())
		e.Offset = 42
		return nil
	}))
	assert.Equal(t, []string{"y/a.json", "a.txt", "z/b.txt"}, order)

	var buf bytes.Buffer
	_, err := tree.WriteTo(&buf)
	require.NoError(t, err)
	got, err := ReadIndex(buf.Bytes())
	require.NoError(t, err)
	for _, e := range got {
		assert.Equal(t, uint64(42), e.Offset)
	}
}

func TestTreeAddRejects(t *testing.T) {
	t.Parallel()

	tree := NewTree()
	p := ParsePath("a.txt")
	require.NoError(t, tree.Add(p, Entry{}))
	require.ErrorIs(t, tree.Add(p, Entry{}), ErrInvalidPath)
	require.ErrorIs(t, tree.Add(Path{Directory: RootDirectory, Name: "../x"}, Entry{}), ErrInvalidPath)
	assert.Equal(t, 1, tree.Len())
}

func TestReadIndexSentinelCorruption(t *testing.T) {
	t.Parallel()

	tree, _ := buildTree(t, "a.txt", "b.txt")
	var buf bytes.Buffer
	_, err := tree.WriteTo(&buf)
	require.NoError(t, err)

	data := buf.Bytes()
	// First record's sentinel sits right after ".txt\0__ROOT__\0a\0" and the record body.
	sentinel := len(".txt\x00__ROOT__\x00a\x00") + EntrySize - 2
	require.Equal(t, Sentinel, binary.LittleEndian.Uint16(data[sentinel:]))
	data[sentinel] = 0x00

	_, err = ReadIndex(data)
	require.ErrorIs(t, err, ErrIntegrity)
}

func TestReadIndexMalformed(t *testing.T) {
	t.Parallel()

	tree, _ := buildTree(t, "a.txt", "sub/b.json")
	var buf bytes.Buffer
	_, err := tree.WriteTo(&buf)
	require.NoError(t, err)
	valid := buf.Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated", valid[:len(valid)-1]},
		{"truncated record", valid[:len(".json\x00sub\x00b\x00")+10]},
		{"trailing bytes", append(bytes.Clone(valid), 0)},
		{"empty", nil},
		{"unterminated", []byte(".txt")},
		{"invalid utf8", []byte(".t\xffxt\x00")},
		{"traversal key", append([]byte(".txt\x00..\x00a\x00"), make([]byte, EntrySize)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadIndex(tt.data)
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}
