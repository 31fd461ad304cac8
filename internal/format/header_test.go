package format

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderEncodeDecode(t *testing.T) {
	t.Parallel()

	h := NewHeader([4]byte{'Z', 'S', 'T', 'D'}, 77)
	h.TreeSize = 1234

	var buf [HeaderSize]byte
	h.EncodeTo(buf[:])
	assert.Equal(t, []byte("NEKOARCH"), buf[:8], "signature is readable in hex dumps")

	var got Header
	got.DecodeFrom(buf[:])
	assert.Equal(t, h, got)
	require.NoError(t, got.Validate())

	off, err := got.DataOffset()
	require.NoError(t, err)
	assert.Equal(t, int64(HeaderSize+77+1234), off)
}

func TestHeaderTreeSizeOffset(t *testing.T) {
	t.Parallel()

	h := NewHeader([4]byte{'N', 'O', 'N', 'E'}, 0)
	h.TreeSize = 0x0102030405060708

	var buf [HeaderSize]byte
	h.EncodeTo(buf[:])
	assert.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, buf[TreeSizeOffset:TreeSizeOffset+8])
}

func TestReadHeaderErrors(t *testing.T) {
	t.Parallel()

	valid := func() []byte {
		h := NewHeader([4]byte{'N', 'O', 'N', 'E'}, 0)
		buf := make([]byte, HeaderSize)
		h.EncodeTo(buf)
		return buf
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   error
	}{
		{"bad signature", func(b []byte) []byte { b[0] = 'X'; return b }, ErrFormat},
		{"future version", func(b []byte) []byte { b[8] = 2; return b }, ErrUnsupportedVersion},
		{"truncated", func(b []byte) []byte { return b[:HeaderSize-1] }, ErrFormat},
		{"empty", func([]byte) []byte { return nil }, ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadHeader(bytes.NewReader(tt.mutate(valid())))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUnsupportedVersionIsFormatError(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, ErrUnsupportedVersion, ErrFormat)
}

func TestDataOffsetOverflow(t *testing.T) {
	t.Parallel()

	h := NewHeader([4]byte{'N', 'O', 'N', 'E'}, ^uint64(0))
	_, err := h.DataOffset()
	require.ErrorIs(t, err, ErrFormat)
}
