package codec

import (
	"bytes"
	"fmt"
	"io"
)

// Store is the identity codec. It copies bytes unchanged.
type Store struct{}

// NewStore returns the identity codec.
func NewStore() *Store {
	return &Store{}
}

// Tag implements Codec.
func (*Store) Tag() Tag { return TagStore }

// Compress implements Codec.
func (*Store) Compress(src []byte) ([]byte, error) {
	return bytes.Clone(src), nil
}

// CompressInto implements Codec.
func (*Store) CompressInto(dst, src []byte) (int, error) {
	return copyInto(dst, src)
}

// Decompress implements Codec.
func (*Store) Decompress(src []byte, maxSize uint64) ([]byte, error) {
	if maxSize > 0 && uint64(len(src)) > maxSize {
		return nil, ErrSizeOverflow
	}
	return bytes.Clone(src), nil
}

// DecompressInto implements Codec.
func (*Store) DecompressInto(dst, src []byte) (int, error) {
	return copyInto(dst, src)
}

// LoadDictionary rejects any non-empty dictionary.
func (*Store) LoadDictionary(dict []byte) error {
	if len(dict) > 0 {
		return fmt.Errorf("%w: %s takes no dictionary, got %d bytes", ErrDictionary, TagStore, len(dict))
	}
	return nil
}

// NewReader implements Streamer as a pass-through.
func (*Store) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}
