package codec

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
)

// S2 is the S2 block codec. It has no dictionary or streaming support:
// block-format entries are always decoded whole.
type S2 struct {
	better bool
}

// S2Option configures an S2 codec.
type S2Option func(*S2)

// WithS2Better selects the slower, denser S2 encoder.
func WithS2Better(better bool) S2Option {
	return func(c *S2) {
		c.better = better
	}
}

// NewS2 returns an S2 block codec.
func NewS2(opts ...S2Option) *S2 {
	c := &S2{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tag implements Codec.
func (*S2) Tag() Tag { return TagS2 }

// Compress implements Codec.
func (c *S2) Compress(src []byte) ([]byte, error) {
	if c.better {
		return s2.EncodeBetter(nil, src), nil
	}
	return s2.Encode(nil, src), nil
}

// CompressInto implements Codec.
func (c *S2) CompressInto(dst, src []byte) (int, error) {
	out, err := c.Compress(src)
	if err != nil {
		return 0, err
	}
	return copyInto(dst, out)
}

// Decompress implements Codec.
func (*S2) Decompress(src []byte, maxSize uint64) ([]byte, error) {
	n, err := s2.DecodedLen(src)
	if err != nil {
		return nil, fmt.Errorf("%w: s2: %w", ErrDecompression, err)
	}
	if maxSize > 0 && uint64(n) > maxSize { //nolint:gosec // n is non-negative
		return nil, ErrSizeOverflow
	}
	out, err := s2.Decode(nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: s2: %w", ErrDecompression, err)
	}
	return out, nil
}

// DecompressInto implements Codec.
func (*S2) DecompressInto(dst, src []byte) (int, error) {
	n, err := s2.DecodedLen(src)
	if err != nil {
		return 0, fmt.Errorf("%w: s2: %w", ErrDecompression, err)
	}
	if n > len(dst) {
		return 0, fmt.Errorf("%w: need %d bytes", io.ErrShortBuffer, n)
	}
	out, err := s2.Decode(dst, src)
	if err != nil {
		return 0, fmt.Errorf("%w: s2: %w", ErrDecompression, err)
	}
	return len(out), nil
}

// LoadDictionary rejects any non-empty dictionary.
func (*S2) LoadDictionary(dict []byte) error {
	if len(dict) > 0 {
		return fmt.Errorf("%w: %s takes no dictionary", ErrDictionary, TagS2)
	}
	return nil
}
