package codec

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
)

var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4,
	lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

// LZ4 is the LZ4 frame codec. Frames carry their own checksums and
// decode incrementally; there is no dictionary support.
type LZ4 struct {
	level   lz4.CompressionLevel
	writers sync.Pool
	readers sync.Pool
}

// LZ4Option configures an LZ4 codec.
type LZ4Option func(*LZ4)

// WithLZ4Level sets the compression level: 0 is the fast compressor,
// 1-9 the high-compression levels. Out-of-range values select 0.
func WithLZ4Level(level int) LZ4Option {
	return func(c *LZ4) {
		if level < 0 || level >= len(lz4Levels) {
			level = 0
		}
		c.level = lz4Levels[level]
	}
}

// NewLZ4 returns an LZ4 frame codec.
func NewLZ4(opts ...LZ4Option) *LZ4 {
	c := &LZ4{level: lz4.Fast}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tag implements Codec.
func (*LZ4) Tag() Tag { return TagLZ4 }

// Compress implements Codec.
func (c *LZ4) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(lz4.CompressBlockBound(len(src)) + 32)

	w, err := c.writer(&buf)
	if err != nil {
		return nil, err
	}
	defer c.writers.Put(w)

	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return buf.Bytes(), nil
}

// CompressInto implements Codec.
func (c *LZ4) CompressInto(dst, src []byte) (int, error) {
	out, err := c.Compress(src)
	if err != nil {
		return 0, err
	}
	return copyInto(dst, out)
}

// Decompress implements Codec.
func (c *LZ4) Decompress(src []byte, maxSize uint64) ([]byte, error) {
	r := c.reader(bytes.NewReader(src))
	defer c.readers.Put(r)

	out, err := readAllLimit(r, maxSize)
	if err != nil {
		return nil, decodeError("lz4", err)
	}
	return out, nil
}

// DecompressInto implements Codec.
func (c *LZ4) DecompressInto(dst, src []byte) (int, error) {
	r := c.reader(bytes.NewReader(src))
	defer c.readers.Put(r)

	n, err := readInto(r, dst)
	if err != nil {
		return n, decodeError("lz4", err)
	}
	return n, nil
}

// NewReader implements Streamer. Closing the reader does not close r.
func (c *LZ4) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

// LoadDictionary rejects any non-empty dictionary.
func (*LZ4) LoadDictionary(dict []byte) error {
	if len(dict) > 0 {
		return fmt.Errorf("%w: %s takes no dictionary", ErrDictionary, TagLZ4)
	}
	return nil
}

func (c *LZ4) writer(dst io.Writer) (*lz4.Writer, error) {
	if w, ok := c.writers.Get().(*lz4.Writer); ok {
		w.Reset(dst)
		return w, nil
	}
	w := lz4.NewWriter(dst)
	if err := w.Apply(lz4.CompressionLevelOption(c.level)); err != nil {
		return nil, fmt.Errorf("lz4 writer: %w", err)
	}
	return w, nil
}

func (c *LZ4) reader(src io.Reader) *lz4.Reader {
	if r, ok := c.readers.Get().(*lz4.Reader); ok {
		r.Reset(src)
		return r
	}
	return lz4.NewReader(src)
}
