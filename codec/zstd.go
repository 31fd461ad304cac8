package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

const (
	// DefaultZstdLevel is the zstd compression level used when none is set.
	DefaultZstdLevel = 3

	// DefaultDictCapacity bounds the history kept in a trained dictionary.
	DefaultDictCapacity = 112640

	// minTrainBytes is the smallest corpus Train builds a dictionary for.
	minTrainBytes = 1024

	// minRawDict is the shortest raw content dictionary accepted.
	minRawDict = 8
)

// dictMagic prefixes dictionaries in the zstd dictionary format.
var dictMagic = []byte{0x37, 0xa4, 0x30, 0xec}

// Zstd is the zstd codec. It trains dictionaries from sample content and
// decompresses incrementally.
type Zstd struct {
	level     int
	dictCap   int
	maxMemory uint64

	enc  *zstd.Encoder
	dec  *zstd.Decoder
	pool *decoderPool
	dict []byte
}

// ZstdOption configures a Zstd codec.
type ZstdOption func(*Zstd)

// WithZstdLevel sets the compression level (1-22). Out-of-range values
// select DefaultZstdLevel.
func WithZstdLevel(level int) ZstdOption {
	return func(c *Zstd) {
		c.level = level
	}
}

// WithDictCapacity bounds the dictionary history. 0 disables training.
func WithDictCapacity(n int) ZstdOption {
	return func(c *Zstd) {
		c.dictCap = max(n, 0)
	}
}

// WithZstdMaxMemory caps decoder memory per frame. 0 uses the library default.
func WithZstdMaxMemory(n uint64) ZstdOption {
	return func(c *Zstd) {
		c.maxMemory = n
	}
}

// NewZstd returns a zstd codec without a dictionary.
func NewZstd(opts ...ZstdOption) (*Zstd, error) {
	c := &Zstd{
		level:   DefaultZstdLevel,
		dictCap: DefaultDictCapacity,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.level < 1 || c.level > 22 {
		c.level = DefaultZstdLevel
	}
	if err := c.reset(nil); err != nil {
		return nil, err
	}
	return c, nil
}

// Tag implements Codec.
func (*Zstd) Tag() Tag { return TagZstd }

// Level returns the configured compression level.
func (c *Zstd) Level() int { return c.level }

// Dictionary returns the loaded dictionary, or nil.
func (c *Zstd) Dictionary() []byte { return c.dict }

// Compress implements Codec.
func (c *Zstd) Compress(src []byte) ([]byte, error) {
	return c.enc.EncodeAll(src, nil), nil
}

// CompressInto implements Codec.
func (c *Zstd) CompressInto(dst, src []byte) (int, error) {
	return copyInto(dst, c.enc.EncodeAll(src, nil))
}

// Decompress implements Codec.
func (c *Zstd) Decompress(src []byte, maxSize uint64) ([]byte, error) {
	if maxSize == 0 {
		out, err := c.dec.DecodeAll(src, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrDecompression, err)
		}
		return out, nil
	}
	var h zstd.Header
	if err := h.Decode(src); err == nil && h.HasFCS && h.FrameContentSize > maxSize {
		return nil, ErrSizeOverflow
	}
	dec, release, err := c.pool.get(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrDecompression, err)
	}
	defer release()
	out, err := readAllLimit(dec, maxSize)
	if err != nil {
		return nil, decodeError("zstd", err)
	}
	return out, nil
}

// DecompressInto implements Codec.
func (c *Zstd) DecompressInto(dst, src []byte) (int, error) {
	dec, release, err := c.pool.get(bytes.NewReader(src))
	if err != nil {
		return 0, fmt.Errorf("%w: zstd: %w", ErrDecompression, err)
	}
	defer release()
	n, err := readInto(dec, dst)
	if err != nil {
		return n, decodeError("zstd", err)
	}
	return n, nil
}

// NewReader implements Streamer. Closing the reader returns its decoder
// to the pool; it does not close r.
func (c *Zstd) NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, release, err := c.pool.get(r)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrDecompression, err)
	}
	return &pooledReader{dec: dec, release: release}, nil
}

// Train implements Trainer. The most recent DictCapacity bytes of the
// corpus become the dictionary history. When the corpus is larger than
// that, every sample feeds the entropy tables; otherwise the history
// takes the newer half and the older half feeds the tables. If no
// tables can be built, the history alone is returned as a raw content
// dictionary. It returns nil when training is disabled or the corpus is
// smaller than a kilobyte.
func (c *Zstd) Train(samples [][]byte) ([]byte, error) {
	if c.dictCap == 0 {
		return nil, nil
	}
	contents := make([][]byte, 0, len(samples))
	total := 0
	for _, s := range samples {
		if len(s) > 0 {
			contents = append(contents, s)
			total += len(s)
		}
	}
	if total < minTrainBytes {
		return nil, nil
	}

	histCap, stats := c.dictCap, contents
	if total <= c.dictCap {
		histCap = total / 2
	}
	start, need := len(contents), histCap
	for start > 0 && need > 0 {
		start--
		need -= len(contents[start])
	}
	history := make([]byte, 0, histCap)
	first := contents[start]
	if need < 0 {
		first = first[-need:]
	}
	history = append(history, first...)
	for _, s := range contents[start+1:] {
		history = append(history, s...)
	}
	if total <= c.dictCap && start > 0 {
		stats = contents[:start]
	}

	dict, err := buildDict(zstd.BuildDictOptions{
		ID:         dictID(history),
		Contents:   stats,
		History:    history,
		Offsets:    [3]int{1, 4, 8},
		CompatV155: true,
		Level:      zstd.EncoderLevelFromZstd(c.level),
	})
	if err != nil {
		// A raw dictionary must not look like a trained one.
		for bytes.HasPrefix(history, dictMagic) {
			history = history[1:]
		}
		if len(history) < minRawDict {
			return nil, fmt.Errorf("%w: train: %w", ErrDictionary, err)
		}
		return history, nil
	}
	return dict, nil
}

// buildDict runs zstd.BuildDict, turning a panic into an error. BuildDict
// divides by the literal count, which is zero when the history already
// covers every sample.
func buildDict(opts zstd.BuildDictOptions) (dict []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			dict, err = nil, fmt.Errorf("build dictionary: %v", r)
		}
	}()
	return zstd.BuildDict(opts)
}

// LoadDictionary implements Codec. A dictionary starting with the zstd
// dictionary magic is parsed as a trained dictionary; anything else is
// used as raw history. Encoders and decoders built afterwards use dict;
// pooled decoders from before are dropped.
func (c *Zstd) LoadDictionary(dict []byte) error {
	if len(dict) == 0 {
		return nil
	}
	if !bytes.HasPrefix(dict, dictMagic) && len(dict) < minRawDict {
		return fmt.Errorf("%w: raw dictionary of %d bytes is too short", ErrDictionary, len(dict))
	}
	if err := c.reset(dict); err != nil {
		return fmt.Errorf("%w: %w", ErrDictionary, err)
	}
	return nil
}

// Close releases the encoder and decoder.
func (c *Zstd) Close() error {
	c.dec.Close()
	return c.enc.Close()
}

func (c *Zstd) reset(dict []byte) error {
	eopts := []zstd.EOption{
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(c.level)),
		zstd.WithZeroFrames(true),
	}
	var dopts []zstd.DOption
	if c.maxMemory > 0 {
		dopts = append(dopts, zstd.WithDecoderMaxMemory(c.maxMemory))
	}
	switch {
	case len(dict) == 0:
	case bytes.HasPrefix(dict, dictMagic):
		eopts = append(eopts, zstd.WithEncoderDict(dict))
		dopts = append(dopts, zstd.WithDecoderDicts(dict))
	default:
		id := dictID(dict)
		eopts = append(eopts, zstd.WithEncoderDictRaw(id, dict))
		dopts = append(dopts, zstd.WithDecoderDictRaw(id, dict))
	}

	enc, err := zstd.NewWriter(nil, eopts...)
	if err != nil {
		return err
	}
	dec, err := zstd.NewReader(nil, dopts...)
	if err != nil {
		_ = enc.Close() //nolint:errcheck // unused encoder
		return err
	}

	if c.enc != nil {
		_ = c.enc.Close() //nolint:errcheck // replaced encoder
	}
	if c.dec != nil {
		c.dec.Close()
	}
	c.enc, c.dec = enc, dec
	c.pool = newDecoderPool(dopts...)
	c.dict = dict
	return nil
}

// dictID derives a dictionary ID outside the ranges zstd reserves.
func dictID(history []byte) uint32 {
	sum := blake3.Sum256(history)
	const lo, hi = 1 << 15, 1 << 31
	return lo + binary.LittleEndian.Uint32(sum[:4])%(hi-lo)
}

