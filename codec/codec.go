// Package codec defines the compression providers an archive can use and
// the registry that maps 4-byte tags to them.
//
// Every archive names exactly one codec by tag in its header. A provider
// must implement Codec; dictionary training and streaming decompression
// are optional capabilities exposed through the Trainer and Streamer
// interfaces. Asking a provider for a capability it lacks fails with
// ErrUnsupported.
//
// Compress, Decompress and NewReader are safe for concurrent use once a
// dictionary has been loaded. LoadDictionary is not.
package codec

import (
	"errors"
	"fmt"
	"io"
)

// Errors returned by codecs and the registry.
var (
	// ErrCodec is the base error for codec lookup and capability failures.
	ErrCodec = errors.New("nla: codec error")

	// ErrUnknown is returned when no provider is registered for a tag.
	ErrUnknown = fmt.Errorf("%w: unknown codec", ErrCodec)

	// ErrUnsupported is returned when a provider lacks a requested capability.
	ErrUnsupported = fmt.Errorf("%w: unsupported operation", ErrCodec)

	// ErrDuplicate is returned when registering a tag twice.
	ErrDuplicate = fmt.Errorf("%w: duplicate codec tag", ErrCodec)

	// ErrInvalidTag is returned for tags that are not 4 printable ASCII bytes.
	ErrInvalidTag = fmt.Errorf("%w: invalid codec tag", ErrCodec)

	// ErrDictionary is returned when a dictionary cannot be trained or loaded.
	ErrDictionary = fmt.Errorf("%w: dictionary", ErrCodec)

	// ErrDecompression is returned when compressed input is malformed.
	ErrDecompression = errors.New("nla: decompression failed")

	// ErrSizeOverflow is returned when decompressed output exceeds its limit.
	ErrSizeOverflow = errors.New("nla: size overflow")
)

// TagSize is the length of a codec tag.
const TagSize = 4

// Tag identifies a codec in an archive header.
type Tag [TagSize]byte

// Builtin tags.
var (
	TagStore = MustTag("NONE")
	TagZstd  = MustTag("ZSTD")
	TagLZ4   = MustTag("LZ4F")
	TagS2    = MustTag("S2BK")
)

// ParseTag converts s to a Tag. s must be exactly 4 printable ASCII bytes.
func ParseTag(s string) (Tag, error) {
	var t Tag
	if len(s) != TagSize {
		return t, fmt.Errorf("%w: %q is not %d bytes", ErrInvalidTag, s, TagSize)
	}
	for i := range len(s) {
		if s[i] < 0x21 || s[i] > 0x7E {
			return t, fmt.Errorf("%w: %q", ErrInvalidTag, s)
		}
	}
	copy(t[:], s)
	return t, nil
}

// MustTag is like ParseTag but panics on error.
func MustTag(s string) Tag {
	t, err := ParseTag(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the tag as text, or a quoted hex form when it is not
// printable.
func (t Tag) String() string {
	for _, b := range t {
		if b < 0x21 || b > 0x7E {
			return fmt.Sprintf("%q", t[:])
		}
	}
	return string(t[:])
}

// Codec compresses and decompresses whole entries.
type Codec interface {
	// Tag returns the tag written to archive headers.
	Tag() Tag

	// Compress returns the compressed form of src.
	Compress(src []byte) ([]byte, error)

	// CompressInto compresses src into dst and returns the bytes written.
	// It fails with io.ErrShortBuffer when dst is too small.
	CompressInto(dst, src []byte) (int, error)

	// Decompress returns the decompressed form of src. Output larger than
	// maxSize fails with ErrSizeOverflow; 0 disables the limit.
	Decompress(src []byte, maxSize uint64) ([]byte, error)

	// DecompressInto decompresses src into dst and returns the bytes
	// written. It fails with io.ErrShortBuffer when dst is too small.
	DecompressInto(dst, src []byte) (int, error)

	// LoadDictionary installs a dictionary produced by training. An empty
	// dictionary is a no-op.
	LoadDictionary(dict []byte) error
}

// Trainer is implemented by codecs that build a shared dictionary from
// sample content.
type Trainer interface {
	// Train returns a dictionary for samples. It returns nil when the
	// corpus is too small to be worth a dictionary.
	Train(samples [][]byte) ([]byte, error)
}

// Streamer is implemented by codecs that decompress incrementally.
type Streamer interface {
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// DictionaryHolder is implemented by codecs that report the dictionary
// they have loaded.
type DictionaryHolder interface {
	Dictionary() []byte
}

// LoadedDictionary returns the dictionary c has loaded, or nil when it
// holds none or cannot report one.
func LoadedDictionary(c Codec) []byte {
	if h, ok := c.(DictionaryHolder); ok {
		return h.Dictionary()
	}
	return nil
}

// SupportsTraining reports whether c implements Trainer.
func SupportsTraining(c Codec) bool {
	_, ok := c.(Trainer)
	return ok
}

// SupportsStreaming reports whether c implements Streamer.
func SupportsStreaming(c Codec) bool {
	_, ok := c.(Streamer)
	return ok
}

// Train trains a dictionary with c, or fails with ErrUnsupported.
func Train(c Codec, samples [][]byte) ([]byte, error) {
	t, ok := c.(Trainer)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot train dictionaries", ErrUnsupported, c.Tag())
	}
	return t.Train(samples)
}

// NewReader returns a streaming decompressor over r, or fails with
// ErrUnsupported.
func NewReader(c Codec, r io.Reader) (io.ReadCloser, error) {
	s, ok := c.(Streamer)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot stream", ErrUnsupported, c.Tag())
	}
	return s.NewReader(r)
}

// Close releases resources held by c, if any.
func Close(c Codec) error {
	if cl, ok := c.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
