package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	// Signature is the first field of every root volume. Encoded
	// little-endian it reads "NEKOARCH".
	Signature uint64 = 0x484352414F4B454E

	// Version is the only header version this package writes and reads.
	Version uint32 = 1

	// HeaderSize is the encoded size of Header.
	HeaderSize = 8 + 4 + 8 + 4 + 8

	// TreeSizeOffset is the byte offset of the TreeSize field, which the
	// writer patches once the index has been serialized.
	TreeSizeOffset = 12
)

// Header is the fixed-layout prefix of a root volume.
type Header struct {
	Signature uint64
	Version   uint32

	// TreeSize is the byte length of the serialized index.
	TreeSize uint64

	// Codec is the 4-byte tag of the codec used for every entry.
	Codec [4]byte

	// DictSize is the length of the codec dictionary that follows the header.
	DictSize uint64
}

// NewHeader returns a header for the given codec tag with TreeSize unset.
func NewHeader(codec [4]byte, dictSize uint64) Header {
	return Header{
		Signature: Signature,
		Version:   Version,
		Codec:     codec,
		DictSize:  dictSize,
	}
}

// EncodeTo writes the header to buf, which must be at least HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], h.Signature)
	binary.LittleEndian.PutUint32(buf[8:12], h.Version)
	binary.LittleEndian.PutUint64(buf[12:20], h.TreeSize)
	copy(buf[20:24], h.Codec[:])
	binary.LittleEndian.PutUint64(buf[24:32], h.DictSize)
}

// DecodeFrom reads the header from buf without validating it.
func (h *Header) DecodeFrom(buf []byte) {
	h.Signature = binary.LittleEndian.Uint64(buf[0:8])
	h.Version = binary.LittleEndian.Uint32(buf[8:12])
	h.TreeSize = binary.LittleEndian.Uint64(buf[12:20])
	copy(h.Codec[:], buf[20:24])
	h.DictSize = binary.LittleEndian.Uint64(buf[24:32])
}

// Validate checks the signature and version.
func (h *Header) Validate() error {
	if h.Signature != Signature {
		return fmt.Errorf("%w: bad signature %#016x", ErrFormat, h.Signature)
	}
	if h.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	return nil
}

// DataOffset returns the offset of the root volume's data segment:
// the end of header, dictionary and index.
func (h *Header) DataOffset() (int64, error) {
	end := uint64(HeaderSize)
	for _, n := range []uint64{h.DictSize, h.TreeSize} {
		if n > math.MaxInt64-end {
			return 0, fmt.Errorf("%w: header sizes overflow", ErrFormat)
		}
		end += n
	}
	return int64(end), nil
}

// ReadHeader reads and validates a header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, fmt.Errorf("%w: truncated header", ErrFormat)
		}
		return Header{}, err
	}
	var h Header
	h.DecodeFrom(buf[:])
	if err := h.Validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}
