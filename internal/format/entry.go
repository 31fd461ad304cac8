package format

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

const (
	// DigestSize is the length of an entry digest.
	DigestSize = 16

	// EntrySize is the encoded size of an Entry record, sentinel included.
	EntrySize = DigestSize + 2 + 8 + 8 + 2

	// Sentinel terminates every encoded Entry record.
	Sentinel uint16 = 0xFFFF
)

// Digest is a truncated BLAKE3 hash of an entry's compressed bytes.
type Digest [DigestSize]byte

// ComputeDigest returns the digest of data.
func ComputeDigest(data []byte) Digest {
	sum := blake3.Sum256(data)
	var d Digest
	copy(d[:], sum[:DigestSize])
	return d
}

// String returns the upper-case hex form of the digest.
func (d Digest) String() string {
	return fmt.Sprintf("%X", d[:])
}

// ParseDigest parses the hex form produced by String (either case).
func ParseDigest(s string) (Digest, error) {
	var d Digest
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, err
	}
	if len(raw) != DigestSize {
		return d, fmt.Errorf("digest length %d, want %d", len(raw), DigestSize)
	}
	copy(d[:], raw)
	return d, nil
}

// Entry locates one file's compressed bytes inside an archive.
type Entry struct {
	// Digest is computed over the compressed bytes.
	Digest Digest

	// Volume is 0 for the root volume, N for the Nth companion volume.
	Volume uint16

	// Offset is relative to the start of the volume's data segment.
	Offset uint64

	// Size is the compressed length in bytes.
	Size uint64
}

// End returns Offset+Size and false if the sum overflows.
func (e *Entry) End() (uint64, bool) {
	end := e.Offset + e.Size
	return end, end >= e.Offset
}

// EncodeTo writes the record, sentinel included, to buf (at least EntrySize bytes).
func (e *Entry) EncodeTo(buf []byte) {
	copy(buf[0:16], e.Digest[:])
	binary.LittleEndian.PutUint16(buf[16:18], e.Volume)
	binary.LittleEndian.PutUint64(buf[18:26], e.Offset)
	binary.LittleEndian.PutUint64(buf[26:34], e.Size)
	binary.LittleEndian.PutUint16(buf[34:36], Sentinel)
}

// DecodeEntry parses one record and checks its trailing sentinel.
func DecodeEntry(buf []byte) (Entry, error) {
	if len(buf) < EntrySize {
		return Entry{}, fmt.Errorf("%w: truncated entry record", ErrFormat)
	}
	if s := binary.LittleEndian.Uint16(buf[34:36]); s != Sentinel {
		return Entry{}, fmt.Errorf("%w: entry sentinel %#04x", ErrIntegrity, s)
	}
	var e Entry
	copy(e.Digest[:], buf[0:16])
	e.Volume = binary.LittleEndian.Uint16(buf[16:18])
	e.Offset = binary.LittleEndian.Uint64(buf[18:26])
	e.Size = binary.LittleEndian.Uint64(buf[26:34])
	return e, nil
}

// DigestReader hashes everything read through it and reports
// ErrDigestMismatch at EOF when the hash differs from the expected digest.
type DigestReader struct {
	r    io.Reader
	h    *blake3.Hasher
	want Digest
	err  error
}

// NewDigestReader wraps r.
func NewDigestReader(r io.Reader, want Digest) *DigestReader {
	return &DigestReader{r: r, h: blake3.New(), want: want}
}

// Read implements io.Reader.
func (dr *DigestReader) Read(p []byte) (int, error) {
	if dr.err != nil {
		return 0, dr.err
	}
	n, err := dr.r.Read(p)
	if n > 0 {
		_, _ = dr.h.Write(p[:n]) //nolint:errcheck // hash writes never fail
	}
	if err == io.EOF {
		sum := dr.h.Sum(nil)
		if !bytes.Equal(sum[:DigestSize], dr.want[:]) {
			dr.err = ErrDigestMismatch
			return n, dr.err
		}
	}
	return n, err
}
