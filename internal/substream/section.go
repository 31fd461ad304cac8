// Package substream provides a bounded window over a shared backing stream.
//
// Many archive entries live in one physical volume file. A Section scopes
// reads and writes to one entry's byte range while the file handle stays
// shared. The backing stream's position is shared mutable state: two
// Sections over the same backing stream must not be used concurrently.
package substream

import (
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrTruncated is returned when the backing stream ends inside the window.
	ErrTruncated = errors.New("nla: volume truncated")

	// ErrReadOnly is returned by Write when the backing stream is not writable.
	ErrReadOnly = errors.New("substream: backing stream is read-only")

	// ErrOutOfRange is returned for seeks outside the window.
	ErrOutOfRange = errors.New("substream: seek outside window")
)

// Section is an io.ReadWriteSeeker restricted to [offset, offset+length)
// of its backing stream. Every operation seeks the backing stream first.
type Section struct {
	backing io.ReadSeeker
	offset  int64
	length  int64
	pos     int64
}

// New returns a Section over length bytes of backing starting at offset.
func New(backing io.ReadSeeker, offset, length int64) (*Section, error) {
	if backing == nil {
		return nil, errors.New("substream: nil backing stream")
	}
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("substream: invalid window [%d, +%d)", offset, length)
	}
	if offset > math.MaxInt64-length {
		return nil, fmt.Errorf("substream: window [%d, +%d) overflows", offset, length)
	}
	return &Section{backing: backing, offset: offset, length: length}, nil
}

// Len returns the window length.
func (s *Section) Len() int64 {
	return s.length
}

// Offset returns the window start within the backing stream.
func (s *Section) Offset() int64 {
	return s.offset
}

// Read implements io.Reader. A backing stream that ends before the
// window does yields ErrTruncated.
func (s *Section) Read(p []byte) (int, error) {
	remaining := s.length - s.pos
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := s.seekBacking(); err != nil {
		return 0, err
	}
	n, err := io.ReadFull(s.backing, p)
	s.pos += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return n, fmt.Errorf("%w: window [%d, +%d) ends at %d",
				ErrTruncated, s.offset, s.length, s.offset+s.pos)
		}
		return n, err
	}
	return n, nil
}

// Write implements io.Writer. Writes past the window end are cut short
// with io.ErrShortWrite.
func (s *Section) Write(p []byte) (int, error) {
	w, ok := s.backing.(io.Writer)
	if !ok {
		return 0, ErrReadOnly
	}
	remaining := s.length - s.pos
	if remaining < 0 {
		remaining = 0
	}
	short := false
	if int64(len(p)) > remaining {
		p = p[:remaining]
		short = true
	}
	if len(p) > 0 {
		if err := s.seekBacking(); err != nil {
			return 0, err
		}
		n, err := w.Write(p)
		s.pos += int64(n)
		if err != nil {
			return n, err
		}
	}
	if short {
		return len(p), io.ErrShortWrite
	}
	return len(p), nil
}

// Seek implements io.Seeker relative to the window.
func (s *Section) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = s.pos
	case io.SeekEnd:
		base = s.length
	default:
		return 0, fmt.Errorf("substream: invalid whence %d", whence)
	}
	next := base + offset
	if next < 0 || next > s.length {
		return 0, fmt.Errorf("%w: %d not in [0, %d]", ErrOutOfRange, next, s.length)
	}
	s.pos = next
	return next, nil
}

func (s *Section) seekBacking() error {
	if _, err := s.backing.Seek(s.offset+s.pos, io.SeekStart); err != nil {
		return fmt.Errorf("substream: seek backing stream: %w", err)
	}
	return nil
}
