package nla

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/meigma/nla/codec"
	"github.com/meigma/nla/internal/format"
)

// OpenCompressed returns a Section over path's compressed bytes.
//
// Sections share the volume's read position with other sections of the
// same volume. Callers must not use two sections of one volume at the
// same time, nor use a section concurrently with other archive reads.
func (a *Archive) OpenCompressed(path string) (*Section, error) {
	e, err := a.Lookup(path)
	if err != nil {
		return nil, err
	}
	s, _, err := a.section(e)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	return s, nil
}

// OpenStream returns a streaming reader over path's decompressed
// content. The codec must implement codec.Streamer; otherwise the error
// wraps codec.ErrUnsupported. The same position-sharing rules as
// OpenCompressed apply until the stream is closed.
//
// With WithVerifyDigest the digest is checked once the compressed bytes
// are consumed, and a mismatch is returned in place of the final io.EOF.
func (a *Archive) OpenStream(path string) (io.ReadCloser, error) {
	e, err := a.Lookup(path)
	if err != nil {
		return nil, err
	}
	s, _, err := a.section(e)
	if err != nil {
		return nil, &fs.PathError{Op: "stream", Path: path, Err: err}
	}

	var src io.Reader = s
	var drain io.Reader
	if a.verify {
		dr := format.NewDigestReader(s, e.Digest)
		src, drain = dr, dr
	}
	rc, err := codec.NewReader(a.codec, src)
	if err != nil {
		return nil, &fs.PathError{Op: "stream", Path: path, Err: err}
	}
	return &entryStream{rc: rc, drain: drain, limit: a.maxFileSize}, nil
}

// entryStream enforces the size limit and finishes digest verification.
type entryStream struct {
	rc    io.ReadCloser
	drain io.Reader
	limit uint64
	n     uint64
}

func (s *entryStream) Read(p []byte) (int, error) {
	n, err := s.rc.Read(p)
	s.n += uint64(n) //nolint:gosec // n is non-negative
	if s.limit > 0 && s.n > s.limit {
		return n, fmt.Errorf("%w: entry exceeds %d bytes", ErrSizeOverflow, s.limit)
	}
	if errors.Is(err, io.EOF) && s.drain != nil {
		// The decoder may stop before the compressed input's EOF.
		if _, derr := io.Copy(io.Discard, s.drain); derr != nil {
			return n, derr
		}
		s.drain = nil
	}
	return n, err
}

func (s *entryStream) Close() error {
	return s.rc.Close()
}

// ReadFile returns the decompressed content of the file at name.
// name must satisfy fs.ValidPath.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	e, err := a.lookupValid("read", name)
	if err != nil {
		return nil, err
	}
	data, err := a.readEntry(e)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	a.sizes.Store(name, int64(len(data)))
	return data, nil
}

// lookupValid resolves an fs.ValidPath name. Only the canonical form of
// an entry path matches.
func (a *Archive) lookupValid(op, name string) (Entry, error) {
	if !fs.ValidPath(name) {
		return Entry{}, &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	if e, ok := a.entryByName(name); ok {
		return e, nil
	}
	return Entry{}, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
}

func (a *Archive) entryByName(name string) (Entry, bool) {
	p := ParsePath(name)
	if p.String() != name {
		return Entry{}, false
	}
	e, ok := a.entries[p]
	return e, ok
}

// readEntry reads, optionally verifies, and decompresses one entry.
func (a *Archive) readEntry(e Entry) ([]byte, error) {
	if a.maxFileSize > 0 && e.Size > a.maxFileSize {
		return nil, fmt.Errorf("%w: compressed size %d exceeds limit %d",
			ErrSizeOverflow, e.Size, a.maxFileSize)
	}
	raw, err := a.readRaw(e)
	if err != nil {
		return nil, err
	}
	if a.verify && format.ComputeDigest(raw) != e.Digest {
		return nil, ErrDigestMismatch
	}
	return a.codec.Decompress(raw, a.maxFileSize)
}

// readRaw reads e's compressed bytes under the volume lock.
func (a *Archive) readRaw(e Entry) ([]byte, error) {
	s, v, err := a.section(e)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	buf := make([]byte, s.Len())
	if _, err := io.ReadFull(s, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Verify checks the digest of every entry's compressed bytes. It reports
// each failing entry as an *fs.PathError, joined together.
func (a *Archive) Verify() error {
	var errs []error
	for i, p := range a.keys {
		if err := a.verifyEntry(a.entries[p]); err != nil {
			errs = append(errs, &fs.PathError{Op: "verify", Path: a.names[i], Err: err})
			if errors.Is(err, ErrClosed) {
				break
			}
		}
	}
	return errors.Join(errs...)
}

func (a *Archive) verifyEntry(e Entry) error {
	s, v, err := a.section(e)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	_, err = io.Copy(io.Discard, format.NewDigestReader(s, e.Digest))
	return err
}
