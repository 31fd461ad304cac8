package codec

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// readAllLimit reads r to EOF. It fails with ErrSizeOverflow when more
// than maxSize bytes are available; maxSize 0 disables the limit.
func readAllLimit(r io.Reader, maxSize uint64) ([]byte, error) {
	if maxSize == 0 {
		return io.ReadAll(r)
	}
	if maxSize > uint64(math.MaxInt-1) {
		return nil, ErrSizeOverflow
	}
	lr := &io.LimitedReader{R: r, N: int64(maxSize) + 1} //nolint:gosec // checked above
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) > maxSize {
		return nil, ErrSizeOverflow
	}
	return data, nil
}

// readInto fills dst from r and fails with io.ErrShortBuffer when r has
// more bytes than dst can hold.
func readInto(r io.Reader, dst []byte) (int, error) {
	n, err := io.ReadFull(r, dst)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return n, nil
	case err != nil:
		return n, err
	}
	var probe [1]byte
	for {
		m, err := r.Read(probe[:])
		if m > 0 {
			return n, io.ErrShortBuffer
		}
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}
}

// copyInto copies out into dst, failing with io.ErrShortBuffer when it
// does not fit.
func copyInto(dst, out []byte) (int, error) {
	if len(out) > len(dst) {
		return 0, io.ErrShortBuffer
	}
	return copy(dst, out), nil
}

// decodeError wraps a decoder failure in ErrDecompression, passing limit
// errors through unchanged.
func decodeError(name string, err error) error {
	if errors.Is(err, ErrSizeOverflow) || errors.Is(err, io.ErrShortBuffer) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrDecompression, name, err)
}
