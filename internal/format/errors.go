package format

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is returned when archive bytes do not follow the format.
	ErrFormat = errors.New("nla: invalid archive format")

	// ErrUnsupportedVersion is returned for a header version this package cannot read.
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrFormat)

	// ErrIntegrity is returned when a corruption tripwire fires.
	ErrIntegrity = errors.New("nla: archive integrity check failed")

	// ErrDigestMismatch is returned when compressed bytes do not match their stored digest.
	ErrDigestMismatch = fmt.Errorf("%w: digest mismatch", ErrIntegrity)

	// ErrInvalidPath is returned for paths that cannot be stored in an index.
	ErrInvalidPath = errors.New("nla: invalid entry path")
)
