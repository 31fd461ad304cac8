package nla

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/meigma/nla/codec"
	"github.com/meigma/nla/internal/format"
	"github.com/meigma/nla/internal/source"
	"github.com/meigma/nla/internal/substream"
)

// Sentinel errors re-exported from internal packages.
var (
	// ErrFormat is returned when archive bytes do not follow the format.
	ErrFormat = format.ErrFormat

	// ErrUnsupportedVersion is returned for unknown header versions. It wraps ErrFormat.
	ErrUnsupportedVersion = format.ErrUnsupportedVersion

	// ErrIntegrity is returned when an index sentinel or entry window is corrupt.
	ErrIntegrity = format.ErrIntegrity

	// ErrDigestMismatch is returned when stored bytes do not match their digest.
	// It wraps ErrIntegrity.
	ErrDigestMismatch = format.ErrDigestMismatch

	// ErrInvalidPath is returned for paths that cannot be stored in an archive.
	ErrInvalidPath = format.ErrInvalidPath

	// ErrCodec is returned for unknown codecs and unsupported codec operations.
	ErrCodec = codec.ErrCodec

	// ErrDecompression is returned when entry bytes fail to decompress.
	ErrDecompression = codec.ErrDecompression

	// ErrSizeOverflow is returned when sizes exceed configured or supported limits.
	ErrSizeOverflow = codec.ErrSizeOverflow

	// ErrTruncated is returned when a volume ends inside an entry.
	ErrTruncated = substream.ErrTruncated

	// ErrTooManyFiles is returned when a source tree exceeds the file limit.
	ErrTooManyFiles = source.ErrTooManyFiles
)

// Sentinel errors specific to the nla package.
var (
	// ErrMissingVolume is returned when a companion volume referenced by the
	// archive, or required by the numbering, is absent.
	ErrMissingVolume = errors.New("nla: missing volume")

	// ErrExist is returned when Create would overwrite an archive without
	// CreateWithForce. It wraps fs.ErrExist.
	ErrExist = fmt.Errorf("nla: archive already exists: %w", fs.ErrExist)

	// ErrClosed is returned by operations on a closed Archive.
	ErrClosed = errors.New("nla: archive closed")
)
