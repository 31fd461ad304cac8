package nla

import (
	"log/slog"

	"github.com/meigma/nla/codec"
)

// DefaultMaxFileSize is the default per-entry size limit for reads.
const DefaultMaxFileSize = 256 << 20

// Option configures an Archive.
type Option func(*Archive)

// WithRegistry sets the registry used to resolve the header's codec tag.
// The default holds the builtin codecs.
func WithRegistry(r *codec.Registry) Option {
	return func(a *Archive) {
		a.registry = r
	}
}

// WithVerifyDigest makes every read check the stored digest of the
// entry's compressed bytes. Mismatches fail with ErrDigestMismatch.
// Verification is off by default; Verify checks the whole archive on
// demand.
func WithVerifyDigest(enabled bool) Option {
	return func(a *Archive) {
		a.verify = enabled
	}
}

// WithMaxFileSize limits the compressed and decompressed size of a single
// entry (default DefaultMaxFileSize). Set limit to 0 to disable the limit.
func WithMaxFileSize(limit uint64) Option {
	return func(a *Archive) {
		a.maxFileSize = limit
	}
}

// WithLogger sets the logger for archive operations.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}
