package nla

import (
	"log/slog"

	"github.com/meigma/nla/codec"
)

// CreateOption configures archive creation.
type CreateOption func(*createConfig)

type createConfig struct {
	name          string
	codec         codec.Codec
	registry      *codec.Registry
	maxVolumeSize uint64
	force         bool
	workers       int
	maxFiles      int
	logger        *slog.Logger
	progress      ProgressFunc
}

// CreateWithName sets the archive name. Volumes are named
// "<name>.nla", or "<name>.root.nla" and "<name>.<i>.nla" when split.
// The default is the base name of the source directory, or "data".
func CreateWithName(name string) CreateOption {
	return func(cfg *createConfig) {
		cfg.name = name
	}
}

// CreateWithCodec sets the codec used to compress every file. The
// default is the Store codec. The caller keeps ownership of c; Create
// may load a trained dictionary into it. When a later build does not
// train a new one, the dictionary c already holds is written to that
// archive too.
func CreateWithCodec(c codec.Codec) CreateOption {
	return func(cfg *createConfig) {
		cfg.codec = c
	}
}

// CreateWithRegistry sets the registry the codec tag must be registered
// in. The default holds the builtin codecs.
func CreateWithRegistry(r *codec.Registry) CreateOption {
	return func(cfg *createConfig) {
		cfg.registry = r
	}
}

// CreateWithMaxVolumeSize limits the data bytes per volume. A file larger
// than the limit is placed in a volume of its own. Zero (the default)
// writes a single volume.
func CreateWithMaxVolumeSize(n uint64) CreateOption {
	return func(cfg *createConfig) {
		cfg.maxVolumeSize = n
	}
}

// CreateWithForce replaces an existing archive of the same name.
func CreateWithForce(force bool) CreateOption {
	return func(cfg *createConfig) {
		cfg.force = force
	}
}

// CreateWithWorkers sets the number of files compressed in parallel.
// Values < 1 use GOMAXPROCS.
func CreateWithWorkers(n int) CreateOption {
	return func(cfg *createConfig) {
		cfg.workers = n
	}
}

// CreateWithMaxFiles limits the number of files in the archive.
// Zero uses DefaultMaxFiles. Negative means no limit.
func CreateWithMaxFiles(n int) CreateOption {
	return func(cfg *createConfig) {
		cfg.maxFiles = n
	}
}

// CreateWithLogger sets the logger for archive creation.
func CreateWithLogger(logger *slog.Logger) CreateOption {
	return func(cfg *createConfig) {
		cfg.logger = logger
	}
}

// CreateWithProgress sets a callback to receive progress updates.
// The callback may be invoked concurrently from multiple goroutines.
func CreateWithProgress(fn ProgressFunc) CreateOption {
	return func(cfg *createConfig) {
		cfg.progress = fn
	}
}
