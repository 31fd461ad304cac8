package nla

import (
	"github.com/meigma/nla/internal/format"
	"github.com/meigma/nla/internal/substream"
)

// Re-export format types for the public API.
type (
	// Header is the fixed-layout prefix of a root volume.
	Header = format.Header

	// Entry locates one file's compressed bytes.
	Entry = format.Entry

	// EntryPath is the (extension, directory, name) key of an entry.
	EntryPath = format.Path

	// Digest is the truncated BLAKE3 hash of an entry's compressed bytes.
	Digest = format.Digest

	// Section is a bounded window over one entry's compressed bytes.
	Section = substream.Section
)

// RootDirectory is the EntryPath directory of files at the archive root.
const RootDirectory = format.RootDirectory

// ParsePath splits a slash-separated path into an EntryPath.
func ParsePath(s string) EntryPath {
	return format.ParsePath(s)
}

// Location is the absolute position of an entry inside its volume.
type Location struct {
	// Volume is 0 for the root volume.
	Volume int

	// Offset is the absolute byte offset within the volume file.
	Offset int64

	// Size is the compressed length.
	Size int64
}

// ComputeDigest returns the digest of compressed entry bytes.
func ComputeDigest(data []byte) Digest {
	return format.ComputeDigest(data)
}
