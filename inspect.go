package nla

import (
	_ "crypto/sha256" // registers SHA-256 for digest.Canonical
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/nla/codec"
)

// ArchiveInfo summarizes an archive on disk.
type ArchiveInfo struct {
	// Header is the root volume header.
	Header Header

	// Codec is the codec tag from the header.
	Codec codec.Tag

	// Entries is the number of files in the index.
	Entries int

	// Volumes describes each volume, root first.
	Volumes []VolumeDetail
}

// VolumeDetail is a VolumeInfo plus the SHA-256 digest of the whole file.
type VolumeDetail struct {
	VolumeInfo

	// Digest identifies the volume file content, e.g. for publishing
	// checksums next to the archive.
	Digest digest.Digest
}

// Inspect opens the archive at path, reads its metadata and computes a
// content digest for every volume. Entry data is not decompressed.
func Inspect(path string, opts ...Option) (*ArchiveInfo, error) {
	a, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	info := &ArchiveInfo{
		Header:  a.Header(),
		Codec:   codec.Tag(a.Header().Codec),
		Entries: a.Len(),
	}
	for i, v := range a.Volumes() {
		d, err := a.volumeDigest(i)
		if err != nil {
			return nil, err
		}
		info.Volumes = append(info.Volumes, VolumeDetail{VolumeInfo: v, Digest: d})
	}
	return info, nil
}

// volumeDigest hashes volume i from the start.
func (a *Archive) volumeDigest(i int) (digest.Digest, error) {
	v := a.volumes[i]
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, err := v.r.Seek(0, io.SeekStart); err != nil {
		return "", a.volumeErr(i, err)
	}
	d, err := digest.Canonical.FromReader(io.LimitReader(v.r, v.size))
	if err != nil {
		return "", a.volumeErr(i, err)
	}
	return d, nil
}
