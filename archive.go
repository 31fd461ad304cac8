package nla

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/meigma/nla/codec"
	"github.com/meigma/nla/internal/format"
	"github.com/meigma/nla/internal/substream"
)

// Archive is an open archive. Its index is loaded eagerly and never
// changes; entry data is read from the volumes on demand.
//
// Archive implements fs.FS, fs.StatFS, fs.ReadFileFS and fs.ReadDirFS.
type Archive struct {
	header  Header
	codec   codec.Codec
	entries map[EntryPath]Entry
	keys    []EntryPath // sorted by String
	names   []string    // keys[i].String()
	volumes []*volume

	registry    *codec.Registry
	verify      bool
	maxFileSize uint64
	logger      *slog.Logger

	sizes     sync.Map // name -> decompressed size
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// volume is one open volume. mu serializes use of the shared position.
type volume struct {
	mu         sync.Mutex
	r          io.ReadSeeker
	path       string
	size       int64
	dataOffset int64
	dataSize   int64
}

// VolumeInfo describes one volume of an open archive.
type VolumeInfo struct {
	// Index is 0 for the root volume.
	Index int

	// Path is the file path, or empty for volumes passed to OpenVolumes.
	Path string

	// Size is the total volume size in bytes.
	Size int64

	// DataOffset is where the data segment starts.
	DataOffset int64

	// DataSize is the length of the data segment.
	DataSize int64
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Open opens the archive whose root volume is at path. Companion volumes
// are discovered next to it by name (see CompanionPaths).
func Open(path string, opts ...Option) (*Archive, error) {
	companions, err := CompanionPaths(path)
	if err != nil {
		return nil, err
	}
	paths := append([]string{path}, companions...)

	rs := make([]io.ReadSeeker, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p) //nolint:gosec // caller-provided archive path
		if err != nil {
			for _, r := range rs {
				_ = r.(io.Closer).Close() //nolint:errcheck,forcetypeassert // opened by os.Open above
			}
			if len(rs) > 0 && errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %w", ErrMissingVolume, err)
			}
			return nil, err
		}
		rs = append(rs, f)
	}
	return openVolumes(rs, paths, opts)
}

// OpenVolumes opens an archive from an already-open root volume and its
// companions, ordered 1..N. The archive takes ownership: volumes that
// implement io.Closer are closed by Close, or before OpenVolumes returns
// an error.
func OpenVolumes(root io.ReadSeeker, companions []io.ReadSeeker, opts ...Option) (*Archive, error) {
	rs := make([]io.ReadSeeker, 0, len(companions)+1)
	rs = append(rs, root)
	rs = append(rs, companions...)
	return openVolumes(rs, nil, opts)
}

func openVolumes(rs []io.ReadSeeker, paths []string, opts []Option) (*Archive, error) {
	a := &Archive{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = codec.DefaultRegistry()
	}
	for i, r := range rs {
		v := &volume{r: r}
		if paths != nil {
			v.path = paths[i]
		}
		a.volumes = append(a.volumes, v)
	}

	if err := a.load(); err != nil {
		_ = a.Close() //nolint:errcheck // load error takes precedence
		return nil, err
	}
	a.log().Debug("opened archive",
		"codec", codec.Tag(a.header.Codec).String(),
		"entries", len(a.entries),
		"volumes", len(a.volumes))
	return a, nil
}

// load parses the root volume and validates every entry window.
func (a *Archive) load() error {
	if a.volumes[0].r == nil {
		return errors.New("nla: nil root volume")
	}
	for i, v := range a.volumes {
		if v.r == nil {
			return fmt.Errorf("%w: volume %d is nil", ErrMissingVolume, i)
		}
		size, err := v.r.Seek(0, io.SeekEnd)
		if err != nil {
			return a.volumeErr(i, err)
		}
		v.size, v.dataSize = size, size
	}

	root := a.volumes[0]
	if _, err := root.r.Seek(0, io.SeekStart); err != nil {
		return a.volumeErr(0, err)
	}
	h, err := format.ReadHeader(root.r)
	if err != nil {
		return err
	}
	dataOffset, err := h.DataOffset()
	if err != nil {
		return err
	}
	if dataOffset > root.size {
		return fmt.Errorf("%w: %w: root volume is %d bytes, header and index need %d",
			ErrFormat, ErrTruncated, root.size, dataOffset)
	}
	a.header = h
	root.dataOffset = dataOffset
	root.dataSize = root.size - dataOffset

	c, err := a.registry.New(codec.Tag(h.Codec))
	if err != nil {
		return err
	}
	a.codec = c

	meta := make([]byte, h.DictSize+h.TreeSize)
	if _, err := io.ReadFull(root.r, meta); err != nil {
		return a.volumeErr(0, err)
	}
	if err := c.LoadDictionary(meta[:h.DictSize]); err != nil {
		return err
	}
	entries, err := format.ReadIndex(meta[h.DictSize:])
	if err != nil {
		return err
	}

	for p, e := range entries {
		if int(e.Volume) >= len(a.volumes) {
			return fmt.Errorf("%w: entry %s is in volume %d, archive has %d",
				ErrMissingVolume, p, e.Volume, len(a.volumes))
		}
		v := a.volumes[e.Volume]
		end, ok := e.End()
		if !ok || end > uint64(v.dataSize) { //nolint:gosec // dataSize is non-negative
			return fmt.Errorf("%w: entry %s window [%d, +%d) exceeds volume %d data segment of %d bytes",
				ErrIntegrity, p, e.Offset, e.Size, e.Volume, v.dataSize)
		}
	}

	a.entries = entries
	a.keys = make([]EntryPath, 0, len(entries))
	for p := range entries {
		a.keys = append(a.keys, p)
	}
	a.names = make([]string, len(a.keys))
	slices.SortFunc(a.keys, func(x, y EntryPath) int {
		return strings.Compare(x.String(), y.String())
	})
	for i, p := range a.keys {
		a.names[i] = p.String()
	}
	return nil
}

func (a *Archive) volumeErr(i int, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = fmt.Errorf("%w: %w", ErrFormat, ErrTruncated)
	}
	if p := a.volumes[i].path; p != "" {
		return fmt.Errorf("volume %d (%s): %w", i, p, err)
	}
	return fmt.Errorf("volume %d: %w", i, err)
}

// Header returns the root volume header.
func (a *Archive) Header() Header {
	return a.header
}

// Codec returns the archive's codec instance.
func (a *Archive) Codec() codec.Codec {
	return a.codec
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Entries returns an iterator over all entries sorted by path.
func (a *Archive) Entries() iter.Seq2[EntryPath, Entry] {
	return func(yield func(EntryPath, Entry) bool) {
		for _, p := range a.keys {
			if !yield(p, a.entries[p]) {
				return
			}
		}
	}
}

// Lookup returns the entry stored under path. path is parsed with
// ParsePath; a missing entry fails with fs.ErrNotExist.
func (a *Archive) Lookup(path string) (Entry, error) {
	e, ok := a.entries[ParsePath(path)]
	if !ok {
		return Entry{}, &fs.PathError{Op: "lookup", Path: path, Err: fs.ErrNotExist}
	}
	return e, nil
}

// Exists reports whether path names an entry.
func (a *Archive) Exists(path string) bool {
	_, ok := a.entries[ParsePath(path)]
	return ok
}

// Locate returns the absolute position of path's compressed bytes. Root
// volume offsets are shifted past the header, dictionary and index.
func (a *Archive) Locate(path string) (Location, error) {
	e, err := a.Lookup(path)
	if err != nil {
		return Location{}, err
	}
	return a.locate(e), nil
}

func (a *Archive) locate(e Entry) Location {
	v := a.volumes[e.Volume]
	return Location{
		Volume: int(e.Volume),
		Offset: v.dataOffset + int64(e.Offset), //nolint:gosec // bounded by volume size at load
		Size:   int64(e.Size),                  //nolint:gosec // bounded by volume size at load
	}
}

// Volumes describes the archive's volumes, root first.
func (a *Archive) Volumes() []VolumeInfo {
	out := make([]VolumeInfo, len(a.volumes))
	for i, v := range a.volumes {
		out[i] = VolumeInfo{
			Index:      i,
			Path:       v.path,
			Size:       v.size,
			DataOffset: v.dataOffset,
			DataSize:   v.dataSize,
		}
	}
	return out
}

// Close closes every volume that implements io.Closer and releases the
// codec. It is safe to call more than once.
func (a *Archive) Close() error {
	a.closeOnce.Do(func() {
		a.closed.Store(true)
		var errs []error
		for _, v := range a.volumes {
			v.mu.Lock()
			if c, ok := v.r.(io.Closer); ok && c != nil {
				errs = append(errs, c.Close())
			}
			v.mu.Unlock()
		}
		if a.codec != nil {
			errs = append(errs, codec.Close(a.codec))
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

// section returns a Section over e's compressed bytes.
func (a *Archive) section(e Entry) (*substream.Section, *volume, error) {
	if a.closed.Load() {
		return nil, nil, ErrClosed
	}
	loc := a.locate(e)
	v := a.volumes[loc.Volume]
	s, err := substream.New(v.r, loc.Offset, loc.Size)
	if err != nil {
		return nil, nil, err
	}
	return s, v, nil
}
