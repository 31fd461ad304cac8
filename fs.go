package nla

import (
	"bytes"
	"io"
	"io/fs"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/meigma/nla/internal/pathutil"
)

var (
	_ fs.FS         = (*Archive)(nil)
	_ fs.StatFS     = (*Archive)(nil)
	_ fs.ReadFileFS = (*Archive)(nil)
	_ fs.ReadDirFS  = (*Archive)(nil)
)

// Open implements fs.FS.
//
// Files are decompressed in full when opened. Directories are synthesized
// from entry paths; entries at the archive root appear directly under ".".
func (a *Archive) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if e, ok := a.entryByName(name); ok {
		data, err := a.readEntry(e)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
		a.sizes.Store(name, int64(len(data)))
		return &openFile{
			Reader: bytes.NewReader(data),
			info:   &fileInfo{name: pathutil.Base(name), size: int64(len(data))},
		}, nil
	}
	if a.isDir(name) {
		return &openDir{a: a, name: name}, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// Stat implements fs.StatFS.
//
// The index does not record decompressed sizes, so the first Stat of a
// file decompresses it. Sizes are remembered for later calls.
func (a *Archive) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	if e, ok := a.entryByName(name); ok {
		size, err := a.plainSize(name, e)
		if err != nil {
			return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
		}
		return &fileInfo{name: pathutil.Base(name), size: size}, nil
	}
	if a.isDir(name) {
		return &dirInfo{name: pathutil.Base(name)}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

// ReadDir implements fs.ReadDirFS. Entries are sorted by name.
func (a *Archive) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	if !a.isDir(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	return a.children(name), nil
}

func (a *Archive) plainSize(name string, e Entry) (int64, error) {
	if v, ok := a.sizes.Load(name); ok {
		return v.(int64), nil //nolint:errcheck // only int64 values are stored
	}
	data, err := a.readEntry(e)
	if err != nil {
		return 0, err
	}
	size := int64(len(data))
	a.sizes.Store(name, size)
	return size, nil
}

// isDir reports whether name is "." or a prefix of some entry name.
func (a *Archive) isDir(name string) bool {
	if name == "." {
		return true
	}
	prefix := pathutil.DirPrefix(name)
	i := sort.SearchStrings(a.names, prefix)
	return i < len(a.names) && strings.HasPrefix(a.names[i], prefix)
}

// children lists the immediate children of dir.
func (a *Archive) children(dir string) []fs.DirEntry {
	prefix := pathutil.DirPrefix(dir)
	seen := make(map[string]struct{})
	var out []fs.DirEntry
	for _, full := range a.names[sort.SearchStrings(a.names, prefix):] {
		if !strings.HasPrefix(full, prefix) {
			break
		}
		child, sub := pathutil.Child(full, prefix)
		if _, ok := seen[child]; ok {
			continue
		}
		seen[child] = struct{}{}
		if sub {
			out = append(out, &dirEntry{name: child, dir: true, a: a})
		} else {
			out = append(out, &dirEntry{name: child, full: full, a: a})
		}
	}
	slices.SortFunc(out, func(x, y fs.DirEntry) int {
		return strings.Compare(x.Name(), y.Name())
	})
	return out
}

// openFile is an opened, fully decompressed entry.
type openFile struct {
	*bytes.Reader
	info *fileInfo
}

func (f *openFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *openFile) Close() error               { return nil }

// openDir implements fs.ReadDirFile for synthesized directories.
type openDir struct {
	a       *Archive
	name    string
	entries []fs.DirEntry
	loaded  bool
}

func (d *openDir) Read(_ []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *openDir) Stat() (fs.FileInfo, error) {
	return &dirInfo{name: pathutil.Base(d.name)}, nil
}

func (d *openDir) Close() error { return nil }

func (d *openDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.loaded {
		d.entries = d.a.children(d.name)
		d.loaded = true
	}
	if n <= 0 {
		out := d.entries
		d.entries = nil
		if out == nil {
			out = []fs.DirEntry{}
		}
		return out, nil
	}
	if len(d.entries) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(d.entries))
	out := d.entries[:n:n]
	d.entries = d.entries[n:]
	return out, nil
}

type fileInfo struct {
	name string
	size int64
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return fi.size }
func (fi *fileInfo) Mode() fs.FileMode  { return 0o444 }
func (fi *fileInfo) ModTime() time.Time { return time.Time{} }
func (fi *fileInfo) IsDir() bool        { return false }
func (fi *fileInfo) Sys() any           { return nil }

type dirInfo struct {
	name string
}

func (di *dirInfo) Name() string       { return di.name }
func (di *dirInfo) Size() int64        { return 0 }
func (di *dirInfo) Mode() fs.FileMode  { return fs.ModeDir | 0o555 }
func (di *dirInfo) ModTime() time.Time { return time.Time{} }
func (di *dirInfo) IsDir() bool        { return true }
func (di *dirInfo) Sys() any           { return nil }

// dirEntry resolves file info lazily since sizes need decompression.
type dirEntry struct {
	a    *Archive
	name string
	full string
	dir  bool
}

func (de *dirEntry) Name() string { return de.name }
func (de *dirEntry) IsDir() bool  { return de.dir }

func (de *dirEntry) Type() fs.FileMode {
	if de.dir {
		return fs.ModeDir
	}
	return 0
}

func (de *dirEntry) Info() (fs.FileInfo, error) {
	if de.dir {
		return &dirInfo{name: de.name}, nil
	}
	return de.a.Stat(de.full)
}
