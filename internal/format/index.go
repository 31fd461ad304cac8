package format

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"slices"
	"unicode/utf8"
)

// noExtension is the on-disk extension group for files without an
// extension; the empty string is reserved as the level terminator.
const noExtension = "__NOEXT__"

// Tree groups entries by extension, then directory, then name. It only
// fixes the serialization order of the index.
type Tree struct {
	exts map[string]map[string]map[string]*Entry
	n    int
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{exts: make(map[string]map[string]map[string]*Entry)}
}

// Len returns the number of entries in the tree.
func (t *Tree) Len() int {
	return t.n
}

// Add inserts an entry. The path must be valid and not already present.
func (t *Tree) Add(p Path, e Entry) error {
	if err := p.Validate(); err != nil {
		return err
	}
	dirs, ok := t.exts[p.Extension]
	if !ok {
		dirs = make(map[string]map[string]*Entry)
		t.exts[p.Extension] = dirs
	}
	names, ok := dirs[p.Directory]
	if !ok {
		names = make(map[string]*Entry)
		dirs[p.Directory] = names
	}
	if _, dup := names[p.Name]; dup {
		return fmt.Errorf("%w: duplicate path %q", ErrInvalidPath, p)
	}
	names[p.Name] = &e
	t.n++
	return nil
}

// Walk visits every entry in serialization order. The callback may
// modify the entry in place; later serialization sees the change.
func (t *Tree) Walk(fn func(p Path, e *Entry) error) error {
	for _, ext := range sortedKeys(t.exts) {
		dirs := t.exts[ext]
		for _, dir := range sortedKeys(dirs) {
			names := dirs[dir]
			for _, name := range sortedKeys(names) {
				if err := fn(Path{Extension: ext, Directory: dir, Name: name}, names[name]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// WriteTo serializes the index grammar:
//
//	{ ext\0 { dir\0 { name\0 record }* \0 }* \0 }* \0
func (t *Tree) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	var rec [EntrySize]byte

	for _, ext := range sortedKeys(t.exts) {
		dirs := t.exts[ext]
		writeString(bw, diskExtension(ext))
		for _, dir := range sortedKeys(dirs) {
			names := dirs[dir]
			writeString(bw, dir)
			for _, name := range sortedKeys(names) {
				writeString(bw, name)
				names[name].EncodeTo(rec[:])
				_, _ = bw.Write(rec[:]) //nolint:errcheck // surfaced by Flush
			}
			_ = bw.WriteByte(0) //nolint:errcheck // surfaced by Flush
		}
		_ = bw.WriteByte(0) //nolint:errcheck // surfaced by Flush
	}
	_ = bw.WriteByte(0) //nolint:errcheck // surfaced by Flush

	if err := bw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// ReadIndex parses a serialized index. data must be exactly the TreeSize
// bytes that follow the dictionary; leftover bytes are an error.
func ReadIndex(data []byte) (map[Path]Entry, error) {
	p := indexParser{data: data}
	entries := make(map[Path]Entry)

	for {
		ext, err := p.str()
		if err != nil {
			return nil, err
		}
		if ext == "" {
			break
		}
		if ext == noExtension {
			ext = ""
		}
		for {
			dir, err := p.str()
			if err != nil {
				return nil, err
			}
			if dir == "" {
				break
			}
			for {
				name, err := p.str()
				if err != nil {
					return nil, err
				}
				if name == "" {
					break
				}
				key := Path{Extension: ext, Directory: dir, Name: name}
				if err := key.Validate(); err != nil {
					return nil, fmt.Errorf("%w: %w", ErrFormat, err)
				}
				rec, err := p.next(EntrySize)
				if err != nil {
					return nil, err
				}
				e, err := DecodeEntry(rec)
				if err != nil {
					return nil, fmt.Errorf("entry %s: %w", key, err)
				}
				if _, dup := entries[key]; dup {
					return nil, fmt.Errorf("%w: duplicate entry %s", ErrFormat, key)
				}
				entries[key] = e
			}
		}
	}

	if p.pos != len(p.data) {
		return nil, fmt.Errorf("%w: %d trailing index bytes", ErrFormat, len(p.data)-p.pos)
	}
	return entries, nil
}

type indexParser struct {
	data []byte
	pos  int
}

// str reads one NUL-terminated string.
func (p *indexParser) str() (string, error) {
	i := bytes.IndexByte(p.data[p.pos:], 0)
	if i < 0 {
		return "", fmt.Errorf("%w: unterminated index string at %d", ErrFormat, p.pos)
	}
	raw := p.data[p.pos : p.pos+i]
	p.pos += i + 1
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: invalid UTF-8 in index", ErrFormat)
	}
	return string(raw), nil
}

func (p *indexParser) next(n int) ([]byte, error) {
	if len(p.data)-p.pos < n {
		return nil, fmt.Errorf("%w: truncated index", ErrFormat)
	}
	b := p.data[p.pos : p.pos+n]
	p.pos += n
	return b, nil
}

func diskExtension(ext string) string {
	if ext == "" {
		return noExtension
	}
	return ext
}

func writeString(bw *bufio.Writer, s string) {
	_, _ = bw.WriteString(s) //nolint:errcheck // surfaced by Flush
	_ = bw.WriteByte(0)      //nolint:errcheck // surfaced by Flush
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
