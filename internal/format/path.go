package format

import (
	"fmt"
	"path"
	"strings"
)

// RootDirectory is the Directory value of files stored at the archive root.
const RootDirectory = "__ROOT__"

// Path is the three-part key of an archive entry.
//
// Extension keeps its leading dot and is empty for files without one.
// Directory is slash-separated, or RootDirectory for top-level files.
type Path struct {
	Extension string
	Directory string
	Name      string
}

// ParsePath splits a slash-separated archive path into its parts.
//
// Leading and trailing slashes are dropped, runs of slashes collapse and
// backslashes are treated as separators. A dotfile such as ".gitignore"
// keeps its whole base as the name.
func ParsePath(s string) Path {
	s = normalize(s)

	dir, base := "", s
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		dir, base = s[:i], s[i+1:]
	}
	if dir == "" {
		dir = RootDirectory
	}

	ext := path.Ext(base)
	name := base[:len(base)-len(ext)]
	if name == "" {
		name, ext = base, ""
	}
	return Path{Extension: ext, Directory: dir, Name: name}
}

// String returns the canonical "directory/name.extension" form.
func (p Path) String() string {
	if p.Directory == RootDirectory || p.Directory == "" {
		return p.Name + p.Extension
	}
	return p.Directory + "/" + p.Name + p.Extension
}

// IsRoot reports whether the path has no directory component.
func (p Path) IsRoot() bool {
	return p.Directory == RootDirectory
}

// Validate reports whether the path can be stored in an index and
// survives a String/ParsePath round trip.
func (p Path) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPath)
	}
	for _, part := range []string{p.Extension, p.Directory, p.Name} {
		if strings.ContainsAny(part, "\x00\\") {
			return fmt.Errorf("%w: %q contains a reserved byte", ErrInvalidPath, part)
		}
	}
	if strings.Contains(p.Name+p.Extension, "/") {
		return fmt.Errorf("%w: %q contains a separator", ErrInvalidPath, p.Name+p.Extension)
	}
	if p.Extension != "" && p.Extension[0] != '.' {
		return fmt.Errorf("%w: extension %q lacks a leading dot", ErrInvalidPath, p.Extension)
	}
	if p.Directory == "" {
		return fmt.Errorf("%w: empty directory", ErrInvalidPath)
	}
	s := p.String()
	for _, seg := range strings.Split(s, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidPath, s)
		}
	}
	if ParsePath(s) != p {
		return fmt.Errorf("%w: %q is ambiguous", ErrInvalidPath, s)
	}
	return nil
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\\", "/")
	s = strings.Trim(s, "/")
	if !strings.Contains(s, "//") {
		return s
	}
	parts := strings.Split(s, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "/")
}
