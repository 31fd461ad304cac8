// Package source enumerates and reads the regular files of a build's
// source directory.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// ErrTooManyFiles is returned when a tree holds more files than allowed.
	ErrTooManyFiles = errors.New("nla: too many files")

	// ErrNotRegular is returned when a path changed into a non-regular
	// file between Scan and ReadFile.
	ErrNotRegular = errors.New("nla: not a regular file")
)

// File is one regular file found by Scan.
type File struct {
	// Path is slash-separated and relative to the scan root.
	Path string

	// Size is the size reported during the walk.
	Size int64
}

// Scan walks root and returns its regular files sorted by path. Symbolic
// links and other non-regular files are skipped and reported to skip,
// which may be nil. maxFiles > 0 bounds the number of files.
func Scan(ctx context.Context, root *os.Root, maxFiles int, skip func(path string)) ([]File, error) {
	files := make([]File, 0, 64)
	err := fs.WalkDir(root.FS(), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, ok, err := regularInfo(d)
		if err != nil {
			return err
		}
		if !ok {
			if skip != nil {
				skip(path)
			}
			return nil
		}
		if maxFiles > 0 && len(files) >= maxFiles {
			return fmt.Errorf("%w: limit %d", ErrTooManyFiles, maxFiles)
		}
		files = append(files, File{Path: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}

// regularInfo resolves d to FileInfo and reports whether it is a regular
// file. Symlinks are never followed.
func regularInfo(d fs.DirEntry) (fs.FileInfo, bool, error) {
	if d.Type()&fs.ModeType != 0 {
		return nil, false, nil
	}
	info, err := d.Info()
	if err != nil {
		return nil, false, err
	}
	return info, info.Mode().IsRegular(), nil
}

// ReadFile reads the file at the slash-separated path under root without
// following symlinks.
func ReadFile(root *os.Root, path string) ([]byte, error) {
	f, err := openNoFollow(root, filepath.FromSlash(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, &fs.PathError{Op: "read", Path: path, Err: ErrNotRegular}
	}

	return io.ReadAll(f)
}
