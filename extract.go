package nla

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"runtime"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/nla/internal/pathutil"
)

// ExtractStats reports the outcome of Extract.
type ExtractStats struct {
	// FileCount is the number of files written.
	FileCount int

	// TotalBytes is the number of decompressed bytes written.
	TotalBytes uint64

	// Skipped is the number of existing files left in place.
	Skipped int
}

// Extract writes every entry below destDir, creating directories as
// needed. Files are written through a temporary file and renamed into
// place. All writes go through an os.Root, so no entry can escape
// destDir. On failure the returned stats cover the files written so far.
func (a *Archive) Extract(ctx context.Context, destDir string, opts ...ExtractOption) (*ExtractStats, error) {
	cfg := extractConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = runtime.GOMAXPROCS(0)
	}
	if a.closed.Load() {
		return nil, ErrClosed
	}

	prefix := ""
	if cfg.prefix != "" {
		norm := NormalizePath(cfg.prefix)
		if !fs.ValidPath(norm) {
			return nil, &fs.PathError{Op: "extract", Path: cfg.prefix, Err: fs.ErrInvalid}
		}
		prefix = pathutil.DirPrefix(norm)
	}
	var selected []int
	for i, name := range a.names {
		if strings.HasPrefix(name, prefix) {
			selected = append(selected, i)
		}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(destDir)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	var (
		files   atomic.Int64
		bytes   atomic.Uint64
		skipped atomic.Int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for _, i := range selected {
		name := a.names[i]
		e := a.entries[a.keys[i]]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, wrote, err := a.extractOne(root, name, e, &cfg)
			if err != nil {
				return &fs.PathError{Op: "extract", Path: name, Err: err}
			}
			if !wrote {
				skipped.Add(1)
				return nil
			}
			done := files.Add(1)
			total := bytes.Add(n)
			if cfg.progress != nil {
				cfg.progress(ProgressEvent{
					Stage:      StageExtracting,
					Path:       name,
					BytesDone:  total,
					FilesDone:  int(done),
					FilesTotal: len(selected),
				})
			}
			return nil
		})
	}
	err = g.Wait()
	stats := &ExtractStats{
		FileCount:  int(files.Load()),
		TotalBytes: bytes.Load(),
		Skipped:    int(skipped.Load()),
	}
	a.log().Debug("extracted archive",
		"dest", destDir,
		"files", stats.FileCount,
		"bytes", stats.TotalBytes,
		"skipped", stats.Skipped)
	return stats, err
}

// extractOne writes one entry. It reports the bytes written and whether
// the file was written at all.
func (a *Archive) extractOne(root *os.Root, name string, e Entry, cfg *extractConfig) (uint64, bool, error) {
	target := name
	if _, err := root.Lstat(target); err == nil {
		switch {
		case cfg.overwrite:
		case cfg.skipExisting:
			return 0, false, nil
		default:
			return 0, false, fs.ErrExist
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return 0, false, err
	}

	data, err := a.readEntry(e)
	if err != nil {
		return 0, false, err
	}

	if dir := path.Dir(target); dir != "." {
		if err := root.MkdirAll(dir, 0o755); err != nil {
			return 0, false, err
		}
	}
	tmp := path.Join(path.Dir(target), ".nla-"+rand.Text())
	f, err := root.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, false, err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = root.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return 0, false, err
	}
	if err := f.Close(); err != nil {
		_ = root.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return 0, false, err
	}
	if err := root.Rename(tmp, target); err != nil {
		_ = root.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return 0, false, fmt.Errorf("rename: %w", err)
	}
	return uint64(len(data)), true, nil
}
