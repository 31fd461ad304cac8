package nla

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/nla/codec"
	"github.com/meigma/nla/internal/format"
	"github.com/meigma/nla/internal/source"
	"github.com/meigma/nla/internal/substream"
)

// DefaultMaxFiles is the default limit used when no MaxFiles option is set.
const DefaultMaxFiles = 200_000

// maxTrainingBytes caps the sample corpus read for dictionary training.
const maxTrainingBytes = 128 << 20

// BuildResult describes an archive written by Create.
type BuildResult struct {
	// RootPath is the path of the root volume.
	RootPath string

	// VolumePaths lists the companion volumes in order; empty for a
	// single-volume archive.
	VolumePaths []string

	// Entries is the number of files stored.
	Entries int

	// TreeSize is the serialized index length.
	TreeSize uint64

	// DictSize is the stored dictionary length.
	DictSize uint64

	// VolumeSizes holds the data segment length of each volume, root first.
	VolumeSizes []uint64

	// DataSize is the total compressed bytes across all volumes.
	DataSize uint64
}

// Create builds an archive from the regular files below srcDir and
// writes its volumes to destDir.
//
// Every file is compressed on its own with the configured codec. When
// the codec can train a dictionary, the dictionary is trained on the
// source files first and stored in the root volume. Entries are laid out
// grouped by extension, then directory, then name, and split across
// volumes according to CreateWithMaxVolumeSize.
//
// Symbolic links are not followed and empty directories are not stored.
// Volumes are written to temporary files and renamed into place once
// complete, companions before the root; a failed build removes whatever
// it wrote. With CreateWithForce the previous archive is removed just
// before the renames, so a failure while renaming leaves neither.
func Create(ctx context.Context, srcDir, destDir string, opts ...CreateOption) (*BuildResult, error) {
	cfg := createConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	owned, err := cfg.resolve(srcDir)
	if err != nil {
		return nil, err
	}
	if owned {
		defer codec.Close(cfg.codec) //nolint:errcheck // builtin codec close does not fail
	}

	b := &builder{cfg: cfg}
	return b.build(ctx, srcDir, destDir)
}

// resolve fills defaults and validates the configuration without
// touching the filesystem. It reports whether the codec was created here.
func (cfg *createConfig) resolve(srcDir string) (bool, error) {
	if cfg.name == "" {
		cfg.name = filepath.Base(filepath.Clean(srcDir))
		if cfg.name == "." || cfg.name == ".." || cfg.name == string(filepath.Separator) {
			cfg.name = "data"
		}
	}
	if strings.ContainsAny(cfg.name, `/\`+"\x00") || cfg.name == "." || cfg.name == ".." {
		return false, fmt.Errorf("nla: invalid archive name %q", cfg.name)
	}
	if cfg.registry == nil {
		cfg.registry = codec.DefaultRegistry()
	}
	if cfg.workers < 1 {
		cfg.workers = runtime.GOMAXPROCS(0)
	}
	switch {
	case cfg.maxFiles == 0:
		cfg.maxFiles = DefaultMaxFiles
	case cfg.maxFiles < 0:
		cfg.maxFiles = 0
	}

	if cfg.codec != nil {
		if tag := cfg.codec.Tag(); !cfg.registry.Has(tag) {
			return false, fmt.Errorf("%w: %s is not registered", codec.ErrUnknown, tag)
		}
		return false, nil
	}
	c, err := cfg.registry.New(codec.TagStore)
	if err != nil {
		return false, err
	}
	cfg.codec = c
	return true, nil
}

// builder holds the state of one Create call.
type builder struct {
	cfg createConfig
}

// compressedFile is one file's compressed bytes, parked in the spool.
type compressedFile struct {
	path   EntryPath
	spool  int64
	size   uint64
	digest Digest
	volume int
}

func (b *builder) log() *slog.Logger {
	if b.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.cfg.logger
}

func (b *builder) report(ev ProgressEvent) {
	if b.cfg.progress != nil {
		b.cfg.progress(ev)
	}
}

func (b *builder) build(ctx context.Context, srcDir, destDir string) (*BuildResult, error) {
	existing, err := existingVolumes(destDir, b.cfg.name)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 && !b.cfg.force {
		return nil, fmt.Errorf("%w: %s", ErrExist, existing[0])
	}

	root, err := os.OpenRoot(srcDir)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	log := b.log().With("name", b.cfg.name, "codec", b.cfg.codec.Tag().String())
	log.Info("building archive", "src", srcDir, "dest", destDir)

	b.report(ProgressEvent{Stage: StageEnumerating})
	files, err := source.Scan(ctx, root, b.cfg.maxFiles, func(path string) {
		log.Debug("skipping non-regular file", "path", path)
	})
	if err != nil {
		return nil, err
	}
	paths := make([]EntryPath, len(files))
	for i, f := range files {
		p := ParsePath(f.Path)
		if p.String() != f.Path {
			return nil, fmt.Errorf("%w: %q cannot be stored", ErrInvalidPath, f.Path)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		paths[i] = p
	}

	dict, err := b.train(ctx, root, files)
	if err != nil {
		return nil, err
	}
	if dict == nil {
		// A reused codec may still hold a dictionary from an earlier build;
		// its frames need that dictionary to decode.
		dict = codec.LoadedDictionary(b.cfg.codec)
		if len(dict) > 0 {
			b.log().Debug("using loaded dictionary", "dict_size", len(dict))
		}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, err
	}
	spool, err := os.CreateTemp(destDir, ".nla-spool-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = spool.Close()           //nolint:errcheck // spool is scratch space
		_ = os.Remove(spool.Name()) //nolint:errcheck // best-effort cleanup
	}()

	compressed, err := b.compress(ctx, root, files, paths, spool)
	if err != nil {
		return nil, err
	}

	tree, order, sizes, err := b.layout(compressed)
	if err != nil {
		return nil, err
	}

	result, err := b.write(destDir, existing, dict, tree, order, compressed, sizes, spool)
	if err != nil {
		return nil, err
	}
	log.Info("built archive",
		"entries", result.Entries,
		"volumes", len(result.VolumeSizes),
		"dict_size", result.DictSize,
		"data_size", result.DataSize)
	return result, nil
}

// train builds a dictionary from the source files when the codec
// supports it. It returns the dictionary, or nil when none is used.
func (b *builder) train(ctx context.Context, root *os.Root, files []source.File) ([]byte, error) {
	c := b.cfg.codec
	if !codec.SupportsTraining(c) || len(files) == 0 {
		return nil, nil
	}
	b.report(ProgressEvent{Stage: StageTraining, FilesTotal: len(files)})

	samples := make([][]byte, 0, len(files))
	var total int64
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if total+f.Size > maxTrainingBytes {
			break
		}
		data, err := source.ReadFile(root, f.Path)
		if err != nil {
			return nil, err
		}
		samples = append(samples, data)
		total += int64(len(data))
		b.report(ProgressEvent{Stage: StageTraining, Path: f.Path, FilesDone: i + 1, FilesTotal: len(files)})
	}

	dict, err := codec.Train(c, samples)
	if errors.Is(err, codec.ErrDictionary) {
		b.log().Warn("dictionary training failed, building without a dictionary", "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(dict) == 0 {
		b.log().Debug("dictionary training skipped", "samples", len(samples), "bytes", total)
		return nil, nil
	}
	if err := c.LoadDictionary(dict); err != nil {
		return nil, err
	}
	b.log().Debug("trained dictionary", "samples", len(samples), "bytes", total, "dict_size", len(dict))
	return dict, nil
}

// compress compresses every file on the worker pool and appends the
// results to spool.
func (b *builder) compress(ctx context.Context, root *os.Root, files []source.File, paths []EntryPath, spool *os.File) ([]compressedFile, error) {
	out := make([]compressedFile, len(files))
	var (
		mu   sync.Mutex
		end  int64
		done atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := source.ReadFile(root, f.Path)
			if err != nil {
				return err
			}
			packed, err := b.cfg.codec.Compress(data)
			if err != nil {
				return fmt.Errorf("compress %s: %w", f.Path, err)
			}

			mu.Lock()
			off := end
			_, err = spool.Write(packed)
			end += int64(len(packed))
			mu.Unlock()
			if err != nil {
				return err
			}

			out[i] = compressedFile{
				path:   paths[i],
				spool:  off,
				size:   uint64(len(packed)),
				digest: format.ComputeDigest(packed),
			}
			b.report(ProgressEvent{
				Stage:      StageCompressing,
				Path:       f.Path,
				BytesDone:  uint64(len(data)),
				FilesDone:  int(done.Add(1)),
				FilesTotal: len(files),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// layout builds the index and assigns every entry a volume and offset.
// It returns the tree, the indexes into files in data order and the data
// size of each volume.
func (b *builder) layout(files []compressedFile) (*format.Tree, []int, []uint64, error) {
	tree := format.NewTree()
	byPath := make(map[EntryPath]int, len(files))
	for i, f := range files {
		if err := tree.Add(f.path, Entry{Digest: f.digest, Size: f.size}); err != nil {
			return nil, nil, nil, err
		}
		byPath[f.path] = i
	}

	order := make([]int, 0, len(files))
	sizes := []uint64{0}
	limit := b.cfg.maxVolumeSize
	err := tree.Walk(func(p EntryPath, e *Entry) error {
		vol := len(sizes) - 1
		running := sizes[vol]
		if limit > 0 && running > 0 && running+e.Size > limit {
			if vol+1 > math.MaxUint16 {
				return fmt.Errorf("%w: more than %d volumes", ErrSizeOverflow, math.MaxUint16+1)
			}
			sizes = append(sizes, 0)
			vol, running = vol+1, 0
		}
		if e.Size > math.MaxInt64-running {
			return fmt.Errorf("%w: volume %d data exceeds %d bytes", ErrSizeOverflow, vol, int64(math.MaxInt64))
		}
		e.Volume = uint16(vol) //nolint:gosec // bounded above
		e.Offset = running
		sizes[vol] = running + e.Size
		i := byPath[p]
		files[i].volume = vol
		order = append(order, i)
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return tree, order, sizes, nil
}

// write produces the volume files and renames them into place.
func (b *builder) write(destDir string, existing []string, dict []byte, tree *format.Tree, order []int, files []compressedFile, sizes []uint64, spool *os.File) (_ *BuildResult, err error) {
	count := len(sizes)
	temps := make([]*os.File, 0, count)
	defer func() {
		if err == nil {
			return
		}
		for _, f := range temps {
			_ = f.Close()           //nolint:errcheck // already failing
			_ = os.Remove(f.Name()) //nolint:errcheck // best-effort cleanup
		}
	}()
	for range count {
		f, err := os.CreateTemp(destDir, ".nla-volume-*")
		if err != nil {
			return nil, err
		}
		temps = append(temps, f)
	}

	treeSize, err := writeRootPrefix(temps[0], b.cfg.codec.Tag(), dict, tree)
	if err != nil {
		return nil, err
	}
	b.log().Debug("wrote index", "entries", tree.Len(), "tree_size", treeSize)

	var total uint64
	for _, n := range sizes {
		total += n
	}
	var written uint64
	vol := -1
	var bw *bufio.Writer
	for n, i := range order {
		f := files[i]
		if f.volume != vol {
			if bw != nil {
				if err := bw.Flush(); err != nil {
					return nil, err
				}
			}
			vol = f.volume
			bw = bufio.NewWriterSize(temps[vol], 1<<20)
			b.log().Debug("writing volume", "volume", vol, "data_size", sizes[vol])
		}
		if _, err := io.Copy(bw, io.NewSectionReader(spool, f.spool, int64(f.size))); err != nil { //nolint:gosec // spool offsets fit int64
			return nil, err
		}
		written += f.size
		b.report(ProgressEvent{
			Stage:      StageWriting,
			Path:       f.path.String(),
			BytesDone:  written,
			BytesTotal: total,
			FilesDone:  n + 1,
			FilesTotal: len(order),
		})
	}
	if bw != nil {
		if err := bw.Flush(); err != nil {
			return nil, err
		}
	}

	for _, f := range temps {
		if err := f.Sync(); err != nil {
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}

	if b.cfg.force {
		for _, p := range existing {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	result := &BuildResult{
		Entries:     tree.Len(),
		TreeSize:    treeSize,
		DictSize:    uint64(len(dict)),
		VolumeSizes: sizes,
		DataSize:    total,
	}
	finals := make([]string, count)
	names := make([]string, count)
	for i, f := range temps {
		finals[i] = filepath.Join(destDir, VolumeFileName(b.cfg.name, i, count))
		names[i] = f.Name()
	}
	if err := placeVolumes(names, finals); err != nil {
		return nil, err
	}
	result.RootPath = finals[0]
	result.VolumePaths = finals[1:]
	return result, nil
}

// placeVolumes renames temps[i] to finals[i], companions first and the
// root last. On failure the volumes already renamed are removed again.
func placeVolumes(temps, finals []string) error {
	for i := len(temps) - 1; i >= 0; i-- {
		if err := os.Rename(temps[i], finals[i]); err != nil {
			for _, p := range finals[i+1:] {
				_ = os.Remove(p) //nolint:errcheck // best-effort cleanup
			}
			return err
		}
	}
	return nil
}

// writeRootPrefix writes the header, dictionary and index to w. The
// header is written with a zero TreeSize, which is patched in place once
// the index length is known. w is left positioned at the data segment.
func writeRootPrefix(w io.ReadWriteSeeker, tag codec.Tag, dict []byte, tree *format.Tree) (uint64, error) {
	h := format.NewHeader(tag, uint64(len(dict)))
	var buf [format.HeaderSize]byte
	h.EncodeTo(buf[:])
	if _, err := w.Write(buf[:]); err != nil {
		return 0, err
	}
	if _, err := w.Write(dict); err != nil {
		return 0, err
	}
	n, err := tree.WriteTo(w)
	if err != nil {
		return 0, err
	}
	treeSize := uint64(n) //nolint:gosec // WriteTo never reports a negative count

	field, err := substream.New(w, format.TreeSizeOffset, 8)
	if err != nil {
		return 0, err
	}
	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], treeSize)
	if _, err := field.Write(size[:]); err != nil {
		return 0, fmt.Errorf("patch tree size: %w", err)
	}
	if _, err := w.Seek(0, io.SeekEnd); err != nil {
		return 0, err
	}
	return treeSize, nil
}
