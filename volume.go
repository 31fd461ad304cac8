package nla

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Extension is the file extension of every volume.
const Extension = ".nla"

const rootSuffix = ".root" + Extension

// VolumeFileName returns the file name of volume index for an archive
// named name that has count volumes in total.
func VolumeFileName(name string, index, count int) string {
	switch {
	case count <= 1:
		return name + Extension
	case index == 0:
		return name + rootSuffix
	default:
		return name + "." + strconv.Itoa(index) + Extension
	}
}

// CompanionPaths returns the companion volumes of the root volume at
// rootPath in numeric order. A root not named "<name>.root.nla" has no
// companions. Numbering must be contiguous from 1; a gap is reported as
// ErrMissingVolume.
func CompanionPaths(rootPath string) ([]string, error) {
	dir := filepath.Dir(rootPath)
	name, ok := strings.CutSuffix(filepath.Base(rootPath), rootSuffix)
	if !ok || name == "" {
		return nil, nil
	}

	found, err := companionFiles(dir, name)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(found))
	for i := 1; i <= len(found); i++ {
		p, ok := found[i]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingVolume, VolumeFileName(name, i, 2))
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// companionFiles maps companion numbers to paths for archive name in dir.
func companionFiles(dir, name string) (map[int]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	found := make(map[int]string)
	prefix := name + "."
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		rest, ok := strings.CutPrefix(de.Name(), prefix)
		if !ok {
			continue
		}
		num, ok := strings.CutSuffix(rest, Extension)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil || n < 1 || n > math.MaxUint16 || strconv.Itoa(n) != num {
			continue
		}
		found[n] = filepath.Join(dir, de.Name())
	}
	return found, nil
}

// existingVolumes returns every volume file in dir that belongs to an
// archive named name, in either the single or the split layout.
func existingVolumes(dir, name string) ([]string, error) {
	var paths []string
	for _, base := range []string{name + Extension, name + rootSuffix} {
		p := filepath.Join(dir, base)
		if _, err := os.Lstat(p); err == nil {
			paths = append(paths, p)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	found, err := companionFiles(dir, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return paths, nil
		}
		return nil, err
	}
	for _, n := range slices.Sorted(maps.Keys(found)) {
		paths = append(paths, found[n])
	}
	return paths, nil
}
