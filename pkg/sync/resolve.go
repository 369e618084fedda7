package sync

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sidkik/syncdroid/pkg/errors"
)

// Mocked out for unit testing.
var getWorkingDirectory = os.Getwd

// Resolver turns user supplied source and destination paths into absolute
// paths. The side that the source lives on decides which side the
// destination lives on: syncing between two directories on the same side
// isn't supported.
type Resolver struct {
	Transport Transport

	// MountRoot is where the device is visible on the local filesystem.
	MountRoot string
}

// Source resolves the sync source. Relative paths are first looked up in the
// working directory, and then on the device. The source must be an existing
// directory.
func (r Resolver) Source(raw string) (string, error) {
	canonical, err := r.Transport.Canonicalize(raw)
	if err != nil {
		return "", errors.WithContext(err, "canonicalize")
	}

	var candidates []string
	if filepath.IsAbs(canonical) {
		candidates = []string{canonical}
	} else {
		wd, err := getWorkingDirectory()
		if err != nil {
			return "", errors.WithContext(err, "get working directory")
		}
		candidates = []string{
			filepath.Join(wd, canonical),
			filepath.Join(r.MountRoot, canonical),
		}
	}

	for _, candidate := range candidates {
		exists, err := r.Transport.Exists(candidate)
		if err != nil {
			return "", errors.WithContext(err, "stat source")
		}
		if !exists {
			continue
		}

		isDir, err := r.Transport.IsDir(candidate)
		if err != nil {
			return "", errors.WithContext(err, "stat source")
		}
		if !isDir {
			return "", errors.SourceNotADirectory{Path: candidate}
		}
		return candidate, nil
	}
	return "", errors.SourceNotFound{Path: raw}
}

// Destination resolves the sync destination for an already resolved
// `source`. If the source is on the device, the destination is on the
// computer, and vice versa. The destination doesn't need to exist.
func (r Resolver) Destination(raw, source string) (string, error) {
	if !IsWithin(source, r.MountRoot) {
		// Paths on the device are always relative to the mount root, even if
		// they start with a separator. Cleaning the path as if it were
		// absolute keeps `..` from escaping the mount.
		return filepath.Join(r.MountRoot, filepath.Clean(string(filepath.Separator)+raw)), nil
	}

	canonical, err := r.Transport.Canonicalize(raw)
	if err != nil {
		return "", errors.WithContext(err, "canonicalize")
	}
	if filepath.IsAbs(canonical) {
		return canonical, nil
	}

	wd, err := getWorkingDirectory()
	if err != nil {
		return "", errors.WithContext(err, "get working directory")
	}
	return filepath.Join(wd, canonical), nil
}

// IsWithin returns whether `path` is `root` or one of its descendants.
func IsWithin(path, root string) bool {
	if root == "" {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
