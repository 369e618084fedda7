package sync

import (
	"fmt"
	"path/filepath"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/sidkik/syncdroid/pkg/errors"
)

// A SubdirTask is the unit of work for syncing a single source directory
// into its destination directory. Only the files directly in SourceDir are
// part of the task. Subdirectories get their own tasks.
type SubdirTask struct {
	SourceDir      string
	DestinationDir string

	// SourceFiles are the absolute paths of the files to sync, in name order.
	SourceFiles []string

	// destinationFiles are the files that currently exist in DestinationDir.
	// Files are removed from the set as they're matched with a source file,
	// so that only unmatched files remain once all source files are handled.
	destinationFiles mapset.Set[string]
}

func newSubdirTask(sourceDir, destinationDir string) *SubdirTask {
	return &SubdirTask{
		SourceDir:        sourceDir,
		DestinationDir:   destinationDir,
		destinationFiles: mapset.NewThreadUnsafeSet[string](),
	}
}

// DestinationPath returns the path that `sourceFile` should be synced to.
func (task *SubdirTask) DestinationPath(sourceFile string) string {
	return rebase(sourceFile, task.SourceDir, task.DestinationDir)
}

// SourcePath returns the path in the source directory that corresponds to
// `destinationFile`.
func (task *SubdirTask) SourcePath(destinationFile string) string {
	return rebase(destinationFile, task.DestinationDir, task.SourceDir)
}

// AddDestinationFile records that `path` exists in the destination directory.
func (task *SubdirTask) AddDestinationFile(path string) {
	task.destinationFiles.Add(path)
}

// DestinationFiles returns the destination files that haven't been matched
// yet, sorted. Once every source file has been matched, these are the
// unmatched files.
func (task *SubdirTask) DestinationFiles() []string {
	files := task.destinationFiles.ToSlice()
	sort.Strings(files)
	return files
}

// Match marks the destination file `path` as matched by a source file. It
// returns whether the file existed in the destination. A file can only be
// matched once.
func (task *SubdirTask) Match(path string) bool {
	if !task.destinationFiles.Contains(path) {
		return false
	}
	task.destinationFiles.Remove(path)
	return true
}

// rebase moves `path` from the `from` directory to the `to` directory.
func rebase(path, from, to string) string {
	rel, err := filepath.Rel(from, path)
	if err != nil {
		return filepath.Join(to, filepath.Base(path))
	}
	return filepath.Join(to, rel)
}

// Scan walks the source tree, and calls `fn` with a task for every directory
// that contains files. Directories are visited depth first, parents before
// children, and siblings in name order. Directories that only contain
// subdirectories are still descended into.
//
// Scanning stops at the first error returned by `fn`. The tree is listed as
// it's walked, so changes that `fn` makes to directories that haven't been
// visited yet are observed.
func Scan(transport Transport, sourceRoot, destinationRoot string, filter FileFilter,
	fn func(*SubdirTask) error) error {
	sourceRoot = filepath.Clean(sourceRoot)
	destinationRoot = filepath.Clean(destinationRoot)
	return scanDir(transport, sourceRoot, sourceRoot, destinationRoot, filter, fn)
}

func scanDir(transport Transport, dir, sourceRoot, destinationRoot string, filter FileFilter,
	fn func(*SubdirTask) error) error {
	entries, err := transport.List(dir)
	if err != nil {
		return errors.TransportFailure{Op: fmt.Sprintf("list %q", dir), Err: err}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var files, subdirs []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			subdirs = append(subdirs, path)
		} else {
			files = append(files, path)
		}
	}

	// Directories without files don't need a task, but directories whose
	// files are all filtered out still get an empty one.
	if len(files) != 0 {
		rel, err := filepath.Rel(sourceRoot, dir)
		if err != nil {
			return errors.WithContext(err, "relative path")
		}

		task := newSubdirTask(dir, filepath.Join(destinationRoot, rel))
		for _, f := range files {
			if filter.Allows(f) {
				task.SourceFiles = append(task.SourceFiles, f)
			}
		}

		if err := fn(task); err != nil {
			return err
		}
	}

	for _, subdir := range subdirs {
		if err := scanDir(transport, subdir, sourceRoot, destinationRoot, filter, fn); err != nil {
			return err
		}
	}
	return nil
}
