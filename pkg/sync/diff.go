package sync

import (
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/syncdroid/pkg/errors"
)

// populateDestinationState records the files that already exist in the
// task's destination directory. If the directory doesn't exist yet, it's
// created, and there's nothing to record.
// Subdirectories of the destination are never recorded. They're handled by
// the tasks for the matching source directories.
func populateDestinationState(transport Transport, retrier Retrier, filter FileFilter,
	logger log.FieldLogger, task *SubdirTask) error {
	dir := task.DestinationDir
	exists, err := transport.Exists(dir)
	if err != nil {
		return errors.TransportFailure{Op: fmt.Sprintf("stat %q", dir), Err: err}
	}

	if !exists {
		logger.Infof("Creating directory %s", dir)
		op := MkdirOp{Path: dir}
		if err := retrier.Invoke(op); err != nil {
			return errors.TransportFailure{Op: op.String(), Err: err}
		}
		return nil
	}

	entries, err := transport.List(dir)
	if err != nil {
		return errors.TransportFailure{Op: fmt.Sprintf("list %q", dir), Err: err}
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if filter.Allows(path) {
			task.AddDestinationFile(path)
		}
	}
	return nil
}
