package sync

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/syncdroid/pkg/errors"
)

// Mocked out for unit testing.
var clock = clockwork.NewRealClock()

// Report summarizes the actions taken by Run.
type Report struct {
	// Copied is the number of files copied from the source to the
	// destination, including overwrites.
	Copied int

	// Skipped is the number of files that already existed in the
	// destination and weren't overwritten.
	Skipped int

	// Removed is the number of unmatched files deleted from the destination.
	Removed int

	// SyncedBack is the number of files copied from the destination back to
	// the source.
	SyncedBack int

	Elapsed time.Duration
}

// Add returns the sum of both reports.
func (r Report) Add(other Report) Report {
	return Report{
		Copied:     r.Copied + other.Copied,
		Skipped:    r.Skipped + other.Skipped,
		Removed:    r.Removed + other.Removed,
		SyncedBack: r.SyncedBack + other.SyncedBack,
		Elapsed:    r.Elapsed + other.Elapsed,
	}
}

// Run syncs cfg.Source into cfg.Destination.
//
// Every source directory that contains files is synced into the matching
// destination directory, which is created if necessary. Files that exist on
// both sides are only copied if cfg.OverwriteExisting is set. Files that
// only exist in the destination are handled according to cfg.Unmatched.
// When it's Synchronize, the run finishes with a single pass in the
// opposite direction so that files only present in the destination end up
// in the source as well.
//
// Run stops at the first error. Files that were synced before the error
// are left in place.
func Run(transport Transport, cfg Config) (Report, error) {
	start := clock.Now()

	var report Report
	err := run(transport, cfg, &report)
	report.Elapsed = clock.Since(start)
	return report, err
}

func run(transport Transport, cfg Config, report *Report) error {
	logger := cfg.logger()
	if cfg.reversed {
		logger = logger.WithField("pass", "reversed")
	}

	s := syncer{
		transport: transport,
		retrier:   NewRetrier(transport, cfg.Mount.URL, logger),
		filter:    NewFileFilter(cfg.IgnoredExtensions),
		cfg:       cfg,
		log:       logger,
		report:    report,
	}

	logger.Infof("Gathering the list of files in %s to synchronize, "+
		"this may take a while ...", cfg.Source)
	if err := Scan(transport, cfg.Source, cfg.Destination, s.filter, s.syncTask); err != nil {
		return err
	}

	if cfg.Unmatched != Synchronize || cfg.reversed {
		return nil
	}

	reversed := cfg.reverse()
	exists, err := transport.Exists(reversed.Source)
	if err != nil {
		return errors.TransportFailure{Op: fmt.Sprintf("stat %q", reversed.Source), Err: err}
	}
	if !exists {
		logger.Debugf("Nothing to synchronize back: %s doesn't exist", reversed.Source)
		return nil
	}

	logger.Infof("Synchronizing %s back to %s", reversed.Source, reversed.Destination)
	return run(transport, reversed, report)
}

type syncer struct {
	transport Transport
	retrier   Retrier
	filter    FileFilter
	cfg       Config
	log       log.FieldLogger
	report    *Report
}

func (s syncer) syncTask(task *SubdirTask) error {
	// Every file in the directory was filtered out.
	if len(task.SourceFiles) == 0 {
		s.log.Infof("No files to sync in %s", task.SourceDir)
		return nil
	}

	err := populateDestinationState(s.transport, s.retrier, s.filter, s.log, task)
	if err != nil {
		return err
	}

	for _, src := range task.SourceFiles {
		dst := task.DestinationPath(src)
		if existed := task.Match(dst); existed && !s.cfg.OverwriteExisting {
			s.log.Debugf("Skipping existing file %s", dst)
			s.report.Skipped++
			continue
		}

		s.log.Infof("Copying %s to %s", src, dst)
		if err := s.invoke(CopyOp{Src: src, Dst: dst}); err != nil {
			return err
		}

		if s.cfg.reversed {
			s.report.SyncedBack++
		} else {
			s.report.Copied++
		}
	}

	if s.cfg.Unmatched == Ignore {
		return nil
	}

	for _, unmatched := range task.DestinationFiles() {
		switch s.cfg.Unmatched {
		case Remove:
			s.log.Infof("Removing %s", unmatched)
			if err := s.invoke(RemoveOp{Path: unmatched}); err != nil {
				return err
			}
			s.report.Removed++
		case Synchronize:
			src := task.SourcePath(unmatched)
			s.log.Infof("Copying %s back to %s", unmatched, src)
			if err := s.invoke(CopyOp{Src: unmatched, Dst: src}); err != nil {
				return err
			}
			s.report.SyncedBack++
		}
	}
	return nil
}

func (s syncer) invoke(op Operation) error {
	if err := s.retrier.Invoke(op); err != nil {
		return errors.TransportFailure{Op: op.String(), Err: err}
	}
	return nil
}
