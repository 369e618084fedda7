package util

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/syncdroid/pkg/errors"
)

// Mocked out for unit testing.
var (
	exit             = os.Exit
	stderr io.Writer = os.Stderr
)

// HandleFatalError prints the error and exits. If the error has a friendly
// message, only that message is shown to the user. The full error is still
// logged at the debug level.
func HandleFatalError(err error) {
	log.WithError(err).Debug("Fatal error")

	if rootErr := errors.RootCause(err); rootErr != err {
		log.WithError(rootErr).Debug("Root cause")
	}

	fmt.Fprintf(stderr, "Error: %s\n", errors.GetFriendlyMessage(err))
	exit(1)
}

// HandlePanic recovers from panics, and prints the stack trace before
// exiting. It should be deferred at the start of main.
func HandlePanic() {
	if r := recover(); r != nil {
		fmt.Fprintf(stderr, "syncdroid crashed: %v\n\n%s\n", r, debug.Stack())
		exit(1)
	}
}

// NewLogger returns the logger that syncing progress is written to. Only
// warnings are shown unless `verbose` is set. Debug logging, enabled through
// the environment, always takes precedence.
func NewLogger(verbose bool) *log.Logger {
	logger := log.New()
	logger.SetOutput(stderr)

	switch {
	case log.IsLevelEnabled(log.DebugLevel):
		logger.SetLevel(log.DebugLevel)
	case verbose:
		logger.SetLevel(log.InfoLevel)
	default:
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}
