package gvfs

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Runner runs an external command and returns its standard output.
type Runner interface {
	Run(name string, args ...string) (string, error)
}

// CommandError is returned when a command exits with an error, or writes
// anything to stderr.
type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

func (err CommandError) Error() string {
	if err.Stderr != "" {
		return fmt.Sprintf("command %q failed: %s", err.Command, err.Stderr)
	}
	return fmt.Sprintf("command %q failed: %s", err.Command, err.Err)
}

func (err CommandError) Unwrap() error {
	return err.Err
}

// ExecRunner runs commands on the local machine.
type ExecRunner struct{}

// Run runs the command and waits for it to exit. The gvfs tools don't always
// exit with a non-zero status when they fail, so any output on stderr is
// treated as a failure.
func (ExecRunner) Run(name string, args ...string) (string, error) {
	command := strings.Join(append([]string{name}, args...), " ")
	log.WithField("command", command).Debug("Running command")

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil || stderr.Len() != 0 {
		return "", CommandError{
			Command: command,
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}
