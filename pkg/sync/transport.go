package sync

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/syncdroid/pkg/errors"
)

// Transport is the set of file operations the sync engine relies on. The
// remote side is only reachable through a mount that may drop connections,
// so every method may fail for reasons unrelated to the paths involved.
type Transport interface {
	Copy(src, dst string) error

	// Mkdir creates the directory and any missing parents.
	Mkdir(path string) error

	// Remove deletes the file. Removing a file that doesn't exist isn't an
	// error.
	Remove(path string) error

	Mount(url string) error

	// List returns the entries of a directory, sorted by name.
	List(dir string) ([]os.FileInfo, error)

	Exists(path string) (bool, error)
	IsDir(path string) (bool, error)

	// Canonicalize resolves `.`, `..`, `~` and links, and strips trailing
	// separators. Paths that can't be resolved are returned cleaned, but
	// otherwise unchanged.
	Canonicalize(path string) (string, error)
}

// An Operation is a transport call that modifies a filesystem, and so may
// be retried after a remount.
type Operation interface {
	Execute(Transport) error
	String() string
}

// CopyOp copies Src to Dst.
type CopyOp struct {
	Src, Dst string
}

func (op CopyOp) Execute(t Transport) error {
	return t.Copy(op.Src, op.Dst)
}

func (op CopyOp) String() string {
	return fmt.Sprintf("copy %q to %q", op.Src, op.Dst)
}

// MkdirOp creates Path and its parents.
type MkdirOp struct {
	Path string
}

func (op MkdirOp) Execute(t Transport) error {
	return t.Mkdir(op.Path)
}

func (op MkdirOp) String() string {
	return fmt.Sprintf("mkdir %q", op.Path)
}

// RemoveOp removes Path.
type RemoveOp struct {
	Path string
}

func (op RemoveOp) Execute(t Transport) error {
	return t.Remove(op.Path)
}

func (op RemoveOp) String() string {
	return fmt.Sprintf("remove %q", op.Path)
}

// connectionResetSignature is the suffix of transport errors caused by the
// device dropping the connection. Remounting the device recovers from them.
const connectionResetSignature = "connection reset by peer"

// IsConnectionReset returns whether `err` was caused by the device
// connection being reset.
func IsConnectionReset(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.HasSuffix(msg, connectionResetSignature)
}

// Retrier runs operations against a transport. If an operation fails
// because the connection was reset, the device is remounted and the
// operation is attempted exactly once more.
type Retrier struct {
	transport Transport
	mountURL  string
	log       log.FieldLogger
}

// NewRetrier creates a Retrier that remounts `mountURL` when needed.
func NewRetrier(transport Transport, mountURL string, logger log.FieldLogger) Retrier {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return Retrier{transport: transport, mountURL: mountURL, log: logger}
}

// Invoke runs `op`. Errors other than a connection reset, and any error from
// the second attempt, are returned unchanged.
func (r Retrier) Invoke(op Operation) error {
	err := op.Execute(r.transport)
	if err == nil || !IsConnectionReset(err) {
		return err
	}

	r.log.WithError(err).WithField("op", op.String()).Warn(
		"Connection to the device was reset. Remounting and trying again.")
	if err := r.transport.Mount(r.mountURL); err != nil {
		return errors.WithContext(err, "remount")
	}
	return op.Execute(r.transport)
}
