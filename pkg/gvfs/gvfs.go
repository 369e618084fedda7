package gvfs

import (
	"os"
	"path/filepath"
	"strings"

	goversion "github.com/hashicorp/go-version"
	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/syncdroid/pkg/errors"
)

// gio replaced the gvfs-* commands in glib 2.50. The old commands were
// removed entirely a few releases later.
const minGioVersion = ">= 2.50"

// Mocked out for unit testing.
var expandHome = homedir.Expand

// Tool holds the commands used to modify files through gvfs.
type Tool struct {
	Name   string
	copy   []string
	mkdir  []string
	remove []string
	mount  []string
}

var (
	// Gio is the unified gvfs command line client.
	Gio = Tool{
		Name:   "gio",
		copy:   []string{"gio", "copy"},
		mkdir:  []string{"gio", "mkdir", "-p"},
		remove: []string{"gio", "remove", "-f"},
		mount:  []string{"gio", "mount"},
	}

	// Legacy is the set of gvfs-* commands shipped before gio existed.
	Legacy = Tool{
		Name:   "gvfs",
		copy:   []string{"gvfs-copy"},
		mkdir:  []string{"gvfs-mkdir", "-p"},
		remove: []string{"gvfs-rm", "-f"},
		mount:  []string{"gvfs-mount"},
	}
)

// DetectTool picks the gvfs client installed on the machine. It falls back
// to the legacy commands if gio is missing, or too old to understand the
// commands used by Transport.
func DetectTool(runner Runner) Tool {
	out, err := runner.Run("gio", "version")
	if err != nil {
		log.WithError(err).Debug("Failed to get gio version. Using legacy gvfs commands.")
		return Legacy
	}

	version, err := goversion.NewVersion(strings.TrimSpace(out))
	if err != nil {
		log.WithError(err).WithField("version", out).Debug("Failed to parse gio version")
		return Legacy
	}

	constraint, err := goversion.NewConstraint(minGioVersion)
	if err != nil {
		panic(err)
	}

	if !constraint.Check(version) {
		log.WithField("version", version).Debug("gio is too old. Using legacy gvfs commands.")
		return Legacy
	}
	return Gio
}

// Transport modifies files through the gvfs command line tools, and reads
// them through the FUSE mount that gvfs exposes under /run/user.
type Transport struct {
	runner Runner
	fs     afero.Fs
	tool   Tool
}

// New returns a Transport that runs commands on the local machine.
func New() *Transport {
	runner := ExecRunner{}
	return NewWithRunner(runner, afero.NewOsFs(), DetectTool(runner))
}

// NewWithRunner returns a Transport that runs commands with the given runner
// and reads the filesystem through fs.
func NewWithRunner(runner Runner, fs afero.Fs, tool Tool) *Transport {
	return &Transport{runner: runner, fs: fs, tool: tool}
}

// Tool returns the gvfs client used by the transport.
func (t *Transport) Tool() Tool {
	return t.tool
}

func (t *Transport) Copy(src, dst string) error {
	return t.run(t.tool.copy, src, dst)
}

func (t *Transport) Mkdir(path string) error {
	return t.run(t.tool.mkdir, path)
}

func (t *Transport) Remove(path string) error {
	return t.run(t.tool.remove, path)
}

func (t *Transport) Mount(url string) error {
	return t.run(t.tool.mount, url)
}

// Move moves src to dst. gvfs moves aren't reliable on MTP devices, so the
// file is copied and then removed.
func (t *Transport) Move(src, dst string) error {
	if err := t.Copy(src, dst); err != nil {
		return err
	}
	return t.Remove(src)
}

func (t *Transport) List(dir string) ([]os.FileInfo, error) {
	return afero.ReadDir(t.fs, dir)
}

func (t *Transport) Exists(path string) (bool, error) {
	return afero.Exists(t.fs, path)
}

func (t *Transport) IsDir(path string) (bool, error) {
	return afero.IsDir(t.fs, path)
}

// Canonicalize expands the home directory, follows symbolic links and strips
// trailing separators. Relative paths are only made absolute if they exist
// relative to the working directory, so that they can still be resolved
// against the device mount.
func (t *Transport) Canonicalize(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	expanded, err := expandHome(path)
	if err != nil {
		return "", errors.WithContext(err, "expand home directory")
	}

	mode := "-f"
	if !filepath.IsAbs(expanded) {
		mode = "-e"
	}

	if resolved, err := t.runner.Run("readlink", mode, expanded); err == nil && resolved != "" {
		expanded = resolved
	}
	return filepath.Clean(expanded), nil
}

func (t *Transport) run(command []string, args ...string) error {
	_, err := t.runner.Run(command[0], append(command[1:len(command):len(command)], args...)...)
	return err
}
