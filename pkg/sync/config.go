package sync

import (
	"fmt"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/syncdroid/pkg/errors"
)

// UnmatchedPolicy decides what happens to files that exist in the
// destination directory, but not in the source directory.
type UnmatchedPolicy int

const (
	// Ignore leaves unmatched files alone.
	Ignore UnmatchedPolicy = iota

	// Remove deletes unmatched files from the destination.
	Remove

	// Synchronize copies unmatched files back to the source.
	Synchronize
)

var policyNames = map[UnmatchedPolicy]string{
	Ignore:      "ignore",
	Remove:      "remove",
	Synchronize: "synchronize",
}

func (policy UnmatchedPolicy) String() string {
	if name, ok := policyNames[policy]; ok {
		return name
	}
	return fmt.Sprintf("UnmatchedPolicy(%d)", int(policy))
}

// PolicyNames returns the accepted names for ParsePolicy, in order.
func PolicyNames() []string {
	return []string{Ignore.String(), Remove.String(), Synchronize.String()}
}

// ParsePolicy parses the user facing name of a policy. The empty string is
// treated as Ignore.
func ParsePolicy(name string) (UnmatchedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ignore":
		return Ignore, nil
	case "remove":
		return Remove, nil
	case "synchronize":
		return Synchronize, nil
	}
	return Ignore, errors.NewFriendlyError("Unknown unmatched files action %q. "+
		"Expected one of: %s.", name, strings.Join(PolicyNames(), ", "))
}

// Mount identifies the device mount that transport operations act on.
type Mount struct {
	// URL is used to (re)mount the device, e.g. `mtp://[usb:002,003]/`.
	URL string

	// Root is the path where the mounted device is visible on the local
	// filesystem.
	Root string
}

// Config describes a single synchronization run. Source and Destination
// must already be resolved to absolute paths (see Resolver).
type Config struct {
	Mount Mount

	Source      string
	Destination string

	Unmatched         UnmatchedPolicy
	OverwriteExisting bool

	// IgnoredExtensions are file extensions that are never synced. They're
	// matched case insensitively, with or without a leading dot.
	IgnoredExtensions []string

	// Log receives a message for every action taken. If it's nil, the
	// standard logrus logger is used.
	Log log.FieldLogger

	// reversed is set on the second pass of a Synchronize run.
	reversed bool
}

// reverse returns a copy of the config that syncs in the opposite direction.
// The returned config never touches unmatched files or overwrites, so a
// reversed run can't trigger another reversal.
func (cfg Config) reverse() Config {
	reversed := cfg
	reversed.Source, reversed.Destination = cfg.Destination, cfg.Source
	reversed.Unmatched = Ignore
	reversed.OverwriteExisting = false
	reversed.reversed = true
	return reversed
}

func (cfg Config) logger() log.FieldLogger {
	if cfg.Log == nil {
		return log.StandardLogger()
	}
	return cfg.Log
}

// FileFilter decides which files take part in a sync based on their
// extension.
type FileFilter struct {
	ignored mapset.Set[string]
}

// NewFileFilter returns a filter that rejects the given extensions.
func NewFileFilter(extensions []string) FileFilter {
	ignored := mapset.NewThreadUnsafeSet[string]()
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			ignored.Add(ext)
		}
	}
	return FileFilter{ignored: ignored}
}

// Allows returns whether the file at `path` should be synced. Files without
// an extension are always allowed.
func (filter FileFilter) Allows(path string) bool {
	if filter.ignored == nil || filter.ignored.Cardinality() == 0 {
		return true
	}

	ext := extension(path)
	if ext == "" {
		return true
	}
	return !filter.ignored.Contains(strings.ToLower(ext))
}

// extension returns the extension of the file at `path`, without the dot.
// Leading dots are part of the name, so `.bashrc` has no extension.
func extension(path string) string {
	name := strings.TrimLeft(filepath.Base(path), ".")
	return strings.TrimPrefix(filepath.Ext(name), ".")
}
