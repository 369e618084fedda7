package errors

import (
	"fmt"
	"strings"
)

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// SourceNotFound is returned when the sync source exists neither on the
// computer nor on the device. Path is the string the user supplied.
type SourceNotFound struct {
	Path string
}

func (err SourceNotFound) Error() string {
	return fmt.Sprintf("%q does not exist on computer or on device", err.Path)
}

// SourceNotADirectory is returned when the resolved sync source is a file.
// Only directories can be synced.
type SourceNotADirectory struct {
	Path string
}

func (err SourceNotADirectory) Error() string {
	return fmt.Sprintf("%q is not a directory", err.Path)
}

// TransportFailure is a transport error that couldn't be recovered from.
type TransportFailure struct {
	// Op describes the failed operation, e.g. `copy "/a" "/b"`.
	Op  string
	Err error
}

func (err TransportFailure) Error() string {
	return fmt.Sprintf("%s: %s", err.Op, err.Err)
}

func (err TransportFailure) Unwrap() error {
	return err.Err
}

// DeviceNotFound is returned when no connected USB device matches the
// requested vendor and model.
type DeviceNotFound struct {
	Vendor, Model string

	// Candidates are the descriptions of connected devices that matched the
	// vendor, but not the model.
	Candidates []string
}

func (err DeviceNotFound) Error() string {
	msg := fmt.Sprintf("device %q not found", err.Vendor+" "+err.Model)
	if len(err.Candidates) == 0 {
		return msg + fmt.Sprintf(". No %q devices were found.", err.Vendor)
	}
	return msg + fmt.Sprintf(". The following %q devices were found:\n%s",
		err.Vendor, strings.Join(err.Candidates, "\n"))
}

// MappingError represents a malformed line in a mapping file.
type MappingError struct {
	Path string
	Line int
	Text string
}

func (err MappingError) Error() string {
	return fmt.Sprintf("%s:%d: malformed mapping %q (expected `source==>destination`)",
		err.Path, err.Line, err.Text)
}
