package errors

import (
	"errors"
	"fmt"
)

// New returns an error with the given message.
func New(msg string, args ...interface{}) error {
	if len(args) == 0 {
		return errors.New(msg)
	}
	return fmt.Errorf(msg, args...)
}

// Is, As, and Unwrap are re-exported so that callers only need to import
// this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// withContext annotates an error with a short description of what was being
// attempted when it occurred.
type withContext struct {
	context string
	err     error
}

func (err withContext) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

func (err withContext) Unwrap() error {
	return err.err
}

// WithContext wraps `err` so that its message is prefixed by `context`. A nil
// error stays nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return withContext{context: context, err: err}
}

// RootCause strips all the context added by WithContext and returns the
// underlying error.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(withContext)
		if !ok {
			return err
		}
		err = ctxErr.err
	}
}

// FriendlyError is an error that should be shown to the user as is, rather
// than as a chain of contexts.
type FriendlyError interface {
	error
	FriendlyMessage() string
}

type friendlyError struct {
	msg string
}

// NewFriendlyError creates an error whose message is meant to be displayed
// directly to the user.
func NewFriendlyError(template string, args ...interface{}) error {
	return friendlyError{msg: fmt.Sprintf(template, args...)}
}

func (err friendlyError) Error() string {
	return err.msg
}

func (err friendlyError) FriendlyMessage() string {
	return err.msg
}

// GetFriendlyMessage returns the message that should be displayed to the
// user for `err`. It walks the wrapped errors looking for a FriendlyError,
// and falls back to the raw error message.
func GetFriendlyMessage(err error) string {
	var friendly FriendlyError
	if As(err, &friendly) {
		return friendly.FriendlyMessage()
	}
	return err.Error()
}
