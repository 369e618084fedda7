package util

import (
	"bytes"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/syncdroid/pkg/errors"
)

func mockExit(t *testing.T) (*bytes.Buffer, *int) {
	origExit, origStderr := exit, stderr
	out := &bytes.Buffer{}
	code := -1
	exit = func(c int) { code = c }
	stderr = out
	t.Cleanup(func() { exit, stderr = origExit, origStderr })
	return out, &code
}

func TestHandleFatalError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		exp  string
	}{
		{
			name: "Plain",
			err:  errors.WithContext(errors.New("no such device"), "mount"),
			exp:  "Error: mount: no such device\n",
		},
		{
			name: "Friendly",
			err: errors.WithContext(
				errors.NewFriendlyError("The device is locked."), "list"),
			exp: "Error: The device is locked.\n",
		},
		{
			name: "Typed",
			err:  errors.SourceNotFound{Path: "Music"},
			exp:  "Error: \"Music\" does not exist on computer or on device\n",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			out, code := mockExit(t)
			HandleFatalError(test.err)
			assert.Equal(t, test.exp, out.String())
			assert.Equal(t, 1, *code)
		})
	}
}

func TestHandlePanic(t *testing.T) {
	out, code := mockExit(t)

	func() {
		defer HandlePanic()
		panic("boom")
	}()

	assert.Contains(t, out.String(), "syncdroid crashed: boom")
	assert.Equal(t, 1, *code)
}

func TestNewLogger(t *testing.T) {
	origLevel := log.GetLevel()
	defer log.SetLevel(origLevel)

	log.SetLevel(log.InfoLevel)
	assert.Equal(t, log.WarnLevel, NewLogger(false).GetLevel())
	assert.Equal(t, log.InfoLevel, NewLogger(true).GetLevel())

	log.SetLevel(log.DebugLevel)
	assert.Equal(t, log.DebugLevel, NewLogger(false).GetLevel())
}
