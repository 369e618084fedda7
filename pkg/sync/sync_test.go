package sync

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/syncdroid/pkg/errors"
)

const (
	computerDir = "/tmp/A"
	deviceDir   = mountRoot + "/Card/Music"
)

func init() {
	// Freeze time so that reports can be compared as a whole.
	clock = clockwork.NewFakeClock()
}

func newConfig(unmatched UnmatchedPolicy, overwrite bool) Config {
	logger, _ := test.NewNullLogger()
	return Config{
		Mount:             Mount{URL: mountURL, Root: mountRoot},
		Source:            computerDir,
		Destination:       deviceDir,
		Unmatched:         unmatched,
		OverwriteExisting: overwrite,
		Log:               logger,
	}
}

func TestRunCreatesDestination(t *testing.T) {
	transport := newFakeTransport()
	require.NoError(t, transport.writeFiles(computerDir+"/song.mp3"))

	report, err := Run(transport, newConfig(Ignore, false))
	require.NoError(t, err)

	assert.Equal(t, []string{deviceDir + "/song.mp3"}, transport.files(deviceDir))
	assert.Equal(t, []string{
		"mkdir " + deviceDir,
		"copy " + computerDir + "/song.mp3 " + deviceDir + "/song.mp3",
	}, transport.calls)
	assert.Equal(t, 1, report.Copied)
}

func TestRunRemovesUnmatched(t *testing.T) {
	transport := newFakeTransport()
	require.NoError(t, transport.writeFiles(
		computerDir+"/song.mp3",
		deviceDir+"/song.mp3",
		deviceDir+"/old.mp3",
	))

	report, err := Run(transport, newConfig(Remove, false))
	require.NoError(t, err)

	assert.Equal(t, []string{deviceDir + "/song.mp3"}, transport.files(deviceDir))
	assert.Equal(t, []string{"remove " + deviceDir + "/old.mp3"}, transport.calls)
	assert.Equal(t, Report{Skipped: 1, Removed: 1}, report)
}

func TestRunSynchronizesUnmatched(t *testing.T) {
	transport := newFakeTransport()
	require.NoError(t, transport.writeFiles(
		computerDir+"/song.mp3",
		deviceDir+"/song.mp3",
		deviceDir+"/old.mp3",
	))

	report, err := Run(transport, newConfig(Synchronize, false))
	require.NoError(t, err)

	assert.Equal(t, []string{deviceDir + "/old.mp3", deviceDir + "/song.mp3"},
		transport.files(deviceDir))
	assert.Equal(t, []string{computerDir + "/old.mp3", computerDir + "/song.mp3"},
		transport.files(computerDir))
	assert.Equal(t, []string{
		"copy " + deviceDir + "/old.mp3 " + computerDir + "/old.mp3",
	}, transport.calls)
	assert.Equal(t, 1, report.SyncedBack)
}

func TestRunSynchronizeReversesOnce(t *testing.T) {
	transport := newFakeTransport()
	require.NoError(t, transport.writeFiles(
		computerDir+"/a.mp3",
		computerDir+"/sub/skipped.txt",
		deviceDir+"/b.mp3",
		deviceDir+"/only-on-device/c.mp3",
	))

	cfg := newConfig(Synchronize, true)
	cfg.IgnoredExtensions = []string{"txt"}
	report, err := Run(transport, cfg)
	require.NoError(t, err)

	// The reversed pass picks up directories that only exist on the device,
	// and doesn't trigger another pass.
	assert.Equal(t, []string{
		"copy " + computerDir + "/a.mp3 " + deviceDir + "/a.mp3",
		"copy " + deviceDir + "/b.mp3 " + computerDir + "/b.mp3",
		"mkdir " + computerDir + "/only-on-device",
		"copy " + deviceDir + "/only-on-device/c.mp3 " + computerDir + "/only-on-device/c.mp3",
	}, transport.calls)
	assert.Equal(t, Report{Copied: 1, Skipped: 2, SyncedBack: 2}, report)
	assert.Equal(t, []string{
		computerDir + "/a.mp3",
		computerDir + "/b.mp3",
		computerDir + "/only-on-device/c.mp3",
		computerDir + "/sub/skipped.txt",
	}, transport.files(computerDir))
}

func TestRunIsIdempotent(t *testing.T) {
	transport := newFakeTransport()
	require.NoError(t, transport.writeFiles(
		computerDir+"/song.mp3",
		computerDir+"/album/track-1.flac",
		computerDir+"/album/track-2.flac",
	))

	_, err := Run(transport, newConfig(Ignore, false))
	require.NoError(t, err)
	firstRun := transport.files(deviceDir)

	transport.calls = nil
	report, err := Run(transport, newConfig(Ignore, false))
	require.NoError(t, err)

	assert.Empty(t, transport.calls)
	assert.Equal(t, firstRun, transport.files(deviceDir))
	assert.Equal(t, Report{Skipped: 3}, report)
}

func TestRunOverwriteExisting(t *testing.T) {
	tests := []struct {
		name      string
		overwrite bool
		expCalls  []string
	}{
		{
			name:      "Overwrite",
			overwrite: true,
			expCalls: []string{
				"copy " + computerDir + "/song.mp3 " + deviceDir + "/song.mp3",
			},
		},
		{
			name:      "NoOverwrite",
			overwrite: false,
			expCalls:  nil,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			transport := newFakeTransport()
			require.NoError(t, transport.writeFiles(
				computerDir+"/song.mp3",
				deviceDir+"/song.mp3",
			))

			// The matched file is never treated as unmatched.
			_, err := Run(transport, newConfig(Remove, test.overwrite))
			require.NoError(t, err)
			assert.Equal(t, test.expCalls, transport.calls)
		})
	}
}

func TestRunUnmatchedPolicies(t *testing.T) {
	oldFile := deviceDir + "/old.mp3"
	tests := []struct {
		name     string
		policy   UnmatchedPolicy
		expCalls []string
	}{
		{
			name:     "Ignore",
			policy:   Ignore,
			expCalls: nil,
		},
		{
			name:     "Remove",
			policy:   Remove,
			expCalls: []string{"remove " + oldFile},
		},
		{
			name:     "Synchronize",
			policy:   Synchronize,
			expCalls: []string{"copy " + oldFile + " " + computerDir + "/old.mp3"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			transport := newFakeTransport()
			require.NoError(t, transport.writeFiles(
				computerDir+"/song.mp3",
				deviceDir+"/song.mp3",
				oldFile,
			))

			_, err := Run(transport, newConfig(test.policy, false))
			require.NoError(t, err)
			assert.Equal(t, test.expCalls, transport.callsReferencing(oldFile))
		})
	}
}

func TestRunIgnoredExtensions(t *testing.T) {
	transport := newFakeTransport()
	require.NoError(t, transport.writeFiles(
		computerDir+"/song.mp3",
		computerDir+"/notes.TXT",
		computerDir+"/.hidden",
		deviceDir+"/lyrics.txt",
	))

	cfg := newConfig(Remove, false)
	cfg.IgnoredExtensions = []string{"txt"}
	_, err := Run(transport, cfg)
	require.NoError(t, err)

	assert.Empty(t, transport.callsReferencing("notes.TXT"))
	assert.Empty(t, transport.callsReferencing("lyrics.txt"))
	assert.Equal(t, []string{
		deviceDir + "/.hidden",
		deviceDir + "/lyrics.txt",
		deviceDir + "/song.mp3",
	}, transport.files(deviceDir))
}

func TestRunFilteredRootContinues(t *testing.T) {
	transport := newFakeTransport()
	require.NoError(t, transport.writeFiles(
		computerDir+"/cover.jpg",
		computerDir+"/album/track.mp3",
	))

	cfg := newConfig(Ignore, false)
	cfg.IgnoredExtensions = []string{".JPG"}
	report, err := Run(transport, cfg)
	require.NoError(t, err)

	// The root only contains ignored files, so no task acts on it, but its
	// subdirectories are still synced.
	assert.Equal(t, []string{
		"mkdir " + deviceDir + "/album",
		"copy " + computerDir + "/album/track.mp3 " + deviceDir + "/album/track.mp3",
	}, transport.calls)
	assert.Equal(t, 1, report.Copied)
}

func TestRunFromDevice(t *testing.T) {
	transport := newFakeTransport()
	require.NoError(t, transport.writeFiles(
		deviceDir+"/song.mp3",
		computerDir+"/song.mp3",
		computerDir+"/local-only.mp3",
	))

	cfg := newConfig(Remove, false)
	cfg.Source, cfg.Destination = deviceDir, computerDir
	_, err := Run(transport, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"remove " + computerDir + "/local-only.mp3"}, transport.calls)
}

func TestRunTransportFailure(t *testing.T) {
	transport := newFakeTransport()
	require.NoError(t, transport.writeFiles(
		computerDir+"/a.mp3",
		computerDir+"/b.mp3",
		computerDir+"/c.mp3",
	))
	copyB := "copy " + computerDir + "/b.mp3 " + deviceDir + "/b.mp3"
	transport.failures[copyB] = []error{connectionReset(), connectionReset()}

	report, err := Run(transport, newConfig(Ignore, false))

	var transportErr errors.TransportFailure
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, CopyOp{Src: computerDir + "/b.mp3", Dst: deviceDir + "/b.mp3"}.String(),
		transportErr.Op)
	assert.True(t, IsConnectionReset(transportErr.Err))

	// Files copied before the failure stay in place.
	assert.Equal(t, []string{deviceDir + "/a.mp3"}, transport.files(deviceDir))
	assert.Equal(t, 1, report.Copied)
	assert.Equal(t, []string{
		"mkdir " + deviceDir,
		"copy " + computerDir + "/a.mp3 " + deviceDir + "/a.mp3",
		copyB,
		"mount " + mountURL,
		copyB,
	}, transport.calls)
}

func TestRunRecoversFromConnectionReset(t *testing.T) {
	transport := newFakeTransport()
	require.NoError(t, transport.writeFiles(computerDir+"/a.mp3"))
	transport.failures["mkdir "+deviceDir] = []error{connectionReset()}

	_, err := Run(transport, newConfig(Ignore, false))
	require.NoError(t, err)
	assert.Equal(t, []string{deviceDir + "/a.mp3"}, transport.files(deviceDir))
}

func TestRunMissingSource(t *testing.T) {
	transport := newFakeTransport()

	_, err := Run(transport, newConfig(Ignore, false))

	var transportErr errors.TransportFailure
	assert.True(t, errors.As(err, &transportErr))
	assert.Empty(t, transport.calls)
}

func TestRunLogsActions(t *testing.T) {
	transport := newFakeTransport()
	require.NoError(t, transport.writeFiles(
		computerDir+"/song.mp3",
		deviceDir+"/old.mp3",
	))

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)
	cfg := newConfig(Remove, false)
	cfg.Log = logger

	_, err := Run(transport, cfg)
	require.NoError(t, err)

	var messages []string
	for _, entry := range hook.AllEntries() {
		messages = append(messages, entry.Message)
	}
	assert.Equal(t, []string{
		"Gathering the list of files in " + computerDir +
			" to synchronize, this may take a while ...",
		"Copying " + computerDir + "/song.mp3 to " + deviceDir + "/song.mp3",
		"Removing " + deviceDir + "/old.mp3",
	}, messages)
}

func TestRunReportsElapsedTime(t *testing.T) {
	defer func(original clockwork.Clock) { clock = original }(clock)
	fakeClock := clockwork.NewFakeClock()
	clock = fakeClock

	transport := newFakeTransport()
	require.NoError(t, transport.writeFiles(computerDir+"/a.mp3", computerDir+"/b.mp3"))
	transport.onCopy = func() { fakeClock.Advance(time.Second) }

	report, err := Run(transport, newConfig(Ignore, false))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, report.Elapsed)
}

func TestConfigReverse(t *testing.T) {
	cfg := newConfig(Synchronize, true)
	reversed := cfg.reverse()

	assert.Equal(t, deviceDir, reversed.Source)
	assert.Equal(t, computerDir, reversed.Destination)
	assert.Equal(t, Ignore, reversed.Unmatched)
	assert.False(t, reversed.OverwriteExisting)
	assert.True(t, reversed.reversed)

	// The original config isn't modified.
	assert.Equal(t, computerDir, cfg.Source)
	assert.Equal(t, Synchronize, cfg.Unmatched)
	assert.False(t, cfg.reversed)
}

func TestReportAdd(t *testing.T) {
	a := Report{Copied: 1, Skipped: 2, Removed: 3, SyncedBack: 4, Elapsed: time.Second}
	b := Report{Copied: 10, Skipped: 20, Removed: 30, SyncedBack: 40, Elapsed: time.Minute}
	assert.Equal(t, Report{
		Copied:     11,
		Skipped:    22,
		Removed:    33,
		SyncedBack: 44,
		Elapsed:    time.Minute + time.Second,
	}, a.Add(b))
}
