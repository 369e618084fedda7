package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	configCmd "github.com/sidkik/syncdroid/cmd/config"
	"github.com/sidkik/syncdroid/cmd/devices"
	syncCmd "github.com/sidkik/syncdroid/cmd/sync"
	"github.com/sidkik/syncdroid/cmd/util"
	"github.com/sidkik/syncdroid/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "SYNCDROID_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	if err := newRootCommand().Execute(); err != nil {
		util.HandleFatalError(err)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "syncdroid",
		Short:        "Synchronize directories with Android devices connected over MTP",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		configCmd.New(),
		devices.New(),
		syncCmd.New(),
		version.New(),
	)
	return rootCmd
}
