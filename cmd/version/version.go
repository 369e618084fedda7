package version

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/syncdroid/pkg/gvfs"
	"github.com/sidkik/syncdroid/pkg/version"
)

// Mocked out for unit testing.
var (
	stdout io.Writer   = os.Stdout
	runner gvfs.Runner = gvfs.ExecRunner{}
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of syncdroid.",
		Long: "Print the version of syncdroid, and the gvfs client that it\n" +
			"uses to modify files on the device.",
		Run: func(_ *cobra.Command, _ []string) {
			run()
		},
	}
}

func run() {
	fmt.Fprintf(stdout, "syncdroid version: %s\n", version.Version)
	fmt.Fprintf(stdout, "gvfs client:       %s\n", gvfs.DetectTool(runner).Name)
}
