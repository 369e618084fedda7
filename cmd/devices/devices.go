package devices

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/buger/goterm"
	"github.com/spf13/cobra"

	"github.com/sidkik/syncdroid/cmd/util"
	"github.com/sidkik/syncdroid/pkg/device"
	"github.com/sidkik/syncdroid/pkg/errors"
	"github.com/sidkik/syncdroid/pkg/gvfs"
)

// Mocked out for unit testing.
var (
	stdout      io.Writer   = os.Stdout
	runner      gvfs.Runner = gvfs.ExecRunner{}
	mtpPattern              = regexp.MustCompile(`(?i)\bMTP\b`)
)

// New creates a new `devices` command.
func New() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List the connected USB devices that can be synced",
		Long: "List the connected USB devices that can be synced, along with\n" +
			"the directory that gvfs mounts them at. The vendor and model\n" +
			"passed to `syncdroid sync` are matched against the description.",
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(all); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false,
		"Show every USB device, rather than just the ones that advertise MTP")
	return cmd
}

func run(all bool) error {
	devices, err := device.Finder{Runner: runner}.List()
	if err != nil {
		return errors.WithContext(err, "list devices")
	}

	table := goterm.NewTable(0, 10, 3, ' ', 0)
	fmt.Fprintln(table, "BUS\tDEVICE\tID\tDESCRIPTION\tMOUNT POINT")

	var shown int
	for _, d := range devices {
		if !all && !mtpPattern.MatchString(d.Description) {
			continue
		}

		fmt.Fprintf(table, "%s\t%s\t%s:%s\t%s\t%s\n", d.Bus, d.Number,
			d.VendorID, d.ProductID, d.Description, d.MountPoint().Root)
		shown++
	}

	if shown == 0 {
		msg := "No MTP devices found. Is the device unlocked, and set to transfer files?"
		if all {
			msg = "No USB devices found."
		}
		fmt.Fprintln(stdout, goterm.Color(msg, goterm.YELLOW))
		return nil
	}

	fmt.Fprint(stdout, table.String())
	return nil
}
