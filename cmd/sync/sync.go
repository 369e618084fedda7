package sync

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/buger/goterm"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/syncdroid/cmd/util"
	"github.com/sidkik/syncdroid/pkg/config"
	"github.com/sidkik/syncdroid/pkg/device"
	"github.com/sidkik/syncdroid/pkg/errors"
	"github.com/sidkik/syncdroid/pkg/gvfs"
	"github.com/sidkik/syncdroid/pkg/sync"
)

// Mocked out for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = config.ParseUser
	parseMapping              = config.ParseMapping
	findDevice                = discoverDevice
	newTransport              = func() sync.Transport { return gvfs.New() }
)

type options struct {
	vendor, model           string
	source, destination     string
	mappingFile             string
	unmatched               string
	verbose, overwrite      bool
	ignoredFileTypes        []string
	unmatchedSet, ignoreSet bool
}

// New creates a new `sync` command.
func New() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize directories between the computer and an Android device",
		Long: "Synchronize directories between the computer and an Android device\n" +
			"connected over MTP.\n\n" +
			"Either a single --source and --destination, or a --file containing\n" +
			"one `source==>destination` pair per line must be given. Relative\n" +
			"sources are looked up in the working directory first, and then on\n" +
			"the device.",
		Example: "  syncdroid sync -V samsung -M 'galaxy s7' -s ~/Music -d Card/Music\n" +
			"  syncdroid sync -V samsung -M 'galaxy s7' -f ~/phone-mapping.txt -u synchronize",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			opts.unmatchedSet = cmd.Flags().Changed("unmatched")
			opts.ignoreSet = cmd.Flags().Changed("ignore-file-type")
			if err := run(opts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.vendor, "vendor", "V", "",
		"Device vendor name, as shown by lsusb. Interpreted as a case insensitive regular expression.")
	flags.StringVarP(&opts.model, "model", "M", "",
		"Device model name, as shown by lsusb. Interpreted as a case insensitive regular expression.")
	flags.StringVarP(&opts.source, "source", "s", "", "Source directory")
	flags.StringVarP(&opts.destination, "destination", "d", "", "Destination directory")
	flags.StringVarP(&opts.mappingFile, "file", "f", "",
		"File with `source==>destination` pairs to synchronize, one per line")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Print every action taken")
	flags.StringVarP(&opts.unmatched, "unmatched", "u", "ignore",
		"What to do with files that only exist in the destination: "+strings.Join(sync.PolicyNames(), ", "))
	flags.BoolVarP(&opts.overwrite, "overwrite", "o", false,
		"Overwrite files that already exist in the destination")
	flags.StringSliceVarP(&opts.ignoredFileTypes, "ignore-file-type", "i", nil,
		"File extensions to skip, e.g. `-i jpg,txt`")
	return cmd
}

func run(opts options) error {
	opts, err := withUserDefaults(opts)
	if err != nil {
		return err
	}

	if opts.vendor == "" || opts.model == "" {
		return errors.NewFriendlyError("Both the device vendor and model are " +
			"required. Set them with --vendor and --model, or in the user " +
			"config with `syncdroid config`.")
	}

	mappings, err := getMappings(opts)
	if err != nil {
		return err
	}

	policy, err := sync.ParsePolicy(opts.unmatched)
	if err != nil {
		return err
	}

	mount, err := findDevice(opts.vendor, opts.model)
	if err != nil {
		return err
	}
	log.WithField("url", mount.URL).WithField("root", mount.Root).Debug("Found device")

	transport := newTransport()
	resolver := sync.Resolver{Transport: transport, MountRoot: mount.Root}
	logger := util.NewLogger(opts.verbose)

	var total sync.Report
	for _, mapping := range mappings {
		source, err := resolver.Source(mapping.Source)
		if err != nil {
			return err
		}

		destination, err := resolver.Destination(mapping.Destination, source)
		if err != nil {
			return errors.WithContext(err, "resolve destination")
		}

		report, err := sync.Run(transport, sync.Config{
			Mount:             mount,
			Source:            source,
			Destination:       destination,
			Unmatched:         policy,
			OverwriteExisting: opts.overwrite,
			IgnoredExtensions: opts.ignoredFileTypes,
			Log:               logger,
		})
		if err != nil {
			fmt.Fprintln(stdout, goterm.Color(fmt.Sprintf("Failed to sync %s to %s", source, destination), goterm.RED))
			return err
		}

		printReport(source, destination, report)
		total = total.Add(report)
	}

	if len(mappings) > 1 {
		printReport("", "", total)
	}
	return nil
}

// withUserDefaults fills in the options that weren't set on the command line
// from the user config.
func withUserDefaults(opts options) (options, error) {
	cfg, err := parseUserConfig()
	if err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			log.WithError(err).Debug("No user config. Only using command line options.")
			return opts, nil
		}
		return options{}, errors.WithContext(err, "read user config")
	}

	if opts.vendor == "" {
		opts.vendor = cfg.Vendor
	}
	if opts.model == "" {
		opts.model = cfg.Model
	}
	if !opts.unmatchedSet && cfg.Unmatched != "" {
		opts.unmatched = cfg.Unmatched
	}
	if !opts.ignoreSet {
		opts.ignoredFileTypes = cfg.IgnoreFileTypes
	}
	opts.overwrite = opts.overwrite || cfg.Overwrite
	return opts, nil
}

func getMappings(opts options) ([]config.Mapping, error) {
	hasPair := opts.source != "" || opts.destination != ""
	switch {
	case opts.mappingFile != "" && hasPair:
		return nil, errors.NewFriendlyError("Either a mapping file, or a " +
			"source and destination can be specified, but not both.")
	case opts.mappingFile != "":
		mappings, err := parseMapping(opts.mappingFile)
		if err != nil {
			return nil, errors.WithContext(err, "parse mapping file")
		}
		return mappings, nil
	case opts.source == "" || opts.destination == "":
		return nil, errors.NewFriendlyError("Both a --source and a --destination " +
			"are required when a mapping file isn't used.")
	}
	return []config.Mapping{{Source: opts.source, Destination: opts.destination}}, nil
}

func discoverDevice(vendor, model string) (sync.Mount, error) {
	d, err := device.Finder{Runner: gvfs.ExecRunner{}}.Discover(vendor, model)
	if err != nil {
		return sync.Mount{}, err
	}
	return d.MountPoint(), nil
}

func printReport(source, destination string, report sync.Report) {
	title := goterm.Color("Total", goterm.BLUE)
	if source != "" {
		title = fmt.Sprintf("%s %s -> %s", goterm.Color("Synced", goterm.GREEN), source, destination)
	}

	fmt.Fprintln(stdout, title)
	fmt.Fprintf(stdout, "  copied: %d, skipped: %d, removed: %d, synced back: %d (%s)\n",
		report.Copied, report.Skipped, report.Removed, report.SyncedBack,
		report.Elapsed.Round(time.Millisecond))
}
