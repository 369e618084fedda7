package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/syncdroid/cmd/util"
	"github.com/sidkik/syncdroid/pkg/config"
	"github.com/sidkik/syncdroid/pkg/device"
	"github.com/sidkik/syncdroid/pkg/errors"
	"github.com/sidkik/syncdroid/pkg/gvfs"
	"github.com/sidkik/syncdroid/pkg/sync"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	stdin           io.Reader = os.Stdin
	guessDefaults             = guessDefaultsImpl
	parseUserConfig           = config.ParseUser
	writeUserConfig           = config.WriteUser
	listDevices               = device.Finder{Runner: gvfs.ExecRunner{}}.List
)

// New creates a new `config` command.
func New() *cobra.Command {
	var cliOpts config.User
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the syncdroid user configuration",
		Long: "Setup the defaults used by `syncdroid sync`. Options that aren't\n" +
			"passed as flags are prompted for interactively.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := SetupConfig(cliOpts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s", err)
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&cliOpts.Vendor, "vendor", "",
		"Set the device vendor in the config. "+
			"Optional: If not set, `syncdroid config` will interactively prompt.")
	cmd.Flags().StringVar(&cliOpts.Model, "model", "",
		"Set the device model in the config. "+
			"Optional: If not set, `syncdroid config` will interactively prompt.")
	cmd.Flags().StringVar(&cliOpts.Unmatched, "unmatched", "",
		"Set the action for unmatched files in the config. "+
			"Optional: If not set, `syncdroid config` will interactively prompt.")
	cmd.Flags().BoolVar(&cliOpts.Overwrite, "overwrite", false,
		"Overwrite existing files by default")
	cmd.Flags().StringSliceVar(&cliOpts.IgnoreFileTypes, "ignore-file-type", nil,
		"File extensions to skip by default")

	// Setup the commands for querying the contents of the user config.
	type getterSpec struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterSpec{
		{
			use:   "get-vendor",
			short: "Get the configured device vendor",
			fn:    func(cfg config.User) string { return cfg.Vendor },
		},
		{
			use:   "get-model",
			short: "Get the configured device model",
			fn:    func(cfg config.User) string { return cfg.Model },
		},
		{
			use:   "get-unmatched",
			short: "Get the configured action for unmatched files",
			fn:    func(cfg config.User) string { return cfg.Unmatched },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// SetupConfig prompts for the config fields missing from cliOpts, and writes
// the result to the user config path.
func SetupConfig(cliOpts config.User) error {
	cfg, err := generateConfig(cliOpts)
	if err != nil {
		return errors.WithContext(err, "generate config")
	}

	if err := writeUserConfig(cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	path, err := config.GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "get user config path")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}

func patternValidationFn(pattern string) (string, bool) {
	if strings.TrimSpace(pattern) == "" {
		return "The pattern must not be empty.", false
	}

	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Sprintf("The pattern must be a valid regular expression: %s", err), false
	}
	return "", true
}

func unmatchedValidationFn(action string) (string, bool) {
	if _, err := sync.ParsePolicy(action); err != nil {
		return errors.GetFriendlyMessage(err), false
	}
	return "", true
}

type prompt struct {
	helpString, prompt, defaultAnswer, currAnswer string
	field                                         *string
	validationFn                                  func(string) (string, bool)
}

// generateConfig interacts with the user to decide what the user's desired
// configuration is.
// It makes best guesses at reasonable defaults, and allows users to explicitly
// override them if desired.
func generateConfig(cliOpts config.User) (config.User, error) {
	defaults := guessDefaults()
	currConfig, err := parseUserConfig()
	if err != nil {
		currConfig = config.User{}
		log.WithError(err).Debug("Failed to read current config")
	}

	cfg := cliOpts
	var prompts []prompt
	if cliOpts.Vendor == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the vendor of the device to sync with.\n" +
				"It's matched against the output of `lsusb`, ignoring case.",
			prompt:        "Device vendor",
			defaultAnswer: defaults.Vendor,
			currAnswer:    currConfig.Vendor,
			field:         &cfg.Vendor,
			validationFn:  patternValidationFn,
		})
	}

	if cliOpts.Model == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the model of the device to sync with.\n" +
				"It's matched against the output of `lsusb`, ignoring case.",
			prompt:        "Device model",
			defaultAnswer: defaults.Model,
			currAnswer:    currConfig.Model,
			field:         &cfg.Model,
			validationFn:  patternValidationFn,
		})
	}

	if cliOpts.Unmatched == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter what to do with files that only exist in the destination.\n" +
				"One of: " + strings.Join(sync.PolicyNames(), ", ") + ".",
			prompt:        "Unmatched files",
			defaultAnswer: sync.Ignore.String(),
			currAnswer:    currConfig.Unmatched,
			field:         &cfg.Unmatched,
			validationFn:  unmatchedValidationFn,
		})
	} else if msg, ok := unmatchedValidationFn(cliOpts.Unmatched); !ok {
		return config.User{}, errors.NewFriendlyError("%s", msg)
	}

	stdinReader := bufio.NewReader(stdin)
	for _, prompt := range prompts {
		var resp string
		for {
			resp, err = promptUser(stdinReader, prompt.helpString, prompt.prompt,
				prompt.defaultAnswer, prompt.currAnswer)
			if err != nil {
				return config.User{}, errors.WithContext(err, "read response")
			}

			if prompt.validationFn == nil {
				break
			}

			validationErr, ok := prompt.validationFn(resp)
			if ok {
				break
			}

			fmt.Fprintln(stdout, validationErr)
		}

		*prompt.field = resp
	}

	if !cliOpts.Overwrite {
		cfg.Overwrite = currConfig.Overwrite
	}
	if cliOpts.IgnoreFileTypes == nil {
		cfg.IgnoreFileTypes = currConfig.IgnoreFileTypes
	}
	return cfg, nil
}

// guessDefaultsImpl guesses the vendor from the first connected device that
// advertises MTP.
func guessDefaultsImpl() (cfg config.User) {
	devices, err := listDevices()
	if err != nil {
		log.WithError(err).Info("Failed to guess device vendor")
		return cfg
	}

	for _, d := range devices {
		if !strings.Contains(strings.ToUpper(d.Description), "MTP") {
			continue
		}

		if fields := strings.Fields(d.Description); len(fields) != 0 {
			cfg.Vendor = strings.ToLower(fields[0])
			break
		}
	}
	return cfg
}

func promptUser(stdinReader *bufio.Reader, helpString, prompt, defaultAnswer,
	currAnswer string) (string, error) {
	// Display a new line at the end to separate different fields to make it
	// look clearer.
	defer fmt.Fprintln(stdout)

	options := []string{}
	if defaultAnswer != "" {
		options = append(options, defaultAnswer)
	}
	if currAnswer != "" && currAnswer != defaultAnswer {
		options = append(options, currAnswer)
	}
	options = append(options, "(Enter manually)")

	fmt.Fprintln(stdout, helpString+"\n"+prompt+":")

	if nOptions := len(options); nOptions > 1 {
		fmt.Fprintln(stdout)
		for i, option := range options {
			if i == 0 {
				option = fmt.Sprintf("%s (recommended)", option)
			}
			fmt.Fprintf(stdout, "\t%d. %s\n", i+1, option)
		}
		fmt.Fprintln(stdout)

		for {
			fmt.Fprintf(stdout, "Please choose one [1-%d]: ", nOptions)
			choiceStr, err := stdinReader.ReadString('\n')
			if err != nil {
				return "", err
			}

			var choice int
			choiceStr = strings.TrimSpace(choiceStr)

			// Default to the first choice if user doesn't enter anything.
			if choiceStr == "" {
				choice = 1
			} else {
				choice, err = strconv.Atoi(choiceStr)
				if err != nil || choice < 1 || choice > nOptions {
					continue
				}
			}

			if choice == nOptions {
				break
			}

			return options[choice-1], nil
		}
	}

	fmt.Fprint(stdout, "Please enter manually: ")
	resp, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp), nil
}
