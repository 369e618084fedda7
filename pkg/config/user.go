package config

import (
	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/sidkik/syncdroid/pkg/errors"
	"github.com/sidkik/syncdroid/pkg/sync"
)

const (
	// UserConfigPath is the default path to the syncdroid user config.
	UserConfigPath = "~/.syncdroid.yaml"

	// InitialUserConfigVersion is the first version of the syncdroid user
	// config. Config files that do not specify a version will default to
	// this version.
	InitialUserConfigVersion = "v1alpha1"

	// SupportedUserConfigVersion is the supported version of the user config
	// of the current syncdroid binary.
	SupportedUserConfigVersion = "v1alpha1"
)

// User contains the defaults for the `sync` command. Flags passed on the
// command line take precedence.
type User struct {
	Version         string   `json:"version,omitempty"`
	Vendor          string   `json:"vendor,omitempty"`
	Model           string   `json:"model,omitempty"`
	Unmatched       string   `json:"unmatched,omitempty"`
	Overwrite       bool     `json:"overwrite,omitempty"`
	IgnoreFileTypes []string `json:"ignoreFileTypes,omitempty"`
}

func (u User) getVersion() string {
	return u.Version
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ParseUser attempts to parse the User stored in the default path. If the
// file doesn't exist, an errors.FileNotFound is returned.
func ParseUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config := User{Version: InitialUserConfigVersion}
	if err := parseConfig(path, &config, SupportedUserConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return User{}, err
		}
		return User{}, errors.WithContext(err, "parse")
	}

	if _, err := sync.ParsePolicy(config.Unmatched); err != nil {
		return User{}, errors.WithContext(err, "parse unmatched")
	}
	return config, nil
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	cfg.Version = SupportedUserConfigVersion
	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// Get the path to the user's syncdroid configuration. This path is expanded,
// so it can be directly passed to file operations.
func GetUserConfigPath() (string, error) {
	return homedirExpand(UserConfigPath)
}
