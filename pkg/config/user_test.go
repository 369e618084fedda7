package config

import (
	"fmt"
	"testing"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/syncdroid/pkg/errors"
)

const configPath = ".syncdroid.yaml"

func mockUserConfig(t *testing.T) {
	origFs, origExpand := fs, homedirExpand
	fs = afero.NewMemMapFs()
	homedirExpand = func(_ string) (string, error) {
		return configPath, nil
	}
	t.Cleanup(func() {
		fs, homedirExpand = origFs, origExpand
	})
}

func TestParseUser(t *testing.T) {
	userEmptyVersion := User{
		Vendor:    "samsung",
		Model:     "galaxy",
		Unmatched: "remove",
	}
	userInitialVersion := User{
		Version:   InitialUserConfigVersion,
		Vendor:    "samsung",
		Model:     "galaxy",
		Unmatched: "remove",
	}
	userCorrectVersion := User{
		Version:         SupportedUserConfigVersion,
		Vendor:          "samsung",
		Model:           "galaxy",
		Unmatched:       "synchronize",
		Overwrite:       true,
		IgnoreFileTypes: []string{"jpg", "txt"},
	}
	userIncorrectVersion := User{
		Version: "incorrect_version",
		Vendor:  "samsung",
		Model:   "galaxy",
	}
	userEmptyVersionString, err := yaml.Marshal(userEmptyVersion)
	assert.NoError(t, err)
	userCorrectVersionString, err := yaml.Marshal(userCorrectVersion)
	assert.NoError(t, err)
	userIncorrectVersionString, err := yaml.Marshal(userIncorrectVersion)
	assert.NoError(t, err)

	tests := []struct {
		name      string
		input     []byte
		expConfig User
		expError  error
	}{
		{
			name:      "EmptyVersion",
			input:     userEmptyVersionString,
			expConfig: userInitialVersion,
		},
		{
			name:      "CorrectVersion",
			input:     userCorrectVersionString,
			expConfig: userCorrectVersion,
		},
		{
			name:  "IncorrectVersion",
			input: userIncorrectVersionString,
			expError: errors.WithContext(incompatibleVersionError{
				path:   configPath,
				exp:    SupportedUserConfigVersion,
				actual: userIncorrectVersion.Version,
			}, "parse"),
		},
		{
			name: "ExtraFields",
			input: []byte(fmt.Sprintf(
				"version: %s\nextra: fields", SupportedUserConfigVersion)),
			expError: errors.WithContext(
				errors.NewFriendlyError(parseConfigErrTemplate, configPath,
					errors.New("error unmarshaling JSON: while decoding JSON: "+
						`json: unknown field "extra"`)),
				"parse"),
		},
		{
			name: "VersionCheckedFirst",
			input: []byte(`
version: incorrect_version
extra: fields
`),
			expError: errors.WithContext(incompatibleVersionError{
				path:   configPath,
				exp:    SupportedUserConfigVersion,
				actual: "incorrect_version",
			}, "parse"),
		},
		{
			name:  "UnknownUnmatchedPolicy",
			input: []byte("unmatched: delete\n"),
			expError: errors.WithContext(errors.NewFriendlyError(
				"Unknown unmatched files action %q. Expected one of: ignore, remove, synchronize.",
				"delete"), "parse unmatched"),
		},
	}

	mockUserConfig(t)
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			err := afero.WriteFile(fs, configPath, test.input, 0644)
			assert.NoError(t, err)
			config, err := ParseUser()
			assert.Equal(t, test.expConfig, config)
			assert.Equal(t, test.expError, err)
		})
	}
}

func TestParseUserMissing(t *testing.T) {
	mockUserConfig(t)

	_, err := ParseUser()
	assert.Equal(t, errors.FileNotFound{Path: configPath}, err)
}

func TestParseWrittenUser(t *testing.T) {
	mockUserConfig(t)

	user := User{
		Vendor:          "samsung",
		Model:           "galaxy",
		Unmatched:       "ignore",
		IgnoreFileTypes: []string{"jpg"},
	}

	// Write the user to disk, and assert that we get the same user config when
	// we parse it.
	assert.NoError(t, WriteUser(user))

	parsed, err := ParseUser()
	assert.NoError(t, err)

	user.Version = SupportedUserConfigVersion
	assert.Equal(t, user, parsed)
}
