// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions selects where configuration is read from. The zero value
	// reads config.cue from ConfigDir.
	LoadOptions struct {
		// ConfigFilePath is the --config flag; the file must exist.
		ConfigFilePath string
		// ConfigDirPath replaces ConfigDir for the config.cue lookup.
		ConfigDirPath string
	}

	// Provider is how commands obtain configuration. Tests substitute a
	// fixed Config.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	fileProvider struct{}
)

var _ Provider = fileProvider{}

// NewProvider returns the Provider backed by config.cue and PRISM_* variables.
func NewProvider() Provider {
	return fileProvider{}
}

func (fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	return cfg, err
}

// LoadWithPath loads like a Provider and also reports the file the values
// came from, or "" when only defaults and environment applied.
func LoadWithPath(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	return loadWithOptions(ctx, opts)
}
