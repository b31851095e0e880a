package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/matzehuels/hydrate/pkg/errors"
	"github.com/matzehuels/hydrate/pkg/install"
	"github.com/matzehuels/hydrate/pkg/project"
	"github.com/matzehuels/hydrate/pkg/shared"
)

// envPrefix prefixes environment overrides: HYDRATE_CONCURRENCY -> concurrency.
const envPrefix = "HYDRATE_"

// Progress display modes.
const (
	progressAuto   = "auto"
	progressAlways = "always"
	progressNever  = "never"
)

// Config is the resolved CLI configuration.
type Config struct {
	Project        string `koanf:"project"`         // project file; found upward from the working directory when empty
	Concurrency    int    `koanf:"concurrency"`     // 0 runs every unit at once
	PackageManager string `koanf:"package_manager"` // npm-compatible executable
	DepDir         string `koanf:"dep_dir"`
	Scope          string `koanf:"scope"`
	Verbose        bool   `koanf:"verbose"`
	Progress       string `koanf:"progress"`
}

func defaultConfig() map[string]any {
	return map[string]any{
		"project":         "",
		"concurrency":     0,
		"package_manager": install.DefaultCommand,
		"dep_dir":         shared.DefaultDepDir,
		"scope":           shared.DefaultScope,
		"verbose":         false,
		"progress":        progressAuto,
	}
}

// loadConfig layers defaults, HYDRATE_* environment variables and explicitly
// set flags, in increasing order of precedence.
func loadConfig(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultConfig(), "."), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load defaults")
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load environment")
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode configuration")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "concurrency must not be negative, got %d", c.Concurrency)
	}
	switch c.Progress {
	case progressAuto, progressAlways, progressNever:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "progress must be one of auto, always, never; got %q", c.Progress)
	}
	if c.PackageManager == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "package manager cannot be empty")
	}
	return nil
}

// layout returns the dependency-tree layout the configuration selects.
func (c *Config) layout() shared.Layout {
	return shared.Layout{DepDir: c.DepDir, Scope: c.Scope}.WithDefaults()
}

// loadProject loads the configured project file, or the nearest app.toml
// found upward from the working directory.
func (c *Config) loadProject() (*project.Project, error) {
	path := c.Project
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "working directory")
		}
		if path = project.Find(cwd); path == "" {
			return nil, errors.New(errors.ErrCodeFileNotFound, "no %s found in %s or its parents", project.DefaultFile, cwd)
		}
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, project.DefaultFile)
	}
	return project.Load(path)
}
