package project

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/hydrate/pkg/errors"
)

// UnitConfigFile is the per-unit override file name.
const UnitConfigFile = "config.toml"

// UnitConfig holds per-unit overrides of project-wide hydration behaviour.
// A nil field means "not set"; only an explicit false disables injection.
//
//	[hydrate]
//	shared = false   # no shared code and no views in this unit
//	views  = false   # no views in this unit
type UnitConfig struct {
	Shared *bool `toml:"shared"`
	Views  *bool `toml:"views"`
}

// SharedDisabled reports whether the unit explicitly opts out of shared code.
func (c UnitConfig) SharedDisabled() bool {
	return c.Shared != nil && !*c.Shared
}

// ViewsDisabled reports whether the unit explicitly opts out of views.
// Disabling shared code disables views as well.
func (c UnitConfig) ViewsDisabled() bool {
	return c.SharedDisabled() || (c.Views != nil && !*c.Views)
}

type unitConfigFile struct {
	Hydrate UnitConfig `toml:"hydrate"`
}

// ReadUnitConfig reads <dir>/config.toml. A missing file yields the zero
// config; an unparsable one is an INVALID_CONFIG error. Callers tag it with the unit.
func ReadUnitConfig(dir string) (UnitConfig, error) {
	path := filepath.Join(dir, UnitConfigFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return UnitConfig{}, nil
	}
	if err != nil {
		return UnitConfig{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", UnitConfigFile)
	}

	var f unitConfigFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return UnitConfig{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", UnitConfigFile)
	}
	return f.Hydrate, nil
}
