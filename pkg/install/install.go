// Package install invokes the external package manager for a single code unit.
//
// An [Installer] materializes a unit's third-party dependencies into its
// dependency directory, either honouring the lock file exactly ([ModeInstall])
// or allowing the package manager to move to newer compatible versions
// ([ModeUpdate]). The manifest pair is validated before the package manager
// runs; a corrupt or missing manifest is fatal for the unit.
//
// Installers never retry. Callers that want retries wrap them.
package install

import (
	"context"
	"strings"

	"github.com/matzehuels/hydrate/pkg/errors"
)

// Mode selects install or update semantics.
type Mode string

const (
	// ModeInstall installs exactly what the lock file records.
	ModeInstall Mode = "install"
	// ModeUpdate lets the package manager update within declared ranges.
	ModeUpdate Mode = "update"
)

// ParseMode converts a user-supplied string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeInstall:
		return ModeInstall, nil
	case ModeUpdate:
		return ModeUpdate, nil
	}
	return "", errors.New(errors.ErrCodeInvalidMode, "invalid mode %q (must be one of: install, update)", s)
}

// String implements fmt.Stringer.
func (m Mode) String() string { return string(m) }

// Installer installs or updates the dependencies declared in one directory.
//
// dir is the directory to operate in; unit is the project-relative unit path
// used to tag errors. Implementations must be safe for concurrent use on
// distinct directories.
type Installer interface {
	Install(ctx context.Context, dir, unit string, mode Mode) error
}

// Func adapts an ordinary function to the Installer interface.
type Func func(ctx context.Context, dir, unit string, mode Mode) error

// Install calls f(ctx, dir, unit, mode).
func (f Func) Install(ctx context.Context, dir, unit string, mode Mode) error {
	return f(ctx, dir, unit, mode)
}
