package install

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hydrate/pkg/errors"
	"github.com/matzehuels/hydrate/pkg/manifest"
)

// Default package manager invocation.
var (
	DefaultCommand     = "npm"
	DefaultInstallArgs = []string{"ci", "--no-audit", "--no-fund"}
	DefaultUpdateArgs  = []string{"update", "--no-audit", "--no-fund"}
)

// maxDiagnostic bounds the package manager output kept on an error.
const maxDiagnostic = 4096

// NPM runs an npm-compatible package manager in the unit directory.
type NPM struct {
	// Command is the executable name or path. Defaults to "npm".
	Command string
	// InstallArgs and UpdateArgs are passed for ModeInstall and ModeUpdate.
	InstallArgs []string
	UpdateArgs  []string
	// Env is appended to the inherited environment.
	Env []string
	// Logger receives per-unit debug output. Defaults to a discard logger.
	Logger *log.Logger
}

// NewNPM creates an installer for command with the default arguments.
// An empty command selects DefaultCommand.
func NewNPM(command string, logger *log.Logger) *NPM {
	if command == "" {
		command = DefaultCommand
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &NPM{
		Command:     command,
		InstallArgs: DefaultInstallArgs,
		UpdateArgs:  DefaultUpdateArgs,
		Logger:      logger,
	}
}

// Install validates the manifest pair in dir, then runs the package manager there.
func (n *NPM) Install(ctx context.Context, dir, unit string, mode Mode) error {
	pair, err := manifest.Read(dir, unit)
	if err != nil {
		return err
	}

	args, err := n.args(mode)
	if err != nil {
		return err
	}

	logger := n.logger().With("unit", unit, "mode", mode)
	logger.Debug("running package manager",
		"command", n.command(),
		"args", strings.Join(args, " "),
		"dependencies", len(pair.Dependencies()),
		"lockfile_version", pair.Lock.LockfileVersion)

	start := time.Now()
	cmd := exec.CommandContext(ctx, n.command(), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), n.Env...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errors.ForUnit(errors.ErrCodeInstallFailed, unit, ctx.Err(), "%s %s interrupted", n.command(), mode)
		}
		return errors.ForUnit(errors.ErrCodeInstallFailed, unit, err,
			"%s %s failed%s", n.command(), args[0], diagnostic(out.Bytes()))
	}

	logger.Debug("package manager finished", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func (n *NPM) args(mode Mode) ([]string, error) {
	switch mode {
	case ModeInstall:
		if len(n.InstallArgs) == 0 {
			return DefaultInstallArgs, nil
		}
		return n.InstallArgs, nil
	case ModeUpdate:
		if len(n.UpdateArgs) == 0 {
			return DefaultUpdateArgs, nil
		}
		return n.UpdateArgs, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidMode, "invalid mode %q", mode)
}

func (n *NPM) command() string {
	if n.Command == "" {
		return DefaultCommand
	}
	return n.Command
}

func (n *NPM) logger() *log.Logger {
	if n.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return n.Logger
}

// diagnostic formats trailing package manager output for an error message.
func diagnostic(out []byte) string {
	text := strings.TrimSpace(string(out))
	if text == "" {
		return ""
	}
	if len(text) > maxDiagnostic {
		text = "..." + text[len(text)-maxDiagnostic:]
	}
	return "\n" + text
}

// Ensure NPM implements Installer.
var _ Installer = (*NPM)(nil)
