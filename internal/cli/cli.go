// Package cli implements the hydrate command-line interface.
//
// The commands install or update the dependencies of a project's code units
// and propagate shared and views code into them:
//   - install: install locked dependencies, then propagate
//   - update: update dependencies within their declared ranges, then propagate
//   - shared: install the shared and views directories' own dependencies, then propagate
//   - propagate: propagate only
//   - units: list units and what each receives
//
// Configuration is layered: built-in defaults, then HYDRATE_* environment
// variables, then explicitly set flags. All commands support --verbose (-v)
// for debug-level logging.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hydrate/pkg/buildinfo"
	"github.com/matzehuels/hydrate/pkg/hydrate"
	"github.com/matzehuels/hydrate/pkg/install"
	"github.com/matzehuels/hydrate/pkg/project"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// Configuration is resolved before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "hydrate",
		Short: "Hydrate installs dependencies and shared code into code units",
		Long: `Hydrate prepares every code unit of a project for local execution or deployment.

For each unit it installs (or updates) the dependencies pinned by the unit's
package.json and package-lock.json, then copies the project's shared code
(src/shared) and, for GET routes, view code (src/views) into the unit's
node_modules/@architect directory.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			c.Config = cfg
			if cfg.Verbose {
				c.SetLogLevel(LogDebug)
			}
			c.Logger.Debug("hydrate", "version", buildinfo.Version, "commit", buildinfo.Commit)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringP("project", "p", "", "project file or directory (default: nearest app.toml)")
	flags.IntP("concurrency", "j", 0, "maximum units processed at once (0 = all)")
	flags.String("package-manager", install.DefaultCommand, "npm-compatible package manager executable")
	flags.String("dep-dir", "", "dependency directory inside each unit (default: node_modules)")
	flags.String("scope", "", "package scope of injected shared code (default: @architect)")
	flags.String("progress", progressAuto, "progress display: auto, always, never")
	flags.BoolP("verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.installCommand(install.ModeInstall))
	root.AddCommand(c.installCommand(install.ModeUpdate))
	root.AddCommand(c.sharedCommand())
	root.AddCommand(c.propagateCommand())
	root.AddCommand(c.unitsCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Hydrator Factory
// =============================================================================

// newHydrator creates a hydrator for CLI use. Package manager output and
// per-unit progress go to logger.
func (c *CLI) newHydrator(logger *log.Logger) *hydrate.Hydrator {
	cfg := c.config()
	h := hydrate.New(install.NewNPM(cfg.PackageManager, logger), cfg.layout(), logger)
	h.Concurrency = cfg.Concurrency
	return h
}

func (c *CLI) config() *Config {
	if c.Config == nil {
		cfg, _ := loadConfig(nil)
		c.Config = cfg
	}
	return c.Config
}

// =============================================================================
// Unit Arguments
// =============================================================================

// unitPaths maps command arguments to unit paths. No arguments selects every
// declared unit. An argument naming an existing directory relative to the
// working directory is made absolute; anything else is taken relative to the
// project root.
func unitPaths(p *project.Project, args []string) []string {
	if len(args) == 0 {
		return p.LocalPaths()
	}
	paths := make([]string, len(args))
	for i, arg := range args {
		paths[i] = arg
		if filepath.IsAbs(arg) {
			continue
		}
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(arg); err == nil {
				paths[i] = abs
			}
		}
	}
	return paths
}

// completeUnits offers declared unit paths for shell completion.
func (c *CLI) completeUnits(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	p, err := cfg.loadProject()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	taken := make(map[string]bool, len(args))
	for _, a := range args {
		taken[filepath.Clean(a)] = true
	}
	var out []string
	for _, path := range p.LocalPaths() {
		if !taken[path] {
			out = append(out, filepath.ToSlash(path))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
