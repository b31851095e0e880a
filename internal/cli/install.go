package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hydrate/pkg/hydrate"
	"github.com/matzehuels/hydrate/pkg/install"
	"github.com/matzehuels/hydrate/pkg/project"
)

// installCommand creates the install or update command.
func (c *CLI) installCommand(mode install.Mode) *cobra.Command {
	short := "Install locked dependencies and shared code into units"
	long := `Install runs a clean install of each unit's locked dependencies, then copies
shared and views code into every unit whose install succeeded.

Without arguments every unit declared in the project is hydrated. Units are
processed concurrently; a failing unit does not stop the others.`
	if mode == install.ModeUpdate {
		short = "Update dependencies and shared code in units"
		long = `Update upgrades each unit's dependencies within the ranges declared in
package.json, then copies shared and views code into every unit whose update
succeeded.

Without arguments every unit declared in the project is hydrated.`
	}

	return &cobra.Command{
		Use:               string(mode) + " [units...]",
		Short:             short,
		Long:              long,
		ValidArgsFunction: c.completeUnits,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.hydrate(cmd, mode.String(), args, func(ctx context.Context, h *hydrate.Hydrator, p *project.Project, paths []string) error {
				return h.Run(ctx, p, paths, mode)
			})
		},
	}
}

// runFunc performs one hydration run.
type runFunc func(ctx context.Context, h *hydrate.Hydrator, p *project.Project, paths []string) error

// hydrate loads the project, resolves the unit arguments and performs run
// with progress reporting.
func (c *CLI) hydrate(cmd *cobra.Command, mode string, args []string, run runFunc) error {
	ctx := cmd.Context()
	cfg := c.config()
	p, err := cfg.loadProject()
	if err != nil {
		return err
	}
	paths := unitPaths(p, args)
	if len(paths) == 0 {
		printWarning("project %s declares no units", p.Name)
		return nil
	}

	if useProgressView(cfg) {
		return c.runWithProgressView(ctx, mode, p, paths, run)
	}
	return c.runWithLines(ctx, cmd.OutOrStdout(), mode, p, paths, run)
}

// runWithLines reports each unit on its own line of w. The failure itself is
// left to the caller, which prints the returned error.
func (c *CLI) runWithLines(ctx context.Context, w io.Writer, mode string, p *project.Project, paths []string, run runFunc) error {
	hooks := &lineHooks{w: w}
	restore := setHooks(hooks)
	defer restore()

	prog := newProgress(c.Logger)
	err := run(ctx, c.newHydrator(c.Logger), p, paths)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("%s: hydrated %d units of %s", mode, len(paths), p.Name))
	return nil
}
