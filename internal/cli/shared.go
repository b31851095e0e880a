package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hydrate/pkg/hydrate"
	"github.com/matzehuels/hydrate/pkg/install"
	"github.com/matzehuels/hydrate/pkg/project"
)

// sharedCommand creates the shared command.
func (c *CLI) sharedCommand() *cobra.Command {
	var update bool

	cmd := &cobra.Command{
		Use:   "shared [units...]",
		Short: "Install shared code dependencies and propagate shared code",
		Long: `Shared installs the dependencies declared by the shared and views directories
themselves, then copies both into the units. Unit dependencies are not touched.

Use --update to update the shared dependencies instead of a clean install.`,
		ValidArgsFunction: c.completeUnits,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := install.ModeInstall
			if update {
				mode = install.ModeUpdate
			}
			return c.hydrate(cmd, hydrate.ModeShared, args, func(ctx context.Context, h *hydrate.Hydrator, p *project.Project, paths []string) error {
				return h.Shared(ctx, p, paths, mode)
			})
		},
	}

	cmd.Flags().BoolVarP(&update, "update", "u", false, "update shared dependencies instead of installing them")
	return cmd
}

// propagateCommand creates the propagate command.
func (c *CLI) propagateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "propagate [units...]",
		Short: "Copy shared and views code into units",
		Long: `Propagate rebuilds the shared and views packages inside each unit without
installing anything. Packages a unit is no longer eligible for are removed.`,
		ValidArgsFunction: c.completeUnits,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.hydrate(cmd, hydrate.ModePropagate, args, func(ctx context.Context, h *hydrate.Hydrator, p *project.Project, paths []string) error {
				return h.Propagate(ctx, p, paths)
			})
		},
	}
}
