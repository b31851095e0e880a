package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hydrate/pkg/manifest"
	"github.com/matzehuels/hydrate/pkg/project"
	"github.com/matzehuels/hydrate/pkg/shared"
)

// unitsCommand creates the units command.
func (c *CLI) unitsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "units",
		Short: "List code units and the shared code each receives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.config().loadProject()
			if err != nil {
				return err
			}
			units, err := p.Inventory()
			if err != nil {
				return err
			}
			printUnits(os.Stdout, p, units)
			return nil
		},
	}
}

// printUnits renders units as a table with their eligibility.
func printUnits(w io.Writer, p *project.Project, units []project.Unit) {
	fmt.Fprintln(w, StyleTitle.Render(p.Name)+" "+StyleDim.Render(p.Root))
	if len(units) == 0 {
		fmt.Fprintln(w, StyleDim.Render("no units declared"))
		return
	}

	rows := make([][]string, 0, len(units))
	for _, u := range units {
		e := shared.Eligible(u, p)
		rows = append(rows, []string{
			filepath.ToSlash(u.Path),
			string(u.Kind),
			mark(e.Shared),
			mark(e.Views),
			manifestState(p.Abs(u.Path)),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Unit", "Kind", "Shared", "Views", "Manifest").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		})

	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%d units", len(units))))
}

func mark(ok bool) string {
	if ok {
		return iconSuccess
	}
	return "—"
}

// manifestState summarizes the dependency manifest pair of a unit directory.
func manifestState(dir string) string {
	_, errPkg := os.Stat(filepath.Join(dir, manifest.ManifestFile))
	_, errLock := os.Stat(filepath.Join(dir, manifest.LockFile))
	switch {
	case errPkg == nil && errLock == nil:
		return "locked"
	case errPkg == nil:
		return "no lock file"
	default:
		return "missing"
	}
}
