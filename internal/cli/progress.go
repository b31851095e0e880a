package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/matzehuels/hydrate/pkg/errors"
	"github.com/matzehuels/hydrate/pkg/observability"
	"github.com/matzehuels/hydrate/pkg/project"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// useProgressView reports whether runs are shown as a live view.
// In auto mode the view is used only on an interactive terminal without
// verbose logging, which would interleave with it.
func useProgressView(cfg *Config) bool {
	switch cfg.Progress {
	case progressAlways:
		return true
	case progressNever:
		return false
	}
	return !cfg.Verbose && term.IsTerminal(int(os.Stderr.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// setHooks registers h for the duration of a run and returns a func that
// restores the no-op hooks.
func setHooks(h observability.HydrateHooks) func() {
	observability.SetHydrateHooks(h)
	return observability.Reset
}

// =============================================================================
// Line Output
// =============================================================================

// lineHooks prints one line per finished unit.
type lineHooks struct {
	observability.NoopHydrateHooks

	mu sync.Mutex
	w  io.Writer
}

func (h *lineHooks) OnUnitComplete(_ context.Context, _, unit string, step observability.Step, d time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	unit = filepath.ToSlash(unit)
	switch {
	case err != nil:
		fmt.Fprintln(h.w, styleIconError.Render(iconError)+" "+unit+" "+StyleDim.Render(string(step)+" failed"))
	case step == observability.StepPropagate:
		fmt.Fprintln(h.w, styleIconSuccess.Render(iconSuccess)+" "+unit+" "+StyleDim.Render(d.Round(time.Millisecond).String()))
	}
}

// =============================================================================
// Live Progress View
// =============================================================================

// runWithProgressView shows a live per-unit view while run executes.
// Ctrl+C cancels the run; the view stays up until every job has returned.
func (c *CLI) runWithProgressView(ctx context.Context, mode string, p *project.Project, paths []string, run runFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newProgressModel(mode, p.Name, displayPaths(p, paths), cancel)
	prog := tea.NewProgram(model, tea.WithOutput(os.Stderr))

	restore := setHooks(&teaHooks{prog: prog})
	defer restore()

	// Log output would tear the view; the final view and the returned
	// error carry everything the user needs.
	quiet := log.NewWithOptions(io.Discard, log.Options{})

	errc := make(chan error, 1)
	go func() {
		errc <- run(ctx, c.newHydrator(quiet), p, paths)
	}()

	if _, err := prog.Run(); err != nil {
		c.Logger.Debug("progress view stopped", "err", err)
	}
	return <-errc
}

// displayPaths converts paths to the project-relative form hooks report.
func displayPaths(p *project.Project, paths []string) []string {
	out := make([]string, len(paths))
	for i, path := range paths {
		out[i] = p.Rel(path)
	}
	return out
}

// teaHooks forwards hydrate events to a running bubbletea program.
type teaHooks struct {
	observability.NoopHydrateHooks
	prog *tea.Program
}

func (h *teaHooks) OnUnitStart(_ context.Context, _, unit string, step observability.Step) {
	h.prog.Send(unitStartMsg{unit: unit, step: step})
}

func (h *teaHooks) OnUnitComplete(_ context.Context, _, unit string, step observability.Step, d time.Duration, err error) {
	h.prog.Send(unitDoneMsg{unit: unit, step: step, duration: d, err: err})
}

func (h *teaHooks) OnRunComplete(_ context.Context, _ string, d time.Duration, err error) {
	h.prog.Send(runDoneMsg{duration: d, err: err})
}

type (
	unitStartMsg struct {
		unit string
		step observability.Step
	}
	unitDoneMsg struct {
		unit     string
		step     observability.Step
		duration time.Duration
		err      error
	}
	runDoneMsg struct {
		duration time.Duration
		err      error
	}
	tickMsg struct{}
)

type unitStatus int

const (
	statusPending unitStatus = iota
	statusRunning
	statusDone
	statusFailed
)

type unitRow struct {
	path     string
	status   unitStatus
	step     observability.Step
	duration time.Duration
	err      error
}

// progressModel is the bubbletea model for a hydration run.
type progressModel struct {
	mode    string
	project string
	rows    []*unitRow
	index   map[string]*unitRow
	cancel  context.CancelFunc

	frame    int
	finished bool
	canceled bool
	duration time.Duration
	err      error
}

func newProgressModel(mode, projectName string, paths []string, cancel context.CancelFunc) *progressModel {
	m := &progressModel{
		mode:    mode,
		project: projectName,
		index:   make(map[string]*unitRow, len(paths)),
		cancel:  cancel,
	}
	for _, path := range paths {
		row := &unitRow{path: path}
		m.rows = append(m.rows, row)
		m.index[path] = row
	}
	return m
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *progressModel) Init() tea.Cmd {
	return tick()
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && !m.canceled {
			m.canceled = true
			if m.cancel != nil {
				m.cancel()
			}
		}
	case tickMsg:
		if m.finished {
			return m, nil
		}
		m.frame++
		return m, tick()
	case unitStartMsg:
		if row := m.index[msg.unit]; row != nil {
			row.status = statusRunning
			row.step = msg.step
		}
	case unitDoneMsg:
		if row := m.index[msg.unit]; row != nil {
			row.duration += msg.duration
			switch {
			case msg.err != nil:
				row.status = statusFailed
				row.err = msg.err
			case msg.step == observability.StepPropagate:
				row.status = statusDone
			}
		}
	case runDoneMsg:
		m.finished = true
		m.duration = msg.duration
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m *progressModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.mode) + " " + StyleValue.Render(m.project))
	b.WriteString("\n")

	done, failed := 0, 0
	for _, row := range m.rows {
		b.WriteString(m.renderRow(row))
		b.WriteString("\n")
		switch row.status {
		case statusDone:
			done++
		case statusFailed:
			failed++
		}
	}

	summary := fmt.Sprintf("%d/%d units", done, len(m.rows))
	if failed > 0 {
		summary += fmt.Sprintf(" · %d failed", failed)
	}
	if m.finished {
		summary += " · " + m.duration.Round(time.Millisecond).String()
	} else if m.canceled {
		summary += " · cancelling"
	}
	b.WriteString(StyleDim.Render(summary))
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) renderRow(row *unitRow) string {
	path := filepath.ToSlash(row.path)
	switch row.status {
	case statusRunning:
		frame := spinnerFrames[m.frame%len(spinnerFrames)]
		return styleIconSpinner.Render(frame) + " " + path + " " + StyleDim.Render(string(row.step))
	case statusDone:
		return styleIconSuccess.Render(iconSuccess) + " " + path + " " + StyleDim.Render(row.duration.Round(time.Millisecond).String())
	case statusFailed:
		return styleIconError.Render(iconError) + " " + path + " " + StyleWarning.Render(firstLine(errors.UserMessage(row.err)))
	}
	return StyleDim.Render("· " + path)
}

// firstLine trims package manager output from an error message.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
