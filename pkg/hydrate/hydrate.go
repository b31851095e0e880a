// Package hydrate orchestrates dependency installation and shared-code
// propagation across the code units of a project.
//
// A run fans out one job per requested unit. Each job installs (or updates)
// the unit's dependencies and, only when that succeeded, propagates shared
// and views code into the unit. Jobs for different units run concurrently and
// never cancel each other: a failing unit does not stop its siblings, and the
// run reports the first error observed once every job has finished.
//
// Every run is assigned an ID that tags its log lines and the events sent to
// [observability.HydrateHooks]. OnRunComplete fires exactly once per run with
// the same error the run returns.
package hydrate

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/hydrate/pkg/errors"
	"github.com/matzehuels/hydrate/pkg/install"
	"github.com/matzehuels/hydrate/pkg/manifest"
	"github.com/matzehuels/hydrate/pkg/observability"
	"github.com/matzehuels/hydrate/pkg/project"
	"github.com/matzehuels/hydrate/pkg/shared"
)

// Run modes reported to hooks for runs that do not install unit dependencies.
const (
	ModeShared    = "shared"
	ModePropagate = "propagate"
)

// Hydrator runs hydration jobs.
//
// The Hydrator holds no per-run state. Multiple goroutines can safely use
// the same Hydrator for different projects or unit sets.
type Hydrator struct {
	Installer install.Installer
	Layout    shared.Layout
	Logger    *log.Logger

	// Concurrency caps the number of units processed at once.
	// Zero or negative means one job per unit, all at once.
	Concurrency int
}

// New creates a Hydrator. A nil installer defaults to npm found on PATH and a
// nil logger discards output. Zero layout fields take their defaults.
func New(installer install.Installer, layout shared.Layout, logger *log.Logger) *Hydrator {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if installer == nil {
		installer = install.NewNPM("", logger)
	}
	return &Hydrator{
		Installer: installer,
		Layout:    layout.WithDefaults(),
		Logger:    logger,
	}
}

// Install installs the locked dependencies of every listed unit, then
// propagates shared code into each unit whose install succeeded.
func (h *Hydrator) Install(ctx context.Context, p *project.Project, paths []string) error {
	return h.Run(ctx, p, paths, install.ModeInstall)
}

// Update is Install with dependencies upgraded within their declared ranges.
func (h *Hydrator) Update(ctx context.Context, p *project.Project, paths []string) error {
	return h.Run(ctx, p, paths, install.ModeUpdate)
}

// Run hydrates the listed units in the given mode.
//
// paths must be non-empty, free of duplicates, and name units declared in p;
// otherwise Run fails before any unit is touched. Unit paths may be relative
// to the project root or absolute.
func (h *Hydrator) Run(ctx context.Context, p *project.Project, paths []string, mode install.Mode) error {
	if _, err := install.ParseMode(string(mode)); err != nil {
		return err
	}
	return h.run(ctx, p, paths, runOptions{mode: mode.String(), install: mode})
}

// Propagate copies shared and views code into the listed units without
// touching their dependencies.
func (h *Hydrator) Propagate(ctx context.Context, p *project.Project, paths []string) error {
	return h.run(ctx, p, paths, runOptions{mode: ModePropagate})
}

// Shared installs the dependencies of the shared and views source directories
// themselves, when they declare any, and then propagates into the listed
// units. Unit dependencies are left alone.
func (h *Hydrator) Shared(ctx context.Context, p *project.Project, paths []string, mode install.Mode) error {
	if _, err := install.ParseMode(string(mode)); err != nil {
		return err
	}
	return h.run(ctx, p, paths, runOptions{mode: ModeShared, sources: mode})
}

type runOptions struct {
	mode    string       // reported to hooks and logs
	install install.Mode // unit install mode; empty skips unit installs
	sources install.Mode // source dir install mode; empty skips them
}

type run struct {
	*Hydrator
	id     string
	p      *project.Project
	prop   *shared.Propagator
	opts   runOptions
	logger *log.Logger
	hooks  observability.HydrateHooks
}

func (h *Hydrator) run(ctx context.Context, p *project.Project, paths []string, opts runOptions) (err error) {
	id := uuid.NewString()
	hooks := observability.Hydrate()
	logger := h.Logger.With("run", id[:8])
	start := time.Now()

	hooks.OnRunStart(ctx, id, opts.mode, paths)
	defer func() {
		d := time.Since(start)
		hooks.OnRunComplete(ctx, id, d, err)
		if err != nil {
			logger.Debug("hydration failed", "mode", opts.mode, "duration", d, "err", err)
			return
		}
		logger.Info("hydration complete", "mode", opts.mode, "units", len(paths), "duration", d)
	}()

	units, err := resolve(p, paths)
	if err != nil {
		return err
	}
	prop, err := shared.New(p, h.Layout, logger)
	if err != nil {
		return err
	}

	r := &run{
		Hydrator: h,
		id:       id,
		p:        p,
		prop:     prop,
		opts:     opts,
		logger:   logger,
		hooks:    hooks,
	}
	logger.Info("hydrating", "mode", opts.mode, "units", len(units))

	if opts.sources != "" {
		if err := r.installSources(ctx); err != nil {
			return err
		}
	}
	return r.fanOut(ctx, units)
}

// resolve maps caller-supplied paths to declared units.
func resolve(p *project.Project, paths []string) ([]project.Unit, error) {
	if p == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "project description is required")
	}
	if err := errors.ValidateUnitPaths(paths); err != nil {
		return nil, err
	}

	units := make([]project.Unit, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		u, ok := p.Unit(path)
		if !ok {
			return nil, errors.ForUnit(errors.ErrCodeUnknownUnit, path, nil, "not declared in project %s", p.Name)
		}
		if seen[u.Path] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "unit %q listed more than once", u.Path)
		}
		seen[u.Path] = true
		units = append(units, u)
	}
	return units, nil
}

// fanOut runs one job per unit and waits for all of them. The group has no
// shared context, so a failing job leaves its siblings running.
func (r *run) fanOut(ctx context.Context, units []project.Unit) error {
	var g errgroup.Group
	if r.Concurrency > 0 {
		g.SetLimit(r.Concurrency)
	}
	for _, u := range units {
		g.Go(func() error {
			return r.hydrateUnit(ctx, u)
		})
	}
	return g.Wait()
}

func (r *run) hydrateUnit(ctx context.Context, u project.Unit) error {
	// Local overrides are read now so edits between runs take effect.
	cfg, err := project.ReadUnitConfig(r.p.Abs(u.Path))
	if err != nil {
		return errors.WithUnit(err, u.Path)
	}
	u.Config = cfg

	if r.opts.install != "" {
		err := r.step(ctx, u.Path, observability.StepInstall, func() error {
			return r.Installer.Install(ctx, r.p.Abs(u.Path), u.Path, r.opts.install)
		})
		if err != nil {
			return err
		}
	}
	return r.step(ctx, u.Path, observability.StepPropagate, func() error {
		return r.prop.Propagate(ctx, u)
	})
}

// step runs fn for unit, reporting it to hooks and the log.
func (r *run) step(ctx context.Context, unit string, step observability.Step, fn func() error) error {
	logger := r.logger.With("unit", unit, "step", step)
	r.hooks.OnUnitStart(ctx, r.id, unit, step)
	logger.Debug("starting")

	start := time.Now()
	err := fn()
	d := time.Since(start)

	r.hooks.OnUnitComplete(ctx, r.id, unit, step, d, err)
	if err != nil {
		logger.Warn("failed", "duration", d, "err", err)
		return err
	}
	logger.Debug("done", "duration", d)
	return nil
}

// installSources installs the dependencies of the shared and views source
// directories that declare any.
func (r *run) installSources(ctx context.Context) error {
	var g errgroup.Group
	for _, dir := range []string{r.p.SharedDir, r.p.ViewsDir} {
		if dir == "" {
			continue
		}
		abs := r.p.Abs(dir)
		if !manifest.Exists(abs) {
			r.logger.Debug("no dependencies declared", "dir", dir)
			continue
		}
		g.Go(func() error {
			return r.step(ctx, dir, observability.StepInstall, func() error {
				return r.Installer.Install(ctx, abs, dir, r.opts.sources)
			})
		})
	}
	return g.Wait()
}
