// Package shared propagates project-wide shared code into code units.
//
// Each code unit is deployed on its own, so code shared across units has to
// be copied into every unit that needs it. The Propagator materializes two
// synthetic packages inside a unit's dependency directory, where application
// code resolves them by a fixed import name:
//
//	<unit>/node_modules/@architect/shared/   shared dir contents + .arc + static.json
//	<unit>/node_modules/@architect/views/    views dir contents + .arc
//
// Which units receive which package is decided by [Eligible], a pure function
// of the unit and the project description. Propagation always starts from a
// clean slate: an existing synthetic package is removed before it is rebuilt,
// and a package the unit is no longer eligible for is removed outright, so a
// re-run fixes stale or partial state left behind by an earlier failure.
//
// The Propagator writes only below <unit>/<dep-dir>/<scope> and never
// modifies the shared or views source directories.
package shared

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hydrate/pkg/errors"
	"github.com/matzehuels/hydrate/pkg/project"
)

// Propagator copies shared and views code into eligible units.
//
// A Propagator is safe for concurrent use across distinct units: it holds
// only read-only state computed by [New].
type Propagator struct {
	project *project.Project
	layout  Layout
	logger  *log.Logger

	marker []byte // project description written as MarkerFile
	static []byte // static asset manifest written as StaticManifestFile
}

// New prepares a Propagator for p. The project marker and static asset
// manifest are computed once here and reused for every unit.
func New(p *project.Project, layout Layout, logger *log.Logger) (*Propagator, error) {
	if p == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "project description is required")
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	marker, err := p.Encode()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode project marker")
	}
	static, err := StaticManifest(p)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePropagation, err, "build static asset manifest from %s", p.StaticDir)
	}

	return &Propagator{
		project: p,
		layout:  layout.WithDefaults(),
		logger:  logger,
		marker:  marker,
		static:  static,
	}, nil
}

// Layout returns the dependency-tree layout the Propagator writes to.
func (p *Propagator) Layout() Layout { return p.layout }

// Propagate brings unit u's synthetic packages in line with its eligibility.
// Failures are PROPAGATION_FAILED errors tagged with the unit path.
func (p *Propagator) Propagate(ctx context.Context, u project.Unit) error {
	elig := Eligible(u, p.project)
	unitDir := p.project.Abs(u.Path)

	logger := p.logger.With("unit", u.Path)
	logger.Debug("propagating shared code", "shared", elig.Shared, "views", elig.Views)

	if err := p.propagateShared(ctx, unitDir, elig.Shared); err != nil {
		return errors.ForUnit(errors.ErrCodePropagation, u.Path, err, "inject %s/%s", p.layout.Scope, SharedPackage)
	}
	if err := p.propagateViews(ctx, unitDir, elig.Views); err != nil {
		return errors.ForUnit(errors.ErrCodePropagation, u.Path, err, "inject %s/%s", p.layout.Scope, ViewsPackage)
	}
	return nil
}

func (p *Propagator) propagateShared(ctx context.Context, unitDir string, eligible bool) error {
	dst := p.layout.SharedPath(unitDir)
	if err := os.RemoveAll(dst); err != nil {
		return err
	}
	if !eligible {
		return p.pruneScope(unitDir)
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}
	if src := p.project.Abs(p.project.SharedDir); isDir(src) {
		if err := copyTree(ctx, src, dst); err != nil {
			return err
		}
	}
	if err := os.WriteFile(filepath.Join(dst, MarkerFile), p.marker, 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dst, StaticManifestFile), p.static, 0644)
}

func (p *Propagator) propagateViews(ctx context.Context, unitDir string, eligible bool) error {
	dst := p.layout.ViewsPath(unitDir)
	if err := os.RemoveAll(dst); err != nil {
		return err
	}
	src := p.project.Abs(p.project.ViewsDir)
	if !eligible || !isDir(src) {
		return p.pruneScope(unitDir)
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}
	if err := copyTree(ctx, src, dst); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dst, MarkerFile), p.marker, 0644)
}

// pruneScope removes the scope directory once it holds no packages, so a
// unit that receives nothing is left without an empty @scope behind.
func (p *Propagator) pruneScope(unitDir string) error {
	scope := p.layout.ScopePath(unitDir)
	entries, err := os.ReadDir(scope)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return os.Remove(scope)
	}
	return nil
}
