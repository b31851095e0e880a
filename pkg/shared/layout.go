package shared

import "path/filepath"

// Default dependency-tree layout.
const (
	DefaultDepDir = "node_modules"
	DefaultScope  = "@architect"
)

// Synthetic package names and the files written alongside their contents.
const (
	SharedPackage = "shared"
	ViewsPackage  = "views"

	// MarkerFile records the project description the package was built from.
	MarkerFile = ".arc"
	// StaticManifestFile maps static asset names to their served paths.
	StaticManifestFile = "static.json"
)

// Layout locates synthetic packages inside a unit's dependency directory:
//
//	<unit>/<DepDir>/<Scope>/shared/
//	<unit>/<DepDir>/<Scope>/views/
type Layout struct {
	DepDir string
	Scope  string
}

// DefaultLayout returns the node_modules/@architect layout.
func DefaultLayout() Layout {
	return Layout{DepDir: DefaultDepDir, Scope: DefaultScope}
}

// WithDefaults fills empty fields from DefaultLayout.
func (l Layout) WithDefaults() Layout {
	if l.DepDir == "" {
		l.DepDir = DefaultDepDir
	}
	if l.Scope == "" {
		l.Scope = DefaultScope
	}
	return l
}

// ScopePath returns <unitDir>/<DepDir>/<Scope>.
func (l Layout) ScopePath(unitDir string) string {
	l = l.WithDefaults()
	return filepath.Join(unitDir, l.DepDir, l.Scope)
}

// SharedPath returns the shared synthetic package directory of a unit.
func (l Layout) SharedPath(unitDir string) string {
	return filepath.Join(l.ScopePath(unitDir), SharedPackage)
}

// ViewsPath returns the views synthetic package directory of a unit.
func (l Layout) ViewsPath(unitDir string) string {
	return filepath.Join(l.ScopePath(unitDir), ViewsPackage)
}
