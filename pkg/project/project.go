// Package project describes a multi-unit serverless project.
//
// A project is decomposed into code units: one independently deployable
// directory per HTTP route, event, queue, scheduled task, table stream or
// websocket handler. Each unit carries its own dependency manifest and,
// optionally, a local config.toml that overrides project-wide behaviour.
//
// The package plays the role of the project inventory for the hydration
// engine: it turns a declarative project file into a [Project] and enumerates
// the [Unit] values that hydration operates on. A Project is immutable once
// loaded; units are enumerated fresh for every hydration run by
// [Project.Inventory], which re-reads per-unit configuration from disk.
//
// # Layout
//
//	app.toml                      project file (see [Load])
//	src/shared/                   project-wide shared code
//	src/views/                    view code for GET handlers
//	public/                       static assets
//	src/http/get-index/           one code unit
//	    package.json
//	    package-lock.json
//	    config.toml               optional per-unit overrides
package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matzehuels/hydrate/pkg/errors"
)

// Kind is the declared kind of a code unit.
type Kind string

// Unit kinds, in the order units are enumerated.
const (
	KindHTTP      Kind = "http"
	KindEvents    Kind = "events"
	KindQueues    Kind = "queues"
	KindScheduled Kind = "scheduled"
	KindTables    Kind = "tables"
	KindWS        Kind = "ws"
)

// Default project-relative directories.
const (
	DefaultSrcDir    = "src"
	DefaultSharedDir = "src/shared"
	DefaultViewsDir  = "src/views"
	DefaultStaticDir = "public"
)

// Route is an HTTP route declaration such as "get /notes/:id".
type Route struct {
	Method string // lowercase: get, post, put, patch, delete, any
	Path   string // always starts with "/"
}

// ParseRoute parses "METHOD /path". The method is case-insensitive.
func ParseRoute(s string) (Route, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Route{}, fmt.Errorf("invalid route %q: want \"METHOD /path\"", s)
	}
	method := strings.ToLower(fields[0])
	switch method {
	case "get", "post", "put", "patch", "delete", "head", "options", "any":
	default:
		return Route{}, fmt.Errorf("invalid route %q: unknown method %q", s, fields[0])
	}
	path := fields[1]
	if !strings.HasPrefix(path, "/") {
		return Route{}, fmt.Errorf("invalid route %q: path must start with /", s)
	}
	return Route{Method: method, Path: path}, nil
}

// String returns the route in "method /path" form.
func (r Route) String() string { return r.Method + " " + r.Path }

// IsGet reports whether the route is served for GET requests.
func (r Route) IsGet() bool { return r.Method == "get" }

// Project is a parsed project description.
type Project struct {
	Name string
	Root string // directory containing the project file; unit paths are relative to it

	SharedDir string // relative to Root
	ViewsDir  string // relative to Root
	StaticDir string // relative to Root

	HTTP []Route
	// Views is the explicit views mapping. When it is empty every GET route
	// is view-bearing; otherwise only the listed routes are.
	Views []Route

	Events    []string
	Queues    []string
	Scheduled []string
	Tables    []string
	WS        []string
}

// Unit is one deployable code directory.
type Unit struct {
	Path   string     // relative to the project root, OS separators
	Kind   Kind       // declared kind
	Name   string     // route-derived or declared name
	Route  *Route     // set for KindHTTP only
	Config UnitConfig // local overrides; zero value when no config.toml exists
}

// IsGet reports whether the unit is an HTTP GET handler.
func (u Unit) IsGet() bool {
	return u.Kind == KindHTTP && u.Route != nil && u.Route.IsGet()
}

// HasExplicitViews reports whether the project declares an explicit views mapping.
func (p *Project) HasExplicitViews() bool {
	return len(p.Views) > 0
}

// ExplicitView reports whether route is listed in the explicit views mapping.
func (p *Project) ExplicitView(route Route) bool {
	for _, v := range p.Views {
		if v == route {
			return true
		}
	}
	return false
}

// Units enumerates declared units in declaration order without touching disk.
// The Config of each returned unit is the zero value; use [Project.Inventory]
// to read per-unit overrides.
func (p *Project) Units() []Unit {
	var units []Unit
	for i := range p.HTTP {
		r := p.HTTP[i]
		name := UnitName(r.Method, r.Path)
		units = append(units, Unit{
			Path:  UnitDir(KindHTTP, name),
			Kind:  KindHTTP,
			Name:  name,
			Route: &r,
		})
	}
	for _, group := range []struct {
		kind  Kind
		names []string
	}{
		{KindEvents, p.Events},
		{KindQueues, p.Queues},
		{KindScheduled, p.Scheduled},
		{KindTables, p.Tables},
		{KindWS, p.WS},
	} {
		for _, decl := range group.names {
			name := declName(decl)
			units = append(units, Unit{
				Path: UnitDir(group.kind, name),
				Kind: group.kind,
				Name: name,
			})
		}
	}
	return units
}

// LocalPaths returns the relative path of every declared unit.
func (p *Project) LocalPaths() []string {
	units := p.Units()
	paths := make([]string, len(units))
	for i, u := range units {
		paths[i] = u.Path
	}
	return paths
}

// Inventory enumerates units and reads each unit's local configuration.
// It is evaluated fresh on every call; nothing is cached.
func (p *Project) Inventory() ([]Unit, error) {
	units := p.Units()
	for i := range units {
		cfg, err := ReadUnitConfig(p.Abs(units[i].Path))
		if err != nil {
			return nil, errors.WithUnit(err, units[i].Path)
		}
		units[i].Config = cfg
	}
	return units, nil
}

// Unit finds a declared unit by path. Absolute paths are resolved against
// the project root. The returned unit has a zero Config.
func (p *Project) Unit(path string) (Unit, bool) {
	want := p.Rel(path)
	for _, u := range p.Units() {
		if u.Path == want {
			return u, true
		}
	}
	return Unit{}, false
}

// Abs resolves a project-relative path against Root.
func (p *Project) Abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Root, path)
}

// Rel converts path to a cleaned project-relative path. Paths outside Root
// are returned cleaned but otherwise unchanged.
func (p *Project) Rel(path string) string {
	if filepath.IsAbs(path) && p.Root != "" {
		if rel, err := filepath.Rel(p.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return filepath.Clean(path)
}
