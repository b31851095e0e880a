package shared

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/matzehuels/hydrate/pkg/errors"
	"github.com/matzehuels/hydrate/pkg/project"
)

const fixtureProject = `
name = "trails"
http = ["get /", "get /memories", "post /up-tents"]
views = ["get /memories"]
events = ["just-being-in-nature"]
`

// writeFile creates path (relative to root) with the given contents.
func writeFile(t *testing.T, root, path, contents string) {
	t.Helper()
	full := filepath.Join(root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// newFixture lays out a project with shared, views and static sources.
func newFixture(t *testing.T, src string) *project.Project {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, project.DefaultFile, src)
	writeFile(t, root, "src/shared/shared.md", "shared")
	writeFile(t, root, "src/shared/lib/util.js", "module.exports = {}")
	writeFile(t, root, "src/views/views.md", "views")
	writeFile(t, root, "public/index.css", "body{}")

	p, err := project.Load(filepath.Join(root, project.DefaultFile))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, path := range p.LocalPaths() {
		if err := os.MkdirAll(p.Abs(path), 0755); err != nil {
			t.Fatal(err)
		}
	}
	return p
}

func newPropagator(t *testing.T, p *project.Project) *Propagator {
	t.Helper()
	prop, err := New(p, DefaultLayout(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return prop
}

func propagateAll(t *testing.T, prop *Propagator, p *project.Project) {
	t.Helper()
	units, err := p.Inventory()
	if err != nil {
		t.Fatalf("Inventory: %v", err)
	}
	for _, u := range units {
		if err := prop.Propagate(context.Background(), u); err != nil {
			t.Fatalf("Propagate(%s): %v", u.Path, err)
		}
	}
}

func TestNewRequiresProject(t *testing.T) {
	if _, err := New(nil, DefaultLayout(), nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New(nil) error = %v, want INVALID_INPUT", err)
	}
}

func TestPropagate(t *testing.T) {
	p := newFixture(t, fixtureProject)
	prop := newPropagator(t, p)
	propagateAll(t, prop, p)

	layout := DefaultLayout()
	tests := []struct {
		unit       string
		wantShared bool
		wantViews  bool
	}{
		{"src/http/get-index", true, false},
		{"src/http/get-memories", true, true},
		{"src/http/post-up-tents", true, false},
		{"src/events/just-being-in-nature", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			dir := p.Abs(filepath.FromSlash(tt.unit))
			sharedDir := layout.SharedPath(dir)
			viewsDir := layout.ViewsPath(dir)

			if got := exists(filepath.Join(sharedDir, "shared.md")); got != tt.wantShared {
				t.Errorf("shared.md present = %v, want %v", got, tt.wantShared)
			}
			if tt.wantShared {
				for _, f := range []string{"lib/util.js", MarkerFile, StaticManifestFile} {
					if !exists(filepath.Join(sharedDir, filepath.FromSlash(f))) {
						t.Errorf("shared package missing %s", f)
					}
				}
			}
			if got := exists(filepath.Join(viewsDir, "views.md")); got != tt.wantViews {
				t.Errorf("views.md present = %v, want %v", got, tt.wantViews)
			}
			if tt.wantViews && !exists(filepath.Join(viewsDir, MarkerFile)) {
				t.Error("views package missing marker")
			}
			if exists(filepath.Join(viewsDir, StaticManifestFile)) {
				t.Error("views package must not carry a static manifest")
			}
		})
	}
}

func TestPropagateMarkerDescribesProject(t *testing.T) {
	p := newFixture(t, fixtureProject)
	propagateAll(t, newPropagator(t, p), p)

	marker := filepath.Join(DefaultLayout().SharedPath(p.Abs("src/http/get-index")), MarkerFile)
	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("read marker: %v", err)
	}
	decoded, err := project.Parse(data, p.Root)
	if err != nil {
		t.Fatalf("marker is not a valid project file: %v", err)
	}
	if decoded.Name != "trails" || len(decoded.HTTP) != 3 || len(decoded.Views) != 1 {
		t.Errorf("marker decoded to %+v", decoded)
	}
}

func TestPropagateStaticManifest(t *testing.T) {
	p := newFixture(t, fixtureProject)
	propagateAll(t, newPropagator(t, p), p)

	path := filepath.Join(DefaultLayout().SharedPath(p.Abs("src/http/get-index")), StaticManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("static manifest is not a JSON object: %v", err)
	}
	if m["index.css"] != "index.css" {
		t.Errorf("static manifest = %v", m)
	}
}

func TestPropagateHonorsUnitConfig(t *testing.T) {
	p := newFixture(t, fixtureProject)
	writeFile(t, p.Root, "src/http/get-memories/config.toml", "[hydrate]\nviews = false\n")
	writeFile(t, p.Root, "src/events/just-being-in-nature/config.toml", "[hydrate]\nshared = false\n")
	propagateAll(t, newPropagator(t, p), p)

	layout := DefaultLayout()
	memories := p.Abs("src/http/get-memories")
	if !exists(layout.SharedPath(memories)) {
		t.Error("views opt-out must keep shared")
	}
	if exists(layout.ViewsPath(memories)) {
		t.Error("views opt-out still received views")
	}

	event := p.Abs("src/events/just-being-in-nature")
	if exists(layout.ScopePath(event)) {
		t.Error("shared opt-out left the scope directory behind")
	}
}

func TestPropagateRemovesStalePackages(t *testing.T) {
	p := newFixture(t, fixtureProject)
	prop := newPropagator(t, p)
	propagateAll(t, prop, p)

	layout := DefaultLayout()
	memories := p.Abs("src/http/get-memories")

	// A stale file from an earlier run is cleared on rebuild.
	stale := filepath.Join(layout.SharedPath(memories), "stale.js")
	writeFile(t, memories, filepath.Join(DefaultDepDir, DefaultScope, SharedPackage, "stale.js"), "old")

	// Opting out after a run removes what was injected before.
	writeFile(t, p.Root, "src/http/get-memories/config.toml", "[hydrate]\nviews = false\n")
	propagateAll(t, prop, p)

	if exists(stale) {
		t.Error("stale file survived re-propagation")
	}
	if exists(layout.ViewsPath(memories)) {
		t.Error("views package survived after the unit opted out")
	}
	if !exists(filepath.Join(layout.SharedPath(memories), "shared.md")) {
		t.Error("shared package missing after re-propagation")
	}
}

func TestPropagateKeepsForeignScopedPackages(t *testing.T) {
	p := newFixture(t, fixtureProject)
	unit := p.Abs("src/events/just-being-in-nature")
	writeFile(t, unit, "config.toml", "[hydrate]\nshared = false\n")
	writeFile(t, unit, filepath.Join(DefaultDepDir, DefaultScope, "functions", "index.js"), "x")

	propagateAll(t, newPropagator(t, p), p)

	if !exists(filepath.Join(DefaultLayout().ScopePath(unit), "functions", "index.js")) {
		t.Error("installed package in the same scope was removed")
	}
}

func TestPropagateWithoutSourceDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, project.DefaultFile, fixtureProject)
	p, err := project.Load(filepath.Join(root, project.DefaultFile))
	if err != nil {
		t.Fatal(err)
	}
	propagateAll(t, newPropagator(t, p), p)

	layout := DefaultLayout()
	memories := p.Abs("src/http/get-memories")
	if !exists(filepath.Join(layout.SharedPath(memories), MarkerFile)) {
		t.Error("shared package should still carry the marker without a shared dir")
	}
	if exists(layout.ViewsPath(memories)) {
		t.Error("views package created without a views dir")
	}
}

func TestPropagateLeavesSourcesUntouched(t *testing.T) {
	p := newFixture(t, fixtureProject)
	propagateAll(t, newPropagator(t, p), p)

	for _, dir := range []string{p.SharedDir, p.ViewsDir} {
		entries, err := os.ReadDir(p.Abs(dir))
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if e.Name() == MarkerFile || e.Name() == StaticManifestFile || e.Name() == DefaultDepDir {
				t.Errorf("%s was modified: found %s", dir, e.Name())
			}
		}
	}
}

func TestPropagateCancelled(t *testing.T) {
	p := newFixture(t, fixtureProject)
	prop := newPropagator(t, p)
	u, ok := p.Unit("src/http/get-memories")
	if !ok {
		t.Fatal("unit not found")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := prop.Propagate(ctx, u)
	if !errors.Is(err, errors.ErrCodePropagation) {
		t.Fatalf("Propagate error = %v, want PROPAGATION_FAILED", err)
	}
	if errors.UnitOf(err) != u.Path {
		t.Errorf("UnitOf = %q, want %q", errors.UnitOf(err), u.Path)
	}
}

func TestCustomLayout(t *testing.T) {
	p := newFixture(t, fixtureProject)
	prop, err := New(p, Layout{DepDir: "deps", Scope: "@acme"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	propagateAll(t, prop, p)

	want := filepath.Join(p.Abs("src/http/get-index"), "deps", "@acme", SharedPackage, "shared.md")
	if !exists(want) {
		t.Errorf("expected %s", want)
	}
}

func TestPropagateSymlinkedSources(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	p := newFixture(t, fixtureProject)

	// Move both source dirs out of the project and link them back in, as a
	// monorepo sharing one library across projects would.
	common := t.TempDir()
	for _, dir := range []string{p.SharedDir, p.ViewsDir} {
		target := filepath.Join(common, filepath.Base(dir))
		if err := os.Rename(p.Abs(dir), target); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink(target, p.Abs(dir)); err != nil {
			t.Fatal(err)
		}
	}

	propagateAll(t, newPropagator(t, p), p)

	layout := DefaultLayout()
	memories := p.Abs(filepath.FromSlash("src/http/get-memories"))
	for _, path := range []string{
		filepath.Join(layout.SharedPath(memories), "shared.md"),
		filepath.Join(layout.SharedPath(memories), "lib", "util.js"),
		filepath.Join(layout.SharedPath(memories), MarkerFile),
		filepath.Join(layout.ViewsPath(memories), "views.md"),
	} {
		info, err := os.Lstat(path)
		if err != nil {
			t.Errorf("missing %s: %v", path, err)
			continue
		}
		if !info.Mode().IsRegular() {
			t.Errorf("%s is %v, want a regular file", path, info.Mode())
		}
	}
	post := p.Abs(filepath.FromSlash("src/http/post-up-tents"))
	if !exists(filepath.Join(layout.SharedPath(post), "shared.md")) {
		t.Error("shared code missing from post-up-tents")
	}
}
