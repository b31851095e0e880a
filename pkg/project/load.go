package project

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/hydrate/pkg/errors"
)

// DefaultFile is the project file name looked up by [Find].
const DefaultFile = "app.toml"

// projectFile is the on-disk shape of app.toml.
//
//	name = "notes"
//	http = ["get /", "get /notes/:id", "post /notes"]
//	views = ["get /"]
//	events = ["note-created"]
//
//	[paths]
//	shared = "src/shared"
type projectFile struct {
	Name      string    `toml:"name"`
	Paths     pathsFile `toml:"paths,omitempty"`
	HTTP      []string  `toml:"http,omitempty"`
	Views     []string  `toml:"views,omitempty"`
	Events    []string  `toml:"events,omitempty"`
	Queues    []string  `toml:"queues,omitempty"`
	Scheduled []string  `toml:"scheduled,omitempty"`
	Tables    []string  `toml:"tables,omitempty"`
	WS        []string  `toml:"ws,omitempty"`
}

type pathsFile struct {
	Shared string `toml:"shared,omitempty"`
	Views  string `toml:"views,omitempty"`
	Static string `toml:"static,omitempty"`
}

// Load reads and validates a project file. The project root is the
// directory containing the file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "project file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read project file %s", path)
	}
	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", path)
	}
	p, err := Parse(data, root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "project file %s", path)
	}
	return p, nil
}

// Parse decodes project file contents. root becomes [Project.Root].
func Parse(data []byte, root string) (*Project, error) {
	var f projectFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, err
	}

	p := &Project{
		Name:      f.Name,
		Root:      root,
		SharedDir: orDefault(f.Paths.Shared, DefaultSharedDir),
		ViewsDir:  orDefault(f.Paths.Views, DefaultViewsDir),
		StaticDir: orDefault(f.Paths.Static, DefaultStaticDir),
		Events:    f.Events,
		Queues:    f.Queues,
		Scheduled: f.Scheduled,
		Tables:    f.Tables,
		WS:        f.WS,
	}
	if p.Name == "" {
		p.Name = filepath.Base(root)
	}

	for _, s := range f.HTTP {
		r, err := ParseRoute(s)
		if err != nil {
			return nil, err
		}
		p.HTTP = append(p.HTTP, r)
	}
	for _, s := range f.Views {
		r, err := ParseRoute(s)
		if err != nil {
			return nil, fmt.Errorf("views: %w", err)
		}
		if !p.declares(r) {
			return nil, fmt.Errorf("views: route %q is not declared in http", s)
		}
		p.Views = append(p.Views, r)
	}

	if err := p.checkUnique(); err != nil {
		return nil, err
	}
	return p, nil
}

// Find looks for app.toml in dir and its parents.
// Returns "" if no project file is found.
func Find(dir string) string {
	for {
		candidate := filepath.Join(dir, DefaultFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Encode renders the project description in project file form.
// Root is not recorded.
func (p *Project) Encode() ([]byte, error) {
	f := projectFile{
		Name: p.Name,
		Paths: pathsFile{
			Shared: p.SharedDir,
			Views:  p.ViewsDir,
			Static: p.StaticDir,
		},
		Events:    p.Events,
		Queues:    p.Queues,
		Scheduled: p.Scheduled,
		Tables:    p.Tables,
		WS:        p.WS,
	}
	for _, r := range p.HTTP {
		f.HTTP = append(f.HTTP, r.String())
	}
	for _, r := range p.Views {
		f.Views = append(f.Views, r.String())
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Project) declares(r Route) bool {
	for _, h := range p.HTTP {
		if h == r {
			return true
		}
	}
	return false
}

func (p *Project) checkUnique() error {
	seen := make(map[string]bool)
	for _, u := range p.Units() {
		if seen[u.Path] {
			return fmt.Errorf("unit %s declared more than once", u.Path)
		}
		seen[u.Path] = true
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
