// Package manifest reads the dependency manifest pair of a code unit.
//
// Every unit must carry both a dependency manifest (package.json) and a lock
// file (package-lock.json). Both must exist and be valid JSON objects before
// the package manager is invoked; anything else is a corrupt manifest, which
// is fatal for that unit and never retried.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/matzehuels/hydrate/pkg/errors"
)

// Manifest file names.
const (
	ManifestFile = "package.json"
	LockFile     = "package-lock.json"
)

// Package is the subset of package.json the hydration engine reads.
type Package struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
}

// Lock is the subset of package-lock.json the hydration engine reads.
type Lock struct {
	Name            string                     `json:"name"`
	LockfileVersion int                        `json:"lockfileVersion"`
	Packages        map[string]json.RawMessage `json:"packages"`
	Dependencies    map[string]json.RawMessage `json:"dependencies"`
}

// Pair is a unit's parsed manifest and lock file.
type Pair struct {
	Dir     string
	Package Package
	Lock    Lock
}

// Exists reports whether dir carries a dependency manifest at all.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ManifestFile))
	return err == nil
}

// Read loads and validates the manifest pair in dir. Missing or unparsable
// files yield a MANIFEST_CORRUPT error tagged with unit.
func Read(dir, unit string) (*Pair, error) {
	pair := &Pair{Dir: dir}
	if err := readJSON(dir, unit, ManifestFile, &pair.Package); err != nil {
		return nil, err
	}
	if err := readJSON(dir, unit, LockFile, &pair.Lock); err != nil {
		return nil, err
	}
	return pair, nil
}

// Dependencies returns the sorted names of all declared dependencies,
// including dev, optional and peer dependencies.
func (p *Pair) Dependencies() []string {
	seen := make(map[string]bool)
	for _, m := range []map[string]string{
		p.Package.Dependencies,
		p.Package.DevDependencies,
		p.Package.OptionalDependencies,
		p.Package.PeerDependencies,
	} {
		for name := range m {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// readJSON decodes dir/name into v, which must be a pointer to a struct.
// The document must be a JSON object; arrays, strings and the like are
// rejected even when syntactically valid.
func readJSON(dir, unit, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return errors.ForUnit(errors.ErrCodeManifestCorrupt, unit, nil, "%s is missing", name)
		}
		return errors.ForUnit(errors.ErrCodeManifestCorrupt, unit, err, "read %s", name)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return errors.ForUnit(errors.ErrCodeManifestCorrupt, unit, err, "%s is not a valid JSON object", name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.ForUnit(errors.ErrCodeManifestCorrupt, unit, err, "%s has unexpected structure", name)
	}
	return nil
}
