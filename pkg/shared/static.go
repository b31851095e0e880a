package shared

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/hydrate/pkg/project"
)

// StaticManifest builds the static asset manifest injected into the shared
// package.
//
// A fingerprinted build leaves <StaticDir>/static.json behind; when it exists
// and holds a JSON object its contents are used as-is. Otherwise every file under
// the static directory maps to itself. A missing static directory yields {}.
func StaticManifest(p *project.Project) ([]byte, error) {
	dir := p.Abs(p.StaticDir)

	if data, err := os.ReadFile(filepath.Join(dir, StaticManifestFile)); err == nil {
		var m map[string]any
		if json.Unmarshal(data, &m) == nil && m != nil {
			return data, nil
		}
	}

	assets := map[string]string{}
	info, err := os.Stat(dir)
	if os.IsNotExist(err) || (err == nil && !info.IsDir()) {
		return json.MarshalIndent(assets, "", "  ")
	}
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || d.Name() == StaticManifestFile {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		assets[rel] = rel
		return nil
	})
	if err != nil {
		return nil, err
	}
	// encoding/json sorts map keys, so the output is deterministic.
	return json.MarshalIndent(assets, "", "  ")
}
