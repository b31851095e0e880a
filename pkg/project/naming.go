package project

import (
	"path/filepath"
	"strings"
)

// UnitName derives the directory name of an HTTP unit from its route.
//
//	get /              -> get-index
//	get /notes/:id     -> get-notes-000id
//	post /api/v1.0     -> post-api-v1_0
func UnitName(method, path string) string {
	return strings.ToLower(method) + routeSuffix(path)
}

func routeSuffix(path string) string {
	if path == "/" || path == "" {
		return "-index"
	}
	r := strings.NewReplacer("/", "-", ":", "000", ".", "_")
	return r.Replace(path)
}

// UnitDir returns the project-relative directory of a unit.
func UnitDir(kind Kind, name string) string {
	return filepath.Join(DefaultSrcDir, string(kind), name)
}

// declName returns the unit name of a non-HTTP declaration. Scheduled and
// table declarations may carry trailing arguments ("cleanup rate(1 day)").
func declName(decl string) string {
	if fields := strings.Fields(decl); len(fields) > 0 {
		return fields[0]
	}
	return decl
}
