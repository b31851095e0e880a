// Package buildinfo holds the version stamped into hydrate release builds:
//
//	go build -ldflags "-X github.com/matzehuels/hydrate/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/hydrate/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/hydrate/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	// Version is the semantic version (e.g., "v1.2.3").
	// Set via ldflags: -X github.com/matzehuels/hydrate/pkg/buildinfo.Version=...
	Version = "dev"

	// Commit is the git commit SHA.
	// Set via ldflags: -X github.com/matzehuels/hydrate/pkg/buildinfo.Commit=...
	Commit = "none"

	// Date is the build timestamp.
	// Set via ldflags: -X github.com/matzehuels/hydrate/pkg/buildinfo.Date=...
	Date = "unknown"
)

// Template returns the cobra version template, e.g.
//
//	hydrate v1.2.0 (commit 3f2c1e0, built 2026-10-01T12:00:00Z)
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s)\n", Version, Commit, Date)
}
