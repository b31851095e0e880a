package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxPathLength bounds unit and project paths accepted from callers.
const maxPathLength = 1024

// ValidateUnitPath validates a code unit path supplied by a caller.
// Unit paths may be relative to the project root or absolute.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 1024 characters
//   - No null bytes or control characters
//   - A relative path must stay inside the project root (no leading ..)
func ValidateUnitPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "unit path cannot be empty")
	}

	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "unit path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "unit path contains invalid characters")
		}
	}

	if !filepath.IsAbs(path) {
		clean := filepath.ToSlash(filepath.Clean(path))
		if clean == ".." || strings.HasPrefix(clean, "../") {
			return New(ErrCodeInvalidPath, "unit path %q escapes the project root", path)
		}
	}

	return nil
}

// ValidateUnitPaths validates every path and rejects duplicates.
// Two paths are duplicates when they clean to the same location.
func ValidateUnitPaths(paths []string) error {
	if len(paths) == 0 {
		return New(ErrCodeInvalidInput, "at least one unit path is required")
	}
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if err := ValidateUnitPath(p); err != nil {
			return err
		}
		clean := filepath.Clean(p)
		if seen[clean] {
			return New(ErrCodeInvalidInput, "unit %q listed more than once", p)
		}
		seen[clean] = true
	}
	return nil
}
