package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator keeps file access inside the configured directory
type PathValidator struct {
	directory string
}

// NewPathValidator creates a new path validator for the given directory
func NewPathValidator(directory string) (*PathValidator, error) {
	if directory == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	return &PathValidator{directory: directory}, nil
}

// Resolve returns the absolute form of path, resolving relative paths
// against the configured directory, and rejects anything outside it
func (v *PathValidator) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.directory, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	within, err := v.IsWithin(abs)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}

	return abs, nil
}

// IsWithin reports whether path, after resolving symlinks, lies inside the directory
func (v *PathValidator) IsWithin(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	absDir, err := filepath.Abs(v.directory)
	if err != nil {
		return false, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(absDir)

	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
			realPath = resolved
		}
	}
	realDir := cleanDir
	if resolved, err := filepath.EvalSymlinks(cleanDir); err == nil {
		realDir = resolved
	}

	inside := func(p string) bool {
		return within(p, cleanDir) || within(p, realDir)
	}
	return inside(cleanPath) && inside(realPath), nil
}

// Directory returns the configured directory
func (v *PathValidator) Directory() string {
	return v.directory
}

func within(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}
