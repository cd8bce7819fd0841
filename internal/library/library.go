// Package library finds album directories under a source root.
package library

import (
	"fmt"
	"os"
	"path/filepath"
)

// Source is one discovered album directory.
type Source struct {
	// Name is the directory's base name.
	Name string

	// Path is the absolute directory path.
	Path string
}

// Discover returns one Source per immediate subdirectory of root that holds
// at least one file accepted by isReference. Other entries are skipped.
// Results are in directory-listing order.
//
// Only a root that cannot be read is an error. A subdirectory that cannot
// be listed does not qualify.
//
// Example:
//
//	sources, err := library.Discover("/music", cat.IsReferenceFile)
func Discover(root string, isReference func(name string) bool) ([]Source, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read source root: %w", err)
	}

	var sources []Source
	for _, e := range entries {
		path := filepath.Join(abs, e.Name())
		if !isDir(e, path) {
			continue
		}
		if Qualifies(path, isReference) {
			sources = append(sources, Source{Name: e.Name(), Path: path})
		}
	}
	return sources, nil
}

// Qualifies reports whether dir directly contains a file accepted by isReference.
func Qualifies(dir string, isReference func(name string) bool) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && isReference(e.Name()) {
			return true
		}
	}
	return false
}

// isDir follows symlinks so linked album directories are found too.
func isDir(e os.DirEntry, path string) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
