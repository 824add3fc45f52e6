// Package catalog discovers C/C++ source and header files under a set of
// search roots and tags each file with its base name, extension class, and
// owning root. The catalog is the input to component resolution and include
// target matching.
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// RootRole distinguishes the two kinds of search roots.
type RootRole int

const (
	// RoleSource marks a root scanned for implementation files.
	RoleSource RootRole = iota
	// RoleHeader marks a root scanned for header files (include directory).
	RoleHeader
)

// String returns the role name used in logs and serialized output.
func (r RootRole) String() string {
	if r == RoleHeader {
		return "header"
	}
	return "source"
}

// Class is the extension class of a cataloged file.
type Class int

const (
	// ClassSource covers implementation files (.cpp, .cc, ...).
	ClassSource Class = iota
	// ClassHeader covers header files (.h, .hpp, ...).
	ClassHeader
)

// String returns the class name used in logs and serialized output.
func (c Class) String() string {
	if c == ClassHeader {
		return "header"
	}
	return "source"
}

// Root is a search directory with an assigned role.
type Root struct {
	Path string
	Role RootRole
}

// File is a discovered source or header file. Identity is the absolute path;
// a File is immutable once discovered.
type File struct {
	Path  string // Absolute path
	Base  string // File name without directory and extension
	Class Class
	Root  Root // Search root the file was found under
}

// Extensions maps file extensions to their class. Extension matching is
// case-insensitive; keys must be lower case and include the leading dot.
type Extensions map[string]Class

// DefaultExtensions returns the extension set recognized by default.
func DefaultExtensions() Extensions {
	return Extensions{
		".cpp": ClassSource,
		".cc":  ClassSource,
		".c++": ClassSource,
		".cxx": ClassSource,
		".c":   ClassSource,
		".h":   ClassHeader,
		".hpp": ClassHeader,
		".hh":  ClassHeader,
		".hxx": ClassHeader,
		".inl": ClassHeader,
	}
}

// Catalog holds all discovered files, indexed by absolute path.
// Files is sorted by path so traversal order is deterministic.
type Catalog struct {
	Files  []File
	byPath map[string]File
}

// Scan walks each root and collects every file whose extension appears in
// exts (DefaultExtensions when nil). Duplicate paths (a directory listed
// under more than one root, or nested roots) are kept once; the first root
// in the given order wins. Files are returned sorted by path.
func Scan(roots []Root, exts Extensions) (*Catalog, error) {
	if exts == nil {
		exts = DefaultExtensions()
	}

	byPath := make(map[string]File)
	for _, root := range roots {
		abs, err := filepath.Abs(root.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve root %s: %w", root.Path, err)
		}
		root.Path = abs

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			class, ok := exts[strings.ToLower(filepath.Ext(path))]
			if !ok {
				return nil
			}
			if _, seen := byPath[path]; seen {
				return nil
			}
			byPath[path] = File{
				Path:  path,
				Base:  baseName(path),
				Class: class,
				Root:  root,
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", abs, err)
		}
	}

	files := make([]File, 0, len(byPath))
	for _, f := range byPath {
		files = append(files, f)
	}
	slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.Path, b.Path) })

	return &Catalog{Files: files, byPath: byPath}, nil
}

// New builds a catalog from an explicit file list, deduplicating by path.
// This is mainly used by tests and by callers that enumerate files themselves.
func New(files []File) *Catalog {
	byPath := make(map[string]File, len(files))
	deduped := make([]File, 0, len(files))
	for _, f := range files {
		if _, seen := byPath[f.Path]; seen {
			continue
		}
		byPath[f.Path] = f
		deduped = append(deduped, f)
	}
	slices.SortFunc(deduped, func(a, b File) int { return strings.Compare(a.Path, b.Path) })
	return &Catalog{Files: deduped, byPath: byPath}
}

// Lookup returns the cataloged file at the given path.
func (c *Catalog) Lookup(path string) (File, bool) {
	f, ok := c.byPath[path]
	return f, ok
}

// Len returns the number of cataloged files.
func (c *Catalog) Len() int { return len(c.Files) }

// baseName strips the directory and the final extension from path.
// "src/widget.cpp" and "include/widget.h" both yield "widget".
func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
