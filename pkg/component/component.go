// Package component groups cataloged files into logical components.
//
// A component follows the Lakos definition: the set of files sharing a base
// name, ideally one header plus one source file. Components are the vertices
// of the dependency graph; file-level include edges are lifted to
// component-level edges by the depgraph package.
package component

import (
	"slices"
	"strings"

	"github.com/matzehuels/cppdep/pkg/catalog"
	"github.com/matzehuels/cppdep/pkg/errors"
)

// Component is a named group of files sharing a base name.
// A component with only a header or only a source file is valid.
type Component struct {
	Name  string // Base name, case-sensitive
	Files []catalog.File
}

// Headers returns the component's header files.
func (c *Component) Headers() []catalog.File { return c.filesOf(catalog.ClassHeader) }

// Sources returns the component's source files.
func (c *Component) Sources() []catalog.File { return c.filesOf(catalog.ClassSource) }

func (c *Component) filesOf(class catalog.Class) []catalog.File {
	var out []catalog.File
	for _, f := range c.Files {
		if f.Class == class {
			out = append(out, f)
		}
	}
	return out
}

// Ambiguous reports whether the component owns more files than a clean
// header/source pair: more than two files total, or more than one file of
// the same extension class. This usually indicates same-named files in
// different search roots.
func (c *Component) Ambiguous() bool {
	return len(c.Files) > 2 || len(c.Headers()) > 1 || len(c.Sources()) > 1
}

// Paths returns the component's file paths in catalog order.
func (c *Component) Paths() []string {
	paths := make([]string, len(c.Files))
	for i, f := range c.Files {
		paths[i] = f.Path
	}
	return paths
}

// Resolution is the result of partitioning a catalog into components.
type Resolution struct {
	// ByName maps base name to component. Every cataloged file is owned by
	// exactly one component.
	ByName map[string]*Component

	// Components lists all components sorted by name.
	Components []*Component

	// Warnings records ambiguous components (recoverable).
	Warnings errors.Warnings

	byPath map[string]*Component
}

// Resolve partitions the catalog into components keyed by base name.
// Base name comparison is exact string equality: C/C++ filesystems are
// commonly case-sensitive, so "Foo.h" and "foo.cpp" stay separate.
//
// A base name owning an unexpected number of files is flagged as ambiguous
// but still produces a component owning all of them, so the run completes.
func Resolve(c *catalog.Catalog) *Resolution {
	res := &Resolution{
		ByName: make(map[string]*Component),
		byPath: make(map[string]*Component),
	}

	// Catalog files are sorted by path, so component file order and the
	// resulting warnings are deterministic.
	for _, f := range c.Files {
		comp, ok := res.ByName[f.Base]
		if !ok {
			comp = &Component{Name: f.Base}
			res.ByName[f.Base] = comp
			res.Components = append(res.Components, comp)
		}
		comp.Files = append(comp.Files, f)
		res.byPath[f.Path] = comp
	}

	slices.SortFunc(res.Components, func(a, b *Component) int {
		return strings.Compare(a.Name, b.Name)
	})

	for _, comp := range res.Components {
		if comp.Ambiguous() {
			res.Warnings.AddPaths(errors.ErrCodeAmbiguousComponent, comp.Paths(),
				"component %q owns %d files", comp.Name, len(comp.Files))
		}
	}

	return res
}

// OwnerOf returns the component owning the file at the given path.
func (r *Resolution) OwnerOf(path string) (*Component, bool) {
	comp, ok := r.byPath[path]
	return comp, ok
}
