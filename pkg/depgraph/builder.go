// Package depgraph builds the component-level dependency graph from raw
// per-file include targets.
//
// Each include target is resolved against the file catalog by trailing-path
// matching, lifted from the owning file to its component, and accumulated
// into a deduplicated directed edge set. Unresolvable targets (system
// headers, files outside every search root) are dropped; every ambiguity is
// resolved deterministically and reported as a warning.
package depgraph

import (
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/cppdep/pkg/catalog"
	"github.com/matzehuels/cppdep/pkg/component"
	"github.com/matzehuels/cppdep/pkg/errors"
	"github.com/matzehuels/cppdep/pkg/graph"
	"github.com/matzehuels/cppdep/pkg/include"
)

// Extractor supplies the ordered include targets of one file.
// The default reads the file from disk via include.ExtractFile.
type Extractor func(path string) ([]include.Include, error)

// Options configures graph construction.
type Options struct {
	// Workers bounds the parallel include extraction fan-out.
	// Defaults to runtime.NumCPU(). Extraction per file is independent;
	// edge accumulation afterwards is single-threaded and ordered, so the
	// resulting graph is identical regardless of worker count.
	Workers int

	// Extract overrides the include extractor (used by tests).
	Extract Extractor
}

// Result is the built dependency graph plus collected warnings.
type Result struct {
	Graph    *graph.Graph
	Warnings errors.Warnings
}

// Build constructs the component dependency graph. Every component becomes
// a vertex (including isolated ones); edges are deduplicated and
// intra-component includes (a .cpp including its own .h) are discarded.
func Build(cat *catalog.Catalog, res *component.Resolution, opts Options) (*Result, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Extract == nil {
		opts.Extract = include.ExtractFile
	}

	extracted, err := extractAll(cat.Files, opts)
	if err != nil {
		return nil, err
	}

	g := graph.New()
	for _, comp := range res.Components {
		node := graph.Node{ID: comp.Name, Files: comp.Paths()}
		if comp.Ambiguous() {
			node.Meta = graph.Metadata{"ambiguous": true}
		}
		if err := g.AddNode(node); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "add component %s", comp.Name)
		}
	}

	result := &Result{Graph: g}
	index := newTargetIndex(cat)

	// Catalog files are sorted by path, so edge accumulation and warning
	// order are deterministic.
	for i, f := range cat.Files {
		from, ok := res.OwnerOf(f.Path)
		if !ok {
			return nil, errors.New(errors.ErrCodeInternalConsistency,
				"cataloged file %s has no owning component", f.Path)
		}
		for _, inc := range extracted[i] {
			target, ok := index.resolve(inc.Target, &result.Warnings)
			if !ok {
				if !inc.System {
					result.Warnings.AddPaths(errors.ErrCodeUnresolvedInclude, []string{f.Path},
						"include %q matches no cataloged file", inc.Target)
				}
				continue
			}
			to, ok := res.OwnerOf(target.Path)
			if !ok {
				return nil, errors.New(errors.ErrCodeInternalConsistency,
					"resolved file %s has no owning component", target.Path)
			}
			if from == to {
				continue // intra-component edge carries no information
			}
			if err := g.AddEdge(graph.Edge{From: from.Name, To: to.Name}); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternalConsistency, err,
					"edge %s→%s", from.Name, to.Name)
			}
		}
	}

	return result, nil
}

// extractAll runs the extractor over all files with a bounded worker pool.
// Results are indexed by file position, so merge order is deterministic.
func extractAll(files []catalog.File, opts Options) ([][]include.Include, error) {
	out := make([][]include.Include, len(files))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				incs, err := opts.Extract(files[i].Path)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = errors.Wrap(errors.ErrCodeInternal, err, "extract includes")
					}
					mu.Unlock()
					continue
				}
				out[i] = incs
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// targetIndex resolves include target strings against the catalog.
// Files are indexed by their base file name; a target matches a file when
// the target's cleaned path is a trailing-path suffix of the file's path.
type targetIndex struct {
	byName map[string][]catalog.File
}

func newTargetIndex(cat *catalog.Catalog) *targetIndex {
	idx := &targetIndex{byName: make(map[string][]catalog.File)}
	for _, f := range cat.Files {
		name := filepath.Base(f.Path)
		idx.byName[name] = append(idx.byName[name], f)
	}
	// Candidate order decides tie-breaking: lexicographically smallest
	// search root first, then smallest path.
	for _, files := range idx.byName {
		slices.SortFunc(files, func(a, b catalog.File) int {
			if c := strings.Compare(a.Root.Path, b.Root.Path); c != 0 {
				return c
			}
			return strings.Compare(a.Path, b.Path)
		})
	}
	return idx
}

// resolve maps an include target to a cataloged file. Zero matches yields
// ok=false (the caller decides whether that is worth a warning). Multiple
// equally good matches resolve to the first candidate in tie-break order
// and record an AMBIGUOUS_RESOLUTION warning - never a crash.
func (idx *targetIndex) resolve(target string, warnings *errors.Warnings) (catalog.File, bool) {
	cleaned := path.Clean(strings.ReplaceAll(target, "\\", "/"))
	name := path.Base(cleaned)

	var matches []catalog.File
	for _, f := range idx.byName[name] {
		if hasPathSuffix(f.Path, cleaned) {
			matches = append(matches, f)
		}
	}
	if len(matches) == 0 {
		return catalog.File{}, false
	}
	if len(matches) > 1 {
		paths := make([]string, len(matches))
		for i, m := range matches {
			paths[i] = m.Path
		}
		warnings.AddPaths(errors.ErrCodeAmbiguousResolution, paths,
			"include %q matches %d cataloged files; using %s", target, len(matches), matches[0].Path)
	}
	return matches[0], true
}

// hasPathSuffix reports whether suffix matches the trailing path elements
// of p. "include/sub/foo.h" is matched by "foo.h" and "sub/foo.h" but not
// by "b/foo.h" or "ub/foo.h".
func hasPathSuffix(p, suffix string) bool {
	p = filepath.ToSlash(p)
	if p == suffix {
		return true
	}
	return strings.HasSuffix(p, "/"+suffix)
}
