package depgraph

import (
	"bytes"
	"testing"

	"github.com/matzehuels/cppdep/pkg/catalog"
	"github.com/matzehuels/cppdep/pkg/component"
	"github.com/matzehuels/cppdep/pkg/errors"
	"github.com/matzehuels/cppdep/pkg/graph"
	"github.com/matzehuels/cppdep/pkg/include"
)

// fixture bundles a hand-built catalog with canned include extractions.
type fixture struct {
	files    []catalog.File
	includes map[string][]include.Include
}

func (f *fixture) extract(path string) ([]include.Include, error) {
	return f.includes[path], nil
}

func (f *fixture) build(t *testing.T) *Result {
	t.Helper()
	cat := catalog.New(f.files)
	res := component.Resolve(cat)
	result, err := Build(cat, res, Options{Extract: f.extract})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return result
}

func srcFile(path, root string) catalog.File {
	return catalog.File{Path: path, Base: stem(path), Class: catalog.ClassSource,
		Root: catalog.Root{Path: root, Role: catalog.RoleSource}}
}

func hdrFile(path, root string) catalog.File {
	return catalog.File{Path: path, Base: stem(path), Class: catalog.ClassHeader,
		Root: catalog.Root{Path: root, Role: catalog.RoleHeader}}
}

func stem(path string) string {
	slash, dot := -1, len(path)
	for i, c := range path {
		if c == '/' {
			slash = i
		}
	}
	for i := len(path) - 1; i > slash; i-- {
		if path[i] == '.' {
			dot = i
			break
		}
	}
	return path[slash+1 : dot]
}

func TestBuildLiftsIncludesToComponents(t *testing.T) {
	f := &fixture{
		files: []catalog.File{
			srcFile("/src/app.cpp", "/src"),
			hdrFile("/include/app.h", "/include"),
			hdrFile("/include/net.h", "/include"),
		},
		includes: map[string][]include.Include{
			"/src/app.cpp": {{Target: "app.h"}, {Target: "net.h"}},
		},
	}

	result := f.build(t)
	g := result.Graph

	if g.NodeCount() != 2 {
		t.Fatalf("NodeCount = %d, want 2", g.NodeCount())
	}
	if !g.HasEdge("app", "net") {
		t.Error("edge app→net missing")
	}
	if g.HasEdge("app", "app") {
		t.Error("intra-component include must not produce a self-edge")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestBuildDeduplicatesEdges(t *testing.T) {
	f := &fixture{
		files: []catalog.File{
			srcFile("/src/app.cpp", "/src"),
			hdrFile("/include/app.h", "/include"),
			hdrFile("/include/net.h", "/include"),
		},
		includes: map[string][]include.Include{
			"/src/app.cpp":   {{Target: "net.h"}, {Target: "net.h"}},
			"/include/app.h": {{Target: "net.h"}},
		},
	}

	g := f.build(t).Graph
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1 (multiple includes collapse to one edge)", g.EdgeCount())
	}
}

func TestBuildIsolatedComponentKept(t *testing.T) {
	f := &fixture{
		files: []catalog.File{
			hdrFile("/include/lonely.h", "/include"),
		},
	}

	g := f.build(t).Graph
	if _, ok := g.Node("lonely"); !ok {
		t.Error("component with no edges must still be a vertex")
	}
}

func TestBuildUnresolvedIncludeWarns(t *testing.T) {
	f := &fixture{
		files: []catalog.File{
			srcFile("/src/app.cpp", "/src"),
		},
		includes: map[string][]include.Include{
			"/src/app.cpp": {
				{Target: "vendor/secret.h"},
				{Target: "vector", System: true}, // silently dropped
			},
		},
	}

	result := f.build(t)
	if got := result.Warnings.Count(errors.ErrCodeUnresolvedInclude); got != 1 {
		t.Errorf("UNRESOLVED_INCLUDE warnings = %d, want 1 (system includes are not warned)", got)
	}
	if result.Graph.EdgeCount() != 0 {
		t.Errorf("EdgeCount = %d, want 0", result.Graph.EdgeCount())
	}
}

func TestBuildSuffixMatching(t *testing.T) {
	f := &fixture{
		files: []catalog.File{
			srcFile("/src/app.cpp", "/src"),
			hdrFile("/include/detail/impl.h", "/include"),
		},
		includes: map[string][]include.Include{
			"/src/app.cpp": {{Target: "detail/impl.h"}},
		},
	}

	g := f.build(t).Graph
	if !g.HasEdge("app", "impl") {
		t.Error("multi-element suffix should resolve")
	}
}

func TestBuildSuffixMatchesWholeElements(t *testing.T) {
	f := &fixture{
		files: []catalog.File{
			srcFile("/src/app.cpp", "/src"),
			hdrFile("/include/subdetail/impl.h", "/include"),
		},
		includes: map[string][]include.Include{
			"/src/app.cpp": {{Target: "detail/impl.h"}},
		},
	}

	result := f.build(t)
	if result.Graph.EdgeCount() != 0 {
		t.Error("\"detail/impl.h\" must not match \".../subdetail/impl.h\"")
	}
	if got := result.Warnings.Count(errors.ErrCodeUnresolvedInclude); got != 1 {
		t.Errorf("UNRESOLVED_INCLUDE warnings = %d, want 1", got)
	}
}

func TestBuildAmbiguousResolutionTieBreak(t *testing.T) {
	// Two cataloged headers match "cfg.h". The candidate under the
	// lexicographically smallest root wins; the ambiguity is warned.
	f := &fixture{
		files: []catalog.File{
			srcFile("/src/app.cpp", "/src"),
			hdrFile("/roots/a/cfg.h", "/roots/a"),
			hdrFile("/roots/b/cfg.h", "/roots/b"),
		},
		includes: map[string][]include.Include{
			"/src/app.cpp": {{Target: "cfg.h"}},
		},
	}

	result := f.build(t)

	if got := result.Warnings.Count(errors.ErrCodeAmbiguousResolution); got != 1 {
		t.Fatalf("AMBIGUOUS_RESOLUTION warnings = %d, want 1", got)
	}
	// Both headers share base name "cfg", so the edge lands on the same
	// component either way; the warning must name the chosen file.
	w := result.Warnings[0]
	found := false
	for _, p := range w.Paths {
		if p == "/roots/a/cfg.h" {
			found = true
		}
	}
	if !found {
		t.Errorf("warning paths %v should include the winning candidate", w.Paths)
	}
	if !result.Graph.HasEdge("app", "cfg") {
		t.Error("edge app→cfg missing")
	}
}

func TestBuildDeterministic(t *testing.T) {
	f := &fixture{
		files: []catalog.File{
			srcFile("/src/a.cpp", "/src"),
			srcFile("/src/b.cpp", "/src"),
			hdrFile("/include/a.h", "/include"),
			hdrFile("/include/b.h", "/include"),
			hdrFile("/include/c.h", "/include"),
		},
		includes: map[string][]include.Include{
			"/src/a.cpp": {{Target: "b.h"}, {Target: "c.h"}, {Target: "ghost.h"}},
			"/src/b.cpp": {{Target: "a.h"}, {Target: "c.h"}},
		},
	}

	first := f.build(t)
	data1, err := graph.Marshal(first.Graph)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for i := 0; i < 3; i++ {
		again := f.build(t)
		data2, err := graph.Marshal(again.Graph)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !bytes.Equal(data1, data2) {
			t.Fatalf("run %d produced different graph bytes", i)
		}
		if len(again.Warnings) != len(first.Warnings) {
			t.Fatalf("warning count changed across runs")
		}
		for j := range again.Warnings {
			if again.Warnings[j].String() != first.Warnings[j].String() {
				t.Fatalf("warning order changed across runs")
			}
		}
	}
}

func TestBuildAmbiguousComponentTagged(t *testing.T) {
	f := &fixture{
		files: []catalog.File{
			hdrFile("/a/util.h", "/a"),
			hdrFile("/b/util.h", "/b"),
		},
	}

	g := f.build(t).Graph
	n, ok := g.Node("util")
	if !ok {
		t.Fatal("component util missing")
	}
	if ambiguous, _ := n.Meta["ambiguous"].(bool); !ambiguous {
		t.Error("ambiguous component should carry the ambiguous meta flag")
	}
}
