// Package nodelink renders component graphs as node-link diagrams.
//
// ToDOT produces deterministic Graphviz DOT text (nodes and edges sorted
// lexicographically); RenderSVG and RenderPNG rasterize it via Graphviz.
// Cyclic edges - edges inside a strongly connected component - are drawn
// bold red so genuine circular dependencies stand out from reduced DAG
// edges.
package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/cppdep/pkg/graph"
)

// maxLabelLength is the path length above which node labels are wrapped
// onto two lines, breaking at the slash nearest the middle.
const maxLabelLength = 30

// Options configures node-link diagram rendering.
type Options struct {
	// DisplayPaths labels nodes with the relative path of their first
	// owned file instead of the bare component name. Long paths wrap.
	DisplayPaths bool

	// Detailed appends the owned file names to each node label.
	Detailed bool
}

// ToDOT converts a component graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
// Output is byte-identical across runs on the same graph.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		label := fmtLabel(n, opts)
		attrs := fmtAttrs(n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if e.Cyclic {
			fmt.Fprintf(&buf, "  %q -> %q [color=red, style=bold];\n", e.From, e.To)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *graph.Node, opts Options) string {
	label := n.ID
	if opts.DisplayPaths && len(n.Files) > 0 {
		label = wrapPath(relPath(n.Files[0]))
	}
	if opts.Detailed {
		names := make([]string, len(n.Files))
		for i, f := range n.Files {
			names[i] = filepath.Base(f)
		}
		label += "\n" + strings.Join(names, "\n")
	}
	return label
}

func fmtAttrs(n *graph.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if ambiguous, ok := n.Meta["ambiguous"].(bool); ok && ambiguous {
		attrs = append(attrs, "fillcolor=lightyellow")
	}
	return attrs
}

// relPath returns path relative to the working directory when possible.
func relPath(path string) string {
	if rel, err := filepath.Rel(".", path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// wrapPath inserts a line break into long paths at the slash closest to the
// middle, so wide labels don't dominate the diagram.
func wrapPath(path string) string {
	if len(path) <= maxLabelLength {
		return path
	}
	mid := len(path) / 2
	before := strings.LastIndex(path[:mid], "/")
	after := strings.Index(path[mid:], "/")
	if after >= 0 {
		after += mid
	}

	idx := -1
	switch {
	case before >= 0 && after < 0:
		idx = before
	case before < 0 && after >= 0:
		idx = after
	case before >= 0 && after >= 0:
		if mid-before < after-mid {
			idx = before
		} else {
			idx = after
		}
	}
	if idx < 0 {
		return path
	}
	return path[:idx] + "\n" + path[idx:]
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return render(dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
