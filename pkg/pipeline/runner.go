package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cppdep/pkg/cache"
	"github.com/matzehuels/cppdep/pkg/catalog"
	"github.com/matzehuels/cppdep/pkg/component"
	"github.com/matzehuels/cppdep/pkg/depgraph"
	"github.com/matzehuels/cppdep/pkg/errors"
	"github.com/matzehuels/cppdep/pkg/graph"
	"github.com/matzehuels/cppdep/pkg/graph/transform"
	"github.com/matzehuels/cppdep/pkg/render/nodelink"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete scan → build → reduce → render pipeline with
// caching. Warnings never fail the run; they are collected on the Result.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Scan
	scanStart := time.Now()
	cat, err := r.Scan(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	result.Stats.ScanTime = time.Since(scanStart)
	result.Stats.FileCount = cat.Len()

	r.Logger.Info("scanned sources",
		"files", cat.Len(),
		"duration", result.Stats.ScanTime)

	// Stage 2: Build
	buildStart := time.Now()
	g, warnings, buildHit, err := r.BuildWithCacheInfo(ctx, cat, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Graph = g
	result.Warnings = warnings
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.CacheInfo.BuildHit = buildHit

	r.Logger.Info("built dependency graph",
		"components", g.NodeCount(),
		"edges", g.EdgeCount(),
		"warnings", len(warnings),
		"duration", result.Stats.BuildTime)

	// Stage 3: Reduce
	if opts.Reduce {
		reduceStart := time.Now()
		reduced, err := transform.Reduce(g)
		if err != nil {
			return nil, fmt.Errorf("reduce: %w", err)
		}
		result.Reduced = reduced
		result.Stats.ReduceTime = time.Since(reduceStart)
		result.Stats.EdgesPruned = g.EdgeCount() - reduced.EdgeCount()

		r.Logger.Info("reduced graph",
			"edges_pruned", result.Stats.EdgesPruned,
			"cyclic_edges", reduced.CyclicEdgeCount(),
			"duration", result.Stats.ReduceTime)
	}

	final := result.Final()
	if data, err := graph.Marshal(final); err == nil {
		result.GraphHash = cache.Hash(data)
	}

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, final, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Scan discovers the C/C++ files under the configured roots. Source
// directories are scanned for every recognized extension; include
// directories contribute headers only by role but use the same extension
// set, so a stray .cpp under an include dir is still cataloged.
func (r *Runner) Scan(ctx context.Context, opts Options) (*catalog.Catalog, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	roots := make([]catalog.Root, 0, len(opts.SourceDirs)+len(opts.IncludeDirs))
	for _, dir := range opts.SourceDirs {
		roots = append(roots, catalog.Root{Path: dir, Role: catalog.RoleSource})
	}
	for _, dir := range opts.IncludeDirs {
		roots = append(roots, catalog.Root{Path: dir, Role: catalog.RoleHeader})
	}

	return catalog.Scan(roots, extensions(opts))
}

// extensions merges custom extension lists onto the defaults.
func extensions(opts Options) catalog.Extensions {
	if len(opts.SourceExtensions) == 0 && len(opts.HeaderExtensions) == 0 {
		return nil // catalog defaults
	}
	exts := catalog.DefaultExtensions()
	for _, e := range opts.SourceExtensions {
		exts[normalizeExt(e)] = catalog.ClassSource
	}
	for _, e := range opts.HeaderExtensions {
		exts[normalizeExt(e)] = catalog.ClassHeader
	}
	return exts
}

func normalizeExt(e string) string {
	if len(e) > 0 && e[0] != '.' {
		return "." + e
	}
	return e
}

// buildPayload is the cached form of a build stage result.
type buildPayload struct {
	Graph    json.RawMessage `json:"graph"`
	Warnings errors.Warnings `json:"warnings,omitempty"`
}

// BuildWithCacheInfo resolves components and builds the dependency graph,
// with caching keyed on a content fingerprint of the cataloged files.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, cat *catalog.Catalog, opts Options) (*graph.Graph, errors.Warnings, bool, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, nil, false, err
	}

	cacheKey := r.Keyer.GraphKey(cache.GraphKeyOpts{Fingerprint: Fingerprint(cat)})

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var payload buildPayload
			if err := json.Unmarshal(data, &payload); err == nil {
				if gj, err := graph.UnmarshalJSONBytes(payload.Graph); err == nil {
					if g, err := graph.FromJSON(gj); err == nil {
						return g, payload.Warnings, true, nil // Cache hit
					}
				}
			}
		}
	}

	res := component.Resolve(cat)
	warnings := res.Warnings

	built, err := depgraph.Build(cat, res, depgraph.Options{Workers: opts.Workers})
	if err != nil {
		return nil, nil, false, err
	}
	warnings.Merge(built.Warnings)

	// Cache the result
	if graphData, err := graph.Marshal(built.Graph); err == nil {
		payload := buildPayload{Graph: graphData, Warnings: warnings}
		if data, err := json.Marshal(payload); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLGraph)
		}
	}

	return built.Graph, warnings, false, nil // Cache miss
}

// Build is a convenience wrapper that discards the cache hit info.
func (r *Runner) Build(ctx context.Context, cat *catalog.Catalog, opts Options) (*graph.Graph, errors.Warnings, error) {
	g, warnings, _, err := r.BuildWithCacheInfo(ctx, cat, opts)
	return g, warnings, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit
// info. DOT and JSON are cheap and rendered directly; SVG and PNG go through
// Graphviz and are cached keyed on the graph content hash.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	graphData, err := graph.Marshal(g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	graphHash := cache.Hash(graphData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil // All artifacts from cache
	}

	// Render all formats
	rendered, err := renderFormats(g, graphData, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, opts)
	return artifacts, err
}

// renderFormats produces every requested format from the graph.
func renderFormats(g *graph.Graph, graphData []byte, opts Options) (map[string][]byte, error) {
	dotOpts := nodelink.Options{
		DisplayPaths: opts.DisplayPaths,
		Detailed:     opts.Detailed,
	}
	var dot string
	needDOT := func() string {
		if dot == "" {
			dot = nodelink.ToDOT(g, dotOpts)
		}
		return dot
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatDOT:
			artifacts[format] = []byte(needDOT())
		case FormatJSON:
			artifacts[format] = graphData
		case FormatSVG:
			data, err := nodelink.RenderSVG(needDOT())
			if err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
			artifacts[format] = data
		case FormatPNG:
			data, err := nodelink.RenderPNG(needDOT())
			if err != nil {
				return nil, fmt.Errorf("render png: %w", err)
			}
			artifacts[format] = data
		default:
			return nil, fmt.Errorf("invalid format: %q", format)
		}
	}
	return artifacts, nil
}

// Fingerprint computes a content fingerprint of a catalog: every file's
// path, size, and modification time in sorted path order. Two catalogs with
// the same fingerprint build the same graph, which makes it a safe cache key.
func Fingerprint(cat *catalog.Catalog) string {
	h := sha256.New()
	for _, f := range cat.Files {
		h.Write([]byte(f.Path))
		h.Write([]byte{0})
		if info, err := os.Stat(f.Path); err == nil {
			h.Write([]byte(strconv.FormatInt(info.Size(), 10)))
			h.Write([]byte{0})
			h.Write([]byte(strconv.FormatInt(info.ModTime().UnixNano(), 10)))
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
