// Package pipeline provides the core analysis pipeline for cppdep.
//
// This package implements the complete scan → build → reduce → render
// pipeline that can be used by CLI and server components. By centralizing
// this logic, we ensure consistent behavior across all entry points and
// avoid code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Scan: Discover C/C++ files under the configured roots
//  2. Build: Extract includes and construct the component dependency graph
//  3. Reduce: Apply transitive reduction (cycle-tolerant)
//  4. Render: Generate output in various formats (DOT, SVG, PNG, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    SourceDirs: []string{"src"},
//	    Formats:    []string{"dot"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	dot := result.Artifacts["dot"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cppdep/pkg/cache"
	"github.com/matzehuels/cppdep/pkg/errors"
	"github.com/matzehuels/cppdep/pkg/graph"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWorkers is the number of concurrent include extraction workers.
	DefaultWorkers = 8

	// DefaultOutput is the default output file for the graph command.
	DefaultOutput = "graph.dot"
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the analysis pipeline.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Scan options
	SourceDirs       []string `json:"source_dirs"`
	IncludeDirs      []string `json:"include_dirs,omitempty"`
	SourceExtensions []string `json:"source_extensions,omitempty"`
	HeaderExtensions []string `json:"header_extensions,omitempty"`

	// Build options
	Workers int  `json:"workers,omitempty"`
	Refresh bool `json:"refresh,omitempty"` // Bypass the graph cache

	// Reduce options
	Reduce bool `json:"reduce"` // Apply transitive reduction

	// Render options
	Formats      []string `json:"formats,omitempty"`
	DisplayPaths bool     `json:"display_paths,omitempty"`
	Detailed     bool     `json:"detailed,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the full component dependency graph, before reduction.
	Graph *graph.Graph

	// Reduced is the transitively reduced graph, nil when reduction was
	// disabled.
	Reduced *graph.Graph

	// GraphHash is the content hash of the reduced (or full) graph.
	GraphHash string

	// Warnings collected across all stages, in deterministic order.
	Warnings errors.Warnings

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Final returns the graph artifacts are rendered from: the reduced graph
// when reduction ran, the full graph otherwise.
func (r *Result) Final() *graph.Graph {
	if r.Reduced != nil {
		return r.Reduced
	}
	return r.Graph
}

// Stats contains pipeline execution statistics.
type Stats struct {
	FileCount   int
	NodeCount   int
	EdgeCount   int
	EdgesPruned int
	ScanTime    time.Duration
	BuildTime   time.Duration
	ReduceTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BuildHit  bool // Whether the built graph came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBuild checks required fields for scanning and graph building.
func (o *Options) ValidateForBuild() error {
	if len(o.SourceDirs) == 0 {
		return fmt.Errorf("at least one source directory is required")
	}

	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatDOT}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:       format,
		DisplayPaths: o.DisplayPaths,
		Detailed:     o.Detailed,
	}
}
