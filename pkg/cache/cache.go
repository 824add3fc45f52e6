// Package cache provides stage-result caching for the analysis pipeline.
//
// Two kinds of entries are cached: built dependency graphs, keyed by a
// fingerprint of the scanned tree, and rendered artifacts (SVG, PNG),
// keyed by the graph content hash plus render options. Backends:
//   - FileCache: sharded files under the XDG cache directory (CLI default)
//   - RedisCache: shared cache for CI fleets
//   - NullCache: caching disabled
package cache

import (
	"context"
	"time"
)

// TTLs for the different entry kinds. Graph entries are short-lived since
// the fingerprint already tracks file modification times; artifacts are
// pure functions of their key and can live longer.
const (
	TTLGraph    = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the interface for cache backends.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// GraphKeyOpts are the options that affect graph construction and therefore
// participate in the graph cache key.
type GraphKeyOpts struct {
	Fingerprint string // Content fingerprint of the scanned tree
}

// ArtifactKeyOpts are the options that affect rendering and therefore
// participate in the artifact cache key.
type ArtifactKeyOpts struct {
	Format       string
	DisplayPaths bool
	Detailed     bool
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	GraphKey(opts GraphKeyOpts) string
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// GraphKey generates a key for a built dependency graph.
func (k *DefaultKeyer) GraphKey(opts GraphKeyOpts) string {
	return hashKey("graph", opts.Fingerprint)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts.Format, opts.DisplayPaths, opts.Detailed)
}
