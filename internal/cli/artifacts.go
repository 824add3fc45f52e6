package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/cppdep/pkg/pipeline"
)

// artifactWriteParams bundles the inputs for writeArtifacts.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	output    string // output file (single format) or base path (multiple)
	cacheHit  bool
	stdout    bool // write the single artifact to stdout instead of a file
}

// writeArtifacts writes each rendered format to its output file. A single
// format goes to the output path as-is; multiple formats share a base path
// and get their format as extension.
func writeArtifacts(p artifactWriteParams) error {
	if p.stdout && len(p.formats) == 1 {
		data := p.artifacts[p.formats[0]]
		_, err := os.Stdout.Write(data)
		return err
	}

	single := len(p.formats) == 1
	base := artifactBase(p.output)

	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			return fmt.Errorf("no artifact rendered for format %q", format)
		}

		// Honor an explicit single-format output path verbatim; everything
		// else derives base.format.
		path := base + "." + format
		if single && p.output != "" && p.output != base {
			path = p.output
		}

		if err := writeFileAtomic(path, data); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	if p.cacheHit {
		printDetail("artifacts served from cache")
	}
	return nil
}

// artifactBase strips a known format extension from the output path so
// multiple formats can share it.
func artifactBase(output string) string {
	if output == "" {
		return strings.TrimSuffix(pipeline.DefaultOutput, ".dot")
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if pipeline.ValidFormats[ext] {
		return strings.TrimSuffix(output, "."+ext)
	}
	return output
}

// writeFileAtomic writes data to path via a temp file and rename, so a
// killed run never leaves a truncated artifact behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".cppdep-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
