package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/cppdep/pkg/cache"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"json", false},
		{"pdf", true},
		{"DOT", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"dot", "json"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"dot", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{SourceDirs: []string{"src"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}

	if opts.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", opts.Workers, DefaultWorkers)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatDOT {
		t.Errorf("Formats = %v, want [dot]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should be defaulted")
	}

	// Idempotent.
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call: %v", err)
	}
}

func TestOptionsRequireSourceDir(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("missing source dirs should fail validation")
	}
}

// writeTree writes the given files under a fresh temp dir and returns it.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for path, content := range files {
		full := filepath.Join(dir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return dir
}

func testTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"src/app.cpp":      "#include \"app.h\"\n#include \"net.h\"\n#include \"log.h\"\n",
		"src/net.cpp":      "#include \"net.h\"\n#include \"log.h\"\n",
		"include/app.h":    "#include <string>\n",
		"include/net.h":    "",
		"include/log.h":    "",
		"src/unrelated.md": "not scanned\n",
	})
}

func TestRunnerExecute(t *testing.T) {
	dir := testTree(t)
	runner := NewRunner(cache.NewNullCache(), nil, nil)
	defer runner.Close()

	opts := Options{
		SourceDirs:  []string{filepath.Join(dir, "src")},
		IncludeDirs: []string{filepath.Join(dir, "include")},
		Reduce:      true,
		Formats:     []string{FormatDOT, FormatJSON},
	}

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// Components: app, net, log, unrelated.md is not scanned.
	if result.Graph.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", result.Graph.NodeCount())
	}
	// app→net, app→log, net→log; app→log is transitive and pruned.
	if result.Reduced == nil {
		t.Fatal("Reduced should be set when Reduce is enabled")
	}
	if result.Reduced.HasEdge("app", "log") {
		t.Error("transitive edge app→log should be pruned")
	}
	if result.Stats.EdgesPruned != 1 {
		t.Errorf("EdgesPruned = %d, want 1", result.Stats.EdgesPruned)
	}

	if len(result.Artifacts[FormatDOT]) == 0 {
		t.Error("dot artifact missing")
	}
	if len(result.Artifacts[FormatJSON]) == 0 {
		t.Error("json artifact missing")
	}
	if result.GraphHash == "" {
		t.Error("GraphHash should be computed")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestRunnerExecuteDeterministic(t *testing.T) {
	dir := testTree(t)
	runner := NewRunner(cache.NewNullCache(), nil, nil)
	defer runner.Close()

	opts := Options{
		SourceDirs:  []string{filepath.Join(dir, "src")},
		IncludeDirs: []string{filepath.Join(dir, "include")},
		Reduce:      true,
		Formats:     []string{FormatDOT},
		Workers:     3,
	}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := runner.Execute(context.Background(), opts)
		if err != nil {
			t.Fatalf("Execute run %d: %v", i, err)
		}
		if !bytes.Equal(first.Artifacts[FormatDOT], again.Artifacts[FormatDOT]) {
			t.Fatalf("run %d produced different DOT bytes", i)
		}
		if first.GraphHash != again.GraphHash {
			t.Fatalf("run %d produced a different graph hash", i)
		}
	}
}

func TestRunnerBuildCache(t *testing.T) {
	dir := testTree(t)
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	opts := Options{
		SourceDirs:  []string{filepath.Join(dir, "src")},
		IncludeDirs: []string{filepath.Join(dir, "include")},
		Formats:     []string{FormatJSON},
	}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.BuildHit {
		t.Error("first run should miss the build cache")
	}

	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.BuildHit {
		t.Error("second run should hit the build cache")
	}
	if !bytes.Equal(first.Artifacts[FormatJSON], second.Artifacts[FormatJSON]) {
		t.Error("cached run should produce identical output")
	}

	// Refresh bypasses the cache.
	opts.Refresh = true
	third, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("third Execute: %v", err)
	}
	if third.CacheInfo.BuildHit {
		t.Error("refresh run should bypass the build cache")
	}
}

func TestRunnerWarningsSurvive(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"src/app.cpp": "#include \"ghost.h\"\n",
	})
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{
		SourceDirs: []string{filepath.Join(dir, "src")},
		Formats:    []string{FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute: %v (warnings must never be fatal)", err)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("warnings = %v, want one unresolved include", result.Warnings)
	}
}

func TestFingerprintTracksContent(t *testing.T) {
	dir := writeTree(t, map[string]string{"src/a.cpp": "int x;\n"})
	opts := Options{SourceDirs: []string{filepath.Join(dir, "src")}}
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	cat1, err := runner.Scan(context.Background(), opts)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	fp1 := Fingerprint(cat1)
	if fp1 != Fingerprint(cat1) {
		t.Error("fingerprint must be stable for an unchanged catalog")
	}

	// Adding a file changes the fingerprint.
	if err := os.WriteFile(filepath.Join(dir, "src/b.cpp"), []byte("int y;\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat2, err := runner.Scan(context.Background(), opts)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if Fingerprint(cat2) == fp1 {
		t.Error("fingerprint should change when the tree changes")
	}
}
