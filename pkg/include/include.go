// Package include extracts #include directives from C/C++ source text.
//
// Extraction is purely lexical: targets are returned exactly as written
// between the include delimiters, in source order. No preprocessing happens,
// so conditionally compiled includes are reported like unconditional ones.
package include

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
)

// Include is one extracted include directive.
type Include struct {
	Target string // Literal text between the delimiters, e.g. "sub/foo.h"
	System bool   // True for <...> form, false for "..." form
}

// includeRe matches both quoted and angle-bracket include directives.
// Whitespace between '#' and 'include' is legal C++ and accepted.
var includeRe = regexp.MustCompile(`^\s*#\s*include\s*(["<])([^">]+)[">]`)

// Extract returns the ordered include directives found in r.
// Lines longer than the bufio.Scanner default are tolerated up to 1 MiB.
func Extract(r io.Reader) ([]Include, error) {
	var includes []Include

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := includeRe.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		includes = append(includes, Include{
			Target: m[2],
			System: m[1] == "<",
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return includes, nil
}

// ExtractFile reads the file at path and extracts its include directives.
func ExtractFile(path string) ([]Include, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Extract(f)
}
