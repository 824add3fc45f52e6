package errors

import (
	"fmt"
	"strings"
)

// Warning records a recoverable analysis condition. Warnings are collected
// alongside the primary result and surfaced after output is emitted; they
// never interrupt the pipeline and never affect the exit status.
type Warning struct {
	Code    Code     `json:"code"`
	Message string   `json:"message"`
	Paths   []string `json:"paths,omitempty"` // Offending file paths, if any
}

// String formats the warning for terminal display.
func (w Warning) String() string {
	if len(w.Paths) == 0 {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", w.Code, w.Message, strings.Join(w.Paths, ", "))
}

// Warnings is an append-only collection of recoverable conditions.
type Warnings []Warning

// Add appends a warning with the given code and formatted message.
func (ws *Warnings) Add(code Code, format string, args ...any) {
	*ws = append(*ws, Warning{Code: code, Message: fmt.Sprintf(format, args...)})
}

// AddPaths appends a warning that references specific files.
func (ws *Warnings) AddPaths(code Code, paths []string, format string, args ...any) {
	*ws = append(*ws, Warning{Code: code, Message: fmt.Sprintf(format, args...), Paths: paths})
}

// Merge appends all warnings from other.
func (ws *Warnings) Merge(other Warnings) {
	*ws = append(*ws, other...)
}

// Count returns the number of warnings with the given code.
func (ws Warnings) Count(code Code) int {
	n := 0
	for _, w := range ws {
		if w.Code == code {
			n++
		}
	}
	return n
}
