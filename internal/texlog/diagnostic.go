// Package texlog extracts structured diagnostics from TeX engine output.
//
// Engine logs interleave progress noise, an include-file stack encoded as
// unbalanced parentheses, and several diagnostic shapes. The extractor walks
// the transcript once, tracking the file stack so every diagnostic is
// attributed to the innermost file open at the point it was emitted.
package texlog

import "fmt"

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic is one extracted message with its best-effort source location.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	// File is the innermost include file open when the message was emitted,
	// or the file named by a file:line: prefix. Empty when no file context
	// was available.
	File string `json:"file,omitempty"`
	// Line is the reported source line, 0 when unknown.
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	loc := d.File
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", d.File, d.Line)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Severity, loc, d.Message)
}

// Count returns the number of diagnostics at the given severity.
func Count(diags []Diagnostic, sev Severity) int {
	n := 0
	for _, d := range diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
