package codec

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrFormat matches any *FormatError via errors.Is.
var ErrFormat = errors.New("invalid workflow configuration format")

// FormatError reports config text that could not be turned into a configuration tree.
type FormatError struct {
	Source string // file the text came from, if known
	Line   int    // 1-based line of the problem, 0 if unknown
	Reason string // short human-readable cause
	Err    error  // underlying parser error, if any
}

// Error implements the error interface
func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("invalid workflow configuration")
	if e.Source != "" {
		b.WriteString(" in ")
		b.WriteString(e.Source)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is reports ErrFormat as a match so callers need not use errors.As.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// Suggestions returns actionable hints for fixing the file.
func (e *FormatError) Suggestions() []string {
	suggestions := []string{
		"The file must be a YAML mapping with keys such as workflowName and seedConfig",
	}
	if e.Line > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Check the indentation around line %d", e.Line))
	}
	return append(suggestions, "Save the project to overwrite the file with the current configuration")
}

// DetailedError returns a multi-line description including suggestions.
func (e *FormatError) DetailedError() string {
	parts := []string{"Workflow configuration format error"}
	if e.Source != "" {
		parts = append(parts, fmt.Sprintf("  File: %s", e.Source))
	}
	if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("  Line: %d", e.Line))
	}
	parts = append(parts, fmt.Sprintf("  Error: %s", e.Reason))
	if e.Err != nil {
		parts = append(parts, fmt.Sprintf("  Details: %s", e.Err))
	}
	parts = append(parts, "  Suggestions:")
	for _, s := range e.Suggestions() {
		parts = append(parts, fmt.Sprintf("    - %s", s))
	}
	return strings.Join(parts, "\n")
}

var lineRe = regexp.MustCompile(`line (\d+)`)

func newFormatError(reason string, err error) *FormatError {
	fe := &FormatError{Reason: reason, Err: err}
	if m := lineRe.FindStringSubmatch(err.Error()); m != nil {
		fe.Line, _ = strconv.Atoi(m[1])
	}
	return fe
}
