package wgsl

import (
	"fmt"
	"strings"
)

// SourceError represents an error with source location information.
type SourceError struct {
	Message string
	Span    Span
	Source  string // Original source code (for context display)
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	if !e.Span.IsValid() {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

// FormatWithContext returns the error message followed by the offending
// source line and a caret marker under the span.
func (e *SourceError) FormatWithContext() string {
	if e.Source == "" || !e.Span.IsValid() {
		return e.Error()
	}
	line, ok := SourceLine(e.Source, e.Span.Start.Line)
	if !ok {
		return e.Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "error: %s\n", e.Message)
	fmt.Fprintf(&sb, "  --> %s\n", e.Span)
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", e.Span.Start.Line, line)
	fmt.Fprintf(&sb, "   | %s\n", CaretLine(line, e.Span))
	return sb.String()
}

// SourceLine returns the 1-based line of source without its newline.
func SourceLine(source string, line int) (string, bool) {
	if line < 1 {
		return "", false
	}
	for n := 1; ; n++ {
		end := strings.IndexByte(source, '\n')
		if n == line {
			if end < 0 {
				return strings.TrimSuffix(source, "\r"), true
			}
			return strings.TrimSuffix(source[:end], "\r"), true
		}
		if end < 0 {
			return "", false
		}
		source = source[end+1:]
	}
}

// CaretLine returns a marker line underlining span within line. Spans that
// continue past the line are underlined to its end.
func CaretLine(line string, span Span) string {
	col := span.Start.Column
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}
	width := 1
	if span.End.Line == span.Start.Line && span.End.Column > col {
		width = span.End.Column - col
	} else if span.End.Line > span.Start.Line {
		width = len(line) + 1 - col
	}
	if width < 1 {
		width = 1
	}
	return strings.Repeat(" ", col-1) + "^" + strings.Repeat("~", width-1)
}

// NewSourceError creates a new SourceError.
func NewSourceError(message string, span Span, source string) *SourceError {
	return &SourceError{
		Message: message,
		Span:    span,
		Source:  source,
	}
}

// SourceErrors represents a list of source errors.
type SourceErrors []*SourceError

// Error implements the error interface.
func (el SourceErrors) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
}

// FormatAll returns all errors formatted with context.
func (el SourceErrors) FormatAll() string {
	var sb strings.Builder
	for i, e := range el {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e.FormatWithContext())
	}
	return sb.String()
}

// Add adds an error to the list.
func (el *SourceErrors) Add(err *SourceError) {
	*el = append(*el, err)
}

// HasErrors returns true if there are any errors.
func (el SourceErrors) HasErrors() bool {
	return len(el) > 0
}
