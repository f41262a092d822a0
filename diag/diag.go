// Package diag holds compiler diagnostics: severities, codes and the
// append-only list that every pass reports into.
package diag

import (
	"fmt"
	"strings"

	"github.com/gogpu/wgslfront/wgsl"
)

// Severity classifies a diagnostic.
type Severity uint8

const (
	Note Severity = iota
	Warning
	Error
	// InternalError marks a violated compiler invariant. It stops the
	// pass that raised it.
	InternalError
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case InternalError:
		return "internal compiler error"
	}
	return fmt.Sprintf("Severity(%d)", s)
}

// System names the pass that raised a diagnostic.
type System uint8

const (
	SystemParser System = iota
	SystemResolver
	SystemLower
	SystemTransform
	SystemValidator
)

func (s System) String() string {
	switch s {
	case SystemParser:
		return "parser"
	case SystemResolver:
		return "resolver"
	case SystemLower:
		return "lower"
	case SystemTransform:
		return "transform"
	case SystemValidator:
		return "validator"
	}
	return fmt.Sprintf("System(%d)", s)
}

// Diagnostic is a single message tied to a source location.
type Diagnostic struct {
	Severity Severity
	System   System
	Code     Code
	Message  string
	Source   wgsl.Span
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	if d.Source.IsValid() {
		sb.WriteString(d.Source.String())
		sb.WriteByte(' ')
	}
	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	return sb.String()
}

// List is an ordered, append-only collection of diagnostics. Notes follow
// the error they annotate. A List is an error when it contains errors.
type List []Diagnostic

// Add appends d to the list.
func (l *List) Add(d Diagnostic) {
	*l = append(*l, d)
}

// AddError appends an error diagnostic.
func (l *List) AddError(system System, code Code, span wgsl.Span, format string, args ...any) {
	l.Add(Diagnostic{
		Severity: Error,
		System:   system,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Source:   span,
	})
}

// AddNote appends a note attached to the preceding diagnostic.
func (l *List) AddNote(system System, span wgsl.Span, format string, args ...any) {
	l.Add(Diagnostic{
		Severity: Note,
		System:   system,
		Message:  fmt.Sprintf(format, args...),
		Source:   span,
	})
}

// AddInternal appends an internal compiler error.
func (l *List) AddInternal(system System, code Code, span wgsl.Span, format string, args ...any) {
	l.Add(Diagnostic{
		Severity: InternalError,
		System:   system,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Source:   span,
	})
}

// Append adds all diagnostics of other, preserving their order.
func (l *List) Append(other List) {
	*l = append(*l, other...)
}

// ContainsErrors reports whether any diagnostic is an error or worse.
func (l List) ContainsErrors() bool {
	for _, d := range l {
		if d.Severity >= Error {
			return true
		}
	}
	return false
}

// ContainsInternal reports whether an internal compiler error was raised.
func (l List) ContainsInternal() bool {
	for _, d := range l {
		if d.Severity == InternalError {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error and internal diagnostics.
func (l List) ErrorCount() int {
	n := 0
	for _, d := range l {
		if d.Severity >= Error {
			n++
		}
	}
	return n
}

// WithCode returns the diagnostics carrying code, in order.
func (l List) WithCode(code Code) List {
	var out List
	for _, d := range l {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Error implements the error interface with one diagnostic per line.
func (l List) Error() string {
	if len(l) == 0 {
		return "no diagnostics"
	}
	lines := make([]string, len(l))
	for i, d := range l {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

// Err returns l as an error when it contains errors, nil otherwise.
func (l List) Err() error {
	if l.ContainsErrors() {
		return l
	}
	return nil
}
