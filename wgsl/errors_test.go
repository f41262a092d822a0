package wgsl

import (
	"errors"
	"strings"
	"testing"
)

func TestSourceError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *SourceError
		expected string
	}{
		{
			name: "with position",
			err: &SourceError{
				Message: "unexpected token",
				Span:    Span{Start: Position{Line: 5, Column: 10}},
			},
			expected: "5:10: unexpected token",
		},
		{
			name: "with file name",
			err: &SourceError{
				Message: "unexpected token",
				Span:    Span{Start: Position{Line: 1, Column: 2}, Source: "a.wgsl"},
			},
			expected: "a.wgsl:1:2: unexpected token",
		},
		{
			name:     "without position",
			err:      &SourceError{Message: "generic error"},
			expected: "generic error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSourceError_FormatWithContext(t *testing.T) {
	source := "fn main() {\n    let x = 1.0\n}"
	err := &SourceError{
		Message: "expected ';'",
		Span: Span{
			Start: Position{Line: 2, Column: 9},
			End:   Position{Line: 2, Column: 10},
		},
		Source: source,
	}

	formatted := err.FormatWithContext()
	for _, want := range []string{"error: expected ';'", "  2|     let x = 1.0", "   |         ^"} {
		if !strings.Contains(formatted, want) {
			t.Errorf("formatted output missing %q:\n%s", want, formatted)
		}
	}
}

func TestSourceError_FormatWithContext_NoSource(t *testing.T) {
	err := &SourceError{Message: "boom", Span: Span{Start: Position{Line: 1, Column: 1}}}
	if got := err.FormatWithContext(); got != "1:1: boom" {
		t.Errorf("FormatWithContext() = %q", got)
	}
}

func TestCaretLine(t *testing.T) {
	tests := []struct {
		line string
		span Span
		want string
	}{
		{"let x = y;", Span{Start: Position{Line: 1, Column: 9}, End: Position{Line: 1, Column: 10}}, "        ^"},
		{"let x = abc;", Span{Start: Position{Line: 1, Column: 9}, End: Position{Line: 1, Column: 12}}, "        ^~~"},
		{"ab", Span{Start: Position{Line: 1, Column: 1}, End: Position{Line: 3, Column: 1}}, "^~"},
	}
	for _, tt := range tests {
		if got := CaretLine(tt.line, tt.span); got != tt.want {
			t.Errorf("CaretLine(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestSourceLine(t *testing.T) {
	src := "a\r\nb\nc"
	for i, want := range []string{"a", "b", "c"} {
		got, ok := SourceLine(src, i+1)
		if !ok || got != want {
			t.Errorf("line %d: got %q, %v", i+1, got, ok)
		}
	}
	if _, ok := SourceLine(src, 4); ok {
		t.Error("expected line 4 to be out of range")
	}
}

func TestSourceErrors_Error(t *testing.T) {
	var errs SourceErrors
	if errs.Error() != "no errors" || errs.HasErrors() {
		t.Errorf("unexpected empty list behavior")
	}
	errs.Add(NewSourceError("first", Span{Start: Position{Line: 1, Column: 1}}, ""))
	errs.Add(NewSourceError("second", Span{Start: Position{Line: 2, Column: 1}}, ""))
	if got := errs.Error(); got != "1:1: first (and 1 more errors)" {
		t.Errorf("Error() = %q", got)
	}
	if !strings.Contains(errs.FormatAll(), "2:1: second") {
		t.Errorf("FormatAll() missing second error: %q", errs.FormatAll())
	}
}

func TestParseReturnsSourceErrors(t *testing.T) {
	source := "fn f() {\n  let = 1;\n}"
	_, err := tryParseSource(source)
	var errs SourceErrors
	if !errors.As(err, &errs) {
		t.Fatalf("expected SourceErrors, got %T", err)
	}
	first := errs[0]
	if first.Span.Start.Line != 2 || first.Span.Start.Column != 7 {
		t.Errorf("unexpected position %v", first.Span)
	}
	if !strings.Contains(first.FormatWithContext(), "let = 1;") {
		t.Errorf("expected source context, got %q", first.FormatWithContext())
	}
}
