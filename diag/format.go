package diag

import (
	"bufio"
	"io"
	"strings"

	"github.com/gogpu/wgslfront/wgsl"
)

const (
	ansiReset   = "\x1b[0m"
	ansiBold    = "\x1b[1m"
	ansiRed     = "\x1b[1;31m"
	ansiYellow  = "\x1b[1;33m"
	ansiCyan    = "\x1b[1;36m"
	ansiMagenta = "\x1b[1;35m"
	ansiGreen   = "\x1b[32m"
)

// Formatter renders diagnostics as text.
type Formatter struct {
	// Sources maps span source names to file contents; when a span's file
	// is present its line is printed with a caret marker.
	Sources map[string]string
	// Color enables ANSI escape sequences. Writers that do not understand
	// them should be wrapped (see github.com/mattn/go-colorable).
	Color bool
	// ShowCodes appends the diagnostic code in brackets.
	ShowCodes bool
}

// Format writes every diagnostic in l to w.
func (f *Formatter) Format(w io.Writer, l List) error {
	bw := bufio.NewWriter(w)
	for _, d := range l {
		f.writeOne(bw, d)
	}
	return bw.Flush()
}

// FormatString renders l into a string.
func (f *Formatter) FormatString(l List) string {
	var sb strings.Builder
	_ = f.Format(&sb, l)
	return sb.String()
}

func (f *Formatter) writeOne(w *bufio.Writer, d Diagnostic) {
	if d.Source.IsValid() {
		f.paint(w, ansiBold, d.Source.String())
		w.WriteByte(' ')
	}
	f.paint(w, severityColor(d.Severity), d.Severity.String()+":")
	w.WriteByte(' ')
	f.paint(w, ansiBold, d.Message)
	if f.ShowCodes && d.Code != "" {
		w.WriteString(" [")
		w.WriteString(string(d.Code))
		w.WriteByte(']')
	}
	w.WriteByte('\n')

	src, ok := f.Sources[d.Source.Source]
	if !ok || !d.Source.IsValid() {
		return
	}
	line, ok := wgsl.SourceLine(src, d.Source.Start.Line)
	if !ok {
		return
	}
	w.WriteString(line)
	w.WriteByte('\n')
	f.paint(w, ansiGreen, wgsl.CaretLine(line, d.Source))
	w.WriteByte('\n')
}

func (f *Formatter) paint(w *bufio.Writer, color, text string) {
	if !f.Color {
		w.WriteString(text)
		return
	}
	w.WriteString(color)
	w.WriteString(text)
	w.WriteString(ansiReset)
}

func severityColor(s Severity) string {
	switch s {
	case Note:
		return ansiCyan
	case Warning:
		return ansiYellow
	case Error:
		return ansiRed
	}
	return ansiMagenta
}
