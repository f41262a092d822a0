package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeShader(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shader.wgsl")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("write shader: %v", err)
	}
	return path
}

func TestRunPrintsIR(t *testing.T) {
	path := writeShader(t, `
fn pick(c: bool) -> i32 {
    if c {
        return 1;
    }
    return 2;
}
`)
	var stdout, stderr bytes.Buffer
	if code := run([]string{path}, &stdout, &stderr, false); code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr.String())
	}
	out := stdout.String()
	if !strings.HasPrefix(out, "%pick = func(%c:bool):i32 -> %b1 {") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if n := strings.Count(out, "ret "); n != 1 {
		t.Errorf("expected a single return after merging, got %d:\n%s", n, out)
	}

	stdout.Reset()
	if code := run([]string{"-merge-return=false", path}, &stdout, &stderr, false); code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr.String())
	}
	if n := strings.Count(stdout.String(), "ret "); n != 2 {
		t.Errorf("expected two returns without merging, got %d:\n%s", n, stdout.String())
	}
}

func TestRunDependencyOrder(t *testing.T) {
	path := writeShader(t, `
fn main() -> f32 { return helper(Point(1.0, 2.0)); }
fn helper(p: Point) -> f32 { return p.x + p.y; }
struct Point { x: f32, y: f32 }
`)
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-deps", path}, &stdout, &stderr, false); code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr.String())
	}
	want := "struct Point\nfunction helper <- Point\nfunction main <- helper, Point\n"
	if got := stdout.String(); got != want {
		t.Errorf("dependency order:\n%s\nwant:\n%s", got, want)
	}
}

func TestRunReportsDiagnostics(t *testing.T) {
	path := writeShader(t, "fn main() -> i32 {\n    return missing;\n}\n")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-codes", path}, &stdout, &stderr, false); code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}
	out := stderr.String()
	for _, want := range []string{"unknown identifier: 'missing'", "[R0001]", "return missing;", "1 error(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("stderr lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("colors disabled but output has escape sequences:\n%q", out)
	}
}

func TestRunParseError(t *testing.T) {
	path := writeShader(t, "fn main( {\n}\n")
	var stdout, stderr bytes.Buffer
	if code := run([]string{path}, &stdout, &stderr, false); code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "fn main( {") {
		t.Errorf("parse error lacks source context:\n%s", stderr.String())
	}
}

func TestRunWritesOutputFile(t *testing.T) {
	path := writeShader(t, "fn f() {}\n")
	out := filepath.Join(t.TempDir(), "f.ir")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-o", out, path}, &stdout, &stderr, false); code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "%f = func():void") {
		t.Errorf("unexpected output file:\n%s", data)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout should be empty, got:\n%s", stdout.String())
	}
}

func TestRunUsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr, false); code != 2 {
		t.Errorf("no input: exit code %d, want 2", code)
	}
	if code := run([]string{"-bogus"}, &stdout, &stderr, false); code != 2 {
		t.Errorf("unknown flag: exit code %d, want 2", code)
	}
	if code := run([]string{"/nonexistent/shader.wgsl"}, &stdout, &stderr, false); code != 1 {
		t.Errorf("missing file: exit code %d, want 1", code)
	}

	stdout.Reset()
	if code := run([]string{"-version"}, &stdout, &stderr, false); code != 0 {
		t.Errorf("version: exit code %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "wgslir version ") {
		t.Errorf("unexpected version output: %q", stdout.String())
	}
}
