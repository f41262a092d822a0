package wgslfront

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/ir"
	"github.com/gogpu/wgslfront/lower"
	"github.com/gogpu/wgslfront/resolver"
	"github.com/gogpu/wgslfront/wgsl"
)

// countReturns returns the number of Return instructions in f.
func countReturns(f *ir.Function) int {
	n := 0
	for _, b := range f.Blocks() {
		for _, inst := range b.Instructions {
			if _, ok := inst.(*ir.Return); ok {
				n++
			}
		}
	}
	return n
}

// TestCompileComputeShader tests compilation of a compute shader with
// storage buffers and a loop.
func TestCompileComputeShader(t *testing.T) {
	source := `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let index = global_id.x;
    var sum = 0.0;
    for (var i = 0u; i < 4u; i++) {
        sum += input[index * 4u + i];
    }
    output[index] = sum;
}
`
	module, err := Compile(source, DefaultOptions())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	entries := module.EntryPoints()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry point, got %d", len(entries))
	}
	main := entries[0]
	if main.Stage != ir.StageCompute {
		t.Errorf("stage = %v, want compute", main.Stage)
	}
	if main.WorkgroupSize != [3]uint32{64, 1, 1} {
		t.Errorf("workgroup size = %v, want [64 1 1]", main.WorkgroupSize)
	}
	if got := len(module.Root.Instructions); got != 2 {
		t.Errorf("root block has %d instructions, want 2", got)
	}
}

// TestCompileTriangleShader tests a vertex/fragment pair sharing an IO struct.
func TestCompileTriangleShader(t *testing.T) {
	source := `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> VertexOutput {
    var positions = array<vec2<f32>, 3>(
        vec2<f32>(0.0, 0.5),
        vec2<f32>(-0.5, -0.5),
        vec2<f32>(0.5, -0.5)
    );
    var out: VertexOutput;
    out.position = vec4<f32>(positions[idx], 0.0, 1.0);
    out.color = vec4<f32>(1.0, 0.0, 0.0, 1.0);
    return out;
}

@fragment
fn fs_main(@location(0) color: vec4<f32>) -> @location(0) vec4<f32> {
    return color;
}
`
	module, err := Compile(source, DefaultOptions())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	vs, ok := module.Function("vs_main")
	if !ok {
		t.Fatal("vs_main not found")
	}
	st, ok := vs.ReturnType.(*ir.StructType)
	if !ok {
		t.Fatalf("vs_main returns %v, want a struct", vs.ReturnType)
	}
	if len(st.Members) != 2 {
		t.Fatalf("VertexOutput has %d members, want 2", len(st.Members))
	}
	if _, ok := st.Members[0].Binding.(ir.BuiltinBinding); !ok {
		t.Errorf("position binding = %v, want a builtin binding", st.Members[0].Binding)
	}

	fs, ok := module.Function("fs_main")
	if !ok {
		t.Fatal("fs_main not found")
	}
	if fs.Stage != ir.StageFragment {
		t.Errorf("fs_main stage = %v, want fragment", fs.Stage)
	}
}

// TestCompileMergesReturns checks that the default pipeline leaves a single
// return per function, and that disabling the pass keeps the early exits.
func TestCompileMergesReturns(t *testing.T) {
	source := `
fn classify(x: i32) -> i32 {
    if x < 0 {
        return -1;
    }
    loop {
        if x > 100 {
            return 2;
        }
        break;
    }
    return 1;
}
`
	merged, err := Compile(source, DefaultOptions())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	f, _ := merged.Function("classify")
	if n := countReturns(f); n != 1 {
		t.Errorf("merged function has %d returns, want 1\n%s", n, ir.DisassembleFunction(f))
	}

	opts := DefaultOptions()
	opts.MergeReturn = false
	plain, err := Compile(source, opts)
	if err != nil {
		t.Fatalf("Compile without merge return failed: %v", err)
	}
	f, _ = plain.Function("classify")
	if n := countReturns(f); n != 3 {
		t.Errorf("unmerged function has %d returns, want 3\n%s", n, ir.DisassembleFunction(f))
	}
}

// TestCompileOutOfOrderDeclarations checks that functions and types may be
// used before they are declared.
func TestCompileOutOfOrderDeclarations(t *testing.T) {
	source := `
fn area(r: Rect) -> f32 {
    return width(r) * r.h;
}
fn width(r: Rect) -> f32 {
    return r.w;
}
struct Rect {
    w: f32,
    h: f32,
}
`
	module, err := Compile(source, DefaultOptions())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	var names []string
	for _, f := range module.Functions {
		names = append(names, f.Name)
	}
	if got := strings.Join(names, ","); got != "width,area" {
		t.Errorf("function order = %s, want width,area", got)
	}

	opts := DefaultOptions()
	opts.Resolver.RejectOutOfOrder = true
	if _, err := Compile(source, opts); err == nil {
		t.Error("expected an error with RejectOutOfOrder")
	}
}

// TestCompileParallelLowering checks that parallel lowering gives the same
// IR as sequential lowering.
func TestCompileParallelLowering(t *testing.T) {
	source := `
fn a(x: f32) -> f32 { return x * 2.0; }
fn b(x: f32) -> f32 { if x > 1.0 { return a(x); } return x; }
fn c(x: f32) -> f32 { var y = x; while y < 10.0 { y = b(y) + 1.0; } return y; }
@fragment
fn main(@location(0) v: f32) -> @location(0) vec4<f32> {
    return vec4<f32>(c(v));
}
`
	want, err := Compile(source, DefaultOptions())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	opts := DefaultOptions()
	opts.Lower = lower.Options{Parallel: true}
	got, err := Compile(source, opts)
	if err != nil {
		t.Fatalf("parallel Compile failed: %v", err)
	}
	if ir.Disassemble(want) != ir.Disassemble(got) {
		t.Errorf("parallel output differs:\n%s\nwant:\n%s", ir.Disassemble(got), ir.Disassemble(want))
	}
}

// TestCompileErrors checks that each phase reports through the returned
// error and that diagnostics survive the wrapping.
func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		prefix  string
		code    diag.Code
		isDiags bool
	}{
		{
			name:   "syntax error",
			source: "fn main( -> f32 { return 1.0; }",
			prefix: "parse error",
		},
		{
			name:    "unknown identifier",
			source:  "fn main() -> f32 { return missing; }",
			prefix:  "resolve error",
			code:    diag.CodeUnknownIdentifier,
			isDiags: true,
		},
		{
			name:    "cyclic dependency",
			source:  "fn a() { b(); } fn b() { a(); }",
			prefix:  "resolve error",
			code:    diag.CodeCyclicDependency,
			isDiags: true,
		},
		{
			name:    "missing return",
			source:  "fn main() -> f32 { }",
			prefix:  "lowering error",
			code:    diag.CodeMissingReturn,
			isDiags: true,
		},
		{
			name:    "break outside loop",
			source:  "fn main() { break; }",
			prefix:  "lowering error",
			code:    diag.CodeInvalidControlFlow,
			isDiags: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source, DefaultOptions())
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.HasPrefix(err.Error(), tt.prefix) {
				t.Errorf("error %q does not start with %q", err, tt.prefix)
			}

			var list diag.List
			if errors.As(err, &list) != tt.isDiags {
				t.Fatalf("errors.As(diag.List) = %v, want %v", !tt.isDiags, tt.isDiags)
			}
			if tt.isDiags && len(list.WithCode(tt.code)) == 0 {
				t.Errorf("no %s diagnostic in:\n%s", tt.code, list)
			}
		})
	}
}

// TestParseErrorHasContext checks that parse errors keep their source
// context through the facade.
func TestParseErrorHasContext(t *testing.T) {
	source := "fn main() {\n    let x = ;\n}\n"
	_, err := ParseFile("shader.wgsl", source)
	if err == nil {
		t.Fatal("expected a parse error")
	}

	var errs wgsl.SourceErrors
	if !errors.As(err, &errs) {
		t.Fatalf("error is %T, want wgsl.SourceErrors", err)
	}
	formatted := errs.FormatAll()
	if !strings.Contains(formatted, "let x = ;") {
		t.Errorf("formatted error lacks the source line:\n%s", formatted)
	}
}

// TestPipelineStages exercises the individual phases.
func TestPipelineStages(t *testing.T) {
	source := `
const scale = 2.0;
@vertex
fn main(@location(0) pos: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos * scale, 1.0);
}
`
	ast, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ast.Decls) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(ast.Decls))
	}

	graph, err := Resolve(ast, resolver.Options{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(graph.Ordered) != 2 {
		t.Fatalf("expected 2 ordered declarations, got %d", len(graph.Ordered))
	}

	module, err := Lower(ast, graph, lower.Options{})
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	if err := Validate(module, ir.ValidateOptions{}); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if module.Types.Count() == 0 {
		t.Error("expected collected types")
	}
}

// TestValidateReportsDiagnostics checks that structural problems come back
// as internal diagnostics.
func TestValidateReportsDiagnostics(t *testing.T) {
	module := ir.NewModule()
	f := ir.NewFunction("broken", nil)
	module.Functions = append(module.Functions, f)

	err := Validate(module, ir.ValidateOptions{})
	if err == nil {
		t.Fatal("expected a validation error for a block without terminator")
	}
	var list diag.List
	if !errors.As(err, &list) {
		t.Fatalf("error is %T, want diag.List", err)
	}
	if !list.ContainsInternal() {
		t.Errorf("expected internal diagnostics, got:\n%s", list)
	}
}
