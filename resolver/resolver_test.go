package resolver

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/wgsl"
)

func parse(t *testing.T, source string) *wgsl.Module {
	t.Helper()
	tokens, err := wgsl.NewLexer(source).Tokenize()
	require.NoError(t, err)
	module, err := wgsl.NewParser(tokens).WithSource("test.wgsl", source).Parse()
	require.NoError(t, err)
	return module
}

func build(t *testing.T, source string, opts Options) *Graph {
	t.Helper()
	g, _ := Build(parse(t, source), opts)
	require.NotNil(t, g)
	return g
}

func names(decls []wgsl.Decl) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = wgsl.DeclName(d)
	}
	return out
}

func messages(l diag.List) []string {
	var out []string
	for _, d := range l {
		out = append(out, d.Severity.String()+": "+d.Message)
	}
	return out
}

func TestDependencyOrder(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name: "calls then references",
			source: `
fn useFoo() { foo(); }
fn foo() { var b: Bar; }
struct Bar { x: i32 }
`,
			want: []string{"Bar", "foo", "useFoo"},
		},
		{
			name: "already sorted",
			source: `
struct Light { color: vec3<f32> }
const MAX: u32 = 4u;
var<private> lights: array<Light, MAX>;
fn main() { lights[0].color = vec3<f32>(1.0); }
`,
			want: []string{"Light", "MAX", "lights", "main"},
		},
		{
			name: "ties keep source order",
			source: `
fn c() { a(); b(); }
fn b() {}
fn a() {}
`,
			want: []string{"a", "b", "c"},
		},
		{
			name: "alias chain",
			source: `
alias A = B;
alias B = C;
alias C = f32;
`,
			want: []string{"C", "B", "A"},
		},
		{
			name: "attribute operands",
			source: `
@group(0) @binding(SLOT) var<uniform> u: U;
struct U { v: vec4<f32> }
const SLOT = 2;
@compute @workgroup_size(WG) fn main() { _ = u; }
override WG: u32 = 64u;
`,
			want: []string{"SLOT", "U", "u", "WG", "main"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.source, Options{})
			require.False(t, g.Diagnostics.ContainsErrors(), g.Diagnostics.Error())
			if diff := cmp.Diff(tt.want, names(g.Ordered)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
			assertDependenciesFirst(t, g)
		})
	}
}

func assertDependenciesFirst(t *testing.T, g *Graph) {
	t.Helper()
	pos := make(map[wgsl.Decl]int, len(g.Ordered))
	for i, d := range g.Ordered {
		pos[d] = i
	}
	for _, d := range g.Ordered {
		for _, e := range g.Dependencies(d) {
			if pos[e.To] >= pos[d] {
				t.Errorf("%s appears before its dependency %s", wgsl.DeclName(d), wgsl.DeclName(e.To))
			}
		}
	}
}

func TestEdgesAreDeduplicated(t *testing.T) {
	g := build(t, `
fn f() -> i32 {
  g();
  g();
  let x = g();
  return x + v;
}
fn g() -> i32 { return 1; }
var<private> v: i32;
`, Options{})
	require.False(t, g.Diagnostics.ContainsErrors())

	f, ok := g.Global("f")
	require.True(t, ok)
	edges := g.Dependencies(f)
	require.Len(t, edges, 2)

	require.Equal(t, "g", wgsl.DeclName(edges[0].To))
	require.Equal(t, "calls", edges[0].Action)
	require.Equal(t, 3, edges[0].Source.Start.Line)

	require.Equal(t, "v", wgsl.DeclName(edges[1].To))
	require.Equal(t, "references", edges[1].Action)
}

func TestCyclicDependency(t *testing.T) {
	g := build(t, `fn a() { b(); }
fn b() { a(); }
fn c() { a(); }
`, Options{})

	cycles := g.Diagnostics.WithCode(diag.CodeCyclicDependency)
	require.Len(t, cycles, 1)

	want := []string{
		"error: cyclic dependency found: 'a' -> 'b' -> 'a'",
		"note: function 'a' calls function 'b' here",
		"note: function 'b' calls function 'a' here",
	}
	if diff := cmp.Diff(want, messages(g.Diagnostics)); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 1, g.Diagnostics[1].Source.Start.Line)
	require.Equal(t, 2, g.Diagnostics[2].Source.Start.Line)

	a, _ := g.Global("a")
	b, _ := g.Global("b")
	require.True(t, g.Cyclic[a])
	require.True(t, g.Cyclic[b])
	require.Equal(t, []string{"c"}, names(g.Ordered))
}

func TestCyclicStructs(t *testing.T) {
	g := build(t, `
struct S { t: T }
struct T { s: array<S, 2> }
`, Options{})
	want := []string{
		"error: cyclic dependency found: 'S' -> 'T' -> 'S'",
		"note: struct 'S' references struct 'T' here",
		"note: struct 'T' references struct 'S' here",
	}
	if diff := cmp.Diff(want, messages(g.Diagnostics)); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
	require.Empty(t, g.Ordered)
}

func TestSelfRecursion(t *testing.T) {
	g := build(t, `fn f() { f(); }`, Options{})
	require.Equal(t, []string{
		"error: cyclic dependency found: 'f' -> 'f'",
		"note: function 'f' calls function 'f' here",
	}, messages(g.Diagnostics))
}

func TestRedeclaration(t *testing.T) {
	g := build(t, `var<private> x: i32;
fn x() {}
`, Options{})

	require.Len(t, g.Diagnostics, 2)
	require.Len(t, g.Diagnostics.WithCode(diag.CodeRedeclaration), 1)

	errDiag, note := g.Diagnostics[0], g.Diagnostics[1]
	require.Equal(t, "redeclaration of 'x'", errDiag.Message)
	require.Equal(t, 2, errDiag.Source.Start.Line)
	require.Equal(t, diag.Note, note.Severity)
	require.Equal(t, "'x' previously declared here", note.Message)
	require.Equal(t, 1, note.Source.Start.Line)
}

func TestLocalRedeclaration(t *testing.T) {
	g := build(t, `fn f(p: i32) {
  var a = 1;
  let a = 2;
  { var p = 3; }
}
`, Options{})
	require.Equal(t, []string{
		"error: redeclaration of 'a'",
		"note: 'a' previously declared here",
	}, messages(g.Diagnostics))
}

func TestRedeclarationKeepsFirstBinding(t *testing.T) {
	m := parse(t, `
var<private> x: i32;
var<private> x: f32;
fn f() -> i32 { return x; }
fn g() {
  let y = 1;
  let y = 2;
  _ = y;
}
`)
	g, err := Build(m, Options{})
	require.Error(t, err)
	require.Len(t, g.Diagnostics.WithCode(diag.CodeRedeclaration), 2)

	first := m.Decls[0]
	got, ok := g.Global("x")
	require.True(t, ok)
	require.Equal(t, first, got)

	ret := m.Decls[2].(*wgsl.FunctionDecl).Body.Statements[0].(*wgsl.ReturnStmt)
	require.Equal(t, wgsl.Node(first), g.Resolved[ret.Value])
	require.Equal(t, []wgsl.Decl{first}, dependencyTargets(g, m.Decls[2]))

	body := m.Decls[3].(*wgsl.FunctionDecl).Body.Statements
	use := body[2].(*wgsl.AssignStmt).Right
	require.Equal(t, wgsl.Node(body[0]), g.Resolved[use])
}

func dependencyTargets(g *Graph, d wgsl.Decl) []wgsl.Decl {
	var out []wgsl.Decl
	for _, e := range g.Dependencies(d) {
		out = append(out, e.To)
	}
	return out
}

func TestUnknownSymbols(t *testing.T) {
	g := build(t, `
fn f() -> Foo {
  let a = y;
  bar();
  var t: vec3<Baz>;
  return a;
}
`, Options{})

	want := []string{
		"error: unknown type: 'Foo'",
		"error: unknown identifier: 'y'",
		"error: unknown function: 'bar'",
		"error: unknown type: 'Baz'",
	}
	if diff := cmp.Diff(want, messages(g.Diagnostics)); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, g.Diagnostics.WithCode(diag.CodeUnknownIdentifier), 4)
	require.Equal(t, []string{"f"}, names(g.Ordered))
}

func TestBuiltinsResolve(t *testing.T) {
	g := build(t, `
@group(0) @binding(0) var tex: texture_storage_2d<rgba8unorm, write>;
@fragment
fn main(@builtin(position) pos: vec4f, @location(0) @interpolate(flat) id: u32) -> @location(0) vec4<f32> {
  let p: ptr<function, f32> = &x;
  var x = sin(pos.x) + f32(id) + bitcast<f32>(id);
  return vec4<f32>(clamp(x, 0.0, 1.0));
}
`, Options{})
	// x is used before its local declaration, which is the only error.
	require.Equal(t, []string{"error: unknown identifier: 'x'"}, messages(g.Diagnostics))

	for ref := range g.Resolved {
		if named, ok := ref.(*wgsl.NamedType); ok && wgsl.IsBuiltinType(named.Name) {
			t.Errorf("predeclared type %s recorded in Resolved", named.Name)
		}
	}
}

func TestResolvedAndShadows(t *testing.T) {
	m := parse(t, `
var<private> a: i32;
fn f(a: f32) {
  let b = a;
  {
    var b = a;
  }
}
`)
	g, err := Build(m, Options{})
	require.NoError(t, err)

	global := m.Decls[0]
	fn := m.Decls[1].(*wgsl.FunctionDecl)
	param := fn.Params[0]
	outerB := fn.Body.Statements[0].(*wgsl.LetDecl)
	innerB := fn.Body.Statements[1].(*wgsl.BlockStmt).Statements[0].(*wgsl.VarDecl)

	require.Equal(t, global, g.Shadows[param])
	require.Equal(t, wgsl.Node(outerB), g.Shadows[innerB])
	require.Len(t, g.Shadows, 2)

	ref := outerB.Init.(*wgsl.Ident)
	require.Equal(t, wgsl.Node(param), g.Resolved[ref])

	// A parameter hides the global, so f does not depend on a.
	require.Empty(t, g.Dependencies(fn))
}

func TestParameterNamedLikeItsType(t *testing.T) {
	g := build(t, `
struct S { x: i32 }
fn f(S: S) -> i32 { return S.x; }
`, Options{})
	require.False(t, g.Diagnostics.ContainsErrors(), g.Diagnostics.Error())
	require.Equal(t, []string{"S", "f"}, names(g.Ordered))
}

func TestContinuingSeesBodyDeclarations(t *testing.T) {
	g := build(t, `
fn f() {
  loop {
    var i = 0;
    continuing {
      i = i + 1;
      break if i > 3;
    }
  }
  for (var j = 0; j < 4; j++) { _ = j; }
}
`, Options{})
	require.False(t, g.Diagnostics.ContainsErrors(), g.Diagnostics.Error())
}

func TestUnknownAttribute(t *testing.T) {
	g := build(t, `@bogus fn f() {}`, Options{})
	require.Equal(t, []string{"error: unknown attribute: '@bogus'"}, messages(g.Diagnostics))
}

func TestOutOfOrder(t *testing.T) {
	source := `fn f() { g(); }
fn g() {}
var<private> v: S;
struct S { x: i32 }
`
	g := build(t, source, Options{})
	require.False(t, g.Diagnostics.ContainsErrors())
	require.Equal(t, []string{"g", "f", "S", "v"}, names(g.Ordered))

	g = build(t, source, Options{RejectOutOfOrder: true})
	want := []string{
		"error: function 'g' used before it has been declared",
		"note: function 'g' declared here",
		"error: struct 'S' used before it has been declared",
		"note: struct 'S' declared here",
	}
	if diff := cmp.Diff(want, messages(g.Diagnostics)); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 1, g.Diagnostics[0].Source.Start.Line)
	require.Equal(t, 2, g.Diagnostics[1].Source.Start.Line)
}

func TestOutOfOrderSkippedAfterErrors(t *testing.T) {
	g := build(t, `fn f() { g(); h(); }
fn g() {}
`, Options{RejectOutOfOrder: true})
	require.Equal(t, []string{"error: unknown function: 'h'"}, messages(g.Diagnostics))
}

func TestDeterministic(t *testing.T) {
	source := `
fn main() { a(); b(); c(); }
fn c() { b(); }
fn b() { a(); x(); }
fn a() { main(); }
struct Unused { v: Missing }
`
	first := build(t, source, Options{})
	for i := 0; i < 10; i++ {
		again := build(t, source, Options{})
		if diff := cmp.Diff(names(first.Ordered), names(again.Ordered)); diff != "" {
			t.Fatalf("order changed between runs (-first +again):\n%s", diff)
		}
		if diff := cmp.Diff(first.Diagnostics.Error(), again.Diagnostics.Error()); diff != "" {
			t.Fatalf("diagnostics changed between runs (-first +again):\n%s", diff)
		}
	}
}

func TestBuildErrorIsDiagnosticList(t *testing.T) {
	_, err := Build(parse(t, `fn f() { nope(); }`), Options{})
	require.Error(t, err)

	var list diag.List
	require.True(t, errors.As(err, &list))
	require.Equal(t, 1, list.ErrorCount())
}

// bogusDecl and bogusStmt satisfy the AST interfaces through embedding but
// are unknown to the scanner.
type bogusDecl struct{ *wgsl.AliasDecl }

type bogusStmt struct{ *wgsl.BreakStmt }

func TestUnhandledNodeStopsScan(t *testing.T) {
	m := parse(t, `
fn f() {}
fn g() { unknown(); }
`)
	f := m.Decls[0].(*wgsl.FunctionDecl)
	f.Body.Statements = append(f.Body.Statements, bogusStmt{&wgsl.BreakStmt{}})

	g, err := Build(m, Options{})
	require.Error(t, err)
	require.True(t, g.Diagnostics.ContainsInternal())
	require.Len(t, g.Diagnostics, 1, "scanning must stop at the internal error")
	require.Equal(t, diag.CodeUnhandledNode, g.Diagnostics[0].Code)
	require.Empty(t, g.Ordered)

	m = &wgsl.Module{Decls: []wgsl.Decl{bogusDecl{&wgsl.AliasDecl{Name: "A"}}}}
	g, _ = Build(m, Options{})
	require.True(t, g.Diagnostics.ContainsInternal())
}
