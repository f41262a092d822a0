package wgsl

import (
	"fmt"
	"runtime"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Sources for lexer and parser benchmarks
// ---------------------------------------------------------------------------

const benchShaderSmall = `
@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`

// benchShaderControlFlow has every statement form the parser knows.
const benchShaderControlFlow = `
const LIMIT: u32 = 16u;
const_assert LIMIT > 0u;

alias Index = u32;

struct Cell {
    value: f32,
    @align(16) flags: u32,
}

@group(0) @binding(0) var<storage, read_write> cells: array<Cell>;

fn visit(start: Index) -> f32 {
    var acc = 0.0;
    var i: Index = start;
    loop {
        let cell = cells[i];
        switch cell.flags & 3u {
            case 0u: {
                acc += cell.value;
            }
            case 1u, 2u: {
                if cell.value < 0.0 || cell.value > 1.0 {
                    break;
                }
                acc -= cell.value;
            }
            default: {
                return acc;
            }
        }
        continuing {
            i++;
            break if i >= LIMIT;
        }
    }
    for (var j = 0u; j < LIMIT; j += 2u) {
        while acc > 100.0 {
            acc *= 0.5;
        }
        _ = j;
    }
    return acc;
}

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    cells[gid.x].value = visit(gid.x);
}
`

// benchShaderLarge returns a module of n independent helper functions
// followed by a fragment entry point that calls all of them.
func benchShaderLarge(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, `
fn light%d(n: vec3<f32>, p: vec3<f32>) -> vec3<f32> {
    let l = normalize(vec3<f32>(%d.0, 10.0, 10.0) - p);
    let ndotl = max(dot(n, l), 0.0);
    if ndotl <= 0.0 {
        return vec3<f32>(0.0);
    }
    return vec3<f32>(1.0, 0.9, 0.8) * pow(ndotl, 32.0);
}
`, i, i)
	}
	sb.WriteString(`
@fragment
fn fs_main(@location(0) n: vec3<f32>, @location(1) p: vec3<f32>) -> @location(0) vec4<f32> {
    var c = vec3<f32>(0.05);
`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "    c += light%d(n, p);\n", i)
	}
	sb.WriteString("    return vec4<f32>(c / (c + vec3<f32>(1.0)), 1.0);\n}\n")
	return sb.String()
}

type benchCase struct {
	name   string
	source string
}

var benchShaders = []benchCase{
	{"small", benchShaderSmall},
	{"control_flow", benchShaderControlFlow},
	{"large", benchShaderLarge(32)},
}

func mustTokenize(b *testing.B, source string) []Token {
	b.Helper()
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		b.Fatalf("tokenize failed: %v", err)
	}
	return tokens
}

// ---------------------------------------------------------------------------
// Lexer benchmarks
// ---------------------------------------------------------------------------

// BenchmarkLex benchmarks tokenization throughput for shaders of different sizes.
func BenchmarkLex(b *testing.B) {
	for _, bc := range benchShaders {
		b.Run(bc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(bc.source)))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				runtime.KeepAlive(mustTokenize(b, bc.source))
			}
		})
	}
}

// BenchmarkLexTokenClasses benchmarks one class of token at a time, each
// repeated into a synthetic source.
func BenchmarkLexTokenClasses(b *testing.B) {
	classes := []struct {
		name  string
		words []string
	}{
		{"identifiers", []string{
			"position", "vertex_index", "world_pos", "view_proj", "NdotL",
			"vec3f", "mat4x4h", "texture_2d", "_private", "tone_mapped",
		}},
		{"numbers", []string{
			"0", "42", "0u", "255u", "7i", "0x1F", "0xFFu", "3.14", "1.0e10",
			"2.5e-3", ".5", "1.", "1.0f", "0.5h", "1e3",
		}},
		{"keywords", []string{
			"fn", "var", "let", "const", "struct", "return", "if", "else",
			"for", "while", "loop", "continuing", "break", "continue",
			"switch", "case", "default", "alias", "discard", "const_assert",
		}},
		{"operators", []string{
			"+ - * / % & | ^ ~ ! = < > . , : ; @",
			"-> ++ -- == != <= >= && || << >>",
			"+= -= *= /= %= &= |= ^= <<= >>=",
		}},
	}

	for _, c := range classes {
		source := strings.Repeat(strings.Join(c.words, " ")+" ", 50)
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(source)))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				runtime.KeepAlive(mustTokenize(b, source))
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Parser benchmarks
// ---------------------------------------------------------------------------

// BenchmarkParse benchmarks AST construction from pre-lexed tokens.
func BenchmarkParse(b *testing.B) {
	for _, bc := range benchShaders {
		b.Run(bc.name, func(b *testing.B) {
			tokens := mustTokenize(b, bc.source)

			b.ReportAllocs()
			b.SetBytes(int64(len(bc.source)))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				module, err := NewParser(tokens).Parse()
				if err != nil {
					b.Fatalf("parse failed: %v", err)
				}
				runtime.KeepAlive(module)
			}
		})
	}
}

// BenchmarkParseExpressions benchmarks deeply nested expressions with
// templated constructors, which exercise template disambiguation.
func BenchmarkParseExpressions(b *testing.B) {
	source := `
fn f(x: f32, y: f32, z: f32, i: i32) -> vec4<f32> {
    let a = x + y * z - x / y;
    let b = sin(x) + cos(y) * sqrt(z);
    let c = normalize(vec3<f32>(x, y, z));
    let d = length(c) * dot(c, vec3<f32>(1.0, 0.0, 0.0));
    let e = i < 2 && i > -2 || (i << 1u) >= 4 && !(x < y);
    let g = array<vec2<f32>, 2>(vec2<f32>(a), vec2<f32>(b, d))[i].yx;
    let h = bitcast<f32>(~(bitcast<u32>(x) & 0x7fffffffu));
    return vec4<f32>(select(h, g.x, e), max(min(a, b), d), c.z, 1.0);
}
`
	tokens := mustTokenize(b, source)

	b.ReportAllocs()
	b.SetBytes(int64(len(source)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		module, err := NewParser(tokens).Parse()
		if err != nil {
			b.Fatalf("parse failed: %v", err)
		}
		runtime.KeepAlive(module)
	}
}

// BenchmarkLexAndParse benchmarks the combined front end.
func BenchmarkLexAndParse(b *testing.B) {
	for _, bc := range benchShaders {
		b.Run(bc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(bc.source)))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				module, err := NewParser(mustTokenize(b, bc.source)).Parse()
				if err != nil {
					b.Fatalf("parse failed: %v", err)
				}
				runtime.KeepAlive(module)
			}
		})
	}
}

// BenchmarkInspect benchmarks a full AST traversal.
func BenchmarkInspect(b *testing.B) {
	for _, bc := range benchShaders {
		b.Run(bc.name, func(b *testing.B) {
			module, err := NewParser(mustTokenize(b, bc.source)).Parse()
			if err != nil {
				b.Fatalf("parse failed: %v", err)
			}

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				n := 0
				Inspect(module, func(Node) bool {
					n++
					return true
				})
				runtime.KeepAlive(n)
			}
		})
	}
}
