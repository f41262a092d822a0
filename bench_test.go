package wgslfront

import (
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/gogpu/wgslfront/ir"
	"github.com/gogpu/wgslfront/ir/transform"
	"github.com/gogpu/wgslfront/lower"
	"github.com/gogpu/wgslfront/resolver"
)

// ---------------------------------------------------------------------------
// Test shader sources: realistic WGSL shaders at different complexity levels
// ---------------------------------------------------------------------------

// shaderSmallVertex is a minimal vertex shader.
const shaderSmallVertex = `
@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    var pos = array<vec2<f32>, 3>(
        vec2<f32>(-0.5, -0.5),
        vec2<f32>(0.5, -0.5),
        vec2<f32>(0.0, 0.5)
    );
    return vec4<f32>(pos[idx], 0.0, 1.0);
}
`

// shaderMediumCompute is a compute shader with math and nested control flow.
const shaderMediumCompute = `
@group(0) @binding(0) var<storage, read_write> field: array<f32>;

@compute @workgroup_size(64, 1, 1)
fn cs_main(@builtin(global_invocation_id) gid: vec3<u32>) {
    var x: f32 = f32(gid.x);
    var y: f32 = f32(gid.y);

    let dist = sqrt(x * x + y * y);
    let angle = x / (dist + 0.001);

    var result: f32 = 0.0;
    if dist < 100.0 {
        result = sin(angle) * cos(angle);
    } else if dist < 200.0 {
        result = clamp(dist / 200.0, 0.0, 1.0);
    } else {
        return;
    }

    for (var i = 0; i < 4; i++) {
        if result > 0.9 {
            break;
        }
        result = mix(result, 1.0 - result, 0.5);
    }
    field[gid.x] = max(abs(result), 0.01);
}
`

// shaderMediumSDF is an SDF compute shader with early exits.
const shaderMediumSDF = `
fn sd_circle(p: vec2<f32>, r: f32) -> f32 {
    return length(p) - r;
}

fn sd_box(p: vec2<f32>, half_size: vec2<f32>) -> f32 {
    let d = abs(p) - half_size;
    return length(max(d, vec2<f32>(0.0))) + min(max(d.x, d.y), 0.0);
}

fn shape(p: vec2<f32>, kind: u32) -> f32 {
    switch kind {
        case 0u: {
            return sd_circle(p, 0.3);
        }
        case 1u, 2u: {
            return sd_box(p, vec2<f32>(0.2));
        }
        default: {
            return min(sd_circle(p, 0.3), sd_box(p, vec2<f32>(0.2)));
        }
    }
}

@group(0) @binding(0) var<storage, read_write> coverage: array<f32>;

@compute @workgroup_size(8, 8, 1)
fn sdf_main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let p = vec2<f32>(f32(gid.x), f32(gid.y)) / 512.0 - vec2<f32>(0.5);
    let sdf = shape(p, gid.z % 3u);
    coverage[gid.y * 512u + gid.x] = clamp(0.5 - sdf * 512.0, 0.0, 1.0);
}
`

// shaderLargeFragment is a PBR-like vertex/fragment pair with lighting.
const shaderLargeFragment = `
struct Camera {
    view_proj: mat4x4<f32>,
    eye: vec3<f32>,
}

@group(0) @binding(0) var<uniform> camera: Camera;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) world_pos: vec3<f32>,
    @location(1) normal: vec3<f32>,
    @location(2) uv: vec2<f32>,
}

@vertex
fn vs_main(
    @location(0) pos: vec3<f32>,
    @location(1) normal: vec3<f32>,
    @location(2) uv: vec2<f32>,
) -> VertexOutput {
    var out: VertexOutput;
    out.position = camera.view_proj * vec4<f32>(pos, 1.0);
    out.world_pos = pos;
    out.normal = normal;
    out.uv = uv;
    return out;
}

fn tone_map(c: vec3<f32>) -> vec3<f32> {
    return c / (c + vec3<f32>(1.0));
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let N = normalize(in.normal);
    let light_pos = vec3<f32>(10.0, 10.0, 10.0);
    let light_color = vec3<f32>(1.0, 1.0, 1.0);
    let L = normalize(light_pos - in.world_pos);

    let NdotL = max(dot(N, L), 0.0);
    if NdotL <= 0.0 {
        return vec4<f32>(0.05, 0.05, 0.05, 1.0);
    }
    let diffuse = light_color * NdotL;

    let view_dir = normalize(camera.eye - in.world_pos);
    let half_dir = normalize(L + view_dir);
    let NdotH = max(dot(N, half_dir), 0.0);
    let specular = light_color * pow(NdotH, 32.0);

    let base_color = vec3<f32>(0.8, 0.2, 0.2);
    let final_color = vec3<f32>(0.05) + base_color * diffuse + specular * 0.5;

    let gamma: f32 = 1.0 / 2.2;
    let mapped = tone_map(final_color);
    let corrected = vec3<f32>(
        pow(mapped.x, gamma),
        pow(mapped.y, gamma),
        pow(mapped.z, gamma),
    );
    return vec4<f32>(corrected, 1.0);
}
`

type shaderCase struct {
	name   string
	source string
}

var shadersByComplexity = []shaderCase{
	{"small_vertex", shaderSmallVertex},
	{"medium_compute", shaderMediumCompute},
	{"medium_sdf", shaderMediumSDF},
	{"large_pbr", shaderLargeFragment},
	{"many_functions", manyFunctions(64)},
}

// manyFunctions returns a module of n chained helper functions with loops
// and early returns, used to measure parallel lowering.
func manyFunctions(n int) string {
	var sb strings.Builder
	sb.WriteString("fn f0(x: i32) -> i32 { return x; }\n")
	for i := 1; i < n; i++ {
		fmt.Fprintf(&sb, `
fn f%d(x: i32) -> i32 {
    var acc = f%d(x);
    for (var i = 0; i < %d; i++) {
        if acc > 1000 {
            return acc;
        }
        acc = acc * 2 + i;
    }
    switch acc %% 3 {
        case 0: { acc += 1; }
        default: {}
    }
    return acc;
}
`, i, i-1, i%7+1)
	}
	return sb.String()
}

func (sc shaderCase) lower(b *testing.B, opts lower.Options) *ir.Module {
	b.Helper()
	ast, err := Parse(sc.source)
	if err != nil {
		b.Fatalf("parse failed: %v", err)
	}
	graph, err := Resolve(ast, resolver.Options{})
	if err != nil {
		b.Fatalf("resolve failed: %v", err)
	}
	module, err := Lower(ast, graph, opts)
	if err != nil {
		b.Fatalf("lower failed: %v", err)
	}
	return module
}

// ---------------------------------------------------------------------------
// End-to-end compilation benchmarks by complexity
// ---------------------------------------------------------------------------

// BenchmarkCompile benchmarks the full pipeline with default options.
func BenchmarkCompile(b *testing.B) {
	for _, sc := range shadersByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.source)))
			b.ResetTimer()

			var result *ir.Module
			for i := 0; i < b.N; i++ {
				var err error
				result, err = Compile(sc.source, DefaultOptions())
				if err != nil {
					b.Fatalf("compile failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// BenchmarkCompileParallel benchmarks the full pipeline with function
// bodies lowered concurrently.
func BenchmarkCompileParallel(b *testing.B) {
	opts := DefaultOptions()
	opts.Lower.Parallel = true

	for _, sc := range shadersByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.source)))
			b.ResetTimer()

			var result *ir.Module
			for i := 0; i < b.N; i++ {
				var err error
				result, err = Compile(sc.source, opts)
				if err != nil {
					b.Fatalf("compile failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// ---------------------------------------------------------------------------
// Individual pipeline stage benchmarks
// ---------------------------------------------------------------------------

// BenchmarkParse benchmarks tokenization and AST construction.
func BenchmarkParse(b *testing.B) {
	for _, sc := range shadersByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.source)))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				ast, err := Parse(sc.source)
				if err != nil {
					b.Fatalf("parse failed: %v", err)
				}
				runtime.KeepAlive(ast)
			}
		})
	}
}

// BenchmarkResolve benchmarks identifier resolution and dependency ordering.
func BenchmarkResolve(b *testing.B) {
	for _, sc := range shadersByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			ast, err := Parse(sc.source)
			if err != nil {
				b.Fatalf("parse failed: %v", err)
			}

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				graph, err := Resolve(ast, resolver.Options{})
				if err != nil {
					b.Fatalf("resolve failed: %v", err)
				}
				runtime.KeepAlive(graph)
			}
		})
	}
}

// BenchmarkLower benchmarks AST-to-IR lowering.
func BenchmarkLower(b *testing.B) {
	for _, sc := range shadersByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			ast, err := Parse(sc.source)
			if err != nil {
				b.Fatalf("parse failed: %v", err)
			}
			graph, err := Resolve(ast, resolver.Options{})
			if err != nil {
				b.Fatalf("resolve failed: %v", err)
			}

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				module, err := Lower(ast, graph, lower.Options{})
				if err != nil {
					b.Fatalf("lower failed: %v", err)
				}
				runtime.KeepAlive(module)
			}
		})
	}
}

// BenchmarkMergeReturn benchmarks the return normalizer. Each iteration
// needs a fresh module, so lowering runs with the timer stopped.
func BenchmarkMergeReturn(b *testing.B) {
	for _, sc := range shadersByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				b.StopTimer()
				module := sc.lower(b, lower.Options{})
				b.StartTimer()

				if err := transform.MergeReturn(module); err != nil {
					b.Fatalf("merge return failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkValidate benchmarks IR validation.
func BenchmarkValidate(b *testing.B) {
	for _, sc := range shadersByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			module := sc.lower(b, lower.Options{})

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if err := Validate(module, ir.ValidateOptions{}); err != nil {
					b.Fatalf("validate failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkDisassemble benchmarks the IR text form.
func BenchmarkDisassemble(b *testing.B) {
	module := shadersByComplexity[len(shadersByComplexity)-1].lower(b, lower.Options{})

	b.ReportAllocs()
	b.ResetTimer()

	var text string
	for i := 0; i < b.N; i++ {
		text = ir.Disassemble(module)
	}
	runtime.KeepAlive(text)
}
