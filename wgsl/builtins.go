package wgsl

import "strings"

// templatedTypes are predeclared type generators that take a template list.
// The parser only treats `<` after one of these names as opening a template.
var templatedTypes = map[string]bool{
	"vec2": true, "vec3": true, "vec4": true,
	"mat2x2": true, "mat2x3": true, "mat2x4": true,
	"mat3x2": true, "mat3x3": true, "mat3x4": true,
	"mat4x2": true, "mat4x3": true, "mat4x4": true,
	"array": true, "atomic": true, "ptr": true,
	"texture_1d": true, "texture_2d": true, "texture_2d_array": true,
	"texture_3d": true, "texture_cube": true, "texture_cube_array": true,
	"texture_multisampled_2d":  true,
	"texture_storage_1d":       true,
	"texture_storage_2d":       true,
	"texture_storage_2d_array": true,
	"texture_storage_3d":       true,
	"bitcast":                  true,
}

var builtinTypes = map[string]bool{
	"bool": true, "f16": true, "f32": true, "i32": true, "u32": true,
	"sampler": true, "sampler_comparison": true,
	"texture_depth_2d": true, "texture_depth_2d_array": true,
	"texture_depth_cube": true, "texture_depth_cube_array": true,
	"texture_depth_multisampled_2d": true,
	"texture_external":              true,
}

// Predeclared enumerants appear as template arguments and attribute
// operands: address spaces, access modes, texel formats, builtin values
// and interpolation settings.
var builtinEnumerants = map[string]bool{
	"function": true, "private": true, "workgroup": true, "uniform": true,
	"storage": true, "handle": true, "push_constant": true,

	"read": true, "write": true, "read_write": true,

	"r8unorm": true, "r8snorm": true, "r8uint": true, "r8sint": true,
	"r16uint": true, "r16sint": true, "r16float": true,
	"rg8unorm": true, "rg8snorm": true, "rg8uint": true, "rg8sint": true,
	"r32uint": true, "r32sint": true, "r32float": true,
	"rg16uint": true, "rg16sint": true, "rg16float": true,
	"rgba8unorm": true, "rgba8snorm": true, "rgba8uint": true, "rgba8sint": true,
	"bgra8unorm":  true,
	"rgb10a2uint": true, "rgb10a2unorm": true, "rg11b10ufloat": true,
	"rg32uint": true, "rg32sint": true, "rg32float": true,
	"rgba16uint": true, "rgba16sint": true, "rgba16float": true,
	"rgba32uint": true, "rgba32sint": true, "rgba32float": true,

	"position": true, "vertex_index": true, "instance_index": true,
	"front_facing": true, "frag_depth": true, "sample_index": true,
	"sample_mask": true, "local_invocation_id": true,
	"local_invocation_index": true, "global_invocation_id": true,
	"workgroup_id": true, "num_workgroups": true,

	"perspective": true, "linear": true, "flat": true,
	"center": true, "centroid": true, "sample": true,
	"first": true, "either": true,
}

var builtinFunctions = map[string]bool{
	// Numeric
	"abs": true, "min": true, "max": true, "clamp": true, "saturate": true,
	"cos": true, "cosh": true, "sin": true, "sinh": true, "tan": true, "tanh": true,
	"acos": true, "asin": true, "atan": true, "atan2": true,
	"acosh": true, "asinh": true, "atanh": true,
	"radians": true, "degrees": true,
	"ceil": true, "floor": true, "round": true, "fract": true, "trunc": true,
	"exp": true, "exp2": true, "log": true, "log2": true, "pow": true,
	"dot": true, "cross": true, "distance": true, "length": true,
	"normalize": true, "faceForward": true, "reflect": true, "refract": true,
	"sign": true, "fma": true, "mix": true, "step": true, "smoothstep": true,
	"sqrt": true, "inverseSqrt": true,
	"transpose": true, "determinant": true,
	"countTrailingZeros": true, "countLeadingZeros": true, "countOneBits": true,
	"reverseBits": true, "extractBits": true, "insertBits": true,
	"firstTrailingBit": true, "firstLeadingBit": true,
	"modf": true, "frexp": true, "ldexp": true, "quantizeToF16": true,
	"dot4U8Packed": true, "dot4I8Packed": true,

	// Packing
	"pack4x8snorm": true, "pack4x8unorm": true, "pack2x16snorm": true,
	"pack2x16unorm": true, "pack2x16float": true,
	"unpack4x8snorm": true, "unpack4x8unorm": true, "unpack2x16snorm": true,
	"unpack2x16unorm": true, "unpack2x16float": true,
	"pack4xI8": true, "pack4xU8": true, "pack4xI8Clamp": true, "pack4xU8Clamp": true,
	"unpack4xI8": true, "unpack4xU8": true,

	// Logical and array
	"all": true, "any": true, "select": true, "arrayLength": true,

	// Derivatives
	"dpdx": true, "dpdxCoarse": true, "dpdxFine": true,
	"dpdy": true, "dpdyCoarse": true, "dpdyFine": true,
	"fwidth": true, "fwidthCoarse": true, "fwidthFine": true,

	// Textures
	"textureDimensions": true, "textureGather": true, "textureGatherCompare": true,
	"textureLoad": true, "textureNumLayers": true, "textureNumLevels": true,
	"textureNumSamples": true, "textureSample": true, "textureSampleBias": true,
	"textureSampleCompare": true, "textureSampleCompareLevel": true,
	"textureSampleGrad": true, "textureSampleLevel": true,
	"textureSampleBaseClampToEdge": true, "textureStore": true,

	// Atomics
	"atomicLoad": true, "atomicStore": true, "atomicAdd": true, "atomicSub": true,
	"atomicMax": true, "atomicMin": true, "atomicAnd": true, "atomicOr": true,
	"atomicXor": true, "atomicExchange": true, "atomicCompareExchangeWeak": true,

	// Synchronization
	"storageBarrier": true, "workgroupBarrier": true, "textureBarrier": true,
	"workgroupUniformLoad": true,
}

// shorthandTypes are the predeclared aliases such as vec3f or mat4x4h.
var shorthandTypes = func() map[string]string {
	m := make(map[string]string)
	suffixes := map[string]string{"f": "f32", "h": "f16", "i": "i32", "u": "u32"}
	for _, n := range []string{"2", "3", "4"} {
		for s, elem := range suffixes {
			m["vec"+n+s] = "vec" + n + "<" + elem + ">"
		}
	}
	for _, c := range []string{"2", "3", "4"} {
		for _, r := range []string{"2", "3", "4"} {
			for _, s := range []string{"f", "h"} {
				m["mat"+c+"x"+r+s] = "mat" + c + "x" + r + "<" + suffixes[s] + ">"
			}
		}
	}
	return m
}()

// IsTemplatedTypeName reports whether name is a predeclared type generator
// that requires or accepts a template list.
func IsTemplatedTypeName(name string) bool {
	return templatedTypes[name]
}

// IsBuiltinType reports whether name is a predeclared type or type generator.
func IsBuiltinType(name string) bool {
	if builtinTypes[name] || templatedTypes[name] {
		return name != "bitcast"
	}
	_, ok := shorthandTypes[name]
	return ok
}

// ExpandShorthandType returns the element type and generator for a
// predeclared shorthand alias, e.g. "vec3f" -> ("vec3", "f32").
func ExpandShorthandType(name string) (generator, elem string, ok bool) {
	full, ok := shorthandTypes[name]
	if !ok {
		return "", "", false
	}
	generator, elem, _ = strings.Cut(strings.TrimSuffix(full, ">"), "<")
	return generator, elem, true
}

// IsBuiltinFunction reports whether name is a predeclared function.
func IsBuiltinFunction(name string) bool {
	return builtinFunctions[name]
}

// IsBuiltinEnumerant reports whether name is a predeclared enumerant.
func IsBuiltinEnumerant(name string) bool {
	return builtinEnumerants[name]
}

// IsBuiltin reports whether name resolves to anything predeclared.
func IsBuiltin(name string) bool {
	return IsBuiltinType(name) || IsBuiltinFunction(name) || IsBuiltinEnumerant(name)
}
