package lower

import (
	"fmt"

	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/ir"
	"github.com/gogpu/wgslfront/wgsl"
)

// builtinRule describes how a builtin function's arguments are prepared
// and what type it returns.
type builtinRule struct {
	// unify materializes abstract arguments to the scalar type of the first
	// concrete argument; the rest default to i32 or f32.
	unify bool
	// atomic materializes the value arguments to the atomic's scalar type.
	atomic bool
	// args is the accepted argument count, or -1 for any.
	args   int
	result func(args []ir.Type) (ir.Type, error)
}

func sameAsFirst(args []ir.Type) (ir.Type, error) { return args[0], nil }

func scalarOfFirst(args []ir.Type) (ir.Type, error) {
	s, ok := ir.ScalarOf(args[0])
	if !ok {
		return nil, fmt.Errorf("expected a numeric argument, got %s", args[0])
	}
	return s, nil
}

func fixed(t ir.Type) func([]ir.Type) (ir.Type, error) {
	return func([]ir.Type) (ir.Type, error) { return t, nil }
}

func void([]ir.Type) (ir.Type, error) { return nil, nil }

func transpose(args []ir.Type) (ir.Type, error) {
	m, ok := args[0].(ir.MatrixType)
	if !ok {
		return nil, fmt.Errorf("transpose expects a matrix, got %s", args[0])
	}
	return ir.MatrixType{Columns: m.Rows, Rows: m.Columns, Scalar: m.Scalar}, nil
}

func pointee(args []ir.Type) (ir.Type, error) {
	t, ok := ir.PointeeOf(args[0])
	if !ok {
		return nil, fmt.Errorf("expected a pointer, got %s", args[0])
	}
	return t, nil
}

func atomicScalar(args []ir.Type) (ir.Type, error) {
	t, err := pointee(args)
	if err != nil {
		return nil, err
	}
	a, ok := t.(ir.AtomicType)
	if !ok {
		return nil, fmt.Errorf("expected a pointer to an atomic, got %s", args[0])
	}
	return a.Scalar, nil
}

func image(args []ir.Type) (ir.ImageType, error) {
	if len(args) == 0 {
		return ir.ImageType{}, fmt.Errorf("missing texture argument")
	}
	img, ok := args[0].(ir.ImageType)
	if !ok {
		return ir.ImageType{}, fmt.Errorf("expected a texture, got %s", args[0])
	}
	return img, nil
}

// texel returns the type of one sampled or loaded texel.
func texel(args []ir.Type) (ir.Type, error) {
	img, err := image(args)
	if err != nil {
		return nil, err
	}
	switch img.Class {
	case ir.ImageClassDepth:
		return ir.F32, nil
	case ir.ImageClassStorage:
		return ir.VectorType{Size: ir.Vec4, Scalar: storageScalar(img.Format)}, nil
	case ir.ImageClassExternal:
		return ir.VectorType{Size: ir.Vec4, Scalar: ir.F32}, nil
	}
	return ir.VectorType{Size: ir.Vec4, Scalar: ir.ScalarType{Kind: img.SampledKind, Width: 4}}, nil
}

func gather(args []ir.Type) (ir.Type, error) {
	// textureGather(component, t, s, coords) takes the component first for
	// color textures.
	for _, a := range args {
		if img, ok := a.(ir.ImageType); ok {
			kind := img.SampledKind
			if img.Class == ir.ImageClassDepth {
				kind = ir.ScalarFloat
			}
			return ir.VectorType{Size: ir.Vec4, Scalar: ir.ScalarType{Kind: kind, Width: 4}}, nil
		}
	}
	return nil, fmt.Errorf("missing texture argument")
}

func dimensions(args []ir.Type) (ir.Type, error) {
	img, err := image(args)
	if err != nil {
		return nil, err
	}
	switch img.Dim {
	case ir.Dim1D:
		return ir.U32, nil
	case ir.Dim3D:
		return ir.VectorType{Size: ir.Vec3, Scalar: ir.U32}, nil
	}
	return ir.VectorType{Size: ir.Vec2, Scalar: ir.U32}, nil
}

func storageScalar(format string) ir.ScalarType {
	switch format {
	case "r8uint", "r16uint", "rg8uint", "r32uint", "rg16uint", "rgba8uint",
		"rgb10a2uint", "rg32uint", "rgba16uint", "rgba32uint":
		return ir.U32
	case "r8sint", "r16sint", "rg8sint", "r32sint", "rg16sint", "rgba8sint",
		"rg32sint", "rgba16sint", "rgba32sint":
		return ir.I32
	}
	return ir.F32
}

var (
	vec2f = ir.VectorType{Size: ir.Vec2, Scalar: ir.F32}
	vec4f = ir.VectorType{Size: ir.Vec4, Scalar: ir.F32}
	vec4i = ir.VectorType{Size: ir.Vec4, Scalar: ir.I32}
	vec4u = ir.VectorType{Size: ir.Vec4, Scalar: ir.U32}
)

var builtinRules = func() map[string]builtinRule {
	rules := make(map[string]builtinRule)
	add := func(rule builtinRule, names ...string) {
		for _, n := range names {
			rules[n] = rule
		}
	}

	add(builtinRule{args: 1, result: sameAsFirst},
		"abs", "acos", "acosh", "asin", "asinh", "atan", "atanh", "ceil", "cos", "cosh",
		"degrees", "exp", "exp2", "floor", "fract", "inverseSqrt", "log", "log2",
		"normalize", "quantizeToF16", "radians", "round", "saturate", "sign", "sin",
		"sinh", "sqrt", "tan", "tanh", "trunc",
		"countLeadingZeros", "countOneBits", "countTrailingZeros", "firstLeadingBit",
		"firstTrailingBit", "reverseBits",
		"dpdx", "dpdxCoarse", "dpdxFine", "dpdy", "dpdyCoarse", "dpdyFine",
		"fwidth", "fwidthCoarse", "fwidthFine")
	add(builtinRule{args: 2, unify: true, result: sameAsFirst},
		"atan2", "max", "min", "pow", "reflect", "step", "cross")
	add(builtinRule{args: 3, unify: true, result: sameAsFirst},
		"clamp", "fma", "mix", "smoothstep", "faceForward", "select")
	add(builtinRule{args: 3, unify: true, result: sameAsFirst}, "refract")
	add(builtinRule{args: 1, result: scalarOfFirst}, "length", "determinant")
	add(builtinRule{args: 2, unify: true, result: scalarOfFirst}, "distance", "dot")
	add(builtinRule{args: 1, result: fixed(ir.Bool)}, "all", "any")
	add(builtinRule{args: 1, result: transpose}, "transpose")
	add(builtinRule{args: 2, result: sameAsFirst}, "ldexp")
	add(builtinRule{args: 3, result: sameAsFirst}, "extractBits")
	add(builtinRule{args: 4, unify: true, result: sameAsFirst}, "insertBits")
	add(builtinRule{args: 2, result: fixed(ir.U32)}, "dot4U8Packed")
	add(builtinRule{args: 2, result: fixed(ir.I32)}, "dot4I8Packed")

	add(builtinRule{args: 1, result: fixed(ir.U32)},
		"pack4x8snorm", "pack4x8unorm", "pack2x16snorm", "pack2x16unorm", "pack2x16float",
		"pack4xI8", "pack4xU8", "pack4xI8Clamp", "pack4xU8Clamp")
	add(builtinRule{args: 1, result: fixed(vec4f)}, "unpack4x8snorm", "unpack4x8unorm")
	add(builtinRule{args: 1, result: fixed(vec2f)}, "unpack2x16snorm", "unpack2x16unorm", "unpack2x16float")
	add(builtinRule{args: 1, result: fixed(vec4i)}, "unpack4xI8")
	add(builtinRule{args: 1, result: fixed(vec4u)}, "unpack4xU8")

	add(builtinRule{args: 1, result: fixed(ir.U32)}, "arrayLength")

	add(builtinRule{args: -1, result: texel},
		"textureSample", "textureSampleBias", "textureSampleGrad", "textureSampleLevel", "textureLoad")
	add(builtinRule{args: -1, result: fixed(vec4f)}, "textureSampleBaseClampToEdge")
	add(builtinRule{args: -1, result: fixed(ir.F32)}, "textureSampleCompare", "textureSampleCompareLevel")
	add(builtinRule{args: -1, result: gather}, "textureGather")
	add(builtinRule{args: -1, result: fixed(vec4f)}, "textureGatherCompare")
	add(builtinRule{args: -1, result: dimensions}, "textureDimensions")
	add(builtinRule{args: 1, result: fixed(ir.U32)}, "textureNumLayers", "textureNumLevels", "textureNumSamples")
	add(builtinRule{args: -1, result: void}, "textureStore")

	add(builtinRule{args: 1, result: atomicScalar}, "atomicLoad")
	add(builtinRule{args: 2, atomic: true, result: void}, "atomicStore")
	add(builtinRule{args: 2, atomic: true, result: atomicScalar},
		"atomicAdd", "atomicSub", "atomicMax", "atomicMin", "atomicAnd", "atomicOr",
		"atomicXor", "atomicExchange")

	add(builtinRule{args: 0, result: void}, "storageBarrier", "workgroupBarrier", "textureBarrier")
	add(builtinRule{args: 1, result: pointee}, "workgroupUniformLoad")
	return rules
}()

// builtinCall lowers a call to a predeclared function.
func (fl *funcLowerer) builtinCall(e *wgsl.CallExpr) (operand, error) {
	name := e.Func.Name
	rule, ok := builtinRules[name]
	if !ok {
		return operand{}, errorf(diag.CodeNotImplemented, e, "builtin function '%s' is not yet implemented", name)
	}
	if rule.args >= 0 && len(e.Args) != rule.args {
		return operand{}, errorf(diag.CodeInvalidOperand, e, "'%s' expects %d arguments, got %d", name, rule.args, len(e.Args))
	}

	args, err := fl.arguments(e.Args)
	if err != nil {
		return operand{}, err
	}
	if err := prepareArguments(rule, name, args); err != nil {
		return operand{}, operandError(e, err)
	}

	types := make([]ir.Type, len(args))
	for i, a := range args {
		types[i] = a.Type()
	}
	t, err := rule.result(types)
	if err != nil {
		return operand{}, operandError(e, fmt.Errorf("%s: %w", name, err))
	}

	c := emit(fl, ir.NewBuiltinCall(name, t, args...))
	if c.Result() == nil {
		return operand{}, nil
	}
	return valueOperand(c.Result()), nil
}

// prepareArguments materializes abstract arguments in place.
func prepareArguments(rule builtinRule, name string, args []ir.Value) error {
	var err error
	switch {
	case rule.atomic:
		scalar, aerr := atomicScalar([]ir.Type{args[0].Type()})
		if aerr != nil {
			return aerr
		}
		for i := 1; i < len(args); i++ {
			if args[i], err = materialize(args[i], scalar); err != nil {
				return err
			}
		}
		return nil

	case rule.unify:
		// select's condition is not unified with the values.
		n := len(args)
		if name == "select" {
			n = 2
		}
		var concrete *ir.ScalarType
		for _, a := range args[:n] {
			if s, ok := ir.ScalarOf(a.Type()); ok && !s.Kind.IsAbstract() {
				concrete = &s
				break
			}
		}
		if concrete == nil {
			for _, a := range args[:n] {
				if s, ok := ir.ScalarOf(a.Type()); ok && s.Kind == ir.ScalarAbstractFloat {
					f := ir.F32
					concrete = &f
					break
				}
			}
		}
		if concrete != nil {
			for i, a := range args[:n] {
				if ir.IsAbstract(a.Type()) {
					if args[i], err = materialize(a, ir.WithScalar(a.Type(), *concrete)); err != nil {
						return err
					}
				}
			}
		}
	}

	for i, a := range args {
		if args[i], err = concretize(a); err != nil {
			return err
		}
	}
	return nil
}
