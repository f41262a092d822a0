package lower

import (
	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/ir"
	"github.com/gogpu/wgslfront/wgsl"
)

var scalarTypes = map[string]ir.ScalarType{
	"bool": ir.Bool,
	"i32":  ir.I32,
	"u32":  ir.U32,
	"f32":  ir.F32,
	"f16":  ir.F16,
}

var vectorSizes = map[string]ir.VectorSize{
	"vec2": ir.Vec2,
	"vec3": ir.Vec3,
	"vec4": ir.Vec4,
}

var matrixSizes = map[string][2]ir.VectorSize{
	"mat2x2": {ir.Vec2, ir.Vec2}, "mat2x3": {ir.Vec2, ir.Vec3}, "mat2x4": {ir.Vec2, ir.Vec4},
	"mat3x2": {ir.Vec3, ir.Vec2}, "mat3x3": {ir.Vec3, ir.Vec3}, "mat3x4": {ir.Vec3, ir.Vec4},
	"mat4x2": {ir.Vec4, ir.Vec2}, "mat4x3": {ir.Vec4, ir.Vec3}, "mat4x4": {ir.Vec4, ir.Vec4},
}

// sampledTextures maps texture type generators to their dimension and
// arrayness.
var sampledTextures = map[string]ir.ImageType{
	"texture_1d":              {Dim: ir.Dim1D},
	"texture_2d":              {Dim: ir.Dim2D},
	"texture_2d_array":        {Dim: ir.Dim2D, Arrayed: true},
	"texture_3d":              {Dim: ir.Dim3D},
	"texture_cube":            {Dim: ir.DimCube},
	"texture_cube_array":      {Dim: ir.DimCube, Arrayed: true},
	"texture_multisampled_2d": {Dim: ir.Dim2D, Multisampled: true},
}

var storageTextures = map[string]ir.ImageType{
	"texture_storage_1d":       {Dim: ir.Dim1D, Class: ir.ImageClassStorage},
	"texture_storage_2d":       {Dim: ir.Dim2D, Class: ir.ImageClassStorage},
	"texture_storage_2d_array": {Dim: ir.Dim2D, Arrayed: true, Class: ir.ImageClassStorage},
	"texture_storage_3d":       {Dim: ir.Dim3D, Class: ir.ImageClassStorage},
}

// plainTypes are predeclared types that take no template list.
var plainTypes = map[string]ir.Type{
	"sampler":                       ir.SamplerType{},
	"sampler_comparison":            ir.SamplerType{Comparison: true},
	"texture_depth_2d":              ir.ImageType{Dim: ir.Dim2D, Class: ir.ImageClassDepth},
	"texture_depth_2d_array":        ir.ImageType{Dim: ir.Dim2D, Arrayed: true, Class: ir.ImageClassDepth},
	"texture_depth_cube":            ir.ImageType{Dim: ir.DimCube, Class: ir.ImageClassDepth},
	"texture_depth_cube_array":      ir.ImageType{Dim: ir.DimCube, Arrayed: true, Class: ir.ImageClassDepth},
	"texture_depth_multisampled_2d": ir.ImageType{Dim: ir.Dim2D, Multisampled: true, Class: ir.ImageClassDepth},
	"texture_external":              ir.ImageType{Dim: ir.Dim2D, Class: ir.ImageClassExternal},
}

// resolveType converts an AST type to an ir type. User declarations in
// scope take precedence over predeclared names.
func (fl *funcLowerer) resolveType(t wgsl.Type) (ir.Type, error) {
	switch t := t.(type) {
	case *wgsl.NamedType:
		return fl.resolveNamedType(t)

	case *wgsl.ArrayType:
		elem, err := fl.resolveType(t.Element)
		if err != nil {
			return nil, err
		}
		arr := ir.ArrayType{Base: elem}
		if t.Size != nil {
			n, err := fl.constUint(t.Size)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				return nil, errorf(diag.CodeInvalidOperand, t.Size, "array size must be greater than zero")
			}
			arr.Size = n
		}
		return arr, nil

	case *wgsl.PtrType:
		space, ok := ir.ParseAddressSpace(t.AddressSpace)
		if !ok {
			return nil, errorf(diag.CodeInvalidOperand, t, "unknown address space '%s'", t.AddressSpace)
		}
		pointee, err := fl.resolveType(t.PointeeType)
		if err != nil {
			return nil, err
		}
		access := ir.AccessReadWrite
		if space == ir.SpaceStorage || space == ir.SpaceUniform {
			access = ir.AccessRead
		}
		if t.AccessMode != "" {
			if access, ok = ir.ParseAccessMode(t.AccessMode); !ok {
				return nil, errorf(diag.CodeInvalidOperand, t, "unknown access mode '%s'", t.AccessMode)
			}
		}
		return ir.PointerType{Base: pointee, Space: space, Access: access}, nil
	}
	return nil, internalf(t, "unhandled type node: %T", t)
}

func (fl *funcLowerer) resolveNamedType(t *wgsl.NamedType) (ir.Type, error) {
	b, ok, err := fl.lookup(t, t.Name)
	if err != nil {
		return nil, err
	}
	if ok {
		if b.kind != bindType {
			return nil, errorf(diag.CodeInvalidOperand, t, "'%s' is not a type", t.Name)
		}
		if len(t.TypeParams) > 0 {
			return nil, errorf(diag.CodeInvalidOperand, t, "type '%s' does not take template arguments", t.Name)
		}
		return b.typ, nil
	}

	if generator, elem, ok := wgsl.ExpandShorthandType(t.Name); ok {
		return predeclaredType(t, generator, []ir.Type{scalarTypes[elem]})
	}

	params := make([]ir.Type, 0, len(t.TypeParams))
	for _, p := range t.TypeParams {
		// Texel formats and access modes are not types.
		if n, ok := p.(*wgsl.NamedType); ok && wgsl.IsBuiltinEnumerant(n.Name) {
			params = append(params, nil)
			continue
		}
		pt, err := fl.resolveType(p)
		if err != nil {
			return nil, err
		}
		params = append(params, pt)
	}
	return predeclaredType(t, t.Name, params)
}

// predeclaredType builds a predeclared type from its generator name and
// resolved template parameters. Enumerant parameters are nil.
func predeclaredType(t *wgsl.NamedType, name string, params []ir.Type) (ir.Type, error) {
	if s, ok := scalarTypes[name]; ok && len(params) == 0 {
		return s, nil
	}
	if pt, ok := plainTypes[name]; ok && len(params) == 0 {
		return pt, nil
	}

	scalarParam := func() (ir.ScalarType, error) {
		if len(params) != 1 {
			return ir.ScalarType{}, errorf(diag.CodeInvalidOperand, t, "'%s' requires one template argument", name)
		}
		s, ok := params[0].(ir.ScalarType)
		if !ok {
			return ir.ScalarType{}, errorf(diag.CodeInvalidOperand, t, "'%s' requires a scalar template argument", name)
		}
		return s, nil
	}

	if size, ok := vectorSizes[name]; ok {
		s, err := scalarParam()
		if err != nil {
			return nil, err
		}
		return ir.VectorType{Size: size, Scalar: s}, nil
	}
	if dims, ok := matrixSizes[name]; ok {
		s, err := scalarParam()
		if err != nil {
			return nil, err
		}
		if !s.Kind.IsFloat() {
			return nil, errorf(diag.CodeInvalidOperand, t, "matrix element type must be a float, got %s", s)
		}
		return ir.MatrixType{Columns: dims[0], Rows: dims[1], Scalar: s}, nil
	}
	if name == "atomic" {
		s, err := scalarParam()
		if err != nil {
			return nil, err
		}
		if s != ir.I32 && s != ir.U32 {
			return nil, errorf(diag.CodeInvalidOperand, t, "atomic element type must be i32 or u32, got %s", s)
		}
		return ir.AtomicType{Scalar: s}, nil
	}
	if img, ok := sampledTextures[name]; ok {
		s, err := scalarParam()
		if err != nil {
			return nil, err
		}
		img.SampledKind = s.Kind
		return img, nil
	}
	if img, ok := storageTextures[name]; ok {
		if len(t.TypeParams) != 2 {
			return nil, errorf(diag.CodeInvalidOperand, t, "'%s' requires a texel format and an access mode", name)
		}
		img.Format = enumerantName(t.TypeParams[0])
		access, ok := ir.ParseAccessMode(enumerantName(t.TypeParams[1]))
		if !ok || img.Format == "" {
			return nil, errorf(diag.CodeInvalidOperand, t, "invalid texel format or access mode for '%s'", name)
		}
		img.Access = access
		return img, nil
	}
	return nil, errorf(diag.CodeInvalidOperand, t, "unknown type: '%s'", name)
}

func enumerantName(t wgsl.Type) string {
	if n, ok := t.(*wgsl.NamedType); ok && len(n.TypeParams) == 0 {
		return n.Name
	}
	return ""
}
