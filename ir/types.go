package ir

import (
	"fmt"
	"strings"
)

// Type is an IR type. Implementations are comparable.
type Type interface {
	fmt.Stringer
	typeInner()
}

// ScalarType represents scalar types.
type ScalarType struct {
	Kind  ScalarKind
	Width uint8 // in bytes
}

func (ScalarType) typeInner() {}

func (t ScalarType) String() string {
	switch t.Kind {
	case ScalarBool:
		return "bool"
	case ScalarAbstractInt:
		return "abstract-int"
	case ScalarAbstractFloat:
		return "abstract-float"
	case ScalarSint:
		return fmt.Sprintf("i%d", t.Width*8)
	case ScalarUint:
		return fmt.Sprintf("u%d", t.Width*8)
	case ScalarFloat:
		return fmt.Sprintf("f%d", t.Width*8)
	}
	return fmt.Sprintf("scalar(%d,%d)", t.Kind, t.Width)
}

// ScalarKind represents scalar type kinds.
type ScalarKind uint8

const (
	ScalarSint  ScalarKind = iota // Signed integer
	ScalarUint                    // Unsigned integer
	ScalarFloat                   // Floating point
	ScalarBool                    // Boolean

	// Abstract kinds type literals before they are materialized. They never
	// appear as operand types of emitted instructions.
	ScalarAbstractInt
	ScalarAbstractFloat
)

// IsAbstract reports whether the kind is an abstract numeric kind.
func (k ScalarKind) IsAbstract() bool {
	return k == ScalarAbstractInt || k == ScalarAbstractFloat
}

// IsInteger reports whether the kind is a signed, unsigned or abstract
// integer.
func (k ScalarKind) IsInteger() bool {
	return k == ScalarSint || k == ScalarUint || k == ScalarAbstractInt
}

// IsFloat reports whether the kind is a concrete or abstract float.
func (k ScalarKind) IsFloat() bool {
	return k == ScalarFloat || k == ScalarAbstractFloat
}

// Commonly used scalar types.
var (
	Bool          = ScalarType{Kind: ScalarBool, Width: 1}
	I32           = ScalarType{Kind: ScalarSint, Width: 4}
	U32           = ScalarType{Kind: ScalarUint, Width: 4}
	F32           = ScalarType{Kind: ScalarFloat, Width: 4}
	F16           = ScalarType{Kind: ScalarFloat, Width: 2}
	AbstractInt   = ScalarType{Kind: ScalarAbstractInt, Width: 8}
	AbstractFloat = ScalarType{Kind: ScalarAbstractFloat, Width: 8}
)

// VectorType represents vector types.
type VectorType struct {
	Size   VectorSize
	Scalar ScalarType
}

func (VectorType) typeInner() {}

func (t VectorType) String() string {
	return fmt.Sprintf("vec%d<%s>", t.Size, t.Scalar)
}

// VectorSize represents vector sizes.
type VectorSize uint8

const (
	Vec2 VectorSize = 2
	Vec3 VectorSize = 3
	Vec4 VectorSize = 4
)

// MatrixType represents matrix types.
type MatrixType struct {
	Columns VectorSize
	Rows    VectorSize
	Scalar  ScalarType
}

func (MatrixType) typeInner() {}

func (t MatrixType) String() string {
	return fmt.Sprintf("mat%dx%d<%s>", t.Columns, t.Rows, t.Scalar)
}

// ColumnType returns the vector type of one matrix column.
func (t MatrixType) ColumnType() VectorType {
	return VectorType{Size: t.Rows, Scalar: t.Scalar}
}

// ArrayType represents array types.
type ArrayType struct {
	Base Type
	Size uint32 // 0 for runtime-sized arrays
}

func (ArrayType) typeInner() {}

func (t ArrayType) String() string {
	if t.Size == 0 {
		return fmt.Sprintf("array<%s>", t.Base)
	}
	return fmt.Sprintf("array<%s, %d>", t.Base, t.Size)
}

// StructType represents struct types. Struct types compare by identity.
type StructType struct {
	Name    string
	Members []StructMember
}

func (*StructType) typeInner() {}

func (t *StructType) String() string { return t.Name }

// Member returns the index of the member called name.
func (t *StructType) Member(name string) (int, bool) {
	for i, m := range t.Members {
		if m.Name == name {
			return i, true
		}
	}
	return 0, false
}

// StructMember represents a struct member.
type StructMember struct {
	Name    string
	Type    Type
	Binding Binding // @builtin(position), @location(0), etc.
}

// PointerType represents pointer and reference types.
type PointerType struct {
	Base   Type
	Space  AddressSpace
	Access AccessMode
}

func (PointerType) typeInner() {}

func (t PointerType) String() string {
	return fmt.Sprintf("ptr<%s, %s, %s>", t.Space, t.Base, t.Access)
}

// AtomicType represents atomic types for thread-safe operations.
type AtomicType struct {
	Scalar ScalarType
}

func (AtomicType) typeInner() {}

func (t AtomicType) String() string { return fmt.Sprintf("atomic<%s>", t.Scalar) }

// AddressSpace represents memory address spaces.
type AddressSpace uint8

const (
	SpaceFunction AddressSpace = iota
	SpacePrivate
	SpaceWorkGroup
	SpaceUniform
	SpaceStorage
	SpacePushConstant
	SpaceHandle
)

var addressSpaceNames = [...]string{
	SpaceFunction:     "function",
	SpacePrivate:      "private",
	SpaceWorkGroup:    "workgroup",
	SpaceUniform:      "uniform",
	SpaceStorage:      "storage",
	SpacePushConstant: "push_constant",
	SpaceHandle:       "handle",
}

func (s AddressSpace) String() string {
	if int(s) < len(addressSpaceNames) {
		return addressSpaceNames[s]
	}
	return fmt.Sprintf("AddressSpace(%d)", s)
}

// ParseAddressSpace maps a WGSL address space name to an AddressSpace.
func ParseAddressSpace(name string) (AddressSpace, bool) {
	for i, n := range addressSpaceNames {
		if n == name {
			return AddressSpace(i), true
		}
	}
	return 0, false
}

// AccessMode represents pointer access modes.
type AccessMode uint8

const (
	AccessReadWrite AccessMode = iota
	AccessRead
	AccessWrite
)

func (a AccessMode) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	}
	return "read_write"
}

// ParseAccessMode maps a WGSL access mode name to an AccessMode.
func ParseAccessMode(name string) (AccessMode, bool) {
	switch name {
	case "read":
		return AccessRead, true
	case "write":
		return AccessWrite, true
	case "read_write":
		return AccessReadWrite, true
	}
	return 0, false
}

// SamplerType represents sampler types.
type SamplerType struct {
	Comparison bool
}

func (SamplerType) typeInner() {}

func (t SamplerType) String() string {
	if t.Comparison {
		return "sampler_comparison"
	}
	return "sampler"
}

// ImageType represents image/texture types.
type ImageType struct {
	Dim          ImageDimension
	Arrayed      bool
	Class        ImageClass
	Multisampled bool
	SampledKind  ScalarKind // sampled images
	Format       string     // storage images, e.g. "rgba8unorm"
	Access       AccessMode // storage images
}

func (ImageType) typeInner() {}

func (t ImageType) String() string {
	var sb strings.Builder
	sb.WriteString("texture_")
	switch t.Class {
	case ImageClassDepth:
		sb.WriteString("depth_")
	case ImageClassStorage:
		sb.WriteString("storage_")
	case ImageClassExternal:
		return "texture_external"
	}
	if t.Multisampled {
		sb.WriteString("multisampled_")
	}
	sb.WriteString(t.Dim.String())
	if t.Arrayed {
		sb.WriteString("_array")
	}
	switch t.Class {
	case ImageClassSampled:
		fmt.Fprintf(&sb, "<%s>", ScalarType{Kind: t.SampledKind, Width: 4})
	case ImageClassStorage:
		fmt.Fprintf(&sb, "<%s, %s>", t.Format, t.Access)
	}
	return sb.String()
}

// ImageDimension represents image dimensions.
type ImageDimension uint8

const (
	Dim1D ImageDimension = iota
	Dim2D
	Dim3D
	DimCube
)

func (d ImageDimension) String() string {
	switch d {
	case Dim1D:
		return "1d"
	case Dim2D:
		return "2d"
	case Dim3D:
		return "3d"
	}
	return "cube"
}

// ImageClass represents image classification.
type ImageClass uint8

const (
	ImageClassSampled ImageClass = iota
	ImageClassDepth
	ImageClassStorage
	ImageClassExternal
)

// VoidType is the result type of functions and calls without a value.
type VoidType struct{}

func (VoidType) typeInner() {}

func (VoidType) String() string { return "void" }

// ScalarOf returns the scalar type of a scalar, vector, matrix or atomic.
func ScalarOf(t Type) (ScalarType, bool) {
	switch t := t.(type) {
	case ScalarType:
		return t, true
	case VectorType:
		return t.Scalar, true
	case MatrixType:
		return t.Scalar, true
	case AtomicType:
		return t.Scalar, true
	}
	return ScalarType{}, false
}

// WithScalar returns t with its scalar type replaced by s. Types without a
// scalar component are returned unchanged.
func WithScalar(t Type, s ScalarType) Type {
	switch t := t.(type) {
	case ScalarType:
		return s
	case VectorType:
		return VectorType{Size: t.Size, Scalar: s}
	case MatrixType:
		return MatrixType{Columns: t.Columns, Rows: t.Rows, Scalar: s}
	}
	return t
}

// IsAbstract reports whether t is built from an abstract scalar.
func IsAbstract(t Type) bool {
	switch t := t.(type) {
	case ArrayType:
		return IsAbstract(t.Base)
	}
	s, ok := ScalarOf(t)
	return ok && s.Kind.IsAbstract()
}

// PointeeOf returns the store type of a pointer.
func PointeeOf(t Type) (Type, bool) {
	if p, ok := t.(PointerType); ok {
		return p.Base, true
	}
	return nil, false
}
