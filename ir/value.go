package ir

import (
	"math"
)

// Value is an operand of an instruction.
type Value interface {
	Type() Type
	value()
}

// Constant is a compile-time value.
type Constant struct {
	Value ConstantValue
	typ   Type
}

func (*Constant) value() {}

// Type returns the type of the constant.
func (c *Constant) Type() Type { return c.typ }

// ConstantValue represents constant values.
type ConstantValue interface {
	constantValue()
}

// ScalarValue represents a scalar constant. Integers are stored as their
// 64-bit two's complement bits and floats as float64 bits, regardless of
// the width of the constant's type.
type ScalarValue struct {
	Bits uint64 // Bit representation
	Kind ScalarKind
}

func (ScalarValue) constantValue() {}

// CompositeValue represents a vector, matrix, array or struct constant.
type CompositeValue struct {
	Components []*Constant
}

func (CompositeValue) constantValue() {}

// NewConstant returns a constant of type t.
func NewConstant(v ConstantValue, t Type) *Constant {
	return &Constant{Value: v, typ: t}
}

// BoolConst returns a bool constant.
func BoolConst(v bool) *Constant {
	var bits uint64
	if v {
		bits = 1
	}
	return NewConstant(ScalarValue{Bits: bits, Kind: ScalarBool}, Bool)
}

// IntConst returns an integer constant of the signed, unsigned or abstract
// integer type t.
func IntConst(t ScalarType, v int64) *Constant {
	return NewConstant(ScalarValue{Bits: uint64(v), Kind: t.Kind}, t)
}

// FloatConst returns a float constant of the float or abstract float type t.
func FloatConst(t ScalarType, v float64) *Constant {
	return NewConstant(ScalarValue{Bits: math.Float64bits(v), Kind: t.Kind}, t)
}

// I32Const returns an i32 constant.
func I32Const(v int32) *Constant { return IntConst(I32, int64(v)) }

// U32Const returns a u32 constant.
func U32Const(v uint32) *Constant { return IntConst(U32, int64(v)) }

// F32Const returns an f32 constant.
func F32Const(v float32) *Constant { return FloatConst(F32, float64(v)) }

// CompositeConst returns a composite constant of type t.
func CompositeConst(t Type, components ...*Constant) *Constant {
	return NewConstant(CompositeValue{Components: components}, t)
}

// Scalar returns the scalar value of c.
func (c *Constant) Scalar() (ScalarValue, bool) {
	s, ok := c.Value.(ScalarValue)
	return s, ok
}

// Bool returns the value of a bool constant.
func (c *Constant) Bool() bool {
	s, _ := c.Scalar()
	return s.Bits != 0
}

// Int returns the value of an integer constant, or a float constant
// truncated towards zero.
func (c *Constant) Int() int64 {
	s, _ := c.Scalar()
	if s.Kind.IsFloat() {
		return int64(math.Float64frombits(s.Bits))
	}
	return int64(s.Bits)
}

// Float returns the value of a numeric constant as a float64.
func (c *Constant) Float() float64 {
	s, _ := c.Scalar()
	switch s.Kind {
	case ScalarFloat, ScalarAbstractFloat:
		return math.Float64frombits(s.Bits)
	case ScalarUint:
		return float64(s.Bits)
	case ScalarBool:
		if s.Bits != 0 {
			return 1
		}
		return 0
	}
	return float64(int64(s.Bits))
}

// Index returns the i'th component of a composite constant. A scalar
// splat returns the same constant for every index.
func (c *Constant) Index(i int) (*Constant, bool) {
	comp, ok := c.Value.(CompositeValue)
	if !ok || i < 0 {
		return nil, false
	}
	if len(comp.Components) == 1 {
		if _, isVec := c.typ.(VectorType); isVec {
			return comp.Components[0], true
		}
	}
	if i >= len(comp.Components) {
		return nil, false
	}
	return comp.Components[i], true
}

// InstructionResult is the value produced by an instruction.
type InstructionResult struct {
	Name   string // optional debug name
	Source Instruction
	typ    Type
}

func (*InstructionResult) value() {}

// Type returns the type of the result.
func (r *InstructionResult) Type() Type { return r.typ }

// FunctionParam is a parameter of a function.
type FunctionParam struct {
	Name    string
	Binding Binding
	typ     Type
}

func (*FunctionParam) value() {}

// Type returns the type of the parameter.
func (p *FunctionParam) Type() Type { return p.typ }

// NewFunctionParam returns a function parameter of type t.
func NewFunctionParam(name string, t Type) *FunctionParam {
	return &FunctionParam{Name: name, typ: t}
}

// BlockParam is a parameter of a merge block. Exits that target the merge
// pass one argument per parameter.
type BlockParam struct {
	Name  string
	Block *Block
	typ   Type
}

func (*BlockParam) value() {}

// Type returns the type of the parameter.
func (p *BlockParam) Type() Type { return p.typ }

// NewBlockParam returns a block parameter of type t.
func NewBlockParam(t Type) *BlockParam {
	return &BlockParam{typ: t}
}

// Undef is a value of unspecified contents, passed on paths whose result
// is never observed.
type Undef struct {
	typ Type
}

func (*Undef) value() {}

// Type returns the type of the undefined value.
func (u *Undef) Type() Type { return u.typ }

// NewUndef returns an undefined value of type t.
func NewUndef(t Type) *Undef { return &Undef{typ: t} }
