package ir

// Instruction is a single IR instruction. The set of instructions is
// closed; type switches over Instruction are exhaustive.
type Instruction interface {
	// Block returns the block the instruction is in, or nil.
	Block() *Block
	// Result returns the value produced, or nil.
	Result() *InstructionResult
	// Operands returns the values the instruction reads.
	Operands() []Value

	setBlock(*Block)
}

type instruction struct {
	block  *Block
	result *InstructionResult
}

func (i *instruction) Block() *Block              { return i.block }
func (i *instruction) Result() *InstructionResult { return i.result }
func (i *instruction) setBlock(b *Block)          { i.block = b }

func (i *instruction) setResult(self Instruction, t Type) {
	i.result = &InstructionResult{Source: self, typ: t}
}

// Var declares a variable. The result is a pointer to the variable.
type Var struct {
	instruction
	Name         string
	Init         Value // nil for zero-initialized variables
	BindingPoint *ResourceBinding
}

// NewVar returns a variable declaration with pointer type t.
func NewVar(name string, t PointerType, init Value) *Var {
	v := &Var{Name: name, Init: init}
	v.setResult(v, t)
	v.result.Name = name
	return v
}

func (v *Var) Operands() []Value { return optional(v.Init) }

// Let binds an immutable name to a value.
type Let struct {
	instruction
	Name  string
	Value Value
}

// NewLet returns a let binding of value.
func NewLet(name string, value Value) *Let {
	l := &Let{Name: name, Value: value}
	l.setResult(l, value.Type())
	l.result.Name = name
	return l
}

func (l *Let) Operands() []Value { return []Value{l.Value} }

// Load reads the value a pointer points to.
type Load struct {
	instruction
	From Value
}

// NewLoad returns a load through ptr. ptr must have a pointer type.
func NewLoad(ptr Value) *Load {
	l := &Load{From: ptr}
	base, _ := PointeeOf(ptr.Type())
	l.setResult(l, base)
	return l
}

func (l *Load) Operands() []Value { return []Value{l.From} }

// Store writes a value through a pointer.
type Store struct {
	instruction
	To    Value
	Value Value
}

// NewStore returns a store of value through ptr.
func NewStore(ptr, value Value) *Store {
	return &Store{To: ptr, Value: value}
}

func (s *Store) Operands() []Value { return []Value{s.To, s.Value} }

// Access indexes into a composite value or through a pointer to one. All
// indices of a chain of member and index accesses are coalesced into one
// instruction.
type Access struct {
	instruction
	Object  Value
	Indices []Value
}

// NewAccess returns an access with result type t.
func NewAccess(t Type, object Value, indices ...Value) *Access {
	a := &Access{Object: object, Indices: indices}
	a.setResult(a, t)
	return a
}

func (a *Access) Operands() []Value {
	return append([]Value{a.Object}, a.Indices...)
}

// Swizzle selects and reorders vector components.
type Swizzle struct {
	instruction
	Object  Value
	Indices []uint32
}

// NewSwizzle returns a swizzle with result type t.
func NewSwizzle(t Type, object Value, indices ...uint32) *Swizzle {
	s := &Swizzle{Object: object, Indices: indices}
	s.setResult(s, t)
	return s
}

func (s *Swizzle) Operands() []Value { return []Value{s.Object} }

// Binary applies a binary operator. Logical && and || never appear here;
// they are lowered to control flow.
type Binary struct {
	instruction
	Op    BinaryOperator
	Left  Value
	Right Value
}

// NewBinary returns a binary operation with result type t.
func NewBinary(op BinaryOperator, t Type, left, right Value) *Binary {
	b := &Binary{Op: op, Left: left, Right: right}
	b.setResult(b, t)
	return b
}

func (b *Binary) Operands() []Value { return []Value{b.Left, b.Right} }

// Unary applies a unary operator.
type Unary struct {
	instruction
	Op      UnaryOperator
	Operand Value
}

// NewUnary returns a unary operation with result type t.
func NewUnary(op UnaryOperator, t Type, operand Value) *Unary {
	u := &Unary{Op: op, Operand: operand}
	u.setResult(u, t)
	return u
}

func (u *Unary) Operands() []Value { return []Value{u.Operand} }

// Call calls a user-declared function.
type Call struct {
	instruction
	Func *Function
	Args []Value
}

// NewCall returns a call of fn. Calls of functions without a return type
// have no result.
func NewCall(fn *Function, args ...Value) *Call {
	c := &Call{Func: fn, Args: args}
	if fn.ReturnType != nil {
		c.setResult(c, fn.ReturnType)
	}
	return c
}

func (c *Call) Operands() []Value { return c.Args }

// BuiltinCall calls a predeclared function.
type BuiltinCall struct {
	instruction
	Func string
	Args []Value
}

// NewBuiltinCall returns a call of the builtin fn with result type t. A
// nil or void t produces no result.
func NewBuiltinCall(fn string, t Type, args ...Value) *BuiltinCall {
	c := &BuiltinCall{Func: fn, Args: args}
	if t != nil && t != (VoidType{}) {
		c.setResult(c, t)
	}
	return c
}

func (c *BuiltinCall) Operands() []Value { return c.Args }

// Construct builds a composite value from its components, or a zero value
// when there are none.
type Construct struct {
	instruction
	Args []Value
}

// NewConstruct returns a constructor of type t.
func NewConstruct(t Type, args ...Value) *Construct {
	c := &Construct{Args: args}
	c.setResult(c, t)
	return c
}

func (c *Construct) Operands() []Value { return c.Args }

// Convert converts a value to a different scalar type, component-wise.
type Convert struct {
	instruction
	Value Value
}

// NewConvert returns a conversion of value to t.
func NewConvert(t Type, value Value) *Convert {
	c := &Convert{Value: value}
	c.setResult(c, t)
	return c
}

func (c *Convert) Operands() []Value { return []Value{c.Value} }

// Bitcast reinterprets the bits of a value as type t.
type Bitcast struct {
	instruction
	Value Value
}

// NewBitcast returns a bitcast of value to t.
func NewBitcast(t Type, value Value) *Bitcast {
	b := &Bitcast{Value: value}
	b.setResult(b, t)
	return b
}

func (b *Bitcast) Operands() []Value { return []Value{b.Value} }

// Discard demotes the fragment invocation to a helper invocation.
type Discard struct {
	instruction
}

// NewDiscard returns a discard instruction.
func NewDiscard() *Discard { return &Discard{} }

func (d *Discard) Operands() []Value { return nil }

// UnaryOperator represents unary operations.
type UnaryOperator uint8

const (
	UnaryNegate     UnaryOperator = iota // Arithmetic negation
	UnaryLogicalNot                      // Logical not (!)
	UnaryBitwiseNot                      // Bitwise not (~)
)

func (op UnaryOperator) String() string {
	switch op {
	case UnaryNegate:
		return "negation"
	case UnaryLogicalNot:
		return "not"
	}
	return "complement"
}

// BinaryOperator represents binary operations.
type BinaryOperator uint8

const (
	// Arithmetic
	BinaryAdd      BinaryOperator = iota // Addition
	BinarySubtract                       // Subtraction
	BinaryMultiply                       // Multiplication
	BinaryDivide                         // Division
	BinaryModulo                         // Modulo (remainder)

	// Comparison
	BinaryEqual        // Equal (==)
	BinaryNotEqual     // Not equal (!=)
	BinaryLess         // Less than (<)
	BinaryLessEqual    // Less than or equal (<=)
	BinaryGreater      // Greater than (>)
	BinaryGreaterEqual // Greater than or equal (>=)

	// Bitwise, and non-short-circuit logical on bool
	BinaryAnd         // Bitwise AND
	BinaryExclusiveOr // Bitwise XOR
	BinaryInclusiveOr // Bitwise OR

	// Shift
	BinaryShiftLeft  // Left shift (<<)
	BinaryShiftRight // Right shift (>>) - arithmetic for signed, logical for unsigned
)

var binaryOperatorNames = [...]string{
	BinaryAdd:          "add",
	BinarySubtract:     "sub",
	BinaryMultiply:     "mul",
	BinaryDivide:       "div",
	BinaryModulo:       "mod",
	BinaryEqual:        "eq",
	BinaryNotEqual:     "neq",
	BinaryLess:         "lt",
	BinaryLessEqual:    "lte",
	BinaryGreater:      "gt",
	BinaryGreaterEqual: "gte",
	BinaryAnd:          "and",
	BinaryExclusiveOr:  "xor",
	BinaryInclusiveOr:  "or",
	BinaryShiftLeft:    "shiftl",
	BinaryShiftRight:   "shiftr",
}

func (op BinaryOperator) String() string {
	if int(op) < len(binaryOperatorNames) {
		return binaryOperatorNames[op]
	}
	return "binary?"
}

// IsComparison reports whether op yields a bool.
func (op BinaryOperator) IsComparison() bool {
	return op >= BinaryEqual && op <= BinaryGreaterEqual
}

func optional(v Value) []Value {
	if v == nil {
		return nil
	}
	return []Value{v}
}
