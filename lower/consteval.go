package lower

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/ir"
	"github.com/gogpu/wgslfront/wgsl"
)

// constant evaluates e as a constant expression. Evaluation runs the
// ordinary expression lowering against a scratch block; any instruction it
// emits means e is not constant.
func (fl *funcLowerer) constant(e wgsl.Expr) (*ir.Constant, error) {
	saved := fl.current
	scratch := ir.NewBlock()
	fl.current = scratch
	v, err := fl.rvalue(e)
	fl.current = saved
	if err != nil {
		return nil, err
	}
	c, ok := v.(*ir.Constant)
	if !ok || len(scratch.Instructions) > 0 {
		return nil, errorf(diag.CodeNotConstant, e, "expression is not a constant expression")
	}
	return c, nil
}

// constUint evaluates e as a non-negative integer constant.
func (fl *funcLowerer) constUint(e wgsl.Expr) (uint32, error) {
	c, err := fl.constant(e)
	if err != nil {
		return 0, err
	}
	s, ok := c.Type().(ir.ScalarType)
	if !ok || !s.Kind.IsInteger() {
		return 0, errorf(diag.CodeInvalidOperand, e, "expected an integer, got %s", c.Type())
	}
	v := c.Int()
	if s.Kind == ir.ScalarUint {
		v = int64(uint32(v))
	}
	if v < 0 || v > math.MaxUint32 {
		return 0, errorf(diag.CodeInvalidOperand, e, "value %d is out of range", v)
	}
	return uint32(v), nil
}

func (fl *funcLowerer) constDecl(d *wgsl.ConstDecl) (*ir.Constant, error) {
	c, err := fl.constant(d.Init)
	if err != nil {
		return nil, err
	}
	if d.Type == nil {
		return c, nil
	}
	t, err := fl.resolveType(d.Type)
	if err != nil {
		return nil, err
	}
	v, err := materialize(c, t)
	if err != nil {
		return nil, operandError(d.Init, err)
	}
	return v.(*ir.Constant), nil
}

func (fl *funcLowerer) constAssert(d *wgsl.ConstAssertDecl) error {
	c, err := fl.constant(d.Cond)
	if err != nil {
		return err
	}
	if c.Type() != ir.Type(ir.Bool) {
		return errorf(diag.CodeInvalidOperand, d.Cond, "const_assert condition must be bool, got %s", c.Type())
	}
	if !c.Bool() {
		return errorf(diag.CodeConstAssertFailed, d, "const assertion failed")
	}
	return nil
}

// literal returns the constant a literal denotes. Literals without a
// suffix are abstract.
func literal(l *wgsl.Literal) (*ir.Constant, error) {
	text := strings.ReplaceAll(l.Value, "_", "")
	switch l.Kind {
	case wgsl.TokenBoolLiteral:
		return ir.BoolConst(text == "true"), nil

	case wgsl.TokenIntLiteral:
		t := ir.AbstractInt
		switch {
		case strings.HasSuffix(text, "i"):
			t, text = ir.I32, strings.TrimSuffix(text, "i")
		case strings.HasSuffix(text, "u"):
			t, text = ir.U32, strings.TrimSuffix(text, "u")
		}
		base := 10
		if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
			base, text = 16, text[2:]
		}
		u, err := strconv.ParseUint(text, base, 64)
		if err != nil || u > math.MaxInt64 {
			return nil, errorf(diag.CodeInvalidOperand, l, "invalid integer literal '%s'", l.Value)
		}
		c := ir.IntConst(ir.AbstractInt, int64(u))
		if t == ir.AbstractInt {
			return c, nil
		}
		out, err := convertScalar(c, t)
		if err != nil {
			return nil, operandError(l, err)
		}
		return out, nil

	case wgsl.TokenFloatLiteral:
		t := ir.AbstractFloat
		switch {
		case strings.HasSuffix(text, "f"):
			t, text = ir.F32, strings.TrimSuffix(text, "f")
		case strings.HasSuffix(text, "h"):
			t, text = ir.F16, strings.TrimSuffix(text, "h")
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errorf(diag.CodeInvalidOperand, l, "invalid float literal '%s'", l.Value)
		}
		return ir.FloatConst(t, roundFloat(t, f)), nil
	}
	return nil, internalf(l, "unhandled literal kind: %s", l.Kind)
}

// concreteType replaces abstract scalars in t with i32 or f32.
func concreteType(t ir.Type) ir.Type {
	if a, ok := t.(ir.ArrayType); ok {
		return ir.ArrayType{Base: concreteType(a.Base), Size: a.Size}
	}
	s, ok := ir.ScalarOf(t)
	if !ok {
		return t
	}
	switch s.Kind {
	case ir.ScalarAbstractInt:
		return ir.WithScalar(t, ir.I32)
	case ir.ScalarAbstractFloat:
		return ir.WithScalar(t, ir.F32)
	}
	return t
}

// concretize materializes an abstract value to its default concrete type.
func concretize(v ir.Value) (ir.Value, error) {
	if !ir.IsAbstract(v.Type()) {
		return v, nil
	}
	return materialize(v, concreteType(v.Type()))
}

// materialize converts v to target. Only abstract constants convert
// implicitly; any other value must already have the target type.
func materialize(v ir.Value, target ir.Type) (ir.Value, error) {
	if v.Type() == target {
		return v, nil
	}
	c, ok := v.(*ir.Constant)
	if !ok || !canMaterialize(v.Type(), target) {
		return nil, fmt.Errorf("cannot use value of type %s as %s", v.Type(), target)
	}
	return convertConstant(c, target)
}

func canMaterialize(from, to ir.Type) bool {
	if fa, ok := from.(ir.ArrayType); ok {
		ta, ok := to.(ir.ArrayType)
		return ok && fa.Size == ta.Size && (fa.Base == ta.Base || canMaterialize(fa.Base, ta.Base))
	}
	fs, ok := ir.ScalarOf(from)
	if !ok || !fs.Kind.IsAbstract() {
		return false
	}
	ts, ok := ir.ScalarOf(to)
	if !ok || ir.WithScalar(from, ts) != to {
		return false
	}
	switch fs.Kind {
	case ir.ScalarAbstractInt:
		return ts.Kind != ir.ScalarBool
	case ir.ScalarAbstractFloat:
		return ts.Kind.IsFloat()
	}
	return false
}

// convertConstant converts c to target component-wise with WGSL value
// conversion rules.
func convertConstant(c *ir.Constant, target ir.Type) (*ir.Constant, error) {
	if c.Type() == target {
		return c, nil
	}
	switch t := target.(type) {
	case ir.ScalarType:
		return convertScalar(c, t)
	case ir.VectorType:
		return convertComponents(c, target, int(t.Size), t.Scalar)
	case ir.MatrixType:
		return convertComponents(c, target, int(t.Columns), t.ColumnType())
	case ir.ArrayType:
		if from, ok := c.Type().(ir.ArrayType); ok && from.Size == t.Size {
			return convertComponents(c, target, int(t.Size), t.Base)
		}
	}
	return nil, fmt.Errorf("cannot convert %s to %s", c.Type(), target)
}

func convertComponents(c *ir.Constant, target ir.Type, n int, elem ir.Type) (*ir.Constant, error) {
	if _, ok := c.Value.(ir.CompositeValue); !ok {
		return nil, fmt.Errorf("cannot convert %s to %s", c.Type(), target)
	}
	comps := make([]*ir.Constant, n)
	for i := range comps {
		src, ok := c.Index(i)
		if !ok {
			return nil, fmt.Errorf("cannot convert %s to %s", c.Type(), target)
		}
		dst, err := convertConstant(src, elem)
		if err != nil {
			return nil, err
		}
		comps[i] = dst
	}
	return ir.CompositeConst(target, comps...), nil
}

func convertScalar(c *ir.Constant, t ir.ScalarType) (*ir.Constant, error) {
	s, ok := c.Scalar()
	if !ok {
		return nil, fmt.Errorf("cannot convert %s to %s", c.Type(), t)
	}
	switch t.Kind {
	case ir.ScalarBool:
		if s.Kind == ir.ScalarBool {
			return c, nil
		}
		return ir.BoolConst(c.Float() != 0), nil
	case ir.ScalarFloat, ir.ScalarAbstractFloat:
		return ir.FloatConst(t, roundFloat(t, c.Float())), nil
	}

	var v int64
	switch {
	case s.Kind.IsFloat():
		v = saturate(c.Float(), t)
	case s.Kind == ir.ScalarUint:
		v = int64(uint32(c.Int()))
	case s.Kind == ir.ScalarBool:
		if c.Bool() {
			v = 1
		}
	default:
		v = c.Int()
	}
	if s.Kind == ir.ScalarAbstractInt {
		if err := checkRange(v, t); err != nil {
			return nil, err
		}
	}
	switch t.Kind {
	case ir.ScalarSint:
		v = int64(int32(v))
	case ir.ScalarUint:
		v = int64(uint32(v))
	}
	return ir.IntConst(t, v), nil
}

func checkRange(v int64, t ir.ScalarType) error {
	switch t.Kind {
	case ir.ScalarSint:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return fmt.Errorf("value %d does not fit in %s", v, t)
		}
	case ir.ScalarUint:
		if v < 0 || v > math.MaxUint32 {
			return fmt.Errorf("value %d does not fit in %s", v, t)
		}
	}
	return nil
}

// saturate converts a float to an integer type, clamping to its range.
func saturate(f float64, t ir.ScalarType) int64 {
	lo, hi := float64(math.MinInt32), float64(math.MaxInt32)
	switch t.Kind {
	case ir.ScalarUint:
		lo, hi = 0, math.MaxUint32
	case ir.ScalarAbstractInt:
		lo, hi = math.MinInt64, math.MaxInt64
	}
	switch {
	case math.IsNaN(f):
		return 0
	case f <= lo:
		return int64(lo)
	case f >= hi:
		return int64(hi)
	}
	return int64(f)
}

func roundFloat(t ir.ScalarType, f float64) float64 {
	if t.Kind == ir.ScalarFloat {
		return float64(float32(f))
	}
	return f
}

// zeroValue returns the zero constant of t, or nil when t has none.
func zeroValue(t ir.Type) *ir.Constant {
	switch t := t.(type) {
	case ir.ScalarType:
		switch {
		case t.Kind == ir.ScalarBool:
			return ir.BoolConst(false)
		case t.Kind.IsFloat():
			return ir.FloatConst(t, 0)
		}
		return ir.IntConst(t, 0)
	case ir.VectorType:
		return repeat(t, zeroValue(t.Scalar), int(t.Size))
	case ir.MatrixType:
		return repeat(t, zeroValue(t.ColumnType()), int(t.Columns))
	case ir.ArrayType:
		elem := zeroValue(t.Base)
		if elem == nil || t.Size == 0 {
			return nil
		}
		return repeat(t, elem, int(t.Size))
	case *ir.StructType:
		comps := make([]*ir.Constant, len(t.Members))
		for i, m := range t.Members {
			if comps[i] = zeroValue(m.Type); comps[i] == nil {
				return nil
			}
		}
		return ir.CompositeConst(t, comps...)
	}
	return nil
}

func repeat(t ir.Type, c *ir.Constant, n int) *ir.Constant {
	comps := make([]*ir.Constant, n)
	for i := range comps {
		comps[i] = c
	}
	return ir.CompositeConst(t, comps...)
}

// componentCount returns the number of components of a foldable type: 0
// for scalars, the size for vectors and -1 otherwise.
func componentCount(t ir.Type) int {
	switch t := t.(type) {
	case ir.ScalarType:
		return 0
	case ir.VectorType:
		return int(t.Size)
	}
	return -1
}

func component(c *ir.Constant, i int) *ir.Constant {
	if _, ok := c.Value.(ir.ScalarValue); ok {
		return c
	}
	comp, _ := c.Index(i)
	return comp
}

// foldUnary evaluates op on a scalar or vector constant.
func foldUnary(op ir.UnaryOperator, t ir.Type, c *ir.Constant) (*ir.Constant, bool, error) {
	n := componentCount(t)
	if n < 0 {
		return nil, false, nil
	}
	if n == 0 {
		out, err := scalarUnary(op, c)
		return out, err == nil, err
	}
	comps := make([]*ir.Constant, n)
	for i := range comps {
		out, err := scalarUnary(op, component(c, i))
		if err != nil {
			return nil, false, err
		}
		comps[i] = out
	}
	return ir.CompositeConst(t, comps...), true, nil
}

func scalarUnary(op ir.UnaryOperator, c *ir.Constant) (*ir.Constant, error) {
	t := c.Type().(ir.ScalarType)
	switch op {
	case ir.UnaryLogicalNot:
		return ir.BoolConst(!c.Bool()), nil
	case ir.UnaryNegate:
		if t.Kind.IsFloat() {
			return ir.FloatConst(t, -c.Float()), nil
		}
		if t.Kind == ir.ScalarAbstractInt && c.Int() == math.MinInt64 {
			return nil, fmt.Errorf("negation of %d overflows", c.Int())
		}
		return wrapInt(t, -c.Int()), nil
	case ir.UnaryBitwiseNot:
		return wrapInt(t, ^c.Int()), nil
	}
	return nil, fmt.Errorf("unary %s cannot be folded", op)
}

// wrapInt returns v truncated to the width of t.
func wrapInt(t ir.ScalarType, v int64) *ir.Constant {
	switch t.Kind {
	case ir.ScalarSint:
		v = int64(int32(v))
	case ir.ScalarUint:
		v = int64(uint32(v))
	}
	return ir.IntConst(t, v)
}

// foldBinary evaluates op on scalar or vector constants. The operands must
// already share a scalar type; t is the result type. It reports false when
// the operation has no constant folding, such as matrix products.
func foldBinary(op ir.BinaryOperator, t ir.Type, l, r *ir.Constant) (*ir.Constant, bool, error) {
	ln, rn := componentCount(l.Type()), componentCount(r.Type())
	if ln < 0 || rn < 0 {
		return nil, false, nil
	}
	n := max(ln, rn)
	if n == 0 {
		out, err := scalarBinary(op, l, r)
		return out, err == nil, err
	}
	comps := make([]*ir.Constant, n)
	for i := range comps {
		out, err := scalarBinary(op, component(l, i), component(r, i))
		if err != nil {
			return nil, false, err
		}
		comps[i] = out
	}
	return ir.CompositeConst(t, comps...), true, nil
}

func scalarBinary(op ir.BinaryOperator, l, r *ir.Constant) (*ir.Constant, error) {
	t := l.Type().(ir.ScalarType)
	if op.IsComparison() {
		return ir.BoolConst(compare(op, t, l, r)), nil
	}

	switch {
	case t.Kind == ir.ScalarBool:
		a, b := l.Bool(), r.Bool()
		switch op {
		case ir.BinaryAnd:
			return ir.BoolConst(a && b), nil
		case ir.BinaryInclusiveOr:
			return ir.BoolConst(a || b), nil
		case ir.BinaryExclusiveOr:
			return ir.BoolConst(a != b), nil
		}
	case t.Kind.IsFloat():
		a, b := l.Float(), r.Float()
		var v float64
		switch op {
		case ir.BinaryAdd:
			v = a + b
		case ir.BinarySubtract:
			v = a - b
		case ir.BinaryMultiply:
			v = a * b
		case ir.BinaryDivide:
			if b == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			v = a / b
		case ir.BinaryModulo:
			if b == 0 {
				return nil, fmt.Errorf("remainder by zero")
			}
			v = math.Mod(a, b)
		default:
			return nil, fmt.Errorf("binary %s is not defined on %s", op, t)
		}
		if math.IsInf(roundFloat(t, v), 0) {
			return nil, fmt.Errorf("value overflows %s", t)
		}
		return ir.FloatConst(t, roundFloat(t, v)), nil
	default:
		return integerBinary(op, t, l, r)
	}
	return nil, fmt.Errorf("binary %s is not defined on %s", op, t)
}

func compare(op ir.BinaryOperator, t ir.ScalarType, l, r *ir.Constant) bool {
	var c int
	switch {
	case t.Kind == ir.ScalarBool:
		a, b := l.Bool(), r.Bool()
		if a != b {
			c = 1
		}
	case t.Kind.IsFloat():
		a, b := l.Float(), r.Float()
		if a < b {
			c = -1
		} else if a > b {
			c = 1
		}
	case t.Kind == ir.ScalarUint:
		a, b := uint32(l.Int()), uint32(r.Int())
		if a < b {
			c = -1
		} else if a > b {
			c = 1
		}
	default:
		a, b := l.Int(), r.Int()
		if a < b {
			c = -1
		} else if a > b {
			c = 1
		}
	}
	switch op {
	case ir.BinaryEqual:
		return c == 0
	case ir.BinaryNotEqual:
		return c != 0
	case ir.BinaryLess:
		return c < 0
	case ir.BinaryLessEqual:
		return c <= 0
	case ir.BinaryGreater:
		return c > 0
	}
	return c >= 0
}

func integerBinary(op ir.BinaryOperator, t ir.ScalarType, l, r *ir.Constant) (*ir.Constant, error) {
	a, b := l.Int(), r.Int()
	if t.Kind == ir.ScalarUint {
		a, b = int64(uint32(a)), int64(uint32(b))
	}
	width := int64(32)
	if t.Kind == ir.ScalarAbstractInt {
		width = 64
	}

	var v int64
	switch op {
	case ir.BinaryAdd:
		v = a + b
		if t.Kind == ir.ScalarAbstractInt && (b > 0 && a > math.MaxInt64-b || b < 0 && a < math.MinInt64-b) {
			return nil, fmt.Errorf("%d + %d overflows", a, b)
		}
	case ir.BinarySubtract:
		v = a - b
		if t.Kind == ir.ScalarAbstractInt && (b < 0 && a > math.MaxInt64+b || b > 0 && a < math.MinInt64+b) {
			return nil, fmt.Errorf("%d - %d overflows", a, b)
		}
	case ir.BinaryMultiply:
		v = a * b
		if t.Kind == ir.ScalarAbstractInt && a != 0 && (v/a != b || a == -1 && b == math.MinInt64) {
			return nil, fmt.Errorf("%d * %d overflows", a, b)
		}
	case ir.BinaryDivide, ir.BinaryModulo:
		if b == 0 {
			return nil, fmt.Errorf("integer division by zero")
		}
		if t.Kind == ir.ScalarSint && a == math.MinInt32 && b == -1 {
			return nil, fmt.Errorf("%d / %d overflows", a, b)
		}
		if op == ir.BinaryDivide {
			v = a / b
		} else {
			v = a % b
		}
	case ir.BinaryAnd:
		v = a & b
	case ir.BinaryInclusiveOr:
		v = a | b
	case ir.BinaryExclusiveOr:
		v = a ^ b
	case ir.BinaryShiftLeft, ir.BinaryShiftRight:
		shift := uint32(r.Int())
		if int64(shift) >= width {
			return nil, fmt.Errorf("shift by %d is not less than the bit width of %s", shift, t)
		}
		if op == ir.BinaryShiftLeft {
			v = a << shift
		} else if t.Kind == ir.ScalarSint {
			v = int64(int32(a) >> shift)
		} else {
			v = a >> shift
		}
	default:
		return nil, fmt.Errorf("binary %s is not defined on %s", op, t)
	}
	return wrapInt(t, v), nil
}

// foldAccess indexes into a constant with constant indices.
func foldAccess(c *ir.Constant, indices []ir.Value) (*ir.Constant, bool) {
	for _, idx := range indices {
		ic, ok := idx.(*ir.Constant)
		if !ok {
			return nil, false
		}
		if c, ok = c.Index(int(ic.Int())); !ok {
			return nil, false
		}
	}
	return c, true
}
