package lower

import (
	"slices"

	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/ir"
	"github.com/gogpu/wgslfront/wgsl"
)

var binaryOps = map[wgsl.TokenKind]ir.BinaryOperator{
	wgsl.TokenPlus:           ir.BinaryAdd,
	wgsl.TokenMinus:          ir.BinarySubtract,
	wgsl.TokenStar:           ir.BinaryMultiply,
	wgsl.TokenSlash:          ir.BinaryDivide,
	wgsl.TokenPercent:        ir.BinaryModulo,
	wgsl.TokenEqualEqual:     ir.BinaryEqual,
	wgsl.TokenBangEqual:      ir.BinaryNotEqual,
	wgsl.TokenLess:           ir.BinaryLess,
	wgsl.TokenLessEqual:      ir.BinaryLessEqual,
	wgsl.TokenGreater:        ir.BinaryGreater,
	wgsl.TokenGreaterEqual:   ir.BinaryGreaterEqual,
	wgsl.TokenAmpersand:      ir.BinaryAnd,
	wgsl.TokenPipe:           ir.BinaryInclusiveOr,
	wgsl.TokenCaret:          ir.BinaryExclusiveOr,
	wgsl.TokenLessLess:       ir.BinaryShiftLeft,
	wgsl.TokenGreaterGreater: ir.BinaryShiftRight,
}

var assignOps = map[wgsl.TokenKind]ir.BinaryOperator{
	wgsl.TokenPlusEqual:           ir.BinaryAdd,
	wgsl.TokenMinusEqual:          ir.BinarySubtract,
	wgsl.TokenStarEqual:           ir.BinaryMultiply,
	wgsl.TokenSlashEqual:          ir.BinaryDivide,
	wgsl.TokenPercentEqual:        ir.BinaryModulo,
	wgsl.TokenAmpEqual:            ir.BinaryAnd,
	wgsl.TokenPipeEqual:           ir.BinaryInclusiveOr,
	wgsl.TokenCaretEqual:          ir.BinaryExclusiveOr,
	wgsl.TokenLessLessEqual:       ir.BinaryShiftLeft,
	wgsl.TokenGreaterGreaterEqual: ir.BinaryShiftRight,
}

var unaryOps = map[wgsl.TokenKind]ir.UnaryOperator{
	wgsl.TokenMinus: ir.UnaryNegate,
	wgsl.TokenBang:  ir.UnaryLogicalNot,
	wgsl.TokenTilde: ir.UnaryBitwiseNot,
}

// operand is a lowered expression before it is used. Index and member
// steps accumulate in indices so that a chain of them becomes one Access.
type operand struct {
	base    ir.Value   // nil for calls without a result
	ref     bool       // base is a pointer to the designated memory
	indices []ir.Value // pending access chain into base
	typ     ir.Type    // type of the designated value (the store type for references)
}

func valueOperand(v ir.Value) operand {
	return operand{base: v, typ: v.Type()}
}

func refOperand(ptr ir.Value) operand {
	pointee, _ := ir.PointeeOf(ptr.Type())
	return operand{base: ptr, ref: true, typ: pointee}
}

// rvalue lowers e and returns its value, loading through references.
func (fl *funcLowerer) rvalue(e wgsl.Expr) (ir.Value, error) {
	o, err := fl.expr(e)
	if err != nil {
		return nil, err
	}
	return fl.load(e, o)
}

// reference lowers e as the target of an assignment and returns the
// pointer and the store type.
func (fl *funcLowerer) reference(e wgsl.Expr) (ir.Value, ir.Type, error) {
	o, err := fl.expr(e)
	if err != nil {
		return nil, nil, err
	}
	if o, err = fl.flush(o); err != nil {
		return nil, nil, err
	}
	if !o.ref {
		return nil, nil, errorf(diag.CodeInvalidOperand, e, "cannot assign to a value")
	}
	if p := o.base.Type().(ir.PointerType); p.Access == ir.AccessRead {
		return nil, nil, errorf(diag.CodeInvalidOperand, e, "cannot assign to read-only memory in the '%s' address space", p.Space)
	}
	return o.base, o.typ, nil
}

func (fl *funcLowerer) load(node wgsl.Node, o operand) (ir.Value, error) {
	o, err := fl.flush(o)
	if err != nil {
		return nil, err
	}
	if o.base == nil {
		return nil, errorf(diag.CodeInvalidOperand, node, "expression does not produce a value")
	}
	if o.ref {
		return emit(fl, ir.NewLoad(o.base)).Result(), nil
	}
	return o.base, nil
}

// flush emits the pending access chain of o as a single Access, or folds
// it when the base and all indices are constants.
func (fl *funcLowerer) flush(o operand) (operand, error) {
	if len(o.indices) == 0 {
		return o, nil
	}
	if o.ref {
		p := o.base.Type().(ir.PointerType)
		ptr := ir.PointerType{Base: o.typ, Space: p.Space, Access: p.Access}
		return refOperand(emit(fl, ir.NewAccess(ptr, o.base, o.indices...)).Result()), nil
	}
	if c, ok := o.base.(*ir.Constant); ok {
		if folded, ok := foldAccess(c, o.indices); ok {
			return valueOperand(folded), nil
		}
	}
	base, err := concretize(o.base)
	if err != nil {
		return operand{}, err
	}
	return valueOperand(emit(fl, ir.NewAccess(concreteType(o.typ), base, o.indices...)).Result()), nil
}

// expr lowers e without loading references.
func (fl *funcLowerer) expr(e wgsl.Expr) (operand, error) {
	switch e := e.(type) {
	case *wgsl.Literal:
		c, err := literal(e)
		if err != nil {
			return operand{}, err
		}
		return valueOperand(c), nil
	case *wgsl.Ident:
		return fl.ident(e)
	case *wgsl.UnaryExpr:
		return fl.unary(e)
	case *wgsl.BinaryExpr:
		var v ir.Value
		var err error
		if e.Op == wgsl.TokenAmpAmp || e.Op == wgsl.TokenPipePipe {
			v, err = fl.shortCircuit(e)
		} else {
			v, err = fl.binary(e)
		}
		if err != nil {
			return operand{}, err
		}
		return valueOperand(v), nil
	case *wgsl.IndexExpr:
		return fl.index(e)
	case *wgsl.MemberExpr:
		return fl.member(e)
	case *wgsl.CallExpr:
		return fl.call(e)
	case *wgsl.ConstructExpr:
		v, err := fl.constructExpr(e)
		if err != nil {
			return operand{}, err
		}
		return valueOperand(v), nil
	case *wgsl.BitcastExpr:
		v, err := fl.bitcast(e)
		if err != nil {
			return operand{}, err
		}
		return valueOperand(v), nil
	}
	return operand{}, internalf(e, "unhandled expression type: %T", e)
}

func (fl *funcLowerer) ident(e *wgsl.Ident) (operand, error) {
	b, ok, err := fl.lookup(e, e.Name)
	if err != nil {
		return operand{}, err
	}
	if !ok {
		return operand{}, errorf(diag.CodeUnknownIdentifier, e, "unknown identifier: '%s'", e.Name)
	}
	switch b.kind {
	case bindValue:
		return valueOperand(b.value), nil
	case bindRef:
		return refOperand(b.value), nil
	case bindType:
		return operand{}, errorf(diag.CodeInvalidOperand, e, "type '%s' cannot be used as a value", e.Name)
	}
	return operand{}, errorf(diag.CodeInvalidOperand, e, "function '%s' cannot be used as a value", e.Name)
}

// deref turns a pointer value into a reference so that index and member
// steps apply to the memory it points at.
func deref(o operand) operand {
	if !o.ref && len(o.indices) == 0 && o.base != nil {
		if _, ok := o.typ.(ir.PointerType); ok {
			return refOperand(o.base)
		}
	}
	return o
}

func (fl *funcLowerer) index(e *wgsl.IndexExpr) (operand, error) {
	o, err := fl.expr(e.Expr)
	if err != nil {
		return operand{}, err
	}
	o = deref(o)
	if o.base == nil {
		return operand{}, errorf(diag.CodeInvalidOperand, e.Expr, "expression does not produce a value")
	}

	idx, err := fl.rvalue(e.Index)
	if err != nil {
		return operand{}, err
	}
	if idx, err = concretize(idx); err != nil {
		return operand{}, operandError(e.Index, err)
	}
	if s, ok := idx.Type().(ir.ScalarType); !ok || (s.Kind != ir.ScalarSint && s.Kind != ir.ScalarUint) {
		return operand{}, errorf(diag.CodeInvalidOperand, e.Index, "index must be i32 or u32, got %s", idx.Type())
	}

	if _, ok := o.typ.(*ir.StructType); ok {
		return operand{}, errorf(diag.CodeInvalidOperand, e, "cannot index into struct %s", o.typ)
	}
	elem, err := ir.ElementType(o.typ, 0)
	if err != nil {
		return operand{}, operandError(e, err)
	}
	if c, ok := idx.(*ir.Constant); ok {
		if n := indexBound(o.typ); n > 0 && (c.Int() < 0 || c.Int() >= int64(n)) {
			return operand{}, errorf(diag.CodeInvalidOperand, e.Index, "index %d is out of bounds for %s", c.Int(), o.typ)
		}
	}

	o.indices = append(slices.Clip(o.indices), idx)
	o.typ = elem
	return o, nil
}

// indexBound returns the number of elements of an indexable type, or 0 when
// it is not known.
func indexBound(t ir.Type) int {
	switch t := t.(type) {
	case ir.VectorType:
		return int(t.Size)
	case ir.MatrixType:
		return int(t.Columns)
	case ir.ArrayType:
		return int(t.Size)
	}
	return 0
}

func (fl *funcLowerer) member(e *wgsl.MemberExpr) (operand, error) {
	o, err := fl.expr(e.Expr)
	if err != nil {
		return operand{}, err
	}
	o = deref(o)

	switch t := o.typ.(type) {
	case *ir.StructType:
		i, ok := t.Member(e.Member)
		if !ok {
			return operand{}, errorf(diag.CodeInvalidOperand, e, "struct %s has no member '%s'", t, e.Member)
		}
		o.indices = append(slices.Clip(o.indices), ir.U32Const(uint32(i)))
		o.typ = t.Members[i].Type
		return o, nil

	case ir.VectorType:
		comps, err := swizzle(e, t)
		if err != nil {
			return operand{}, err
		}
		if len(comps) == 1 {
			o.indices = append(slices.Clip(o.indices), ir.U32Const(comps[0]))
			o.typ = t.Scalar
			return o, nil
		}
		return fl.swizzle(e, o, t, comps)
	}
	return operand{}, errorf(diag.CodeInvalidOperand, e, "type %v has no member '%s'", o.typ, e.Member)
}

// swizzle decodes the component letters of e. Letters come from one set,
// xyzw or rgba.
func swizzle(e *wgsl.MemberExpr, t ir.VectorType) ([]uint32, error) {
	name := e.Member
	if len(name) == 0 || len(name) > 4 {
		return nil, errorf(diag.CodeInvalidOperand, e, "invalid swizzle '%s'", name)
	}
	rgba := name[0] == 'r' || name[0] == 'g' || name[0] == 'b' || name[0] == 'a'
	comps := make([]uint32, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		idx, ok := ir.SwizzleIndex(c)
		isRGBA := c == 'r' || c == 'g' || c == 'b' || c == 'a'
		if !ok || isRGBA != rgba || idx >= uint32(t.Size) {
			return nil, errorf(diag.CodeInvalidOperand, e, "invalid swizzle '%s' for %s", name, t)
		}
		comps[i] = idx
	}
	return comps, nil
}

// swizzle flushes the pending chain of o, loads the vector and selects
// comps from it. The result is a value that can be indexed further.
func (fl *funcLowerer) swizzle(e *wgsl.MemberExpr, o operand, t ir.VectorType, comps []uint32) (operand, error) {
	vec, err := fl.load(e.Expr, o)
	if err != nil {
		return operand{}, err
	}
	rt, err := ir.SwizzleResultType(t, len(comps))
	if err != nil {
		return operand{}, operandError(e, err)
	}
	if c, ok := vec.(*ir.Constant); ok {
		out := make([]*ir.Constant, len(comps))
		for i, idx := range comps {
			out[i] = component(c, int(idx))
		}
		return valueOperand(ir.CompositeConst(rt, out...)), nil
	}
	return valueOperand(emit(fl, ir.NewSwizzle(rt, vec, comps...)).Result()), nil
}

func (fl *funcLowerer) unary(e *wgsl.UnaryExpr) (operand, error) {
	switch e.Op {
	case wgsl.TokenAmpersand:
		o, err := fl.expr(e.Operand)
		if err != nil {
			return operand{}, err
		}
		if o, err = fl.flush(o); err != nil {
			return operand{}, err
		}
		if !o.ref {
			return operand{}, errorf(diag.CodeInvalidOperand, e, "cannot take the address of a value")
		}
		return valueOperand(o.base), nil

	case wgsl.TokenStar:
		v, err := fl.rvalue(e.Operand)
		if err != nil {
			return operand{}, err
		}
		if _, ok := v.Type().(ir.PointerType); !ok {
			return operand{}, errorf(diag.CodeInvalidOperand, e, "cannot dereference a value of type %s", v.Type())
		}
		return refOperand(v), nil
	}

	op, ok := unaryOps[e.Op]
	if !ok {
		return operand{}, internalf(e, "unhandled unary operator: %s", e.Op)
	}
	v, err := fl.rvalue(e.Operand)
	if err != nil {
		return operand{}, err
	}
	t, err := ir.UnaryResultType(op, v.Type())
	if err != nil {
		return operand{}, operandError(e, err)
	}
	if c, ok := v.(*ir.Constant); ok {
		folded, ok, err := foldUnary(op, t, c)
		if err != nil {
			return operand{}, operandError(e, err)
		}
		if ok {
			return valueOperand(folded), nil
		}
	}
	return valueOperand(emit(fl, ir.NewUnary(op, t, v)).Result()), nil
}

func (fl *funcLowerer) binary(e *wgsl.BinaryExpr) (ir.Value, error) {
	op, ok := binaryOps[e.Op]
	if !ok {
		return nil, internalf(e, "unhandled binary operator: %s", e.Op)
	}
	l, err := fl.rvalue(e.Left)
	if err != nil {
		return nil, err
	}
	r, err := fl.rvalue(e.Right)
	if err != nil {
		return nil, err
	}
	return fl.binaryOp(e, op, l, r)
}

// binaryOp applies op to l and r. An abstract operand takes the scalar type
// of the concrete one; the shift amount becomes u32.
func (fl *funcLowerer) binaryOp(node wgsl.Node, op ir.BinaryOperator, l, r ir.Value) (ir.Value, error) {
	l, r, err := unifyOperands(op, l, r)
	if err != nil {
		return nil, operandError(node, err)
	}
	t, err := ir.BinaryResultType(op, l.Type(), r.Type())
	if err != nil {
		return nil, operandError(node, err)
	}

	lc, lok := l.(*ir.Constant)
	rc, rok := r.(*ir.Constant)
	if lok && rok {
		folded, ok, err := foldBinary(op, t, lc, rc)
		if err != nil {
			return nil, operandError(node, err)
		}
		if ok {
			return folded, nil
		}
	}

	if ir.IsAbstract(l.Type()) || ir.IsAbstract(r.Type()) {
		if l, err = concretize(l); err == nil {
			r, err = concretize(r)
		}
		if err != nil {
			return nil, operandError(node, err)
		}
		if t, err = ir.BinaryResultType(op, l.Type(), r.Type()); err != nil {
			return nil, operandError(node, err)
		}
	}
	return emit(fl, ir.NewBinary(op, t, l, r)).Result(), nil
}

func unifyOperands(op ir.BinaryOperator, l, r ir.Value) (ir.Value, ir.Value, error) {
	ls, lok := ir.ScalarOf(l.Type())
	rs, rok := ir.ScalarOf(r.Type())
	if !lok || !rok {
		return l, r, nil
	}

	var err error
	if op == ir.BinaryShiftLeft || op == ir.BinaryShiftRight {
		if rs.Kind.IsAbstract() {
			r, err = materialize(r, ir.WithScalar(r.Type(), ir.U32))
		}
		return l, r, err
	}

	switch {
	case ls.Kind.IsAbstract() && !rs.Kind.IsAbstract():
		l, err = materialize(l, ir.WithScalar(l.Type(), rs))
	case rs.Kind.IsAbstract() && !ls.Kind.IsAbstract():
		r, err = materialize(r, ir.WithScalar(r.Type(), ls))
	case ls.Kind == ir.ScalarAbstractInt && rs.Kind == ir.ScalarAbstractFloat:
		l, err = materialize(l, ir.WithScalar(l.Type(), ir.AbstractFloat))
	case ls.Kind == ir.ScalarAbstractFloat && rs.Kind == ir.ScalarAbstractInt:
		r, err = materialize(r, ir.WithScalar(r.Type(), ir.AbstractFloat))
	}
	return l, r, err
}

// shortCircuit lowers a && b and a || b. The right operand is evaluated in
// one branch of an If on the left operand; the other branch exits with the
// operator's short-circuit value.
func (fl *funcLowerer) shortCircuit(e *wgsl.BinaryExpr) (ir.Value, error) {
	isAnd := e.Op == wgsl.TokenAmpAmp

	lhs, err := fl.condition(e.Left, "logical operand")
	if err != nil {
		return nil, err
	}
	if c, ok := lhs.(*ir.Constant); ok {
		if c.Bool() != isAnd {
			return c, nil
		}
		return fl.condition(e.Right, "logical operand")
	}

	i := emit(fl, ir.NewIf(lhs))
	result := i.Merge.AddParam(ir.Bool)

	evaluate, skip := i.True, i.False
	if !isAnd {
		evaluate, skip = i.False, i.True
	}

	fl.current = skip
	fl.exit(i, ir.BoolConst(!isAnd))

	fl.current = evaluate
	rhs, err := fl.condition(e.Right, "logical operand")
	if err != nil {
		return nil, err
	}
	fl.exit(i, rhs)

	fl.current = i.Merge
	return result, nil
}

func (fl *funcLowerer) bitcast(e *wgsl.BitcastExpr) (ir.Value, error) {
	t, err := fl.resolveType(e.Type)
	if err != nil {
		return nil, err
	}
	v, err := fl.rvalue(e.Expr)
	if err != nil {
		return nil, err
	}
	if v, err = concretize(v); err != nil {
		return nil, operandError(e.Expr, err)
	}
	if v.Type() == t {
		return v, nil
	}
	if _, ok := ir.ScalarOf(v.Type()); !ok {
		return nil, errorf(diag.CodeInvalidOperand, e, "cannot bitcast %s", v.Type())
	}
	return emit(fl, ir.NewBitcast(t, v)).Result(), nil
}
