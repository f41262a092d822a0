package lower

import (
	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/ir"
	"github.com/gogpu/wgslfront/wgsl"
)

// call lowers f(args): a user function call, a type constructor or
// conversion, or a builtin function call.
func (fl *funcLowerer) call(e *wgsl.CallExpr) (operand, error) {
	name := e.Func.Name
	b, ok, err := fl.lookup(e.Func, name)
	if err != nil {
		return operand{}, err
	}
	if ok {
		switch b.kind {
		case bindFunction:
			return fl.userCall(e, b.fn)
		case bindType:
			args, err := fl.arguments(e.Args)
			if err != nil {
				return operand{}, err
			}
			v, err := fl.construct(e, b.typ, args)
			if err != nil {
				return operand{}, err
			}
			return valueOperand(v), nil
		}
		return operand{}, errorf(diag.CodeInvalidOperand, e.Func, "'%s' is not a function", name)
	}

	if wgsl.IsBuiltinType(name) {
		args, err := fl.arguments(e.Args)
		if err != nil {
			return operand{}, err
		}
		t, err := fl.inferConstructorType(e, name, args)
		if err != nil {
			return operand{}, err
		}
		v, err := fl.construct(e, t, args)
		if err != nil {
			return operand{}, err
		}
		return valueOperand(v), nil
	}

	if wgsl.IsBuiltinFunction(name) {
		return fl.builtinCall(e)
	}
	return operand{}, errorf(diag.CodeUnknownIdentifier, e.Func, "unknown function: '%s'", name)
}

func (fl *funcLowerer) arguments(exprs []wgsl.Expr) ([]ir.Value, error) {
	args := make([]ir.Value, len(exprs))
	for i, a := range exprs {
		v, err := fl.rvalue(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (fl *funcLowerer) userCall(e *wgsl.CallExpr, fn *ir.Function) (operand, error) {
	if len(e.Args) != len(fn.Params) {
		return operand{}, errorf(diag.CodeInvalidOperand, e, "function '%s' expects %d arguments, got %d", fn.Name, len(fn.Params), len(e.Args))
	}
	if fn.IsEntryPoint() {
		return operand{}, errorf(diag.CodeInvalidOperand, e, "entry point '%s' cannot be called", fn.Name)
	}
	args, err := fl.arguments(e.Args)
	if err != nil {
		return operand{}, err
	}
	for i, p := range fn.Params {
		if args[i], err = materialize(args[i], p.Type()); err != nil {
			return operand{}, operandError(e.Args[i], err)
		}
	}
	c := emit(fl, ir.NewCall(fn, args...))
	if c.Result() == nil {
		return operand{}, nil
	}
	return valueOperand(c.Result()), nil
}

// constructExpr lowers a templated constructor such as vec3<f32>(...) or
// array<i32, 4>(...).
func (fl *funcLowerer) constructExpr(e *wgsl.ConstructExpr) (ir.Value, error) {
	args, err := fl.arguments(e.Args)
	if err != nil {
		return nil, err
	}
	if a, ok := e.Type.(*wgsl.ArrayType); ok && a.Size == nil {
		// array<T>(...) takes its size from the arguments.
		elem, err := fl.resolveType(a.Element)
		if err != nil {
			return nil, err
		}
		return fl.construct(e, ir.ArrayType{Base: elem, Size: uint32(len(args))}, args)
	}
	t, err := fl.resolveType(e.Type)
	if err != nil {
		return nil, err
	}
	return fl.construct(e, t, args)
}

// inferConstructorType returns the type constructed by a predeclared type
// name called without template arguments. vec, mat and array infer their
// element type from the arguments.
func (fl *funcLowerer) inferConstructorType(e *wgsl.CallExpr, name string, args []ir.Value) (ir.Type, error) {
	size, isVec := vectorSizes[name]
	dims, isMat := matrixSizes[name]
	if !isVec && !isMat && name != "array" {
		return fl.resolveType(&wgsl.NamedType{Name: name, Span: e.Func.Span})
	}
	if len(args) == 0 {
		return nil, errorf(diag.CodeInvalidOperand, e, "cannot infer the element type of '%s' without arguments", name)
	}

	if name == "array" {
		elem, err := commonType(args)
		if err != nil {
			return nil, operandError(e, err)
		}
		return ir.ArrayType{Base: elem, Size: uint32(len(args))}, nil
	}

	scalars := make([]ir.ScalarType, len(args))
	for i, a := range args {
		s, ok := ir.ScalarOf(a.Type())
		if !ok {
			return nil, errorf(diag.CodeInvalidOperand, e.Args[i], "invalid argument of type %s for '%s'", a.Type(), name)
		}
		scalars[i] = s
	}
	s := commonScalar(scalars)
	if isVec {
		return ir.VectorType{Size: size, Scalar: s}, nil
	}
	if s.Kind == ir.ScalarAbstractInt {
		s = ir.AbstractFloat
	}
	return ir.MatrixType{Columns: dims[0], Rows: dims[1], Scalar: s}, nil
}

// commonScalar returns the first concrete scalar, or the widest abstract
// one when all are abstract.
func commonScalar(scalars []ir.ScalarType) ir.ScalarType {
	common := scalars[0]
	for _, s := range scalars {
		if !s.Kind.IsAbstract() {
			return s
		}
		if s.Kind == ir.ScalarAbstractFloat {
			common = s
		}
	}
	return common
}

// commonType returns the element type of an inferred array constructor.
func commonType(args []ir.Value) (ir.Type, error) {
	for _, a := range args {
		if !ir.IsAbstract(a.Type()) {
			return a.Type(), nil
		}
	}
	t := args[0].Type()
	for _, a := range args {
		if s, ok := ir.ScalarOf(a.Type()); ok && s.Kind == ir.ScalarAbstractFloat {
			t = ir.WithScalar(t, ir.AbstractFloat)
		}
	}
	return t, nil
}

// construct builds a value of type t from args: a zero value, a
// conversion, a splat or a component-wise construction.
func (fl *funcLowerer) construct(node wgsl.Node, t ir.Type, args []ir.Value) (ir.Value, error) {
	if len(args) == 0 {
		if z := zeroValue(t); z != nil {
			return z, nil
		}
		return nil, errorf(diag.CodeInvalidOperand, node, "type %s has no zero value", t)
	}

	switch tt := t.(type) {
	case ir.ScalarType:
		if len(args) != 1 {
			return nil, errorf(diag.CodeInvalidOperand, node, "%s takes one argument, got %d", t, len(args))
		}
		return fl.convert(node, t, args[0])

	case ir.VectorType:
		if len(args) == 1 {
			if _, ok := args[0].Type().(ir.VectorType); ok {
				return fl.convert(node, t, args[0])
			}
			return fl.splat(node, tt, args[0])
		}
		return fl.components(node, t, int(tt.Size), tt.Scalar, args)

	case ir.MatrixType:
		if len(args) == 1 {
			return fl.convert(node, t, args[0])
		}
		if len(args) == int(tt.Columns) {
			return fl.aggregate(node, t, args, func(int) ir.Type { return tt.ColumnType() })
		}
		if len(args) != int(tt.Columns*tt.Rows) {
			return nil, errorf(diag.CodeInvalidOperand, node, "%s takes %d columns or %d scalars, got %d arguments", t, tt.Columns, tt.Columns*tt.Rows, len(args))
		}
		v, err := fl.aggregate(node, t, args, func(int) ir.Type { return tt.Scalar })
		if err != nil {
			return nil, err
		}
		return columns(tt, v), nil

	case ir.ArrayType:
		if tt.Size == 0 {
			return nil, errorf(diag.CodeInvalidOperand, node, "cannot construct a runtime-sized array")
		}
		if len(args) != int(tt.Size) {
			return nil, errorf(diag.CodeInvalidOperand, node, "%s takes %d arguments, got %d", t, tt.Size, len(args))
		}
		return fl.aggregate(node, t, args, func(int) ir.Type { return tt.Base })

	case *ir.StructType:
		if len(args) != len(tt.Members) {
			return nil, errorf(diag.CodeInvalidOperand, node, "%s takes %d arguments, got %d", t, len(tt.Members), len(args))
		}
		return fl.aggregate(node, t, args, func(i int) ir.Type { return tt.Members[i].Type })
	}
	return nil, errorf(diag.CodeInvalidOperand, node, "cannot construct a value of type %s", t)
}

// convert converts v to t, folding constants.
func (fl *funcLowerer) convert(node wgsl.Node, t ir.Type, v ir.Value) (ir.Value, error) {
	if v.Type() == t {
		return v, nil
	}
	if ir.WithScalar(v.Type(), ir.Bool) != ir.WithScalar(t, ir.Bool) {
		return nil, errorf(diag.CodeInvalidOperand, node, "cannot convert %s to %s", v.Type(), t)
	}
	if c, ok := v.(*ir.Constant); ok {
		out, err := convertConstant(c, t)
		if err != nil {
			return nil, operandError(node, err)
		}
		return out, nil
	}
	return emit(fl, ir.NewConvert(t, v)).Result(), nil
}

func (fl *funcLowerer) splat(node wgsl.Node, t ir.VectorType, v ir.Value) (ir.Value, error) {
	v, err := materialize(v, t.Scalar)
	if err != nil {
		return nil, operandError(node, err)
	}
	if c, ok := v.(*ir.Constant); ok {
		return repeat(t, c, int(t.Size)), nil
	}
	return emit(fl, ir.NewConstruct(t, v)).Result(), nil
}

// components builds a vector from scalars and smaller vectors whose
// components add up to n.
func (fl *funcLowerer) components(node wgsl.Node, t ir.Type, n int, elem ir.ScalarType, args []ir.Value) (ir.Value, error) {
	total := 0
	allConst := true
	for i, a := range args {
		v, err := materialize(a, ir.WithScalar(a.Type(), elem))
		if err != nil {
			return nil, operandError(node, err)
		}
		args[i] = v
		switch at := v.Type().(type) {
		case ir.ScalarType:
			total++
		case ir.VectorType:
			total += int(at.Size)
		default:
			return nil, errorf(diag.CodeInvalidOperand, node, "invalid argument of type %s for %s", at, t)
		}
		if _, ok := v.(*ir.Constant); !ok {
			allConst = false
		}
	}
	if total != n {
		return nil, errorf(diag.CodeInvalidOperand, node, "%s needs %d components, got %d", t, n, total)
	}
	if !allConst {
		return emit(fl, ir.NewConstruct(t, args...)).Result(), nil
	}

	var flat []*ir.Constant
	for _, a := range args {
		c := a.(*ir.Constant)
		if vt, ok := c.Type().(ir.VectorType); ok {
			for i := 0; i < int(vt.Size); i++ {
				flat = append(flat, component(c, i))
			}
			continue
		}
		flat = append(flat, c)
	}
	return ir.CompositeConst(t, flat...), nil
}

// columns regroups a constant matrix built from scalars into column
// vectors. Non-constant constructions keep their scalar operands.
func columns(t ir.MatrixType, v ir.Value) ir.Value {
	c, ok := v.(*ir.Constant)
	if !ok {
		return v
	}
	comp := c.Value.(ir.CompositeValue).Components
	cols := make([]*ir.Constant, t.Columns)
	for i := range cols {
		cols[i] = ir.CompositeConst(t.ColumnType(), comp[i*int(t.Rows):(i+1)*int(t.Rows)]...)
	}
	return ir.CompositeConst(t, cols...)
}

// aggregate builds an array, struct or matrix from one argument per
// element.
func (fl *funcLowerer) aggregate(node wgsl.Node, t ir.Type, args []ir.Value, elem func(int) ir.Type) (ir.Value, error) {
	consts := make([]*ir.Constant, len(args))
	allConst := true
	for i, a := range args {
		v, err := materialize(a, elem(i))
		if err != nil {
			return nil, operandError(node, err)
		}
		args[i] = v
		if c, ok := v.(*ir.Constant); ok {
			consts[i] = c
		} else {
			allConst = false
		}
	}
	if allConst {
		return ir.CompositeConst(t, consts...), nil
	}
	return emit(fl, ir.NewConstruct(t, args...)).Result(), nil
}
