package ir

import "fmt"

// UnaryResultType returns the type of applying op to a value of type t.
func UnaryResultType(op UnaryOperator, t Type) (Type, error) {
	s, ok := ScalarOf(t)
	if !ok {
		return nil, fmt.Errorf("unary %s: operand must be numeric or bool, got %s", op, t)
	}
	switch op {
	case UnaryLogicalNot:
		if s.Kind != ScalarBool {
			return nil, fmt.Errorf("unary not: operand must be bool, got %s", t)
		}
	case UnaryBitwiseNot:
		if !s.Kind.IsInteger() {
			return nil, fmt.Errorf("unary complement: operand must be integer, got %s", t)
		}
	case UnaryNegate:
		if s.Kind == ScalarBool || s.Kind == ScalarUint {
			return nil, fmt.Errorf("unary negation: operand must be signed, got %s", t)
		}
	}
	// Unary operators preserve the operand type
	return t, nil
}

// BinaryResultType returns the type of a binary operation. Operands must
// already have matching scalar types.
func BinaryResultType(op BinaryOperator, left, right Type) (Type, error) {
	ls, lok := ScalarOf(left)
	rs, rok := ScalarOf(right)
	if !lok || !rok {
		return nil, fmt.Errorf("binary %s: operands must be scalars, vectors or matrices, got %s and %s", op, left, right)
	}
	if op == BinaryShiftLeft || op == BinaryShiftRight {
		// The shift amount never changes the type of the shifted value.
		return left, nil
	}
	if ls != rs {
		return nil, fmt.Errorf("binary %s: mismatched operand types %s and %s", op, left, right)
	}

	// Comparison operators return bool or vec<bool>
	if op.IsComparison() {
		if vec, ok := widest(left, right).(VectorType); ok {
			return VectorType{Size: vec.Size, Scalar: Bool}, nil
		}
		return Bool, nil
	}

	if op == BinaryMultiply {
		return mulResultType(left, right), nil
	}

	// Arithmetic and bitwise operators: if one side is scalar and the other
	// is vector, the result is vector.
	return widest(left, right), nil
}

// mulResultType determines the result type of a multiplication:
// scalar*vec->vec, scalar*mat->mat, mat*vec->vec(rows), vec*mat->vec(cols).
func mulResultType(left, right Type) Type {
	_, leftIsScalar := left.(ScalarType)
	_, rightIsScalar := right.(ScalarType)
	_, leftIsVec := left.(VectorType)
	_, rightIsVec := right.(VectorType)
	leftMat, leftIsMat := left.(MatrixType)
	rightMat, rightIsMat := right.(MatrixType)

	switch {
	case leftIsScalar && (rightIsVec || rightIsMat):
		return right
	case (leftIsVec || leftIsMat) && rightIsScalar:
		return left
	case leftIsMat && rightIsVec:
		return VectorType{Size: leftMat.Rows, Scalar: leftMat.Scalar}
	case leftIsVec && rightIsMat:
		return VectorType{Size: rightMat.Columns, Scalar: rightMat.Scalar}
	case leftIsMat && rightIsMat:
		return MatrixType{Columns: rightMat.Columns, Rows: leftMat.Rows, Scalar: leftMat.Scalar}
	}
	return left
}

func widest(left, right Type) Type {
	if _, ok := left.(ScalarType); ok {
		return right
	}
	return left
}

// ElementType returns the type produced by indexing into t. member selects
// the struct member and is ignored for other types.
func ElementType(t Type, member int) (Type, error) {
	switch t := t.(type) {
	case ArrayType:
		return t.Base, nil
	case VectorType:
		return t.Scalar, nil
	case MatrixType:
		// Matrix access returns a column vector
		return t.ColumnType(), nil
	case *StructType:
		if member < 0 || member >= len(t.Members) {
			return nil, fmt.Errorf("struct member index %d out of range", member)
		}
		return t.Members[member].Type, nil
	}
	return nil, fmt.Errorf("cannot index into type %s", t)
}

// SwizzleResultType returns the type of selecting n components of the
// vector type t.
func SwizzleResultType(t Type, n int) (Type, error) {
	vec, ok := t.(VectorType)
	if !ok {
		return nil, fmt.Errorf("swizzle base must be vector, got %s", t)
	}
	if n == 1 {
		return vec.Scalar, nil
	}
	if n < 1 || n > 4 {
		return nil, fmt.Errorf("invalid swizzle size %d", n)
	}
	return VectorType{Size: VectorSize(n), Scalar: vec.Scalar}, nil
}

// SwizzleIndex maps a swizzle letter (xyzw or rgba) to a component index.
func SwizzleIndex(c byte) (uint32, bool) {
	switch c {
	case 'x', 'r':
		return 0, true
	case 'y', 'g':
		return 1, true
	case 'z', 'b':
		return 2, true
	case 'w', 'a':
		return 3, true
	}
	return 0, false
}
