package ir

import "testing"

func TestBinaryResultType(t *testing.T) {
	vec3f := VectorType{Size: 3, Scalar: F32}
	vec2i := VectorType{Size: 2, Scalar: I32}
	vec2u := VectorType{Size: 2, Scalar: U32}
	mat := MatrixType{Columns: 4, Rows: 3, Scalar: F32}

	tests := []struct {
		name        string
		op          BinaryOperator
		left, right Type
		want        Type
	}{
		{"add", BinaryAdd, I32, I32, I32},
		{"scalar times vector", BinaryMultiply, F32, vec3f, vec3f},
		{"matrix times vector", BinaryMultiply, mat, VectorType{Size: 4, Scalar: F32}, vec3f},
		{"compare vectors", BinaryLess, vec2i, vec2i, VectorType{Size: 2, Scalar: Bool}},
		{"shift left", BinaryShiftLeft, I32, U32, I32},
		{"shift right", BinaryShiftRight, I32, U32, I32},
		{"shift vector", BinaryShiftLeft, vec2i, vec2u, vec2i},
	}

	for _, tt := range tests {
		got, err := BinaryResultType(tt.op, tt.left, tt.right)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestBinaryResultTypeMismatch(t *testing.T) {
	if _, err := BinaryResultType(BinaryAdd, I32, U32); err == nil {
		t.Error("expected an error for i32 + u32")
	}
}
