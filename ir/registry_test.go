package ir

import (
	"sync"
	"testing"
)

func TestTypeRegistry_ScalarDeduplication(t *testing.T) {
	registry := NewTypeRegistry()

	f32a := registry.Register(ScalarType{Kind: ScalarFloat, Width: 4})
	f32b := registry.Register(F32)

	if f32a != f32b {
		t.Errorf("Expected same handle for identical scalar types, got %d and %d", f32a, f32b)
	}
	if registry.Count() != 1 {
		t.Errorf("Expected 1 type, got %d", registry.Count())
	}
}

func TestTypeRegistry_DifferentScalars(t *testing.T) {
	registry := NewTypeRegistry()

	handles := []TypeHandle{
		registry.Register(F32),
		registry.Register(I32),
		registry.Register(U32),
		registry.Register(F16),
		registry.Register(Bool),
	}
	seen := make(map[TypeHandle]bool)
	for _, h := range handles {
		if seen[h] {
			t.Errorf("Expected different handles for different types, got %d twice", h)
		}
		seen[h] = true
	}
	if registry.Count() != 5 {
		t.Errorf("Expected 5 types, got %d", registry.Count())
	}
}

func TestTypeRegistry_ComponentsFirst(t *testing.T) {
	registry := NewTypeRegistry()

	arr := ArrayType{Base: VectorType{Size: Vec4, Scalar: F32}, Size: 8}
	ptr := PointerType{Base: arr, Space: SpaceStorage, Access: AccessRead}
	h := registry.Register(ptr)

	want := []Type{F32, VectorType{Size: Vec4, Scalar: F32}, arr, ptr}
	got := registry.Types()
	if len(got) != len(want) {
		t.Fatalf("Expected %d types, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("type %d = %v, want %v", i, got[i], want[i])
		}
	}
	if int(h) != len(want)-1 {
		t.Errorf("pointer handle = %d, want %d", h, len(want)-1)
	}
}

func TestTypeRegistry_StructIdentity(t *testing.T) {
	registry := NewTypeRegistry()

	a := &StructType{Name: "S", Members: []StructMember{{Name: "x", Type: F32}}}
	b := &StructType{Name: "S", Members: []StructMember{{Name: "x", Type: F32}}}

	if registry.Register(a) == registry.Register(b) {
		t.Error("distinct struct declarations must get distinct handles")
	}
	if registry.Register(a) != registry.Register(a) {
		t.Error("the same struct must keep its handle")
	}
}

func TestTypeRegistry_Lookup(t *testing.T) {
	registry := NewTypeRegistry()
	h := registry.Register(MatrixType{Columns: Vec4, Rows: Vec4, Scalar: F32})

	typ, ok := registry.Lookup(h)
	if !ok {
		t.Fatal("Lookup failed for registered handle")
	}
	if typ.String() != "mat4x4<f32>" {
		t.Errorf("Lookup returned %v", typ)
	}
	if _, ok := registry.Lookup(TypeHandle(100)); ok {
		t.Error("Lookup succeeded for unknown handle")
	}
	if _, ok := registry.Handle(I32); ok {
		t.Error("Handle succeeded for unregistered type")
	}
}

func TestTypeRegistry_Concurrent(t *testing.T) {
	registry := NewTypeRegistry()
	types := []Type{F32, I32, VectorType{Size: Vec3, Scalar: F32}, ArrayType{Base: U32, Size: 4}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, typ := range types {
				registry.Register(typ)
			}
		}()
	}
	wg.Wait()

	if registry.Count() != 5 {
		t.Errorf("Expected 5 types (including u32), got %d", registry.Count())
	}
}

func TestTypeStrings(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Bool, "bool"},
		{I32, "i32"},
		{F16, "f16"},
		{AbstractInt, "abstract-int"},
		{VectorType{Size: Vec3, Scalar: U32}, "vec3<u32>"},
		{MatrixType{Columns: Vec2, Rows: Vec3, Scalar: F32}, "mat2x3<f32>"},
		{ArrayType{Base: F32, Size: 4}, "array<f32, 4>"},
		{ArrayType{Base: F32}, "array<f32>"},
		{PointerType{Base: I32, Space: SpaceFunction}, "ptr<function, i32, read_write>"},
		{AtomicType{Scalar: U32}, "atomic<u32>"},
		{SamplerType{Comparison: true}, "sampler_comparison"},
		{ImageType{Dim: Dim2D, Class: ImageClassSampled, SampledKind: ScalarFloat}, "texture_2d<f32>"},
		{ImageType{Dim: Dim2D, Arrayed: true, Class: ImageClassDepth}, "texture_depth_2d_array"},
		{ImageType{Dim: Dim2D, Class: ImageClassStorage, Format: "rgba8unorm", Access: AccessWrite}, "texture_storage_2d<rgba8unorm, write>"},
		{VoidType{}, "void"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
