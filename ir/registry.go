package ir

import "sync"

// TypeHandle is a dense index of a type in a TypeRegistry.
type TypeHandle uint32

// TypeRegistry assigns each distinct type a handle. Component types are
// registered before the types built from them, so handles are a valid
// declaration order for backends that must declare each type once.
//
// A TypeRegistry is safe for concurrent use.
type TypeRegistry struct {
	mu      sync.RWMutex
	types   []Type
	typeMap map[Type]TypeHandle
}

// NewTypeRegistry creates a new type registry for deduplication.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		types:   make([]Type, 0, 16),
		typeMap: make(map[Type]TypeHandle, 16),
	}
}

// Register returns the handle of t, registering t and its component types
// if they are new.
func (r *TypeRegistry) Register(t Type) TypeHandle {
	r.mu.RLock()
	handle, exists := r.typeMap[t]
	r.mu.RUnlock()
	if exists {
		return handle
	}

	for _, c := range components(t) {
		r.Register(c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if handle, exists := r.typeMap[t]; exists {
		return handle
	}
	handle = TypeHandle(len(r.types))
	r.types = append(r.types, t)
	r.typeMap[t] = handle
	return handle
}

// Handle returns the handle of an already registered type.
func (r *TypeRegistry) Handle(t Type) (TypeHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.typeMap[t]
	return h, ok
}

// Lookup finds a type by its handle.
func (r *TypeRegistry) Lookup(handle TypeHandle) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(handle) >= len(r.types) {
		return nil, false
	}
	return r.types[handle], true
}

// Types returns all registered types in handle order.
func (r *TypeRegistry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Type(nil), r.types...)
}

// Count returns the number of unique types registered.
func (r *TypeRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

func components(t Type) []Type {
	switch t := t.(type) {
	case VectorType:
		return []Type{t.Scalar}
	case MatrixType:
		return []Type{t.ColumnType()}
	case ArrayType:
		return []Type{t.Base}
	case *StructType:
		out := make([]Type, len(t.Members))
		for i, m := range t.Members {
			out[i] = m.Type
		}
		return out
	case PointerType:
		return []Type{t.Base}
	case AtomicType:
		return []Type{t.Scalar}
	}
	return nil
}
