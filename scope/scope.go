// Package scope provides a nested symbol table.
//
// A Stack is an ordered list of frames. The bottom frame holds module-global
// bindings and is never popped; Push and Pop bracket lexical scopes such as
// function bodies, blocks and loop bodies. Lookups walk from the innermost
// frame outwards.
package scope

// Stack is a stack of symbol frames mapping K to V.
type Stack[K comparable, V any] struct {
	frames []map[K]V
}

// New returns a stack containing only the global frame.
func New[K comparable, V any]() *Stack[K, V] {
	return &Stack[K, V]{frames: []map[K]V{make(map[K]V)}}
}

// Push opens a new innermost frame.
func (s *Stack[K, V]) Push() {
	s.frames = append(s.frames, make(map[K]V))
}

// Pop discards the innermost frame. It panics when only the global frame
// remains.
func (s *Stack[K, V]) Pop() {
	if len(s.frames) <= 1 {
		panic("scope: Pop of the global frame")
	}
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
}

// Set binds key to value in the innermost frame. It returns the value that
// was previously bound to key in that same frame, if any.
func (s *Stack[K, V]) Set(key K, value V) (prev V, ok bool) {
	top := s.frames[len(s.frames)-1]
	prev, ok = top[key]
	top[key] = value
	return prev, ok
}

// Get looks key up from the innermost frame outwards.
func (s *Stack[K, V]) Get(key K) (V, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i][key]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// GetGlobal looks key up in the global frame only.
func (s *Stack[K, V]) GetGlobal(key K) (V, bool) {
	v, ok := s.frames[0][key]
	return v, ok
}

// SetGlobal binds key in the global frame, returning the previous binding.
func (s *Stack[K, V]) SetGlobal(key K, value V) (prev V, ok bool) {
	prev, ok = s.frames[0][key]
	s.frames[0][key] = value
	return prev, ok
}

// Depth returns the number of frames, including the global frame.
func (s *Stack[K, V]) Depth() int {
	return len(s.frames)
}

// IsGlobal reports whether only the global frame is open.
func (s *Stack[K, V]) IsGlobal() bool {
	return len(s.frames) == 1
}

// Clone returns a stack with the same frames. Frame maps are copied, so
// bindings made in the clone do not leak into s.
func (s *Stack[K, V]) Clone() *Stack[K, V] {
	out := &Stack[K, V]{frames: make([]map[K]V, len(s.frames))}
	for i, f := range s.frames {
		m := make(map[K]V, len(f))
		for k, v := range f {
			m[k] = v
		}
		out.frames[i] = m
	}
	return out
}
