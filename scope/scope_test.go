package scope

import "testing"

func TestGetWalksOutwards(t *testing.T) {
	s := New[string, int]()
	s.Set("a", 1)
	s.Push()
	s.Set("b", 2)
	s.Push()
	s.Set("a", 3)

	tests := []struct {
		key  string
		want int
		ok   bool
	}{
		{"a", 3, true},
		{"b", 2, true},
		{"c", 0, false},
	}
	for _, tt := range tests {
		got, ok := s.Get(tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Get(%q) = %d, %v; want %d, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}

	s.Pop()
	if got, _ := s.Get("a"); got != 1 {
		t.Errorf("after Pop, Get(a) = %d, want 1", got)
	}
	s.Pop()
	if _, ok := s.Get("b"); ok {
		t.Error("b must not be visible after its frame is popped")
	}
}

func TestSetReportsSameFrameRebinding(t *testing.T) {
	s := New[string, string]()
	if _, ok := s.Set("x", "first"); ok {
		t.Fatal("unexpected previous binding")
	}
	prev, ok := s.Set("x", "second")
	if !ok || prev != "first" {
		t.Errorf("Set returned %q, %v; want first, true", prev, ok)
	}

	// A binding in an outer frame is shadowing, not redeclaration.
	s.Push()
	if _, ok := s.Set("x", "inner"); ok {
		t.Error("Set in a nested frame must not report the outer binding")
	}
	if g, _ := s.GetGlobal("x"); g != "second" {
		t.Errorf("GetGlobal(x) = %q, want second", g)
	}
}

func TestPopGlobalPanics(t *testing.T) {
	s := New[string, int]()
	s.Push()
	s.Pop()
	if !s.IsGlobal() || s.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1", s.Depth())
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic when popping the global frame")
		}
	}()
	s.Pop()
}

func TestCloneIsIndependent(t *testing.T) {
	s := New[string, int]()
	s.SetGlobal("g", 1)
	c := s.Clone()
	c.Push()
	c.Set("l", 2)
	c.SetGlobal("g", 5)

	if _, ok := s.Get("l"); ok {
		t.Error("clone binding leaked into original")
	}
	if v, _ := s.Get("g"); v != 1 {
		t.Errorf("original global = %d, want 1", v)
	}
	if s.Depth() != 1 || c.Depth() != 2 {
		t.Errorf("depths = %d, %d; want 1, 2", s.Depth(), c.Depth())
	}
}
