package resolver

import (
	"fmt"
	"strings"

	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/wgsl"
)

// traversalStack is the set of globals on the current depth-first path,
// kept in path order.
type traversalStack struct {
	list []*global
	set  map[*global]bool
}

func (s *traversalStack) push(g *global) bool {
	if s.set[g] {
		return false
	}
	s.list = append(s.list, g)
	s.set[g] = true
	return true
}

func (s *traversalStack) pop() {
	g := s.list[len(s.list)-1]
	s.list = s.list[:len(s.list)-1]
	delete(s.set, g)
}

// traverse performs an iterative depth-first walk of root's dependencies.
// enter reports whether a global should be descended into; exit is called
// after the dependencies of every entered global are done.
func traverse(root *global, enter func(*global) bool, exit func(*global)) {
	type entry struct {
		g   *global
		dep int
	}
	if !enter(root) {
		return
	}
	stack := []entry{{root, 0}}
	for {
		top := &stack[len(stack)-1]
		if top.dep < len(top.g.deps) {
			dep := top.g.deps[top.dep]
			if enter(dep) {
				stack = append(stack, entry{dep, 0})
			} else {
				top.dep++
			}
			continue
		}
		exit(top.g)
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			return
		}
		stack[len(stack)-1].dep++
	}
}

// sortGlobals returns the globals in dependency order, reporting every
// cycle found along the way.
func (a *analysis) sortGlobals() []*global {
	var sorted []*global
	done := make(map[*global]bool, len(a.order))
	add := func(g *global) {
		if !done[g] {
			done[g] = true
			sorted = append(sorted, g)
		}
	}

	for _, root := range a.order {
		stack := &traversalStack{set: make(map[*global]bool)}
		traverse(root,
			func(g *global) bool {
				if !stack.push(g) {
					a.cyclicDependencyFound(g, stack.list)
					return false
				}
				if done[g] {
					// exit is not called for skipped globals.
					stack.pop()
					return false
				}
				return true
			},
			func(g *global) {
				add(g)
				stack.pop()
			})
		add(root)

		if len(stack.list) != 0 {
			a.graph.Diagnostics.AddInternal(diag.SystemResolver, diag.CodeBrokenInvariant, root.decl.Pos(),
				"stack not empty after traversing dependencies of '%s'", wgsl.DeclName(root.decl))
			return sorted
		}
	}
	return sorted
}

// cyclicDependencyFound reports the cycle that closes at root. stack is the
// traversal path, which contains root.
func (a *analysis) cyclicDependencyFound(root *global, stack []*global) {
	start := -1
	for i, g := range stack {
		if g == root {
			start = i
			break
		}
	}
	if start < 0 {
		a.graph.Diagnostics.AddInternal(diag.SystemResolver, diag.CodeBrokenInvariant, root.decl.Pos(),
			"cycle root '%s' not on traversal stack", wgsl.DeclName(root.decl))
		return
	}
	loop := stack[start:]

	var msg strings.Builder
	msg.WriteString("cyclic dependency found: ")
	for _, g := range loop {
		fmt.Fprintf(&msg, "'%s' -> ", wgsl.DeclName(g.decl))
	}
	fmt.Fprintf(&msg, "'%s'", wgsl.DeclName(root.decl))
	a.graph.Diagnostics.AddError(diag.SystemResolver, diag.CodeCyclicDependency, root.decl.Pos(), "%s", msg.String())

	for i, from := range loop {
		to := loop[(i+1)%len(loop)]
		a.graph.Cyclic[from.decl] = true
		e, ok := a.edgeInfo(from, to)
		if !ok {
			continue
		}
		a.graph.Diagnostics.AddNote(diag.SystemResolver, e.Source, "%s '%s' %s %s '%s' here",
			wgsl.DeclKind(from.decl), wgsl.DeclName(from.decl), e.Action,
			wgsl.DeclKind(to.decl), wgsl.DeclName(to.decl))
	}
}

// checkOrder reports the first use of each module-scope declaration that
// precedes it in source order.
func (a *analysis) checkOrder() {
	seen := make(map[*global]bool, len(a.order))
	for _, g := range a.order {
		for _, dep := range g.deps {
			if seen[dep] || dep == g {
				continue
			}
			e, ok := a.edgeInfo(g, dep)
			if !ok {
				return
			}
			kind, name := wgsl.DeclKind(dep.decl), wgsl.DeclName(dep.decl)
			a.graph.Diagnostics.AddError(diag.SystemResolver, diag.CodeUsedBeforeDeclared, e.Source,
				"%s '%s' used before it has been declared", kind, name)
			a.graph.Diagnostics.AddNote(diag.SystemResolver, dep.decl.Pos(), "%s '%s' declared here", kind, name)
		}
		seen[g] = true
	}
}
