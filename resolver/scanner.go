package resolver

import (
	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/scope"
	"github.com/gogpu/wgslfront/wgsl"
)

// Attributes whose operands are expressions that may reference module-scope
// declarations.
var expressionAttributes = map[string]bool{
	"align":          true,
	"binding":        true,
	"blend_src":      true,
	"group":          true,
	"id":             true,
	"location":       true,
	"size":           true,
	"workgroup_size": true,
}

// Attributes whose operands are predeclared enumerants, or that take none.
var enumerantAttributes = map[string]bool{
	"builtin":     true,
	"compute":     true,
	"const":       true,
	"diagnostic":  true,
	"fragment":    true,
	"interpolate": true,
	"invariant":   true,
	"must_use":    true,
	"vertex":      true,
}

// scanner walks declarations, resolving symbols and recording dependencies
// between module-scope declarations.
type scanner struct {
	a       *analysis
	scopes  *scope.Stack[string, wgsl.Node]
	current *global
	fatal   bool
}

func newScanner(a *analysis) *scanner {
	s := &scanner{a: a, scopes: scope.New[string, wgsl.Node]()}
	for name, g := range a.byName {
		s.scopes.SetGlobal(name, g.decl)
	}
	return s
}

func (s *scanner) diags() *diag.List {
	return &s.a.graph.Diagnostics
}

func (s *scanner) scan(g *global) {
	s.current = g
	defer func() { s.current = nil }()

	switch d := g.decl.(type) {
	case *wgsl.StructDecl:
		s.declare(d.Name, d)
		for _, m := range d.Members {
			s.attributes(m.Attributes)
			s.reference(m.Type)
		}
	case *wgsl.AliasDecl:
		s.declare(d.Name, d)
		s.reference(d.Type)
	case *wgsl.FunctionDecl:
		s.declare(d.Name, d)
		s.attributes(d.Attributes)
		s.function(d)
	case *wgsl.VarDecl:
		s.declare(d.Name, d)
		s.attributes(d.Attributes)
		s.reference(d.Type)
		s.reference(d.Init)
	case *wgsl.ConstDecl:
		s.declare(d.Name, d)
		s.reference(d.Type)
		s.reference(d.Init)
	case *wgsl.OverrideDecl:
		s.declare(d.Name, d)
		s.attributes(d.Attributes)
		s.reference(d.Type)
		s.reference(d.Init)
	case *wgsl.ConstAssertDecl:
		s.reference(d.Cond)
	default:
		s.unhandled(g.decl)
	}
}

func (s *scanner) function(fn *wgsl.FunctionDecl) {
	// Parameter types resolve before the parameters are declared, so a
	// parameter may share its name with its type.
	for _, p := range fn.Params {
		s.attributes(p.Attributes)
		s.reference(p.Type)
	}
	s.attributes(fn.ReturnAttrs)
	s.reference(fn.ReturnType)

	s.scopes.Push()
	defer s.scopes.Pop()

	for _, p := range fn.Params {
		s.shadow(p.Name, p)
		s.declare(p.Name, p)
	}
	if fn.Body != nil {
		s.statements(fn.Body.Statements)
	}
}

func (s *scanner) statements(list []wgsl.Stmt) {
	for _, st := range list {
		s.stmt(st)
	}
}

func (s *scanner) block(b *wgsl.BlockStmt) {
	if b == nil {
		return
	}
	s.scopes.Push()
	defer s.scopes.Pop()
	s.statements(b.Statements)
}

func (s *scanner) stmt(st wgsl.Stmt) {
	if st == nil || s.fatal {
		return
	}
	switch st := st.(type) {
	case *wgsl.AssignStmt:
		s.reference(st.Left)
		s.reference(st.Right)
	case *wgsl.BlockStmt:
		s.block(st)
	case *wgsl.ExprStmt:
		s.reference(st.Expr)
	case *wgsl.ForStmt:
		s.scopes.Push()
		s.stmt(st.Init)
		s.reference(st.Condition)
		s.stmt(st.Update)
		s.block(st.Body)
		s.scopes.Pop()
	case *wgsl.IncDecStmt:
		s.reference(st.Expr)
	case *wgsl.LoopStmt:
		// The continuing block sees the declarations of the body.
		s.scopes.Push()
		if st.Body != nil {
			s.statements(st.Body.Statements)
		}
		s.block(st.Continuing)
		s.scopes.Pop()
	case *wgsl.WhileStmt:
		s.reference(st.Condition)
		s.block(st.Body)
	case *wgsl.IfStmt:
		s.reference(st.Condition)
		s.block(st.Body)
		s.stmt(st.Else)
	case *wgsl.ReturnStmt:
		s.reference(st.Value)
	case *wgsl.SwitchStmt:
		s.reference(st.Selector)
		for _, c := range st.Cases {
			for _, sel := range c.Selectors {
				s.reference(sel)
			}
			s.block(c.Body)
		}
	case *wgsl.BreakIfStmt:
		s.reference(st.Condition)
	case *wgsl.VarDecl:
		s.shadow(st.Name, st)
		s.reference(st.Type)
		s.reference(st.Init)
		s.declare(st.Name, st)
	case *wgsl.LetDecl:
		s.shadow(st.Name, st)
		s.reference(st.Type)
		s.reference(st.Init)
		s.declare(st.Name, st)
	case *wgsl.ConstDecl:
		s.shadow(st.Name, st)
		s.reference(st.Type)
		s.reference(st.Init)
		s.declare(st.Name, st)
	case *wgsl.ConstAssertDecl:
		s.reference(st.Cond)
	case *wgsl.BreakStmt, *wgsl.ContinueStmt, *wgsl.DiscardStmt:
	default:
		s.unhandled(st)
	}
}

// reference resolves every identifier and type name in the expression or
// type tree rooted at n. These trees open no scopes.
func (s *scanner) reference(n wgsl.Node) {
	if n == nil || s.fatal {
		return
	}
	wgsl.Inspect(n, func(n wgsl.Node) bool {
		if s.fatal {
			return false
		}
		switch n := n.(type) {
		case *wgsl.Ident:
			s.addDependency(n, n.Name, "identifier")
		case *wgsl.NamedType:
			s.addDependency(n, n.Name, "type")
		case *wgsl.CallExpr:
			s.addDependency(n.Func, n.Func.Name, "function")
			for _, arg := range n.Args {
				s.reference(arg)
			}
			return false
		case *wgsl.Literal, *wgsl.BinaryExpr, *wgsl.UnaryExpr, *wgsl.IndexExpr,
			*wgsl.MemberExpr, *wgsl.ConstructExpr, *wgsl.BitcastExpr,
			*wgsl.ArrayType, *wgsl.PtrType:
		default:
			s.unhandled(n)
			return false
		}
		return true
	})
}

func (s *scanner) attributes(attrs []wgsl.Attribute) {
	for _, attr := range attrs {
		switch {
		case expressionAttributes[attr.Name]:
			for _, arg := range attr.Args {
				s.reference(arg)
			}
		case enumerantAttributes[attr.Name]:
		default:
			s.diags().AddError(diag.SystemResolver, diag.CodeUnknownAttribute, attr.Span,
				"unknown attribute: '@%s'", attr.Name)
		}
	}
}

// declare binds name in the innermost scope, reporting a redeclaration when
// a different node is already bound there.
func (s *scanner) declare(name string, node wgsl.Node) {
	old, ok := s.scopes.Set(name, node)
	if ok && old != node {
		s.diags().AddError(diag.SystemResolver, diag.CodeRedeclaration, node.Pos(),
			"redeclaration of '%s'", name)
		s.diags().AddNote(diag.SystemResolver, old.Pos(), "'%s' previously declared here", name)
		// Later references keep resolving to the first declaration.
		s.scopes.Set(name, old)
	}
}

// shadow records node as hiding any visible declaration of name.
func (s *scanner) shadow(name string, node wgsl.Node) {
	if outer, ok := s.scopes.Get(name); ok {
		s.a.graph.Shadows[node] = outer
	}
}

// addDependency resolves name as used by ref. When the name resolves to a
// module-scope declaration an edge is recorded from the declaration being
// scanned.
func (s *scanner) addDependency(ref wgsl.Node, name, use string) {
	resolved, ok := s.scopes.Get(name)
	if !ok {
		if !isBuiltin(name, use) {
			s.diags().AddError(diag.SystemResolver, diag.CodeUnknownIdentifier, ref.Pos(),
				"unknown %s: '%s'", use, name)
		}
		return
	}

	if global, ok := s.scopes.GetGlobal(name); ok && global == resolved && s.current != nil {
		g := s.a.byDecl[global.(wgsl.Decl)]
		action := "references"
		if _, isFn := resolved.(*wgsl.FunctionDecl); isFn && use == "function" {
			action = "calls"
		}
		s.a.addEdge(s.current, g, ref.Pos(), action)
	}
	s.a.graph.Resolved[ref] = resolved
}

func isBuiltin(name, use string) bool {
	switch use {
	case "type":
		return wgsl.IsBuiltinType(name) || wgsl.IsBuiltinEnumerant(name)
	case "function":
		return wgsl.IsBuiltinFunction(name) || wgsl.IsBuiltinType(name)
	}
	return wgsl.IsBuiltin(name)
}

// unhandled reports a node the scanner does not know and stops the scan.
func (s *scanner) unhandled(n wgsl.Node) {
	s.diags().AddInternal(diag.SystemResolver, diag.CodeUnhandledNode, n.Pos(),
		"unhandled node type: %T", n)
	s.fatal = true
}
