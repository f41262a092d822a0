package resolver

import (
	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/wgsl"
)

// Edge is a dependency of one module-scope declaration on another.
type Edge struct {
	From   wgsl.Decl
	To     wgsl.Decl
	Source wgsl.Span // first reference of To from within From
	Action string    // "calls" or "references"
}

// Graph is the result of dependency analysis.
type Graph struct {
	// Ordered holds the declarations in dependency order: every declaration
	// appears after the declarations it depends on, ties broken by source
	// order. Declarations on a dependency cycle are omitted.
	Ordered []wgsl.Decl

	// Resolved maps each reference node (*wgsl.Ident or *wgsl.NamedType) to
	// the node that declares the referenced symbol: a wgsl.Decl, a
	// *wgsl.Parameter or a function-scope declaration. References to
	// predeclared names are absent.
	Resolved map[wgsl.Node]wgsl.Node

	// Shadows maps a parameter or function-scope declaration to the outer
	// declaration it hides.
	Shadows map[wgsl.Node]wgsl.Node

	// Cyclic holds the declarations that take part in a dependency cycle.
	Cyclic map[wgsl.Decl]bool

	// Diagnostics holds every error and note reported during analysis.
	Diagnostics diag.List

	globals map[string]wgsl.Decl
	deps    map[wgsl.Decl][]Edge
}

func newGraph() *Graph {
	return &Graph{
		Resolved: make(map[wgsl.Node]wgsl.Node),
		Shadows:  make(map[wgsl.Node]wgsl.Node),
		Cyclic:   make(map[wgsl.Decl]bool),
		globals:  make(map[string]wgsl.Decl),
		deps:     make(map[wgsl.Decl][]Edge),
	}
}

// Dependencies returns the distinct dependencies of decl in order of first
// reference.
func (g *Graph) Dependencies(decl wgsl.Decl) []Edge {
	return g.deps[decl]
}

// Global returns the module-scope declaration named name. When a name is
// declared more than once the first declaration is returned.
func (g *Graph) Global(name string) (wgsl.Decl, bool) {
	d, ok := g.globals[name]
	return d, ok
}

// ResolvedDecl returns the declaration that ref resolves to.
func (g *Graph) ResolvedDecl(ref wgsl.Node) (wgsl.Node, bool) {
	n, ok := g.Resolved[ref]
	return n, ok
}

// Build analyzes module. The returned graph is always non-nil; the error is
// the graph's diagnostic list when it contains errors.
func Build(module *wgsl.Module, opts Options) (*Graph, error) {
	a := &analysis{graph: newGraph(), edges: make(map[edgeKey]*Edge)}
	a.run(module, opts)
	return a.graph, a.graph.Diagnostics.Err()
}

// global is a module-scope declaration together with its dependencies.
type global struct {
	decl  wgsl.Decl
	index int
	deps  []*global
}

type edgeKey struct {
	from, to *global
}

type analysis struct {
	graph  *Graph
	order  []*global          // declaration order
	byName map[string]*global // first declaration of each name
	byDecl map[wgsl.Decl]*global
	edges  map[edgeKey]*Edge
}

func (a *analysis) run(module *wgsl.Module, opts Options) {
	a.gatherGlobals(module)
	if !a.determineDependencies() {
		return
	}
	sorted := a.sortGlobals()
	for _, g := range sorted {
		if !a.graph.Cyclic[g.decl] {
			a.graph.Ordered = append(a.graph.Ordered, g.decl)
		}
	}
	if opts.RejectOutOfOrder && !a.graph.Diagnostics.ContainsErrors() {
		a.checkOrder()
	}
}

func (a *analysis) gatherGlobals(module *wgsl.Module) {
	a.byName = make(map[string]*global, len(module.Decls))
	a.byDecl = make(map[wgsl.Decl]*global, len(module.Decls))
	for i, d := range module.Decls {
		g := &global{decl: d, index: i}
		a.order = append(a.order, g)
		a.byDecl[d] = g
		name := wgsl.DeclName(d)
		if name == "" {
			continue
		}
		if _, exists := a.byName[name]; !exists {
			a.byName[name] = g
			a.graph.globals[name] = d
		}
	}
}

// determineDependencies scans every global in declaration order. It returns
// false if an internal error stopped the scan.
func (a *analysis) determineDependencies() bool {
	s := newScanner(a)
	for _, g := range a.order {
		s.scan(g)
		if s.fatal {
			return false
		}
		if !s.scopes.IsGlobal() {
			a.graph.Diagnostics.AddInternal(diag.SystemResolver, diag.CodeBrokenInvariant, g.decl.Pos(),
				"scope stack has depth %d after scanning '%s'", s.scopes.Depth(), wgsl.DeclName(g.decl))
			return false
		}
	}
	return true
}

// addEdge records a dependency of from on to. Only the first reference
// creates an edge.
func (a *analysis) addEdge(from, to *global, span wgsl.Span, action string) {
	key := edgeKey{from, to}
	if _, exists := a.edges[key]; exists {
		return
	}
	e := &Edge{From: from.decl, To: to.decl, Source: span, Action: action}
	a.edges[key] = e
	from.deps = append(from.deps, to)
	a.graph.deps[from.decl] = append(a.graph.deps[from.decl], *e)
}

func (a *analysis) edgeInfo(from, to *global) (*Edge, bool) {
	e, ok := a.edges[edgeKey{from, to}]
	if !ok {
		a.graph.Diagnostics.AddInternal(diag.SystemResolver, diag.CodeBrokenInvariant, to.decl.Pos(),
			"failed to find dependency info for edge: '%s' -> '%s'",
			wgsl.DeclName(from.decl), wgsl.DeclName(to.decl))
	}
	return e, ok
}
