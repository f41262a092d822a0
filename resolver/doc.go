// Package resolver builds the dependency graph of a WGSL module.
//
// Build scans every top-level declaration, resolves identifier and type
// references through a scope stack, records "depends on" edges between
// module-scope declarations and sorts the declarations so that every
// declaration follows the declarations it uses.
//
//	graph, err := resolver.Build(module, resolver.Options{})
//	if err != nil {
//		// err is a diag.List
//	}
//	for _, decl := range graph.Ordered {
//		...
//	}
//
// Problems are reported as diagnostics and scanning continues, so a single
// run surfaces every unknown identifier, redeclaration and cycle.
package resolver
