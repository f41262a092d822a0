// Package wgsl provides the WGSL front-end consumed by the dependency
// resolver and the IR builder.
//
// The parser produces a Module whose Decls keep source order. Type names
// such as f32 or vec3 are ordinary identifiers here, so a later pass resolves
// them through the same scopes as user declarations.
//
//	tokens, err := wgsl.NewLexer(source).Tokenize()
//	if err != nil {
//	    return err
//	}
//	module, err := wgsl.NewParser(tokens).Parse()
//	if err != nil {
//	    return err
//	}
//	wgsl.Inspect(module, func(n wgsl.Node) bool {
//	    // visit every node in source order
//	    return true
//	})
package wgsl
