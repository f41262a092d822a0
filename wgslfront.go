// Package wgslfront is the front half of a Pure Go WGSL compiler.
//
// It turns WGSL source into a control-flow graph IR in four phases:
//   - Parse: tokens and an AST with ordered module-scope declarations
//   - Resolve: identifier binding and a dependency-ordered declaration list
//   - Lower: structured IR with explicit merge blocks and block parameters
//   - MergeReturn: every function rewritten to a single return (optional)
//
// Example usage:
//
//	source := `
//	fn clamp01(x: f32) -> f32 {
//	    if x < 0.0 { return 0.0; }
//	    return min(x, 1.0);
//	}
//	`
//	module, err := wgslfront.Compile(source, wgslfront.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(ir.Disassemble(module))
//
// Diagnostics from resolving and lowering are returned as a diag.List and
// can be recovered with errors.As.
package wgslfront

import (
	"fmt"

	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/ir"
	"github.com/gogpu/wgslfront/ir/transform"
	"github.com/gogpu/wgslfront/lower"
	"github.com/gogpu/wgslfront/resolver"
	"github.com/gogpu/wgslfront/wgsl"
)

// Options configures compilation.
type Options struct {
	// Resolver configures identifier resolution.
	Resolver resolver.Options

	// Lower configures IR construction.
	Lower lower.Options

	// MergeReturn rewrites every function to have a single return.
	MergeReturn bool

	// Validate checks the IR after the last phase.
	Validate bool
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		MergeReturn: true,
		Validate:    true,
	}
}

// Compile compiles WGSL source code to IR.
func Compile(source string, opts Options) (*ir.Module, error) {
	return CompileFile("", source, opts)
}

// CompileFile compiles WGSL source code to IR. name is used in error
// messages.
//
// The compilation pipeline is:
//  1. Parse WGSL source to AST
//  2. Resolve identifiers and order declarations by dependency
//  3. Lower AST to IR
//  4. Merge returns (if enabled)
//  5. Validate IR (if enabled)
func CompileFile(name, source string, opts Options) (*ir.Module, error) {
	ast, err := ParseFile(name, source)
	if err != nil {
		return nil, err
	}

	graph, err := Resolve(ast, opts.Resolver)
	if err != nil {
		return nil, err
	}

	module, err := Lower(ast, graph, opts.Lower)
	if err != nil {
		return nil, err
	}

	if opts.MergeReturn {
		if err := transform.MergeReturn(module); err != nil {
			return nil, fmt.Errorf("merge return error: %w", err)
		}
	}

	if opts.Validate {
		if err := Validate(module, ir.ValidateOptions{RequireSingleReturn: opts.MergeReturn}); err != nil {
			return nil, err
		}
	}

	return module, nil
}

// Parse parses WGSL source code to AST (Abstract Syntax Tree).
func Parse(source string) (*wgsl.Module, error) {
	return ParseFile("", source)
}

// ParseFile parses WGSL source code to AST. Spans in the AST and in parse
// errors carry name.
func ParseFile(name, source string) (*wgsl.Module, error) {
	tokens, err := wgsl.NewLexer(source).Tokenize()
	if err != nil {
		return nil, fmt.Errorf("tokenization error: %w", err)
	}

	module, err := wgsl.NewParser(tokens).WithSource(name, source).Parse()
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	return module, nil
}

// Resolve binds identifiers to declarations and orders the module-scope
// declarations so that every declaration follows its dependencies.
func Resolve(module *wgsl.Module, opts resolver.Options) (*resolver.Graph, error) {
	graph, err := resolver.Build(module, opts)
	if err != nil {
		return nil, fmt.Errorf("resolve error: %w", err)
	}
	return graph, nil
}

// Lower converts a resolved WGSL AST to IR.
func Lower(module *wgsl.Module, graph *resolver.Graph, opts lower.Options) (*ir.Module, error) {
	m, err := lower.Lower(module, graph, opts)
	if err != nil {
		return nil, fmt.Errorf("lowering error: %w", err)
	}
	return m, nil
}

// Validate validates an IR module for structural correctness. Validation
// errors are reported as internal diagnostics: the phases above never
// produce invalid IR from a module they accept.
func Validate(module *ir.Module, opts ir.ValidateOptions) error {
	errs, err := ir.Validate(module, opts)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if len(errs) == 0 {
		return nil
	}

	var diags diag.List
	for _, e := range errs {
		diags.AddInternal(diag.SystemValidator, diag.CodeBrokenInvariant, wgsl.Span{}, "%s", e.Error())
	}
	return fmt.Errorf("validation failed: %w", diags)
}
