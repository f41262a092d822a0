package lower

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/ir"
	"github.com/gogpu/wgslfront/resolver"
	"github.com/gogpu/wgslfront/scope"
	"github.com/gogpu/wgslfront/wgsl"
)

// Options configures lowering.
type Options struct {
	// Parallel lowers function bodies concurrently.
	Parallel bool
}

// Lower builds the IR of module. graph must come from resolver.Build on
// the same module and must not contain errors. On failure the error is a
// diag.List.
func Lower(module *wgsl.Module, graph *resolver.Graph, opts Options) (*ir.Module, error) {
	if graph.Diagnostics.ContainsErrors() {
		return nil, graph.Diagnostics
	}

	ml := &moduleLowerer{
		ast:     module,
		graph:   graph,
		opts:    opts,
		module:  ir.NewModule(),
		globals: scope.New[string, binding](),
	}
	if err := ml.declarations(); err != nil {
		ml.report(err)
		return nil, ml.diags
	}
	if ml.diags.ContainsErrors() {
		return nil, ml.diags
	}

	ml.bodies(context.Background())
	if ml.diags.ContainsErrors() {
		return nil, ml.diags
	}

	ml.module.CollectTypes()
	return ml.module, nil
}

// moduleLowerer holds the state shared by all function lowerings. It is
// only written while module-scope declarations are processed.
type moduleLowerer struct {
	ast    *wgsl.Module
	graph  *resolver.Graph
	opts   Options
	module *ir.Module

	globals *scope.Stack[string, binding]
	jobs    []bodyJob

	diags diag.List
}

type bodyJob struct {
	decl *wgsl.FunctionDecl
	fn   *ir.Function
}

// declarations lowers the module-scope declarations in dependency order.
// Errors in one declaration are reported and the next one is processed;
// only internal errors stop the pass.
func (ml *moduleLowerer) declarations() error {
	for _, d := range ml.graph.Ordered {
		var err error
		switch d := d.(type) {
		case *wgsl.StructDecl:
			err = ml.structDecl(d)
		case *wgsl.AliasDecl:
			err = ml.aliasDecl(d)
		case *wgsl.ConstDecl:
			err = ml.constDecl(d)
		case *wgsl.VarDecl:
			err = ml.varDecl(d)
		case *wgsl.OverrideDecl:
			err = errorf(diag.CodeNotImplemented, d, "override declarations are not yet implemented")
		case *wgsl.ConstAssertDecl:
			err = ml.constAssert(d)
		case *wgsl.FunctionDecl:
			err = ml.functionShell(d)
		default:
			return internalf(d, "unhandled declaration type: %T", d)
		}
		if err != nil {
			if isInternal(err) {
				return err
			}
			ml.report(err)
		}
	}
	return nil
}

func (ml *moduleLowerer) structDecl(d *wgsl.StructDecl) error {
	fl := ml.constLowerer()
	st := &ir.StructType{Name: d.Name}
	for _, m := range d.Members {
		t, err := fl.resolveType(m.Type)
		if err != nil {
			return err
		}
		b, err := fl.binding(m.Attributes)
		if err != nil {
			return err
		}
		st.Members = append(st.Members, ir.StructMember{Name: m.Name, Type: t, Binding: b})
	}
	ml.globals.SetGlobal(d.Name, binding{decl: d, kind: bindType, typ: st})
	return nil
}

func (ml *moduleLowerer) aliasDecl(d *wgsl.AliasDecl) error {
	t, err := ml.constLowerer().resolveType(d.Type)
	if err != nil {
		return err
	}
	ml.globals.SetGlobal(d.Name, binding{decl: d, kind: bindType, typ: t})
	return nil
}

func (ml *moduleLowerer) constDecl(d *wgsl.ConstDecl) error {
	c, err := ml.constLowerer().constDecl(d)
	if err != nil {
		return err
	}
	ml.globals.SetGlobal(d.Name, binding{decl: d, kind: bindValue, value: c})
	return nil
}

func (ml *moduleLowerer) constAssert(d *wgsl.ConstAssertDecl) error {
	return ml.constLowerer().constAssert(d)
}

func (ml *moduleLowerer) varDecl(d *wgsl.VarDecl) error {
	fl := ml.constLowerer()

	var store ir.Type
	if d.Type != nil {
		t, err := fl.resolveType(d.Type)
		if err != nil {
			return err
		}
		store = t
	}
	var init ir.Value
	if d.Init != nil {
		c, err := fl.constant(d.Init)
		if err != nil {
			return err
		}
		if store == nil {
			init, err = concretize(c)
		} else {
			init, err = materialize(c, store)
		}
		if err != nil {
			return errorf(diag.CodeInvalidOperand, d.Init, "%v", err)
		}
		store = init.Type()
	}
	if store == nil {
		return errorf(diag.CodeInvalidOperand, d, "module-scope var '%s' needs a type or an initializer", d.Name)
	}

	ptr, err := modulePointerType(d, store)
	if err != nil {
		return err
	}
	v := ir.Append(ml.module.Root, ir.NewVar(d.Name, ptr, init))

	group, hasGroup := wgsl.FindAttribute(d.Attributes, "group")
	bind, hasBinding := wgsl.FindAttribute(d.Attributes, "binding")
	if hasGroup && hasBinding {
		g, err := fl.attributeUint(group)
		if err != nil {
			return err
		}
		b, err := fl.attributeUint(bind)
		if err != nil {
			return err
		}
		v.BindingPoint = &ir.ResourceBinding{Group: g, Binding: b}
	}

	ml.globals.SetGlobal(d.Name, binding{decl: d, kind: bindRef, value: v.Result()})
	return nil
}

// modulePointerType returns the pointer type of a module-scope variable.
// Variables without an address space hold textures and samplers.
func modulePointerType(d *wgsl.VarDecl, store ir.Type) (ir.PointerType, error) {
	space := ir.SpaceHandle
	if d.AddressSpace != "" {
		s, ok := ir.ParseAddressSpace(d.AddressSpace)
		if !ok || s == ir.SpaceFunction {
			return ir.PointerType{}, errorf(diag.CodeInvalidOperand, d, "invalid address space '%s' for module-scope var", d.AddressSpace)
		}
		space = s
	}

	access := ir.AccessReadWrite
	switch space {
	case ir.SpaceUniform, ir.SpaceHandle, ir.SpacePushConstant:
		access = ir.AccessRead
	case ir.SpaceStorage:
		access = ir.AccessRead
		if d.AccessMode != "" {
			a, ok := ir.ParseAccessMode(d.AccessMode)
			if !ok {
				return ir.PointerType{}, errorf(diag.CodeInvalidOperand, d, "invalid access mode '%s'", d.AccessMode)
			}
			access = a
		}
	}
	return ir.PointerType{Base: store, Space: space, Access: access}, nil
}

// bodies lowers every function body, concurrently when requested.
// Diagnostics are merged in module order.
func (ml *moduleLowerer) bodies(ctx context.Context) {
	results := make([]diag.List, len(ml.jobs))

	if !ml.opts.Parallel {
		for i, job := range ml.jobs {
			var err error
			results[i], err = ml.lowerBody(ctx, job)
			if err != nil {
				break
			}
		}
	} else {
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i, job := range ml.jobs {
			g.Go(func() error {
				var err error
				results[i], err = ml.lowerBody(ctx, job)
				return err
			})
		}
		// Internal errors are already recorded in results.
		_ = g.Wait()
	}

	for _, r := range results {
		ml.diags.Append(r)
	}
}

// lowerBody lowers one function body. The returned error is non-nil only
// for internal errors, which cancel the remaining lowerings.
func (ml *moduleLowerer) lowerBody(ctx context.Context, job bodyJob) (diag.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil
	}
	fl := newFuncLowerer(ml, job.fn)
	fl.body(job.decl)
	if fl.diags.ContainsInternal() {
		return fl.diags, fl.diags
	}
	return fl.diags, nil
}

func (ml *moduleLowerer) report(err error) {
	reportTo(&ml.diags, err)
}
