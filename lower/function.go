package lower

import (
	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/ir"
	"github.com/gogpu/wgslfront/scope"
	"github.com/gogpu/wgslfront/wgsl"
)

type bindingKind uint8

const (
	bindValue    bindingKind = iota // constants, lets and parameters
	bindRef                         // variables: value is a pointer to the memory
	bindType                        // structs and aliases
	bindFunction                    // user functions
)

// binding is what a name in the scope stack stands for.
type binding struct {
	decl  wgsl.Node // declaring node, as recorded in resolver.Graph.Resolved
	kind  bindingKind
	value ir.Value
	typ   ir.Type
	fn    *ir.Function
}

// control is an entry of the control stack: a loop or switch that break
// and continue can leave.
type control struct {
	inst       ir.ControlInstruction
	continuing bool // lowering the loop's continuing block
}

// funcLowerer is the context of one function lowering. It is never shared
// between goroutines.
type funcLowerer struct {
	mod *moduleLowerer
	fn  *ir.Function // nil while lowering module-scope declarations

	scopes   *scope.Stack[string, binding]
	current  *ir.Block // nil when the cursor is unreachable
	controls []control
	exits    map[ir.ControlInstruction]int

	diags diag.List
}

func newFuncLowerer(ml *moduleLowerer, fn *ir.Function) *funcLowerer {
	return &funcLowerer{
		mod:    ml,
		fn:     fn,
		scopes: ml.globals.Clone(),
		exits:  make(map[ir.ControlInstruction]int),
	}
}

// constLowerer returns a lowerer for module-scope constant expressions.
// It shares the module's global frame.
func (ml *moduleLowerer) constLowerer() *funcLowerer {
	return &funcLowerer{
		mod:    ml,
		scopes: ml.globals,
		exits:  make(map[ir.ControlInstruction]int),
	}
}

// functionShell creates the ir.Function for d without its body.
func (ml *moduleLowerer) functionShell(d *wgsl.FunctionDecl) error {
	fl := ml.constLowerer()

	var ret ir.Type
	if d.ReturnType != nil {
		t, err := fl.resolveType(d.ReturnType)
		if err != nil {
			return err
		}
		ret = t
	}
	fn := ir.NewFunction(d.Name, ret)

	b, err := fl.binding(d.ReturnAttrs)
	if err != nil {
		return err
	}
	fn.ReturnBinding = b

	for _, p := range d.Params {
		t, err := fl.resolveType(p.Type)
		if err != nil {
			return err
		}
		param := fn.AddParam(p.Name, t)
		if param.Binding, err = fl.binding(p.Attributes); err != nil {
			return err
		}
	}

	fn.Stage = entryPointStage(d.Attributes)
	if fn.Stage == ir.StageCompute {
		size, err := fl.workgroupSize(d)
		if err != nil {
			return err
		}
		fn.WorkgroupSize = size
	}

	ml.module.Functions = append(ml.module.Functions, fn)
	ml.globals.SetGlobal(d.Name, binding{decl: d, kind: bindFunction, fn: fn})
	ml.jobs = append(ml.jobs, bodyJob{decl: d, fn: fn})
	return nil
}

func entryPointStage(attrs []wgsl.Attribute) ir.ShaderStage {
	for _, a := range attrs {
		switch a.Name {
		case "vertex":
			return ir.StageVertex
		case "fragment":
			return ir.StageFragment
		case "compute":
			return ir.StageCompute
		}
	}
	return ir.StageNone
}

// workgroupSize evaluates @workgroup_size. Omitted dimensions are 1.
func (fl *funcLowerer) workgroupSize(d *wgsl.FunctionDecl) ([3]uint32, error) {
	size := [3]uint32{1, 1, 1}
	attr, ok := wgsl.FindAttribute(d.Attributes, "workgroup_size")
	if !ok {
		return size, nil
	}
	if len(attr.Args) == 0 || len(attr.Args) > 3 {
		return size, errorf(diag.CodeInvalidOperand, d, "@workgroup_size takes one to three arguments")
	}
	for i, arg := range attr.Args {
		v, err := fl.constUint(arg)
		if err != nil {
			return size, err
		}
		size[i] = v
	}
	return size, nil
}

// binding returns the shader interface binding described by attrs, or nil.
func (fl *funcLowerer) binding(attrs []wgsl.Attribute) (ir.Binding, error) {
	if a, ok := wgsl.FindAttribute(attrs, "builtin"); ok {
		name, err := enumerantArg(a, 0)
		if err != nil {
			return nil, err
		}
		b, ok := ir.ParseBuiltinValue(name)
		if !ok {
			return nil, errorf(diag.CodeInvalidOperand, a.Args[0], "unknown builtin value '%s'", name)
		}
		return ir.BuiltinBinding{Builtin: b}, nil
	}

	a, ok := wgsl.FindAttribute(attrs, "location")
	if !ok {
		return nil, nil
	}
	loc, err := fl.attributeUint(a)
	if err != nil {
		return nil, err
	}
	lb := ir.LocationBinding{Location: loc}
	if ia, ok := wgsl.FindAttribute(attrs, "interpolate"); ok {
		interp, err := interpolation(ia)
		if err != nil {
			return nil, err
		}
		lb.Interpolation = interp
	}
	return lb, nil
}

func interpolation(a wgsl.Attribute) (*ir.Interpolation, error) {
	kind, err := enumerantArg(a, 0)
	if err != nil {
		return nil, err
	}
	interp := &ir.Interpolation{}
	switch kind {
	case "perspective":
		interp.Kind = ir.InterpolationPerspective
	case "linear":
		interp.Kind = ir.InterpolationLinear
	case "flat":
		interp.Kind = ir.InterpolationFlat
	default:
		return nil, errorf(diag.CodeInvalidOperand, a.Args[0], "unknown interpolation type '%s'", kind)
	}
	if len(a.Args) < 2 {
		return interp, nil
	}
	sampling, err := enumerantArg(a, 1)
	if err != nil {
		return nil, err
	}
	switch sampling {
	case "center":
		interp.Sampling = ir.SamplingCenter
	case "centroid":
		interp.Sampling = ir.SamplingCentroid
	case "sample":
		interp.Sampling = ir.SamplingSample
	case "first":
		interp.Sampling = ir.SamplingFirst
	case "either":
		interp.Sampling = ir.SamplingEither
	default:
		return nil, errorf(diag.CodeInvalidOperand, a.Args[1], "unknown interpolation sampling '%s'", sampling)
	}
	return interp, nil
}

// enumerantArg returns the i'th argument of a, which must be a bare name.
func enumerantArg(a wgsl.Attribute, i int) (string, error) {
	if i >= len(a.Args) {
		return "", errorf(diag.CodeInvalidOperand, nil, "@%s: missing argument %d", a.Name, i+1)
	}
	id, ok := a.Args[i].(*wgsl.Ident)
	if !ok {
		return "", errorf(diag.CodeInvalidOperand, a.Args[i], "@%s: expected a name", a.Name)
	}
	return id.Name, nil
}

// attributeUint evaluates the single argument of a as a non-negative
// integer constant.
func (fl *funcLowerer) attributeUint(a wgsl.Attribute) (uint32, error) {
	if len(a.Args) != 1 {
		return 0, errorf(diag.CodeInvalidOperand, nil, "@%s takes exactly one argument", a.Name)
	}
	return fl.constUint(a.Args[0])
}

// lookup finds the binding for name as used by ref. A binding that
// disagrees with the declaration the resolver chose for ref is an internal
// error.
func (fl *funcLowerer) lookup(ref wgsl.Node, name string) (binding, bool, error) {
	b, ok := fl.scopes.Get(name)
	if !ok {
		return binding{}, false, nil
	}
	if decl, resolved := fl.mod.graph.ResolvedDecl(ref); resolved && decl != b.decl {
		return binding{}, false, internalf(ref, "'%s' is bound to %s, resolved to %s",
			name, spanOf(b.decl), spanOf(decl))
	}
	return b, true, nil
}

// body lowers the statements of d into fl.fn. Problems are recorded in
// fl.diags.
func (fl *funcLowerer) body(d *wgsl.FunctionDecl) {
	fl.scopes.Push()
	defer fl.scopes.Pop()

	for i, p := range d.Params {
		fl.scopes.Set(p.Name, binding{decl: p, kind: bindValue, value: fl.fn.Params[i]})
	}

	fl.current = fl.fn.Start
	err := fl.statements(d.Body.Statements)
	if err == nil && fl.current != nil {
		if fl.fn.ReturnType != nil {
			err = errorf(diag.CodeMissingReturn, d, "missing return statement")
		} else {
			fl.terminate(ir.NewReturn(fl.fn, nil))
		}
	}
	if err != nil {
		reportTo(&fl.diags, err)
	}
}

// emit appends inst at the cursor.
func emit[I ir.Instruction](fl *funcLowerer, inst I) I {
	return ir.Append(fl.current, inst)
}

// terminate closes the current block with t. The cursor becomes
// unreachable.
func (fl *funcLowerer) terminate(t ir.Terminator) {
	ir.Append(fl.current, t)
	fl.current = nil
}

// exit closes the current block with an exit from ctrl.
func (fl *funcLowerer) exit(ctrl ir.ControlInstruction, args ...ir.Value) {
	fl.exits[ctrl]++
	fl.terminate(ir.NewExit(ctrl, args...))
}

// closeRegion exits ctrl unless the current block is already terminated.
func (fl *funcLowerer) closeRegion(ctrl ir.ControlInstruction) {
	if fl.current != nil {
		fl.exit(ctrl)
	}
}

// enterMerge moves the cursor to the merge block of ctrl. A merge that no
// exit reaches is sealed and the cursor becomes unreachable.
func (fl *funcLowerer) enterMerge(ctrl ir.ControlInstruction) {
	merge := ctrl.MergeBlock()
	if fl.exits[ctrl] == 0 {
		ir.Append(merge, ir.NewUnreachable())
		fl.current = nil
		return
	}
	fl.current = merge
}

func (fl *funcLowerer) pushControl(inst ir.ControlInstruction) {
	fl.controls = append(fl.controls, control{inst: inst})
}

func (fl *funcLowerer) popControl() {
	fl.controls = fl.controls[:len(fl.controls)-1]
}

// inContinuing reports whether any enclosing loop is lowering its
// continuing block.
func (fl *funcLowerer) inContinuing() bool {
	for _, c := range fl.controls {
		if c.continuing {
			return true
		}
	}
	return false
}
