package ir

import (
	"fmt"
)

// ValidationError represents a validation error.
type ValidationError struct {
	Message string
	// Optional context
	Function string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Function != "" {
		return fmt.Sprintf("in function %s: %s", e.Function, e.Message)
	}
	return e.Message
}

// ValidateOptions selects optional checks.
type ValidateOptions struct {
	// RequireSingleReturn requires every function to have at most one
	// Return, on its top-level block chain.
	RequireSingleReturn bool
}

// Validator validates IR modules.
type Validator struct {
	module  *Module
	opts    ValidateOptions
	errors  []ValidationError
	context validationContext
}

// validationContext holds current validation context.
type validationContext struct {
	function *Function
	// enclosing lists the control instructions around the current block,
	// innermost last, with the region index the block is reached through.
	enclosing []enclosingRegion
}

type enclosingRegion struct {
	ctrl   ControlInstruction
	region int
}

// Validate checks the IR module for structural correctness.
// Returns validation errors if any, or nil if module is valid.
func Validate(module *Module, opts ValidateOptions) ([]ValidationError, error) {
	if module == nil {
		return nil, fmt.Errorf("module is nil")
	}

	v := &Validator{
		module: module,
		opts:   opts,
	}

	v.ValidateModule()

	if len(v.errors) > 0 {
		return v.errors, nil
	}
	return nil, nil
}

// ValidateModule validates the complete module.
func (v *Validator) ValidateModule() {
	v.validateRoot()

	names := make(map[string]bool)
	for _, fn := range v.module.Functions {
		if names[fn.Name] {
			v.addError(fmt.Sprintf("duplicate function name %q", fn.Name))
		}
		names[fn.Name] = true
		v.validateFunction(fn)
	}

	v.validateEntryPoints()
}

func (v *Validator) validateRoot() {
	root := v.module.Root
	if root == nil {
		return
	}
	for _, inst := range root.Instructions {
		variable, ok := inst.(*Var)
		if !ok {
			v.addError(fmt.Sprintf("root block: unexpected instruction %T", inst))
			continue
		}
		if variable.Block() != root {
			v.addError(fmt.Sprintf("root block: variable %q has a stale block pointer", variable.Name))
		}
		ptr, ok := variable.Result().Type().(PointerType)
		if !ok {
			v.addError(fmt.Sprintf("root block: variable %q is not a pointer", variable.Name))
			continue
		}
		if ptr.Space == SpaceFunction {
			v.addError(fmt.Sprintf("root block: variable %q in function address space", variable.Name))
		}
	}
}

func (v *Validator) validateFunction(fn *Function) {
	v.context = validationContext{function: fn}

	if fn.Start == nil {
		v.addErrorInFunction("missing start block")
		return
	}
	if fn.Start.Parent != nil {
		v.addErrorInFunction("start block has a parent")
	}
	v.validateChain(fn.Start, nil)

	if v.opts.RequireSingleReturn {
		returns := fn.Returns()
		if len(returns) > 1 {
			v.addErrorInFunction(fmt.Sprintf("%d return instructions, expected at most one", len(returns)))
		}
		for _, r := range returns {
			if r.Block() != nil && r.Block().Parent != nil {
				v.addErrorInFunction("return inside a control-flow region")
			}
		}
	}
}

// validateChain validates b and every merge block that follows it. parent
// is the control instruction whose region the chain belongs to.
func (v *Validator) validateChain(b *Block, parent ControlInstruction) {
	for b != nil {
		if b.Parent != parent {
			v.addErrorInFunction("block has an inconsistent parent")
		}
		ctrl := v.validateBlock(b)
		if ctrl == nil {
			return
		}
		for i, region := range ctrl.Regions() {
			v.context.enclosing = append(v.context.enclosing, enclosingRegion{ctrl: ctrl, region: i})
			v.validateChain(region, ctrl)
			v.context.enclosing = v.context.enclosing[:len(v.context.enclosing)-1]
		}
		b = ctrl.MergeBlock()
		if b == nil {
			v.addErrorInFunction(fmt.Sprintf("%T has no merge block", ctrl))
		}
	}
}

// validateBlock checks the instructions of b and returns its control
// instruction, if it ends in one.
func (v *Validator) validateBlock(b *Block) ControlInstruction {
	if len(b.Instructions) == 0 {
		v.addErrorInFunction("empty block")
		return nil
	}
	for i, inst := range b.Instructions {
		if inst.Block() != b {
			v.addErrorInFunction(fmt.Sprintf("%T has a stale block pointer", inst))
		}
		_, isTerm := inst.(Terminator)
		last := i == len(b.Instructions)-1
		if isTerm && !last {
			v.addErrorInFunction(fmt.Sprintf("terminator %T is not the last instruction of its block", inst))
		}
		if last && !isTerm {
			v.addErrorInFunction(fmt.Sprintf("block does not end in a terminator, last is %T", inst))
		}
		for _, op := range inst.Operands() {
			if op == nil {
				v.addErrorInFunction(fmt.Sprintf("%T has a nil operand", inst))
			}
		}
		v.validateInstruction(inst)
	}
	ctrl, _ := b.Terminator().(ControlInstruction)
	return ctrl
}

func (v *Validator) validateInstruction(inst Instruction) {
	switch inst := inst.(type) {
	case *Var:
		ptr, ok := inst.Result().Type().(PointerType)
		if !ok || ptr.Space != SpaceFunction {
			v.addErrorInFunction(fmt.Sprintf("variable %q must be a function-space pointer", inst.Name))
		} else if inst.Init != nil && inst.Init.Type() != ptr.Base {
			v.addErrorInFunction(fmt.Sprintf("variable %q: initializer type %s does not match %s", inst.Name, inst.Init.Type(), ptr.Base))
		}
	case *Store:
		if inst.To == nil || inst.Value == nil {
			return
		}
		base, ok := PointeeOf(inst.To.Type())
		if !ok {
			v.addErrorInFunction(fmt.Sprintf("store through non-pointer %s", inst.To.Type()))
		} else if base != inst.Value.Type() {
			v.addErrorInFunction(fmt.Sprintf("store of %s through %s", inst.Value.Type(), inst.To.Type()))
		}
	case *Load:
		if inst.From == nil {
			return
		}
		if _, ok := PointeeOf(inst.From.Type()); !ok {
			v.addErrorInFunction(fmt.Sprintf("load from non-pointer %s", inst.From.Type()))
		}

	case *If:
		if inst.Condition != nil && inst.Condition.Type() != Bool {
			v.addErrorInFunction(fmt.Sprintf("if condition must be bool, got %s", inst.Condition.Type()))
		}
		v.validateRegionOwner(inst, inst.True, inst.False)
	case *Loop:
		v.validateRegionOwner(inst, inst.Body, inst.Continuing)
	case *Switch:
		if inst.Condition != nil {
			if s, ok := inst.Condition.Type().(ScalarType); !ok || (s != I32 && s != U32) {
				v.addErrorInFunction(fmt.Sprintf("switch condition must be i32 or u32, got %s", inst.Condition.Type()))
			}
		}
		defaults := 0
		for _, c := range inst.Cases {
			for _, s := range c.Selectors {
				if s.IsDefault() {
					defaults++
				}
			}
		}
		if defaults != 1 {
			v.addErrorInFunction(fmt.Sprintf("switch has %d default selectors, expected 1", defaults))
		}
		v.validateRegionOwner(inst, inst.Regions()...)

	case *Return:
		v.validateReturn(inst)
	case *ExitIf:
		if len(v.context.enclosing) == 0 || v.context.enclosing[len(v.context.enclosing)-1].ctrl != inst.If {
			v.addErrorInFunction("exit_if outside of its if")
		}
		v.validateExitArgs(inst.If, inst.Args)
	case *ExitLoop:
		v.validateBreak(inst.Loop, "exit_loop", true)
		v.validateExitArgs(inst.Loop, inst.Args)
	case *ExitSwitch:
		v.validateBreak(inst.Switch, "exit_switch", false)
		v.validateExitArgs(inst.Switch, inst.Args)
	case *Continue:
		v.validateContinue(inst.Loop)
	case *NextIteration:
		v.validateInContinuing(inst.Loop, "next_iteration")
	case *BreakIf:
		v.validateInContinuing(inst.Loop, "break_if")
		if inst.Condition != nil && inst.Condition.Type() != Bool {
			v.addErrorInFunction(fmt.Sprintf("break_if condition must be bool, got %s", inst.Condition.Type()))
		}
	}
}

func (v *Validator) validateRegionOwner(ctrl ControlInstruction, regions ...*Block) {
	for _, r := range regions {
		if r == nil {
			v.addErrorInFunction(fmt.Sprintf("%T has a nil region", ctrl))
		}
	}
}

func (v *Validator) validateReturn(r *Return) {
	fn := v.context.function
	if r.Func != fn {
		v.addErrorInFunction("return belongs to another function")
	}
	for _, e := range v.context.enclosing {
		if _, ok := e.ctrl.(*Loop); ok && e.region == 1 {
			v.addErrorInFunction("return inside a loop continuing block")
			break
		}
	}
	switch {
	case fn.ReturnType == nil && r.Value != nil:
		v.addErrorInFunction("return with a value in a function without a return type")
	case fn.ReturnType != nil && r.Value == nil:
		v.addErrorInFunction("return without a value")
	case fn.ReturnType != nil && r.Value.Type() != fn.ReturnType:
		v.addErrorInFunction(fmt.Sprintf("return of %s, expected %s", r.Value.Type(), fn.ReturnType))
	}
}

// validateBreak checks an exit that may cross enclosing ifs to reach
// target. Loop exits must leave from the body region.
func (v *Validator) validateBreak(target ControlInstruction, name string, loop bool) {
	for i := len(v.context.enclosing) - 1; i >= 0; i-- {
		e := v.context.enclosing[i]
		if e.ctrl == target {
			if loop && e.region != 0 {
				v.addErrorInFunction(name + " from a loop continuing block")
			}
			return
		}
		if _, ok := e.ctrl.(*If); !ok {
			break
		}
	}
	v.addErrorInFunction(name + " outside of its construct")
}

// validateContinue checks a continue, which may cross ifs and switches to
// reach the body of its loop.
func (v *Validator) validateContinue(loop *Loop) {
	for i := len(v.context.enclosing) - 1; i >= 0; i-- {
		e := v.context.enclosing[i]
		if e.ctrl == loop {
			if e.region != 0 {
				v.addErrorInFunction("continue from a loop continuing block")
			}
			return
		}
		if _, ok := e.ctrl.(*Loop); ok {
			break
		}
	}
	v.addErrorInFunction("continue outside of its loop")
}

func (v *Validator) validateInContinuing(loop *Loop, name string) {
	n := len(v.context.enclosing)
	if n == 0 || v.context.enclosing[n-1].ctrl != loop || v.context.enclosing[n-1].region != 1 {
		v.addErrorInFunction(name + " outside of its loop continuing block")
	}
}

func (v *Validator) validateExitArgs(target ControlInstruction, args []Value) {
	merge := target.MergeBlock()
	if merge == nil {
		return
	}
	if len(args) != len(merge.Params) {
		v.addErrorInFunction(fmt.Sprintf("exit passes %d arguments, merge block has %d parameters", len(args), len(merge.Params)))
		return
	}
	for i, a := range args {
		if a != nil && a.Type() != merge.Params[i].Type() {
			v.addErrorInFunction(fmt.Sprintf("exit argument %d is %s, merge parameter is %s", i, a.Type(), merge.Params[i].Type()))
		}
	}
}

func (v *Validator) validateEntryPoints() {
	for _, fn := range v.module.EntryPoints() {
		switch fn.Stage {
		case StageVertex:
			// Vertex shader must return @builtin(position)
			// Position can be either:
			// 1. Direct return: fn() -> @builtin(position) vec4<f32>
			// 2. Struct member: fn() -> VertexOutput { @builtin(position) pos: vec4<f32>, ... }
			if fn.ReturnType == nil {
				v.addError(fmt.Sprintf("entry point %q (@vertex): must have a return value", fn.Name))
			} else if !hasPositionBuiltin(fn) {
				v.addError(fmt.Sprintf("entry point %q (@vertex): must return @builtin(position)", fn.Name))
			}

		case StageFragment:
			// Fragment shader can optionally return with location binding

		case StageCompute:
			if fn.WorkgroupSize[0] == 0 || fn.WorkgroupSize[1] == 0 || fn.WorkgroupSize[2] == 0 {
				v.addError(fmt.Sprintf("entry point %q (@compute): workgroup size must be non-zero", fn.Name))
			}
		}
	}
}

// hasPositionBuiltin checks if the function result contains @builtin(position).
func hasPositionBuiltin(fn *Function) bool {
	if fn.ReturnBinding != nil && isPositionBuiltin(fn.ReturnBinding) {
		return true
	}
	st, ok := fn.ReturnType.(*StructType)
	if !ok {
		return false
	}
	for _, member := range st.Members {
		if member.Binding != nil && isPositionBuiltin(member.Binding) {
			return true
		}
	}
	return false
}

// isPositionBuiltin checks if a binding is @builtin(position).
func isPositionBuiltin(binding Binding) bool {
	b, ok := binding.(BuiltinBinding)
	return ok && b.Builtin == BuiltinPosition
}

func (v *Validator) addError(msg string) {
	v.errors = append(v.errors, ValidationError{Message: msg})
}

func (v *Validator) addErrorInFunction(msg string) {
	name := ""
	if v.context.function != nil {
		name = v.context.function.Name
	}
	v.errors = append(v.errors, ValidationError{Message: msg, Function: name})
}
