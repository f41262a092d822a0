package transform

import (
	"fmt"

	"github.com/gogpu/wgslfront/diag"
	"github.com/gogpu/wgslfront/ir"
	"github.com/gogpu/wgslfront/wgsl"
)

// MergeReturn rewrites every function of m so it has exactly one Return.
// Functions that already have a single top-level Return are left alone,
// so running the pass twice changes nothing.
func MergeReturn(m *ir.Module) error {
	var diags diag.List
	for _, f := range m.Functions {
		if err := MergeReturnFunction(f); err != nil {
			diags.AddInternal(diag.SystemTransform, diag.CodeInvalidTransform, wgsl.Span{},
				"merge return: function '%s': %v", f.Name, err)
		}
	}
	return diags.Err()
}

// MergeReturnFunction rewrites a single function.
func MergeReturnFunction(f *ir.Function) error {
	t := &mergeReturn{
		fn:          f,
		holdsReturn: make(map[ir.ControlInstruction]bool),
	}
	for _, r := range f.Returns() {
		if r.Block() == nil {
			continue
		}
		for ctrl := r.Block().Parent; ctrl != nil; ctrl = ctrl.Block().Parent {
			t.holdsReturn[ctrl] = true
		}
	}
	if len(t.holdsReturn) == 0 {
		return nil
	}

	t.flag = ir.Prepend(f.Start, ir.NewVar("return_flag",
		ir.PointerType{Base: ir.Bool, Space: ir.SpaceFunction, Access: ir.AccessReadWrite}, ir.BoolConst(false)))
	if f.ReturnType != nil {
		t.slot = ir.Prepend(f.Start, ir.NewVar("return_value",
			ir.PointerType{Base: f.ReturnType, Space: ir.SpaceFunction, Access: ir.AccessReadWrite}, nil))
	}

	if err := t.processChain(f.Start, region{}); err != nil {
		return err
	}

	if !t.flagLoaded {
		for _, s := range t.flagStores {
			s.Block().Remove(s)
		}
		f.Start.Remove(t.flag)
	}
	return nil
}

// region is the structured region a block chain belongs to. The zero
// region is the function's top-level chain.
type region struct {
	ctrl       ir.ControlInstruction
	continuing bool
}

type mergeReturn struct {
	fn *ir.Function

	flag *ir.Var
	slot *ir.Var // nil for functions without a return type

	holdsReturn map[ir.ControlInstruction]bool
	flagStores  []*ir.Store
	flagLoaded  bool
}

// processChain rewrites the returns of the chain starting at b.
func (t *mergeReturn) processChain(b *ir.Block, r region) error {
	for b != nil {
		switch term := b.Terminator().(type) {
		case *ir.Return:
			if r.ctrl == nil {
				return nil
			}
			if r.continuing {
				return fmt.Errorf("return inside a loop continuing block")
			}
			t.replaceReturn(term, r)
			return nil

		case ir.ControlInstruction:
			if !t.holdsReturn[term] {
				b = term.MergeBlock()
				continue
			}
			for _, sub := range subRegions(term) {
				if err := t.processChain(sub.block, sub.region); err != nil {
					return err
				}
			}
			return t.guard(term.MergeBlock(), r)

		default:
			return nil
		}
	}
	return nil
}

type subRegion struct {
	block  *ir.Block
	region region
}

func subRegions(ctrl ir.ControlInstruction) []subRegion {
	if loop, ok := ctrl.(*ir.Loop); ok {
		return []subRegion{
			{loop.Body, region{ctrl: loop}},
			{loop.Continuing, region{ctrl: loop, continuing: true}},
		}
	}
	var out []subRegion
	for _, b := range ctrl.Regions() {
		out = append(out, subRegion{b, region{ctrl: ctrl}})
	}
	return out
}

// replaceReturn turns ret into flag and value stores followed by an exit
// from r.
func (t *mergeReturn) replaceReturn(ret *ir.Return, r region) {
	b := ret.Block()
	b.Remove(ret)
	t.flagStores = append(t.flagStores, ir.Append(b, ir.NewStore(t.flag.Result(), ir.BoolConst(true))))
	if t.slot != nil && ret.Value != nil {
		ir.Append(b, ir.NewStore(t.slot.Result(), ret.Value))
	}
	t.exitRegion(b, r)
}

// exitRegion seals b with the exit of r. The top-level region exits with
// the function's single Return.
func (t *mergeReturn) exitRegion(b *ir.Block, r region) {
	if r.ctrl == nil {
		if t.slot == nil {
			ir.Append(b, ir.NewReturn(t.fn, nil))
			return
		}
		v := ir.Append(b, ir.NewLoad(t.slot.Result()))
		ir.Append(b, ir.NewReturn(t.fn, v.Result()))
		return
	}
	ir.Append(b, ir.NewExit(r.ctrl, undefs(r.ctrl.MergeBlock().Params)...))
}

// guard makes the merge block m, and the chain after it, run only when
// the function is not returning.
func (t *mergeReturn) guard(m *ir.Block, r region) error {
	if len(m.Instructions) == 1 {
		switch term := m.Terminator().(type) {
		case *ir.Unreachable:
			// Only returning paths reach m now.
			m.Remove(term)
			t.exitRegion(m, r)
			return nil
		case *ir.Return:
			if r.ctrl == nil && term.Value == nil {
				return nil
			}
		default:
			if target, _, ok := ir.ExitTarget(term); ok && target == r.ctrl {
				return nil
			}
		}
	}

	body := m.TakeInstructions()
	flag := ir.Append(m, ir.NewLoad(t.flag.Result()))
	t.flagLoaded = true
	guard := ir.Append(m, ir.NewIf(flag.Result()))

	f := guard.False
	for _, inst := range body {
		ir.Append(f, inst)
	}
	tail := f
	for {
		ctrl, ok := tail.Terminator().(ir.ControlInstruction)
		if !ok {
			break
		}
		ctrl.MergeBlock().Parent = guard
		tail = ctrl.MergeBlock()
	}

	if exit, ok := tail.Terminator().(*ir.ExitIf); ok && r.ctrl != nil && exit.If == r.ctrl {
		// exit_if must target the innermost if, so route the values through
		// the guard's merge.
		params := make([]ir.Value, len(exit.Args))
		for i, a := range exit.Args {
			params[i] = guard.Merge.AddParam(a.Type())
		}
		tail.Replace(exit, ir.NewExitIf(guard, exit.Args...))
		ir.Append(guard.Merge, ir.NewExitIf(exit.If, params...))
	} else {
		t.exitRegion(guard.Merge, r)
	}
	ir.Append(guard.True, ir.NewExitIf(guard, undefs(guard.Merge.Params)...))

	return t.processChain(f, region{ctrl: guard})
}

func undefs(params []*ir.BlockParam) []ir.Value {
	if len(params) == 0 {
		return nil
	}
	out := make([]ir.Value, len(params))
	for i, p := range params {
		out[i] = ir.NewUndef(p.Type())
	}
	return out
}
