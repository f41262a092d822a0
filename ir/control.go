package ir

// Terminator is an instruction that ends a block.
type Terminator interface {
	Instruction
	terminator()
}

// ControlInstruction is a structured control instruction. It terminates
// its block, owns its region blocks and continues at its merge block.
type ControlInstruction interface {
	Terminator
	// MergeBlock returns the block where execution continues after the
	// construct.
	MergeBlock() *Block
	// Regions returns the blocks owned by the construct, in order.
	Regions() []*Block
}

// If branches on a bool condition.
type If struct {
	instruction
	Condition Value
	True      *Block
	False     *Block
	Merge     *Block
}

// NewIf returns an if with fresh true, false and merge blocks.
func NewIf(cond Value) *If {
	i := &If{Condition: cond, Merge: NewBlock()}
	i.True = newRegion(i)
	i.False = newRegion(i)
	return i
}

func (*If) terminator()          {}
func (i *If) Operands() []Value  { return []Value{i.Condition} }
func (i *If) MergeBlock() *Block { return i.Merge }
func (i *If) Regions() []*Block  { return []*Block{i.True, i.False} }

// Loop repeats its body. Continue branches to the continuing block, which
// ends in NextIteration or BreakIf.
type Loop struct {
	instruction
	Body       *Block
	Continuing *Block
	Merge      *Block
}

// NewLoop returns a loop with fresh body, continuing and merge blocks.
func NewLoop() *Loop {
	l := &Loop{Merge: NewBlock()}
	l.Body = newRegion(l)
	l.Continuing = newRegion(l)
	return l
}

func (*Loop) terminator()          {}
func (l *Loop) Operands() []Value  { return nil }
func (l *Loop) MergeBlock() *Block { return l.Merge }
func (l *Loop) Regions() []*Block  { return []*Block{l.Body, l.Continuing} }

// Switch selects one case by an integer condition. There is no
// fallthrough between cases.
type Switch struct {
	instruction
	Condition Value
	Cases     []Case
	Merge     *Block
}

// Case is one clause of a switch.
type Case struct {
	Selectors []CaseSelector
	Block     *Block
}

// CaseSelector is a case value; a nil Value selects the default case.
type CaseSelector struct {
	Value *Constant
}

// IsDefault reports whether the selector is the default selector.
func (s CaseSelector) IsDefault() bool { return s.Value == nil }

// NewSwitch returns a switch with no cases and a fresh merge block.
func NewSwitch(cond Value) *Switch {
	return &Switch{Condition: cond, Merge: NewBlock()}
}

// AddCase appends a case and returns its block.
func (s *Switch) AddCase(selectors ...CaseSelector) *Block {
	b := newRegion(s)
	s.Cases = append(s.Cases, Case{Selectors: selectors, Block: b})
	return b
}

func (*Switch) terminator()          {}
func (s *Switch) Operands() []Value  { return []Value{s.Condition} }
func (s *Switch) MergeBlock() *Block { return s.Merge }

func (s *Switch) Regions() []*Block {
	out := make([]*Block, len(s.Cases))
	for i, c := range s.Cases {
		out[i] = c.Block
	}
	return out
}

// Return leaves the function, optionally with a value.
type Return struct {
	instruction
	Func  *Function
	Value Value // nil for functions without a return type
}

// NewReturn returns a return from fn.
func NewReturn(fn *Function, value Value) *Return {
	return &Return{Func: fn, Value: value}
}

func (*Return) terminator()         {}
func (r *Return) Operands() []Value { return optional(r.Value) }

// ExitIf leaves an if region, continuing at the if's merge block.
type ExitIf struct {
	instruction
	If   *If
	Args []Value
}

// NewExitIf returns an exit from i passing args to its merge parameters.
func NewExitIf(i *If, args ...Value) *ExitIf {
	return &ExitIf{If: i, Args: args}
}

func (*ExitIf) terminator()         {}
func (e *ExitIf) Operands() []Value { return e.Args }

// ExitLoop leaves a loop, continuing at the loop's merge block.
type ExitLoop struct {
	instruction
	Loop *Loop
	Args []Value
}

// NewExitLoop returns an exit from l.
func NewExitLoop(l *Loop, args ...Value) *ExitLoop {
	return &ExitLoop{Loop: l, Args: args}
}

func (*ExitLoop) terminator()         {}
func (e *ExitLoop) Operands() []Value { return e.Args }

// ExitSwitch leaves a switch case, continuing at the switch's merge block.
type ExitSwitch struct {
	instruction
	Switch *Switch
	Args   []Value
}

// NewExitSwitch returns an exit from s.
func NewExitSwitch(s *Switch, args ...Value) *ExitSwitch {
	return &ExitSwitch{Switch: s, Args: args}
}

func (*ExitSwitch) terminator()         {}
func (e *ExitSwitch) Operands() []Value { return e.Args }

// Continue branches from a loop body to the loop's continuing block.
type Continue struct {
	instruction
	Loop *Loop
}

// NewContinue returns a continue of l.
func NewContinue(l *Loop) *Continue { return &Continue{Loop: l} }

func (*Continue) terminator()         {}
func (c *Continue) Operands() []Value { return nil }

// NextIteration branches from the continuing block back to the loop body.
type NextIteration struct {
	instruction
	Loop *Loop
}

// NewNextIteration returns a branch to the start of l's body.
func NewNextIteration(l *Loop) *NextIteration { return &NextIteration{Loop: l} }

func (*NextIteration) terminator()         {}
func (n *NextIteration) Operands() []Value { return nil }

// BreakIf ends a continuing block: it exits the loop when Condition is
// true and starts the next iteration otherwise.
type BreakIf struct {
	instruction
	Loop      *Loop
	Condition Value
}

// NewBreakIf returns a conditional exit from l.
func NewBreakIf(l *Loop, cond Value) *BreakIf {
	return &BreakIf{Loop: l, Condition: cond}
}

func (*BreakIf) terminator()         {}
func (b *BreakIf) Operands() []Value { return []Value{b.Condition} }

// Unreachable ends a block that no path reaches.
type Unreachable struct {
	instruction
}

// NewUnreachable returns an unreachable terminator.
func NewUnreachable() *Unreachable { return &Unreachable{} }

func (*Unreachable) terminator()         {}
func (u *Unreachable) Operands() []Value { return nil }

// ExitTarget returns the control instruction an exit leaves and the
// arguments it passes to the target's merge block.
func ExitTarget(t Terminator) (ControlInstruction, []Value, bool) {
	switch t := t.(type) {
	case *ExitIf:
		return t.If, t.Args, true
	case *ExitLoop:
		return t.Loop, t.Args, true
	case *ExitSwitch:
		return t.Switch, t.Args, true
	}
	return nil, nil, false
}

// NewExit returns an exit from ctrl passing args.
func NewExit(ctrl ControlInstruction, args ...Value) Terminator {
	switch c := ctrl.(type) {
	case *If:
		return NewExitIf(c, args...)
	case *Loop:
		return NewExitLoop(c, args...)
	case *Switch:
		return NewExitSwitch(c, args...)
	}
	panic("ir.NewExit: unknown control instruction")
}
