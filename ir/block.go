package ir

// Block is a sequence of instructions ending in one terminator.
type Block struct {
	Instructions []Instruction
	Params       []*BlockParam

	// Parent is the control instruction whose region contains the block.
	// Merge blocks share the parent of the block holding their control
	// instruction. Blocks on a function's top-level chain, and the root
	// block, have no parent.
	Parent ControlInstruction
}

// NewBlock returns an empty block.
func NewBlock() *Block {
	return &Block{}
}

func newRegion(owner ControlInstruction) *Block {
	return &Block{Parent: owner}
}

// Append adds inst at the end of b and returns it.
func Append[I Instruction](b *Block, inst I) I {
	b.attach(inst)
	b.Instructions = append(b.Instructions, inst)
	return inst
}

// Prepend adds inst at the start of b and returns it.
func Prepend[I Instruction](b *Block, inst I) I {
	b.attach(inst)
	b.Instructions = append([]Instruction{inst}, b.Instructions...)
	return inst
}

// InsertBefore adds inst immediately before ref, which must be in b.
func InsertBefore[I Instruction](b *Block, ref Instruction, inst I) I {
	i := b.IndexOf(ref)
	if i < 0 {
		panic("ir.InsertBefore: reference instruction not in block")
	}
	b.attach(inst)
	b.Instructions = append(b.Instructions, nil)
	copy(b.Instructions[i+1:], b.Instructions[i:])
	b.Instructions[i] = inst
	return inst
}

func (b *Block) attach(inst Instruction) {
	inst.setBlock(b)
	if ctrl, ok := inst.(ControlInstruction); ok {
		ctrl.MergeBlock().Parent = b.Parent
	}
}

// IndexOf returns the index of inst in b, or -1.
func (b *Block) IndexOf(inst Instruction) int {
	for i, x := range b.Instructions {
		if x == inst {
			return i
		}
	}
	return -1
}

// Remove deletes inst from b.
func (b *Block) Remove(inst Instruction) {
	i := b.IndexOf(inst)
	if i < 0 {
		return
	}
	b.Instructions = append(b.Instructions[:i], b.Instructions[i+1:]...)
	inst.setBlock(nil)
}

// Replace substitutes with for old, which must be in b.
func (b *Block) Replace(old, with Instruction) {
	i := b.IndexOf(old)
	if i < 0 {
		panic("ir.Replace: instruction not in block")
	}
	b.attach(with)
	b.Instructions[i] = with
	old.setBlock(nil)
}

// Terminator returns the last instruction if it is a terminator.
func (b *Block) Terminator() Terminator {
	if len(b.Instructions) == 0 {
		return nil
	}
	t, _ := b.Instructions[len(b.Instructions)-1].(Terminator)
	return t
}

// HasTerminator reports whether b is sealed.
func (b *Block) HasTerminator() bool {
	return b.Terminator() != nil
}

// IsEmpty reports whether b holds no instructions.
func (b *Block) IsEmpty() bool {
	return len(b.Instructions) == 0
}

// AddParam appends a parameter of type t and returns it.
func (b *Block) AddParam(t Type) *BlockParam {
	p := NewBlockParam(t)
	p.Block = b
	b.Params = append(b.Params, p)
	return p
}

// TakeInstructions removes and returns all instructions of b.
func (b *Block) TakeInstructions() []Instruction {
	out := b.Instructions
	b.Instructions = nil
	return out
}
