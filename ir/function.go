package ir

// ShaderStage represents a shader stage.
type ShaderStage uint8

const (
	StageNone ShaderStage = iota // not an entry point
	StageVertex
	StageFragment
	StageCompute
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	}
	return ""
}

// Function is a function definition.
type Function struct {
	Name          string
	Params        []*FunctionParam
	ReturnType    Type // nil for functions without a return value
	ReturnBinding Binding
	Stage         ShaderStage
	WorkgroupSize [3]uint32 // compute entry points only
	Start         *Block
}

// NewFunction returns a function with an empty start block.
func NewFunction(name string, returnType Type) *Function {
	return &Function{Name: name, ReturnType: returnType, Start: NewBlock()}
}

// IsEntryPoint reports whether the function is a shader entry point.
func (f *Function) IsEntryPoint() bool {
	return f.Stage != StageNone
}

// AddParam appends a parameter and returns it.
func (f *Function) AddParam(name string, t Type) *FunctionParam {
	p := NewFunctionParam(name, t)
	f.Params = append(f.Params, p)
	return p
}

// Blocks returns every block of f in pre-order: a block, then the regions
// of its control instruction, then the merge block.
func (f *Function) Blocks() []*Block {
	var out []*Block
	walkBlocks(f.Start, func(b *Block) { out = append(out, b) })
	return out
}

// Instructions calls fn for every instruction of f, in block pre-order.
func (f *Function) Instructions(fn func(Instruction)) {
	walkBlocks(f.Start, func(b *Block) {
		for _, inst := range b.Instructions {
			fn(inst)
		}
	})
}

// Returns returns the Return instructions of f.
func (f *Function) Returns() []*Return {
	var out []*Return
	f.Instructions(func(inst Instruction) {
		if r, ok := inst.(*Return); ok {
			out = append(out, r)
		}
	})
	return out
}

func walkBlocks(b *Block, visit func(*Block)) {
	for b != nil {
		visit(b)
		ctrl, ok := b.Terminator().(ControlInstruction)
		if !ok {
			return
		}
		for _, r := range ctrl.Regions() {
			walkBlocks(r, visit)
		}
		b = ctrl.MergeBlock()
	}
}
