package ir

// Module is a WGSL module in IR form.
type Module struct {
	// Root holds module-scope variable declarations. It has no terminator.
	Root *Block

	// Functions holds all function definitions in dependency order.
	Functions []*Function

	// Types holds every type the module uses. It is populated by
	// CollectTypes.
	Types *TypeRegistry
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{Root: NewBlock(), Types: NewTypeRegistry()}
}

// Function returns the function called name.
func (m *Module) Function(name string) (*Function, bool) {
	for _, f := range m.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// EntryPoints returns the entry point functions in module order.
func (m *Module) EntryPoints() []*Function {
	var out []*Function
	for _, f := range m.Functions {
		if f.IsEntryPoint() {
			out = append(out, f)
		}
	}
	return out
}

// CollectTypes registers every type used by the module, in a deterministic
// order: root block, then each function's signature and instructions.
func (m *Module) CollectTypes() {
	reg := m.Types
	value := func(v Value) {
		if v != nil {
			reg.Register(v.Type())
		}
	}
	block := func(b *Block) {
		for _, p := range b.Params {
			value(p)
		}
		for _, inst := range b.Instructions {
			if r := inst.Result(); r != nil {
				value(r)
			}
			for _, op := range inst.Operands() {
				value(op)
			}
		}
	}

	block(m.Root)
	for _, f := range m.Functions {
		for _, p := range f.Params {
			value(p)
		}
		if f.ReturnType != nil {
			reg.Register(f.ReturnType)
		}
		walkBlocks(f.Start, block)
	}
}
