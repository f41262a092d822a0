package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Disassemble returns the text form of m.
func Disassemble(m *Module) string {
	d := newDisassembler()
	if m.Root != nil && !m.Root.IsEmpty() {
		d.line("# Root block")
		d.block(m.Root)
		d.line("")
	}
	for i, f := range m.Functions {
		if i > 0 {
			d.line("")
		}
		d.function(f)
	}
	return d.sb.String()
}

// DisassembleFunction returns the text form of a single function.
func DisassembleFunction(f *Function) string {
	d := newDisassembler()
	d.function(f)
	return d.sb.String()
}

type disassembler struct {
	sb        strings.Builder
	indent    int
	blockIDs  map[*Block]int
	names     map[Value]string
	usedNames map[string]bool
	nextValue int
}

func newDisassembler() *disassembler {
	return &disassembler{
		blockIDs:  make(map[*Block]int),
		names:     make(map[Value]string),
		usedNames: make(map[string]bool),
	}
}

func (d *disassembler) line(format string, args ...any) {
	if format == "" {
		d.sb.WriteByte('\n')
		return
	}
	d.sb.WriteString(strings.Repeat("  ", d.indent))
	fmt.Fprintf(&d.sb, format, args...)
	d.sb.WriteByte('\n')
}

func (d *disassembler) function(f *Function) {
	var header strings.Builder
	fmt.Fprintf(&header, "%%%s = ", f.Name)
	if f.Stage != StageNone {
		fmt.Fprintf(&header, "@%s ", f.Stage)
		if f.Stage == StageCompute {
			fmt.Fprintf(&header, "@workgroup_size(%d, %d, %d) ", f.WorkgroupSize[0], f.WorkgroupSize[1], f.WorkgroupSize[2])
		}
	}
	header.WriteString("func(")
	for i, p := range f.Params {
		if i > 0 {
			header.WriteString(", ")
		}
		fmt.Fprintf(&header, "%s:%s", d.value(p), p.Type())
		if p.Binding != nil {
			fmt.Fprintf(&header, " [%s]", p.Binding)
		}
	}
	header.WriteString("):")
	if f.ReturnType == nil {
		header.WriteString("void")
	} else {
		header.WriteString(f.ReturnType.String())
		if f.ReturnBinding != nil {
			fmt.Fprintf(&header, " [%s]", f.ReturnBinding)
		}
	}
	fmt.Fprintf(&header, " -> %s {", d.blockName(f.Start))
	d.line("%s", header.String())
	d.indent++
	d.block(f.Start)
	d.indent--
	d.line("}")
}

func (d *disassembler) block(b *Block) {
	if len(b.Params) == 0 {
		d.line("%s = block {", d.blockName(b))
	} else {
		params := make([]string, len(b.Params))
		for i, p := range b.Params {
			params[i] = d.value(p) + ":" + p.Type().String()
		}
		d.line("%s = block (%s) {", d.blockName(b), strings.Join(params, ", "))
	}
	d.indent++
	for _, inst := range b.Instructions {
		d.instruction(inst)
	}
	d.indent--
	d.line("}")
}

func (d *disassembler) region(title string, b *Block) {
	d.line("# %s", title)
	d.block(b)
	d.line("")
}

func (d *disassembler) instruction(inst Instruction) {
	switch inst := inst.(type) {
	case *If:
		d.line("if %s [t: %s, f: %s, m: %s]", d.operand(inst.Condition),
			d.blockName(inst.True), d.blockName(inst.False), d.blockName(inst.Merge))
		d.indent++
		d.region("True block", inst.True)
		d.region("False block", inst.False)
		d.indent--
		d.region("Merge block", inst.Merge)
	case *Loop:
		d.line("loop [b: %s, c: %s, m: %s]",
			d.blockName(inst.Body), d.blockName(inst.Continuing), d.blockName(inst.Merge))
		d.indent++
		d.region("Body block", inst.Body)
		d.region("Continuing block", inst.Continuing)
		d.indent--
		d.region("Merge block", inst.Merge)
	case *Switch:
		cases := make([]string, 0, len(inst.Cases)+1)
		for _, c := range inst.Cases {
			sels := make([]string, len(c.Selectors))
			for i, s := range c.Selectors {
				if s.IsDefault() {
					sels[i] = "default"
				} else {
					sels[i] = d.operand(s.Value)
				}
			}
			cases = append(cases, fmt.Sprintf("c: (%s, %s)", strings.Join(sels, " "), d.blockName(c.Block)))
		}
		cases = append(cases, "m: "+d.blockName(inst.Merge))
		d.line("switch %s [%s]", d.operand(inst.Condition), strings.Join(cases, ", "))
		d.indent++
		for _, c := range inst.Cases {
			d.region("Case block", c.Block)
		}
		d.indent--
		d.region("Merge block", inst.Merge)

	case *Var:
		text := "var"
		if inst.BindingPoint != nil {
			text += " " + inst.BindingPoint.String()
		}
		if inst.Init != nil {
			text += ", " + d.operand(inst.Init)
		}
		d.result(inst, text)
	case *Let:
		d.result(inst, "let "+d.operand(inst.Value))
	case *Load:
		d.result(inst, "load "+d.operand(inst.From))
	case *Store:
		d.line("store %s, %s", d.operand(inst.To), d.operand(inst.Value))
	case *Access:
		d.result(inst, "access "+d.operands(inst.Operands()))
	case *Swizzle:
		var comps strings.Builder
		for _, i := range inst.Indices {
			comps.WriteByte("xyzw"[i&3])
		}
		d.result(inst, "swizzle "+d.operand(inst.Object)+", "+comps.String())
	case *Binary:
		d.result(inst, inst.Op.String()+" "+d.operands(inst.Operands()))
	case *Unary:
		d.result(inst, inst.Op.String()+" "+d.operand(inst.Operand))
	case *Call:
		text := "call %" + inst.Func.Name
		if len(inst.Args) > 0 {
			text += ", " + d.operands(inst.Args)
		}
		d.result(inst, text)
	case *BuiltinCall:
		text := inst.Func
		if len(inst.Args) > 0 {
			text += " " + d.operands(inst.Args)
		}
		d.result(inst, text)
	case *Construct:
		d.result(inst, strings.TrimSpace("construct "+d.operands(inst.Args)))
	case *Convert:
		d.result(inst, "convert "+d.operand(inst.Value))
	case *Bitcast:
		d.result(inst, "bitcast "+d.operand(inst.Value))
	case *Discard:
		d.line("discard")

	case *Return:
		if inst.Value == nil {
			d.line("ret")
		} else {
			d.line("ret %s", d.operand(inst.Value))
		}
	case *ExitIf:
		d.exit("exit_if", inst.If.Merge, inst.Args)
	case *ExitLoop:
		d.exit("exit_loop", inst.Loop.Merge, inst.Args)
	case *ExitSwitch:
		d.exit("exit_switch", inst.Switch.Merge, inst.Args)
	case *Continue:
		d.line("continue %s", d.blockName(inst.Loop.Continuing))
	case *NextIteration:
		d.line("next_iteration %s", d.blockName(inst.Loop.Body))
	case *BreakIf:
		d.line("break_if %s %s", d.operand(inst.Condition), d.blockName(inst.Loop.Body))
	case *Unreachable:
		d.line("unreachable")
	default:
		d.line("<unknown instruction %T>", inst)
	}
}

func (d *disassembler) result(inst Instruction, text string) {
	r := inst.Result()
	if r == nil {
		d.line("%s", text)
		return
	}
	d.line("%s:%s = %s", d.value(r), r.Type(), text)
}

func (d *disassembler) exit(name string, target *Block, args []Value) {
	if len(args) == 0 {
		d.line("%s %s", name, d.blockName(target))
		return
	}
	d.line("%s %s %s", name, d.blockName(target), d.operands(args))
}

func (d *disassembler) blockName(b *Block) string {
	id, ok := d.blockIDs[b]
	if !ok {
		id = len(d.blockIDs) + 1
		d.blockIDs[b] = id
	}
	return "%b" + strconv.Itoa(id)
}

func (d *disassembler) operands(vals []Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = d.operand(v)
	}
	return strings.Join(parts, ", ")
}

func (d *disassembler) operand(v Value) string {
	switch v := v.(type) {
	case nil:
		return "<nil>"
	case *Constant:
		return FormatConstant(v)
	case *Undef:
		return "undef"
	}
	return d.value(v)
}

// value returns the %name of a non-constant value, assigning one on first
// use.
func (d *disassembler) value(v Value) string {
	if name, ok := d.names[v]; ok {
		return name
	}
	var base string
	switch v := v.(type) {
	case *InstructionResult:
		base = v.Name
	case *FunctionParam:
		base = v.Name
	case *BlockParam:
		base = v.Name
	}
	var name string
	if base == "" {
		d.nextValue++
		name = "%" + strconv.Itoa(d.nextValue)
	} else {
		name = "%" + base
		for i := 1; d.usedNames[name]; i++ {
			name = fmt.Sprintf("%%%s_%d", base, i)
		}
	}
	d.usedNames[name] = true
	d.names[v] = name
	return name
}

// FormatConstant returns the text form of a constant, e.g. 1i, 2u, 0.5f,
// true or vec2<f32>(1.0f, 2.0f).
func FormatConstant(c *Constant) string {
	switch v := c.Value.(type) {
	case ScalarValue:
		st, _ := c.Type().(ScalarType)
		switch v.Kind {
		case ScalarBool:
			return strconv.FormatBool(v.Bits != 0)
		case ScalarSint:
			return strconv.FormatInt(int64(v.Bits), 10) + "i"
		case ScalarUint:
			return strconv.FormatUint(v.Bits, 10) + "u"
		case ScalarAbstractInt:
			return strconv.FormatInt(int64(v.Bits), 10)
		case ScalarFloat:
			suffix := "f"
			if st.Width == 2 {
				suffix = "h"
			}
			return formatFloat(math.Float64frombits(v.Bits), 32) + suffix
		case ScalarAbstractFloat:
			return formatFloat(math.Float64frombits(v.Bits), 64)
		}
	case CompositeValue:
		parts := make([]string, len(v.Components))
		for i, comp := range v.Components {
			parts[i] = FormatConstant(comp)
		}
		return c.Type().String() + "(" + strings.Join(parts, ", ") + ")"
	}
	return "<invalid constant>"
}

func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eInN") {
		s += ".0"
	}
	return s
}
