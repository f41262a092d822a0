package ir

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ifReturnFunction builds
//
//	fn foo(c: bool) -> i32 { if c { return 1; } return 2; }
func ifReturnFunction() *Function {
	f := NewFunction("foo", I32)
	c := f.AddParam("c", Bool)
	ifi := Append(f.Start, NewIf(c))
	Append(ifi.True, NewReturn(f, I32Const(1)))
	Append(ifi.False, NewExitIf(ifi))
	Append(ifi.Merge, NewReturn(f, I32Const(2)))
	return f
}

func checkDisassembly(t *testing.T, got, want string) {
	t.Helper()
	want = strings.TrimPrefix(want, "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("disassembly mismatch (-want +got):\n%s\ngot:\n%s", diff, got)
	}
}

func TestDisassemble_If(t *testing.T) {
	checkDisassembly(t, DisassembleFunction(ifReturnFunction()), `
%foo = func(%c:bool):i32 -> %b1 {
  %b1 = block {
    if %c [t: %b2, f: %b3, m: %b4]
      # True block
      %b2 = block {
        ret 1i
      }

      # False block
      %b3 = block {
        exit_if %b4
      }

    # Merge block
    %b4 = block {
      ret 2i
    }

  }
}
`)
}

func TestDisassemble_RootAndInstructions(t *testing.T) {
	m := NewModule()
	g := Append(m.Root, NewVar("g", PointerType{Base: F32, Space: SpacePrivate}, nil))

	vec2f := VectorType{Size: Vec2, Scalar: F32}
	f := NewFunction("main", nil)
	f.Stage = StageCompute
	f.WorkgroupSize = [3]uint32{8, 1, 1}
	b := f.Start
	x := Append(b, NewVar("x", PointerType{Base: I32, Space: SpaceFunction}, I32Const(1)))
	l := Append(b, NewLoad(x.Result()))
	sum := Append(b, NewBinary(BinaryAdd, I32, l.Result(), I32Const(2)))
	Append(b, NewStore(x.Result(), sum.Result()))
	v := Append(b, NewConstruct(vec2f, F32Const(1), F32Const(0.5)))
	sw := Append(b, NewSwizzle(vec2f, v.Result(), 1, 0))
	gv := Append(b, NewLoad(g.Result()))
	Append(b, NewBuiltinCall("sin", F32, gv.Result()))
	Append(b, NewBuiltinCall("workgroupBarrier", nil))
	Append(b, NewAccess(F32, sw.Result(), U32Const(1)))
	Append(b, NewReturn(f, nil))
	m.Functions = append(m.Functions, f)

	checkDisassembly(t, Disassemble(m), `
# Root block
%b1 = block {
  %g:ptr<private, f32, read_write> = var
}

%main = @compute @workgroup_size(8, 1, 1) func():void -> %b2 {
  %b2 = block {
    %x:ptr<function, i32, read_write> = var, 1i
    %1:i32 = load %x
    %2:i32 = add %1, 2i
    store %x, %2
    %3:vec2<f32> = construct 1.0f, 0.5f
    %4:vec2<f32> = swizzle %3, yx
    %5:f32 = load %g
    %6:f32 = sin %5
    workgroupBarrier
    %7:f32 = access %4, 1u
    ret
  }
}
`)
}

func TestDisassemble_LoopAndSwitch(t *testing.T) {
	f := NewFunction("f", nil)
	c := f.AddParam("c", I32)

	loop := Append(f.Start, NewLoop())
	sw := Append(loop.Body, NewSwitch(c))
	one := sw.AddCase(CaseSelector{Value: I32Const(1)}, CaseSelector{Value: I32Const(2)})
	Append(one, NewContinue(loop))
	def := sw.AddCase(CaseSelector{})
	Append(def, NewExitSwitch(sw))
	Append(sw.Merge, NewExitLoop(loop))
	Append(loop.Continuing, NewBreakIf(loop, BoolConst(true)))
	Append(loop.Merge, NewReturn(f, nil))

	checkDisassembly(t, DisassembleFunction(f), `
%f = func(%c:i32):void -> %b1 {
  %b1 = block {
    loop [b: %b2, c: %b3, m: %b4]
      # Body block
      %b2 = block {
        switch %c [c: (1i 2i, %b5), c: (default, %b6), m: %b7]
          # Case block
          %b5 = block {
            continue %b3
          }

          # Case block
          %b6 = block {
            exit_switch %b7
          }

        # Merge block
        %b7 = block {
          exit_loop %b4
        }

      }

      # Continuing block
      %b3 = block {
        break_if true %b2
      }

    # Merge block
    %b4 = block {
      ret
    }

  }
}
`)
}

func TestDisassemble_BlockParams(t *testing.T) {
	f := NewFunction("f", I32)
	c := f.AddParam("c", Bool)
	ifi := Append(f.Start, NewIf(c))
	p := ifi.Merge.AddParam(I32)
	Append(ifi.True, NewExitIf(ifi, I32Const(1)))
	Append(ifi.False, NewExitIf(ifi, NewUndef(I32)))
	Append(ifi.Merge, NewReturn(f, p))

	checkDisassembly(t, DisassembleFunction(f), `
%f = func(%c:bool):i32 -> %b1 {
  %b1 = block {
    if %c [t: %b2, f: %b3, m: %b4]
      # True block
      %b2 = block {
        exit_if %b4 1i
      }

      # False block
      %b3 = block {
        exit_if %b4 undef
      }

    # Merge block
    %b4 = block (%1:i32) {
      ret %1
    }

  }
}
`)
}

func TestDisassemble_DuplicateNames(t *testing.T) {
	f := NewFunction("f", nil)
	Append(f.Start, NewVar("x", PointerType{Base: I32, Space: SpaceFunction}, nil))
	Append(f.Start, NewVar("x", PointerType{Base: I32, Space: SpaceFunction}, nil))
	Append(f.Start, NewReturn(f, nil))

	got := DisassembleFunction(f)
	if !strings.Contains(got, "%x:ptr") || !strings.Contains(got, "%x_1:ptr") {
		t.Errorf("expected de-duplicated names, got:\n%s", got)
	}
}

func TestFormatConstant(t *testing.T) {
	tests := []struct {
		c    *Constant
		want string
	}{
		{BoolConst(true), "true"},
		{I32Const(-3), "-3i"},
		{U32Const(7), "7u"},
		{F32Const(1), "1.0f"},
		{FloatConst(F16, 0.5), "0.5h"},
		{IntConst(AbstractInt, 4), "4"},
		{FloatConst(AbstractFloat, 2), "2.0"},
		{CompositeConst(VectorType{Size: Vec2, Scalar: I32}, I32Const(1), I32Const(2)), "vec2<i32>(1i, 2i)"},
	}
	for _, tt := range tests {
		if got := FormatConstant(tt.c); got != tt.want {
			t.Errorf("FormatConstant() = %q, want %q", got, tt.want)
		}
	}
}
