package instr

import (
	"errors"
	"testing"

	"github.com/xplshn/gruc/pkg/ast"
)

func TestVariantsAreDistinct(t *testing.T) {
	seen := make(map[Instruction]string)
	for v, in := range variants {
		if prev, dup := seen[in]; dup {
			t.Errorf("%s and %+v share opcode %d", prev, v, in)
		}
		seen[in] = in.String()
	}
	for in := range fixed {
		if _, dup := seen[in]; dup {
			t.Errorf("fixed opcode %s collides with a family member", in)
		}
	}
}

func TestFamilyMapping(t *testing.T) {
	tests := []struct {
		name string
		conv func(Instruction) (Instruction, error)
		in   Instruction
		want string
	}{
		{"assign to address", ToAddress, Assign, "=@"},
		{"float assign", ToFloat, Assign, "=f"},
		{"void postinc", ToVoid, PostInc, "POSTINCV"},
		{"float add", ToFloat, Add, "+f"},
		{"float compare", ToFloat, LE, "<=f"},
		{"float abs", ToFloat, AbsI, "ABS"},
		{"struct copy through address", ToAddress, StructAssign, "COPYSTASS@"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.conv(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestComposedVariants(t *testing.T) {
	in, err := ToFloat(AddAssign)
	if err == nil {
		in, err = ToAddress(in)
	}
	if err == nil {
		in, err = ToVoid(in)
	}
	if err != nil {
		t.Fatal(err)
	}
	if in.String() != "+=@fV" || in.Operands() != 0 {
		t.Errorf("got %s with %d operands", in, in.Operands())
	}
	base, form, ok := FormOf(in)
	if !ok || base != AddAssign || form != (Form{Address: true, Float: true, Void: true}) {
		t.Errorf("FormOf = %s %+v %v", base, form, ok)
	}
	if Assign.Operands() != 1 || StructAssign.Operands() != 2 || DefArr.Operands() != 6 {
		t.Errorf("operand counts are wrong")
	}
}

func TestNoInstruction(t *testing.T) {
	if _, err := ToFloat(RemAssign); !errors.Is(err, ErrNoInstruction) {
		t.Errorf("ToFloat(%%=) err = %v", err)
	}
	if _, err := ToFloat(Shl); !errors.Is(err, ErrNoInstruction) {
		t.Errorf("ToFloat(<<) err = %v", err)
	}
	if _, err := ToAddress(LI); !errors.Is(err, ErrNoInstruction) {
		t.Errorf("ToAddress(LI) err = %v", err)
	}
	if _, err := UnaryToInstruction(ast.OpAddress); !errors.Is(err, ErrNoInstruction) {
		t.Errorf("address-of mapped to an instruction")
	}
	if _, err := BinaryToInstruction(ast.OpComma); !errors.Is(err, ErrNoInstruction) {
		t.Errorf("comma mapped to an instruction")
	}
}

func TestOperatorTablesAreComplete(t *testing.T) {
	for op := ast.OpAssign; op < ast.OpComma; op++ {
		if _, err := BinaryToInstruction(op); err != nil {
			t.Errorf("binary %s: %v", op, err)
		}
	}
	for _, b := range ast.Builtins() {
		if _, err := BuiltinToInstruction(b); err != nil {
			t.Errorf("builtin %s: %v", b, err)
		}
	}
}
