package syntax

import (
	"testing"

	"github.com/xplshn/gruc/pkg/tree"
)

func TestTypeDedup(t *testing.T) {
	s := newSession()
	if s.Pointer(TypeInt) != s.Pointer(TypeInt) {
		t.Errorf("equal pointer types got different ids")
	}
	if s.Pointer(TypeInt) == s.Pointer(TypeChar) {
		t.Errorf("different pointer types share an id")
	}
	f1 := s.Function(TypeInt, []TypeID{TypeInt, TypeFloat})
	f2 := s.Function(TypeInt, []TypeID{TypeInt, TypeFloat})
	if f1 != f2 {
		t.Errorf("equal function types got different ids")
	}
	if s.Function(TypeInt, []TypeID{TypeInt}) == f1 {
		t.Errorf("function types of different arity share an id")
	}
}

func TestTypesEqual(t *testing.T) {
	s := newSession()
	x, y := s.Intern("x"), s.Intern("y")
	pair := s.Struct([]Field{{TypeInt, x}, {TypeInt, y}})
	other := s.Struct([]Field{{TypeInt, y}, {TypeInt, x}})

	tests := []struct {
		name string
		a, b TypeID
		want bool
	}{
		{"same scalar", TypeInt, TypeInt, true},
		{"int and char", TypeInt, TypeChar, false},
		{"nested arrays", s.Array(s.Array(TypeFloat)), s.Array(s.Array(TypeFloat)), true},
		{"array and pointer", s.Array(TypeInt), s.Pointer(TypeInt), false},
		{"pointer to struct", s.Pointer(pair), s.Pointer(pair), true},
		{"member order matters", pair, other, false},
		{"function and return", s.Function(TypeVoid, nil), TypeVoid, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.TypesEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("TypesEqual(%s, %s) = %v, want %v", s.TypeString(tt.a), s.TypeString(tt.b), got, tt.want)
			}
		})
	}
}

func TestSizeOfAndMembers(t *testing.T) {
	s := newSession()
	x, y, z := s.Intern("x"), s.Intern("y"), s.Intern("z")
	inner := s.Struct([]Field{{TypeInt, x}, {TypeFloat, y}})
	outer := s.Struct([]Field{{TypeChar, x}, {inner, y}, {s.Pointer(inner), z}})

	sizes := map[TypeID]tree.Item{
		TypeInt: 1, TypeChar: 1, TypeFloat: 1, TypeVoid: 0,
		s.Array(TypeInt): 1, s.Pointer(outer): 1, inner: 2, outer: 4,
	}
	for typ, want := range sizes {
		if got := s.SizeOf(typ); got != want {
			t.Errorf("SizeOf(%s) = %d, want %d", s.TypeString(typ), got, want)
		}
	}

	typ, displ, ok := s.Member(outer, z)
	if !ok || displ != 3 || !s.IsPointer(typ) {
		t.Errorf("Member(z) = %s, %d, %v", s.TypeString(typ), displ, ok)
	}
	if _, _, ok := s.Member(outer, s.Intern("w")); ok {
		t.Errorf("Member found a missing field")
	}
}

func TestPredicates(t *testing.T) {
	s := newSession()
	str := s.Array(TypeChar)
	if !s.IsString(str) || s.IsString(s.Array(TypeInt)) {
		t.Errorf("IsString misclassifies arrays")
	}
	if !s.IsScalar(s.Pointer(TypeInt)) || s.IsScalar(str) || !s.IsArithmetic(TypeChar) {
		t.Errorf("scalar predicates are wrong")
	}
	if s.Elem(TypeInt) != TypeUndefined || s.Return(TypeInt) != TypeUndefined {
		t.Errorf("accessors on scalars returned a type")
	}
	if got := s.TypeString(s.Function(TypeInt, []TypeID{s.Pointer(TypeChar), TypeFloat})); got != "int(char*, float)" {
		t.Errorf("TypeString = %q", got)
	}
}
