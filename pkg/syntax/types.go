package syntax

import (
	"fmt"
	"strings"

	"github.com/xplshn/gruc/pkg/tree"
)

// TypeID names a type. Scalars are negative constants; derived types are
// record offsets into the type table.
type TypeID int64

const (
	TypeUndefined TypeID = 0
	TypeInt       TypeID = -1
	TypeChar      TypeID = -2
	TypeFloat     TypeID = -3
	TypeVoid      TypeID = -4
)

// Mode is the first item of a derived type record.
type Mode = tree.Item

const (
	ModePointer Mode = 1001 + iota
	ModeArray
	ModeFunction
	ModeStruct
)

// Field is one member of a structure.
type Field struct {
	Type TypeID
	Name ReprID
}

// addType stores a record, returning the id of an equal record if one
// exists already.
func (s *Syntax) addType(rec ...tree.Item) TypeID {
	key := fmt.Sprint(rec)
	if id, ok := s.typeIndex[key]; ok {
		return id
	}
	id := TypeID(len(s.types))
	s.types = append(s.types, rec...)
	s.typeIndex[key] = id
	return id
}

func (s *Syntax) Pointer(elem TypeID) TypeID { return s.addType(ModePointer, tree.Item(elem)) }
func (s *Syntax) Array(elem TypeID) TypeID   { return s.addType(ModeArray, tree.Item(elem)) }

func (s *Syntax) Function(ret TypeID, params []TypeID) TypeID {
	rec := []tree.Item{ModeFunction, tree.Item(ret), tree.Item(len(params))}
	for _, p := range params {
		rec = append(rec, tree.Item(p))
	}
	return s.addType(rec...)
}

// Struct records a structure; its size is the sum of the member sizes.
func (s *Syntax) Struct(fields []Field) TypeID {
	var size tree.Item
	rec := []tree.Item{ModeStruct, 0, tree.Item(len(fields))}
	for _, f := range fields {
		size += s.SizeOf(f.Type)
		rec = append(rec, tree.Item(f.Type), tree.Item(f.Name))
	}
	rec[1] = size
	return s.addType(rec...)
}

func (s *Syntax) mode(t TypeID) Mode {
	if t <= 0 || int(t) >= len(s.types) {
		return 0
	}
	return s.types[t]
}

func (s *Syntax) at(t TypeID, i int) tree.Item { return s.types[int(t)+i] }

// Elem returns the element of a pointer or array type.
func (s *Syntax) Elem(t TypeID) TypeID {
	if m := s.mode(t); m == ModePointer || m == ModeArray {
		return TypeID(s.at(t, 1))
	}
	return TypeUndefined
}

func (s *Syntax) Return(t TypeID) TypeID {
	if s.mode(t) != ModeFunction {
		return TypeUndefined
	}
	return TypeID(s.at(t, 1))
}

func (s *Syntax) Params(t TypeID) []TypeID {
	if s.mode(t) != ModeFunction {
		return nil
	}
	n := int(s.at(t, 2))
	params := make([]TypeID, n)
	for i := range params {
		params[i] = TypeID(s.at(t, 3+i))
	}
	return params
}

func (s *Syntax) Fields(t TypeID) []Field {
	if s.mode(t) != ModeStruct {
		return nil
	}
	n := int(s.at(t, 2))
	fields := make([]Field, n)
	for i := range fields {
		fields[i] = Field{Type: TypeID(s.at(t, 3+2*i)), Name: ReprID(s.at(t, 4+2*i))}
	}
	return fields
}

// Member finds a structure member by spelling and returns its type and its
// displacement from the start of the structure.
func (s *Syntax) Member(t TypeID, name ReprID) (TypeID, tree.Item, bool) {
	var displ tree.Item
	for _, f := range s.Fields(t) {
		if f.Name == name {
			return f.Type, displ, true
		}
		displ += s.SizeOf(f.Type)
	}
	return TypeUndefined, 0, false
}

// SizeOf returns the number of words a value of type t occupies. Arrays are
// referenced through one word.
func (s *Syntax) SizeOf(t TypeID) tree.Item {
	switch {
	case t == TypeVoid || t == TypeUndefined:
		return 0
	case t < 0:
		return 1
	case s.mode(t) == ModeStruct:
		return s.at(t, 1)
	}
	return 1
}

func (s *Syntax) IsInteger(t TypeID) bool    { return t == TypeInt || t == TypeChar }
func (s *Syntax) IsFloating(t TypeID) bool   { return t == TypeFloat }
func (s *Syntax) IsArithmetic(t TypeID) bool { return s.IsInteger(t) || s.IsFloating(t) }
func (s *Syntax) IsVoid(t TypeID) bool       { return t == TypeVoid }
func (s *Syntax) IsPointer(t TypeID) bool    { return s.mode(t) == ModePointer }
func (s *Syntax) IsArray(t TypeID) bool      { return s.mode(t) == ModeArray }
func (s *Syntax) IsFunction(t TypeID) bool   { return s.mode(t) == ModeFunction }
func (s *Syntax) IsStruct(t TypeID) bool     { return s.mode(t) == ModeStruct }
func (s *Syntax) IsScalar(t TypeID) bool     { return s.IsArithmetic(t) || s.IsPointer(t) }

// IsString reports whether t is an array of char.
func (s *Syntax) IsString(t TypeID) bool {
	return s.IsArray(t) && s.Elem(t) == TypeChar
}

// TypesEqual compares two types structurally.
func (s *Syntax) TypesEqual(a, b TypeID) bool {
	if a == b {
		return true
	}
	if a <= 0 || b <= 0 {
		return false
	}
	ma, mb := s.mode(a), s.mode(b)
	if ma != mb {
		return false
	}
	switch ma {
	case ModePointer, ModeArray:
		return s.TypesEqual(s.Elem(a), s.Elem(b))
	case ModeFunction:
		pa, pb := s.Params(a), s.Params(b)
		if len(pa) != len(pb) || !s.TypesEqual(s.Return(a), s.Return(b)) {
			return false
		}
		for i := range pa {
			if !s.TypesEqual(pa[i], pb[i]) {
				return false
			}
		}
		return true
	case ModeStruct:
		fa, fb := s.Fields(a), s.Fields(b)
		if len(fa) != len(fb) {
			return false
		}
		for i := range fa {
			if fa[i].Name != fb[i].Name || !s.TypesEqual(fa[i].Type, fb[i].Type) {
				return false
			}
		}
		return true
	}
	return false
}

// TypeString spells a type for diagnostics.
func (s *Syntax) TypeString(t TypeID) string {
	switch t {
	case TypeInt:
		return "int"
	case TypeChar:
		return "char"
	case TypeFloat:
		return "float"
	case TypeVoid:
		return "void"
	}
	switch s.mode(t) {
	case ModePointer:
		return s.TypeString(s.Elem(t)) + "*"
	case ModeArray:
		return s.TypeString(s.Elem(t)) + "[]"
	case ModeFunction:
		params := s.Params(t)
		names := make([]string, len(params))
		for i, p := range params {
			names[i] = s.TypeString(p)
		}
		return fmt.Sprintf("%s(%s)", s.TypeString(s.Return(t)), strings.Join(names, ", "))
	case ModeStruct:
		var sb strings.Builder
		sb.WriteString("struct {")
		for _, f := range s.Fields(t) {
			fmt.Fprintf(&sb, " %s %s;", s.TypeString(f.Type), s.ReprText(f.Name))
		}
		sb.WriteString(" }")
		return sb.String()
	}
	return "undefined"
}
