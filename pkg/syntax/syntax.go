// Package syntax holds the per-compilation session: the node arena and the
// tables of representations, types, identifiers, functions and strings.
package syntax

import (
	"errors"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/xplshn/gruc/pkg/tree"
	"github.com/xplshn/gruc/pkg/util"
)

type (
	ReprID  int64
	IdentID int64
)

var (
	ErrRedeclared    = errors.New("identifier is already declared in this scope")
	ErrMainRedefined = errors.New("main is already defined")
)

const bucketCount = 256

type repr struct {
	text string
	// ref is the most recent visible declaration of the spelling.
	ref  IdentID
	next ReprID
}

type IdentKind int64

const (
	IdentVariable IdentKind = iota
	IdentFunction
	IdentBuiltin
	IdentTypeName
	IdentLabel
)

// Identifier is one declaration. Displ holds the stack displacement of a
// variable, the number of a function, the id of a builtin or the address of
// a resolved label.
type Identifier struct {
	Prev    IdentID
	Repr    ReprID
	Type    TypeID
	Kind    IdentKind
	Displ   tree.Item
	Defined bool
}

// Syntax is one compilation session.
type Syntax struct {
	Tree     *tree.Tree
	Reporter *util.Reporter

	reprs   []repr
	buckets [bucketCount]ReprID

	types     []tree.Item
	typeIndex map[string]TypeID

	idents []Identifier
	curID  IdentID

	functions []tree.Item
	strings   []string

	local       bool
	displ       tree.Item
	maxDispl    tree.Item
	globalDispl tree.Item

	main IdentID
}

// frameStart is the first displacement of both frames; the lower cells hold
// the VM's frame header.
const frameStart = 3

// New creates a session whose tree root has the given type.
func New(rootType tree.Item, r *util.Reporter) *Syntax {
	return &Syntax{
		Tree:        tree.New(rootType),
		Reporter:    r,
		reprs:       make([]repr, 1),
		types:       make([]tree.Item, 1),
		typeIndex:   make(map[string]TypeID),
		idents:      make([]Identifier, 1),
		curID:       1,
		globalDispl: frameStart,
	}
}

// Intern returns the representation of text, creating it on first use.
func (s *Syntax) Intern(text string) ReprID {
	h := xxhash.Sum64String(text) % bucketCount
	for id := s.buckets[h]; id != 0; id = s.reprs[id].next {
		if s.reprs[id].text == text {
			return id
		}
	}
	id := ReprID(len(s.reprs))
	s.reprs = append(s.reprs, repr{text: text, next: s.buckets[h]})
	s.buckets[h] = id
	return id
}

func (s *Syntax) ReprText(id ReprID) string {
	if id <= 0 || int(id) >= len(s.reprs) {
		return ""
	}
	return s.reprs[id].text
}

// Lookup returns the most recent visible declaration of a spelling, or 0.
func (s *Syntax) Lookup(id ReprID) IdentID {
	if id <= 0 || int(id) >= len(s.reprs) {
		return 0
	}
	return s.reprs[id].ref
}

// ReprRef returns the declaration a spelling currently resolves to.
func (s *Syntax) ReprRef(id ReprID) IdentID { return s.Lookup(id) }

func (s *Syntax) SetReprRef(id ReprID, ident IdentID) { s.reprs[id].ref = ident }

// IsMainName reports whether a spelling names the program entry point.
func (s *Syntax) IsMainName(id ReprID) bool {
	text := strings.ToLower(s.ReprText(id))
	return text == "main" || text == "главная"
}

// AddIdent declares an identifier in the current scope. Variables get the
// next displacement of the current frame and functions the next function
// number. Labels are kept out of the visibility chain.
func (s *Syntax) AddIdent(r ReprID, kind IdentKind, typ TypeID) (IdentID, error) {
	id := IdentID(len(s.idents))
	if kind == IdentLabel {
		s.idents = append(s.idents, Identifier{Repr: r, Kind: kind, Type: typ})
		return id, nil
	}

	prev := s.reprs[r].ref
	if kind == IdentFunction && s.IsMainName(r) && s.main != 0 {
		return 0, ErrMainRedefined
	}
	if prev != 0 && prev >= s.curID {
		return 0, ErrRedeclared
	}

	entry := Identifier{Prev: prev, Repr: r, Type: typ, Kind: kind}
	switch kind {
	case IdentVariable:
		entry.Displ = s.allocate(s.SizeOf(typ))
	case IdentFunction:
		entry.Displ = tree.Item(len(s.functions))
		s.functions = append(s.functions, 0)
		if s.IsMainName(r) {
			s.main = id
		}
	}
	s.idents = append(s.idents, entry)
	s.SetReprRef(r, id)
	return id, nil
}

func (s *Syntax) allocate(size tree.Item) tree.Item {
	if s.local {
		d := s.displ
		s.displ += size
		s.maxDispl = max(s.maxDispl, s.displ)
		return d
	}
	d := -s.globalDispl
	s.globalDispl += size
	return d
}

func (s *Syntax) Ident(id IdentID) Identifier {
	if id <= 0 || int(id) >= len(s.idents) {
		return Identifier{}
	}
	return s.idents[id]
}

func (s *Syntax) IdentType(id IdentID) TypeID       { return s.Ident(id).Type }
func (s *Syntax) IdentDispl(id IdentID) tree.Item   { return s.Ident(id).Displ }
func (s *Syntax) IdentKind(id IdentID) IdentKind    { return s.Ident(id).Kind }
func (s *Syntax) IdentName(id IdentID) string       { return s.ReprText(s.Ident(id).Repr) }
func (s *Syntax) IsDefined(id IdentID) bool         { return s.Ident(id).Defined }
func (s *Syntax) IdentCount() int                   { return len(s.idents) - 1 }
func (s *Syntax) SetIdentType(id IdentID, t TypeID) { s.idents[id].Type = t }

func (s *Syntax) SetIdentDispl(id IdentID, displ tree.Item) { s.idents[id].Displ = displ }
func (s *Syntax) SetDefined(id IdentID)                     { s.idents[id].Defined = true }

// InCurrentScope reports whether id was declared in the innermost block.
func (s *Syntax) InCurrentScope(id IdentID) bool { return id != 0 && id >= s.curID }

// Main returns the entry point declaration, or 0.
func (s *Syntax) Main() IdentID { return s.main }

// Scope is the state saved when a block is entered.
type Scope struct {
	curID IdentID
	displ tree.Item
}

func (s *Syntax) EnterBlock() Scope {
	sc := Scope{curID: s.curID, displ: s.displ}
	s.curID = IdentID(len(s.idents))
	return sc
}

// ExitBlock makes the block's declarations invisible again and releases its
// frame cells.
func (s *Syntax) ExitBlock(sc Scope) {
	for id := IdentID(len(s.idents)) - 1; id >= s.curID; id-- {
		if e := s.idents[id]; e.Kind != IdentLabel {
			s.SetReprRef(e.Repr, e.Prev)
		}
	}
	s.curID, s.displ = sc.curID, sc.displ
}

// EnterFunction opens the parameter scope of a function and starts a fresh
// local frame.
func (s *Syntax) EnterFunction() Scope {
	sc := s.EnterBlock()
	s.local = true
	s.displ, s.maxDispl = frameStart, frameStart
	return sc
}

// ExitFunction closes the function scope and returns the frame size.
func (s *Syntax) ExitFunction(sc Scope) tree.Item {
	size := s.maxDispl
	s.ExitBlock(sc)
	s.local = false
	return size
}

// MaxGlobalDispl is the size of the global frame.
func (s *Syntax) MaxGlobalDispl() tree.Item { return s.globalDispl }

func (s *Syntax) FunctionCount() int { return len(s.functions) }

func (s *Syntax) FunctionAddress(num tree.Item) tree.Item {
	if num < 0 || int(num) >= len(s.functions) {
		return 0
	}
	return s.functions[num]
}

func (s *Syntax) SetFunctionAddress(num, addr tree.Item) { s.functions[num] = addr }

// AddString stores a string literal and returns its index.
func (s *Syntax) AddString(text string) int {
	s.strings = append(s.strings, text)
	return len(s.strings) - 1
}

func (s *Syntax) String(index int) string {
	if index < 0 || index >= len(s.strings) {
		return ""
	}
	return s.strings[index]
}

// FunctionTable returns a copy of the function addresses.
func (s *Syntax) FunctionTable() []tree.Item {
	return append([]tree.Item(nil), s.functions...)
}

// IdentTable flattens the identifiers as prev, repr, type, displacement.
func (s *Syntax) IdentTable() []tree.Item {
	table := make([]tree.Item, 0, 4*len(s.idents))
	for _, e := range s.idents[1:] {
		table = append(table, tree.Item(e.Prev), tree.Item(e.Repr), tree.Item(e.Type), e.Displ)
	}
	return table
}

// ReprTable flattens the representations as reference, length, characters.
func (s *Syntax) ReprTable() []tree.Item {
	var table []tree.Item
	for _, r := range s.reprs[1:] {
		runes := []rune(r.text)
		table = append(table, tree.Item(r.ref), tree.Item(len(runes)))
		for _, ch := range runes {
			table = append(table, tree.Item(ch))
		}
	}
	return table
}

// TypeTable returns a copy of the type records.
func (s *Syntax) TypeTable() []tree.Item {
	return append([]tree.Item(nil), s.types[1:]...)
}
