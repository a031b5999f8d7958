// Package ast defines the node kinds stored in the tree arena and typed
// accessors over their argument layouts.
//
// Every node keeps its source location in its last two arguments. Expression
// nodes start with their type and value category:
//
//	Identifier  [type, category, ident, begin, end]
//	Literal     [type, rvalue, value, begin, end]      float values as IEEE bits
//	String      [type, rvalue, string index, begin, end]
//	Cast        [type, rvalue, source type, begin, end] child: operand
//	Subscript   [type, category, begin, end]            children: base, index
//	Call        [type, rvalue, begin, end]              children: callee, args...
//	Builtin     [type, rvalue, builtin, begin, end]     children: args...
//	Member      [type, category, displ, arrow, begin, end] child: base
//	Unary       [type, category, op, begin, end]        child: operand
//	Binary      [type, rvalue, op, begin, end]          children: lhs, rhs
//	Assignment  [type, rvalue, op, begin, end]          children: target, value
//	Ternary     [type, rvalue, begin, end]              children: cond, then, else
//	Initializer [type, rvalue, begin, end]              children: elements...
//	EmptyBound  [type, rvalue, begin, end]
//
// Declarations and statements:
//
//	FuncDef     [ident, frame size, begin, end]   child: body
//	Declaration [begin, end]                      children: DeclVar/DeclType
//	DeclVar     [ident, dims, has init, begin, end] children: bounds..., init
//	Block       [begin, end]
//	If          [has else, begin, end]            children: cond, then, else
//	For         [has init, has cond, has incr, begin, end]
//	Label, Goto [ident, begin, end]
//	Case        [begin, end]                      children: value, body
package ast

import (
	"math"

	"github.com/xplshn/gruc/pkg/syntax"
	"github.com/xplshn/gruc/pkg/token"
	"github.com/xplshn/gruc/pkg/tree"
)

type Kind int64

const (
	KindUnit Kind = iota
	KindFuncDef
	KindDeclaration
	KindDeclVar
	KindDeclType
	KindBlock
	KindNop
	KindLabel
	KindCase
	KindDefault
	KindIf
	KindSwitch
	KindWhile
	KindDo
	KindFor
	KindGoto
	KindContinue
	KindBreak
	KindReturn

	// Expressions
	KindIdentifier
	KindLiteral
	KindString
	KindCast
	KindSubscript
	KindCall
	KindBuiltin
	KindMember
	KindUnary
	KindBinary
	KindAssignment
	KindTernary
	KindInitializer
	KindEmptyBound
)

var kindNames = [...]string{
	"Unit", "FuncDef", "Declaration", "DeclVar", "DeclType", "Block", "Nop", "Label", "Case", "Default",
	"If", "Switch", "While", "Do", "For", "Goto", "Continue", "Break", "Return",
	"Identifier", "Literal", "String", "Cast", "Subscript", "Call", "Builtin", "Member", "Unary",
	"Binary", "Assignment", "Ternary", "Initializer", "EmptyBound",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// IsExpression reports whether nodes of kind k carry a type and category.
func (k Kind) IsExpression() bool { return k >= KindIdentifier && k <= KindEmptyBound }

// Category tells whether an expression designates storage.
type Category = tree.Item

const (
	RValue Category = iota
	LValue
)

func KindOf(n tree.Node) Kind { return Kind(n.Type()) }

// Add appends a node of the given kind under parent. The location is stored
// after args.
func Add(parent tree.Node, kind Kind, loc token.Location, args ...tree.Item) tree.Node {
	args = append(args, tree.Item(loc.Begin), tree.Item(loc.End))
	return parent.AddChild(tree.Item(kind), args...)
}

// Location reads the source range of any node.
func Location(n tree.Node) token.Location {
	argc := n.Argc()
	if argc < 2 {
		return token.Location{}
	}
	return token.Location{Begin: int(n.Arg(argc - 2)), End: int(n.Arg(argc - 1))}
}

func SetLocation(n tree.Node, loc token.Location) {
	argc := n.Argc()
	if argc < 2 {
		return
	}
	n.SetArg(argc-2, tree.Item(loc.Begin))
	n.SetArg(argc-1, tree.Item(loc.End))
}

// Expressions

func Type(n tree.Node) syntax.TypeID       { return syntax.TypeID(n.Arg(0)) }
func SetType(n tree.Node, t syntax.TypeID) { n.SetArg(0, tree.Item(t)) }
func CategoryOf(n tree.Node) Category      { return n.Arg(1) }
func IsLValue(n tree.Node) bool            { return n.Arg(1) == LValue }
func Ident(n tree.Node) syntax.IdentID     { return syntax.IdentID(n.Arg(2)) }
func StringIndex(n tree.Node) int          { return int(n.Arg(2)) }
func CastSource(n tree.Node) syntax.TypeID { return syntax.TypeID(n.Arg(2)) }
func MemberDispl(n tree.Node) tree.Item    { return n.Arg(2) }
func MemberIsArrow(n tree.Node) bool       { return n.Arg(3) != 0 }
func UnaryOpOf(n tree.Node) UnaryOp        { return UnaryOp(n.Arg(2)) }
func BinaryOpOf(n tree.Node) BinaryOp      { return BinaryOp(n.Arg(2)) }
func BuiltinOf(n tree.Node) Builtin        { return Builtin(n.Arg(2)) }
func Operand(n tree.Node, i int) tree.Node { return n.Child(i) }
func OperandCount(n tree.Node) int         { return n.Amount() }

// LiteralInt returns an integer literal's value.
func LiteralInt(n tree.Node) int64 { return n.Arg(2) }

// LiteralFloat returns a literal's value as floating, converting integers.
func LiteralFloat(n tree.Node) float64 {
	if Type(n) == syntax.TypeFloat {
		return math.Float64frombits(uint64(n.Arg(2)))
	}
	return float64(n.Arg(2))
}

// FloatBits encodes a floating value for a Literal argument.
func FloatBits(v float64) tree.Item { return tree.Item(math.Float64bits(v)) }

// Declarations and statements

func FuncIdent(n tree.Node) syntax.IdentID   { return syntax.IdentID(n.Arg(0)) }
func FuncFrame(n tree.Node) tree.Item        { return n.Arg(1) }
func FuncBody(n tree.Node) tree.Node         { return n.Child(0) }
func DeclIdent(n tree.Node) syntax.IdentID   { return syntax.IdentID(n.Arg(0)) }
func DeclDims(n tree.Node) int               { return int(n.Arg(1)) }
func DeclHasInit(n tree.Node) bool           { return n.Arg(2) != 0 }
func DeclBound(n tree.Node, i int) tree.Node { return n.Child(i) }

// DeclInit returns a declaration's initializer, or a broken node.
func DeclInit(n tree.Node) tree.Node {
	if !DeclHasInit(n) {
		return tree.Node{}
	}
	return n.Child(DeclDims(n))
}

func IfHasElse(n tree.Node) bool            { return n.Arg(0) != 0 }
func ForHasInit(n tree.Node) bool           { return n.Arg(0) != 0 }
func ForHasCond(n tree.Node) bool           { return n.Arg(1) != 0 }
func ForHasIncr(n tree.Node) bool           { return n.Arg(2) != 0 }
func LabelIdent(n tree.Node) syntax.IdentID { return syntax.IdentID(n.Arg(0)) }
