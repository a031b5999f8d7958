package ast

import (
	"math"

	"github.com/xplshn/gruc/pkg/tree"
)

type UnaryOp tree.Item

const (
	OpPostInc UnaryOp = iota
	OpPostDec
	OpPreInc
	OpPreDec
	OpAddress
	OpIndirection
	OpMinus
	OpNot
	OpLogNot
	OpAbs
)

var unaryNames = [...]string{"x++", "x--", "++x", "--x", "&", "*", "-", "~", "!", "abs"}

func (op UnaryOp) String() string {
	if op >= 0 && int(op) < len(unaryNames) {
		return unaryNames[op]
	}
	return "?"
}

// IsIncDec reports whether op modifies its operand.
func (op UnaryOp) IsIncDec() bool { return op <= OpPreDec }

type BinaryOp tree.Item

const (
	OpAssign BinaryOp = iota
	OpMulAssign
	OpDivAssign
	OpRemAssign
	OpAddAssign
	OpSubAssign
	OpShlAssign
	OpShrAssign
	OpAndAssign
	OpXorAssign
	OpOrAssign

	OpMul
	OpDiv
	OpRem
	OpAdd
	OpSub
	OpShl
	OpShr
	OpLT
	OpGT
	OpLE
	OpGE
	OpEQ
	OpNE
	OpAnd
	OpXor
	OpOr
	OpLogAnd
	OpLogOr
	OpComma
)

var binaryNames = [...]string{
	"=", "*=", "/=", "%=", "+=", "-=", "<<=", ">>=", "&=", "^=", "|=",
	"*", "/", "%", "+", "-", "<<", ">>", "<", ">", "<=", ">=", "==", "!=",
	"&", "^", "|", "&&", "||", ",",
}

func (op BinaryOp) String() string {
	if op >= 0 && int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return "?"
}

func (op BinaryOp) IsAssignment() bool { return op <= OpOrAssign }

// Underlying maps a compound assignment to its arithmetic operator.
func (op BinaryOp) Underlying() BinaryOp {
	switch op {
	case OpMulAssign:
		return OpMul
	case OpDivAssign:
		return OpDiv
	case OpRemAssign:
		return OpRem
	case OpAddAssign:
		return OpAdd
	case OpSubAssign:
		return OpSub
	case OpShlAssign:
		return OpShl
	case OpShrAssign:
		return OpShr
	case OpAndAssign:
		return OpAnd
	case OpXorAssign:
		return OpXor
	case OpOrAssign:
		return OpOr
	}
	return op
}

// IsIntegerOnly reports whether both operands must be integers.
func (op BinaryOp) IsIntegerOnly() bool {
	switch op.Underlying() {
	case OpRem, OpShl, OpShr, OpAnd, OpXor, OpOr:
		return true
	}
	return false
}

func (op BinaryOp) IsComparison() bool { return op >= OpLT && op <= OpNE }
func (op BinaryOp) IsEquality() bool   { return op == OpEQ || op == OpNE }
func (op BinaryOp) IsLogical() bool    { return op == OpLogAnd || op == OpLogOr }

// FitsInt reports whether v is representable as a 32-bit int.
func FitsInt(v int64) bool { return v == int64(int32(v)) }

func boolItem(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// FoldInt evaluates op on integer constants without wrapping; callers
// check the result with FitsInt. It refuses division and remainder by zero.
func FoldInt(op BinaryOp, l, r int64) (int64, bool) {
	switch op {
	case OpMul:
		return l * r, true
	case OpDiv:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case OpRem:
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case OpAdd:
		return l + r, true
	case OpSub:
		return l - r, true
	case OpShl:
		return l << uint64(r&63), true
	case OpShr:
		return l >> uint64(r&63), true
	case OpLT:
		return boolItem(l < r), true
	case OpGT:
		return boolItem(l > r), true
	case OpLE:
		return boolItem(l <= r), true
	case OpGE:
		return boolItem(l >= r), true
	case OpEQ:
		return boolItem(l == r), true
	case OpNE:
		return boolItem(l != r), true
	case OpAnd:
		return l & r, true
	case OpXor:
		return l ^ r, true
	case OpOr:
		return l | r, true
	case OpLogAnd:
		return boolItem(l != 0 && r != 0), true
	case OpLogOr:
		return boolItem(l != 0 || r != 0), true
	}
	return 0, false
}

// FoldFloat evaluates an arithmetic or comparison op on floating constants.
// Comparisons yield 0 or 1.
func FoldFloat(op BinaryOp, l, r float64) (float64, bool) {
	switch op {
	case OpMul:
		return l * r, true
	case OpDiv:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case OpAdd:
		return l + r, true
	case OpSub:
		return l - r, true
	case OpLT:
		return float64(boolItem(l < r)), true
	case OpGT:
		return float64(boolItem(l > r)), true
	case OpLE:
		return float64(boolItem(l <= r)), true
	case OpGE:
		return float64(boolItem(l >= r)), true
	case OpEQ:
		return float64(boolItem(l == r)), true
	case OpNE:
		return float64(boolItem(l != r)), true
	}
	return 0, false
}

// FoldUnaryInt evaluates a value-producing unary op on an integer constant.
func FoldUnaryInt(op UnaryOp, v int64) (int64, bool) {
	switch op {
	case OpMinus:
		return -v, true
	case OpNot:
		return ^v, true
	case OpLogNot:
		return boolItem(v == 0), true
	case OpAbs:
		if v < 0 {
			return -v, true
		}
		return v, true
	}
	return 0, false
}

func FoldUnaryFloat(op UnaryOp, v float64) (float64, bool) {
	switch op {
	case OpMinus:
		return -v, true
	case OpAbs:
		return math.Abs(v), true
	}
	return 0, false
}
