// Package instr defines the virtual machine instruction set and the mapping
// from tree operators to instructions.
//
// Assignment and increment instructions come in families. Each family has a
// base instruction that stores to a frame displacement and leaves the value
// on the stack; its variants store through an address on the stack (@),
// operate on floating values (f) or drop the result (V).
package instr

import (
	"errors"
	"fmt"

	"github.com/xplshn/gruc/pkg/ast"
	"github.com/xplshn/gruc/pkg/tree"
)

type Instruction tree.Item

var ErrNoInstruction = errors.New("instr: no instruction for operation")

const (
	Nop Instruction = iota + 9000
	Stop
	B
	BE0
	BNE0
	FuncBeg
	Call1
	Call2
	ReturnVal
	ReturnVoid
	LI
	Load
	LA
	LAT
	Select
	Slice
	Widen
	Duplicate
	Copy0ST
	Copy1ST
	CopyST
	DefArr
	ArrInit
	BeginInit
	StringInit

	// Integer operations
	Rem
	Shl
	Shr
	And
	Xor
	Or
	LogAnd
	LogOr
	EQ
	NE
	LT
	GT
	LE
	GE
	Add
	Sub
	Mul
	Div
	UnMinus
	BitNot
	LogNot
	AbsI

	// Floating operations
	EQR
	NER
	LTR
	GTR
	LER
	GER
	AddR
	SubR
	MulR
	DivR
	UnMinusR
	AbsR

	// Library
	Sqrt
	Exp
	Sin
	Cos
	Log
	Log10
	Asin
	Rand
	Round
	Strcpy
	Strncpy
	Strcat
	Strncat
	Strcmp
	Strncmp
	Strstr
	Strlen
	Assert
	Upb
	Printf
	Print
	Printid
	Getid

	// Family bases
	Assign
	RemAssign
	ShlAssign
	ShrAssign
	AndAssign
	XorAssign
	OrAssign
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	PreInc
	PreDec
	PostInc
	PostDec
	StructAssign

	familyStart
)

type info struct {
	name     string
	operands int
}

var fixed = map[Instruction]info{
	Nop: {"NOP", 0}, Stop: {"STOP", 0}, B: {"B", 1}, BE0: {"BE0", 1}, BNE0: {"BNE0", 1},
	FuncBeg: {"FUNCBEG", 2}, Call1: {"CALL1", 0}, Call2: {"CALL2", 1},
	ReturnVal: {"RETURNVAL", 1}, ReturnVoid: {"RETURNVOID", 0},
	LI: {"LI", 1}, Load: {"LOAD", 1}, LA: {"LA", 1}, LAT: {"L@", 0},
	Select: {"SELECT", 1}, Slice: {"SLICE", 1}, Widen: {"WIDEN", 0}, Duplicate: {"DOUBLE", 0},
	Copy0ST: {"COPY0ST", 2}, Copy1ST: {"COPY1ST", 1}, CopyST: {"COPYST", 3},
	DefArr: {"DEFARR", 6}, ArrInit: {"ARRINIT", 4}, BeginInit: {"BEGINIT", 1}, StringInit: {"STRINGINIT", 1},

	Rem: {"%", 0}, Shl: {"<<", 0}, Shr: {">>", 0}, And: {"&", 0}, Xor: {"^", 0}, Or: {"|", 0},
	LogAnd: {"&&", 0}, LogOr: {"||", 0}, EQ: {"==", 0}, NE: {"!=", 0},
	LT: {"<", 0}, GT: {">", 0}, LE: {"<=", 0}, GE: {">=", 0},
	Add: {"+", 0}, Sub: {"-", 0}, Mul: {"*", 0}, Div: {"/", 0},
	UnMinus: {"UNMINUS", 0}, BitNot: {"BITNOT", 0}, LogNot: {"NOT", 0}, AbsI: {"ABSI", 0},

	EQR: {"==f", 0}, NER: {"!=f", 0}, LTR: {"<f", 0}, GTR: {">f", 0}, LER: {"<=f", 0}, GER: {">=f", 0},
	AddR: {"+f", 0}, SubR: {"-f", 0}, MulR: {"*f", 0}, DivR: {"/f", 0},
	UnMinusR: {"UNMINUSf", 0}, AbsR: {"ABS", 0},

	Sqrt: {"SQRT", 0}, Exp: {"EXP", 0}, Sin: {"SIN", 0}, Cos: {"COS", 0}, Log: {"LOG", 0},
	Log10: {"LOG10", 0}, Asin: {"ASIN", 0}, Rand: {"RAND", 0}, Round: {"ROUND", 0},
	Strcpy: {"STRCPY", 0}, Strncpy: {"STRNCPY", 0}, Strcat: {"STRCAT", 0}, Strncat: {"STRNCAT", 0},
	Strcmp: {"STRCMP", 0}, Strncmp: {"STRNCMP", 0}, Strstr: {"STRSTR", 0}, Strlen: {"STRLEN", 0},
	Assert: {"ASSERT", 0}, Upb: {"UPB", 0},
	Printf: {"PRINTF", 1}, Print: {"PRINT", 1}, Printid: {"PRINTID", 1}, Getid: {"GETID", 1},
}

// Form selects a variant of an instruction family.
type Form struct {
	Address bool
	Float   bool
	Void    bool
}

type family struct {
	base  Instruction
	name  string
	float bool
	// operands of the displacement form; address forms take one less.
	operands int
}

var families = []family{
	{Assign, "=", true, 1},
	{RemAssign, "%=", false, 1},
	{ShlAssign, "<<=", false, 1},
	{ShrAssign, ">>=", false, 1},
	{AndAssign, "&=", false, 1},
	{XorAssign, "^=", false, 1},
	{OrAssign, "|=", false, 1},
	{AddAssign, "+=", true, 1},
	{SubAssign, "-=", true, 1},
	{MulAssign, "*=", true, 1},
	{DivAssign, "/=", true, 1},
	{PreInc, "INC", true, 1},
	{PreDec, "DEC", true, 1},
	{PostInc, "POSTINC", true, 1},
	{PostDec, "POSTDEC", true, 1},
	{StructAssign, "COPYSTASS", false, 2},
}

type variant struct {
	base Instruction
	form Form
}

var (
	variants = make(map[variant]Instruction)
	members  = make(map[Instruction]variant)
	infos    = make(map[Instruction]info)
)

var floatOf = map[Instruction]Instruction{
	EQ: EQR, NE: NER, LT: LTR, GT: GTR, LE: LER, GE: GER,
	Add: AddR, Sub: SubR, Mul: MulR, Div: DivR, UnMinus: UnMinusR, AbsI: AbsR,
}

func init() {
	for in, i := range fixed {
		infos[in] = i
	}
	next := familyStart
	for _, fam := range families {
		for bits := 0; bits < 8; bits++ {
			form := Form{Address: bits&1 != 0, Float: bits&2 != 0, Void: bits&4 != 0}
			if form.Float && !fam.float {
				continue
			}
			in := fam.base
			if form != (Form{}) {
				in = next
				next++
			}
			name := fam.name
			operands := fam.operands
			if form.Address {
				name += "@"
				operands--
			}
			if form.Float {
				name += "f"
			}
			if form.Void {
				name += "V"
			}
			variants[variant{fam.base, form}] = in
			members[in] = variant{fam.base, form}
			infos[in] = info{name, operands}
		}
	}
}

func (in Instruction) String() string {
	if i, ok := infos[in]; ok {
		return i.name
	}
	return fmt.Sprintf("?%d", int64(in))
}

// Operands returns the number of inline operands that follow the opcode.
func (in Instruction) Operands() int { return infos[in].operands }

// IsValid reports whether in is a known opcode.
func (in Instruction) IsValid() bool {
	_, ok := infos[in]
	return ok
}

// FormOf returns the family base and form of a family member.
func FormOf(in Instruction) (Instruction, Form, bool) {
	v, ok := members[in]
	return v.base, v.form, ok
}

func withForm(in Instruction, change func(*Form)) (Instruction, error) {
	v, ok := members[in]
	if !ok {
		return 0, fmt.Errorf("%w: %s has no variants", ErrNoInstruction, in)
	}
	change(&v.form)
	out, ok := variants[v]
	if !ok {
		return 0, fmt.Errorf("%w: %s has no %+v variant", ErrNoInstruction, in, v.form)
	}
	return out, nil
}

// ToAddress selects the variant that stores through an address on the stack.
func ToAddress(in Instruction) (Instruction, error) {
	return withForm(in, func(f *Form) { f.Address = true })
}

// ToVoid selects the variant that leaves nothing on the stack.
func ToVoid(in Instruction) (Instruction, error) {
	return withForm(in, func(f *Form) { f.Void = true })
}

// ToFloat selects the floating counterpart of an operation or family member.
func ToFloat(in Instruction) (Instruction, error) {
	if out, ok := floatOf[in]; ok {
		return out, nil
	}
	return withForm(in, func(f *Form) { f.Float = true })
}

var unaryTable = map[ast.UnaryOp]Instruction{
	ast.OpPostInc: PostInc,
	ast.OpPostDec: PostDec,
	ast.OpPreInc:  PreInc,
	ast.OpPreDec:  PreDec,
	ast.OpMinus:   UnMinus,
	ast.OpNot:     BitNot,
	ast.OpLogNot:  LogNot,
	ast.OpAbs:     AbsI,
}

var binaryTable = map[ast.BinaryOp]Instruction{
	ast.OpAssign:    Assign,
	ast.OpMulAssign: MulAssign,
	ast.OpDivAssign: DivAssign,
	ast.OpRemAssign: RemAssign,
	ast.OpAddAssign: AddAssign,
	ast.OpSubAssign: SubAssign,
	ast.OpShlAssign: ShlAssign,
	ast.OpShrAssign: ShrAssign,
	ast.OpAndAssign: AndAssign,
	ast.OpXorAssign: XorAssign,
	ast.OpOrAssign:  OrAssign,
	ast.OpMul:       Mul,
	ast.OpDiv:       Div,
	ast.OpRem:       Rem,
	ast.OpAdd:       Add,
	ast.OpSub:       Sub,
	ast.OpShl:       Shl,
	ast.OpShr:       Shr,
	ast.OpLT:        LT,
	ast.OpGT:        GT,
	ast.OpLE:        LE,
	ast.OpGE:        GE,
	ast.OpEQ:        EQ,
	ast.OpNE:        NE,
	ast.OpAnd:       And,
	ast.OpXor:       Xor,
	ast.OpOr:        Or,
	ast.OpLogAnd:    LogAnd,
	ast.OpLogOr:     LogOr,
}

var builtinTable = map[ast.Builtin]Instruction{
	ast.BuiltinPrintf:  Printf,
	ast.BuiltinPrint:   Print,
	ast.BuiltinPrintid: Printid,
	ast.BuiltinGetid:   Getid,
	ast.BuiltinAbs:     AbsI,
	ast.BuiltinSqrt:    Sqrt,
	ast.BuiltinExp:     Exp,
	ast.BuiltinSin:     Sin,
	ast.BuiltinCos:     Cos,
	ast.BuiltinLog:     Log,
	ast.BuiltinLog10:   Log10,
	ast.BuiltinAsin:    Asin,
	ast.BuiltinRand:    Rand,
	ast.BuiltinRound:   Round,
	ast.BuiltinStrcpy:  Strcpy,
	ast.BuiltinStrncpy: Strncpy,
	ast.BuiltinStrcat:  Strcat,
	ast.BuiltinStrncat: Strncat,
	ast.BuiltinStrcmp:  Strcmp,
	ast.BuiltinStrncmp: Strncmp,
	ast.BuiltinStrstr:  Strstr,
	ast.BuiltinStrlen:  Strlen,
	ast.BuiltinAssert:  Assert,
	ast.BuiltinUpb:     Upb,
}

func UnaryToInstruction(op ast.UnaryOp) (Instruction, error) {
	if in, ok := unaryTable[op]; ok {
		return in, nil
	}
	return 0, fmt.Errorf("%w: unary %s", ErrNoInstruction, op)
}

func BinaryToInstruction(op ast.BinaryOp) (Instruction, error) {
	if in, ok := binaryTable[op]; ok {
		return in, nil
	}
	return 0, fmt.Errorf("%w: binary %s", ErrNoInstruction, op)
}

func BuiltinToInstruction(b ast.Builtin) (Instruction, error) {
	if in, ok := builtinTable[b]; ok {
		return in, nil
	}
	return 0, fmt.Errorf("%w: builtin %s", ErrNoInstruction, b)
}
