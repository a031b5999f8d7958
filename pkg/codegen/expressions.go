package codegen

import (
	"github.com/xplshn/gruc/pkg/ast"
	"github.com/xplshn/gruc/pkg/instr"
	"github.com/xplshn/gruc/pkg/syntax"
	"github.com/xplshn/gruc/pkg/tree"
)

// codegenValue pushes the value of an expression. Structures are pushed
// whole; arrays are pushed as their descriptor.
func (ctx *Context) codegenValue(n tree.Node) {
	sx := ctx.sx
	typ := ast.Type(n)
	switch ast.KindOf(n) {
	case ast.KindLiteral:
		ctx.emit(instr.LI, n.Arg(2))

	case ast.KindString:
		ctx.codegenString(sx.String(ast.StringIndex(n)))

	case ast.KindIdentifier:
		displ := sx.IdentDispl(ast.Ident(n))
		if ctx.isStruct(typ) {
			ctx.emit(instr.Copy0ST, displ, ctx.sizeOf(typ))
			return
		}
		ctx.emit(instr.Load, displ)

	case ast.KindCast:
		if !sx.IsInteger(ast.CastSource(n)) || !sx.IsFloating(typ) {
			ctx.fail(n, nil)
			return
		}
		ctx.codegenValue(n.Child(0))
		ctx.emit(instr.Widen)

	case ast.KindSubscript:
		ctx.codegenAddr(n)
		ctx.load(typ)

	case ast.KindMember:
		base := n.Child(0)
		if !ast.MemberIsArrow(n) && !ast.IsLValue(base) {
			ctx.codegenValue(base)
			ctx.emit(instr.CopyST, ast.MemberDispl(n), ctx.sizeOf(typ), ctx.sizeOf(ast.Type(base)))
			return
		}
		ctx.codegenAddr(n)
		ctx.load(typ)

	case ast.KindUnary:
		ctx.codegenUnary(n, false)

	case ast.KindBinary:
		ctx.codegenBinary(n)

	case ast.KindAssignment:
		ctx.codegenAssignment(n, false)

	case ast.KindTernary:
		ctx.codegenValue(n.Child(0))
		elseSlot := ctx.jump(instr.BE0)
		ctx.codegenValue(n.Child(1))
		endSlot := ctx.jump(instr.B)
		ctx.mem[elseSlot] = ctx.pc()
		ctx.codegenValue(n.Child(2))
		ctx.mem[endSlot] = ctx.pc()

	case ast.KindCall:
		ctx.emit(instr.Call1)
		for i := 1; i < n.Amount(); i++ {
			ctx.codegenValue(n.Child(i))
		}
		ctx.emit(instr.Call2)
		ctx.call(sx.IdentDispl(ast.Ident(n.Child(0))))

	case ast.KindBuiltin:
		ctx.codegenBuiltin(n)

	default:
		ctx.fail(n, nil)
	}
}

// load replaces the address on top of the stack with the value it points to.
func (ctx *Context) load(typ syntax.TypeID) {
	if ctx.isStruct(typ) {
		ctx.emit(instr.Copy1ST, ctx.sizeOf(typ))
		return
	}
	ctx.emit(instr.LAT)
}

// codegenString lays the characters out inline and jumps over them. The
// pushed address points at the first character; the length is stored in
// the cell before it.
func (ctx *Context) codegenString(s string) {
	runes := []rune(s)
	ctx.emit(instr.LI)
	addr := ctx.slot()
	end := ctx.jump(instr.B)
	ctx.mem = append(ctx.mem, tree.Item(len(runes)))
	ctx.mem[addr] = ctx.pc()
	for _, r := range runes {
		ctx.mem = append(ctx.mem, tree.Item(r))
	}
	ctx.mem[end] = ctx.pc()
}

// codegenAddr pushes the address of an lvalue.
func (ctx *Context) codegenAddr(n tree.Node) {
	switch ast.KindOf(n) {
	case ast.KindIdentifier:
		ctx.emit(instr.LA, ctx.sx.IdentDispl(ast.Ident(n)))

	case ast.KindSubscript:
		ctx.codegenValue(n.Child(0))
		ctx.codegenValue(n.Child(1))
		ctx.emit(instr.Slice, ctx.sizeOf(ast.Type(n)))

	case ast.KindMember:
		if ast.MemberIsArrow(n) {
			ctx.codegenValue(n.Child(0))
		} else {
			ctx.codegenAddr(n.Child(0))
		}
		ctx.emit(instr.Select, ast.MemberDispl(n))

	case ast.KindUnary:
		if ast.UnaryOpOf(n) != ast.OpIndirection {
			ctx.fail(n, nil)
			return
		}
		ctx.codegenValue(n.Child(0))

	default:
		ctx.fail(n, nil)
	}
}

func (ctx *Context) codegenUnary(n tree.Node, void bool) {
	op := ast.UnaryOpOf(n)
	operand := n.Child(0)
	switch {
	case op == ast.OpAddress:
		ctx.codegenAddr(operand)
		return
	case op == ast.OpIndirection:
		ctx.codegenValue(operand)
		ctx.load(ast.Type(n))
		return
	case op.IsIncDec():
		in, err := instr.UnaryToInstruction(op)
		if err != nil {
			ctx.fail(n, err)
			return
		}
		if ctx.isFloat(n) {
			in = ctx.variant(n, in, instr.ToFloat)
		}
		if void {
			in = ctx.variant(n, in, instr.ToVoid)
		}
		ctx.store(n, operand, in, nil)
		return
	}

	ctx.codegenValue(operand)
	in, err := instr.UnaryToInstruction(op)
	if err != nil {
		ctx.fail(n, err)
		return
	}
	if ctx.isFloat(operand) && op != ast.OpLogNot {
		in = ctx.variant(n, in, instr.ToFloat)
	}
	ctx.emit(in)
}

// store emits a family instruction writing to target. Identifiers are
// addressed by displacement; anything else has its address pushed first and
// uses the @ form. value, when set, is evaluated between the address and
// the instruction.
func (ctx *Context) store(n, target tree.Node, in instr.Instruction, value func(), extra ...tree.Item) {
	if ast.KindOf(target) == ast.KindIdentifier {
		if value != nil {
			value()
		}
		ctx.emit(in, append([]tree.Item{ctx.sx.IdentDispl(ast.Ident(target))}, extra...)...)
		return
	}
	ctx.codegenAddr(target)
	if value != nil {
		value()
	}
	ctx.emit(ctx.variant(n, in, instr.ToAddress), extra...)
}

func (ctx *Context) codegenAssignment(n tree.Node, void bool) {
	target, value := n.Child(0), n.Child(1)
	typ := ast.Type(n)
	push := func() { ctx.codegenValue(value) }

	if ctx.isStruct(typ) {
		in := instr.StructAssign
		if void {
			in = ctx.variant(n, in, instr.ToVoid)
		}
		ctx.store(n, target, in, push, ctx.sizeOf(typ))
		return
	}

	in, err := instr.BinaryToInstruction(ast.BinaryOpOf(n))
	if err != nil {
		ctx.fail(n, err)
		return
	}
	if ctx.isFloat(n) {
		in = ctx.variant(n, in, instr.ToFloat)
	}
	if void {
		in = ctx.variant(n, in, instr.ToVoid)
	}
	ctx.store(n, target, in, push)
}

func (ctx *Context) codegenBinary(n tree.Node) {
	op := ast.BinaryOpOf(n)
	l, r := n.Child(0), n.Child(1)
	switch op {
	case ast.OpComma:
		ctx.codegenEffect(l)
		ctx.codegenValue(r)
		return
	case ast.OpLogAnd, ast.OpLogOr:
		ctx.codegenValue(l)
		ctx.emit(instr.Duplicate)
		short := instr.BE0
		if op == ast.OpLogOr {
			short = instr.BNE0
		}
		skip := ctx.jump(short)
		ctx.codegenValue(r)
		if op == ast.OpLogOr {
			ctx.emit(instr.LogOr)
		} else {
			ctx.emit(instr.LogAnd)
		}
		ctx.mem[skip] = ctx.pc()
		return
	}

	ctx.codegenValue(l)
	ctx.codegenValue(r)
	in, err := instr.BinaryToInstruction(op)
	if err != nil {
		ctx.fail(n, err)
		return
	}
	if ctx.isFloat(l) {
		in = ctx.variant(n, in, instr.ToFloat)
	}
	ctx.emit(in)
}

func (ctx *Context) codegenBuiltin(n tree.Node) {
	bi := ast.BuiltinOf(n)
	switch bi {
	case ast.BuiltinPrintf:
		var size tree.Item
		for i := 0; i < n.Amount(); i++ {
			arg := n.Child(i)
			ctx.codegenValue(arg)
			if i > 0 {
				size += ctx.sizeOf(ast.Type(arg))
			}
		}
		ctx.emit(instr.Printf, size)
		return
	case ast.BuiltinPrint:
		for i := 0; i < n.Amount(); i++ {
			arg := n.Child(i)
			ctx.codegenValue(arg)
			ctx.emit(instr.Print, tree.Item(ast.Type(arg)))
		}
		return
	case ast.BuiltinPrintid, ast.BuiltinGetid:
		in := instr.Printid
		if bi == ast.BuiltinGetid {
			in = instr.Getid
		}
		for i := 0; i < n.Amount(); i++ {
			ctx.emit(in, tree.Item(ast.Ident(n.Child(i))))
		}
		return
	}

	for i := 0; i < n.Amount(); i++ {
		ctx.codegenValue(n.Child(i))
	}
	in, err := instr.BuiltinToInstruction(bi)
	if err != nil {
		ctx.fail(n, err)
		return
	}
	ctx.emit(in)
}

// codegenEffect evaluates an expression for its side effects. Stores and
// increments use their V forms; other values are left on the stack.
func (ctx *Context) codegenEffect(n tree.Node) {
	switch ast.KindOf(n) {
	case ast.KindAssignment:
		ctx.codegenAssignment(n, true)
	case ast.KindUnary:
		if ast.UnaryOpOf(n).IsIncDec() {
			ctx.codegenUnary(n, true)
			return
		}
		ctx.codegenValue(n)
	case ast.KindBinary:
		if ast.BinaryOpOf(n) == ast.OpComma {
			ctx.codegenEffect(n.Child(0))
			ctx.codegenEffect(n.Child(1))
			return
		}
		ctx.codegenValue(n)
	default:
		ctx.codegenValue(n)
	}
}
