package codegen

import (
	"github.com/xplshn/gruc/pkg/ast"
	"github.com/xplshn/gruc/pkg/instr"
	"github.com/xplshn/gruc/pkg/syntax"
	"github.com/xplshn/gruc/pkg/tree"
)

func (ctx *Context) pushFrame(loop bool) *jumpFrame {
	f := &jumpFrame{loop: loop}
	ctx.frames = append(ctx.frames, f)
	return f
}

func (ctx *Context) popFrame() { ctx.frames = ctx.frames[:len(ctx.frames)-1] }

func (ctx *Context) innermost(pred func(*jumpFrame) bool) *jumpFrame {
	for i := len(ctx.frames) - 1; i >= 0; i-- {
		if pred(ctx.frames[i]) {
			return ctx.frames[i]
		}
	}
	return nil
}

func (ctx *Context) label(id syntax.IdentID) *labelState {
	l, ok := ctx.labels[id]
	if !ok {
		l = &labelState{}
		ctx.labels[id] = l
	}
	return l
}

func (ctx *Context) codegenStmt(n tree.Node) {
	switch ast.KindOf(n) {
	case ast.KindBlock:
		for i := 0; i < n.Amount(); i++ {
			ctx.codegenStmt(n.Child(i))
		}

	case ast.KindNop, ast.KindDeclType:

	case ast.KindDeclaration:
		ctx.codegenDeclaration(n)

	case ast.KindIf:
		ctx.codegenValue(n.Child(0))
		elseSlot := ctx.jump(instr.BE0)
		ctx.codegenStmt(n.Child(1))
		if ast.IfHasElse(n) {
			endSlot := ctx.jump(instr.B)
			ctx.mem[elseSlot] = ctx.pc()
			ctx.codegenStmt(n.Child(2))
			elseSlot = endSlot
		}
		ctx.mem[elseSlot] = ctx.pc()

	case ast.KindWhile:
		f := ctx.pushFrame(true)
		start := ctx.pc()
		ctx.codegenValue(n.Child(0))
		f.breaks = append(f.breaks, ctx.jump(instr.BE0))
		ctx.codegenStmt(n.Child(1))
		ctx.patch(f.continues, start)
		ctx.emit(instr.B, start)
		ctx.patch(f.breaks, ctx.pc())
		ctx.popFrame()

	case ast.KindDo:
		f := ctx.pushFrame(true)
		start := ctx.pc()
		ctx.codegenStmt(n.Child(0))
		ctx.patch(f.continues, ctx.pc())
		ctx.codegenValue(n.Child(1))
		ctx.emit(instr.BNE0, start)
		ctx.patch(f.breaks, ctx.pc())
		ctx.popFrame()

	case ast.KindFor:
		ctx.codegenFor(n)

	case ast.KindSwitch:
		ctx.codegenSwitch(n)

	case ast.KindCase:
		ctx.codegenCase(n)

	case ast.KindDefault:
		f := ctx.innermost(func(f *jumpFrame) bool { return !f.loop })
		if f == nil {
			ctx.fail(n, nil)
			return
		}
		if f.caseSlot != 0 {
			ctx.mem[f.caseSlot] = ctx.pc()
			f.caseSlot = 0
		}
		ctx.patch(f.fallsThrough, ctx.pc())
		f.fallsThrough = nil
		ctx.codegenStmt(n.Child(0))

	case ast.KindBreak:
		f := ctx.innermost(func(*jumpFrame) bool { return true })
		if f == nil {
			ctx.fail(n, nil)
			return
		}
		f.breaks = append(f.breaks, ctx.jump(instr.B))

	case ast.KindContinue:
		f := ctx.innermost(func(f *jumpFrame) bool { return f.loop })
		if f == nil {
			ctx.fail(n, nil)
			return
		}
		for i := len(ctx.frames) - 1; ctx.frames[i] != f; i-- {
			ctx.drop()
		}
		f.continues = append(f.continues, ctx.jump(instr.B))

	case ast.KindGoto:
		l := ctx.label(ast.LabelIdent(n))
		if l.resolved {
			ctx.emit(instr.B, l.addr)
			return
		}
		l.sites = append(l.sites, ctx.jump(instr.B))

	case ast.KindLabel:
		l := ctx.label(ast.LabelIdent(n))
		l.resolved, l.addr = true, ctx.pc()
		ctx.patch(l.sites, l.addr)
		l.sites = nil
		ctx.sx.SetIdentDispl(ast.LabelIdent(n), l.addr)
		ctx.codegenStmt(n.Child(0))

	case ast.KindReturn:
		if n.Amount() == 0 {
			ctx.emit(instr.ReturnVoid)
			return
		}
		v := n.Child(0)
		ctx.codegenValue(v)
		ctx.emit(instr.ReturnVal, ctx.sizeOf(ast.Type(v)))

	default:
		if !ast.KindOf(n).IsExpression() {
			ctx.fail(n, nil)
			return
		}
		ctx.codegenEffect(n)
	}
}

// codegenFor lays out init, test, body, increment and the jump back to the
// test. A missing test loops until break.
func (ctx *Context) codegenFor(n tree.Node) {
	// Clauses that were not written have no child.
	var init, cond, incr tree.Node
	next := 0
	for _, c := range []struct {
		present bool
		dst     *tree.Node
	}{{ast.ForHasInit(n), &init}, {ast.ForHasCond(n), &cond}, {ast.ForHasIncr(n), &incr}} {
		if c.present {
			*c.dst = n.Child(next)
			next++
		}
	}
	body := n.Child(next)

	if !init.IsBroken() {
		if ast.KindOf(init) == ast.KindDeclaration {
			ctx.codegenDeclaration(init)
		} else {
			ctx.codegenEffect(init)
		}
	}
	f := ctx.pushFrame(true)
	start := ctx.pc()
	if !cond.IsBroken() {
		ctx.codegenValue(cond)
		f.breaks = append(f.breaks, ctx.jump(instr.BE0))
	}
	ctx.codegenStmt(body)
	ctx.patch(f.continues, ctx.pc())
	if !incr.IsBroken() {
		ctx.codegenEffect(incr)
	}
	ctx.emit(instr.B, start)
	ctx.patch(f.breaks, ctx.pc())
	ctx.popFrame()
}

// codegenSwitch keeps the switch value on the stack during the body; every
// case duplicates it for its test. All exits meet at a drop of the value.
func (ctx *Context) codegenSwitch(n tree.Node) {
	f := ctx.pushFrame(false)
	ctx.codegenValue(n.Child(0))
	ctx.codegenStmt(n.Child(1))
	if f.caseSlot != 0 {
		ctx.mem[f.caseSlot] = ctx.pc()
	}
	ctx.patch(f.fallsThrough, ctx.pc())
	ctx.patch(f.breaks, ctx.pc())
	ctx.drop()
	ctx.popFrame()
}

// drop pops the top of the stack with a BE0 whose both outcomes continue at
// the next instruction.
func (ctx *Context) drop() {
	ctx.emit(instr.BE0, ctx.pc()+2)
}

// codegenCase tests the switch value against the case constant. Control
// reaching the case from the previous body jumps over the test.
func (ctx *Context) codegenCase(n tree.Node) {
	f := ctx.innermost(func(f *jumpFrame) bool { return !f.loop })
	if f == nil {
		ctx.fail(n, nil)
		return
	}
	if f.caseSlot != 0 {
		f.fallsThrough = append(f.fallsThrough, ctx.jump(instr.B))
		ctx.mem[f.caseSlot] = ctx.pc()
	}
	ctx.emit(instr.Duplicate)
	ctx.codegenValue(n.Child(0))
	ctx.emit(instr.EQ)
	f.caseSlot = ctx.jump(instr.BE0)
	ctx.patch(f.fallsThrough, ctx.pc())
	f.fallsThrough = nil
	ctx.codegenStmt(n.Child(1))
}
