// Package codegen walks a checked tree and emits the stack machine image.
// Forward jumps are emitted with placeholder operands whose slots are kept
// in patch lists until the target address is known.
package codegen

import (
	"fmt"

	"github.com/tliron/commonlog"
	"github.com/xplshn/gruc/pkg/ast"
	"github.com/xplshn/gruc/pkg/config"
	"github.com/xplshn/gruc/pkg/instr"
	"github.com/xplshn/gruc/pkg/syntax"
	"github.com/xplshn/gruc/pkg/tree"
)

var log = commonlog.GetLogger("gruc.codegen")

// codeStart is the first address of generated code; lower cells belong to
// the VM.
const codeStart = 4

// InternalError reports a tree the generator does not know how to lower.
// It means the builder and the generator disagree, not that the program is
// wrong.
type InternalError struct {
	Index int
	Kind  ast.Kind
	Err   error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("codegen: node %d (%s): %v", e.Index, e.Kind, e.Err)
	}
	return fmt.Sprintf("codegen: unexpected %s node %d", e.Kind, e.Index)
}

func (e *InternalError) Unwrap() error { return e.Err }

type labelState struct {
	resolved bool
	addr     tree.Item
	sites    []int
}

// jumpFrame collects the pending break and continue operands of one loop or
// switch. Switch frames also track the operand of the last failed case test
// and the jumps that fall through into the next case body.
type jumpFrame struct {
	loop         bool
	breaks       []int
	continues    []int
	caseSlot     int
	fallsThrough []int
}

type Context struct {
	sx  *syntax.Syntax
	cfg *config.Config
	mem []tree.Item

	pendingCalls map[tree.Item][]int
	labels       map[syntax.IdentID]*labelState
	frames       []*jumpFrame

	err error
}

func NewContext(sx *syntax.Syntax, cfg *config.Config) *Context {
	return &Context{
		sx:           sx,
		cfg:          cfg,
		mem:          make([]tree.Item, codeStart),
		pendingCalls: make(map[tree.Item][]int),
	}
}

// Generate lowers the translation unit under root. The root's children are
// the external declarations and function definitions in source order; the
// program ends with a call of main followed by STOP.
func (ctx *Context) Generate(root tree.Node) (*Image, error) {
	for i := 0; i < root.Amount() && ctx.err == nil; i++ {
		n := root.Child(i)
		switch ast.KindOf(n) {
		case ast.KindFuncDef:
			ctx.codegenFuncDef(n)
		case ast.KindDeclaration:
			ctx.codegenDeclaration(n)
		default:
			ctx.fail(n, nil)
		}
	}
	if ctx.err != nil {
		return nil, ctx.err
	}

	main := ctx.sx.Main()
	if main == 0 {
		return nil, fmt.Errorf("codegen: program has no main function")
	}
	ctx.emit(instr.Call1)
	ctx.emit(instr.Call2)
	ctx.call(ctx.sx.IdentDispl(main))
	ctx.emit(instr.Stop)

	for num, sites := range ctx.pendingCalls {
		if len(sites) > 0 {
			return nil, fmt.Errorf("codegen: function %d is called but never defined", num)
		}
	}
	return ctx.image(), nil
}

func (ctx *Context) image() *Image {
	maxThreads := 1
	if ctx.cfg != nil && ctx.cfg.MaxThreads > 0 {
		maxThreads = ctx.cfg.MaxThreads
	}
	return &Image{
		Memory:          ctx.mem,
		Functions:       ctx.sx.FunctionTable(),
		Identifiers:     ctx.sx.IdentTable(),
		Representations: ctx.sx.ReprTable(),
		Types:           ctx.sx.TypeTable(),
		MaxGlobalDispl:  ctx.sx.MaxGlobalDispl(),
		MaxThreads:      tree.Item(maxThreads),
	}
}

// fail records the first internal error. Later nodes are still walked but
// nothing they emit is used.
func (ctx *Context) fail(n tree.Node, err error) {
	if ctx.err != nil {
		return
	}
	ie := &InternalError{Index: n.Save(), Kind: ast.KindOf(n), Err: err}
	log.Errorf("%s", ie)
	ctx.err = ie
}

// Emission helpers

func (ctx *Context) pc() tree.Item { return tree.Item(len(ctx.mem)) }

func (ctx *Context) emit(in instr.Instruction, operands ...tree.Item) {
	ctx.mem = append(ctx.mem, tree.Item(in))
	ctx.mem = append(ctx.mem, operands...)
}

// slot reserves an operand cell and returns its address.
func (ctx *Context) slot() int {
	ctx.mem = append(ctx.mem, 0)
	return len(ctx.mem) - 1
}

// jump emits a branch with a placeholder target and returns the slot.
func (ctx *Context) jump(in instr.Instruction) int {
	ctx.emit(in)
	return ctx.slot()
}

func (ctx *Context) patch(slots []int, target tree.Item) {
	for _, s := range slots {
		ctx.mem[s] = target
	}
}

// call emits the address operand of CALL2. A function that is not yet
// defined gets a placeholder filled in by its definition.
func (ctx *Context) call(num tree.Item) {
	if addr := ctx.sx.FunctionAddress(num); addr != 0 {
		ctx.mem = append(ctx.mem, addr)
		return
	}
	ctx.pendingCalls[num] = append(ctx.pendingCalls[num], ctx.slot())
}

func (ctx *Context) sizeOf(t syntax.TypeID) tree.Item { return ctx.sx.SizeOf(t) }

func (ctx *Context) isFloat(n tree.Node) bool { return ctx.sx.IsFloating(ast.Type(n)) }

func (ctx *Context) isStruct(t syntax.TypeID) bool { return ctx.sx.IsStruct(t) }

// variant derives an instruction form and records a failure when the
// family has no such member.
func (ctx *Context) variant(n tree.Node, in instr.Instruction, derive ...func(instr.Instruction) (instr.Instruction, error)) instr.Instruction {
	for _, d := range derive {
		out, err := d(in)
		if err != nil {
			ctx.fail(n, err)
			return in
		}
		in = out
	}
	return in
}

// Functions and declarations

func (ctx *Context) codegenFuncDef(n tree.Node) {
	id := ast.FuncIdent(n)
	num := ctx.sx.IdentDispl(id)
	ctx.sx.SetFunctionAddress(num, ctx.pc())
	ctx.patch(ctx.pendingCalls[num], ctx.pc())
	delete(ctx.pendingCalls, num)

	ctx.emit(instr.FuncBeg, ast.FuncFrame(n))
	end := ctx.slot()
	ctx.labels = make(map[syntax.IdentID]*labelState)
	ctx.codegenStmt(ast.FuncBody(n))
	ctx.emit(instr.ReturnVoid)
	ctx.mem[end] = ctx.pc()
	ctx.labels = nil
}

func (ctx *Context) codegenDeclaration(n tree.Node) {
	for i := 0; i < n.Amount(); i++ {
		d := n.Child(i)
		switch ast.KindOf(d) {
		case ast.KindDeclVar:
			ctx.codegenDeclVar(d)
		case ast.KindDeclType:
		default:
			ctx.fail(d, nil)
		}
	}
}

func (ctx *Context) codegenDeclVar(n tree.Node) {
	sx := ctx.sx
	id := ast.DeclIdent(n)
	typ := sx.IdentType(id)
	displ := sx.IdentDispl(id)
	init := ast.DeclInit(n)

	dims := ast.DeclDims(n)
	if dims == 0 {
		if !ast.DeclHasInit(n) {
			return
		}
		if ctx.isStruct(typ) {
			ctx.codegenInit(init)
			ctx.emit(ctx.variant(n, instr.StructAssign, instr.ToVoid), displ, ctx.sizeOf(typ))
			return
		}
		ctx.codegenValue(init)
		in := instr.Assign
		if sx.IsFloating(typ) {
			in = ctx.variant(n, in, instr.ToFloat)
		}
		ctx.emit(ctx.variant(n, in, instr.ToVoid), displ)
		return
	}

	usual := tree.Item(1)
	for i := 0; i < dims; i++ {
		bound := ast.DeclBound(n, i)
		if ast.KindOf(bound) == ast.KindEmptyBound {
			usual = 0
			continue
		}
		ctx.codegenValue(bound)
	}
	elem := typ
	for sx.IsArray(elem) {
		elem = sx.Elem(elem)
	}
	elemSize := ctx.sizeOf(elem)
	var hasInit tree.Item
	if ast.DeclHasInit(n) {
		hasInit = 1
	}
	ctx.emit(instr.DefArr, tree.Item(dims), elemSize, displ, 0, usual, hasInit)
	if hasInit == 0 {
		return
	}
	if ast.KindOf(init) == ast.KindString {
		ctx.codegenValue(init)
		ctx.emit(instr.StringInit, displ)
		return
	}
	ctx.codegenInit(init)
	ctx.emit(instr.ArrInit, tree.Item(dims), elemSize, displ, usual)
}

// codegenInit pushes an initializer. Array lists are prefixed with their
// length; structure lists are flattened into their member values.
func (ctx *Context) codegenInit(n tree.Node) {
	if ast.KindOf(n) != ast.KindInitializer {
		ctx.codegenValue(n)
		return
	}
	if ctx.sx.IsArray(ast.Type(n)) {
		ctx.emit(instr.BeginInit, tree.Item(ast.OperandCount(n)))
	}
	for i := 0; i < ast.OperandCount(n); i++ {
		ctx.codegenInit(ast.Operand(n, i))
	}
}
