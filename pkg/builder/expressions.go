package builder

import (
	"github.com/xplshn/gruc/pkg/ast"
	"github.com/xplshn/gruc/pkg/config"
	"github.com/xplshn/gruc/pkg/syntax"
	"github.com/xplshn/gruc/pkg/token"
	"github.com/xplshn/gruc/pkg/tree"
	"github.com/xplshn/gruc/pkg/util"
)

func (b *Builder) BuildIdentifier(r syntax.ReprID, loc token.Location) tree.Node {
	id := b.sx.Lookup(r)
	if id == 0 {
		return b.error(loc, util.Name{C: util.ErrUndeclared, Name: b.sx.ReprText(r)})
	}
	switch b.sx.IdentKind(id) {
	case syntax.IdentBuiltin:
		return b.error(loc, util.Plain{C: util.ErrFunctionValue})
	case syntax.IdentTypeName:
		return b.error(loc, util.Name{C: util.ErrUndeclared, Name: b.sx.ReprText(r)})
	case syntax.IdentFunction:
		return b.expr(ast.KindIdentifier, b.sx.IdentType(id), ast.RValue, loc, []tree.Item{tree.Item(id)})
	}
	return b.expr(ast.KindIdentifier, b.sx.IdentType(id), ast.LValue, loc, []tree.Item{tree.Item(id)})
}

// Value rejects a function designator used anywhere but as a callee.
func (b *Builder) Value(n tree.Node) tree.Node {
	if n.IsBroken() || !b.sx.IsFunction(ast.Type(n)) {
		return n
	}
	return b.error(ast.Location(n), util.Plain{C: util.ErrFunctionValue})
}

// BuildLiteral creates a constant from a numeric, character or string token.
func (b *Builder) BuildLiteral(tok token.Token) tree.Node {
	switch tok.Type {
	case token.CharLiteral:
		return b.literal(syntax.TypeChar, tok.Int, tok.Loc)
	case token.FloatLiteral:
		return b.literal(syntax.TypeFloat, ast.FloatBits(tok.Float), tok.Loc)
	case token.StringLiteral:
		return b.expr(ast.KindString, b.stringType, ast.RValue, tok.Loc, []tree.Item{tree.Item(tok.Str)})
	}
	return b.literal(syntax.TypeInt, tok.Int, tok.Loc)
}

func (b *Builder) BuildSubscript(base, index tree.Node, lLoc, rLoc token.Location) tree.Node {
	if broken(base, index) {
		return tree.Node{}
	}
	bt := ast.Type(base)
	if !b.sx.IsArray(bt) {
		return b.error(lLoc, util.Plain{C: util.ErrSubscriptNotArray})
	}
	if !b.sx.IsInteger(ast.Type(index)) {
		return b.error(ast.Location(index), util.Plain{C: util.ErrIndexNotInteger})
	}
	loc := token.Span(ast.Location(base), rLoc)
	return b.expr(ast.KindSubscript, b.sx.Elem(bt), ast.LValue, loc, nil, base, index)
}

// BuildCall checks a call of a user function: the arity must match exactly
// and every argument must be assignable to its parameter.
func (b *Builder) BuildCall(callee tree.Node, args []tree.Node, lLoc, rLoc token.Location) tree.Node {
	if broken(callee) || broken(args...) {
		return tree.Node{}
	}
	ft := ast.Type(callee)
	if ast.KindOf(callee) != ast.KindIdentifier || !b.sx.IsFunction(ft) {
		return b.error(lLoc, util.Plain{C: util.ErrCallNotFunction})
	}
	params := b.sx.Params(ft)
	if len(params) != len(args) {
		return b.error(rLoc, util.Count{C: util.ErrWrongArgCount, Expected: len(params), Got: len(args)})
	}
	for i, p := range params {
		arg, d := b.convert(p, args[i])
		if d != nil {
			return b.error(ast.Location(args[i]), d)
		}
		args[i] = arg
	}
	loc := token.Span(ast.Location(callee), rLoc)
	return b.expr(ast.KindCall, b.sx.Return(ft), ast.RValue, loc, nil, append([]tree.Node{callee}, args...)...)
}

// BuildMember selects a structure field with . or ->. The node records the
// field's displacement inside the structure.
func (b *Builder) BuildMember(base tree.Node, name syntax.ReprID, arrow bool, opLoc, idLoc token.Location) tree.Node {
	if broken(base) {
		return tree.Node{}
	}
	sx := b.sx
	bt := ast.Type(base)

	var st syntax.TypeID
	cat := ast.LValue
	if arrow {
		if !sx.IsPointer(bt) || !sx.IsStruct(sx.Elem(bt)) {
			return b.error(opLoc, util.Plain{C: util.ErrNotStructPointer})
		}
		st = sx.Elem(bt)
	} else {
		if !sx.IsStruct(bt) {
			return b.error(opLoc, util.Plain{C: util.ErrNotStruct})
		}
		st = bt
		cat = ast.CategoryOf(base)
	}

	typ, displ, ok := sx.Member(st, name)
	if !ok {
		return b.error(idLoc, util.Name{C: util.ErrNoSuchMember, Name: sx.ReprText(name)})
	}
	var isArrow tree.Item
	if arrow {
		isArrow = 1
	}
	loc := token.Span(ast.Location(base), idLoc)
	return b.expr(ast.KindMember, typ, cat, loc, []tree.Item{displ, isArrow}, base)
}

func (b *Builder) BuildUnary(op ast.UnaryOp, operand tree.Node, opLoc token.Location) tree.Node {
	if broken(operand) {
		return tree.Node{}
	}
	sx := b.sx
	typ := ast.Type(operand)
	loc := token.Span(opLoc, ast.Location(operand))
	if op == ast.OpPostInc || op == ast.OpPostDec {
		loc = token.Span(ast.Location(operand), opLoc)
	}
	args := []tree.Item{tree.Item(op)}

	switch op {
	case ast.OpPostInc, ast.OpPostDec, ast.OpPreInc, ast.OpPreDec:
		if !ast.IsLValue(operand) {
			return b.error(opLoc, util.Plain{C: util.ErrIncDecNotLvalue})
		}
		if !sx.IsArithmetic(typ) {
			return b.error(opLoc, util.Plain{C: util.ErrNotArithmetic})
		}
		return b.expr(ast.KindUnary, typ, ast.RValue, loc, args, operand)

	case ast.OpAddress:
		if !ast.IsLValue(operand) {
			return b.error(opLoc, util.Plain{C: util.ErrAddressNotLvalue})
		}
		return b.expr(ast.KindUnary, sx.Pointer(typ), ast.RValue, loc, args, operand)

	case ast.OpIndirection:
		if !sx.IsPointer(typ) {
			return b.error(opLoc, util.Plain{C: util.ErrNotPointer})
		}
		return b.expr(ast.KindUnary, sx.Elem(typ), ast.LValue, loc, args, operand)

	case ast.OpMinus, ast.OpAbs:
		if !sx.IsArithmetic(typ) {
			return b.error(opLoc, util.Plain{C: util.ErrNotArithmetic})
		}
		return b.foldUnary(op, typ, operand, loc)

	case ast.OpNot:
		if !sx.IsInteger(typ) {
			return b.error(opLoc, util.Plain{C: util.ErrNotInteger})
		}
		return b.foldUnary(op, syntax.TypeInt, operand, loc)

	case ast.OpLogNot:
		if !sx.IsScalar(typ) {
			return b.error(opLoc, util.Plain{C: util.ErrNotScalar})
		}
		return b.foldUnary(op, syntax.TypeInt, operand, loc)
	}
	return tree.Node{}
}

func (b *Builder) folding() bool {
	return b.cfg == nil || b.cfg.IsFeatureEnabled(config.FeatFold)
}

func (b *Builder) foldUnary(op ast.UnaryOp, typ syntax.TypeID, operand tree.Node, loc token.Location) tree.Node {
	if b.folding() && ast.KindOf(operand) == ast.KindLiteral {
		if b.sx.IsFloating(ast.Type(operand)) {
			if v, ok := ast.FoldUnaryFloat(op, ast.LiteralFloat(operand)); ok {
				operand.Remove()
				return b.literal(syntax.TypeFloat, ast.FloatBits(v), loc)
			}
		} else if v, ok := ast.FoldUnaryInt(op, ast.LiteralInt(operand)); ok {
			operand.Remove()
			return b.literal(typ, v, loc)
		}
	}
	return b.expr(ast.KindUnary, typ, ast.RValue, loc, []tree.Item{tree.Item(op)}, operand)
}

func (b *Builder) BuildBinary(op ast.BinaryOp, l, r tree.Node, opLoc token.Location) tree.Node {
	if broken(l, r) {
		return tree.Node{}
	}
	if op.IsAssignment() {
		return b.buildAssignment(op, l, r, opLoc)
	}

	sx := b.sx
	lt, rt := ast.Type(l), ast.Type(r)
	loc := token.Span(ast.Location(l), ast.Location(r))

	switch {
	case op == ast.OpComma:
		return b.expr(ast.KindBinary, rt, ast.RValue, loc, []tree.Item{tree.Item(op)}, l, r)

	case op.IsIntegerOnly():
		if !sx.IsInteger(lt) || !sx.IsInteger(rt) {
			return b.error(opLoc, util.Plain{C: util.ErrNotInteger})
		}
		return b.foldBinary(op, syntax.TypeInt, l, r, loc)

	case op.IsLogical():
		if !sx.IsScalar(lt) || !sx.IsScalar(rt) {
			return b.error(opLoc, util.Plain{C: util.ErrNotScalar})
		}
		return b.foldBinary(op, syntax.TypeInt, l, r, loc)

	case op.IsEquality():
		if sx.IsFloating(lt) || sx.IsFloating(rt) {
			b.r.Warn(config.WarnFloatEquality, opLoc, util.Plain{C: util.WarnFloatEquality})
		}
		if sx.IsArithmetic(lt) && sx.IsArithmetic(rt) {
			b.usual(&l, &r)
			return b.foldBinary(op, syntax.TypeInt, l, r, loc)
		}
		if sx.IsPointer(lt) && sx.TypesEqual(lt, rt) {
			return b.expr(ast.KindBinary, syntax.TypeInt, ast.RValue, loc, []tree.Item{tree.Item(op)}, l, r)
		}
		return b.error(opLoc, util.Mismatch{Expected: sx.TypeString(lt), Got: sx.TypeString(rt)})

	case op.IsComparison():
		if !sx.IsArithmetic(lt) || !sx.IsArithmetic(rt) {
			return b.error(opLoc, util.Plain{C: util.ErrNotArithmetic})
		}
		b.usual(&l, &r)
		return b.foldBinary(op, syntax.TypeInt, l, r, loc)
	}

	if !sx.IsArithmetic(lt) || !sx.IsArithmetic(rt) {
		return b.error(opLoc, util.Plain{C: util.ErrNotArithmetic})
	}
	typ := b.usual(&l, &r)
	return b.foldBinary(op, typ, l, r, loc)
}

func (b *Builder) foldBinary(op ast.BinaryOp, typ syntax.TypeID, l, r tree.Node, loc token.Location) tree.Node {
	if b.folding() && ast.KindOf(l) == ast.KindLiteral && ast.KindOf(r) == ast.KindLiteral {
		if b.sx.IsFloating(ast.Type(l)) {
			if v, ok := ast.FoldFloat(op, ast.LiteralFloat(l), ast.LiteralFloat(r)); ok {
				r.Remove()
				l.Remove()
				if op.IsComparison() {
					return b.literal(syntax.TypeInt, tree.Item(v), loc)
				}
				return b.literal(syntax.TypeFloat, ast.FloatBits(v), loc)
			}
		} else if v, ok := ast.FoldInt(op, ast.LiteralInt(l), ast.LiteralInt(r)); ok {
			if !ast.FitsInt(v) {
				b.r.Warn(config.WarnOverflow, loc, util.Plain{C: util.WarnFoldOverflow})
				v = int64(int32(v))
			}
			r.Remove()
			l.Remove()
			return b.literal(typ, v, loc)
		}
	}
	return b.expr(ast.KindBinary, typ, ast.RValue, loc, []tree.Item{tree.Item(op)}, l, r)
}

func (b *Builder) buildAssignment(op ast.BinaryOp, target, value tree.Node, opLoc token.Location) tree.Node {
	sx := b.sx
	tt, vt := ast.Type(target), ast.Type(value)
	if sx.IsArray(tt) {
		return b.error(opLoc, util.Plain{C: util.ErrArrayAssignment})
	}
	if !ast.IsLValue(target) {
		return b.error(opLoc, util.Plain{C: util.ErrNotLvalue})
	}
	if op != ast.OpAssign {
		if op.IsIntegerOnly() && (!sx.IsInteger(tt) || !sx.IsInteger(vt)) {
			return b.error(opLoc, util.Plain{C: util.ErrNotInteger})
		}
		if !sx.IsArithmetic(tt) || !sx.IsArithmetic(vt) {
			return b.error(opLoc, util.Plain{C: util.ErrNotArithmetic})
		}
	}
	value, d := b.convert(tt, value)
	if d != nil {
		return b.error(ast.Location(value), d)
	}
	loc := token.Span(ast.Location(target), ast.Location(value))
	return b.expr(ast.KindAssignment, tt, ast.RValue, loc, []tree.Item{tree.Item(op)}, target, value)
}

func (b *Builder) BuildTernary(cond, l, r tree.Node, opLoc token.Location) tree.Node {
	if broken(cond, l, r) {
		return tree.Node{}
	}
	sx := b.sx
	if !sx.IsScalar(ast.Type(cond)) {
		return b.error(ast.Location(cond), util.Plain{C: util.ErrConditionNotScalar})
	}
	lt, rt := ast.Type(l), ast.Type(r)
	var typ syntax.TypeID
	switch {
	case sx.IsArithmetic(lt) && sx.IsArithmetic(rt):
		typ = b.usual(&l, &r)
	case sx.TypesEqual(lt, rt):
		typ = lt
	default:
		return b.error(opLoc, util.Plain{C: util.ErrIncompatibleCondOperands})
	}
	loc := token.Span(ast.Location(cond), ast.Location(r))
	return b.expr(ast.KindTernary, typ, ast.RValue, loc, nil, cond, l, r)
}

// BuildInitializer groups the elements of a brace-enclosed list. Its type
// is set when the list is checked against the declared object.
func (b *Builder) BuildInitializer(elems []tree.Node, lLoc, rLoc token.Location) tree.Node {
	if len(elems) == 0 {
		return b.error(lLoc, util.Plain{C: util.ErrEmptyInit})
	}
	if broken(elems...) {
		return tree.Node{}
	}
	return b.expr(ast.KindInitializer, syntax.TypeUndefined, ast.RValue, token.Span(lLoc, rLoc), nil, elems...)
}

func (b *Builder) BuildEmptyBound(loc token.Location) tree.Node {
	return b.expr(ast.KindEmptyBound, syntax.TypeInt, ast.RValue, loc, nil)
}
