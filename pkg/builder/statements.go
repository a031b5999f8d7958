package builder

import (
	"github.com/xplshn/gruc/pkg/ast"
	"github.com/xplshn/gruc/pkg/config"
	"github.com/xplshn/gruc/pkg/syntax"
	"github.com/xplshn/gruc/pkg/token"
	"github.com/xplshn/gruc/pkg/tree"
	"github.com/xplshn/gruc/pkg/util"
)

// Param is a parsed function parameter. Repr is zero for unnamed
// parameters of a prototype.
type Param struct {
	Repr syntax.ReprID
	Type syntax.TypeID
	Loc  token.Location
}

// FieldDecl is a parsed structure member.
type FieldDecl struct {
	Name syntax.ReprID
	Type syntax.TypeID
	Loc  token.Location
}

// Declarations

// DeclareVariable enters a variable into the current scope and returns its
// identifier, or 0 after reporting why it cannot be declared.
func (b *Builder) DeclareVariable(typ syntax.TypeID, r syntax.ReprID, loc token.Location) syntax.IdentID {
	base := typ
	for b.sx.IsArray(base) {
		base = b.sx.Elem(base)
	}
	if b.sx.IsVoid(base) {
		b.r.Error(loc, util.Plain{C: util.ErrVoidVariable})
		return 0
	}
	id, err := b.sx.AddIdent(r, syntax.IdentVariable, typ)
	if err != nil {
		b.redeclared(err, r, loc)
		return 0
	}
	return id
}

// BuildDeclVar checks the bounds and the initializer of a declared variable.
func (b *Builder) BuildDeclVar(id syntax.IdentID, bounds []tree.Node, init tree.Node, hasInit bool, loc token.Location) tree.Node {
	if id == 0 {
		return tree.Node{}
	}
	sx := b.sx
	ok := true
	empty := false
	for _, bound := range bounds {
		switch {
		case bound.IsBroken():
			ok = false
		case ast.KindOf(bound) == ast.KindEmptyBound:
			empty = true
		case !sx.IsInteger(ast.Type(bound)):
			b.r.Error(ast.Location(bound), util.Plain{C: util.ErrBoundNotInteger})
			ok = false
		}
	}
	if empty && !hasInit {
		b.r.Error(loc, util.Plain{C: util.ErrEmptyBoundNoInit})
		ok = false
	}

	typ := sx.IdentType(id)
	if hasInit && !init.IsBroken() {
		kind := ast.KindOf(init)
		if sx.IsArray(typ) && kind != ast.KindInitializer && kind != ast.KindString {
			b.r.Error(ast.Location(init), util.Plain{C: util.ErrWrongInit})
			ok = false
		} else {
			var d util.Diagnostic
			if init, d = b.convert(typ, init); d != nil {
				b.r.Error(ast.Location(init), d)
				ok = false
			}
		}
	} else if hasInit {
		ok = false
	}
	if !ok {
		return tree.Node{}
	}

	args := []tree.Item{tree.Item(id), tree.Item(len(bounds)), flag(hasInit)}
	return b.node(ast.KindDeclVar, loc, args, append(bounds, init)...)
}

// DeclareTypedef binds a spelling to a type in the current scope.
func (b *Builder) DeclareTypedef(typ syntax.TypeID, r syntax.ReprID, loc token.Location) tree.Node {
	id, err := b.sx.AddIdent(r, syntax.IdentTypeName, typ)
	if err != nil {
		b.redeclared(err, r, loc)
		return tree.Node{}
	}
	return b.node(ast.KindDeclType, loc, []tree.Item{tree.Item(id)})
}

func structTag(sx *syntax.Syntax, tag syntax.ReprID) syntax.ReprID {
	return sx.Intern("struct " + sx.ReprText(tag))
}

// DeclareStruct creates a structure type and, for a tagged structure, binds
// the tag in the current scope. Members cannot be arrays.
func (b *Builder) DeclareStruct(tag syntax.ReprID, fields []FieldDecl, loc token.Location) syntax.TypeID {
	sx := b.sx
	seen := make(map[syntax.ReprID]bool, len(fields))
	members := make([]syntax.Field, 0, len(fields))
	ok := true
	for _, f := range fields {
		switch {
		case sx.IsArray(f.Type):
			b.r.Error(f.Loc, util.Plain{C: util.ErrArrayMember})
			ok = false
		case sx.IsVoid(f.Type):
			b.r.Error(f.Loc, util.Plain{C: util.ErrVoidVariable})
			ok = false
		case seen[f.Name]:
			b.r.Error(f.Loc, util.Name{C: util.ErrRedeclared, Name: sx.ReprText(f.Name)})
			ok = false
		}
		seen[f.Name] = true
		members = append(members, syntax.Field{Type: f.Type, Name: f.Name})
	}
	if !ok {
		return syntax.TypeUndefined
	}
	typ := sx.Struct(members)
	if tag != 0 {
		r := structTag(sx, tag)
		if _, err := sx.AddIdent(r, syntax.IdentTypeName, typ); err != nil {
			b.redeclared(err, tag, loc)
		}
	}
	return typ
}

// StructByTag resolves a previously declared structure tag.
func (b *Builder) StructByTag(tag syntax.ReprID, loc token.Location) syntax.TypeID {
	if typ, ok := b.TypeName(structTag(b.sx, tag)); ok {
		return typ
	}
	b.r.Error(loc, util.Name{C: util.ErrUnknownStruct, Name: b.sx.ReprText(tag)})
	return syntax.TypeUndefined
}

func (b *Builder) BuildDeclaration(decls []tree.Node, loc token.Location) tree.Node {
	return b.node(ast.KindDeclaration, loc, nil, decls...)
}

// Functions

// DeclareFunction declares a function or finds its earlier prototype, which
// must have the same type.
func (b *Builder) DeclareFunction(r syntax.ReprID, typ syntax.TypeID, loc token.Location) syntax.IdentID {
	sx := b.sx
	if prev := sx.Lookup(r); prev != 0 && sx.IdentKind(prev) == syntax.IdentFunction && sx.InCurrentScope(prev) {
		if !sx.TypesEqual(sx.IdentType(prev), typ) {
			b.r.Error(loc, util.Name{C: util.ErrPrototypeMismatch, Name: sx.ReprText(r)})
			return 0
		}
		return prev
	}
	id, err := sx.AddIdent(r, syntax.IdentFunction, typ)
	if err != nil {
		b.redeclared(err, r, loc)
		return 0
	}
	b.funcLocs[id] = loc
	return id
}

// BeginFunction opens the scope of a function body and declares its
// parameters.
func (b *Builder) BeginFunction(id syntax.IdentID, params []Param, loc token.Location) syntax.Scope {
	sx := b.sx
	if b.fn != 0 {
		b.r.Error(loc, util.Plain{C: util.ErrNestedFunction})
	}
	if id != 0 && sx.IsDefined(id) {
		b.r.Error(loc, util.Name{C: util.ErrRedeclared, Name: sx.IdentName(id)})
	}
	sc := sx.EnterFunction()
	b.fn = id
	b.ret = sx.Return(sx.IdentType(id))
	b.labels = nil
	b.labelIndex = make(map[syntax.ReprID]*label)
	for _, p := range params {
		if p.Repr == 0 {
			b.r.Error(p.Loc, util.Expected{What: "parameter name"})
			continue
		}
		b.DeclareVariable(p.Type, p.Repr, p.Loc)
	}
	return sc
}

// BuildFunction closes a function body. Labels that were jumped to but
// never placed are reported here.
func (b *Builder) BuildFunction(id syntax.IdentID, sc syntax.Scope, body tree.Node, loc token.Location) tree.Node {
	for _, l := range b.labels {
		if !l.defined {
			b.r.Error(l.use, util.Name{C: util.ErrLabelUndefined, Name: l.name})
		}
	}
	frame := b.sx.ExitFunction(sc)
	b.fn, b.labels, b.labelIndex = 0, nil, nil

	if id == 0 || body.IsBroken() || b.sx.IsDefined(id) {
		return tree.Node{}
	}
	b.sx.SetDefined(id)
	return b.node(ast.KindFuncDef, loc, []tree.Item{tree.Item(id), frame}, body)
}

// Statements

func (b *Builder) OpenScope() syntax.Scope    { return b.sx.EnterBlock() }
func (b *Builder) CloseScope(sc syntax.Scope) { b.sx.ExitBlock(sc) }

func (b *Builder) EnterLoop()   { b.loops++ }
func (b *Builder) ExitLoop()    { b.loops-- }
func (b *Builder) EnterSwitch() { b.switches++ }
func (b *Builder) ExitSwitch()  { b.switches-- }

func (b *Builder) BuildBlock(stmts []tree.Node, loc token.Location) tree.Node {
	return b.node(ast.KindBlock, loc, nil, stmts...)
}

func (b *Builder) BuildNull(loc token.Location) tree.Node {
	return b.node(ast.KindNop, loc, nil)
}

// BuildCondition checks the controlling expression of if, while, do, for
// and ?:.
func (b *Builder) BuildCondition(cond tree.Node) tree.Node {
	if cond.IsBroken() {
		return cond
	}
	if !b.sx.IsScalar(ast.Type(cond)) {
		return b.error(ast.Location(cond), util.Plain{C: util.ErrConditionNotScalar})
	}
	if ast.KindOf(cond) == ast.KindAssignment {
		b.r.Warn(config.WarnAssignInCond, ast.Location(cond), util.Plain{C: util.WarnAssignInCond})
	}
	return cond
}

func flag(b bool) tree.Item {
	if b {
		return 1
	}
	return 0
}

func (b *Builder) BuildIf(cond, then, els tree.Node, hasElse bool, loc token.Location) tree.Node {
	if broken(cond, then) || (hasElse && els.IsBroken()) {
		return tree.Node{}
	}
	return b.node(ast.KindIf, loc, []tree.Item{flag(hasElse)}, cond, then, els)
}

func (b *Builder) BuildWhile(cond, body tree.Node, loc token.Location) tree.Node {
	if broken(cond, body) {
		return tree.Node{}
	}
	return b.node(ast.KindWhile, loc, nil, cond, body)
}

func (b *Builder) BuildDo(body, cond tree.Node, loc token.Location) tree.Node {
	if broken(body, cond) {
		return tree.Node{}
	}
	return b.node(ast.KindDo, loc, nil, body, cond)
}

// BuildFor takes the optional clauses together with flags telling which of
// them were written.
func (b *Builder) BuildFor(init, cond, incr, body tree.Node, hasInit, hasCond, hasIncr bool, loc token.Location) tree.Node {
	if body.IsBroken() || (hasInit && init.IsBroken()) || (hasCond && cond.IsBroken()) || (hasIncr && incr.IsBroken()) {
		return tree.Node{}
	}
	args := []tree.Item{flag(hasInit), flag(hasCond), flag(hasIncr)}
	return b.node(ast.KindFor, loc, args, init, cond, incr, body)
}

func (b *Builder) BuildSwitch(cond, body tree.Node, loc token.Location) tree.Node {
	if broken(cond) {
		return tree.Node{}
	}
	if !b.sx.IsInteger(ast.Type(cond)) {
		return b.error(ast.Location(cond), util.Plain{C: util.ErrSwitchNotInteger})
	}
	if broken(body) {
		return tree.Node{}
	}
	return b.node(ast.KindSwitch, loc, nil, cond, body)
}

func (b *Builder) BuildCase(value, body tree.Node, loc token.Location) tree.Node {
	if b.switches == 0 {
		return b.error(loc, util.Plain{C: util.ErrCaseOutsideSwitch})
	}
	if broken(value) {
		return tree.Node{}
	}
	if !b.sx.IsInteger(ast.Type(value)) {
		return b.error(ast.Location(value), util.Plain{C: util.ErrCaseNotInteger})
	}
	if ast.KindOf(value) != ast.KindLiteral {
		return b.error(ast.Location(value), util.Expected{What: "constant expression"})
	}
	if broken(body) {
		return tree.Node{}
	}
	return b.node(ast.KindCase, loc, nil, value, body)
}

func (b *Builder) BuildDefault(body tree.Node, loc token.Location) tree.Node {
	if b.switches == 0 {
		return b.error(loc, util.Plain{C: util.ErrCaseOutsideSwitch})
	}
	if broken(body) {
		return tree.Node{}
	}
	return b.node(ast.KindDefault, loc, nil, body)
}

func (b *Builder) BuildBreak(loc token.Location) tree.Node {
	if b.loops == 0 && b.switches == 0 {
		return b.error(loc, util.Plain{C: util.ErrBreakOutside})
	}
	return b.node(ast.KindBreak, loc, nil)
}

func (b *Builder) BuildContinue(loc token.Location) tree.Node {
	if b.loops == 0 {
		return b.error(loc, util.Plain{C: util.ErrContinueOutside})
	}
	return b.node(ast.KindContinue, loc, nil)
}

// BuildReturn checks the returned value against the function's return type.
func (b *Builder) BuildReturn(value tree.Node, hasValue bool, loc token.Location) tree.Node {
	if b.sx.IsVoid(b.ret) {
		if hasValue {
			return b.error(loc, util.Plain{C: util.ErrReturnValueInVoid})
		}
		return b.node(ast.KindReturn, loc, nil)
	}
	if !hasValue {
		return b.error(loc, util.Plain{C: util.ErrReturnNoValue})
	}
	if value.IsBroken() {
		return tree.Node{}
	}
	value, d := b.convert(b.ret, value)
	if d != nil {
		return b.error(ast.Location(value), d)
	}
	return b.node(ast.KindReturn, loc, nil, value)
}

func (b *Builder) label(r syntax.ReprID, loc token.Location) *label {
	if l, ok := b.labelIndex[r]; ok {
		return l
	}
	id, _ := b.sx.AddIdent(r, syntax.IdentLabel, syntax.TypeUndefined)
	l := &label{ident: id, name: b.sx.ReprText(r), use: loc}
	b.labels = append(b.labels, l)
	b.labelIndex[r] = l
	return l
}

func (b *Builder) BuildGoto(r syntax.ReprID, loc token.Location) tree.Node {
	if b.labelIndex == nil {
		return b.error(loc, util.Name{C: util.ErrLabelUndefined, Name: b.sx.ReprText(r)})
	}
	l := b.label(r, loc)
	return b.node(ast.KindGoto, loc, []tree.Item{tree.Item(l.ident)})
}

func (b *Builder) BuildLabel(r syntax.ReprID, body tree.Node, loc token.Location) tree.Node {
	if b.labelIndex == nil {
		return body
	}
	l := b.label(r, loc)
	if l.defined {
		return b.error(loc, util.Name{C: util.ErrLabelRedefined, Name: l.name})
	}
	l.defined = true
	if broken(body) {
		return tree.Node{}
	}
	return b.node(ast.KindLabel, loc, []tree.Item{tree.Item(l.ident)}, body)
}
