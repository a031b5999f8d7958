package parser

import (
	"github.com/xplshn/gruc/pkg/builder"
	"github.com/xplshn/gruc/pkg/syntax"
	"github.com/xplshn/gruc/pkg/token"
	"github.com/xplshn/gruc/pkg/tree"
)

// Parse reads the whole translation unit and returns the tree root.
func (p *Parser) Parse() tree.Node {
	for !p.check(token.EOF) {
		start := p.pos
		p.parseExternalDeclaration()
		p.synchronize()
		if p.pos == start {
			p.advance()
		}
	}
	return p.b.BuildUnit(p.current.Loc)
}

func (p *Parser) isTypeName(tok token.Token) bool {
	if tok.Type != token.Ident {
		return false
	}
	_, ok := p.b.TypeName(repr(tok))
	return ok
}

func (p *Parser) isDeclarationStart() bool {
	return p.current.Type.IsTypeSpecifier() || p.check(token.Typedef) || p.isTypeName(p.current)
}

// isFunctionAhead reports whether the tokens after a type specifier are
// pointer stars, a name and an opening parenthesis.
func (p *Parser) isFunctionAhead() bool {
	i := p.pos
	for i < len(p.tokens) && p.tokens[i].Type == token.Star {
		i++
	}
	return i+1 < len(p.tokens) && p.tokens[i].Type == token.Ident && p.tokens[i+1].Type == token.LParen
}

func (p *Parser) parseTypeSpecifier() (syntax.TypeID, bool) {
	tok := p.current
	switch {
	case p.match(token.Int), p.match(token.Long):
		return syntax.TypeInt, true
	case p.match(token.Char):
		return syntax.TypeChar, true
	case p.match(token.Float), p.match(token.Double):
		return syntax.TypeFloat, true
	case p.match(token.Void):
		return syntax.TypeVoid, true
	case p.match(token.Struct):
		return p.parseStruct(tok.Loc), true
	case p.isTypeName(tok):
		p.advance()
		typ, _ := p.b.TypeName(repr(tok))
		return typ, true
	}
	return syntax.TypeUndefined, false
}

func (p *Parser) parseStars(typ syntax.TypeID) syntax.TypeID {
	for p.match(token.Star) {
		typ = p.sx.Pointer(typ)
	}
	return typ
}

func (p *Parser) parseStruct(start token.Location) syntax.TypeID {
	var tag syntax.ReprID
	tagLoc := p.current.Loc
	if p.check(token.Ident) {
		tag = repr(p.current)
		p.advance()
	}
	if !p.match(token.LBrace) {
		if tag == 0 {
			p.errorExpected("{")
			return syntax.TypeUndefined
		}
		return p.b.StructByTag(tag, tagLoc)
	}

	var fields []builder.FieldDecl
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		base, ok := p.parseTypeSpecifier()
		if !ok {
			p.errorExpected("member declaration")
			p.synchronize()
			continue
		}
		for {
			typ := p.parseStars(base)
			name := p.current
			if !p.expect(token.Ident, "member name") {
				break
			}
			for p.match(token.LBracket) {
				if !p.check(token.RBracket) {
					p.parseTernaryExpr()
				}
				p.expect(token.RBracket, "]")
				typ = p.sx.Array(typ)
			}
			fields = append(fields, builder.FieldDecl{Name: repr(name), Type: typ, Loc: name.Loc})
			if !p.match(token.Comma) {
				break
			}
		}
		p.expect(token.Semi, ";")
		p.synchronize()
	}
	p.expect(token.RBrace, "}")
	return p.b.DeclareStruct(tag, fields, p.span(start))
}

func (p *Parser) parseExternalDeclaration() {
	start := p.current.Loc
	if p.check(token.Typedef) {
		p.parseDeclaration()
		return
	}
	base, ok := p.parseTypeSpecifier()
	if !ok {
		p.errorExpected("declaration")
		return
	}
	if p.isFunctionAhead() {
		p.parseFunction(p.parseStars(base), start)
		return
	}
	p.finishDeclaration(base, start)
}

// parseDeclaration reads a declaration inside a block or a for clause,
// including its semicolon.
func (p *Parser) parseDeclaration() tree.Node {
	start := p.current.Loc
	if p.match(token.Typedef) {
		base, ok := p.parseTypeSpecifier()
		if !ok {
			p.errorExpected("type")
			return tree.Node{}
		}
		typ := p.parseStars(base)
		name := p.current
		if !p.expect(token.Ident, "type name") {
			return tree.Node{}
		}
		p.expect(token.Semi, ";")
		decl := p.b.DeclareTypedef(typ, repr(name), name.Loc)
		return p.b.BuildDeclaration([]tree.Node{decl}, p.span(start))
	}
	base, ok := p.parseTypeSpecifier()
	if !ok {
		p.errorExpected("type")
		return tree.Node{}
	}
	return p.finishDeclaration(base, start)
}

func (p *Parser) finishDeclaration(base syntax.TypeID, start token.Location) tree.Node {
	var decls []tree.Node
	if !p.check(token.Semi) {
		for {
			decls = append(decls, p.parseDeclarator(p.parseStars(base)))
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.expect(token.Semi, ";")
	return p.b.BuildDeclaration(decls, p.span(start))
}

func (p *Parser) parseDeclarator(typ syntax.TypeID) tree.Node {
	name := p.current
	if !p.expect(token.Ident, "identifier") {
		return tree.Node{}
	}
	var bounds []tree.Node
	for p.check(token.LBracket) {
		lLoc := p.current.Loc
		p.advance()
		if p.check(token.RBracket) {
			bounds = append(bounds, p.b.BuildEmptyBound(token.Span(lLoc, p.current.Loc)))
		} else {
			bounds = append(bounds, p.parseTernaryExpr())
		}
		p.expect(token.RBracket, "]")
		typ = p.sx.Array(typ)
	}

	id := p.b.DeclareVariable(typ, repr(name), name.Loc)
	var init tree.Node
	hasInit := p.match(token.Eq)
	if hasInit {
		init = p.parseInitializer()
	}
	return p.b.BuildDeclVar(id, bounds, init, hasInit, p.span(name.Loc))
}

func (p *Parser) parseParams() []builder.Param {
	var params []builder.Param
	if p.check(token.RParen) {
		return params
	}
	if p.check(token.Void) && p.peek().Type == token.RParen {
		p.advance()
		return params
	}
	for {
		start := p.current.Loc
		base, ok := p.parseTypeSpecifier()
		if !ok {
			p.errorExpected("parameter type")
			return params
		}
		param := builder.Param{Type: p.parseStars(base), Loc: start}
		if p.check(token.Ident) {
			param.Repr, param.Loc = repr(p.current), p.current.Loc
			p.advance()
		}
		for p.match(token.LBracket) {
			p.expect(token.RBracket, "]")
			param.Type = p.sx.Array(param.Type)
		}
		params = append(params, param)
		if !p.match(token.Comma) {
			return params
		}
	}
}

func (p *Parser) parseFunction(ret syntax.TypeID, start token.Location) {
	name := p.current
	p.advance()
	p.advance()
	params := p.parseParams()
	p.expect(token.RParen, ")")

	types := make([]syntax.TypeID, len(params))
	for i, param := range params {
		types[i] = param.Type
	}
	id := p.b.DeclareFunction(repr(name), p.sx.Function(ret, types), name.Loc)
	if p.match(token.Semi) {
		return
	}
	if !p.check(token.LBrace) {
		p.errorExpected("{")
		return
	}
	sc := p.b.BeginFunction(id, params, name.Loc)
	body := p.parseBlockBody()
	p.b.BuildFunction(id, sc, body, p.span(start))
}
