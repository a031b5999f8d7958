package parser

import (
	"github.com/xplshn/gruc/pkg/token"
	"github.com/xplshn/gruc/pkg/tree"
)

func (p *Parser) parseBlock() tree.Node {
	sc := p.b.OpenScope()
	block := p.parseBlockBody()
	p.b.CloseScope(sc)
	return block
}

// parseBlockBody reads a braced statement list in the current scope.
func (p *Parser) parseBlockBody() tree.Node {
	start := p.current.Loc
	p.expect(token.LBrace, "{")
	var stmts []tree.Node
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		before := p.pos
		if p.isDeclarationStart() {
			stmts = append(stmts, p.parseDeclaration())
		} else {
			stmts = append(stmts, p.parseStmt())
		}
		p.synchronize()
		if p.pos == before {
			p.advance()
		}
	}
	p.expect(token.RBrace, "}")
	return p.b.BuildBlock(stmts, p.span(start))
}

func (p *Parser) parseStmt() tree.Node {
	tok := p.current
	if p.check(token.Ident) && p.peek().Type == token.Colon {
		p.advance() // consume ident
		p.advance() // consume colon
		body := p.parseStmt()
		return p.b.BuildLabel(repr(tok), body, p.span(tok.Loc))
	}

	switch {
	case p.check(token.LBrace):
		return p.parseBlock()
	case p.match(token.Semi):
		return p.b.BuildNull(tok.Loc)
	case p.match(token.If):
		cond := p.parseCondition()
		thenBody := p.parseStmt()
		var elseBody tree.Node
		hasElse := p.match(token.Else)
		if hasElse {
			elseBody = p.parseStmt()
		}
		return p.b.BuildIf(cond, thenBody, elseBody, hasElse, p.span(tok.Loc))
	case p.match(token.While):
		cond := p.parseCondition()
		p.b.EnterLoop()
		body := p.parseStmt()
		p.b.ExitLoop()
		return p.b.BuildWhile(cond, body, p.span(tok.Loc))
	case p.match(token.Do):
		p.b.EnterLoop()
		body := p.parseStmt()
		p.b.ExitLoop()
		p.expect(token.While, "while")
		cond := p.parseCondition()
		p.expect(token.Semi, ";")
		return p.b.BuildDo(body, cond, p.span(tok.Loc))
	case p.match(token.For):
		return p.parseFor(tok)
	case p.match(token.Switch):
		p.expect(token.LParen, "(")
		expr := p.parseExpr()
		p.expect(token.RParen, ")")
		p.b.EnterSwitch()
		body := p.parseStmt()
		p.b.ExitSwitch()
		return p.b.BuildSwitch(expr, body, p.span(tok.Loc))
	case p.match(token.Case):
		value := p.parseTernaryExpr()
		p.expect(token.Colon, ":")
		body := p.parseStmt()
		return p.b.BuildCase(value, body, p.span(tok.Loc))
	case p.match(token.Default):
		p.expect(token.Colon, ":")
		body := p.parseStmt()
		return p.b.BuildDefault(body, p.span(tok.Loc))
	case p.match(token.Goto):
		name := p.current
		if !p.expect(token.Ident, "label name") {
			return tree.Node{}
		}
		p.expect(token.Semi, ";")
		return p.b.BuildGoto(repr(name), p.span(tok.Loc))
	case p.match(token.Return):
		var expr tree.Node
		hasValue := !p.check(token.Semi)
		if hasValue {
			expr = p.parseExpr()
		}
		p.expect(token.Semi, ";")
		return p.b.BuildReturn(expr, hasValue, p.span(tok.Loc))
	case p.match(token.Break):
		p.expect(token.Semi, ";")
		return p.b.BuildBreak(p.span(tok.Loc))
	case p.match(token.Continue):
		p.expect(token.Semi, ";")
		return p.b.BuildContinue(p.span(tok.Loc))
	default:
		expr := p.parseExpr()
		p.expect(token.Semi, ";")
		return expr
	}
}

// parseFor reads the three optional clauses of a for statement. A
// declaration in the first clause is scoped to the statement.
func (p *Parser) parseFor(tok token.Token) tree.Node {
	p.expect(token.LParen, "(")
	sc := p.b.OpenScope()
	defer p.b.CloseScope(sc)

	var init, cond, incr tree.Node
	hasInit := !p.check(token.Semi)
	switch {
	case hasInit && p.isDeclarationStart():
		init = p.parseDeclaration()
	case hasInit:
		init = p.parseExpr()
		p.expect(token.Semi, ";")
	default:
		p.advance()
	}

	hasCond := !p.check(token.Semi)
	if hasCond {
		cond = p.b.BuildCondition(p.parseExpr())
	}
	p.expect(token.Semi, ";")

	hasIncr := !p.check(token.RParen)
	if hasIncr {
		incr = p.parseExpr()
	}
	p.expect(token.RParen, ")")

	p.b.EnterLoop()
	body := p.parseStmt()
	p.b.ExitLoop()
	return p.b.BuildFor(init, cond, incr, body, hasInit, hasCond, hasIncr, p.span(tok.Loc))
}
