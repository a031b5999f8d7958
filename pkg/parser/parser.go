package parser

import (
	"github.com/xplshn/gruc/pkg/ast"
	"github.com/xplshn/gruc/pkg/builder"
	"github.com/xplshn/gruc/pkg/syntax"
	"github.com/xplshn/gruc/pkg/token"
	"github.com/xplshn/gruc/pkg/tree"
	"github.com/xplshn/gruc/pkg/util"
)

// Parser holds the state for the parsing process
type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token

	b  *builder.Builder
	sx *syntax.Syntax
	r  *util.Reporter

	// recovering suppresses further syntax errors until the parser
	// resynchronizes at a statement boundary.
	recovering bool
}

// NewParser creates a Parser over a token stream that ends with EOF
func NewParser(tokens []token.Token, b *builder.Builder) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		tokens = append(tokens, token.Token{Type: token.EOF})
	}
	sx := b.Syntax()
	return &Parser{tokens: tokens, current: tokens[0], b: b, sx: sx, r: sx.Reporter}
}

// Parser helpers
func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.previous = p.current
		p.pos++
		p.current = p.tokens[p.pos]
	} else {
		p.previous = p.current
	}
}

func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) check(tokType token.Type) bool {
	return p.current.Type == tokType
}

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(tokType token.Type, what string) bool {
	if p.match(tokType) {
		return true
	}
	p.errorExpected(what)
	return false
}

func (p *Parser) errorExpected(what string) {
	if p.recovering {
		return
	}
	p.r.Error(p.current.Loc, util.Expected{What: what})
	p.recovering = true
}

// synchronize skips to the end of the broken statement: past the next
// semicolon or up to a closing brace. A statement that already ended with
// its semicolon needs no skipping.
func (p *Parser) synchronize() {
	if !p.recovering {
		return
	}
	if p.previous.Type == token.Semi {
		p.recovering = false
		return
	}
	for !p.check(token.EOF) && !p.check(token.RBrace) {
		if p.match(token.Semi) {
			break
		}
		p.advance()
	}
	p.recovering = false
}

func (p *Parser) span(start token.Location) token.Location {
	return token.Location{Begin: start.Begin, End: p.previous.Loc.End}
}

func repr(tok token.Token) syntax.ReprID { return syntax.ReprID(tok.Repr) }

var binaryOps = map[token.Type]ast.BinaryOp{
	token.Star:   ast.OpMul,
	token.Slash:  ast.OpDiv,
	token.Rem:    ast.OpRem,
	token.Plus:   ast.OpAdd,
	token.Minus:  ast.OpSub,
	token.Shl:    ast.OpShl,
	token.Shr:    ast.OpShr,
	token.Lt:     ast.OpLT,
	token.Gt:     ast.OpGT,
	token.Lte:    ast.OpLE,
	token.Gte:    ast.OpGE,
	token.EqEq:   ast.OpEQ,
	token.Neq:    ast.OpNE,
	token.And:    ast.OpAnd,
	token.Xor:    ast.OpXor,
	token.Or:     ast.OpOr,
	token.AndAnd: ast.OpLogAnd,
	token.OrOr:   ast.OpLogOr,
}

var assignOps = map[token.Type]ast.BinaryOp{
	token.Eq:      ast.OpAssign,
	token.StarEq:  ast.OpMulAssign,
	token.SlashEq: ast.OpDivAssign,
	token.RemEq:   ast.OpRemAssign,
	token.PlusEq:  ast.OpAddAssign,
	token.MinusEq: ast.OpSubAssign,
	token.ShlEq:   ast.OpShlAssign,
	token.ShrEq:   ast.OpShrAssign,
	token.AndEq:   ast.OpAndAssign,
	token.XorEq:   ast.OpXorAssign,
	token.OrEq:    ast.OpOrAssign,
}

var prefixOps = map[token.Type]ast.UnaryOp{
	token.Inc:        ast.OpPreInc,
	token.Dec:        ast.OpPreDec,
	token.And:        ast.OpAddress,
	token.Star:       ast.OpIndirection,
	token.Minus:      ast.OpMinus,
	token.Not:        ast.OpLogNot,
	token.Complement: ast.OpNot,
}

// Expression Parsing
func getBinaryOpPrecedence(op token.Type) int {
	switch op {
	case token.Star, token.Slash, token.Rem:
		return 13
	case token.Plus, token.Minus:
		return 12
	case token.Shl, token.Shr:
		return 11
	case token.Lt, token.Gt, token.Lte, token.Gte:
		return 10
	case token.EqEq, token.Neq:
		return 9
	case token.And:
		return 8
	case token.Xor:
		return 7
	case token.Or:
		return 6
	case token.AndAnd:
		return 5
	case token.OrOr:
		return 4
	default:
		return -1
	}
}

func (p *Parser) parsePrimaryExpr() tree.Node {
	tok := p.current
	switch {
	case p.match(token.IntLiteral), p.match(token.CharLiteral), p.match(token.FloatLiteral), p.match(token.StringLiteral):
		return p.b.BuildLiteral(tok)
	case p.match(token.Ident):
		if !p.check(token.LParen) {
			return p.b.Value(p.b.BuildIdentifier(repr(tok), tok.Loc))
		}
		lLoc := p.current.Loc
		p.advance()
		args := p.parseArguments()
		rLoc := p.current.Loc
		p.expect(token.RParen, ")")
		if bi, ok := p.b.IsBuiltin(repr(tok)); ok {
			return p.b.BuildBuiltin(bi, args, token.Span(tok.Loc, rLoc))
		}
		callee := p.b.BuildIdentifier(repr(tok), tok.Loc)
		return p.b.BuildCall(callee, args, lLoc, rLoc)
	case p.match(token.LParen):
		expr := p.parseExpr()
		p.expect(token.RParen, ")")
		return expr
	}
	p.errorExpected("expression")
	return tree.Node{}
}

func (p *Parser) parseArguments() []tree.Node {
	var args []tree.Node
	if p.check(token.RParen) {
		return args
	}
	for {
		args = append(args, p.parseAssignmentExpr())
		if !p.match(token.Comma) {
			return args
		}
	}
}

func (p *Parser) parsePostfixExpr() tree.Node {
	expr := p.parsePrimaryExpr()
	for {
		tok := p.current
		switch {
		case p.match(token.LBracket):
			index := p.parseExpr()
			rLoc := p.current.Loc
			p.expect(token.RBracket, "]")
			expr = p.b.BuildSubscript(expr, index, tok.Loc, rLoc)
		case p.match(token.Dot), p.match(token.Arrow):
			name := p.current
			if !p.expect(token.Ident, "member name") {
				return tree.Node{}
			}
			expr = p.b.BuildMember(expr, repr(name), tok.Type == token.Arrow, tok.Loc, name.Loc)
		case p.match(token.Inc):
			expr = p.b.BuildUnary(ast.OpPostInc, expr, tok.Loc)
		case p.match(token.Dec):
			expr = p.b.BuildUnary(ast.OpPostDec, expr, tok.Loc)
		default:
			return expr
		}
	}
}

func (p *Parser) parseUnaryExpr() tree.Node {
	tok := p.current
	if op, ok := prefixOps[tok.Type]; ok {
		p.advance()
		operand := p.parseUnaryExpr()
		return p.b.BuildUnary(op, operand, tok.Loc)
	}
	if p.match(token.Plus) {
		return p.parseUnaryExpr()
	}
	return p.parsePostfixExpr()
}

func (p *Parser) parseBinaryExpr(minPrec int) tree.Node {
	left := p.parseUnaryExpr()
	for {
		op := p.current.Type
		prec := getBinaryOpPrecedence(op)
		if prec < minPrec {
			break
		}
		opTok := p.current
		p.advance()
		right := p.parseBinaryExpr(prec + 1)
		left = p.b.BuildBinary(binaryOps[op], left, right, opTok.Loc)
	}
	return left
}

func (p *Parser) parseTernaryExpr() tree.Node {
	cond := p.parseBinaryExpr(0)
	if p.match(token.Question) {
		tok := p.previous
		thenExpr := p.parseExpr()
		p.expect(token.Colon, ":")
		elseExpr := p.parseTernaryExpr()
		return p.b.BuildTernary(cond, thenExpr, elseExpr, tok.Loc)
	}
	return cond
}

func (p *Parser) parseAssignmentExpr() tree.Node {
	left := p.parseTernaryExpr()
	if op, ok := assignOps[p.current.Type]; ok {
		tok := p.current
		p.advance()
		right := p.parseAssignmentExpr()
		return p.b.BuildBinary(op, left, right, tok.Loc)
	}
	return left
}

func (p *Parser) parseExpr() tree.Node {
	expr := p.parseAssignmentExpr()
	for p.match(token.Comma) {
		tok := p.previous
		right := p.parseAssignmentExpr()
		expr = p.b.BuildBinary(ast.OpComma, expr, right, tok.Loc)
	}
	return expr
}

func (p *Parser) parseCondition() tree.Node {
	p.expect(token.LParen, "(")
	cond := p.b.BuildCondition(p.parseExpr())
	p.expect(token.RParen, ")")
	return cond
}

func (p *Parser) parseInitializer() tree.Node {
	if !p.check(token.LBrace) {
		return p.parseAssignmentExpr()
	}
	lLoc := p.current.Loc
	p.advance()
	var elems []tree.Node
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		elems = append(elems, p.parseInitializer())
		if !p.match(token.Comma) {
			break
		}
	}
	rLoc := p.current.Loc
	p.expect(token.RBrace, "}")
	return p.b.BuildInitializer(elems, lLoc, rLoc)
}
