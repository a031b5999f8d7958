package lexer

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/xplshn/gruc/pkg/config"
	"github.com/xplshn/gruc/pkg/syntax"
	"github.com/xplshn/gruc/pkg/token"
	"github.com/xplshn/gruc/pkg/util"
)

type Lexer struct {
	source []rune
	base   int
	pos    int
	sx     *syntax.Syntax
	cfg    *config.Config
	// done is set once an unterminated block comment swallowed the input.
	done bool
}

// NewLexer scans source, whose first rune sits at global offset base.
// Identifiers are interned and string literals stored in sx.
func NewLexer(source []rune, base int, sx *syntax.Syntax, cfg *config.Config) *Lexer {
	return &Lexer{source: source, base: base, sx: sx, cfg: cfg}
}

// Tokenize scans the whole source. The last token is always EOF.
func (l *Lexer) Tokenize() []token.Token {
	var tokens []token.Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

// Next returns the next token. Once the input is exhausted it keeps
// returning EOF.
func (l *Lexer) Next() token.Token {
	for {
		if !l.skipWhitespaceAndComments() || l.isAtEnd() {
			return l.makeToken(token.EOF, "", l.pos)
		}
		startPos := l.pos
		ch := l.peek()

		if isLetter(ch) {
			return l.identifierOrKeyword(startPos)
		}
		if isDigit(ch) || (ch == '.' && isDigit(l.peekNext())) {
			return l.numberLiteral(startPos)
		}

		l.advance()
		switch ch {
		case '(':
			return l.makeToken(token.LParen, "", startPos)
		case ')':
			return l.makeToken(token.RParen, "", startPos)
		case '{':
			return l.makeToken(token.LBrace, "", startPos)
		case '}':
			return l.makeToken(token.RBrace, "", startPos)
		case '[':
			return l.makeToken(token.LBracket, "", startPos)
		case ']':
			return l.makeToken(token.RBracket, "", startPos)
		case ';':
			return l.makeToken(token.Semi, "", startPos)
		case ',':
			return l.makeToken(token.Comma, "", startPos)
		case '?':
			return l.makeToken(token.Question, "", startPos)
		case ':':
			return l.makeToken(token.Colon, "", startPos)
		case '.':
			return l.makeToken(token.Dot, "", startPos)
		case '~':
			return l.makeToken(token.Complement, "", startPos)
		case '!':
			return l.matchThen('=', token.Neq, token.Not, startPos)
		case '^':
			return l.matchThen('=', token.XorEq, token.Xor, startPos)
		case '%':
			return l.matchThen('=', token.RemEq, token.Rem, startPos)
		case '*':
			return l.matchThen('=', token.StarEq, token.Star, startPos)
		case '/':
			return l.matchThen('=', token.SlashEq, token.Slash, startPos)
		case '=':
			return l.matchThen('=', token.EqEq, token.Eq, startPos)
		case '+':
			return l.plus(startPos)
		case '-':
			return l.minus(startPos)
		case '&':
			return l.ampersand(startPos)
		case '|':
			return l.pipe(startPos)
		case '<':
			return l.less(startPos)
		case '>':
			return l.greater(startPos)
		case '"':
			return l.stringLiteral(startPos)
		case '\'':
			return l.charLiteral(startPos)
		}

		l.sx.Reporter.Error(l.location(startPos), util.Char{C: util.ErrBadCharacter, Char: ch})
	}
}

func isLetter(ch rune) bool { return unicode.IsLetter(ch) || ch == '_' }
func isDigit(ch rune) bool  { return ch >= '0' && ch <= '9' }

// isExponent accepts the Latin and the Cyrillic exponent letters.
func isExponent(ch rune) bool { return ch == 'e' || ch == 'E' || ch == 'е' || ch == 'Е' }

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	l.pos++
	return ch
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.pos++
	return true
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) location(startPos int) token.Location {
	return token.Location{Begin: l.base + startPos, End: l.base + l.pos}
}

func (l *Lexer) makeToken(tokType token.Type, value string, startPos int) token.Token {
	return token.Token{Type: tokType, Value: value, Loc: l.location(startPos)}
}

// skipWhitespaceAndComments reports false when the rest of the input is an
// unterminated block comment.
func (l *Lexer) skipWhitespaceAndComments() bool {
	if l.done {
		return false
	}
	for {
		switch ch := l.peek(); {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v':
			l.advance()
		case ch == '/' && l.peekNext() == '*':
			if !l.blockComment() {
				l.done = true
				return false
			}
		case ch == '/' && l.peekNext() == '/' && l.cfg.IsFeatureEnabled(config.FeatLineComments):
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return true
		}
	}
}

func (l *Lexer) blockComment() bool {
	startPos := l.pos
	l.pos += 2
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.pos += 2
			return true
		}
		l.advance()
	}
	l.sx.Reporter.Error(token.Location{Begin: l.base + startPos, End: l.base + startPos + 2}, util.Plain{C: util.ErrUnterminatedComment})
	return false
}

func (l *Lexer) identifierOrKeyword(startPos int) token.Token {
	for isLetter(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
	value := string(l.source[startPos:l.pos])
	english := l.cfg.IsFeatureEnabled(config.FeatEnglishKeywords)
	russian := l.cfg.IsFeatureEnabled(config.FeatRussianKeywords)
	if tokType, ok := token.Lookup(value, english, russian); ok {
		return l.makeToken(tokType, "", startPos)
	}
	tok := l.makeToken(token.Ident, value, startPos)
	tok.Repr = int64(l.sx.Intern(value))
	return tok
}

func radixOf(ch rune) int {
	switch ch {
	case 'x', 'X':
		return 16
	case 'o', 'O':
		return 8
	case 'b', 'B':
		return 2
	case 'd', 'D':
		return 10
	}
	return 0
}

func digitValue(ch rune) int {
	switch {
	case isDigit(ch):
		return int(ch - '0')
	case ch >= 'a' && ch <= 'z':
		return int(ch-'a') + 10
	case ch >= 'A' && ch <= 'Z':
		return int(ch-'A') + 10
	}
	return 99
}

func (l *Lexer) numberLiteral(startPos int) token.Token {
	if l.peek() == '0' && l.cfg.IsFeatureEnabled(config.FeatRadixPrefixes) {
		if radix := radixOf(l.peekNext()); radix != 0 {
			l.pos += 2
			return l.radixLiteral(startPos, radix)
		}
	}

	var intVal uint64
	var digits strings.Builder
	overflow := false
	for isDigit(l.peek()) {
		d := l.advance()
		digits.WriteRune(d)
		intVal = intVal*10 + uint64(d-'0')
		if intVal > math.MaxInt32 {
			overflow = true
			intVal = math.MaxInt32 + 1
		}
	}

	isFloat := false
	if l.peek() == '.' {
		isFloat = true
		digits.WriteRune(l.advance())
		for isDigit(l.peek()) {
			digits.WriteRune(l.advance())
		}
	}
	if isExponent(l.peek()) {
		isFloat = true
		l.advance()
		var exp strings.Builder
		if l.peek() == '+' || l.peek() == '-' {
			exp.WriteRune(l.advance())
		}
		if !isDigit(l.peek()) {
			l.sx.Reporter.Error(l.location(startPos), util.Plain{C: util.ErrExponentDigits})
		}
		for isDigit(l.peek()) {
			exp.WriteRune(l.advance())
		}
		if e := exp.String(); strings.TrimLeft(e, "+-") != "" {
			digits.WriteString("e" + e)
		}
	}

	floatVal, err := strconv.ParseFloat(digits.String(), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		floatVal = 0
	}
	return l.numberToken(startPos, isFloat, overflow, int64(intVal), floatVal)
}

func (l *Lexer) radixLiteral(startPos, radix int) token.Token {
	var intVal uint64
	var floatVal float64
	overflow := false
	digits := 0
	for isLetter(l.peek()) || isDigit(l.peek()) {
		ch := l.advance()
		d := digitValue(ch)
		if d >= radix {
			l.sx.Reporter.Error(token.Location{Begin: l.base + l.pos - 1, End: l.base + l.pos}, util.Char{C: util.ErrBadDigit, Char: ch})
			continue
		}
		digits++
		floatVal = floatVal*float64(radix) + float64(d)
		intVal = intVal*uint64(radix) + uint64(d)
		if intVal > math.MaxInt32 {
			overflow = true
			intVal = math.MaxInt32 + 1
		}
	}
	if digits == 0 {
		l.sx.Reporter.Error(l.location(startPos), util.Char{C: util.ErrBadDigit, Char: l.source[startPos+1]})
	}
	return l.numberToken(startPos, false, overflow, int64(intVal), floatVal)
}

func (l *Lexer) numberToken(startPos int, isFloat, overflow bool, intVal int64, floatVal float64) token.Token {
	text := string(l.source[startPos:l.pos])
	if overflow && !isFloat {
		l.sx.Reporter.Warn(config.WarnOverflow, l.location(startPos), util.Plain{C: util.WarnIntOverflow})
		isFloat = true
	}
	if isFloat {
		tok := l.makeToken(token.FloatLiteral, text, startPos)
		tok.Float = floatVal
		return tok
	}
	tok := l.makeToken(token.IntLiteral, text, startPos)
	tok.Int = intVal
	return tok
}

// escape decodes the character after a backslash.
func (l *Lexer) escape() rune {
	escPos := l.pos - 1
	c := l.advance()
	switch c {
	case 'n', 'н':
		return '\n'
	case 't', 'т':
		return '\t'
	case '0':
		return 0
	case '\\', '\'', '"':
		return c
	}
	l.sx.Reporter.Error(token.Location{Begin: l.base + escPos, End: l.base + l.pos}, util.Char{C: util.ErrBadEscape, Char: c})
	return c
}

// stringLiteral reads a string and every string literal directly following
// it, separated only by whitespace and comments.
func (l *Lexer) stringLiteral(startPos int) token.Token {
	var sb strings.Builder
	var end int
	for {
		for {
			if l.isAtEnd() || l.peek() == '\n' {
				l.sx.Reporter.Error(l.location(startPos), util.Plain{C: util.ErrUnterminatedString})
				break
			}
			c := l.advance()
			if c == '"' {
				break
			}
			if c == '\\' {
				c = l.escape()
			}
			sb.WriteRune(c)
		}
		end = l.pos
		if !l.skipWhitespaceAndComments() || l.peek() != '"' {
			break
		}
		l.advance()
	}

	text := sb.String()
	tok := l.makeToken(token.StringLiteral, text, startPos)
	tok.Loc.End = l.base + end
	tok.Str = l.sx.AddString(text)
	return tok
}

func (l *Lexer) charLiteral(startPos int) token.Token {
	tok := l.makeToken(token.CharLiteral, "", startPos)
	if l.peek() == '\'' {
		l.advance()
		l.sx.Reporter.Error(l.location(startPos), util.Plain{C: util.ErrEmptyCharConst})
		tok.Loc = l.location(startPos)
		return tok
	}
	if l.isAtEnd() || l.peek() == '\n' {
		l.sx.Reporter.Error(l.location(startPos), util.Plain{C: util.ErrUnterminatedChar})
		return tok
	}
	c := l.advance()
	if c == '\\' {
		c = l.escape()
	}
	if !l.match('\'') {
		l.sx.Reporter.Error(l.location(startPos), util.Plain{C: util.ErrUnterminatedChar})
	}
	tok.Loc = l.location(startPos)
	tok.Int = int64(c)
	tok.Value = string(c)
	return tok
}

func (l *Lexer) matchThen(expected rune, thenType, elseType token.Type, startPos int) token.Token {
	if l.match(expected) {
		return l.makeToken(thenType, "", startPos)
	}
	return l.makeToken(elseType, "", startPos)
}

func (l *Lexer) plus(startPos int) token.Token {
	if l.match('+') {
		return l.makeToken(token.Inc, "", startPos)
	}
	return l.matchThen('=', token.PlusEq, token.Plus, startPos)
}

func (l *Lexer) minus(startPos int) token.Token {
	if l.match('-') {
		return l.makeToken(token.Dec, "", startPos)
	}
	if l.match('>') {
		return l.makeToken(token.Arrow, "", startPos)
	}
	return l.matchThen('=', token.MinusEq, token.Minus, startPos)
}

func (l *Lexer) ampersand(startPos int) token.Token {
	if l.match('&') {
		return l.makeToken(token.AndAnd, "", startPos)
	}
	return l.matchThen('=', token.AndEq, token.And, startPos)
}

func (l *Lexer) pipe(startPos int) token.Token {
	if l.match('|') {
		return l.makeToken(token.OrOr, "", startPos)
	}
	return l.matchThen('=', token.OrEq, token.Or, startPos)
}

func (l *Lexer) less(startPos int) token.Token {
	if l.match('<') {
		return l.matchThen('=', token.ShlEq, token.Shl, startPos)
	}
	return l.matchThen('=', token.Lte, token.Lt, startPos)
}

func (l *Lexer) greater(startPos int) token.Token {
	if l.match('>') {
		return l.matchThen('=', token.ShrEq, token.Shr, startPos)
	}
	return l.matchThen('=', token.Gte, token.Gt, startPos)
}
