package token

import "strings"

type Type int

const (
	EOF Type = iota
	Ident
	IntLiteral
	CharLiteral
	FloatLiteral
	StringLiteral
	// Keywords
	Int
	Char
	Float
	Long
	Double
	Void
	Struct
	Typedef
	If
	Else
	While
	Do
	For
	Switch
	Case
	Default
	Break
	Continue
	Goto
	Return
	// Punctuators
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semi
	Comma
	Colon
	Question
	Dot
	Arrow
	Eq
	PlusEq
	MinusEq
	StarEq
	SlashEq
	RemEq
	AndEq
	OrEq
	XorEq
	ShlEq
	ShrEq
	Plus
	Minus
	Star
	Slash
	Rem
	And
	Or
	Xor
	Shl
	Shr
	EqEq
	Neq
	Lt
	Gt
	Gte
	Lte
	AndAnd
	OrOr
	Not
	Complement
	Inc
	Dec
)

// EnglishKeywords and RussianKeywords hold the lowercase spellings. Uppercase
// variants are added in init.
var EnglishKeywords = map[string]Type{
	"int":      Int,
	"char":     Char,
	"float":    Float,
	"long":     Long,
	"double":   Double,
	"void":     Void,
	"struct":   Struct,
	"typedef":  Typedef,
	"if":       If,
	"else":     Else,
	"while":    While,
	"do":       Do,
	"for":      For,
	"switch":   Switch,
	"case":     Case,
	"default":  Default,
	"break":    Break,
	"continue": Continue,
	"goto":     Goto,
	"return":   Return,
}

var RussianKeywords = map[string]Type{
	"цел":        Int,
	"литера":     Char,
	"вещ":        Float,
	"длин":       Long,
	"двойной":    Double,
	"пусто":      Void,
	"структура":  Struct,
	"опртипа":    Typedef,
	"если":       If,
	"иначе":      Else,
	"пока":       While,
	"цикл":       Do,
	"для":        For,
	"выбор":      Switch,
	"случай":     Case,
	"умолчание":  Default,
	"выход":      Break,
	"продолжить": Continue,
	"переход":    Goto,
	"возврат":    Return,
}

// TypeStrings maps token types back to their English spelling for messages.
var TypeStrings = map[Type]string{
	EOF: "end of file", Ident: "identifier", IntLiteral: "integer constant",
	CharLiteral: "character constant", FloatLiteral: "floating constant", StringLiteral: "string literal",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Semi: ";", Comma: ",", Colon: ":", Question: "?", Dot: ".", Arrow: "->",
	Eq: "=", PlusEq: "+=", MinusEq: "-=", StarEq: "*=", SlashEq: "/=", RemEq: "%=",
	AndEq: "&=", OrEq: "|=", XorEq: "^=", ShlEq: "<<=", ShrEq: ">>=",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Rem: "%", And: "&", Or: "|", Xor: "^",
	Shl: "<<", Shr: ">>", EqEq: "==", Neq: "!=", Lt: "<", Gt: ">", Gte: ">=", Lte: "<=",
	AndAnd: "&&", OrOr: "||", Not: "!", Complement: "~", Inc: "++", Dec: "--",
}

func init() {
	for _, m := range []map[string]Type{EnglishKeywords, RussianKeywords} {
		for str, typ := range m {
			m[strings.ToUpper(str)] = typ
		}
	}
	for str, typ := range EnglishKeywords {
		if str == strings.ToLower(str) {
			TypeStrings[typ] = str
		}
	}
}

// Lookup classifies a spelling as a keyword in the enabled keyword sets.
func Lookup(text string, english, russian bool) (Type, bool) {
	if english {
		if typ, ok := EnglishKeywords[text]; ok {
			return typ, true
		}
	}
	if russian {
		if typ, ok := RussianKeywords[text]; ok {
			return typ, true
		}
	}
	return Ident, false
}

func (t Type) String() string {
	if s, ok := TypeStrings[t]; ok {
		return s
	}
	return "token"
}

// IsTypeSpecifier reports whether the token starts a type name.
func (t Type) IsTypeSpecifier() bool {
	switch t {
	case Int, Char, Float, Long, Double, Void, Struct:
		return true
	}
	return false
}

// Location is a half-open range of global rune offsets. Every source file
// occupies its own window of offsets, so one integer places a rune in the
// whole compilation.
type Location struct {
	Begin int
	End   int
}

// Span joins two locations into the range covering both.
func Span(from, to Location) Location {
	return Location{Begin: from.Begin, End: to.End}
}

type Token struct {
	Type  Type
	Loc   Location
	Value string
	Int   int64
	Float float64
	// Repr is the interned representation of an identifier.
	Repr int64
	// Str indexes the string table for string literals.
	Str int
}
