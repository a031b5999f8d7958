package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/xplshn/gruc/pkg/config"
	"github.com/xplshn/gruc/pkg/syntax"
	"github.com/xplshn/gruc/pkg/token"
	"github.com/xplshn/gruc/pkg/util"
)

func scan(t *testing.T, src string, setup func(*config.Config)) ([]token.Token, *syntax.Syntax) {
	t.Helper()
	cfg := config.NewConfig()
	if setup != nil {
		setup(cfg)
	}
	sx := syntax.New(0, util.NewReporter(cfg, nil))
	runes := []rune(src)
	base := sx.Reporter.AddSourceFile("test.c", runes)
	return NewLexer(runes, base, sx, cfg).Tokenize(), sx
}

func types(tokens []token.Token) []token.Type {
	out := make([]token.Type, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestPunctuatorsMaximalMunch(t *testing.T) {
	tokens, _ := scan(t, "a->b <<= >>= && || ++ -- != <= >= << >> -=", nil)
	want := []token.Type{
		token.Ident, token.Arrow, token.Ident, token.ShlEq, token.ShrEq, token.AndAnd, token.OrOr,
		token.Inc, token.Dec, token.Neq, token.Lte, token.Gte, token.Shl, token.Shr, token.MinusEq, token.EOF,
	}
	if diff := cmp.Diff(want, types(tokens)); diff != "" {
		t.Errorf("token types mismatch (-want +got):\n%s", diff)
	}
}

func TestKeywordsBothLanguages(t *testing.T) {
	tokens, sx := scan(t, "цел int ЕСЛИ WHILE возврат счёт", nil)
	want := []token.Type{token.Int, token.Int, token.If, token.While, token.Return, token.Ident, token.EOF}
	if diff := cmp.Diff(want, types(tokens)); diff != "" {
		t.Errorf("token types mismatch (-want +got):\n%s", diff)
	}
	if got := sx.ReprText(syntax.ReprID(tokens[5].Repr)); got != "счёт" {
		t.Errorf("identifier interned as %q", got)
	}
}

func TestKeywordSetsCanBeDisabled(t *testing.T) {
	tokens, _ := scan(t, "цел int", func(cfg *config.Config) {
		cfg.SetFeature(config.FeatRussianKeywords, false)
	})
	if diff := cmp.Diff([]token.Type{token.Ident, token.Int, token.EOF}, types(tokens)); diff != "" {
		t.Errorf("token types mismatch (-want +got):\n%s", diff)
	}
}

func TestIdentifiersShareRepresentation(t *testing.T) {
	tokens, _ := scan(t, "x y x", nil)
	if tokens[0].Repr != tokens[2].Repr || tokens[0].Repr == tokens[1].Repr {
		t.Errorf("reprs = %d %d %d", tokens[0].Repr, tokens[1].Repr, tokens[2].Repr)
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		src   string
		typ   token.Type
		i     int64
		f     float64
		codes []util.Code
	}{
		{"42", token.IntLiteral, 42, 0, nil},
		{"0x1F", token.IntLiteral, 31, 0, nil},
		{"0b101", token.IntLiteral, 5, 0, nil},
		{"0o17", token.IntLiteral, 15, 0, nil},
		{"0d19", token.IntLiteral, 19, 0, nil},
		{"0b102", token.IntLiteral, 2, 0, []util.Code{util.ErrBadDigit}},
		{"2.5", token.FloatLiteral, 0, 2.5, nil},
		{".5", token.FloatLiteral, 0, 0.5, nil},
		{"1e3", token.FloatLiteral, 0, 1000, nil},
		{"15е-1", token.FloatLiteral, 0, 1.5, nil},
		{"1e", token.FloatLiteral, 0, 1, []util.Code{util.ErrExponentDigits}},
		{"2147483647", token.IntLiteral, 2147483647, 0, nil},
		{"2147483648", token.FloatLiteral, 0, 2147483648, []util.Code{util.WarnIntOverflow}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tokens, sx := scan(t, tt.src, nil)
			if len(tokens) != 2 {
				t.Fatalf("got %d tokens, want 2", len(tokens))
			}
			tok := tokens[0]
			if tok.Type != tt.typ || tok.Int != tt.i || tok.Float != tt.f {
				t.Errorf("token = %v %d %v, want %v %d %v", tok.Type, tok.Int, tok.Float, tt.typ, tt.i, tt.f)
			}
			if diff := cmp.Diff(tt.codes, sx.Reporter.Codes(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRadixPrefixFeature(t *testing.T) {
	tokens, _ := scan(t, "0x10", func(cfg *config.Config) {
		cfg.SetFeature(config.FeatRadixPrefixes, false)
	})
	if diff := cmp.Diff([]token.Type{token.IntLiteral, token.Ident, token.EOF}, types(tokens)); diff != "" {
		t.Errorf("token types mismatch (-want +got):\n%s", diff)
	}
}

func TestStringsAndChars(t *testing.T) {
	tokens, sx := scan(t, `"a\tb" /* gap */ "c\н" 'x' '\''`, nil)
	if diff := cmp.Diff([]token.Type{token.StringLiteral, token.CharLiteral, token.CharLiteral, token.EOF}, types(tokens)); diff != "" {
		t.Fatalf("token types mismatch (-want +got):\n%s", diff)
	}
	if got := sx.String(tokens[0].Str); got != "a\tbc\n" {
		t.Errorf("concatenated string = %q", got)
	}
	if tokens[0].Loc.End != 22 {
		t.Errorf("string ends at %d, want 22", tokens[0].Loc.End)
	}
	if tokens[1].Int != 'x' || tokens[2].Int != '\'' {
		t.Errorf("char values = %d, %d", tokens[1].Int, tokens[2].Int)
	}
	if sx.Reporter.HadError() {
		t.Errorf("unexpected diagnostics: %v", sx.Reporter.Codes())
	}
}

func TestLexicalErrors(t *testing.T) {
	tests := []struct {
		src  string
		want []util.Code
	}{
		{`"abc`, []util.Code{util.ErrUnterminatedString}},
		{`''`, []util.Code{util.ErrEmptyCharConst}},
		{`'a`, []util.Code{util.ErrUnterminatedChar}},
		{`"\q"`, []util.Code{util.ErrBadEscape}},
		{"a @ b $", []util.Code{util.ErrBadCharacter, util.ErrBadCharacter}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, sx := scan(t, tt.src, nil)
			if diff := cmp.Diff(tt.want, sx.Reporter.Codes()); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnterminatedCommentEndsInput(t *testing.T) {
	cfg := config.NewConfig()
	sx := syntax.New(0, util.NewReporter(cfg, nil))
	src := []rune("int x; /* never closed\nint y;")
	l := NewLexer(src, sx.Reporter.AddSourceFile("c.c", src), sx, cfg)

	var got []token.Type
	for i := 0; i < 6; i++ {
		got = append(got, l.Next().Type)
	}
	want := []token.Type{token.Int, token.Ident, token.Semi, token.EOF, token.EOF, token.EOF}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token types mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]util.Code{util.ErrUnterminatedComment}, sx.Reporter.Codes()); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestLineComments(t *testing.T) {
	tokens, _ := scan(t, "a // b\nc", nil)
	if diff := cmp.Diff([]token.Type{token.Ident, token.Ident, token.EOF}, types(tokens)); diff != "" {
		t.Errorf("token types mismatch (-want +got):\n%s", diff)
	}
	tokens, _ = scan(t, "a // b", func(cfg *config.Config) { cfg.SetFeature(config.FeatLineComments, false) })
	if diff := cmp.Diff([]token.Type{token.Ident, token.Slash, token.Slash, token.Ident, token.EOF}, types(tokens)); diff != "" {
		t.Errorf("token types mismatch (-want +got):\n%s", diff)
	}
}

func TestLocationsAreGlobal(t *testing.T) {
	cfg := config.NewConfig()
	sx := syntax.New(0, util.NewReporter(cfg, nil))
	first, second := []rune("ab"), []rune("  cd")
	sx.Reporter.AddSourceFile("1.c", first)
	base := sx.Reporter.AddSourceFile("2.c", second)

	tok := NewLexer(second, base, sx, cfg).Next()
	if tok.Loc != (token.Location{Begin: 5, End: 7}) {
		t.Errorf("location = %+v, want {5 7}", tok.Loc)
	}
	if name, line, col := sx.Reporter.Position(tok.Loc.Begin); name != "2.c" || line != 1 || col != 3 {
		t.Errorf("position = %s:%d:%d", name, line, col)
	}
}
