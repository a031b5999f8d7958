package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/gruc/pkg/ast"
	"github.com/xplshn/gruc/pkg/builder"
	"github.com/xplshn/gruc/pkg/config"
	"github.com/xplshn/gruc/pkg/lexer"
	"github.com/xplshn/gruc/pkg/syntax"
	"github.com/xplshn/gruc/pkg/tree"
	"github.com/xplshn/gruc/pkg/util"
)

func parse(t *testing.T, src string) (tree.Node, *syntax.Syntax) {
	t.Helper()
	cfg := config.NewConfig()
	sx := syntax.New(tree.Item(ast.KindUnit), util.NewReporter(cfg, nil))
	runes := []rune(src)
	base := sx.Reporter.AddSourceFile("test.c", runes)
	tokens := lexer.NewLexer(runes, base, sx, cfg).Tokenize()
	b := builder.New(sx, cfg)
	root := NewParser(tokens, b).Parse()
	if !sx.Tree.IsCorrect() {
		t.Fatalf("tree links are inconsistent after parsing %q", src)
	}
	return root, sx
}

// shape renders the kinds of a subtree as Kind(child child ...).
func shape(n tree.Node) string {
	var sb strings.Builder
	sb.WriteString(ast.KindOf(n).String())
	if n.Amount() == 0 {
		return sb.String()
	}
	sb.WriteByte('(')
	for i := 0; i < n.Amount(); i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(shape(n.Child(i)))
	}
	sb.WriteByte(')')
	return sb.String()
}

func TestTreeShape(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "precedence",
			src:  "int main() { int x; x = 1 + 2 * x; }",
			want: "Unit(FuncDef(Block(Declaration(DeclVar) Assignment(Identifier Binary(Literal Binary(Literal Identifier))))))",
		},
		{
			name: "constant folding",
			src:  "int main() { int x; x = 1 + 2 * 3; }",
			want: "Unit(FuncDef(Block(Declaration(DeclVar) Assignment(Identifier Literal))))",
		},
		{
			name: "right associative assignment",
			src:  "int main() { int a, b; a = b = 1; }",
			want: "Unit(FuncDef(Block(Declaration(DeclVar DeclVar) Assignment(Identifier Assignment(Identifier Literal)))))",
		},
		{
			name: "integer widened on assignment",
			src:  "float f; int main() { f = f + 1; }",
			want: "Unit(Declaration(DeclVar) FuncDef(Block(Assignment(Identifier Binary(Identifier Literal)))))",
		},
		{
			name: "variable widened by a cast node",
			src:  "int main() { int i; float f; f = i; }",
			want: "Unit(FuncDef(Block(Declaration(DeclVar) Declaration(DeclVar) Assignment(Identifier Cast(Identifier)))))",
		},
		{
			name: "if else",
			src:  "int main() { int x; if (x) x = 1; else x = 2; }",
			want: "Unit(FuncDef(Block(Declaration(DeclVar) If(Identifier Assignment(Identifier Literal) Assignment(Identifier Literal)))))",
		},
		{
			name: "for with declaration",
			src:  "int main() { for (int i = 0; i < 3; i++) ; }",
			want: "Unit(FuncDef(Block(For(Declaration(DeclVar(Literal)) Binary(Identifier Literal) Unary(Identifier) Nop))))",
		},
		{
			name: "switch with cases",
			src:  "int main() { int x; switch (x) { case 1: x = 2; break; default: ; } }",
			want: "Unit(FuncDef(Block(Declaration(DeclVar) Switch(Identifier Block(Case(Literal Assignment(Identifier Literal)) Break Default(Nop))))))",
		},
		{
			name: "array with initializer",
			src:  "int main() { int a[] = {1, 2, 3}; }",
			want: "Unit(FuncDef(Block(Declaration(DeclVar(EmptyBound Initializer(Literal Literal Literal))))))",
		},
		{
			name: "struct member",
			src:  "struct point { int x; int y; }; int main() { struct point p; p.x = p.y; }",
			want: "Unit(Declaration FuncDef(Block(Declaration(DeclVar) Assignment(Member(Identifier) Member(Identifier)))))",
		},
		{
			name: "builtin and call",
			src:  "int twice(int v) { return v * 2; } int main() { printf(\"%i\\n\", twice(2)); }",
			want: "Unit(FuncDef(Block(Return(Binary(Identifier Literal)))) FuncDef(Block(Builtin(String Call(Identifier Literal)))))",
		},
		{
			name: "label and goto",
			src:  "int main() { goto end; end: ; }",
			want: "Unit(FuncDef(Block(Goto Label(Nop))))",
		},
		{
			name: "ternary and logical",
			src:  "int main() { int a; a = a && 1 ? -a : !a; }",
			want: "Unit(FuncDef(Block(Declaration(DeclVar) Assignment(Identifier Ternary(Binary(Identifier Literal) Unary(Identifier) Unary(Identifier))))))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, sx := parse(t, tt.src)
			if codes := sx.Reporter.Codes(); len(codes) != 0 {
				t.Fatalf("unexpected diagnostics %v", codes)
			}
			if diff := cmp.Diff(tt.want, shape(root)); diff != "" {
				t.Errorf("tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRussianProgram(t *testing.T) {
	_, sx := parse(t, "цел главная() { цел x = 1; пока (x < 10) x = x * 2; возврат x; }")
	if codes := sx.Reporter.Codes(); len(codes) != 0 {
		t.Fatalf("unexpected diagnostics %v", codes)
	}
	if sx.Main() == 0 {
		t.Error("главная was not recognized as the entry point")
	}
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []util.Code
	}{
		{"missing semicolon", "int main() { int x x = 1; }", []util.Code{util.ErrExpected}},
		{"one report per statement", "int main() { int a = ; int b = ; }", []util.Code{util.ErrExpected, util.ErrExpected}},
		{"undeclared", "int main() { y = 1; }", []util.Code{util.ErrUndeclared}},
		{"no main", "int f() { return 1; }", []util.Code{util.ErrNoMain}},
		{"break outside", "int main() { break; }", []util.Code{util.ErrBreakOutside}},
		{"continue in switch", "int main() { int x; switch (x) { case 1: continue; } }", []util.Code{util.ErrContinueOutside}},
		{"undefined label", "int main() { goto nowhere; }", []util.Code{util.ErrLabelUndefined}},
		{"redefined label", "int main() { l: ; l: ; }", []util.Code{util.ErrLabelRedefined}},
		{"redeclared", "int main() { int a; float a; }", []util.Code{util.ErrRedeclared}},
		{"array assignment", "int main() { int a[5]; a = a; }", []util.Code{util.ErrArrayAssignment}},
		{"wrong arity", "int f(int a) { return a; } int main() { f(1, 2); }", []util.Code{util.ErrWrongArgCount}},
		{"prototype without body", "int f(int); int main() { return 0; }", []util.Code{util.ErrFunctionNotDefined}},
		{"unknown struct", "int main() { struct nope n; }", []util.Code{util.ErrUnknownStruct}},
		{"stray brace", "} int main() { }", []util.Code{util.ErrExpected}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, sx := parse(t, tt.src)
			if diff := cmp.Diff(tt.want, sx.Reporter.Codes()); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrototypeThenDefinition(t *testing.T) {
	_, sx := parse(t, "int twice(int); int main() { return twice(2); } int twice(int v) { return v * 2; }")
	if codes := sx.Reporter.Codes(); len(codes) != 0 {
		t.Fatalf("unexpected diagnostics %v", codes)
	}
}

func TestTypedef(t *testing.T) {
	_, sx := parse(t, "typedef float real; real half(real x) { return x / 2; } int main() { real r = half(3); }")
	if codes := sx.Reporter.Codes(); len(codes) != 0 {
		t.Fatalf("unexpected diagnostics %v", codes)
	}
}
