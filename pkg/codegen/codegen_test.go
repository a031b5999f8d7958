package codegen

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/gruc/pkg/ast"
	"github.com/xplshn/gruc/pkg/builder"
	"github.com/xplshn/gruc/pkg/config"
	"github.com/xplshn/gruc/pkg/instr"
	"github.com/xplshn/gruc/pkg/lexer"
	"github.com/xplshn/gruc/pkg/parser"
	"github.com/xplshn/gruc/pkg/syntax"
	"github.com/xplshn/gruc/pkg/token"
	"github.com/xplshn/gruc/pkg/tree"
	"github.com/xplshn/gruc/pkg/util"
)

func generate(t *testing.T, src string) *Image {
	t.Helper()
	cfg := config.NewConfig()
	sx := syntax.New(tree.Item(ast.KindUnit), util.NewReporter(cfg, nil))
	runes := []rune(src)
	base := sx.Reporter.AddSourceFile("test.c", runes)
	tokens := lexer.NewLexer(runes, base, sx, cfg).Tokenize()
	root := parser.NewParser(tokens, builder.New(sx, cfg)).Parse()
	if codes := sx.Reporter.Codes(); len(codes) != 0 {
		t.Fatalf("unexpected diagnostics %v", codes)
	}
	img, err := NewContext(sx, cfg).Generate(root)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return img
}

func listing(t *testing.T, img *Image) []string {
	t.Helper()
	var buf bytes.Buffer
	if err := Disassemble(&buf, img); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	var lines []string
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}
	return lines
}

func TestListing(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "assignment statement",
			src:  "int main() { int x; x = 1; }",
			want: []string{
				"4: FUNCBEG 4 12",
				"7: LI 1",
				"9: =V 3",
				"11: RETURNVOID",
				"12: CALL1",
				"13: CALL2 4",
				"15: STOP",
			},
		},
		{
			name: "while loop",
			src:  "int main() { int i; while (i) i--; }",
			want: []string{
				"4: FUNCBEG 4 16",
				"7: LOAD 3",
				"9: BE0 15",
				"11: POSTDECV 3",
				"13: B 7",
				"15: RETURNVOID",
				"16: CALL1",
				"17: CALL2 4",
				"19: STOP",
			},
		},
		{
			name: "inline string",
			src:  `int main() { printf("hi"); }`,
			want: []string{
				"4: FUNCBEG 3 17",
				`7: .string "hi"`,
				"14: PRINTF 0",
				"16: RETURNVOID",
				"17: CALL1",
				"18: CALL2 4",
				"20: STOP",
			},
		},
		{
			name: "forward call",
			src:  "int f(); int main() { return f(); } int f() { return 7; }",
			want: []string{
				"4: FUNCBEG 3 13",
				"7: CALL1",
				"8: CALL2 13",
				"10: RETURNVAL 1",
				"12: RETURNVOID",
				"13: FUNCBEG 3 21",
				"16: LI 7",
				"18: RETURNVAL 1",
				"20: RETURNVOID",
				"21: CALL1",
				"22: CALL2 4",
				"24: STOP",
			},
		},
		{
			name: "switch with fallthrough",
			src:  "int main() { int x; switch (x) { case 1: x = 2; case 2: break; default: x = 3; } }",
			want: []string{
				"4: FUNCBEG 4 36",
				"7: LOAD 3",
				"9: DOUBLE",
				"10: LI 1",
				"12: ==",
				"13: BE0 21",
				"15: LI 2",
				"17: =V 3",
				"19: B 27",
				"21: DOUBLE",
				"22: LI 2",
				"24: ==",
				"25: BE0 29",
				"27: B 33",
				"29: LI 3",
				"31: =V 3",
				"33: BE0 35",
				"35: RETURNVOID",
				"36: CALL1",
				"37: CALL2 4",
				"39: STOP",
			},
		},
		{
			name: "continue out of a switch drops its value",
			src:  "int main() { int x; while (x) switch (x) { case 1: continue; } }",
			want: []string{
				"4: FUNCBEG 4 28",
				"7: LOAD 3",
				"9: BE0 27",
				"11: LOAD 3",
				"13: DOUBLE",
				"14: LI 1",
				"16: ==",
				"17: BE0 23",
				"19: BE0 21",
				"21: B 7",
				"23: BE0 25",
				"25: B 7",
				"27: RETURNVOID",
				"28: CALL1",
				"29: CALL2 4",
				"31: STOP",
			},
		},
		{
			name: "short circuit",
			src:  "int main() { int a, b; a = a && b; }",
			want: []string{
				"4: FUNCBEG 5 18",
				"7: LOAD 3",
				"9: DOUBLE",
				"10: BE0 15",
				"12: LOAD 4",
				"14: &&",
				"15: =V 3",
				"17: RETURNVOID",
				"18: CALL1",
				"19: CALL2 4",
				"21: STOP",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := listing(t, generate(t, tt.src))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("listing mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// checkJumps decodes the code and verifies every jump, call and function
// end operand points inside the code.
func checkJumps(t *testing.T, img *Image) {
	t.Helper()
	mem := img.Memory
	inCode := func(v tree.Item) bool { return v >= codeStart && int(v) <= len(mem) }
	for pc := codeStart; pc < len(mem); {
		if _, next, ok := inlineString(mem, pc); ok {
			pc = next
			continue
		}
		in := instr.Instruction(mem[pc])
		if !in.IsValid() {
			t.Fatalf("cell %d holds %d, not an instruction", pc, mem[pc])
		}
		switch in {
		case instr.B, instr.BE0, instr.BNE0, instr.Call2:
			if !inCode(mem[pc+1]) {
				t.Errorf("%s at %d jumps to %d", in, pc, mem[pc+1])
			}
		case instr.FuncBeg:
			if !inCode(mem[pc+2]) {
				t.Errorf("FUNCBEG at %d ends at %d", pc, mem[pc+2])
			}
		}
		pc += 1 + in.Operands()
	}
	if last := instr.Instruction(mem[len(mem)-1]); last != instr.Stop {
		t.Errorf("program ends with %s, want STOP", last)
	}
}

func TestJumpsResolved(t *testing.T) {
	programs := map[string]string{
		"loops": `int main() {
			int i, s = 0;
			for (i = 0; i < 10; i++) { if (i == 3) continue; if (i == 8) break; s += i; }
			do { s--; } while (s > 0);
			while (1) { if (s) break; s = 1; }
			for (;;) break;
			return s;
		}`,
		"goto both ways": `int main() {
			int n = 0;
		again:
			n++;
			if (n < 5) goto again;
			goto done;
			n = 100;
		done:
			return n;
		}`,
		"nested switch": `int main() {
			int a = 1, b = 2;
			switch (a) {
			case 1:
				switch (b) { case 2: a = 5; break; default: a = 6; }
				break;
			case 3:
				while (a) { a--; if (a == 1) break; }
			default:
				a = 0;
			}
			return a;
		}`,
		"arrays and strings": `int main() {
			int a[3] = {1, 2, 3};
			int m[2][2] = {{1, 2}, {3, 4}};
			char s[] = "text";
			char t[10];
			a[1] = m[1][0] + a[2];
			strcpy(t, s);
			printf("%i %s\n", a[1], t);
			return strlen(t) > 2 ? a[0] : -1;
		}`,
		"structs and pointers": `struct point { int x; float y; };
		struct point origin() { struct point p = {0, 0}; return p; }
		int main() {
			struct point p = {1, 2.5};
			struct point *q = &p;
			q->x = 4;
			p.y = p.y * 2;
			p = origin();
			return origin().x + *&p.x;
		}`,
		"floats": `float half(float v) { return v / 2; }
		int main() {
			float f = 1;
			int i = 3;
			f = f + i;
			f += half(i);
			print(f, i);
			return f > 2.0 || i < 0;
		}`,
		"recursion": `int fact(int n) { return n <= 1 ? 1 : n * fact(n - 1); }
		цел главная() { печать(fact(5)); возврат 0; }`,
	}
	for name, src := range programs {
		t.Run(name, func(t *testing.T) {
			checkJumps(t, generate(t, src))
		})
	}
}

func TestMainCallEndsProgram(t *testing.T) {
	img := generate(t, "int twice(int v) { return v * 2; } int main() { return twice(2); }")
	if diff := cmp.Diff(2, len(img.Functions)); diff != "" {
		t.Errorf("function table size (-want +got):\n%s", diff)
	}
	mem := img.Memory
	tail := mem[len(mem)-4:]
	want := []tree.Item{tree.Item(instr.Call1), tree.Item(instr.Call2), img.Functions[1], tree.Item(instr.Stop)}
	if diff := cmp.Diff(want, tail); diff != "" {
		t.Errorf("program tail mismatch (-want +got):\n%s", diff)
	}
	if img.Functions[0] != codeStart {
		t.Errorf("twice starts at %d, want %d", img.Functions[0], codeStart)
	}
}

func TestLabelAddressRecorded(t *testing.T) {
	cfg := config.NewConfig()
	sx := syntax.New(tree.Item(ast.KindUnit), util.NewReporter(cfg, nil))
	runes := []rune("int main() { goto end; end: return 0; }")
	tokens := lexer.NewLexer(runes, sx.Reporter.AddSourceFile("test.c", runes), sx, cfg).Tokenize()
	root := parser.NewParser(tokens, builder.New(sx, cfg)).Parse()
	if _, err := NewContext(sx, cfg).Generate(root); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for id := syntax.IdentID(1); int(id) <= sx.IdentCount(); id++ {
		if sx.IdentKind(id) == syntax.IdentLabel {
			// FUNCBEG takes cells 4-6 and the jump 7-8.
			if got := sx.IdentDispl(id); got != 9 {
				t.Errorf("label address = %d, want 9", got)
			}
			return
		}
	}
	t.Fatal("label identifier not found")
}

func TestCastFromFloatIsInternalError(t *testing.T) {
	cfg := config.NewConfig()
	sx := syntax.New(tree.Item(ast.KindUnit), util.NewReporter(cfg, nil))
	runes := []rune("int main() { int i; float f; f = i; }")
	tokens := lexer.NewLexer(runes, sx.Reporter.AddSourceFile("test.c", runes), sx, cfg).Tokenize()
	root := parser.NewParser(tokens, builder.New(sx, cfg)).Parse()

	var cast tree.Node
	for n := root; !n.IsBroken(); n = n.Next() {
		if ast.KindOf(n) == ast.KindCast {
			cast = n
			break
		}
	}
	if cast.IsBroken() {
		t.Fatal("int to float assignment has no cast")
	}
	if got := ast.CastSource(cast); got != syntax.TypeInt {
		t.Fatalf("cast source = %s, want int", sx.TypeString(got))
	}
	cast.SetArg(2, tree.Item(syntax.TypeFloat))

	_, err := NewContext(sx, cfg).Generate(root)
	var ie *InternalError
	if !errors.As(err, &ie) || ie.Kind != ast.KindCast {
		t.Fatalf("Generate error = %v, want an internal error on the cast", err)
	}
}

func TestUnexpectedNodeIsInternalError(t *testing.T) {
	cfg := config.NewConfig()
	sx := syntax.New(tree.Item(ast.KindUnit), util.NewReporter(cfg, nil))
	root := sx.Tree.Root()
	bad := ast.Add(root, ast.KindBreak, token.Location{})

	_, err := NewContext(sx, cfg).Generate(root)
	var ie *InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("Generate error = %v, want *InternalError", err)
	}
	if diff := cmp.Diff(InternalError{Index: bad.Save(), Kind: ast.KindBreak}, *ie); diff != "" {
		t.Errorf("internal error mismatch (-want +got):\n%s", diff)
	}
}
