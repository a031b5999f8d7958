package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/xplshn/gruc/pkg/config"
	"github.com/xplshn/gruc/pkg/instr"
	"github.com/xplshn/gruc/pkg/util"
)

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []util.Code
	}{
		{"valid", "int main() { return 0; }", nil},
		{"wrong arity", "int f(int a, int b) { return a + b; } int main() { return f(1); }", []util.Code{util.ErrWrongArgCount}},
		{"array assignment", "int main() { int a[5]; a = a; }", []util.Code{util.ErrArrayAssignment}},
		{"narrowing", "int main() { int i; i = 1.5; }", []util.Code{util.ErrFloatToInt}},
		{"widening", "int main() { float f; f = 1; }", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CompileString("test.c", tt.src, config.NewConfig(), nil)
			if diff := cmp.Diff(tt.want, res.Reporter.Codes(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
			if len(tt.want) == 0 {
				if err != nil {
					t.Fatalf("Compile: %v", err)
				}
				mem := res.Image.Memory
				if last := instr.Instruction(mem[len(mem)-1]); last != instr.Stop {
					t.Errorf("program ends with %s, want STOP", last)
				}
				return
			}
			if !errors.Is(err, ErrDiagnostics) {
				t.Errorf("Compile error = %v, want ErrDiagnostics", err)
			}
			if res.Image != nil {
				t.Error("an image was generated for a program with errors")
			}
		})
	}
}

func TestFilesFormOneUnit(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.c")
	prog := filepath.Join(dir, "main.c")
	if err := os.WriteFile(lib, []byte("int twice(int v) { return v * 2; }\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(prog, []byte("int main() { return twice(21); }\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	sources, err := ReadSources([]string{lib, prog})
	if err != nil {
		t.Fatalf("ReadSources: %v", err)
	}
	res, err := Compile(sources, config.NewConfig(), nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if diff := cmp.Diff(2, len(res.Image.Functions)); diff != "" {
		t.Errorf("function table size (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2, len(res.Reporter.SourceFiles())); diff != "" {
		t.Errorf("source file count (-want +got):\n%s", diff)
	}
}

func TestErrorInSecondFileIsLocated(t *testing.T) {
	sources := []Source{
		{Name: "a.c", Content: []rune("int x;\n")},
		{Name: "b.c", Content: []rune("int main() {\n  y = 1;\n}\n")},
	}
	res, err := Compile(sources, config.NewConfig(), nil)
	if !errors.Is(err, ErrDiagnostics) {
		t.Fatalf("Compile error = %v, want ErrDiagnostics", err)
	}
	reports := res.Reporter.Reports()
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	file, line, col := res.Reporter.Position(reports[0].Loc.Begin)
	got := []any{file, line, col}
	if diff := cmp.Diff([]any{"b.c", 2, 3}, got); diff != "" {
		t.Errorf("position mismatch (-want +got):\n%s", diff)
	}
}

func TestNoSources(t *testing.T) {
	if _, err := Compile(nil, config.NewConfig(), nil); err == nil {
		t.Error("Compile(nil) succeeded, want an error")
	}
}

func TestMissingFile(t *testing.T) {
	if _, err := ReadSources([]string{filepath.Join(t.TempDir(), "absent.c")}); err == nil {
		t.Error("ReadSources succeeded for a missing file")
	}
}
