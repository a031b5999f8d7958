package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCompareGolden(t *testing.T) {
	image := "#!/usr/bin/ruc-vm\n16 0 0 0 0 3 1\n"
	ok := &Golden{ImageHash: hashString(image), Image: image}
	tests := []struct {
		name   string
		want   *Golden
		got    *Golden
		ignore []string
		status string
	}{
		{
			name:   "identical image",
			want:   ok,
			got:    &Golden{ImageHash: hashString(image), Image: image},
			status: "PASS",
		},
		{
			name:   "image differs",
			want:   ok,
			got:    &Golden{ImageHash: hashString(image + "9001\n"), Image: image + "9001\n"},
			status: "FAIL",
		},
		{
			name:   "expected rejection",
			want:   &Golden{Compile: Execution{ExitCode: 1, Stderr: "a.c:1:1: error: undeclared identifier\n"}},
			got:    &Golden{Compile: Execution{ExitCode: 1, Stderr: "a.c:1:1: error: undeclared identifier\n"}},
			status: "PASS",
		},
		{
			name:   "unexpected success",
			want:   &Golden{Compile: Execution{ExitCode: 1}},
			got:    ok,
			status: "FAIL",
		},
		{
			name:   "ignored diagnostic line",
			want:   &Golden{Compile: Execution{ExitCode: 1, Stderr: "error\nnote: took 3ms\n"}},
			got:    &Golden{Compile: Execution{ExitCode: 1, Stderr: "error\nnote: took 5ms\n"}},
			ignore: []string{"took"},
			status: "PASS",
		},
		{
			name:   "listing only compared when recorded",
			want:   ok,
			got:    &Golden{ImageHash: hashString(image), Image: image, Listing: "     4: STOP\n"},
			status: "PASS",
		},
		{
			name:   "listing differs",
			want:   &Golden{ImageHash: hashString(image), Image: image, Listing: "     4: STOP\n"},
			got:    &Golden{ImageHash: hashString(image), Image: image, Listing: "     4: NOP\n"},
			status: "FAIL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compareGolden("a.c", tt.want, tt.got, tt.ignore)
			if res.Status != tt.status {
				t.Errorf("status = %s, want %s (diff: %s)", res.Status, tt.status, res.Diff)
			}
			if tt.status == "FAIL" && res.Diff == "" {
				t.Error("failing comparison has no diff")
			}
		})
	}
}

func TestFilterOutput(t *testing.T) {
	got := filterOutput("keep\ndrop me\nkeep too", []string{"drop", ""})
	if diff := cmp.Diff("keep\nkeep too", got); diff != "" {
		t.Errorf("filterOutput mismatch (-want +got):\n%s", diff)
	}
}

func TestGoldenPath(t *testing.T) {
	r := &runner{}
	if got, want := r.goldenPath("tests/fib.c"), filepath.Join("tests", ".fib.c.json"); got != want {
		t.Errorf("goldenPath = %s, want %s", got, want)
	}
	r.goldenDir = "golden"
	if got, want := r.goldenPath("tests/fib.c"), filepath.Join("golden", ".fib.c.json"); got != want {
		t.Errorf("goldenPath with -dir = %s, want %s", got, want)
	}
}

func TestFormatDiffColorsChanges(t *testing.T) {
	got := formatDiff("  []string{\n-  \"9001\",\n+  \"9000\",\n  }\n")
	for _, line := range []string{cRed + "-  \"9001\",", cGreen + "+  \"9000\","} {
		if !strings.Contains(got, line) {
			t.Errorf("formatDiff output lacks %q:\n%s", line, got)
		}
	}
}

func TestHasFailures(t *testing.T) {
	if hasFailures([]*FileTestResult{{Status: "PASS"}, {Status: "SKIP"}}) {
		t.Error("passing and skipped results reported as failures")
	}
	if !hasFailures([]*FileTestResult{{Status: "PASS"}, {Status: "ERROR"}}) {
		t.Error("errored result not reported")
	}
}

func TestHashFileMatchesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.c")
	if err := os.WriteFile(path, []byte("int main() {}"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := hashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := hashString("int main() {}"); got != want {
		t.Errorf("hashFile = %s, want %s", got, want)
	}
}

func TestExpandGlobPatternsDeduplicates(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.c", "b.c", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := expandGlobPatterns(filepath.Join(dir, "*.c") + " " + filepath.Join(dir, "a.c"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.c"), filepath.Join(dir, "b.c")}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("expandGlobPatterns mismatch (-want +got):\n%s", diff)
	}
}
