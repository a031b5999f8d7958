package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/gruc/pkg/config"
)

const sample = `
[project]
name = "demo"

[build]
sources = ["lib.c", "main.c"]
output = "demo.txt"
backend = "cbor"
std = "ruc-en"
lang = "en"
flags = ["-Wno-float-equal", "-Fno-fold"]
max-threads = 4
`

func writeWorkspace(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeWorkspace(t, dir, sample)

	ws, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := Build{
		Sources:    []string{"lib.c", "main.c"},
		Output:     "demo.txt",
		Backend:    "cbor",
		Std:        "ruc-en",
		Lang:       "en",
		Flags:      []string{"-Wno-float-equal", "-Fno-fold"},
		MaxThreads: 4,
	}
	if diff := cmp.Diff(want, ws.Build); diff != "" {
		t.Errorf("build section mismatch (-want +got):\n%s", diff)
	}
	if ws.Project.Name != "demo" {
		t.Errorf("project name = %q, want demo", ws.Project.Name)
	}
	wantPaths := []string{filepath.Join(ws.Dir, "lib.c"), filepath.Join(ws.Dir, "main.c")}
	if diff := cmp.Diff(wantPaths, ws.SourcePaths()); diff != "" {
		t.Errorf("source paths mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeWorkspace(t, dir, "[build]\nsources = [\"main.c\"]\n")
	ws, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got, want := ws.OutputPath(), filepath.Join(ws.Dir, "export.txt"); got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}

	cfg := config.NewConfig()
	if err := ws.Apply(cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.Backend != "vm" || cfg.Lang != "ru" || cfg.MaxThreads != 1 {
		t.Errorf("empty settings changed the configuration: backend %q, lang %q, threads %d", cfg.Backend, cfg.Lang, cfg.MaxThreads)
	}
}

func TestApply(t *testing.T) {
	dir := t.TempDir()
	writeWorkspace(t, dir, sample)
	ws, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := config.NewConfig()
	if err := ws.Apply(cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := map[string]bool{
		"ru-keywords": cfg.IsFeatureEnabled(config.FeatRussianKeywords),
		"en-keywords": cfg.IsFeatureEnabled(config.FeatEnglishKeywords),
		"fold":        cfg.IsFeatureEnabled(config.FeatFold),
		"float-equal": cfg.IsWarningEnabled(config.WarnFloatEquality),
	}
	want := map[string]bool{"ru-keywords": false, "en-keywords": true, "fold": false, "float-equal": false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("configuration mismatch (-want +got):\n%s", diff)
	}
	if cfg.Backend != "cbor" || cfg.Lang != "en" || cfg.MaxThreads != 4 {
		t.Errorf("backend %q, lang %q, threads %d", cfg.Backend, cfg.Lang, cfg.MaxThreads)
	}
}

func TestApplyRejectsUnknownStd(t *testing.T) {
	ws := &Workspace{Build: Build{Std: "c99"}}
	if err := ws.Apply(config.NewConfig()); err == nil {
		t.Error("Apply accepted an unknown standard")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeWorkspace(t, root, sample)
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	ws, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad: %v", err)
	}
	if ws == nil {
		t.Fatal("FindAndLoad found no workspace")
	}
	abs, _ := filepath.Abs(root)
	if ws.Dir != abs {
		t.Errorf("Dir = %q, want %q", ws.Dir, abs)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	writeWorkspace(t, dir, "[build\nsources = 1")
	if _, err := Load(dir); err == nil {
		t.Error("Load accepted a malformed file")
	}
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load succeeded without a file")
	}
}
