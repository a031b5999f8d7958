package codegen

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/gruc/pkg/config"
	"github.com/xplshn/gruc/pkg/tree"
)

func sampleImage() *Image {
	return &Image{
		Memory:          []tree.Item{0, 0, 0, 0, 9005, 3, 8, 9009, 9006, 9007, 4, 9001},
		Functions:       []tree.Item{4},
		Identifiers:     []tree.Item{0, 1, -5, 0},
		Representations: []tree.Item{1, 4, 'm', 'a', 'i', 'n'},
		Types:           []tree.Item{1003, -1, 0},
		MaxGlobalDispl:  3,
		MaxThreads:      1,
	}
}

func TestVMBackend(t *testing.T) {
	out, err := NewVMBackend().Generate(sampleImage(), config.NewConfig())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []string{
		"#!/usr/bin/ruc-vm",
		"12 1 4 6 3 3 1",
		"0 0 0 0 9005 3 8 9009 9006 9007 4 9001",
		"4",
		"0 1 -5 0",
		"1 4 109 97 105 110",
		"1003 -1 0",
	}
	got := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("text image mismatch (-want +got):\n%s", diff)
	}
}

func TestCBORBackend(t *testing.T) {
	img := sampleImage()
	first, err := NewCBORBackend().Generate(img, config.NewConfig())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := NewCBORBackend().Generate(img, config.NewConfig())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff(first.Bytes(), second.Bytes()); diff != "" {
		t.Errorf("encoding is not deterministic (-first +second):\n%s", diff)
	}

	decoded, err := UnmarshalImage(first.Bytes())
	if err != nil {
		t.Fatalf("UnmarshalImage: %v", err)
	}
	if diff := cmp.Diff(img, decoded); diff != "" {
		t.Errorf("decoded image mismatch (-want +got):\n%s", diff)
	}
}

func TestNewBackend(t *testing.T) {
	for _, name := range []string{"", "vm", "cbor"} {
		if _, err := NewBackend(name); err != nil {
			t.Errorf("NewBackend(%q): %v", name, err)
		}
	}
	if _, err := NewBackend("qbe"); err == nil {
		t.Error("NewBackend(\"qbe\") succeeded, want an error")
	}
}

func TestDisassembleUnknownCells(t *testing.T) {
	img := &Image{Memory: []tree.Item{0, 0, 0, 0, 42, 9001}}
	var sb strings.Builder
	if err := Disassemble(&sb, img); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	want := "     4: .word 42\n     5: STOP\n"
	if diff := cmp.Diff(want, sb.String()); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
}
