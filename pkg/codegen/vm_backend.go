package codegen

import (
	"bytes"
	"strconv"

	"github.com/xplshn/gruc/pkg/config"
	"github.com/xplshn/gruc/pkg/tree"
)

const vmShebang = "#!/usr/bin/ruc-vm"

type vmBackend struct{}

// NewVMBackend writes the text image read by the RuC virtual machine.
func NewVMBackend() Backend { return vmBackend{} }

func (vmBackend) Generate(img *Image, cfg *config.Config) (*bytes.Buffer, error) {
	var out bytes.Buffer
	out.WriteString(vmShebang)
	out.WriteByte('\n')
	writeItems(&out, img.Header())
	for _, table := range [][]tree.Item{img.Memory, img.Functions, img.Identifiers, img.Representations, img.Types} {
		writeItems(&out, table)
	}
	return &out, nil
}

func writeItems(out *bytes.Buffer, items []tree.Item) {
	for i, v := range items {
		if i > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(strconv.FormatInt(v, 10))
	}
	out.WriteByte('\n')
}
