package codegen

import "github.com/xplshn/gruc/pkg/tree"

// Image is a generated program together with the tables the VM needs to
// print identifiers and values at run time.
type Image struct {
	Memory          []tree.Item `cbor:"1,keyasint"`
	Functions       []tree.Item `cbor:"2,keyasint"`
	Identifiers     []tree.Item `cbor:"3,keyasint"`
	Representations []tree.Item `cbor:"4,keyasint"`
	Types           []tree.Item `cbor:"5,keyasint"`
	MaxGlobalDispl  tree.Item   `cbor:"6,keyasint"`
	MaxThreads      tree.Item   `cbor:"7,keyasint"`
}

// Header returns the seven integers that open the text format.
func (img *Image) Header() []tree.Item {
	return []tree.Item{
		tree.Item(len(img.Memory)),
		tree.Item(len(img.Functions)),
		tree.Item(len(img.Identifiers)),
		tree.Item(len(img.Representations)),
		tree.Item(len(img.Types)),
		img.MaxGlobalDispl,
		img.MaxThreads,
	}
}
