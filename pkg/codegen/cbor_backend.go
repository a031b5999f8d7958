package codegen

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/xplshn/gruc/pkg/config"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("codegen: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type cborBackend struct{}

// NewCBORBackend writes the image as canonical CBOR.
func NewCBORBackend() Backend { return cborBackend{} }

func (cborBackend) Generate(img *Image, cfg *config.Config) (*bytes.Buffer, error) {
	data, err := cborEncMode.Marshal(img)
	if err != nil {
		return nil, fmt.Errorf("codegen: marshal image: %w", err)
	}
	return bytes.NewBuffer(data), nil
}

// UnmarshalImage decodes an image written by the cbor backend.
func UnmarshalImage(data []byte) (*Image, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("codegen: unmarshal image: %w", err)
	}
	return &img, nil
}
