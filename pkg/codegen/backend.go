package codegen

import (
	"bytes"
	"fmt"

	"github.com/xplshn/gruc/pkg/config"
)

// Backend is the interface that all image writers must implement.
type Backend interface {
	// Generate serializes a generated image in the backend's format.
	Generate(img *Image, cfg *config.Config) (*bytes.Buffer, error)
}

// NewBackend selects a writer by name.
func NewBackend(name string) (Backend, error) {
	switch name {
	case "", "vm":
		return NewVMBackend(), nil
	case "cbor":
		return NewCBORBackend(), nil
	}
	return nil, fmt.Errorf("unsupported backend '%s'", name)
}
