// Package factory dispatches asset byte ranges to per-type parse and export
// capabilities.
package factory

import (
	"errors"
	"fmt"

	"github.com/SiggeMcKvack/Torch/internal/export"
	"github.com/SiggeMcKvack/Torch/internal/graph"
	"github.com/retroenv/retrogolib/log"
)

// ErrUnknownAssetType reports a dispatch for a type tag with no registered
// factory.
var ErrUnknownAssetType = errors.New("unknown asset type")

// ErrSkipped signals that a factory legitimately produces no output for an
// exporter kind. It is a control value like io.EOF, not a failure, and must
// not abort a walk.
var ErrSkipped = errors.New("export skipped")

// Asset is the parsed form of one extracted byte range.
type Asset interface {
	// AssetType returns the type tag the asset was dispatched under.
	AssetType() string
}

// Factory is the capability set of one asset type: parsing raw bytes and
// exporting the parsed form for an exporter kind.
type Factory interface {
	Parse(data []byte, node *graph.Node) (Asset, error)
	Export(asset Asset, kind export.Kind) ([]export.WriteEntry, error)
}

// ParseError reports a factory that could not make sense of its input bytes.
type ParseError struct {
	Type string
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s node %s: %s", e.Type, e.Name, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Registry maps asset type tags to their factories.
type Registry struct {
	logger    *log.Logger
	factories map[string]Factory
}

// NewRegistry creates an empty factory registry.
func NewRegistry(logger *log.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[string]Factory),
	}
}

// Default creates a registry with all built-in asset factories registered.
func Default(logger *log.Logger) *Registry {
	r := NewRegistry(logger)
	for typeTag, f := range map[string]Factory{
		"BLOB":    &BlobFactory{},
		"TEXTURE": &TextureFactory{},
		"VTX":     &VtxFactory{},
		"MTX":     &MtxFactory{},
	} {
		// built-in tags are distinct, registration can not fail
		_ = r.Register(typeTag, f)
	}
	return r
}

// Register adds a factory for a type tag. Registering a tag twice is a
// configuration error.
func (r *Registry) Register(typeTag string, f Factory) error {
	if _, ok := r.factories[typeTag]; ok {
		return fmt.Errorf("asset type '%s' registered twice", typeTag)
	}
	r.factories[typeTag] = f
	return nil
}

// Has returns whether a factory is registered for the type tag.
func (r *Registry) Has(typeTag string) bool {
	_, ok := r.factories[typeTag]
	return ok
}

// Dispatch parses the byte range with the factory registered for the type tag.
func (r *Registry) Dispatch(typeTag string, data []byte, node *graph.Node) (Asset, error) {
	f, ok := r.factories[typeTag]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownAssetType, typeTag)
	}

	asset, err := f.Parse(data, node)
	if err != nil {
		return nil, &ParseError{Type: typeTag, Name: node.Name, Err: err}
	}
	return asset, nil
}

// Export produces the artifacts of a parsed asset for an exporter kind.
// A result of ErrSkipped is a normal outcome.
func (r *Registry) Export(asset Asset, kind export.Kind) ([]export.WriteEntry, error) {
	f, ok := r.factories[asset.AssetType()]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownAssetType, asset.AssetType())
	}
	return f.Export(asset, kind)
}
