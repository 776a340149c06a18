package factory

import (
	"fmt"

	"github.com/SiggeMcKvack/Torch/internal/export"
	"github.com/SiggeMcKvack/Torch/internal/graph"
)

// Blob is an opaque byte range exported verbatim.
type Blob struct {
	Symbol string
	Data   []byte
}

// AssetType implements the Asset interface.
func (b *Blob) AssetType() string {
	return "BLOB"
}

// BlobFactory handles raw byte ranges with no further structure.
type BlobFactory struct{}

// Parse wraps the byte range as-is.
func (f *BlobFactory) Parse(data []byte, node *graph.Node) (Asset, error) {
	return &Blob{
		Symbol: node.SymbolName(),
		Data:   data,
	}, nil
}

// Export produces blob artifacts. Blobs carry no modding representation and
// are skipped for that exporter kind.
func (f *BlobFactory) Export(asset Asset, kind export.Kind) ([]export.WriteEntry, error) {
	blob := asset.(*Blob)

	switch kind {
	case export.KindHeader:
		return []export.WriteEntry{
			export.NewWriteEntry(blob.Symbol, blob.AssetType(), nil,
				cExtern("u8", blob.Symbol, len(blob.Data))),
		}, nil
	case export.KindCode:
		return []export.WriteEntry{
			export.NewWriteEntry(blob.Symbol, blob.AssetType(), blob.Data,
				cByteArray(blob.Symbol, blob.Data)),
		}, nil
	case export.KindBinary:
		return []export.WriteEntry{
			export.NewWriteEntry(blob.Symbol, blob.AssetType(), blob.Data, ""),
		}, nil
	case export.KindModding:
		return nil, ErrSkipped
	default:
		return nil, fmt.Errorf("unsupported exporter kind '%s'", kind)
	}
}
