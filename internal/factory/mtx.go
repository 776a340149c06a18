package factory

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/SiggeMcKvack/Torch/internal/export"
	"github.com/SiggeMcKvack/Torch/internal/graph"
)

const mtxSize = 64

// Mtx is a parsed fixed-point 4x4 matrix: 16 signed 16.16 values stored as
// an integer part block followed by a fractional part block.
type Mtx struct {
	Symbol string
	Data   []byte
	Values [16]float64
}

// AssetType implements the Asset interface.
func (m *Mtx) AssetType() string {
	return "MTX"
}

// MtxFactory handles fixed-point matrix ranges.
type MtxFactory struct{}

// Parse decodes the 64 byte fixed-point matrix.
func (f *MtxFactory) Parse(data []byte, node *graph.Node) (Asset, error) {
	if len(data) < mtxSize {
		return nil, fmt.Errorf("range size %d below the %d byte matrix size", len(data), mtxSize)
	}

	mtx := &Mtx{
		Symbol: node.SymbolName(),
		Data:   data[:mtxSize],
	}
	for i := 0; i < 16; i++ {
		intPart := int16(binary.BigEndian.Uint16(data[i*2 : i*2+2]))
		fracPart := binary.BigEndian.Uint16(data[32+i*2 : 32+i*2+2])
		mtx.Values[i] = float64(intPart) + float64(fracPart)/65536
	}
	return mtx, nil
}

// Export produces matrix artifacts.
func (f *MtxFactory) Export(asset Asset, kind export.Kind) ([]export.WriteEntry, error) {
	mtx := asset.(*Mtx)

	switch kind {
	case export.KindHeader:
		return []export.WriteEntry{
			export.NewWriteEntry(mtx.Symbol, mtx.AssetType(), nil,
				fmt.Sprintf("extern Mtx %s;\n", mtx.Symbol)),
		}, nil
	case export.KindCode:
		return []export.WriteEntry{
			export.NewWriteEntry(mtx.Symbol, mtx.AssetType(), mtx.Data, mtx.code()),
		}, nil
	case export.KindBinary, export.KindModding:
		return []export.WriteEntry{
			export.NewWriteEntry(mtx.Symbol, mtx.AssetType(), mtx.Data, ""),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported exporter kind '%s'", kind)
	}
}

func (m *Mtx) code() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Mtx %s = {{\n", m.Symbol)
	for row := 0; row < 4; row++ {
		sb.WriteString("    ")
		for col := 0; col < 4; col++ {
			fmt.Fprintf(&sb, "%g, ", m.Values[row*4+col])
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("}};\n")
	return sb.String()
}
