package factory

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/SiggeMcKvack/Torch/internal/export"
	"github.com/SiggeMcKvack/Torch/internal/graph"
)

const vtxRecordSize = 16

// Vertex is one 16 byte vertex record.
type Vertex struct {
	X, Y, Z    int16
	Flag       uint16
	S, T       int16
	R, G, B, A byte
}

// Vtx is a parsed vertex buffer.
type Vtx struct {
	Symbol   string
	Data     []byte
	Vertices []Vertex
}

// AssetType implements the Asset interface.
func (v *Vtx) AssetType() string {
	return "VTX"
}

// VtxFactory handles vertex buffer ranges.
type VtxFactory struct{}

// Parse decodes the fixed-size vertex records of the range.
func (f *VtxFactory) Parse(data []byte, node *graph.Node) (Asset, error) {
	if len(data) == 0 || len(data)%vtxRecordSize != 0 {
		return nil, fmt.Errorf("range size %d is not a multiple of the %d byte record size",
			len(data), vtxRecordSize)
	}

	vertices := make([]Vertex, 0, len(data)/vtxRecordSize)
	for pos := 0; pos < len(data); pos += vtxRecordSize {
		rec := data[pos : pos+vtxRecordSize]
		vertices = append(vertices, Vertex{
			X:    int16(binary.BigEndian.Uint16(rec[0:2])),
			Y:    int16(binary.BigEndian.Uint16(rec[2:4])),
			Z:    int16(binary.BigEndian.Uint16(rec[4:6])),
			Flag: binary.BigEndian.Uint16(rec[6:8]),
			S:    int16(binary.BigEndian.Uint16(rec[8:10])),
			T:    int16(binary.BigEndian.Uint16(rec[10:12])),
			R:    rec[12],
			G:    rec[13],
			B:    rec[14],
			A:    rec[15],
		})
	}

	return &Vtx{
		Symbol:   node.SymbolName(),
		Data:     data,
		Vertices: vertices,
	}, nil
}

// Export produces vertex buffer artifacts.
func (f *VtxFactory) Export(asset Asset, kind export.Kind) ([]export.WriteEntry, error) {
	vtx := asset.(*Vtx)

	switch kind {
	case export.KindHeader:
		return []export.WriteEntry{
			export.NewWriteEntry(vtx.Symbol, vtx.AssetType(), nil,
				cExtern("Vtx", vtx.Symbol, len(vtx.Vertices))),
		}, nil
	case export.KindCode:
		return []export.WriteEntry{
			export.NewWriteEntry(vtx.Symbol, vtx.AssetType(), vtx.Data, vtx.code()),
		}, nil
	case export.KindBinary, export.KindModding:
		return []export.WriteEntry{
			export.NewWriteEntry(vtx.Symbol, vtx.AssetType(), vtx.Data, ""),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported exporter kind '%s'", kind)
	}
}

func (v *Vtx) code() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Vtx %s[] = {\n", v.Symbol)
	for _, vert := range v.Vertices {
		fmt.Fprintf(&sb, "    VTX(%d, %d, %d, %d, %d, 0x%02X, 0x%02X, 0x%02X, 0x%02X),\n",
			vert.X, vert.Y, vert.Z, vert.S, vert.T, vert.R, vert.G, vert.B, vert.A)
	}
	sb.WriteString("};\n")
	return sb.String()
}
