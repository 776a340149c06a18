package factory

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/SiggeMcKvack/Torch/internal/export"
	"github.com/SiggeMcKvack/Torch/internal/graph"
)

// Bits per pixel of the supported texture formats.
var textureFormats = map[string]int{
	"rgba16": 16,
	"rgba32": 32,
	"ia16":   16,
	"ia8":    8,
	"ia4":    4,
	"i8":     8,
	"i4":     4,
	"ci8":    8,
	"ci4":    4,
}

// Texture is a parsed image asset in one of the native pixel formats.
type Texture struct {
	Symbol string
	Format string
	Width  int
	Height int
	Data   []byte
}

// AssetType implements the Asset interface.
func (t *Texture) AssetType() string {
	return "TEXTURE"
}

// TextureFactory handles native format texture ranges. Nodes declare format,
// width and height; the byte size follows from them.
type TextureFactory struct{}

// Parse validates the declared dimensions against the byte range.
func (f *TextureFactory) Parse(data []byte, node *graph.Node) (Asset, error) {
	format, ok := node.Attr("format")
	if !ok {
		return nil, errors.New("mandatory attribute format missing")
	}
	bpp, ok := textureFormats[format]
	if !ok {
		return nil, fmt.Errorf("unsupported texture format '%s'", format)
	}

	width, err := attrInt(node, "width")
	if err != nil {
		return nil, err
	}
	height, err := attrInt(node, "height")
	if err != nil {
		return nil, err
	}

	expected := width * height * bpp / 8
	if len(data) < expected {
		return nil, fmt.Errorf("%dx%d %s texture needs %d bytes, range has %d",
			width, height, format, expected, len(data))
	}

	return &Texture{
		Symbol: node.SymbolName(),
		Format: format,
		Width:  width,
		Height: height,
		Data:   data[:expected],
	}, nil
}

// Export produces texture artifacts.
func (f *TextureFactory) Export(asset Asset, kind export.Kind) ([]export.WriteEntry, error) {
	tex := asset.(*Texture)

	switch kind {
	case export.KindHeader:
		return []export.WriteEntry{
			export.NewWriteEntry(tex.Symbol, tex.AssetType(), nil,
				cExtern("u8", tex.Symbol, len(tex.Data))),
		}, nil
	case export.KindCode:
		header := fmt.Sprintf("// %s %dx%d\n%s", tex.Format, tex.Width, tex.Height,
			cByteArray(tex.Symbol, tex.Data))
		return []export.WriteEntry{
			export.NewWriteEntry(tex.Symbol, tex.AssetType(), tex.Data, header),
		}, nil
	case export.KindBinary, export.KindModding:
		return []export.WriteEntry{
			export.NewWriteEntry(tex.Symbol, tex.AssetType(), tex.Data, ""),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported exporter kind '%s'", kind)
	}
}

func attrInt(node *graph.Node, key string) (int, error) {
	s, ok := node.Attr(key)
	if !ok {
		return 0, fmt.Errorf("mandatory attribute %s missing", key)
	}
	v, err := strconv.ParseInt(s, 0, 32)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s value %q", key, s)
	}
	return int(v), nil
}
