package graph

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadYAML parses an asset graph document. The top level is a mapping of
// node name to node attributes; declaration order is preserved.
func LoadYAML(name string, r io.Reader) (*File, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing graph %s: %w", name, err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("graph %s: expected a single document", name)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("graph %s: line %d: top level must be a mapping of node names",
			name, root.Line)
	}

	file := &File{Name: name}
	for i := 0; i < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		node, err := parseNode(name, key.Value, value)
		if err != nil {
			return nil, err
		}
		file.Nodes = append(file.Nodes, node)
	}
	return file, nil
}

func parseNode(file, nodeName string, m *yaml.Node) (*Node, error) {
	if m.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("graph %s: line %d: node %s must be a mapping",
			file, m.Line, nodeName)
	}

	node := &Node{Name: nodeName}
	for i := 0; i < len(m.Content); i += 2 {
		key, value := m.Content[i], m.Content[i+1]

		switch key.Value {
		case "type":
			node.Type = strings.ToUpper(value.Value)
		case "offset":
			offset, segmented, err := parseAddress(value.Value)
			if err != nil {
				return nil, fmt.Errorf("graph %s: line %d: node %s: offset: %w",
					file, value.Line, nodeName, err)
			}
			node.Offset = offset
			node.Segmented = segmented
			node.HasOffset = true
		case "size":
			size, err := parseUint32(value.Value)
			if err != nil {
				return nil, fmt.Errorf("graph %s: line %d: node %s: size: %w",
					file, value.Line, nodeName, err)
			}
			node.Size = size
			node.HasSize = true
		case "codec", "compression":
			node.Codec = strings.ToLower(value.Value)
		case "symbol":
			node.Symbol = value.Value
		case "external":
			node.External = value.Value
		case "overrides":
			if value.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("graph %s: line %d: node %s: overrides must be a mapping",
					file, value.Line, nodeName)
			}
			node.Overrides = make(map[string]string, len(value.Content)/2)
			for j := 0; j < len(value.Content); j += 2 {
				node.Overrides[value.Content[j].Value] = value.Content[j+1].Value
			}
		case "format", "width", "height", "count", "ctype":
			if node.Attrs == nil {
				node.Attrs = make(map[string]string)
			}
			node.Attrs[key.Value] = value.Value
		default:
			return nil, fmt.Errorf("graph %s: line %d: node %s: unknown attribute %q",
				file, key.Line, nodeName, key.Value)
		}
	}

	if node.Type == "" {
		return nil, fmt.Errorf("graph %s: line %d: node %s: mandatory attribute type missing",
			file, m.Line, nodeName)
	}
	if !node.HasOffset && node.External == "" {
		return nil, fmt.Errorf("graph %s: line %d: node %s: either offset or external is required",
			file, m.Line, nodeName)
	}
	return node, nil
}

// parseAddress parses an offset value. Addresses with a nonzero top byte are
// segment-relative, the top byte selecting the segment.
func parseAddress(s string) (offset uint32, segmented bool, err error) {
	v, err := parseUint32(s)
	if err != nil {
		return 0, false, err
	}
	return v, v>>24 != 0 && v>>24 <= 0x0F, nil
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return uint32(v), nil
}
