// Package graph defines the declarative asset node tree consumed by the
// walker. The tree is built once by the loader and read-only afterwards.
package graph

// Node describes one asset to extract. All fields are set by the loader.
type Node struct {
	Name   string
	Type   string // asset type tag, dispatched via the factory registry
	Symbol string // exported symbol name, defaults to Name

	Offset    uint32 // absolute image offset, or segment-relative if Segmented
	HasOffset bool
	Segmented bool

	Size    uint32 // explicit byte size, 0 if header/codec derived
	HasSize bool

	Codec string // codec selector, empty for pass-through byte ranges

	External string // referenced external graph file, walked first

	Attrs     map[string]string // type specific attributes (format, width, ...)
	Overrides map[string]string // per-exporter override flags
}

// Attr returns a type specific attribute value.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.Attrs[key]
	return v, ok
}

// SymbolName returns the exported symbol name of the node.
func (n *Node) SymbolName() string {
	if n.Symbol != "" {
		return n.Symbol
	}
	return n.Name
}

// File is one logical file's node graph, nodes in declaration order.
type File struct {
	Name  string
	Nodes []*Node
}

// Externals returns the distinct external files referenced by the graph,
// in first-reference order.
func (f *File) Externals() []string {
	var refs []string
	seen := map[string]bool{}
	for _, node := range f.Nodes {
		if node.External == "" || seen[node.External] {
			continue
		}
		seen[node.External] = true
		refs = append(refs, node.External)
	}
	return refs
}
