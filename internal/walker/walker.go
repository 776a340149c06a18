// Package walker traverses per-file asset graphs, resolves addresses,
// fetches and decodes byte ranges and dispatches them to asset factories.
package walker

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/SiggeMcKvack/Torch/internal/codec"
	"github.com/SiggeMcKvack/Torch/internal/export"
	"github.com/SiggeMcKvack/Torch/internal/factory"
	"github.com/SiggeMcKvack/Torch/internal/graph"
	"github.com/SiggeMcKvack/Torch/internal/options"
	"github.com/SiggeMcKvack/Torch/internal/rom"
	"github.com/SiggeMcKvack/Torch/internal/segment"
	"github.com/hashicorp/go-multierror"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

// TypedNode pairs a node with its symbolic name for type-filtered queries.
type TypedNode struct {
	Name string
	Node *graph.Node
}

// Walker is the extraction orchestrator for one run. All per-run state is
// owned by the instance, there is no package level state.
type Walker struct {
	logger   *log.Logger
	opts     options.Extractor
	image    *rom.Image
	segments *segment.Set
	engine   *codec.Engine
	registry *factory.Registry
	exporter export.Kind

	graphs map[string]*graph.File

	mu       sync.Mutex
	visited  set.Set[string]
	files    map[string]*fileIndex
	warnings *multierror.Error

	collector *export.Collector
}

// New creates a walker for one extraction run over the given image and
// graphs.
func New(logger *log.Logger, opts options.Extractor, image *rom.Image,
	segments *segment.Set, engine *codec.Engine, registry *factory.Registry,
	graphs map[string]*graph.File, exporter export.Kind) *Walker {

	return &Walker{
		logger:    logger,
		opts:      opts,
		image:     image,
		segments:  segments,
		engine:    engine,
		registry:  registry,
		exporter:  exporter,
		graphs:    graphs,
		visited:   set.New[string](),
		files:     make(map[string]*fileIndex),
		collector: export.NewCollector(),
	}
}

// WalkFile processes one file's graph. External references are walked first,
// a reference cycle fails with a CycleError naming the chain. Walking an
// already visited file returns immediately.
func (w *Walker) WalkFile(file string) error {
	return w.walkFile(file, nil)
}

func (w *Walker) walkFile(file string, chain []string) error {
	for _, ancestor := range chain {
		if ancestor == file {
			return &CycleError{Chain: append(append([]string{}, chain...), file)}
		}
	}

	w.mu.Lock()
	if w.visited.Contains(file) {
		w.mu.Unlock()
		return nil
	}
	g, ok := w.graphs[file]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("referenced graph file '%s' does not exist", file)
	}
	idx := newFileIndex()
	w.files[file] = idx
	w.mu.Unlock()

	chain = append(chain, file)
	w.logger.Debug("Walking file", log.String("file", file))

	for _, node := range g.Nodes {
		if err := w.processNode(file, idx, node, chain); err != nil {
			return err
		}
	}

	w.mu.Lock()
	w.visited.Add(file)
	w.mu.Unlock()
	return nil
}

func (w *Walker) processNode(file string, idx *fileIndex, node *graph.Node, chain []string) error {
	if node.External != "" {
		if err := w.walkFile(node.External, chain); err != nil {
			return err
		}
		if !node.HasOffset {
			return nil
		}
	}

	address, err := w.resolveAddress(file, node)
	if err != nil {
		return err
	}

	data, span, err := w.fetch(file, node, address)
	if err != nil {
		return err
	}

	if err := w.recordAddress(file, idx, node, address); err != nil {
		return err
	}
	if err := w.recordRange(file, idx, node, address, span); err != nil {
		return err
	}
	idx.recordType(node.Type, address)

	return w.dispatch(file, node, address, data)
}

// resolveAddress computes the node's absolute image address. Segment-relative
// offsets need their segment mapped; for absolute offsets a missing covering
// table only disables segment context.
func (w *Walker) resolveAddress(file string, node *graph.Node) (uint32, error) {
	if !node.Segmented {
		if _, ok := w.segments.Resolve(node.Offset); !ok {
			w.logger.Debug("Address outside any segment table",
				log.String("file", file),
				log.String("node", node.Name),
				log.Hex("address", node.Offset))
		}
		return node.Offset, nil
	}

	index := byte(node.Offset >> 24)
	table, ok := w.segments.Segment(index)
	if !ok {
		return 0, fmt.Errorf("file %s: node %s: offset 0x%X references unmapped segment %d",
			file, node.Name, node.Offset, index)
	}
	return table.Start + node.Offset&0xFFFFFF, nil
}

// fetch returns the node's bytes and the source byte span the node occupies:
// a pass-through slice of the image, or a decoded chunk when the node names
// a codec.
func (w *Walker) fetch(file string, node *graph.Node, address uint32) ([]byte, uint32, error) {
	if node.Codec == "" || node.Codec == "none" {
		if !node.HasSize {
			return nil, 0, fmt.Errorf("file %s: node %s: uncompressed node at 0x%X needs an explicit size",
				file, node.Name, address)
		}
		data, err := w.image.Slice(address, node.Size)
		if err != nil {
			return nil, 0, fmt.Errorf("file %s: node %s: %w", file, node.Name, err)
		}
		return data, node.Size, nil
	}

	kind, ok := codec.KindFromString(node.Codec)
	if !ok {
		return nil, 0, fmt.Errorf("file %s: node %s: unknown codec '%s'",
			file, node.Name, node.Codec)
	}

	chunk, err := w.engine.Decode(w.image.Bytes(), address, kind)
	if err != nil {
		return nil, 0, fmt.Errorf("file %s: node %s: %w", file, node.Name, err)
	}

	// the ledger tracks source image bytes; compressed nodes without a
	// declared compressed size contribute a zero length range
	span := uint32(0)
	if node.HasSize {
		span = node.Size
	}
	return chunk.Data, span, nil
}

func (w *Walker) recordAddress(file string, idx *fileIndex, node *graph.Node, address uint32) error {
	existing, ok := idx.addresses[address]
	if ok && existing.Node.Type != node.Type {
		dup := &DuplicateAddressError{
			File:         file,
			FileA:        file,
			Address:      address,
			ExistingName: existing.Name,
			ExistingType: existing.Node.Type,
			NewName:      node.Name,
			NewType:      node.Type,
		}
		if w.opts.Strict {
			return dup
		}
		w.warn(dup)
		w.logger.Warn("Duplicate address, keeping newer entry",
			log.String("file", file),
			log.Hex("address", address),
			log.String("existing", existing.Name),
			log.String("new", node.Name))
	}

	idx.record(AddressEntry{Address: address, Name: node.Name, Node: node})
	return nil
}

func (w *Walker) recordRange(file string, idx *fileIndex, node *graph.Node, address, span uint32) error {
	if span == 0 {
		return nil
	}

	end := address + span
	for _, r := range idx.addRange(address, end, node.Name) {
		overlap := &OverlapWarning{
			File:    file,
			FileA:   file,
			NameA:   r.name,
			StartA:  r.start,
			EndA:    r.end,
			NameB:   node.Name,
			StartB:  address,
			EndB:    end,
			Overlap: intersection(r.start, r.end, address, end),
		}
		if w.opts.Strict {
			return overlap
		}
		w.warn(overlap)
		w.logger.Warn("Byte range overlap",
			log.String("file", file),
			log.String("first", r.name),
			log.String("second", node.Name),
			log.Hex("bytes", overlap.Overlap))
	}
	return nil
}

func (w *Walker) dispatch(file string, node *graph.Node, address uint32, data []byte) error {
	asset, err := w.registry.Dispatch(node.Type, data, node)
	if err != nil {
		err = fmt.Errorf("file %s: node %s at 0x%X: %w", file, node.Name, address, err)
		var parseErr *factory.ParseError
		if errors.As(err, &parseErr) && !w.opts.AbortOnParseError {
			w.warn(err)
			w.logger.Warn("Skipping unparsable node", log.String("error", err.Error()))
			return nil
		}
		return err
	}

	entries, err := w.registry.Export(asset, w.exporter)
	if errors.Is(err, factory.ErrSkipped) {
		w.logger.Debug("Export skipped",
			log.String("file", file),
			log.String("node", node.Name),
			log.String("exporter", string(w.exporter)))
		return nil
	}
	if err != nil {
		return fmt.Errorf("file %s: node %s at 0x%X: exporting: %w", file, node.Name, address, err)
	}

	w.collector.Append(entries...)
	return nil
}

// GetNodesByType returns the file's nodes of one type, ordered by address.
// The query is served from the maintained type index, the node set is not
// rescanned.
func (w *Walker) GetNodesByType(file, typeTag string) []TypedNode {
	w.mu.Lock()
	idx, ok := w.files[file]
	w.mu.Unlock()
	if !ok {
		return nil
	}

	addresses := idx.typeAddresses(typeTag)
	nodes := make([]TypedNode, 0, len(addresses))
	for _, address := range addresses {
		entry := idx.addresses[address]
		nodes = append(nodes, TypedNode{Name: entry.Name, Node: entry.Node})
	}
	return nodes
}

// AddressEntry returns the entry recorded at an address of a file.
func (w *Walker) AddressEntry(file string, address uint32) (AddressEntry, bool) {
	w.mu.Lock()
	idx, ok := w.files[file]
	w.mu.Unlock()
	if !ok {
		return AddressEntry{}, false
	}
	entry, ok := idx.addresses[address]
	return entry, ok
}

// MergeDiagnostics runs the cross-file checks deferred during parallel
// walks: byte range overlaps and conflicting address declarations between
// different files. Findings are warnings, or fatal in strict mode.
func (w *Walker) MergeDiagnostics() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	files := make([]string, 0, len(w.files))
	for name := range w.files {
		files = append(files, name)
	}
	sort.Strings(files)

	for i := 0; i < len(files); i++ {
		for j := i + 1; j < len(files); j++ {
			if err := w.crossFileDuplicates(files[i], files[j]); err != nil {
				return err
			}
			if err := w.crossFileOverlaps(files[i], files[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Walker) crossFileDuplicates(fileA, fileB string) error {
	idxA, idxB := w.files[fileA], w.files[fileB]
	for address, a := range idxA.addresses {
		b, ok := idxB.addresses[address]
		if !ok || a.Node.Type == b.Node.Type {
			continue
		}
		dup := &DuplicateAddressError{
			File:         fileB,
			FileA:        fileA,
			Address:      address,
			ExistingName: a.Name,
			ExistingType: a.Node.Type,
			NewName:      b.Name,
			NewType:      b.Node.Type,
		}
		if w.opts.Strict {
			return dup
		}
		w.warnings = multierror.Append(w.warnings, dup)
		w.logger.Warn("Cross-file duplicate address",
			log.Hex("address", address),
			log.String("first", fileA+":"+a.Name),
			log.String("second", fileB+":"+b.Name))
	}
	return nil
}

func (w *Walker) crossFileOverlaps(fileA, fileB string) error {
	idxA, idxB := w.files[fileA], w.files[fileB]
	for _, a := range idxA.ledger {
		for _, b := range idxB.ledger {
			if a.start >= b.end || b.start >= a.end {
				continue
			}
			overlap := &OverlapWarning{
				File:    fileB,
				FileA:   fileA,
				NameA:   a.name,
				StartA:  a.start,
				EndA:    a.end,
				NameB:   b.name,
				StartB:  b.start,
				EndB:    b.end,
				Overlap: intersection(a.start, a.end, b.start, b.end),
			}
			if w.opts.Strict {
				return overlap
			}
			w.warnings = multierror.Append(w.warnings, overlap)
			w.logger.Warn("Cross-file byte range overlap",
				log.String("first", fileA+":"+a.name),
				log.String("second", fileB+":"+b.name),
				log.Hex("bytes", overlap.Overlap))
		}
	}
	return nil
}

// Warnings returns the accumulated non-fatal diagnostics of the run.
func (w *Walker) Warnings() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.warnings.ErrorOrNil()
}

// Output returns the run's artifact collector.
func (w *Walker) Output() *export.Collector {
	return w.collector
}

// Visited returns whether a file has been fully walked.
func (w *Walker) Visited(file string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visited.Contains(file)
}

func (w *Walker) warn(err error) {
	w.mu.Lock()
	w.warnings = multierror.Append(w.warnings, err)
	w.mu.Unlock()
}
