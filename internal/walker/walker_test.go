package walker

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/SiggeMcKvack/Torch/internal/codec"
	"github.com/SiggeMcKvack/Torch/internal/export"
	"github.com/SiggeMcKvack/Torch/internal/factory"
	"github.com/SiggeMcKvack/Torch/internal/graph"
	"github.com/SiggeMcKvack/Torch/internal/options"
	"github.com/SiggeMcKvack/Torch/internal/rom"
	"github.com/SiggeMcKvack/Torch/internal/segment"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func testImage() *rom.Image {
	data := make([]byte, 0x1000)
	for i := range data {
		data[i] = byte(i)
	}
	return rom.New(data)
}

func testWalker(t *testing.T, opts options.Extractor, graphs map[string]*graph.File,
	tables []segment.Table) *Walker {
	t.Helper()

	logger := log.NewTestLogger(t)
	segments, err := segment.Build(tables)
	assert.NoError(t, err)

	return New(logger, opts, testImage(), segments,
		codec.NewEngine(logger, 0), factory.Default(logger), graphs, export.KindBinary)
}

func blobNode(name string, offset, size uint32) *graph.Node {
	return &graph.Node{
		Name:      name,
		Type:      "BLOB",
		Offset:    offset,
		HasOffset: true,
		Size:      size,
		HasSize:   true,
	}
}

func TestWalkFileCycle(t *testing.T) {
	graphs := map[string]*graph.File{
		"A": {Name: "A", Nodes: []*graph.Node{{Name: "ref_b", Type: "BLOB", External: "B"}}},
		"B": {Name: "B", Nodes: []*graph.Node{{Name: "ref_a", Type: "BLOB", External: "A"}}},
	}
	w := testWalker(t, options.NewExtractor(), graphs, nil)

	err := w.WalkFile("A")
	assert.Error(t, err)

	var cycleErr *CycleError
	assert.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, []string{"A", "B", "A"}, cycleErr.Chain)
}

func TestWalkFileMemoized(t *testing.T) {
	graphs := map[string]*graph.File{
		"A": {Name: "A", Nodes: []*graph.Node{blobNode("data", 0x100, 0x10)}},
	}
	w := testWalker(t, options.NewExtractor(), graphs, nil)

	assert.NoError(t, w.WalkFile("A"))
	assert.True(t, w.Visited("A"))
	assert.Equal(t, 1, w.Output().Len())

	assert.NoError(t, w.WalkFile("A"))
	assert.Equal(t, 1, w.Output().Len())
}

func TestWalkFileDependencyOrder(t *testing.T) {
	graphs := map[string]*graph.File{
		"A": {Name: "A", Nodes: []*graph.Node{
			{Name: "ref_b", Type: "BLOB", External: "B"},
			blobNode("a_data", 0x100, 0x10),
		}},
		"B": {Name: "B", Nodes: []*graph.Node{blobNode("b_data", 0x200, 0x10)}},
	}
	w := testWalker(t, options.NewExtractor(), graphs, nil)

	assert.NoError(t, w.WalkFile("A"))
	assert.True(t, w.Visited("B"))

	entries := w.Output().Drain()
	assert.Equal(t, 2, len(entries))
	assert.Equal(t, "b_data", entries[0].Name)
	assert.Equal(t, "a_data", entries[1].Name)
}

func TestWalkFileUnknownReference(t *testing.T) {
	graphs := map[string]*graph.File{
		"A": {Name: "A", Nodes: []*graph.Node{{Name: "ref", Type: "BLOB", External: "missing"}}},
	}
	w := testWalker(t, options.NewExtractor(), graphs, nil)

	err := w.WalkFile("A")
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "missing"))
}

func TestOverlapWarning(t *testing.T) {
	graphs := map[string]*graph.File{
		"A": {Name: "A", Nodes: []*graph.Node{
			blobNode("first", 0x100, 0x100),  // [0x100, 0x200)
			blobNode("second", 0x180, 0xA0),  // [0x180, 0x220)
		}},
	}
	w := testWalker(t, options.NewExtractor(), graphs, nil)

	// default mode: overlap is reported but does not abort the walk
	assert.NoError(t, w.WalkFile("A"))
	assert.Equal(t, 2, w.Output().Len())

	warnings := w.Warnings()
	assert.Error(t, warnings)

	var overlap *OverlapWarning
	assert.True(t, errors.As(warnings, &overlap))
	assert.Equal(t, "first", overlap.NameA)
	assert.Equal(t, "second", overlap.NameB)
	assert.Equal(t, uint32(0x80), overlap.Overlap)
}

func TestOverlapStrict(t *testing.T) {
	graphs := map[string]*graph.File{
		"A": {Name: "A", Nodes: []*graph.Node{
			blobNode("first", 0x100, 0x100),
			blobNode("second", 0x180, 0xA0),
		}},
	}
	opts := options.NewExtractor()
	opts.Strict = true
	w := testWalker(t, opts, graphs, nil)

	err := w.WalkFile("A")
	var overlap *OverlapWarning
	assert.True(t, errors.As(err, &overlap))
}

func TestDuplicateAddress(t *testing.T) {
	vtxNode := &graph.Node{
		Name: "mesh", Type: "VTX",
		Offset: 0x100, HasOffset: true,
		Size: 0x20, HasSize: true,
	}
	newGraphs := func() map[string]*graph.File {
		return map[string]*graph.File{
			"A": {Name: "A", Nodes: []*graph.Node{
				blobNode("data", 0x100, 0x20),
				vtxNode,
			}},
		}
	}

	t.Run("default mode keeps newer entry", func(t *testing.T) {
		w := testWalker(t, options.NewExtractor(), newGraphs(), nil)
		assert.NoError(t, w.WalkFile("A"))

		entry, ok := w.AddressEntry("A", 0x100)
		assert.True(t, ok)
		assert.Equal(t, "mesh", entry.Name)

		var dup *DuplicateAddressError
		assert.True(t, errors.As(w.Warnings(), &dup))
		assert.Equal(t, uint32(0x100), dup.Address)
	})

	t.Run("strict mode fails", func(t *testing.T) {
		opts := options.NewExtractor()
		opts.Strict = true
		w := testWalker(t, opts, newGraphs(), nil)

		err := w.WalkFile("A")
		var dup *DuplicateAddressError
		assert.True(t, errors.As(err, &dup))
		assert.Equal(t, "data", dup.ExistingName)
		assert.Equal(t, "mesh", dup.NewName)
	})
}

func TestGetNodesByType(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	types := []string{"BLOB", "VTX", "MTX"}

	nodes := make([]*graph.Node, 0, 50)
	used := map[uint32]bool{}
	for len(nodes) < 50 {
		address := uint32(rng.Intn(0xF0)) * 16
		if used[address] {
			continue
		}
		used[address] = true

		typeTag := types[rng.Intn(len(types))]
		size := uint32(64)
		node := &graph.Node{
			Name: typeTag + "_" + string(rune('a'+len(nodes)%26)) + string(rune('0'+len(nodes)/26)),
			Type: typeTag, Offset: address, HasOffset: true, Size: size, HasSize: true,
		}
		nodes = append(nodes, node)
	}

	graphs := map[string]*graph.File{"A": {Name: "A", Nodes: nodes}}
	w := testWalker(t, options.NewExtractor(), graphs, nil)
	assert.NoError(t, w.WalkFile("A"))

	for _, typeTag := range types {
		// reference result from a plain linear scan over the node set
		want := 0
		for _, node := range nodes {
			if node.Type == typeTag {
				want++
			}
		}

		got := w.GetNodesByType("A", typeTag)
		assert.Equal(t, want, len(got))

		lastAddress := uint32(0)
		for _, typed := range got {
			assert.Equal(t, typeTag, typed.Node.Type)
			assert.True(t, typed.Node.Offset >= lastAddress)
			lastAddress = typed.Node.Offset
		}
	}
}

func TestSegmentedAddress(t *testing.T) {
	tables := []segment.Table{
		{Name: "scene", Start: 0x200, End: 0x2FF, Index: 2},
	}
	graphs := map[string]*graph.File{
		"A": {Name: "A", Nodes: []*graph.Node{{
			Name: "mesh_data", Type: "BLOB",
			Offset: 0x02000010, HasOffset: true, Segmented: true,
			Size: 0x10, HasSize: true,
		}}},
	}
	w := testWalker(t, options.NewExtractor(), graphs, tables)

	assert.NoError(t, w.WalkFile("A"))
	entry, ok := w.AddressEntry("A", 0x210)
	assert.True(t, ok)
	assert.Equal(t, "mesh_data", entry.Name)

	t.Run("unmapped segment", func(t *testing.T) {
		bad := map[string]*graph.File{
			"B": {Name: "B", Nodes: []*graph.Node{{
				Name: "dangling", Type: "BLOB",
				Offset: 0x07000000, HasOffset: true, Segmented: true,
				Size: 0x10, HasSize: true,
			}}},
		}
		w := testWalker(t, options.NewExtractor(), bad, tables)
		err := w.WalkFile("B")
		assert.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "unmapped segment 7"))
	})
}

func TestCompressedNode(t *testing.T) {
	// place a MIO0 block inside the image
	block := []byte("MIO0")
	block = binary.BigEndian.AppendUint32(block, 9)
	block = binary.BigEndian.AppendUint32(block, 17)
	block = binary.BigEndian.AppendUint32(block, 19)
	block = append(block, 0xE0)
	block = binary.BigEndian.AppendUint16(block, 3<<12|2)
	block = append(block, 'a', 'b', 'c')

	data := make([]byte, 0x1000)
	copy(data[0x300:], block)

	logger := log.NewTestLogger(t)
	segments, err := segment.Build(nil)
	assert.NoError(t, err)

	graphs := map[string]*graph.File{
		"A": {Name: "A", Nodes: []*graph.Node{{
			Name: "packed", Type: "BLOB",
			Offset: 0x300, HasOffset: true,
			Codec: "mio0",
		}}},
	}
	w := New(logger, options.NewExtractor(), rom.New(data), segments,
		codec.NewEngine(logger, 0), factory.Default(logger), graphs, export.KindBinary)

	assert.NoError(t, w.WalkFile("A"))
	entries := w.Output().Drain()
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, "abcabcabc", string(entries[0].Data))
}

func TestParseErrorPolicy(t *testing.T) {
	newGraphs := func() map[string]*graph.File {
		return map[string]*graph.File{
			"A": {Name: "A", Nodes: []*graph.Node{{
				Name: "broken_mesh", Type: "VTX",
				Offset: 0x100, HasOffset: true,
				Size: 0x15, HasSize: true, // not a multiple of the record size
			}}},
		}
	}

	t.Run("abort by default", func(t *testing.T) {
		w := testWalker(t, options.NewExtractor(), newGraphs(), nil)
		err := w.WalkFile("A")
		var parseErr *factory.ParseError
		assert.True(t, errors.As(err, &parseErr))
		assert.True(t, strings.Contains(err.Error(), "broken_mesh"))
	})

	t.Run("skip when configured", func(t *testing.T) {
		opts := options.NewExtractor()
		opts.AbortOnParseError = false
		w := testWalker(t, opts, newGraphs(), nil)

		assert.NoError(t, w.WalkFile("A"))
		assert.Equal(t, 0, w.Output().Len())
		assert.Error(t, w.Warnings())
	})
}

func TestMergeDiagnosticsCrossFile(t *testing.T) {
	graphs := map[string]*graph.File{
		"A": {Name: "A", Nodes: []*graph.Node{blobNode("a_data", 0x100, 0x100)}},
		"B": {Name: "B", Nodes: []*graph.Node{blobNode("b_data", 0x180, 0x100)}},
	}
	w := testWalker(t, options.NewExtractor(), graphs, nil)

	assert.NoError(t, w.WalkFile("A"))
	assert.NoError(t, w.WalkFile("B"))

	assert.NoError(t, w.MergeDiagnostics())
	warnings := w.Warnings()
	assert.Error(t, warnings)
	assert.True(t, strings.Contains(warnings.Error(), "a_data"))
	assert.True(t, strings.Contains(warnings.Error(), "b_data"))
}

func TestMergeDiagnosticsCrossFileDuplicate(t *testing.T) {
	vtxNode := &graph.Node{
		Name: "b_mesh", Type: "VTX",
		Offset: 0x100, HasOffset: true,
		Size: 0x10, HasSize: true,
	}
	newGraphs := func() map[string]*graph.File {
		return map[string]*graph.File{
			"a_file": {Name: "a_file", Nodes: []*graph.Node{blobNode("a_data", 0x100, 0x10)}},
			"b_file": {Name: "b_file", Nodes: []*graph.Node{vtxNode}},
		}
	}

	t.Run("default mode warns", func(t *testing.T) {
		w := testWalker(t, options.NewExtractor(), newGraphs(), nil)
		assert.NoError(t, w.WalkFile("a_file"))
		assert.NoError(t, w.WalkFile("b_file"))

		assert.NoError(t, w.MergeDiagnostics())

		var dup *DuplicateAddressError
		assert.True(t, errors.As(w.Warnings(), &dup))
		assert.Equal(t, "a_file", dup.FileA)
		assert.Equal(t, "b_file", dup.File)
		assert.Equal(t, uint32(0x100), dup.Address)
		assert.Equal(t, "a_data", dup.ExistingName)
		assert.Equal(t, "b_mesh", dup.NewName)
	})

	t.Run("strict mode fails", func(t *testing.T) {
		opts := options.NewExtractor()
		opts.Strict = true
		w := testWalker(t, opts, newGraphs(), nil)
		assert.NoError(t, w.WalkFile("a_file"))
		assert.NoError(t, w.WalkFile("b_file"))

		err := w.MergeDiagnostics()
		var dup *DuplicateAddressError
		assert.True(t, errors.As(err, &dup))
		assert.Equal(t, "a_file", dup.FileA)
		assert.Equal(t, "b_file", dup.File)
	})
}
