package walker

import (
	"sort"

	"github.com/SiggeMcKvack/Torch/internal/graph"
)

// AddressEntry records one declared node in a file's address namespace.
type AddressEntry struct {
	Address uint32
	Name    string
	Node    *graph.Node
}

type rangeEntry struct {
	start uint32
	end   uint32
	name  string
}

// fileIndex is the per-file state built during a single walk pass. It is
// owned exclusively by the goroutine walking the file.
type fileIndex struct {
	addresses map[uint32]AddressEntry

	// per-type address lists in insertion order, sorted lazily on query
	types      map[string][]uint32
	typeSorted map[string]bool

	ledger []rangeEntry
}

func newFileIndex() *fileIndex {
	return &fileIndex{
		addresses:  make(map[uint32]AddressEntry),
		types:      make(map[string][]uint32),
		typeSorted: make(map[string]bool),
	}
}

func (idx *fileIndex) record(entry AddressEntry) {
	idx.addresses[entry.Address] = entry
}

func (idx *fileIndex) recordType(typeTag string, address uint32) {
	idx.types[typeTag] = append(idx.types[typeTag], address)
	idx.typeSorted[typeTag] = false
}

// typeAddresses returns the addresses of one type, sorted ascending. The
// sort happens at most once per type between modifications.
func (idx *fileIndex) typeAddresses(typeTag string) []uint32 {
	addresses := idx.types[typeTag]
	if !idx.typeSorted[typeTag] {
		sort.Slice(addresses, func(i, j int) bool { return addresses[i] < addresses[j] })
		idx.typeSorted[typeTag] = true
	}
	return addresses
}

// addRange appends a byte range to the ledger and returns the ledger entries
// it overlaps with.
func (idx *fileIndex) addRange(start, end uint32, name string) []rangeEntry {
	var overlapping []rangeEntry
	for _, r := range idx.ledger {
		if start < r.end && r.start < end {
			overlapping = append(overlapping, r)
		}
	}
	idx.ledger = append(idx.ledger, rangeEntry{start: start, end: end, name: name})
	return overlapping
}

// intersection returns the length of the overlap of two half-open ranges.
func intersection(aStart, aEnd, bStart, bEnd uint32) uint32 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}
