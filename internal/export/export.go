// Package export collects the artifacts produced by an extraction run until
// they are drained by the container exporter.
package export

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Kind selects the exporter the artifacts are produced for.
type Kind string

const (
	KindHeader  Kind = "header"  // C declaration headers
	KindCode    Kind = "code"    // C source payloads
	KindBinary  Kind = "binary"  // raw binary payloads
	KindModding Kind = "modding" // modding-friendly formats
)

// KindFromString parses an exporter kind selector.
func KindFromString(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindHeader:
		return KindHeader, nil
	case KindCode:
		return KindCode, nil
	case KindBinary:
		return KindBinary, nil
	case KindModding:
		return KindModding, nil
	}
	return "", fmt.Errorf("unsupported exporter kind '%s'", s)
}

// WriteEntry is one emitted artifact. Immutable once produced.
type WriteEntry struct {
	Name       string
	Type       string
	Data       []byte
	HeaderText string // optional generated declaration text
	Digest     uint64 // xxhash of Data, used by exporter manifests
}

// NewWriteEntry creates an artifact with its content digest set.
func NewWriteEntry(name, typ string, data []byte, headerText string) WriteEntry {
	return WriteEntry{
		Name:       name,
		Type:       typ,
		Data:       data,
		HeaderText: headerText,
		Digest:     xxhash.Sum64(data),
	}
}

// Collector accumulates artifacts in production order for the run.
type Collector struct {
	mu      sync.Mutex
	entries []WriteEntry
}

// NewCollector creates an empty artifact collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Append adds artifacts to the run's output set.
func (c *Collector) Append(entries ...WriteEntry) {
	c.mu.Lock()
	c.entries = append(c.entries, entries...)
	c.mu.Unlock()
}

// Len returns the number of collected artifacts.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Drain hands the ordered artifact sequence to the exporter and empties the
// collector.
func (c *Collector) Drain() []WriteEntry {
	c.mu.Lock()
	entries := c.entries
	c.entries = nil
	c.mu.Unlock()
	return entries
}
