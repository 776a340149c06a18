// Package segment maps absolute image addresses to logical segment contexts.
package segment

import (
	"fmt"
	"sort"
)

// Table describes one named address interval of the image. Addresses inside
// [Start, End] resolve segment-relative references against VRAM.
type Table struct {
	Name  string
	Start uint32
	End   uint32
	VRAM  uint32 // virtual base address of the interval
	Index byte   // logical segment number
}

// OverlapError reports two intervals that overlap at build time.
type OverlapError struct {
	A Table
	B Table
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlapping segment tables: %s [0x%X, 0x%X] and %s [0x%X, 0x%X]",
		e.A.Name, e.A.Start, e.A.End, e.B.Name, e.B.Start, e.B.End)
}

// Set is an immutable sorted set of non-overlapping tables.
// It is safe for unsynchronized concurrent reads after Build.
type Set struct {
	tables []Table
}

// Build sorts the intervals by start address and rejects any overlapping pair.
// The returned set is immutable.
func Build(tables []Table) (*Set, error) {
	sorted := make([]Table, len(tables))
	copy(sorted, tables)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.End >= cur.Start {
			return nil, &OverlapError{A: prev, B: cur}
		}
	}

	return &Set{tables: sorted}, nil
}

// Resolve returns the unique table containing the address. Containment is
// exact, there is no nearest-match fallback.
func (s *Set) Resolve(address uint32) (Table, bool) {
	idx := sort.Search(len(s.tables), func(i int) bool {
		return s.tables[i].End >= address
	})
	if idx == len(s.tables) || s.tables[idx].Start > address {
		return Table{}, false
	}
	return s.tables[idx], true
}

// Segment returns the table with the given logical segment number.
func (s *Set) Segment(index byte) (Table, bool) {
	for _, t := range s.tables {
		if t.Index == index {
			return t, true
		}
	}
	return Table{}, false
}

// Len returns the number of tables in the set.
func (s *Set) Len() int {
	return len(s.tables)
}

// Tables returns the sorted tables for iteration.
func (s *Set) Tables() []Table {
	return s.tables
}
