package walker

import (
	"fmt"
	"strings"
)

// CycleError reports a cyclic external file reference, carrying the full
// reference chain.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic file reference: %s", strings.Join(e.Chain, " -> "))
}

// DuplicateAddressError reports two nodes declared at the same address with
// disagreeing types, within one file or across two files.
type DuplicateAddressError struct {
	File         string // second culprit's file; FileA names the first for merged checks
	FileA        string
	Address      uint32
	ExistingName string
	ExistingType string
	NewName      string
	NewType      string
}

func (e *DuplicateAddressError) Error() string {
	if e.FileA != e.File {
		return fmt.Sprintf("duplicate address 0x%X: %s:%s (%s) and %s:%s (%s)",
			e.Address, e.FileA, e.ExistingName, e.ExistingType, e.File, e.NewName, e.NewType)
	}
	return fmt.Sprintf("file %s: duplicate address 0x%X: %s (%s) and %s (%s)",
		e.File, e.Address, e.ExistingName, e.ExistingType, e.NewName, e.NewType)
}

// OverlapWarning reports two nodes whose byte ranges intersect.
type OverlapWarning struct {
	File    string // second culprit's file; FileA names the first for merged checks
	FileA   string
	NameA   string
	StartA  uint32
	EndA    uint32
	NameB   string
	StartB  uint32
	EndB    uint32
	Overlap uint32 // intersection length in bytes
}

func (e *OverlapWarning) Error() string {
	if e.FileA != e.File {
		return fmt.Sprintf("range overlap: %s:%s [0x%X, 0x%X) and %s:%s [0x%X, 0x%X), 0x%X bytes",
			e.FileA, e.NameA, e.StartA, e.EndA, e.File, e.NameB, e.StartB, e.EndB, e.Overlap)
	}
	return fmt.Sprintf("file %s: range overlap: %s [0x%X, 0x%X) and %s [0x%X, 0x%X), 0x%X bytes",
		e.File, e.NameA, e.StartA, e.EndA, e.NameB, e.StartB, e.EndB, e.Overlap)
}
