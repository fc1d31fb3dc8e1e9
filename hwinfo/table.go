package hwinfo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrDuplicateCapability = errors.New("hwinfo: duplicate compute capability")

// Capability is a vendor compute-capability version, e.g. (8, 6).
type Capability struct {
	Major, Minor int
}

func (c Capability) String() string {
	return fmt.Sprintf("(%d, %d)", c.Major, c.Minor)
}

// ParseCapability parses the dotted form reported by drivers, e.g. "8.6".
func ParseCapability(s string) (Capability, error) {
	major, minor, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return Capability{}, fmt.Errorf("compute capability %q: missing minor version", s)
	}
	ma, err := strconv.Atoi(major)
	if err != nil {
		return Capability{}, fmt.Errorf("compute capability %q: %w", s, err)
	}
	mi, err := strconv.Atoi(minor)
	if err != nil {
		return Capability{}, fmt.Errorf("compute capability %q: %w", s, err)
	}
	return Capability{Major: ma, Minor: mi}, nil
}

// TableEntry maps one compute capability to its architecture and core count.
type TableEntry struct {
	Capability Capability
	Arch       string
	CoresPerMP int
}

// Table is a lookup of cores per multiprocessor keyed by compute capability.
type Table struct {
	entries map[Capability]TableEntry
}

// NewTable builds a table from entries. It always returns a usable table:
// when a capability appears twice the first entry is kept and every
// duplicate is reported in the returned error.
func NewTable(entries []TableEntry) (*Table, error) {
	t := &Table{entries: make(map[Capability]TableEntry, len(entries))}
	var dups []error
	for _, e := range entries {
		if prev, found := t.entries[e.Capability]; found {
			dups = append(dups, fmt.Errorf("%w %s: %s (%d) and %s (%d)",
				ErrDuplicateCapability, e.Capability, prev.Arch, prev.CoresPerMP, e.Arch, e.CoresPerMP))
			continue
		}
		t.entries[e.Capability] = e
	}
	return t, errors.Join(dups...)
}

func (t *Table) Lookup(c Capability) (TableEntry, bool) {
	e, ok := t.entries[c]
	return e, ok
}

// CoresPerMP returns the cores per multiprocessor for c, or Unknown.
func (t *Table) CoresPerMP(c Capability) Count {
	e, ok := t.entries[c]
	if !ok {
		return Unknown
	}
	return Known(e.CoresPerMP)
}

func (t *Table) Len() int { return len(t.entries) }

// DefaultEntries lists the known architectures.
var DefaultEntries = []TableEntry{
	{Capability{5, 0}, "Maxwell", 128},
	{Capability{5, 2}, "Maxwell", 128},
	{Capability{5, 3}, "Maxwell", 128},
	{Capability{6, 0}, "Pascal", 64},
	{Capability{6, 1}, "Pascal", 128},
	{Capability{6, 2}, "Pascal", 128},
	{Capability{7, 0}, "Volta", 64},
	{Capability{7, 2}, "Volta", 64},
	{Capability{7, 5}, "Turing", 64},
	{Capability{8, 0}, "Ampere", 64},
	{Capability{8, 6}, "Ampere", 128},
	{Capability{8, 7}, "Ampere", 128},
	{Capability{8, 9}, "Ada Lovelace", 128},
	{Capability{9, 0}, "Hopper", 128},
	{Capability{10, 0}, "Blackwell", 128},
}

var defaultTable = mustTable(DefaultEntries)

// DefaultTable returns the table built from DefaultEntries.
func DefaultTable() *Table { return defaultTable }

func mustTable(entries []TableEntry) *Table {
	t, err := NewTable(entries)
	if err != nil {
		panic(err)
	}
	return t
}
