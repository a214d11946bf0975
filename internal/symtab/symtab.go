// Package symtab builds and queries the compact symbol table (C3):
// a sorted, flat, binary-searchable (address -> name) representation
// of one module's Text-kind symbols.
package symtab

import (
	"fmt"
	"sort"

	"github.com/zboralski/symbolicate/internal/demangle"
	"github.com/zboralski/symbolicate/internal/symerr"
)

// Table is the three-parallel-array compact symbol table.
//
//   - Addr is strictly ascending, 32-bit module offsets.
//   - Index has length len(Addr)+1; Index[len(Addr)] == len(Buffer) (the
//     sentinel), so every symbol's name is Buffer[Index[i]:Index[i+1]]
//     without special-casing the last entry.
//   - Buffer is the concatenation of demangled symbol names, no
//     separators.
type Table struct {
	Addr   []uint32
	Index  []uint32
	Buffer []byte
}

// NamedAddr is one input symbol before sorting/deduplication.
type NamedAddr struct {
	Name    string
	Address uint32
}

// Build sorts and deduplicates syms by address (first occurrence
// wins on collision) and materializes the three parallel arrays.
// Names are demangled at build time, so Buffer holds display names;
// deduplication is keyed on the address, and the raw, as-emitted name
// is not kept.
func Build(syms []NamedAddr) *Table {
	byAddr := make(map[uint32]string, len(syms))
	order := make([]uint32, 0, len(syms))
	for _, s := range syms {
		if _, seen := byAddr[s.Address]; seen {
			continue
		}
		byAddr[s.Address] = s.Name
		order = append(order, s.Address)
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	t := &Table{
		Addr:  make([]uint32, len(order)),
		Index: make([]uint32, len(order)+1),
	}
	var buf []byte
	for i, addr := range order {
		t.Addr[i] = addr
		t.Index[i] = uint32(len(buf))
		buf = append(buf, []byte(demangle.Any(byAddr[addr]))...)
	}
	t.Index[len(order)] = uint32(len(buf))
	t.Buffer = buf
	return t
}

// BuildFromMap is a convenience constructor used by the round-trip
// tests and by callers that already have a name->address map (no
// duplicate addresses to resolve).
func BuildFromMap(m map[string]uint32) *Table {
	syms := make([]NamedAddr, 0, len(m))
	for name, addr := range m {
		syms = append(syms, NamedAddr{Name: name, Address: addr})
	}
	return Build(syms)
}

// Name returns the i-th symbol's name.
func (t *Table) Name(i int) string {
	return string(t.Buffer[t.Index[i]:t.Index[i+1]])
}

// Lookup finds the symbol covering query, per §4.3: binary-search
// addr for the target; on a miss, round down to the preceding entry.
// If the would-be-insert position is 0 (query precedes every known
// symbol, including the degenerate empty-table case), it fails with
// ModuleIndexOutOfBound.
func (t *Table) Lookup(query uint32) (name string, offset uint32, err error) {
	n := len(t.Addr)
	i := sort.Search(n, func(i int) bool { return t.Addr[i] > query })
	if i == 0 {
		var first, last uint32
		if n > 0 {
			first, last = t.Addr[0], t.Addr[n-1]
		}
		return "", 0, &symerr.ModuleIndexOutOfBound{
			MinIndex:    int(first),
			MaxIndex:    int(last),
			ModuleIndex: int(query),
		}
	}
	idx := i - 1
	return t.Name(idx), query - t.Addr[idx], nil
}

// FunctionOffsetHex renders a function-relative offset the way the
// response assembler emits it: "0x%x", no leading zeros, lowercase.
func FunctionOffsetHex(offset uint32) string {
	return fmt.Sprintf("0x%x", offset)
}
