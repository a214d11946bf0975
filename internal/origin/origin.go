// Package origin implements the origin-file address translator (C6):
// it takes the per-function address groups the linkage resolver (C5)
// attributed to one .o file and re-expresses each queried address as
// an offset into that .o file's own symbol table, so it can be handed
// to that file's DWARF line/inline info (C7).
package origin

import (
	"debug/dwarf"

	"github.com/zboralski/symbolicate/internal/machoresolve"
	"github.com/zboralski/symbolicate/internal/object"
)

// ObjectFile is the subset of internal/object's file types this
// package needs: anything with a symbol table and (optionally) DWARF.
// Both *object.ELFFile and *object.MachOFile satisfy it, since .o
// files referenced by N_OSO may themselves be either format depending
// on toolchain.
type ObjectFile interface {
	TextSymbols() ([]object.TextSymbol, error)
	DWARF() (*dwarf.Data, error)
}

// FunctionInfo is one resolved address: its owning function, its
// offset within that function, and the original module-relative
// address it was queried with.
type FunctionInfo struct {
	FunctionName   string
	FunctionOffset uint64
	ModuleOffset   uint64
}

// Translate resolves functions (C5's output for a single origin file)
// against objFile's own symbol table. It returns one FunctionInfo per
// queried address, and a parallel, positionally-aligned slice of
// "unlinked module offsets" — the address each FunctionInfo would
// have if read directly against objFile rather than the original
// linked binary.
//
// Entries follow objFile's symbol-table order, and within one function
// the order of its FoundAddresses; callers that zip the two slices
// together must not reorder either one independently.
func Translate(functions []machoresolve.FunctionWithFoundAddresses, objFile ObjectFile) ([]FunctionInfo, []uint64, error) {
	queued := make(map[string][]machoresolve.FoundAddress, len(functions))
	for _, fn := range functions {
		queued[fn.SymbolName] = append(queued[fn.SymbolName], fn.FoundAddresses...)
	}

	syms, err := objFile.TextSymbols()
	if err != nil {
		return nil, nil, err
	}

	var infos []FunctionInfo
	var unlinked []uint64
	for _, sym := range syms {
		addrs, ok := queued[sym.Name]
		if !ok {
			continue
		}
		for _, a := range addrs {
			infos = append(infos, FunctionInfo{
				FunctionName:   sym.Name,
				FunctionOffset: a.FunctionRelativeOffset,
				ModuleOffset:   a.OriginalAddress,
			})
			unlinked = append(unlinked, sym.Address+a.FunctionRelativeOffset)
		}
	}
	return infos, unlinked, nil
}
