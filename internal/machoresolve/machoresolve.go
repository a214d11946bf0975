// Package machoresolve implements the Mach-O linkage resolver (C5):
// a stateful, single-pass walk over a binary's declared-order STAB
// symbol table that partitions a sorted address list across the
// N_OSO origin files (and the binary itself) each address's owning
// function was compiled into.
package machoresolve

import (
	"sort"

	"github.com/zboralski/symbolicate/internal/object"
)

// FoundAddress is one input address resolved to its offset within
// the function that contains it.
type FoundAddress struct {
	OriginalAddress        uint64
	FunctionRelativeOffset uint64
}

// FunctionWithFoundAddresses is one function and every queried
// address that landed inside it.
type FunctionWithFoundAddresses struct {
	SymbolName     string
	FoundAddresses []FoundAddress
}

// Origin tags a group of functions with where their debug info lives:
// inside this binary (OtherFile == "") or in a referenced .o file
// (OtherFile == path).
type Origin struct {
	ThisFile  bool
	OtherFile string
}

// Partition is one (origin, functions) pair in the resolver's output.
type Partition struct {
	Origin    Origin
	Functions []FunctionWithFoundAddresses
}

// functionLocation tags where a still-open function's debug info will
// ultimately be attributed once it finishes.
type functionLocationKind int

const (
	locOutsideOriginSection functionLocationKind = iota
	locInsidePreviousOriginSection
	locInsideCurrentOriginSection
)

type functionLocation struct {
	kind           functionLocationKind
	previousOrigin *originSection // set iff kind == locInsidePreviousOriginSection
}

type originSection struct {
	fileName  string
	functions []FunctionWithFoundAddresses
}

type currentFunction struct {
	address  uint64
	name     string
	location functionLocation
}

type resolver struct {
	remaining            []uint64
	currentOriginSection *originSection
	currentFunction      *currentFunction
	results              []Partition
	outsideFile          []FunctionWithFoundAddresses
}

// ResolveMachO reads f's STAB symbol table and partitions
// sortedAddresses across its origin sections. It is the entry point
// C9 uses once C4 reports NeedsLinkage for a Mach-O module.
func ResolveMachO(f *object.MachOFile, sortedAddresses []uint64) []Partition {
	return Resolve(f.STABSymbols(), sortedAddresses)
}

// Resolve walks syms in declared order, partitioning sortedAddresses
// (which MUST already be sorted ascending) into per-origin groups.
func Resolve(syms []object.STABEntry, sortedAddresses []uint64) []Partition {
	r := &resolver{remaining: sortedAddresses}
	for _, s := range syms {
		r.processSymbol(s)
		if r.isDone() {
			break
		}
	}
	return r.finish()
}

// splitAddressesBeforeOrAt removes and returns the prefix of
// r.remaining that is <= address — the addresses belonging to the
// function that is about to finish.
func (r *resolver) splitAddressesBeforeOrAt(address uint64) []uint64 {
	idx := sort.Search(len(r.remaining), func(i int) bool { return r.remaining[i] > address })
	out := r.remaining[:idx]
	r.remaining = r.remaining[idx:]
	return out
}

func (r *resolver) enterOriginSection(fileName string) {
	r.currentOriginSection = &originSection{fileName: fileName}
}

// exitCurrentOriginSection closes the current origin section. If a
// function is still open and was attributed to "current origin
// section", it is rebound to "previous origin section" so that
// addresses assigned to it later still count toward the file that
// was open when it was declared.
func (r *resolver) exitCurrentOriginSection() {
	closed := r.currentOriginSection
	r.currentOriginSection = nil
	if closed == nil {
		return
	}
	if r.currentFunction != nil && r.currentFunction.location.kind == locInsideCurrentOriginSection {
		r.currentFunction.location = functionLocation{kind: locInsidePreviousOriginSection, previousOrigin: closed}
	}
}

// finishProcessingFunction closes out fn (if any), attaching
// assigned to it and filing the result into the right bucket.
func (r *resolver) finishProcessingFunction(fn *currentFunction, assigned []uint64) {
	if fn == nil {
		// Addresses preceding the first N_FUN/type-15 symbol are
		// dropped; they can never be attributed to a function. No
		// diagnostic is emitted for them, and they appear in no
		// partition.
		return
	}

	if len(assigned) > 0 {
		found := make([]FoundAddress, len(assigned))
		for i, a := range assigned {
			found[i] = FoundAddress{OriginalAddress: a, FunctionRelativeOffset: a - fn.address}
		}
		f := FunctionWithFoundAddresses{SymbolName: fn.name, FoundAddresses: found}

		switch fn.location.kind {
		case locOutsideOriginSection:
			r.outsideFile = append(r.outsideFile, f)
		case locInsidePreviousOriginSection:
			fn.location.previousOrigin.functions = append(fn.location.previousOrigin.functions, f)
		case locInsideCurrentOriginSection:
			r.currentOriginSection.functions = append(r.currentOriginSection.functions, f)
		}
	}

	if fn.location.kind == locInsidePreviousOriginSection {
		sec := fn.location.previousOrigin
		if len(sec.functions) > 0 {
			r.results = append(r.results, Partition{
				Origin:    Origin{OtherFile: sec.fileName},
				Functions: sec.functions,
			})
		}
	}
}

func (r *resolver) declareFunction(name string, value uint64) {
	previous := r.currentFunction
	loc := functionLocation{kind: locOutsideOriginSection}
	if r.currentOriginSection != nil {
		loc = functionLocation{kind: locInsideCurrentOriginSection}
	}
	r.currentFunction = &currentFunction{address: value, name: name, location: loc}

	assigned := r.splitAddressesBeforeOrAt(value)
	r.finishProcessingFunction(previous, assigned)
}

func (r *resolver) processSymbol(s object.STABEntry) {
	switch {
	case s.IsOSO():
		r.enterOriginSection(s.Name)
	case s.IsSOExit():
		r.exitCurrentOriginSection()
	case s.IsFunction():
		r.declareFunction(s.Name, s.Value)
	}
}

func (r *resolver) isDone() bool { return len(r.remaining) == 0 }

func (r *resolver) finish() []Partition {
	r.exitCurrentOriginSection()
	remaining := r.remaining
	r.remaining = nil
	last := r.currentFunction
	r.currentFunction = nil
	r.finishProcessingFunction(last, remaining)

	results := r.results
	if len(r.outsideFile) > 0 {
		results = append(results, Partition{Origin: Origin{ThisFile: true}, Functions: r.outsideFile})
	}
	return results
}
