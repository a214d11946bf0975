// Package dispatch sniffs an object file's magic bytes and routes it
// to the right symbol-table builder (C4). Detectors are registered in
// an ordered table the way the teacher's stub registry matches
// patterns to activate subsystems — here the "pattern" is a magic-byte
// sniff instead of a symbol-name substring, and "activation" builds a
// symbol table instead of installing a hook.
package dispatch

import (
	"fmt"

	"github.com/zboralski/symbolicate/internal/buildid"
	"github.com/zboralski/symbolicate/internal/object"
	"github.com/zboralski/symbolicate/internal/object/pdb"
	"github.com/zboralski/symbolicate/internal/symerr"
	"github.com/zboralski/symbolicate/internal/symtab"
)

// Kind identifies which object format a binary's magic bytes matched.
type Kind int

const (
	KindUnknown Kind = iota
	KindELF
	KindMachO
	KindMachOFat
	KindPE
)

func (k Kind) String() string {
	switch k {
	case KindELF:
		return "elf"
	case KindMachO:
		return "macho"
	case KindMachOFat:
		return "macho-fat"
	case KindPE:
		return "pe"
	default:
		return "unknown"
	}
}

// detector pairs a magic-byte sniff with the Kind it identifies.
type detector struct {
	kind  Kind
	sniff func([]byte) bool
}

var registry []detector

// Register adds a new magic-byte detector, evaluated in registration
// order by Sniff. Exported so that a host embedding this engine can
// teach it about additional container formats without modifying this
// package.
func Register(kind Kind, sniff func([]byte) bool) {
	registry = append(registry, detector{kind: kind, sniff: sniff})
}

func init() {
	Register(KindMachOFat, object.IsFatMagic) // checked before single-arch: overlapping leading bytes
	Register(KindMachO, object.IsMachOMagic)
	Register(KindELF, func(b []byte) bool {
		return len(b) >= 4 && b[0] == 0x7f && b[1] == 'E' && b[2] == 'L' && b[3] == 'F'
	})
	Register(KindPE, object.IsPEMagic)
}

// Sniff returns the first registered Kind whose detector matches buf.
func Sniff(buf []byte) (Kind, bool) {
	for _, d := range registry {
		if d.sniff(buf) {
			return d.kind, true
		}
	}
	return KindUnknown, false
}

// Result is what C4 hands back to the response assembler (C9): a
// ready compact symbol table for non-debug-linked formats, or an open
// Mach-O handle for the STAB/DWARF linkage path (C5-C7).
type Result struct {
	Kind       Kind
	BreakpadID string
	Table      *symtab.Table // set unless NeedsLinkage
	MachO      *object.MachOFile
	NeedsLinkage bool // true: Mach-O with external (N_OSO) debug info; run C5 instead of reading Table
}

// Build sniffs buf and builds its symbol table, validating
// breakpadID along the way. pdbBuf is only consulted for PE images
// (§4.4: "PE magic -> ignore the binary; use the separately-supplied
// PDB bytes"). wantInline selects the v6 behavior of routing Mach-O
// binaries through the linkage resolver instead of reading symbols
// directly.
func Build(buf, pdbBuf []byte, breakpadID string, wantInline bool) (*Result, error) {
	kind, ok := Sniff(buf)
	if !ok {
		return nil, &symerr.InvalidInput{Reason: "unrecognized object file magic"}
	}

	switch kind {
	case KindELF:
		return buildELF(buf, breakpadID)
	case KindMachO:
		return buildMachO(buf, breakpadID, wantInline)
	case KindMachOFat:
		return buildFat(buf, breakpadID, wantInline)
	case KindPE:
		return buildPE(pdbBuf, breakpadID)
	default:
		return nil, &symerr.InvalidInput{Reason: "unrecognized object file magic"}
	}
}

func buildELF(buf []byte, breakpadID string) (*Result, error) {
	f, err := object.OpenELF(buf)
	if err != nil {
		return nil, &symerr.InvalidInput{Reason: err.Error()}
	}
	defer f.Close()

	id, err := buildid.FromELF(f)
	if err != nil {
		return nil, err
	}
	if err := buildid.Validate(id, breakpadID); err != nil {
		return nil, err
	}

	syms, err := f.TextSymbols()
	if err != nil {
		return nil, &symerr.CompactSymbolTableError{Err: err}
	}
	return &Result{Kind: KindELF, BreakpadID: id, Table: buildTable(syms)}, nil
}

func buildMachO(buf []byte, breakpadID string, wantInline bool) (*Result, error) {
	f, err := object.OpenMachO(buf)
	if err != nil {
		return nil, &symerr.InvalidInput{Reason: err.Error()}
	}

	id, err := buildid.FromMachO(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := buildid.Validate(id, breakpadID); err != nil {
		f.Close()
		return nil, err
	}

	if wantInline && hasExternalDebugInfo(f) {
		return &Result{Kind: KindMachO, BreakpadID: id, MachO: f, NeedsLinkage: true}, nil
	}

	syms, err := f.TextSymbols()
	f.Close()
	if err != nil {
		return nil, &symerr.CompactSymbolTableError{Err: err}
	}
	return &Result{Kind: KindMachO, BreakpadID: id, Table: buildTable(syms)}, nil
}

// hasExternalDebugInfo reports whether any N_OSO STAB entry is
// present, meaning debug info lives in referenced .o files rather
// than (or in addition to) this binary.
func hasExternalDebugInfo(f *object.MachOFile) bool {
	for _, e := range f.STABSymbols() {
		if e.IsOSO() {
			return true
		}
	}
	return false
}

// buildFat tries each architecture slice in turn, accepting the
// first whose build-id matches. If every slice mismatches, the last
// mismatch error is surfaced; if there are no slices at all, this is
// reported as an incompatible-architecture InvalidInput per §4.4.
func buildFat(buf []byte, breakpadID string, wantInline bool) (*Result, error) {
	arches, err := object.OpenFat(buf)
	if err != nil {
		return nil, &symerr.InvalidInput{Reason: err.Error()}
	}
	if len(arches) == 0 {
		return nil, &symerr.InvalidInput{Reason: "Incompatible system architecture"}
	}

	var lastErr error
	for _, arch := range arches {
		res, err := buildMachO(arch.Data, breakpadID, wantInline)
		if err == nil {
			return res, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func buildPE(pdbBuf []byte, breakpadID string) (*Result, error) {
	if len(pdbBuf) == 0 {
		return nil, &symerr.NotFoundCandidatePath{Module: "pdb"}
	}
	f, err := pdb.Open(pdbBuf)
	if err != nil {
		return nil, &symerr.InvalidInput{Reason: fmt.Sprintf("parse PDB: %s", err)}
	}

	id := buildid.FromPDB(f)
	if err := buildid.Validate(id, breakpadID); err != nil {
		return nil, err
	}

	syms, err := f.TextSymbols()
	if err != nil {
		return nil, &symerr.CompactSymbolTableError{Err: err}
	}

	namedAddrs := make([]symtab.NamedAddr, 0, len(syms))
	for _, s := range syms {
		namedAddrs = append(namedAddrs, symtab.NamedAddr{Name: s.Name, Address: uint32(s.Address)})
	}
	return &Result{Kind: KindPE, BreakpadID: id, Table: symtab.Build(namedAddrs)}, nil
}

func buildTable(syms []object.TextSymbol) *symtab.Table {
	named := make([]symtab.NamedAddr, 0, len(syms))
	for _, s := range syms {
		named = append(named, symtab.NamedAddr{Name: s.Name, Address: uint32(s.Address)})
	}
	return symtab.Build(named)
}
