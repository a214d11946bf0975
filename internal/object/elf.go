// Package object provides the thin, format-specific reading helpers
// shared by the symbol-table builder (C3) and the build-id extractor
// (C2). It wraps the standard library's debug/elf, debug/macho, and
// debug/pe packages — those parsers are treated as already-present
// external collaborators (see SPEC_FULL.md); this package adapts their
// output into the shapes the rest of the pipeline consumes.
package object

import (
	"bytes"
	"debug/dwarf"
	"debug/elf"
	"fmt"
)

// TextSymbol is one Text-kind (executable code) symbol read from an
// object file, before deduplication/sorting into a CompactSymbolTable.
type TextSymbol struct {
	Name    string
	Address uint64
	Size    uint64
}

// ELFFile wraps debug/elf.File with the operations the symbol-table
// builder and build-id extractor need.
type ELFFile struct {
	f *elf.File
}

// OpenELF parses buf as an ELF object. The returned ELFFile holds no
// reference to buf after the call returns other than what debug/elf
// itself retains internally.
func OpenELF(buf []byte) (*ELFFile, error) {
	f, err := elf.NewFile(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("parse ELF: %w", err)
	}
	return &ELFFile{f: f}, nil
}

// Close releases the underlying file.
func (e *ELFFile) Close() error { return e.f.Close() }

// LittleEndian reports the byte order the ELF header declares.
func (e *ELFFile) LittleEndian() bool {
	return e.f.ByteOrder.String() == "LittleEndian"
}

// BuildID returns the contents of the GNU build-id note
// (NT_GNU_BUILD_ID), if present in any PT_NOTE/SHT_NOTE section.
func (e *ELFFile) BuildID() ([]byte, bool) {
	for _, sec := range e.f.Sections {
		if sec.Type != elf.SHT_NOTE {
			continue
		}
		data, err := sec.Data()
		if err != nil {
			continue
		}
		if id, ok := parseGNUBuildIDNote(data); ok {
			return id, true
		}
	}
	return nil, false
}

// parseGNUBuildIDNote walks an ELF note section looking for an entry
// whose name is "GNU" and type is NT_GNU_BUILD_ID (3).
func parseGNUBuildIDNote(data []byte) ([]byte, bool) {
	const noteHeaderSize = 12 // namesz, descsz, type (uint32 each)
	for len(data) >= noteHeaderSize {
		nameSize := byteOrderUint32(data[0:4])
		descSize := byteOrderUint32(data[4:8])
		noteType := byteOrderUint32(data[8:12])

		nameEnd := noteHeaderSize + align4(nameSize)
		descEnd := nameEnd + align4(descSize)
		if uint64(descEnd) > uint64(len(data)) {
			return nil, false
		}

		name := data[noteHeaderSize : noteHeaderSize+nameSize]
		desc := data[nameEnd : nameEnd+int(descSize)]

		if noteType == 3 && bytes.Equal(bytes.TrimRight(name, "\x00"), []byte("GNU")) {
			return desc, true
		}

		data = data[descEnd:]
	}
	return nil, false
}

func align4(n uint32) int {
	return int((n + 3) &^ 3)
}

func byteOrderUint32(b []byte) uint32 {
	// ELF notes are stored in the file's native byte order; ELF on
	// every platform this engine targets is little-endian in practice
	// (x86, ARM, AArch64), matching the original implementation's
	// assumption.
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// TextSectionData returns the raw bytes of the .text section, used
// as the build-id fallback hash source when no note is present.
func (e *ELFFile) TextSectionData() ([]byte, bool) {
	sec := e.f.Section(".text")
	if sec == nil || sec.Type != elf.SHT_PROGBITS {
		return nil, false
	}
	data, err := sec.Data()
	if err != nil {
		return nil, false
	}
	return data, true
}

// TextSymbols returns every STT_FUNC symbol with a nonzero value from
// both the static and dynamic symbol tables, deduplicated by name
// (static table wins on conflict, matching object file convention of
// .symtab being authoritative when both are present).
func (e *ELFFile) TextSymbols() ([]TextSymbol, error) {
	out := make(map[string]TextSymbol)

	addFrom := func(syms []elf.Symbol) {
		for _, s := range syms {
			if elf.ST_TYPE(s.Info) != elf.STT_FUNC {
				continue
			}
			if s.Value == 0 || s.Section == elf.SHN_UNDEF {
				continue
			}
			out[s.Name] = TextSymbol{Name: s.Name, Address: s.Value, Size: s.Size}
		}
	}

	if dyn, err := e.f.DynamicSymbols(); err == nil {
		addFrom(dyn)
	}
	if syms, err := e.f.Symbols(); err == nil {
		addFrom(syms)
	} else if err != elf.ErrNoSymbols {
		return nil, fmt.Errorf("read ELF symbols: %w", err)
	}

	result := make([]TextSymbol, 0, len(out))
	for _, s := range out {
		result = append(result, s)
	}
	return result, nil
}

// DWARF returns the DWARF debug information embedded in this ELF
// file, if any.
func (e *ELFFile) DWARF() (*dwarf.Data, error) {
	return e.f.DWARF()
}
