package object

import (
	"bytes"
	"debug/dwarf"
	"debug/macho"
	"fmt"
)

// MachOFile wraps debug/macho.File.
type MachOFile struct {
	f *macho.File
}

// OpenMachO parses buf as a single-architecture Mach-O object.
func OpenMachO(buf []byte) (*MachOFile, error) {
	f, err := macho.NewFile(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("parse Mach-O: %w", err)
	}
	return &MachOFile{f: f}, nil
}

func (m *MachOFile) Close() error { return m.f.Close() }

// UUID returns the bytes of the LC_UUID load command, if present.
func (m *MachOFile) UUID() ([]byte, bool) {
	for _, l := range m.f.Loads {
		raw := l.Raw()
		if len(raw) < 8 {
			continue
		}
		cmd := m.f.ByteOrder.Uint32(raw[0:4])
		const loadCmdUUID = 0x1b // LC_UUID
		if uint32(cmd) == loadCmdUUID && len(raw) >= 24 {
			id := make([]byte, 16)
			copy(id, raw[8:24])
			return id, true
		}
	}
	return nil, false
}

// DWARF returns DWARF debug info embedded in this Mach-O file, if any
// (__DWARF segment sections).
func (m *MachOFile) DWARF() (*dwarf.Data, error) {
	return m.f.DWARF()
}

// TextSymbols returns N_FUN-declared functions and ordinary external
// text symbols with nonzero addresses, the Mach-O analogue of
// object.ELFFile.TextSymbols for the non-debug-linked (v5) path.
func (m *MachOFile) TextSymbols() ([]TextSymbol, error) {
	var out []TextSymbol
	for _, sym := range m.f.Symtab.Syms {
		if sym.Value == 0 || sym.Name == "" {
			continue
		}
		// N_STAB bit set marks debugger symbols (N_FUN, N_OSO, N_SO, ...)
		// handled separately by the linkage resolver; skip them here.
		const nStab = 0xe0
		if sym.Type&nStab != 0 {
			continue
		}
		out = append(out, TextSymbol{Name: sym.Name, Address: sym.Value})
	}
	return out, nil
}

// STABEntry is one raw symbol-table entry relevant to the Mach-O
// linkage resolver (C5): N_OSO, N_SO, N_FUN, and the internal "type
// 15" function entries.
type STABEntry struct {
	Type  uint8
	Name  string
	Value uint64
}

const (
	nOSO    = 0x66 // N_OSO: object file name
	nSO     = 0x64 // N_SO: source file name
	nFUN    = 0x24 // N_FUN: function name/address
	nType15 = 0x0f // internal STAB type 15, also treated as a function boundary
)

// STABSymbols returns the full declared-order STAB symbol table
// needed by the linkage resolver, unfiltered and unsorted.
func (m *MachOFile) STABSymbols() []STABEntry {
	out := make([]STABEntry, 0, len(m.f.Symtab.Syms))
	for _, sym := range m.f.Symtab.Syms {
		out = append(out, STABEntry{Type: sym.Type, Name: sym.Name, Value: sym.Value})
	}
	return out
}

// IsOSO reports whether e is a non-empty-name N_OSO entry.
func (e STABEntry) IsOSO() bool { return e.Type == nOSO && e.Name != "" }

// IsSOExit reports whether e is an empty-name N_SO entry (origin
// section boundary exit).
func (e STABEntry) IsSOExit() bool { return e.Type == nSO && e.Name == "" }

// IsFunction reports whether e declares a new function: N_FUN with a
// non-empty name, or the internal type-15 encoding also used for
// function boundaries by some toolchains.
func (e STABEntry) IsFunction() bool {
	if e.Name == "" {
		return false
	}
	return e.Type == nFUN || e.Type == nType15
}

// FatArch is one architecture slice of a fat/universal Mach-O binary.
type FatArch struct {
	CPU    macho.Cpu
	Offset uint32
	Size   uint32
	Data   []byte
}

// OpenFat parses buf as a fat Mach-O binary and returns each
// architecture's raw slice bytes.
func OpenFat(buf []byte) ([]FatArch, error) {
	ff, err := macho.NewFatFile(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("parse fat Mach-O: %w", err)
	}
	defer ff.Close()

	out := make([]FatArch, 0, len(ff.Arches))
	for _, a := range ff.Arches {
		end := uint64(a.Offset) + uint64(a.Size)
		if end > uint64(len(buf)) {
			continue
		}
		out = append(out, FatArch{
			CPU:    a.Cpu,
			Offset: a.Offset,
			Size:   a.Size,
			Data:   buf[a.Offset:end],
		})
	}
	return out, nil
}

// IsFatMagic reports whether buf begins with a fat Mach-O magic
// number (big- or little-endian, 32- or 64-bit arch list).
func IsFatMagic(buf []byte) bool {
	if len(buf) < 4 {
		return false
	}
	magic := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	switch magic {
	case macho.MagicFat, 0xbebafeca, 0xcafebabf, 0xbfbafeca:
		return true
	}
	return false
}

// IsMachOMagic reports whether buf begins with a single-architecture
// Mach-O magic number, any endianness/bitness.
func IsMachOMagic(buf []byte) bool {
	if len(buf) < 4 {
		return false
	}
	be := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	le := uint32(buf[3])<<24 | uint32(buf[2])<<16 | uint32(buf[1])<<8 | uint32(buf[0])
	for _, m := range []uint32{macho.Magic32, macho.Magic64} {
		if be == m || le == m {
			return true
		}
	}
	return false
}
