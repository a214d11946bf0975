package object

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"fmt"
)

// PEFile wraps debug/pe.File, used only to sniff the magic and to
// read the PE debug directory's CodeView record — the binary itself
// carries no text symbols the engine reads (§4.4: PE dispatch ignores
// the binary and symbolizes entirely against the separately supplied
// PDB, see internal/object/pdb).
type PEFile struct {
	f *pe.File
}

// OpenPE parses buf as a PE image.
func OpenPE(buf []byte) (*PEFile, error) {
	f, err := pe.NewFile(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("parse PE: %w", err)
	}
	return &PEFile{f: f}, nil
}

func (p *PEFile) Close() error { return p.f.Close() }

// IsPEMagic reports whether buf begins with the MZ/DOS header PE
// images carry.
func IsPEMagic(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 'M' && buf[1] == 'Z'
}

const imageDebugTypeCodeview = 2

// CodeViewGUIDAge reads the RSDS CodeView debug directory entry
// embedded in the PE image, returning the PDB's GUID and age as
// recorded at link time. Returns ok=false if no such entry exists
// (stripped binaries, or binaries that only ship a separate PDB).
func (p *PEFile) CodeViewGUIDAge() (guid [16]byte, age uint32, ok bool) {
	debugDir, err := p.debugDirectoryData()
	if err != nil {
		return guid, age, false
	}

	const entrySize = 28
	for off := 0; off+entrySize <= len(debugDir); off += entrySize {
		entry := debugDir[off : off+entrySize]
		typ := binary.LittleEndian.Uint32(entry[12:16])
		if typ != imageDebugTypeCodeview {
			continue
		}
		dataSize := binary.LittleEndian.Uint32(entry[16:20])
		pointerToRawData := binary.LittleEndian.Uint32(entry[24:28])

		raw, err := p.readAtFileOffset(pointerToRawData, dataSize)
		if err != nil || len(raw) < 24 || string(raw[0:4]) != "RSDS" {
			continue
		}
		copy(guid[:], raw[4:20])
		age = binary.LittleEndian.Uint32(raw[20:24])
		return guid, age, true
	}
	return guid, age, false
}

// debugDirectoryData locates and returns the raw bytes of the image's
// IMAGE_DIRECTORY_ENTRY_DEBUG data directory.
func (p *PEFile) debugDirectoryData() ([]byte, error) {
	const debugDirectoryIndex = 6

	var rva, size uint32
	switch oh := p.f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		if debugDirectoryIndex >= len(oh.DataDirectory) {
			return nil, fmt.Errorf("no debug directory")
		}
		rva = oh.DataDirectory[debugDirectoryIndex].VirtualAddress
		size = oh.DataDirectory[debugDirectoryIndex].Size
	case *pe.OptionalHeader64:
		if debugDirectoryIndex >= len(oh.DataDirectory) {
			return nil, fmt.Errorf("no debug directory")
		}
		rva = oh.DataDirectory[debugDirectoryIndex].VirtualAddress
		size = oh.DataDirectory[debugDirectoryIndex].Size
	default:
		return nil, fmt.Errorf("unknown optional header type")
	}
	if rva == 0 || size == 0 {
		return nil, fmt.Errorf("empty debug directory")
	}

	return p.readAtRVA(rva, size)
}

func (p *PEFile) readAtRVA(rva, size uint32) ([]byte, error) {
	for _, sec := range p.f.Sections {
		if rva >= sec.VirtualAddress && rva < sec.VirtualAddress+sec.Size {
			data, err := sec.Data()
			if err != nil {
				return nil, err
			}
			start := rva - sec.VirtualAddress
			end := start + size
			if uint64(end) > uint64(len(data)) {
				return nil, fmt.Errorf("debug directory extends past section")
			}
			return data[start:end], nil
		}
	}
	return nil, fmt.Errorf("rva %#x not in any section", rva)
}

func (p *PEFile) readAtFileOffset(off, size uint32) ([]byte, error) {
	for _, sec := range p.f.Sections {
		if off >= sec.Offset && off < sec.Offset+sec.Size {
			data, err := sec.Data()
			if err != nil {
				return nil, err
			}
			start := off - sec.Offset
			end := start + size
			if uint64(end) > uint64(len(data)) {
				return nil, fmt.Errorf("debug record extends past section")
			}
			return data[start:end], nil
		}
	}
	return nil, fmt.Errorf("file offset %#x not in any section", off)
}
