package pdb

import (
	"encoding/binary"
	"fmt"

	"github.com/jtang613/gopdb/pkg/pdb/codeview"
)

const (
	streamOldDirectory = 0
	streamInfo         = 1
	streamDBI          = 3
)

// File is a parsed PDB: its Info-stream identity and DBI-located
// public/global symbol records.
type File struct {
	GUID [16]byte
	Age  uint32
	msf  *MSF
}

// Open parses buf as a PDB file.
func Open(buf []byte) (*File, error) {
	msf, err := ParseMSF(buf)
	if err != nil {
		return nil, err
	}

	info := msf.Stream(streamInfo)
	if len(info) < 28 {
		return nil, fmt.Errorf("pdb: info stream too small")
	}
	// Info stream header: Version(4) Signature(4) Age(4) GUID(16)
	age := binary.LittleEndian.Uint32(info[8:12])
	var guid [16]byte
	copy(guid[:], info[12:28])

	return &File{GUID: guid, Age: age, msf: msf}, nil
}

// BreakpadGUID returns the GUID in the byte order the PDB stores it
// (not yet formatted as a Breakpad ID; that formatting is §4.2's job,
// shared with the ELF/Mach-O paths in internal/buildid).
func (f *File) BreakpadGUID() [16]byte { return f.GUID }

// dbiHeaderSize is the fixed portion of the DBI stream header (v70).
const dbiHeaderSize = 64

// symRecordStream returns the stream index holding the concatenated
// public/global CodeView symbol records, read from the DBI header.
func (f *File) symRecordStream() (int, error) {
	dbi := f.msf.Stream(streamDBI)
	if len(dbi) < dbiHeaderSize {
		return 0, fmt.Errorf("pdb: DBI stream too small")
	}
	// offset 20: SymRecordStream (uint16)
	idx := binary.LittleEndian.Uint16(dbi[20:22])
	return int(idx), nil
}

// TextSymbols decodes every procedure (S_GPROC32/S_LPROC32) and
// public (S_PUB32) symbol in the DBI symbol record stream into the
// shared object.TextSymbol shape, matching ELF/Mach-O's Text-kind
// symbol extraction for C3.
func (f *File) TextSymbols() ([]TextSymbol, error) {
	streamIdx, err := f.symRecordStream()
	if err != nil {
		return nil, err
	}
	data := f.msf.Stream(streamIdx)
	if data == nil {
		return nil, fmt.Errorf("pdb: no symbol record stream")
	}

	records, err := codeview.ParseSymbols(data)
	if err != nil {
		return nil, fmt.Errorf("pdb: parse CodeView symbols: %w", err)
	}

	var out []TextSymbol
	for _, rec := range records {
		switch {
		case codeview.IsProcSymbol(rec.Kind):
			proc, err := codeview.ParseProcSym(rec.Data)
			if err != nil || proc.Name == "" {
				continue
			}
			out = append(out, TextSymbol{Name: proc.Name, Address: uint64(proc.Offset), Size: uint64(proc.Length)})
		case rec.Kind == codeview.S_PUB32:
			pub, err := codeview.ParsePubSym(rec.Data)
			if err != nil || pub.Name == "" {
				continue
			}
			// CV_PUBSYMFLAGS: bit 0 set means the symbol refers to a
			// function; non-function public symbols (data) are not
			// part of the Text-kind table C3 builds.
			const cvPubSymFunction = 1
			if pub.Flags&cvPubSymFunction == 0 {
				continue
			}
			out = append(out, TextSymbol{Name: pub.Name, Address: uint64(pub.Offset)})
		}
	}
	return out, nil
}

// TextSymbol mirrors object.TextSymbol; this package does not import
// internal/object, so callers (internal/dispatch) convert between the
// two.
type TextSymbol struct {
	Name    string
	Address uint64
	Size    uint64
}
