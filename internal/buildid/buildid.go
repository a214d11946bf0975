// Package buildid computes and validates the canonical 33-character
// Breakpad module identifier (C2) for each supported object format.
package buildid

import (
	"fmt"
	"strings"

	"github.com/zboralski/symbolicate/internal/object"
	"github.com/zboralski/symbolicate/internal/object/pdb"
	"github.com/zboralski/symbolicate/internal/symerr"
)

const (
	uuidSize = 16
	pageSize = 4096
)

// FromELF computes the Breakpad ID of an ELF object: the build-id
// note if present, else an XOR-folded hash of the first page of
// .text. Fails with InvalidInput if neither source is available.
func FromELF(f *object.ELFFile) (string, error) {
	if id, ok := f.BuildID(); ok {
		return format(foldTo16(id), f.LittleEndian()), nil
	}

	data, ok := f.TextSectionData()
	if !ok {
		return "", &symerr.InvalidInput{Reason: "ELF build id cannot be read: no note and no .text section"}
	}

	var hash [uuidSize]byte
	n := len(data)
	if n > pageSize {
		n = pageSize
	}
	for i := 0; i < n; i++ {
		hash[i%uuidSize] ^= data[i]
	}
	return format(hash, f.LittleEndian()), nil
}

// foldTo16 truncates or zero-pads id to exactly 16 bytes, matching
// the build-id-note path (which may be shorter or longer than 16
// bytes in the wild).
func foldTo16(id []byte) [uuidSize]byte {
	var out [uuidSize]byte
	n := len(id)
	if n > uuidSize {
		n = uuidSize
	}
	copy(out[:n], id[:n])
	return out
}

// format renders a 16-byte id as the 32-hex-char + trailing-"0"
// Breakpad ID, byte-swapping the first three UUID fields for
// little-endian objects to match the Breakpad processor's big-endian
// expectation.
func format(id [uuidSize]byte, littleEndian bool) string {
	if littleEndian {
		reverse(id[0:4])
		reverse(id[4:6])
		reverse(id[6:8])
	}
	var sb strings.Builder
	for _, b := range id {
		fmt.Fprintf(&sb, "%02X", b)
	}
	sb.WriteByte('0')
	return sb.String()
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// FromMachO computes the Breakpad ID of a Mach-O object from its
// LC_UUID load command.
func FromMachO(f *object.MachOFile) (string, error) {
	id, ok := f.UUID()
	if !ok {
		return "", &symerr.InvalidInput{Reason: "Mach-O has no LC_UUID"}
	}
	// Mach-O UUIDs are already big-endian-ordered byte-for-byte per
	// Apple's convention; no endian swap is applied here (unlike ELF).
	return format(foldTo16(id), false), nil
}

// FromPDB computes the Breakpad ID of a PDB from its Info stream's
// GUID+Age: the GUID bytes, byte-swapped the same way format() swaps
// a little-endian ELF build-id (the CodeView GUID's first three
// fields are stored little-endian, same as a Windows GUID), followed
// by the age rendered as a single hex digit/number appended in place
// of the ELF/Mach-O literal "0".
func FromPDB(f *pdb.File) string {
	guid := f.BreakpadGUID()
	reverse(guid[0:4])
	reverse(guid[4:6])
	reverse(guid[6:8])
	var sb strings.Builder
	for _, b := range guid {
		fmt.Fprintf(&sb, "%02X", b)
	}
	fmt.Fprintf(&sb, "%X", f.Age)
	return sb.String()
}

// Validate compares a computed id against the id the requester
// supplied, case-sensitively, per §4.2's invariant.
func Validate(computed, requested string) error {
	if computed != requested {
		return &symerr.UnmatchedBreakpadID{Computed: computed, Requested: requested}
	}
	return nil
}
