package buildid

import "testing"

func TestFormatLittleEndianByteSwap(t *testing.T) {
	var id [16]byte
	for i := range id {
		id[i] = byte(i)
	}
	got := format(id, true)

	if len(got) != 33 {
		t.Fatalf("len(got) = %d, want 33", len(got))
	}
	if got[len(got)-1] != '0' {
		t.Errorf("expected trailing age digit '0', got %q", got[len(got)-1:])
	}
	if got[:8] != "03020100" {
		t.Errorf("field 1 not byte-swapped: got %q", got[:8])
	}
}

func TestFormatBigEndianNoSwap(t *testing.T) {
	var id [16]byte
	for i := range id {
		id[i] = byte(i)
	}
	got := format(id, false)
	if got[:8] != "00010203" {
		t.Errorf("expected unswapped field 1, got %q", got[:8])
	}
}

func TestValidateMismatch(t *testing.T) {
	if err := Validate("AAAA", "BBBB"); err == nil {
		t.Error("expected error for mismatched breakpad id")
	}
	if err := Validate("AAAA", "AAAA"); err != nil {
		t.Errorf("expected no error for matching ids, got %v", err)
	}
}

func TestFoldTo16TruncatesAndPads(t *testing.T) {
	short := foldTo16([]byte{1, 2, 3})
	if short[0] != 1 || short[1] != 2 || short[2] != 3 || short[3] != 0 {
		t.Errorf("short input not zero-padded: %v", short)
	}

	long := make([]byte, 32)
	for i := range long {
		long[i] = byte(i)
	}
	folded := foldTo16(long)
	if folded[15] != 15 {
		t.Errorf("long input not truncated correctly: %v", folded)
	}
}
