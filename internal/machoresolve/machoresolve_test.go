package machoresolve

import (
	"reflect"
	"testing"

	"github.com/zboralski/symbolicate/internal/object"
)

func TestResolvePartitionsAcrossOriginAndThisFile(t *testing.T) {
	syms := []object.STABEntry{
		{Type: 0x66, Name: "a.o"},         // N_OSO
		{Type: 0x24, Name: "f", Value: 0x1000}, // N_FUN
		{Type: 0x64, Name: ""},            // N_SO exit
		{Type: 0x24, Name: "g", Value: 0x2000}, // N_FUN
	}
	addrs := []uint64{0x1008, 0x1020, 0x2004}

	got := Resolve(syms, addrs)

	want := []Partition{
		{
			Origin: Origin{OtherFile: "a.o"},
			Functions: []FunctionWithFoundAddresses{{
				SymbolName: "f",
				FoundAddresses: []FoundAddress{
					{OriginalAddress: 0x1008, FunctionRelativeOffset: 0x8},
					{OriginalAddress: 0x1020, FunctionRelativeOffset: 0x20},
				},
			}},
		},
		{
			Origin: Origin{ThisFile: true},
			Functions: []FunctionWithFoundAddresses{{
				SymbolName: "g",
				FoundAddresses: []FoundAddress{
					{OriginalAddress: 0x2004, FunctionRelativeOffset: 0x4},
				},
			}},
		},
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Resolve() = %#v, want %#v", got, want)
	}
}

func TestResolveOpenFunctionCrossingSOExitKeepsOriginAttribution(t *testing.T) {
	syms := []object.STABEntry{
		{Type: 0x66, Name: "b.o"},
		{Type: 0x24, Name: "h", Value: 0x3000},
		{Type: 0x64, Name: ""},
	}
	addrs := []uint64{0x3010, 0x3100}

	got := Resolve(syms, addrs)

	want := []Partition{{
		Origin: Origin{OtherFile: "b.o"},
		Functions: []FunctionWithFoundAddresses{{
			SymbolName: "h",
			FoundAddresses: []FoundAddress{
				{OriginalAddress: 0x3010, FunctionRelativeOffset: 0x10},
				{OriginalAddress: 0x3100, FunctionRelativeOffset: 0x100},
			},
		}},
	}}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Resolve() = %#v, want %#v", got, want)
	}
}

func TestResolveNoOSOLandsEverythingInThisFile(t *testing.T) {
	syms := []object.STABEntry{
		{Type: 0x24, Name: "f", Value: 0x1000},
		{Type: 0x24, Name: "g", Value: 0x2000},
	}
	addrs := []uint64{0x1004, 0x2008}

	got := Resolve(syms, addrs)
	if len(got) != 1 || !got[0].Origin.ThisFile {
		t.Fatalf("expected single ThisFile partition, got %#v", got)
	}
	if len(got[0].Functions) != 2 {
		t.Fatalf("expected both functions in ThisFile partition, got %#v", got[0].Functions)
	}
}

func TestResolveAddressBeforeFirstFunctionIsDropped(t *testing.T) {
	syms := []object.STABEntry{
		{Type: 0x24, Name: "f", Value: 0x1000},
	}
	addrs := []uint64{0x10, 0x1004}

	got := Resolve(syms, addrs)
	if len(got) != 1 {
		t.Fatalf("expected one partition, got %#v", got)
	}
	if len(got[0].Functions) != 1 || len(got[0].Functions[0].FoundAddresses) != 1 {
		t.Fatalf("expected only the in-range address assigned, got %#v", got[0].Functions)
	}
	if got[0].Functions[0].FoundAddresses[0].OriginalAddress != 0x1004 {
		t.Errorf("dropped address leaked into result: %#v", got[0].Functions[0].FoundAddresses)
	}
}

func TestResolveEarlyExitOnceAddressesExhausted(t *testing.T) {
	syms := []object.STABEntry{
		{Type: 0x24, Name: "f", Value: 0x1000},
		{Type: 0x24, Name: "g", Value: 0x2000},
		{Type: 0x24, Name: "h", Value: 0x3000},
	}
	addrs := []uint64{0x1004}

	got := Resolve(syms, addrs)
	if len(got) != 1 || len(got[0].Functions) != 1 {
		t.Fatalf("expected a single resolved function, got %#v", got)
	}
	// 0x1004 falls between f (0x1000) and g (0x2000); it is assigned
	// once g is declared (the split point is "<= the new function's
	// address"), attributing it to f, the function that was open.
	// The walk then has no addresses left and stops before h is ever
	// examined.
	if got[0].Functions[0].SymbolName != "f" {
		t.Errorf("expected address assigned to f, got %#v", got[0].Functions[0])
	}
}
