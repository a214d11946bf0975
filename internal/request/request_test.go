package request

import (
	"errors"
	"testing"

	"github.com/zboralski/symbolicate/internal/symerr"
)

func TestParseSingleJobSortsStacksByModuleIndex(t *testing.T) {
	data := []byte(`{
		"memoryMap": [["libfoo","AAAA"],["libbar","BBBB"]],
		"stacks": [[1,16],[0,32],[0,8]]
	}`)
	jobs, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d, want 1", len(jobs))
	}
	stacks := jobs[0].Stacks
	want := []Stack{{0, 32}, {0, 8}, {1, 16}}
	for i, s := range stacks {
		if s.ModuleIndex != want[i].ModuleIndex {
			t.Errorf("stacks[%d].ModuleIndex = %d, want %d", i, s.ModuleIndex, want[i].ModuleIndex)
		}
	}
}

func TestParseJobsWrapper(t *testing.T) {
	data := []byte(`{"jobs":[
		{"memoryMap":[["a","1"]],"stacks":[[0,1]]},
		{"memoryMap":[["b","2"]],"stacks":[[0,2]]}
	]}`)
	jobs, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2", len(jobs))
	}
}

func TestParseRejectsWrongStackTupleLength(t *testing.T) {
	data := []byte(`{"memoryMap":[["a","1"]],"stacks":[[0,1,2]]}`)
	if _, err := Parse(data); err == nil {
		t.Error("expected error for 3-element stack tuple")
	}
}

func TestParseRejectsWrongMemoryMapPairLength(t *testing.T) {
	data := []byte(`{"memoryMap":[["a"]],"stacks":[[0,1]]}`)
	if _, err := Parse(data); err == nil {
		t.Error("expected error for 1-element memoryMap entry")
	}
}

func TestParseRejectsOutOfBoundModuleIndex(t *testing.T) {
	data := []byte(`{"memoryMap":[["a","1"]],"stacks":[[1,0]]}`)
	_, err := Parse(data)
	if err == nil {
		t.Fatal("expected error for out-of-bound module index")
	}
	var oob *symerr.ModuleIndexOutOfBound
	if !errors.As(err, &oob) {
		t.Fatalf("error = %v, want *symerr.ModuleIndexOutOfBound", err)
	}
}

func TestParseModuleIndexEqualToLengthIsOutOfBound(t *testing.T) {
	// index == len(memoryMap) is the off-by-one boundary the fixed
	// `index < length` check must reject.
	data := []byte(`{"memoryMap":[["a","1"],["b","2"]],"stacks":[[2,0]]}`)
	if _, err := Parse(data); err == nil {
		t.Error("expected error when module index == len(memoryMap)")
	}
}

func TestParseMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestParseRejectsEmptyStacks(t *testing.T) {
	data := []byte(`{"memoryMap":[["a","1"]],"stacks":[]}`)
	_, err := Parse(data)
	if err == nil {
		t.Fatal("expected error for empty stacks")
	}
	var inv *symerr.InvalidInput
	if !errors.As(err, &inv) {
		t.Fatalf("error = %v, want *symerr.InvalidInput", err)
	}
}

func TestParseRejectsEmptyJobsWrapper(t *testing.T) {
	data := []byte(`{"jobs":[]}`)
	if _, err := Parse(data); err == nil {
		t.Error("expected error for {\"jobs\":[]} with no jobs")
	}
}

func TestParseAssignsDistinctJobIDs(t *testing.T) {
	data := []byte(`{"jobs":[
		{"memoryMap":[["a","1"]],"stacks":[[0,1]]},
		{"memoryMap":[["b","2"]],"stacks":[[0,2]]}
	]}`)
	jobs, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if jobs[0].ID == "" || jobs[1].ID == "" {
		t.Fatal("expected non-empty job IDs")
	}
	if jobs[0].ID == jobs[1].ID {
		t.Error("expected distinct job IDs")
	}
}
