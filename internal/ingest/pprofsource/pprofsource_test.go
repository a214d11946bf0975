package pprofsource

import (
	"testing"

	"github.com/google/pprof/profile"

	"github.com/zboralski/symbolicate/internal/response"
)

func TestFromProfileSkipsAlreadySymbolizedLocations(t *testing.T) {
	mapping := &profile.Mapping{ID: 1, Start: 0x1000, Limit: 0x5000, File: "libfoo.so", BuildID: "abc123"}
	p := &profile.Profile{
		Mapping: []*profile.Mapping{mapping},
		Location: []*profile.Location{
			{ID: 1, Mapping: mapping, Address: 0x1010},
			{ID: 2, Mapping: mapping, Address: 0x1020, Line: []profile.Line{{Line: 5}}},
			{ID: 3, Mapping: mapping, Address: 0x1030},
		},
	}

	job, order, err := FromProfile(p)
	if err != nil {
		t.Fatalf("FromProfile: %v", err)
	}
	if len(job.MemoryMap) != 1 {
		t.Fatalf("len(MemoryMap) = %d, want 1", len(job.MemoryMap))
	}
	if job.MemoryMap[0].Name != "libfoo.so" || job.MemoryMap[0].ID != "abc123" {
		t.Errorf("MemoryMap[0] = %+v", job.MemoryMap[0])
	}
	if len(job.Stacks) != 2 {
		t.Fatalf("len(Stacks) = %d, want 2", len(job.Stacks))
	}
	if job.Stacks[0].ModuleOffset != 0x10 || job.Stacks[1].ModuleOffset != 0x30 {
		t.Errorf("Stacks = %+v", job.Stacks)
	}
	if len(order) != 2 || order[0].ID != 1 || order[1].ID != 3 {
		t.Errorf("order = %+v", order)
	}
}

func TestAnnotateWritesResolvedFunctionsBackOntoLocations(t *testing.T) {
	mapping := &profile.Mapping{ID: 1, Start: 0x1000, File: "libfoo.so"}
	loc := &profile.Location{ID: 1, Mapping: mapping, Address: 0x1010}
	p := &profile.Profile{Mapping: []*profile.Mapping{mapping}, Location: []*profile.Location{loc}}

	resp := &response.Response{
		Stacks: []response.StackResult{
			{
				ModuleOffset: 0x10,
				Module:       "libfoo.so",
				Function: &response.FunctionInfo{
					Name:   "doWork",
					Offset: 0x10,
					InlineFrames: []response.InlineFrame{
						{FunctionName: "inlinee", FilePath: "i.c", Line: 42},
						{FunctionName: "doWork", FilePath: "c.c", Line: 10},
					},
				},
			},
		},
	}

	nextID := Annotate(p, resp, []*profile.Location{loc}, 0)
	if nextID == 0 {
		t.Fatal("expected nextID to advance")
	}
	if len(loc.Line) != 3 {
		t.Fatalf("len(loc.Line) = %d, want 3", len(loc.Line))
	}
	if loc.Line[0].Function.Name != "doWork" {
		t.Errorf("loc.Line[0] function = %q", loc.Line[0].Function.Name)
	}
	if loc.Line[1].Function.Name != "inlinee" || loc.Line[1].Line != 42 {
		t.Errorf("loc.Line[1] = %+v", loc.Line[1])
	}
	if loc.Line[2].Function.Name != "doWork" || loc.Line[2].Line != 10 {
		t.Errorf("loc.Line[2] = %+v", loc.Line[2])
	}
}

func TestAnnotateSkipsUnresolvedStacks(t *testing.T) {
	p := &profile.Profile{}
	resp := &response.Response{Stacks: []response.StackResult{{ModuleOffset: 0x10, Function: nil}}}
	nextID := Annotate(p, resp, []*profile.Location{{ID: 1}}, 5)
	if nextID != 5 {
		t.Errorf("nextID = %d, want unchanged 5", nextID)
	}
}
