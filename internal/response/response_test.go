package response

import (
	"errors"
	"testing"

	"github.com/zboralski/symbolicate/internal/request"
	"github.com/zboralski/symbolicate/internal/symtab"
)

type fakeProvider struct {
	binaryPaths map[string][]string
	files       map[string][]byte
}

func (p *fakeProvider) CandidatePathsForBinary(m request.Module) []string {
	return p.binaryPaths[m.Name]
}
func (p *fakeProvider) CandidatePathsForDebugFile(request.Module) []string { return nil }
func (p *fakeProvider) ReadFile(path string) ([]byte, error) {
	if buf, ok := p.files[path]; ok {
		return buf, nil
	}
	return nil, errors.New("no such file")
}

func TestResolveUnreachableModuleProducesBasicStacks(t *testing.T) {
	job := request.Job{
		MemoryMap: []request.Module{{Name: "libfoo", ID: "AAAA"}},
		Stacks:    []request.Stack{{ModuleIndex: 0, ModuleOffset: 0x10}, {ModuleIndex: 0, ModuleOffset: 0x20}},
	}
	provider := &fakeProvider{
		binaryPaths: map[string][]string{"libfoo": {"/usr/lib/libfoo.so"}},
		files:       map[string][]byte{},
	}

	resp := Resolve(job, provider)

	if len(resp.Stacks) != 2 {
		t.Fatalf("len(resp.Stacks) = %d, want 2", len(resp.Stacks))
	}
	for _, s := range resp.Stacks {
		if s.Function != nil {
			t.Errorf("expected nil Function for unreachable module, got %+v", s.Function)
		}
		if s.Module != "libfoo" || s.Frame != 0 {
			t.Errorf("basic stack fields wrong: %+v", s)
		}
	}
	if resp.FoundModules["libfoo/AAAA"] {
		t.Error("expected foundModules[libfoo/AAAA] == false")
	}
	if resp.Errors["libfoo/AAAA"] == "" {
		t.Error("expected an error recorded for the unreachable module")
	}
}

func TestResolveTableLooksUpEachOffset(t *testing.T) {
	table := symtab.Build([]symtab.NamedAddr{
		{Name: "foo", Address: 0x100},
		{Name: "bar", Address: 0x200},
	})
	out := make([]StackResult, 2)
	found := resolveTable(table, []uint64{0x110, 0x05}, out)
	if !found {
		t.Fatal("expected at least one resolved address")
	}
	if out[0].Function == nil || out[0].Function.Name != "foo" || out[0].Function.Offset != 0x10 {
		t.Errorf("out[0] = %+v", out[0].Function)
	}
	if out[1].Function != nil {
		t.Errorf("expected nil Function for address before first symbol, got %+v", out[1].Function)
	}
}

func TestResolvePreservesRequestOrderAcrossModules(t *testing.T) {
	job := request.Job{
		MemoryMap: []request.Module{{Name: "a", ID: "1"}, {Name: "b", ID: "2"}},
		Stacks: []request.Stack{
			{ModuleIndex: 0, ModuleOffset: 1},
			{ModuleIndex: 0, ModuleOffset: 2},
			{ModuleIndex: 1, ModuleOffset: 3},
		},
	}
	provider := &fakeProvider{binaryPaths: map[string][]string{}, files: map[string][]byte{}}
	resp := Resolve(job, provider)

	if len(resp.Stacks) != 3 {
		t.Fatalf("len(resp.Stacks) = %d, want 3", len(resp.Stacks))
	}
	wantOffsets := []uint64{1, 2, 3}
	for i, want := range wantOffsets {
		if resp.Stacks[i].ModuleOffset != want {
			t.Errorf("resp.Stacks[%d].ModuleOffset = %#x, want %#x", i, resp.Stacks[i].ModuleOffset, want)
		}
	}
}
