// Package request parses and validates incoming symbolication
// requests (C8): a memory map plus a set of (module index, module
// offset) stack addresses, sorted to enable the contiguous
// same-module partitioning the response assembler (C9) relies on.
package request

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"

	"github.com/zboralski/symbolicate/internal/symerr"
)

// Module identifies one binary in the request's memory map: its debug
// name and the Breakpad ID the caller expects it to have.
type Module struct {
	Name string
	ID   string
}

// Stack is one (module index, module offset) address to resolve.
type Stack struct {
	ModuleIndex  int
	ModuleOffset uint64
}

// Job is one memoryMap+stacks unit of work; a request may carry
// several (the {jobs:[...]} shape). ID is a correlation id minted at
// parse time (never carried on the wire), so logs from C9's per-module
// fan-out and any downstream diagnostics can be grouped back to the
// one request that produced them.
type Job struct {
	ID        string
	MemoryMap []Module
	Stacks    []Stack
}

// rawJob/rawRequest mirror the wire JSON shapes accepted by Parse:
// either a single job's fields at the top level, or a {"jobs": [...]}
// wrapper around several. Tuples are decoded as raw element lists
// (not fixed-size Go arrays) specifically so a wrong tuple length is
// caught explicitly — json.Unmarshal into a [2]T array silently
// discards extra elements or zero-fills missing ones instead of
// erroring, which would hide exactly the malformed input §4.7 asks us
// to reject.
type rawJob struct {
	MemoryMap []json.RawMessage `json:"memoryMap"`
	Stacks    []json.RawMessage `json:"stacks"`
}

type rawRequest struct {
	rawJob
	Jobs []rawJob `json:"jobs"`
}

// Parse validates and normalizes raw request bytes into one or more
// Jobs. Every stack tuple must have exactly two elements, every
// memory-map entry must have exactly two elements, and every stack's
// module index must be within [0, len(memoryMap)) — using the fixed
// `index < length` bound rather than the off-by-one `index > length`
// check a stray implementation might reach for.
func Parse(data []byte) ([]Job, error) {
	var raw rawRequest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &symerr.InvalidInput{Reason: "malformed request JSON: " + err.Error()}
	}

	rawJobs := raw.Jobs
	if len(rawJobs) == 0 {
		rawJobs = []rawJob{raw.rawJob}
	}

	jobs := make([]Job, 0, len(rawJobs))
	for _, rj := range rawJobs {
		job, err := buildJob(rj)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func buildJob(rj rawJob) (Job, error) {
	if len(rj.Stacks) == 0 {
		return Job{}, &symerr.InvalidInput{Reason: "stacks must not be empty"}
	}

	memoryMap := make([]Module, len(rj.MemoryMap))
	for i, raw := range rj.MemoryMap {
		var pair []string
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			return Job{}, &symerr.InvalidInput{Reason: "memoryMap entry is not a 2-element [name, id] pair"}
		}
		memoryMap[i] = Module{Name: pair[0], ID: pair[1]}
	}

	stacks := make([]Stack, len(rj.Stacks))
	for i, raw := range rj.Stacks {
		var pair []json.Number
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			return Job{}, &symerr.InvalidInput{Reason: "stack entry is not a 2-element [moduleIndex, moduleOffset] tuple"}
		}
		idx, err := pair[0].Int64()
		if err != nil {
			return Job{}, &symerr.InvalidInput{Reason: "stack module index is not an integer"}
		}
		offset, err := pair[1].Int64()
		if err != nil {
			return Job{}, &symerr.InvalidInput{Reason: "stack module offset is not an integer"}
		}
		// Fixed bound check: an index equal to len(memoryMap) is
		// already out of range, not the last valid index.
		if idx < 0 || int(idx) >= len(memoryMap) {
			maxIndex := len(memoryMap) - 1
			if maxIndex < 0 {
				maxIndex = 0
			}
			return Job{}, &symerr.ModuleIndexOutOfBound{MinIndex: 0, MaxIndex: maxIndex, ModuleIndex: int(idx)}
		}
		stacks[i] = Stack{ModuleIndex: int(idx), ModuleOffset: uint64(offset)}
	}

	sort.SliceStable(stacks, func(i, j int) bool { return stacks[i].ModuleIndex < stacks[j].ModuleIndex })

	return Job{ID: uuid.NewString(), MemoryMap: memoryMap, Stacks: stacks}, nil
}
