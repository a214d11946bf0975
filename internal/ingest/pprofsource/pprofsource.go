// Package pprofsource bridges google/pprof profiles into the
// symbolication engine: unsymbolized native-code samples carry only a
// Mapping (binary file + build id) and a raw Address per Location, with
// no Function/Line attached. FromProfile extracts those into the same
// request.Job shape the RPC/CLI front ends build from JSON, and
// Annotate writes resolved results back onto the profile's Locations so
// a caller can re-emit a fully symbolized profile.
package pprofsource

import (
	"fmt"

	"github.com/google/pprof/profile"

	"github.com/zboralski/symbolicate/internal/request"
	"github.com/zboralski/symbolicate/internal/response"
)

// FromProfile converts every unsymbolized Location in p into a single
// request.Job. A Location already carrying Line info (p.Location[i].Line
// non-empty) is treated as already symbolized and skipped. The returned
// locationOrder slice maps job.Stacks[i], and therefore resp.Stacks[i]
// after response.Resolve (which preserves input order; see its doc
// comment), back to the profile.Location it came from. Unlike the
// JSON request path, this job is never run through request.Parse, so
// its stacks are left in discovery order rather than sorted by module
// index — response.Resolve tolerates that, it just dispatches a module
// more than once if its stacks aren't contiguous.
func FromProfile(p *profile.Profile) (job request.Job, locationOrder []*profile.Location, err error) {
	if p == nil {
		return request.Job{}, nil, fmt.Errorf("pprofsource: nil profile")
	}

	moduleIndex := make(map[*profile.Mapping]int)
	for _, loc := range p.Location {
		if len(loc.Line) > 0 {
			continue
		}
		if loc.Mapping == nil {
			continue
		}
		idx, ok := moduleIndex[loc.Mapping]
		if !ok {
			idx = len(job.MemoryMap)
			moduleIndex[loc.Mapping] = idx
			job.MemoryMap = append(job.MemoryMap, request.Module{
				Name: loc.Mapping.File,
				ID:   loc.Mapping.BuildID,
			})
		}

		offset := loc.Address
		if loc.Mapping.Start <= loc.Address {
			offset = loc.Address - loc.Mapping.Start + loc.Mapping.Offset
		}

		job.Stacks = append(job.Stacks, request.Stack{
			ModuleIndex:  idx,
			ModuleOffset: offset,
		})
		locationOrder = append(locationOrder, loc)
	}

	return job, locationOrder, nil
}

// Annotate writes resp's per-stack function results back onto the
// profile.Location values FromProfile extracted them from, adding a
// synthetic profile.Function entry per resolved name. nextFunctionID is
// used (and advanced) as the ID for any newly created Function, since
// pprof requires unique, caller-assigned, non-zero Function IDs.
func Annotate(p *profile.Profile, resp *response.Response, locationOrder []*profile.Location, nextFunctionID uint64) uint64 {
	if resp == nil {
		return nextFunctionID
	}
	known := make(map[string]*profile.Function, len(p.Function))
	for _, fn := range p.Function {
		known[fn.Name] = fn
	}

	for i, stack := range resp.Stacks {
		if i >= len(locationOrder) {
			break
		}
		if stack.Function == nil {
			continue
		}
		loc := locationOrder[i]

		fn, ok := known[stack.Function.Name]
		if !ok {
			nextFunctionID++
			fn = &profile.Function{
				ID:         nextFunctionID,
				Name:       stack.Function.Name,
				SystemName: stack.Function.Name,
			}
			if len(stack.Function.InlineFrames) > 0 {
				fn.Filename = stack.Function.InlineFrames[len(stack.Function.InlineFrames)-1].FilePath
			} else if stack.Function.InlineInfo != nil {
				fn.Filename = stack.Function.InlineInfo.FilePath
			}
			p.Function = append(p.Function, fn)
			known[fn.Name] = fn
		}

		line := int64(0)
		if stack.Function.InlineInfo != nil {
			line = int64(stack.Function.InlineInfo.Line)
		}
		loc.Line = append(loc.Line, profile.Line{Function: fn, Line: line})

		for _, frame := range stack.Function.InlineFrames {
			ifn, ok := known[frame.FunctionName]
			if !ok {
				nextFunctionID++
				ifn = &profile.Function{
					ID:         nextFunctionID,
					Name:       frame.FunctionName,
					SystemName: frame.FunctionName,
					Filename:   frame.FilePath,
				}
				p.Function = append(p.Function, ifn)
				known[ifn.Name] = ifn
			}
			loc.Line = append(loc.Line, profile.Line{Function: ifn, Line: int64(frame.Line)})
		}
	}

	return nextFunctionID
}
