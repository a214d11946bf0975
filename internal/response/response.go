// Package response assembles the symbolication response (C9): it
// partitions a job's sorted stacks into contiguous same-module runs,
// fetches and dispatches each module's bytes through C4, and resolves
// every address either directly against a compact symbol table or,
// for Mach-O binaries with external debug info, through the
// linkage-resolver pipeline (C5 -> C6 -> C7).
package response

import (
	"sort"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/zboralski/symbolicate/internal/dispatch"
	"github.com/zboralski/symbolicate/internal/inline"
	"github.com/zboralski/symbolicate/internal/log"
	"github.com/zboralski/symbolicate/internal/machoresolve"
	"github.com/zboralski/symbolicate/internal/object"
	"github.com/zboralski/symbolicate/internal/origin"
	"github.com/zboralski/symbolicate/internal/request"
	"github.com/zboralski/symbolicate/internal/symtab"
)

// Provider is the subset of the file-provider interface (C10) the
// response assembler needs: candidate filesystem locations for a
// module's binary and debug files, and a way to read them.
type Provider interface {
	CandidatePathsForBinary(module request.Module) []string
	CandidatePathsForDebugFile(module request.Module) []string
	ReadFile(path string) ([]byte, error)
}

// InlineSummary is the best-effort single file/line attached to a
// FunctionInfo alongside its full inline stack.
type InlineSummary struct {
	FilePath string
	Line     int
}

// InlineFrame mirrors inline.Frame in the response's vocabulary.
type InlineFrame struct {
	FunctionName string
	FilePath     string
	Line         int
	Column       int
}

// FunctionInfo is the resolved symbol for one stack address.
type FunctionInfo struct {
	Name         string
	Offset       uint64
	InlineInfo   *InlineSummary
	InlineFrames []InlineFrame
}

// StackResult is one resolved (or unresolved) address in the response,
// in the order of the job's Stacks (sorted by module index when the
// job came from request.Parse).
type StackResult struct {
	ModuleOffset uint64
	Module       string
	Frame        int // the original moduleIndex
	Function     *FunctionInfo
}

// Response is the full result of resolving one Job.
type Response struct {
	Stacks       []StackResult
	FoundModules map[string]bool
	Errors       map[string]string
}

// Resolve builds the Response for job, fetching module bytes from
// provider. A module failing every candidate path never aborts the
// whole response: its stacks fall back to "basic stacks" with a nil
// Function, matching §4.9/§4.10's policy that only a malformed
// request itself should be rejected outright.
//
// Runs for distinct modules are dispatched concurrently via errgroup
// (spec.md §5: implementations may add parallelism as long as the
// deterministic response ordering is preserved) — each goroutine only
// ever writes its own disjoint results[i:j] slice, with a mutex
// guarding the two shared maps.
func Resolve(job request.Job, provider Provider) *Response {
	resp := &Response{
		FoundModules: make(map[string]bool),
		Errors:       make(map[string]string),
	}
	var mu sync.Mutex

	// job.Stacks is already sorted by ModuleIndex (C8); walk it in
	// maximal runs of identical indices, one dispatch per run.
	results := make([]StackResult, len(job.Stacks))
	var g errgroup.Group
	i := 0
	for i < len(job.Stacks) {
		j := i + 1
		for j < len(job.Stacks) && job.Stacks[j].ModuleIndex == job.Stacks[i].ModuleIndex {
			j++
		}
		start, end := i, j
		g.Go(func() error {
			resolveRun(job.MemoryMap, job.Stacks[start:end], provider, resp, &mu, results[start:end])
			return nil
		})
		i = j
	}
	g.Wait()

	resp.Stacks = results
	return resp
}

func resolveRun(memoryMap []request.Module, stacks []request.Stack, provider Provider, resp *Response, mu *sync.Mutex, out []StackResult) {
	idx := stacks[0].ModuleIndex
	module := memoryMap[idx]
	key := module.Name + "/" + module.ID
	logger := log.NewNop()
	if log.L != nil {
		logger = log.L.WithCategory("response")
	}

	offsets := make([]uint64, len(stacks))
	for k, s := range stacks {
		offsets[k] = s.ModuleOffset
		out[k] = StackResult{ModuleOffset: s.ModuleOffset, Module: module.Name, Frame: idx}
	}

	result, err := buildModule(module, provider)
	if err != nil {
		mu.Lock()
		resp.FoundModules[key] = false
		resp.Errors[key] = err.Error()
		mu.Unlock()
		logger.Warn("module resolution failed", log.Module(module.Name), log.Err(err))
		return
	}

	var found bool
	if result.NeedsLinkage {
		found = resolveMachOLinkage(result, offsets, provider, logger, out)
	} else {
		found = resolveTable(result.Table, offsets, out)
	}
	mu.Lock()
	resp.FoundModules[key] = found
	mu.Unlock()
}

// buildModule tries each of module's candidate binary paths in
// order, dispatching the first one whose bytes parse and whose
// computed Breakpad ID matches. Every failed candidate's error is
// accumulated via multierr rather than overwritten, so a module whose
// every path fails for a different reason (not found, then wrong
// Breakpad ID, then unrecognized magic) reports all of it, matching
// spec.md §7's "accumulate diagnostics" policy.
func buildModule(module request.Module, provider Provider) (*dispatch.Result, error) {
	var errs error
	for _, path := range provider.CandidatePathsForBinary(module) {
		buf, err := provider.ReadFile(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		// An unrecognized magic is not skipped here: dispatch.Build
		// reports it, and that error is accumulated below.
		kind, _ := dispatch.Sniff(buf)

		var pdbBuf []byte
		if kind == dispatch.KindPE {
			pdbBuf = readFirstCandidate(provider.CandidatePathsForDebugFile(module), provider)
		}

		res, err := dispatch.Build(buf, pdbBuf, module.ID, true)
		if err == nil {
			return res, nil
		}
		errs = multierr.Append(errs, err)
	}
	if errs == nil {
		return nil, notFound(module)
	}
	return nil, errs
}

func readFirstCandidate(paths []string, provider Provider) []byte {
	for _, p := range paths {
		if buf, err := provider.ReadFile(p); err == nil {
			return buf
		}
	}
	return nil
}

func resolveTable(table *symtab.Table, offsets []uint64, out []StackResult) bool {
	found := false
	for k, off := range offsets {
		name, rel, err := table.Lookup(uint32(off))
		if err != nil {
			continue
		}
		out[k].Function = &FunctionInfo{Name: name, Offset: uint64(rel)}
		found = true
	}
	return found
}

// resolveMachOLinkage runs the full v6 pipeline for one module: C5
// partitions offsets across origin files, C6 translates each origin
// file's addresses relative to its own symbol table, and C7 resolves
// inline frames from its DWARF data. Partitions whose origin file
// can't be read are skipped with a logged diagnostic rather than
// failing the other partitions.
func resolveMachOLinkage(result *dispatch.Result, offsets []uint64, provider Provider, logger *log.Logger, out []StackResult) bool {
	defer result.MachO.Close()

	sorted := append([]uint64(nil), offsets...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	// Keyed by offset value with a slice of indices, not a single
	// index: several stacks in the same run can share an identical
	// moduleOffset, and every one of them must get the resolved
	// function, not just the last duplicate processed.
	byOffset := make(map[uint64][]int, len(offsets))
	for k, off := range offsets {
		byOffset[off] = append(byOffset[off], k)
	}

	found := false
	for _, part := range machoresolve.ResolveMachO(result.MachO, sorted) {
		if part.Origin.ThisFile {
			for _, fn := range part.Functions {
				for _, a := range fn.FoundAddresses {
					for _, k := range byOffset[a.OriginalAddress] {
						out[k].Function = &FunctionInfo{Name: fn.SymbolName, Offset: a.FunctionRelativeOffset}
						found = true
					}
				}
			}
			continue
		}

		if resolveOriginPartition(part, provider, logger, byOffset, out) {
			found = true
		}
	}
	return found
}

func resolveOriginPartition(part machoresolve.Partition, provider Provider, logger *log.Logger, byOffset map[uint64][]int, out []StackResult) bool {
	buf, err := provider.ReadFile(part.Origin.OtherFile)
	if err != nil {
		logger.Warn("origin file unreadable", log.Path(part.Origin.OtherFile), log.Err(err))
		return false
	}

	objFile, err := openOrigin(buf)
	if err != nil {
		logger.Warn("origin file unrecognized", log.Path(part.Origin.OtherFile), log.Err(err))
		return false
	}

	infos, unlinked, err := origin.Translate(part.Functions, objFile)
	if err != nil {
		logger.Warn("origin symbol translation failed", log.Path(part.Origin.OtherFile), log.Err(err))
		return false
	}

	dwarfData, err := objFile.DWARF()
	var ctx *inline.Context
	if err == nil && dwarfData != nil {
		ctx, _ = inline.NewContext(dwarfData)
	}

	found := false
	for i, info := range infos {
		indices, ok := byOffset[info.ModuleOffset]
		if !ok {
			continue
		}
		fn := &FunctionInfo{Name: info.FunctionName, Offset: info.FunctionOffset}
		if ctx != nil {
			frames, err := ctx.FindFrames(unlinked[i])
			if err != nil {
				logger.Warn("inline frame lookup failed", log.Addr(unlinked[i]), log.Err(err))
			} else if len(frames) > 0 {
				fn.InlineFrames = toResponseFrames(frames)
				summary := inline.Summarize(frames)
				fn.InlineInfo = &InlineSummary{FilePath: summary.FilePath, Line: summary.Line}
			}
		}
		for _, k := range indices {
			out[k].Function = fn
		}
		found = true
	}
	return found
}

func toResponseFrames(frames []inline.Frame) []InlineFrame {
	out := make([]InlineFrame, len(frames))
	for i, f := range frames {
		out[i] = InlineFrame{FunctionName: f.FunctionName, FilePath: f.FilePath, Line: f.Line, Column: f.Column}
	}
	return out
}

// openOrigin tries each object format a referenced .o file might be
// in; Mach-O object files are the common case for N_OSO linkage, but
// some toolchains emit ELF relocatables.
func openOrigin(buf []byte) (origin.ObjectFile, error) {
	if object.IsMachOMagic(buf) {
		return object.OpenMachO(buf)
	}
	return object.OpenELF(buf)
}

func notFound(module request.Module) error {
	return &notFoundCandidatePath{module: module.Name}
}

type notFoundCandidatePath struct{ module string }

func (e *notFoundCandidatePath) Error() string {
	return "no candidate path for module " + e.module + " could be read"
}
