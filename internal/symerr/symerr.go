// Package symerr defines the typed error taxonomy shared by every
// symbolication stage. Errors wrap with fmt.Errorf("%w", ...) the same
// way the rest of this module does; there is no third-party errors
// package in the dependency stack and nothing in the example pack
// reaches for one either.
package symerr

import (
	"errors"
	"fmt"
)

// Kind identifies which branch of the error taxonomy an error belongs
// to, independent of its Go type, for logging and response-JSON
// "errors" map keys.
type Kind string

const (
	KindInvalidInput          Kind = "InvalidInputError"
	KindUnmatchedModuleIndex  Kind = "UnmatchedModuleIndex"
	KindModuleIndexOutOfBound Kind = "ModuleIndexOutOfBound"
	KindUnmatchedBreakpadID   Kind = "UnmatchedBreakpadId"
	KindCompactSymbolTable    Kind = "CompactSymbolTableError"
	KindCallback              Kind = "CallbackError"
	KindNotFoundCandidatePath Kind = "NotFoundCandidatePath"
	KindUnfoundInlineFrames   Kind = "UnfoundInlineFrames"
)

// InvalidInput reports malformed request input: bad JSON shape,
// wrong-length stack/memoryMap tuples, unparseable addresses.
type InvalidInput struct {
	Reason string
}

func (e *InvalidInput) Error() string { return fmt.Sprintf("invalid input: %s", e.Reason) }
func (e *InvalidInput) Kind() Kind     { return KindInvalidInput }

// UnmatchedModuleIndex reports a stack index referencing a module
// index beyond the number of stacks in the job.
type UnmatchedModuleIndex struct {
	Expected, Actual int
}

func (e *UnmatchedModuleIndex) Error() string {
	return fmt.Sprintf("unmatched module index: expected %d, got %d", e.Expected, e.Actual)
}
func (e *UnmatchedModuleIndex) Kind() Kind { return KindUnmatchedModuleIndex }

// ModuleIndexOutOfBound reports a module index outside [0, len(memoryMap)).
// MinIndex/MaxIndex describe the valid closed range; if the memory map
// is empty both are 0 regardless of the requested index, matching the
// degenerate "no modules at all" case.
type ModuleIndexOutOfBound struct {
	MinIndex, MaxIndex, ModuleIndex int
}

func (e *ModuleIndexOutOfBound) Error() string {
	return fmt.Sprintf("module index out of bound: min %d, max %d, got %d", e.MinIndex, e.MaxIndex, e.ModuleIndex)
}
func (e *ModuleIndexOutOfBound) Kind() Kind { return KindModuleIndexOutOfBound }

// UnmatchedBreakpadID reports a computed build id that does not match
// the id the caller supplied in the memory map.
type UnmatchedBreakpadID struct {
	Computed, Requested string
}

func (e *UnmatchedBreakpadID) Error() string {
	return fmt.Sprintf("unmatched breakpad id: computed %s, requested %s", e.Computed, e.Requested)
}
func (e *UnmatchedBreakpadID) Kind() Kind { return KindUnmatchedBreakpadID }

// CompactSymbolTableError wraps a failure while building or reading a
// CompactSymbolTable from an object file (bad header, unsupported
// architecture, truncated section).
type CompactSymbolTableError struct {
	Err error
}

func (e *CompactSymbolTableError) Error() string {
	return fmt.Sprintf("compact symbol table: %s", e.Err)
}
func (e *CompactSymbolTableError) Unwrap() error { return e.Err }
func (e *CompactSymbolTableError) Kind() Kind     { return KindCompactSymbolTable }

// CallbackError reports a failure returned by a FileProvider callback
// (ReadFile, CandidatePaths, DyldSharedCachePaths).
type CallbackError struct {
	Op  string
	Err error
}

func (e *CallbackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("callback error in %s: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("callback error in %s", e.Op)
}
func (e *CallbackError) Unwrap() error { return e.Err }
func (e *CallbackError) Kind() Kind     { return KindCallback }

// NotFoundCandidatePath reports that every candidate path offered for
// a module failed to open or parse.
type NotFoundCandidatePath struct {
	Module string
}

func (e *NotFoundCandidatePath) Error() string {
	return fmt.Sprintf("no candidate path found for %s", e.Module)
}
func (e *NotFoundCandidatePath) Kind() Kind { return KindNotFoundCandidatePath }

// UnfoundInlineFrames reports that DWARF inline context lookup for an
// origin-relative address produced no frames at all.
type UnfoundInlineFrames struct {
	Address uint64
}

func (e *UnfoundInlineFrames) Error() string {
	return fmt.Sprintf("no inline frames found for address 0x%x", e.Address)
}
func (e *UnfoundInlineFrames) Kind() Kind { return KindUnfoundInlineFrames }

// Kinded is implemented by every error type in this package, letting
// callers classify an error for logging or response "errors" maps
// without a long type switch.
type Kinded interface {
	error
	Kind() Kind
}

// KindOf returns the Kind of err if it (or something it wraps)
// implements Kinded, and ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var k Kinded
	if errors.As(err, &k) {
		return k.Kind(), true
	}
	return "", false
}
