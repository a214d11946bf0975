// Package inline builds inline call stacks from DWARF debug info (C7).
// No DWARF-walking/addr2line-equivalent library exists anywhere in the
// example pack, so this is a deliberately narrow hand-written reader
// built directly on debug/dwarf: it resolves one PC to its chain of
// inlined frames (innermost first) using DW_TAG_subprogram /
// DW_TAG_inlined_subroutine nesting and each compile unit's line
// program, the same primitives rhysh/go-perf's symbolizer walks by
// hand for its (non-inlined) function/line tables.
package inline

import (
	"debug/dwarf"
	"fmt"

	"github.com/zboralski/symbolicate/internal/demangle"
)

// Frame is one entry in an inline call stack, innermost first.
type Frame struct {
	FunctionName string
	FilePath     string
	Line         int
	Column       int
}

// Summary captures the first non-empty file path and line number seen
// across a frame sequence — the "best effort" single-location summary
// attached to a FunctionInfo alongside its full inline stack.
type Summary struct {
	FilePath string
	Line     int
}

// Summarize scans frames innermost-first and returns the first
// non-empty file path/line pair found, or a zero Summary if none of
// the frames carry location info.
func Summarize(frames []Frame) Summary {
	var s Summary
	for _, f := range frames {
		if s.FilePath == "" && f.FilePath != "" {
			s.FilePath = f.FilePath
		}
		if s.Line == 0 && f.Line != 0 {
			s.Line = f.Line
		}
		if s.FilePath != "" && s.Line != 0 {
			break
		}
	}
	return s
}

// node is one entry in the parsed DIE tree, kept around (rather than
// discarded after a single streaming pass) so FindFrames can descend
// into a subprogram's already-parsed children for each query.
type node struct {
	entry    *dwarf.Entry
	children []*node
}

type unit struct {
	cu      *dwarf.Entry
	root    []*node
	lines   *dwarf.LineReader
	linesOK bool
}

// Context resolves addresses against one object file's DWARF data. It
// amortizes the DIE-tree parse across every FindFrames call, matching
// the way addr2line::Context is built once per origin file and reused
// for every address queued against it (C6's output).
type Context struct {
	data  *dwarf.Data
	units []*unit
}

// NewContext parses d's compile units once. Each DW_TAG_subprogram's
// subtree (and any DW_TAG_inlined_subroutine descendants) is kept for
// later range queries.
func NewContext(d *dwarf.Data) (*Context, error) {
	c := &Context{data: d}
	r := d.Reader()
	for {
		cu, err := r.Next()
		if err != nil {
			return nil, fmt.Errorf("read compile unit: %w", err)
		}
		if cu == nil {
			break
		}
		u := &unit{cu: cu}
		if cu.Children {
			children, err := parseChildren(r)
			if err != nil {
				return nil, err
			}
			u.root = children
		}
		c.units = append(c.units, u)
	}
	return c, nil
}

func parseChildren(r *dwarf.Reader) ([]*node, error) {
	var nodes []*node
	for {
		entry, err := r.Next()
		if err != nil {
			return nil, err
		}
		if entry == nil || entry.Tag == 0 {
			return nodes, nil
		}
		n := &node{entry: entry}
		if entry.Children {
			kids, err := parseChildren(r)
			if err != nil {
				return nil, err
			}
			n.children = kids
		}
		nodes = append(nodes, n)
	}
}

// FindFrames returns the inline call stack covering addr, innermost
// first. If addr falls inside a subprogram with no matching inlined
// subroutines, the result is a single frame for that subprogram. If no
// subprogram covers addr at all, FindFrames returns (nil, nil) — the
// caller (C7's orchestrator) then reports this address without inline
// frames rather than failing the whole request.
func (c *Context) FindFrames(addr uint64) ([]Frame, error) {
	for _, u := range c.units {
		sp := findSubprogram(u.root, addr)
		if sp == nil {
			continue
		}
		lr, err := u.lineReader(c.data)
		if err != nil {
			return nil, err
		}
		return c.buildFrames(u, sp, addr, lr), nil
	}
	return nil, nil
}

func (u *unit) lineReader(d *dwarf.Data) (*dwarf.LineReader, error) {
	if u.lines != nil || u.linesOK {
		return u.lines, nil
	}
	lr, err := d.LineReader(u.cu)
	u.linesOK = true
	if err != nil {
		return nil, nil // compile unit with no line program; not fatal
	}
	u.lines = lr
	return lr, nil
}

// findSubprogram locates the deepest DW_TAG_subprogram node in nodes
// whose PC range contains addr.
func findSubprogram(nodes []*node, addr uint64) *node {
	for _, n := range nodes {
		if n.entry.Tag != dwarf.TagSubprogram {
			// Namespaces, classes and the like may hold subprograms.
			if found := findSubprogram(n.children, addr); found != nil {
				return found
			}
			continue
		}
		lo, hi, ok := pcRange(n.entry)
		if ok && lo <= addr && addr < hi {
			if deeper := findSubprogram(n.children, addr); deeper != nil {
				return deeper
			}
			return n
		}
	}
	return nil
}

// buildFrames walks from sp down through nested inlined subroutines
// containing addr, then assembles the frame list innermost first: the
// innermost frame's location comes from the line table at addr, and
// every frame above it is labeled with the enclosing inlined call's
// site (DW_AT_call_file/DW_AT_call_line), ending with the concrete
// subprogram as the outermost frame.
func (c *Context) buildFrames(u *unit, sp *node, addr uint64, lr *dwarf.LineReader) []Frame {
	chain := innermostChain(sp.children, addr)

	leafFile, leafLine, leafCol := lineAt(lr, addr)

	names := make([]string, 0, len(chain)+1)
	for _, in := range chain {
		names = append(names, c.nameOf(in.entry))
	}
	names = append(names, c.nameOf(sp.entry))

	frames := make([]Frame, 0, len(names))
	file, line, col := leafFile, leafLine, leafCol
	for i, name := range names {
		frames = append(frames, Frame{
			FunctionName: demangle.Any(name),
			FilePath:     file,
			Line:         line,
			Column:       col,
		})
		// The next frame out is labeled with the call site of the
		// inlined entry we just consumed.
		if i < len(chain) {
			file, line, col = callSite(chain[i].entry, u, lr)
		}
	}
	return frames
}

// innermostChain returns the nested DW_TAG_inlined_subroutine entries
// (outermost first) whose ranges contain addr.
func innermostChain(nodes []*node, addr uint64) []*node {
	var chain []*node
	for {
		var next *node
		for _, n := range nodes {
			if n.entry.Tag != dwarf.TagInlinedSubroutine {
				continue
			}
			lo, hi, ok := pcRange(n.entry)
			if ok && lo <= addr && addr < hi {
				next = n
				break
			}
		}
		if next == nil {
			break
		}
		chain = append(chain, next)
		nodes = next.children
	}
	return chain
}

func pcRange(entry *dwarf.Entry) (lo, hi uint64, ok bool) {
	lo, ok = entry.Val(dwarf.AttrLowpc).(uint64)
	if !ok {
		return 0, 0, false
	}
	switch h := entry.Val(dwarf.AttrHighpc).(type) {
	case uint64:
		hi = h
	case int64:
		hi = lo + uint64(h)
	default:
		return 0, 0, false
	}
	return lo, hi, true
}

// nameOf resolves entry's name, following DW_AT_abstract_origin to the
// definition DIE for DW_TAG_inlined_subroutine entries (which rarely
// carry their own DW_AT_name).
func (c *Context) nameOf(entry *dwarf.Entry) string {
	if name, ok := entry.Val(dwarf.AttrName).(string); ok {
		return name
	}
	off, ok := entry.Val(dwarf.AttrAbstractOrigin).(dwarf.Offset)
	if !ok {
		return ""
	}
	r := c.data.Reader()
	r.Seek(off)
	origin, err := r.Next()
	if err != nil || origin == nil {
		return ""
	}
	if name, ok := origin.Val(dwarf.AttrName).(string); ok {
		return name
	}
	return ""
}

// callSite extracts the call-site file/line/column recorded on an
// inlined-subroutine entry: where its call appears in the enclosing
// scope.
func callSite(entry *dwarf.Entry, u *unit, lr *dwarf.LineReader) (file string, line, col int) {
	fileIdx, _ := entry.Val(dwarf.AttrCallFile).(int64)
	line64, _ := entry.Val(dwarf.AttrCallLine).(int64)
	col64, _ := entry.Val(dwarf.AttrCallColumn).(int64)
	return fileName(lr, fileIdx), int(line64), int(col64)
}

// lineAt looks up the source file/line/column for addr in the compile
// unit's line program.
func lineAt(lr *dwarf.LineReader, addr uint64) (file string, line, col int) {
	if lr == nil {
		return "", 0, 0
	}
	var entry dwarf.LineEntry
	if err := lr.SeekPC(addr, &entry); err != nil {
		return "", 0, 0
	}
	name := ""
	if entry.File != nil {
		name = entry.File.Name
	}
	return name, entry.Line, entry.Column
}

func fileName(lr *dwarf.LineReader, idx int64) string {
	if lr == nil || idx < 0 {
		return ""
	}
	files := lr.Files()
	if int(idx) >= len(files) || files[idx] == nil {
		return ""
	}
	return files[idx].Name
}
