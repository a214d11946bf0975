// Package diag provides structured diagnostic events for the
// symbolication pipeline, adapted from the trace-event/tag/annotation
// shape the teacher used to narrate emulator execution: here the
// events being annotated are resolution outcomes (dispatch, fallback,
// linkage) rather than instruction hooks.
package diag

import "time"

// Tag categorizes a diagnostic event. Stored without a "#" prefix;
// the prefix is added only when rendering for display.
type Tag string

const (
	Dispatch           Tag = "dispatch"
	CompactLookup      Tag = "compact-lookup"
	Linkage            Tag = "linkage"
	OriginRead         Tag = "origin-read"
	InlineLookup       Tag = "inline-lookup"
	BreakpadMismatch   Tag = "breakpad-mismatch"
	BasicStackFallback Tag = "basic-stack-fallback"
	CandidateExhausted Tag = "candidate-exhausted"
)

// Tags is a collection of Tag with helper methods, mirroring the
// trace package's Tags.
type Tags []Tag

func (t Tags) Has(tag Tag) bool {
	for _, x := range t {
		if x == tag {
			return true
		}
	}
	return false
}

func (t *Tags) Add(tag Tag) {
	if !t.Has(tag) {
		*t = append(*t, tag)
	}
}

func (t Tags) Strings() []string {
	out := make([]string, len(t))
	for i, tag := range t {
		out[i] = "#" + string(tag)
	}
	return out
}

func (t Tags) Primary() Tag {
	if len(t) > 0 {
		return t[0]
	}
	return ""
}

// Annotations holds key-value metadata for a diagnostic event (e.g.
// module name, candidate path, address).
type Annotations map[string]string

func (a Annotations) Set(k, v string) { a[k] = v }
func (a Annotations) Get(k string) string { return a[k] }
func (a Annotations) Has(k string) bool { _, ok := a[k]; return ok }

// Event is one diagnostic occurrence during resolution of a single
// request: which module/address it concerns, what kind of outcome it
// represents, and any extra context.
type Event struct {
	Module      string
	Address     uint64
	Tags        Tags
	Detail      string
	Annotations Annotations
	Timestamp   time.Time
}

// NewEvent creates a diagnostic event tagged with category.
func NewEvent(module string, address uint64, category Tag, detail string) *Event {
	return &Event{
		Module:      module,
		Address:     address,
		Tags:        Tags{category},
		Detail:      detail,
		Annotations: make(Annotations),
		Timestamp:   time.Now(),
	}
}

func (e *Event) AddTag(tag Tag) { e.Tags.Add(tag) }

func (e *Event) Annotate(k, v string) {
	if e.Annotations == nil {
		e.Annotations = make(Annotations)
	}
	e.Annotations.Set(k, v)
}

func (e *Event) PrimaryTag() string {
	if len(e.Tags) > 0 {
		return "#" + string(e.Tags[0])
	}
	return ""
}

// Enricher adds further tags/annotations to an event based on its
// category and detail, the way the teacher's DefaultEnricher derives
// extra hashtags from a stub call's category and name.
type Enricher func(e *Event)

// DefaultEnricher tags events with the severity class a diagnostics
// sink (log line, UI badge) would want to filter on.
func DefaultEnricher(e *Event) {
	if len(e.Tags) == 0 {
		return
	}
	switch e.Tags[0] {
	case BreakpadMismatch, CandidateExhausted:
		e.AddTag(BasicStackFallback)
	case InlineLookup:
		if e.Detail != "" {
			e.Annotate("reason", e.Detail)
		}
	}
}
