package inline

import "testing"

func TestSummarizePicksFirstNonEmpty(t *testing.T) {
	frames := []Frame{
		{FunctionName: "inlinee", FilePath: "i.c", Line: 42},
		{FunctionName: "caller", FilePath: "c.c", Line: 10},
	}
	s := Summarize(frames)
	if s.FilePath != "i.c" || s.Line != 42 {
		t.Errorf("Summarize() = %+v, want {i.c 42}", s)
	}
}

func TestSummarizeSkipsEmptyLeadingFrames(t *testing.T) {
	frames := []Frame{
		{FunctionName: "unknown"},
		{FunctionName: "caller", FilePath: "c.c", Line: 10},
	}
	s := Summarize(frames)
	if s.FilePath != "c.c" || s.Line != 10 {
		t.Errorf("Summarize() = %+v, want {c.c 10}", s)
	}
}

func TestSummarizeAllEmptyYieldsZeroValue(t *testing.T) {
	s := Summarize(nil)
	if s.FilePath != "" || s.Line != 0 {
		t.Errorf("Summarize(nil) = %+v, want zero value", s)
	}
}
