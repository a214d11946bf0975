package response

import (
	"encoding/json"
	"fmt"
)

// wireStack is the JSON shape of one StackResult: moduleOffset is
// rendered as a "0x"-prefixed hex string (the request carries it as a
// plain JSON integer; parsing this string as hex gives that integer
// back, per invariant 2 in spec.md §8), and the function
// fields are omitted entirely rather than emitted null when the
// address could not be resolved.
type wireStack struct {
	ModuleOffset string          `json:"moduleOffset"`
	Module       string          `json:"module"`
	Frame        int             `json:"frame"`
	Function     string          `json:"function,omitempty"`
	FunctionOff  *string         `json:"function_offset,omitempty"`
	InlineInfo   *wireInlineInfo `json:"inline_info,omitempty"`
	InlineFrames []wireFrame     `json:"inline_frames,omitempty"`
}

type wireInlineInfo struct {
	FilePath string `json:"filePath,omitempty"`
	Line     int    `json:"line_number,omitempty"`
}

type wireFrame struct {
	FunctionName string `json:"functionName,omitempty"`
	FilePath     string `json:"filePath,omitempty"`
	Line         int    `json:"line,omitempty"`
	Column       int    `json:"column,omitempty"`
}

// wireResponse is one job's worth of the §6 response format.
type wireResponse struct {
	Stacks       []wireStack     `json:"stacks"`
	FoundModules map[string]bool `json:"found_modules"`
	Errors       map[string]string `json:"errors"`
}

func toWire(r *Response) wireResponse {
	w := wireResponse{
		Stacks:       make([]wireStack, len(r.Stacks)),
		FoundModules: r.FoundModules,
		Errors:       r.Errors,
	}
	for i, s := range r.Stacks {
		ws := wireStack{
			ModuleOffset: fmt.Sprintf("0x%x", s.ModuleOffset),
			Module:       s.Module,
			Frame:        s.Frame,
		}
		if s.Function != nil {
			ws.Function = s.Function.Name
			off := fmt.Sprintf("0x%x", s.Function.Offset)
			ws.FunctionOff = &off
			if s.Function.InlineInfo != nil {
				ws.InlineInfo = &wireInlineInfo{
					FilePath: s.Function.InlineInfo.FilePath,
					Line:     s.Function.InlineInfo.Line,
				}
			}
			if len(s.Function.InlineFrames) > 0 {
				ws.InlineFrames = make([]wireFrame, len(s.Function.InlineFrames))
				for j, f := range s.Function.InlineFrames {
					ws.InlineFrames[j] = wireFrame{
						FunctionName: f.FunctionName,
						FilePath:     f.FilePath,
						Line:         f.Line,
						Column:       f.Column,
					}
				}
			}
		}
		w.Stacks[i] = ws
	}
	return w
}

// MarshalJSON renders Response in the wire format described in
// spec.md §6: moduleOffset as hex string, function fields omitted
// (not null) when unresolved.
func (r *Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(r))
}

// EncodeAll renders one wire-format object per job, in job order, as
// the top-level JSON array a v5/v6 request's response body is.
func EncodeAll(responses []*Response) ([]byte, error) {
	wires := make([]wireResponse, len(responses))
	for i, r := range responses {
		wires[i] = toWire(r)
	}
	return json.Marshal(wires)
}
