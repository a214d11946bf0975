package response

import (
	"encoding/json"
	"testing"
)

func TestMarshalJSONOmitsFunctionFieldsWhenUnresolved(t *testing.T) {
	r := &Response{
		Stacks: []StackResult{
			{ModuleOffset: 0x10, Module: "libfoo.so", Frame: 0},
		},
		FoundModules: map[string]bool{"libfoo.so/id": false},
		Errors:       map[string]string{"libfoo.so/id": "no candidate path"},
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	stacks := decoded["stacks"].([]interface{})
	stack0 := stacks[0].(map[string]interface{})
	if stack0["moduleOffset"] != "0x10" {
		t.Errorf("moduleOffset = %v, want 0x10", stack0["moduleOffset"])
	}
	if _, ok := stack0["function"]; ok {
		t.Error("function should be omitted when unresolved")
	}
}

func TestMarshalJSONRendersResolvedFunction(t *testing.T) {
	r := &Response{
		Stacks: []StackResult{
			{
				ModuleOffset: 0x210,
				Module:       "libfoo.so",
				Frame:        0,
				Function:     &FunctionInfo{Name: "foo", Offset: 0x10},
			},
		},
		FoundModules: map[string]bool{"libfoo.so/id": true},
		Errors:       map[string]string{},
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]interface{}
	json.Unmarshal(data, &decoded)
	stack0 := decoded["stacks"].([]interface{})[0].(map[string]interface{})
	if stack0["function"] != "foo" {
		t.Errorf("function = %v, want foo", stack0["function"])
	}
	if stack0["function_offset"] != "0x10" {
		t.Errorf("function_offset = %v, want 0x10", stack0["function_offset"])
	}
}

func TestMarshalJSONInlineInfoUsesLineNumberKey(t *testing.T) {
	r := &Response{
		Stacks: []StackResult{
			{
				ModuleOffset: 0x210,
				Module:       "libfoo.so",
				Frame:        0,
				Function: &FunctionInfo{
					Name:   "foo",
					Offset: 0x10,
					InlineInfo: &InlineSummary{
						FilePath: "foo.c",
						Line:     42,
					},
				},
			},
		},
		FoundModules: map[string]bool{"libfoo.so/id": true},
		Errors:       map[string]string{},
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]interface{}
	json.Unmarshal(data, &decoded)
	stack0 := decoded["stacks"].([]interface{})[0].(map[string]interface{})
	inlineInfo := stack0["inline_info"].(map[string]interface{})
	if inlineInfo["line_number"] != float64(42) {
		t.Errorf("inline_info.line_number = %v, want 42", inlineInfo["line_number"])
	}
	if _, ok := inlineInfo["line"]; ok {
		t.Error("inline_info should not carry a bare \"line\" key")
	}
}

func TestEncodeAllProducesOneEntryPerJob(t *testing.T) {
	r1 := &Response{FoundModules: map[string]bool{}, Errors: map[string]string{}}
	r2 := &Response{FoundModules: map[string]bool{}, Errors: map[string]string{}}
	data, err := EncodeAll([]*Response{r1, r2})
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	var decoded []interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("len(decoded) = %d, want 2", len(decoded))
	}
}
