package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dop251/goja"

	"github.com/zboralski/symbolicate/internal/response"
)

// runScript is the CLI's manual-QA harness: it loads a small goja
// program and hands it the just-resolved responses as a plain JS
// value (the same shape response.EncodeAll would have serialized),
// then evaluates the script's final expression as a pass/fail
// assertion. This is deliberately confined to the CLI — the
// host-language binding layer spec.md §1 calls out as out of scope
// for the resolution core itself, never imported by internal/request
// or internal/response.
func runScript(scriptPath string, responses []*response.Response) error {
	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	body, err := response.EncodeAll(responses)
	if err != nil {
		return fmt.Errorf("encode responses for script: %w", err)
	}
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("decode responses for script: %w", err)
	}

	vm := goja.New()
	if err := vm.Set("responses", decoded); err != nil {
		return fmt.Errorf("bind responses into script vm: %w", err)
	}

	result, err := vm.RunString(string(src))
	if err != nil {
		return fmt.Errorf("script error: %w", err)
	}

	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		return nil
	}
	if !result.ToBoolean() {
		return fmt.Errorf("script assertion failed: %s", scriptPath)
	}
	return nil
}
