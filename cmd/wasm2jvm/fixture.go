package main

import (
	"encoding/json"
	"os"

	"github.com/wasm2jvm/translator/internal/wasm"
)

// loadModuleFixture reads a JSON-encoded wasm.Module from path. This
// stands in for the out-of-scope WASM binary parser/validator (spec.md
// §1): a real deployment feeds Translate a module built by decoding and
// validating an actual .wasm binary; this CLI instead takes the already-
// typed module directly, serialized as JSON, since binary decoding is
// explicitly someone else's job per spec.md §1.
func loadModuleFixture(path string) (*wasm.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var module wasm.Module
	if err := json.Unmarshal(data, &module); err != nil {
		return nil, err
	}
	return &module, nil
}
