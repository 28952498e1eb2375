package validation

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

var resolvedCache sync.Map // canonical schema JSON -> *jsonschema.Resolved

// checkJSONSchema validates value against a JSON Schema document held as
// plain data. Values are normalised through encoding/json first so integers
// decoded from YAML compare like JSON numbers.
func checkJSONSchema(doc map[string]any, value any) error {
	resolved, err := resolve(doc)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	return resolved.Validate(instance)
}

func resolve(doc map[string]any) (*jsonschema.Resolved, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	key := string(raw)
	if cached, ok := resolvedCache.Load(key); ok {
		return cached.(*jsonschema.Resolved), nil
	}

	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	resolved, err := s.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}
	resolvedCache.Store(key, resolved)
	return resolved, nil
}

// CheckSchema reports whether doc is a usable JSON Schema.
func CheckSchema(doc map[string]any) error {
	_, err := resolve(doc)
	return err
}
