package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the document encoding used by Encode.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrEmptyDocument is returned when decoding blank input.
var ErrEmptyDocument = errors.New("schema: document is empty")

// Decode parses a schema from JSON or YAML. JSON is attempted first since it
// is the stricter grammar.
func Decode(data []byte) (*Schema, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyDocument
	}

	var out Schema
	if err := json.Unmarshal(data, &out); err == nil {
		return &out, nil
	}

	out = Schema{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("schema: parse: %w", err)
	}
	return &out, nil
}

// Encode serialises s in the requested format. Custom functions are dropped;
// they travel by CustomRef.
func Encode(s *Schema, format Format) ([]byte, error) {
	if s == nil {
		return nil, errors.New("schema: nil schema")
	}
	switch format {
	case FormatJSON, "":
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("schema: encode json: %w", err)
		}
		return data, nil
	case FormatYAML:
		data, err := yaml.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("schema: encode yaml: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("schema: unsupported format %q", format)
	}
}
