package areas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	errSchema      error
)

// areaFileSchema describes an area configuration document: a JSON array of
// area objects
func areaFileSchema() map[string]any {
	typeNames := make([]any, 0, len(knownTypes))
	for _, t := range Types() {
		typeNames = append(typeNames, string(t))
	}

	nonNegative := map[string]any{"type": "number", "minimum": 0}
	region := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"x", "y", "width", "height"},
		"properties": map[string]any{
			"x":      map[string]any{"type": "number"},
			"y":      map[string]any{"type": "number"},
			"width":  nonNegative,
			"height": nonNegative,
		},
	}

	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []any{"name"},
			"properties": map[string]any{
				"id":        map[string]any{"type": "string"},
				"name":      map[string]any{"type": "string", "minLength": 1},
				"order":     map[string]any{"type": "integer"},
				"type":      map[string]any{"type": "string", "enum": typeNames},
				"region":    map[string]any{"oneOf": []any{region, map[string]any{"type": "null"}}},
				"mandatory": map[string]any{"type": "boolean"},
				"merge":     map[string]any{"type": "boolean"},
				"ocr":       map[string]any{"type": "boolean"},
				"selected":  map[string]any{"type": "boolean"},
			},
		},
	}
}

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(areaFileSchema())
		if err != nil {
			errSchema = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("areas.json", bytes.NewReader(b)); err != nil {
			errSchema = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, errSchema = compiler.Compile("areas.json")
	})
	return compiledSchema, errSchema
}

// ParseJSON decodes and validates an area configuration document. Areas
// without an explicit order keep their position in the document.
func ParseJSON(data []byte) ([]Area, error) {
	s, err := schema()
	if err != nil {
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid area JSON: %w", err)
	}
	if err := s.Validate(raw); err != nil {
		return nil, fmt.Errorf("area JSON does not match schema: %w", err)
	}

	var list []Area
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode areas: %w", err)
	}

	set, err := NewSet()
	if err != nil {
		return nil, err
	}
	for i, a := range list {
		if a.Order == 0 {
			a.Order = i + 1
		}
		if _, err := set.Add(a); err != nil {
			return nil, fmt.Errorf("area %d: %w", i+1, err)
		}
	}

	return set.List(), nil
}

// LoadFile reads an area configuration document from disk
func LoadFile(path string) ([]Area, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read area file: %w", err)
	}
	return ParseJSON(data)
}
