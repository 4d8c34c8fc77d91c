package schema

import (
	"encoding/json"
	"fmt"
	"os"
)

// FieldType is the closed set of list field types the reconciler can
// provision. Unknown types are rejected when the schema document is parsed.
type FieldType string

const (
	FieldText     FieldType = "Text"
	FieldDateTime FieldType = "DateTime"
	FieldChoice   FieldType = "Choice"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldDateTime, FieldChoice:
		return true
	}
	return false
}

func (t *FieldType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ft := FieldType(s)
	if !ft.Valid() {
		return fmt.Errorf("unknown field type %q", s)
	}
	*t = ft
	return nil
}

// FieldSpec is one desired field on the list. Choices is only meaningful for
// Choice fields.
type FieldSpec struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Choices  []string  `json:"choices,omitempty"`
}

// Schema is the desired state of a single list, loaded once per run and
// immutable afterwards. Fields keep their declaration order.
type Schema struct {
	ListName string      `json:"ListName"`
	Fields   []FieldSpec `json:"Fields"`
}

// Load reads and validates a schema document. A missing or malformed file is
// fatal to the run.
func Load(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema file: %w", err)
	}
	defer f.Close()

	var s Schema
	decoder := json.NewDecoder(f)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse schema file %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validate schema file %s: %w", path, err)
	}
	return &s, nil
}

// Validate enforces the schema invariants: field names unique and non-empty,
// choices present exactly when the type is Choice.
func (s *Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema has no fields")
	}

	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d has empty name", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field name %q", f.Name)
		}
		seen[f.Name] = true

		if !f.Type.Valid() {
			return fmt.Errorf("field %q has unknown type %q", f.Name, f.Type)
		}
		if f.Type == FieldChoice && len(f.Choices) == 0 {
			return fmt.Errorf("choice field %q has no choices", f.Name)
		}
		if f.Type != FieldChoice && len(f.Choices) > 0 {
			return fmt.Errorf("field %q has choices but type %s", f.Name, f.Type)
		}
	}
	return nil
}
