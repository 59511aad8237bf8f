package indices

import (
	"encoding/json"
	"fmt"
)

// Schema is the create-index body for a kind together with its parsed field mappings.
type Schema struct {
	Kind Kind
	// Body is the JSON document sent when the index is created.
	Body   json.RawMessage
	Fields map[string]FieldDef
}

// FieldDef describes a mapped field.
type FieldDef struct {
	Type       string              `json:"type,omitempty"`
	Normalizer string              `json:"normalizer,omitempty"`
	Index      *bool               `json:"index,omitempty"`
	Enabled    *bool               `json:"enabled,omitempty"`
	Fields     map[string]FieldDef `json:"fields,omitempty"`
}

// Searchable reports whether queries can match on the field.
func (f FieldDef) Searchable() bool {
	if f.Enabled != nil && !*f.Enabled {
		return false
	}
	if f.Index != nil && !*f.Index {
		return false
	}
	return f.Type != "object"
}

// Analyzed reports whether the field is tokenized full text.
func (f FieldDef) Analyzed() bool {
	return f.Type == "text"
}

// Normalized reports whether the field value is lower-cased before indexing.
func (f FieldDef) Normalized() bool {
	return f.Normalizer != ""
}

// Lookup resolves a field or a dotted sub-field such as "name.lowercase".
func (s *Schema) Lookup(path string) (FieldDef, bool) {
	return lookupField(s.Fields, path)
}

func lookupField(fields map[string]FieldDef, path string) (FieldDef, bool) {
	if f, ok := fields[path]; ok {
		return f, true
	}
	for name, f := range fields {
		if len(path) > len(name)+1 && path[:len(name)] == name && path[len(name)] == '.' {
			if sub, ok := f.Fields[path[len(name)+1:]]; ok {
				return sub, true
			}
		}
	}
	return FieldDef{}, false
}

type mappingBody struct {
	Mappings struct {
		Properties map[string]FieldDef `json:"properties"`
	} `json:"mappings"`
}

// ParseMapping extracts the field definitions of a create-index body.
func ParseMapping(body []byte) (map[string]FieldDef, error) {
	var m mappingBody
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if len(m.Mappings.Properties) == 0 {
		return nil, fmt.Errorf("%w: no mapped properties", ErrInvalidSchema)
	}
	return m.Mappings.Properties, nil
}
