// Package jsonmap is a reference text transformer plug-in (spec §6a): it
// remaps JSON object fields according to a configured mapping, optionally
// validating each input record against a JSON Schema before mapping.
// Grounded on this repository's original GenericJSON field-mapping
// processor, adapted to the route.Transformer<string,string> ABI.
package jsonmap

import (
	"encoding/json"
	"strings"

	"github.com/c360/ingestpipe/component"
	"github.com/xeipuuv/gojsonschema"
)

// FieldMapping renames (and optionally transforms) one field.
type FieldMapping struct {
	SourceField string `json:"sourceField"`
	TargetField string `json:"targetField"`
	Transform   string `json:"transform"` // "", "copy", "uppercase", "lowercase", "trim"
}

// Config is parsed from a route descriptor's info string (the substring
// of TransformMeta after "jsonmap:"), itself a JSON document so a
// transform instance can carry an arbitrarily rich mapping.
type Config struct {
	Mappings     []FieldMapping `json:"mappings,omitempty"`
	AddFields    map[string]any `json:"addFields,omitempty"`
	RemoveFields []string       `json:"removeFields,omitempty"`
	Schema       string         `json:"schema,omitempty"` // inline JSON Schema document, optional
}

// Transformer implements route.Transformer over GenericJSON-shaped text
// records.
type Transformer struct {
	cfg          Config
	removeFields map[string]bool
	schema       *gojsonschema.Schema

	invalidCount int
}

// New is a component.TransformerFactory for type identifier "jsonmap".
func New(info string, deps component.Dependencies) (any, error) {
	return &Transformer{}, nil
}

// Initialize parses info as a Config JSON document and compiles the
// optional schema. An empty info is a valid no-op mapping.
func (t *Transformer) Initialize(info string) bool {
	if info == "" {
		return true
	}
	var cfg Config
	if err := json.Unmarshal([]byte(info), &cfg); err != nil {
		return false
	}
	t.cfg = cfg
	t.removeFields = make(map[string]bool, len(cfg.RemoveFields))
	for _, f := range cfg.RemoveFields {
		t.removeFields[f] = true
	}
	if cfg.Schema != "" {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(cfg.Schema))
		if err != nil {
			return false
		}
		t.schema = schema
	}
	return true
}

// TransformOne maps a single JSON-object text record. A record that
// fails schema validation yields "" and is counted in InvalidCount (a
// TransformerWriter forwards that empty string as the record; TransformMany
// leaves it out); a record that fails to parse as a JSON object is passed
// through unchanged.
func (t *Transformer) TransformOne(source, topic, record string) string {
	if t.schema != nil {
		if !t.validate(record) {
			t.invalidCount++
			return ""
		}
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(record), &data); err != nil {
		return record
	}

	mapped := t.applyMapping(data)
	out, err := json.Marshal(mapped)
	if err != nil {
		return record
	}
	return string(out)
}

// TransformMany maps each record in seq via TransformOne, dropping
// invalid ones rather than propagating an empty string for them.
func (t *Transformer) TransformMany(source, topic string, records []string) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		mapped := t.TransformOne(source, topic, r)
		if mapped == "" {
			continue
		}
		out = append(out, mapped)
	}
	return out
}

func (t *Transformer) validate(record string) bool {
	result, err := t.schema.Validate(gojsonschema.NewStringLoader(record))
	if err != nil {
		return false
	}
	return result.Valid()
}

func (t *Transformer) applyMapping(data map[string]any) map[string]any {
	result := make(map[string]any, len(data))
	for key, value := range data {
		if !t.removeFields[key] {
			result[key] = value
		}
	}

	for _, mapping := range t.cfg.Mappings {
		value, exists := data[mapping.SourceField]
		if !exists {
			continue
		}
		result[mapping.TargetField] = applyTransform(value, mapping.Transform)
		if mapping.SourceField != mapping.TargetField {
			delete(result, mapping.SourceField)
		}
	}

	for key, value := range t.cfg.AddFields {
		result[key] = value
	}
	return result
}

func applyTransform(value any, transform string) any {
	str, ok := value.(string)
	if !ok || transform == "" || transform == "copy" {
		return value
	}
	switch transform {
	case "uppercase":
		return strings.ToUpper(str)
	case "lowercase":
		return strings.ToLower(str)
	case "trim":
		return strings.TrimSpace(str)
	default:
		return value
	}
}

// InvalidCount reports how many records this instance has rejected for
// failing schema validation. No metric is registered from it.
func (t *Transformer) InvalidCount() int {
	return t.invalidCount
}
