package dto

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/apimsync/apimsync/pkg/errors"
)

// validator is implemented by schemas with required fields.
type validator interface{ validate() error }

func missingProperty(path string) error {
	return errors.New(errors.ErrCodeMissingProperty, "missing required property %s", path)
}

// Normalize round-trips raw JSON through the typed schema produced by
// newDTO. Unknown fields are dropped by the deserialize step; required
// fields are enforced by the schema's validator; string values are
// re-serialised without HTML escaping so inline XML survives.
func Normalize(raw []byte, newDTO func() any) ([]byte, error) {
	if !isJSONObject(raw) {
		return nil, errors.New(errors.ErrCodeNotJSONObject, "value is not a JSON object")
	}
	v := newDTO()
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSchema, err, "deserializing DTO")
	}
	if val, ok := v.(validator); ok {
		if err := val.validate(); err != nil {
			return nil, err
		}
	}
	return Marshal(v)
}

// Marshal serialises v to compact JSON without HTML escaping.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSchema, err, "serializing DTO")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalCanonical serialises v to the stable two-space-indented form the
// extractor writes to information files, so re-extractions produce minimal
// diffs.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSchema, err, "serializing DTO")
	}
	return buf.Bytes(), nil
}

// AsObject deserialises raw into a generic JSON object.
func AsObject(raw []byte) (map[string]any, error) {
	if !isJSONObject(raw) {
		return nil, errors.New(errors.ErrCodeNotJSONObject, "value is not a JSON object")
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSchema, err, "deserializing JSON object")
	}
	return m, nil
}

func isJSONObject(raw []byte) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Merge recursively merges override into base and returns the result.
// Override wins on scalar and array conflicts; objects merge key-wise.
// Neither input map is modified.
func Merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if ov, ok := v.(map[string]any); ok {
			if bv, ok := out[k].(map[string]any); ok {
				out[k] = Merge(bv, ov)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// Properties returns the "properties" object of m, creating it when asked.
func Properties(m map[string]any, create bool) (map[string]any, bool) {
	if p, ok := m["properties"].(map[string]any); ok {
		return p, true
	}
	if !create {
		return nil, false
	}
	p := map[string]any{}
	m["properties"] = p
	return p, true
}

// StringProperty reads a string value at properties.<name>.
func StringProperty(m map[string]any, name string) (string, bool) {
	p, ok := Properties(m, false)
	if !ok {
		return "", false
	}
	s, ok := p[name].(string)
	return s, ok
}

// LastSegment returns the final "/"-separated segment of a resource id.
// Name equality across the tree and the service always compares this
// segment.
func LastSegment(id string) string {
	id = strings.TrimRight(id, "/")
	if idx := strings.LastIndexByte(id, '/'); idx >= 0 {
		return id[idx+1:]
	}
	return id
}
