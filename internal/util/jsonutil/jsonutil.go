package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// MarshalNoEscape encodes v into JSON without escaping <, >, & into <, etc.
// Generated component code is full of these characters.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline from json.Encoder.Encode
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalNoEscapeIndent is MarshalNoEscape with indentation.
func MarshalNoEscapeIndent(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Canonical returns a byte-stable JSON encoding of v: every object's keys are
// emitted in sorted order, arrays keep their order, no HTML escaping and no
// insignificant whitespace. Struct field order does not leak into the output.
func Canonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	// encoding/json sorts map keys on encode.
	return MarshalNoEscape(generic)
}

// UnescapeUnicodeString converts JSON unicode escapes like ">" into actual characters.
func UnescapeUnicodeString(s string) (string, error) {
	esc := strings.ReplaceAll(s, `\`, `\\`)
	esc = strings.ReplaceAll(esc, `"`, `\"`)
	var out string
	if err := json.Unmarshal([]byte(`"`+esc+`"`), &out); err != nil {
		return "", err
	}
	return out, nil
}

// NormalizeJSONUnicode parses JSON bytes, also accepting a payload that was
// JSON-encoded as a string up to twice, and unescapes leftover unicode
// sequences inside string values.
func NormalizeJSONUnicode(raw []byte) ([]byte, error) {
	anyVal, err := decodeLayered(raw, 3)
	if err != nil {
		return nil, err
	}
	return MarshalNoEscape(deepUnescape(anyVal))
}

func decodeLayered(raw []byte, layers int) (any, error) {
	for i := 0; i < layers; i++ {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, errors.New("jsonutil: cannot parse JSON payload")
		}
		s, ok := v.(string)
		if !ok {
			return v, nil
		}
		raw = []byte(s)
	}
	return nil, errors.New("jsonutil: payload is a JSON string, not a document")
}

// UnmarshalFlex tries a direct unmarshal first and falls back to
// NormalizeJSONUnicode. Model output is often double-encoded.
func UnmarshalFlex(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	norm, err := NormalizeJSONUnicode(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(norm, v)
}

// ExtractObject returns the outermost {...} span of s, or "" when there is
// none. Used on chatty model output that wraps JSON in prose.
func ExtractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func deepUnescape(v any) any {
	switch x := v.(type) {
	case string:
		if s, err := UnescapeUnicodeString(x); err == nil {
			return s
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = deepUnescape(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = deepUnescape(vv)
		}
		return out
	default:
		return v
	}
}
