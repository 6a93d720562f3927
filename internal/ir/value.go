package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"unicode/utf8"
)

// Value is a sealed interface for property values.
// Only String, Bool, Int and TypedValue implement it.
// NO floats - numeric property values are integral (line numbers, offsets).
type Value interface {
	value() // Sealed
	// Kind names the variant ("string", "bool", "int", "ref").
	Kind() ValueKind
}

// ValueKind names a Value variant. It is also the "kind" tag of the JSON encoding.
type ValueKind string

const (
	KindString ValueKind = "string"
	KindBool   ValueKind = "bool"
	KindInt    ValueKind = "int"
	KindRef    ValueKind = "ref"
)

// String is a string property value.
type String string

func (String) value()          {}
func (String) Kind() ValueKind { return KindString }

// Bool is a boolean property value.
type Bool bool

func (Bool) value()          {}
func (Bool) Kind() ValueKind { return KindBool }

// Int is a numeric property value. Always int64, never float64.
type Int int64

func (Int) value()          {}
func (Int) Kind() ValueKind { return KindInt }

// TypedValue is a reference to another object, possibly in another document.
// The store never checks that the referenced object exists.
type TypedValue struct {
	DocumentURI string `json:"document_uri"`
	ID          string `json:"id"`
	Type        string `json:"type"`
}

func (TypedValue) value()          {}
func (TypedValue) Kind() ValueKind { return KindRef }

// Ref creates a TypedValue.
func Ref(documentURI, id, typ string) TypedValue {
	return TypedValue{DocumentURI: documentURI, ID: id, Type: typ}
}

// Key returns the object key the reference points at.
func (t TypedValue) Key() ObjectKey {
	return ObjectKey{DocumentURI: t.DocumentURI, ID: t.ID}
}

func (t TypedValue) String() string {
	return fmt.Sprintf("%s#%s(%s)", t.DocumentURI, t.ID, t.Type)
}

// Equal reports whether two values are the same variant with the same content.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}

// EqualLists compares two value lists element by element.
func EqualLists(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// FromAny converts a decoded Go value (YAML, JSON, flag input) into a Value.
// Accepts Value, string, bool, all integer kinds, and floats with an integral value.
// Maps of the form {"ref": {"document": ..., "id": ..., "type": ...}} become references
// with defaultDoc filling a missing document.
func FromAny(v any, defaultDoc string) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null values are not allowed")
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return Int(val), nil
	case float64:
		return intFromFloat(val)
	case float32:
		return intFromFloat(float64(val))
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("floats are not allowed: %s", val)
		}
		return Int(n), nil
	case map[string]any:
		return refFromMap(val, defaultDoc)
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

func intFromFloat(f float64) (Value, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("floats are not allowed: %v", f)
	}
	return Int(int64(f)), nil
}

func refFromMap(m map[string]any, defaultDoc string) (Value, error) {
	raw, ok := m["ref"]
	if !ok || len(m) != 1 {
		return nil, fmt.Errorf("object values must have the form {ref: {id, type}}")
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ref must be a mapping, got %T", raw)
	}
	ref := TypedValue{DocumentURI: defaultDoc}
	for k, fv := range fields {
		s, ok := fv.(string)
		if !ok {
			return nil, fmt.Errorf("ref.%s must be a string, got %T", k, fv)
		}
		switch k {
		case "document", "document_uri":
			ref.DocumentURI = s
		case "id":
			ref.ID = s
		case "type":
			ref.Type = s
		default:
			return nil, fmt.Errorf("unknown ref field %q", k)
		}
	}
	return ref, nil
}

// MarshalValue encodes a Value as tagged JSON with sorted keys:
//
//	{"kind":"string","value":"x"}
//	{"document_uri":"...","id":"...","kind":"ref","type":"..."}
//
// Strings are written byte for byte, without normalization, so
// UnmarshalValue returns exactly the value that was marshaled. Invalid UTF-8
// cannot be represented and is an error.
func MarshalValue(v Value) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("marshal value: nil value")
	}
	if !ValidUTF8(v) {
		return nil, fmt.Errorf("marshal value: invalid UTF-8 in %s value", v.Kind())
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(taggedValue(v)); err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ValidUTF8 reports whether every string inside v is valid UTF-8.
func ValidUTF8(v Value) bool {
	switch val := v.(type) {
	case String:
		return utf8.ValidString(string(val))
	case TypedValue:
		return utf8.ValidString(val.DocumentURI) && utf8.ValidString(val.ID) && utf8.ValidString(val.Type)
	default:
		return true
	}
}

// taggedValue returns the map form used for JSON encoding and hashing.
func taggedValue(v Value) map[string]any {
	switch val := v.(type) {
	case String:
		return map[string]any{"kind": string(KindString), "value": string(val)}
	case Bool:
		return map[string]any{"kind": string(KindBool), "value": bool(val)}
	case Int:
		return map[string]any{"kind": string(KindInt), "value": int64(val)}
	case TypedValue:
		return map[string]any{
			"kind":         string(KindRef),
			"document_uri": val.DocumentURI,
			"id":           val.ID,
			"type":         val.Type,
		}
	default:
		return nil
	}
}

// UnmarshalValue decodes the tagged JSON produced by MarshalValue.
func UnmarshalValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw struct {
		Kind        ValueKind `json:"kind"`
		Value       any       `json:"value"`
		DocumentURI string    `json:"document_uri"`
		ID          string    `json:"id"`
		Type        string    `json:"type"`
	}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}

	switch raw.Kind {
	case KindString:
		s, ok := raw.Value.(string)
		if !ok {
			return nil, fmt.Errorf("unmarshal value: string kind with %T payload", raw.Value)
		}
		return String(s), nil
	case KindBool:
		b, ok := raw.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("unmarshal value: bool kind with %T payload", raw.Value)
		}
		return Bool(b), nil
	case KindInt:
		n, ok := raw.Value.(json.Number)
		if !ok {
			return nil, fmt.Errorf("unmarshal value: int kind with %T payload", raw.Value)
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("unmarshal value: %w", err)
		}
		return Int(i), nil
	case KindRef:
		return TypedValue{DocumentURI: raw.DocumentURI, ID: raw.ID, Type: raw.Type}, nil
	default:
		return nil, fmt.Errorf("unmarshal value: unknown kind %q", raw.Kind)
	}
}

// Plain returns the value as a plain Go value for display and trace output.
// References become {"ref": {"document_uri","id","type"}} maps, which FromAny accepts back.
func Plain(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case TypedValue:
		return map[string]any{
			"ref": map[string]any{
				"document_uri": val.DocumentURI,
				"id":           val.ID,
				"type":         val.Type,
			},
		}
	default:
		return nil
	}
}

// PlainList applies Plain to every element.
func PlainList(vals []Value) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = Plain(v)
	}
	return out
}
