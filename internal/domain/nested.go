package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NestedKind tells how a nested catalog field was decoded at ingestion.
type NestedKind int

const (
	// NestedMissing means the field was absent, empty, or JSON null.
	NestedMissing NestedKind = iota
	// NestedParsed means Value holds the decoded field.
	NestedParsed
	// NestedRaw means the field was present but malformed; Raw keeps the original text.
	NestedRaw
)

// Nested is a catalog field that upstream stores may deliver either as structured
// JSON or as JSON encoded inside a string. It is decoded once, at the boundary.
type Nested[T any] struct {
	Kind  NestedKind
	Value T
	Raw   string
}

// Parsed wraps an already decoded value.
func Parsed[T any](v T) Nested[T] {
	return Nested[T]{Kind: NestedParsed, Value: v}
}

// ParseNested decodes s as JSON into T. A JSON string containing JSON is unwrapped once.
// Malformed input is kept verbatim as NestedRaw.
func ParseNested[T any](s string) Nested[T] {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return Nested[T]{}
	}

	var v T
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return Nested[T]{Kind: NestedParsed, Value: v}
	}

	var inner string
	if err := json.Unmarshal([]byte(s), &inner); err == nil {
		if n := ParseNested[T](inner); n.Kind != NestedMissing {
			return n
		}
	}

	return Nested[T]{Kind: NestedRaw, Raw: s}
}

// IsParsed reports whether Value is usable.
func (n Nested[T]) IsParsed() bool { return n.Kind == NestedParsed }

// Encode returns the JSON representation written to flat stores; empty for missing fields.
func (n Nested[T]) Encode() string {
	switch n.Kind {
	case NestedParsed:
		data, err := json.Marshal(n.Value)
		if err != nil {
			return ""
		}
		return string(data)
	case NestedRaw:
		return n.Raw
	default:
		return ""
	}
}

// MarshalJSON emits the parsed value, the raw text as a string, or null.
func (n Nested[T]) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case NestedParsed:
		return json.Marshal(n.Value)
	case NestedRaw:
		return json.Marshal(n.Raw)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts structured JSON, JSON-in-string, or null.
func (n *Nested[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = Nested[T]{Kind: NestedRaw, Raw: string(data)}
			return nil
		}
		*n = ParseNested[T](s)
		if n.Kind == NestedRaw {
			n.Raw = s
		}
		return nil
	}
	*n = ParseNested[T](string(data))
	return nil
}
