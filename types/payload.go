package types

import "maps"

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindKeyword represents a string value.
	KindKeyword
	// KindInteger represents an integer value.
	KindInteger
	// KindFloat represents a float value.
	KindFloat
	// KindBool represents a boolean value.
	KindBool
	// KindList represents a list of values.
	KindList
)

// Value is a small typed payload value.
//
// The representation avoids reflection and fmt-based stringification so
// filter matching stays fast and predictable.
//
// NOTE: The JSON form is used by hosts persisting payloads; keep it stable.
type Value struct {
	Kind Kind    `json:"k"`
	S    string  `json:"s,omitempty"`
	I64  int64   `json:"i,omitempty"`
	F64  float64 `json:"f,omitempty"`
	B    bool    `json:"b,omitempty"`
	L    []Value `json:"l,omitempty"`
}

// Keyword returns a string Value.
func Keyword(s string) Value { return Value{Kind: KindKeyword, S: s} }

// Integer returns an integer Value.
func Integer(i int64) Value { return Value{Kind: KindInteger, I64: i} }

// Float returns a float Value.
func Float(f float64) Value { return Value{Kind: KindFloat, F64: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{Kind: KindBool, B: b} }

// List returns a list Value.
func List(vs ...Value) Value { return Value{Kind: KindList, L: vs} }

// Equal reports whether two values have the same kind and contents.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}

	switch v.Kind {
	case KindKeyword:
		return v.S == other.S
	case KindInteger:
		return v.I64 == other.I64
	case KindFloat:
		return v.F64 == other.F64
	case KindBool:
		return v.B == other.B
	case KindList:
		if len(v.L) != len(other.L) {
			return false
		}
		for i := range v.L {
			if !v.L[i].Equal(other.L[i]) {
				return false
			}
		}
		return true
	default:
		return v.Kind == other.Kind
	}
}

// Payload is the attribute map attached to a point, independent of its
// vector.
type Payload map[string]Value

// Clone returns a shallow copy of the payload. A nil payload clones to nil.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Condition is a single exact-match predicate on a payload key.
type Condition struct {
	Key   string `json:"key"`
	Match Value  `json:"match"`
}

// Filter restricts search to points whose payload satisfies every Must
// condition and none of the MustNot conditions.
type Filter struct {
	Must    []Condition `json:"must,omitempty"`
	MustNot []Condition `json:"must_not,omitempty"`
}

// Matches evaluates the filter against a payload. A nil filter matches
// everything.
func (f *Filter) Matches(p Payload) bool {
	if f == nil {
		return true
	}

	for _, c := range f.Must {
		v, ok := p[c.Key]
		if !ok || !v.Equal(c.Match) {
			return false
		}
	}
	for _, c := range f.MustNot {
		if v, ok := p[c.Key]; ok && v.Equal(c.Match) {
			return false
		}
	}

	return true
}
