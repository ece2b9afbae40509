// Package query defines questionnaire answers and the canonical search query.
package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// ValueKind discriminates the shape of an answer value.
type ValueKind int

// Answer value kinds.
const (
	KindNone ValueKind = iota
	KindScalar
	KindList
	KindRange
)

// Value is an answer value: a single token, a list of tokens, or a numeric range.
type Value struct {
	kind   ValueKind
	scalar string
	list   []string
	rng    Budget
}

// Scalar creates a single-token value.
func Scalar(s string) Value { return Value{kind: KindScalar, scalar: s} }

// List creates a multi-token value.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// RangeValue creates a numeric {min,max} value.
func RangeValue(lo, hi float64) Value { return Value{kind: KindRange, rng: Budget{Min: lo, Max: hi}} }

// Kind returns the value shape.
func (v Value) Kind() ValueKind { return v.kind }

// String returns the scalar token; empty for other kinds.
func (v Value) String() string { return v.scalar }

// Items returns the list tokens; nil for other kinds.
func (v Value) Items() []string { return v.list }

// Range returns the numeric range and whether the value is one.
func (v Value) Range() (Budget, bool) { return v.rng, v.kind == KindRange }

// IsEmpty reports whether the value carries no usable content.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindScalar:
		return v.scalar == ""
	case KindList:
		return len(v.list) == 0
	case KindRange:
		return false
	default:
		return true
	}
}

// Tokens returns the value as a token list: one for scalars, all for lists, none for ranges.
func (v Value) Tokens() []string {
	switch v.kind {
	case KindScalar:
		return []string{v.scalar}
	case KindList:
		return v.list
	default:
		return nil
	}
}

// UnmarshalJSON accepts a string, an array of strings, or {"min":n,"max":n}.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("answer value: %w", err)
		}
		*v = Scalar(s)
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("answer value: expected list of strings: %w", err)
		}
		*v = List(items...)
	case '{':
		var r struct {
			Min *float64 `json:"min"`
			Max *float64 `json:"max"`
		}
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("answer value: expected {min,max}: %w", err)
		}
		if r.Min == nil || r.Max == nil {
			return fmt.Errorf("answer value: range requires both min and max")
		}
		if math.IsNaN(*r.Min) || math.IsNaN(*r.Max) {
			return fmt.Errorf("answer value: range bounds must be numbers")
		}
		*v = RangeValue(*r.Min, *r.Max)
	default:
		return fmt.Errorf("answer value: unsupported JSON %s", string(data))
	}
	return nil
}

// MarshalJSON renders the value in the same shape it was received in.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindScalar:
		return json.Marshal(v.scalar)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindRange:
		return json.Marshal(v.rng)
	default:
		return []byte("null"), nil
	}
}

// Answer is one questionnaire answer.
type Answer struct {
	QuestionID string `json:"questionId"`
	Value      Value  `json:"value"`
}
