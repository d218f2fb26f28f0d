package audience

import (
	"encoding/json"
	"math"
)

// Kind tags the dynamic type carried by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	// KindInvalid marks a value whose Go type cannot take part in conditions.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Value is a user attribute or condition operand: a string, a number, a bool
// or null. Numbers are held as float64.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	raw  any
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps f.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// ValueOf converts a Go value decoded from JSON, YAML or supplied by a host
// into a Value. Unsupported types produce a KindInvalid value that keeps the
// original for diagnostics.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int8:
		return Number(float64(x))
	case int16:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint8:
		return Number(float64(x))
	case uint16:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{kind: KindInvalid, raw: v}
		}
		return Number(f)
	default:
		return Value{kind: KindInvalid, raw: v}
	}
}

// Kind returns the tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsNumber returns the numeric payload.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// Any returns v as a plain Go value.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindInvalid:
		return v.raw
	default:
		return nil
	}
}

// MarshalJSON encodes the plain Go value.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// finiteNumber reports whether v is a number the evaluator can compare
// exactly: finite and within ±2^53.
func (v Value) finiteNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if math.IsNaN(v.num) || math.IsInf(v.num, 0) || math.Abs(v.num) > 1<<53 {
		return 0, false
	}
	return v.num, true
}

// Attributes is the user attribute bag keyed by attribute key.
type Attributes map[string]Value

// NewAttributes converts a host supplied map into Attributes.
func NewAttributes(m map[string]any) Attributes {
	attrs := make(Attributes, len(m))
	for k, v := range m {
		attrs[k] = ValueOf(v)
	}
	return attrs
}

// Lookup returns the value stored under name.
func (a Attributes) Lookup(name string) (Value, bool) {
	v, ok := a[name]
	return v, ok
}

// ToMap converts a back into plain Go values.
func (a Attributes) ToMap() map[string]any {
	m := make(map[string]any, len(a))
	for k, v := range a {
		m[k] = v.Any()
	}
	return m
}
