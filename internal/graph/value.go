package graph

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// Kind names the scalar type carried by a Value.
type Kind string

const (
	KindNull   Kind = "null"
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
)

// Value is a sealed interface representing a scalar document field.
// Only Null, String, Int and Float implement it.
type Value interface {
	// Kind reports the scalar type.
	Kind() Kind

	// Text returns the stable textual form of the value.
	// Strings are verbatim, ints decimal, floats the shortest
	// representation that round-trips, null is "null".
	Text() string

	graphValue() // Sealed
}

// Null is an explicit absent value.
type Null struct{}

func (Null) graphValue()    {}
func (Null) Kind() Kind     { return KindNull }
func (Null) Text() string   { return "null" }

// String is a text field value.
type String string

func (String) graphValue()    {}
func (String) Kind() Kind     { return KindString }
func (s String) Text() string { return string(s) }

// Int is an integer field value.
type Int int64

func (Int) graphValue()    {}
func (Int) Kind() Kind     { return KindInt }
func (i Int) Text() string { return strconv.FormatInt(int64(i), 10) }

// Float is a floating point field value.
type Float float64

func (Float) graphValue() {}
func (Float) Kind() Kind  { return KindFloat }
func (f Float) Text() string {
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}

// ParseValue rebuilds a Value from its kind and stable text form.
// It is the inverse of Value.Kind and Value.Text.
func ParseValue(kind Kind, text string) (Value, error) {
	switch kind {
	case KindNull:
		return Null{}, nil
	case KindString:
		return String(text), nil
	case KindInt:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse int value %q: %w", text, err)
		}
		return Int(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("parse float value %q: %w", text, err)
		}
		return Float(f), nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", kind)
	}
}

// FromAny converts a decoded YAML/JSON scalar into a Value.
// Whole floats stay floats; only Go integer types become Int.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("non-finite float %v", val)
		}
		return Float(val), nil
	case float32:
		return Float(val), nil
	default:
		return nil, fmt.Errorf("unsupported field value type %T", v)
	}
}

// Equal reports whether two values have the same kind and text.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.Text() == b.Text()
}

// Fields maps field names to values.
type Fields map[string]Value

// Names returns the field names in sorted order.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Clone returns a shallow copy. Values are immutable so this is a deep copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
