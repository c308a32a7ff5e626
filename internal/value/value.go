package value

import (
	"fmt"
	"math/big"
	"slices"
	"strconv"
	"unicode/utf16"
)

// Value is a sealed interface over the attribute types a record may hold.
// Only Null, String, Int, Bool, Array and Object implement it.
// There is no Float: filters compare attributes and floats make equality
// depend on formatting.
type Value interface {
	value() // sealed
}

// Null is an explicitly unset attribute.
type Null struct{}

func (Null) value() {}

// String is a string attribute.
type String string

func (String) value() {}

// Int is an integer attribute. Always int64.
type Int int64

func (Int) value() {}

// Bool is a boolean attribute.
type Bool bool

func (Bool) value() {}

// Array is an ordered list of values.
type Array []Value

func (Array) value() {}

// Object maps attribute names to values.
// Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// Pair is a key/value for typed Object construction.
type Pair struct {
	Key   string
	Value Value
}

// O is shorthand for Pair.
//
//	value.Of(value.O("number", value.Int(5)), value.O("name", value.String("x")))
func O(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}

// Of builds an Object from pairs.
func Of(pairs ...Pair) Object {
	obj := make(Object, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// Clone returns a shallow copy of the object.
func (obj Object) Clone() Object {
	out := make(Object, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	return out
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// Equal reports deep equality of two values. A nil Value equals Null.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare orders two scalar values of the same kind.
// ok is false when the values are not comparable (different kinds, or
// arrays/objects/null).
func Compare(a, b Value) (cmp int, ok bool) {
	switch av := a.(type) {
	case Int:
		bv, isInt := b.(Int)
		if !isInt {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case String:
		bv, isStr := b.(String)
		if !isStr {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case Bool:
		bv, isBool := b.(Bool)
		if !isBool {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !bool(av):
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// Key renders a value as a lookup key. Strings render verbatim and ints in
// decimal, so a record with id 1 and one with id "1" share a key.
// Other kinds have no key and return "".
func Key(v Value) string {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	}
	return ""
}

// From converts a plain Go value (as produced by YAML, JSON or CUE decoding)
// into a Value. Integral floats are accepted as Int; fractional floats are
// rejected.
func From(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		return Int(int64(val)), nil
	case *big.Int:
		if !val.IsInt64() {
			return nil, fmt.Errorf("integer out of range: %s", val)
		}
		return Int(val.Int64()), nil
	case float64:
		if val != float64(int64(val)) {
			return nil, fmt.Errorf("floats are not supported: %v", val)
		}
		return Int(int64(val)), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			ev, err := From(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = ev
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			ev, err := From(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = ev
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ObjectFrom converts a decoded map into an Object.
func ObjectFrom(m map[string]any) (Object, error) {
	obj := make(Object, len(m))
	for k, elem := range m {
		ev, err := From(elem)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		obj[k] = ev
	}
	return obj, nil
}

// Native converts a Value back into plain Go types
// (nil, string, int64, bool, []any, map[string]any).
func Native(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Native(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Native(elem)
		}
		return out
	}
	return nil
}
