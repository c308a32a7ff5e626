package journal

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/subsync/internal/value"
)

// MarshalDetail renders an entry detail as canonical JSON.
func MarshalDetail(detail value.Object) (string, error) {
	if detail == nil {
		return "{}", nil
	}
	data, err := value.MarshalCanonical(detail)
	if err != nil {
		return "", fmt.Errorf("marshal detail: %w", err)
	}
	return string(data), nil
}

// UnmarshalDetail parses a stored detail back into an Object.
func UnmarshalDetail(s string) (value.Object, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal detail: %w", err)
	}
	obj, err := value.ObjectFrom(normalizeNumbers(raw).(map[string]any))
	if err != nil {
		return nil, fmt.Errorf("unmarshal detail: %w", err)
	}
	return obj, nil
}

// normalizeNumbers replaces json.Number with int64 so value.From accepts it.
// Non-integral numbers are kept as their decimal text.
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		return val.String()
	case []any:
		for i := range val {
			val[i] = normalizeNumbers(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = normalizeNumbers(val[k])
		}
		return val
	}
	return v
}
