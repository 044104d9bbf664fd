package fixtures

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
)

// Data holds the decoded fixture files of a case, keyed by file name without extensions.
type Data map[string]any

// Merge returns a new Data with the entries of other taking precedence.
func (d Data) Merge(other Data) Data {
	merged := make(Data, len(d)+len(other))
	for k, v := range d {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Has reports whether key was loaded
func (d Data) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// String returns the value of key as a string, or "" if it is absent
func (d Data) String(key string) string {
	switch v := d[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Map returns the value of key when it is an object
func (d Data) Map(key string) (map[string]any, bool) {
	m, ok := d[key].(map[string]any)
	return m, ok
}

// Keys returns the loaded keys, sorted
func (d Data) Keys() []string {
	keys := lo.Keys(map[string]any(d))
	sort.Strings(keys)
	return keys
}

// Normalize converts decoded values into the canonical shapes used across
// fixtures: map[string]any objects, []any lists, int64 integers and float64 decimals.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, err := val.Float64()
		if err != nil {
			return val.String()
		}
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return int64(f)
		}
		return f
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return uintToNumber(uint64(val))
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return uintToNumber(val)
	case float32:
		return float64(val)
	}
	return v
}

func uintToNumber(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}
