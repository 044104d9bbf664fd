package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var numberLike = regexp.MustCompile(`^\s*-?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][-+]?\d+)?\s*$`)

// isNoValue reports whether a field is absent, null or the empty string.
func isNoValue(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok && s == "" {
		return true
	}
	if m, ok := value.(map[string]any); ok && m == nil {
		return true
	}
	return false
}

func isObject(value any) bool {
	_, ok := value.(map[string]any)
	return ok
}

func isPrimitive(value any) bool {
	switch value.(type) {
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

func isNumber(value any) bool {
	switch value.(type) {
	case json.Number, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// toString renders a primitive the way a string concatenation would.
func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case nil:
		return ""
	}
	return fmt.Sprint(value)
}

// toNumber converts numbers and numeric strings into float64.
func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		if !numberLike.MatchString(v) {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// numericOutput keeps numeric values untouched and converts numeric strings.
func numericOutput(value any, f float64) any {
	if isNumber(value) {
		if n, ok := value.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i
			}
			return f
		}
		return value
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

func isInteger(f float64) bool {
	return f == math.Trunc(f)
}

// asList converts any slice into []any.
func asList(value any) ([]any, bool) {
	if value == nil {
		return nil, false
	}
	if l, ok := value.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// argsOrList returns args[0] when it is the only argument and is a list,
// otherwise args itself. Rules accept both {"one_of": [["a", "b"]]} and {"one_of": ["a", "b"]}.
func argsOrList(args []any) []any {
	if len(args) == 1 {
		if l, ok := asList(args[0]); ok {
			return l
		}
	}
	return args
}

func argNumber(args []any, i int, rule string) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("rule %s: missing argument %d", rule, i+1)
	}
	f, ok := toNumber(args[i])
	if !ok {
		return 0, fmt.Errorf("rule %s: argument %d is not a number: %v", rule, i+1, args[i])
	}
	return f, nil
}

func argString(args []any, i int, rule string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("rule %s: missing argument %d", rule, i+1)
	}
	if !isPrimitive(args[i]) {
		return "", fmt.Errorf("rule %s: argument %d must be a scalar, got %T", rule, i+1, args[i])
	}
	return toString(args[i]), nil
}

func argObject(args []any, i int, rule string) (map[string]any, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("rule %s: missing argument %d", rule, i+1)
	}
	m, ok := args[i].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("rule %s: argument %d must be an object, got %T", rule, i+1, args[i])
	}
	return m, nil
}

func trimAll(value any) any {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = trimAll(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = trimAll(item)
		}
		return out
	}
	return value
}
