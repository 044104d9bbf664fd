package validation

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
	"github.com/google/uuid"
)

var (
	uuidVersions = map[string]uuid.Version{"v1": 1, "v2": 2, "v3": 3, "v4": 4, "v5": 5}
	md5Re        = regexp.MustCompile(`(?i)^[0-9a-f]{32}$`)
)

// canonical 8-4-4-4-12 form only, uuid.Parse also accepts urn and braced forms
const uuidLen = 36

// ExtraRules returns the extended rule set. They are not part of
// DefaultRegistry; register them with WithExtraRules or Registry.RegisterRules.
func ExtraRules() map[string]Builder {
	return map[string]Builder{
		"boolean":           booleanRule,
		"is":                isRule,
		"uuid":              uuidRule,
		"ipv4":              ipv4Rule,
		"md5":               md5Rule,
		"iso_date_time":     isoDateTimeRule,
		"list_length":       listLengthRule,
		"list_items_unique": listItemsUniqueRule,
		"required_if":       requiredIfRule,
		"cel":               celRule,
	}
}

func booleanRule(args []any, _ *Registry) (Rule, error) {
	return func(value any, _ map[string]any, out *Output) any {
		if isNoValue(value) {
			return nil
		}
		if _, ok := value.(bool); !ok {
			return "NOT_BOOLEAN"
		}
		return nil
	}, nil
}

func isRule(args []any, _ *Registry) (Rule, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expects exactly one value, got %d", len(args))
	}
	allowed := args[0]
	return func(value any, _ map[string]any, out *Output) any {
		if isNoValue(value) {
			return "REQUIRED"
		}
		if !isPrimitive(value) {
			return FormatError
		}
		if toString(value) != toString(allowed) {
			return "NOT_ALLOWED_VALUE"
		}
		out.Set(allowed)
		return nil
	}, nil
}

func uuidRule(args []any, _ *Registry) (Rule, error) {
	version := "v4"
	if len(args) > 0 {
		v, err := argString(args, 0, "uuid")
		if err != nil {
			return nil, err
		}
		version = v
	}
	want, ok := uuidVersions[version]
	if !ok {
		return nil, fmt.Errorf("unsupported uuid version %q", version)
	}
	return scalarRule(func(value any, _ map[string]any, _ *Output) any {
		s := toString(value)
		id, err := uuid.Parse(s)
		if err != nil || len(s) != uuidLen || id.Version() != want {
			return "WRONG_UUID"
		}
		if want >= 4 && id.Variant() != uuid.RFC4122 {
			return "WRONG_UUID"
		}
		return nil
	}), nil
}

func ipv4Rule(args []any, _ *Registry) (Rule, error) {
	return scalarRule(func(value any, _ map[string]any, _ *Output) any {
		s := toString(value)
		ip := net.ParseIP(s)
		if ip == nil || ip.To4() == nil || strings.Count(s, ".") != 3 {
			return "WRONG_IP"
		}
		return nil
	}), nil
}

func md5Rule(args []any, _ *Registry) (Rule, error) {
	return scalarRule(func(value any, _ map[string]any, _ *Output) any {
		if !md5Re.MatchString(toString(value)) {
			return "WRONG_MD5"
		}
		return nil
	}), nil
}

// isoDateTimeLayout is the UTC, millisecond form valid dates are rewritten to
const isoDateTimeLayout = "2006-01-02T15:04:05.000Z"

func isoDateTimeRule(args []any, _ *Registry) (Rule, error) {
	return scalarRule(func(value any, _ map[string]any, out *Output) any {
		ts, err := time.Parse(time.RFC3339Nano, toString(value))
		if err != nil {
			return "WRONG_DATE"
		}
		out.Set(ts.UTC().Format(isoDateTimeLayout))
		return nil
	}), nil
}

func listLengthRule(args []any, _ *Registry) (Rule, error) {
	min, err := argNumber(args, 0, "list_length")
	if err != nil {
		return nil, err
	}
	max := min
	if len(args) > 1 {
		if max, err = argNumber(args, 1, "list_length"); err != nil {
			return nil, err
		}
	}
	return func(value any, _ map[string]any, _ *Output) any {
		if isNoValue(value) {
			return nil
		}
		list, ok := asList(value)
		if !ok {
			return FormatError
		}
		if float64(len(list)) < min {
			return "TOO_FEW_ITEMS"
		}
		if float64(len(list)) > max {
			return "TOO_MANY_ITEMS"
		}
		return nil
	}, nil
}

func listItemsUniqueRule(args []any, _ *Registry) (Rule, error) {
	return func(value any, _ map[string]any, _ *Output) any {
		if isNoValue(value) {
			return nil
		}
		list, ok := asList(value)
		if !ok {
			return FormatError
		}
		seen := make(map[string]bool, len(list))
		for _, item := range list {
			if !isPrimitive(item) {
				return "INCOMPARABLE_ITEMS"
			}
			key := toString(item)
			if seen[key] {
				return "NOT_UNIQUE_ITEMS"
			}
			seen[key] = true
		}
		return nil
	}, nil
}

// {"required_if": {"field": "value"}} requires the field when params[field] equals value.
func requiredIfRule(args []any, _ *Registry) (Rule, error) {
	query, err := argObject(args, 0, "required_if")
	if err != nil {
		return nil, err
	}
	if len(query) != 1 {
		return nil, fmt.Errorf("expects a single field condition, got %d", len(query))
	}
	var field string
	var expected any
	for k, v := range query {
		field, expected = k, v
	}
	return func(value any, params map[string]any, _ *Output) any {
		other, ok := params[field]
		if !ok || !isPrimitive(other) || toString(other) != toString(expected) {
			return nil
		}
		if isNoValue(value) {
			return "REQUIRED"
		}
		return nil
	}, nil
}

// {"cel": "size(value) > 2"} evaluates a boolean CEL expression over the
// field value and the whole object (data).
func celRule(args []any, _ *Registry) (Rule, error) {
	expression, err := argString(args, 0, "cel")
	if err != nil {
		return nil, err
	}

	env, err := cel.NewEnv(
		cel.Variable("value", cel.DynType),
		cel.Variable("data", cel.MapType(cel.StringType, cel.DynType)),
		cel.StdLib(),
		ext.Strings(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return func(value any, params map[string]any, _ *Output) any {
		if isNoValue(value) {
			return nil
		}
		if params == nil {
			params = map[string]any{}
		}
		out, _, err := prg.Eval(map[string]any{
			"value": value,
			"data":  params,
		})
		if err != nil {
			return FormatError
		}
		if b, ok := out.Value().(bool); ok && b {
			return nil
		}
		return "CEL_FALSE"
	}, nil
}
