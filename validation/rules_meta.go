package validation

import (
	"fmt"
)

// nested compiles a rule set that shares the parent's registry.
func nested(schema map[string]any, rules *Registry) (*Validator, error) {
	v := &Validator{registry: rules, schema: schema}
	if err := v.prepare(); err != nil {
		return nil, err
	}
	return v, nil
}

func nestedMap(args []any, rule string, rules *Registry) (map[string]*Validator, error) {
	m, err := argObject(args, 1, rule)
	if err != nil {
		return nil, err
	}
	validators := make(map[string]*Validator, len(m))
	for selector, schema := range m {
		s, ok := schema.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("rule %s: rules for %q must be an object", rule, selector)
		}
		v, err := nested(s, rules)
		if err != nil {
			return nil, fmt.Errorf("rule %s[%s]: %w", rule, selector, err)
		}
		validators[selector] = v
	}
	return validators, nil
}

// validateList applies check to every item and returns per-item errors, nil for items that passed.
func validateList(value any, check func(item any) (any, any)) (any, []any) {
	list, ok := asList(value)
	if !ok {
		return FormatError, nil
	}
	results := make([]any, len(list))
	errs := make([]any, len(list))
	failed := false
	for i, item := range list {
		res, errCode := check(item)
		if errCode != nil {
			errs[i] = errCode
			failed = true
			continue
		}
		results[i] = res
	}
	if failed {
		return errs, nil
	}
	return nil, results
}

var metaRules = map[string]Builder{
	"nested_object": func(args []any, rules *Registry) (Rule, error) {
		schema, err := argObject(args, 0, "nested_object")
		if err != nil {
			return nil, err
		}
		v, err := nested(schema, rules)
		if err != nil {
			return nil, err
		}
		return func(value any, _ map[string]any, out *Output) any {
			if isNoValue(value) {
				return nil
			}
			result, errs := v.Check(value)
			if errs != nil {
				return errs
			}
			out.Set(result)
			return nil
		}, nil
	},

	"variable_object": func(args []any, rules *Registry) (Rule, error) {
		selector, err := argString(args, 0, "variable_object")
		if err != nil {
			return nil, err
		}
		validators, err := nestedMap(args, "variable_object", rules)
		if err != nil {
			return nil, err
		}
		return func(value any, _ map[string]any, out *Output) any {
			if isNoValue(value) {
				return nil
			}
			obj, ok := value.(map[string]any)
			if !ok || !isPrimitive(obj[selector]) {
				return FormatError
			}
			v, ok := validators[toString(obj[selector])]
			if !ok {
				return FormatError
			}
			result, errs := v.Check(obj)
			if errs != nil {
				return errs
			}
			out.Set(result)
			return nil
		}, nil
	},

	"list_of": func(args []any, rules *Registry) (Rule, error) {
		spec := any(args)
		if len(args) == 1 {
			spec = args[0]
		}
		v, err := nested(map[string]any{"item": spec}, rules)
		if err != nil {
			return nil, err
		}
		return func(value any, _ map[string]any, out *Output) any {
			if isNoValue(value) {
				return nil
			}
			errs, results := validateList(value, func(item any) (any, any) {
				result, errs := v.Check(map[string]any{"item": item})
				if errs != nil {
					return nil, errs.(map[string]any)["item"]
				}
				return result["item"], nil
			})
			if errs != nil {
				return errs
			}
			out.Set(results)
			return nil
		}, nil
	},

	"list_of_objects": func(args []any, rules *Registry) (Rule, error) {
		schema, err := argObject(args, 0, "list_of_objects")
		if err != nil {
			return nil, err
		}
		v, err := nested(schema, rules)
		if err != nil {
			return nil, err
		}
		return func(value any, _ map[string]any, out *Output) any {
			if isNoValue(value) {
				return nil
			}
			errs, results := validateList(value, func(item any) (any, any) {
				if !isObject(item) {
					return nil, FormatError
				}
				return v.Check(item)
			})
			if errs != nil {
				return errs
			}
			out.Set(results)
			return nil
		}, nil
	},

	"list_of_different_objects": func(args []any, rules *Registry) (Rule, error) {
		selector, err := argString(args, 0, "list_of_different_objects")
		if err != nil {
			return nil, err
		}
		validators, err := nestedMap(args, "list_of_different_objects", rules)
		if err != nil {
			return nil, err
		}
		return func(value any, _ map[string]any, out *Output) any {
			if isNoValue(value) {
				return nil
			}
			errs, results := validateList(value, func(item any) (any, any) {
				obj, ok := item.(map[string]any)
				if !ok || !isPrimitive(obj[selector]) {
					return nil, FormatError
				}
				v, ok := validators[toString(obj[selector])]
				if !ok {
					return nil, FormatError
				}
				return v.Check(obj)
			})
			if errs != nil {
				return errs
			}
			out.Set(results)
			return nil
		}, nil
	},

	"or": func(args []any, rules *Registry) (Rule, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("expects at least one rule set")
		}
		alternatives := make([]*Validator, 0, len(args))
		for _, spec := range args {
			v, err := nested(map[string]any{"field": spec}, rules)
			if err != nil {
				return nil, err
			}
			alternatives = append(alternatives, v)
		}
		return func(value any, _ map[string]any, out *Output) any {
			if isNoValue(value) {
				return nil
			}
			var last any
			for _, v := range alternatives {
				result, errs := v.Check(map[string]any{"field": value})
				if errs == nil {
					out.Set(result["field"])
					return nil
				}
				last = errs.(map[string]any)["field"]
			}
			return last
		}, nil
	},
}
