package validation

import (
	"fmt"
	"sort"
)

// FormatError is returned for a value that has the wrong shape entirely,
// including a non-object passed to Validate.
const FormatError = "FORMAT_ERROR"

// Option configures a Validator
type Option func(*Validator)

// WithRules registers additional rule builders for this validator only.
func WithRules(rules map[string]Builder) Option {
	return func(v *Validator) {
		v.registry.RegisterRules(rules)
	}
}

// WithExtraRules registers the extended rule set (boolean, uuid, cel, ...).
func WithExtraRules() Option {
	return WithRules(ExtraRules())
}

// WithAliases registers aliased rules for this validator only.
func WithAliases(aliases ...Alias) Option {
	return func(v *Validator) {
		for _, a := range aliases {
			if err := v.registry.RegisterAliasedRule(a); err != nil && v.optErr == nil {
				v.optErr = err
			}
		}
	}
}

// WithAutoTrim trims every string in the input before validation.
func WithAutoTrim(trim bool) Option {
	return func(v *Validator) {
		v.autoTrim = trim
	}
}

// Validator checks objects against a LIVR rule set and produces the cleaned
// output: only the described fields, after modifier rules.
type Validator struct {
	registry *Registry
	schema   map[string]any
	fields   map[string][]Rule
	order    []string
	autoTrim bool
	optErr   error

	errors any
}

// New compiles a rule set. Each key of schema is a field name, each value a
// rule spec for that field.
func New(schema map[string]any, opts ...Option) (*Validator, error) {
	v := &Validator{
		registry: DefaultRegistry.Clone(),
		schema:   schema,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.optErr != nil {
		return nil, v.optErr
	}
	if err := v.prepare(); err != nil {
		return nil, err
	}
	return v, nil
}

// MustNew is New that panics on an invalid rule set
func MustNew(schema map[string]any, opts ...Option) *Validator {
	v, err := New(schema, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

func (v *Validator) prepare() error {
	v.fields = make(map[string][]Rule, len(v.schema))
	v.order = make([]string, 0, len(v.schema))
	for field, spec := range v.schema {
		rules, err := v.registry.Compile(spec)
		if err != nil {
			return fmt.Errorf("field %s: %w", field, err)
		}
		v.fields[field] = rules
		v.order = append(v.order, field)
	}
	sort.Strings(v.order)
	return nil
}

// Validate checks input and returns the cleaned output. When it returns false
// the output is nil and Errors describes the failures.
func (v *Validator) Validate(input any) (map[string]any, bool) {
	result, errs := v.Check(input)
	v.errors = errs
	return result, errs == nil
}

// Errors returns the errors of the last Validate call, or nil if it passed.
// The value is either FormatError or a map of field name to error code.
func (v *Validator) Errors() any {
	return v.errors
}

// Check is Validate without recording errors on the validator, safe for
// concurrent use.
func (v *Validator) Check(input any) (map[string]any, any) {
	data, ok := input.(map[string]any)
	if !ok || data == nil {
		return nil, FormatError
	}
	if v.autoTrim {
		data = trimAll(data).(map[string]any)
	}

	errs := map[string]any{}
	result := map[string]any{}

	for _, field := range v.order {
		value, present := data[field]
		for _, rule := range v.fields[field] {
			current := value
			r, done := result[field]
			if done {
				current = r
			}

			out := Output{missing: !present && !done}
			if errCode := rule(current, data, &out); errCode != nil {
				errs[field] = errCode
				break
			}
			if o, ok := out.Value(); ok {
				result[field] = o
			} else if present && !done {
				result[field] = value
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return result, nil
}

// Registry exposes the validator's rule registry
func (v *Validator) Registry() *Registry {
	return v.registry
}
