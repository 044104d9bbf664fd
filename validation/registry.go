package validation

import (
	"fmt"
	"sort"
	"sync"
)

// Output receives the replacement value a rule produces for its field.
// Rules that leave it unset keep the input value.
type Output struct {
	value   any
	set     bool
	missing bool
}

// Set replaces the field value in the validated output.
func (o *Output) Set(v any) {
	o.value = v
	o.set = true
}

// Value returns the replacement value and whether one was set.
func (o *Output) Value() (any, bool) {
	return o.value, o.set
}

// Missing reports whether the field is absent from the object, as opposed to
// present with a nil value.
func (o *Output) Missing() bool {
	return o.missing
}

// Rule checks a single field value. It returns nil when the value passes,
// otherwise an error code: a string, or a nested map/slice for meta rules.
// params is the whole object being validated.
type Rule func(value any, params map[string]any, out *Output) any

// Builder compiles the arguments of a rule into a Rule. The registry is
// passed so meta rules can compile nested rule sets.
type Builder func(args []any, rules *Registry) (Rule, error)

// Alias composes existing rules under a new name.
type Alias struct {
	Name  string `json:"name" yaml:"name"`
	Rules any    `json:"rules" yaml:"rules"`
	// Error replaces whatever error the composed rules return.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Registry manages the rule builders available to validators.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates an empty rule registry
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds or replaces a rule builder
func (r *Registry) Register(name string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[name] = b
}

// RegisterRules adds a set of rule builders
func (r *Registry) RegisterRules(rules map[string]Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, b := range rules {
		r.builders[name] = b
	}
}

// RegisterAliasedRule registers alias.Name as the sequential application of alias.Rules.
func (r *Registry) RegisterAliasedRule(alias Alias) error {
	if alias.Name == "" {
		return fmt.Errorf("alias name is required")
	}
	if alias.Rules == nil {
		return fmt.Errorf("alias %s: rules are required", alias.Name)
	}

	r.Register(alias.Name, func(args []any, rules *Registry) (Rule, error) {
		compiled, err := rules.Compile(alias.Rules)
		if err != nil {
			return nil, fmt.Errorf("alias %s: %w", alias.Name, err)
		}
		return func(value any, params map[string]any, out *Output) any {
			current := value
			missing := out.missing
			for _, rule := range compiled {
				o := Output{missing: missing}
				if errCode := rule(current, params, &o); errCode != nil {
					if alias.Error != "" {
						return alias.Error
					}
					return errCode
				}
				if v, ok := o.Value(); ok {
					current = v
					missing = false
					out.Set(v)
				}
			}
			return nil
		}, nil
	})
	return nil
}

// Get retrieves a rule builder by name
func (r *Registry) Get(name string) (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[name]
	return b, ok
}

// List returns all registered rule names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy so callers can register rules without
// affecting other validators.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewRegistry()
	for name, b := range r.builders {
		c.builders[name] = b
	}
	return c
}

// Compile turns the rule spec of a single field into rules.
// Accepted forms: "rule", {"rule": arg}, {"rule": [args...]} and a list of those.
func (r *Registry) Compile(spec any) ([]Rule, error) {
	if list, ok := asList(spec); ok {
		rules := make([]Rule, 0, len(list))
		for _, item := range list {
			rule, err := r.compileOne(item)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
		return rules, nil
	}

	rule, err := r.compileOne(spec)
	if err != nil {
		return nil, err
	}
	return []Rule{rule}, nil
}

func (r *Registry) compileOne(spec any) (Rule, error) {
	name, args, err := parseRuleSpec(spec)
	if err != nil {
		return nil, err
	}
	builder, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("rule [%s] not registered", name)
	}
	rule, err := builder(args, r)
	if err != nil {
		return nil, fmt.Errorf("rule [%s]: %w", name, err)
	}
	return rule, nil
}

func parseRuleSpec(spec any) (string, []any, error) {
	switch v := spec.(type) {
	case string:
		return v, nil, nil
	case map[string]any:
		if len(v) != 1 {
			return "", nil, fmt.Errorf("rule object must have exactly one key, got %d", len(v))
		}
		for name, arg := range v {
			if list, ok := asList(arg); ok {
				return name, list, nil
			}
			return name, []any{arg}, nil
		}
	}
	return "", nil, fmt.Errorf("invalid rule spec %T(%v)", spec, spec)
}

// DefaultRegistry holds the core rules. Validators clone it.
var DefaultRegistry = newCoreRegistry()

func newCoreRegistry() *Registry {
	r := NewRegistry()
	r.RegisterRules(commonRules)
	r.RegisterRules(stringRules)
	r.RegisterRules(numericRules)
	r.RegisterRules(specialRules)
	r.RegisterRules(metaRules)
	r.RegisterRules(modifierRules)
	return r
}
