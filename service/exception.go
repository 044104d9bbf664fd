package service

import (
	"fmt"
	"sort"
	"strings"
)

// Exception is the structured business error services return, e.g.
// {"code": "WRONG_EMAIL", "fields": {"email": "WRONG_EMAIL"}}.
// Two exceptions built from the same data are equal.
type Exception struct {
	Code   string         `json:"code" yaml:"code"`
	Fields map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// NewException builds an Exception from fixture data.
// Both {"code": ..., "fields": {...}} and a bare code string are accepted.
// Empty fields are dropped, so an existing Exception passed through it
// compares equal to one built from the same fixture data.
func NewException(data any) *Exception {
	switch v := data.(type) {
	case *Exception:
		if v == nil {
			return &Exception{}
		}
		e := *v
		if len(e.Fields) == 0 {
			e.Fields = nil
		}
		return &e
	case Exception:
		return NewException(&v)
	case string:
		return &Exception{Code: v}
	case map[string]any:
		e := &Exception{}
		if code, ok := v["code"]; ok {
			e.Code = fmt.Sprint(code)
		}
		if fields, ok := v["fields"].(map[string]any); ok && len(fields) > 0 {
			e.Fields = fields
		}
		return e
	}
	return &Exception{Code: fmt.Sprint(data)}
}

func (e *Exception) Error() string {
	if len(e.Fields) == 0 {
		return e.Code
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", e.Code, strings.Join(parts, ", "))
}

// AsMap returns the exception in its fixture form
func (e *Exception) AsMap() map[string]any {
	m := map[string]any{"code": e.Code}
	if len(e.Fields) > 0 {
		m["fields"] = e.Fields
	}
	return m
}
