package tester

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/mattbaird/jsonpatch"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// strings longer than this, or spanning lines, are shown as a line diff
const inlineDiffLimit = 80

// DiffMap is a map keyed by flattened paths: "a.b[0].c"
type DiffMap[T any] map[string]T

func flattenSlice(s []any, prefix string, result DiffMap[any]) {
	if len(s) == 0 {
		result[prefix] = s
		return
	}
	for i, value := range s {
		flattenValue(value, fmt.Sprintf("%s[%d]", prefix, i), result)
	}
}

func flattenMap(m map[string]any, prefix string, result DiffMap[any]) {
	if len(m) == 0 && prefix != "" {
		result[prefix] = m
		return
	}
	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		flattenValue(value, fullKey, result)
	}
}

func flattenValue(value any, key string, result DiffMap[any]) {
	switch v := value.(type) {
	case map[string]any:
		flattenMap(v, key, result)
	case []any:
		flattenSlice(v, key, result)
	default:
		result[key] = v
	}
}

// Flatten turns a nested object into a DiffMap
func Flatten(m map[string]any) DiffMap[any] {
	result := make(DiffMap[any])
	flattenMap(m, "", result)
	return result
}

// Diff returns the changes needed to turn d into other, one entry per differing path.
func (d DiffMap[T]) Diff(other DiffMap[T]) DiffMap[api.Text] {
	changes := make(DiffMap[api.Text])

	allKeys := make(map[string]bool)
	for k := range d {
		allKeys[k] = true
	}
	for k := range other {
		allKeys[k] = true
	}

	for key := range allKeys {
		thisVal, inThis := d[key]
		otherVal, inOther := other[key]

		if inThis && !inOther {
			changes[key] = clicky.Text("-", "text-red-500").Append(thisVal, "strikethrough text-red-500")
		} else if !inThis && inOther {
			changes[key] = clicky.Text("+", "text-green-500").Append(otherVal, "text-green-500")
		} else if fmt.Sprintf("%v", thisVal) != fmt.Sprintf("%v", otherVal) || fmt.Sprintf("%T", thisVal) != fmt.Sprintf("%T", otherVal) {
			thisStr, thisIsString := any(thisVal).(string)
			otherStr, otherIsString := any(otherVal).(string)

			if thisIsString && otherIsString {
				changes[key] = HumanDiff(thisStr, otherStr)
			} else {
				changes[key] = clicky.Text("").Append(thisVal, "text-red-500").Append(" → ").Append(otherVal, "text-green-500").
					Append(fmt.Sprintf(" (type: %T → %T)", thisVal, otherVal), "text-muted")
			}
		}
	}

	return changes
}

// Keys returns the paths of d, sorted
func (d DiffMap[T]) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d DiffMap[T]) Pretty() api.Text {
	t := clicky.Text("")
	for _, key := range d.Keys() {
		t = t.Append(key).Append(": ", "text-muted").Append(d[key], "max-w-[100ch]").NewLine()
	}
	return t
}

// FindCommonPrefix returns the longest common prefix of a and b
func FindCommonPrefix(a, b string) string {
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:minLen]
}

// FindCommonSuffix returns the longest common suffix of a and b
func FindCommonSuffix(a, b string) string {
	lenA, lenB := len(a), len(b)
	minLen := min(lenA, lenB)
	for i := 0; i < minLen; i++ {
		if a[lenA-1-i] != b[lenB-1-i] {
			return a[lenA-i:]
		}
	}
	return a[lenA-minLen:]
}

// HumanDiff renders old → new, highlighting only the part that changed.
// Long or multi-line strings fall back to a line diff.
func HumanDiff(oldVal, newVal string) api.Text {
	if len(oldVal) > inlineDiffLimit || len(newVal) > inlineDiffLimit ||
		strings.Contains(oldVal, "\n") || strings.Contains(newVal, "\n") {
		return clicky.Text("").NewLine().Add(LineDiff(oldVal, newVal))
	}

	prefix := FindCommonPrefix(oldVal, newVal)
	suffix := FindCommonSuffix(oldVal, newVal)

	if len(prefix)+len(suffix) > len(oldVal) || len(prefix)+len(suffix) > len(newVal) {
		suffix = ""
	}

	oldDiff := oldVal[len(prefix) : len(oldVal)-len(suffix)]
	newDiff := newVal[len(prefix) : len(newVal)-len(suffix)]

	t := clicky.Text("")

	if prefix != "" {
		t = t.Append(prefix, "text-muted")
	}

	if oldDiff != "" {
		t = t.Append(oldDiff, "text-red-500")
	}

	if suffix != "" && oldDiff != "" {
		t = t.Append(suffix, "text-muted")
	}

	t = t.Append(" → ", "text-muted")

	if newDiff != "" {
		t = t.Append(newDiff, "text-green-500")
	}

	if suffix != "" && newDiff != "" {
		t = t.Append(suffix, "text-muted")
	}

	return t
}

// LineDiff renders a unified-style diff of two strings
func LineDiff(oldStr, newStr string) api.Text {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldStr, newStr)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	result := clicky.Text("")
	for _, diff := range diffs {
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}
			line = strings.TrimSuffix(line, "\n")
			switch diff.Type {
			case diffmatchpatch.DiffDelete:
				result = result.Append("-", "text-red-700").Append(line, "text-red-500").NewLine()
			case diffmatchpatch.DiffInsert:
				result = result.Append("+", "text-green-700").Append(line, "text-green-500").NewLine()
			case diffmatchpatch.DiffEqual:
				result = result.Append(" "+line, "text-gray-300").NewLine()
			}
		}
	}
	return result
}

// Mismatch describes how an actual value differs from the expected one.
type Mismatch struct {
	Changes DiffMap[api.Text]
	Patch   []jsonpatch.JsonPatchOperation
}

// Compare diffs expected against actual. The patch turns expected into actual.
func Compare(expected, actual map[string]any) (*Mismatch, error) {
	m := &Mismatch{Changes: Flatten(expected).Diff(Flatten(actual))}

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal expected: %w", err)
	}
	actualJSON, err := json.Marshal(actual)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal actual: %w", err)
	}

	m.Patch, err = jsonpatch.CreatePatch(expectedJSON, actualJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON patch: %w", err)
	}
	sort.Slice(m.Patch, func(i, j int) bool {
		return m.Patch[i].Path < m.Patch[j].Path
	})
	return m, nil
}

// Empty reports whether there is nothing to show
func (m *Mismatch) Empty() bool {
	return m == nil || len(m.Changes) == 0
}

func (m *Mismatch) Pretty() api.Text {
	if m.Empty() {
		return clicky.Text("no differences", "text-muted")
	}
	t := clicky.Text("Differences:", "font-bold").NewLine().Add(m.Changes.Pretty())
	if len(m.Patch) > 0 {
		t = t.Append("Patch:", "font-bold").NewLine()
		for _, op := range m.Patch {
			t = t.Append("  ").Append(op.Operation, "text-blue-600").Space().Append(op.Path)
			if op.Value != nil {
				t = t.Append(" ").Append(fmt.Sprintf("%v", op.Value), "text-gray-500")
			}
			t = t.NewLine()
		}
	}
	return t
}
