// Package visibility decides whether a field is shown for a given value bag.
// Evaluation is a pure function of its inputs; nothing is cached between
// calls.
package visibility

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// Evaluate applies rule to the live value of the field it references. A nil
// rule is always satisfied. greater_than and less_than only compare number
// values; strings are never coerced, so "10" fails both.
func Evaluate(values map[string]any, rule *schema.Conditional) bool {
	if rule == nil {
		return true
	}
	current, _ := Lookup(values, rule.Field)

	switch rule.Operator {
	case schema.OpEquals:
		return equal(current, rule.Value)
	case schema.OpNotEquals:
		return !equal(current, rule.Value)
	case schema.OpContains:
		return contains(current, rule.Value)
	case schema.OpGreaterThan:
		got, want, ok := numbers(current, rule.Value)
		return ok && got > want
	case schema.OpLessThan:
		got, want, ok := numbers(current, rule.Value)
		return ok && got < want
	default:
		return false
	}
}

// IsFieldVisible short-circuits on the hidden flag and otherwise evaluates the
// field's conditional rule.
func IsFieldVisible(values map[string]any, field schema.Field) bool {
	if field.Hidden {
		return false
	}
	return Evaluate(values, field.Conditional)
}

// Lookup reads path from values. Exact keys win over dotted traversal so flat
// bags holding keys like "address.city" resolve directly.
func Lookup(values map[string]any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if len(values) == 0 || path == "" {
		return nil, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}

	var current any = values
	for _, part := range strings.Split(path, ".") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

// Number coerces numeric kinds and numeric strings to float64.
func Number(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNumberKind(a) && isNumberKind(b) {
		x, _ := Number(a)
		y, _ := Number(b)
		return x == y
	}
	if isScalar(a) && isScalar(b) {
		return scalarString(a) == scalarString(b)
	}
	return reflect.DeepEqual(a, b)
}

func contains(haystack, needle any) bool {
	switch h := haystack.(type) {
	case nil:
		return false
	case string:
		return strings.Contains(h, scalarString(needle))
	case []string:
		for _, item := range h {
			if equal(item, needle) {
				return true
			}
		}
		return false
	case []any:
		for _, item := range h {
			if equal(item, needle) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func numbers(a, b any) (float64, float64, bool) {
	if !isNumberKind(a) || !isNumberKind(b) {
		return 0, 0, false
	}
	x, _ := Number(a)
	y, _ := Number(b)
	return x, y, true
}

func isNumberKind(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32, uint, uint64, uint32:
		return true
	}
	return false
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool:
		return true
	}
	return isNumberKind(v)
}

func scalarString(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
