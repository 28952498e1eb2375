// Package validation runs a field's validation block against its current value.
//
// Checks run in a fixed order and the first failure wins: required, length,
// numeric range, pattern, custom. Json fields additionally report unfinished
// drafts and, when declared, a JSON Schema mismatch.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/goliatone/go-formengine/pkg/controls"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// Errors maps a field name to its single error message.
type Errors map[string]string

// Has reports whether name carries an error.
func (e Errors) Has(name string) bool {
	_, ok := e[name]
	return ok
}

// Fields returns the names with errors, sorted.
func (e Errors) Fields() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone copies the bag.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Form validates every visible field of s against values. Hidden fields and
// fields whose conditional rule is not satisfied are skipped. The first
// declaration of a duplicated name wins.
func Form(s *schema.Schema, values map[string]any) Errors {
	errs := make(Errors)
	for _, field := range s.Fields() {
		if !visibility.IsFieldVisible(values, field) {
			continue
		}
		if errs.Has(field.Name) {
			continue
		}
		if msg := Field(field, values[field.Name]); msg != "" {
			errs[field.Name] = msg
		}
	}
	return errs
}

// Field returns the first failing check's message, or "" when value passes.
func Field(field schema.Field, value any) string {
	label := field.DisplayLabel()
	rules := field.Validation
	if rules == nil {
		rules = &schema.Validation{}
	}

	empty := IsEmpty(field.Kind(), value)
	if empty && rules.Required {
		return fmt.Sprintf("%s is required", label)
	}

	// Length, range, pattern and schema checks only apply to a value that is
	// present. Custom checks see every value, empty ones included.
	if !empty {
		if msg := checkLength(label, rules, value); msg != "" {
			return msg
		}
		if msg := checkRange(field.Kind(), label, rules, value); msg != "" {
			return msg
		}
		if msg := checkPattern(label, rules, value); msg != "" {
			return msg
		}
	}
	if rules.Custom != nil {
		if msg := safeCustom(rules.Custom, value); msg != "" {
			return msg
		}
	}
	if field.Kind() == schema.KindJSON {
		if _, ok := controls.AsDraft(value); ok {
			return fmt.Sprintf("%s contains invalid JSON", label)
		}
		if !empty && rules.JSONSchema != nil {
			if err := checkJSONSchema(rules.JSONSchema, value); err != nil {
				return fmt.Sprintf("%s does not match the expected structure: %v", label, err)
			}
		}
	}
	return ""
}

// IsEmpty reports whether value counts as absent for the required check.
// Unticked switches and checkboxes are empty; zero numbers are not.
func IsEmpty(kind schema.FieldKind, value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case bool:
		if kind == schema.KindSwitch || kind == schema.KindCheckbox {
			return !v
		}
		return false
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	case controls.Draft:
		return strings.TrimSpace(v.Raw) == ""
	}
	return false
}

func checkLength(label string, rules *schema.Validation, value any) string {
	if rules.MinLength == nil && rules.MaxLength == nil {
		return ""
	}
	n, unit, ok := length(value)
	if !ok {
		return ""
	}
	if rules.MinLength != nil && n < *rules.MinLength {
		return fmt.Sprintf("%s must be at least %d %s", label, *rules.MinLength, plural(unit, *rules.MinLength))
	}
	if rules.MaxLength != nil && n > *rules.MaxLength {
		return fmt.Sprintf("%s must be at most %d %s", label, *rules.MaxLength, plural(unit, *rules.MaxLength))
	}
	return ""
}

func length(value any) (int, string, bool) {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v), "character", true
	case []any:
		return len(v), "item", true
	case []string:
		return len(v), "item", true
	}
	return 0, "", false
}

func plural(unit string, n int) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

func checkRange(kind schema.FieldKind, label string, rules *schema.Validation, value any) string {
	if rules.Min == nil && rules.Max == nil {
		return ""
	}
	n, ok := visibility.Number(value)
	if !ok {
		if kind.IsNumeric() {
			return fmt.Sprintf("%s must be a number", label)
		}
		return ""
	}
	if rules.Min != nil && n < *rules.Min {
		return fmt.Sprintf("%s must be at least %s", label, formatNumber(*rules.Min))
	}
	if rules.Max != nil && n > *rules.Max {
		return fmt.Sprintf("%s must be at most %s", label, formatNumber(*rules.Max))
	}
	return ""
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func checkPattern(label string, rules *schema.Validation, value any) string {
	if rules.Pattern == "" {
		return ""
	}
	re, err := compile(rules.Pattern)
	if err != nil {
		return fmt.Sprintf("%s has an invalid pattern", label)
	}
	var subjects []string
	switch v := value.(type) {
	case string:
		subjects = []string{v}
	case []string:
		subjects = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				subjects = append(subjects, s)
			}
		}
	default:
		return ""
	}
	for _, subject := range subjects {
		if re.MatchString(subject) {
			continue
		}
		if rules.Message != "" {
			return rules.Message
		}
		return fmt.Sprintf("%s has an invalid format", label)
	}
	return ""
}

var patternCache sync.Map // string -> *regexp.Regexp

func compile(pattern string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, re)
	return re, nil
}

func safeCustom(fn schema.CustomFunc, value any) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("validation failed: %v", r)
		}
	}()
	return fn(value)
}
