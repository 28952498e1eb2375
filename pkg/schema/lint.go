package schema

import (
	"fmt"
	"regexp"
)

// MaxRatingStars caps the stars a rating field offers. A larger max is
// clamped at render time.
const MaxRatingStars = 10

// Issue is one lint finding. Path locates the offending node, e.g.
// "sections[1].fields[0]".
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Lint reports structural problems that the engine tolerates at runtime but
// that almost always indicate an authoring mistake.
func Lint(s *Schema) []Issue {
	if s == nil {
		return []Issue{{Message: "schema is nil"}}
	}

	var issues []Issue
	report := func(path, format string, args ...any) {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if s.ID == "" {
		report("", "schema id is empty")
	}
	if len(s.Sections) == 0 {
		report("", "schema declares no sections")
	}

	names := make(map[string]string)
	sections := make(map[string]int)
	for si, section := range s.Sections {
		sectionPath := fmt.Sprintf("sections[%d]", si)
		if section.ID == "" {
			report(sectionPath, "section id is empty")
		} else if prev, ok := sections[section.ID]; ok {
			report(sectionPath, "section id %q duplicates sections[%d]", section.ID, prev)
		} else {
			sections[section.ID] = si
		}

		for fi, field := range section.Fields {
			path := fmt.Sprintf("%s.fields[%d]", sectionPath, fi)
			if field.Name == "" {
				report(path, "field name is empty")
				continue
			}
			if prev, ok := names[field.Name]; ok {
				report(path, "field name %q duplicates %s; values will alias", field.Name, prev)
			} else {
				names[field.Name] = path
			}
			lintField(field, path, report)
		}
	}

	for si, section := range s.Sections {
		for fi, field := range section.Fields {
			cond := field.Conditional
			if cond == nil {
				continue
			}
			path := fmt.Sprintf("sections[%d].fields[%d].conditional", si, fi)
			if cond.Field == "" {
				report(path, "conditional field is empty")
			} else if _, ok := names[cond.Field]; !ok {
				report(path, "conditional references unknown field %q", cond.Field)
			} else if cond.Field == field.Name {
				report(path, "conditional references its own field")
			}
			if !cond.Operator.Valid() {
				report(path, "unknown operator %q", cond.Operator)
			}
		}
	}

	return issues
}

func lintField(field Field, path string, report func(path, format string, args ...any)) {
	kind := field.Kind()
	if !kind.Valid() {
		report(path, "unknown field kind %q", field.Type)
	}
	if len(field.Options) > 0 && !kind.HasOptions() {
		report(path, "options are ignored by kind %q", kind)
	}
	if kind.HasOptions() && len(field.Options) == 0 {
		report(path, "kind %q declares no options", kind)
	}

	v := field.Validation
	if v == nil {
		return
	}
	vpath := path + ".validation"
	if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
		report(vpath, "min %v exceeds max %v", *v.Min, *v.Max)
	}
	if v.MinLength != nil && v.MaxLength != nil && *v.MinLength > *v.MaxLength {
		report(vpath, "minLength %d exceeds maxLength %d", *v.MinLength, *v.MaxLength)
	}
	if v.MinLength != nil && *v.MinLength < 0 {
		report(vpath, "minLength is negative")
	}
	if v.Pattern != "" {
		if _, err := regexp.Compile(v.Pattern); err != nil {
			report(vpath, "invalid pattern: %v", err)
		}
	}
	if kind == KindRating && v.Max != nil && *v.Max > MaxRatingStars {
		report(vpath, "rating max %v exceeds %d stars", *v.Max, MaxRatingStars)
	}
	if v.JSONSchema != nil && kind != KindJSON {
		report(vpath, "jsonSchema is only checked on json fields")
	}
}
