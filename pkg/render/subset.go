package render

import (
	"strings"

	"github.com/goliatone/go-formengine/pkg/engine"
)

// Subset selects part of a form. A field is kept when its section id or its
// own name matches; sections left without fields are dropped. Matching is
// case-insensitive.
type Subset struct {
	Sections []string
	Fields   []string
}

// Empty reports whether the subset selects everything.
func (s Subset) Empty() bool {
	return newSubsetMatcher(s).empty()
}

// ParseSubset reads comma separated section and field lists, as accepted by
// the CLI flags and the ?sections= / ?fields= query parameters.
func ParseSubset(sections, fields string) Subset {
	return Subset{
		Sections: parseTokenList(sections),
		Fields:   parseTokenList(fields),
	}
}

// ApplySubset removes sections and fields that do not match subset. When the
// subset is empty or view is nil the view is left unchanged.
func ApplySubset(view *engine.View, subset Subset) {
	if view == nil {
		return
	}

	matcher := newSubsetMatcher(subset)
	if matcher.empty() {
		return
	}

	sections := make([]engine.SectionView, 0, len(view.Sections))
	for _, section := range view.Sections {
		if matcher.matchesSection(section.ID) {
			sections = append(sections, section)
			continue
		}
		var fields []engine.FieldView
		for _, fv := range section.Fields {
			if matcher.matchesField(fv.Field.Name) {
				fields = append(fields, fv)
			}
		}
		if len(fields) == 0 {
			continue
		}
		section.Fields = fields
		sections = append(sections, section)
	}
	view.Sections = sections
	if len(view.Sections) == 0 {
		view.Sections = nil
	}
}

type subsetMatcher struct {
	sections map[string]struct{}
	fields   map[string]struct{}
}

func newSubsetMatcher(subset Subset) subsetMatcher {
	return subsetMatcher{
		sections: normaliseTokens(subset.Sections),
		fields:   normaliseTokens(subset.Fields),
	}
}

func (m subsetMatcher) empty() bool {
	return len(m.sections) == 0 && len(m.fields) == 0
}

func (m subsetMatcher) matchesSection(id string) bool {
	_, ok := m.sections[normaliseToken(id)]
	return ok
}

func (m subsetMatcher) matchesField(name string) bool {
	_, ok := m.fields[normaliseToken(name)]
	return ok
}

func normaliseTokens(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	result := make(map[string]struct{}, len(values))
	for _, value := range values {
		token := normaliseToken(value)
		if token == "" {
			continue
		}
		result[token] = struct{}{}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func normaliseToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func parseTokenList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := normaliseToken(part); token != "" {
			tokens = append(tokens, token)
		}
	}
	return dedupe(tokens)
}
