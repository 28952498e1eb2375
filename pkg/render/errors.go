package render

import (
	"sort"
	"strings"

	"github.com/goliatone/go-formengine/pkg/engine"
)

// ErrorMapping splits feedback into messages for named fields and messages
// for the form as a whole.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors joins message lists, dropping blanks and repeats.
func MergeFormErrors(existing []string, extras ...string) []string {
	all := make([]string, 0, len(existing)+len(extras))
	all = append(all, existing...)
	return dedupeMessages(append(all, extras...))
}

// MapErrorPayload assigns feedback keys to the fields of view. A key is a
// field name, optionally written as a JSON pointer ("/photo") or with an item
// suffix ("steps[2]", "location.lat"). Keys that name no field become
// form-level messages, in key order.
func MapErrorPayload(view engine.View, payload map[string][]string) ErrorMapping {
	names := make(map[string]bool)
	for _, section := range view.Sections {
		for _, fv := range section.Fields {
			names[fv.Field.Name] = true
		}
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var mapping ErrorMapping
	for _, key := range keys {
		messages := dedupeMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		name, ok := fieldName(key, names)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		mapping.Fields[name] = dedupeMessages(append(mapping.Fields[name], messages...))
	}
	mapping.Form = dedupeMessages(mapping.Form)
	return mapping
}

func fieldName(key string, names map[string]bool) (string, bool) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if names[key] {
		return key, true
	}
	if i := strings.IndexAny(key, "[./"); i > 0 {
		key = key[:i]
	}
	return key, names[key]
}

func dedupeMessages(messages []string) []string {
	var out []string
	seen := make(map[string]bool, len(messages))
	for _, message := range messages {
		message = strings.TrimSpace(message)
		if message == "" || seen[message] {
			continue
		}
		seen[message] = true
		out = append(out, message)
	}
	return out
}

// ApplyErrors overlays mapping onto view. A field's first message replaces
// whatever the engine reported for it; form-level messages are joined into
// the failure banner.
func ApplyErrors(view *engine.View, mapping ErrorMapping) {
	if view == nil {
		return
	}
	if len(mapping.Fields) > 0 {
		if view.Errors == nil {
			view.Errors = make(map[string]string, len(mapping.Fields))
		}
		for i := range view.Sections {
			for j := range view.Sections[i].Fields {
				fv := &view.Sections[i].Fields[j]
				if messages := mapping.Fields[fv.Field.Name]; len(messages) > 0 {
					fv.Error = messages[0]
					view.Errors[fv.Field.Name] = messages[0]
				}
			}
		}
	}
	if len(mapping.Form) > 0 {
		view.Failure = strings.Join(MergeFormErrors([]string{view.Failure}, mapping.Form...), "; ")
	}
}
