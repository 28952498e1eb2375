package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// ErrMissingTranslator is passed to the missing handler when a key needs
// translating but no Translator was configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves a message key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler returns the text to show for a key that could not
// be translated. args[0] is a map holding the untranslated "default" when one
// exists.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	if len(args) > 0 {
		if hint, ok := args[0].(map[string]any); ok {
			if fallback, ok := hint["default"].(string); ok && strings.TrimSpace(fallback) != "" {
				return fallback
			}
		}
	}
	return key
}

// Message keys follow the pattern <schema id>.<path>, for example
// "lab_tests.test.fields.fasting.label" or
// "lab_tests.test.sections.basics.title". Action labels use "actions.submit",
// "actions.cancel", "actions.reset" and "actions.delete".
func fieldKey(schemaID, name, part string) string {
	return schemaID + ".fields." + name + "." + part
}

func sectionKey(schemaID, id, part string) string {
	return schemaID + ".sections." + id + "." + part
}

// LocalizeView translates the human-readable text in view in place. It is a
// no-op when neither a Translator nor a locale is set. Values and field names
// are never touched.
func LocalizeView(view *engine.View, opts RenderOptions) {
	if view == nil || (opts.Translator == nil && opts.Locale == "") {
		return
	}

	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	tr := func(key, fallback string) string {
		return translate(opts.Locale, key, fallback, opts.Translator, onMissing)
	}

	id := view.SchemaID
	view.Title = tr(id+".title", view.Title)
	if view.Description != "" {
		view.Description = tr(id+".description", view.Description)
	}

	view.Labels = schema.ActionLabels{
		Submit: tr("actions.submit", view.Labels.Submit),
		Cancel: tr("actions.cancel", view.Labels.Cancel),
		Reset:  tr("actions.reset", view.Labels.Reset),
		Delete: tr("actions.delete", view.Labels.Delete),
	}

	for i := range view.Sections {
		section := &view.Sections[i]
		if section.Title != "" {
			section.Title = tr(sectionKey(id, section.ID, "title"), section.Title)
		}
		if section.Description != "" {
			section.Description = tr(sectionKey(id, section.ID, "description"), section.Description)
		}
		for j := range section.Fields {
			localizeField(&section.Fields[j].Field, id, tr)
		}
	}
}

func localizeField(field *schema.Field, schemaID string, tr func(key, fallback string) string) {
	name := field.Name
	field.Label = tr(fieldKey(schemaID, name, "label"), field.DisplayLabel())
	if field.Description != "" {
		field.Description = tr(fieldKey(schemaID, name, "description"), field.Description)
	}
	if field.Placeholder != "" {
		field.Placeholder = tr(fieldKey(schemaID, name, "placeholder"), field.Placeholder)
	}
	if field.Tooltip != "" {
		field.Tooltip = tr(fieldKey(schemaID, name, "tooltip"), field.Tooltip)
	}
	if len(field.Options) == 0 {
		return
	}
	// The options slice is shared with the engine's schema.
	options := make([]schema.Option, len(field.Options))
	for i, opt := range field.Options {
		opt.Label = tr(fieldKey(schemaID, name, "options."+fmt.Sprint(opt.Value)), opt.Label)
		options[i] = opt
	}
	field.Options = options
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}

	if t == nil {
		if onMissing != nil {
			return onMissing(locale, key, []any{map[string]any{"default": fallback}}, ErrMissingTranslator)
		}
		if strings.TrimSpace(fallback) != "" {
			return fallback
		}
		return key
	}

	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}

	if onMissing != nil {
		return onMissing(locale, key, []any{map[string]any{"default": fallback}}, err)
	}
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}

// TemplateFuncs returns helpers for template engines, bound to opts' locale:
//
//	translate(key, ...args) string
//	current_locale() string
func TemplateFuncs(opts RenderOptions) map[string]any {
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	return map[string]any{
		"translate": func(key string, params ...any) string {
			key = strings.TrimSpace(key)
			if key == "" {
				return ""
			}
			if opts.Translator == nil {
				return onMissing(opts.Locale, key, params, ErrMissingTranslator)
			}
			msg, err := opts.Translator.Translate(opts.Locale, key, params...)
			if err != nil || strings.TrimSpace(msg) == "" {
				return onMissing(opts.Locale, key, params, err)
			}
			return msg
		},
		"current_locale": func() string {
			return opts.Locale
		},
	}
}
