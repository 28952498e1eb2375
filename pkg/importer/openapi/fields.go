package openapi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// extensionKey carries per-property overrides:
//
//	x-formengine:
//	  kind: rating
//	  label: Stars
//	  order: 2
const extensionKey = "x-formengine"

type override struct {
	kind        string
	label       string
	placeholder string
	tooltip     string
	currency    string
	accept      string
	order       float64
	hasOrder    bool
	hidden      bool
}

func readOverride(ext map[string]any) override {
	var o override
	raw, ok := ext[extensionKey].(map[string]any)
	if !ok {
		return o
	}
	o.kind, _ = raw["kind"].(string)
	o.label, _ = raw["label"].(string)
	o.placeholder, _ = raw["placeholder"].(string)
	o.tooltip, _ = raw["tooltip"].(string)
	o.currency, _ = raw["currency"].(string)
	o.accept, _ = raw["accept"].(string)
	o.hidden, _ = raw["hidden"].(bool)
	switch v := raw["order"].(type) {
	case float64:
		o.order, o.hasOrder = v, true
	case int:
		o.order, o.hasOrder = float64(v), true
	}
	return o
}

type property struct {
	name     string
	schema   *openapi3.Schema
	override override
}

// convertProperties orders properties by x-formengine order, then by name,
// and turns each into a field. Read-only properties are server owned and
// skipped.
func convertProperties(props openapi3.Schemas, required map[string]bool, logger *zap.Logger) []schema.Field {
	list := make([]property, 0, len(props))
	for name, ref := range props {
		if ref == nil || ref.Value == nil {
			logger.Debug("openapi: skipping unresolved property", zap.String("property", name))
			continue
		}
		if ref.Value.ReadOnly {
			continue
		}
		list = append(list, property{name: name, schema: ref.Value, override: readOverride(ref.Value.Extensions)})
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].override, list[j].override
		switch {
		case a.hasOrder && b.hasOrder && a.order != b.order:
			return a.order < b.order
		case a.hasOrder != b.hasOrder:
			return a.hasOrder
		}
		return list[i].name < list[j].name
	})

	fields := make([]schema.Field, 0, len(list))
	for _, p := range list {
		fields = append(fields, convertField(p, required[p.name]))
	}
	return fields
}

func convertField(p property, required bool) schema.Field {
	src := p.schema
	field := schema.Field{
		Name:        p.name,
		Label:       p.override.label,
		Type:        kindFor(src),
		Placeholder: p.override.placeholder,
		Description: src.Description,
		Tooltip:     p.override.tooltip,
		Default:     src.Default,
		Hidden:      p.override.hidden,
		Currency:    p.override.currency,
		Accept:      p.override.accept,
	}
	if field.Label == "" {
		field.Label = src.Title
	}
	if field.Label == "" {
		field.Label = Humanize(p.name)
	}
	if p.override.kind != "" {
		if kind, err := schema.ParseKind(p.override.kind); err == nil {
			field.Type = kind
		}
	}

	switch field.Type {
	case schema.KindSelect:
		field.Options = optionsFrom(src.Enum)
	case schema.KindMultiSelect:
		if src.Items != nil && src.Items.Value != nil {
			field.Options = optionsFrom(src.Items.Value.Enum)
		}
	case schema.KindImage:
		if field.Accept == "" {
			field.Accept = "image/*"
		}
	}
	if isType(src, openapi3.TypeInteger) && field.Type.IsNumeric() {
		step := 1.0
		field.Step = &step
	}
	field.Validation = validationFor(src, field.Type, required)
	return field
}

// kindFor maps type and format to a field kind.
func kindFor(s *openapi3.Schema) schema.FieldKind {
	format := strings.ToLower(s.Format)
	switch {
	case isType(s, openapi3.TypeBoolean):
		return schema.KindSwitch

	case isType(s, openapi3.TypeInteger), isType(s, openapi3.TypeNumber):
		if len(s.Enum) > 0 {
			return schema.KindSelect
		}
		switch format {
		case "currency", "money":
			return schema.KindCurrency
		case "percent", "percentage":
			return schema.KindPercentage
		case "rating":
			return schema.KindRating
		case "slider", "range":
			return schema.KindSlider
		}
		return schema.KindNumber

	case isType(s, openapi3.TypeArray):
		if s.Items != nil && s.Items.Value != nil {
			if len(s.Items.Value.Enum) > 0 {
				return schema.KindMultiSelect
			}
			if isType(s.Items.Value, openapi3.TypeString) {
				return schema.KindTags
			}
		}
		return schema.KindArray

	case isType(s, openapi3.TypeObject):
		if isCoordinates(s) {
			return schema.KindCoordinates
		}
		return schema.KindJSON

	case isType(s, openapi3.TypeString):
		if len(s.Enum) > 0 {
			return schema.KindSelect
		}
		switch format {
		case "email":
			return schema.KindEmail
		case "password":
			return schema.KindPassword
		case "uri", "url":
			return schema.KindURL
		case "date":
			return schema.KindDate
		case "date-time":
			return schema.KindDateTime
		case "time":
			return schema.KindTime
		case "phone", "tel":
			return schema.KindPhone
		case "image":
			return schema.KindImage
		case "binary", "byte":
			return schema.KindFile
		case "textarea", "markdown":
			return schema.KindTextarea
		case "location", "address":
			return schema.KindLocation
		}
		if s.MaxLength != nil && *s.MaxLength > 255 {
			return schema.KindTextarea
		}
		return schema.KindText
	}
	return schema.KindText
}

func isType(s *openapi3.Schema, name string) bool {
	return s != nil && s.Type != nil && s.Type.Is(name)
}

func isCoordinates(s *openapi3.Schema) bool {
	has := func(names ...string) bool {
		for _, n := range names {
			if _, ok := s.Properties[n]; ok {
				return true
			}
		}
		return false
	}
	return has("lat", "latitude") && has("lng", "lon", "longitude")
}

func optionsFrom(enum []any) []schema.Option {
	if len(enum) == 0 {
		return nil
	}
	options := make([]schema.Option, 0, len(enum))
	for _, value := range enum {
		label := fmt.Sprint(value)
		if str, ok := value.(string); ok {
			label = Humanize(str)
		}
		options = append(options, schema.Option{Label: label, Value: value})
	}
	return options
}

func validationFor(s *openapi3.Schema, kind schema.FieldKind, required bool) *schema.Validation {
	v := &schema.Validation{Required: required}
	set := required

	if s.Min != nil {
		min := *s.Min
		v.Min, set = &min, true
	}
	if s.Max != nil {
		max := *s.Max
		v.Max, set = &max, true
	}
	if s.MinLength > 0 {
		n := int(s.MinLength)
		v.MinLength, set = &n, true
	}
	if s.MaxLength != nil {
		n := int(*s.MaxLength)
		v.MaxLength, set = &n, true
	}
	if s.Pattern != "" {
		v.Pattern, set = s.Pattern, true
	}
	if kind == schema.KindJSON {
		if doc := jsonSchemaOf(s); doc != nil {
			v.JSONSchema, set = doc, true
		}
	}
	if !set {
		return nil
	}
	return v
}

// jsonSchemaOf re-encodes a property schema so json fields are checked
// against the same constraints the API declares.
func jsonSchemaOf(s *openapi3.Schema) map[string]any {
	data, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	delete(out, "nullable")
	delete(out, extensionKey)
	if len(out) == 0 {
		return nil
	}
	return out
}
