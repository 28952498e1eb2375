package schema

import (
	"fmt"
	"strings"
)

// FieldKind enumerates the closed set of inputs a form can declare. KindDefault
// is the explicit plain-input fallback; it is never inferred for a misspelt
// kind.
type FieldKind string

const (
	KindText        FieldKind = "text"
	KindTextarea    FieldKind = "textarea"
	KindEmail       FieldKind = "email"
	KindPassword    FieldKind = "password"
	KindPhone       FieldKind = "phone"
	KindURL         FieldKind = "url"
	KindNumber      FieldKind = "number"
	KindCurrency    FieldKind = "currency"
	KindPercentage  FieldKind = "percentage"
	KindSelect      FieldKind = "select"
	KindMultiSelect FieldKind = "multiselect"
	KindSwitch      FieldKind = "switch"
	KindCheckbox    FieldKind = "checkbox"
	KindDate        FieldKind = "date"
	KindDateTime    FieldKind = "datetime"
	KindTime        FieldKind = "time"
	KindImage       FieldKind = "image"
	KindFile        FieldKind = "file"
	KindRating      FieldKind = "rating"
	KindSlider      FieldKind = "slider"
	KindTags        FieldKind = "tags"
	KindArray       FieldKind = "array"
	KindLocation    FieldKind = "location"
	KindCoordinates FieldKind = "coordinates"
	KindJSON        FieldKind = "json"
	KindDefault     FieldKind = "default"
)

var allKinds = []FieldKind{
	KindText,
	KindTextarea,
	KindEmail,
	KindPassword,
	KindPhone,
	KindURL,
	KindNumber,
	KindCurrency,
	KindPercentage,
	KindSelect,
	KindMultiSelect,
	KindSwitch,
	KindCheckbox,
	KindDate,
	KindDateTime,
	KindTime,
	KindImage,
	KindFile,
	KindRating,
	KindSlider,
	KindTags,
	KindArray,
	KindLocation,
	KindCoordinates,
	KindJSON,
	KindDefault,
}

var kindAliases = map[string]FieldKind{
	"string":       KindText,
	"input":        KindText,
	"long_text":    KindTextarea,
	"long-text":    KindTextarea,
	"integer":      KindNumber,
	"money":        KindCurrency,
	"percent":      KindPercentage,
	"multi_select": KindMultiSelect,
	"multi-select": KindMultiSelect,
	"toggle":       KindSwitch,
	"boolean":      KindSwitch,
	"date-time":    KindDateTime,
	"date_time":    KindDateTime,
	"upload":       KindFile,
	"stars":        KindRating,
	"range":        KindSlider,
	"chips":        KindTags,
	"list":         KindArray,
	"address":      KindLocation,
	"latlng":       KindCoordinates,
	"lat_lng":      KindCoordinates,
	"geo":          KindCoordinates,
	"object":       KindJSON,
}

// Kinds returns every declared field kind in declaration order.
func Kinds() []FieldKind {
	return append([]FieldKind(nil), allKinds...)
}

// ParseKind resolves a kind name (or a known alias) case-insensitively.
func ParseKind(raw string) (FieldKind, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return KindDefault, nil
	}
	for _, kind := range allKinds {
		if string(kind) == name {
			return kind, nil
		}
	}
	if kind, ok := kindAliases[name]; ok {
		return kind, nil
	}
	return KindDefault, fmt.Errorf("schema: unknown field kind %q", raw)
}

// Valid reports whether k is one of the declared kinds.
func (k FieldKind) Valid() bool {
	for _, kind := range allKinds {
		if kind == k {
			return true
		}
	}
	return false
}

// IsTextual reports kinds whose value is a single string typed by the user.
func (k FieldKind) IsTextual() bool {
	switch k {
	case KindText, KindTextarea, KindEmail, KindPassword, KindPhone, KindURL, KindLocation, KindDefault:
		return true
	}
	return false
}

// IsNumeric reports kinds whose value is a number.
func (k FieldKind) IsNumeric() bool {
	switch k {
	case KindNumber, KindCurrency, KindPercentage, KindRating, KindSlider:
		return true
	}
	return false
}

// IsList reports kinds whose value is an ordered list.
func (k FieldKind) IsList() bool {
	switch k {
	case KindMultiSelect, KindTags, KindArray:
		return true
	}
	return false
}

// HasOptions reports kinds that read Field.Options.
func (k FieldKind) HasOptions() bool {
	return k == KindSelect || k == KindMultiSelect
}

// MarshalText implements encoding.TextMarshaler.
func (k FieldKind) MarshalText() ([]byte, error) {
	if k == "" {
		return []byte(KindDefault), nil
	}
	return []byte(k), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Aliases resolve to their
// canonical kind; unknown names are kept verbatim so Lint can report them and
// renderers can refuse them instead of guessing.
func (k *FieldKind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		*k = FieldKind(strings.ToLower(strings.TrimSpace(string(text))))
		return nil
	}
	*k = kind
	return nil
}
