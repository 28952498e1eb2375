package schema

// Operator names the comparison a Conditional applies.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
)

// Valid reports whether op is a supported operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan:
		return true
	}
	return false
}

// CustomFunc inspects a value and returns a non-empty message when it is
// invalid.
type CustomFunc func(value any) string

// Option is one (label, value) pair of a select or multiselect field.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value any    `json:"value" yaml:"value"`
}

// Layout carries relative column spans (out of 12) per breakpoint. Zero means
// "inherit from the next smaller breakpoint".
type Layout struct {
	XS int `json:"xs,omitempty" yaml:"xs,omitempty"`
	SM int `json:"sm,omitempty" yaml:"sm,omitempty"`
	MD int `json:"md,omitempty" yaml:"md,omitempty"`
	LG int `json:"lg,omitempty" yaml:"lg,omitempty"`
}

// Validation groups the constraint checks attached to one field. Checks run
// in a fixed order: required, length, numeric range, pattern, custom, and the
// JSON Schema check last.
type Validation struct {
	Required  bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	MinLength *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	// Message overrides the pattern failure text.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	// CustomRef names a validator bound at registry load time.
	CustomRef string `json:"customRef,omitempty" yaml:"customRef,omitempty"`
	// JSONSchema constrains the parsed value of json fields.
	JSONSchema map[string]any `json:"jsonSchema,omitempty" yaml:"jsonSchema,omitempty"`

	Custom CustomFunc `json:"-" yaml:"-"`
}

// Conditional makes a field visible only while the referenced field's live
// value satisfies Operator against Value.
type Conditional struct {
	Field    string   `json:"field" yaml:"field"`
	Value    any      `json:"value" yaml:"value"`
	Operator Operator `json:"operator" yaml:"operator"`
}

// Field declares a single input.
type Field struct {
	ID          string       `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string       `json:"name" yaml:"name"`
	Label       string       `json:"label,omitempty" yaml:"label,omitempty"`
	Type        FieldKind    `json:"type" yaml:"type"`
	Placeholder string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Tooltip     string       `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
	Layout      Layout       `json:"layout,omitempty" yaml:"layout,omitempty"`
	Options     []Option     `json:"options,omitempty" yaml:"options,omitempty"`
	Default     any          `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	Disabled    bool         `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Hidden      bool         `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Validation  *Validation  `json:"validation,omitempty" yaml:"validation,omitempty"`
	Conditional *Conditional `json:"conditional,omitempty" yaml:"conditional,omitempty"`
	// Step is the increment used by number, currency and slider inputs.
	Step *float64 `json:"step,omitempty" yaml:"step,omitempty"`
	// Accept restricts image and file pickers, e.g. "image/png,image/jpeg".
	Accept string `json:"accept,omitempty" yaml:"accept,omitempty"`
	// Currency is the ISO code shown beside currency inputs.
	Currency string `json:"currency,omitempty" yaml:"currency,omitempty"`
}

// Kind returns the field kind, treating an empty type as KindDefault.
func (f Field) Kind() FieldKind {
	if f.Type == "" {
		return KindDefault
	}
	return f.Type
}

// Required reports whether the field carries a required validation.
func (f Field) Required() bool {
	return f.Validation != nil && f.Validation.Required
}

// DisplayLabel falls back to the field name when no label is set.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Section is an ordered, collapsible group of fields.
type Section struct {
	ID          string  `json:"id" yaml:"id"`
	Title       string  `json:"title,omitempty" yaml:"title,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field `json:"fields" yaml:"fields"`
	// Expanded is the initial expand state; nil means expanded.
	Expanded *bool `json:"defaultExpanded,omitempty" yaml:"defaultExpanded,omitempty"`
}

// DefaultExpanded resolves the initial expand state.
func (s Section) DefaultExpanded() bool {
	if s.Expanded == nil {
		return true
	}
	return *s.Expanded
}

// ActionLabels holds the captions of the form action row.
type ActionLabels struct {
	Submit string `json:"submit,omitempty" yaml:"submit,omitempty"`
	Cancel string `json:"cancel,omitempty" yaml:"cancel,omitempty"`
	Reset  string `json:"reset,omitempty" yaml:"reset,omitempty"`
	Delete string `json:"delete,omitempty" yaml:"delete,omitempty"`
}

const (
	DefaultSubmitLabel = "Save"
	DefaultCancelLabel = "Cancel"
	DefaultResetLabel  = "Reset"
	DefaultDeleteLabel = "Delete"
)

// Resolved fills empty captions with their defaults.
func (a ActionLabels) Resolved() ActionLabels {
	if a.Submit == "" {
		a.Submit = DefaultSubmitLabel
	}
	if a.Cancel == "" {
		a.Cancel = DefaultCancelLabel
	}
	if a.Reset == "" {
		a.Reset = DefaultResetLabel
	}
	if a.Delete == "" {
		a.Delete = DefaultDeleteLabel
	}
	return a
}

// Schema describes an entire form.
type Schema struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title,omitempty" yaml:"title,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Sections    []Section    `json:"sections" yaml:"sections"`
	Actions     ActionLabels `json:"actions,omitempty" yaml:"actions,omitempty"`
}
