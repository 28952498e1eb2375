// Package controls turns a field declaration and its current value into a
// headless control: the presentation data a renderer needs plus edit methods
// that report new values through a change callback.
//
// A control never writes outside itself. List and map values are copied before
// an edit so the caller's value is left as it was, and the only state a control
// owns is ephemeral UI state such as password visibility or a drag-over
// highlight.
package controls

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// ChangeFunc receives the new value after every edit.
type ChangeFunc func(value any)

// Props is everything a control is built from.
type Props struct {
	Field    schema.Field
	Value    any
	Error    string
	Disabled bool
	OnChange ChangeFunc
}

// OptionView is one option of a select control with its selection state.
type OptionView struct {
	Label    string
	Value    string
	Selected bool

	raw any
}

// Control is a rendered field. Exported fields are read by templates and
// prompt drivers; the edit methods below are the only way to change a value.
type Control struct {
	Widget      Widget
	Kind        schema.FieldKind
	ID          string
	Name        string
	Label       string
	Placeholder string
	Description string
	Tooltip     string
	Layout      schema.Layout
	Required    bool
	Disabled    bool
	Error       string
	Currency    string
	Accept      string

	field    schema.Field
	value    any
	onChange ChangeFunc

	passwordVisible bool
	dragOver        bool
}

// New builds the control for props.Field. Unknown kinds return ErrNoWidget.
func New(props Props) (*Control, error) {
	kind := props.Field.Kind()
	widget, err := WidgetFor(kind)
	if err != nil {
		return nil, err
	}
	id := props.Field.ID
	if id == "" {
		id = "field-" + props.Field.Name
	}
	return &Control{
		Widget:      widget,
		Kind:        kind,
		ID:          id,
		Name:        props.Field.Name,
		Label:       props.Field.DisplayLabel(),
		Placeholder: props.Field.Placeholder,
		Description: props.Field.Description,
		Tooltip:     props.Field.Tooltip,
		Layout:      props.Field.Layout,
		Required:    props.Field.Required(),
		Disabled:    props.Disabled || props.Field.Disabled,
		Error:       props.Error,
		Currency:    props.Field.Currency,
		Accept:      acceptFor(props.Field),
		field:       props.Field,
		value:       props.Value,
		onChange:    props.OnChange,
	}, nil
}

func acceptFor(field schema.Field) string {
	if field.Accept != "" {
		return field.Accept
	}
	if field.Kind() == schema.KindImage {
		return "image/*"
	}
	return ""
}

// Value returns the value the control currently shows.
func (c *Control) Value() any { return c.value }

// Field returns the declaration the control was built from.
func (c *Control) Field() schema.Field { return c.field }

// InputType is the HTML input type for single-line widgets.
func (c *Control) InputType() string {
	switch c.Kind {
	case schema.KindEmail:
		return "email"
	case schema.KindPassword:
		if c.passwordVisible {
			return "text"
		}
		return "password"
	case schema.KindPhone:
		return "tel"
	case schema.KindURL:
		return "url"
	case schema.KindNumber, schema.KindCurrency, schema.KindPercentage:
		return "number"
	case schema.KindDate:
		return "date"
	case schema.KindDateTime:
		return "datetime-local"
	case schema.KindTime:
		return "time"
	case schema.KindSlider:
		return "range"
	case schema.KindImage, schema.KindFile:
		return "file"
	}
	return "text"
}

// Text is the value rendered into a single text box. Percentages are clamped
// to 0..100 for display only; the stored value is untouched.
func (c *Control) Text() string {
	switch c.Widget {
	case WidgetPercentage:
		n, ok := toFloat(c.value)
		if !ok {
			return Format(c.value)
		}
		return Format(clamp(n, 0, 100))
	case WidgetJSON:
		if draft, ok := AsDraft(c.value); ok {
			return draft.Raw
		}
		if c.value == nil {
			return ""
		}
		data, err := json.MarshalIndent(c.value, "", "  ")
		if err != nil {
			return Format(c.value)
		}
		return string(data)
	case WidgetSwitch, WidgetCheckbox:
		return strconv.FormatBool(c.Checked())
	}
	if c.Widget.IsList() {
		return strings.Join(StringList(c.value), ", ")
	}
	if c.Widget == WidgetCoordinates {
		coords := CoordinatesOf(c.value)
		return formatAxis(coords.Lat) + ", " + formatAxis(coords.Lng)
	}
	return Format(c.value)
}

// Checked reports the state of switches and checkboxes.
func (c *Control) Checked() bool {
	switch v := c.value.(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// Items returns list values as strings. Nil becomes an empty list.
func (c *Control) Items() []string {
	return StringList(c.value)
}

// Options returns the declared options with their selection state.
func (c *Control) Options() []OptionView {
	selected := make(map[string]bool)
	if c.Widget == WidgetMultiSelect {
		for _, item := range StringList(c.value) {
			selected[item] = true
		}
	} else if c.value != nil {
		selected[Format(c.value)] = true
	}
	out := make([]OptionView, 0, len(c.field.Options))
	for _, opt := range c.field.Options {
		value := Format(opt.Value)
		out = append(out, OptionView{
			Label:    opt.Label,
			Value:    value,
			Selected: selected[value],
			raw:      opt.Value,
		})
	}
	return out
}

// Min is the lower bound attribute, "" when unbounded.
func (c *Control) Min() string {
	if v := c.field.Validation; v != nil && v.Min != nil {
		return Format(*v.Min)
	}
	switch c.Widget {
	case WidgetPercentage, WidgetSlider, WidgetRating:
		return "0"
	}
	return ""
}

// Max is the upper bound attribute, "" when unbounded.
func (c *Control) Max() string {
	if v := c.field.Validation; v != nil && v.Max != nil {
		return Format(*v.Max)
	}
	switch c.Widget {
	case WidgetPercentage, WidgetSlider:
		return "100"
	case WidgetRating:
		return strconv.Itoa(defaultStars)
	}
	return ""
}

// Step is the increment attribute, "" when unset.
func (c *Control) Step() string {
	if c.field.Step != nil {
		return Format(*c.field.Step)
	}
	if c.Widget == WidgetCurrency {
		return "0.01"
	}
	return ""
}

const defaultStars = 5

// Stars lists rating positions 1..max, never more than schema.MaxRatingStars.
func (c *Control) Stars() []int {
	count := defaultStars
	if v := c.field.Validation; v != nil && v.Max != nil && *v.Max >= 1 {
		count = schema.MaxRatingStars
		if *v.Max < schema.MaxRatingStars {
			count = int(*v.Max)
		}
	}
	out := make([]int, count)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Rating is the current star count, 0 when unset.
func (c *Control) Rating() int {
	n, _ := toFloat(c.value)
	return int(n)
}

// Latitude and Longitude render the coordinate sub-inputs.
func (c *Control) Latitude() string  { return formatAxis(CoordinatesOf(c.value).Lat) }
func (c *Control) Longitude() string { return formatAxis(CoordinatesOf(c.value).Lng) }

func formatAxis(v *float64) string {
	if v == nil {
		return ""
	}
	return Format(*v)
}

// ImageSource is the src to preview for image fields.
func (c *Control) ImageSource() string {
	s, _ := c.value.(string)
	return s
}

// PasswordVisible reports the reveal toggle state.
func (c *Control) PasswordVisible() bool { return c.passwordVisible }

// DragOver reports whether a file is hovering the drop zone.
func (c *Control) DragOver() bool { return c.dragOver }

func clamp(n, lo, hi float64) float64 {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
