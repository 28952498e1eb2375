package controls

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// Widget identifies the control used to edit a field.
type Widget string

const (
	WidgetTextInput   Widget = "text-input"
	WidgetTextarea    Widget = "textarea"
	WidgetNumberInput Widget = "number-input"
	WidgetCurrency    Widget = "currency"
	WidgetPercentage  Widget = "percentage"
	WidgetSelect      Widget = "select"
	WidgetMultiSelect Widget = "multiselect"
	WidgetSwitch      Widget = "switch"
	WidgetCheckbox    Widget = "checkbox"
	WidgetDate        Widget = "date"
	WidgetDateTime    Widget = "datetime"
	WidgetTime        Widget = "time"
	WidgetImage       Widget = "image"
	WidgetFile        Widget = "file"
	WidgetRating      Widget = "rating"
	WidgetSlider      Widget = "slider"
	WidgetTags        Widget = "tags"
	WidgetArray       Widget = "array"
	WidgetLocation    Widget = "location"
	WidgetCoordinates Widget = "coordinates"
	WidgetJSON        Widget = "json"
)

// ErrNoWidget reports a field kind with no control. Unknown kinds are refused
// rather than rendered as plain text.
var ErrNoWidget = errors.New("controls: no widget for field kind")

// WidgetFor maps a field kind to its control. The switch is exhaustive over
// schema.Kinds(); adding a kind without a case here fails TestWidgetForCoversEveryKind.
func WidgetFor(kind schema.FieldKind) (Widget, error) {
	switch kind {
	case schema.KindText, schema.KindEmail, schema.KindPassword, schema.KindPhone, schema.KindURL, schema.KindDefault:
		return WidgetTextInput, nil
	case schema.KindTextarea:
		return WidgetTextarea, nil
	case schema.KindNumber:
		return WidgetNumberInput, nil
	case schema.KindCurrency:
		return WidgetCurrency, nil
	case schema.KindPercentage:
		return WidgetPercentage, nil
	case schema.KindSelect:
		return WidgetSelect, nil
	case schema.KindMultiSelect:
		return WidgetMultiSelect, nil
	case schema.KindSwitch:
		return WidgetSwitch, nil
	case schema.KindCheckbox:
		return WidgetCheckbox, nil
	case schema.KindDate:
		return WidgetDate, nil
	case schema.KindDateTime:
		return WidgetDateTime, nil
	case schema.KindTime:
		return WidgetTime, nil
	case schema.KindImage:
		return WidgetImage, nil
	case schema.KindFile:
		return WidgetFile, nil
	case schema.KindRating:
		return WidgetRating, nil
	case schema.KindSlider:
		return WidgetSlider, nil
	case schema.KindTags:
		return WidgetTags, nil
	case schema.KindArray:
		return WidgetArray, nil
	case schema.KindLocation:
		return WidgetLocation, nil
	case schema.KindCoordinates:
		return WidgetCoordinates, nil
	case schema.KindJSON:
		return WidgetJSON, nil
	}
	return "", fmt.Errorf("%w %q", ErrNoWidget, kind)
}

// IsList reports widgets whose value is an ordered list.
func (w Widget) IsList() bool {
	return w == WidgetMultiSelect || w == WidgetTags || w == WidgetArray
}

// IsNumeric reports widgets editing a single number.
func (w Widget) IsNumeric() bool {
	switch w {
	case WidgetNumberInput, WidgetCurrency, WidgetPercentage, WidgetSlider, WidgetRating:
		return true
	}
	return false
}
