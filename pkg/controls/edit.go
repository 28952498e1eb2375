package controls

import (
	"encoding/json"
	"strconv"
	"strings"
)

// emit publishes value through the change callback and updates what the
// control shows. Disabled controls ignore edits.
func (c *Control) emit(value any) {
	if c.Disabled {
		return
	}
	c.value = value
	if c.onChange != nil {
		c.onChange(value)
	}
}

// SetText applies typed text according to the widget: numbers are parsed,
// json is parsed into a value or kept as a Draft, selects resolve the option
// whose value matches, switches parse a boolean, list widgets split on
// commas. Everything else stores the string as typed.
func (c *Control) SetText(raw string) {
	switch c.Widget {
	case WidgetNumberInput, WidgetCurrency, WidgetPercentage, WidgetSlider:
		c.emit(ParseNumber(raw))
	case WidgetRating:
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			c.SetRating(n)
			return
		}
		c.emit(ParseNumber(raw))
	case WidgetJSON:
		c.SetJSON(raw)
	case WidgetSelect:
		c.Select(raw)
	case WidgetSwitch, WidgetCheckbox:
		b, _ := strconv.ParseBool(strings.TrimSpace(raw))
		c.SetChecked(b)
	case WidgetMultiSelect:
		c.SetSelected(splitList(raw))
	case WidgetTags:
		var tags []string
		for _, tag := range splitList(raw) {
			tags = appendUnique(tags, tag)
		}
		c.emit(nonNil(tags))
	case WidgetArray:
		c.emit(nonNil(splitList(raw)))
	case WidgetCoordinates:
		lat, lng, _ := strings.Cut(raw, ",")
		coords := Coordinates{Lat: parseAxis(lat), Lng: parseAxis(lng)}
		c.emit(coords.Value())
	default:
		c.emit(raw)
	}
}

// SetChecked sets a switch or checkbox.
func (c *Control) SetChecked(checked bool) {
	c.emit(checked)
}

// Toggle flips a switch or checkbox.
func (c *Control) Toggle() {
	c.emit(!c.Checked())
}

// Select chooses the option whose value renders as value. Blank clears the
// selection; unknown values are ignored.
func (c *Control) Select(value string) {
	if strings.TrimSpace(value) == "" {
		c.emit(nil)
		return
	}
	for _, opt := range c.Options() {
		if opt.Value == value {
			c.emit(opt.raw)
			return
		}
	}
}

// SetSelected replaces a multiselect value with the options matching values,
// in declaration order.
func (c *Control) SetSelected(values []string) {
	wanted := make(map[string]bool, len(values))
	for _, v := range values {
		wanted[v] = true
	}
	out := []any{}
	for _, opt := range c.Options() {
		if wanted[opt.Value] {
			out = append(out, opt.raw)
		}
	}
	c.emit(out)
}

// ToggleOption adds or removes one option of a multiselect.
func (c *Control) ToggleOption(value string) {
	current := AnyList(c.value)
	for i, item := range current {
		if Format(item) == value {
			c.emit(append(current[:i:i], current[i+1:]...))
			return
		}
	}
	for _, opt := range c.Options() {
		if opt.Value == value {
			c.emit(append(current, opt.raw))
			return
		}
	}
}

// AddTag commits typed text as a tag. Input is trimmed; blanks and tags
// already present are dropped.
func (c *Control) AddTag(raw string) {
	tag := strings.TrimSpace(raw)
	if tag == "" {
		return
	}
	tags := StringList(c.value)
	for _, existing := range tags {
		if existing == tag {
			return
		}
	}
	c.emit(append(tags, tag))
}

// RemoveTag removes the first tag equal to value.
func (c *Control) RemoveTag(value string) {
	tags := StringList(c.value)
	for i, tag := range tags {
		if tag == value {
			c.emit(append(tags[:i:i], tags[i+1:]...))
			return
		}
	}
}

// AddItem appends an empty entry to an array field.
func (c *Control) AddItem() {
	c.emit(append(StringList(c.value), ""))
}

// RemoveItem removes the entry at index. Out of range indexes are ignored.
func (c *Control) RemoveItem(index int) {
	items := StringList(c.value)
	if index < 0 || index >= len(items) {
		return
	}
	c.emit(append(items[:index:index], items[index+1:]...))
}

// EditItem replaces the entry at index.
func (c *Control) EditItem(index int, text string) {
	items := StringList(c.value)
	if index < 0 || index >= len(items) {
		return
	}
	items[index] = text
	c.emit(items)
}

// SetJSON parses raw on every keystroke. Input that does not parse is kept as
// a Draft; blank input clears the value.
func (c *Control) SetJSON(raw string) {
	if strings.TrimSpace(raw) == "" {
		c.emit(nil)
		return
	}
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		c.emit(Draft{Raw: raw})
		return
	}
	c.emit(parsed)
}

// SetLatitude and SetLongitude edit one axis. A blank or unparsable axis is
// left out, so partial input yields a partial object.
func (c *Control) SetLatitude(raw string) {
	coords := CoordinatesOf(c.value)
	coords.Lat = parseAxis(raw)
	c.emit(coords.Value())
}

func (c *Control) SetLongitude(raw string) {
	coords := CoordinatesOf(c.value)
	coords.Lng = parseAxis(raw)
	c.emit(coords.Value())
}

func parseAxis(raw string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	return &f
}

// SetRating stores n stars, clamped to the available range.
func (c *Control) SetRating(n int) {
	stars := len(c.Stars())
	if n < 0 {
		n = 0
	}
	if n > stars {
		n = stars
	}
	c.emit(float64(n))
}

// SetFile reads a picked or dropped file into a data URL. Content types
// outside Accept are ignored. Nothing is uploaded here.
func (c *Control) SetFile(contentType string, data []byte) {
	c.dragOver = false
	url := DataURL(contentType, data)
	detected, _, _ := strings.Cut(strings.TrimPrefix(url, "data:"), ";")
	if !accepts(c.Accept, detected) {
		return
	}
	c.emit(url)
}

// Clear empties the control's value.
func (c *Control) Clear() {
	switch {
	case c.Widget.IsList():
		c.emit(emptyList(c.Widget))
	case c.Widget == WidgetSwitch || c.Widget == WidgetCheckbox:
		c.emit(false)
	default:
		c.emit(nil)
	}
}

// TogglePasswordVisibility reveals or masks a password input.
func (c *Control) TogglePasswordVisibility() {
	c.passwordVisible = !c.passwordVisible
}

// SetDragOver toggles the drop zone highlight.
func (c *Control) SetDragOver(over bool) {
	c.dragOver = over
}

func emptyList(w Widget) any {
	if w == WidgetMultiSelect {
		return []any{}
	}
	return []string{}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
