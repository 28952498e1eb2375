package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-formengine/pkg/controls"
	"github.com/goliatone/go-formengine/pkg/engine"
)

// Form buttons post one of these as _action.
const (
	actionSubmit        = "submit"
	actionReset         = "reset"
	actionCancel        = "cancel"
	actionDelete        = "delete"
	actionConfirmDelete = "confirm-delete"
	actionCancelDelete  = "cancel-delete"
)

const uploadSuffix = "__upload"

// maxUpload bounds a single image or file part.
const maxUpload = 8 << 20

var errBadSubmission = errors.New("server: malformed submission")

func isJSON(r *http.Request) bool {
	ct := r.Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "application/json")
}

// applyJSON changes every posted field. Keys that are not fields are refused.
func applyJSON(form *engine.Form, body io.Reader) error {
	dec := json.NewDecoder(body)
	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return fmt.Errorf("%w: %v", errBadSubmission, err)
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := form.Change(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// applyForm decodes a browser post through each field's control, so posted
// text is parsed the same way typed input is. Fields whose inputs are absent
// keep their value.
func applyForm(form *engine.Form, values url.Values, files map[string][]*multipart.FileHeader) error {
	for _, section := range form.Schema().Sections {
		for _, field := range section.Fields {
			if field.Disabled {
				continue
			}
			c, err := form.Control(field.Name)
			if err != nil {
				if errors.Is(err, controls.ErrNoWidget) {
					continue
				}
				return err
			}
			if err := applyControl(c, field.Name, values, files); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyControl(c *controls.Control, name string, values url.Values, files map[string][]*multipart.FileHeader) error {
	switch c.Widget {
	case controls.WidgetSwitch, controls.WidgetCheckbox:
		posted, ok := values[name]
		if !ok {
			return nil
		}
		c.SetChecked(posted[len(posted)-1] == "true")
	case controls.WidgetMultiSelect:
		posted, ok := values[name]
		if !ok {
			return nil
		}
		c.SetSelected(nonBlank(posted))
	case controls.WidgetTags:
		posted, ok := values[name+"[]"]
		if !ok {
			return nil
		}
		c.Clear()
		for _, tag := range posted {
			c.AddTag(tag)
		}
	case controls.WidgetArray:
		items, ok := indexedItems(values, name)
		if !ok {
			return nil
		}
		c.Clear()
		for i, item := range items {
			c.AddItem()
			c.EditItem(i, item)
		}
	case controls.WidgetCoordinates:
		lat, okLat := values[name+"[lat]"]
		lng, okLng := values[name+"[lng]"]
		if okLat {
			c.SetLatitude(lat[0])
		}
		if okLng {
			c.SetLongitude(lng[0])
		}
	case controls.WidgetImage, controls.WidgetFile:
		if headers := files[name+uploadSuffix]; len(headers) > 0 && headers[0].Size > 0 {
			contentType, data, err := readUpload(headers[0])
			if err != nil {
				return err
			}
			c.SetFile(contentType, data)
			return nil
		}
		if posted, ok := values[name]; ok {
			if posted[0] == "" {
				c.Clear()
			} else {
				c.SetText(posted[0])
			}
		}
	default:
		if posted, ok := values[name]; ok {
			c.SetText(posted[0])
		}
	}
	return nil
}

// indexedItems collects name[0], name[1], ... in index order. The hidden
// name[] marker makes an emptied list distinguishable from an absent one.
func indexedItems(values url.Values, name string) ([]string, bool) {
	_, present := values[name+"[]"]
	prefix := name + "["
	type item struct {
		index int
		value string
	}
	var items []item
	for key, posted := range values {
		if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, "]") {
			continue
		}
		n, err := strconv.Atoi(key[len(prefix) : len(key)-1])
		if err != nil || n < 0 {
			continue
		}
		present = true
		items = append(items, item{index: n, value: posted[0]})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].index < items[j].index })
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.value
	}
	return out, present
}

func readUpload(header *multipart.FileHeader) (string, []byte, error) {
	if header.Size > maxUpload {
		return "", nil, fmt.Errorf("%w: %s exceeds %d bytes", errBadSubmission, header.Filename, maxUpload)
	}
	f, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUpload+1))
	if err != nil {
		return "", nil, err
	}
	return header.Header.Get(echo.HeaderContentType), data, nil
}

// applyListEdit handles the +/- buttons of tags and arrays: _add=name or
// _remove=name:index (arrays) / name:tag (tags). It reports whether the post
// was such an edit.
func applyListEdit(form *engine.Form, values url.Values) (bool, error) {
	if name := values.Get("_add"); name != "" {
		c, err := form.Control(name)
		if err != nil {
			return true, err
		}
		c.AddItem()
		return true, nil
	}
	raw := values.Get("_remove")
	if raw == "" {
		return false, nil
	}
	name, target, ok := strings.Cut(raw, ":")
	if !ok {
		return true, fmt.Errorf("%w: _remove %q", errBadSubmission, raw)
	}
	c, err := form.Control(name)
	if err != nil {
		return true, err
	}
	switch c.Widget {
	case controls.WidgetArray:
		index, err := strconv.Atoi(target)
		if err != nil {
			return true, fmt.Errorf("%w: _remove %q", errBadSubmission, raw)
		}
		c.RemoveItem(index)
	case controls.WidgetTags:
		c.RemoveTag(target)
	default:
		return true, fmt.Errorf("%w: %q is not a list", errBadSubmission, name)
	}
	return true, nil
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
