// Package tui drives forms from a terminal. Fill walks a live engine form
// prompt by prompt; Render prints a snapshot of one.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/controls"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/render"
)

// Name is the registry key of the terminal renderer.
const Name = "tui"

const defaultMaxAttempts = 3

// Renderer implements render.Renderer for terminals and runs interactive fill
// sessions.
type Renderer struct {
	driver       PromptDriver
	out          io.Writer
	outputFormat OutputFormat
	theme        Theme
	maxAttempts  int
	readFile     FileReader
	logger       *zap.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, pretty output).
func New(options ...Option) *Renderer {
	r := &Renderer{
		out:          os.Stdout,
		outputFormat: OutputFormatPrettyText,
		maxAttempts:  defaultMaxAttempts,
		readFile:     defaultReadFile,
		logger:       zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(r.out)
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render serializes view without prompting. JSON and form output carry the
// value bag; pretty output lists visible fields by section with their errors.
func (r *Renderer) Render(ctx context.Context, view engine.View, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch r.outputFormat {
	case OutputFormatJSON:
		return json.Marshal(view.Values)
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(view.Values)), nil
	}

	view = render.CloneView(view)
	render.LocalizeView(&view, opts)
	render.ApplySubset(&view, opts.Subset)
	if len(opts.Errors) > 0 {
		render.ApplyErrors(&view, render.MapErrorPayload(view, opts.Errors))
	}
	return []byte(r.prettyView(view)), nil
}

func (r *Renderer) prettyView(view engine.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", view.Title, view.Mode)
	if view.Failure != "" {
		fmt.Fprintf(&b, "%s%s\n", r.theme.ErrorPrefix, view.Failure)
	}
	for _, section := range view.Sections {
		fields := section.VisibleFields()
		if len(fields) == 0 {
			continue
		}
		title := section.Title
		if title == "" {
			title = section.ID
		}
		fmt.Fprintf(&b, "\n== %s ==\n", title)
		if !section.Expanded {
			fmt.Fprintf(&b, "  (%d fields collapsed)\n", len(fields))
			continue
		}
		for _, fv := range fields {
			control, err := controls.New(controls.Props{Field: fv.Field, Value: fv.Value, Error: fv.Error})
			if err != nil {
				fmt.Fprintf(&b, "  %s: %s\n", fv.Field.DisplayLabel(), controls.Format(fv.Value))
				continue
			}
			fmt.Fprintf(&b, "  %s: %s\n", promptLabel(control), displayText(control))
			if fv.Error != "" {
				fmt.Fprintf(&b, "    %s%s\n", r.theme.ErrorPrefix, fv.Error)
			}
		}
	}
	return b.String()
}

func displayText(c *controls.Control) string {
	switch c.Widget {
	case controls.WidgetSelect, controls.WidgetMultiSelect:
		var labels []string
		for _, opt := range c.Options() {
			if opt.Selected {
				labels = append(labels, opt.Label)
			}
		}
		if len(labels) > 0 {
			return strings.Join(labels, ", ")
		}
	case controls.WidgetImage, controls.WidgetFile:
		if contentType, data, err := controls.ParseDataURL(c.ImageSource()); err == nil {
			return fmt.Sprintf("<%s, %d bytes>", contentType, len(data))
		}
	case controls.WidgetSwitch, controls.WidgetCheckbox:
		if c.Checked() {
			return "yes"
		}
		return "no"
	}
	return strings.ReplaceAll(c.Text(), "\n", " ")
}

func promptLabel(c *controls.Control) string {
	if c.Required {
		return c.Label + " *"
	}
	return c.Label
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	flatten("", values, flattened)
	return flattened.Encode()
}

func flatten(prefix string, value any, out url.Values) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			next := key
			if prefix != "" {
				next = prefix + "." + key
			}
			flatten(next, v[key], out)
		}
	case []any:
		for _, val := range v {
			out.Add(prefix+"[]", controls.Format(val))
		}
	case []string:
		for _, val := range v {
			out.Add(prefix+"[]", val)
		}
	case nil:
		out.Set(prefix, "")
	default:
		out.Set(prefix, controls.Format(v))
	}
}
