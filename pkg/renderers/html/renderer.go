// Package html renders an engine View to HTML with pongo2 templates.
//
// Every control has its own template under widgets/, wrapped by field.html and
// laid out by form.html. Theme partials named "forms.<widget>" replace the
// built-in widget template when the theme configuration provides one.
package html

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/flosch/pongo2/v6"
	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/controls"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/render"
)

// Name is the registry key of the HTML renderer.
const Name = "html"

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS fs.FS
	theme      *theme.RendererConfig
	logger     *zap.Logger
}

// WithTemplatesFS layers files over the built-in templates. Files present in
// both win from files.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads override templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTheme applies theme tokens and partials to every render.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

// WithLogger routes renderer warnings to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Renderer implements render.Renderer for HTML output.
type Renderer struct {
	templates *templates
	theme     *theme.RendererConfig
	logger    *zap.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer applying any provided options.
func New(options ...Option) *Renderer {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	return &Renderer{
		templates: newTemplates(cfg.templateFS, TemplatesFS()),
		theme:     cfg.theme,
		logger:    cfg.logger,
	}
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render writes view as a complete <form> element. The view is copied before
// localisation, subsetting and error overlay, so callers may reuse it.
func (r *Renderer) Render(ctx context.Context, view engine.View, opts render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	view = render.CloneView(view)
	render.LocalizeView(&view, opts)
	render.ApplySubset(&view, opts.Subset)
	if len(opts.Errors) > 0 {
		render.ApplyErrors(&view, render.MapErrorPayload(view, opts.Errors))
	}

	sections := make([]map[string]any, 0, len(view.Sections))
	for _, section := range view.Sections {
		fields := make([]string, 0, len(section.Fields))
		for _, fv := range section.Fields {
			if !fv.Visible {
				continue
			}
			markup, err := r.renderField(fv, opts)
			if errors.Is(err, controls.ErrNoWidget) {
				r.logger.Warn("html renderer: skipping field without control",
					zap.String("form", view.SchemaID),
					zap.String("field", fv.Field.Name),
					zap.String("kind", string(fv.Field.Type)),
				)
				continue
			}
			if err != nil {
				return nil, err
			}
			fields = append(fields, markup)
		}
		if len(fields) == 0 {
			continue
		}
		sections = append(sections, map[string]any{
			"id":          section.ID,
			"title":       section.Title,
			"description": sanitizeText(section.Description),
			"expanded":    section.Expanded,
			"fields":      fields,
		})
	}

	data := r.baseContext(opts)
	data["form"] = formData(view, opts, sections)
	out, err := r.templates.render("form.html", data)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (r *Renderer) renderField(fv engine.FieldView, opts render.RenderOptions) (string, error) {
	control, err := controls.New(controls.Props{
		Field:    fv.Field,
		Value:    fv.Value,
		Error:    fv.Error,
		Disabled: fv.Disabled,
	})
	if err != nil {
		return "", err
	}

	data := r.baseContext(opts)
	data["f"] = fieldData(control)
	widget, err := r.templates.render(r.widgetTemplate(control.Widget), data)
	if err != nil {
		return "", err
	}
	data["control"] = widget
	return r.templates.render("field.html", data)
}

func (r *Renderer) widgetTemplate(widget controls.Widget) string {
	if r.theme != nil {
		if partial := strings.TrimSpace(r.theme.Partials["forms."+string(widget)]); partial != "" {
			return partial
		}
	}
	return "widgets/" + string(widget) + ".html"
}

func (r *Renderer) baseContext(opts render.RenderOptions) pongo2.Context {
	data := pongo2.Context{}
	for name, fn := range render.TemplateFuncs(opts) {
		data[name] = fn
	}
	data["theme"] = themeData(r.theme)
	return data
}

func themeData(cfg *theme.RendererConfig) map[string]any {
	if cfg == nil {
		return map[string]any{}
	}
	data := map[string]any{
		"name":    cfg.Theme,
		"variant": cfg.Variant,
		"css":     cssVarsStyle(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		data["stylesheet"] = cfg.AssetURL("stylesheet")
	}
	return data
}

func formData(view engine.View, opts render.RenderOptions, sections []map[string]any) map[string]any {
	method, override := formMethod(opts.Method)
	hidden := opts.Hidden
	if override != "" {
		hidden = append(append([]render.HiddenField(nil), hidden...), render.Hidden("_method", override))
	}
	hiddenData := make([]map[string]any, 0, len(hidden))
	for _, h := range render.SortedHiddenFields(render.MergeHiddenFields(nil, hidden...)) {
		hiddenData = append(hiddenData, map[string]any{"name": h.Name, "value": h.Value})
	}

	return map[string]any{
		"id":             view.SchemaID,
		"title":          view.Title,
		"description":    sanitizeText(view.Description),
		"mode":           string(view.Mode),
		"state":          string(view.State),
		"busy":           view.Busy,
		"failure":        view.Failure,
		"action":         opts.Action,
		"method":         method,
		"hidden":         hiddenData,
		"sections":       sections,
		"show_actions":   view.ShowActions,
		"can_delete":     view.CanDelete,
		"delete_pending": view.DeletePending,
		"labels": map[string]any{
			"submit": view.Labels.Submit,
			"cancel": view.Labels.Cancel,
			"reset":  view.Labels.Reset,
			"delete": view.Labels.Delete,
		},
	}
}

// formMethod returns the method attribute and, for verbs browsers cannot
// submit, the value of the _method override input.
func formMethod(method string) (string, string) {
	switch m := strings.ToUpper(strings.TrimSpace(method)); m {
	case "", "POST":
		return "post", ""
	case "GET":
		return "get", ""
	default:
		return "post", m
	}
}

func fieldData(c *controls.Control) map[string]any {
	options := make([]map[string]any, 0)
	for _, opt := range c.Options() {
		options = append(options, map[string]any{
			"label":    opt.Label,
			"value":    opt.Value,
			"selected": opt.Selected,
		})
	}

	rating := c.Rating()
	stars := make([]map[string]any, 0)
	for _, n := range c.Stars() {
		stars = append(stars, map[string]any{"n": n, "filled": n <= rating})
	}

	data := map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"label":       c.Label,
		"widget":      string(c.Widget),
		"kind":        string(c.Kind),
		"input_type":  c.InputType(),
		"text":        c.Text(),
		"placeholder": c.Placeholder,
		"description": sanitizeText(c.Description),
		"tooltip":     sanitizeText(c.Tooltip),
		"required":    c.Required,
		"disabled":    c.Disabled,
		"error":       c.Error,
		"checked":     c.Checked(),
		"options":     options,
		"items":       c.Items(),
		"min":         c.Min(),
		"max":         c.Max(),
		"step":        c.Step(),
		"currency":    c.Currency,
		"accept":      c.Accept,
		"stars":       stars,
		"rating":      rating,
		"lat":         c.Latitude(),
		"lng":         c.Longitude(),
		"image_src":   imageSource(c),
		"attached":    c.Widget == controls.WidgetFile && controls.IsDataURL(c.Value()),
		"layout":      layoutClass(c),
		"describedby": describedBy(c),
	}
	if draft, ok := controls.AsDraft(c.Value()); ok {
		data["draft"] = draft.Raw != ""
	}
	return data
}

// imageSource only lets data URLs and http(s) URLs through to src.
func imageSource(c *controls.Control) string {
	src := strings.TrimSpace(c.ImageSource())
	switch {
	case src == "":
		return ""
	case controls.IsDataURL(src):
		return src
	case strings.HasPrefix(src, "https://"), strings.HasPrefix(src, "http://"):
		return src
	}
	return ""
}

func layoutClass(c *controls.Control) string {
	classes := make([]string, 0, 4)
	for _, bp := range []struct {
		name string
		span int
	}{
		{"xs", c.Layout.XS}, {"sm", c.Layout.SM}, {"md", c.Layout.MD}, {"lg", c.Layout.LG},
	} {
		if bp.span > 0 && bp.span <= 12 {
			classes = append(classes, fmt.Sprintf("fe-col-%s-%d", bp.name, bp.span))
		}
	}
	if len(classes) == 0 {
		return "fe-col-xs-12"
	}
	return strings.Join(classes, " ")
}

func describedBy(c *controls.Control) string {
	var ids []string
	if c.Description != "" {
		ids = append(ids, c.ID+"-description")
	}
	if c.Error != "" {
		ids = append(ids, c.ID+"-error")
	}
	return strings.Join(ids, " ")
}
