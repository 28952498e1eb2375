package html

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	theme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
)

func labSchema() *schema.Schema {
	return &schema.Schema{
		ID:          "lab_tests.test",
		Title:       "Lab test",
		Description: `Tests offered at <b>partner labs</b><script>alert(1)</script>`,
		Sections: []schema.Section{
			{ID: "basics", Title: "Basics", Fields: []schema.Field{
				{Name: "name", Label: "Name", Type: schema.KindText, Placeholder: "CBC",
					Validation: &schema.Validation{Required: true}},
				{Name: "sample", Label: "Sample", Type: schema.KindSelect, Options: []schema.Option{
					{Label: "Blood", Value: "blood"}, {Label: "Urine", Value: "urine"},
				}},
				{Name: "price", Label: "Price", Type: schema.KindCurrency, Currency: "INR"},
			}},
			{ID: "prep", Title: "Preparation", Fields: []schema.Field{
				{Name: "fasting", Label: "Fasting", Type: schema.KindSwitch},
				{Name: "fasting_hours", Label: "Fasting hours", Type: schema.KindNumber,
					Conditional: &schema.Conditional{Field: "fasting", Value: true, Operator: schema.OpEquals}},
			}},
		},
	}
}

func renderForm(t *testing.T, r *Renderer, form *engine.Form, opts render.RenderOptions) string {
	t.Helper()
	out, err := r.Render(context.Background(), form.View(), opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return string(out)
}

func newForm(t *testing.T, s *schema.Schema, values map[string]any, opts ...engine.Option) *engine.Form {
	t.Helper()
	form, err := engine.New(s, values, opts...)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return form
}

func assertContains(t *testing.T, html string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(html, fragment) {
			t.Fatalf("expected output to contain %q\n%s", fragment, html)
		}
	}
}

func assertNotContains(t *testing.T, html string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if strings.Contains(html, fragment) {
			t.Fatalf("expected output not to contain %q\n%s", fragment, html)
		}
	}
}

func TestRenderCreateMode(t *testing.T) {
	form := newForm(t, labSchema(), map[string]any{"sample": "urine"})
	html := renderForm(t, New(), form, render.RenderOptions{
		Action: "/forms/lab_tests/test",
		Hidden: []render.HiddenField{render.CSRFToken("_csrf", "tok")},
	})

	assertContains(t, html,
		`data-form="lab_tests.test"`,
		`action="/forms/lab_tests/test"`,
		`<input type="hidden" name="_csrf" value="tok">`,
		`name="name" required aria-required="true"`,
		`placeholder="CBC"`,
		`<option value="urine" selected>Urine</option>`,
		`<span class="fe-affix-prefix">INR</span>`,
		`role="switch"`,
		`value="submit"`,
		`Tests offered at <b>partner labs</b>`,
	)
	assertNotContains(t, html, `data-field="fasting_hours"`, "<script>", `value="delete"`)
}

func TestRenderConditionalFieldAppears(t *testing.T) {
	form := newForm(t, labSchema(), nil)
	if err := form.Change("fasting", true); err != nil {
		t.Fatalf("Change: %v", err)
	}
	html := renderForm(t, New(), form, render.RenderOptions{})
	assertContains(t, html, `data-field="fasting_hours"`, `checked aria-checked="true"`)
}

func TestRenderViewModeIsReadOnly(t *testing.T) {
	form := newForm(t, labSchema(), map[string]any{"name": "CBC"}, engine.WithMode(engine.ModeView))
	html := renderForm(t, New(), form, render.RenderOptions{})

	assertContains(t, html, `data-mode="view"`, `name="name" required aria-required="true" disabled`)
	assertNotContains(t, html, `class="fe-actions"`)
}

func TestRenderErrorsAndFailure(t *testing.T) {
	form := newForm(t, labSchema(), nil)
	form.Validate()
	html := renderForm(t, New(), form, render.RenderOptions{
		Errors: map[string][]string{
			"/price":           {"Price must be positive"},
			"non_field_errors": {"Lab is closed"},
		},
	})

	assertContains(t, html,
		`<p class="fe-error" id="field-name-error" role="alert">Name is required</p>`,
		`aria-describedby="field-name-error"`,
		`Price must be positive`,
		`<div class="fe-failure" role="alert">Lab is closed</div>`,
	)
}

func TestRenderMethodOverride(t *testing.T) {
	form := newForm(t, labSchema(), nil, engine.WithMode(engine.ModeEdit), engine.WithDelete(func(context.Context) error { return nil }))
	html := renderForm(t, New(), form, render.RenderOptions{Method: "put", Hidden: []render.HiddenField{render.RecordID("abc")}})

	assertContains(t, html,
		`method="post"`,
		`<input type="hidden" name="_method" value="PUT">`,
		`<input type="hidden" name="_record" value="abc">`,
		`value="delete"`,
	)
}

func TestRenderSubsetAndLocale(t *testing.T) {
	form := newForm(t, labSchema(), nil)
	html := renderForm(t, New(), form, render.RenderOptions{
		Subset:     render.Subset{Sections: []string{"prep"}},
		Locale:     "hi",
		Translator: translator{"lab_tests.test.fields.fasting.label": "उपवास"},
	})

	assertContains(t, html, `>उपवास<`)
	assertNotContains(t, html, `data-field="name"`)
}

func TestRenderEveryWidget(t *testing.T) {
	fields := make([]schema.Field, 0, len(schema.Kinds()))
	for _, kind := range schema.Kinds() {
		fields = append(fields, schema.Field{Name: "f_" + strings.ReplaceAll(string(kind), "-", "_"), Type: kind,
			Options: []schema.Option{{Label: "One", Value: "one"}}})
	}
	s := &schema.Schema{ID: "all", Title: "All", Sections: []schema.Section{{ID: "all", Fields: fields}}}
	form := newForm(t, s, map[string]any{
		"f_tags":        []any{"a", "b"},
		"f_array":       []any{"x"},
		"f_coordinates": map[string]any{"lat": 18.5},
		"f_rating":      3.0,
	})

	html := renderForm(t, New(), form, render.RenderOptions{})
	for _, kind := range schema.Kinds() {
		assertContains(t, html, `data-kind="`+string(kind)+`"`)
	}
	assertContains(t, html,
		`name="f_tags[]" value="b"`,
		`name="f_array[0]" value="x"`,
		`name="f_coordinates[lat]" value="18.5"`,
		`fe-star fe-star--filled`,
	)
}

func TestRenderSkipsUnknownKinds(t *testing.T) {
	s := &schema.Schema{ID: "odd", Title: "Odd", Sections: []schema.Section{{ID: "main", Fields: []schema.Field{
		{Name: "ok", Type: schema.KindText},
		{Name: "holo", Type: "hologram"},
	}}}}
	html := renderForm(t, New(), newForm(t, s, nil), render.RenderOptions{})
	assertContains(t, html, `data-field="ok"`)
	assertNotContains(t, html, `data-field="holo"`)
}

func TestRenderThemePartialsAndVars(t *testing.T) {
	overrides := fstest.MapFS{
		"acme/switch.html": {Data: []byte(`<span class="acme-switch">{{ f.name }}</span>`)},
	}
	cfg := ThemeConfig(&theme.Manifest{
		Name:   "acme",
		Tokens: map[string]string{"brand": "#123456"},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens:    map[string]string{"brand": "#654321"},
				Templates: map[string]string{"forms.switch": "acme/switch.html"},
			},
		},
	}, "dark")

	html := renderForm(t, New(WithTemplatesFS(overrides), WithTheme(cfg)), newForm(t, labSchema(), nil), render.RenderOptions{})
	assertContains(t, html,
		`data-theme="acme" data-theme-variant="dark"`,
		`--brand: #654321;`,
		`<span class="acme-switch">fasting</span>`,
	)
}

func TestRenderHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Render(ctx, newForm(t, labSchema(), nil).View(), render.RenderOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestThemeConfigAssets(t *testing.T) {
	cfg := ThemeConfig(&theme.Manifest{
		Name: "acme",
		Assets: theme.Assets{
			Prefix: "/assets/themes/acme/",
			Files:  map[string]string{"stylesheet": "theme.css"},
		},
	}, "")

	if got := cfg.AssetURL("stylesheet"); got != "/assets/themes/acme/theme.css" {
		t.Fatalf("unexpected asset url %q", got)
	}
	if got := cfg.AssetURL("missing"); got != "" {
		t.Fatalf("expected empty url for missing asset, got %q", got)
	}
}

func TestSelectTheme(t *testing.T) {
	selector := &stubSelector{selection: &theme.Selection{
		Theme:    "acme",
		Variant:  "dark",
		Manifest: &theme.Manifest{Name: "acme", Tokens: map[string]string{"brand": "#111"}},
	}}
	cfg, err := SelectTheme(selector, "acme", "dark")
	if err != nil {
		t.Fatalf("SelectTheme: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"--brand": "#111"}, cfg.CSSVars); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"acme/dark"}, selector.calls); diff != "" {
		t.Fatalf("selector calls mismatch (-want +got):\n%s", diff)
	}

	selector.err = errors.New("unknown theme")
	if _, err := SelectTheme(selector, "nope", ""); err == nil {
		t.Fatalf("expected selector error")
	}
}

func TestSanitizeText(t *testing.T) {
	got := sanitizeText(`<p onclick="x()">Call <a href="https://example.com">us</a></p><iframe src="x"></iframe>`)
	assertContains(t, got, `<p>Call <a href="https://example.com"`, `rel="nofollow`)
	assertNotContains(t, got, "onclick", "iframe")
}

type translator map[string]string

func (t translator) Translate(_ string, key string, _ ...any) (string, error) {
	if msg, ok := t[key]; ok {
		return msg, nil
	}
	return "", errors.New("missing")
}

type stubSelector struct {
	selection *theme.Selection
	err       error
	calls     []string
}

func (s *stubSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.calls = append(s.calls, name+"/"+variant)
	return s.selection, s.err
}
