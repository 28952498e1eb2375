package schema

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const labTestYAML = `
id: lab-test
title: Lab test
sections:
  - id: basics
    title: Basics
    fields:
      - name: name
        label: Name
        type: text
        validation:
          required: true
          minLength: 2
      - name: home_collection
        type: toggle
        defaultValue: false
      - name: collection_fee
        type: money
        conditional:
          field: home_collection
          value: true
          operator: equals
  - id: extras
    defaultExpanded: false
    fields:
      - name: sample
        type: select
        options:
          - label: Blood
            value: blood
          - label: Urine
            value: urine
`

func TestDecodeYAML(t *testing.T) {
	s, err := Decode([]byte(labTestYAML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if s.ID != "lab-test" || len(s.Sections) != 2 {
		t.Fatalf("unexpected schema: %#v", s)
	}
	fee, ok := s.Field("collection_fee")
	if !ok {
		t.Fatalf("collection_fee missing")
	}
	if fee.Kind() != KindCurrency {
		t.Fatalf("alias not resolved: %q", fee.Type)
	}
	if fee.Conditional == nil || fee.Conditional.Operator != OpEquals || fee.Conditional.Value != true {
		t.Fatalf("conditional not parsed: %#v", fee.Conditional)
	}
	toggle, _ := s.Field("home_collection")
	if toggle.Kind() != KindSwitch {
		t.Fatalf("toggle alias not resolved: %q", toggle.Type)
	}
	if s.Sections[0].DefaultExpanded() != true || s.Sections[1].DefaultExpanded() != false {
		t.Fatalf("expand defaults wrong")
	}
	if got := s.Labels(); got.Submit != DefaultSubmitLabel || got.Delete != DefaultDeleteLabel {
		t.Fatalf("labels not defaulted: %#v", got)
	}
}

func TestDecodeKeepsUnknownKind(t *testing.T) {
	s, err := Decode([]byte(`{"id":"x","sections":[{"id":"s","fields":[{"name":"a","type":"Hologram"}]}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	field, _ := s.Field("a")
	if field.Type != "hologram" || field.Type.Valid() {
		t.Fatalf("unknown kind should be kept verbatim, got %q", field.Type)
	}
}

func TestDecodeEmpty(t *testing.T) {
	if _, err := Decode([]byte("  \n")); err != ErrEmptyDocument {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	original, err := Decode([]byte(labTestYAML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	original.Sections[0].Fields[0].Validation.Custom = func(any) string { return "never" }

	for _, format := range []Format{FormatJSON, FormatYAML} {
		data, err := Encode(original, format)
		if err != nil {
			t.Fatalf("Encode(%s): %v", format, err)
		}
		decoded, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode(%s): %v", format, err)
		}
		opts := []cmp.Option{
			cmpopts.IgnoreFields(Validation{}, "Custom"),
			cmpopts.EquateEmpty(),
		}
		if diff := cmp.Diff(original, decoded, opts...); diff != "" {
			t.Fatalf("%s round trip mismatch (-want +got):\n%s", format, diff)
		}
	}
}

func TestDefaultsAndBind(t *testing.T) {
	s := &Schema{Sections: []Section{{ID: "a", Fields: []Field{
		{Name: "city", Default: "Pune", Validation: &Validation{CustomRef: "slug"}},
		{Name: "zone", Validation: &Validation{CustomRef: "slug"}},
		{Name: "city", Default: "Delhi"},
		{Name: "phone", Validation: &Validation{CustomRef: "phone-in"}},
	}}}}

	if diff := cmp.Diff(map[string]any{"city": "Pune"}, s.Defaults()); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"slug", "phone-in"}, s.CustomRefs()); diff != "" {
		t.Fatalf("refs mismatch (-want +got):\n%s", diff)
	}
	if n := s.Bind("slug", func(any) string { return "" }); n != 2 {
		t.Fatalf("expected 2 bound fields, got %d", n)
	}
	if s.Sections[0].Fields[0].Validation.Custom == nil {
		t.Fatalf("custom func not attached")
	}
}

func TestCloneIsDeep(t *testing.T) {
	lo := 1.0
	s := &Schema{Sections: []Section{{ID: "a", Fields: []Field{
		{Name: "qty", Type: KindNumber, Validation: &Validation{Min: &lo}},
	}}}}
	cp := s.Clone()
	cp.Sections[0].Fields[0].Validation.Required = true
	cp.Sections[0].Fields[0].Name = "changed"

	if s.Sections[0].Fields[0].Validation.Required || s.Sections[0].Fields[0].Name != "qty" {
		t.Fatalf("clone shares state with original")
	}
}

func TestParseKind(t *testing.T) {
	for _, kind := range Kinds() {
		got, err := ParseKind(strings.ToUpper(string(kind)))
		if err != nil || got != kind {
			t.Fatalf("ParseKind(%q) = %q, %v", kind, got, err)
		}
	}
	if got, err := ParseKind(""); err != nil || got != KindDefault {
		t.Fatalf("empty kind should be default, got %q, %v", got, err)
	}
	if _, err := ParseKind("hologram"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestLint(t *testing.T) {
	lo, hi, stars := 10.0, 1.0, 1e19
	s := &Schema{
		ID: "pricing",
		Sections: []Section{{ID: "rules", Fields: []Field{
			{Name: "discount", Type: KindPercentage, Validation: &Validation{Min: &lo, Max: &hi}},
			{Name: "discount", Type: KindText},
			{Name: "code", Type: KindText, Validation: &Validation{Pattern: "(["}},
			{Name: "tier", Type: KindText, Options: []Option{{Label: "Gold", Value: "gold"}}},
			{Name: "bonus", Type: KindNumber, Conditional: &Conditional{Field: "missing", Value: 1, Operator: OpGreaterThan}},
			{Name: "kind", Type: "hologram"},
			{Name: "score", Type: KindRating, Validation: &Validation{Max: &stars}},
		}}},
	}

	issues := Lint(s)
	want := []string{
		"sections[0].fields[0].validation: min 10 exceeds max 1",
		`sections[0].fields[1]: field name "discount" duplicates sections[0].fields[0]; values will alias`,
		"sections[0].fields[2].validation: invalid pattern",
		`sections[0].fields[3]: options are ignored by kind "text"`,
		`sections[0].fields[5]: unknown field kind "hologram"`,
		"sections[0].fields[6].validation: rating max 1e+19 exceeds 10 stars",
		`sections[0].fields[4].conditional: conditional references unknown field "missing"`,
	}
	if len(issues) != len(want) {
		t.Fatalf("expected %d issues, got %d: %v", len(want), len(issues), issues)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(issues[i].String(), prefix) {
			t.Fatalf("issue %d = %q, want prefix %q", i, issues[i], prefix)
		}
	}
}
