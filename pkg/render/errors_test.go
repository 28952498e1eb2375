package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/render"
)

func TestMapErrorPayload(t *testing.T) {
	payload := map[string][]string{
		"/name":            {"Name is taken"},
		"sample":           {"Sample unavailable", " Sample unavailable "},
		"fasting_hours[0]": {"Too long"},
		"non_field_errors": {"Lab is closed"},
		"body.unknown":     {"Should fall back to form errors"},
		"":                 {"Unscoped form error", "  "},
		"fasting":          {"  "},
	}

	mapped := render.MapErrorPayload(fixtureView(), payload)

	wantFields := map[string][]string{
		"name":          {"Name is taken"},
		"sample":        {"Sample unavailable"},
		"fasting_hours": {"Too long"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"Unscoped form error", "Should fall back to form errors", "Lab is closed"}
	if diff := cmp.Diff(wantForm, mapped.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyErrors(t *testing.T) {
	view := fixtureView()
	view.Failure = "save failed"

	render.ApplyErrors(&view, render.ErrorMapping{
		Fields: map[string][]string{"name": {"Name is taken", "second"}},
		Form:   []string{"Lab is closed"},
	})

	if got := view.Sections[0].Fields[0].Error; got != "Name is taken" {
		t.Fatalf("field error not applied: %q", got)
	}
	if view.Errors["name"] != "Name is taken" {
		t.Fatalf("error bag not updated: %v", view.Errors)
	}
	if view.Failure != "save failed; Lab is closed" {
		t.Fatalf("unexpected failure banner %q", view.Failure)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
