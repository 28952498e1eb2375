package registry

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
)

const scansYAML = `
module: scans
forms:
  scan:
    title: Scan
    sections:
      - id: main
        fields:
          - name: slug
            type: text
            validation:
              customRef: slug
  center:
    title: Scan center
    sections:
      - id: main
        fields:
          - name: name
            type: text
`

const labJSON = `{
  "module": "lab-tests",
  "forms": {
    "test": {"id": "lab-test", "sections": [{"id": "main", "fields": [{"name": "name", "type": "text"}]}]}
  }
}`

func slugValidator(v any) string {
	s, _ := v.(string)
	if strings.Contains(s, " ") {
		return "Slug cannot contain spaces"
	}
	return ""
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"schemas/scans.yaml": {Data: []byte(scansYAML)},
		"schemas/lab.json":   {Data: []byte(labJSON)},
		"schemas/README.md":  {Data: []byte("ignored")},
	}
	reg, err := LoadFS(fsys, WithValidators(map[string]schema.CustomFunc{"slug": slugValidator}))
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}

	if diff := cmp.Diff([]string{"lab-tests", "scans"}, reg.Modules()); diff != "" {
		t.Fatalf("modules mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"center", "scan"}, reg.Forms("scans")); diff != "" {
		t.Fatalf("forms mismatch (-want +got):\n%s", diff)
	}

	scan := reg.MustLookup("scans", "scan")
	if scan.ID != "scans.scan" {
		t.Fatalf("expected derived id, got %q", scan.ID)
	}
	field, _ := scan.Field("slug")
	if got := validation.Field(field, "has space"); got != "Slug cannot contain spaces" {
		t.Fatalf("custom ref not bound, got %q", got)
	}

	lab := reg.MustLookup("lab-tests", "test")
	if lab.ID != "lab-test" {
		t.Fatalf("explicit id overwritten: %q", lab.ID)
	}
}

func TestLoadFSUnknownValidator(t *testing.T) {
	fsys := fstest.MapFS{"scans.yaml": {Data: []byte(scansYAML)}}
	if _, err := LoadFS(fsys); err == nil || !strings.Contains(err.Error(), `unknown validator "slug"`) {
		t.Fatalf("expected unknown validator error, got %v", err)
	}
	if _, err := LoadFS(fsys, WithLenientRefs()); err != nil {
		t.Fatalf("lenient load failed: %v", err)
	}
}

func TestLoadFSDuplicateForm(t *testing.T) {
	fsys := fstest.MapFS{
		"a.json": {Data: []byte(labJSON)},
		"b.json": {Data: []byte(labJSON)},
	}
	_, err := LoadFS(fsys)
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	reg := New()
	reg.MustRegister("ambulance", "zone", &schema.Schema{Sections: []schema.Section{{ID: "a", Fields: []schema.Field{{Name: "radius"}}}}})

	first := reg.MustLookup("ambulance", "zone")
	first.Sections[0].Fields[0].Name = "mutated"

	second := reg.MustLookup("ambulance", "zone")
	if second.Sections[0].Fields[0].Name != "radius" {
		t.Fatalf("lookup leaked registry state")
	}
	if _, err := reg.Lookup("ambulance", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.MustRegister("m", "f", &schema.Schema{})
	if b.Len() != 0 || a.Len() != 1 {
		t.Fatalf("registries share state: a=%d b=%d", a.Len(), b.Len())
	}
}
