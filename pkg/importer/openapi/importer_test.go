package openapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/schema"
)

const labAPI = `
openapi: 3.0.3
info:
  title: Lab tests
  version: "1.0"
paths:
  /lab-tests:
    get:
      operationId: listLabTests
      responses:
        "200":
          description: ok
    post:
      operationId: createLabTest
      summary: Create lab test
      description: Adds a test to the marketplace catalogue.
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/LabTest'
      responses:
        "201":
          description: created
  /lab-tests/{id}/price:
    patch:
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                price:
                  type: number
                  format: currency
                  x-formengine:
                    currency: INR
      responses:
        "200":
          description: ok
components:
  schemas:
    Audit:
      type: object
      properties:
        id:
          type: string
          readOnly: true
        notes:
          type: string
          maxLength: 1000
    LabTest:
      title: Test details
      allOf:
        - $ref: '#/components/schemas/Audit'
        - type: object
          required: [testName, sample]
          properties:
            testName:
              type: string
              minLength: 2
              maxLength: 80
              x-formengine:
                order: 1
                placeholder: e.g. Lipid profile
            sample:
              type: string
              enum: [blood, urine_sample]
              default: blood
              x-formengine:
                order: 2
            fastingHours:
              type: integer
              minimum: 0
              maximum: 24
            homeCollection:
              type: boolean
            contactEmail:
              type: string
              format: email
            cities:
              type: array
              items:
                type: string
                enum: [pune, delhi]
            keywords:
              type: array
              items:
                type: string
            collectionPoint:
              type: object
              properties:
                lat: {type: number}
                lng: {type: number}
            stars:
              type: integer
              x-formengine:
                kind: rating
            rules:
              type: object
              required: [min]
              properties:
                min: {type: integer}
`

func TestImportRequestBody(t *testing.T) {
	t.Parallel()

	got, err := New().Import(context.Background(), []byte(labAPI), "createLabTest")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got.ID != "createLabTest" || got.Title != "Create lab test" || got.Description == "" {
		t.Fatalf("unexpected header %+v", got)
	}
	if len(got.Sections) != 1 || got.Sections[0].ID != BodySectionID || got.Sections[0].Title != "Test details" {
		t.Fatalf("unexpected sections %+v", got.Sections)
	}

	var names []string
	kinds := map[string]schema.FieldKind{}
	for _, f := range got.Fields() {
		names = append(names, f.Name)
		kinds[f.Name] = f.Type
	}
	wantNames := []string{
		"testName", "sample",
		"cities", "collectionPoint", "contactEmail", "fastingHours", "homeCollection", "keywords", "notes", "rules", "stars",
	}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
	wantKinds := map[string]schema.FieldKind{
		"testName":        schema.KindText,
		"sample":          schema.KindSelect,
		"cities":          schema.KindMultiSelect,
		"collectionPoint": schema.KindCoordinates,
		"contactEmail":    schema.KindEmail,
		"fastingHours":    schema.KindNumber,
		"homeCollection":  schema.KindSwitch,
		"keywords":        schema.KindTags,
		"notes":           schema.KindTextarea,
		"rules":           schema.KindJSON,
		"stars":           schema.KindRating,
	}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}

	testName, _ := got.Field("testName")
	if testName.Label != "Test Name" || testName.Placeholder != "e.g. Lipid profile" {
		t.Fatalf("unexpected testName field %+v", testName)
	}
	if v := testName.Validation; v == nil || !v.Required || *v.MinLength != 2 || *v.MaxLength != 80 {
		t.Fatalf("unexpected testName validation %+v", testName.Validation)
	}

	sample, _ := got.Field("sample")
	wantOptions := []schema.Option{{Label: "Blood", Value: "blood"}, {Label: "Urine Sample", Value: "urine_sample"}}
	if diff := cmp.Diff(wantOptions, sample.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if sample.Default != "blood" {
		t.Fatalf("default not carried: %#v", sample.Default)
	}

	hours, _ := got.Field("fastingHours")
	if hours.Step == nil || *hours.Step != 1 || *hours.Validation.Min != 0 || *hours.Validation.Max != 24 || hours.Validation.Required {
		t.Fatalf("unexpected fastingHours %+v %+v", hours, hours.Validation)
	}

	rules, _ := got.Field("rules")
	if rules.Validation == nil || rules.Validation.JSONSchema == nil {
		t.Fatalf("json field should carry its schema")
	}
	if _, ok := rules.Validation.JSONSchema["properties"]; !ok {
		t.Fatalf("json schema lost properties: %#v", rules.Validation.JSONSchema)
	}

	if _, ok := got.Field("id"); ok {
		t.Fatalf("read-only property should be skipped")
	}
	if issues := schema.Lint(got); len(issues) != 0 {
		t.Fatalf("imported schema should lint clean, got %v", issues)
	}
}

func TestImportOperationWithoutID(t *testing.T) {
	t.Parallel()

	got, err := New().Import(context.Background(), []byte(labAPI), "patch:/lab-tests/{id}/price")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	price, ok := got.Field("price")
	if !ok || price.Type != schema.KindCurrency || price.Currency != "INR" {
		t.Fatalf("unexpected price field %+v", price)
	}
	if got.Title == "" {
		t.Fatalf("expected a fallback title")
	}
}

func TestImportErrors(t *testing.T) {
	t.Parallel()

	im := New()
	ctx := context.Background()
	if _, err := im.Import(ctx, []byte(labAPI), "missing"); !errors.Is(err, ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
	if _, err := im.Import(ctx, []byte(labAPI), "listLabTests"); !errors.Is(err, ErrNoRequestBody) {
		t.Fatalf("expected ErrNoRequestBody, got %v", err)
	}
	if _, err := im.Import(ctx, nil, "x"); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if _, err := im.Import(ctx, []byte("openapi: [broken"), "x"); err == nil {
		t.Fatalf("expected error for malformed document")
	}
}

func TestOperations(t *testing.T) {
	t.Parallel()

	ops, err := New().Operations(context.Background(), []byte(labAPI))
	if err != nil {
		t.Fatalf("Operations: %v", err)
	}
	want := []Operation{
		{ID: "listLabTests", Method: "GET", Path: "/lab-tests"},
		{ID: "createLabTest", Method: "POST", Path: "/lab-tests", Summary: "Create lab test", HasBody: true},
		{ID: "patch:/lab-tests/{id}/price", Method: "PATCH", Path: "/lab-tests/{id}/price", HasBody: true},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestHumanize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"fastingHours":   "Fasting Hours",
		"fasting_hours":  "Fasting Hours",
		"zone-7":         "Zone 7",
		"pincode2":       "Pincode 2",
		"createLabTest":  "Create Lab Test",
		"":               "",
		"already spaced": "Already Spaced",
	}
	for in, want := range cases {
		if got := Humanize(in); got != want {
			t.Errorf("Humanize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoaderSources(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	files := fstest.MapFS{"specs/lab.yaml": {Data: []byte(labAPI)}}
	data, err := NewLoader(WithFileSystem(files)).Load(ctx, SourceFromFS("specs/lab.yaml"))
	if err != nil || string(data) != labAPI {
		t.Fatalf("fs load failed: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openapi.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(labAPI))
	}))
	defer server.Close()

	src, err := SourceFromURL(server.URL + "/openapi.yaml")
	if err != nil {
		t.Fatalf("SourceFromURL: %v", err)
	}
	if _, err := NewLoader().Load(ctx, src); err == nil {
		t.Fatalf("http should be disabled by default")
	}
	data, err = NewLoader(WithHTTPClient(server.Client())).Load(ctx, src)
	if err != nil || string(data) != labAPI {
		t.Fatalf("http load failed: %v", err)
	}
	missing, _ := SourceFromURL(server.URL + "/missing")
	if _, err := NewLoader(WithHTTPClient(server.Client())).Load(ctx, missing); err == nil {
		t.Fatalf("expected status error")
	}

	if _, err := SourceFromURL("ftp://example.com/spec"); err == nil {
		t.Fatalf("expected scheme error")
	}
	arg, err := SourceFromArg("./specs/lab.yaml")
	if err != nil || arg.Kind() != SourceKindFile || arg.Location() != "specs/lab.yaml" {
		t.Fatalf("unexpected arg source %v %v", arg, err)
	}
}
