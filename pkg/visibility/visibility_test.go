package visibility

import (
	"testing"

	"github.com/goliatone/go-formengine/pkg/schema"
)

func TestEvaluateOperators(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		values map[string]any
		rule   *schema.Conditional
		want   bool
	}{
		{"nil rule", nil, nil, true},
		{"equals string", map[string]any{"a": "yes"}, &schema.Conditional{Field: "a", Value: "yes", Operator: schema.OpEquals}, true},
		{"equals mismatch", map[string]any{"a": "no"}, &schema.Conditional{Field: "a", Value: "yes", Operator: schema.OpEquals}, false},
		{"equals int vs float", map[string]any{"a": 3}, &schema.Conditional{Field: "a", Value: 3.0, Operator: schema.OpEquals}, true},
		{"equals bool", map[string]any{"a": true}, &schema.Conditional{Field: "a", Value: true, Operator: schema.OpEquals}, true},
		{"equals missing field", map[string]any{}, &schema.Conditional{Field: "a", Value: "yes", Operator: schema.OpEquals}, false},
		{"not equals missing field", map[string]any{}, &schema.Conditional{Field: "a", Value: "yes", Operator: schema.OpNotEquals}, true},
		{"not equals same", map[string]any{"a": "yes"}, &schema.Conditional{Field: "a", Value: "yes", Operator: schema.OpNotEquals}, false},
		{"contains list member", map[string]any{"a": []any{"x", "y"}}, &schema.Conditional{Field: "a", Value: "y", Operator: schema.OpContains}, true},
		{"contains list absent", map[string]any{"a": []string{"x"}}, &schema.Conditional{Field: "a", Value: "y", Operator: schema.OpContains}, false},
		{"contains substring", map[string]any{"a": "home care"}, &schema.Conditional{Field: "a", Value: "care", Operator: schema.OpContains}, true},
		{"contains on number", map[string]any{"a": 12}, &schema.Conditional{Field: "a", Value: "1", Operator: schema.OpContains}, false},
		{"greater than", map[string]any{"a": 10}, &schema.Conditional{Field: "a", Value: 5, Operator: schema.OpGreaterThan}, true},
		{"greater than numeric string", map[string]any{"a": "10"}, &schema.Conditional{Field: "a", Value: 5, Operator: schema.OpGreaterThan}, false},
		{"less than numeric string", map[string]any{"a": "1"}, &schema.Conditional{Field: "a", Value: 5, Operator: schema.OpLessThan}, false},
		{"greater than string operand", map[string]any{"a": 10}, &schema.Conditional{Field: "a", Value: "5", Operator: schema.OpGreaterThan}, false},
		{"greater than non numeric", map[string]any{"a": "ten"}, &schema.Conditional{Field: "a", Value: 5, Operator: schema.OpGreaterThan}, false},
		{"less than nil", map[string]any{"a": nil}, &schema.Conditional{Field: "a", Value: 5, Operator: schema.OpLessThan}, false},
		{"less than", map[string]any{"a": 1.5}, &schema.Conditional{Field: "a", Value: 2, Operator: schema.OpLessThan}, true},
		{"unknown operator", map[string]any{"a": 1}, &schema.Conditional{Field: "a", Value: 1, Operator: "between"}, false},
		{"dotted path", map[string]any{"geo": map[string]any{"lat": 12.9}}, &schema.Conditional{Field: "geo.lat", Value: 10, Operator: schema.OpGreaterThan}, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Evaluate(tc.values, tc.rule); got != tc.want {
				t.Fatalf("Evaluate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsFieldVisibleHiddenShortCircuits(t *testing.T) {
	t.Parallel()

	field := schema.Field{
		Name:        "b",
		Hidden:      true,
		Conditional: &schema.Conditional{Field: "a", Value: "yes", Operator: schema.OpEquals},
	}
	if IsFieldVisible(map[string]any{"a": "yes"}, field) {
		t.Fatalf("hidden field reported visible")
	}

	field.Hidden = false
	if !IsFieldVisible(map[string]any{"a": "yes"}, field) {
		t.Fatalf("expected field visible when rule matches")
	}
	if IsFieldVisible(map[string]any{"a": "no"}, field) {
		t.Fatalf("expected field invisible when rule fails")
	}
}

func TestEvaluateDoesNotMutateValues(t *testing.T) {
	t.Parallel()

	values := map[string]any{"a": []any{"x"}}
	Evaluate(values, &schema.Conditional{Field: "a", Value: "x", Operator: schema.OpContains})
	if len(values) != 1 || len(values["a"].([]any)) != 1 {
		t.Fatalf("values mutated: %#v", values)
	}
}
