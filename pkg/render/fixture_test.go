package render_test

import (
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/schema"
)

func fixtureView() engine.View {
	return engine.View{
		SchemaID: "lab_tests.test",
		Title:    "Lab test",
		Labels:   schema.ActionLabels{}.Resolved(),
		Sections: []engine.SectionView{
			{
				ID:    "basics",
				Title: "Basics",
				Fields: []engine.FieldView{
					{Field: schema.Field{Name: "name", Label: "Name", Type: schema.KindText}, Visible: true},
					{Field: schema.Field{Name: "sample", Label: "Sample", Type: schema.KindSelect, Options: []schema.Option{
						{Label: "Blood", Value: "blood"}, {Label: "Urine", Value: "urine"},
					}}, Visible: true},
				},
			},
			{
				ID:    "prep",
				Title: "Preparation",
				Fields: []engine.FieldView{
					{Field: schema.Field{Name: "fasting", Type: schema.KindSwitch}, Visible: true},
					{Field: schema.Field{Name: "fasting_hours", Label: "Fasting hours", Type: schema.KindNumber}},
				},
			},
		},
	}
}
