package render

import "github.com/goliatone/go-formengine/pkg/engine"

// CloneView copies the parts of view that LocalizeView, ApplySubset and
// ApplyErrors modify, so a renderer can overlay them without touching the
// caller's snapshot.
func CloneView(view engine.View) engine.View {
	sections := make([]engine.SectionView, len(view.Sections))
	for i, section := range view.Sections {
		section.Fields = append([]engine.FieldView(nil), section.Fields...)
		sections[i] = section
	}
	view.Sections = sections
	view.Errors = view.Errors.Clone()
	return view
}
