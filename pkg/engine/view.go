package engine

import (
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// View is a consistent snapshot of everything a renderer needs.
type View struct {
	SchemaID    string
	Title       string
	Description string
	Mode        Mode
	State       State
	Busy        bool
	Failure     string
	Sections    []SectionView
	Labels      schema.ActionLabels
	// ShowActions is false in view mode, which hides the action row.
	ShowActions   bool
	CanDelete     bool
	DeletePending bool
	Values        map[string]any
	Errors        validation.Errors
}

// SectionView is one section with its visible fields.
type SectionView struct {
	ID          string
	Title       string
	Description string
	Expanded    bool
	Fields      []FieldView
}

// FieldView pairs a field with its live value, error and visibility.
type FieldView struct {
	Field    schema.Field
	Value    any
	Error    string
	Visible  bool
	Disabled bool
}

// View snapshots the form. Invisible fields are included with Visible false
// so renderers can decide whether to emit placeholders.
func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	readOnly := f.mode == ModeView || f.state == StateClosed
	v := View{
		SchemaID:      f.schema.ID,
		Title:         f.schema.Title,
		Description:   f.schema.Description,
		Mode:          f.mode,
		State:         f.state,
		Busy:          f.busy,
		Failure:       f.failure,
		Labels:        f.schema.Labels(),
		ShowActions:   f.mode != ModeView,
		CanDelete:     f.CanDelete(),
		DeletePending: f.pending,
		Values:        cloneValues(f.values),
		Errors:        f.errors.Clone(),
	}
	for _, section := range f.schema.Sections {
		sv := SectionView{
			ID:          section.ID,
			Title:       section.Title,
			Description: section.Description,
			Expanded:    f.expanded[section.ID],
		}
		for _, field := range section.Fields {
			sv.Fields = append(sv.Fields, FieldView{
				Field:    field,
				Value:    deepCopy(f.values[field.Name]),
				Error:    f.errors[field.Name],
				Visible:  visibility.IsFieldVisible(f.values, field),
				Disabled: readOnly || field.Disabled,
			})
		}
		v.Sections = append(v.Sections, sv)
	}
	return v
}

// VisibleFields returns the fields of sv that are currently shown.
func (sv SectionView) VisibleFields() []FieldView {
	out := make([]FieldView, 0, len(sv.Fields))
	for _, fv := range sv.Fields {
		if fv.Visible {
			out = append(out, fv)
		}
	}
	return out
}
