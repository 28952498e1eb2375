package tui

import (
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// fillState tracks which fields a session has already asked about. Answers
// live in the engine; this only decides what to prompt next.
type fillState struct {
	form     *engine.Form
	answered map[string]bool
}

func newFillState(form *engine.Form) *fillState {
	return &fillState{
		form:     form,
		answered: make(map[string]bool),
	}
}

// pending lists visible, enabled fields not yet asked, in schema order.
// Visibility is read from the engine on every call so an answer that reveals
// a field earlier in the schema is picked up on the next pass.
func (s *fillState) pending() []schema.Field {
	var out []schema.Field
	for _, field := range s.form.Schema().Fields() {
		if s.answered[field.Name] || field.Disabled {
			continue
		}
		if !s.form.IsFieldVisible(field.Name) {
			continue
		}
		out = append(out, field)
	}
	return out
}

// withErrors lists visible fields that currently carry an error, in schema
// order, and marks them unanswered.
func (s *fillState) withErrors() []schema.Field {
	var out []schema.Field
	for _, field := range s.form.Schema().Fields() {
		if field.Disabled || s.form.Error(field.Name) == "" || !s.form.IsFieldVisible(field.Name) {
			continue
		}
		delete(s.answered, field.Name)
		out = append(out, field)
	}
	return out
}

func (s *fillState) markAnswered(name string) {
	s.answered[name] = true
}
