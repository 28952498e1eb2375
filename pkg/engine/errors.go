package engine

import "errors"

var (
	// ErrBusy is returned while a save or delete is in flight.
	ErrBusy = errors.New("engine: form is busy")
	// ErrReadOnly is returned for mutations attempted in view mode.
	ErrReadOnly = errors.New("engine: form is read-only")
	// ErrUnknownField is returned when a change names no declared field.
	ErrUnknownField = errors.New("engine: unknown field")
	// ErrUnknownSection is returned when toggling an undeclared section.
	ErrUnknownSection = errors.New("engine: unknown section")
	// ErrDeleteUnavailable is returned when delete is requested outside edit
	// mode or without a delete callback.
	ErrDeleteUnavailable = errors.New("engine: delete is not available")
	// ErrDeleteNotConfirmed is returned by ConfirmDelete without a prior
	// RequestDelete.
	ErrDeleteNotConfirmed = errors.New("engine: delete was not requested")
	// ErrNoSave is returned by Submit when no save callback was supplied.
	ErrNoSave = errors.New("engine: no save callback")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("engine: form is closed")
)

// FieldFeedback is implemented by callback errors that blame particular
// fields, keyed by field name. Submit and ConfirmDelete copy it into
// Result.Feedback.
type FieldFeedback interface {
	FieldErrors() map[string][]string
}

func feedbackOf(err error) map[string][]string {
	var fb FieldFeedback
	if !errors.As(err, &fb) {
		return nil
	}
	return fb.FieldErrors()
}
