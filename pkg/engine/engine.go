// Package engine owns the live state of one form: the value bag, the error
// bag, section expansion and the submit/reset/delete lifecycle.
//
// A Form is driven by one caller at a time. Its methods lock internally so a
// caller using several goroutines still observes a single writer, and the
// busy flag rejects a second submit or delete while a callback is running.
// Callbacks run without the lock held.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/controls"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// Mode selects how the form is presented.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
	ModeView   Mode = "view"
)

// ParseMode validates a mode name.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeCreate, ModeEdit, ModeView:
		return Mode(raw), nil
	case "":
		return ModeCreate, nil
	}
	return "", fmt.Errorf("engine: unknown mode %q", raw)
}

// State is the lifecycle position of a form.
type State string

const (
	StateInitializing State = "initializing"
	StateReady        State = "ready"
	StateSubmitting   State = "submitting"
	StateDeleting     State = "deleting"
	StateClosed       State = "closed"
)

// Outcome classifies the result of Submit and ConfirmDelete.
type Outcome string

const (
	OutcomeSaved   Outcome = "saved"
	OutcomeInvalid Outcome = "invalid"
	OutcomeFailed  Outcome = "failed"
	OutcomeDeleted Outcome = "deleted"
)

// Result reports what a submit or delete attempt did. Validation problems are
// data here, never a Go error.
type Result struct {
	Outcome Outcome           `json:"outcome"`
	Errors  validation.Errors `json:"errors,omitempty"`
	Message string            `json:"message,omitempty"`

	// Feedback holds per-field messages from a failed callback whose error
	// implements FieldFeedback.
	Feedback map[string][]string `json:"feedback,omitempty"`
}

// OK reports a successful save or delete.
func (r Result) OK() bool {
	return r.Outcome == OutcomeSaved || r.Outcome == OutcomeDeleted
}

// Form is one mounted form instance.
type Form struct {
	mu sync.Mutex

	schema   *schema.Schema
	mode     Mode
	state    State
	values   map[string]any
	initial  map[string]any
	errors   validation.Errors
	expanded map[string]bool
	busy     bool
	pending  bool
	failure  string

	save           SaveFunc
	del            DeleteFunc
	cancel         CancelFunc
	failureMessage FailureMessage
	logger         *zap.Logger
}

// New mounts a form. Initial values are copied and merged with field defaults
// for names they do not carry; the merged bag becomes the reset snapshot.
func New(s *schema.Schema, initial map[string]any, opts ...Option) (*Form, error) {
	if s == nil {
		return nil, errors.New("engine: schema is required")
	}
	f := &Form{
		schema:         s.Clone(),
		mode:           ModeCreate,
		state:          StateInitializing,
		errors:         make(validation.Errors),
		expanded:       make(map[string]bool, len(s.Sections)),
		failureMessage: defaultFailureMessage,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if _, err := ParseMode(string(f.mode)); err != nil {
		return nil, err
	}

	values := cloneValues(initial)
	for _, field := range f.schema.Fields() {
		if field.Default == nil {
			continue
		}
		if _, ok := values[field.Name]; !ok {
			values[field.Name] = deepCopy(field.Default)
		}
	}
	f.values = values
	f.initial = cloneValues(values)

	for _, section := range f.schema.Sections {
		f.expanded[section.ID] = section.DefaultExpanded()
	}

	f.state = StateReady
	f.logger.Debug("form mounted",
		zap.String("schema", f.schema.ID),
		zap.String("mode", string(f.mode)),
		zap.Int("values", len(values)),
	)
	return f, nil
}

// Schema returns the form's schema. Callers must not modify it.
func (f *Form) Schema() *schema.Schema { return f.schema }

// Mode reports the presentation mode.
func (f *Form) Mode() Mode { return f.mode }

// State reports the lifecycle state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Busy reports whether a save or delete is in flight.
func (f *Form) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Values returns a copy of the value bag.
func (f *Form) Values() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneValues(f.values)
}

// Value returns a copy of one value.
func (f *Form) Value(name string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[name]
	return deepCopy(v), ok
}

// Errors returns a copy of the error bag.
func (f *Form) Errors() validation.Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors.Clone()
}

// Error returns the message recorded for name, if any.
func (f *Form) Error(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors[name]
}

// Failure returns the message left by the last failed save or delete.
func (f *Form) Failure() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failure
}

// DeletePending reports whether a delete awaits confirmation.
func (f *Form) DeletePending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// CanDelete reports whether delete is offered at all.
func (f *Form) CanDelete() bool {
	return f.mode == ModeEdit && f.del != nil
}

// Change is the single entry point for value edits. It stores a copy of value
// and clears that field's error without re-validating. Edits are accepted
// while a save is in flight; the save works on the bag as it was at submit.
func (f *Form) Change(name string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.writableLocked(); err != nil {
		return err
	}
	if _, ok := f.schema.Field(name); !ok {
		return fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	f.values[name] = deepCopy(value)
	delete(f.errors, name)
	return nil
}

// ToggleSection flips a section's expand state. Allowed in every mode.
func (f *Form) ToggleSection(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateClosed {
		return ErrClosed
	}
	current, ok := f.expanded[id]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownSection, id)
	}
	f.expanded[id] = !current
	return nil
}

// IsExpanded reports a section's expand state.
func (f *Form) IsExpanded(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expanded[id]
}

// IsFieldVisible evaluates the hidden flag and conditional rule of name
// against the live value bag.
func (f *Form) IsFieldVisible(name string) bool {
	field, ok := f.schema.Field(name)
	if !ok {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return visibility.IsFieldVisible(f.values, field)
}

// Validate recomputes the whole error bag from the visible fields and reports
// whether the form is valid.
func (f *Form) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

func (f *Form) validateLocked() bool {
	f.errors = validation.Form(f.schema, f.values)
	return len(f.errors) == 0
}

// Submit validates the form and, when valid, hands a copy of the full value
// bag to the save callback. Hidden and invisible values are included.
// Callback errors and panics become Result.Message; the value bag is left as
// the user entered it.
func (f *Form) Submit(ctx context.Context) (Result, error) {
	f.mu.Lock()
	if err := f.writableLocked(); err != nil {
		f.mu.Unlock()
		return Result{}, err
	}
	if f.busy {
		f.mu.Unlock()
		return Result{}, ErrBusy
	}
	if f.save == nil {
		f.mu.Unlock()
		return Result{}, ErrNoSave
	}
	if !f.validateLocked() {
		errs := f.errors.Clone()
		f.mu.Unlock()
		f.logger.Debug("submit rejected by validation",
			zap.String("schema", f.schema.ID),
			zap.Strings("fields", errs.Fields()),
		)
		return Result{Outcome: OutcomeInvalid, Errors: errs}, nil
	}
	f.busy = true
	f.state = StateSubmitting
	f.failure = ""
	payload := payloadValues(f.values)
	save := f.save
	f.mu.Unlock()

	err := invoke(func() error { return save(ctx, payload) })

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if f.state == StateSubmitting {
		f.state = StateReady
	}
	if err != nil {
		f.failure = f.failureMessage("Save", err)
		f.logger.Warn("save failed", zap.String("schema", f.schema.ID), zap.Error(err))
		return Result{Outcome: OutcomeFailed, Message: f.failure, Feedback: feedbackOf(err)}, nil
	}
	f.logger.Info("form saved", zap.String("schema", f.schema.ID), zap.Int("values", len(payload)))
	return Result{Outcome: OutcomeSaved}, nil
}

// Reset restores the snapshot taken at mount and clears every error.
func (f *Form) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.writableLocked(); err != nil {
		return err
	}
	if f.busy {
		return ErrBusy
	}
	f.values = cloneValues(f.initial)
	f.errors = make(validation.Errors)
	f.failure = ""
	f.pending = false
	return nil
}

// RequestDelete asks for confirmation before deleting. Delete is offered only
// in edit mode with a delete callback.
func (f *Form) RequestDelete() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateClosed {
		return ErrClosed
	}
	if !f.CanDelete() {
		return ErrDeleteUnavailable
	}
	if f.busy {
		return ErrBusy
	}
	f.pending = true
	return nil
}

// CancelDelete withdraws a pending delete request.
func (f *Form) CancelDelete() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = false
}

// ConfirmDelete runs the delete callback after RequestDelete. Failures are
// reported like save failures and leave the values untouched.
func (f *Form) ConfirmDelete(ctx context.Context) (Result, error) {
	f.mu.Lock()
	if f.state == StateClosed {
		f.mu.Unlock()
		return Result{}, ErrClosed
	}
	if !f.CanDelete() {
		f.mu.Unlock()
		return Result{}, ErrDeleteUnavailable
	}
	if f.busy {
		f.mu.Unlock()
		return Result{}, ErrBusy
	}
	if !f.pending {
		f.mu.Unlock()
		return Result{}, ErrDeleteNotConfirmed
	}
	f.pending = false
	f.busy = true
	f.state = StateDeleting
	f.failure = ""
	del := f.del
	f.mu.Unlock()

	err := invoke(func() error { return del(ctx) })

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if f.state == StateDeleting {
		f.state = StateReady
	}
	if err != nil {
		f.failure = f.failureMessage("Delete", err)
		f.logger.Warn("delete failed", zap.String("schema", f.schema.ID), zap.Error(err))
		return Result{Outcome: OutcomeFailed, Message: f.failure, Feedback: feedbackOf(err)}, nil
	}
	f.logger.Info("record deleted", zap.String("schema", f.schema.ID))
	return Result{Outcome: OutcomeDeleted}, nil
}

// Cancel invokes the cancel callback, if any. It does not touch form state.
func (f *Form) Cancel() {
	if f.cancel != nil {
		f.cancel()
	}
}

// Close discards the value bag. Every later operation returns ErrClosed.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateClosed
	f.values = nil
	f.initial = nil
	f.errors = make(validation.Errors)
	f.pending = false
}

// Control builds the control for one field, wired to Change.
func (f *Form) Control(name string) (*controls.Control, error) {
	field, ok := f.schema.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	f.mu.Lock()
	props := controls.Props{
		Field:    field,
		Value:    deepCopy(f.values[name]),
		Error:    f.errors[name],
		Disabled: f.mode == ModeView || f.state == StateClosed,
	}
	f.mu.Unlock()

	props.OnChange = func(value any) {
		if err := f.Change(name, value); err != nil {
			f.logger.Debug("change rejected", zap.String("field", name), zap.Error(err))
		}
	}
	return controls.New(props)
}

func (f *Form) writableLocked() error {
	if f.state == StateClosed {
		return ErrClosed
	}
	if f.mode == ModeView {
		return ErrReadOnly
	}
	return nil
}

func invoke(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()
	return fn()
}
