package engine

import (
	"context"

	"go.uber.org/zap"
)

// SaveFunc persists the submitted value bag.
type SaveFunc func(ctx context.Context, values map[string]any) error

// DeleteFunc removes the record being edited.
type DeleteFunc func(ctx context.Context) error

// CancelFunc is invoked verbatim on Cancel.
type CancelFunc func()

// FailureMessage turns a callback error into the single message shown to the
// user.
type FailureMessage func(op string, err error) string

// Option configures a Form.
type Option func(*Form)

// WithMode selects create, edit or view mode. Defaults to create.
func WithMode(mode Mode) Option {
	return func(f *Form) {
		if mode != "" {
			f.mode = mode
		}
	}
}

// WithSave supplies the save callback.
func WithSave(fn SaveFunc) Option {
	return func(f *Form) {
		f.save = fn
	}
}

// WithDelete supplies the delete callback. Delete is offered only in edit
// mode.
func WithDelete(fn DeleteFunc) Option {
	return func(f *Form) {
		f.del = fn
	}
}

// WithCancel supplies the cancel callback.
func WithCancel(fn CancelFunc) Option {
	return func(f *Form) {
		f.cancel = fn
	}
}

// WithLogger routes engine logs to logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithFailureMessage overrides how callback errors are worded.
func WithFailureMessage(fn FailureMessage) Option {
	return func(f *Form) {
		if fn != nil {
			f.failureMessage = fn
		}
	}
}

func defaultFailureMessage(op string, err error) string {
	if err == nil || err.Error() == "" {
		return op + " failed"
	}
	return err.Error()
}
