package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrGaveUp is returned when a fill session runs out of submit attempts.
	ErrGaveUp = errors.New("tui: too many failed submit attempts")
)
