package workflow

import "errors"

var (
	// ErrTargetNotFound is returned when a host page element a workflow
	// needs is missing. It also wraps host.ErrNotFound.
	ErrTargetNotFound = errors.New("host target not found")

	// ErrNoSelection is returned after the user was alerted that the active
	// document has no selection.
	ErrNoSelection = errors.New("no selection in active document")

	// ErrUnknownTab is returned for tabs that cannot receive images.
	ErrUnknownTab = errors.New("unknown target tab")
)
