// Package service contains the reservation engine's actions: Reserve,
// Confirm-Payment and the expiration Reaper.  Actions are the only
// place where the database and the coordination store are composed;
// each is injected as a capability and neither leaks through the
// other's interface.
package service

import "errors"

// Kind classifies an action failure so the transport layer can map it
// to a status code without string matching.
type Kind int

const (
	// KindInternal is an unexpected store or bus failure, surfaced
	// after best-effort local compensation.
	KindInternal Kind = iota
	// KindNotFound means the referenced reservation or seat is unknown.
	KindNotFound
	// KindConflict covers losing a seat to another owner, double
	// payment and in-flight idempotent retries.
	KindConflict
	// KindBadRequest covers cancelled/expired reservations and invalid
	// domain preconditions.
	KindBadRequest
)

// Error is the failure type surfaced by all actions.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// NotFound builds a KindNotFound error.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Conflict builds a KindConflict error.
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// BadRequest builds a KindBadRequest error.
func BadRequest(msg string) *Error { return &Error{Kind: KindBadRequest, Message: msg} }

// Internal wraps an unexpected failure, keeping the cause for logs.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, cause: cause}
}

// KindOf extracts the Kind from any error, defaulting to KindInternal
// for errors that did not originate in this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
