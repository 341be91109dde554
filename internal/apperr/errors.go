// Package apperr defines the error kinds surfaced by the invoicing core.
//
// Callers classify failures with errors.Is against the Err* kinds:
//
//	if errors.Is(err, apperr.ErrConflict) { ... }
package apperr

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when input is incomplete or malformed. Nothing
	// has been persisted.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when an action would duplicate or contradict
	// committed state, such as converting an already converted quote.
	ErrConflict = errors.New("conflict")

	// ErrConstraint is returned when an action would break a structural rule,
	// such as deleting the last remaining company.
	ErrConstraint = errors.New("constraint violated")

	// ErrNotFound is returned when a referenced company, client or document
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStorage is returned when the underlying store fails.
	ErrStorage = errors.New("storage failure")
)

// Error carries the kind of failure together with the operation that failed.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func Validation(op, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(op, format string, args ...any) error {
	return &Error{Kind: ErrConflict, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Constraint(op, format string, args ...any) error {
	return &Error{Kind: ErrConstraint, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(op, what, id string) error {
	return &Error{Kind: ErrNotFound, Op: op, Msg: fmt.Sprintf("%s '%s' does not exist", what, id)}
}

// Storage wraps a persistence failure. Errors that already carry a kind are
// returned unchanged, and sql.ErrNoRows becomes ErrNotFound.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Kind: ErrNotFound, Op: op, Err: err}
	}
	return &Error{Kind: ErrStorage, Op: op, Err: err}
}

// Kind reports which of the Err* kinds err belongs to, or nil.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrConflict, ErrConstraint, ErrNotFound, ErrStorage} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
