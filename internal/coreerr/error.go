// Package coreerr implements the error taxonomy every core component
// returns: a small set of kinds (not Go types) that callers and HTTP
// handlers switch on, rather than ad hoc sentinel errors or panics.
package coreerr

import (
	"errors"
	"fmt"
)

// Kind is one of the six error kinds the design separates control flow
// into: Validation, State, Policy, Resource, Concurrency, Internal.
type Kind string

const (
	Validation  Kind = "VALIDATION"
	State       Kind = "STATE"
	Policy      Kind = "POLICY"
	Resource    Kind = "RESOURCE"
	Concurrency Kind = "CONCURRENCY"
	Internal    Kind = "INTERNAL"
)

// Error is the structured error value returned by every core component.
type Error struct {
	Kind      Kind
	Reason    string
	RuleIDs   []string
	Retriable bool
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error of the given kind with a caller-facing reason.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Newf is New with fmt.Sprintf formatting applied to reason.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Wrap attaches an internal cause to a new Error; the cause is never
// included in Error() output surfaced to external callers for Internal
// kind errors (handlers must strip it), but is always available via
// errors.Unwrap for audit logging.
func Wrap(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, cause: cause}
}

// WithRules attaches violated rule ids to a Policy error.
func (e *Error) WithRules(rules ...string) *Error {
	e.RuleIDs = append(e.RuleIDs, rules...)
	return e
}

// WithRetry marks a Resource error as retriable by the caller.
func (e *Error) WithRetry() *Error {
	e.Retriable = true
	return e
}

// KindOf extracts the Kind from err, defaulting to Internal when err is
// not one of ours.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Validationf is shorthand for Newf(Validation, ...).
func Validationf(format string, args ...interface{}) *Error {
	return Newf(Validation, format, args...)
}

// Statef is shorthand for Newf(State, ...).
func Statef(format string, args ...interface{}) *Error {
	return Newf(State, format, args...)
}

// Policyf is shorthand for Newf(Policy, ...).
func Policyf(format string, args ...interface{}) *Error {
	return Newf(Policy, format, args...)
}

// Concurrencyf is shorthand for Newf(Concurrency, ...).
func Concurrencyf(format string, args ...interface{}) *Error {
	return Newf(Concurrency, format, args...)
}
