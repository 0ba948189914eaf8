package reservation

import (
	"errors"
	"fmt"
)

// ErrOverlap is returned by the repository when the atomic no-overlap guard
// finds a conflicting reservation at commit time.
var ErrOverlap = errors.New("reservation overlaps an existing reservation")

// ValidationError is returned by the validation pipeline when a rule rejects
// a create or reschedule request. Rule identifies the failing validator.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Rule, e.Message)
}

// NewValidationError creates a ValidationError for the given rule.
func NewValidationError(rule, message string) *ValidationError {
	return &ValidationError{Rule: rule, Message: message}
}

// InvalidStateTransitionError is returned when a transition is attempted from
// a status that does not admit it.
type InvalidStateTransitionError struct {
	CurrentState Status
	Attempted    string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a reservation in state %s", e.Attempted, e.CurrentState)
}

// NewInvalidStateTransitionError creates an InvalidStateTransitionError.
func NewInvalidStateTransitionError(current Status, attempted string) *InvalidStateTransitionError {
	return &InvalidStateTransitionError{CurrentState: current, Attempted: attempted}
}

// CancellationNotAllowedError is returned when a cancel request violates the
// cancellation window or the reservation is already being served.
type CancellationNotAllowedError struct {
	Reason string
}

func (e *CancellationNotAllowedError) Error() string {
	return "cancellation not allowed: " + e.Reason
}

// NewCancellationNotAllowedError creates a CancellationNotAllowedError.
func NewCancellationNotAllowedError(reason string) *CancellationNotAllowedError {
	return &CancellationNotAllowedError{Reason: reason}
}

// NotFoundOrNotOwnedError is returned identically whether the reservation does
// not exist or belongs to another client, so callers cannot probe for the
// existence of other clients' reservations.
type NotFoundOrNotOwnedError struct {
	ID string
}

func (e *NotFoundOrNotOwnedError) Error() string {
	return fmt.Sprintf("reservation %s not found", e.ID)
}

// NewNotFoundOrNotOwnedError creates a NotFoundOrNotOwnedError.
func NewNotFoundOrNotOwnedError(id string) *NotFoundOrNotOwnedError {
	return &NotFoundOrNotOwnedError{ID: id}
}

// InvalidDeletionError is returned when deletion is attempted on a
// reservation that is not CANCELLED or FINISHED.
type InvalidDeletionError struct {
	CurrentState Status
}

func (e *InvalidDeletionError) Error() string {
	return fmt.Sprintf("cannot delete a reservation in state %s; only cancelled or finished reservations can be deleted", e.CurrentState)
}

// NewInvalidDeletionError creates an InvalidDeletionError.
func NewInvalidDeletionError(current Status) *InvalidDeletionError {
	return &InvalidDeletionError{CurrentState: current}
}

// ConflictError is returned when an update loses an optimistic-lock race.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NewConflictError creates a ConflictError.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}
