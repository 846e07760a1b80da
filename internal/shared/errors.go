package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates the request was rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates the tenant could not be resolved.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPersistence indicates the store failed mid-transaction.
	ErrPersistence = errors.New("persistence failure")
	// ErrNotificationDelivery indicates a post-commit notification was lost.
	ErrNotificationDelivery = errors.New("notification delivery failed")
	// ErrConflict indicates a duplicate submission.
	ErrConflict = errors.New("conflict")
)

// ValidationError describes rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a NotFoundError.
func NotFound(entity string, id fmt.Stringer) error {
	if id == nil {
		return &NotFoundError{Entity: entity}
	}
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// PersistenceError wraps a store failure with the operation that failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is matches ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Persistence wraps err unless it is nil or already classified.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// NotificationDeliveryError is logged by callers, never returned to clients.
type NotificationDeliveryError struct {
	Type string
	Err  error
}

func (e *NotificationDeliveryError) Error() string {
	return fmt.Sprintf("notification %s: %v", e.Type, e.Err)
}

func (e *NotificationDeliveryError) Unwrap() error {
	return e.Err
}

// Is matches ErrNotificationDelivery.
func (e *NotificationDeliveryError) Is(target error) bool {
	return target == ErrNotificationDelivery
}
