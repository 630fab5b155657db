package models

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrShopNotFound  = errors.New("shop not found")
	ErrUserNotFound  = errors.New("user not found")
)

// ValidationError reports a missing or malformed field in caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// AuthorizationError means the actor lacks the privilege for Action.
type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized to %s", e.Action)
}

type ImmutableFieldError struct {
	Field string
}

func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("field %s cannot be changed after creation", e.Field)
}

// PersistenceError wraps a record store failure. Callers may retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Retryable() bool {
	return true
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

func IsImmutableField(err error) bool {
	var target *ImmutableFieldError
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}
