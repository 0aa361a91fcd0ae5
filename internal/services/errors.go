package services

import (
	"errors"
	"fmt"

	"github.com/k4sper1love/school-service/internal/policy"
	"github.com/k4sper1love/school-service/internal/repositories"
	"github.com/k4sper1love/school-service/internal/validator"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrConflict         = errors.New("conflict")
	ErrValidationFailed = validator.ErrValidationFailed
)

// ValidationErrors maps JSON field names to messages.
type ValidationErrors = validator.ValidationErrors

// PermissionError is returned when the authorization policy denies an action.
type PermissionError struct {
	UserID   uint
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return e.Reason
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}

func NewPermissionError(actor policy.Actor, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   actor.UserID,
		Resource: resource,
		Action:   action,
		Reason:   reason,
	}
}

// NotFoundError renders as "<Resource> not found".
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// deny converts a policy denial into a PermissionError.
func deny(actor policy.Actor, resource, action string, d policy.Decision) error {
	if d.Allowed {
		return nil
	}
	return NewPermissionError(actor, resource, action, d.Reason)
}

// notFoundOr maps a repository miss to a NotFoundError and wraps anything else.
func notFoundOr(err error, resource string, id uint) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return fmt.Errorf("failed to load %s %d: %w", resource, id, err)
}

// missingRelation is the field error for a foreign key that does not resolve.
func missingRelation(field string, id uint) ValidationErrors {
	return validator.Field(field, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
}
