// Package errors defines the billing error taxonomy. Each kind maps to a
// pkg/errors code so transports can pick a status without inspecting types.
package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
	pkgerrors "github.com/wekeepgrowing/semo-billing/pkg/errors"
)

// ProviderError is an adapter or network failure. Retry by creating a new
// intent, never by re-advancing the failed one.
type ProviderError = provider.ProviderError

// ValidationError is a caller mistake such as a non-positive amount.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports an unknown intent or subscription id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// InvalidStateError reports an illegal transition such as advancing a
// failed intent.
type InvalidStateError struct {
	Resource string
	ID       string
	Status   string
	Action   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %q in status %s", e.Action, e.Resource, e.ID, e.Status)
}

func NewInvalidStateError(resource, id, status, action string) *InvalidStateError {
	return &InvalidStateError{Resource: resource, ID: id, Status: status, Action: action}
}

// PartialFailureError means the payment succeeded but the entitlement grant
// did not. The user has been charged, so this must never be reported as a
// plain payment failure.
type PartialFailureError struct {
	IntentID string
	PlanID   string
	Err      error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("payment %s succeeded but granting plan %s failed: %v", e.IntentID, e.PlanID, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// SupportContactMessage is shown to users after a partial failure.
const SupportContactMessage = "Your payment was received but your subscription could not be activated. Please contact support with your payment reference."

// ToAppError converts a billing error into a coded application error.
// Errors outside the taxonomy are returned unchanged.
func ToAppError(err error) error {
	if err == nil {
		return nil
	}

	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		stateErr      *InvalidStateError
		partialErr    *PartialFailureError
		providerErr   *ProviderError
		intentErr     *provider.IntentNotFoundError
	)

	switch {
	case errors.As(err, &partialErr):
		return pkgerrors.NewAppError(pkgerrors.ErrPartialFailure, UserMessage(err), err)
	case errors.As(err, &validationErr):
		return pkgerrors.NewAppError(pkgerrors.ErrInvalidArgument, validationErr.Error(), err)
	case errors.As(err, &notFoundErr):
		return pkgerrors.NewAppError(pkgerrors.ErrNotFound, notFoundErr.Error(), err)
	case errors.As(err, &intentErr):
		return pkgerrors.NewAppError(pkgerrors.ErrNotFound, intentErr.Error(), err)
	case errors.As(err, &stateErr):
		return pkgerrors.NewAppError(pkgerrors.ErrInvalidState, stateErr.Error(), err)
	case errors.As(err, &providerErr):
		return pkgerrors.NewAppError(pkgerrors.ErrProvider, providerErr.Error(), err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return pkgerrors.NewAppError(pkgerrors.ErrTimeout, "the operation timed out before its outcome was known; check its status again", err)
	}
	return err
}

// UserMessage returns the text to show an end user for err.
func UserMessage(err error) string {
	var partialErr *PartialFailureError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &partialErr):
		return SupportContactMessage
	}

	var appErr *pkgerrors.AppError
	if converted := ToAppError(err); errors.As(converted, &appErr) {
		return appErr.Message()
	}
	return "Something went wrong. Please try again."
}
