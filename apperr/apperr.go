// Package apperr defines the gateway's error taxonomy. Locally recoverable
// conditions (storage conflicts, duplicate callbacks, late responses) are
// absorbed inside the services; everything else carries enough context for
// the caller to decide whether to retry.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound                  = errors.New("not found")
	ErrInvalidTransition         = errors.New("invalid transition")
	ErrSlotUnavailable           = errors.New("slot unavailable")
	ErrCancellationWindowExpired = errors.New("cancellation window expired")
	ErrDuplicateCallback         = errors.New("duplicate callback")
	ErrSessionClosed             = errors.New("session closed")
	ErrStorageConflict           = errors.New("storage conflict")
	ErrNotReady                  = errors.New("not ready")
	ErrTimeout                   = errors.New("timeout")
	ErrSignatureInvalid          = errors.New("signature invalid")
)

// NotFoundError identifies a missing entity by kind and id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidTransitionError reports a requested edge outside the allowed table.
// The entity is left unchanged.
type InvalidTransitionError struct {
	Entity    string
	ID        string
	Current   string
	Requested string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %s: invalid transition %s -> %s", e.Entity, e.ID, e.Current, e.Requested)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// SlotUnavailableError reports a failed availability check with the reason.
type SlotUnavailableError struct {
	ProviderID string
	Reason     string
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("provider %s: slot unavailable: %s", e.ProviderID, e.Reason)
}

func (e *SlotUnavailableError) Is(target error) bool { return target == ErrSlotUnavailable }

// NotReadyError reports a callback that arrived before the step it depends
// on committed. The caller should retry after a short delay.
type NotReadyError struct {
	Entity string
	ID     string
	Action string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("%s %s: not ready for %s", e.Entity, e.ID, e.Action)
}

func (e *NotReadyError) Is(target error) bool { return target == ErrNotReady }

// Retryable reports whether the caller may retry the same request unchanged.
func Retryable(err error) bool {
	return errors.Is(err, ErrNotReady) || errors.Is(err, ErrStorageConflict)
}

// Kind maps an error to a stable machine-readable code.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrNotFound):
		return "not_found"

	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"

	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"

	case errors.Is(err, ErrCancellationWindowExpired):
		return "cancellation_window_expired"

	case errors.Is(err, ErrDuplicateCallback):
		return "duplicate_callback"

	case errors.Is(err, ErrSessionClosed):
		return "session_closed"

	case errors.Is(err, ErrStorageConflict):
		return "storage_conflict"

	case errors.Is(err, ErrNotReady):
		return "not_ready"

	case errors.Is(err, ErrTimeout):
		return "timeout"

	case errors.Is(err, ErrSignatureInvalid):
		return "signature_invalid"

	default:
		return "internal"
	}
}

// HTTPStatus maps an error to the response status used by the handlers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrSlotUnavailable),
		errors.Is(err, ErrCancellationWindowExpired):
		return http.StatusConflict

	case errors.Is(err, ErrStorageConflict),
		errors.Is(err, ErrNotReady):
		return http.StatusServiceUnavailable

	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout

	case errors.Is(err, ErrSignatureInvalid):
		return http.StatusUnauthorized

	default:
		return http.StatusInternalServerError
	}
}
