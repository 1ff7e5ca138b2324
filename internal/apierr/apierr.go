// Package apierr defines the error taxonomy exposed at the API boundary.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes returned to callers.
const (
	CodeUnauthorized            = "unauthorized"
	CodeForbidden               = "forbidden"
	CodeNotFound                = "not_found"
	CodeInvalidPayload          = "invalid_payload"
	CodeForbiddenFixedStage     = "forbidden_fixed_stage"
	CodeNotInExitStage          = "not_in_exit_stage"
	CodeIncompleteRequiredTasks = "incomplete_required_tasks"
	CodeCardAlreadyCompleted    = "card_already_completed"
	CodeUpdateFailed            = "update_failed"
	CodeInternal                = "internal"
)

// Error carries an HTTP status and a stable code alongside the wrapped cause.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with an explicit status and code.
func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Unauthorized means no resolvable identity.
func Unauthorized(err error) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, err)
}

// Forbidden means the caller's role lacks permission for the action.
func Forbidden(err error) *Error {
	return New(http.StatusForbidden, CodeForbidden, err)
}

// NotFound covers both genuinely missing entities and cross-tenant
// access attempts: existence is never leaked across tenant boundaries.
func NotFound(entity, id string) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf("%s not found: %s", entity, id))
}

// InvalidPayload means a malformed request: empty reorder lists, invalid
// titles, unknown statuses.
func InvalidPayload(err error) *Error {
	return New(http.StatusBadRequest, CodeInvalidPayload, err)
}

// ForbiddenFixedStage means an attempt to delete, rename or reorder one
// of the two fixed pipeline endpoints.
func ForbiddenFixedStage(stageID string) *Error {
	return New(http.StatusForbidden, CodeForbiddenFixedStage,
		fmt.Errorf("stage %s is fixed and cannot be modified", stageID))
}

// NotInExitStage means completion was requested for a card outside the
// fixed exit stage.
func NotInExitStage(cardID string) *Error {
	return New(http.StatusConflict, CodeNotInExitStage,
		fmt.Errorf("card %s is not in the exit stage", cardID))
}

// IncompleteRequiredTasks means at least one required task is still pending.
func IncompleteRequiredTasks(cardID string) *Error {
	return New(http.StatusConflict, CodeIncompleteRequiredTasks,
		fmt.Errorf("card %s has incomplete required tasks", cardID))
}

// CardAlreadyCompleted means a mutation was attempted on a card that
// has already finished the pipeline.
func CardAlreadyCompleted(cardID string) *Error {
	return New(http.StatusConflict, CodeCardAlreadyCompleted,
		fmt.Errorf("card %s is completed and cannot be deleted", cardID))
}

// UpdateFailed means an underlying storage write failed mid-operation;
// the whole operation must be treated as failed.
func UpdateFailed(err error) *Error {
	return New(http.StatusInternalServerError, CodeUpdateFailed, err)
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// CodeOf returns the stable code for err, defaulting to internal.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return CodeOf(err) == code
}
