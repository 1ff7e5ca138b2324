package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorCodesAndStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        *Error
		wantStatus int
		wantCode   string
	}{
		{"unauthorized", Unauthorized(nil), http.StatusUnauthorized, CodeUnauthorized},
		{"forbidden", Forbidden(nil), http.StatusForbidden, CodeForbidden},
		{"not found", NotFound("card", "abc"), http.StatusNotFound, CodeNotFound},
		{"invalid payload", InvalidPayload(errors.New("empty list")), http.StatusBadRequest, CodeInvalidPayload},
		{"fixed stage", ForbiddenFixedStage("s1"), http.StatusForbidden, CodeForbiddenFixedStage},
		{"not in exit", NotInExitStage("c1"), http.StatusConflict, CodeNotInExitStage},
		{"tasks pending", IncompleteRequiredTasks("c1"), http.StatusConflict, CodeIncompleteRequiredTasks},
		{"already completed", CardAlreadyCompleted("c1"), http.StatusConflict, CodeCardAlreadyCompleted},
		{"update failed", UpdateFailed(errors.New("write lost")), http.StatusInternalServerError, CodeUpdateFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.wantStatus {
				t.Errorf("StatusOf() = %d, want %d", got, tt.wantStatus)
			}
			if got := CodeOf(tt.err); got != tt.wantCode {
				t.Errorf("CodeOf() = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestStatusOf_PlainError(t *testing.T) {
	if got := StatusOf(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("StatusOf(plain) = %d, want 500", got)
	}
	if got := CodeOf(errors.New("boom")); got != CodeInternal {
		t.Errorf("CodeOf(plain) = %q, want %q", got, CodeInternal)
	}
}

func TestStatusOf_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NotFound("stage", "s9"))
	if got := StatusOf(wrapped); got != http.StatusNotFound {
		t.Errorf("StatusOf(wrapped) = %d, want 404", got)
	}
	if !Is(wrapped, CodeNotFound) {
		t.Error("Is(wrapped, not_found) = false, want true")
	}
}

func TestError_Message(t *testing.T) {
	e := NotFound("card", "c42")
	if e.Error() != "card not found: c42" {
		t.Errorf("Error() = %q", e.Error())
	}
	bare := &Error{Status: 418, Code: "teapot"}
	if bare.Error() != "teapot" {
		t.Errorf("Error() = %q, want code fallback", bare.Error())
	}
}
