package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

// TestAppErrorImplementsError verifies that *AppError satisfies the error interface.
func TestAppErrorImplementsError(t *testing.T) {
	var _ error = (*AppError)(nil)
}

func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeNotFoundOutage,
		Message: "outage not found",
	}

	expected := "not_found_outage: outage not found"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

func TestAppErrorErrorFormatWithCause(t *testing.T) {
	appErr := NewAppError(ErrCodeInternalDB, "failed to create notification", errors.New("connection reset"))

	expected := "internal_database_error: failed to create notification: connection reset"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

// TestAppErrorErrorsAs verifies that errors.As can extract AppError from an error chain.
func TestAppErrorErrorsAs(t *testing.T) {
	appErr := NewAppError(ErrCodeConflictTransition, "illegal transition", nil)
	wrapped := fmt.Errorf("mark sent: %w", appErr)

	var target *AppError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As failed to find AppError in chain")
	}
	if target.Code != ErrCodeConflictTransition {
		t.Errorf("Code = %q, want %q", target.Code, ErrCodeConflictTransition)
	}
}

func TestHasCode(t *testing.T) {
	cause := NewAppError(ErrCodeNotFoundUser, "user not found", nil)
	wrapped := fmt.Errorf("retry: %w", cause)

	if !HasCode(wrapped, ErrCodeNotFoundUser) {
		t.Error("HasCode should find code through wrapping")
	}
	if HasCode(wrapped, ErrCodeNotFoundOutage) {
		t.Error("HasCode matched the wrong code")
	}
	if HasCode(errors.New("plain"), ErrCodeNotFoundUser) {
		t.Error("HasCode matched a plain error")
	}
}

func TestErrorCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationInvalidJSON, http.StatusBadRequest},
		{ErrCodeValidationInvalidEvent, http.StatusBadRequest},
		{ErrCodeNotFoundNotification, http.StatusNotFound},
		{ErrCodeConflictTransition, http.StatusConflict},
		{ErrCodeUpstreamRateLimited, http.StatusTooManyRequests},
		{ErrCodeUpstreamSMSProvider, http.StatusBadGateway},
		{ErrCodeInternalDB, http.StatusInternalServerError},
		{ErrorCode("something_else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
