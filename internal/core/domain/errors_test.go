package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrUnknownKind", ErrUnknownKind, "unknown entity kind"},
		{"ErrRemoteUnavailable", ErrRemoteUnavailable, "remote unavailable"},
		{"ErrRateLimited", ErrRateLimited, "rate limited"},
		{"ErrLocalStoreUnavailable", ErrLocalStoreUnavailable, "local store unavailable"},
		{"ErrRetryBudgetExhausted", ErrRetryBudgetExhausted, "retry budget exhausted"},
		{"ErrSyncInProgress", ErrSyncInProgress, "sync already in progress"},
		{"ErrUnauthorized", ErrUnauthorized, "unauthorized"},
		{"ErrInvalidCredentials", ErrInvalidCredentials, "invalid credentials"},
		{"ErrTokenExpired", ErrTokenExpired, "token expired"},
		{"ErrTokenInvalid", ErrTokenInvalid, "token invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrUnknownKind,
		ErrRemoteUnavailable,
		ErrRateLimited,
		ErrLocalStoreUnavailable,
		ErrRetryBudgetExhausted,
		ErrSyncInProgress,
		ErrUnauthorized,
		ErrInvalidCredentials,
		ErrTokenExpired,
		ErrTokenInvalid,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestErrorsIs_Wrapped(t *testing.T) {
	err := fmt.Errorf("fetch services: %w: %w", ErrRemoteUnavailable, ErrRateLimited)

	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Error("expected wrapped error to match ErrRemoteUnavailable")
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Error("expected wrapped error to match ErrRateLimited")
	}
	if errors.Is(err, ErrRetryBudgetExhausted) {
		t.Error("did not expect ErrRetryBudgetExhausted")
	}
}
