package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Conflict("POLICY_RENEWAL_NOT_ELIGIBLE", "no"), http.StatusBadRequest},
		{NotFound("POLICY_NOT_FOUND", "missing"), http.StatusNotFound},
		{Unauthorized("NO_TOKEN", "no token"), http.StatusUnauthorized},
		{Duplicate("USER_EXISTS", "dup"), http.StatusConflict},
		{Locked("ACCOUNT_LOCKED", "locked"), http.StatusLocked},
		{RateLimited("slow down"), http.StatusTooManyRequests},
		{Internal("POLICY_FETCH_FAILED", errors.New("db down")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if got := tt.err.Status(); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
			if tt.err.Title() == "" {
				t.Error("empty title")
			}
		})
	}
}

func TestAs(t *testing.T) {
	typed := NotFound("CLAIM_NOT_FOUND", "missing")
	wrapped := fmt.Errorf("handler: %w", typed)
	if got := As(wrapped); got != typed {
		t.Errorf("As did not unwrap typed error")
	}

	plain := errors.New("socket closed")
	got := As(plain)
	if got.Code != CodeInternal || got.Status() != http.StatusInternalServerError {
		t.Errorf("plain error mapped to %s/%d", got.Code, got.Status())
	}
	if !errors.Is(got, plain) {
		t.Error("internal error should wrap the cause")
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("x: %w", Conflict("POLICY_CANCELLATION_NOT_ALLOWED", "no"))
	if !Is(err, "POLICY_CANCELLATION_NOT_ALLOWED") {
		t.Error("expected code match")
	}
	if Is(err, "OTHER") {
		t.Error("unexpected code match")
	}
}
