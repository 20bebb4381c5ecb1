package errors

import "testing"

func TestErrorHelpers(t *testing.T) {
	err := NewInvalidArgument("bad")
	if !IsInvalidArgument(err) {
		t.Fatal("expected invalid argument")
	}

	wrapped := WrapInternal(err, "ctx")
	if !IsInternal(wrapped) {
		t.Fatal("expected internal")
	}
}

func TestIsTokenError(t *testing.T) {
	for _, err := range []error{
		ErrTokenExpired,
		ErrTokenInvalid,
		ErrTokenKindMismatch,
		ErrRefreshRevoked,
	} {
		if !IsTokenError(err) {
			t.Fatalf("expected token error for %v", err)
		}
	}
	if IsTokenError(ErrInvalidCredentials) {
		t.Fatal("credentials failure is not a token error")
	}
}
