package ircerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsUnwrapsWrappedError(t *testing.T) {
	base := New(LookupError, "netstate.User", errors.New("no such user"))
	wrapped := fmt.Errorf("command nick: %w", base)

	if !Is(wrapped, LookupError) {
		t.Error("Is() should see through fmt.Errorf %w wrapping")
	}
	if Is(wrapped, PolicyViolation) {
		t.Error("Is() should not match an unrelated kind")
	}
}

func TestIsRejectsPlainError(t *testing.T) {
	if Is(errors.New("plain"), CausalViolation) {
		t.Error("Is() should return false for a non-ircerr error")
	}
}

func TestErrorMessageIncludesOpAndKind(t *testing.T) {
	err := New(CommunicationError, "client.send", errors.New("write queue full"))
	msg := err.Error()
	if msg != "client.send: communication_error: write queue full" {
		t.Errorf("Error() = %q", msg)
	}
}
