package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	manager, err := NewTokenManager("test-secret")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := manager.Issue(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	userID, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != 42 {
		t.Fatalf("user id: got %d, want 42", userID)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewTokenManager("secret-a")
	verifier, _ := NewTokenManager("secret-b")

	token, err := issuer.Issue(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("cross-secret verify: got %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	current := time.Now()
	clock := func() time.Time { return current }
	manager, err := NewTokenManager("test-secret", WithTTL(time.Minute), WithClock(clock))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := manager.Issue(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := manager.Verify(token); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}

	current = current.Add(2 * time.Minute)
	if _, err := manager.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: got %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	manager, _ := NewTokenManager("test-secret")
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := manager.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): got %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
