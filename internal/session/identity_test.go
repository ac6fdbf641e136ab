package session_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskhub/realtime/internal/session"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestIdentityFromToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "u42", "name": "Alice"})

	id, err := session.IdentityFromToken(token)
	if err != nil {
		t.Fatalf("IdentityFromToken failed: %v", err)
	}
	if id.UserID != "u42" {
		t.Errorf("expected userID u42, got %q", id.UserID)
	}
	if id.DisplayName != "Alice" {
		t.Errorf("expected display name Alice, got %q", id.DisplayName)
	}
}

func TestIdentityWithoutNameClaim(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "u42"})

	id, err := session.IdentityFromToken(token)
	if err != nil {
		t.Fatalf("IdentityFromToken failed: %v", err)
	}
	if id.DisplayName != "" {
		t.Errorf("expected empty display name, got %q", id.DisplayName)
	}
}

func TestIdentityMissingSubject(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"name": "NoSub"})

	if _, err := session.IdentityFromToken(token); err == nil {
		t.Fatal("expected an error for a token without a sub claim")
	}
}

func TestIdentityFromGarbage(t *testing.T) {
	if _, err := session.IdentityFromToken("not-a-jwt"); err == nil {
		t.Fatal("expected an error for a malformed token")
	}
}
