package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/lavishdadwani/Stock-Management/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"
	sid := NewSessionID()

	token, err := GenerateToken(secret, 1, model.RoleOwner, sid, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != 1 {
		t.Errorf("expected user_id 1, got %d", claims.UserID)
	}
	if claims.Role != model.RoleOwner {
		t.Errorf("expected role owner, got %q", claims.Role)
	}
	if claims.SessionID() != sid {
		t.Errorf("expected session %q, got %q", sid, claims.SessionID())
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", 1, model.RoleManager, NewSessionID(), time.Hour)

	_, err := ValidateToken("secret2", token)
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateTokenExpiredKeepsClaims(t *testing.T) {
	token, _ := GenerateToken("secret", 7, model.RoleCoreTeam, "sid", -time.Minute)

	// A negative expiry falls back to the default lifetime.
	if _, err := ValidateToken("secret", token); err != nil {
		t.Fatalf("expected default expiry to apply, got %v", err)
	}

	expired := mustExpiredToken(t, "secret", 7, "sid")
	claims, err := ValidateToken("secret", expired)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if claims == nil || claims.UserID != 7 || claims.SessionID() != "sid" {
		t.Errorf("expected claims for expired token, got %+v", claims)
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	token, _ := GenerateToken(secret, 1, model.RoleManager, "s", 0)
	claims, _ := ValidateToken(secret, token)

	expiresAt := claims.ExpiresAt.Time
	expectedExpiry := time.Now().Add(DefaultTokenExpiry)

	// Should be within a few seconds.
	diff := expectedExpiry.Sub(expiresAt)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "Secret123") {
		t.Error("expected password to verify")
	}
	if VerifyPassword(hash, "secret123") {
		t.Error("expected wrong password to fail")
	}
}

func TestGenerateOneTimeToken(t *testing.T) {
	a, err := GenerateOneTimeToken()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenerateOneTimeToken()
	if len(a) != 64 || a == b {
		t.Errorf("expected distinct 64-char tokens, got %q and %q", a, b)
	}
}
