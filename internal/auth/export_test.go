package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mustExpiredToken(t *testing.T, secret string, userID int64, sessionID string) string {
	t.Helper()
	past := time.Now().Add(-time.Hour)
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(past),
			IssuedAt:  jwt.NewNumericDate(past.Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}
