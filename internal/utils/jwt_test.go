package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestTokenRoundTrip проверяет создание и разбор токена
func TestTokenRoundTrip(t *testing.T) {
	service := NewJWTService("test-secret")

	token, err := service.GenerateToken("b7a97c47-1c0d-4f3e-9d2a-111111111111")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	userID, err := service.ExtractUserID(token)
	if err != nil {
		t.Fatalf("ExtractUserID failed: %v", err)
	}

	if userID != "b7a97c47-1c0d-4f3e-9d2a-111111111111" {
		t.Errorf("got user id %q, want %q", userID, "b7a97c47-1c0d-4f3e-9d2a-111111111111")
	}
}

// TestInvalidToken проверяет отказ на испорченном токене
func TestInvalidToken(t *testing.T) {
	service := NewJWTService("test-secret")

	if _, err := service.ExtractUserID("not-a-token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

// TestWrongSecret проверяет отказ на токене с другим секретом
func TestWrongSecret(t *testing.T) {
	other := NewJWTService("other-secret")
	token, err := other.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	service := NewJWTService("test-secret")
	if _, err := service.ExtractUserID(token); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}

// TestWrongSigningMethod проверяет отказ на токене без HMAC подписи
func TestWrongSigningMethod(t *testing.T) {
	// Токен с alg=none не должен проходить валидацию
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	service := NewJWTService("test-secret")
	if _, err := service.ExtractUserID(token); err == nil {
		t.Error("expected error for token with none signing method")
	}
}

// TestExpiredToken проверяет отказ на просроченном токене
func TestExpiredToken(t *testing.T) {
	service := NewJWTService("test-secret")

	claims := jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err := expired.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := service.ExtractUserID(token); err == nil {
		t.Error("expected error for expired token")
	}
}
