package auth

import (
	"strings"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal the plain password")
	}
	if !CheckPassword("s3cret", hash) {
		t.Fatal("correct password must verify")
	}
	if CheckPassword("wrong", hash) {
		t.Fatal("wrong password must not verify")
	}
}

func TestGenerateAndValidateJWT(t *testing.T) {
	InitJWT("test-secret", time.Hour)

	token, expiresAt, err := GenerateJWT(42, "sess-1")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("expiry must be in the future")
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", claims.UserID)
	}
	if claims.SessionID != "sess-1" {
		t.Fatalf("expected session sess-1, got %s", claims.SessionID)
	}
}

func TestValidateTamperedJWT(t *testing.T) {
	InitJWT("test-secret", time.Hour)

	token, _, err := GenerateJWT(42, "sess-1")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA"
	if _, err := ValidateJWT(tampered); err == nil {
		t.Fatal("tampered signature must not validate")
	}
}

func TestValidateExpiredJWT(t *testing.T) {
	InitJWT("test-secret", -time.Minute)

	token, _, err := GenerateJWT(42, "sess-1")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if _, err := ValidateJWT(token); err == nil {
		t.Fatal("expired token must not validate")
	}
}

func TestRefreshJWT(t *testing.T) {
	InitJWT("test-secret", time.Hour)

	token, _, err := GenerateJWT(42, "sess-1")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	refreshed, _, err := RefreshJWT(token)
	if err != nil {
		t.Fatalf("failed to refresh token: %v", err)
	}

	claims, err := ValidateJWT(refreshed)
	if err != nil {
		t.Fatalf("refreshed token must validate: %v", err)
	}
	if claims.UserID != 42 || claims.SessionID != "sess-1" {
		t.Fatalf("refresh must preserve identity, got %+v", claims)
	}
}
