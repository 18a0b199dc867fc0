package auth

import (
	"testing"
	"time"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if err := CheckPassword(hash, "secret"); err != nil {
		t.Fatalf("expected password to match")
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected password mismatch")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken("dev-secret", "eduattend", time.Hour, Claims{
		UserID:     "u-1",
		UserType:   UserTypeStudent,
		Department: "Computer Engineering",
		Level:      "300 Level",
	})
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	claims, err := ParseToken("dev-secret", "eduattend", token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if claims.UserID != "u-1" || claims.UserType != UserTypeStudent {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Department != "Computer Engineering" || claims.Level != "300 Level" {
		t.Fatalf("audience claims lost: %+v", claims)
	}
}

func TestTokenRejectsWrongSecretAndIssuer(t *testing.T) {
	token, err := NewAccessToken("dev-secret", "eduattend", time.Hour, Claims{UserID: "u-1"})
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := ParseToken("other-secret", "eduattend", token); err == nil {
		t.Fatalf("expected parse to fail with wrong secret")
	}
	if _, err := ParseToken("dev-secret", "someone-else", token); err == nil {
		t.Fatalf("expected parse to fail with wrong issuer")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	token, err := NewAccessToken("dev-secret", "eduattend", -time.Minute, Claims{UserID: "u-1"})
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	if _, err := ParseToken("dev-secret", "eduattend", token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}
