package security

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, errGen := GenerateAccessToken("secret", 42, "a@example.com", "PREMIUM", time.Minute)
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}

	claims, errParse := ParseAccessToken("secret", token)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if claims.UserID != 42 || claims.Email != "a@example.com" || claims.Role != "PREMIUM" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, errGen := GenerateAccessToken("secret", 1, "a@example.com", "BASIC", time.Minute)
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}
	if _, errParse := ParseAccessToken("other", token); errParse != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", errParse)
	}
}

func TestAccessTokenExpired(t *testing.T) {
	token, errGen := GenerateAccessToken("secret", 1, "a@example.com", "BASIC", -time.Minute)
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}
	if _, errParse := ParseAccessToken("secret", token); errParse != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", errParse)
	}
}

func TestRefreshTokenNotValidAsAccessSecret(t *testing.T) {
	refresh, errGen := GenerateRefreshToken("refresh-secret", 7, time.Hour)
	if errGen != nil {
		t.Fatalf("generate: %v", errGen)
	}

	claims, errParse := ParseRefreshToken("refresh-secret", refresh)
	if errParse != nil {
		t.Fatalf("parse refresh: %v", errParse)
	}
	if claims.UserID != 7 {
		t.Fatalf("unexpected user id %d", claims.UserID)
	}

	if _, errParse := ParseRefreshToken("access-secret", refresh); errParse == nil {
		t.Fatalf("expected refresh token to fail under a different secret")
	}
}
