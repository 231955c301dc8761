package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kubitskyi/contacts-api/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:               "secret",
		Issuer:               "contacts-api",
		ExpirationMinutes:    30,
		EmailTokenTTLMinutes: 60,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: 42, Email: "ann@example.com"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user_id 42, got %d", claims.UserID)
	}
	if claims.Email != "ann@example.com" || claims.Subject != "ann@example.com" {
		t.Fatalf("email not preserved: %+v", claims)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp, claims.ExpiresAt.UTC(), diff)
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: 1})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}

	other := cfg
	other.Secret = "another"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected foreign secret to be rejected")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: 7})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMintAccessTokenRequiresUser(t *testing.T) {
	if _, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{}); err == nil {
		t.Fatal("expected missing user id error")
	}
	cfg := testJWTConfig()
	cfg.Secret = ""
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: 1}); err == nil {
		t.Fatal("expected missing secret error")
	}
}

func TestEmailTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintEmailToken(cfg, time.Now(), " ann@example.com ")
	if err != nil {
		t.Fatalf("mint email token: %v", err)
	}
	email, err := ParseEmailToken(cfg, token)
	if err != nil {
		t.Fatalf("parse email token: %v", err)
	}
	if email != "ann@example.com" {
		t.Fatalf("unexpected email %q", email)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	cfg := testJWTConfig()

	access, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: 3, Email: "x@example.com"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseEmailToken(cfg, access); !errors.Is(err, ErrWrongPurpose) {
		t.Fatalf("expected purpose mismatch, got %v", err)
	}

	confirm, err := MintEmailToken(cfg, time.Now(), "x@example.com")
	if err != nil {
		t.Fatalf("mint email token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, confirm); !errors.Is(err, ErrWrongPurpose) {
		t.Fatalf("expected purpose mismatch, got %v", err)
	}
}

func TestMintEmailTokenRequiresTTL(t *testing.T) {
	cfg := testJWTConfig()
	cfg.EmailTokenTTLMinutes = 0
	if _, err := MintEmailToken(cfg, time.Now(), "x@example.com"); err == nil {
		t.Fatal("expected ttl error")
	}
}
