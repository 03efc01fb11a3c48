package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	ts := NewTokenService("secret", 72*time.Hour)
	token, err := ts.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := ts.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id != "user-1" {
		t.Fatalf("expected user-1, got %q", id)
	}
}

func TestTokenExpiresAfterTTL(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := NewTokenService("secret", 72*time.Hour)
	ts.now = func() time.Time { return issued }

	token, err := ts.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ts.now = func() time.Time { return issued.Add(71 * time.Hour) }
	if _, err := ts.Verify(token); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	ts.now = func() time.Time { return issued.Add(72*time.Hour + time.Second) }
	if _, err := ts.Verify(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestTokenExpiryClaim(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := NewTokenService("secret", 72*time.Hour)
	ts.now = func() time.Time { return issued }

	token, _ := ts.Issue("user-1")
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 72*time.Hour {
		t.Fatalf("expected 72h lifetime, got %s", got)
	}
}

func TestTokenRejectsTampering(t *testing.T) {
	ts := NewTokenService("secret", time.Hour)
	other := NewTokenService("other-secret", time.Hour)

	token, _ := other.Issue("user-1")
	if _, err := ts.Verify(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for foreign signature, got %v", err)
	}

	for _, bad := range []string{"", "not.a.token", strings.Repeat("x", 20)} {
		if _, err := ts.Verify(bad); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for %q, got %v", bad, err)
		}
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := ts.Verify(unsigned); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for alg none, got %v", err)
	}
}
