package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/auth-system/internal/core/domain"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNewTokenService_ShortSecret(t *testing.T) {
	if _, err := NewTokenService("short", time.Hour); err == nil {
		t.Fatalf("expected error for short secret")
	}
}

func TestNewTokenService_DefaultTTL(t *testing.T) {
	s, err := NewTokenService(testSecret, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TTL() != 24*time.Hour {
		t.Fatalf("expected 24h default, got %v", s.TTL())
	}
}

func TestTokenService_IssueVerify(t *testing.T) {
	s := mustTokens(time.Hour)

	token, issued, err := s.Issue("alice", t0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.ID == "" {
		t.Fatalf("expected token id")
	}
	if !issued.ExpiresAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("expected expiry %v, got %v", t0.Add(time.Hour), issued.ExpiresAt)
	}

	claims, err := s.Verify(token, t0)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "alice" || claims.ID != issued.ID {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.IssuedAt.Equal(t0) {
		t.Fatalf("expected iat %v, got %v", t0, claims.IssuedAt)
	}
}

func TestTokenService_ValidityWindow(t *testing.T) {
	ttl := time.Hour
	s := mustTokens(ttl)
	token, _, err := s.Issue("alice", t0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	valid := []time.Duration{0, time.Second, 30 * time.Minute, ttl - time.Second}
	for _, d := range valid {
		if _, err := s.Verify(token, t0.Add(d)); err != nil {
			t.Fatalf("expected token valid at t0+%v, got %v", d, err)
		}
	}

	expired := []time.Duration{ttl, ttl + time.Second, 48 * time.Hour}
	for _, d := range expired {
		if _, err := s.Verify(token, t0.Add(d)); !errors.Is(err, domain.ErrExpiredToken) {
			t.Fatalf("expected ErrExpiredToken at t0+%v, got %v", d, err)
		}
	}
}

func TestTokenService_ValidityWindowFractionalSecond(t *testing.T) {
	ttl := time.Hour
	s := mustTokens(ttl)
	now := t0.Add(900 * time.Millisecond)

	token, issued, err := s.Issue("alice", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !issued.IssuedAt.Equal(t0) {
		t.Fatalf("expected issue time %v, got %v", t0, issued.IssuedAt)
	}
	if got := issued.ExpiresAt.Sub(issued.IssuedAt); got != ttl {
		t.Fatalf("expected exactly %v of validity, got %v", ttl, got)
	}

	valid := []time.Duration{0, 900 * time.Millisecond, ttl - 500*time.Millisecond, ttl - time.Nanosecond}
	for _, d := range valid {
		if _, err := s.Verify(token, issued.IssuedAt.Add(d)); err != nil {
			t.Fatalf("expected token valid at iat+%v, got %v", d, err)
		}
	}

	for _, d := range []time.Duration{ttl, ttl + 500*time.Millisecond} {
		if _, err := s.Verify(token, issued.IssuedAt.Add(d)); !errors.Is(err, domain.ErrExpiredToken) {
			t.Fatalf("expected ErrExpiredToken at iat+%v, got %v", d, err)
		}
	}
}

func TestTokenService_DifferentKeyFails(t *testing.T) {
	issuer := mustTokens(time.Hour)
	other, err := NewTokenService("another-secret-that-is-32-bytes-long!", time.Hour)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	token, _, _ := issuer.Issue("alice", t0)
	if _, err := other.Verify(token, t0); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_MalformedInput(t *testing.T) {
	s := mustTokens(time.Hour)

	inputs := []string{"", "abc", "a.b.c", "...", "Bearer x", strings.Repeat("x", 4096)}
	for _, in := range inputs {
		claims, err := s.Verify(in, t0)
		if !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("Verify(%q): expected ErrInvalidToken, got %v", in, err)
		}
		if claims != nil {
			t.Fatalf("expected nil claims for malformed input")
		}
	}
}

func TestTokenService_TamperedPayload(t *testing.T) {
	s := mustTokens(time.Hour)
	alice, _, _ := s.Issue("alice", t0)
	mallory, _, _ := s.Issue("mallory", t0)

	a := strings.Split(alice, ".")
	m := strings.Split(mallory, ".")
	forged := a[0] + "." + m[1] + "." + a[2]

	if _, err := s.Verify(forged, t0); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for forged token, got %v", err)
	}
}

func TestTokenService_RejectsNoneAlgorithm(t *testing.T) {
	s := mustTokens(time.Hour)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := s.Verify(unsigned, t0); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_RequiresExpiry(t *testing.T) {
	s := mustTokens(time.Hour)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).
		SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := s.Verify(noExp, t0); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken without exp, got %v", err)
	}
}

func TestTokenService_UniqueIDs(t *testing.T) {
	s := mustTokens(time.Hour)
	_, a, _ := s.Issue("alice", t0)
	_, b, _ := s.Issue("alice", t0)
	if a.ID == b.ID {
		t.Fatalf("expected distinct token ids")
	}
}

func TestTokenService_EmptySubject(t *testing.T) {
	s := mustTokens(time.Hour)
	if _, _, err := s.Issue("", t0); err == nil {
		t.Fatalf("expected error for empty subject")
	}
}
