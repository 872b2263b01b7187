package auth

import (
	"testing"
	"time"

	"acs-platform/internal/config"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		JWTIssuer:       "acs-platform",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m := testManager(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	pair, err := m.IssuePair(now, "u1", "admin")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := testManager(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	pair, err := m.IssuePair(now, "u1", "admin")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	if _, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(16*time.Minute)); err == nil {
		t.Fatal("expected expired-token error")
	}
}

func TestVerifyRejectsTokenTypeMismatch(t *testing.T) {
	m := testManager(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	pair, err := m.IssuePair(now, "u1", "admin")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	if _, err := m.Verify(pair.RefreshToken, TokenTypeAccess, now.Add(time.Minute)); err == nil {
		t.Fatal("expected token_type mismatch error")
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager(config.AuthConfig{}); err == nil {
		t.Fatal("expected error for missing secret")
	}
}
