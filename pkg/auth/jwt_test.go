package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, 24*time.Hour)

	token, err := m.GenerateToken("user-1", "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("expected user_id user-1, got %s", claims.UserID)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("expected email alice@example.com, got %s", claims.Email)
	}
}

func TestExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute, 24*time.Hour)

	token, err := m.GenerateToken("user-1", "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := m.ValidateToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestWrongSecret(t *testing.T) {
	m := NewJWTManager("secret-a", time.Hour, 24*time.Hour)
	other := NewJWTManager("secret-b", time.Hour, 24*time.Hour)

	token, err := m.GenerateToken("user-1", "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	if !CheckPasswordHash("hunter22", hash) {
		t.Error("expected matching password to verify")
	}
	if CheckPasswordHash("hunter23", hash) {
		t.Error("expected mismatched password to fail")
	}
}
