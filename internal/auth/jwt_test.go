package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndParse_RoundTrip(t *testing.T) {
	pair, err := Issue("user-1", RoleProfessor, "rollcall", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := Parse(pair.AccessToken, "secret", "rollcall")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("expected subject user-1, got %q", claims.Subject)
	}
	if claims.Role != RoleProfessor {
		t.Errorf("expected professor role, got %q", claims.Role)
	}
}

func TestParse_WrongKey(t *testing.T) {
	pair, err := Issue("user-1", RoleStudent, "rollcall", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := Parse(pair.AccessToken, "other-secret", "rollcall"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_WrongIssuer(t *testing.T) {
	pair, err := Issue("user-1", RoleStudent, "someone-else", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := Parse(pair.AccessToken, "secret", "rollcall"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_ExpiredToken(t *testing.T) {
	pair, err := Issue("user-1", RoleStudent, "rollcall", "secret", -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := Parse(pair.AccessToken, "secret", "rollcall"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}
