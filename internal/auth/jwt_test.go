package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	userID := uuid.New()

	token, err := svc.Generate(userID, "a@campus.edu", "student", "S123")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user %s, got %s", userID, claims.UserID)
	}
	if claims.Role != "student" || claims.StudentNo != "S123" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 1).Generate(uuid.New(), "a@campus.edu", "teacher", "")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if _, err := NewJWTService("secret-b", 1).Validate(token); err == nil {
		t.Fatal("expected validation failure with wrong secret")
	}
}

func TestJWTExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -1)
	token, err := svc.Generate(uuid.New(), "a@campus.edu", "teacher", "")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if _, err := svc.Validate(token); err == nil {
		t.Fatal("expected validation failure for expired token")
	}
}

func TestJWTGarbage(t *testing.T) {
	if _, err := NewJWTService("test-secret", 1).Validate("not-a-jwt"); err == nil {
		t.Fatal("expected validation failure for malformed token")
	}
}
