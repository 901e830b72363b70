package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/wardline-health/staff-access-service/internal/domain"
)

func signToken(t *testing.T, secret string, identity domain.Identity) string {
	t.Helper()
	now := time.Now()
	claims := &Claims{
		Email: string(identity.Email),
		Role:  string(identity.Role),
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(identity.Email),
			ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestTokenRoundTripNormalizesIdentity(t *testing.T) {
	tokens := NewTokenManager("test-secret")
	token := signToken(t, "test-secret", domain.Identity{Email: "Nurse@H.org", Role: "Nurse", Name: "Nina"})
	claims, err := tokens.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	identity, err := claims.Identity()
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	if identity.Email != "nurse@h.org" || identity.Role != domain.RoleNurse || identity.Name != "Nina" {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	token := signToken(t, "a", domain.Identity{Email: "d@h.org", Role: domain.RoleDoctor})
	if _, err := NewTokenManager("b").ParseToken(token); err == nil {
		t.Fatalf("expected signature failure")
	}
}

func TestClaimsWithUnknownRoleAreRejected(t *testing.T) {
	claims := &Claims{Email: "x@h.org", Role: "janitor"}
	if _, err := claims.Identity(); err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
	claims = &Claims{Email: "no-at-sign", Role: "doctor"}
	if _, err := claims.Identity(); err == nil {
		t.Fatalf("expected malformed email to be rejected")
	}
}
