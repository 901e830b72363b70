package auth

import (
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/wardline-health/staff-access-service/internal/domain"
)

// TokenManager validates tokens minted by the identity provider.
type TokenManager struct {
	secret []byte
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// Claims describes JWT payload.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Identity converts claims into a validated caller identity.
func (c *Claims) Identity() (domain.Identity, error) {
	email, err := domain.NormalizeEmail(c.Email)
	if err != nil {
		return domain.Identity{}, err
	}
	role, ok := domain.ParseRole(c.Role)
	if !ok {
		return domain.Identity{}, errors.New("unknown role")
	}
	return domain.Identity{Email: email, Role: role, Name: c.Name}, nil
}
