package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleViewer = "viewer"
	RoleAdmin  = "admin"
)

// TokenIssuer signs and verifies report API tokens.
type TokenIssuer struct {
	Auth *jwtauth.JWTAuth
	ttl  time.Duration
	now  func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		Auth: jwtauth.New("HS256", secret, nil),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (i *TokenIssuer) GenerateToken(subject, role string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	now := i.now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  now.Add(i.ttl).Unix(),
		"iat":  now.Unix(),
	}
	_, tokenString, err := i.Auth.Encode(claims)
	return tokenString, err
}

// Helper functions to extract claims, used by the API middleware.
func GetSubjectFromClaims(claims jwt.MapClaims) (string, error) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("sub claim is missing or not a string")
	}
	return sub, nil
}

func GetRoleFromClaims(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}
