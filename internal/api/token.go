package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type SessionClaims struct {
	jwt.RegisteredClaims

	Role          string `json:"role,omitempty"`
	AccountStatus string `json:"accountStatus,omitempty"`
}

type VerifiedSession struct {
	UserID        string
	Role          string
	AccountStatus string
	ExpiresAt     time.Time
}

// MintSessionToken issues an HS256 session token for a portal user.
func MintSessionToken(secret, userID, role, accountStatus string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("missing auth secret")
	}
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:          role,
		AccountStatus: accountStatus,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifySessionToken verifies a portal session token (JWT, HS256).
func VerifySessionToken(tokenString, secret string, now time.Time) (*VerifiedSession, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if secret == "" {
		return nil, fmt.Errorf("missing auth secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	claims := &SessionClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, fmt.Errorf("token expired")
	}
	if claims.NotBefore != nil && claims.NotBefore.Time.After(now) {
		return nil, fmt.Errorf("token not active yet")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("missing subject")
	}

	return &VerifiedSession{
		UserID:        claims.Subject,
		Role:          claims.Role,
		AccountStatus: claims.AccountStatus,
		ExpiresAt:     claims.ExpiresAt.Time,
	}, nil
}
