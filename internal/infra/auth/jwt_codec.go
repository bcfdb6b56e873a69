// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"shopauth/config"
	"shopauth/internal/domain/entity"
	"shopauth/internal/domain/service"
)

// jwtCodec is a concrete implementation of the TokenCodec interface using the JWT standard.
// Access tokens are signed with HMAC-SHA512; refresh tokens are opaque random
// strings issued elsewhere, so a single secret is enough here.
type jwtCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTCodec is the constructor for jwtCodec.
// It takes configuration values to create a new token codec instance.
func NewJWTCodec(cfg *config.Config) (service.TokenCodec, error) {
	if cfg.Auth == nil || cfg.Auth.JWTSecret == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	return &jwtCodec{
		secret:     []byte(cfg.Auth.JWTSecret),
		accessTTL:  cfg.Auth.AccessTokenTTL,
		refreshTTL: cfg.Auth.RefreshTokenTTL,
	}, nil
}

// Mint creates a signed access token carrying the user's identity and role.
func (c *jwtCodec) Mint(user *entity.User) (string, *service.AccessTokenClaims, error) {
	now := time.Now()
	claims := &service.AccessTokenClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Verify checks the signature and expiry of a token string and returns its claims.
func (c *jwtCodec) Verify(tokenString string) (*service.AccessTokenClaims, error) {
	claims := &service.AccessTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// RemainingTTL reports how long the given token stays valid.
// Expired or malformed tokens report zero so callers can skip dead entries.
func (c *jwtCodec) RemainingTTL(tokenString string) time.Duration {
	claims, err := c.Verify(tokenString)
	if err != nil || claims.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// AccessTokenTTL returns the configured lifetime for access tokens.
func (c *jwtCodec) AccessTokenTTL() time.Duration {
	return c.accessTTL
}

// RefreshTokenTTL returns the configured lifetime for refresh tokens.
func (c *jwtCodec) RefreshTokenTTL() time.Duration {
	return c.refreshTTL
}
