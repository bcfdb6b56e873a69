package service

import (
	"time"

	"shopauth/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims defines the custom claims carried by access tokens.
type AccessTokenClaims struct {
	UserID   uuid.UUID   `json:"sub_id"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Role     entity.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec defines the interface for minting and verifying access tokens.
// Refresh tokens are deliberately opaque and are not produced here; they are
// random strings whose validity lives entirely in the session store, so a
// single row update revokes them instantly.
type TokenCodec interface {
	// Mint creates a signed access token for the given user.
	Mint(user *entity.User) (token string, claims *AccessTokenClaims, err error)

	// Verify checks the signature and expiry of a token string and returns its claims.
	Verify(tokenString string) (*AccessTokenClaims, error)

	// RemainingTTL reports how long the given token stays valid. It returns zero
	// for tokens that are already expired or unparseable, so callers can skip
	// blacklisting work that would be a no-op.
	RemainingTTL(tokenString string) time.Duration

	// AccessTokenTTL returns the configured lifetime for access tokens.
	AccessTokenTTL() time.Duration

	// RefreshTokenTTL returns the configured lifetime for refresh tokens.
	RefreshTokenTTL() time.Duration
}
