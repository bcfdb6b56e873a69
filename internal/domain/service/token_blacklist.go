package service

import (
	"time"

	"github.com/google/uuid"
)

// TokenBlacklist defines the interface for denying access tokens before they expire.
// Entries only need to live as long as the token they shadow, so every write
// carries a TTL and the store may evict early when it runs out of room.
type TokenBlacklist interface {
	// Revoke denies a single access token for the given duration.
	// Calls with a non-positive TTL are ignored; the token is already dead.
	Revoke(token string, ttl time.Duration)

	// IsRevoked reports whether a token has been individually denied.
	IsRevoked(token string) bool

	// RevokeAllForUser denies every access token issued to the user before now.
	// Tokens minted after this call remain valid.
	RevokeAllForUser(userID uuid.UUID)

	// IsUserRevoked reports whether tokens issued to the user at issuedAt are
	// covered by a blanket revocation.
	IsUserRevoked(userID uuid.UUID, issuedAt time.Time) bool

	// SweepExpired drops entries whose TTL has lapsed and returns how many were removed.
	SweepExpired() int
}
