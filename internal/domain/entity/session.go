// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is the persisted record of a single login. It is keyed by the
// SHA-256 hash of the opaque refresh token; the raw token never touches
// storage. Rows are deactivated, never deleted, to preserve the audit trail.
type Session struct {
	ID     uuid.UUID // The unique ID for this session record.
	UserID uuid.UUID // Links this session to the User it belongs to.

	// TokenHash stores a SHA-256 hash of the raw refresh token for secure
	// comparison in the database.
	TokenHash string

	// AccessToken always reflects the most recently minted access token for
	// this session; refresh overwrites it so logout can blacklist exactly
	// the token that is still outstanding.
	AccessToken string

	Active         bool       // False once logged out or invalidated.
	ExpiresAt      time.Time  // Refresh is refused after this instant regardless of Active.
	CreatedAt      time.Time  // When the user logged in.
	LastActivityAt time.Time  // Moves on every refresh.
	LoggedOutAt    *time.Time // Set when the session is deactivated.

	// Client metadata captured at login time.
	IPAddress   string
	UserAgent   string
	DeviceLabel string
}

// UsableForRefresh reports whether this session may still mint access tokens.
func (s *Session) UsableForRefresh(now time.Time) bool {
	return s.Active && s.ExpiresAt.After(now)
}
