// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"shopauth/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrSessionNotFound is returned when no session matches the given refresh token.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository defines the persistence operations for login sessions.
// Sessions are deactivated in place rather than deleted, so the table doubles
// as an audit trail of historical logins.
type SessionRepository interface {
	// Create persists a new session, representing one successful login.
	Create(ctx context.Context, session *entity.Session) error

	// FindByTokenHash retrieves a session by the SHA-256 hash of its opaque
	// refresh token. Returns ErrSessionNotFound if no row matches; expiry and
	// active-flag checks are the caller's responsibility.
	FindByTokenHash(ctx context.Context, tokenHash string) (*entity.Session, error)

	// FindActiveByUserID retrieves all active, unexpired sessions for a user,
	// newest first.
	FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error)

	// Update overwrites the mutable fields of an existing session
	// (access token, last-activity timestamp).
	Update(ctx context.Context, session *entity.Session) error

	// Invalidate deactivates a single session and stamps its logout time.
	Invalidate(ctx context.Context, id uuid.UUID, at time.Time) error

	// InvalidateAllForUser bulk-deactivates every active session owned by the
	// user and returns how many rows changed. The update is atomic with
	// respect to concurrent refresh attempts.
	InvalidateAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)

	// InvalidateExpired bulk-deactivates every active session whose expiry
	// has passed and returns how many rows changed.
	InvalidateExpired(ctx context.Context, now time.Time) (int64, error)
}
