// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"shopauth/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	Client   entity.ClientContext
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
	Client   entity.ClientContext
}

// OAuth2CallbackInput carries the provider redirect parameters back into the flow.
type OAuth2CallbackInput struct {
	Code   string
	State  string
	Client entity.ClientContext
}

// ChangePasswordInput defines the data required to change the caller's password.
type ChangePasswordInput struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// --- Output DTOs ---

// AuthOutput returns the token pair issued after a successful authentication.
type AuthOutput struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
	User         *entity.Summary
}

// SessionInfo is the caller-facing view of one active session.
type SessionInfo struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
	IPAddress      string
	DeviceLabel    string
}

// AuthUsecase defines the interface for authentication and session lifecycle operations.
// This is the contract that the delivery layer (e.g., HTTP handlers) will depend on.
type AuthUsecase interface {
	// Register creates a new account and logs it in immediately.
	Register(ctx context.Context, input RegisterInput) (*AuthOutput, error)

	// Login authenticates email/password credentials and opens a session.
	Login(ctx context.Context, input LoginInput) (*AuthOutput, error)

	// OAuth2AuthorizationURL starts the provider handshake.
	OAuth2AuthorizationURL(ctx context.Context, provider entity.ProviderType) (string, error)

	// OAuth2Login completes the provider callback, provisioning the account on
	// first login, and parks the token pair behind a one-time code.
	OAuth2Login(ctx context.Context, provider entity.ProviderType, input OAuth2CallbackInput) (code string, err error)

	// ExchangeOneTimeCode trades the handshake code for the parked token pair.
	ExchangeOneTimeCode(ctx context.Context, code string) (*AuthOutput, error)

	// RefreshToken mints a fresh access token against an active session.
	RefreshToken(ctx context.Context, refreshToken string) (*AuthOutput, error)

	// Logout ends the session behind the refresh token and blacklists the
	// caller's outstanding access tokens. Logging out twice is not an error.
	Logout(ctx context.Context, refreshToken, accessToken string) error

	// ChangePassword rotates the caller's password and invalidates every session.
	ChangePassword(ctx context.Context, input ChangePasswordInput) error

	// LockAccount administratively locks the user and severs all access.
	LockAccount(ctx context.Context, userID uuid.UUID, reason string) error

	// UnlockAccount lifts an administrative lock. The user logs in afresh.
	UnlockAccount(ctx context.Context, userID uuid.UUID) error

	// CurrentUser returns the profile summary for an authenticated caller.
	CurrentUser(ctx context.Context, userID uuid.UUID) (*entity.Summary, error)

	// ListSessions returns the caller's active sessions, newest first.
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*SessionInfo, error)

	// CleanupExpiredSessions bulk-deactivates sessions past their expiry and
	// sweeps the blacklist. Scheduling belongs to the maintenance worker.
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}
