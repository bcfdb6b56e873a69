// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// SecurityEventKind enumerates the auditable authentication outcomes.
type SecurityEventKind string

const (
	// EventLoginSuccess records a successful credential or registration login.
	EventLoginSuccess SecurityEventKind = "login_success"
	// EventLoginFailure records a rejected login attempt.
	EventLoginFailure SecurityEventKind = "login_failure"
	// EventOAuth2Login records a successful provider-mediated login.
	EventOAuth2Login SecurityEventKind = "oauth2_login"
	// EventTokenRevoked records a token or session revocation.
	EventTokenRevoked SecurityEventKind = "token_revoked"
	// EventAccountLocked records an administrative lock.
	EventAccountLocked SecurityEventKind = "account_locked"
	// EventAccountUnlocked records an administrative unlock.
	EventAccountUnlocked SecurityEventKind = "account_unlocked"
)

// String returns the string representation of the SecurityEventKind.
func (k SecurityEventKind) String() string {
	return string(k)
}

// SecurityEvent is one append-only audit record. Events are written on every
// auth-relevant outcome and are never edited; the maintenance sweep purges
// them in bulk past the retention window.
type SecurityEvent struct {
	ID        uuid.UUID
	Subject   string // Email or a synthetic user tag when no email is known.
	Kind      SecurityEventKind
	Reason    string // Free text, e.g. "Invalid credentials".
	IPAddress string
	CreatedAt time.Time
}
