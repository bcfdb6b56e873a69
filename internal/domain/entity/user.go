// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the account record this core authenticates. The wider storefront
// (profiles, orders, carts) hangs off the same ID but lives elsewhere.
type User struct {
	ID           uuid.UUID  // The unique ID for this user account.
	Email        string     // Primary login identifier; unique.
	Username     string     // Display handle; unique.
	Role         Role       // Authorization role embedded into access tokens.
	PasswordHash string     // bcrypt hash of the password; empty for OAuth2-only accounts.
	Active       bool       // False means the account is disabled and cannot log in.
	Locked       bool       // True while an administrator has locked the account.
	// LastPasswordChangeAt moves only on password change, never on lock or
	// unlock, so password-age policies stay meaningful.
	LastPasswordChangeAt *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Summary is the minimal user projection returned in token envelopes.
type Summary struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Role     Role      `json:"role"`
}

// Summarize projects the user into the response-envelope shape.
func (u *User) Summarize() *Summary {
	return &Summary{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role,
	}
}
