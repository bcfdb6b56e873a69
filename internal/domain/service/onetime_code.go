package service

import (
	"errors"

	"shopauth/internal/domain/entity"
)

// ErrCodeNotFound is returned by Exchange when the code is unknown, already
// used, or past its TTL. The three cases are indistinguishable on purpose.
var ErrCodeNotFound = errors.New("one-time code not found")

// AuthResult is the token bundle parked behind a one-time code during the
// OAuth2 handshake. The provider callback lands on a browser redirect, so the
// tokens cannot ride the redirect URL directly; the frontend trades the code
// for this bundle over a POST instead.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
	User         *entity.Summary
}

// OneTimeCodeStore defines the interface for the short-lived code exchange.
type OneTimeCodeStore interface {
	// Issue parks the result behind a fresh random code and returns the code.
	Issue(result *AuthResult) (string, error)

	// Exchange atomically consumes the code and returns the parked result.
	// A code can be exchanged at most once.
	Exchange(code string) (*AuthResult, error)
}
