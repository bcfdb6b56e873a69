package service

import (
	"context"

	"shopauth/internal/domain/entity"
)

// OAuthUser represents user information from OAuth providers
type OAuthUser struct {
	ID            string              // Provider-specific user ID (e.g., Google's 'sub' claim)
	Email         string              // User's email address
	Name          string              // User's display name
	Provider      entity.ProviderType // The OAuth provider (google, apple, etc.)
	AvatarURL     string              // URL to user's profile picture
	EmailVerified bool                // Whether the email is verified by the provider
	Locale        string              // User's locale/language preference
}

// OAuthProvider defines the interface for the authorization-code flow against
// an external identity provider.
type OAuthProvider interface {
	// Provider returns the provider type this implementation talks to.
	Provider() entity.ProviderType

	// BuildAuthorizationURL returns the provider consent URL carrying a fresh
	// anti-forgery state value.
	BuildAuthorizationURL() (url string, state string, err error)

	// ExchangeCode validates the state, trades the authorization code for
	// provider tokens, and fetches the user's profile.
	ExchangeCode(ctx context.Context, code, state string) (*OAuthUser, error)
}
