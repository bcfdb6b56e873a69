package google

import (
	"net/url"
	"testing"
	"time"

	"shopauth/config"
	"shopauth/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOAuthConfig() *config.Config {
	return &config.Config{
		OAuth2: &config.OAuth2Config{
			Google: &config.OAuth2ProviderConfig{
				ClientID:     "test_client_id",
				ClientSecret: "test_secret",
				RedirectURI:  "http://localhost:8080/auth/oauth2/google/callback",
				Scopes:       "openid email profile",
			},
		},
	}
}

func TestOAuthProvider_BuildAuthorizationURL(t *testing.T) {
	provider := NewOAuthProvider(testOAuthConfig())

	rawURL, state, err := provider.BuildAuthorizationURL()
	require.NoError(t, err)
	assert.NotEmpty(t, state)

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", parsed.Host)
	assert.Equal(t, "/o/oauth2/v2/auth", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "test_client_id", query.Get("client_id"))
	assert.Equal(t, "http://localhost:8080/auth/oauth2/google/callback", query.Get("redirect_uri"))
	assert.Equal(t, "openid email profile", query.Get("scope"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, state, query.Get("state"))
}

func TestOAuthProvider_StatesAreUnique(t *testing.T) {
	provider := NewOAuthProvider(testOAuthConfig())

	_, first, err := provider.BuildAuthorizationURL()
	require.NoError(t, err)
	_, second, err := provider.BuildAuthorizationURL()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestOAuthProvider_ConsumeState(t *testing.T) {
	provider := NewOAuthProvider(testOAuthConfig()).(*OAuthProvider)

	_, state, err := provider.BuildAuthorizationURL()
	require.NoError(t, err)

	// First use succeeds, replay fails
	assert.True(t, provider.consumeState(state))
	assert.False(t, provider.consumeState(state))

	// Unknown states fail
	assert.False(t, provider.consumeState("never_issued"))
}

func TestOAuthProvider_ExpiredState(t *testing.T) {
	provider := NewOAuthProvider(testOAuthConfig()).(*OAuthProvider)

	provider.stateMutex.Lock()
	provider.stateStore["stale"] = time.Now().Add(-time.Minute)
	provider.stateMutex.Unlock()

	assert.False(t, provider.consumeState("stale"))
}

func TestOAuthProvider_Provider(t *testing.T) {
	provider := NewOAuthProvider(testOAuthConfig())
	assert.Equal(t, entity.ProviderTypeGoogle, provider.Provider())
}
