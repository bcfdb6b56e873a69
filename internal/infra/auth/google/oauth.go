// Package google implements the OAuth2 authorization-code flow against Google.
package google

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"shopauth/config"
	"shopauth/internal/domain/entity"
	"shopauth/internal/domain/service"

	"github.com/pkg/errors"
)

const (
	googleOAuthURL    = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	// stateTTL bounds how long a pending handshake may sit between the
	// redirect to Google and the callback.
	stateTTL = 10 * time.Minute
)

// OAuthProvider handles the Google side of the OAuth2 handshake.
type OAuthProvider struct {
	clientID     string
	clientSecret string
	redirectURI  string
	scopes       string
	httpClient   *http.Client

	// State storage for CSRF protection
	stateMutex sync.Mutex
	stateStore map[string]time.Time
}

// NewOAuthProvider creates a new Google OAuth provider.
func NewOAuthProvider(cfg *config.Config) service.OAuthProvider {
	google := cfg.OAuth2.Google
	return &OAuthProvider{
		clientID:     google.ClientID,
		clientSecret: google.ClientSecret,
		redirectURI:  google.RedirectURI,
		scopes:       google.Scopes,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		stateStore:   make(map[string]time.Time),
	}
}

// Provider returns the OAuth provider type.
func (p *OAuthProvider) Provider() entity.ProviderType {
	return entity.ProviderTypeGoogle
}

// BuildAuthorizationURL constructs the Google consent URL with a fresh state
// parameter for CSRF protection.
func (p *OAuthProvider) BuildAuthorizationURL() (string, string, error) {
	state, err := p.generateState()
	if err != nil {
		return "", "", errors.Wrap(err, "failed to generate state")
	}
	p.storeState(state)

	params := url.Values{}
	params.Set("client_id", p.clientID)
	params.Set("redirect_uri", p.redirectURI)
	params.Set("scope", p.scopes)
	params.Set("response_type", "code")
	params.Set("state", state)

	return googleOAuthURL + "?" + params.Encode(), state, nil
}

// ExchangeCode validates the state, trades the authorization code for an
// access token, and fetches the user's profile.
func (p *OAuthProvider) ExchangeCode(ctx context.Context, code, state string) (*service.OAuthUser, error) {
	if !p.consumeState(state) {
		return nil, errors.New("invalid or expired oauth state")
	}

	accessToken, err := p.exchangeCodeForToken(ctx, code)
	if err != nil {
		return nil, err
	}

	return p.fetchUserInfo(ctx, accessToken)
}

// generateState generates a cryptographically secure random state string.
func (p *OAuthProvider) generateState() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// storeState records a pending state and sweeps lapsed ones while holding the lock.
func (p *OAuthProvider) storeState(state string) {
	p.stateMutex.Lock()
	defer p.stateMutex.Unlock()

	now := time.Now()
	p.stateStore[state] = now.Add(stateTTL)

	for pending, expiry := range p.stateStore {
		if now.After(expiry) {
			delete(p.stateStore, pending)
		}
	}
}

// consumeState atomically checks and removes a state so it cannot be replayed.
func (p *OAuthProvider) consumeState(state string) bool {
	p.stateMutex.Lock()
	defer p.stateMutex.Unlock()

	expiry, exists := p.stateStore[state]
	if !exists {
		return false
	}
	delete(p.stateStore, state)

	return time.Now().Before(expiry)
}

// exchangeCodeForToken exchanges an authorization code for an access token.
func (p *OAuthProvider) exchangeCodeForToken(ctx context.Context, code string) (string, error) {
	data := url.Values{}
	data.Set("client_id", p.clientID)
	data.Set("client_secret", p.clientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", p.redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, googleTokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "failed to create token exchange request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to exchange code for token")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", errors.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return "", errors.Wrap(err, "failed to decode token response")
	}

	return tokenResponse.AccessToken, nil
}

// fetchUserInfo retrieves the user's profile using the provider access token.
func (p *OAuthProvider) fetchUserInfo(ctx context.Context, accessToken string) (*service.OAuthUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create user info request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.Errorf("user info request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var googleUser struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		VerifiedEmail bool   `json:"verified_email"`
		Locale        string `json:"locale"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return nil, errors.Wrap(err, "failed to decode user info response")
	}

	return &service.OAuthUser{
		ID:            googleUser.ID,
		Email:         googleUser.Email,
		Name:          googleUser.Name,
		Provider:      entity.ProviderTypeGoogle,
		AvatarURL:     googleUser.Picture,
		EmailVerified: googleUser.VerifiedEmail,
		Locale:        googleUser.Locale,
	}, nil
}
