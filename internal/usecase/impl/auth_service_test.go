package impl

import (
	"context"
	"testing"
	"time"

	"shopauth/internal/domain/entity"
	domainerrors "shopauth/internal/domain/errors"
	"shopauth/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Register(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)
	require.NotNil(t, output)

	assert.NotEmpty(t, output.AccessToken)
	assert.NotEmpty(t, output.RefreshToken)
	assert.Equal(t, "Bearer", output.TokenType)
	assert.Equal(t, int64(3600), output.ExpiresIn)
	assert.Equal(t, "alice@example.com", output.User.Email)
	assert.Equal(t, entity.RoleUser, output.User.Role)

	// Registration doubles as first login: exactly one active session exists
	sessions, err := fixture.sessions.FindActiveByUserID(ctx, output.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Active)
	assert.Equal(t, output.AccessToken, sessions[0].AccessToken)
	assert.Equal(t, "203.0.113.7", sessions[0].IPAddress)

	// The access token verifies against the codec
	claims, err := fixture.codec.Verify(output.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, output.User.ID, claims.UserID)

	assert.Len(t, fixture.events.byKind(entity.EventLoginSuccess), 1)
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	_, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	_, err = fixture.register(ctx, "alice@example.com", "alice2", "StrongPass123!")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateResource)

	_, err = fixture.register(ctx, "alice2@example.com", "alice", "StrongPass123!")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateResource)
}

func TestAuthService_Login(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	_, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	output, err := fixture.service.Login(ctx, usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "StrongPass123!",
		Client:   testClient(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, output.AccessToken)
	assert.NotEmpty(t, output.RefreshToken)

	// Register + login: two active sessions, two success events
	sessions, err := fixture.sessions.FindActiveByUserID(ctx, output.User.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
	assert.Len(t, fixture.events.byKind(entity.EventLoginSuccess), 2)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	_, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = fixture.service.Login(ctx, usecase.LoginInput{
			Email:    "alice@example.com",
			Password: "WrongPass123!",
			Client:   testClient(),
		})
		// No lockout at this layer: the third attempt fails the same way
		assert.ErrorIs(t, err, domainerrors.ErrBadCredentials)
	}

	failures := fixture.events.byKind(entity.EventLoginFailure)
	require.Len(t, failures, 3)
	assert.Equal(t, "Invalid credentials", failures[0].Reason)
}

func TestAuthService_LoginUnknownEmailIndistinguishable(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	_, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	unknownErr := func() error {
		_, err := fixture.service.Login(ctx, usecase.LoginInput{
			Email:    "nobody@example.com",
			Password: "StrongPass123!",
			Client:   testClient(),
		})

		return err
	}()
	wrongPassErr := func() error {
		_, err := fixture.service.Login(ctx, usecase.LoginInput{
			Email:    "alice@example.com",
			Password: "WrongPass123!",
			Client:   testClient(),
		})

		return err
	}()

	// Unknown email and wrong password produce the same typed error and the
	// same failure-event reason
	assert.ErrorIs(t, unknownErr, domainerrors.ErrBadCredentials)
	assert.ErrorIs(t, wrongPassErr, domainerrors.ErrBadCredentials)

	failures := fixture.events.byKind(entity.EventLoginFailure)
	require.Len(t, failures, 2)
	assert.Equal(t, failures[0].Reason, failures[1].Reason)
}

func TestAuthService_LoginInactiveAccount(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	user, err := fixture.users.FindByID(ctx, output.User.ID)
	require.NoError(t, err)
	user.Active = false
	require.NoError(t, fixture.users.Update(ctx, user))

	_, err = fixture.service.Login(ctx, usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "StrongPass123!",
		Client:   testClient(),
	})
	// Account state is not disclosed to unauthenticated callers
	assert.ErrorIs(t, err, domainerrors.ErrBadCredentials)
}

func TestAuthService_LoginLockedAccount(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	require.NoError(t, fixture.service.LockAccount(ctx, output.User.ID, "abuse"))

	_, err = fixture.service.Login(ctx, usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "StrongPass123!",
		Client:   testClient(),
	})
	// Credentials were proven, so the locked state is disclosed
	assert.ErrorIs(t, err, domainerrors.ErrAccountLocked)

	// A wrong password on the locked account stays generic
	_, err = fixture.service.Login(ctx, usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "WrongPass123!",
		Client:   testClient(),
	})
	assert.ErrorIs(t, err, domainerrors.ErrBadCredentials)
}

func TestAuthService_RefreshToken(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond) // jwt iat/exp have second granularity

	refreshed, err := fixture.service.RefreshToken(ctx, output.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, output.AccessToken, refreshed.AccessToken)
	// The opaque refresh token is not rotated
	assert.Equal(t, output.RefreshToken, refreshed.RefreshToken)

	// The session now carries the newly minted access token
	sessions, err := fixture.sessions.FindActiveByUserID(ctx, output.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, refreshed.AccessToken, sessions[0].AccessToken)
}

func TestAuthService_RefreshUnknownToken(t *testing.T) {
	fixture := newAuthFixture()

	_, err := fixture.service.RefreshToken(context.Background(), "never_issued")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidToken)
}

func TestAuthService_RefreshAfterLogout(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	require.NoError(t, fixture.service.Logout(ctx, output.RefreshToken, output.AccessToken))

	_, err = fixture.service.RefreshToken(ctx, output.RefreshToken)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidToken)
}

func TestAuthService_RefreshExpiredSession(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	// Age the session past its expiry
	fixture.sessions.mu.Lock()
	for _, session := range fixture.sessions.sessions {
		session.ExpiresAt = time.Now().Add(-time.Minute)
	}
	fixture.sessions.mu.Unlock()

	_, err = fixture.service.RefreshToken(ctx, output.RefreshToken)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidToken)
}

func TestAuthService_Logout(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	require.NoError(t, fixture.service.Logout(ctx, output.RefreshToken, output.AccessToken))

	// Session deactivated
	sessions, err := fixture.sessions.FindActiveByUserID(ctx, output.User.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// The outstanding access token is individually blacklisted
	assert.True(t, fixture.blacklist.IsRevoked(output.AccessToken))

	// The per-user marker rejects every token issued before the logout
	claims, err := fixture.codec.Verify(output.AccessToken)
	require.NoError(t, err)
	assert.True(t, fixture.blacklist.IsUserRevoked(output.User.ID, claims.IssuedAt.Time))

	assert.NotEmpty(t, fixture.events.byKind(entity.EventTokenRevoked))
}

func TestAuthService_LogoutIsIdempotent(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	require.NoError(t, fixture.service.Logout(ctx, output.RefreshToken, output.AccessToken))
	eventsAfterFirst := len(fixture.events.byKind(entity.EventTokenRevoked))

	// Second logout with the consumed token completes without error and adds
	// no further side effects
	require.NoError(t, fixture.service.Logout(ctx, output.RefreshToken, output.AccessToken))
	assert.Equal(t, eventsAfterFirst, len(fixture.events.byKind(entity.EventTokenRevoked)))

	// Logout with a token that never existed also succeeds
	require.NoError(t, fixture.service.Logout(ctx, "never_issued", ""))
}

func TestAuthService_LogoutSurvivesBlacklistFailure(t *testing.T) {
	inner := newAuthFixture()
	fixture := newAuthFixture(withBlacklist(panickingBlacklist{inner.blacklist}))
	ctx := context.Background()

	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	// Revoke panics, yet logout reports success: phase 1 already deactivated
	// the session
	require.NoError(t, fixture.service.Logout(ctx, output.RefreshToken, output.AccessToken))

	sessions, err := fixture.sessions.FindActiveByUserID(ctx, output.User.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// The revocation steps are isolated from each other too: the audit event
	// lands even though the blacklist steps blew up
	assert.Len(t, fixture.events.byKind(entity.EventTokenRevoked), 1)
}

func TestAuthService_LogoutRevokesOtherDevices(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	device1, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	device2, err := fixture.service.Login(ctx, usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "StrongPass123!",
		Client:   testClient(),
	})
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)

	// Logout from device 1 only
	require.NoError(t, fixture.service.Logout(ctx, device1.RefreshToken, device1.AccessToken))

	// Device 2's unexpired access token is rejected via the user marker even
	// though it was never individually blacklisted
	claims, err := fixture.codec.Verify(device2.AccessToken)
	require.NoError(t, err)
	assert.True(t, fixture.blacklist.IsUserRevoked(device2.User.ID, claims.IssuedAt.Time))
}

func TestAuthService_ChangePassword(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	err = fixture.service.ChangePassword(ctx, usecase.ChangePasswordInput{
		UserID:          output.User.ID,
		CurrentPassword: "StrongPass123!",
		NewPassword:     "NewStrongPass456!",
	})
	require.NoError(t, err)

	// Every session is deactivated
	sessions, err := fixture.sessions.FindActiveByUserID(ctx, output.User.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// Tokens issued before the change fall under the user marker
	claims, err := fixture.codec.Verify(output.AccessToken)
	require.NoError(t, err)
	assert.True(t, fixture.blacklist.IsUserRevoked(output.User.ID, claims.IssuedAt.Time))

	// Old password no longer works, new one does
	_, err = fixture.service.Login(ctx, usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "StrongPass123!",
		Client:   testClient(),
	})
	assert.ErrorIs(t, err, domainerrors.ErrBadCredentials)

	_, err = fixture.service.Login(ctx, usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "NewStrongPass456!",
		Client:   testClient(),
	})
	assert.NoError(t, err)

	// The password-change timestamp was stamped
	user, err := fixture.users.FindByID(ctx, output.User.ID)
	require.NoError(t, err)
	assert.NotNil(t, user.LastPasswordChangeAt)
}

func TestAuthService_ChangePasswordWrongCurrent(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	err = fixture.service.ChangePassword(ctx, usecase.ChangePasswordInput{
		UserID:          output.User.ID,
		CurrentPassword: "WrongPass123!",
		NewPassword:     "NewStrongPass456!",
	})
	assert.ErrorIs(t, err, domainerrors.ErrBadCredentials)

	// Sessions stay intact on a failed change
	sessions, err := fixture.sessions.FindActiveByUserID(ctx, output.User.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestAuthService_ChangePasswordUnknownUser(t *testing.T) {
	fixture := newAuthFixture()

	err := fixture.service.ChangePassword(context.Background(), usecase.ChangePasswordInput{
		UserID:          uuid.New(),
		CurrentPassword: "StrongPass123!",
		NewPassword:     "NewStrongPass456!",
	})
	assert.ErrorIs(t, err, domainerrors.ErrResourceNotFound)
}

func TestAuthService_LockAccount(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	require.NoError(t, fixture.service.LockAccount(ctx, output.User.ID, "abuse report"))

	user, err := fixture.users.FindByID(ctx, output.User.ID)
	require.NoError(t, err)
	assert.True(t, user.Locked)
	// Locking never touches the password-change timestamp
	assert.Nil(t, user.LastPasswordChangeAt)

	sessions, err := fixture.sessions.FindActiveByUserID(ctx, output.User.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	claims, err := fixture.codec.Verify(output.AccessToken)
	require.NoError(t, err)
	assert.True(t, fixture.blacklist.IsUserRevoked(output.User.ID, claims.IssuedAt.Time))

	locked := fixture.events.byKind(entity.EventAccountLocked)
	require.Len(t, locked, 1)
	assert.Equal(t, "abuse report", locked[0].Reason)

	// Refresh against the locked account is refused
	_, err = fixture.service.RefreshToken(ctx, output.RefreshToken)
	assert.Error(t, err)
}

func TestAuthService_UnlockAccount(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)
	require.NoError(t, fixture.service.LockAccount(ctx, output.User.ID, "abuse"))

	require.NoError(t, fixture.service.UnlockAccount(ctx, output.User.ID))

	user, err := fixture.users.FindByID(ctx, output.User.ID)
	require.NoError(t, err)
	assert.False(t, user.Locked)

	// Unlock does not resurrect invalidated sessions
	sessions, err := fixture.sessions.FindActiveByUserID(ctx, output.User.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// The user can log in afresh
	_, err = fixture.service.Login(ctx, usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "StrongPass123!",
		Client:   testClient(),
	})
	assert.NoError(t, err)

	assert.Len(t, fixture.events.byKind(entity.EventAccountUnlocked), 1)
}

func TestAuthService_LockUnknownUser(t *testing.T) {
	fixture := newAuthFixture()

	err := fixture.service.LockAccount(context.Background(), uuid.New(), "abuse")
	assert.ErrorIs(t, err, domainerrors.ErrResourceNotFound)

	err = fixture.service.UnlockAccount(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrResourceNotFound)
}

func TestAuthService_OAuth2Login(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	code, err := fixture.service.OAuth2Login(ctx, entity.ProviderTypeGoogle, usecase.OAuth2CallbackInput{
		Code:   "provider_code",
		State:  "test_state",
		Client: testClient(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, code)

	// First provider login provisioned a local account
	user, err := fixture.users.FindByEmail(ctx, "oauth@example.com")
	require.NoError(t, err)
	assert.True(t, user.Active)

	// The code exchanges exactly once for the parked token pair
	output, err := fixture.service.ExchangeOneTimeCode(ctx, code)
	require.NoError(t, err)
	assert.NotEmpty(t, output.AccessToken)
	assert.NotEmpty(t, output.RefreshToken)
	assert.Equal(t, "oauth@example.com", output.User.Email)

	_, err = fixture.service.ExchangeOneTimeCode(ctx, code)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOrExpiredCode)

	assert.Len(t, fixture.events.byKind(entity.EventOAuth2Login), 1)
}

func TestAuthService_OAuth2LoginExistingAccount(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	_, err := fixture.register(ctx, "oauth@example.com", "oauth", "StrongPass123!")
	require.NoError(t, err)

	code, err := fixture.service.OAuth2Login(ctx, entity.ProviderTypeGoogle, usecase.OAuth2CallbackInput{
		Code:   "provider_code",
		State:  "test_state",
		Client: testClient(),
	})
	require.NoError(t, err)

	output, err := fixture.service.ExchangeOneTimeCode(ctx, code)
	require.NoError(t, err)
	// Same account, not a second provisioned one
	assert.Equal(t, "oauth", output.User.Username)
}

func TestAuthService_OAuth2LoginLockedAccount(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	registered, err := fixture.register(ctx, "oauth@example.com", "oauth", "StrongPass123!")
	require.NoError(t, err)
	require.NoError(t, fixture.service.LockAccount(ctx, registered.User.ID, "abuse"))

	// No code is ever issued for a failed authentication
	_, err = fixture.service.OAuth2Login(ctx, entity.ProviderTypeGoogle, usecase.OAuth2CallbackInput{
		Code:   "provider_code",
		State:  "test_state",
		Client: testClient(),
	})
	assert.ErrorIs(t, err, domainerrors.ErrAccountLocked)
}

func TestAuthService_OAuth2LoginProviderFailure(t *testing.T) {
	fixture := newAuthFixture(withProvider(&fakeOAuthProvider{err: errors.New("provider unreachable")}))

	_, err := fixture.service.OAuth2Login(context.Background(), entity.ProviderTypeGoogle, usecase.OAuth2CallbackInput{
		Code:   "provider_code",
		State:  "test_state",
		Client: testClient(),
	})
	assert.ErrorIs(t, err, domainerrors.ErrBadCredentials)
}

func TestAuthService_OAuth2UnknownProvider(t *testing.T) {
	fixture := newAuthFixture()

	_, err := fixture.service.OAuth2AuthorizationURL(context.Background(), entity.ProviderType("github"))
	assert.ErrorIs(t, err, domainerrors.ErrResourceNotFound)

	_, err = fixture.service.OAuth2Login(context.Background(), entity.ProviderType("github"), usecase.OAuth2CallbackInput{})
	assert.ErrorIs(t, err, domainerrors.ErrResourceNotFound)
}

func TestAuthService_CurrentUserAndSessions(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)

	summary, err := fixture.service.CurrentUser(ctx, output.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", summary.Email)

	infos, err := fixture.service.ListSessions(ctx, output.User.ID)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "Desktop", infos[0].DeviceLabel)

	_, err = fixture.service.CurrentUser(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrResourceNotFound)
}

func TestAuthService_CleanupExpiredSessions(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)
	_, err = fixture.service.Login(ctx, usecase.LoginInput{
		Email:    "alice@example.com",
		Password: "StrongPass123!",
		Client:   testClient(),
	})
	require.NoError(t, err)

	// Expire one of the two sessions
	fixture.sessions.mu.Lock()
	for _, session := range fixture.sessions.sessions {
		session.ExpiresAt = time.Now().Add(-time.Minute)

		break
	}
	fixture.sessions.mu.Unlock()

	count, err := fixture.service.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	sessions, err := fixture.sessions.FindActiveByUserID(ctx, output.User.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestAuthService_EventWriteFailureDoesNotAbort(t *testing.T) {
	fixture := newAuthFixture()
	ctx := context.Background()

	fixture.events.failCreates = true

	// Event writes are telemetry: registration still succeeds
	output, err := fixture.register(ctx, "alice@example.com", "alice", "StrongPass123!")
	require.NoError(t, err)
	assert.NotEmpty(t, output.AccessToken)
}
