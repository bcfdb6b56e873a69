// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	deliverycontext "shopauth/internal/delivery/context"
	"shopauth/internal/domain/entity"
	domainerrors "shopauth/internal/domain/errors"
	"shopauth/internal/domain/repository"
	"shopauth/internal/domain/service"
	"shopauth/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface. It owns the ordering and
// failure-isolation rules of the whole authentication lifecycle.
type authService struct {
	txManager repository.TransactionManager
	hasher    service.PasswordHasher
	codec     service.TokenCodec
	blacklist service.TokenBlacklist
	codes     service.OneTimeCodeStore
	providers map[entity.ProviderType]service.OAuthProvider
	logger    *slog.Logger

	// dummyHash absorbs the bcrypt compare for unknown emails so a missing
	// account costs the same work as a wrong password.
	dummyHash string
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager      repository.TransactionManager
	Hasher         service.PasswordHasher
	Codec          service.TokenCodec
	Blacklist      service.TokenBlacklist
	Codes          service.OneTimeCodeStore
	GoogleProvider service.OAuthProvider
	Logger         *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	dummyHash, err := params.Hasher.Hash(uuid.NewString())
	if err != nil {
		// Any well-formed bcrypt hash works as compare fodder.
		dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
	}

	return &authService{
		txManager: params.TxManager,
		hasher:    params.Hasher,
		codec:     params.Codec,
		blacklist: params.Blacklist,
		codes:     params.Codes,
		providers: map[entity.ProviderType]service.OAuthProvider{
			params.GoogleProvider.Provider(): params.GoogleProvider,
		},
		logger:    params.Logger,
		dummyHash: dummyHash,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.Logger(ctx, srv.logger)
}

// Register creates a new account and logs it in immediately.
// Registration doubles as first login, so it records a login-success event and
// opens a session in the same transaction as the user row.
func (srv *authService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password during registration")
	}

	newUser := &entity.User{
		Email:        input.Email,
		Username:     input.Username,
		Role:         entity.RoleUser,
		PasswordHash: hashedPassword,
		Active:       true,
		Locked:       false,
	}

	var output *usecase.AuthOutput
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		// A unique-constraint violation surfaces as ErrDuplicateResource.
		if err := repoFactory.UserRepo().Create(ctx, newUser); err != nil {
			return errors.Wrap(err, "failed to create user during registration")
		}

		var openErr error
		output, openErr = srv.openSession(ctx, repoFactory, newUser, input.Client, entity.EventLoginSuccess, "Registration")

		return openErr
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", newUser.ID))

	return output, nil
}

// Login authenticates email/password credentials and opens a session.
//
// An unknown email still pays for a bcrypt compare against a dummy hash, so
// response content and timing cannot separate "no such account" from "wrong
// password". This is a mitigation, not a constant-time guarantee.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Debug("Starting login", slog.String("email", input.Email))

	user, err := srv.loadUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.hasher.Check(input.Password, srv.dummyHash)
			srv.recordEventBestEffort(ctx, input.Email, entity.EventLoginFailure, "Invalid credentials", input.Client.IPAddress)

			return nil, errors.Wrap(domainerrors.ErrBadCredentials, "login failed")
		}

		return nil, errors.Wrap(err, "failed to load user for login")
	}

	// bcrypt is CPU-bound; keep it outside any transaction.
	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.recordEventBestEffort(ctx, input.Email, entity.EventLoginFailure, "Invalid credentials", input.Client.IPAddress)

		return nil, errors.Wrap(domainerrors.ErrBadCredentials, "login failed")
	}

	// Inactive accounts stay behind the generic error; account state is not
	// disclosed to unauthenticated callers.
	if !user.Active {
		srv.recordEventBestEffort(ctx, input.Email, entity.EventLoginFailure, "Account inactive", input.Client.IPAddress)

		return nil, errors.Wrap(domainerrors.ErrBadCredentials, "login failed")
	}

	// The caller proved credential knowledge above, so the locked state is
	// safe to disclose.
	if user.Locked {
		srv.recordEventBestEffort(ctx, input.Email, entity.EventLoginFailure, "Account locked", input.Client.IPAddress)

		return nil, errors.Wrap(domainerrors.ErrAccountLocked, "login failed")
	}

	output, err := srv.openSessionTx(ctx, user, input.Client, entity.EventLoginSuccess, "Login")
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Debug("User logged in", slog.Any("userID", user.ID))

	return output, nil
}

// OAuth2AuthorizationURL starts the provider handshake.
func (srv *authService) OAuth2AuthorizationURL(_ context.Context, provider entity.ProviderType) (string, error) {
	adapter, ok := srv.providers[provider]
	if !ok {
		return "", errors.Wrap(domainerrors.ErrResourceNotFound, "unknown oauth2 provider")
	}

	url, _, err := adapter.BuildAuthorizationURL()
	if err != nil {
		return "", errors.Wrap(err, "failed to build authorization url")
	}

	return url, nil
}

// OAuth2Login completes the provider callback. The provider already
// established identity, so there is no password step; the inactive and locked
// checks still apply. The token pair never rides the redirect URL: it is
// parked behind a one-time code instead.
func (srv *authService) OAuth2Login(ctx context.Context, provider entity.ProviderType, input usecase.OAuth2CallbackInput) (string, error) {
	adapter, ok := srv.providers[provider]
	if !ok {
		return "", errors.Wrap(domainerrors.ErrResourceNotFound, "unknown oauth2 provider")
	}

	oauthUser, err := adapter.ExchangeCode(ctx, input.Code, input.State)
	if err != nil {
		srv.log(ctx).Warn("OAuth2 code exchange failed", slog.String("provider", provider.String()), slog.Any("error", err))

		return "", errors.Wrap(domainerrors.ErrBadCredentials, "oauth2 login failed")
	}

	var output *usecase.AuthOutput
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		user, findErr := repoFactory.UserRepo().FindByEmail(ctx, oauthUser.Email)
		if errors.Is(findErr, repository.ErrUserNotFound) {
			user, findErr = srv.provisionOAuthUser(ctx, repoFactory, oauthUser)
		}
		if findErr != nil {
			return errors.Wrap(findErr, "failed to resolve oauth2 user")
		}

		if !user.Active {
			return errors.Wrap(domainerrors.ErrBadCredentials, "oauth2 login failed")
		}
		if user.Locked {
			return errors.Wrap(domainerrors.ErrAccountLocked, "oauth2 login failed")
		}

		var openErr error
		output, openErr = srv.openSession(ctx, repoFactory, user, input.Client,
			entity.EventOAuth2Login, "Provider: "+provider.String())

		return openErr
	})
	if err != nil {
		return "", err
	}

	code, err := srv.codes.Issue(&service.AuthResult{
		AccessToken:  output.AccessToken,
		RefreshToken: output.RefreshToken,
		TokenType:    output.TokenType,
		ExpiresIn:    output.ExpiresIn,
		User:         output.User,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to issue one-time code")
	}

	return code, nil
}

// ExchangeOneTimeCode trades the handshake code for the parked token pair.
func (srv *authService) ExchangeOneTimeCode(ctx context.Context, code string) (*usecase.AuthOutput, error) {
	result, err := srv.codes.Exchange(code)
	if err != nil {
		srv.log(ctx).Warn("One-time code exchange failed", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrInvalidOrExpiredCode, "code exchange failed")
	}

	return &usecase.AuthOutput{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    result.TokenType,
		ExpiresIn:    result.ExpiresIn,
		User:         result.User,
	}, nil
}

// RefreshToken mints a fresh access token against an active session. The
// refresh token itself is never rotated; it stays valid until its absolute
// expiry or an explicit logout.
func (srv *authService) RefreshToken(ctx context.Context, refreshToken string) (*usecase.AuthOutput, error) {
	tokenHash := hashToken(refreshToken)

	var output *usecase.AuthOutput
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		session, err := repoFactory.SessionRepo().FindByTokenHash(ctx, tokenHash)
		if err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				return errors.Wrap(domainerrors.ErrInvalidToken, "refresh failed")
			}

			return errors.Wrap(err, "failed to find session")
		}

		now := time.Now()
		if !session.UsableForRefresh(now) {
			return errors.Wrap(domainerrors.ErrInvalidToken, "refresh failed")
		}

		user, err := repoFactory.UserRepo().FindByID(ctx, session.UserID)
		if err != nil {
			return errors.Wrap(domainerrors.ErrInvalidToken, "refresh failed")
		}
		if user.Locked {
			return errors.Wrap(domainerrors.ErrAccountLocked, "refresh failed")
		}
		if !user.Active {
			return errors.Wrap(domainerrors.ErrInvalidToken, "refresh failed")
		}

		accessToken, _, err := srv.codec.Mint(user)
		if err != nil {
			return errors.Wrap(err, "failed to mint access token")
		}

		// The session always carries the most recently minted access token.
		session.AccessToken = accessToken
		session.LastActivityAt = now
		if err := repoFactory.SessionRepo().Update(ctx, session); err != nil {
			return errors.Wrap(err, "failed to update session")
		}

		output = srv.buildAuthOutput(user, accessToken, refreshToken)

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Token refresh failed", slog.Any("error", err))

		return nil, err
	}

	return output, nil
}

// Logout runs in two phases. Phase 1 durably deactivates the session; only
// its failure fails the call. Phase 2 blacklists the outstanding access
// tokens, sets the per-user revocation marker, and records the revocation
// event, all best-effort: once the session row is inactive the primary
// security goal is met. An unknown refresh token completes without error so
// logout stays idempotent.
func (srv *authService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	tokenHash := hashToken(refreshToken)

	var (
		found       bool
		userID      uuid.UUID
		lastMinted  string
		clientIP    string
		userSubject string
	)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		session, err := repoFactory.SessionRepo().FindByTokenHash(ctx, tokenHash)
		if err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				return nil
			}

			return errors.Wrap(err, "failed to find session")
		}

		// An already-inactive session was logged out before; repeating the
		// revocation side effects would double-count audit events.
		if !session.Active {
			return nil
		}

		if err := repoFactory.SessionRepo().Invalidate(ctx, session.ID, time.Now()); err != nil {
			return errors.Wrap(err, "failed to invalidate session")
		}

		found = true
		userID = session.UserID
		lastMinted = session.AccessToken
		clientIP = session.IPAddress
		userSubject = "user:" + session.UserID.String()

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to execute logout transaction")
	}

	if !found {
		srv.log(ctx).Debug("Logout for unknown session, treating as already logged out")

		return nil
	}

	runIndependently(ctx, srv.log(ctx), []sideEffect{
		{name: "blacklist session access token", run: func(context.Context) error {
			if lastMinted != "" {
				srv.blacklist.Revoke(lastMinted, srv.codec.RemainingTTL(lastMinted))
			}

			return nil
		}},
		{name: "blacklist presented access token", run: func(context.Context) error {
			if accessToken != "" && accessToken != lastMinted {
				srv.blacklist.Revoke(accessToken, srv.codec.RemainingTTL(accessToken))
			}

			return nil
		}},
		{name: "revoke user marker", run: func(context.Context) error {
			// Logout from one session logs the user out everywhere.
			srv.blacklist.RevokeAllForUser(userID)

			return nil
		}},
		{name: "record revocation event", run: func(ctx context.Context) error {
			// Audit is telemetry; the session is already durably inactive.
			srv.recordEventBestEffort(ctx, userSubject, entity.EventTokenRevoked, "Logout", clientIP)

			return nil
		}},
	})

	srv.log(ctx).Debug("User logged out", slog.Any("userID", userID))

	return nil
}

// ChangePassword rotates the caller's password. Every session is deactivated
// and every outstanding access token revoked; there is no "keep this device
// logged in" exception.
func (srv *authService) ChangePassword(ctx context.Context, input usecase.ChangePasswordInput) error {
	newHash, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return errors.Wrap(err, "failed to hash new password")
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		user, err := repoFactory.UserRepo().FindByID(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return errors.Wrap(domainerrors.ErrResourceNotFound, "user not found")
			}

			return errors.Wrap(err, "failed to find user")
		}

		// The caller is already authenticated, so a mismatch is reported as
		// bad credentials rather than hidden.
		if !srv.hasher.Check(input.CurrentPassword, user.PasswordHash) {
			return errors.Wrap(domainerrors.ErrBadCredentials, "current password mismatch")
		}

		now := time.Now()
		user.PasswordHash = newHash
		user.LastPasswordChangeAt = &now
		if err := repoFactory.UserRepo().Update(ctx, user); err != nil {
			return errors.Wrap(err, "failed to update password")
		}

		if _, err := repoFactory.SessionRepo().InvalidateAllForUser(ctx, user.ID, now); err != nil {
			return errors.Wrap(err, "failed to invalidate sessions")
		}

		srv.recordEvent(ctx, repoFactory.SecurityEventRepo(), user.Email, entity.EventTokenRevoked, "Password changed", "")

		return nil
	})
	if err != nil {
		return err
	}

	srv.blacklist.RevokeAllForUser(input.UserID)
	srv.log(ctx).Info("Password changed, all sessions invalidated", slog.Any("userID", input.UserID))

	return nil
}

// LockAccount administratively locks the user and severs all access. The
// last-password-change timestamp is left alone; locking is unrelated to
// credential rotation.
func (srv *authService) LockAccount(ctx context.Context, userID uuid.UUID, reason string) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		user, err := repoFactory.UserRepo().FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return errors.Wrap(domainerrors.ErrResourceNotFound, "user not found")
			}

			return errors.Wrap(err, "failed to find user")
		}

		user.Locked = true
		if err := repoFactory.UserRepo().Update(ctx, user); err != nil {
			return errors.Wrap(err, "failed to lock user")
		}

		if _, err := repoFactory.SessionRepo().InvalidateAllForUser(ctx, userID, time.Now()); err != nil {
			return errors.Wrap(err, "failed to invalidate sessions")
		}

		srv.recordEvent(ctx, repoFactory.SecurityEventRepo(), user.Email, entity.EventAccountLocked, reason, "")

		return nil
	})
	if err != nil {
		return err
	}

	srv.blacklist.RevokeAllForUser(userID)
	srv.log(ctx).Info("Account locked", slog.Any("userID", userID), slog.String("reason", reason))

	return nil
}

// UnlockAccount lifts an administrative lock. Previously invalidated sessions
// stay dead; the user logs in afresh.
func (srv *authService) UnlockAccount(ctx context.Context, userID uuid.UUID) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		user, err := repoFactory.UserRepo().FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return errors.Wrap(domainerrors.ErrResourceNotFound, "user not found")
			}

			return errors.Wrap(err, "failed to find user")
		}

		user.Locked = false
		if err := repoFactory.UserRepo().Update(ctx, user); err != nil {
			return errors.Wrap(err, "failed to unlock user")
		}

		srv.recordEvent(ctx, repoFactory.SecurityEventRepo(), user.Email, entity.EventAccountUnlocked, "Admin unlock", "")

		return nil
	})
	if err != nil {
		return err
	}

	srv.log(ctx).Info("Account unlocked", slog.Any("userID", userID))

	return nil
}

// CurrentUser returns the profile summary for an authenticated caller.
func (srv *authService) CurrentUser(ctx context.Context, userID uuid.UUID) (*entity.Summary, error) {
	var summary *entity.Summary
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		user, err := repoFactory.UserRepo().FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return errors.Wrap(domainerrors.ErrResourceNotFound, "user not found")
			}

			return errors.Wrap(err, "failed to find user")
		}

		summary = user.Summarize()

		return nil
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// ListSessions returns the caller's active sessions, newest first.
func (srv *authService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*usecase.SessionInfo, error) {
	var infos []*usecase.SessionInfo
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		sessions, err := repoFactory.SessionRepo().FindActiveByUserID(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "failed to list sessions")
		}

		infos = make([]*usecase.SessionInfo, 0, len(sessions))
		for _, session := range sessions {
			infos = append(infos, &usecase.SessionInfo{
				ID:             session.ID,
				CreatedAt:      session.CreatedAt,
				LastActivityAt: session.LastActivityAt,
				ExpiresAt:      session.ExpiresAt,
				IPAddress:      session.IPAddress,
				DeviceLabel:    session.DeviceLabel,
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return infos, nil
}

// CleanupExpiredSessions bulk-deactivates sessions past their expiry. The
// blacklist has its own sweep step; this touches durable state only.
func (srv *authService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	var expired int64
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var invErr error
		expired, invErr = repoFactory.SessionRepo().InvalidateExpired(ctx, time.Now())

		return invErr
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to cleanup expired sessions")
	}

	srv.log(ctx).Info("Expired sessions cleaned up", slog.Int64("sessionsExpired", expired))

	return expired, nil
}

// --- Helpers ---

// openSession is the shared session-creation routine behind register, login,
// and oauth2 login. It mints the access token, generates a fresh opaque
// refresh token, persists the session with client metadata, and records the
// given success event, all against the supplied transaction.
func (srv *authService) openSession(
	ctx context.Context,
	repoFactory repository.RepositoryFactory,
	user *entity.User,
	client entity.ClientContext,
	kind entity.SecurityEventKind,
	reason string,
) (*usecase.AuthOutput, error) {
	accessToken, _, err := srv.codec.Mint(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to mint access token")
	}

	refreshToken, err := newOpaqueToken()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate refresh token")
	}

	now := time.Now()
	session := &entity.Session{
		UserID:         user.ID,
		TokenHash:      hashToken(refreshToken),
		AccessToken:    accessToken,
		Active:         true,
		ExpiresAt:      now.Add(srv.codec.RefreshTokenTTL()),
		LastActivityAt: now,
		IPAddress:      client.IPAddress,
		UserAgent:      client.UserAgent,
		DeviceLabel:    client.DeviceLabel,
	}
	if err := repoFactory.SessionRepo().Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to create session")
	}

	srv.recordEvent(ctx, repoFactory.SecurityEventRepo(), user.Email, kind, reason, client.IPAddress)

	return srv.buildAuthOutput(user, accessToken, refreshToken), nil
}

// openSessionTx runs openSession inside its own transaction.
func (srv *authService) openSessionTx(
	ctx context.Context,
	user *entity.User,
	client entity.ClientContext,
	kind entity.SecurityEventKind,
	reason string,
) (*usecase.AuthOutput, error) {
	var output *usecase.AuthOutput
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var openErr error
		output, openErr = srv.openSession(ctx, repoFactory, user, client, kind, reason)

		return openErr
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute session creation transaction")
	}

	return output, nil
}

func (srv *authService) buildAuthOutput(user *entity.User, accessToken, refreshToken string) *usecase.AuthOutput {
	return &usecase.AuthOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(srv.codec.AccessTokenTTL().Seconds()),
		User:         user.Summarize(),
	}
}

// loadUserByEmail reads the user from the primary in a short transaction to
// avoid stale replica reads during login.
func (srv *authService) loadUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var findErr error
		user, findErr = repoFactory.UserRepo().FindByEmail(ctx, email)

		return findErr
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// provisionOAuthUser creates a local account for a first-time provider login.
// The password hash is random; password login stays unusable until the user
// sets one.
func (srv *authService) provisionOAuthUser(
	ctx context.Context,
	repoFactory repository.RepositoryFactory,
	oauthUser *service.OAuthUser,
) (*entity.User, error) {
	placeholderHash, err := srv.hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash placeholder password")
	}

	user := &entity.User{
		Email:        oauthUser.Email,
		Username:     deriveUsername(oauthUser.Email),
		Role:         entity.RoleUser,
		PasswordHash: placeholderHash,
		Active:       true,
		Locked:       false,
	}
	if err := repoFactory.UserRepo().Create(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to provision oauth2 user")
	}

	srv.log(ctx).Info("Provisioned account from oauth2 login", slog.String("email", user.Email))

	return user, nil
}

// recordEvent appends one audit row, logging instead of failing the caller.
// Event writes are telemetry, never transactional participants.
func (srv *authService) recordEvent(
	ctx context.Context,
	events repository.SecurityEventRepository,
	subject string,
	kind entity.SecurityEventKind,
	reason, ip string,
) {
	event := &entity.SecurityEvent{
		Subject:   subject,
		Kind:      kind,
		Reason:    reason,
		IPAddress: ip,
	}
	if err := events.Create(ctx, event); err != nil {
		srv.log(ctx).Error("Failed to record security event",
			slog.String("kind", kind.String()),
			slog.Any("error", err))
	}
}

// recordEventBestEffort records an event in its own transaction, for callers
// that are not already inside one.
func (srv *authService) recordEventBestEffort(ctx context.Context, subject string, kind entity.SecurityEventKind, reason, ip string) {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		srv.recordEvent(ctx, repoFactory.SecurityEventRepo(), subject, kind, reason, ip)

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute security event transaction", slog.Any("error", err))
	}
}

// newOpaqueToken generates a cryptographically random refresh token. Opaque
// by construction: revoking it is a storage update, not blacklist machinery.
func newOpaqueToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// hashToken derives the storage key for an opaque refresh token. Only the
// digest is ever persisted.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}

// deriveUsername builds a collision-resistant username from the provider email.
func deriveUsername(email string) string {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}

	return local + "-" + uuid.NewString()[:8]
}
