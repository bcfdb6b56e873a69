package impl

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"shopauth/config"
	"shopauth/internal/domain/entity"
	domainerrors "shopauth/internal/domain/errors"
	"shopauth/internal/domain/repository"
	"shopauth/internal/domain/service"
	"shopauth/internal/infra/auth"
	"shopauth/internal/infra/blacklist"
	"shopauth/internal/infra/onetime"
	"shopauth/internal/usecase"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var errTestEventStoreDown = errors.New("event store down")

func domainErrDuplicate() error {
	return domainerrors.ErrDuplicateResource.WrapMessage("email or username already exists")
}

// --- In-memory repositories ---

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cloned := *user

	return &cloned, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			cloned := *user

			return &cloned, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Username == username {
			cloned := *user

			return &cloned, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return domainErrDuplicate()
		}
	}

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cloned := *user
	r.users[user.ID] = &cloned

	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	user.UpdatedAt = time.Now()
	cloned := *user
	r.users[user.ID] = &cloned

	return nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[uuid.UUID]*entity.Session)}
}

func (r *memSessionRepo) Create(_ context.Context, session *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	cloned := *session
	r.sessions[session.ID] = &cloned

	return nil
}

func (r *memSessionRepo) FindByTokenHash(_ context.Context, tokenHash string) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, session := range r.sessions {
		if session.TokenHash == tokenHash {
			cloned := *session

			return &cloned, nil
		}
	}

	return nil, repository.ErrSessionNotFound
}

func (r *memSessionRepo) FindActiveByUserID(_ context.Context, userID uuid.UUID) ([]*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Session
	now := time.Now()
	for _, session := range r.sessions {
		if session.UserID == userID && session.Active && session.ExpiresAt.After(now) {
			cloned := *session
			out = append(out, &cloned)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	return out, nil
}

func (r *memSessionRepo) Update(_ context.Context, session *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; !ok {
		return repository.ErrSessionNotFound
	}
	cloned := *session
	r.sessions[session.ID] = &cloned

	return nil
}

func (r *memSessionRepo) Invalidate(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok || !session.Active {
		return nil
	}
	session.Active = false
	session.LoggedOutAt = &at

	return nil
}

func (r *memSessionRepo) InvalidateAllForUser(_ context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, session := range r.sessions {
		if session.UserID == userID && session.Active {
			session.Active = false
			session.LoggedOutAt = &at
			count++
		}
	}

	return count, nil
}

func (r *memSessionRepo) InvalidateExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, session := range r.sessions {
		if session.Active && !session.ExpiresAt.After(now) {
			session.Active = false
			count++
		}
	}

	return count, nil
}

type memEventRepo struct {
	mu     sync.Mutex
	events []*entity.SecurityEvent
	// failCreates makes Create return an error, to prove event writes are
	// best-effort telemetry.
	failCreates bool
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{}
}

func (r *memEventRepo) Create(_ context.Context, event *entity.SecurityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failCreates {
		return errTestEventStoreDown
	}

	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	cloned := *event
	r.events = append(r.events, &cloned)

	return nil
}

func (r *memEventRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kept []*entity.SecurityEvent
	var removed int64
	for _, event := range r.events {
		if event.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, event)
	}
	r.events = kept

	return removed, nil
}

func (r *memEventRepo) byKind(kind entity.SecurityEventKind) []*entity.SecurityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.SecurityEvent
	for _, event := range r.events {
		if event.Kind == kind {
			out = append(out, event)
		}
	}

	return out
}

// --- Transaction fakes ---

type memFactory struct {
	users    *memUserRepo
	sessions *memSessionRepo
	events   *memEventRepo
}

func (f *memFactory) UserRepo() repository.UserRepository                   { return f.users }
func (f *memFactory) SessionRepo() repository.SessionRepository             { return f.sessions }
func (f *memFactory) SecurityEventRepo() repository.SecurityEventRepository { return f.events }

type memTxManager struct {
	factory *memFactory
}

func (m *memTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(m.factory)
}

// --- Service fakes ---

// panickingBlacklist proves logout's revocation phase is isolated from the
// primary outcome.
type panickingBlacklist struct {
	service.TokenBlacklist
}

func (panickingBlacklist) Revoke(string, time.Duration) { panic("blacklist down") }

type fakeOAuthProvider struct {
	user *service.OAuthUser
	err  error
}

func (p *fakeOAuthProvider) Provider() entity.ProviderType { return entity.ProviderTypeGoogle }

func (p *fakeOAuthProvider) BuildAuthorizationURL() (string, string, error) {
	return "https://accounts.google.com/o/oauth2/v2/auth?state=test_state", "test_state", nil
}

func (p *fakeOAuthProvider) ExchangeCode(context.Context, string, string) (*service.OAuthUser, error) {
	if p.err != nil {
		return nil, p.err
	}

	return p.user, nil
}

// --- Fixture ---

type authFixture struct {
	service   usecase.AuthUsecase
	users     *memUserRepo
	sessions  *memSessionRepo
	events    *memEventRepo
	codec     service.TokenCodec
	hasher    service.PasswordHasher
	blacklist service.TokenBlacklist
	codes     service.OneTimeCodeStore
	provider  *fakeOAuthProvider
	txManager repository.TransactionManager
}

type fixtureOption func(*authFixture)

func withBlacklist(bl service.TokenBlacklist) fixtureOption {
	return func(f *authFixture) { f.blacklist = bl }
}

func withProvider(p *fakeOAuthProvider) fixtureOption {
	return func(f *authFixture) { f.provider = p }
}

func newAuthFixture(opts ...fixtureOption) *authFixture {
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			JWTSecret:         "test_jwt_secret_key_very_long_for_testing",
			AccessTokenTTL:    time.Hour,
			RefreshTokenTTL:   7 * 24 * time.Hour,
			BcryptCost:        bcrypt.MinCost,
			BlacklistCapacity: 1000,
		},
		OAuth2: &config.OAuth2Config{CodeTTL: time.Minute},
	}

	codec, err := auth.NewJWTCodec(cfg)
	if err != nil {
		panic(err)
	}

	fixture := &authFixture{
		users:     newMemUserRepo(),
		sessions:  newMemSessionRepo(),
		events:    newMemEventRepo(),
		codec:     codec,
		hasher:    auth.NewBcryptHasher(cfg),
		blacklist: blacklist.NewMemoryBlacklist(cfg),
		codes:     onetime.NewCodeStore(cfg),
		provider: &fakeOAuthProvider{user: &service.OAuthUser{
			ID:            "google-sub-1",
			Email:         "oauth@example.com",
			Name:          "OAuth User",
			Provider:      entity.ProviderTypeGoogle,
			EmailVerified: true,
		}},
	}
	for _, opt := range opts {
		opt(fixture)
	}

	fixture.txManager = &memTxManager{factory: &memFactory{
		users:    fixture.users,
		sessions: fixture.sessions,
		events:   fixture.events,
	}}

	fixture.service = NewAuthService(AuthServiceParams{
		TxManager:      fixture.txManager,
		Hasher:         fixture.hasher,
		Codec:          fixture.codec,
		Blacklist:      fixture.blacklist,
		Codes:          fixture.codes,
		GoogleProvider: fixture.provider,
		Logger:         discardLogger(),
	})

	return fixture
}

// register creates an account through the service and returns the auth output.
func (f *authFixture) register(ctx context.Context, email, username, password string) (*usecase.AuthOutput, error) {
	return f.service.Register(ctx, usecase.RegisterInput{
		Email:    email,
		Username: username,
		Password: password,
		Client:   testClient(),
	})
}

func testClient() entity.ClientContext {
	return entity.ClientContext{
		IPAddress:   "203.0.113.7",
		UserAgent:   "Mozilla/5.0 test",
		DeviceLabel: "Desktop",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
