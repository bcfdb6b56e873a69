// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"shopauth/internal/domain/entity"
	domainerrors "shopauth/internal/domain/errors"
	"shopauth/internal/domain/repository"
	"shopauth/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// sessionRepository implements the domain.SessionRepository interface using GORM.
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository is the constructor for sessionRepository.
func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// Create persists a new session, representing one refresh-token credential.
func (repo *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	sessionM := fromSessionDomain(session)

	if err := repo.db.WithContext(ctx).Create(sessionM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "session token collision")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "invalid user reference")
		}
		return domainerrors.NewDatabaseExecuteError(err, "failed to create session")
	}

	// Update the entity with generated values
	session.ID = sessionM.ID
	session.CreatedAt = sessionM.CreatedAt

	return nil
}

// FindByTokenHash retrieves a session by the digest of its refresh token.
// Expired and deactivated sessions are still returned; the caller decides
// whether the session is usable.
func (repo *sessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*entity.Session, error) {
	var sessionM model.SessionModel
	err := repo.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		First(&sessionM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, errors.Wrap(err, "failed to find session by token hash")
	}

	return toSessionDomain(&sessionM), nil
}

// FindActiveByUserID retrieves all active, unexpired sessions for a user,
// newest first.
func (repo *sessionRepository) FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Session, error) {
	var sessionModels []model.SessionModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND active = ? AND expires_at > ?", userID, true, time.Now()).
		Order("created_at DESC").
		Find(&sessionModels).Error

	if err != nil {
		return nil, errors.Wrap(err, "failed to find sessions by user id")
	}

	sessions := make([]*entity.Session, 0, len(sessionModels))
	for i := range sessionModels {
		sessions = append(sessions, toSessionDomain(&sessionModels[i]))
	}

	return sessions, nil
}

// Update persists changes to an existing session.
func (repo *sessionRepository) Update(ctx context.Context, session *entity.Session) error {
	sessionM := fromSessionDomain(session)

	if err := repo.db.WithContext(ctx).Save(sessionM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to update session")
	}

	return nil
}

// Invalidate deactivates a single session and stamps the logout time.
// Deactivating an already inactive session is a no-op, which keeps logout idempotent.
func (repo *sessionRepository) Invalidate(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]any{
			"active":        false,
			"logged_out_at": at,
		}).Error

	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to invalidate session")
	}

	return nil
}

// InvalidateAllForUser deactivates every active session belonging to a user
// and returns how many rows changed.
func (repo *sessionRepository) InvalidateAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("user_id = ? AND active = ?", userID, true).
		Updates(map[string]any{
			"active":        false,
			"logged_out_at": at,
		})

	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to invalidate user sessions")
	}

	return result.RowsAffected, nil
}

// InvalidateExpired deactivates sessions whose refresh token has lapsed and
// returns how many rows changed.
func (repo *sessionRepository) InvalidateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("active = ? AND expires_at <= ?", true, now).
		Update("active", false)

	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to invalidate expired sessions")
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

// toSessionDomain converts a GORM SessionModel to a domain Session entity.
func toSessionDomain(data *model.SessionModel) *entity.Session {
	if data == nil {
		return nil
	}

	return &entity.Session{
		ID:             data.ID,
		UserID:         data.UserID,
		TokenHash:      data.TokenHash,
		AccessToken:    data.AccessToken,
		Active:         data.Active,
		ExpiresAt:      data.ExpiresAt,
		CreatedAt:      data.CreatedAt,
		LastActivityAt: data.LastActivityAt,
		LoggedOutAt:    data.LoggedOutAt,
		IPAddress:      data.IPAddress,
		UserAgent:      data.UserAgent,
		DeviceLabel:    data.DeviceLabel,
	}
}

// fromSessionDomain converts a domain Session entity to a GORM SessionModel.
func fromSessionDomain(data *entity.Session) *model.SessionModel {
	if data == nil {
		return nil
	}

	return &model.SessionModel{
		ID:             data.ID,
		UserID:         data.UserID,
		TokenHash:      data.TokenHash,
		AccessToken:    data.AccessToken,
		Active:         data.Active,
		ExpiresAt:      data.ExpiresAt,
		CreatedAt:      data.CreatedAt,
		LastActivityAt: data.LastActivityAt,
		LoggedOutAt:    data.LoggedOutAt,
		IPAddress:      data.IPAddress,
		UserAgent:      data.UserAgent,
		DeviceLabel:    data.DeviceLabel,
	}
}
