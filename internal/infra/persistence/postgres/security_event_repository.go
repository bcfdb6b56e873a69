// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"shopauth/internal/domain/entity"
	domainerrors "shopauth/internal/domain/errors"
	"shopauth/internal/domain/repository"
	"shopauth/internal/infra/persistence/model"

	"gorm.io/gorm"
)

// securityEventRepository implements the domain.SecurityEventRepository interface using GORM.
type securityEventRepository struct {
	db *gorm.DB
}

// NewSecurityEventRepository is the constructor for securityEventRepository.
func NewSecurityEventRepository(db *gorm.DB) repository.SecurityEventRepository {
	return &securityEventRepository{db: db}
}

// Create appends one audit row.
func (repo *securityEventRepository) Create(ctx context.Context, event *entity.SecurityEvent) error {
	eventM := fromSecurityEventDomain(event)

	if err := repo.db.WithContext(ctx).Create(eventM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create security event")
	}

	event.ID = eventM.ID
	event.CreatedAt = eventM.CreatedAt

	return nil
}

// DeleteOlderThan trims audit rows past the retention window and returns how
// many were removed.
func (repo *securityEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.SecurityEventModel{})

	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete old security events")
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

func fromSecurityEventDomain(data *entity.SecurityEvent) *model.SecurityEventModel {
	return &model.SecurityEventModel{
		ID:        data.ID,
		Subject:   data.Subject,
		Kind:      string(data.Kind),
		Reason:    data.Reason,
		IPAddress: data.IPAddress,
		CreatedAt: data.CreatedAt,
	}
}
