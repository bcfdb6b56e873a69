package postgres

import (
	"shopauth/internal/errors"
	"shopauth/internal/infra/persistence/model"

	"gorm.io/gorm"
)

// Migrate applies the schema for all persistence models.
// It is invoked once at startup, before any delivery begins serving.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.UserModel{},
		&model.SessionModel{},
		&model.SecurityEventModel{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to migrate schema")
	}

	return nil
}
