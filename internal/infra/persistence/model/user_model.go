package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via uuid_generate_v7().
type UserModel struct {
	ID                   uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Email                string    `gorm:"type:varchar(255);unique;not null"`
	Username             string    `gorm:"type:varchar(100);unique;not null"`
	Role                 string    `gorm:"type:varchar(20);not null;default:'user'"`
	PasswordHash         string    `gorm:"type:varchar(255);not null"`
	Active               bool      `gorm:"not null;default:true"`
	Locked               bool      `gorm:"not null;default:false"`
	LastPasswordChangeAt *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Sessions []SessionModel `gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
