package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionModel mirrors the 'sessions' table. The opaque refresh token is stored
// only as its sha256 digest; the plaintext never touches the database.
type SessionModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index"`
	TokenHash      string    `gorm:"type:varchar(255);unique;not null"`
	AccessToken    string    `gorm:"type:text"`
	Active         bool      `gorm:"not null;default:true;index"`
	ExpiresAt      time.Time `gorm:"not null;index"`
	CreatedAt      time.Time
	LastActivityAt time.Time
	LoggedOutAt    *time.Time
	IPAddress      string `gorm:"type:varchar(45)"`
	UserAgent      string `gorm:"type:varchar(100)"`
	DeviceLabel    string `gorm:"type:varchar(100)"`
}

// TableName explicitly sets the table name for GORM.
func (SessionModel) TableName() string {
	return "sessions"
}
