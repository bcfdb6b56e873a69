package model

import (
	"time"

	"github.com/google/uuid"
)

// SecurityEventModel mirrors the 'security_events' table. Rows are append-only;
// the sweeper trims them past the retention window.
type SecurityEventModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Subject   string    `gorm:"type:varchar(255);not null;index"`
	Kind      string    `gorm:"type:varchar(50);not null"`
	Reason    string    `gorm:"type:varchar(255)"`
	IPAddress string    `gorm:"type:varchar(45)"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (SecurityEventModel) TableName() string {
	return "security_events"
}
