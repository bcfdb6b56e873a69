// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"time"

	"shopauth/internal/domain/entity"
)

// SecurityEventRepository defines the append-only audit log operations.
// Records are written once and never edited; the only mutation is the bulk
// retention purge.
type SecurityEventRepository interface {
	// Create appends a single audit record.
	Create(ctx context.Context, event *entity.SecurityEvent) error

	// DeleteOlderThan bulk-deletes events created before the cutoff and
	// returns how many rows were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
