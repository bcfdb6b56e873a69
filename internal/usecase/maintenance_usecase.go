// Package usecase contains the application-specific business rules.
package usecase

import "context"

// SweepReport summarizes one maintenance pass. Each counter is independent;
// a step that failed reports zero without disturbing the others.
type SweepReport struct {
	SessionsExpired  int64
	EventsPurged     int64
	BlacklistEntries int
}

// MaintenanceUsecase defines the interface for periodic cleanup of
// authentication state.
type MaintenanceUsecase interface {
	// Sweep runs every cleanup step, isolating failures so one broken step
	// never starves the others.
	Sweep(ctx context.Context) (*SweepReport, error)
}
