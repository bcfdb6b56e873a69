package impl

import (
	"context"
	"log/slog"
	"time"

	"shopauth/config"
	"shopauth/internal/domain/repository"
	"shopauth/internal/domain/service"
	"shopauth/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// defaultEventRetention keeps audit rows for 90 days when unconfigured.
const defaultEventRetention = 90 * 24 * time.Hour

// maintenanceService implements the MaintenanceUsecase interface.
type maintenanceService struct {
	auth           usecase.AuthUsecase
	txManager      repository.TransactionManager
	blacklist      service.TokenBlacklist
	eventRetention time.Duration
	logger         *slog.Logger
}

// MaintenanceServiceParams holds dependencies for maintenanceService, injected by Fx.
type MaintenanceServiceParams struct {
	fx.In

	Auth      usecase.AuthUsecase
	TxManager repository.TransactionManager
	Blacklist service.TokenBlacklist
	Config    *config.Config
	Logger    *slog.Logger
}

// NewMaintenanceService is the constructor for maintenanceService.
func NewMaintenanceService(params MaintenanceServiceParams) usecase.MaintenanceUsecase {
	retention := defaultEventRetention
	if params.Config != nil && params.Config.Sweeper != nil && params.Config.Sweeper.EventRetention > 0 {
		retention = params.Config.Sweeper.EventRetention
	}

	return &maintenanceService{
		auth:           params.Auth,
		txManager:      params.TxManager,
		blacklist:      params.Blacklist,
		eventRetention: retention,
		logger:         params.Logger,
	}
}

// Sweep runs the three cleanup steps in order: source of truth first, derived
// cache second, audit data last. Each step is isolated; the pass always
// completes and partial failure is visible only in the logs and the report.
func (srv *maintenanceService) Sweep(ctx context.Context) (*usecase.SweepReport, error) {
	report := &usecase.SweepReport{}

	runIndependently(ctx, srv.logger, []sideEffect{
		{name: "cleanup expired sessions", run: func(ctx context.Context) error {
			expired, err := srv.auth.CleanupExpiredSessions(ctx)
			if err != nil {
				return err
			}
			report.SessionsExpired = expired

			return nil
		}},
		{name: "sweep token blacklist", run: func(context.Context) error {
			report.BlacklistEntries = srv.blacklist.SweepExpired()

			return nil
		}},
		{name: "purge old security events", run: func(ctx context.Context) error {
			cutoff := time.Now().Add(-srv.eventRetention)

			return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
				purged, err := repoFactory.SecurityEventRepo().DeleteOlderThan(ctx, cutoff)
				if err != nil {
					return errors.Wrap(err, "failed to purge security events")
				}
				report.EventsPurged = purged

				return nil
			})
		}},
	})

	srv.logger.Info("Maintenance sweep completed",
		slog.Int64("sessionsExpired", report.SessionsExpired),
		slog.Int("blacklistEntries", report.BlacklistEntries),
		slog.Int64("eventsPurged", report.EventsPurged))

	return report, nil
}
