// Package worker hosts the background maintenance sweeper.
package worker

import (
	"context"
	"log/slog"
	"time"

	"shopauth/config"
	"shopauth/internal/delivery"
	"shopauth/internal/usecase"

	"go.uber.org/fx"
)

// defaultSweepInterval is used when the sweeper cadence is unconfigured.
const defaultSweepInterval = 5 * time.Minute

// sweeperWorker periodically runs the maintenance sweep. It is a delivery
// like the HTTP server, so main starts and stops both the same way.
type sweeperWorker struct {
	maintenance usecase.MaintenanceUsecase
	interval    time.Duration
	logger      *slog.Logger
	stop        chan struct{}
}

// ServerParams holds dependencies for the sweeper worker.
type ServerParams struct {
	fx.In

	Lc          fx.Lifecycle
	Cfg         *config.Config
	Logger      *slog.Logger
	Maintenance usecase.MaintenanceUsecase
}

// NewServer creates the sweeper worker delivery.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	interval := defaultSweepInterval
	if params.Cfg.Sweeper != nil && params.Cfg.Sweeper.Interval > 0 {
		interval = params.Cfg.Sweeper.Interval
	}

	worker := &sweeperWorker{
		maintenance: params.Maintenance,
		interval:    interval,
		logger:      params.Logger,
		stop:        make(chan struct{}),
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			close(worker.stop)

			return nil
		},
	})

	return worker, nil
}

// Serve runs sweeps on a fixed ticker until the worker is stopped. A failed
// or partial sweep is logged and retried at the next tick; the worker itself
// never exits on sweep errors.
func (w *sweeperWorker) Serve(ctx context.Context) error {
	w.logger.Info("Starting maintenance sweeper", slog.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runSweep(ctx)
		case <-w.stop:
			w.logger.Info("Maintenance sweeper stopped")

			return nil
		case <-ctx.Done():
			w.logger.Info("Maintenance sweeper context cancelled")

			return ctx.Err()
		}
	}
}

func (w *sweeperWorker) runSweep(ctx context.Context) {
	report, err := w.maintenance.Sweep(ctx)
	if err != nil {
		w.logger.Error("Maintenance sweep failed", slog.Any("error", err))

		return
	}

	w.logger.Debug("Maintenance sweep finished",
		slog.Int64("sessionsExpired", report.SessionsExpired),
		slog.Int("blacklistEntries", report.BlacklistEntries),
		slog.Int64("eventsPurged", report.EventsPurged))
}
