// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
)

// sideEffect is one best-effort step with a name for the failure log line.
type sideEffect struct {
	name string
	run  func(ctx context.Context) error
}

// runIndependently executes every step, logging failures without propagating
// them. Logout's revocation phase and the maintenance sweep share this
// contract: a broken step never blocks the remaining ones, and the caller's
// primary outcome is never disturbed. It returns how many steps failed.
func runIndependently(ctx context.Context, logger *slog.Logger, steps []sideEffect) int {
	failed := 0
	for _, step := range steps {
		func() {
			defer func() {
				if r := recover(); r != nil {
					failed++
					logger.Error("best-effort step panicked",
						slog.String("step", step.name),
						slog.Any("panic", r))
				}
			}()

			if err := step.run(ctx); err != nil {
				failed++
				logger.Error("best-effort step failed",
					slog.String("step", step.name),
					slog.Any("error", err))
			}
		}()
	}

	return failed
}
