package migration

import (
	"context"
	"github.com/pkg/errors"
)

// RunForward implements lead_run_migration: while the lead's APPLY counter trails the latest
// available migration, locate, apply, and re-bootstrap one ordinal at a time, failing with
// ErrMigrationStuck the first time a single iteration doesn't advance APPLY by exactly one.
//
// autoMigration mirrors config.auto_migration; when false, RunForward logs and returns
// successfully without touching the database.
func (r *Runner) RunForward(ctx context.Context, autoMigration bool) error {
	elapsed, err := withTimer(func() error {
		if !autoMigration {
			r.logf("Automatic Migration not enabled")
			return nil
		}
		return r.runForward(ctx)
	})
	r.logf("migration forward-apply run took %s", elapsed)
	return err
}

func (r *Runner) runForward(ctx context.Context) error {
	counters, err := r.runBootstrap(ctx)
	if err != nil {
		return errors.Wrap(err, "can't bootstrap migration counters")
	}

	iterations := 0
	for counters.Applied < counters.Available {
		if r.MaxIterations > 0 && iterations >= r.MaxIterations {
			return errors.Wrap(ErrMigrationStuck, "forward apply exceeded its iteration guard")
		}
		iterations++

		next := counters.Applied + 1
		script, ok := r.Scripts.ScriptForOrdinal(next)
		if !ok {
			return errors.Errorf("migration: no script found for ordinal %d", next)
		}

		if err := r.applyScript(ctx, script); err != nil {
			return errors.Wrapf(err, "can't apply migration %d", next)
		}

		refreshed, err := r.runBootstrap(ctx)
		if err != nil {
			return errors.Wrap(err, "can't refresh migration counters")
		}

		if refreshed.Applied != counters.Applied+1 {
			return errors.Wrapf(ErrMigrationStuck, "expected APPLY to advance to %d, got %d", next, refreshed.Applied)
		}

		counters = refreshed
	}

	return nil
}
