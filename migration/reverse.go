package migration

import (
	"context"
	"github.com/pkg/errors"
)

// RunReverse implements lead_execute_migration_test_process: while APPLY is positive, look up
// the reverse script cached under (ref=APPLY, type=ReverseMigrationType); if none is cached the
// loop stops gracefully (nothing to reverse, not an error). If APPLY is unchanged after a reverse
// application, the run fails with ErrMigrationStuck.
func (r *Runner) RunReverse(ctx context.Context) error {
	elapsed, err := withTimer(func() error { return r.runReverse(ctx) })
	r.logf("migration reverse-apply run took %s", elapsed)
	return err
}

func (r *Runner) runReverse(ctx context.Context) error {
	counters, err := r.runBootstrap(ctx)
	if err != nil {
		return errors.Wrap(err, "can't bootstrap migration counters")
	}

	iterations := 0
	for counters.Applied > 0 {
		if r.MaxIterations > 0 && iterations >= r.MaxIterations {
			return errors.Wrap(ErrMigrationStuck, "reverse apply exceeded its iteration guard")
		}
		iterations++

		entry, ok := r.Cache.Get(counters.Applied, ReverseMigrationType)
		if !ok {
			// No reverse script cached for the current APPLY: graceful no-op, matching the
			// spec's "if absent, return success" step.
			return nil
		}

		if err := r.applyScript(ctx, entry.SQL); err != nil {
			return errors.Wrapf(err, "can't apply reverse migration %d", counters.Applied)
		}

		refreshed, err := r.runBootstrap(ctx)
		if err != nil {
			return errors.Wrap(err, "can't refresh migration counters")
		}

		if refreshed.Applied == counters.Applied {
			return errors.Wrapf(ErrMigrationStuck, "APPLY did not decrease from %d", counters.Applied)
		}

		counters = refreshed
	}

	return nil
}
