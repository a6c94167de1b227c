package migration

import (
	"context"
	"github.com/hydrogend/dbcore/engine"
	"github.com/hydrogend/dbcore/logging"
	"github.com/pkg/errors"
	"time"
)

// ErrMigrationStuck reports the spec's MigrationStuck condition: the forward or reverse apply
// loop observed no progress after applying a script and re-running the bootstrap query.
var ErrMigrationStuck = errors.New("migration: no progress detected after applying a script")

// ScriptSource resolves the migration script that should be applied for a forward-migration
// ordinal. The runner itself has no opinion on how ordinals map to script names — callers back
// this with a PayloadTable lookup, a filesystem directory (DiscoverPathMigrationFiles), or
// anything else that fits their deployment.
type ScriptSource interface {
	ScriptForOrdinal(ordinal int64) (script string, ok bool)
}

// ScriptSourceFunc adapts a plain function to a ScriptSource.
type ScriptSourceFunc func(ordinal int64) (string, bool)

func (f ScriptSourceFunc) ScriptForOrdinal(ordinal int64) (string, bool) { return f(ordinal) }

// Runner drives the bootstrap/forward-apply/reverse-apply protocol for a single lead queue's
// persistent connection, serially and one script per transaction, matching the spec's "migration
// application is strictly serial per database" ordering guarantee.
type Runner struct {
	VTable    *engine.VTable
	Handle    *engine.Handle
	Bootstrap BootstrapFunc
	Scripts   ScriptSource
	Cache     *QueryCache
	Logger    *logging.Logger

	// MaxIterations caps the apply loops as a last-resort safety net on top of the monotonicity
	// guard the spec itself requires. Zero means unbounded.
	MaxIterations int
}

func (r *Runner) logf(msg string, args ...any) {
	if r.Logger == nil {
		return
	}
	r.Logger.Infof(msg, args...)
}

// runBootstrap re-runs the lead queue's bootstrap query, refreshing the counters this runner
// reasons about.
func (r *Runner) runBootstrap(ctx context.Context) (BootstrapCounters, error) {
	if r.Bootstrap == nil {
		return BootstrapCounters{}, errors.New("migration: no bootstrap query configured")
	}
	return r.Bootstrap(ctx)
}

// applyScript runs script inside its own transaction: begin, execute every statement the script
// splits into, commit. A failed statement rolls the transaction back; every failure returns an
// error.
func (r *Runner) applyScript(ctx context.Context, script string) error {
	tx, err := r.VTable.BeginTx(ctx, r.Handle, engine.ReadCommitted)
	if err != nil {
		return errors.Wrap(err, "can't begin migration transaction")
	}

	for _, stmt := range SplitStatements(script) {
		result, err := r.VTable.ExecuteQuery(ctx, r.Handle, &engine.QueryRequest{SQLTemplate: stmt})
		if err != nil {
			_ = r.VTable.RollbackTx(ctx, tx)
			return errors.Wrap(err, "can't execute migration statement")
		}
		if !result.Success {
			_ = r.VTable.RollbackTx(ctx, tx)
			return errors.Errorf("migration statement failed: %s", result.ErrorMessage)
		}
	}

	if err := r.VTable.CommitTx(ctx, tx); err != nil {
		return errors.Wrap(err, "can't commit migration transaction")
	}

	return nil
}

// withTimer logs how long an apply run took, matching the spec's "start a migration timer" step.
func withTimer(fn func() error) (time.Duration, error) {
	start := time.Now()
	err := fn()
	return time.Since(start), err
}
