// Package sqlcommon implements the operation contracts §4.3 requires of every driver adapter
// (null-safety, engine-type gating, prepared-statement LRU wiring, the synthetic empty result
// for comment-only scripts) once, against the standard database/sql interface, so each backend
// package only has to supply what's actually backend-specific: a database/sql driver name, DSN
// construction, and an escape routine for string literals.
package sqlcommon

import (
	"context"
	"database/sql"
	"github.com/hydrogend/dbcore/backoff"
	"github.com/hydrogend/dbcore/connstring"
	"github.com/hydrogend/dbcore/engine"
	"github.com/hydrogend/dbcore/jsonresult"
	"github.com/hydrogend/dbcore/retry"
	"github.com/pkg/errors"
	"time"
)

// connectBackoff paces connect retries the same way the teacher's driver.RetryConnector does:
// short jittered waits climbing to a one-minute ceiling.
var connectBackoff = backoff.NewExponentialWithJitter(128*time.Millisecond, time.Minute)

// Adapter gathers the per-backend knowledge needed to build a full engine.VTable.
type Adapter struct {
	EngineType engine.EngineType

	// SQLDriverName is the name this backend is registered under in database/sql (e.g.
	// "postgres", "mysql", "sqlite"). IsAvailable below reports whether that driver is actually
	// present in sql.Drivers() — the Go equivalent of the spec's "symbol resolution failed, no
	// native client library" condition.
	SQLDriverName string

	// BuildDSN renders a connstring.ConnectionConfig into the data source name the SQLDriverName
	// driver expects.
	BuildDSN func(*connstring.ConnectionConfig) string

	// EscapeLiteral escapes a string for safe inclusion as a quoted SQL string literal in this
	// backend's dialect.
	EscapeLiteral func(string) string

	// ValidateConnString reports whether s is an acceptable connection string for this backend,
	// beyond the universal "not empty" check every adapter shares.
	ValidateConnString func(string) bool
}

// IsAvailable reports whether a.SQLDriverName is registered with database/sql.
func (a Adapter) IsAvailable() bool {
	for _, name := range sql.Drivers() {
		if name == a.SQLDriverName {
			return true
		}
	}
	return false
}

// Build assembles a full engine.VTable for this adapter.
func (a Adapter) Build() *engine.VTable {
	return &engine.VTable{
		EngineType:         a.EngineType,
		IsAvailable:        a.IsAvailable(),
		Connect:            a.connect,
		Disconnect:         a.disconnect,
		HealthCheck:        a.healthCheck,
		Reset:              a.reset,
		ExecuteQuery:       a.executeQuery,
		ExecutePrepared:    a.executePrepared,
		BeginTx:            a.beginTx,
		CommitTx:           a.commitTx,
		RollbackTx:         a.rollbackTx,
		PrepareStmt:        a.prepareStmt,
		UnprepareStmt:      a.unprepareStmt,
		GetConnString:      a.getConnString,
		ValidateConnString: a.validateConnString,
		EscapeString:       a.EscapeLiteral,
	}
}

// connect opens and pings the connection through retry.WithBackoff, matching SPEC_FULL's ambient
// stack contract that every blocking driver operation able to be retried — engine_connect among
// them — goes through the teacher's retry/backoff pairing rather than failing on the first
// transient error (a connection refused while the backend is still starting, a momentary DNS
// blip). A bad DSN or a driver that was never registered fails immediately: retry.Retryable only
// lets genuinely transient errors through.
func (a Adapter) connect(ctx context.Context, config *connstring.ConnectionConfig, designator string) (*engine.Handle, error) {
	if config == nil {
		return nil, errors.New("sqlcommon: connection config is nil")
	}

	dsn := a.BuildDSN(config)

	var db *sql.DB
	err := retry.WithBackoff(
		ctx,
		func(ctx context.Context) error {
			opened, err := sql.Open(a.SQLDriverName, dsn)
			if err != nil {
				return errors.Wrap(err, "can't open connection")
			}

			if err := opened.PingContext(ctx); err != nil {
				_ = opened.Close()
				return errors.Wrap(err, "can't reach database")
			}

			db = opened
			return nil
		},
		retry.Retryable,
		connectBackoff,
		retry.Settings{Timeout: retry.DefaultTimeout},
	)
	if err != nil {
		return nil, err
	}

	cacheSize := int(config.PreparedStatementCacheSize)
	if cacheSize <= 0 {
		cacheSize = connstring.DefaultPreparedStatementCacheSize
	}

	handle := engine.NewHandle(a.EngineType, designator, config, cacheSize)
	handle.Conn = db
	handle.SetStatus(engine.Connected)

	return handle, nil
}

func (a Adapter) disconnect(ctx context.Context, h *engine.Handle) error {
	if h == nil {
		return nil
	}

	db, err := a.db(h)
	if err != nil {
		// Already detached from a *sql.DB (e.g. double-disconnect); treat as done.
		return nil
	}

	return db.Close()
}

func (a Adapter) healthCheck(ctx context.Context, h *engine.Handle) error {
	db, err := a.checkedDB(h)
	if err != nil {
		return err
	}

	return retry.WithBackoff(
		ctx,
		func(ctx context.Context) error { return db.PingContext(ctx) },
		retry.Retryable,
		connectBackoff,
		retry.Settings{Timeout: retry.DefaultTimeout},
	)
}

func (a Adapter) reset(ctx context.Context, h *engine.Handle) error {
	db, err := a.checkedDB(h)
	if err != nil {
		return err
	}

	// database/sql pools connections itself; the closest equivalent of a native "reset" is
	// confirming the pool can still reach the backend.
	return db.PingContext(ctx)
}

func (a Adapter) executeQuery(ctx context.Context, h *engine.Handle, req *engine.QueryRequest) (*engine.QueryResult, error) {
	if h == nil || req == nil {
		return nil, errors.New("sqlcommon: handle or request is nil")
	}

	if _, err := a.checkedDB(h); err != nil {
		return nil, err
	}

	return runQuery(ctx, a.querier(h), req), nil
}

// executePrepared runs a previously-prepared statement. Prepared statements are always prepared
// and executed directly against the pooled *sql.DB, never re-bound to a handle's active
// transaction: database/sql's *sql.Stmt already pins its own connection from the pool it was
// prepared on, so splicing it into a *sql.Tx started on a different connection isn't possible
// without re-preparing inside the transaction, which the spec's prepare/execute/unprepare
// contract doesn't model.
func (a Adapter) executePrepared(ctx context.Context, h *engine.Handle, name string, req *engine.QueryRequest) (*engine.QueryResult, error) {
	if h == nil || req == nil {
		return nil, errors.New("sqlcommon: handle or request is nil")
	}

	if _, err := a.checkedDB(h); err != nil {
		return nil, err
	}

	stmt, err := h.Statements.Get(name)
	if err != nil {
		return nil, errors.Wrapf(err, "no prepared statement named %q", name)
	}

	if stmt.EngineHandle == nil {
		// A comment-only script: synthesize the empty success result the spec requires instead
		// of erroring.
		return &engine.QueryResult{Success: true, DataJSON: "[]"}, nil
	}

	sqlStmt, ok := stmt.EngineHandle.(*sql.Stmt)
	if !ok {
		return nil, errors.Errorf("sqlcommon: prepared statement %q has an unexpected native handle type", name)
	}

	return runPreparedQuery(ctx, sqlStmt, req), nil
}

func (a Adapter) beginTx(ctx context.Context, h *engine.Handle, level engine.IsolationLevel) (*engine.Transaction, error) {
	db, err := a.checkedDB(h)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: isolationToSQL(level)})
	if err != nil {
		return nil, errors.Wrap(err, "can't begin transaction")
	}

	txn := engine.NewTransaction(h, level, "")
	txn.Native = tx
	h.SetCurrentTransaction(txn)

	return txn, nil
}

func (a Adapter) commitTx(ctx context.Context, tx *engine.Transaction) error {
	sqlTx, err := nativeTx(tx)
	if err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return errors.Wrap(err, "can't commit transaction")
	}

	tx.Active = false
	tx.Handle.SetCurrentTransaction(nil)

	return nil
}

func (a Adapter) rollbackTx(ctx context.Context, tx *engine.Transaction) error {
	sqlTx, err := nativeTx(tx)
	if err != nil {
		return err
	}

	if err := sqlTx.Rollback(); err != nil {
		return errors.Wrap(err, "can't roll back transaction")
	}

	tx.Active = false
	tx.Handle.SetCurrentTransaction(nil)

	return nil
}

func (a Adapter) prepareStmt(ctx context.Context, h *engine.Handle, name, sqlTemplate string) error {
	db, err := a.checkedDB(h)
	if err != nil {
		return err
	}

	sqlStmt, err := db.PrepareContext(ctx, sqlTemplate)
	if err != nil {
		return errors.Wrapf(err, "can't prepare statement %q", name)
	}

	if evicted := h.Statements.Insert(name, sqlTemplate, sqlStmt); evicted != nil {
		if evictedStmt, ok := evicted.EngineHandle.(*sql.Stmt); ok && evictedStmt != nil {
			_ = evictedStmt.Close()
		}
	}

	return nil
}

func (a Adapter) unprepareStmt(ctx context.Context, h *engine.Handle, name string) error {
	if h == nil {
		return errors.New("sqlcommon: handle is nil")
	}

	stmt, ok := h.Statements.Remove(name)
	if !ok {
		// Unpreparing an unknown name is treated as already-done, matching the DB2-specific
		// note that re-adding a duplicate name is a no-op success.
		return nil
	}

	if sqlStmt, ok := stmt.EngineHandle.(*sql.Stmt); ok && sqlStmt != nil {
		return sqlStmt.Close()
	}

	return nil
}

func (a Adapter) getConnString(h *engine.Handle) string {
	if h == nil || h.Config == nil {
		return ""
	}
	return h.Config.ConnectionString
}

func (a Adapter) validateConnString(s string) bool {
	if s == "" {
		return false
	}
	if a.ValidateConnString != nil {
		return a.ValidateConnString(s)
	}
	return true
}

// querier is the subset of *sql.DB / *sql.Tx that query execution needs.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// querier returns the object statements against h should run against: its active transaction's
// *sql.Tx if one exists, otherwise the handle's pooled *sql.DB directly. The spec's own
// execute_query contract takes only a handle, not a transaction, relying on the handle's
// current_transaction to implicitly scope subsequent queries once BeginTx has been called.
func (a Adapter) querier(h *engine.Handle) querier {
	if tx := h.CurrentTransaction(); tx != nil && tx.Active {
		if sqlTx, ok := tx.Native.(*sql.Tx); ok && sqlTx != nil {
			return sqlTx
		}
	}

	db, _ := a.db(h)
	return db
}

// db returns h's native *sql.DB without checking engine type, for cases (disconnect) that must
// tolerate an already-wrong-type handle.
func (a Adapter) db(h *engine.Handle) (*sql.DB, error) {
	db, ok := h.Conn.(*sql.DB)
	if !ok || db == nil {
		return nil, errors.New("sqlcommon: handle has no native connection")
	}
	return db, nil
}

// checkedDB enforces the engine-type gating contract shared by every operation: the handle must
// belong to this adapter's engine type and carry a non-nil native connection.
func (a Adapter) checkedDB(h *engine.Handle) (*sql.DB, error) {
	if h == nil {
		return nil, errors.New("sqlcommon: handle is nil")
	}

	if h.EngineType != a.EngineType {
		return nil, errors.Errorf("sqlcommon: handle belongs to engine %v, not %v", h.EngineType, a.EngineType)
	}

	return a.db(h)
}

func nativeTx(tx *engine.Transaction) (*sql.Tx, error) {
	if tx == nil || tx.Handle == nil {
		return nil, errors.New("sqlcommon: transaction or its handle is nil")
	}

	sqlTx, ok := tx.Native.(*sql.Tx)
	if !ok || sqlTx == nil {
		return nil, errors.New("sqlcommon: transaction has no native *sql.Tx")
	}

	return sqlTx, nil
}

func isolationToSQL(level engine.IsolationLevel) sql.IsolationLevel {
	switch level {
	case engine.ReadUncommitted:
		return sql.LevelReadUncommitted
	case engine.ReadCommitted:
		return sql.LevelReadCommitted
	case engine.RepeatableRead:
		return sql.LevelRepeatableRead
	case engine.Serializable:
		return sql.LevelSerializable
	default:
		return sql.LevelDefault
	}
}

func runQuery(ctx context.Context, q querier, req *engine.QueryRequest) *engine.QueryResult {
	rows, err := q.QueryContext(ctx, req.SQLTemplate, req.Parameters...)
	if err != nil {
		if res, handled := tryAsExec(ctx, q, nil, req, err); handled {
			return res
		}
		return &engine.QueryResult{Success: false, ErrorMessage: err.Error()}
	}
	defer rows.Close()

	return serialize(rows)
}

func runPreparedQuery(ctx context.Context, stmt *sql.Stmt, req *engine.QueryRequest) *engine.QueryResult {
	rows, err := stmt.QueryContext(ctx, req.Parameters...)
	if err != nil {
		if res, handled := tryAsExec(ctx, nil, stmt, req, err); handled {
			return res
		}
		return &engine.QueryResult{Success: false, ErrorMessage: err.Error()}
	}
	defer rows.Close()

	return serialize(rows)
}

// tryAsExec re-attempts a statement that failed as a query (e.g. an INSERT/UPDATE/DDL, which
// database/sql's Query rejects once it discovers there are no result columns) as an Exec instead.
// Returns handled=false to fall through to the original query error when the statement isn't a
// no-rows exec either.
func tryAsExec(ctx context.Context, q querier, stmt *sql.Stmt, req *engine.QueryRequest, queryErr error) (*engine.QueryResult, bool) {
	var (
		result sql.Result
		err    error
	)

	switch {
	case stmt != nil:
		result, err = stmt.ExecContext(ctx, req.Parameters...)
	case q != nil:
		result, err = q.ExecContext(ctx, req.SQLTemplate, req.Parameters...)
	default:
		return nil, false
	}

	if err != nil {
		// Neither Query nor Exec worked; report the original query error, it's usually the more
		// informative one for a true SQL error.
		return &engine.QueryResult{Success: false, ErrorMessage: queryErr.Error()}, true
	}

	affected, _ := result.RowsAffected()

	return &engine.QueryResult{
		Success:      true,
		AffectedRows: uint64(affected),
		DataJSON:     "[]",
	}, true
}

func serialize(rows *sql.Rows) *engine.QueryResult {
	serialized, err := jsonresult.SerializeRows(rows)
	if err != nil {
		return &engine.QueryResult{Success: false, ErrorMessage: err.Error()}
	}

	return &engine.QueryResult{
		Success:     true,
		RowCount:    serialized.RowCount,
		ColumnCount: len(serialized.ColumnNames),
		ColumnNames: serialized.ColumnNames,
		DataJSON:    serialized.DataJSON,
	}
}
