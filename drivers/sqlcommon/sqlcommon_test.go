package sqlcommon

import (
	"context"
	"github.com/hydrogend/dbcore/connstring"
	"github.com/hydrogend/dbcore/engine"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
	"testing"
)

// sqliteAdapter exercises the shared Adapter logic against a real in-memory SQLite database,
// since modernc.org/sqlite is pure Go and needs no external server.
func sqliteAdapter() Adapter {
	return Adapter{
		EngineType:    engine.SQLite,
		SQLDriverName: "sqlite",
		BuildDSN:      func(cfg *connstring.ConnectionConfig) string { return cfg.Database },
		EscapeLiteral: func(s string) string { return s },
	}
}

func connectMemory(t *testing.T) *engine.Handle {
	t.Helper()

	a := sqliteAdapter()
	vtable := a.Build()
	require.True(t, vtable.IsAvailable)

	cfg := &connstring.ConnectionConfig{Database: ":memory:", PreparedStatementCacheSize: 4}
	handle, err := vtable.Connect(context.Background(), cfg, "test")
	require.NoError(t, err)
	require.Equal(t, engine.Connected, handle.GetStatus())

	return handle
}

func TestAdapter_ConnectNilConfig(t *testing.T) {
	vtable := sqliteAdapter().Build()
	_, err := vtable.Connect(context.Background(), nil, "")
	require.Error(t, err)
}

func TestAdapter_ExecuteQueryAndSchema(t *testing.T) {
	vtable := sqliteAdapter().Build()
	handle := connectMemory(t)
	defer vtable.Disconnect(context.Background(), handle)

	result, err := vtable.ExecuteQuery(context.Background(), handle, &engine.QueryRequest{
		SQLTemplate: "CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)",
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	result, err = vtable.ExecuteQuery(context.Background(), handle, &engine.QueryRequest{
		SQLTemplate: "INSERT INTO widgets (id, name) VALUES (?, ?)",
		Parameters:  []any{1, "gadget"},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, uint64(1), result.AffectedRows)

	result, err = vtable.ExecuteQuery(context.Background(), handle, &engine.QueryRequest{
		SQLTemplate: "SELECT id, name FROM widgets",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 1, result.RowCount)
	require.Equal(t, 2, result.ColumnCount)
	require.Contains(t, result.DataJSON, "gadget")
}

func TestAdapter_EngineTypeGating(t *testing.T) {
	vtable := sqliteAdapter().Build()
	handle := connectMemory(t)
	defer vtable.Disconnect(context.Background(), handle)

	handle.EngineType = engine.MySQL

	_, err := vtable.ExecuteQuery(context.Background(), handle, &engine.QueryRequest{SQLTemplate: "SELECT 1"})
	require.Error(t, err)
}

func TestAdapter_PrepareExecuteUnprepare(t *testing.T) {
	vtable := sqliteAdapter().Build()
	handle := connectMemory(t)
	defer vtable.Disconnect(context.Background(), handle)

	_, err := vtable.ExecuteQuery(context.Background(), handle, &engine.QueryRequest{
		SQLTemplate: "CREATE TABLE t (n INTEGER)",
	})
	require.NoError(t, err)

	require.NoError(t, vtable.PrepareStmt(context.Background(), handle, "ins", "INSERT INTO t (n) VALUES (?)"))
	require.Equal(t, 1, handle.Statements.Count())

	result, err := vtable.ExecutePrepared(context.Background(), handle, "ins", &engine.QueryRequest{Parameters: []any{42}})
	require.NoError(t, err)
	require.True(t, result.Success)

	require.NoError(t, vtable.UnprepareStmt(context.Background(), handle, "ins"))
	require.Equal(t, 0, handle.Statements.Count())

	// Unpreparing an unknown name is a no-op success.
	require.NoError(t, vtable.UnprepareStmt(context.Background(), handle, "ins"))
}

func TestAdapter_ExecutePreparedSynthesizesEmptyResultForNilHandle(t *testing.T) {
	vtable := sqliteAdapter().Build()
	handle := connectMemory(t)
	defer vtable.Disconnect(context.Background(), handle)

	handle.Statements.Insert("comment-only", "-- just a comment", nil)

	result, err := vtable.ExecutePrepared(context.Background(), handle, "comment-only", &engine.QueryRequest{})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 0, result.RowCount)
	require.Equal(t, "[]", result.DataJSON)
}

func TestAdapter_TransactionLifecycle(t *testing.T) {
	vtable := sqliteAdapter().Build()
	handle := connectMemory(t)
	defer vtable.Disconnect(context.Background(), handle)

	_, err := vtable.ExecuteQuery(context.Background(), handle, &engine.QueryRequest{
		SQLTemplate: "CREATE TABLE t (n INTEGER)",
	})
	require.NoError(t, err)

	tx, err := vtable.BeginTx(context.Background(), handle, engine.ReadCommitted)
	require.NoError(t, err)
	require.True(t, tx.Active)
	require.Same(t, tx, handle.CurrentTransaction())

	require.NoError(t, vtable.CommitTx(context.Background(), tx))
	require.False(t, tx.Active)
	require.Nil(t, handle.CurrentTransaction())

	tx2, err := vtable.BeginTx(context.Background(), handle, engine.Serializable)
	require.NoError(t, err)
	require.NoError(t, vtable.RollbackTx(context.Background(), tx2))
	require.False(t, tx2.Active)
}

func TestAdapter_GetAndValidateConnString(t *testing.T) {
	a := sqliteAdapter()
	a.ValidateConnString = func(s string) bool { return s == "ok" }
	vtable := a.Build()

	handle := connectMemory(t)
	defer vtable.Disconnect(context.Background(), handle)

	require.Equal(t, ":memory:", vtable.GetConnString(handle))
	require.False(t, vtable.ValidateConnString(""))
	require.True(t, vtable.ValidateConnString("ok"))
	require.False(t, vtable.ValidateConnString("not-ok"))
}

func TestIsolationToSQL(t *testing.T) {
	require.NotPanics(t, func() {
		for _, level := range []engine.IsolationLevel{engine.ReadUncommitted, engine.ReadCommitted, engine.RepeatableRead, engine.Serializable, engine.IsolationLevel(99)} {
			_ = isolationToSQL(level)
		}
	})
}
