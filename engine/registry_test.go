package engine

import (
	"context"
	"github.com/hydrogend/dbcore/connstring"
	"github.com/stretchr/testify/require"
	"testing"
)

func mandatoryVTable(tag EngineType) *VTable {
	return &VTable{
		EngineType:  tag,
		IsAvailable: true,
		Connect: func(ctx context.Context, config *connstring.ConnectionConfig, designator string) (*Handle, error) {
			h := NewHandle(tag, designator, config, 4)
			h.SetStatus(Connected)
			return h, nil
		},
		Disconnect:  func(ctx context.Context, h *Handle) error { return nil },
		HealthCheck: func(ctx context.Context, h *Handle) error { return nil },
		ExecuteQuery: func(ctx context.Context, h *Handle, req *QueryRequest) (*QueryResult, error) {
			return &QueryResult{Success: true, DataJSON: "[]"}, nil
		},
		BeginTx:    func(ctx context.Context, h *Handle, level IsolationLevel) (*Transaction, error) { return NewTransaction(h, level, ""), nil },
		CommitTx:   func(ctx context.Context, tx *Transaction) error { return nil },
		RollbackTx: func(ctx context.Context, tx *Transaction) error { return nil },
	}
}

func TestVTable_ValidateRejectsInvalidEngineType(t *testing.T) {
	v := mandatoryVTable(Unknown)
	require.Error(t, v.Validate())
}

func TestVTable_ValidateRejectsMissingMandatoryMethods(t *testing.T) {
	v := mandatoryVTable(MySQL)
	v.CommitTx = nil
	require.Error(t, v.Validate())
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mandatoryVTable(PostgreSQL)))

	vt, err := r.Lookup(PostgreSQL)
	require.NoError(t, err)
	require.Equal(t, PostgreSQL, vt.EngineType)
}

func TestRegistry_RegisterRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mandatoryVTable(SQLite)))
	require.ErrorIs(t, r.Register(mandatoryVTable(SQLite)), ErrAlreadyRegistered)
}

func TestRegistry_InitIsIdempotent(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mandatoryVTable(DB2)))

	r.Init()
	r.Init()

	_, err := r.Lookup(DB2)
	require.NoError(t, err, "Init after Register must not wipe existing registrations")
}

func TestRegistry_ConnectNilConfig(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mandatoryVTable(MySQL)))

	_, err := r.Connect(context.Background(), MySQL, nil, "")
	require.ErrorIs(t, err, ErrNilConfig)
}

func TestRegistry_ConnectUnknownEngine(t *testing.T) {
	r := NewRegistry()
	cfg := &connstring.ConnectionConfig{}

	_, err := r.Connect(context.Background(), max, cfg, "")
	require.ErrorIs(t, err, ErrUnknownEngine)
}

func TestRegistry_ConnectNoDriverRegistered(t *testing.T) {
	r := NewRegistry()
	cfg := &connstring.ConnectionConfig{}

	_, err := r.Connect(context.Background(), PostgreSQL, cfg, "")
	require.ErrorIs(t, err, ErrNoDriver)
}

func TestRegistry_ConnectSucceeds(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mandatoryVTable(SQLite)))

	cfg := &connstring.ConnectionConfig{Database: ":memory:"}
	handle, err := r.Connect(context.Background(), SQLite, cfg, "test-conn")
	require.NoError(t, err)
	require.Equal(t, Connected, handle.GetStatus())
	require.Equal(t, "test-conn", handle.Designator)
}

func TestRegistry_CleanupNilHandleIsNoop(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Cleanup(context.Background(), nil))
}

func TestRegistry_CleanupDisconnects(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mandatoryVTable(MySQL)))

	cfg := &connstring.ConnectionConfig{Database: "db"}
	handle, err := r.Connect(context.Background(), MySQL, cfg, "")
	require.NoError(t, err)

	require.NoError(t, r.Cleanup(context.Background(), handle))
	require.Equal(t, Disconnected, handle.GetStatus())
}

func TestDefault_ReturnsSameRegistry(t *testing.T) {
	require.Same(t, Default(), Default())
}
