package engine

import (
	"context"
	"github.com/hydrogend/dbcore/connstring"
	"github.com/pkg/errors"
)

// IsolationLevel mirrors the transaction isolation levels a driver may be asked to begin with.
type IsolationLevel int

const (
	ReadUncommitted IsolationLevel = iota
	ReadCommitted
	RepeatableRead
	Serializable
)

// Function types for each VTable capability. Those that take a context take it first; the
// per-connection operations then take the Handle they operate on, while commit and rollback take
// the Transaction (which carries its Handle).
type (
	ConnectFunc            func(ctx context.Context, config *connstring.ConnectionConfig, designator string) (*Handle, error)
	DisconnectFunc         func(ctx context.Context, h *Handle) error
	HealthCheckFunc        func(ctx context.Context, h *Handle) error
	ResetFunc              func(ctx context.Context, h *Handle) error
	ExecuteQueryFunc       func(ctx context.Context, h *Handle, req *QueryRequest) (*QueryResult, error)
	ExecutePreparedFunc    func(ctx context.Context, h *Handle, name string, req *QueryRequest) (*QueryResult, error)
	BeginTxFunc            func(ctx context.Context, h *Handle, level IsolationLevel) (*Transaction, error)
	CommitTxFunc           func(ctx context.Context, tx *Transaction) error
	RollbackTxFunc         func(ctx context.Context, tx *Transaction) error
	PrepareStmtFunc        func(ctx context.Context, h *Handle, name, sqlTemplate string) error
	UnprepareStmtFunc      func(ctx context.Context, h *Handle, name string) error
	GetConnStringFunc      func(h *Handle) string
	ValidateConnStringFunc func(s string) bool
	EscapeStringFunc       func(s string) string
)

// VTable is the capability set a driver adapter implements for one EngineType. Any field may be
// left nil except the mandatory ones enforced by Validate; callers must nil-check an optional
// field before calling it.
type VTable struct {
	EngineType EngineType

	// IsAvailable reports whether the driver's native client library resolved successfully at
	// startup. A driver can be registered with IsAvailable false, e.g. because a required CGo
	// library or ODBC driver name isn't present on this machine; all of its operations must
	// then fail cleanly rather than panic.
	IsAvailable bool

	Connect            ConnectFunc
	Disconnect         DisconnectFunc
	HealthCheck        HealthCheckFunc
	Reset              ResetFunc
	ExecuteQuery       ExecuteQueryFunc
	ExecutePrepared    ExecutePreparedFunc
	BeginTx            BeginTxFunc
	CommitTx           CommitTxFunc
	RollbackTx         RollbackTxFunc
	PrepareStmt        PrepareStmtFunc
	UnprepareStmt      UnprepareStmtFunc
	GetConnString      GetConnStringFunc
	ValidateConnString ValidateConnStringFunc
	EscapeString       EscapeStringFunc
}

// Validate checks that v can be registered: its EngineType must be one of the four known
// backends and all mandatory capabilities must be present.
func (v *VTable) Validate() error {
	if !v.EngineType.Valid() {
		return errors.Errorf("engine: invalid engine type %v", v.EngineType)
	}

	missing := make([]string, 0, 7)
	if v.Connect == nil {
		missing = append(missing, "Connect")
	}
	if v.Disconnect == nil {
		missing = append(missing, "Disconnect")
	}
	if v.HealthCheck == nil {
		missing = append(missing, "HealthCheck")
	}
	if v.ExecuteQuery == nil {
		missing = append(missing, "ExecuteQuery")
	}
	if v.BeginTx == nil {
		missing = append(missing, "BeginTx")
	}
	if v.CommitTx == nil {
		missing = append(missing, "CommitTx")
	}
	if v.RollbackTx == nil {
		missing = append(missing, "RollbackTx")
	}

	if len(missing) > 0 {
		return errors.Errorf("engine: vtable for %v missing mandatory methods: %v", v.EngineType, missing)
	}

	return nil
}
