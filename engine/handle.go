package engine

import (
	"github.com/hydrogend/dbcore/connstring"
	"github.com/hydrogend/dbcore/preparedcache"
	"sync"
)

// Status is the lifecycle state of a Handle.
type Status int

const (
	Disconnected Status = iota
	Connected
	Broken
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Broken:
		return "broken"
	default:
		return "unknown"
	}
}

// Handle is one live connection to a database, opened by Registry.Connect and released by
// Registry.Cleanup. The zero Handle is not usable; always obtain one through Connect.
type Handle struct {
	EngineType EngineType

	// Designator is an opaque label attached to this connection for logging/tracing, e.g. a
	// queue name or connection pool slot index.
	Designator string

	// Conn is the driver-specific connection object (a *sql.DB, a raw client pointer, etc).
	// Its concrete type is private to the driver that produced it; callers outside that driver
	// should never type-assert it.
	Conn any

	Config *connstring.ConnectionConfig

	// Statements is this connection's prepared-statement LRU. The shared sqlcommon adapter
	// uses it for every engine, DB2 and SQLite included.
	Statements *preparedcache.Cache

	mu                 sync.Mutex
	status             Status
	currentTransaction *Transaction
}

// NewHandle constructs a Handle in the Disconnected state. Drivers call this from their
// ConnectFunc once a native connection object is available, then set Conn and Status.
func NewHandle(engineType EngineType, designator string, config *connstring.ConnectionConfig, cacheSize int) *Handle {
	return &Handle{
		EngineType: engineType,
		Designator: designator,
		Config:     config,
		Statements: preparedcache.NewCache(cacheSize),
		status:     Disconnected,
	}
}

// GetStatus returns the handle's current lifecycle state.
func (h *Handle) GetStatus() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// SetStatus transitions the handle to status. Drivers call this after a successful connect
// (Connected), a failed health check (Broken), or a disconnect (Disconnected).
func (h *Handle) SetStatus(status Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = status
}

// CurrentTransaction returns the handle's active transaction, or nil if none is in progress.
func (h *Handle) CurrentTransaction() *Transaction {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentTransaction
}

// SetCurrentTransaction records tx as the handle's active transaction. Pass nil to clear it
// after commit/rollback. At most one transaction may be active at a time; callers are
// responsible for enforcing that invariant before calling this.
func (h *Handle) SetCurrentTransaction(tx *Transaction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentTransaction = tx
}
