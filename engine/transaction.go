package engine

import "github.com/google/uuid"

// Transaction represents one in-flight database transaction on a Handle. At most one
// Transaction may be active per Handle at a time; the Handle records the active one via
// CurrentTransaction/SetCurrentTransaction but does not itself reject a second one.
type Transaction struct {
	ID             string
	IsolationLevel IsolationLevel
	Active         bool

	// Handle is the connection this transaction belongs to.
	Handle *Handle

	// Native is the driver-specific transaction object (e.g. a *sql.Tx). Its concrete type is
	// private to the driver that produced it.
	Native any
}

// NewTransaction returns a Transaction in the active state, bound to h. id may be empty, in
// which case a UUID is generated — drivers whose native handle carries no transaction
// identifier of its own (SQLite, DB2) rely on this to still produce a usable Transaction.ID.
func NewTransaction(h *Handle, level IsolationLevel, id string) *Transaction {
	if id == "" {
		id = uuid.NewString()
	}

	return &Transaction{
		ID:             id,
		IsolationLevel: level,
		Active:         true,
		Handle:         h,
	}
}
