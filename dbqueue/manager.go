package dbqueue

import (
	"context"
	"strings"
	"sync"

	"github.com/hydrogend/dbcore/connstring"
	"github.com/hydrogend/dbcore/engine"
	"github.com/hydrogend/dbcore/logging"
	"github.com/hydrogend/dbcore/periodic"
	"github.com/pkg/errors"
)

// DefaultMaxChildQueues is used by CreateLead when a caller doesn't specify how many child-queue
// slots a lead queue's children map should be sized for.
const DefaultMaxChildQueues = 5

// ErrNoFreeSlots is returned by CreateLead once every manager slot is occupied.
var ErrNoFreeSlots = errors.New("dbqueue: manager has no free database slots")

// ErrShutdown is returned by operations attempted after the manager has been shut down.
var ErrShutdown = errors.New("dbqueue: manager is shut down")

// Manager is the process-global registry of per-database queue sets — the DQM (Database Queue
// Manager) from the glossary. All mutating operations take the manager lock; callers must not
// hold it across a blocking driver call (connect/health-check), so CreateLead releases it before
// attempting the lead's persistent connection.
type Manager struct {
	mu       sync.Mutex
	init     bool
	shutdown bool

	slots    []*Queue // len == max_databases; nil entries are free
	registry *engine.Registry

	Stats ManagerStats
}

// NewManager allocates a Manager with maxDatabases slots. maxDatabases == 0 is valid and returns
// an empty but usable manager, per the spec's documented leniency (see SPEC_FULL.md §7 Open
// Questions). registry is the engine.Registry used to connect lead queues; pass nil to use
// engine.Default().
func NewManager(maxDatabases int, registry *engine.Registry) *Manager {
	if maxDatabases < 0 {
		maxDatabases = 0
	}
	if registry == nil {
		registry = engine.Default()
	}
	return &Manager{slots: make([]*Queue, maxDatabases), registry: registry}
}

// SystemInit marks the manager initialized. A second call is a no-op success, matching
// system_init's idempotency contract; it does not reallocate m.slots.
func (m *Manager) SystemInit() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.init = true
	return nil
}

// Initialized reports whether SystemInit has run and Shutdown has not undone it.
func (m *Manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.init && !m.shutdown
}

// Shutdown drains and tears down every queue the manager owns. A second call is a no-op.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	slots := m.slots
	m.mu.Unlock()

	for _, q := range slots {
		if q == nil {
			continue
		}

		q.childrenMu.Lock()
		children := q.children
		q.children = nil
		q.childrenMu.Unlock()

		for t := range children {
			child := children[t]
			close(child.requests)
			if child.worker != nil {
				child.worker.Stop()
			}
		}

		if h := q.Handle(); h != nil && q.VTable != nil {
			_ = q.VTable.Disconnect(ctx, h)
		}
	}

	return nil
}

// StartStatsLog starts a periodic reporter that logs how many queries were submitted, failed, and
// timed out across every queue this manager owns since the last tick, the same shape as the
// teacher's database.DB.Log reports row counts for a single query. Call the returned
// periodic.Stopper's Stop method to stop reporting.
func (m *Manager) StartStatsLog(ctx context.Context, logger *logging.Logger) periodic.Stopper {
	return periodic.Start(ctx, logger.Interval(), func(tick periodic.Tick) {
		submitted := m.Stats.TotalQueriesSubmitted.Reset()
		failed := m.Stats.TotalQueriesFailed.Reset()
		timeouts := m.Stats.TotalTimeouts.Reset()

		if submitted > 0 || failed > 0 || timeouts > 0 {
			logger.Debugf("Submitted %d queries, %d failed, %d timed out", submitted, failed, timeouts)
		}
	}, periodic.OnStop(func(tick periodic.Tick) {
		logger.Debugf("Submitted %d queries total in %s", m.Stats.TotalQueriesSubmitted.Total(), tick.Elapsed)
	}))
}

// CreateLead builds a lead queue named name for the given connection string, reserving a free
// manager slot, and attempts to establish its persistent connection. Per lead_establish_connection
// being a lazy, best-effort step, a connection failure here is not returned as an error — the
// lead queue still exists, unconnected, and is expected to be retried via a health-check loop.
func (m *Manager) CreateLead(ctx context.Context, name, connectionString string, maxChildQueues int) (*Queue, error) {
	if name == "" {
		return nil, errors.New("dbqueue: lead queue name is empty")
	}
	if maxChildQueues <= 0 {
		maxChildQueues = DefaultMaxChildQueues
	}

	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil, ErrShutdown
	}

	slot := -1
	for i, existing := range m.slots {
		if existing == nil {
			slot = i
			break
		}
	}
	if slot == -1 {
		m.mu.Unlock()
		return nil, ErrNoFreeSlots
	}

	q := &Queue{
		Name:             name,
		ConnectionString: connectionString,
		IsLead:           true,
		children:         make(map[ChildQueueType]*Queue, maxChildQueues),
	}
	m.slots[slot] = q
	registry := m.registry
	m.mu.Unlock()

	_ = m.establishConnection(ctx, registry, q)

	return q, nil
}

// establishConnection parses q's connection string, looks up the matching driver, and connects,
// installing the resulting handle on q. Failures are swallowed by CreateLead's caller but
// returned here so callers retrying the health-check loop can inspect what went wrong.
// registry.Connect delegates to the driver's VTable.Connect, which for every built-in driver is
// sqlcommon.Adapter.connect — already wrapped in retry.WithBackoff — so a lead queue's first
// connection attempt already rides out transient failures at the driver layer instead of giving
// up on the first dropped packet.
func (m *Manager) establishConnection(ctx context.Context, registry *engine.Registry, q *Queue) error {
	cfg, err := connstring.Parse(q.ConnectionString)
	if err != nil {
		return errors.Wrap(err, "can't parse lead queue connection string")
	}

	engineTag, err := engineTypeForConfig(cfg)
	if err != nil {
		return err
	}

	vtable, err := registry.Lookup(engineTag)
	if err != nil {
		return err
	}

	handle, err := registry.Connect(ctx, engineTag, cfg, q.Name)
	if err != nil {
		return errors.Wrap(err, "can't establish lead queue connection")
	}

	q.EngineType = engineTag
	q.VTable = vtable
	q.SetHandle(handle)

	return nil
}

// CreateChildQueue lazily creates and starts the worker for lead's child queue of type t,
// returning the existing one if it was already created.
func (m *Manager) CreateChildQueue(ctx context.Context, lead *Queue, t ChildQueueType, concurrency int64) (*Queue, error) {
	if lead == nil {
		return nil, errors.New("dbqueue: lead queue is nil")
	}
	if !lead.IsLead {
		return nil, errors.New("dbqueue: queue is not a lead queue")
	}

	lead.childrenMu.Lock()
	defer lead.childrenMu.Unlock()

	if existing, ok := lead.children[t]; ok {
		return existing, nil
	}

	child := &Queue{
		Name:             lead.Name,
		ConnectionString: lead.ConnectionString,
		EngineType:       lead.EngineType,
		QueueType:        t,
		VTable:           lead.VTable,
		lead:             lead,
		requests:         make(chan *Request, 64),
		managerStats:     &m.Stats,
	}
	lead.children[t] = child

	worker := &Worker{Queue: child, Manager: m, Concurrency: concurrency}
	worker.Start(ctx)
	child.worker = worker

	return child, nil
}

// ShutdownChildQueue signals the named child queue of lead to drain in-flight requests, decline
// new ones, and terminate. It rejects a nil lead, an unknown queue type, or a non-lead lead.
func (m *Manager) ShutdownChildQueue(lead *Queue, t ChildQueueType) error {
	if lead == nil {
		return errors.New("dbqueue: lead queue is nil")
	}
	if !lead.IsLead {
		return errors.New("dbqueue: queue is not a lead queue")
	}

	lead.childrenMu.Lock()
	child, ok := lead.children[t]
	if ok {
		delete(lead.children, t)
	}
	lead.childrenMu.Unlock()

	if !ok {
		return errors.Errorf("dbqueue: no %s child queue to shut down", t)
	}

	close(child.requests)
	if child.worker != nil {
		child.worker.Stop()
	}

	return nil
}

// CheckConnection parses queue's connection string and performs a health-check round-trip
// against its established connection (or a throwaway one if none is established yet). Invalid,
// empty, or unparsable connection strings return false, never an error. Like establishConnection,
// the round trip itself goes through VTable.HealthCheck/VTable.Connect, which for every built-in
// driver already retry transient errors via retry.WithBackoff at the sqlcommon layer.
func (m *Manager) CheckConnection(ctx context.Context, q *Queue) bool {
	if q == nil || q.ConnectionString == "" {
		return false
	}

	cfg, err := connstring.Parse(q.ConnectionString)
	if err != nil {
		return false
	}

	if q.VTable == nil {
		m.mu.Lock()
		registry := m.registry
		m.mu.Unlock()

		engineTag, err := engineTypeForConfig(cfg)
		if err != nil {
			return false
		}
		q.VTable, err = registry.Lookup(engineTag)
		if err != nil {
			return false
		}
		q.EngineType = engineTag
	}

	if h := q.Handle(); h != nil {
		return q.VTable.HealthCheck(ctx, h) == nil
	}

	handle, err := q.VTable.Connect(ctx, cfg, q.Name)
	if err != nil {
		return false
	}
	defer func() { _ = q.VTable.Disconnect(ctx, handle) }()

	return q.VTable.HealthCheck(ctx, handle) == nil
}

// engineTypeForConfig has no native way to recover an EngineType from a bare ConnectionConfig
// (connstring.Parse deliberately doesn't tag its shape with one), so it re-derives the tag from
// the same shape rules connstring.Parse itself used. It serves the bare-connection-string entry
// points (CreateLead, CheckConnection).
func engineTypeForConfig(cfg *connstring.ConnectionConfig) (engine.EngineType, error) {
	s := cfg.ConnectionString
	switch {
	case hasPrefix(s, "postgresql://"):
		return engine.PostgreSQL, nil
	case hasPrefix(s, "mysql://"):
		return engine.MySQL, nil
	case strings.Contains(s, "DRIVER={"):
		return engine.DB2, nil
	default:
		return engine.SQLite, nil
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
