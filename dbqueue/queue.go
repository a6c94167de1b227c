package dbqueue

import (
	"context"
	"sync"
	"time"

	"github.com/hydrogend/dbcore/engine"
	"github.com/pkg/errors"
)

// ChildQueueType labels a child queue's latency class.
type ChildQueueType int

const (
	Slow ChildQueueType = iota
	Medium
	Fast
	Cache
	Batch
)

func (t ChildQueueType) String() string {
	switch t {
	case Slow:
		return "slow"
	case Medium:
		return "medium"
	case Fast:
		return "fast"
	case Cache:
		return "cache"
	case Batch:
		return "batch"
	default:
		return "unknown"
	}
}

// Response is what a Worker reports back once a Request has been dispatched.
type Response struct {
	Result *engine.QueryResult
	Err    error
}

// Request is one unit of work submitted to a child queue. Result must be a buffered (capacity
// >= 1) channel so the worker never blocks delivering the outcome.
type Request struct {
	Query   *engine.QueryRequest
	Timeout time.Duration
	Result  chan Response
}

// Queue is either a lead queue, which owns a database's persistent connection and drives
// bootstrap/migration, or a child queue, a typed FIFO worker that dispatches requests through its
// lead's connection. The DatabaseQueue<->DatabaseHandle and child<->lead back-references are
// modeled as non-owning plain pointers: the Manager's slot owns the lead queue's lifetime, and a
// child queue's `lead` field is a weak reference into that same tree, never the other way around.
type Queue struct {
	Name             string
	ConnectionString string
	EngineType       engine.EngineType
	IsLead           bool
	QueueType        ChildQueueType // only meaningful when !IsLead

	VTable *engine.VTable

	connMu sync.Mutex
	handle *engine.Handle

	childrenMu sync.Mutex
	children   map[ChildQueueType]*Queue // populated on a lead queue only

	requests chan *Request // populated on a child queue only
	worker   *Worker       // populated on a child queue only

	lead *Queue // non-owning back-reference from a child queue to its lead

	// managerStats is a non-owning back-reference to the owning Manager's global counters, so a
	// submission can update both its own queue's stats and the DQM-wide totals without the Queue
	// itself holding a strong reference to the Manager.
	managerStats *ManagerStats

	Stats QueueStats
}

// ErrQueueClosed is returned by Submit once a queue has been shut down.
var ErrQueueClosed = errors.New("dbqueue: queue is closed")

// Submit enqueues req on q's FIFO, recording the submission in both q's own stats and (if set)
// the owning manager's global totals. Submission order is preserved: requests are dispatched by
// the queue's worker in the order Submit was called. Submit blocks if the queue is full, and
// returns ErrQueueClosed if q was shut down concurrently with the call.
func (q *Queue) Submit(ctx context.Context, req *Request) (err error) {
	if q.IsLead {
		return errors.New("dbqueue: requests are submitted to a child queue, not a lead queue")
	}
	if req == nil || req.Query == nil {
		return errors.New("dbqueue: request or its query is nil")
	}
	if req.Result == nil || cap(req.Result) < 1 {
		return errors.New("dbqueue: request result channel must be buffered")
	}

	defer func() {
		// Submitting to a queue ShutdownChildQueue closed concurrently panics on send; treat
		// that race as a clean ErrQueueClosed rather than propagating the panic.
		if r := recover(); r != nil {
			err = ErrQueueClosed
		}
	}()

	select {
	case q.requests <- req:
		q.recordSubmission()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) recordSubmission() {
	now := time.Now().Unix()
	q.Stats.Submitted.Add(1)
	q.Stats.touch(now)
	if q.managerStats != nil {
		q.managerStats.TotalQueriesSubmitted.Add(1)
	}
}

// Handle returns the queue's persistent connection, or nil if none is currently established.
func (q *Queue) Handle() *engine.Handle {
	q.connMu.Lock()
	defer q.connMu.Unlock()
	return q.handle
}

// SetHandle installs h as the queue's persistent connection, replacing (without closing) any
// previous one. Callers are responsible for disconnecting a replaced handle first.
func (q *Queue) SetHandle(h *engine.Handle) {
	q.connMu.Lock()
	defer q.connMu.Unlock()
	q.handle = h
}

// Lead returns the lead queue this queue dispatches through: itself, if it is already a lead
// queue, or its non-owning back-reference otherwise.
func (q *Queue) Lead() *Queue {
	if q.IsLead {
		return q
	}
	return q.lead
}

// ChildQueue returns the named child queue of a lead queue, or nil if it hasn't been created.
func (q *Queue) ChildQueue(t ChildQueueType) *Queue {
	q.childrenMu.Lock()
	defer q.childrenMu.Unlock()
	if q.children == nil {
		return nil
	}
	return q.children[t]
}
