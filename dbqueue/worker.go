package dbqueue

import (
	"context"

	"github.com/hydrogend/dbcore/engine"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultWorkerConcurrency bounds how many requests a single child queue's worker may have
// in flight at once when the caller doesn't specify one.
const DefaultWorkerConcurrency = 4

// ErrRequestTimeout is delivered on a Request's Result channel when its Timeout elapses before
// the driver call returns. Per the spec, the in-flight driver call itself is not forcibly
// aborted; a subsequent health check may later observe the connection as Broken.
var ErrRequestTimeout = errors.New("dbqueue: request timed out")

// Worker drains one child queue's FIFO request channel, dispatching each request against its
// lead queue's VTable/handle with bounded concurrency, and reporting the outcome back on
// Request.Result. This is the one logical worker per child queue the concurrency model calls
// for; the migration Runner separately plays the role of the one supervisor per lead queue.
type Worker struct {
	Queue       *Queue
	Manager     *Manager
	Concurrency int64

	sem    *semaphore.Weighted
	cancel context.CancelFunc
	done   chan struct{}
}

// Start launches the worker loop in the background, bounding concurrent dispatches to
// Concurrency (or DefaultWorkerConcurrency if unset). Stop drains in-flight and already-queued
// requests before returning.
func (w *Worker) Start(ctx context.Context) {
	concurrency := w.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultWorkerConcurrency
	}
	w.sem = semaphore.NewWeighted(concurrency)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)

		g, gctx := errgroup.WithContext(context.Background())

		accept := func(req *Request) bool {
			if err := w.sem.Acquire(gctx, 1); err != nil {
				return false
			}
			g.Go(func() error {
				defer w.sem.Release(1)
				w.dispatch(runCtx, req)
				return nil
			})
			return true
		}

	loop:
		for {
			select {
			case req, ok := <-w.Queue.requests:
				if !ok {
					break loop
				}
				if !accept(req) {
					break loop
				}
				continue
			case <-runCtx.Done():
			}

			// Stop was called: drain whatever is already buffered on the channel before
			// exiting, rather than racing the still-ready case above against ctx.Done().
			for {
				select {
				case req, ok := <-w.Queue.requests:
					if !ok || !accept(req) {
						break loop
					}
				default:
					break loop
				}
			}
		}

		_ = g.Wait()
	}()
}

// Stop signals the worker to stop accepting new dispatches and waits for in-flight requests
// already pulled off the channel to finish.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.done != nil {
		<-w.done
	}
}

// dispatch runs req against the queue's lead connection and reports the outcome. Failures and
// timeouts update both the queue's own stats and (if set) the manager's global totals; successful
// submissions were already counted by Queue.Submit.
func (w *Worker) dispatch(ctx context.Context, req *Request) {
	lead := w.Queue.Lead()

	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	result, err := w.execute(runCtx, lead, req)

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		w.Queue.Stats.Timeouts.Add(1)
		if w.Queue.managerStats != nil {
			w.Queue.managerStats.TotalTimeouts.Add(1)
		}
		deliver(req.Result, Response{Err: ErrRequestTimeout})
	case err != nil:
		w.Queue.Stats.Failed.Add(1)
		if w.Queue.managerStats != nil {
			w.Queue.managerStats.TotalQueriesFailed.Add(1)
		}
		deliver(req.Result, Response{Err: err})
	default:
		deliver(req.Result, Response{Result: result})
	}
}

func (w *Worker) execute(ctx context.Context, lead *Queue, req *Request) (*engine.QueryResult, error) {
	if lead == nil || lead.VTable == nil {
		return nil, errors.New("dbqueue: queue has no lead connection to dispatch through")
	}

	handle := lead.Handle()
	if handle == nil {
		return nil, errors.New("dbqueue: lead queue has no established connection")
	}

	return lead.VTable.ExecuteQuery(ctx, handle, req.Query)
}

func deliver(ch chan Response, resp Response) {
	select {
	case ch <- resp:
	default:
		// Result must be buffered (Submit enforces capacity >= 1); a full channel here means
		// the caller already gave up, which is fine — there's no one left to deliver to.
	}
}
