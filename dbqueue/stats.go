package dbqueue

import "github.com/hydrogend/dbcore/com"

// QueueStats is one queue's live statistics, updated as requests are submitted, dispatched, and
// completed. All fields tolerate being read concurrently with updates.
type QueueStats struct {
	Submitted com.Counter
	Failed    com.Counter
	Timeouts  com.Counter

	lastUsed com.Atomic[int64] // unix seconds of the most recent submission
}

func (s *QueueStats) touch(unixSeconds int64) {
	s.lastUsed.Store(unixSeconds)
}

// LastUsed returns the unix-second timestamp of the most recent submission, or 0 if the queue
// has never received one.
func (s *QueueStats) LastUsed() int64 {
	v, _ := s.lastUsed.Load()
	return v
}

// StatsSnapshot is a point-in-time, read-only copy of a queue's QueueStats, safe to pass around
// or serialize after the fact.
type StatsSnapshot struct {
	Submitted uint64
	Failed    uint64
	Timeouts  uint64
	LastUsed  int64
}

// Snapshot takes a point-in-time copy of s.
func (s *QueueStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Submitted: s.Submitted.Total(),
		Failed:    s.Failed.Total(),
		Timeouts:  s.Timeouts.Total(),
		LastUsed:  s.LastUsed(),
	}
}

// ManagerStats are the process-global counters the spec calls dqm_stats: totals aggregated
// across every queue the Manager owns.
type ManagerStats struct {
	TotalQueriesSubmitted com.Counter
	TotalQueriesFailed    com.Counter
	TotalTimeouts         com.Counter
}

// Snapshot takes a point-in-time copy of s.
func (s *ManagerStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Submitted: s.TotalQueriesSubmitted.Total(),
		Failed:    s.TotalQueriesFailed.Total(),
		Timeouts:  s.TotalTimeouts.Total(),
	}
}
