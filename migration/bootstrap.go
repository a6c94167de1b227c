package migration

import "context"

// BootstrapCounters are the three integers a lead queue's bootstrap query reports.
type BootstrapCounters struct {
	// Available is the highest migration ordinal known to the payload/source-of-truth.
	Available int64
	// Loaded is the highest ordinal whose SQL definitions are resident in the query cache.
	Loaded int64
	// Applied is the highest ordinal actually applied to the database — "APPLY".
	Applied int64
}

// BootstrapFunc runs a lead queue's engine-specific bootstrap query against its established
// connection and returns the refreshed migration counters. It is required for any database with
// auto_migration enabled: without it RunForward and RunReverse fail at their first bootstrap
// call.
type BootstrapFunc func(ctx context.Context) (BootstrapCounters, error)
