package engine

import "time"

// QueryRequest is one unit of work a child queue dispatches to a driver: either an ad hoc SQL
// template with positional parameters, or a reference to an already-prepared statement by name.
type QueryRequest struct {
	SQLTemplate string
	Parameters  []any

	// PreparedName selects an already-prepared statement instead of SQLTemplate when non-empty.
	PreparedName string

	Timeout time.Duration
}

// QueryResult is what a driver hands back after ExecuteQuery/ExecutePrepared, regardless of
// whether the query succeeded: a failed query still produces a QueryResult with Success false
// and ErrorMessage set, rather than an error return, so callers can distinguish "the database
// rejected this query" from "we couldn't even allocate a result".
type QueryResult struct {
	Success      bool
	RowCount     int
	ColumnCount  int
	AffectedRows uint64
	ColumnNames  []string

	// DataJSON is a JSON array of row objects, "[]" when RowCount is 0.
	DataJSON string

	ErrorMessage string
}
