package com

import "sync/atomic"

// Counter is a thread-safe incrementing counter that keeps both a value that can be reset per
// interval and a cumulative total across the whole lifetime of the counter.
type Counter struct {
	val   atomic.Uint64
	total atomic.Uint64
}

// Add adds delta to both the current value and the cumulative total.
func (c *Counter) Add(delta uint64) {
	c.val.Add(delta)
	c.total.Add(delta)
}

// Val returns the current value.
func (c *Counter) Val() uint64 {
	return c.val.Load()
}

// Total returns the cumulative total since the counter was created.
func (c *Counter) Total() uint64 {
	return c.total.Load()
}

// Reset sets the current value back to zero and returns the value just before the reset.
// Total is not affected.
func (c *Counter) Reset() uint64 {
	return c.val.Swap(0)
}
