package translator

import (
	"sync"
	"sync/atomic"

	"google.golang.org/grpc/status"

	"trans-gate/internal/wire"
)

// DispatchContext tracks completion of one translation request across any
// number of concurrent workers. The finished decision is strictly
// completedCount reaching totalItemCount, via an atomic increment, so the
// last unit to complete flips the stream to finished no matter which worker
// carried it.
type DispatchContext struct {
	RequestID string
	total     int32
	completed atomic.Int32

	deliverMu sync.Mutex
}

// NewDispatchContext creates a completion tracker for a request with the
// given total item count.
func NewDispatchContext(requestID string, totalItems int) *DispatchContext {
	return &DispatchContext{
		RequestID: requestID,
		total:     int32(totalItems),
	}
}

// RecordCompletion adds n completed items and reports whether this call is
// the one that brought the counter to the total. The transition check makes
// the true result single-shot even under concurrent callers.
func (c *DispatchContext) RecordCompletion(n int) bool {
	done := c.completed.Add(int32(n))
	return done >= c.total && done-int32(n) < c.total
}

// Deliver records one completed item and invokes the callback with the
// finished flag, holding a delivery lock so the finished invocation is
// strictly the last one a consumer observes. Workers call this instead of
// pairing RecordCompletion with a bare callback invocation.
func (c *DispatchContext) Deliver(cb Callback, results []wire.ResultItem, st *status.Status) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	cb(c.RequestID, c.RecordCompletion(1), results, st)
}

// Completed returns the current completion count.
func (c *DispatchContext) Completed() int {
	return int(c.completed.Load())
}

// Total returns the fixed item total.
func (c *DispatchContext) Total() int {
	return int(c.total)
}
