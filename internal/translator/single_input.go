package translator

import (
	"context"
	"fmt"
	"sync"

	"trans-gate/internal/wire"
)

// ItemFunc is the send primitive for SingleInput adapters: one backend call
// per individual item, for backends with no batch API.
type ItemFunc func(ctx context.Context, item wire.InputItem, sourceLang, targetLang string) (string, error)

// SingleInput submits one worker task per item across all groups and emits
// exactly one callback per item. Clients may observe one result per completed
// network call, in completion order.
type SingleInput struct {
	Base
	send     ItemFunc
	pool     *workerPool
	poolOnce sync.Once
}

// NewSingleInput wraps a per-item send primitive in the finest-grained strategy.
func NewSingleInput(base Base, send ItemFunc) *SingleInput {
	return &SingleInput{Base: base, send: send}
}

func (t *SingleInput) Translate(req Request, cb Callback) {
	if st := t.validate(req); st != nil {
		cb(req.RequestID, true, nil, st)
		return
	}

	dctx := NewDispatchContext(req.RequestID, req.TotalItems())
	if dctx.Total() == 0 {
		cb(req.RequestID, true, nil, nil)
		return
	}

	t.poolOnce.Do(func() {
		t.pool = newWorkerPool(t.Concurrent())
	})

	go func() {
		for _, group := range req.Groups {
			sourceLang := group.InputLang
			for _, item := range group.InputItemList {
				item := item
				t.pool.submit(func() {
					t.runItem(dctx, req, item, sourceLang, cb)
				})
			}
		}
	}()
}

func (t *SingleInput) runItem(dctx *DispatchContext, req Request, item wire.InputItem, sourceLang string, cb Callback) {
	result, err := t.invoke(context.Background(), item, sourceLang, req.TargetLang)
	if err != nil {
		dctx.Deliver(cb, nil, statusFromError(err))
		return
	}
	dctx.Deliver(cb, []wire.ResultItem{{ID: item.ID, Result: result}}, nil)
}

func (t *SingleInput) invoke(ctx context.Context, item wire.InputItem, sourceLang, targetLang string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adapter panic: %v", r)
		}
	}()
	return t.send(ctx, item, sourceLang, targetLang)
}

// Destroy releases the worker pool. Idempotent.
func (t *SingleInput) Destroy() {
	if t.pool != nil {
		t.pool.shutdown()
	}
}
