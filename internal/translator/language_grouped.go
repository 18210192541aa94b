package translator

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"trans-gate/internal/wire"
)

// GroupFunc is the send primitive for LanguageGrouped adapters: one backend
// call per language group, returning results positionally aligned with items.
type GroupFunc func(ctx context.Context, items []wire.InputItem, sourceLang, targetLang string) ([]string, error)

// LanguageGrouped submits one worker task per language group and emits one
// callback per item as its group's call completes. A failed group fails only
// its own items; other groups continue.
type LanguageGrouped struct {
	Base
	send     GroupFunc
	pool     *workerPool
	poolOnce sync.Once
}

// NewLanguageGrouped wraps a per-group send primitive in the grouped strategy.
func NewLanguageGrouped(base Base, send GroupFunc) *LanguageGrouped {
	return &LanguageGrouped{Base: base, send: send}
}

func (t *LanguageGrouped) Translate(req Request, cb Callback) {
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

	// Submission happens off the caller's goroutine so Translate never
	// blocks on pool capacity.
	go func() {
		for _, group := range req.Groups {
			if len(group.InputItemList) == 0 {
				continue
			}
			group := group
			t.pool.submit(func() {
				t.runGroup(dctx, req, group, cb)
			})
		}
	}()
}

func (t *LanguageGrouped) runGroup(dctx *DispatchContext, req Request, group wire.LangItem, cb Callback) {
	results, err := t.invoke(context.Background(), group.InputItemList, group.InputLang, req.TargetLang)
	if err != nil {
		st := statusFromError(err)
		for range group.InputItemList {
			dctx.Deliver(cb, nil, st)
		}
		return
	}

	for i, item := range group.InputItemList {
		var out []wire.ResultItem
		var st *status.Status
		if i < len(results) {
			out = []wire.ResultItem{{ID: item.ID, Result: results[i]}}
		} else {
			st = status.New(codes.DataLoss, fmt.Sprintf("backend returned %d results for %d items in group %s", len(results), len(group.InputItemList), group.InputLang))
		}
		dctx.Deliver(cb, out, st)
	}
}

func (t *LanguageGrouped) invoke(ctx context.Context, items []wire.InputItem, sourceLang, targetLang string) (results []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adapter panic: %v", r)
		}
	}()
	return t.send(ctx, items, sourceLang, targetLang)
}

// Destroy releases the worker pool. Idempotent.
func (t *LanguageGrouped) Destroy() {
	if t.pool != nil {
		t.pool.shutdown()
	}
}
