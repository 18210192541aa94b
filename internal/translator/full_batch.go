package translator

import (
	"context"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"trans-gate/internal/wire"
)

// BatchFunc is the send primitive for FullBatch adapters: one backend call
// carrying every item text in the request. sourceLang is empty when the
// request mixes source languages; how the backend handles that is the
// adapter's contract with its provider.
type BatchFunc func(ctx context.Context, texts []string, sourceLang, targetLang string, glossary []wire.GlossaryPair, glossaryIgnoreCase bool) ([]string, error)

// FullBatch dispatches the whole request as one backend call and emits
// exactly one callback invocation, always with finished=true. Results map
// back onto items by position.
type FullBatch struct {
	Base
	send BatchFunc
}

// NewFullBatch wraps a batch send primitive in the whole-request strategy.
func NewFullBatch(base Base, send BatchFunc) *FullBatch {
	return &FullBatch{Base: base, send: send}
}

func (t *FullBatch) Translate(req Request, cb Callback) {
	if st := t.validate(req); st != nil {
		cb(req.RequestID, true, nil, st)
		return
	}
	go t.run(req, cb)
}

func (t *FullBatch) run(req Request, cb Callback) {
	var ids []int32
	var texts []string
	nonEmpty := 0
	for _, group := range req.Groups {
		if len(group.InputItemList) == 0 {
			continue
		}
		nonEmpty++
		for _, item := range group.InputItemList {
			ids = append(ids, item.ID)
			texts = append(texts, item.Input)
		}
	}
	if len(ids) == 0 {
		cb(req.RequestID, true, nil, nil)
		return
	}

	// Source language and glossary apply to the batch call only when the
	// request holds a single language group.
	sourceLang := ""
	var glossary []wire.GlossaryPair
	ignoreCase := false
	if nonEmpty == 1 {
		for _, group := range req.Groups {
			if len(group.InputItemList) == 0 {
				continue
			}
			sourceLang = group.InputLang
			for _, item := range group.InputItemList {
				glossary = append(glossary, item.GlossaryList...)
				if item.GlossaryIgnoreCase {
					ignoreCase = true
				}
			}
		}
	}

	results, err := t.invoke(context.Background(), texts, sourceLang, req.TargetLang, glossary, ignoreCase)
	if err != nil {
		cb(req.RequestID, true, nil, statusFromError(err))
		return
	}

	items := make([]wire.ResultItem, 0, len(ids))
	for i, id := range ids {
		if i < len(results) {
			items = append(items, wire.ResultItem{ID: id, Result: results[i]})
		}
	}
	var st *status.Status
	if len(results) < len(ids) {
		st = status.New(codes.DataLoss, fmt.Sprintf("backend returned %d results for %d items", len(results), len(ids)))
	}
	cb(req.RequestID, true, items, st)
}

func (t *FullBatch) invoke(ctx context.Context, texts []string, sourceLang, targetLang string, glossary []wire.GlossaryPair, ignoreCase bool) (results []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adapter panic: %v", r)
		}
	}()
	return t.send(ctx, texts, sourceLang, targetLang, glossary, ignoreCase)
}
