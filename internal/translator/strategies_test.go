package translator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"trans-gate/internal/wire"
)

// callbackRecorder accumulates callback invocations and signals when the
// finished invocation arrives.
type callbackRecorder struct {
	mu       sync.Mutex
	calls    []recordedCall
	finished chan struct{}
}

type recordedCall struct {
	requestID string
	finished  bool
	results   []wire.ResultItem
	st        *status.Status
}

func newCallbackRecorder() *callbackRecorder {
	return &callbackRecorder{finished: make(chan struct{})}
}

func (r *callbackRecorder) callback(requestID string, finished bool, results []wire.ResultItem, st *status.Status) {
	r.mu.Lock()
	r.calls = append(r.calls, recordedCall{requestID: requestID, finished: finished, results: results, st: st})
	r.mu.Unlock()
	if finished {
		close(r.finished)
	}
}

func (r *callbackRecorder) wait(t *testing.T) []recordedCall {
	t.Helper()
	select {
	case <-r.finished:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for finished callback")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedCall, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *callbackRecorder) resultIDs() map[int32]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[int32]bool)
	for _, call := range r.calls {
		for _, item := range call.results {
			ids[item.ID] = true
		}
	}
	return ids
}

func twoGroupRequest() Request {
	return Request{
		RequestID:  "req-1",
		EngineCode: "acme",
		TargetLang: "zh",
		Groups: []wire.LangItem{
			{InputLang: "en", InputItemList: []wire.InputItem{
				{ID: 1, Input: "one"},
				{ID: 2, Input: "two"},
				{ID: 3, Input: "three"},
			}},
			{InputLang: "es", InputItemList: []wire.InputItem{
				{ID: 4, Input: "cuatro"},
			}},
		},
	}
}

func initBase(t *testing.T, concurrent int) Base {
	t.Helper()
	base := NewBase("acme", testEngines(), map[string][]string{"acme-pro": {"zh"}})
	require.True(t, base.Init(map[string]any{"concurrent": concurrent}))
	return base
}

func TestFullBatchSuccess(t *testing.T) {
	var gotSourceLang string
	tr := NewFullBatch(initBase(t, 1), func(_ context.Context, texts []string, sourceLang, targetLang string, _ []wire.GlossaryPair, _ bool) ([]string, error) {
		gotSourceLang = sourceLang
		assert.Equal(t, "zh", targetLang)
		out := make([]string, len(texts))
		for i, text := range texts {
			out[i] = "zh:" + text
		}
		return out, nil
	})

	rec := newCallbackRecorder()
	tr.Translate(twoGroupRequest(), rec.callback)
	calls := rec.wait(t)

	require.Len(t, calls, 1)
	assert.True(t, calls[0].finished)
	assert.Nil(t, calls[0].st)
	require.Len(t, calls[0].results, 4)
	assert.Equal(t, "zh:one", calls[0].results[0].Result)
	assert.Equal(t, int32(4), calls[0].results[3].ID)
	// Two source languages in the request leave the batch language unset.
	assert.Equal(t, "", gotSourceLang)
}

func TestFullBatchSingleGroupCarriesSourceAndGlossary(t *testing.T) {
	var gotSourceLang string
	var gotGlossary []wire.GlossaryPair
	tr := NewFullBatch(initBase(t, 1), func(_ context.Context, texts []string, sourceLang, _ string, glossary []wire.GlossaryPair, _ bool) ([]string, error) {
		gotSourceLang = sourceLang
		gotGlossary = glossary
		return make([]string, len(texts)), nil
	})

	req := Request{
		RequestID:  "req-2",
		EngineCode: "acme",
		TargetLang: "zh",
		Groups: []wire.LangItem{
			{InputLang: "en", InputItemList: []wire.InputItem{
				{ID: 1, Input: "one", GlossaryList: []wire.GlossaryPair{{SrcWords: "one", TargetWords: "uno"}}},
			}},
		},
	}

	rec := newCallbackRecorder()
	tr.Translate(req, rec.callback)
	rec.wait(t)

	assert.Equal(t, "en", gotSourceLang)
	require.Len(t, gotGlossary, 1)
	assert.Equal(t, "uno", gotGlossary[0].TargetWords)
}

func TestFullBatchShortResultsCarriesDataLoss(t *testing.T) {
	tr := NewFullBatch(initBase(t, 1), func(_ context.Context, texts []string, _, _ string, _ []wire.GlossaryPair, _ bool) ([]string, error) {
		return []string{"a", "b"}, nil
	})

	req := Request{
		RequestID:  "req-3",
		EngineCode: "acme",
		TargetLang: "zh",
		Groups: []wire.LangItem{
			{InputLang: "en", InputItemList: []wire.InputItem{
				{ID: 1, Input: "one"}, {ID: 2, Input: "two"}, {ID: 3, Input: "three"},
			}},
		},
	}

	rec := newCallbackRecorder()
	tr.Translate(req, rec.callback)
	calls := rec.wait(t)

	require.Len(t, calls, 1)
	assert.True(t, calls[0].finished)
	require.NotNil(t, calls[0].st)
	assert.Equal(t, codes.DataLoss, calls[0].st.Code())
	assert.Len(t, calls[0].results, 2)
}

func TestFullBatchBackendError(t *testing.T) {
	tr := NewFullBatch(initBase(t, 1), func(_ context.Context, _ []string, _, _ string, _ []wire.GlossaryPair, _ bool) ([]string, error) {
		return nil, status.Error(codes.ResourceExhausted, "quota exceeded")
	})

	rec := newCallbackRecorder()
	tr.Translate(twoGroupRequest(), rec.callback)
	calls := rec.wait(t)

	require.Len(t, calls, 1)
	assert.True(t, calls[0].finished)
	require.NotNil(t, calls[0].st)
	assert.Equal(t, codes.ResourceExhausted, calls[0].st.Code())
	assert.Empty(t, calls[0].results)
}

func TestLanguageGroupedStreamsPerItem(t *testing.T) {
	tr := NewLanguageGrouped(initBase(t, 2), func(_ context.Context, items []wire.InputItem, sourceLang, _ string) ([]string, error) {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = sourceLang + ":" + item.Input
		}
		return out, nil
	})
	defer tr.Destroy()

	rec := newCallbackRecorder()
	tr.Translate(twoGroupRequest(), rec.callback)
	calls := rec.wait(t)

	require.Len(t, calls, 4)
	finishedCount := 0
	for i, call := range calls {
		assert.Equal(t, "req-1", call.requestID)
		require.Len(t, call.results, 1)
		if call.finished {
			finishedCount++
			assert.Equal(t, len(calls)-1, i, "finished flag must ride the last callback")
		}
	}
	assert.Equal(t, 1, finishedCount)
	assert.Equal(t, map[int32]bool{1: true, 2: true, 3: true, 4: true}, rec.resultIDs())
}

func TestLanguageGroupedFailureIsGroupLocal(t *testing.T) {
	tr := NewLanguageGrouped(initBase(t, 2), func(_ context.Context, items []wire.InputItem, sourceLang, _ string) ([]string, error) {
		if sourceLang == "en" {
			return nil, status.Error(codes.Unavailable, "backend down")
		}
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = "zh:" + item.Input
		}
		return out, nil
	})
	defer tr.Destroy()

	rec := newCallbackRecorder()
	tr.Translate(twoGroupRequest(), rec.callback)
	calls := rec.wait(t)

	require.Len(t, calls, 4)
	failed, succeeded := 0, 0
	for _, call := range calls {
		if call.st != nil {
			assert.Equal(t, codes.Unavailable, call.st.Code())
			failed++
		} else {
			succeeded++
		}
	}
	assert.Equal(t, 3, failed)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, map[int32]bool{4: true}, rec.resultIDs())
}

func TestSingleInputStreamsPerItem(t *testing.T) {
	tr := NewSingleInput(initBase(t, 4), func(_ context.Context, item wire.InputItem, sourceLang, _ string) (string, error) {
		return sourceLang + ":" + item.Input, nil
	})
	defer tr.Destroy()

	rec := newCallbackRecorder()
	tr.Translate(twoGroupRequest(), rec.callback)
	calls := rec.wait(t)

	require.Len(t, calls, 4)
	assert.Equal(t, map[int32]bool{1: true, 2: true, 3: true, 4: true}, rec.resultIDs())
}

func TestSingleInputFailureIsItemLocal(t *testing.T) {
	tr := NewSingleInput(initBase(t, 2), func(_ context.Context, item wire.InputItem, _, _ string) (string, error) {
		if item.ID == 2 {
			return "", fmt.Errorf("connection reset")
		}
		return "ok", nil
	})
	defer tr.Destroy()

	rec := newCallbackRecorder()
	tr.Translate(twoGroupRequest(), rec.callback)
	calls := rec.wait(t)

	require.Len(t, calls, 4)
	failed := 0
	for _, call := range calls {
		if call.st != nil {
			// Plain errors surface as Internal.
			assert.Equal(t, codes.Internal, call.st.Code())
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, map[int32]bool{1: true, 3: true, 4: true}, rec.resultIDs())
}

func TestUnknownEngineCodeRejectedBeforeDispatch(t *testing.T) {
	strategies := map[string]Translator{
		"full batch": NewFullBatch(initBase(t, 1), func(_ context.Context, _ []string, _, _ string, _ []wire.GlossaryPair, _ bool) ([]string, error) {
			t.Fatal("send primitive must not be called")
			return nil, nil
		}),
		"language grouped": NewLanguageGrouped(initBase(t, 1), func(_ context.Context, _ []wire.InputItem, _, _ string) ([]string, error) {
			t.Fatal("send primitive must not be called")
			return nil, nil
		}),
		"single input": NewSingleInput(initBase(t, 1), func(_ context.Context, _ wire.InputItem, _, _ string) (string, error) {
			t.Fatal("send primitive must not be called")
			return "", nil
		}),
	}

	for name, tr := range strategies {
		t.Run(name, func(t *testing.T) {
			req := twoGroupRequest()
			req.EngineCode = "no-such-engine"

			rec := newCallbackRecorder()
			tr.Translate(req, rec.callback)
			calls := rec.wait(t)

			require.Len(t, calls, 1)
			assert.True(t, calls[0].finished)
			assert.Empty(t, calls[0].results)
			require.NotNil(t, calls[0].st)
			assert.Equal(t, codes.InvalidArgument, calls[0].st.Code())
		})
	}
}

func TestUnsupportedTargetLanguage(t *testing.T) {
	tr := NewFullBatch(initBase(t, 1), func(_ context.Context, _ []string, _, _ string, _ []wire.GlossaryPair, _ bool) ([]string, error) {
		t.Fatal("send primitive must not be called")
		return nil, nil
	})

	req := twoGroupRequest()
	req.EngineCode = "acme-pro"
	req.TargetLang = "fr"

	rec := newCallbackRecorder()
	tr.Translate(req, rec.callback)
	calls := rec.wait(t)

	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].st)
	assert.Equal(t, codes.Unimplemented, calls[0].st.Code())
}

func TestEmptyRequestFinishesImmediately(t *testing.T) {
	tr := NewSingleInput(initBase(t, 1), func(_ context.Context, _ wire.InputItem, _, _ string) (string, error) {
		t.Fatal("send primitive must not be called")
		return "", nil
	})
	defer tr.Destroy()

	req := Request{RequestID: "req-empty", EngineCode: "acme", TargetLang: "zh"}
	rec := newCallbackRecorder()
	tr.Translate(req, rec.callback)
	calls := rec.wait(t)

	require.Len(t, calls, 1)
	assert.True(t, calls[0].finished)
	assert.Nil(t, calls[0].st)
	assert.Empty(t, calls[0].results)
}

func TestSingleInputFinishedExactlyOnceUnderLoad(t *testing.T) {
	tr := NewSingleInput(initBase(t, 8), func(_ context.Context, item wire.InputItem, _, _ string) (string, error) {
		return item.Input, nil
	})
	defer tr.Destroy()

	const itemCount = 200
	items := make([]wire.InputItem, itemCount)
	for i := range items {
		items[i] = wire.InputItem{ID: int32(i + 1), Input: fmt.Sprintf("text-%d", i)}
	}
	req := Request{
		RequestID:  "req-load",
		EngineCode: "acme",
		TargetLang: "zh",
		Groups:     []wire.LangItem{{InputLang: "en", InputItemList: items}},
	}

	rec := newCallbackRecorder()
	tr.Translate(req, rec.callback)
	calls := rec.wait(t)

	// Workers may still be delivering when finished fires; give them a beat.
	time.Sleep(100 * time.Millisecond)
	rec.mu.Lock()
	totalCalls := len(rec.calls)
	finishedCount := 0
	for _, call := range rec.calls {
		if call.finished {
			finishedCount++
		}
	}
	rec.mu.Unlock()

	assert.Equal(t, itemCount, totalCalls)
	assert.Equal(t, 1, finishedCount)
	assert.GreaterOrEqual(t, len(calls), 1)
	assert.Len(t, rec.resultIDs(), itemCount)
}

func TestDestroyIsIdempotent(t *testing.T) {
	tr := NewLanguageGrouped(initBase(t, 2), func(_ context.Context, items []wire.InputItem, _, _ string) ([]string, error) {
		return make([]string, len(items)), nil
	})

	rec := newCallbackRecorder()
	tr.Translate(twoGroupRequest(), rec.callback)
	rec.wait(t)

	assert.NotPanics(t, func() {
		tr.Destroy()
		tr.Destroy()
	})

	// Destroy before first use must not panic either.
	idle := NewSingleInput(initBase(t, 1), func(_ context.Context, _ wire.InputItem, _, _ string) (string, error) {
		return "", nil
	})
	assert.NotPanics(t, func() { idle.Destroy() })
}
