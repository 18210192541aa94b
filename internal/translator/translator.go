// Package translator defines the capability contract that every backend
// adapter implements, plus the three reusable dispatch strategies that wrap a
// minimal per-adapter send primitive in a concurrency and batching policy.
package translator

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"trans-gate/internal/wire"
)

// Callback delivers one unit of translation progress. It may be invoked
// multiple times per request; the invocation with finished=true closes the
// outbound stream and is raised exactly once.
type Callback func(requestID string, finished bool, results []wire.ResultItem, st *status.Status)

// Request carries one decrypted translation request into a dispatch strategy.
type Request struct {
	RequestID     string
	EngineCode    string
	TargetLang    string
	AutoTranslate bool
	Groups        []wire.LangItem
}

// TotalItems returns the number of input items across all language groups.
func (r Request) TotalItems() int {
	total := 0
	for _, group := range r.Groups {
		total += len(group.InputItemList)
	}
	return total
}

// Translator is the capability set every backend adapter satisfies.
type Translator interface {
	// Name returns the adapter's display name for logs.
	Name() string

	// SupportedEngines lists the engine identifiers this adapter serves.
	SupportedEngines() []wire.Engine

	// IsSupported reports whether the adapter serves the engine code.
	IsSupported(engineCode string) bool

	// IsSupportedPair reports whether the engine can translate into the
	// target language.
	IsSupportedPair(engineCode, targetLang string) bool

	// Concurrent returns the adapter's worker pool size.
	Concurrent() int

	// Init receives adapter-specific settings and reports whether the
	// adapter is usable. A false return fails the whole registry load.
	Init(settings map[string]any) bool

	// Destroy releases network resources. Must be idempotent.
	Destroy()

	// Translate dispatches the request and returns after submitting work;
	// results arrive asynchronously through the callback.
	Translate(req Request, cb Callback)
}

// Base carries the adapter identity and capability bookkeeping shared by all
// three dispatch strategies.
type Base struct {
	name       string
	engines    []wire.Engine
	languages  map[string][]string
	concurrent int
}

// NewBase builds the shared adapter state. The languages map lists supported
// target languages per engine code; a missing or empty entry means the engine
// accepts any target language.
func NewBase(name string, engines []wire.Engine, languages map[string][]string) Base {
	return Base{
		name:       name,
		engines:    engines,
		languages:  languages,
		concurrent: 1,
	}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) SupportedEngines() []wire.Engine {
	out := make([]wire.Engine, len(b.engines))
	copy(out, b.engines)
	return out
}

func (b *Base) IsSupported(engineCode string) bool {
	for _, engine := range b.engines {
		if engine.Code == engineCode {
			return true
		}
	}
	return false
}

func (b *Base) IsSupportedPair(engineCode, targetLang string) bool {
	if !b.IsSupported(engineCode) {
		return false
	}
	langs := b.languages[engineCode]
	if len(langs) == 0 {
		return true
	}
	for _, lang := range langs {
		if lang == targetLang {
			return true
		}
	}
	return false
}

func (b *Base) Concurrent() int {
	return b.concurrent
}

// Init parses the settings shared by every adapter. Adapter-specific Init
// implementations call this first, then read their own keys.
func (b *Base) Init(settings map[string]any) bool {
	b.concurrent = IntSetting(settings, "concurrent", 1)
	if b.concurrent < 1 {
		b.concurrent = 1
	}
	return true
}

func (b *Base) Destroy() {}

// validate checks the request against the adapter's capabilities. Unknown
// engine codes and unsupported target languages are rejected before any
// network call is made.
func (b *Base) validate(req Request) *status.Status {
	if !b.IsSupported(req.EngineCode) {
		return status.New(codes.InvalidArgument, "engine "+req.EngineCode+" is not served by adapter "+b.name)
	}
	if !b.IsSupportedPair(req.EngineCode, req.TargetLang) {
		return status.New(codes.Unimplemented, "engine "+req.EngineCode+" does not support target language "+req.TargetLang)
	}
	return nil
}

// IntSetting reads an integer from adapter settings, tolerating the numeric
// types YAML and JSON decoders produce.
func IntSetting(settings map[string]any, key string, fallback int) int {
	switch v := settings[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// StringSetting reads a string from adapter settings.
func StringSetting(settings map[string]any, key, fallback string) string {
	if v, ok := settings[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// StringMapSetting reads a nested string map from adapter settings.
func StringMapSetting(settings map[string]any, key string) map[string]string {
	out := make(map[string]string)
	nested, ok := settings[key].(map[string]any)
	if !ok {
		return out
	}
	for k, v := range nested {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
