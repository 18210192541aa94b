// Package registry wires configured adapters to engine identifiers. Adapter
// implementations register a constructor at package init; the loader
// instantiates and initializes the adapters named by the gateway
// configuration and builds the engine lookup table.
package registry

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"trans-gate/internal/config"
	"trans-gate/internal/httpclient"
	"trans-gate/internal/translator"
	"trans-gate/internal/wire"
)

// Deps are the shared resources handed to every adapter constructor.
type Deps struct {
	HTTPClients *httpclient.Manager
}

// Constructor builds an uninitialized adapter instance.
type Constructor func(deps Deps) translator.Translator

var constructors = make(map[string]Constructor)

// Register binds an implementation reference to an adapter constructor.
// Called from adapter init functions.
func Register(implRef string, ctor Constructor) {
	if _, exists := constructors[implRef]; exists {
		panic(fmt.Sprintf("registry: duplicate adapter implementation %q", implRef))
	}
	constructors[implRef] = ctor
}

// Registry resolves engine codes to initialized adapters.
type Registry struct {
	adapters map[string]translator.Translator
	engines  []wire.Engine
	loaded   []translator.Translator
}

// Loader instantiates the adapters enabled by the gateway configuration.
type Loader struct {
	deps     Deps
	provider config.AdapterConfigProvider
}

func NewLoader(deps Deps, provider config.AdapterConfigProvider) *Loader {
	return &Loader{deps: deps, provider: provider}
}

// Load builds the registry from the enabled adapter list. A missing
// definition, an unknown implementation reference, or an adapter whose Init
// returns false fails the whole load: engines are load-bearing for every
// subsequent RPC, so a partially initialized set is not served. When two
// adapters claim the same engine code, the first registration wins and the
// conflict is logged.
func (l *Loader) Load(cfg *config.GatewayConfig) (*Registry, error) {
	reg := &Registry{adapters: make(map[string]translator.Translator)}

	for _, code := range cfg.EnabledAdapters {
		def := cfg.Define(code)
		if def == nil {
			return nil, fmt.Errorf("adapter %q is enabled but has no definition", code)
		}
		ctor, ok := constructors[def.Impl]
		if !ok {
			return nil, fmt.Errorf("adapter %q references unknown implementation %q", code, def.Impl)
		}

		settings, err := l.provider.AdapterConfig(code)
		if err != nil {
			return nil, fmt.Errorf("load settings for adapter %q: %w", code, err)
		}

		adapter := ctor(l.deps)
		if !adapter.Init(settings) {
			return nil, fmt.Errorf("initialize adapter %q: init failed", code)
		}
		reg.loaded = append(reg.loaded, adapter)

		for _, engine := range adapter.SupportedEngines() {
			if existing, taken := reg.adapters[engine.Code]; taken {
				logrus.Warnf("Engine %s is already served by adapter %s, ignoring registration from %s", engine.Code, existing.Name(), adapter.Name())
				continue
			}
			reg.adapters[engine.Code] = adapter
			reg.engines = append(reg.engines, engine)
		}

		logrus.WithFields(logrus.Fields{
			"adapter":    adapter.Name(),
			"engines":    len(adapter.SupportedEngines()),
			"concurrent": adapter.Concurrent(),
		}).Info("Adapter loaded")
	}

	return reg, nil
}

// Resolve returns the adapter serving the engine code.
func (r *Registry) Resolve(engineCode string) (translator.Translator, bool) {
	adapter, ok := r.adapters[engineCode]
	return adapter, ok
}

// Engines lists every engine served by a loaded adapter, in load order.
func (r *Registry) Engines() []wire.Engine {
	out := make([]wire.Engine, len(r.engines))
	copy(out, r.engines)
	return out
}

// Destroy tears down every loaded adapter. Adapters serving multiple engines
// are destroyed once.
func (r *Registry) Destroy() {
	for _, adapter := range r.loaded {
		adapter.Destroy()
	}
}
