package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trans-gate/internal/config"
	"trans-gate/internal/translator"
	"trans-gate/internal/wire"
)

type fakeAdapter struct {
	translator.Base
	initOK    bool
	initCalls int
	destroyed int
	settings  map[string]any
}

func (f *fakeAdapter) Init(settings map[string]any) bool {
	f.initCalls++
	f.settings = settings
	if !f.initOK {
		return false
	}
	return f.Base.Init(settings)
}

func (f *fakeAdapter) Destroy() {
	f.destroyed++
}

func (f *fakeAdapter) Translate(_ translator.Request, _ translator.Callback) {}

func newFakeAdapter(name string, initOK bool, engines ...wire.Engine) *fakeAdapter {
	return &fakeAdapter{
		Base:   translator.NewBase(name, engines, nil),
		initOK: initOK,
	}
}

type staticProvider struct {
	settings map[string]map[string]any
	err      error
}

func (p *staticProvider) AdapterConfig(code string) (map[string]any, error) {
	if p.err != nil {
		return nil, p.err
	}
	if s, ok := p.settings[code]; ok {
		return s, nil
	}
	return map[string]any{}, nil
}

func gatewayConfig(defines ...config.AdapterDefine) *config.GatewayConfig {
	cfg := &config.GatewayConfig{AdapterDefines: defines}
	for _, def := range defines {
		cfg.EnabledAdapters = append(cfg.EnabledAdapters, def.AdapterCode)
	}
	return cfg
}

func TestLoadResolvesEngines(t *testing.T) {
	alpha := newFakeAdapter("alpha", true, wire.Engine{Code: "alpha", Name: "Alpha"})
	Register("test.alpha", func(_ Deps) translator.Translator { return alpha })

	loader := NewLoader(Deps{}, &staticProvider{
		settings: map[string]map[string]any{"alpha": {"concurrent": 3}},
	})
	reg, err := loader.Load(gatewayConfig(config.AdapterDefine{AdapterCode: "alpha", Impl: "test.alpha"}))
	require.NoError(t, err)

	adapter, ok := reg.Resolve("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", adapter.Name())
	assert.Equal(t, 3, adapter.Concurrent())

	_, ok = reg.Resolve("missing")
	assert.False(t, ok)

	engines := reg.Engines()
	require.Len(t, engines, 1)
	assert.Equal(t, "Alpha", engines[0].Name)
}

func TestLoadInitFailureFailsLoad(t *testing.T) {
	broken := newFakeAdapter("broken", false, wire.Engine{Code: "broken"})
	healthy := newFakeAdapter("healthy", true, wire.Engine{Code: "healthy"})
	Register("test.broken", func(_ Deps) translator.Translator { return broken })
	Register("test.healthy", func(_ Deps) translator.Translator { return healthy })

	loader := NewLoader(Deps{}, &staticProvider{})
	reg, err := loader.Load(gatewayConfig(
		config.AdapterDefine{AdapterCode: "broken", Impl: "test.broken"},
		config.AdapterDefine{AdapterCode: "healthy", Impl: "test.healthy"},
	))

	require.Error(t, err)
	assert.ErrorContains(t, err, `initialize adapter "broken"`)
	assert.Nil(t, reg)
	assert.Equal(t, 1, broken.initCalls)
}

func TestLoadEngineConflictFirstWins(t *testing.T) {
	first := newFakeAdapter("first", true, wire.Engine{Code: "shared", Name: "First"})
	second := newFakeAdapter("second", true, wire.Engine{Code: "shared", Name: "Second"}, wire.Engine{Code: "extra", Name: "Extra"})
	Register("test.first", func(_ Deps) translator.Translator { return first })
	Register("test.second", func(_ Deps) translator.Translator { return second })

	loader := NewLoader(Deps{}, &staticProvider{})
	reg, err := loader.Load(gatewayConfig(
		config.AdapterDefine{AdapterCode: "first", Impl: "test.first"},
		config.AdapterDefine{AdapterCode: "second", Impl: "test.second"},
	))
	require.NoError(t, err)

	adapter, ok := reg.Resolve("shared")
	require.True(t, ok)
	assert.Equal(t, "first", adapter.Name())

	adapter, ok = reg.Resolve("extra")
	require.True(t, ok)
	assert.Equal(t, "second", adapter.Name())

	require.Len(t, reg.Engines(), 2)
}

func TestLoadUnknownImplementation(t *testing.T) {
	loader := NewLoader(Deps{}, &staticProvider{})
	_, err := loader.Load(gatewayConfig(config.AdapterDefine{AdapterCode: "ghost", Impl: "test.ghost"}))
	assert.ErrorContains(t, err, "unknown implementation")
}

func TestLoadMissingDefinition(t *testing.T) {
	loader := NewLoader(Deps{}, &staticProvider{})
	_, err := loader.Load(&config.GatewayConfig{EnabledAdapters: []string{"orphan"}})
	assert.ErrorContains(t, err, "no definition")
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("test.dup", func(_ Deps) translator.Translator { return nil })
	assert.Panics(t, func() {
		Register("test.dup", func(_ Deps) translator.Translator { return nil })
	})
}

func TestDestroyTearsDownLoadedAdapters(t *testing.T) {
	multi := newFakeAdapter("multi", true, wire.Engine{Code: "m1"}, wire.Engine{Code: "m2"})
	Register("test.multi", func(_ Deps) translator.Translator { return multi })

	loader := NewLoader(Deps{}, &staticProvider{})
	reg, err := loader.Load(gatewayConfig(config.AdapterDefine{AdapterCode: "multi", Impl: "test.multi"}))
	require.NoError(t, err)

	reg.Destroy()
	assert.Equal(t, 1, multi.destroyed)
}
