package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"trans-gate/internal/keystore"
)

const (
	// GatewayConfigFileName is the adapter mapping file looked up in the working directory.
	GatewayConfigFileName = "config.yaml"
	// AdapterConfigDir holds one YAML configuration file per adapter code.
	AdapterConfigDir = "translator"
)

// ConfigDir returns the directory holding the gateway configuration files:
// the adapter mapping file, the per-adapter settings directory, and the key
// file. Defaults to the working directory.
func ConfigDir() string {
	return getEnvOrDefault("CONFIG_DIR", ".")
}

// NewKeyStoreFromEnv creates the key store rooted at the configuration
// directory.
func NewKeyStoreFromEnv() *keystore.Store {
	return keystore.NewStore(ConfigDir())
}

// AdapterDefine maps a configuration-level adapter code to the registered
// implementation that should be instantiated for it.
type AdapterDefine struct {
	AdapterCode string `yaml:"adapterCode"`
	Impl        string `yaml:"impl"`
}

// GatewayConfig is the adapter wiring configuration loaded once at startup.
type GatewayConfig struct {
	EnabledAdapters []string        `yaml:"enabledAdapters"`
	AdapterDefines  []AdapterDefine `yaml:"adapterDefines"`
}

// Define returns the adapter definition for the given code, or nil.
func (c *GatewayConfig) Define(adapterCode string) *AdapterDefine {
	for i := range c.AdapterDefines {
		if c.AdapterDefines[i].AdapterCode == adapterCode {
			return &c.AdapterDefines[i]
		}
	}
	return nil
}

// LoadGatewayConfig reads and parses the gateway configuration file.
func LoadGatewayConfig(dir string) (*GatewayConfig, error) {
	path := filepath.Join(dir, GatewayConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gateway config %q: %w", path, err)
	}

	var cfg GatewayConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse gateway config %q: %w", path, err)
	}
	if len(cfg.EnabledAdapters) == 0 {
		return nil, fmt.Errorf("gateway config %q enables no adapters", path)
	}
	return &cfg, nil
}

// AdapterConfigProvider loads per-adapter configuration maps.
// Adapters receive the raw map and pick out the keys they need, falling back
// to environment variables for credentials that are absent from the file.
type AdapterConfigProvider interface {
	AdapterConfig(adapterCode string) (map[string]any, error)
}

// FileAdapterConfigProvider reads translator/<adapterCode>.yaml below a base directory.
type FileAdapterConfigProvider struct {
	BaseDir string
}

// AdapterConfig loads the configuration map for one adapter.
// A missing file yields an empty map, not an error: many adapters are fully
// configurable from environment variables alone.
func (p *FileAdapterConfigProvider) AdapterConfig(adapterCode string) (map[string]any, error) {
	path := filepath.Join(p.BaseDir, AdapterConfigDir, adapterCode+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read adapter config %q: %w", path, err)
	}

	var cfg map[string]any
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse adapter config %q: %w", path, err)
	}
	if cfg == nil {
		cfg = map[string]any{}
	}
	return cfg, nil
}
