// Package config provides configuration management for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"trans-gate/internal/types"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Constants for configuration defaults
const (
	DefaultPort                    = 6028
	DefaultHost                    = "0.0.0.0"
	DefaultGracefulShutdownTimeout = 15
)

// Manager implements the ConfigManager interface from environment variables.
type Manager struct {
	serverConfig   types.ServerConfig
	logConfig      types.LogConfig
	databaseConfig types.DatabaseConfig
}

// NewManager creates a new configuration manager.
// A .env file in the working directory is honored as a fallback source.
func NewManager() (types.ConfigManager, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	manager := &Manager{}
	if err := manager.ReloadConfig(); err != nil {
		return nil, err
	}
	if err := manager.Validate(); err != nil {
		return nil, err
	}
	return manager, nil
}

// ReloadConfig re-reads all configuration values from the environment.
func (m *Manager) ReloadConfig() error {
	m.serverConfig = types.ServerConfig{
		Port:                    parseInteger(os.Getenv("PORT"), DefaultPort),
		Host:                    getEnvOrDefault("HOST", DefaultHost),
		GracefulShutdownTimeout: parseInteger(os.Getenv("GRACEFUL_SHUTDOWN_TIMEOUT"), DefaultGracefulShutdownTimeout),
	}

	m.logConfig = types.LogConfig{
		Level:      strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format:     strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text")),
		EnableFile: parseBoolean(os.Getenv("LOG_ENABLE_FILE"), false),
		FilePath:   getEnvOrDefault("LOG_FILE_PATH", "logs/agent.log"),
	}

	m.databaseConfig = types.DatabaseConfig{
		DSN: getEnvOrDefault("DATABASE_DSN", "data/trans-gate.db"),
	}

	return nil
}

// Validate checks the loaded configuration for consistency.
func (m *Manager) Validate() error {
	if m.serverConfig.Port < 1 || m.serverConfig.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got: %d", m.serverConfig.Port)
	}
	if m.serverConfig.GracefulShutdownTimeout < 1 {
		return fmt.Errorf("graceful shutdown timeout cannot be less than 1 second, got: %d", m.serverConfig.GracefulShutdownTimeout)
	}
	return nil
}

// GetEffectiveServerConfig returns the server configuration.
func (m *Manager) GetEffectiveServerConfig() types.ServerConfig {
	return m.serverConfig
}

// GetLogConfig returns the logging configuration.
func (m *Manager) GetLogConfig() types.LogConfig {
	return m.logConfig
}

// GetDatabaseConfig returns the database configuration.
func (m *Manager) GetDatabaseConfig() types.DatabaseConfig {
	return m.databaseConfig
}

// DisplayServerConfig logs the effective server configuration at startup.
func (m *Manager) DisplayServerConfig() {
	logrus.WithFields(logrus.Fields{
		"host":             m.serverConfig.Host,
		"port":             m.serverConfig.Port,
		"shutdown_timeout": m.serverConfig.GracefulShutdownTimeout,
		"log_level":        m.logConfig.Level,
	}).Info("Server configuration loaded")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseInteger(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseBoolean(value string, defaultValue bool) bool {
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}
