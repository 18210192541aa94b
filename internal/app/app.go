// Package app provides the main application logic and lifecycle management.
package app

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/dig"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
	"gorm.io/gorm"

	"trans-gate/internal/config"
	"trans-gate/internal/encryption"
	"trans-gate/internal/gateway"
	"trans-gate/internal/httpclient"
	"trans-gate/internal/keystore"
	"trans-gate/internal/registry"
	"trans-gate/internal/rpc"
	"trans-gate/internal/services"
	"trans-gate/internal/types"
	"trans-gate/internal/version"
)

// App holds all services and manages the application lifecycle.
type App struct {
	configManager     types.ConfigManager
	httpClientManager *httpclient.Manager
	requestLogService *services.RequestLogService
	keyStore          *keystore.Store
	db                *gorm.DB

	grpcServer *grpc.Server
	registry   *registry.Registry
}

// AppParams defines the dependencies for the App.
type AppParams struct {
	dig.In
	ConfigManager     types.ConfigManager
	HTTPClientManager *httpclient.Manager
	RequestLogService *services.RequestLogService
	KeyStore          *keystore.Store
	DB                *gorm.DB
}

// NewApp is the constructor for App, with dependencies injected by dig.
func NewApp(params AppParams) *App {
	return &App{
		configManager:     params.ConfigManager,
		httpClientManager: params.HTTPClientManager,
		requestLogService: params.RequestLogService,
		keyStore:          params.KeyStore,
		db:                params.DB,
	}
}

// Start runs the application, it is a non-blocking call.
func (a *App) Start() error {
	key, created, err := a.keyStore.Ensure()
	if err != nil {
		return fmt.Errorf("prepare security key: %w", err)
	}
	if created {
		logrus.Infof("Security key created at %s", a.keyStore.FilePath())
	}

	codec, err := encryption.NewCodec(key)
	if err != nil {
		return fmt.Errorf("initialize payload codec: %w", err)
	}

	configDir := config.ConfigDir()
	gatewayConfig, err := config.LoadGatewayConfig(configDir)
	if err != nil {
		return fmt.Errorf("load gateway config: %w", err)
	}

	loader := registry.NewLoader(
		registry.Deps{HTTPClients: a.httpClientManager},
		&config.FileAdapterConfigProvider{BaseDir: configDir},
	)
	a.registry, err = loader.Load(gatewayConfig)
	if err != nil {
		return fmt.Errorf("load adapters: %w", err)
	}
	if len(a.registry.Engines()) == 0 {
		return fmt.Errorf("no adapter initialized successfully, nothing to serve")
	}

	a.requestLogService.Start()

	service := gateway.NewService(codec, a.registry, a.requestLogService)
	a.grpcServer = grpc.NewServer()
	rpc.RegisterAgentServer(a.grpcServer, service)
	reflection.Register(a.grpcServer)

	a.configManager.DisplayServerConfig()

	serverConfig := a.configManager.GetEffectiveServerConfig()
	addr := fmt.Sprintf("%s:%d", serverConfig.Host, serverConfig.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	go func() {
		logrus.Infof("Translation gateway started successfully on Version: %s", version.Version)
		logrus.Infof("Serving gRPC on %s with %d engines", addr, len(a.registry.Engines()))
		if err := a.grpcServer.Serve(listener); err != nil {
			logrus.Fatalf("Server startup failed: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the application.
func (a *App) Stop(ctx context.Context) {
	logrus.Info("Shutting down server...")

	if a.grpcServer != nil {
		stopStart := time.Now()
		done := make(chan struct{})
		go func() {
			a.grpcServer.GracefulStop()
			close(done)
		}()

		select {
		case <-done:
			logrus.Infof("gRPC server has been shut down. (took %v)", time.Since(stopStart))
		case <-ctx.Done():
			logrus.Warn("gRPC graceful stop timed out, forcing remaining streams to close.")
			a.grpcServer.Stop()
		}
	}

	if a.registry != nil {
		a.registry.Destroy()
	}
	a.requestLogService.Stop(ctx)
	a.httpClientManager.CloseIdleConnections()

	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logrus.Errorf("Error closing database: %v", err)
		}
	}

	logrus.Info("Server exited gracefully")
}
