// Command orchestrator-core starts the HTTP/WebSocket API server: it wires
// the database, event bus, LLM provider registry, service layer, and
// orchestration coordinator, then serves until an interrupt signal arrives.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeready-toolchain/orchestrator-core/pkg/api"
	"github.com/codeready-toolchain/orchestrator-core/pkg/bus"
	"github.com/codeready-toolchain/orchestrator-core/pkg/config"
	"github.com/codeready-toolchain/orchestrator-core/pkg/database"
	"github.com/codeready-toolchain/orchestrator-core/pkg/llm"
	"github.com/codeready-toolchain/orchestrator-core/pkg/llm/providers"
	"github.com/codeready-toolchain/orchestrator-core/pkg/orchestrator"
	"github.com/codeready-toolchain/orchestrator-core/pkg/services"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	flag.Parse()

	if err := run(*configDir); err != nil {
		slog.Error("orchestrator-core exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configDir string) error {
	cfg, err := config.Load(config.DefaultEnvPath(configDir))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.WaitReady(ctx, cfg.DatabaseURL, 30*time.Second); err != nil {
		return err
	}
	db, err := database.NewClient(ctx, database.Config{
		DatabaseURL:     cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		AcquireTimeout:  cfg.DBAcquireTimeout,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("connected to database")

	eventBus := bus.New()

	llmRegistry := llm.NewRegistry()
	if cfg.AnthropicAPIKey != "" {
		llmRegistry.Register(providers.NewAnthropicProvider(cfg.AnthropicAPIKey))
		slog.Info("registered LLM provider", "provider", "anthropic")
	}
	if cfg.GoogleAIStudioAPIKey != "" {
		googleProvider, err := providers.NewGoogleProvider(ctx, cfg.GoogleAIStudioAPIKey)
		if err != nil {
			return err
		}
		llmRegistry.Register(googleProvider)
		slog.Info("registered LLM provider", "provider", "google")
	}

	workflowService := services.NewWorkflowService(db)
	agentService := services.NewAgentService(db)
	toolPermissionService := services.NewToolPermissionService(db)
	executionService := services.NewExecutionService(db, llmRegistry, eventBus)
	coordinator := orchestrator.NewCoordinator(db, eventBus, llmRegistry, executionService, cfg.MaxIterations)

	server := api.NewServer(db, eventBus, llmRegistry, workflowService, agentService, toolPermissionService, executionService, coordinator)

	ln, err := net.Listen("tcp", ":"+cfg.HTTPPort)
	if err != nil {
		return err
	}

	serveErrCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		serveErrCh <- server.StartWithListener(ln)
	}()

	select {
	case err := <-serveErrCh:
		return err
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
