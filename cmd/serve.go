package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"docpilot/internal/config"
	"docpilot/internal/docstore"
	"docpilot/internal/gateway"
	"docpilot/internal/log"
	"docpilot/internal/observability"
)

// tracerShutdownTimeout bounds the final span flush on exit.
const tracerShutdownTimeout = 5 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [addr]",
	Short: "Start the HTTP chat gateway",
	Long: `Starts the gateway that bridges chat clients to the document
database's RAG agent. The agent definition is registered on startup.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			serveAddr = args[0]
		}
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (host:port), overrides configuration")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr := cfg.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	if err := validateAddr(addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
	logger.Info("starting gateway", "version", Version)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Tracing.Environment,
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), tracerShutdownTimeout)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}()

	client := docstore.New(docstore.Options{
		URL:             cfg.DocstoreURL,
		Database:        cfg.Database,
		APIKey:          cfg.DocstoreAPIKey,
		AgentID:         cfg.AgentID,
		Timeout:         time.Duration(cfg.RequestTimeout) * time.Second,
		MaxOpenSessions: cfg.MaxOpenSessions,
	}, logger)

	if err := client.EnsureAgent(ctx); err != nil {
		return fmt.Errorf("registering agent: %w", err)
	}
	if err := client.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("registering conversation index: %w", err)
	}
	logger.Info("agent registered", "agent_id", cfg.AgentID, "database", cfg.Database)

	server, err := gateway.NewServer(gateway.ServerConfig{
		Logger:      logger,
		Client:      client,
		DefaultUser: cfg.DefaultUser,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		RateBurst:   cfg.RateBurst,
	})
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	logger.Info("gateway ready",
		"addr", addr,
		"api", "/api/chat/*, /api/docs",
		"health", "/health, /ready",
	)
	return server.Run(ctx, addr)
}
