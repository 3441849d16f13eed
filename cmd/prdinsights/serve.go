package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/prdinsights/internal/app"
	"github.com/rpggio/prdinsights/internal/config"
	"github.com/rpggio/prdinsights/internal/mcp"
	"github.com/rpggio/prdinsights/internal/transport"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var transportMode string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tools over stdio or HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if transportMode != "" {
				cfg.Transport.Mode = transportMode
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&transportMode, "transport", "", "Transport mode (stdio, http); overrides PRDINSIGHTS_TRANSPORT")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	stdio := cfg.Transport.Mode == "stdio"
	logger, closeLog, err := newLogger(cfg, stdio)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stopTracing, err := setupTracing(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stopTracing()

	db, err := openDB(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer db.Close()

	model, err := newModel(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}
	services, err := app.NewServices(db, model, cfg, logger)
	if err != nil {
		return err
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services.MCP(),
		Resolver:      services.APIKeys,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		Version:       Version,
		Logger:        logger,
	})

	if stdio {
		return runStdioMode(ctx, logger, mcpServer)
	}
	return runHTTPMode(ctx, logger, cfg, mcpServer, services)
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stdio server error", "error", err)
		return err
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, cfg config.Config, mcpServer *sdkmcp.Server, services *app.Services) error {
	streamable := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	opts := transport.Options{MCP: streamable}
	if cfg.Auth.Enabled {
		opts.Auth = transport.AuthMiddleware(services.APIKeys)
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           transport.NewServer(mcp.NewHandler(services.MCP()), opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr, "auth", cfg.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}
