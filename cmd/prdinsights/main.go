// Command prdinsights serves the insight extraction tools over MCP and runs
// one-off analyses from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rpggio/prdinsights/internal/app"
	"github.com/rpggio/prdinsights/internal/config"
	"github.com/rpggio/prdinsights/internal/sqlite"
	"github.com/spf13/cobra"
)

const appName = "prdinsights"

// Version is set at build time.
var Version = "dev"

// newModel builds the workflow's model; tests replace it.
var newModel = app.NewModel

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Extract product insights and concerns from requirement documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(serveCmd(), analyzeCmd(), apikeyCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}

// newLogger builds the text logger. In stdio mode logs go to stderr to keep
// stdout clean for JSON-RPC; a configured log path replaces either stream.
func newLogger(cfg config.Config, stdio bool) (*slog.Logger, func(), error) {
	logWriter := io.Writer(os.Stdout)
	if stdio {
		logWriter = os.Stderr
	}
	closer := func() {}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		logWriter = fileWriter
		closer = func() { _ = file.Close() }
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return logger, closer, nil
}

// setupTracing installs the configured tracer provider. Spans from the stdout
// exporter go to stderr.
func setupTracing(ctx context.Context, cfg config.Config, logger *slog.Logger) (func(), error) {
	shutdown, err := app.SetupTracing(ctx, cfg.Tracing, Version, os.Stderr)
	if err != nil {
		return nil, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openDB(path string) (*sqlite.DB, error) {
	if err := ensureDBDir(path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
