package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/serranog/altair/internal/config"
	"github.com/serranog/altair/internal/server"
	"github.com/serranog/altair/internal/storage/sqlite"
	"github.com/serranog/altair/internal/trace"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web chat server",
	Long: `Run the HTTP server exposing the chat UI and the session API.

The server serves an embedded single-page chat interface and a JSON API
for sessions, messages, providers, tools, and bookings. Streaming replies
are delivered over a websocket per session.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	ctx := context.Background()
	shutdownTrace, err := trace.Init(ctx, trace.Config{
		Endpoint: cfg.Tracing.Endpoint,
		URLPath:  cfg.Tracing.URLPath,
		APIKey:   cfg.Tracing.APIKey,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer shutdownTrace(ctx)

	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	registry := buildRegistry(cfg, store)
	defer registry.Close()

	srv := server.New(cfg, store, registry)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Port)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
		return srv.Shutdown(ctx)
	}
}
