package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"campus-advisor/internal/contextutil"
)

const shutdownTimeout = 10 * time.Second

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Starts the HTTP API on API_PORT. The last published index is loaded
from the database; when none exists an ingestion starts in the background.
With --watch the data directory is re-ingested whenever a file changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "re-ingest when the data directory changes (also WATCH_DATA_DIR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger := contextutil.LoggerFromContext(ctx)

	a, restored, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	if err := a.CheckEmbedder(ctx); err != nil {
		logger.WarnContext(ctx, "embedding backend check failed", "error", err)
	} else {
		logger.InfoContext(ctx, "embedding client validated", "vector_size", cfg.EmbeddingDim)
	}

	if !restored {
		logger.InfoContext(ctx, "no published index, starting background ingestion", "data_dir", cfg.DataDir)
		a.Runner().Start(ctx)
	}

	if serveWatch || cfg.WatchDataDir {
		go func() {
			if err := a.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorContext(ctx, "data directory watcher stopped", "error", err)
			}
		}()
	}

	srv := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting API server", "addr", srv.Addr)
		logger.DebugContext(ctx, "LLM configuration", "provider", cfg.LLMProvider, "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.InfoContext(ctx, "shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	return nil
}
