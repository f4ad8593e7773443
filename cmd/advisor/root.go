package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"campus-advisor/internal/app"
	"campus-advisor/internal/config"
	"campus-advisor/internal/contextutil"
)

var (
	dataDir string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "Study advisor over a course catalog",
	Long: `Indexes a programme's module handbook, weekly schedule and general
documents, and answers questions about them over HTTP or the command line.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "document directory (overrides DATA_DIR)")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	if dataDir != "" {
		if err := os.Setenv("DATA_DIR", dataDir); err != nil {
			return fmt.Errorf("failed to set DATA_DIR: %w", err)
		}
	}
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg = c

	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	cmd.SetContext(contextutil.WithLogger(commandContext(cmd), logger))
	logger.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)
	return nil
}

func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openApp builds the application and loads the last published index.
func openApp(ctx context.Context) (*app.App, bool, error) {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, false, err
	}
	restored, err := a.Restore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, false, fmt.Errorf("failed to restore index: %w", err)
	}
	return a, restored, nil
}
