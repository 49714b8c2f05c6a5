// Package main is the entry point for the anatomy viewer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/anatomy-viewer/internal/app"
	"github.com/Faultbox/anatomy-viewer/internal/config"
	"github.com/Faultbox/anatomy-viewer/internal/logger"
)

var (
	flags       config.Flags
	writeConfig bool
)

var rootCmd = &cobra.Command{
	Use:   "viewer [model]",
	Short: "Interactive 3D anatomy viewer",
	Long: `viewer shows a human body model that can be zoomed, panned and rotated.
Clicking a body part highlights it and, with --bridge, forwards it to the
dashboard over a WebSocket.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags.Register(rootCmd.Flags())
	rootCmd.Flags().BoolVar(&writeConfig, "write-config", false, "Write the effective config to the user config directory and exit")
}

func run(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		flags.Model = args[0]
	}

	cfg, err := config.Load(&flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	if writeConfig {
		path, err := cfg.Save()
		if err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		logger.Info("config written", zap.String("path", path))
		return nil
	}

	logger.Info("=== Anatomy Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	if err := a.Run(ctx); err != nil {
		logger.Error("viewer error", zap.Error(err))
		return err
	}
	logger.Info("viewer closed normally")
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
