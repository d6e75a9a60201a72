package main

import (
	"context"
	"errors"
	"fmt"
	"growdoctor/internal/app"
	"growdoctor/internal/config"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfgFile string
	v := config.New()

	cmd := &cobra.Command{
		Use:           "growdoctor-server",
		Short:         "Plant photo diagnosis API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ReadFile(v, cfgFile); err != nil {
				return err
			}
			cfg, err := config.Decode(v)
			if err != nil {
				return err
			}
			logger, err := config.NewLogger(cfg.Logging, os.Stderr)
			if err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}
			slog.SetDefault(logger)
			return serve(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or /etc/growdoctor/config.yaml)")
	cmd.Flags().String("port", "", "listen port")
	cmd.Flags().String("log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", "", "log format (text, json)")
	cmd.Flags().String("provider", "", "vision provider (openai, gemini, stub)")
	cmd.Flags().String("cache", "", "cache backend (memory, redis, mongo)")

	// flags only win when set
	_ = v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = v.BindPFlag("logging.level", cmd.Flags().Lookup("log-level"))
	_ = v.BindPFlag("logging.format", cmd.Flags().Lookup("log-format"))
	_ = v.BindPFlag("ai.provider", cmd.Flags().Lookup("provider"))
	_ = v.BindPFlag("cache.backend", cmd.Flags().Lookup("cache"))
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			logger.Warn("server.close_failed", "err", err)
		}
	}()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.RunSweeper(sweepCtx, cfg.Cache.SweepInterval)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      a.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listening", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server.exited")
	return nil
}
