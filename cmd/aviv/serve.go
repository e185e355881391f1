package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/aviv-calendar/internal/api"
	"github.com/username/aviv-calendar/internal/daemon"
)

func watchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run as daemon, logging lunisolar day changes for the configured location",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initializeApp()
			if err != nil {
				return err
			}

			if interval <= 0 {
				interval = a.cfg.Daemon.GetCheckInterval()
			}

			d := daemon.NewDaemon(a.engine, a.location, interval, logger)
			return d.Start()
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Check interval (default from config)")

	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initializeApp()
			if err != nil {
				return err
			}

			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			handler := api.NewHandler(a.engine, a.store, a.location, logger)
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(handler, a.cfg.Server.CORSOrigins),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server listening", zap.String("addr", addr))
				errCh <- srv.ListenAndServe()
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server failed: %w", err)
				}
				return nil
			case sig := <-sigChan:
				logger.Info("Received signal, shutting down",
					zap.String("signal", sig.String()))
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("failed to shut down http server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")

	return cmd
}
