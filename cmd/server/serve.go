package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"netdash/internal/handler"
	"netdash/internal/hub"
	"netdash/internal/metrics"
	"netdash/internal/service"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and event stream",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "override the configured HTTP listen address")
}

func runServe(parent context.Context) error {
	cfg, log, err := setup(false)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(orBackground(parent), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// Connect event bus to SSE hub
	sseHub := hub.New(log)
	go sseHub.Run(ctx)

	eventChan := make(chan service.Event, 100)
	a.eventBus.Subscribe(eventChan)
	go func() {
		for {
			select {
			case event := <-eventChan:
				sseHub.Broadcast(event)
			case <-ctx.Done():
				return
			}
		}
	}()

	deviceHandler := handler.NewDeviceHandler(a.devices, a.discovery, log)
	router := handler.NewRouter(deviceHandler, sseHub, metrics.Handler())

	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handler.Chain(router,
			handler.Recover(log),
			handler.CORS,
			handler.Logger(log),
		),
		ReadTimeout: 10 * time.Second,
		// Discovery may take several SNMP timeouts per device; SSE streams
		// are long lived, so no write timeout is set.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
	return nil
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
