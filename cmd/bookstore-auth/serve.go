package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/bookstore-api/tokenauth"
)

func newServeCommand(envFile *string) *cobra.Command {
	var warm bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the token-protected bookstore API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*envFile)
			if err != nil {
				return err
			}
			defer func() { _ = a.zap.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, a, warm)
		},
	}
	cmd.Flags().BoolVar(&warm, "warm", true, "fetch the signing keys before accepting requests")

	return cmd
}

func serve(ctx context.Context, a *app, warm bool) error {
	if warm {
		// A failure is not fatal: the first token triggers another fetch.
		if set, err := a.provider.Refresh(ctx); err != nil {
			a.zap.Warn("could not prefetch signing keys", zap.Error(err))
		} else {
			a.zap.Info("signing keys loaded", zap.Strings("kids", set.IDs()))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler, err := newRouter(a, reg, tokenauth.NewOpenTelemetryTracer(otel.Tracer("bookstore-auth")))
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.zap.Info("listening", zap.String("addr", srv.Addr), zap.String("realm", a.urls.Realm()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.zap.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
