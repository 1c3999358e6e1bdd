package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/DoyleJ11/kraken-backend/internal/config"
	"github.com/DoyleJ11/kraken-backend/internal/httpapi"
	"github.com/DoyleJ11/kraken-backend/internal/hub"
	"github.com/DoyleJ11/kraken-backend/internal/logging"
	"github.com/DoyleJ11/kraken-backend/internal/ws"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, hub.Options{
		Logger:      log,
		IdleTimeout: cfg.RoomIdleTimeout,
	})

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(h, httpapi.Options{
		Logger: log,
		Rules:  cfg.Rules,
		WS: ws.Options{
			Logger:         log,
			AllowedOrigins: cfg.AllowedOrigins,
			WriteTimeout:   cfg.WSWriteTimeout,
			ReadTimeout:    cfg.WSReadTimeout,
			RateLimit:      cfg.WSRateLimit,
			RateBurst:      cfg.WSRateBurst,
		},
	})
	srv := &http.Server{Addr: cfg.Addr(), Handler: handler}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		var errs error
		if err := srv.Shutdown(sctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("shutdown: %w", err))
			errs = multierr.Append(errs, srv.Close())
		}
		h.Shutdown()
		return errs
	})
	return g.Wait()
}
