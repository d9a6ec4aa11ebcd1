// Command payment-service serves the idempotent charge API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/strogmv/payment-service/internal/app"
	"github.com/strogmv/payment-service/internal/bootstrap"
	"github.com/strogmv/payment-service/internal/config"
	"github.com/strogmv/payment-service/internal/pkg/logger"
	transport "github.com/strogmv/payment-service/internal/transport/http"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("payment-service stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	shutdownTracing, err := bootstrap.InitTracing(sigCtx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			slog.Warn("tracer shutdown", slog.String("error", err.Error()))
		}
	}()

	c, err := app.NewContainer(sigCtx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	relayCtx, stopRelay := context.WithCancel(context.Background())
	var relayWG sync.WaitGroup
	if c.Relay != nil {
		relayWG.Add(1)
		go func() {
			defer relayWG.Done()
			c.Relay.Run(relayCtx)
		}()
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: transport.NewRouter(transport.RouterConfig{
			ServiceName:    cfg.ServiceName,
			CORSOrigins:    cfg.CORSOrigins,
			RequestTimeout: cfg.RequestTimeout,
			MaxBodyBytes:   cfg.MaxBodyBytes,
		}, c.SvcPayments, c.Ready),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		slog.Info("payment-service listening",
			slog.String("addr", cfg.HTTPAddr),
			slog.String("store", cfg.StoreDriver),
			slog.Bool("replay_cache", cfg.RedisAddr != ""),
			slog.Bool("events", c.Relay != nil),
		)
		serverErrCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-sigCtx.Done():
		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("http shutdown", slog.String("error", err.Error()))
		}
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	stopRelay()
	relayWG.Wait()
	if c.Relay != nil {
		// One last pass so events committed during the drain are not held
		// until the next start.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if _, err := c.Relay.Flush(ctx); err != nil {
			slog.Warn("final outbox flush", slog.String("error", err.Error()))
		}
		cancel()
	}
	return serveErr
}
