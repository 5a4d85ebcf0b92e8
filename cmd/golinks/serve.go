package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Totarae/golinks/internal/auth"
	"github.com/Totarae/golinks/internal/config"
	grpcserver "github.com/Totarae/golinks/internal/grpc"
	"github.com/Totarae/golinks/internal/handlers"
	"github.com/Totarae/golinks/internal/metrics"
	"github.com/Totarae/golinks/internal/router"
	"github.com/Totarae/golinks/internal/service"
	"github.com/Totarae/golinks/internal/storage"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запускает HTTP-сервер (и gRPC health, если задан grpc_address)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

// services собранное приложение поверх выбранного хранилища
type services struct {
	raw     storage.Storage
	store   storage.Storage
	golinks *service.GolinkService
	handler http.Handler
}

func newRegistry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// build связывает хранилище, сервис, обработчики и маршрутизатор.
func build(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg *prometheus.Registry) (*services, error) {
	m, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	raw, backend, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	store := storage.Instrument(raw, backend, m)

	bearer := auth.New(cfg.AuthToken)
	logger.Info("HTTP auth configured", zap.Bool("enabled", bearer.Enabled()))

	golinks := service.NewGolinkService(store, logger)
	r := router.NewRouter(router.Deps{
		Handler:  handlers.NewHandler(golinks, logger),
		Auth:     bearer,
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger,
	})
	return &services{raw: raw, store: store, golinks: golinks, handler: r}, nil
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := newRegistry()
	if err != nil {
		return err
	}
	svc, err := build(ctx, a.cfg, a.logger, reg)
	if err != nil {
		return err
	}
	defer func() {
		if n, ok := memoryLen(svc.raw); ok && n > 0 {
			a.logger.Warn("In-memory golinks are discarded on exit", zap.Int("count", n))
		}
		if err := svc.store.Close(); err != nil {
			a.logger.Warn("Failed to close storage", zap.Error(err))
		}
	}()

	grpcDone := make(chan error, 1)
	if a.cfg.GRPCAddress != "" {
		lis, err := net.Listen("tcp", a.cfg.GRPCAddress)
		if err != nil {
			return fmt.Errorf("listen gRPC %s: %w", a.cfg.GRPCAddress, err)
		}
		hs := grpcserver.NewHealthServer(svc.golinks, a.cfg.HealthInterval, a.logger)
		go func() { grpcDone <- hs.Serve(ctx, lis) }()
	} else {
		grpcDone <- nil
	}

	srv := &http.Server{
		Addr:              a.cfg.ServerAddress,
		Handler:           svc.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("Сервер запущен", zap.String("address", a.cfg.ServerAddress))
	if err := runWithGracefulShutdown(ctx, srv, a.cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("ошибка при запуске сервера: %w", err)
	}
	stop()
	if err := <-grpcDone; err != nil {
		a.logger.Warn("gRPC server stopped with error", zap.Error(err))
	}
	a.logger.Info("Сервер остановлен")
	return nil
}

// runWithGracefulShutdown обслуживает запросы до отмены ctx, затем ждёт завершения текущих запросов
func runWithGracefulShutdown(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	return nil
}
