// Package grpc поднимает стандартный сервис grpc.health.v1.Health,
// статус которого следует за доступностью хранилища.
package grpc

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName имя сервиса в ответах Health.Check.
const ServiceName = "golinks"

const probeTimeout = 2 * time.Second

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer обновляет статус health-сервиса по результатам Ping.
type HealthServer struct {
	health   *health.Server
	pinger   Pinger
	interval time.Duration
	logger   *zap.Logger
}

// NewHealthServer создаёт health-сервер, опрашивающий p раз в interval.
func NewHealthServer(p Pinger, interval time.Duration, logger *zap.Logger) *HealthServer {
	return &HealthServer{
		health:   health.NewServer(),
		pinger:   p,
		interval: interval,
		logger:   logger,
	}
}

// Register добавляет health и reflection в gRPC-сервер.
func (s *HealthServer) Register(srv *gogrpc.Server) {
	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)
}

// Probe выполняет одну проверку и выставляет статус.
func (s *HealthServer) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		s.logger.Warn("Storage health probe failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Run проверяет хранилище раз в interval до отмены ctx.
func (s *HealthServer) Run(ctx context.Context) {
	s.Probe(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}

// Serve обслуживает gRPC на lis до отмены ctx, затем плавно останавливается.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := gogrpc.NewServer()
	s.Register(srv)

	go s.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()

	s.logger.Info("gRPC health server started", zap.String("address", lis.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, gogrpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
		srv.GracefulStop()
		return nil
	}
}
