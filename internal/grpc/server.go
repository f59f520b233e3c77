// Package grpc exposes the service health over gRPC for orchestrators and mesh checks.
package grpc

import (
	"context"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"vio-chat-service/internal/logger"
	"vio-chat-service/internal/observability"
)

// ServiceName is the health service name reported for the chat API.
const ServiceName = "vio.chat"

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Server wraps a gRPC server carrying the standard health service.
type Server struct {
	srv    *gogrpc.Server
	health *health.Server
}

// NewServer builds a server with tracing and metrics interceptors.
func NewServer() *Server {
	srv := gogrpc.NewServer(
		gogrpc.StatsHandler(otelgrpc.NewServerHandler()),
		gogrpc.ChainUnaryInterceptor(observability.GRPCServerMetricsUnaryInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{srv: srv, health: hs}
}

// Health returns the underlying health server.
func (s *Server) Health() *health.Server {
	return s.health
}

// Serve blocks serving on lis.
func (s *Server) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// Stop marks every service as not serving and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

// Monitor runs the checks every interval and flips the serving status accordingly.
// It returns when ctx is done.
func (s *Server) Monitor(ctx context.Context, interval time.Duration, checks map[string]Check) {
	run := func() {
		status := healthpb.HealthCheckResponse_SERVING
		for name, check := range checks {
			cctx, cancel := context.WithTimeout(ctx, interval)
			err := check(cctx)
			cancel()
			if err != nil {
				logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
				status = healthpb.HealthCheckResponse_NOT_SERVING
			}
		}
		s.health.SetServingStatus(ServiceName, status)
		s.health.SetServingStatus("", status)
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
